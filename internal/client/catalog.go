package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"hairstudio/internal/domain"
)

// Style is one selectable hairstyle. Gender "both" matches either catalogue.
type Style struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Gender      string `json:"gender"`
}

// Prompt is the style description sent to the generation endpoint.
func (s Style) Prompt() string {
	return strings.TrimSpace(s.Name + " " + s.Description)
}

// Color is one selectable hair color.
type Color struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Hex         string `json:"hex,omitempty"`
	PromptValue string `json:"promptValue"`
}

// Catalog resolves selection ids to prompt fragments.
type Catalog interface {
	Style(id string) (Style, bool)
	Color(id string) (Color, bool)
}

// StaticCatalog is a catalog loaded once from JSON.
type StaticCatalog struct {
	Styles []Style `json:"styles"`
	Colors []Color `json:"colors"`
}

// LoadCatalog decodes a catalog and rejects entries without ids or prompts.
func LoadCatalog(r io.Reader) (*StaticCatalog, error) {
	var c StaticCatalog
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: decode catalog: %v", domain.ErrValidation, err)
	}
	seen := map[string]bool{}
	for _, s := range c.Styles {
		if s.ID == "" || s.Prompt() == "" {
			return nil, fmt.Errorf("%w: style %q is incomplete", domain.ErrValidation, s.ID)
		}
		if seen["s:"+s.ID] {
			return nil, fmt.Errorf("%w: duplicate style %q", domain.ErrValidation, s.ID)
		}
		seen["s:"+s.ID] = true
	}
	for _, col := range c.Colors {
		if col.ID == "" || strings.TrimSpace(col.PromptValue) == "" {
			return nil, fmt.Errorf("%w: color %q is incomplete", domain.ErrValidation, col.ID)
		}
		if seen["c:"+col.ID] {
			return nil, fmt.Errorf("%w: duplicate color %q", domain.ErrValidation, col.ID)
		}
		seen["c:"+col.ID] = true
	}
	return &c, nil
}

func (c *StaticCatalog) Style(id string) (Style, bool) {
	for _, s := range c.Styles {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}

func (c *StaticCatalog) Color(id string) (Color, bool) {
	for _, col := range c.Colors {
		if col.ID == id {
			return col, true
		}
	}
	return Color{}, false
}

// StylesFor lists the styles offered for gender.
func (c *StaticCatalog) StylesFor(g domain.Gender) []Style {
	var out []Style
	for _, s := range c.Styles {
		if s.Gender == "" || s.Gender == "both" || s.Gender == string(g) {
			out = append(out, s)
		}
	}
	return out
}

// DisplayName title-cases a catalog name for terminal listings.
func DisplayName(name string) string {
	return cases.Title(language.Und).String(name)
}
