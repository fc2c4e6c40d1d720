package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hairstudio/internal/domain"
)

const catalogJSON = `{
  "styles": [
    {"id": "butterfly-cut", "name": "butterfly cut", "description": "Voluminous, face-framing layers", "gender": "female"},
    {"id": "leaf-cut", "name": "leaf cut", "description": "Leaf cut with airy middle part flow", "gender": "male"},
    {"id": "buzz", "name": "buzz", "description": "Even clipper cut", "gender": "both"}
  ],
  "colors": [
    {"id": "black", "name": "natural black", "hex": "#1a1a1a", "promptValue": "natural black hair"}
  ]
}`

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog(strings.NewReader(catalogJSON))
	require.NoError(t, err)

	s, ok := c.Style("butterfly-cut")
	require.True(t, ok)
	assert.Equal(t, "butterfly cut Voluminous, face-framing layers", s.Prompt())

	col, ok := c.Color("black")
	require.True(t, ok)
	assert.Equal(t, "natural black hair", col.PromptValue)

	_, ok = c.Style("nope")
	assert.False(t, ok)

	var male []string
	for _, s := range c.StylesFor(domain.GenderMale) {
		male = append(male, s.ID)
	}
	assert.Equal(t, []string{"leaf-cut", "buzz"}, male)
	assert.Equal(t, "Butterfly Cut", DisplayName(s.Name))
}

func TestLoadCatalog_Rejects(t *testing.T) {
	tests := map[string]string{
		"bad json":        `{"styles": [`,
		"style no id":     `{"styles": [{"name": "x", "description": "y"}]}`,
		"color no prompt": `{"colors": [{"id": "c"}]}`,
		"duplicate style": `{"styles": [{"id": "a", "name": "x"}, {"id": "a", "name": "y"}]}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(raw))
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}
