package domain

import (
	"fmt"
	"strings"
)

// Angle is one of the three camera angles a preview can be rendered from.
type Angle string

const (
	AngleFront Angle = "Front"
	AngleSide  Angle = "Side"
	AngleBack  Angle = "Back"
)

// Angles lists every supported angle in display order.
var Angles = []Angle{AngleFront, AngleSide, AngleBack}

// ParseAngle accepts the canonical names case-insensitively.
func ParseAngle(s string) (Angle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "front":
		return AngleFront, nil
	case "side":
		return AngleSide, nil
	case "back":
		return AngleBack, nil
	}
	return "", fmt.Errorf("%w: unsupported angle %q", ErrValidation, s)
}

// Gender selects the style catalogue and the synthesized model.
type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

// GenerationKey identifies one desired output within a browsing session.
type GenerationKey struct {
	StyleID string
	ColorID string
	Angle   Angle
}

func (k GenerationKey) String() string {
	return k.StyleID + "|" + k.ColorID + "|" + string(k.Angle)
}
