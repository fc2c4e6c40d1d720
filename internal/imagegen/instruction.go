package imagegen

import (
	"fmt"
	"strings"

	"hairstudio/internal/domain"
)

// IdentityPreservationPhrase is included iff a source photo is supplied.
const IdentityPreservationPhrase = "Maintain the exact facial features, skin tone, lighting, and background of the original image. Only change the hair."

// BuildInstruction turns a selection into the text instruction sent to the
// generative model. Style and color are passed through verbatim.
func BuildInstruction(hasSourceImage bool, style, color, gender string, angle domain.Angle) string {
	style = strings.TrimSpace(style)
	color = strings.TrimSpace(color)
	gender = strings.TrimSpace(gender)

	if !hasSourceImage {
		base := fmt.Sprintf("Generate a high-quality, photorealistic portrait of a %s model with this hairstyle: %s. Hair color %s.", gender, style, color)
		switch angle {
		case domain.AngleSide:
			return base + " Side profile (90 degrees). Neutral background. Focus on silhouette and layers."
		case domain.AngleBack:
			return base + " Back view. Focus on texture, length, and cut from behind."
		default:
			return base + " Front view. Professional studio lighting, neutral background. Focus on hair texture and cut details. 8k resolution."
		}
	}

	switch angle {
	case domain.AngleSide:
		return fmt.Sprintf("Generate a side-profile (90 degrees) of this person with hairstyle: %s and color %s. Keep likeness, clothing style, and lighting. Simple background.", style, color)
	case domain.AngleBack:
		return fmt.Sprintf("Generate a back view of this person showing hairstyle: %s and color %s. Focus on hair texture and cut details. Match clothing tone.", style, color)
	default:
		return fmt.Sprintf("Change the hairstyle to: %s. Hair color: %s. %s Realistic portrait.", style, color, IdentityPreservationPhrase)
	}
}
