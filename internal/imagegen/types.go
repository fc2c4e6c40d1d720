package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"hairstudio/internal/domain"
)

const defaultImageMIME = "image/png"

var dataURLPattern = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

// SourceImage is the uploaded photo forwarded to the model as inline data.
type SourceImage struct {
	MIMEType string
	Base64   string
}

// Image is the generated output.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURL renders the image the way the client expects it.
func (i *Image) DataURL() string {
	if i == nil {
		return ""
	}
	mime := strings.TrimSpace(i.MIMEType)
	if mime == "" {
		mime = defaultImageMIME
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Generator is the contract of the external generation adapter.
type Generator interface {
	Generate(ctx context.Context, instruction string, source *SourceImage) (*Image, error)
}

// ParseDataURL splits a base64 data URL into its mime type and payload.
func ParseDataURL(s string) (*SourceImage, error) {
	m := dataURLPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("%w: invalid image data format", domain.ErrValidation)
	}
	return &SourceImage{MIMEType: m[1], Base64: m[2]}, nil
}

// DecodeDataURL returns the raw bytes of a base64 data URL.
func DecodeDataURL(s string) (*Image, error) {
	src, err := ParseDataURL(s)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(src.Base64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image data: %v", domain.ErrValidation, err)
	}
	return &Image{MIMEType: src.MIMEType, Data: data}, nil
}

// Request is the wire shape of the generation call.
type Request struct {
	SourceImageDataURL *string `json:"sourceImageDataUrl,omitempty"`
	// OriginalImageDataURL is the field name older web clients send.
	OriginalImageDataURL *string `json:"originalImageDataUrl,omitempty"`
	StyleDescription     string  `json:"styleDescription"`
	ColorDescription     string  `json:"colorDescription"`
	Gender               string  `json:"gender"`
	Angle                string  `json:"angle"`
}

// Response is returned on success.
type Response struct {
	ImageURL string `json:"imageUrl"`
}

// HasSource reports whether a non-empty source image was supplied.
func (r Request) HasSource() bool {
	return r.source() != ""
}

func (r Request) source() string {
	for _, v := range []*string{r.SourceImageDataURL, r.OriginalImageDataURL} {
		if v != nil && strings.TrimSpace(*v) != "" {
			return strings.TrimSpace(*v)
		}
	}
	return ""
}

// Validate checks required fields and returns the parsed angle and source.
func (r Request) Validate() (domain.Angle, *SourceImage, error) {
	if strings.TrimSpace(r.StyleDescription) == "" || strings.TrimSpace(r.ColorDescription) == "" ||
		strings.TrimSpace(r.Gender) == "" || strings.TrimSpace(r.Angle) == "" {
		return "", nil, fmt.Errorf("%w: missing parameters", domain.ErrValidation)
	}
	angle, err := domain.ParseAngle(r.Angle)
	if err != nil {
		return "", nil, err
	}
	if !r.HasSource() {
		return angle, nil, nil
	}
	src, err := ParseDataURL(r.source())
	if err != nil {
		return "", nil, err
	}
	return angle, src, nil
}
