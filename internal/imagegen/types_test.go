package imagegen

import (
	"errors"
	"testing"

	"hairstudio/internal/domain"
)

func TestParseDataURL(t *testing.T) {
	src, err := ParseDataURL("data:image/jpeg;base64,AAEC")
	if err != nil {
		t.Fatalf("ParseDataURL error: %v", err)
	}
	if src.MIMEType != "image/jpeg" || src.Base64 != "AAEC" {
		t.Fatalf("unexpected source: %#v", src)
	}

	if _, err := ParseDataURL("https://example.com/a.png"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestImageDataURLDefaultsToPNG(t *testing.T) {
	img := &Image{Data: []byte{0x01, 0x02}}
	if got := img.DataURL(); got != "data:image/png;base64,AQI=" {
		t.Fatalf("DataURL = %q", got)
	}
}

func TestRequestValidate(t *testing.T) {
	bad := "not-a-data-url"
	good := "data:image/png;base64,AQI="
	tests := []struct {
		name    string
		req     Request
		wantErr bool
		source  bool
	}{
		{name: "missing style", req: Request{ColorDescription: "black", Gender: "male", Angle: "Front"}, wantErr: true},
		{name: "bad angle", req: Request{StyleDescription: "a", ColorDescription: "b", Gender: "male", Angle: "Top"}, wantErr: true},
		{name: "bad image", req: Request{SourceImageDataURL: &bad, StyleDescription: "a", ColorDescription: "b", Gender: "male", Angle: "Side"}, wantErr: true},
		{name: "no image", req: Request{StyleDescription: "a", ColorDescription: "b", Gender: "male", Angle: "Back"}},
		{name: "with image", req: Request{SourceImageDataURL: &good, StyleDescription: "a", ColorDescription: "b", Gender: "female", Angle: "front"}, source: true},
		{name: "legacy image field", req: Request{OriginalImageDataURL: &good, StyleDescription: "a", ColorDescription: "b", Gender: "female", Angle: "Side"}, source: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, src, err := tc.req.Validate()
			if tc.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (src != nil) != tc.source {
				t.Fatalf("source presence = %v, want %v", src != nil, tc.source)
			}
		})
	}
}
