package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"hairstudio/internal/domain"
)

// Sign returns the base64 HMAC-SHA256 of body under secret, the value the
// processor sends in its signature header.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a base64 HMAC-SHA256 signature of the exact raw body.
func VerifySignature(secret string, body []byte, signature string) error {
	if strings.TrimSpace(signature) == "" {
		return fmt.Errorf("%w: missing signature", domain.ErrValidation)
	}
	received, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return fmt.Errorf("%w: signature is not base64", domain.ErrSignature)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), received) {
		return fmt.Errorf("%w: signature mismatch", domain.ErrSignature)
	}
	return nil
}
