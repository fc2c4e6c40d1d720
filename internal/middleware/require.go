package middleware

import (
	"net/http"

	"github.com/rs/zerolog"

	"hairstudio/internal/i18n"
)

// Require rejects requests with 500 while check reports missing
// configuration, before authentication or any side effect runs.
func Require(check func() error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := check(); err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("endpoint not configured")
				writeError(w, r, http.StatusInternalServerError, i18n.MsgServerError)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
