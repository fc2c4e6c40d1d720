package middleware

import (
	"net/http"

	"hairstudio/internal/i18n"
)

// writeError answers with a short localized plain-text message. Internal
// details stay in the logs.
func writeError(w http.ResponseWriter, r *http.Request, status int, key i18n.Key) {
	http.Error(w, i18n.Message(LocaleFromContext(r.Context()), key), status)
}
