package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"hairstudio/internal/domain"
	"hairstudio/internal/i18n"
	"hairstudio/internal/middleware"
)

// Me returns the stored entitlement. Clients call it on every session start
// and treat the answer as ground truth over their local mirror.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if a.Users == nil {
		a.log(r).Error().Msg("me: no user store configured")
		a.error(w, r, http.StatusInternalServerError, i18n.MsgServerError)
		return
	}

	timeout := 10 * time.Second
	defaultCredits := domain.DefaultTrialCredits
	if a.Config != nil {
		timeout = a.Config.StoreTimeout
		defaultCredits = a.Config.DefaultTrialCredits
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	rec, err := a.Users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, r, http.StatusNotFound, i18n.MsgNotFound)
			return
		}
		a.log(r).Error().Err(err).Str("user_id", userID).Msg("me: load user failed")
		a.error(w, r, http.StatusInternalServerError, i18n.MsgServerError)
		return
	}
	if rec.Email == "" {
		rec.Email = middleware.UserEmailFromContext(r.Context())
	}

	a.json(w, http.StatusOK, domain.NewEntitlement(rec, defaultCredits))
}
