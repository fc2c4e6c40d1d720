package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"hairstudio/internal/billing/paddle"
	"hairstudio/internal/domain"
	"hairstudio/internal/i18n"
	"hairstudio/internal/metrics"
	"hairstudio/internal/middleware"
)

type checkoutRequest struct {
	Plan string `json:"plan"`
}

type checkoutResponse struct {
	CheckoutURL   string `json:"checkoutUrl"`
	TransactionID string `json:"transactionId"`
	PriceID       string `json:"priceId"`
}

// CreateCheckout opens a processor transaction for the caller. The user id rides
// in custom_data so the webhook can find the account later.
func (a *App) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req checkoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		a.error(w, r, http.StatusBadRequest, i18n.MsgInvalidRequest)
		return
	}
	plan := domain.SubscriptionType(strings.ToLower(strings.TrimSpace(req.Plan)))
	priceID, err := a.Config.PriceForPlan(plan)
	if err != nil {
		a.errorFor(w, r, err)
		return
	}
	if a.Checkout == nil {
		a.log(r).Error().Msg("checkout: no payment client configured")
		a.error(w, r, http.StatusInternalServerError, i18n.MsgServerError)
		return
	}

	tx, err := a.Checkout.CreateTransaction(r.Context(), paddle.TransactionRequest{
		PriceID:    priceID,
		Quantity:   1,
		Email:      middleware.UserEmailFromContext(r.Context()),
		CustomData: map[string]any{"user_id": userID},
	})
	metrics.CheckoutsTotal.WithLabelValues(string(plan), domain.Kind(err)).Inc()
	if err != nil {
		a.log(r).Error().Err(err).Str("user_id", userID).Str("plan", string(plan)).Msg("checkout: create transaction failed")
		a.errorFor(w, r, err)
		return
	}

	a.log(r).Info().Str("user_id", userID).Str("plan", string(plan)).Str("transaction_id", tx.ID).Msg("checkout: transaction created")
	a.json(w, http.StatusCreated, checkoutResponse{CheckoutURL: tx.CheckoutURL, TransactionID: tx.ID, PriceID: priceID})
}
