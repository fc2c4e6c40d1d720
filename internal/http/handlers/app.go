package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"hairstudio/internal/billing"
	"hairstudio/internal/billing/paddle"
	"hairstudio/internal/domain"
	"hairstudio/internal/i18n"
	"hairstudio/internal/imagegen"
	"hairstudio/internal/infra"
	"hairstudio/internal/middleware"
)

// WebhookReconciler applies a signed billing notification.
type WebhookReconciler interface {
	Reconcile(ctx context.Context, rawBody []byte, signature string) (billing.Result, error)
}

// CheckoutCreator opens a checkout transaction with the payment processor.
type CheckoutCreator interface {
	CreateTransaction(ctx context.Context, req paddle.TransactionRequest) (*paddle.Transaction, error)
}

// App carries the collaborators shared by every handler. Users, Reconciler
// and Checkout are nil when their backend is not configured.
type App struct {
	Config     *infra.Config
	Logger     *infra.Logger
	Users      domain.UserStore
	Generator  imagegen.Generator
	Reconciler WebhookReconciler
	Checkout   CheckoutCreator
	// HasStoredGeminiKey is set when the generator can fall back to the
	// credentials table for its API key.
	HasStoredGeminiKey bool
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes a generic localized message for key.
func (a *App) error(w http.ResponseWriter, r *http.Request, code int, key i18n.Key) {
	http.Error(w, i18n.Message(middleware.LocaleFromContext(r.Context()), key), code)
}

// errorFor maps a domain error to a status and a client-facing message.
func (a *App) errorFor(w http.ResponseWriter, r *http.Request, err error) int {
	code := domain.StatusCode(err)
	key := i18n.MsgServerError
	switch code {
	case http.StatusUnauthorized:
		key = i18n.MsgUnauthorized
	case http.StatusBadRequest:
		key = i18n.MsgInvalidRequest
	case http.StatusNotFound:
		key = i18n.MsgNotFound
	case http.StatusBadGateway:
		key = i18n.MsgGenerationFailed
	}
	a.error(w, r, code, key)
	return code
}

// log prefers the request-scoped logger installed by the access log
// middleware.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	if a.Logger != nil {
		return a.Logger
	}
	nop := zerolog.New(io.Discard)
	return &nop
}
