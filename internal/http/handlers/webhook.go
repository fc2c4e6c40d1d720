package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hairstudio/internal/billing"
	"hairstudio/internal/domain"
	"hairstudio/internal/metrics"
)

const webhookBodyLimit = 1 << 20

type webhookReceivedResponse struct {
	Received  bool   `json:"received"`
	EventType string `json:"eventType,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Skipped   string `json:"skipped,omitempty"`
}

// PaddleWebhook verifies and applies a billing notification. Status codes
// tell the processor whether to retry: 2xx stops retries.
func (a *App) PaddleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	eventType := "unknown"
	status := http.StatusOK
	defer func() {
		metrics.WebhookRequestsTotal.WithLabelValues(eventType, strconv.Itoa(status)).Inc()
		metrics.WebhookDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
	}()
	logger := a.log(r)

	if r.Method != http.MethodPost {
		status = http.StatusMethodNotAllowed
		http.Error(w, "method not allowed", status)
		return
	}
	if a.Reconciler == nil {
		status = http.StatusInternalServerError
		logger.Error().Msg("webhook: reconciler not configured")
		http.Error(w, "server not configured", status)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		status = http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, "failed to read request body", status)
		return
	}

	signature := r.Header.Get("Paddle-Signature")
	if strings.TrimSpace(signature) == "" {
		status = http.StatusBadRequest
		http.Error(w, "missing paddle-signature", status)
		return
	}

	res, err := a.Reconciler.Reconcile(r.Context(), payload, signature)
	if res.EventType != "" {
		eventType = res.EventType
	}
	if err != nil {
		status = domain.StatusCode(err)
		evt := logger.Warn()
		switch {
		case errors.Is(err, domain.ErrSignature):
			metrics.SignatureFailuresTotal.Inc()
			evt = logger.Warn().Str("security_event", "webhook_signature_rejected").Str("remote_addr", r.RemoteAddr)
		case status >= http.StatusInternalServerError:
			evt = logger.Error()
		}
		evt.Err(err).Str("event_type", eventType).Str("user_id", res.UserID).Int("status", status).Msg("webhook: rejected")
		http.Error(w, webhookMessage(status), status)
		return
	}

	if res.Skipped != "" {
		status = http.StatusAccepted
		a.json(w, status, webhookReceivedResponse{Received: true, EventType: res.EventType, Skipped: res.Skipped})
		return
	}

	status = http.StatusOK
	a.json(w, status, webhookReceivedResponse{Received: true, EventType: res.EventType, UserID: res.UserID})
}

// webhookMessage is what the processor sees; details stay in our logs.
func webhookMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid payload"
	case http.StatusUnauthorized:
		return "invalid signature"
	case http.StatusNotFound:
		return "user not found"
	}
	return "processing failed"
}

var _ WebhookReconciler = (*billing.Reconciler)(nil)
