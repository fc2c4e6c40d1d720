package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"hairstudio/internal/domain"
	"hairstudio/internal/i18n"
	"hairstudio/internal/imagegen"
	"hairstudio/internal/metrics"
	"hairstudio/internal/middleware"
)

// Data URLs of phone photos run to a few MiB once base64 encoded.
const generateBodyLimit = 15 << 20

// Generate renders one preview. No entitlement is checked here; the client
// gates attempts and the charge happens client-side after success.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	logger := a.log(r)
	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, generateBodyLimit)
	var req imagegen.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("generate: invalid payload")
		a.error(w, r, http.StatusBadRequest, i18n.MsgInvalidRequest)
		return
	}

	angle, source, err := req.Validate()
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("generate: rejected request")
		metrics.GenerationsTotal.WithLabelValues("invalid", domain.Kind(err)).Inc()
		a.errorFor(w, r, err)
		return
	}

	instruction := imagegen.BuildInstruction(source != nil, req.StyleDescription, req.ColorDescription, req.Gender, angle)

	ctx := r.Context()
	if a.Config != nil && a.Config.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Config.GenerationTimeout)
		defer cancel()
	}

	start := time.Now()
	img, err := a.Generator.Generate(ctx, instruction, source)
	metrics.GenerationDuration.WithLabelValues(string(angle)).Observe(time.Since(start).Seconds())
	metrics.GenerationsTotal.WithLabelValues(string(angle), domain.Kind(err)).Inc()
	if err != nil {
		logger.Error().Err(err).
			Str("user_id", userID).
			Str("angle", string(angle)).
			Bool("with_source", source != nil).
			Msg("generate: upstream failed")
		a.errorFor(w, r, err)
		return
	}

	logger.Info().
		Str("user_id", userID).
		Str("angle", string(angle)).
		Bool("with_source", source != nil).
		Dur("took", time.Since(start)).
		Msg("generate: preview ready")
	a.json(w, http.StatusOK, imagegen.Response{ImageURL: img.DataURL()})
}
