package handlers

import "net/http"

type healthResponse struct {
	Status   string          `json:"status"`
	Features map[string]bool `json:"features,omitempty"`
}

// Health reports liveness plus which endpoints have the configuration they
// need. It never names the missing values.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if cfg := a.Config; cfg != nil {
		resp.Features = map[string]bool{
			"generate": cfg.RequireGeneration(a.HasStoredGeminiKey) == nil,
			"webhook":  cfg.RequireWebhook() == nil,
			"checkout": cfg.RequireCheckout() == nil,
		}
	}
	a.json(w, http.StatusOK, resp)
}
