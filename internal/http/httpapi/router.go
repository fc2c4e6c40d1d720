package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hairstudio/internal/http/handlers"
	"hairstudio/internal/middleware"
)

// Options carries router-level dependencies that are not handler state.
type Options struct {
	CountryLookup middleware.CountryLookup
	// Metrics overrides the /metrics handler; defaults to the global registry.
	Metrics http.Handler
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	cfg := app.Config
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Logger(*app.Logger),
		chimw.Recoverer,
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.I18N(cfg.DefaultLocale, opts.CountryLookup),
	)

	metricsHandler := opts.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r.Get("/v1/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/v1", func(r chi.Router) {
		r.With(
			middleware.Require(func() error { return cfg.RequireGeneration(app.HasStoredGeminiKey) }),
			middleware.AuthJWT(cfg.JWTSecret),
			middleware.RateLimit(middleware.NewIPRateLimiter(cfg.RateLimitPerMin)),
		).Post("/generate", app.Generate)

		r.With(middleware.AuthJWT(cfg.JWTSecret)).Get("/me", app.Me)

		r.With(
			middleware.Require(cfg.RequireCheckout),
			middleware.AuthJWT(cfg.JWTSecret),
		).Post("/checkout", app.CreateCheckout)

		r.With(middleware.Require(cfg.RequireWebhook)).Post("/webhooks/paddle", app.PaddleWebhook)
	})

	return r
}
