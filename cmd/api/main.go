package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"hairstudio/internal/adapter/repo"
	"hairstudio/internal/adapter/supabase"
	"hairstudio/internal/billing"
	"hairstudio/internal/billing/paddle"
	"hairstudio/internal/http/handlers"
	httpapi "hairstudio/internal/http/httpapi"
	"hairstudio/internal/infra"
	"hairstudio/internal/infra/credentials"
	"hairstudio/internal/infra/geoip"
	"hairstudio/internal/middleware"
	"hairstudio/internal/providers/genai"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &handlers.App{Config: cfg, Logger: &logger}

	// User records live in Postgres when DATABASE_URL is set, otherwise in
	// Supabase auth metadata.
	var creds *credentials.Store
	switch {
	case cfg.DatabaseURL != "":
		pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		runner := infra.NewSQLRunner(pool, logger)
		app.Users = repo.NewUserRepository(runner)
		creds = credentials.NewStore(runner)
	case cfg.SupabaseURL != "" && cfg.SupabaseServiceKey != "":
		app.Users = supabase.NewUserStore(supabase.Options{
			BaseURL:    cfg.SupabaseURL,
			ServiceKey: cfg.SupabaseServiceKey,
			Timeout:    cfg.StoreTimeout,
		})
	default:
		logger.Warn().Msg("no user store configured; webhook and /v1/me will fail")
	}

	if creds != nil {
		loadStoredKeys(ctx, cfg, creds, app, &logger)
	}

	genOpts := genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.GeminiModel,
		Timeout: cfg.GenerationTimeout,
		Logger:  &logger,
	}
	if creds != nil {
		genOpts.KeySource = creds.GeminiAPIKey
	}
	app.Generator = genai.NewClient(genOpts)

	if app.Users != nil {
		app.Reconciler = billing.NewReconciler(app.Users, billing.Options{
			Secret:         cfg.PaddleWebhookSecret,
			YearlyPriceID:  cfg.PaddlePriceYear,
			DefaultCredits: cfg.DefaultTrialCredits,
			StoreTimeout:   cfg.StoreTimeout,
			Logger:         &logger,
		})
	}
	if cfg.PaddleAPIKey != "" {
		app.Checkout = paddle.NewClient(paddle.Options{
			APIKey:  cfg.PaddleAPIKey,
			BaseURL: paddle.BaseURLForEnv(cfg.PaddleEnv),
			Timeout: cfg.StoreTimeout,
		})
	}

	var routerOpts httpapi.Options
	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	if resolver != nil {
		defer resolver.Close()
		routerOpts.CountryLookup = middleware.CountryLookup(resolver.Lookup)
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, routerOpts))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Str("env", cfg.AppEnv).Msg("api listening")
		return server.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("http server failed")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}

// loadStoredKeys fills API keys missing from the environment with the ones
// persisted by cmd/geminikey.
func loadStoredKeys(ctx context.Context, cfg *infra.Config, creds *credentials.Store, app *handlers.App, logger *infra.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if cfg.GeminiAPIKey == "" {
		key, err := creds.GeminiAPIKey(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("read stored gemini key")
		}
		app.HasStoredGeminiKey = key != ""
	}
	if cfg.PaddleAPIKey == "" {
		key, err := creds.PaddleAPIKey(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("read stored paddle key")
		}
		cfg.PaddleAPIKey = key
	}
	logger.Debug().
		Bool("stored_gemini_key", app.HasStoredGeminiKey).
		Bool("paddle_key", cfg.PaddleAPIKey != "").
		Int("default_credits", cfg.DefaultTrialCredits).
		Msg("credentials loaded")
}
