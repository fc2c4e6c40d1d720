package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"hairstudio/internal/domain"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv              string
	Port                string
	DatabaseURL         string
	DBMaxConns          int
	SupabaseURL         string
	SupabaseServiceKey  string
	JWTSecret           string
	GeminiAPIKey        string
	GeminiModel         string
	GeminiBaseURL       string
	PaddleWebhookSecret string
	PaddleAPIKey        string
	PaddleEnv           string
	PaddlePriceMonth    string
	PaddlePriceYear     string
	CORSAllowedOrigins  []string
	GeoIPDBPath         string
	DefaultLocale       string
	DefaultTrialCredits int
	GenerationTimeout   time.Duration
	StoreTimeout        time.Duration
	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPIdleTimeout     time.Duration
	RateLimitPerMin     int
}

// LoadConfig loads configuration from environment variables and applies
// defaults. Secrets are not required here; handlers check the ones they need
// at request time.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		DBMaxConns:          getEnvInt("DB_MAX_CONNS", DefaultDBMaxConns),
		SupabaseURL:         strings.TrimRight(firstEnv("SUPABASE_URL", "PROJECT_URL"), "/"),
		SupabaseServiceKey:  firstEnv("SUPABASE_SERVICE_ROLE_KEY", "SERVICE_ROLE_KEY"),
		JWTSecret:           firstEnv("SUPABASE_JWT_SECRET", "JWT_SECRET"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:       getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		PaddleWebhookSecret: firstEnv("PADDLE_WEBHOOK_SECRET", "PADDLE_WEBHOOK_SECRET_DEV"),
		PaddleAPIKey:        os.Getenv("PADDLE_API_KEY"),
		PaddleEnv:           getEnv("PADDLE_ENV", "sandbox"),
		PaddlePriceMonth:    firstEnv("PADDLE_PRICE_MONTH", "VITE_PADDLE_PRICE_MONTH"),
		PaddlePriceYear:     firstEnv("PADDLE_PRICE_YEAR", "VITE_PADDLE_PRICE_YEAR"),
		CORSAllowedOrigins:  splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		GeoIPDBPath:         os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:       getEnv("DEFAULT_LOCALE", "en"),
		DefaultTrialCredits: getEnvInt("DEFAULT_TRIAL_CREDITS", domain.DefaultTrialCredits),
		GenerationTimeout:   time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 60)),
		StoreTimeout:        time.Second * time.Duration(getEnvInt("STORE_TIMEOUT_SECONDS", 10)),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 90)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DefaultTrialCredits < 0 {
		return nil, fmt.Errorf("DEFAULT_TRIAL_CREDITS must not be negative")
	}
	if cfg.DBMaxConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.GenerationTimeout <= 0 {
		return nil, fmt.Errorf("GENERATION_TIMEOUT_SECONDS must be positive")
	}
	if cfg.StoreTimeout <= 0 {
		return nil, fmt.Errorf("STORE_TIMEOUT_SECONDS must be positive")
	}

	return cfg, nil
}

// HasUserStore reports whether any user-record backend is configured.
func (c *Config) HasUserStore() bool {
	return c.DatabaseURL != "" || (c.SupabaseURL != "" && c.SupabaseServiceKey != "")
}

// RequireGeneration checks what the generate endpoint needs. The API key may
// also come from the credentials table, so hasStoredKey lets callers vouch
// for it.
func (c *Config) RequireGeneration(hasStoredKey bool) error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "SUPABASE_JWT_SECRET")
	}
	if c.GeminiAPIKey == "" && !hasStoredKey {
		missing = append(missing, "GEMINI_API_KEY")
	}
	return missingErr(missing)
}

// RequireWebhook checks what billing reconciliation needs.
func (c *Config) RequireWebhook() error {
	var missing []string
	if !c.HasUserStore() {
		missing = append(missing, "DATABASE_URL or SUPABASE_URL+SUPABASE_SERVICE_ROLE_KEY")
	}
	if c.PaddleWebhookSecret == "" {
		missing = append(missing, "PADDLE_WEBHOOK_SECRET")
	}
	if c.PaddlePriceYear == "" {
		missing = append(missing, "PADDLE_PRICE_YEAR")
	}
	return missingErr(missing)
}

// RequireCheckout checks what creating a checkout transaction needs.
func (c *Config) RequireCheckout() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "SUPABASE_JWT_SECRET")
	}
	if c.PaddleAPIKey == "" {
		missing = append(missing, "PADDLE_API_KEY")
	}
	if c.PaddlePriceMonth == "" {
		missing = append(missing, "PADDLE_PRICE_MONTH")
	}
	if c.PaddlePriceYear == "" {
		missing = append(missing, "PADDLE_PRICE_YEAR")
	}
	return missingErr(missing)
}

// PriceForPlan maps a plan to its configured price identifier.
func (c *Config) PriceForPlan(plan domain.SubscriptionType) (string, error) {
	switch plan {
	case domain.SubscriptionMonthly:
		return c.PaddlePriceMonth, nil
	case domain.SubscriptionYearly:
		return c.PaddlePriceYear, nil
	}
	return "", fmt.Errorf("%w: unknown plan %q", domain.ErrValidation, plan)
}

func missingErr(missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: missing %s", domain.ErrConfig, strings.Join(missing, ", "))
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
