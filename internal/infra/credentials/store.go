package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"hairstudio/internal/domain"
	"hairstudio/internal/infra"
	"hairstudio/internal/sqlinline"
)

const (
	ProviderGemini = "gemini"
	ProviderPaddle = "paddle"
)

// Providers lists the integrations whose keys may live in the database.
var Providers = []string{ProviderGemini, ProviderPaddle}

// DefaultTokenTTL bounds how long a rotated key can take to be picked up.
const DefaultTokenTTL = time.Minute

// Store reads and writes third-party API keys kept in integration_tokens.
// Environment variables take precedence; this is the fallback for
// deployments that rotate keys without a restart. Reads are memoized for
// DefaultTokenTTL because the Gemini key is resolved on every generation.
type Store struct {
	sql  infra.SQLExecutor
	memo *cache.Cache
}

func NewStore(sql infra.SQLExecutor) *Store {
	return NewStoreTTL(sql, DefaultTokenTTL)
}

// NewStoreTTL is NewStore with a custom memo lifetime; ttl <= 0 disables it.
func NewStoreTTL(sql infra.SQLExecutor, ttl time.Duration) *Store {
	s := &Store{sql: sql}
	if ttl > 0 {
		s.memo = cache.New(ttl, 2*ttl)
	}
	return s
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGemini)
}

func (s *Store) PaddleAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderPaddle)
}

// Token returns the stored key for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	if s == nil || s.sql == nil {
		return "", nil
	}
	if s.memo != nil {
		if v, ok := s.memo.Get(provider); ok {
			return v.(string), nil
		}
	}
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if !infra.IsNoRows(err) {
			return "", err
		}
	}
	token = strings.TrimSpace(token)
	if s.memo != nil {
		s.memo.SetDefault(provider, token)
	}
	return token, nil
}

// SetToken stores key for a known provider, replacing any previous value.
func (s *Store) SetToken(ctx context.Context, provider, key string, props map[string]any) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !knownProvider(provider) {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrValidation, provider)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: %s api key is required", domain.ErrValidation, provider)
	}
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, key, raw); err != nil {
		return err
	}
	if s.memo != nil {
		s.memo.Delete(provider)
	}
	return nil
}

func knownProvider(p string) bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}
