package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hairstudio/internal/domain"
)

const maxErrorBody = 2048

// Options configures the admin client.
type Options struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// UserStore reads and writes auth users through the Supabase admin API, with
// entitlement facts kept in user_metadata.
type UserStore struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

type adminUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// NewUserStore builds a store against the project URL.
func NewUserStore(opts Options) *UserStore {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &UserStore{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		serviceKey: strings.TrimSpace(opts.ServiceKey),
		httpClient: hc,
	}
}

// GetUser fetches an auth user by id.
func (s *UserStore) GetUser(ctx context.Context, id string) (*domain.UserRecord, error) {
	var user adminUser
	if err := s.do(ctx, http.MethodGet, id, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	meta := user.UserMetadata
	if meta == nil {
		meta = map[string]any{}
	}
	return &domain.UserRecord{ID: user.ID, Email: user.Email, Metadata: meta}, nil
}

// UpdateUserMetadata writes the full metadata map for the user.
func (s *UserStore) UpdateUserMetadata(ctx context.Context, id string, metadata map[string]any) error {
	return s.do(ctx, http.MethodPut, id, map[string]any{"user_metadata": metadata}, nil)
}

func (s *UserStore) do(ctx context.Context, method, id string, payload any, out any) error {
	if s.baseURL == "" || s.serviceKey == "" {
		return fmt.Errorf("%w: supabase admin credentials missing", domain.ErrConfig)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: empty user id", domain.ErrNotFound)
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	endpoint := s.baseURL + "/auth/v1/admin/users/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase %s user: %w", strings.ToLower(method), err)
	}
	defer resp.Body.Close()

	if err := statusError(method, resp.StatusCode, id); err != nil {
		return err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("supabase status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode supabase user: %w", err)
	}
	return nil
}

// statusError classifies non-2xx replies that need no body. A lookup the
// admin API refuses as a client error (malformed id, unknown user) means the
// user cannot be resolved; credential rejections are a configuration fault.
func statusError(method string, status int, id string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: supabase rejected the service key (status %d)", domain.ErrConfig, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	case method == http.MethodGet && status >= http.StatusBadRequest && status < http.StatusInternalServerError && status != http.StatusTooManyRequests:
		return fmt.Errorf("%w: user %s (status %d)", domain.ErrNotFound, id, status)
	}
	return nil
}

var _ domain.UserStore = (*UserStore)(nil)
