package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"hairstudio/internal/domain"
	"hairstudio/internal/imagegen"
)

const maxErrorBody = 4096

// Generator produces a preview image data URL for a request.
type Generator interface {
	Generate(ctx context.Context, req imagegen.Request) (string, error)
}

// CheckoutSession is a hosted checkout started by the API.
type CheckoutSession struct {
	URL           string `json:"checkoutUrl"`
	TransactionID string `json:"transactionId"`
	PriceID       string `json:"priceId"`
}

// APIOptions configures an APIClient.
type APIOptions struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// APIClient talks to the hairstudio HTTP API with a session bearer token.
type APIClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewAPIClient(opts APIOptions) *APIClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &APIClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: hc,
		token:      strings.TrimSpace(opts.Token),
	}
}

func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Generate calls POST /v1/generate and returns the image data URL.
func (c *APIClient) Generate(ctx context.Context, req imagegen.Request) (string, error) {
	var resp imagegen.Response
	if err := c.do(ctx, http.MethodPost, "/v1/generate", req, &resp); err != nil {
		return "", err
	}
	if resp.ImageURL == "" {
		return "", fmt.Errorf("%w: empty image in response", domain.ErrUpstream)
	}
	return resp.ImageURL, nil
}

// Me fetches the server-authoritative entitlement of the signed-in user.
func (c *APIClient) Me(ctx context.Context) (*domain.UserEntitlement, error) {
	var ent domain.UserEntitlement
	if err := c.do(ctx, http.MethodGet, "/v1/me", nil, &ent); err != nil {
		return nil, err
	}
	return &ent, nil
}

// OpenCheckout creates a checkout transaction for plan.
func (c *APIClient) OpenCheckout(ctx context.Context, plan string) (*CheckoutSession, error) {
	var out CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout", map[string]string{"plan": plan}, &out); err != nil {
		return nil, err
	}
	if out.URL == "" {
		return nil, fmt.Errorf("%w: checkout url missing", domain.ErrUpstream)
	}
	return &out, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, in, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: api base url is empty", domain.ErrConfig)
	}
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrUpstream, method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %s: status %d: %s", statusError(resp.StatusCode), method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	return nil
}

// statusError maps an API status back onto the shared error kinds.
func statusError(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return domain.ErrAuth
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return domain.ErrValidation
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusInternalServerError:
		return domain.ErrConfig
	default:
		return domain.ErrUpstream
	}
}
