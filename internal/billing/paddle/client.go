package paddle

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

const (
	SandboxBaseURL    = "https://sandbox-api.paddle.com"
	ProductionBaseURL = "https://api.paddle.com"
	maxErrorBody      = 4096
)

// BaseURLForEnv maps PADDLE_ENV to the API host. Anything other than
// "production" talks to the sandbox.
func BaseURLForEnv(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "production") {
		return ProductionBaseURL
	}
	return SandboxBaseURL
}

// Options configures the Paddle client.
type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a minimal Paddle Billing REST client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client; a nil HTTP client gets a default bounded by Timeout.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = SandboxBaseURL
	}
	return &Client{apiKey: strings.TrimSpace(opts.APIKey), baseURL: base, httpClient: hc}
}

// TransactionRequest describes a checkout for one price.
type TransactionRequest struct {
	PriceID    string
	Quantity   int
	Email      string
	CustomData map[string]any
}

// Transaction is the subset of a created transaction callers need.
type Transaction struct {
	ID          string
	Status      string
	CheckoutURL string
}

type transactionItem struct {
	PriceID  string `json:"price_id"`
	Quantity int    `json:"quantity"`
}

type transactionPayload struct {
	Items      []transactionItem `json:"items"`
	CustomData map[string]any    `json:"custom_data,omitempty"`
}

type transactionEnvelope struct {
	Data struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Checkout *struct {
			URL string `json:"url"`
		} `json:"checkout"`
	} `json:"data"`
}

// CreateTransaction opens a checkout transaction. custom_data travels back on
// every webhook for the resulting subscription.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	if strings.TrimSpace(req.PriceID) == "" {
		return nil, fmt.Errorf("%w: price id required", domain.ErrValidation)
	}
	qty := req.Quantity
	if qty <= 0 {
		qty = 1
	}
	payload := transactionPayload{
		Items:      []transactionItem{{PriceID: req.PriceID, Quantity: qty}},
		CustomData: req.CustomData,
	}
	var env transactionEnvelope
	if err := c.do(ctx, http.MethodPost, "/transactions", payload, &env); err != nil {
		return nil, err
	}
	tx := &Transaction{ID: env.Data.ID, Status: env.Data.Status}
	if env.Data.Checkout != nil {
		tx.CheckoutURL = env.Data.Checkout.URL
	}
	return tx, nil
}

// NotificationSetting mirrors a Paddle notification destination.
type NotificationSetting struct {
	ID                     string              `json:"id"`
	Description            string              `json:"description"`
	Type                   string              `json:"type"`
	Destination            string              `json:"destination"`
	Active                 *bool               `json:"active,omitempty"`
	APIVersion             *int                `json:"api_version,omitempty"`
	IncludeSensitiveFields *bool               `json:"include_sensitive_fields,omitempty"`
	SubscribedEvents       []NotificationEvent `json:"subscribed_events,omitempty"`
}

// NotificationEvent names one subscribed event type.
type NotificationEvent struct {
	Name string `json:"name"`
}

// NotificationSettingUpdate is the PATCH body for a notification setting.
type NotificationSettingUpdate struct {
	Description            string   `json:"description"`
	Type                   string   `json:"type"`
	Destination            string   `json:"destination"`
	Active                 bool     `json:"active"`
	APIVersion             int      `json:"api_version"`
	IncludeSensitiveFields bool     `json:"include_sensitive_fields"`
	SubscribedEvents       []string `json:"subscribed_events"`
}

// RetargetUpdate builds an update that keeps the existing setting but points
// it at destination.
func RetargetUpdate(s NotificationSetting, destination string) NotificationSettingUpdate {
	upd := NotificationSettingUpdate{
		Description:            s.Description,
		Type:                   s.Type,
		Destination:            destination,
		Active:                 true,
		APIVersion:             1,
		IncludeSensitiveFields: true,
		SubscribedEvents:       make([]string, 0, len(s.SubscribedEvents)),
	}
	if upd.Type == "" {
		upd.Type = "url"
	}
	if s.Active != nil {
		upd.Active = *s.Active
	}
	if s.APIVersion != nil {
		upd.APIVersion = *s.APIVersion
	}
	if s.IncludeSensitiveFields != nil {
		upd.IncludeSensitiveFields = *s.IncludeSensitiveFields
	}
	for _, e := range s.SubscribedEvents {
		upd.SubscribedEvents = append(upd.SubscribedEvents, e.Name)
	}
	return upd
}

// ListNotificationSettings returns every configured notification destination.
func (c *Client) ListNotificationSettings(ctx context.Context) ([]NotificationSetting, error) {
	var env struct {
		Data []NotificationSetting `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/notification-settings", nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// FindNotificationSetting returns the setting whose description matches.
func FindNotificationSetting(settings []NotificationSetting, description string) (NotificationSetting, bool) {
	for _, s := range settings {
		if s.Description == description {
			return s, true
		}
	}
	return NotificationSetting{}, false
}

// UpdateNotificationSetting patches a notification setting by id.
func (c *Client) UpdateNotificationSetting(ctx context.Context, id string, upd NotificationSettingUpdate) (*NotificationSetting, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: notification setting id required", domain.ErrValidation)
	}
	var env struct {
		Data NotificationSetting `json:"data"`
	}
	if err := c.do(ctx, http.MethodPatch, "/notification-settings/"+url.PathEscape(id), upd, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

type apiError struct {
	Error struct {
		Type   string `json:"type"`
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: paddle api key missing", domain.ErrConfig)
	}
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: paddle %s %s: %v", domain.ErrUpstream, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr apiError
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Detail != "" {
			return fmt.Errorf("%w: paddle status %d: %s (%s)", domain.ErrUpstream, resp.StatusCode, apiErr.Error.Detail, apiErr.Error.Code)
		}
		return fmt.Errorf("%w: paddle status %d: %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode paddle response: %v", domain.ErrUpstream, err)
	}
	return nil
}
