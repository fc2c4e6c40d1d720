package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hairstudio/internal/domain"
	"hairstudio/internal/imagegen"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestAPIClient_Generate(t *testing.T) {
	var got imagegen.Request
	c := NewAPIClient(APIOptions{
		BaseURL: "http://api.test/",
		Token:   "tok",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "http://api.test/v1/generate", r.URL.String())
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			return respond(http.StatusOK, `{"imageUrl":"data:image/png;base64,AA=="}`), nil
		})},
	})
	src := photo
	url, err := c.Generate(context.Background(), imagegen.Request{
		SourceImageDataURL: &src, StyleDescription: "s", ColorDescription: "c", Gender: "female", Angle: "Front",
	})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AA==", url)
	assert.Equal(t, "s", got.StyleDescription)
	require.NotNil(t, got.SourceImageDataURL)
}

func TestAPIClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrAuth},
		{http.StatusBadRequest, domain.ErrValidation},
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusInternalServerError, domain.ErrConfig},
		{http.StatusBadGateway, domain.ErrUpstream},
		{http.StatusTooManyRequests, domain.ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := NewAPIClient(APIOptions{
				BaseURL: "http://api.test",
				HTTPClient: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
					return respond(tt.status, "Generation failed"), nil
				})},
			})
			_, err := c.Generate(context.Background(), imagegen.Request{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAPIClient_MeAndCheckout(t *testing.T) {
	c := NewAPIClient(APIOptions{
		BaseURL: "http://api.test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer later", r.Header.Get("Authorization"))
			switch r.URL.Path {
			case "/v1/me":
				return respond(http.StatusOK, `{"id":"u1","email":"u@example.com","isSubscribed":false,"trialBalance":5}`), nil
			case "/v1/checkout":
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "yearly", body["plan"])
				return respond(http.StatusCreated, `{"checkoutUrl":"https://pay.example/x","transactionId":"txn_1","priceId":"pri_y"}`), nil
			}
			return respond(http.StatusNotFound, "Not found"), nil
		})},
	})
	c.SetToken(" later ")

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", me.ID)
	assert.Equal(t, 5, me.TrialBalance)

	sess, err := c.OpenCheckout(context.Background(), "yearly")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/x", sess.URL)
	assert.Equal(t, "txn_1", sess.TransactionID)
}

func TestAPIClient_EmptyBaseURL(t *testing.T) {
	_, err := NewAPIClient(APIOptions{}).Me(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfig)
}
