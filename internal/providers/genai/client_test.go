package genai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"hairstudio/internal/domain"
	"hairstudio/internal/imagegen"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestGenerateSendsImageBeforeText(t *testing.T) {
	var captured geminiGenerateContentRequest
	var calls int
	client := NewClient(Options{
		APIKey: "key",
		Model:  "test-model",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			if !strings.Contains(r.URL.Path, "/models/test-model:generateContent") {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("x-goog-api-key") != "key" || r.URL.RawQuery != "" {
				t.Fatalf("api key not forwarded")
			}
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"here"},{"inlineData":{"mimeType":"image/jpeg","data":"AQI="}}]}}]}`), nil
		})},
	})

	img, err := client.Generate(context.Background(), "do it", &imagegen.SourceImage{MIMEType: "image/png", Base64: "AAAA"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if img.MIMEType != "image/jpeg" || len(img.Data) != 2 {
		t.Fatalf("unexpected image: %#v", img)
	}
	parts := captured.Contents[0].Parts
	if len(parts) != 2 || parts[0].InlineData == nil || parts[1].Text != "do it" {
		t.Fatalf("unexpected parts order: %#v", parts)
	}
}

func TestGenerateWithoutSourceSendsTextOnly(t *testing.T) {
	var captured geminiGenerateContentRequest
	client := NewClient(Options{
		APIKey: "key",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			_ = json.NewDecoder(r.Body).Decode(&captured)
			return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"inlineData":{"data":"AQI="}}]}}]}`), nil
		})},
	})
	if _, err := client.Generate(context.Background(), "scratch", nil); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	parts := captured.Contents[0].Parts
	if len(parts) != 1 || parts[0].InlineData != nil {
		t.Fatalf("unexpected parts: %#v", parts)
	}
}

func TestGenerateUpstreamErrorIsTerminal(t *testing.T) {
	calls := 0
	client := NewClient(Options{
		APIKey: "key",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			calls++
			return jsonResponse(http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota exhausted"}}`), nil
		})},
	})
	_, err := client.Generate(context.Background(), "x", nil)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exhausted") {
		t.Fatalf("upstream body not carried: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want exactly one attempt", calls)
	}
}

func TestGenerateNoImageReturned(t *testing.T) {
	client := NewClient(Options{
		APIKey: "key",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`), nil
		})},
	})
	_, err := client.Generate(context.Background(), "x", nil)
	if !errors.Is(err, domain.ErrUpstream) || !strings.Contains(err.Error(), "no image returned") {
		t.Fatalf("expected no image error, got %v", err)
	}
}

func TestGenerateTransportFailure(t *testing.T) {
	client := NewClient(Options{
		APIKey: "key",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("boom")
		})},
	})
	_, err := client.Generate(context.Background(), "x", nil)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestGenerateTransportFailureHidesKey(t *testing.T) {
	client := NewClient(Options{
		APIKey: "AIza-secret-123",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: i/o timeout")
		})},
	})
	_, err := client.Generate(context.Background(), "x", nil)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if strings.Contains(err.Error(), "AIza-secret-123") || strings.Contains(err.Error(), "generateContent") {
		t.Fatalf("error exposes request details: %v", err)
	}
	if !strings.Contains(err.Error(), "i/o timeout") {
		t.Fatalf("cause missing: %v", err)
	}
}

func TestGenerateMissingKey(t *testing.T) {
	client := NewClient(Options{
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			t.Fatal("no request expected without api key")
			return nil, nil
		})},
	})
	if _, err := client.Generate(context.Background(), "x", nil); !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestGenerateUsesKeySource(t *testing.T) {
	client := NewClient(Options{
		KeySource: func(ctx context.Context) (string, error) { return " stored ", nil },
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if got := r.Header.Get("x-goog-api-key"); got != "stored" {
				t.Fatalf("key = %q, want stored", got)
			}
			return jsonResponse(http.StatusOK, `{"candidates":[{"content":{"parts":[{"inlineData":{"data":"AQI="}}]}}]}`), nil
		})},
	})
	if _, err := client.Generate(context.Background(), "x", nil); err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	empty := NewClient(Options{KeySource: func(ctx context.Context) (string, error) { return "", nil }})
	if _, err := empty.Generate(context.Background(), "x", nil); !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}
