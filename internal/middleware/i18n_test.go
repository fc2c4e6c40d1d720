package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type assertError string

func (e assertError) Error() string { return string(e) }

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		headers  map[string]string
		country  string
		fallback string
		want     string
	}{
		{"query wins", "/?lang=de", map[string]string{"X-Locale": "ko"}, "", "en", "de"},
		{"legacy x-locale alias", "/", map[string]string{"X-Locale": "jp", "Accept-Language": "fr"}, "US", "en", "ja"},
		{"accept-language", "/", map[string]string{"Accept-Language": "es-MX,es;q=0.9"}, "", "en", "es"},
		{"unsupported header falls to en", "/", map[string]string{"Accept-Language": "pt-BR"}, "JP", "en", "en"},
		{"country", "/", nil, "KR", "en", "ko"},
		{"unmapped country", "/", nil, "US", "fr", "fr"},
		{"nothing", "/", nil, "", "", "en"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := detectLocale(req, tc.fallback, tc.country); got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveCountry(t *testing.T) {
	lookupCalls := 0
	lookup := func(ip string) (string, error) {
		lookupCalls++
		switch ip {
		case "198.51.100.7":
			return " nl ", nil
		case "203.0.113.9":
			return "", assertError("no record")
		}
		return "", nil
	}

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		lookup  CountryLookup
		want    string
	}{
		{"cdn header", map[string]string{"CF-IPCountry": "jp", "X-Country-Code": "us"}, "198.51.100.7:1", lookup, "JP"},
		{"vercel header", map[string]string{"X-Vercel-IP-Country": "mx"}, "198.51.100.7:1", nil, "MX"},
		{"unknown edge country", map[string]string{"CF-IPCountry": "XX"}, "198.51.100.7:1", lookup, "NL"},
		{"forwarded address", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.1"}, "10.0.0.1:1", lookup, "NL"},
		{"lookup error", nil, "203.0.113.9:1", lookup, ""},
		{"no lookup", nil, "198.51.100.7:1", nil, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := ResolveCountry(req, tc.lookup); got != tc.want {
				t.Fatalf("ResolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
	if lookupCalls != 3 {
		t.Fatalf("lookup calls = %d, want 3", lookupCalls)
	}
}

func TestI18NStoresLocaleAndCountry(t *testing.T) {
	var locale, country string
	h := I18N("en", func(ip string) (string, error) { return "es", nil })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
		country = CountryFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if locale != "es" || country != "ES" {
		t.Fatalf("locale=%q country=%q", locale, country)
	}
	if got := rec.Header().Get("Content-Language"); got != "es" {
		t.Fatalf("Content-Language = %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Accept-Language" {
		t.Fatalf("Vary = %q", got)
	}
}

func TestI18NDefaultLocaleIsNormalised(t *testing.T) {
	var locale string
	h := I18N("kr", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if locale != "ko" {
		t.Fatalf("locale = %q", locale)
	}
}

func TestLocaleContextHelpers(t *testing.T) {
	ctx := context.Background()
	if got := LocaleFromContext(ctx); got != "en" {
		t.Fatalf("default locale = %q", got)
	}
	if got := CountryFromContext(ctx); got != "" {
		t.Fatalf("default country = %q", got)
	}
	if got := LocaleFromContext(WithLocale(ctx, "ko")); got != "ko" {
		t.Fatalf("WithLocale = %q", got)
	}
}
