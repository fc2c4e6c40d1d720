package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"hairstudio/internal/i18n"
)

type localeContextKey struct{}
type countryContextKey struct{}

// CountryLookup resolves an ISO country code for an IP address.
type CountryLookup func(ip string) (string, error)

// Headers set by the CDNs the studio has been deployed behind. "XX" means
// the edge could not tell.
var countryHeaders = []string{"CF-IPCountry", "X-Country-Code", "X-Vercel-IP-Country"}

// Message language for visitors who sent no preference.
var countryLocales = map[string]string{
	"CN": "zh", "TW": "zh", "HK": "zh", "SG": "zh",
	"JP": "ja",
	"KR": "ko",
	"ES": "es", "MX": "es", "AR": "es", "CO": "es", "CL": "es",
	"DE": "de", "AT": "de", "CH": "de",
	"FR": "fr", "BE": "fr",
}

// I18N stores the message locale and, when known, the visitor's country on
// the request context. The chosen locale is echoed as Content-Language so
// plain-text error bodies can be rendered correctly by the client.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	fallback := i18n.Match(defaultLocale)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			locale := detectLocale(r, fallback, country)
			ctx := context.WithValue(r.Context(), localeContextKey{}, locale)
			if country != "" {
				ctx = context.WithValue(ctx, countryContextKey{}, country)
			}
			w.Header().Set("Content-Language", locale)
			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// detectLocale tries the explicit ?lang= override, then X-Locale, then
// Accept-Language, then the visitor's country.
func detectLocale(r *http.Request, fallback string, country string) string {
	for _, v := range []string{
		r.URL.Query().Get("lang"),
		r.Header.Get("X-Locale"),
		r.Header.Get("Accept-Language"),
	} {
		if v = strings.TrimSpace(v); v != "" {
			return i18n.Match(v)
		}
	}
	if locale, ok := countryLocales[country]; ok {
		return locale
	}
	if fallback != "" {
		return fallback
	}
	return "en"
}

// ClientIP returns the first parseable X-Forwarded-For entry, falling back
// to the connection's remote host.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(part); ip != "" && net.ParseIP(ip) != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(localeContextKey{}).(string); ok && v != "" {
		return v
	}
	return "en"
}

func CountryFromContext(ctx context.Context) string {
	v, _ := ctx.Value(countryContextKey{}).(string)
	return v
}

// WithLocale returns ctx carrying locale; handlers under test use it in
// place of the middleware.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeContextKey{}, locale)
}

// ResolveCountry prefers CDN country headers over a lookup of the client
// address. The result is upper-case or empty.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range countryHeaders {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" && !strings.EqualFold(val, "XX") {
			return strings.ToUpper(val)
		}
	}
	if lookup == nil {
		return ""
	}
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	country, err := lookup(ip)
	if err != nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(country))
}
