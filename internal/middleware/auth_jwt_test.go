package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestVerifyJWT(t *testing.T) {
	token, err := SignJWT("secret", TokenClaims{Sub: "u1", Email: "u1@example.com", Exp: time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("SignJWT error: %v", err)
	}
	claims, err := VerifyJWT("secret", token)
	if err != nil {
		t.Fatalf("VerifyJWT error: %v", err)
	}
	if claims.Sub != "u1" || claims.Email != "u1@example.com" {
		t.Fatalf("unexpected claims %#v", claims)
	}

	if _, err := VerifyJWT("other", token); err == nil {
		t.Fatal("expected signature failure")
	}
	expired, _ := SignJWT("secret", TokenClaims{Sub: "u1", Exp: time.Now().Add(-time.Minute).Unix()})
	if _, err := VerifyJWT("secret", expired); err == nil {
		t.Fatal("expected expiry failure")
	}
	anonymous, _ := SignJWT("secret", TokenClaims{})
	if _, err := VerifyJWT("secret", anonymous); err == nil {
		t.Fatal("expected missing subject failure")
	}
	if _, err := VerifyJWT("secret", "a.b"); err == nil {
		t.Fatal("expected malformed failure")
	}
}

func TestVerifyJWTClockSkew(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	cases := []struct {
		name    string
		claims  TokenClaims
		wantErr error
	}{
		{"expired within skew", TokenClaims{Sub: "u1", Exp: now.Add(-10 * time.Second).Unix()}, nil},
		{"expired beyond skew", TokenClaims{Sub: "u1", Exp: now.Add(-time.Minute).Unix()}, errExpired},
		{"nbf within skew", TokenClaims{Sub: "u1", Nbf: now.Add(10 * time.Second).Unix()}, nil},
		{"nbf in future", TokenClaims{Sub: "u1", Nbf: now.Add(time.Minute).Unix()}, errNotYetValid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := SignJWT("secret", tc.claims)
			if err != nil {
				t.Fatalf("SignJWT: %v", err)
			}
			if _, err := verifyJWTAt("secret", token, now); err != tc.wantErr {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestVerifyJWTRejectsOtherAlgorithms(t *testing.T) {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u1"}`))
	if _, err := VerifyJWT("secret", header+"."+payload+"."); err != errMalformedToken {
		t.Fatalf("err = %v", err)
	}
}

func TestAuthJWT(t *testing.T) {
	token, _ := SignJWT("secret", TokenClaims{Sub: "u1", Email: "u1@example.com"})
	var seen, email string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
		email = UserEmailFromContext(r.Context())
	})

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{name: "ok", secret: "secret", header: "Bearer " + token, want: http.StatusOK},
		{name: "lowercase scheme", secret: "secret", header: "bearer " + token, want: http.StatusOK},
		{name: "missing header", secret: "secret", want: http.StatusUnauthorized},
		{name: "wrong scheme", secret: "secret", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "bad token", secret: "secret", header: "Bearer x.y.z", want: http.StatusUnauthorized},
		{name: "no secret configured", header: "Bearer " + token, want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			AuthJWT(tc.secret)(next).ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusOK && (seen != "u1" || email != "u1@example.com") {
				t.Fatalf("context user = %q/%q", seen, email)
			}
			if tc.want != http.StatusOK && strings.TrimSpace(rec.Body.String()) == "" {
				t.Fatal("expected an error message body")
			}
		})
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/v1/webhooks/paddle", nil)
	req.Header.Set("Origin", "https://app.example")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("allow origin = %q", got)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "Paddle-Signature") {
		t.Fatalf("allow headers = %q", rec.Header().Get("Access-Control-Allow-Headers"))
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/webhooks/paddle", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTeapot {
		t.Fatalf("request should pass through, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(rec, req)
	if seen != "abc" || rec.Header().Get("X-Request-ID") != "abc" {
		t.Fatalf("request id = %q", seen)
	}

	for _, bad := range []string{"has space", strings.Repeat("x", 129), "tab\tid"} {
		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", bad)
		h.ServeHTTP(rec, req)
		if seen == bad || len(seen) != 36 {
			t.Fatalf("untrusted id %q propagated as %q", bad, seen)
		}
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 36 {
		t.Fatalf("generated id = %q", seen)
	}
}

func TestRequire(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ })

	rec := httptest.NewRecorder()
	Require(func() error { return assertError("missing secret") })(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusInternalServerError || calls != 0 {
		t.Fatalf("status=%d calls=%d", rec.Code, calls)
	}
	if strings.Contains(rec.Body.String(), "missing secret") {
		t.Fatal("configuration details must not leak")
	}

	rec = httptest.NewRecorder()
	Require(func() error { return nil })(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}
