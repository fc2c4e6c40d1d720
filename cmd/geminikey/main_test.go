package main

import (
	"strings"
	"testing"

	"hairstudio/internal/infra/credentials"
)

func TestNormalizeProvider(t *testing.T) {
	cases := map[string]string{
		"":         credentials.ProviderGemini,
		" Gemini ": credentials.ProviderGemini,
		"PADDLE":   credentials.ProviderPaddle,
	}
	for in, want := range cases {
		got, err := normalizeProvider(in)
		if err != nil || got != want {
			t.Fatalf("normalizeProvider(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := normalizeProvider("openai"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestResolveKey(t *testing.T) {
	env := map[string]string{"GEMINI_API_KEY": " env-key ", "PADDLE_API_KEY": ""}
	getenv := func(k string) string { return env[k] }

	tests := []struct {
		name     string
		provider string
		flag     string
		stdin    string
		useStdin bool
		want     string
		wantErr  bool
	}{
		{name: "flag first", provider: "gemini", flag: " flag-key ", stdin: "stdin-key\n", useStdin: true, want: "flag-key"},
		{name: "stdin line", provider: "gemini", stdin: "stdin-key\nextra\n", useStdin: true, want: "stdin-key"},
		{name: "stdin without newline", provider: "gemini", stdin: "stdin-key", useStdin: true, want: "stdin-key"},
		{name: "blank stdin uses env", provider: "gemini", stdin: "\n", useStdin: true, want: "env-key"},
		{name: "env", provider: "gemini", want: "env-key"},
		{name: "missing", provider: "paddle", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var in *strings.Reader
			if tc.useStdin {
				in = strings.NewReader(tc.stdin)
			}
			var got string
			var err error
			if in != nil {
				got, err = resolveKey(tc.provider, tc.flag, in, getenv)
			} else {
				got, err = resolveKey(tc.provider, tc.flag, nil, getenv)
			}
			if tc.wantErr {
				if err == nil || !strings.Contains(err.Error(), "PADDLE_API_KEY") {
					t.Fatalf("err = %v", err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("resolveKey = %q, %v; want %q", got, err, tc.want)
			}
		})
	}
}

func TestMask(t *testing.T) {
	if got := mask("AIzaSyExample1234"); got != "*************1234" {
		t.Fatalf("mask = %q", got)
	}
	if got := mask("abc"); got != "***" {
		t.Fatalf("short mask = %q", got)
	}
}
