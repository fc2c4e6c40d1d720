// Command geminikey stores or inspects the provider API keys kept in the
// integration_tokens table, which the API reads when the matching
// environment variable is unset.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hairstudio/internal/infra"
	"hairstudio/internal/infra/credentials"
)

// envKeys names the environment variable each provider key falls back to.
var envKeys = map[string]string{
	credentials.ProviderGemini: "GEMINI_API_KEY",
	credentials.ProviderPaddle: "PADDLE_API_KEY",
}

func main() {
	var (
		keyFlag      string
		providerFlag string
		stdin        bool
		show         bool
	)
	flag.StringVar(&keyFlag, "key", "", "API key for the selected provider (falls back to the environment)")
	flag.StringVar(&providerFlag, "provider", credentials.ProviderGemini, "provider to configure ("+strings.Join(credentials.Providers, " or ")+")")
	flag.BoolVar(&stdin, "stdin", false, "read the key from the first line of stdin")
	flag.BoolVar(&show, "show", false, "print the stored key masked instead of writing one")
	flag.Parse()

	_ = godotenv.Load()

	provider, err := normalizeProvider(providerFlag)
	if err != nil {
		fail(err)
	}

	var key string
	if !show {
		var in io.Reader
		if stdin {
			in = os.Stdin
		}
		key, err = resolveKey(provider, keyFlag, in, os.Getenv)
		if err != nil {
			fail(err)
		}
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fail(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, dbURL, 2)
	if err != nil {
		fail(err)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "geminikey").Str("provider", provider).Logger()
	store := credentials.NewStoreTTL(infra.NewSQLRunner(pool, logger), 0)

	if show {
		stored, err := store.Token(ctx, provider)
		if err != nil {
			fail(fmt.Errorf("read %s api key: %w", provider, err))
		}
		if stored == "" {
			fmt.Printf("no %s key stored\n", provider)
			return
		}
		fmt.Printf("%s: %s\n", provider, mask(stored))
		return
	}

	props := map[string]any{"source": "cli", "stored_at": time.Now().UTC().Format(time.RFC3339)}
	if err := store.SetToken(ctx, provider, key, props); err != nil {
		fail(fmt.Errorf("persist %s api key: %w", provider, err))
	}
	fmt.Printf("%s API key stored (%s)\n", strings.ToUpper(provider), mask(key))
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func normalizeProvider(raw string) (string, error) {
	provider := strings.ToLower(strings.TrimSpace(raw))
	if provider == "" {
		return credentials.ProviderGemini, nil
	}
	if _, ok := envKeys[provider]; !ok {
		return "", fmt.Errorf("unsupported provider %q", raw)
	}
	return provider, nil
}

// resolveKey picks the key from the flag, then stdin when given, then the
// provider's environment variable.
func resolveKey(provider, flagValue string, stdin io.Reader, getenv func(string) string) (string, error) {
	if key := strings.TrimSpace(flagValue); key != "" {
		return key, nil
	}
	if stdin != nil {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		if key := strings.TrimSpace(line); key != "" {
			return key, nil
		}
	}
	envName := envKeys[provider]
	if key := strings.TrimSpace(getenv(envName)); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%s api key is required via -key, -stdin or %s", provider, envName)
}

// mask keeps the last four characters so operators can tell keys apart.
func mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
