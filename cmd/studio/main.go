// Command studio drives a hairstyle preview session against the hairstudio
// API from the terminal.
package main

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"hairstudio/internal/client"
	"hairstudio/internal/infra"
)

//go:embed catalog.json
var defaultCatalog []byte

var (
	apiURL      string
	token       string
	catalogPath string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "studio",
	Short:         "Preview hairstyles on a photo",
	Long:          `Render hairstyle and color previews through the hairstudio API and save them locally.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("HAIRSTUDIO_API_URL", "http://localhost:8080"), "hairstudio API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("HAIRSTUDIO_TOKEN"), "session bearer token")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "style/color catalog JSON (defaults to the built-in catalog)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(stylesCmd)
	rootCmd.AddCommand(meCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(checkoutCmd)
}

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// newLogger logs to stderr so command output on stdout stays clean.
func newLogger() zerolog.Logger {
	logger := infra.NewLogger("cli").With().Str("cmd", "studio").Logger()
	if verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}
	return logger
}

func loadCatalog() (*client.StaticCatalog, error) {
	if catalogPath == "" {
		return client.LoadCatalog(bytes.NewReader(defaultCatalog))
	}
	f, err := os.Open(catalogPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return client.LoadCatalog(f)
}

func newAPIClient() *client.APIClient {
	return client.NewAPIClient(client.APIOptions{BaseURL: apiURL, Token: token})
}
