package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hairstudio/internal/billing/paddle"
	"hairstudio/internal/infra"
)

func main() {
	var (
		descFlag   string
		urlFlag    string
		envFlag    string
		dryRunFlag bool
	)
	flag.StringVar(&descFlag, "description", "", "description of the notification setting to update")
	flag.StringVar(&urlFlag, "url", "", "new webhook destination, e.g. https://api.example.com/v1/webhooks/paddle")
	flag.StringVar(&envFlag, "env", "", "paddle environment (sandbox or production); defaults to PADDLE_ENV")
	flag.BoolVar(&dryRunFlag, "dry-run", false, "print the update without sending it")
	flag.Parse()

	_ = godotenv.Load()

	desc := strings.TrimSpace(descFlag)
	dest := strings.TrimSpace(urlFlag)
	if desc == "" || dest == "" {
		exitWithError(errors.New("-description and -url are required"))
	}
	if !strings.HasPrefix(dest, "https://") && !strings.HasPrefix(dest, "http://") {
		exitWithError(fmt.Errorf("destination %q is not an http(s) url", dest))
	}
	apiKey := strings.TrimSpace(os.Getenv("PADDLE_API_KEY"))
	if apiKey == "" {
		exitWithError(errors.New("PADDLE_API_KEY is required"))
	}
	env := strings.TrimSpace(envFlag)
	if env == "" {
		env = os.Getenv("PADDLE_ENV")
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "paddlehook").Logger()
	client := paddle.NewClient(paddle.Options{APIKey: apiKey, BaseURL: paddle.BaseURLForEnv(env)})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	settings, err := client.ListNotificationSettings(ctx)
	if err != nil {
		exitWithError(fmt.Errorf("list notification settings: %w", err))
	}
	target, ok := paddle.FindNotificationSetting(settings, desc)
	if !ok {
		exitWithError(fmt.Errorf("no notification setting found with description %q", desc))
	}
	upd := paddle.RetargetUpdate(target, dest)
	logger.Info().Str("id", target.ID).Str("from", target.Destination).Str("to", dest).
		Int("events", len(upd.SubscribedEvents)).Bool("dry_run", dryRunFlag).Msg("retargeting notification setting")
	if dryRunFlag {
		return
	}

	updated, err := client.UpdateNotificationSetting(ctx, target.ID, upd)
	if err != nil {
		exitWithError(fmt.Errorf("update notification setting: %w", err))
	}
	fmt.Printf("Notification setting %s now delivers to %s\n", updated.ID, updated.Destination)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
