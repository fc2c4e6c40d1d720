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

	"hairstudio/internal/adapter/repo"
	"hairstudio/internal/domain"
	"hairstudio/internal/infra"
)

func main() {
	var (
		idFlag      string
		emailFlag   string
		planFlag    string
		creditsFlag int
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update")
	flag.StringVar(&emailFlag, "email", "", "user email to update")
	flag.StringVar(&planFlag, "plan", "", "plan to assign (none, monthly, yearly); empty keeps the current plan")
	flag.IntVar(&creditsFlag, "credits", -1, "credit balance to set (negative keeps the current value)")
	flag.Parse()

	_ = godotenv.Load()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	plan := strings.TrimSpace(strings.ToLower(planFlag))

	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	patch, err := buildPatch(plan, creditsFlag)
	if err != nil {
		exitWithError(err)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, dbURL, 2)
	if err != nil {
		exitWithError(err)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userplan").Logger()
	users := repo.NewUserRepository(infra.NewSQLRunner(pool, logger))

	if userID == "" {
		rec, err := users.GetUserByEmail(ctx, email)
		if err != nil {
			exitWithError(fmt.Errorf("failed to load user: %w", err))
		}
		userID = rec.ID
	}

	rec, err := users.MergeUserMetadata(ctx, userID, patch)
	if err != nil {
		exitWithError(fmt.Errorf("failed to update user: %w", err))
	}

	ent := domain.NewEntitlement(rec, domain.DefaultTrialCredits)
	fmt.Printf("User %s (%s) updated\n", ent.ID, ent.Email)
	fmt.Printf("is_subscribed=%v\n", ent.IsSubscribed)
	if ent.SubscriptionType != domain.SubscriptionNone {
		fmt.Printf("subscription_type=%s\n", ent.SubscriptionType)
	}
	fmt.Printf("credits=%d\n", ent.TrialBalance)
}

// buildPatch turns the flags into the metadata overlay written to the record.
func buildPatch(plan string, credits int) (map[string]any, error) {
	patch := map[string]any{}
	switch plan {
	case "":
	case "none", "free":
		patch[domain.MetaIsSubscribed] = false
		patch[domain.MetaSubscriptionType] = nil
	case string(domain.SubscriptionMonthly), string(domain.SubscriptionYearly):
		patch[domain.MetaIsSubscribed] = true
		patch[domain.MetaSubscriptionType] = plan
	default:
		return nil, fmt.Errorf("unsupported plan %q", plan)
	}
	if credits >= 0 {
		patch[domain.MetaCredits] = credits
	}
	if len(patch) == 0 {
		return nil, errors.New("nothing to update: pass -plan and/or -credits")
	}
	return patch, nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
