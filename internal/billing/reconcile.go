package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hairstudio/internal/domain"
	"hairstudio/internal/infra"
)

// SkippedNoUserID marks an accepted event that names no user.
const SkippedNoUserID = "no_user_id"

// Options configures a Reconciler.
type Options struct {
	Secret         string
	YearlyPriceID  string
	DefaultCredits int
	StoreTimeout   time.Duration
	Logger         *infra.Logger
}

// Result describes what happened to an accepted event.
type Result struct {
	EventType   string
	UserID      string
	Skipped     string
	Entitlement *domain.UserEntitlement
}

// Reconciler applies signed billing notifications to user records.
type Reconciler struct {
	store          domain.UserStore
	secret         string
	yearlyPriceID  string
	defaultCredits int
	storeTimeout   time.Duration
	logger         *infra.Logger
	locks          *keyedMutex
}

// NewReconciler wires a reconciler around the user store.
func NewReconciler(store domain.UserStore, opts Options) *Reconciler {
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	timeout := opts.StoreTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	credits := opts.DefaultCredits
	if credits < 0 {
		credits = 0
	}
	return &Reconciler{
		store:          store,
		secret:         opts.Secret,
		yearlyPriceID:  strings.TrimSpace(opts.YearlyPriceID),
		defaultCredits: credits,
		storeTimeout:   timeout,
		logger:         logger,
		locks:          newKeyedMutex(),
	}
}

// Reconcile verifies, parses and applies one notification. Nothing is read
// from or written to the store unless the signature verifies and the body
// parses.
func (r *Reconciler) Reconcile(ctx context.Context, rawBody []byte, signature string) (Result, error) {
	if r.store == nil || strings.TrimSpace(r.secret) == "" {
		return Result{}, fmt.Errorf("%w: webhook not configured", domain.ErrConfig)
	}
	if err := VerifySignature(r.secret, rawBody, signature); err != nil {
		return Result{}, err
	}

	payload, err := decodePayload(rawBody)
	if err != nil {
		return Result{}, err
	}

	ev := ParseEvent(payload)
	res := Result{EventType: ev.Type, UserID: ev.UserID}
	if ev.UserID == "" {
		res.Skipped = SkippedNoUserID
		r.logger.Info().Str("event_type", ev.Type).Msg("billing: event has no user id, skipping")
		return res, nil
	}

	unlock := r.locks.Lock(ev.UserID)
	defer unlock()

	ent, err := r.apply(ctx, ev)
	if err != nil {
		return res, err
	}
	res.Entitlement = ent
	return res, nil
}

func (r *Reconciler) apply(ctx context.Context, ev Event) (*domain.UserEntitlement, error) {
	getCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	rec, err := r.store.GetUser(getCtx, ev.UserID)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load user: %v", domain.ErrConfig, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, ev.UserID)
	}

	if ev.GrantIgnored != "" {
		r.logger.Warn().
			Str("event_type", ev.Type).
			Str("user_id", ev.UserID).
			Str("reason", ev.GrantIgnored).
			Msg("billing: credit grant ignored")
	}
	merged := r.merge(rec.Metadata, ev)

	putCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	err = r.store.UpdateUserMetadata(putCtx, ev.UserID, merged)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: update user: %v", domain.ErrConfig, err)
	}

	ent := domain.NewEntitlement(&domain.UserRecord{ID: rec.ID, Email: rec.Email, Metadata: merged}, r.defaultCredits)
	r.logger.Info().
		Str("event_type", ev.Type).
		Str("user_id", ev.UserID).
		Bool("is_subscribed", ent.IsSubscribed).
		Str("plan", string(ent.SubscriptionType)).
		Int("credits", ent.TrialBalance).
		Msg("billing: entitlement updated")
	return &ent, nil
}

// merge overlays the event's entitlement facts on a copy of the stored
// metadata. Keys it does not own are carried over untouched.
func (r *Reconciler) merge(current map[string]any, ev Event) map[string]any {
	merged := make(map[string]any, len(current)+7)
	for k, v := range current {
		merged[k] = v
	}

	plan := domain.SubscriptionType(domain.StringValue(current[domain.MetaSubscriptionType]))
	switch {
	case ev.PriceID != "" && ev.PriceID == r.yearlyPriceID:
		plan = domain.SubscriptionYearly
	case ev.PriceID != "":
		plan = domain.SubscriptionMonthly
	}

	// Grants add to what is stored; the trial default is a read-side projection.
	credits := domain.Credits(current, 0) + ev.CreditGrant
	if credits < 0 {
		credits = 0
	}

	merged[domain.MetaIsSubscribed] = ev.IsActive()
	merged[domain.MetaSubscriptionType] = string(plan)
	merged[domain.MetaCredits] = credits
	merged[domain.MetaLastEventType] = ev.Type
	merged[domain.MetaLastStatus] = ev.Status
	if ev.SubscriptionID != "" {
		merged[domain.MetaSubscriptionID] = ev.SubscriptionID
	}
	if ev.PriceID != "" {
		merged[domain.MetaLastPriceID] = ev.PriceID
	}
	return merged
}

func decodePayload(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", domain.ErrValidation, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrValidation)
	}
	return payload, nil
}
