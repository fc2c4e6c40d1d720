package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SubscriptionType enumerates billing plans.
type SubscriptionType string

const (
	SubscriptionNone    SubscriptionType = ""
	SubscriptionMonthly SubscriptionType = "monthly"
	SubscriptionYearly  SubscriptionType = "yearly"
)

// Metadata keys persisted on the user record. The webhook is the only writer
// of these fields.
const (
	MetaIsSubscribed        = "is_subscribed"
	MetaSubscriptionType    = "subscription_type"
	MetaCredits             = "credits"
	MetaLegacyTrials        = "free_trials_remaining"
	MetaSubscriptionID      = "paddle_subscription_id"
	MetaLastEventType       = "paddle_event_type"
	MetaLastStatus          = "paddle_last_status"
	MetaLastPriceID         = "paddle_price_id"
	DefaultTrialCredits     = 5
	unknownEmailPlaceholder = "user@unknown.com"
)

// UserRecord is the raw record held by the external user store.
type UserRecord struct {
	ID       string
	Email    string
	Metadata map[string]any
}

// UserEntitlement is the projection of a user record that gates generation.
type UserEntitlement struct {
	ID                 string           `json:"id"`
	Email              string           `json:"email"`
	IsSubscribed       bool             `json:"isSubscribed"`
	SubscriptionType   SubscriptionType `json:"subscriptionType,omitempty"`
	TrialBalance       int              `json:"trialBalance"`
	LastSubscriptionID string           `json:"lastSubscriptionId,omitempty"`
	LastEventType      string           `json:"lastEventType,omitempty"`
	LastStatus         string           `json:"lastStatus,omitempty"`
	LastPriceID        string           `json:"lastPriceId,omitempty"`
}

// Clone returns a copy safe to mutate.
func (u *UserEntitlement) Clone() *UserEntitlement {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// NewEntitlement projects a stored record. defaultCredits applies when the
// record has no credit balance yet.
func NewEntitlement(rec *UserRecord, defaultCredits int) UserEntitlement {
	if rec == nil {
		return UserEntitlement{}
	}
	meta := rec.Metadata
	email := strings.TrimSpace(rec.Email)
	if email == "" {
		email = unknownEmailPlaceholder
	}
	return UserEntitlement{
		ID:                 rec.ID,
		Email:              email,
		IsSubscribed:       BoolValue(meta[MetaIsSubscribed]),
		SubscriptionType:   SubscriptionType(StringValue(meta[MetaSubscriptionType])),
		TrialBalance:       Credits(meta, defaultCredits),
		LastSubscriptionID: StringValue(meta[MetaSubscriptionID]),
		LastEventType:      StringValue(meta[MetaLastEventType]),
		LastStatus:         StringValue(meta[MetaLastStatus]),
		LastPriceID:        StringValue(meta[MetaLastPriceID]),
	}
}

// Credits returns the stored credit balance, falling back to the legacy trial
// counter and finally to defaultCredits. Negative values clamp to zero.
func Credits(meta map[string]any, defaultCredits int) int {
	for _, key := range []string{MetaCredits, MetaLegacyTrials} {
		if v, ok := NumberValue(meta[key]); ok {
			if v < 0 {
				return 0
			}
			return int(v)
		}
	}
	return defaultCredits
}

// NumberValue interprets JSON-ish numeric values, including numeric strings.
func NumberValue(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// StringValue returns v when it is a string, otherwise "".
func StringValue(v any) string {
	s, _ := v.(string)
	return s
}

// BoolValue treats true and "true" as set.
func BoolValue(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	default:
		return false
	}
}
