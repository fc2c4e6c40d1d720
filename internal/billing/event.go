package billing

import (
	"math"
	"strings"

	"hairstudio/internal/domain"
)

// activeStatuses are the processor statuses treated as a live subscription.
var activeStatuses = map[string]struct{}{
	"active":   {},
	"paid":     {},
	"trialing": {},
	"past_due": {},
}

// MaxCreditGrant bounds the magnitude of a single event's credit grant.
const MaxCreditGrant = 1_000_000

// Event is the part of a processor notification the reconciler acts on.
type Event struct {
	Type           string
	UserID         string
	Status         string
	PriceID        string
	SubscriptionID string
	CreditGrant    int
	// GrantIgnored explains why a present credit value was not applied.
	GrantIgnored string
}

// IsActive reports whether the event status is on the allow-list.
func (e Event) IsActive() bool {
	_, ok := activeStatuses[strings.ToLower(strings.TrimSpace(e.Status))]
	return ok
}

// ParseEvent extracts an Event from a decoded notification envelope. The
// envelope may carry its payload under "data" or at the top level.
func ParseEvent(payload map[string]any) Event {
	ev := Event{Type: firstString(payload, "event_type", "eventType", "type")}
	if ev.Type == "" {
		ev.Type = "unknown"
	}

	data, ok := payload["data"].(map[string]any)
	if !ok || data == nil {
		data = payload
	}

	custom, _ := data["custom_data"].(map[string]any)
	ev.UserID = strings.TrimSpace(firstString(custom, "user_id", "supabase_user_id", "userId"))

	ev.Status = firstNonEmpty(
		domain.StringValue(data["status"]),
		domain.StringValue(lookup(data, "subscription", "status")),
		domain.StringValue(lookup(data, "payment", "status")),
	)

	ev.PriceID = firstNonEmpty(
		firstItemPriceID(data["items"]),
		firstItemPriceID(lookup(data, "subscription", "items")),
		domain.StringValue(data["price_id"]),
		domain.StringValue(lookup(data, "price", "id")),
	)

	ev.SubscriptionID = firstNonEmpty(
		domain.StringValue(data["id"]),
		domain.StringValue(data["subscription_id"]),
	)

	grant, ok := custom["credits"]
	if !ok || grant == nil {
		grant = data["credits"]
	}
	ev.CreditGrant, ev.GrantIgnored = creditGrant(grant)
	return ev
}

// creditGrant accepts whole numbers within MaxCreditGrant. Anything else is
// ignored with a reason instead of being truncated.
func creditGrant(v any) (int, string) {
	if v == nil {
		return 0, ""
	}
	n, ok := domain.NumberValue(v)
	switch {
	case !ok:
		return 0, "not a number"
	case n != math.Trunc(n):
		return 0, "not a whole number"
	case math.Abs(n) > MaxCreditGrant:
		return 0, "out of range"
	}
	return int(n), ""
}

func lookup(m map[string]any, path ...string) any {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

func firstItemPriceID(v any) string {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return ""
	}
	item, ok := items[0].(map[string]any)
	if !ok {
		return ""
	}
	return domain.StringValue(lookup(item, "price", "id"))
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := domain.StringValue(m[key]); s != "" {
			return s
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
