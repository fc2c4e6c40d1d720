package billing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestParseEventPaths(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Event
	}{
		{
			name: "nested data with items",
			raw:  `{"event_type":"subscription.updated","data":{"id":"sub_1","status":"active","items":[{"price":{"id":"pri_1"}}],"custom_data":{"user_id":"u1","credits":3}}}`,
			want: Event{Type: "subscription.updated", UserID: "u1", Status: "active", PriceID: "pri_1", SubscriptionID: "sub_1", CreditGrant: 3},
		},
		{
			name: "top level payload",
			raw:  `{"type":"transaction.paid","status":"paid","subscription_id":"sub_2","price":{"id":"pri_2"},"credits":"4","custom_data":{"userId":"u2"}}`,
			want: Event{Type: "transaction.paid", UserID: "u2", Status: "paid", PriceID: "pri_2", SubscriptionID: "sub_2", CreditGrant: 4},
		},
		{
			name: "subscription and payment fallbacks",
			raw:  `{"eventType":"x","data":{"subscription":{"items":[{"price":{"id":"pri_3"}}]},"payment":{"status":"trialing"},"custom_data":{"supabase_user_id":"u3"}}}`,
			want: Event{Type: "x", UserID: "u3", Status: "trialing", PriceID: "pri_3"},
		},
		{
			name: "nothing useful",
			raw:  `{"data":{"custom_data":{"credits":"lots"}}}`,
			want: Event{Type: "unknown", GrantIgnored: "not a number"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseEvent(decode(t, tc.raw)))
		})
	}
}

func TestParseEventCreditGrantBounds(t *testing.T) {
	cases := []struct {
		credits string
		grant   int
		ignored string
	}{
		{`7`, 7, ""},
		{`"12"`, 12, ""},
		{`-2`, -2, ""},
		{`1000000`, MaxCreditGrant, ""},
		{`2.5`, 0, "not a whole number"},
		{`1e300`, 0, "out of range"},
		{`-1000001`, 0, "out of range"},
		{`null`, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.credits, func(t *testing.T) {
			ev := ParseEvent(decode(t, `{"data":{"custom_data":{"user_id":"u1","credits":`+tc.credits+`}}}`))
			assert.Equal(t, tc.grant, ev.CreditGrant)
			assert.Equal(t, tc.ignored, ev.GrantIgnored)
		})
	}
}

func TestEventIsActive(t *testing.T) {
	for _, status := range []string{"active", "PAID", "Trialing", "past_due"} {
		assert.True(t, Event{Status: status}.IsActive(), status)
	}
	for _, status := range []string{"", "canceled", "paused", "past-due"} {
		assert.False(t, Event{Status: status}.IsActive(), status)
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"a":1}`)
	sig := Sign("secret", body)
	require.NoError(t, VerifySignature("secret", body, " "+sig+"\n"))
	assert.Error(t, VerifySignature("other", body, sig))
	assert.Error(t, VerifySignature("secret", body, "%%%"))
}
