package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hairstudio/internal/domain"
)

type openerFunc func(ctx context.Context, plan string) (*CheckoutSession, error)

func (f openerFunc) OpenCheckout(ctx context.Context, plan string) (*CheckoutSession, error) {
	return f(ctx, plan)
}

func TestCheckoutHandle_InitializesOnce(t *testing.T) {
	inits := 0
	var plans []string
	h := NewCheckoutHandle(func() (CheckoutOpener, error) {
		inits++
		return openerFunc(func(_ context.Context, plan string) (*CheckoutSession, error) {
			plans = append(plans, plan)
			return &CheckoutSession{URL: "https://pay.example/" + plan}, nil
		}), nil
	})
	user := &domain.UserEntitlement{ID: "u1"}

	sess, err := h.Open(context.Background(), "monthly", user)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/monthly", sess.URL)
	_, err = h.Open(context.Background(), "yearly", user)
	require.NoError(t, err)

	assert.Equal(t, 1, inits)
	assert.Equal(t, []string{"monthly", "yearly"}, plans)
}

func TestCheckoutHandle_RequiresUserAndPlan(t *testing.T) {
	inits := 0
	h := NewCheckoutHandle(func() (CheckoutOpener, error) {
		inits++
		return openerFunc(func(context.Context, string) (*CheckoutSession, error) { return &CheckoutSession{}, nil }), nil
	})

	_, err := h.Open(context.Background(), "monthly", nil)
	assert.ErrorIs(t, err, domain.ErrAuth)
	_, err = h.Open(context.Background(), "monthly", &domain.UserEntitlement{})
	assert.ErrorIs(t, err, domain.ErrAuth)
	_, err = h.Open(context.Background(), "weekly", &domain.UserEntitlement{ID: "u1"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, inits)
}

func TestCheckoutHandle_InitFailureIsSticky(t *testing.T) {
	inits := 0
	h := NewCheckoutHandle(func() (CheckoutOpener, error) {
		inits++
		return nil, errors.New("sdk unavailable")
	})
	user := &domain.UserEntitlement{ID: "u1"}

	_, err := h.Open(context.Background(), "monthly", user)
	require.Error(t, err)
	_, err = h.Open(context.Background(), "monthly", user)
	require.Error(t, err)
	assert.Equal(t, 1, inits)

	_, err = NewCheckoutHandle(nil).Open(context.Background(), "yearly", user)
	assert.ErrorIs(t, err, domain.ErrConfig)
}
