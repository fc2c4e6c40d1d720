package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"hairstudio/internal/domain"
)

// CheckoutOpener starts a hosted checkout for plan and returns its URL.
type CheckoutOpener interface {
	OpenCheckout(ctx context.Context, plan string) (*CheckoutSession, error)
}

// CheckoutHandle lazily initializes the payment surface exactly once per
// process. A failed initialization is reported on every later call.
type CheckoutHandle struct {
	init   func() (CheckoutOpener, error)
	once   sync.Once
	opener CheckoutOpener
	err    error
}

func NewCheckoutHandle(init func() (CheckoutOpener, error)) *CheckoutHandle {
	return &CheckoutHandle{init: init}
}

// Open requires a signed-in user so the webhook can attribute the payment.
func (h *CheckoutHandle) Open(ctx context.Context, plan string, user *domain.UserEntitlement) (*CheckoutSession, error) {
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return nil, fmt.Errorf("%w: sign in before checkout", domain.ErrAuth)
	}
	switch domain.SubscriptionType(plan) {
	case domain.SubscriptionMonthly, domain.SubscriptionYearly:
	default:
		return nil, fmt.Errorf("%w: unknown plan %q", domain.ErrValidation, plan)
	}
	h.once.Do(func() {
		if h.init == nil {
			h.err = fmt.Errorf("%w: checkout is not configured", domain.ErrConfig)
			return
		}
		h.opener, h.err = h.init()
	})
	if h.err != nil {
		return nil, h.err
	}
	return h.opener.OpenCheckout(ctx, plan)
}
