package client

import "hairstudio/internal/domain"

// Decision is the outcome of an authorization check.
type Decision int

const (
	Allow Decision = iota
	RequireSignIn
	RequireUpgrade
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RequireSignIn:
		return "require_sign_in"
	case RequireUpgrade:
		return "require_upgrade"
	}
	return "unknown"
}

// Gatekeeper decides whether a generation may start and charges the local
// trial balance once it has succeeded.
type Gatekeeper struct{}

func (Gatekeeper) Authorize(user *domain.UserEntitlement) Decision {
	if user == nil {
		return RequireSignIn
	}
	if !user.IsSubscribed && user.TrialBalance <= 0 {
		return RequireUpgrade
	}
	return Allow
}

// Charge decrements the trial balance of an unsubscribed user by one.
func (Gatekeeper) Charge(user *domain.UserEntitlement) {
	if user == nil || user.IsSubscribed {
		return
	}
	if user.TrialBalance > 0 {
		user.TrialBalance--
	}
}
