package billing

import (
	"time"

	"coachhub_backend/internal/models"
)

// validTransitions is the full lifecycle graph. Expired is terminal;
// reactivation creates a fresh row rather than reusing the old one.
var validTransitions = map[models.SubscriptionStatus][]models.SubscriptionStatus{
	models.SubscriptionStatusInactive: {
		models.SubscriptionStatusTrial,
		models.SubscriptionStatusActive,
		models.SubscriptionStatusExpired,
	},
	models.SubscriptionStatusTrial: {
		models.SubscriptionStatusActive,
		models.SubscriptionStatusExpired,
	},
	models.SubscriptionStatusActive: {
		models.SubscriptionStatusExpired,
	},
	models.SubscriptionStatusExpired: {},
}

func CanTransition(from, to models.SubscriptionStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// EffectiveExpiry returns the moment the subscription stops conferring
// access: TrialEndsAt while in trial, otherwise ExpiresAt. Nil means the
// row never grants access (or grants it without bound, which we do not
// issue).
func EffectiveExpiry(sub *models.CoachSubscription) *time.Time {
	if sub == nil {
		return nil
	}
	if sub.Status == models.SubscriptionStatusTrial {
		return sub.TrialEndsAt
	}
	return sub.ExpiresAt
}

// IsTrulyActive is the single source of truth for whether a subscription
// confers access right now. A row whose status still says active but
// whose expiry has passed does NOT count; persisted status lags behind
// wall-clock truth until the worker or a read path reconciles it.
func IsTrulyActive(sub *models.CoachSubscription, now time.Time) bool {
	if sub == nil {
		return false
	}
	if sub.Status != models.SubscriptionStatusActive && sub.Status != models.SubscriptionStatusTrial {
		return false
	}
	// A trial-status row without the trial flag is malformed and grants
	// nothing.
	if sub.Status == models.SubscriptionStatusTrial && !sub.IsTrial {
		return false
	}
	exp := EffectiveExpiry(sub)
	if exp == nil {
		return false
	}
	return exp.After(now)
}

// PeriodEnd computes the end of a billing period that starts at start.
func PeriodEnd(start time.Time, cycle models.BillingCycle) time.Time {
	if cycle == models.BillingCycleYearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}
