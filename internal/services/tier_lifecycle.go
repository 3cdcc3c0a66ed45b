package services

import (
	"math"
	"time"

	"stockly/internal/models/db_models"
)

// GracePeriodDays is the window after premium expiry during which premium
// entitlements remain active.
const GracePeriodDays = 7

// Pure lifecycle derivations. None of these touch storage; callers pass the
// reference time so boundaries are testable.

func IsExpired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt != nil && expiresAt.Before(now)
}

func GracePeriodEnd(expiresAt *time.Time) *time.Time {
	if expiresAt == nil {
		return nil
	}
	end := expiresAt.AddDate(0, 0, GracePeriodDays)
	return &end
}

func IsGracePeriodActive(graceEnd *time.Time, now time.Time) bool {
	return graceEnd != nil && graceEnd.After(now)
}

// DaysUntilExpiration returns ceil((expiry - now) / 1 day); negative once
// expired, nil when there is no expiry.
func DaysUntilExpiration(expiresAt *time.Time, now time.Time) *int {
	if expiresAt == nil {
		return nil
	}
	days := int(math.Ceil(expiresAt.Sub(now).Hours() / 24))
	return &days
}

// EffectivePlan resolves what plan the user is actually entitled to right
// now: premium holds through the grace period, then falls back to free even
// if the sweep has not downgraded the stored record yet.
func EffectivePlan(plan db_models.SubscriptionPlan, expiresAt *time.Time, now time.Time) db_models.SubscriptionPlan {
	if plan != db_models.SubscriptionPlanPremium {
		return db_models.SubscriptionPlanFree
	}
	if IsExpired(expiresAt, now) && !IsGracePeriodActive(GracePeriodEnd(expiresAt), now) {
		return db_models.SubscriptionPlanFree
	}
	return db_models.SubscriptionPlanPremium
}
