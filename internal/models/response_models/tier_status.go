package response_models

import "time"

// TierFeature is the resolved rule for one feature on the user's plan:
// exactly one of Unlimited / Limit / Disabled applies.
type TierFeature struct {
	Unlimited bool   `json:"unlimited,omitempty"`
	Limit     *int64 `json:"limit,omitempty"`
	Disabled  bool   `json:"disabled,omitempty"`
}

type FeatureUsageInfo struct {
	Current int64  `json:"current"`
	Limit   *int64 `json:"limit"` // nil = unlimited
}

// TierStatusResponse is derived fresh per call and never persisted.
type TierStatusResponse struct {
	UserID                string                      `json:"user_id"`
	SubscriptionPlan      string                      `json:"subscription_plan"`
	SubscriptionExpiresAt *time.Time                  `json:"subscription_expires_at,omitempty"`
	IsActive              bool                        `json:"is_active"`
	DaysUntilExpiration   *int                        `json:"days_until_expiration,omitempty"`
	GracePeriodActive     bool                        `json:"grace_period_active"`
	GracePeriodExpiresAt  *time.Time                  `json:"grace_period_expires_at,omitempty"`
	TierFeatures          map[string]TierFeature      `json:"tier_features"`
	CurrentUsage          map[string]FeatureUsageInfo `json:"current_usage"`
}

const (
	ReasonFeatureNotDefined   = "feature_not_defined"
	ReasonFeatureNotAvailable = "feature_not_available"
	ReasonUsageLimitExceeded  = "usage_limit_exceeded"
)

// FeatureAccessResult is the answer to "may this user perform this metered
// action right now". Denial is a normal outcome, not an error.
type FeatureAccessResult struct {
	AccessGranted     bool   `json:"access_granted"`
	FeatureAvailable  bool   `json:"feature_available"`
	UsageWithinLimits bool   `json:"usage_within_limits"`
	CurrentUsage      int64  `json:"current_usage"`
	Limit             *int64 `json:"limit"`
	Reason            string `json:"reason,omitempty"`
}

type UsageThresholdResult struct {
	ThresholdExceeded bool    `json:"threshold_exceeded"`
	CurrentUsage      int64   `json:"current_usage"`
	Limit             *int64  `json:"limit"`
	Percentage        float64 `json:"percentage"`
	WarningMessage    string  `json:"warning_message,omitempty"`
}

type TierHistoryResponse struct {
	ID            string    `json:"id"`
	PreviousPlan  *string   `json:"previous_plan,omitempty"`
	NewPlan       string    `json:"new_plan"`
	ChangeReason  string    `json:"change_reason"`
	ChangedBy     *string   `json:"changed_by,omitempty"`
	EffectiveDate time.Time `json:"effective_date"`
	Notes         *string   `json:"notes,omitempty"`
	CreatedAt     int64     `json:"created_at"`
}

type TrackUsageResponse struct {
	FeatureName  string    `json:"feature_name"`
	CurrentUsage int64     `json:"current_usage"`
	UpdatedAt    time.Time `json:"updated_at"`
}
