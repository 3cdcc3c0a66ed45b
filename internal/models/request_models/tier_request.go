package request_models

import "time"

type UpgradeRequest struct {
	// ExpiresAt is optional; omitted means a non-expiring premium grant.
	ExpiresAt *time.Time `json:"expires_at"`
	Notes     *string    `json:"notes" binding:"omitempty,max=500"`
}

type DowngradeRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=500"`
}

type TrackUsageRequest struct {
	FeatureName string `json:"feature_name" binding:"required"`
	Delta       int64  `json:"delta" binding:"required"`
	Atomic      bool   `json:"atomic"`
}

type ResetCountersRequest struct {
	ResetType string `json:"reset_type" binding:"required,oneof=daily weekly monthly all"`
}
