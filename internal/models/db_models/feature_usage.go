package db_models

import (
	"time"

	"github.com/google/uuid"
)

// FeatureUsage is the per-user counter for one feature. UsageLimit is a
// snapshot taken at creation and may diverge from the live FeatureDefinition;
// enforcement always consults the definition, the snapshot is informational.
type FeatureUsage struct {
	BaseModel
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_feature"`
	FeatureName  string    `gorm:"size:100;not null;uniqueIndex:idx_user_feature"`
	CurrentUsage int64     `gorm:"not null;default:0"`
	UsageLimit   *int64
	LastResetAt  time.Time
}
