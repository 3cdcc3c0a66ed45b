package db_models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TierChangeReasonUpgrade    = "upgrade"
	TierChangeReasonDowngrade  = "downgrade"
	TierChangeReasonExpiration = "expiration"
)

// TierHistory is append-only: rows are never updated or deleted, corrections
// are modeled as new rows.
type TierHistory struct {
	BaseModel
	UserID        uuid.UUID         `gorm:"type:uuid;not null;index:idx_history_user"`
	PreviousPlan  *SubscriptionPlan `gorm:"type:varchar(20)"` // nil for the first recorded transition
	NewPlan       SubscriptionPlan  `gorm:"type:varchar(20);not null"`
	ChangeReason  string            `gorm:"size:50;not null"`
	ChangedBy     *uuid.UUID        `gorm:"type:uuid"` // admin/actor id, nil for system transitions
	EffectiveDate time.Time         `gorm:"not null;index:idx_history_user"`
	Notes         *string           `gorm:"size:500"`
	Metadata      datatypes.JSON    `gorm:"type:jsonb;default:'{}'"`
}
