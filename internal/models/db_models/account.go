package db_models

import "time"

type SubscriptionPlan string

const (
	SubscriptionPlanFree    SubscriptionPlan = "free"
	SubscriptionPlanPremium SubscriptionPlan = "premium"
)

// Account doubles as the user tier record: the plan and expiry columns are
// mutated only by the tier lifecycle transitions.
type Account struct {
	BaseModel
	Name         string
	Email        string `gorm:"unique"`
	PasswordHash string
	Role         string `gorm:"default:user"`
	IsActive     bool   `gorm:"default:true"`

	SubscriptionPlan      SubscriptionPlan `gorm:"type:varchar(20);default:free;index"`
	SubscriptionExpiresAt *time.Time // only meaningful for premium

	Products   []Product  `gorm:"foreignKey:OwnerID"`
	Categories []Category `gorm:"foreignKey:OwnerID"`
}
