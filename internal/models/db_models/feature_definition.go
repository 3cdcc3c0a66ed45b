package db_models

// FeatureDefinition is the per-tier rule for one meterable feature.
// At most one row exists per (tier, feature_name); a nil FeatureLimit means
// unlimited. Rows are seeded/administered externally and read-only here.
type FeatureDefinition struct {
	BaseModel
	Tier           SubscriptionPlan `gorm:"type:varchar(20);not null;uniqueIndex:idx_tier_feature"`
	FeatureName    string           `gorm:"size:100;not null;uniqueIndex:idx_tier_feature"`
	FeatureLimit   *int64
	FeatureEnabled bool `gorm:"default:true"`
	Description    string
}

// Feature names known to the default catalog.
const (
	FeatureProductSlot  = "product_slot"
	FeatureCategorySlot = "category_slot"
	FeatureCSVExport    = "csv_export"
	FeatureAPIAccess    = "api_access"
)
