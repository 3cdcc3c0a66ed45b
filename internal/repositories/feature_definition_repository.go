package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"stockly/internal/models/db_models"
)

// FeatureDefinitionRepositoryInterface is the read-only catalog of per-tier
// feature rules. Absence of a definition is a normal outcome and surfaces as
// (nil, nil), not an error.
type FeatureDefinitionRepositoryInterface interface {
	GetDefinitions(ctx context.Context, tier db_models.SubscriptionPlan) ([]db_models.FeatureDefinition, error)
	GetDefinition(ctx context.Context, tier db_models.SubscriptionPlan, featureName string) (*db_models.FeatureDefinition, error)
}

type FeatureDefinitionRepository struct {
	db *gorm.DB
}

func NewFeatureDefinitionRepository(db *gorm.DB) FeatureDefinitionRepositoryInterface {
	return &FeatureDefinitionRepository{db: db}
}

func (f *FeatureDefinitionRepository) GetDefinitions(ctx context.Context, tier db_models.SubscriptionPlan) ([]db_models.FeatureDefinition, error) {
	var definitions []db_models.FeatureDefinition
	err := f.db.WithContext(ctx).Where("tier = ?", tier).Find(&definitions).Error
	if err != nil {
		return nil, err
	}
	return definitions, nil
}

func (f *FeatureDefinitionRepository) GetDefinition(ctx context.Context, tier db_models.SubscriptionPlan, featureName string) (*db_models.FeatureDefinition, error) {
	var definition db_models.FeatureDefinition
	err := f.db.WithContext(ctx).
		Where("tier = ? AND feature_name = ?", tier, featureName).
		First(&definition).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &definition, nil
}

// SeedDefaultDefinitions inserts the default catalog rows if they are not
// present yet. Safe to run on every startup.
func SeedDefaultDefinitions(db *gorm.DB) error {
	productLimit := int64(50)
	categoryLimit := int64(10)

	defaults := []db_models.FeatureDefinition{
		{Tier: db_models.SubscriptionPlanFree, FeatureName: db_models.FeatureProductSlot, FeatureLimit: &productLimit, FeatureEnabled: true},
		{Tier: db_models.SubscriptionPlanFree, FeatureName: db_models.FeatureCategorySlot, FeatureLimit: &categoryLimit, FeatureEnabled: true},
		{Tier: db_models.SubscriptionPlanFree, FeatureName: db_models.FeatureCSVExport, FeatureEnabled: false},
		{Tier: db_models.SubscriptionPlanFree, FeatureName: db_models.FeatureAPIAccess, FeatureEnabled: false},
		{Tier: db_models.SubscriptionPlanPremium, FeatureName: db_models.FeatureProductSlot, FeatureEnabled: true},
		{Tier: db_models.SubscriptionPlanPremium, FeatureName: db_models.FeatureCategorySlot, FeatureEnabled: true},
		{Tier: db_models.SubscriptionPlanPremium, FeatureName: db_models.FeatureCSVExport, FeatureEnabled: true},
		{Tier: db_models.SubscriptionPlanPremium, FeatureName: db_models.FeatureAPIAccess, FeatureEnabled: true},
	}

	for _, def := range defaults {
		var count int64
		if err := db.Model(&db_models.FeatureDefinition{}).
			Where("tier = ? AND feature_name = ?", def.Tier, def.FeatureName).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&def).Error; err != nil {
			return err
		}
	}
	return nil
}
