package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stockly/internal/models/db_models"
	"stockly/internal/repositories"
	"stockly/pkg/utils"
)

// consumeFeatureSlot enforces a hard cap inside the caller's transaction:
// it locks the usage row, re-checks the limit under the lock and writes the
// incremented value. The caller's entity write shares the same transaction,
// so the check and the increment commit or roll back together.
func consumeFeatureSlot(
	ctx context.Context,
	tx *gorm.DB,
	defRepo repositories.FeatureDefinitionRepositoryInterface,
	usageRepo repositories.FeatureUsageRepositoryInterface,
	userID uuid.UUID,
	plan db_models.SubscriptionPlan,
	featureName string,
) error {
	def, err := defRepo.GetDefinition(ctx, plan, featureName)
	if err != nil {
		return err
	}
	if def == nil || !def.FeatureEnabled {
		return utils.ErrFeatureUnavailable
	}

	usage := usageRepo.WithTx(tx)
	record, err := usage.GetUsageForUpdate(ctx, userID, featureName)
	if err != nil {
		return err
	}
	if record == nil {
		// first use: the insert itself serializes racing creators via the
		// unique (user_id, feature_name) index
		record, err = usage.Create(ctx, userID, featureName, def.FeatureLimit, 0)
		if err != nil {
			return err
		}
	}

	if def.FeatureLimit != nil && record.CurrentUsage >= *def.FeatureLimit {
		return utils.ErrQuotaExceeded
	}

	return usage.SetUsage(ctx, userID, featureName, record.CurrentUsage+1)
}

// releaseFeatureSlot decrements a counter under the row lock. A missing row
// means nothing was ever consumed; that is not an error.
func releaseFeatureSlot(
	ctx context.Context,
	tx *gorm.DB,
	usageRepo repositories.FeatureUsageRepositoryInterface,
	userID uuid.UUID,
	featureName string,
) error {
	usage := usageRepo.WithTx(tx)
	record, err := usage.GetUsageForUpdate(ctx, userID, featureName)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}
	return usage.SetUsage(ctx, userID, featureName, record.CurrentUsage-1)
}

func mapQuotaErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, utils.ErrQuotaExceeded),
		errors.Is(err, utils.ErrFeatureUnavailable),
		errors.Is(err, utils.ErrAccountNotFound),
		errors.Is(err, utils.ErrProductNotFound),
		errors.Is(err, utils.ErrCategoryNotFound),
		errors.Is(err, utils.ErrUsageRecordExists),
		errors.Is(err, utils.ErrUsageRecordNotFound):
		return err
	}
	return utils.ErrDatabaseError
}
