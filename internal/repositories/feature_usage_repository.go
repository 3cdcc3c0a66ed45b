package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockly/internal/models/db_models"
	"stockly/pkg/utils"
)

// FeatureUsageRepositoryInterface owns every mutation of the per-user usage
// counters. The atomic paths serialize concurrent writers on the
// (user_id, feature_name) row via SELECT ... FOR UPDATE; the non-atomic path
// is a single unconditional statement and is only suitable for advisory
// counters where a lost update under contention is acceptable.
type FeatureUsageRepositoryInterface interface {
	GetUsageForUser(ctx context.Context, userID uuid.UUID) ([]db_models.FeatureUsage, error)
	GetUsage(ctx context.Context, userID uuid.UUID, featureName string) (*db_models.FeatureUsage, error)

	// GetUsageForUpdate locks the counter row for the rest of the enclosing
	// transaction. Callers must invoke it through a WithTx-bound repository;
	// outside a transaction the lock is released immediately and worthless.
	GetUsageForUpdate(ctx context.Context, userID uuid.UUID, featureName string) (*db_models.FeatureUsage, error)

	SetUsage(ctx context.Context, userID uuid.UUID, featureName string, value int64) error

	// Increment adjusts the counter by delta (may be negative). Atomic mode
	// runs a locked read-modify-write in its own transaction and fails with
	// ErrUsageRecordNotFound when the row was never provisioned. Non-atomic
	// mode lazily creates the row on first use.
	Increment(ctx context.Context, userID uuid.UUID, featureName string, delta int64, atomic bool) (*db_models.FeatureUsage, error)

	Create(ctx context.Context, userID uuid.UUID, featureName string, usageLimit *int64, initialUsage int64) (*db_models.FeatureUsage, error)

	// ResetCounters zeroes every counter and stamps last_reset_at. Which
	// counters a reset policy covers (daily/weekly/monthly) is decided by
	// the caller; the store only guarantees the bulk reset is atomic.
	ResetCounters(ctx context.Context, asOf time.Time) (int64, error)

	WithTx(tx *gorm.DB) FeatureUsageRepositoryInterface
}

type FeatureUsageRepository struct {
	db *gorm.DB
}

func NewFeatureUsageRepository(db *gorm.DB) FeatureUsageRepositoryInterface {
	return &FeatureUsageRepository{db: db}
}

func (f *FeatureUsageRepository) WithTx(tx *gorm.DB) FeatureUsageRepositoryInterface {
	return &FeatureUsageRepository{db: tx}
}

func (f *FeatureUsageRepository) GetUsageForUser(ctx context.Context, userID uuid.UUID) ([]db_models.FeatureUsage, error) {
	var records []db_models.FeatureUsage
	err := f.db.WithContext(ctx).Where("user_id = ?", userID).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (f *FeatureUsageRepository) GetUsage(ctx context.Context, userID uuid.UUID, featureName string) (*db_models.FeatureUsage, error) {
	var record db_models.FeatureUsage
	err := f.db.WithContext(ctx).
		Where("user_id = ? AND feature_name = ?", userID, featureName).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (f *FeatureUsageRepository) GetUsageForUpdate(ctx context.Context, userID uuid.UUID, featureName string) (*db_models.FeatureUsage, error) {
	var record db_models.FeatureUsage
	err := f.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND feature_name = ?", userID, featureName).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (f *FeatureUsageRepository) SetUsage(ctx context.Context, userID uuid.UUID, featureName string, value int64) error {
	if value < 0 {
		value = 0
	}
	return f.db.WithContext(ctx).Model(&db_models.FeatureUsage{}).
		Where("user_id = ? AND feature_name = ?", userID, featureName).
		Update("current_usage", value).Error
}

func (f *FeatureUsageRepository) Increment(ctx context.Context, userID uuid.UUID, featureName string, delta int64, atomic bool) (*db_models.FeatureUsage, error) {
	if !atomic {
		return f.incrementFast(ctx, userID, featureName, delta)
	}

	var record db_models.FeatureUsage
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND feature_name = ?", userID, featureName).
			First(&record).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrUsageRecordNotFound
			}
			return err
		}

		next := record.CurrentUsage + delta
		if next < 0 {
			next = 0
		}
		record.CurrentUsage = next

		return tx.Model(&record).Update("current_usage", next).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// incrementFast is the unconditional one-statement path. The row is created
// lazily on first use; concurrent increments may lose updates.
func (f *FeatureUsageRepository) incrementFast(ctx context.Context, userID uuid.UUID, featureName string, delta int64) (*db_models.FeatureUsage, error) {
	res := f.db.WithContext(ctx).Model(&db_models.FeatureUsage{}).
		Where("user_id = ? AND feature_name = ?", userID, featureName).
		Update("current_usage", gorm.Expr("GREATEST(current_usage + ?, 0)", delta))
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		initial := delta
		if initial < 0 {
			initial = 0
		}
		record, err := f.Create(ctx, userID, featureName, nil, initial)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, utils.ErrUsageRecordExists) {
			return nil, err
		}
		// lost the creation race, fall through and re-read
	}

	return f.GetUsage(ctx, userID, featureName)
}

func (f *FeatureUsageRepository) Create(ctx context.Context, userID uuid.UUID, featureName string, usageLimit *int64, initialUsage int64) (*db_models.FeatureUsage, error) {
	record := db_models.FeatureUsage{
		UserID:       userID,
		FeatureName:  featureName,
		CurrentUsage: initialUsage,
		UsageLimit:   usageLimit,
		LastResetAt:  time.Now().UTC(),
	}

	err := f.db.WithContext(ctx).Create(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.ErrUsageRecordExists
		}
		return nil, err
	}
	return &record, nil
}

func (f *FeatureUsageRepository) ResetCounters(ctx context.Context, asOf time.Time) (int64, error) {
	res := f.db.WithContext(ctx).Model(&db_models.FeatureUsage{}).
		Where("current_usage <> 0 OR last_reset_at < ?", asOf).
		Updates(map[string]interface{}{
			"current_usage": 0,
			"last_reset_at": asOf,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
