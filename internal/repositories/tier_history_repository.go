package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stockly/internal/models/db_models"
)

// TierHistoryRepositoryInterface is an append-only ledger: no update or
// delete exists, corrections are modeled as new rows.
type TierHistoryRepositoryInterface interface {
	Append(ctx context.Context, record *db_models.TierHistory) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]db_models.TierHistory, error)
	WithTx(tx *gorm.DB) TierHistoryRepositoryInterface
}

type TierHistoryRepository struct {
	db *gorm.DB
}

func NewTierHistoryRepository(db *gorm.DB) TierHistoryRepositoryInterface {
	return &TierHistoryRepository{db: db}
}

func (t *TierHistoryRepository) WithTx(tx *gorm.DB) TierHistoryRepositoryInterface {
	return &TierHistoryRepository{db: tx}
}

func (t *TierHistoryRepository) Append(ctx context.Context, record *db_models.TierHistory) error {
	return t.db.WithContext(ctx).Create(record).Error
}

func (t *TierHistoryRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]db_models.TierHistory, error) {
	var records []db_models.TierHistory
	err := t.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("effective_date asc, created_at asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
