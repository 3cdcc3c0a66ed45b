package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stockly/internal/models/db_models"
)

type AccountRepositoryInterface interface {
	FindByEmail(ctx context.Context, email string) (*db_models.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Account, error)
	Insert(ctx context.Context, account *db_models.Account) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// UpdateSubscription rewrites the plan/expiry pair. Only the tier
	// lifecycle transitions may call this.
	UpdateSubscription(ctx context.Context, id uuid.UUID, plan db_models.SubscriptionPlan, expiresAt *time.Time) error

	// ListExpiredPremium returns premium accounts whose expiry is at or
	// before the cutoff. Used by the downgrade sweep.
	ListExpiredPremium(ctx context.Context, cutoff time.Time) ([]db_models.Account, error)

	WithTx(tx *gorm.DB) AccountRepositoryInterface
}

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepositoryInterface {
	return &AccountRepository{db: db}
}

func (a *AccountRepository) WithTx(tx *gorm.DB) AccountRepositoryInterface {
	return &AccountRepository{db: tx}
}

func (a *AccountRepository) FindByEmail(ctx context.Context, email string) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (a *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (a *AccountRepository) Insert(ctx context.Context, account *db_models.Account) error {
	return a.db.WithContext(ctx).Create(account).Error
}

func (a *AccountRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.db.WithContext(ctx).Model(&db_models.Account{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (a *AccountRepository) UpdateSubscription(ctx context.Context, id uuid.UUID, plan db_models.SubscriptionPlan, expiresAt *time.Time) error {
	return a.db.WithContext(ctx).Model(&db_models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"subscription_plan":       plan,
			"subscription_expires_at": expiresAt,
		}).Error
}

func (a *AccountRepository) ListExpiredPremium(ctx context.Context, cutoff time.Time) ([]db_models.Account, error) {
	var accounts []db_models.Account
	err := a.db.WithContext(ctx).
		Where("subscription_plan = ? AND subscription_expires_at IS NOT NULL AND subscription_expires_at <= ?",
			db_models.SubscriptionPlanPremium, cutoff).
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}
