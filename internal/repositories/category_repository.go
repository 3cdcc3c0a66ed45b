package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stockly/internal/models/db_models"
)

type CategoryRepositoryInterface interface {
	Insert(ctx context.Context, category *db_models.Category) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*db_models.Category, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]db_models.Category, error)
	Update(ctx context.Context, category *db_models.Category) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
	WithTx(tx *gorm.DB) CategoryRepositoryInterface
}

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepositoryInterface {
	return &CategoryRepository{db: db}
}

func (c *CategoryRepository) WithTx(tx *gorm.DB) CategoryRepositoryInterface {
	return &CategoryRepository{db: tx}
}

func (c *CategoryRepository) Insert(ctx context.Context, category *db_models.Category) error {
	return c.db.WithContext(ctx).Create(category).Error
}

func (c *CategoryRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*db_models.Category, error) {
	var category db_models.Category
	err := c.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (c *CategoryRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]db_models.Category, error) {
	var categories []db_models.Category
	err := c.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name asc").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *CategoryRepository) Update(ctx context.Context, category *db_models.Category) error {
	return c.db.WithContext(ctx).Save(category).Error
}

func (c *CategoryRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	res := c.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&db_models.Category{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
