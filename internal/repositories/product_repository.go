package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stockly/internal/models/db_models"
)

type ProductRepositoryInterface interface {
	Insert(ctx context.Context, product *db_models.Product) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*db_models.Product, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]db_models.Product, error)
	Update(ctx context.Context, product *db_models.Product) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	WithTx(tx *gorm.DB) ProductRepositoryInterface
}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepositoryInterface {
	return &ProductRepository{db: db}
}

func (p *ProductRepository) WithTx(tx *gorm.DB) ProductRepositoryInterface {
	return &ProductRepository{db: tx}
}

func (p *ProductRepository) Insert(ctx context.Context, product *db_models.Product) error {
	return p.db.WithContext(ctx).Create(product).Error
}

func (p *ProductRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*db_models.Product, error) {
	var product db_models.Product
	err := p.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (p *ProductRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]db_models.Product, error) {
	var products []db_models.Product
	err := p.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (p *ProductRepository) Update(ctx context.Context, product *db_models.Product) error {
	return p.db.WithContext(ctx).Save(product).Error
}

func (p *ProductRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	res := p.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&db_models.Product{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (p *ProductRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).Model(&db_models.Product{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	return count, err
}
