package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stockly/internal/models/db_models"
	"stockly/internal/models/request_models"
	"stockly/internal/models/response_models"
	"stockly/internal/repositories"
	"stockly/pkg/utils"
)

type CategoryServiceInterface interface {
	CreateCategory(ctx context.Context, ownerID uuid.UUID, request request_models.CreateCategoryRequest) (response_models.CategoryResponse, error)
	ListCategories(ctx context.Context, ownerID uuid.UUID) ([]response_models.CategoryResponse, error)
	UpdateCategory(ctx context.Context, ownerID, categoryID uuid.UUID, request request_models.UpdateCategoryRequest) (response_models.CategoryResponse, error)
	DeleteCategory(ctx context.Context, ownerID, categoryID uuid.UUID) error
}

type CategoryService struct {
	categoryRepo repositories.CategoryRepositoryInterface
	accountRepo  repositories.AccountRepositoryInterface
	defRepo      repositories.FeatureDefinitionRepositoryInterface
	usageRepo    repositories.FeatureUsageRepositoryInterface

	transact func(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func NewCategoryService(
	db *gorm.DB,
	categoryRepo repositories.CategoryRepositoryInterface,
	accountRepo repositories.AccountRepositoryInterface,
	defRepo repositories.FeatureDefinitionRepositoryInterface,
	usageRepo repositories.FeatureUsageRepositoryInterface,
) CategoryServiceInterface {
	return &CategoryService{
		categoryRepo: categoryRepo,
		accountRepo:  accountRepo,
		defRepo:      defRepo,
		usageRepo:    usageRepo,
		transact: func(ctx context.Context, fn func(tx *gorm.DB) error) error {
			return db.WithContext(ctx).Transaction(fn)
		},
	}
}

func (c *CategoryService) CreateCategory(ctx context.Context, ownerID uuid.UUID, request request_models.CreateCategoryRequest) (response_models.CategoryResponse, error) {
	account, err := c.accountRepo.FindByID(ctx, ownerID)
	if err != nil {
		return response_models.CategoryResponse{}, utils.ErrDatabaseError
	}
	if account == nil {
		return response_models.CategoryResponse{}, utils.ErrAccountNotFound
	}
	plan := EffectivePlan(account.SubscriptionPlan, account.SubscriptionExpiresAt, time.Now().UTC())

	category := db_models.Category{
		OwnerID:     ownerID,
		Slug:        request.Slug,
		Name:        request.Name,
		Description: request.Description,
	}

	err = c.transact(ctx, func(tx *gorm.DB) error {
		if err := consumeFeatureSlot(ctx, tx, c.defRepo, c.usageRepo, ownerID, plan, db_models.FeatureCategorySlot); err != nil {
			return err
		}
		return c.categoryRepo.WithTx(tx).Insert(ctx, &category)
	})
	if err != nil {
		return response_models.CategoryResponse{}, mapQuotaErr(err)
	}

	return toCategoryResponse(category), nil
}

func (c *CategoryService) ListCategories(ctx context.Context, ownerID uuid.UUID) ([]response_models.CategoryResponse, error) {
	categories, err := c.categoryRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	responses := make([]response_models.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, toCategoryResponse(category))
	}
	return responses, nil
}

func (c *CategoryService) UpdateCategory(ctx context.Context, ownerID, categoryID uuid.UUID, request request_models.UpdateCategoryRequest) (response_models.CategoryResponse, error) {
	category, err := c.categoryRepo.FindByID(ctx, ownerID, categoryID)
	if err != nil {
		return response_models.CategoryResponse{}, utils.ErrDatabaseError
	}
	if category == nil {
		return response_models.CategoryResponse{}, utils.ErrCategoryNotFound
	}

	if request.Name != nil {
		category.Name = *request.Name
	}
	if request.Description != nil {
		category.Description = *request.Description
	}

	if err := c.categoryRepo.Update(ctx, category); err != nil {
		return response_models.CategoryResponse{}, utils.ErrDatabaseError
	}
	return toCategoryResponse(*category), nil
}

func (c *CategoryService) DeleteCategory(ctx context.Context, ownerID, categoryID uuid.UUID) error {
	err := c.transact(ctx, func(tx *gorm.DB) error {
		deleted, err := c.categoryRepo.WithTx(tx).Delete(ctx, ownerID, categoryID)
		if err != nil {
			return err
		}
		if !deleted {
			return utils.ErrCategoryNotFound
		}
		return releaseFeatureSlot(ctx, tx, c.usageRepo, ownerID, db_models.FeatureCategorySlot)
	})
	return mapQuotaErr(err)
}

func toCategoryResponse(category db_models.Category) response_models.CategoryResponse {
	return response_models.CategoryResponse{
		ID:          category.ID.String(),
		Slug:        category.Slug,
		Name:        category.Name,
		Description: category.Description,
	}
}
