package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stockly/internal/models/db_models"
	"stockly/internal/models/request_models"
	"stockly/internal/models/response_models"
	"stockly/internal/repositories"
	"stockly/pkg/utils"
)

type ProductServiceInterface interface {
	// CreateProduct consumes one product_slot. The entitlement check, the
	// product insert and the counter increment run inside one transaction
	// so two concurrent requests cannot both squeeze past the limit.
	CreateProduct(ctx context.Context, ownerID uuid.UUID, request request_models.CreateProductRequest) (response_models.ProductResponse, error)

	GetProduct(ctx context.Context, ownerID, productID uuid.UUID) (response_models.ProductResponse, error)
	ListProducts(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]response_models.ProductResponse, error)
	UpdateProduct(ctx context.Context, ownerID, productID uuid.UUID, request request_models.UpdateProductRequest) (response_models.ProductResponse, error)

	// DeleteProduct releases the consumed slot in the same transaction as
	// the delete.
	DeleteProduct(ctx context.Context, ownerID, productID uuid.UUID) error

	// ExportCSV renders the owner's full product list as CSV. Gated behind
	// the csv_export feature at the route level.
	ExportCSV(ctx context.Context, ownerID uuid.UUID) ([]byte, error)
}

type ProductService struct {
	productRepo repositories.ProductRepositoryInterface
	accountRepo repositories.AccountRepositoryInterface
	defRepo     repositories.FeatureDefinitionRepositoryInterface
	usageRepo   repositories.FeatureUsageRepositoryInterface

	// transact runs the quota check and the entity write in one transaction.
	transact func(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func NewProductService(
	db *gorm.DB,
	productRepo repositories.ProductRepositoryInterface,
	accountRepo repositories.AccountRepositoryInterface,
	defRepo repositories.FeatureDefinitionRepositoryInterface,
	usageRepo repositories.FeatureUsageRepositoryInterface,
) ProductServiceInterface {
	return &ProductService{
		productRepo: productRepo,
		accountRepo: accountRepo,
		defRepo:     defRepo,
		usageRepo:   usageRepo,
		transact: func(ctx context.Context, fn func(tx *gorm.DB) error) error {
			return db.WithContext(ctx).Transaction(fn)
		},
	}
}

func (p *ProductService) CreateProduct(ctx context.Context, ownerID uuid.UUID, request request_models.CreateProductRequest) (response_models.ProductResponse, error) {
	plan, err := p.resolvePlan(ctx, ownerID)
	if err != nil {
		return response_models.ProductResponse{}, err
	}

	product := db_models.Product{
		OwnerID:     ownerID,
		SKU:         request.SKU,
		Name:        request.Name,
		Description: request.Description,
		PriceMinor:  request.PriceMinor,
		Currency:    request.Currency,
		StockQty:    request.StockQty,
		Tags:        request.Tags,
	}
	if product.Currency == "" {
		product.Currency = "USD"
	}
	if request.CategoryID != nil {
		categoryID, err := uuid.Parse(*request.CategoryID)
		if err != nil {
			return response_models.ProductResponse{}, utils.ErrCategoryNotFound
		}
		product.CategoryID = &categoryID
	}
	if len(request.Attributes) > 0 {
		raw, err := json.Marshal(request.Attributes)
		if err != nil {
			return response_models.ProductResponse{}, utils.ErrDatabaseError
		}
		product.Attributes = raw
	}

	err = p.transact(ctx, func(tx *gorm.DB) error {
		if err := consumeFeatureSlot(ctx, tx, p.defRepo, p.usageRepo, ownerID, plan, db_models.FeatureProductSlot); err != nil {
			return err
		}
		return p.productRepo.WithTx(tx).Insert(ctx, &product)
	})
	if err != nil {
		return response_models.ProductResponse{}, mapQuotaErr(err)
	}

	return toProductResponse(product), nil
}

func (p *ProductService) GetProduct(ctx context.Context, ownerID, productID uuid.UUID) (response_models.ProductResponse, error) {
	product, err := p.productRepo.FindByID(ctx, ownerID, productID)
	if err != nil {
		return response_models.ProductResponse{}, utils.ErrDatabaseError
	}
	if product == nil {
		return response_models.ProductResponse{}, utils.ErrProductNotFound
	}
	return toProductResponse(*product), nil
}

func (p *ProductService) ListProducts(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]response_models.ProductResponse, error) {
	if page < 1 {
		return nil, utils.ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, utils.ErrInvalidPageSize
	}

	products, err := p.productRepo.ListByOwner(ctx, ownerID, page, pageSize)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	responses := make([]response_models.ProductResponse, 0, len(products))
	for _, product := range products {
		responses = append(responses, toProductResponse(product))
	}
	return responses, nil
}

func (p *ProductService) UpdateProduct(ctx context.Context, ownerID, productID uuid.UUID, request request_models.UpdateProductRequest) (response_models.ProductResponse, error) {
	product, err := p.productRepo.FindByID(ctx, ownerID, productID)
	if err != nil {
		return response_models.ProductResponse{}, utils.ErrDatabaseError
	}
	if product == nil {
		return response_models.ProductResponse{}, utils.ErrProductNotFound
	}

	if request.Name != nil {
		product.Name = *request.Name
	}
	if request.Description != nil {
		product.Description = *request.Description
	}
	if request.PriceMinor != nil {
		product.PriceMinor = *request.PriceMinor
	}
	if request.StockQty != nil {
		product.StockQty = *request.StockQty
	}
	if request.CategoryID != nil {
		categoryID, err := uuid.Parse(*request.CategoryID)
		if err != nil {
			return response_models.ProductResponse{}, utils.ErrCategoryNotFound
		}
		product.CategoryID = &categoryID
	}
	if request.Tags != nil {
		product.Tags = request.Tags
	}

	if err := p.productRepo.Update(ctx, product); err != nil {
		return response_models.ProductResponse{}, utils.ErrDatabaseError
	}
	return toProductResponse(*product), nil
}

func (p *ProductService) DeleteProduct(ctx context.Context, ownerID, productID uuid.UUID) error {
	err := p.transact(ctx, func(tx *gorm.DB) error {
		deleted, err := p.productRepo.WithTx(tx).Delete(ctx, ownerID, productID)
		if err != nil {
			return err
		}
		if !deleted {
			return utils.ErrProductNotFound
		}
		return releaseFeatureSlot(ctx, tx, p.usageRepo, ownerID, db_models.FeatureProductSlot)
	})
	if err != nil {
		return mapQuotaErr(err)
	}
	return nil
}

func (p *ProductService) ExportCSV(ctx context.Context, ownerID uuid.UUID) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"sku", "name", "price_minor", "currency", "stock_qty", "tags"}); err != nil {
		return nil, utils.ErrDatabaseError
	}

	const exportPageSize = 100
	for page := 1; ; page++ {
		products, err := p.productRepo.ListByOwner(ctx, ownerID, page, exportPageSize)
		if err != nil {
			return nil, utils.ErrDatabaseError
		}
		for _, product := range products {
			record := []string{
				product.SKU,
				product.Name,
				strconv.FormatInt(product.PriceMinor, 10),
				product.Currency,
				strconv.FormatInt(product.StockQty, 10),
				strings.Join(product.Tags, ";"),
			}
			if err := writer.Write(record); err != nil {
				return nil, utils.ErrDatabaseError
			}
		}
		if len(products) < exportPageSize {
			break
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, utils.ErrDatabaseError
	}
	return buf.Bytes(), nil
}

func (p *ProductService) resolvePlan(ctx context.Context, ownerID uuid.UUID) (db_models.SubscriptionPlan, error) {
	account, err := p.accountRepo.FindByID(ctx, ownerID)
	if err != nil {
		return "", utils.ErrDatabaseError
	}
	if account == nil {
		return "", utils.ErrAccountNotFound
	}
	return EffectivePlan(account.SubscriptionPlan, account.SubscriptionExpiresAt, time.Now().UTC()), nil
}

func toProductResponse(product db_models.Product) response_models.ProductResponse {
	resp := response_models.ProductResponse{
		ID:          product.ID.String(),
		SKU:         product.SKU,
		Name:        product.Name,
		Description: product.Description,
		PriceMinor:  product.PriceMinor,
		Currency:    product.Currency,
		StockQty:    product.StockQty,
		Tags:        product.Tags,
		CreatedAt:   product.CreatedAt,
	}
	if product.CategoryID != nil {
		id := product.CategoryID.String()
		resp.CategoryID = &id
	}
	return resp
}
