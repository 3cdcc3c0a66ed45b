package catalog_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"stockly/internal/repositories"
	"stockly/internal/services"
)

var Module = fx.Provide(
	provideProductRepo,
	provideCategoryRepo,
	provideProductService,
	provideCategoryService,
)

func provideProductRepo(db *gorm.DB) repositories.ProductRepositoryInterface {
	return repositories.NewProductRepository(db)
}

func provideCategoryRepo(db *gorm.DB) repositories.CategoryRepositoryInterface {
	return repositories.NewCategoryRepository(db)
}

func provideProductService(
	db *gorm.DB,
	productRepo repositories.ProductRepositoryInterface,
	accountRepo repositories.AccountRepositoryInterface,
	defRepo repositories.FeatureDefinitionRepositoryInterface,
	usageRepo repositories.FeatureUsageRepositoryInterface,
) services.ProductServiceInterface {
	return services.NewProductService(db, productRepo, accountRepo, defRepo, usageRepo)
}

func provideCategoryService(
	db *gorm.DB,
	categoryRepo repositories.CategoryRepositoryInterface,
	accountRepo repositories.AccountRepositoryInterface,
	defRepo repositories.FeatureDefinitionRepositoryInterface,
	usageRepo repositories.FeatureUsageRepositoryInterface,
) services.CategoryServiceInterface {
	return services.NewCategoryService(db, categoryRepo, accountRepo, defRepo, usageRepo)
}
