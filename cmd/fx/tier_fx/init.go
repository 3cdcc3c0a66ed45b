package tier_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"stockly/internal/repositories"
	"stockly/internal/services"
)

var Module = fx.Provide(
	provideFeatureDefinitionRepo,
	provideFeatureUsageRepo,
	provideTierHistoryRepo,
	provideTierService,
	provideMaintenanceService,
)

func provideFeatureDefinitionRepo(db *gorm.DB) repositories.FeatureDefinitionRepositoryInterface {
	return repositories.NewFeatureDefinitionRepository(db)
}

func provideFeatureUsageRepo(db *gorm.DB) repositories.FeatureUsageRepositoryInterface {
	return repositories.NewFeatureUsageRepository(db)
}

func provideTierHistoryRepo(db *gorm.DB) repositories.TierHistoryRepositoryInterface {
	return repositories.NewTierHistoryRepository(db)
}

func provideTierService(
	db *gorm.DB,
	accountRepo repositories.AccountRepositoryInterface,
	defRepo repositories.FeatureDefinitionRepositoryInterface,
	usageRepo repositories.FeatureUsageRepositoryInterface,
	historyRepo repositories.TierHistoryRepositoryInterface,
	mailService services.IMailService,
) services.TierServiceInterface {
	return services.NewTierService(db, accountRepo, defRepo, usageRepo, historyRepo, mailService)
}

func provideMaintenanceService(
	accountRepo repositories.AccountRepositoryInterface,
	tierService services.TierServiceInterface,
) services.MaintenanceServiceInterface {
	return services.NewMaintenanceService(accountRepo, tierService)
}
