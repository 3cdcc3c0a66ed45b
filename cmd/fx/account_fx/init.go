package account_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"stockly/internal/repositories"
	"stockly/internal/services"
	mem "stockly/pkg/memcache"
)

var Module = fx.Provide(
	provideAccountRepo, provideAccountService)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepositoryInterface {
	return repositories.NewAccountRepository(db)
}

func provideAccountService(
	accountRepo repositories.AccountRepositoryInterface,
	tierService services.TierServiceInterface,
	mailService services.IMailService,
	resetTokens mem.ResetTokenStore,
) services.AccountServiceInterface {
	return services.NewAccountService(accountRepo, tierService, mailService, resetTokens)
}
