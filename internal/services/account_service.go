package services

import (
	"context"
	"log"
	"time"

	"stockly/internal/models/db_models"
	"stockly/internal/models/request_models"
	"stockly/internal/models/response_models"
	"stockly/internal/repositories"
	mem "stockly/pkg/memcache"
	"stockly/pkg/utils"
)

const resetTokenTTL = 30 * time.Minute

type AccountServiceInterface interface {
	CreateAccount(ctx context.Context, request request_models.SignUpRequest) error
	Login(ctx context.Context, request request_models.LoginRequest) (response_models.AccountLoginResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPasswordWithToken(ctx context.Context, request request_models.ForgotPasswordRequest) error
}

type AccountService struct {
	accountRepo repositories.AccountRepositoryInterface
	tierService TierServiceInterface
	mailService IMailService
	resetTokens mem.ResetTokenStore
}

func NewAccountService(
	accountRepo repositories.AccountRepositoryInterface,
	tierService TierServiceInterface,
	mailService IMailService,
	resetTokens mem.ResetTokenStore,
) AccountServiceInterface {
	return &AccountService{
		accountRepo: accountRepo,
		tierService: tierService,
		mailService: mailService,
		resetTokens: resetTokens,
	}
}

func (a *AccountService) CreateAccount(ctx context.Context, request request_models.SignUpRequest) error {
	existing, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if existing != nil {
		return utils.ErrEmailAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(request.Password)
	if err != nil {
		return utils.ErrDatabaseError
	}

	account := &db_models.Account{
		Name:             request.DisplayName,
		Email:            request.Email,
		PasswordHash:     hashedPassword,
		Role:             "user",
		IsActive:         true,
		SubscriptionPlan: db_models.SubscriptionPlanFree,
	}
	if err := a.accountRepo.Insert(ctx, account); err != nil {
		return utils.ErrDatabaseError
	}

	// Provision zeroed usage counters so the atomic increment path always
	// finds a row. Failure is not fatal; the fast path creates lazily.
	if err := a.tierService.ProvisionUsage(ctx, account.ID, account.SubscriptionPlan); err != nil {
		log.Printf("usage provisioning failed for %s: %v", account.Email, err)
	}

	return nil
}

func (a *AccountService) Login(ctx context.Context, request request_models.LoginRequest) (response_models.AccountLoginResponse, error) {
	account, err := a.accountRepo.FindByEmail(ctx, request.Email)
	if err != nil {
		return response_models.AccountLoginResponse{}, utils.ErrDatabaseError
	}
	if account == nil {
		return response_models.AccountLoginResponse{}, utils.ErrAccountNotFound
	}
	if !account.IsActive {
		return response_models.AccountLoginResponse{}, utils.ErrInvalidCredentials
	}

	if err := utils.ComparePasswords(account.PasswordHash, request.Password); err != nil {
		return response_models.AccountLoginResponse{}, utils.ErrInvalidCredentials
	}

	token, err := utils.CreateToken(account.ID, account.Role)
	if err != nil {
		return response_models.AccountLoginResponse{}, utils.ErrInvalidCredentials
	}

	// Grace-period premium still counts as premium here.
	effective := EffectivePlan(account.SubscriptionPlan, account.SubscriptionExpiresAt, time.Now().UTC())

	return response_models.AccountLoginResponse{
		Token:             token,
		SubscriptionPlan:  string(effective),
		IsUserHavePremium: effective == db_models.SubscriptionPlanPremium,
	}, nil
}

func (a *AccountService) ForgotPassword(ctx context.Context, email string) error {
	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if account == nil {
		// Do not reveal whether the email exists.
		return nil
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return utils.ErrDatabaseError
	}
	a.resetTokens.Set(token, account.Email, resetTokenTTL)

	if err := a.mailService.SendMailToResetPassword(account.Email, token); err != nil {
		log.Printf("reset password mail failed for %s: %v", account.Email, err)
	}
	return nil
}

func (a *AccountService) ResetPasswordWithToken(ctx context.Context, request request_models.ForgotPasswordRequest) error {
	email := a.resetTokens.Consume(request.Token)
	if email == "" {
		return utils.ErrInvalidResetToken
	}

	account, err := a.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if account == nil {
		return utils.ErrAccountNotFound
	}

	hashedPassword, err := utils.HashPassword(request.NewPassword)
	if err != nil {
		return utils.ErrDatabaseError
	}

	if err := a.accountRepo.UpdatePassword(ctx, account.ID, hashedPassword); err != nil {
		return utils.ErrDatabaseError
	}
	return nil
}
