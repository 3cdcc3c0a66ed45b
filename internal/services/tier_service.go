package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"stockly/internal/models/db_models"
	"stockly/internal/models/response_models"
	"stockly/internal/repositories"
	"stockly/pkg/utils"
)

const premiumMonthlyPriceMinor int64 = 1999

// DefaultUsageThreshold is the warning threshold used when the caller does
// not supply one.
const DefaultUsageThreshold = 0.8

type TierServiceInterface interface {
	// GetTierStatus assembles the full advisory view of a user's tier:
	// lifecycle fields, per-feature rules and current usage. Read-only.
	GetTierStatus(ctx context.Context, userID uuid.UUID) (response_models.TierStatusResponse, error)

	// ValidateFeatureAccess decides whether the user may perform one more
	// metered action. Denial is part of the result, never an error.
	ValidateFeatureAccess(ctx context.Context, userID uuid.UUID, featureName string, tier db_models.SubscriptionPlan) (response_models.FeatureAccessResult, error)

	CheckUsageThreshold(ctx context.Context, userID uuid.UUID, featureName string, threshold float64) (response_models.UsageThresholdResult, error)

	UpgradeToPremium(ctx context.Context, userID uuid.UUID, expiresAt *time.Time, changedBy *uuid.UUID, notes *string) error
	DowngradeToFree(ctx context.Context, userID uuid.UUID, changedBy *uuid.UUID, notes *string) error

	// PerformAutomaticDowngrade downgrades a premium user whose expiry plus
	// grace period has passed. Returns false (and no error) when the
	// conditions do not hold; sweep callers treat false as normal.
	PerformAutomaticDowngrade(ctx context.Context, userID uuid.UUID) (bool, error)

	// TrackUsage adjusts a usage counter after the protected action
	// succeeded. Hard caps must not rely on this: they colocate the
	// increment with the entity write in one transaction instead.
	TrackUsage(ctx context.Context, userID uuid.UUID, featureName string, delta int64, atomic bool) (response_models.TrackUsageResponse, error)

	// ProvisionUsage creates zeroed counters for every metered feature of
	// the given plan. Idempotent; called at signup.
	ProvisionUsage(ctx context.Context, userID uuid.UUID, plan db_models.SubscriptionPlan) error

	GetTierHistory(ctx context.Context, userID uuid.UUID) ([]response_models.TierHistoryResponse, error)
	GetPlans(ctx context.Context) ([]response_models.PlanView, error)
	ResetAllCounters(ctx context.Context, asOf time.Time) (int64, error)
}

type TierService struct {
	accountRepo repositories.AccountRepositoryInterface
	defRepo     repositories.FeatureDefinitionRepositoryInterface
	usageRepo   repositories.FeatureUsageRepositoryInterface
	historyRepo repositories.TierHistoryRepositoryInterface
	mailService IMailService

	// transact wraps a plan transition so the subscription update and the
	// history append commit together.
	transact func(ctx context.Context, fn func(tx *gorm.DB) error) error
}

func NewTierService(
	db *gorm.DB,
	accountRepo repositories.AccountRepositoryInterface,
	defRepo repositories.FeatureDefinitionRepositoryInterface,
	usageRepo repositories.FeatureUsageRepositoryInterface,
	historyRepo repositories.TierHistoryRepositoryInterface,
	mailService IMailService,
) TierServiceInterface {
	return &TierService{
		accountRepo: accountRepo,
		defRepo:     defRepo,
		usageRepo:   usageRepo,
		historyRepo: historyRepo,
		mailService: mailService,
		transact: func(ctx context.Context, fn func(tx *gorm.DB) error) error {
			return db.WithContext(ctx).Transaction(fn)
		},
	}
}

func (t *TierService) GetTierStatus(ctx context.Context, userID uuid.UUID) (response_models.TierStatusResponse, error) {
	account, err := t.accountRepo.FindByID(ctx, userID)
	if err != nil {
		return response_models.TierStatusResponse{}, utils.ErrDatabaseError
	}
	if account == nil {
		return response_models.TierStatusResponse{}, utils.ErrAccountNotFound
	}

	now := time.Now().UTC()
	graceEnd := GracePeriodEnd(account.SubscriptionExpiresAt)

	status := response_models.TierStatusResponse{
		UserID:                account.ID.String(),
		SubscriptionPlan:      string(account.SubscriptionPlan),
		SubscriptionExpiresAt: account.SubscriptionExpiresAt,
		IsActive:              account.IsActive,
		DaysUntilExpiration:   DaysUntilExpiration(account.SubscriptionExpiresAt, now),
		GracePeriodActive:     IsExpired(account.SubscriptionExpiresAt, now) && IsGracePeriodActive(graceEnd, now),
		TierFeatures:          map[string]response_models.TierFeature{},
		CurrentUsage:          map[string]response_models.FeatureUsageInfo{},
	}
	if account.SubscriptionPlan == db_models.SubscriptionPlanPremium && IsExpired(account.SubscriptionExpiresAt, now) {
		status.GracePeriodExpiresAt = graceEnd
	}

	definitions, err := t.defRepo.GetDefinitions(ctx, account.SubscriptionPlan)
	if err != nil {
		return response_models.TierStatusResponse{}, utils.ErrDatabaseError
	}
	for _, def := range definitions {
		status.TierFeatures[def.FeatureName] = toTierFeature(def)
	}

	usage, err := t.usageRepo.GetUsageForUser(ctx, userID)
	if err != nil {
		return response_models.TierStatusResponse{}, utils.ErrDatabaseError
	}
	for _, record := range usage {
		status.CurrentUsage[record.FeatureName] = response_models.FeatureUsageInfo{
			Current: record.CurrentUsage,
			Limit:   record.UsageLimit,
		}
	}

	return status, nil
}

func (t *TierService) ValidateFeatureAccess(ctx context.Context, userID uuid.UUID, featureName string, tier db_models.SubscriptionPlan) (response_models.FeatureAccessResult, error) {
	def, err := t.defRepo.GetDefinition(ctx, tier, featureName)
	if err != nil {
		return response_models.FeatureAccessResult{}, utils.ErrDatabaseError
	}
	if def == nil {
		return response_models.FeatureAccessResult{
			Reason: response_models.ReasonFeatureNotDefined,
		}, nil
	}
	if !def.FeatureEnabled {
		return response_models.FeatureAccessResult{
			Reason: response_models.ReasonFeatureNotAvailable,
		}, nil
	}

	var current int64
	record, err := t.usageRepo.GetUsage(ctx, userID, featureName)
	if err != nil {
		return response_models.FeatureAccessResult{}, utils.ErrDatabaseError
	}
	if record != nil {
		current = record.CurrentUsage
	}

	withinLimits := def.FeatureLimit == nil || current < *def.FeatureLimit

	result := response_models.FeatureAccessResult{
		AccessGranted:     withinLimits,
		FeatureAvailable:  true,
		UsageWithinLimits: withinLimits,
		CurrentUsage:      current,
		Limit:             def.FeatureLimit,
	}
	if !withinLimits {
		result.Reason = response_models.ReasonUsageLimitExceeded
	}
	return result, nil
}

func (t *TierService) CheckUsageThreshold(ctx context.Context, userID uuid.UUID, featureName string, threshold float64) (response_models.UsageThresholdResult, error) {
	if threshold <= 0 {
		threshold = DefaultUsageThreshold
	}

	account, err := t.accountRepo.FindByID(ctx, userID)
	if err != nil {
		return response_models.UsageThresholdResult{}, utils.ErrDatabaseError
	}
	if account == nil {
		return response_models.UsageThresholdResult{}, utils.ErrAccountNotFound
	}

	def, err := t.defRepo.GetDefinition(ctx, account.SubscriptionPlan, featureName)
	if err != nil {
		return response_models.UsageThresholdResult{}, utils.ErrDatabaseError
	}

	var current int64
	record, err := t.usageRepo.GetUsage(ctx, userID, featureName)
	if err != nil {
		return response_models.UsageThresholdResult{}, utils.ErrDatabaseError
	}
	if record != nil {
		current = record.CurrentUsage
	}

	result := response_models.UsageThresholdResult{CurrentUsage: current}

	// Unlimited or undefined features never trip the threshold.
	if def == nil || def.FeatureLimit == nil || *def.FeatureLimit <= 0 {
		return result, nil
	}

	result.Limit = def.FeatureLimit
	result.Percentage = float64(current) / float64(*def.FeatureLimit)
	if result.Percentage >= threshold {
		result.ThresholdExceeded = true
		result.WarningMessage = fmt.Sprintf(
			"You have used %.0f%% of your %s quota. Upgrade to premium for unlimited access.",
			result.Percentage*100, featureName)
	}
	return result, nil
}

func (t *TierService) UpgradeToPremium(ctx context.Context, userID uuid.UUID, expiresAt *time.Time, changedBy *uuid.UUID, notes *string) error {
	account, err := t.accountRepo.FindByID(ctx, userID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if account == nil {
		return utils.ErrAccountNotFound
	}

	previous := account.SubscriptionPlan
	err = t.transact(ctx, func(tx *gorm.DB) error {
		if err := t.accountRepo.WithTx(tx).UpdateSubscription(ctx, userID, db_models.SubscriptionPlanPremium, expiresAt); err != nil {
			return err
		}
		return t.historyRepo.WithTx(tx).Append(ctx, &db_models.TierHistory{
			UserID:        userID,
			PreviousPlan:  &previous,
			NewPlan:       db_models.SubscriptionPlanPremium,
			ChangeReason:  db_models.TierChangeReasonUpgrade,
			ChangedBy:     changedBy,
			EffectiveDate: time.Now().UTC(),
			Notes:         notes,
		})
	})
	if err != nil {
		return utils.ErrDatabaseError
	}

	t.notifyTierChange(account, previous, db_models.SubscriptionPlanPremium, db_models.TierChangeReasonUpgrade)
	return nil
}

func (t *TierService) DowngradeToFree(ctx context.Context, userID uuid.UUID, changedBy *uuid.UUID, notes *string) error {
	account, err := t.accountRepo.FindByID(ctx, userID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if account == nil {
		return utils.ErrAccountNotFound
	}

	// Already free: success, no history entry.
	if account.SubscriptionPlan == db_models.SubscriptionPlanFree {
		return nil
	}

	previous := account.SubscriptionPlan
	err = t.transact(ctx, func(tx *gorm.DB) error {
		if err := t.accountRepo.WithTx(tx).UpdateSubscription(ctx, userID, db_models.SubscriptionPlanFree, nil); err != nil {
			return err
		}
		return t.historyRepo.WithTx(tx).Append(ctx, &db_models.TierHistory{
			UserID:        userID,
			PreviousPlan:  &previous,
			NewPlan:       db_models.SubscriptionPlanFree,
			ChangeReason:  db_models.TierChangeReasonDowngrade,
			ChangedBy:     changedBy,
			EffectiveDate: time.Now().UTC(),
			Notes:         notes,
		})
	})
	if err != nil {
		return utils.ErrDatabaseError
	}

	t.notifyTierChange(account, previous, db_models.SubscriptionPlanFree, db_models.TierChangeReasonDowngrade)
	return nil
}

func (t *TierService) PerformAutomaticDowngrade(ctx context.Context, userID uuid.UUID) (bool, error) {
	account, err := t.accountRepo.FindByID(ctx, userID)
	if err != nil {
		return false, utils.ErrDatabaseError
	}
	if account == nil {
		return false, utils.ErrAccountNotFound
	}

	now := time.Now().UTC()
	if account.SubscriptionPlan != db_models.SubscriptionPlanPremium {
		return false, nil
	}
	if !IsExpired(account.SubscriptionExpiresAt, now) {
		return false, nil
	}
	if IsGracePeriodActive(GracePeriodEnd(account.SubscriptionExpiresAt), now) {
		return false, nil
	}

	previous := account.SubscriptionPlan
	err = t.transact(ctx, func(tx *gorm.DB) error {
		if err := t.accountRepo.WithTx(tx).UpdateSubscription(ctx, userID, db_models.SubscriptionPlanFree, nil); err != nil {
			return err
		}
		return t.historyRepo.WithTx(tx).Append(ctx, &db_models.TierHistory{
			UserID:        userID,
			PreviousPlan:  &previous,
			NewPlan:       db_models.SubscriptionPlanFree,
			ChangeReason:  db_models.TierChangeReasonExpiration,
			EffectiveDate: now,
		})
	})
	if err != nil {
		return false, utils.ErrDatabaseError
	}

	t.notifyTierChange(account, previous, db_models.SubscriptionPlanFree, db_models.TierChangeReasonExpiration)
	return true, nil
}

func (t *TierService) TrackUsage(ctx context.Context, userID uuid.UUID, featureName string, delta int64, atomic bool) (response_models.TrackUsageResponse, error) {
	record, err := t.usageRepo.Increment(ctx, userID, featureName, delta, atomic)
	if err != nil {
		if errors.Is(err, utils.ErrUsageRecordNotFound) {
			return response_models.TrackUsageResponse{}, err
		}
		return response_models.TrackUsageResponse{}, utils.ErrDatabaseError
	}
	return response_models.TrackUsageResponse{
		FeatureName:  featureName,
		CurrentUsage: record.CurrentUsage,
		UpdatedAt:    time.Unix(record.UpdatedAt, 0).UTC(),
	}, nil
}

func (t *TierService) ProvisionUsage(ctx context.Context, userID uuid.UUID, plan db_models.SubscriptionPlan) error {
	definitions, err := t.defRepo.GetDefinitions(ctx, plan)
	if err != nil {
		return utils.ErrDatabaseError
	}

	for _, def := range definitions {
		if !def.FeatureEnabled {
			continue
		}
		_, err := t.usageRepo.Create(ctx, userID, def.FeatureName, def.FeatureLimit, 0)
		if err != nil && !errors.Is(err, utils.ErrUsageRecordExists) {
			return utils.ErrDatabaseError
		}
	}
	return nil
}

func (t *TierService) GetTierHistory(ctx context.Context, userID uuid.UUID) ([]response_models.TierHistoryResponse, error) {
	records, err := t.historyRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	responses := make([]response_models.TierHistoryResponse, 0, len(records))
	for _, record := range records {
		resp := response_models.TierHistoryResponse{
			ID:            record.ID.String(),
			NewPlan:       string(record.NewPlan),
			ChangeReason:  record.ChangeReason,
			EffectiveDate: record.EffectiveDate,
			Notes:         record.Notes,
			CreatedAt:     record.CreatedAt,
		}
		if record.PreviousPlan != nil {
			prev := string(*record.PreviousPlan)
			resp.PreviousPlan = &prev
		}
		if record.ChangedBy != nil {
			actor := record.ChangedBy.String()
			resp.ChangedBy = &actor
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (t *TierService) GetPlans(ctx context.Context) ([]response_models.PlanView, error) {
	plans := []struct {
		name     string
		plan     db_models.SubscriptionPlan
		price    int64
		interval string
	}{
		{"Free", db_models.SubscriptionPlanFree, 0, "monthly"},
		{"Premium", db_models.SubscriptionPlanPremium, premiumMonthlyPriceMinor, "monthly"},
	}

	views := make([]response_models.PlanView, 0, len(plans))
	for _, p := range plans {
		definitions, err := t.defRepo.GetDefinitions(ctx, p.plan)
		if err != nil {
			return nil, utils.ErrDatabaseError
		}

		features := make(map[string]response_models.TierFeature, len(definitions))
		for _, def := range definitions {
			features[def.FeatureName] = toTierFeature(def)
		}

		views = append(views, response_models.PlanView{
			Name:            p.name,
			Plan:            string(p.plan),
			PriceMinor:      p.price,
			Currency:        "USD",
			BillingInterval: p.interval,
			Features:        features,
		})
	}
	return views, nil
}

func (t *TierService) ResetAllCounters(ctx context.Context, asOf time.Time) (int64, error) {
	affected, err := t.usageRepo.ResetCounters(ctx, asOf)
	if err != nil {
		return 0, utils.ErrDatabaseError
	}
	return affected, nil
}

// notifyTierChange is best-effort: the committed plan change is the
// authoritative effect, a failed mail is logged and swallowed.
func (t *TierService) notifyTierChange(account *db_models.Account, previous, next db_models.SubscriptionPlan, reason string) {
	if t.mailService == nil {
		return
	}
	if err := t.mailService.SendTierChangeNotification(account.Email, account.Name, string(previous), string(next), reason); err != nil {
		log.Printf("tier change notification failed for %s: %v", account.Email, err)
	}
}

func toTierFeature(def db_models.FeatureDefinition) response_models.TierFeature {
	if !def.FeatureEnabled {
		return response_models.TierFeature{Disabled: true}
	}
	if def.FeatureLimit == nil {
		return response_models.TierFeature{Unlimited: true}
	}
	return response_models.TierFeature{Limit: def.FeatureLimit}
}
