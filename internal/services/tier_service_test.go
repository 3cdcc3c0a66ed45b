package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockly/internal/models/db_models"
	"stockly/internal/models/response_models"
	"stockly/pkg/utils"
)

func int64Ptr(v int64) *int64 { return &v }

func defaultDefinitions() []db_models.FeatureDefinition {
	return []db_models.FeatureDefinition{
		{Tier: db_models.SubscriptionPlanFree, FeatureName: db_models.FeatureProductSlot, FeatureLimit: int64Ptr(50), FeatureEnabled: true},
		{Tier: db_models.SubscriptionPlanFree, FeatureName: db_models.FeatureCategorySlot, FeatureLimit: int64Ptr(10), FeatureEnabled: true},
		{Tier: db_models.SubscriptionPlanFree, FeatureName: db_models.FeatureCSVExport, FeatureEnabled: false},
		{Tier: db_models.SubscriptionPlanFree, FeatureName: db_models.FeatureAPIAccess, FeatureEnabled: false},
		{Tier: db_models.SubscriptionPlanPremium, FeatureName: db_models.FeatureProductSlot, FeatureEnabled: true},
		{Tier: db_models.SubscriptionPlanPremium, FeatureName: db_models.FeatureCategorySlot, FeatureEnabled: true},
		{Tier: db_models.SubscriptionPlanPremium, FeatureName: db_models.FeatureCSVExport, FeatureEnabled: true},
		{Tier: db_models.SubscriptionPlanPremium, FeatureName: db_models.FeatureAPIAccess, FeatureEnabled: true},
	}
}

type tierFixture struct {
	service  *TierService
	accounts *fakeAccountRepo
	usage    *fakeUsageRepo
	history  *fakeHistoryRepo
	mail     *fakeMailService
}

func newTierFixture(accounts ...*db_models.Account) *tierFixture {
	accountRepo := newFakeAccountRepo(accounts...)
	usageRepo := newFakeUsageRepo()
	historyRepo := &fakeHistoryRepo{}
	mail := &fakeMailService{}

	return &tierFixture{
		service: &TierService{
			accountRepo: accountRepo,
			defRepo:     &fakeDefinitionRepo{definitions: defaultDefinitions()},
			usageRepo:   usageRepo,
			historyRepo: historyRepo,
			mailService: mail,
			transact:    passthroughTx,
		},
		accounts: accountRepo,
		usage:    usageRepo,
		history:  historyRepo,
		mail:     mail,
	}
}

func freeAccount() *db_models.Account {
	return &db_models.Account{
		BaseModel:        db_models.BaseModel{ID: uuid.New()},
		Name:             "Ada",
		Email:            "ada@example.com",
		IsActive:         true,
		SubscriptionPlan: db_models.SubscriptionPlanFree,
	}
}

func premiumAccount(expiresAt *time.Time) *db_models.Account {
	return &db_models.Account{
		BaseModel:             db_models.BaseModel{ID: uuid.New()},
		Name:                  "Grace",
		Email:                 "grace@example.com",
		IsActive:              true,
		SubscriptionPlan:      db_models.SubscriptionPlanPremium,
		SubscriptionExpiresAt: expiresAt,
	}
}

func TestValidateFeatureAccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("undefined feature is denied", func(t *testing.T) {
		t.Parallel()
		fx := newTierFixture(freeAccount())

		result, err := fx.service.ValidateFeatureAccess(ctx, uuid.New(), "bulk_import", db_models.SubscriptionPlanFree)
		require.NoError(t, err)
		assert.False(t, result.AccessGranted)
		assert.Equal(t, response_models.ReasonFeatureNotDefined, result.Reason)
	})

	t.Run("disabled feature is denied", func(t *testing.T) {
		t.Parallel()
		fx := newTierFixture(freeAccount())

		result, err := fx.service.ValidateFeatureAccess(ctx, uuid.New(), db_models.FeatureCSVExport, db_models.SubscriptionPlanFree)
		require.NoError(t, err)
		assert.False(t, result.AccessGranted)
		assert.False(t, result.FeatureAvailable)
		assert.Equal(t, response_models.ReasonFeatureNotAvailable, result.Reason)
	})

	t.Run("usage below the limit is granted", func(t *testing.T) {
		t.Parallel()
		fx := newTierFixture(freeAccount())
		userID := uuid.New()
		fx.usage.seed(userID, db_models.FeatureProductSlot, 49, int64Ptr(50))

		result, err := fx.service.ValidateFeatureAccess(ctx, userID, db_models.FeatureProductSlot, db_models.SubscriptionPlanFree)
		require.NoError(t, err)
		assert.True(t, result.AccessGranted)
		assert.Equal(t, int64(49), result.CurrentUsage)
		assert.Empty(t, result.Reason)
	})

	t.Run("usage at the limit is denied", func(t *testing.T) {
		t.Parallel()
		fx := newTierFixture(freeAccount())
		userID := uuid.New()
		fx.usage.seed(userID, db_models.FeatureProductSlot, 50, int64Ptr(50))

		result, err := fx.service.ValidateFeatureAccess(ctx, userID, db_models.FeatureProductSlot, db_models.SubscriptionPlanFree)
		require.NoError(t, err)
		assert.False(t, result.AccessGranted)
		assert.True(t, result.FeatureAvailable)
		assert.False(t, result.UsageWithinLimits)
		assert.Equal(t, response_models.ReasonUsageLimitExceeded, result.Reason)
	})

	t.Run("unlimited features are never denied", func(t *testing.T) {
		t.Parallel()
		fx := newTierFixture(premiumAccount(nil))
		userID := uuid.New()
		fx.usage.seed(userID, db_models.FeatureProductSlot, 1_000_000, nil)

		result, err := fx.service.ValidateFeatureAccess(ctx, userID, db_models.FeatureProductSlot, db_models.SubscriptionPlanPremium)
		require.NoError(t, err)
		assert.True(t, result.AccessGranted)
		assert.Nil(t, result.Limit)
	})

	t.Run("missing counter counts as zero", func(t *testing.T) {
		t.Parallel()
		fx := newTierFixture(freeAccount())

		result, err := fx.service.ValidateFeatureAccess(ctx, uuid.New(), db_models.FeatureProductSlot, db_models.SubscriptionPlanFree)
		require.NoError(t, err)
		assert.True(t, result.AccessGranted)
		assert.Zero(t, result.CurrentUsage)
	})
}

func TestCheckUsageThreshold(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("80 percent trips the default threshold", func(t *testing.T) {
		t.Parallel()
		account := freeAccount()
		fx := newTierFixture(account)
		fx.usage.seed(account.ID, db_models.FeatureProductSlot, 40, int64Ptr(50))

		result, err := fx.service.CheckUsageThreshold(ctx, account.ID, db_models.FeatureProductSlot, 0)
		require.NoError(t, err)
		assert.True(t, result.ThresholdExceeded)
		assert.InDelta(t, 0.8, result.Percentage, 1e-9)
		assert.Contains(t, result.WarningMessage, "80%")
		assert.Contains(t, result.WarningMessage, db_models.FeatureProductSlot)
	})

	t.Run("below the threshold stays quiet", func(t *testing.T) {
		t.Parallel()
		account := freeAccount()
		fx := newTierFixture(account)
		fx.usage.seed(account.ID, db_models.FeatureProductSlot, 30, int64Ptr(50))

		result, err := fx.service.CheckUsageThreshold(ctx, account.ID, db_models.FeatureProductSlot, 0)
		require.NoError(t, err)
		assert.False(t, result.ThresholdExceeded)
		assert.Empty(t, result.WarningMessage)
	})

	t.Run("unlimited features never trip", func(t *testing.T) {
		t.Parallel()
		account := premiumAccount(nil)
		fx := newTierFixture(account)
		fx.usage.seed(account.ID, db_models.FeatureProductSlot, 1_000_000, nil)

		result, err := fx.service.CheckUsageThreshold(ctx, account.ID, db_models.FeatureProductSlot, 0.5)
		require.NoError(t, err)
		assert.False(t, result.ThresholdExceeded)
		assert.Nil(t, result.Limit)
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()
		fx := newTierFixture()

		_, err := fx.service.CheckUsageThreshold(ctx, uuid.New(), db_models.FeatureProductSlot, 0)
		assert.ErrorIs(t, err, utils.ErrAccountNotFound)
	})
}

func TestUpgradeToPremium(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	account := freeAccount()
	fx := newTierFixture(account)
	expiresAt := time.Now().UTC().AddDate(0, 1, 0)

	require.NoError(t, fx.service.UpgradeToPremium(ctx, account.ID, &expiresAt, nil, nil))

	stored, err := fx.accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, db_models.SubscriptionPlanPremium, stored.SubscriptionPlan)
	require.NotNil(t, stored.SubscriptionExpiresAt)

	history, err := fx.history.ListForUser(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, db_models.TierChangeReasonUpgrade, history[0].ChangeReason)
	require.NotNil(t, history[0].PreviousPlan)
	assert.Equal(t, db_models.SubscriptionPlanFree, *history[0].PreviousPlan)

	assert.Len(t, fx.mail.tierChanges, 1)
}

func TestUpgradeSurvivesNotificationFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	account := freeAccount()
	fx := newTierFixture(account)
	fx.mail.failTierMails = true

	require.NoError(t, fx.service.UpgradeToPremium(ctx, account.ID, nil, nil, nil))

	stored, err := fx.accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, db_models.SubscriptionPlanPremium, stored.SubscriptionPlan)
}

func TestDowngradeToFree(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("premium is downgraded with history", func(t *testing.T) {
		t.Parallel()
		account := premiumAccount(nil)
		fx := newTierFixture(account)

		require.NoError(t, fx.service.DowngradeToFree(ctx, account.ID, nil, nil))

		stored, err := fx.accounts.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, db_models.SubscriptionPlanFree, stored.SubscriptionPlan)
		assert.Nil(t, stored.SubscriptionExpiresAt)

		history, err := fx.history.ListForUser(ctx, account.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, db_models.TierChangeReasonDowngrade, history[0].ChangeReason)
	})

	t.Run("already free is a silent no-op", func(t *testing.T) {
		t.Parallel()
		account := freeAccount()
		fx := newTierFixture(account)

		require.NoError(t, fx.service.DowngradeToFree(ctx, account.ID, nil, nil))
		require.NoError(t, fx.service.DowngradeToFree(ctx, account.ID, nil, nil))

		history, err := fx.history.ListForUser(ctx, account.ID)
		require.NoError(t, err)
		assert.Empty(t, history, "no history entry for a no-op downgrade")
		assert.Empty(t, fx.mail.tierChanges)
	})
}

func TestPerformAutomaticDowngrade(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("past grace period downgrades", func(t *testing.T) {
		t.Parallel()
		expiry := time.Now().UTC().AddDate(0, 0, -10)
		account := premiumAccount(&expiry)
		fx := newTierFixture(account)

		performed, err := fx.service.PerformAutomaticDowngrade(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, performed)

		stored, err := fx.accounts.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, db_models.SubscriptionPlanFree, stored.SubscriptionPlan)

		history, err := fx.history.ListForUser(ctx, account.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, db_models.TierChangeReasonExpiration, history[0].ChangeReason)
	})

	t.Run("inside grace period is left alone", func(t *testing.T) {
		t.Parallel()
		expiry := time.Now().UTC().AddDate(0, 0, -3)
		account := premiumAccount(&expiry)
		fx := newTierFixture(account)

		performed, err := fx.service.PerformAutomaticDowngrade(ctx, account.ID)
		require.NoError(t, err)
		assert.False(t, performed)

		stored, err := fx.accounts.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, db_models.SubscriptionPlanPremium, stored.SubscriptionPlan)
	})

	t.Run("free account is not a candidate", func(t *testing.T) {
		t.Parallel()
		account := freeAccount()
		fx := newTierFixture(account)

		performed, err := fx.service.PerformAutomaticDowngrade(ctx, account.ID)
		require.NoError(t, err)
		assert.False(t, performed)
	})

	t.Run("premium without expiry never downgrades", func(t *testing.T) {
		t.Parallel()
		account := premiumAccount(nil)
		fx := newTierFixture(account)

		performed, err := fx.service.PerformAutomaticDowngrade(ctx, account.ID)
		require.NoError(t, err)
		assert.False(t, performed)
	})
}

func TestTrackUsage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("atomic increment requires a provisioned counter", func(t *testing.T) {
		t.Parallel()
		fx := newTierFixture(freeAccount())

		_, err := fx.service.TrackUsage(ctx, uuid.New(), db_models.FeatureProductSlot, 1, true)
		assert.ErrorIs(t, err, utils.ErrUsageRecordNotFound)
	})

	t.Run("non-atomic increment creates the counter lazily", func(t *testing.T) {
		t.Parallel()
		fx := newTierFixture(freeAccount())
		userID := uuid.New()

		result, err := fx.service.TrackUsage(ctx, userID, db_models.FeatureProductSlot, 3, false)
		require.NoError(t, err)
		assert.Equal(t, int64(3), result.CurrentUsage)
	})

	t.Run("counter floors at zero", func(t *testing.T) {
		t.Parallel()
		fx := newTierFixture(freeAccount())
		userID := uuid.New()
		fx.usage.seed(userID, db_models.FeatureProductSlot, 2, int64Ptr(50))

		result, err := fx.service.TrackUsage(ctx, userID, db_models.FeatureProductSlot, -5, true)
		require.NoError(t, err)
		assert.Zero(t, result.CurrentUsage)
	})

	t.Run("concurrent atomic increments all land", func(t *testing.T) {
		t.Parallel()
		fx := newTierFixture(freeAccount())
		userID := uuid.New()
		fx.usage.seed(userID, db_models.FeatureProductSlot, 5, int64Ptr(1000))

		const workers = 50
		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				_, err := fx.service.TrackUsage(ctx, userID, db_models.FeatureProductSlot, 1, true)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(5+workers), fx.usage.current(userID, db_models.FeatureProductSlot))
	})
}

func TestProvisionUsage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	account := freeAccount()
	fx := newTierFixture(account)

	require.NoError(t, fx.service.ProvisionUsage(ctx, account.ID, db_models.SubscriptionPlanFree))

	// Only enabled features get counters.
	records, err := fx.usage.GetUsageForUser(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	// Idempotent on repeat.
	require.NoError(t, fx.service.ProvisionUsage(ctx, account.ID, db_models.SubscriptionPlanFree))
	records, err = fx.usage.GetUsageForUser(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestGetTierStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("expired premium reports an active grace period", func(t *testing.T) {
		t.Parallel()
		expiry := time.Now().UTC().AddDate(0, 0, -2)
		account := premiumAccount(&expiry)
		fx := newTierFixture(account)
		fx.usage.seed(account.ID, db_models.FeatureProductSlot, 12, nil)

		status, err := fx.service.GetTierStatus(ctx, account.ID)
		require.NoError(t, err)
		assert.True(t, status.GracePeriodActive)
		require.NotNil(t, status.GracePeriodExpiresAt)
		require.NotNil(t, status.DaysUntilExpiration)
		assert.Negative(t, *status.DaysUntilExpiration)
		assert.Equal(t, int64(12), status.CurrentUsage[db_models.FeatureProductSlot].Current)
		assert.Len(t, status.TierFeatures, 4)
	})

	t.Run("free account has no grace fields", func(t *testing.T) {
		t.Parallel()
		account := freeAccount()
		fx := newTierFixture(account)

		status, err := fx.service.GetTierStatus(ctx, account.ID)
		require.NoError(t, err)
		assert.False(t, status.GracePeriodActive)
		assert.Nil(t, status.GracePeriodExpiresAt)
		assert.Nil(t, status.DaysUntilExpiration)
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()
		fx := newTierFixture()

		_, err := fx.service.GetTierStatus(ctx, uuid.New())
		assert.ErrorIs(t, err, utils.ErrAccountNotFound)
	})
}

func TestResetAllCounters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	fx := newTierFixture(freeAccount())
	userA, userB := uuid.New(), uuid.New()
	fx.usage.seed(userA, db_models.FeatureProductSlot, 42, int64Ptr(50))
	fx.usage.seed(userB, db_models.FeatureCategorySlot, 7, int64Ptr(10))

	asOf := time.Now().UTC()
	affected, err := fx.service.ResetAllCounters(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	assert.Zero(t, fx.usage.current(userA, db_models.FeatureProductSlot))
	assert.Zero(t, fx.usage.current(userB, db_models.FeatureCategorySlot))
}

func TestGetPlans(t *testing.T) {
	t.Parallel()

	fx := newTierFixture()
	plans, err := fx.service.GetPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)

	free, premium := plans[0], plans[1]
	assert.Equal(t, "free", free.Plan)
	assert.Zero(t, free.PriceMinor)
	require.Contains(t, free.Features, db_models.FeatureProductSlot)
	require.NotNil(t, free.Features[db_models.FeatureProductSlot].Limit)
	assert.Equal(t, int64(50), *free.Features[db_models.FeatureProductSlot].Limit)
	assert.True(t, free.Features[db_models.FeatureCSVExport].Disabled)

	assert.Equal(t, "premium", premium.Plan)
	assert.Positive(t, premium.PriceMinor)
	assert.True(t, premium.Features[db_models.FeatureProductSlot].Unlimited)
}
