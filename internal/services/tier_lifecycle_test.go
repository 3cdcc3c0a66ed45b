package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockly/internal/models/db_models"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestIsExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.False(t, IsExpired(nil, now), "no expiry never expires")
	assert.False(t, IsExpired(timePtr(now.Add(time.Second)), now))
	assert.False(t, IsExpired(timePtr(now), now), "exact expiry instant is still active")
	assert.True(t, IsExpired(timePtr(now.Add(-time.Second)), now))
}

func TestGracePeriodEnd(t *testing.T) {
	t.Parallel()

	assert.Nil(t, GracePeriodEnd(nil))

	expiry := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := GracePeriodEnd(&expiry)
	require.NotNil(t, end)
	assert.Equal(t, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), *end)
}

func TestDaysUntilExpiration(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, DaysUntilExpiration(nil, now))

	days := DaysUntilExpiration(timePtr(now.Add(36*time.Hour)), now)
	require.NotNil(t, days)
	assert.Equal(t, 2, *days, "partial days round up")

	days = DaysUntilExpiration(timePtr(now.Add(-48*time.Hour)), now)
	require.NotNil(t, days)
	assert.Equal(t, -2, *days, "negative once expired")
}

func TestEffectivePlan(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		plan      db_models.SubscriptionPlan
		expiresAt *time.Time
		want      db_models.SubscriptionPlan
	}{
		{"free stays free", db_models.SubscriptionPlanFree, nil, db_models.SubscriptionPlanFree},
		{"premium without expiry", db_models.SubscriptionPlanPremium, nil, db_models.SubscriptionPlanPremium},
		{"premium not yet expired", db_models.SubscriptionPlanPremium, timePtr(now.Add(24 * time.Hour)), db_models.SubscriptionPlanPremium},
		{"premium inside grace", db_models.SubscriptionPlanPremium, timePtr(now.AddDate(0, 0, -6)), db_models.SubscriptionPlanPremium},
		{"premium at last grace second", db_models.SubscriptionPlanPremium, timePtr(now.AddDate(0, 0, -GracePeriodDays).Add(time.Second)), db_models.SubscriptionPlanPremium},
		{"premium past grace", db_models.SubscriptionPlanPremium, timePtr(now.AddDate(0, 0, -GracePeriodDays).Add(-time.Second)), db_models.SubscriptionPlanFree},
		{"premium long expired", db_models.SubscriptionPlanPremium, timePtr(now.AddDate(0, 0, -30)), db_models.SubscriptionPlanFree},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, EffectivePlan(tt.plan, tt.expiresAt, now))
		})
	}
}
