package services

import (
	"context"
	"log"
	"time"

	"stockly/internal/repositories"
)

// MaintenanceServiceInterface is the host-owned scheduler's entry point into
// the tier engine. The engine itself never spawns background work; the fx
// module owns the ticker and injects this handle.
type MaintenanceServiceInterface interface {
	// RunExpirySweep downgrades every premium account whose grace period
	// has lapsed. Returns the number of accounts downgraded.
	RunExpirySweep(ctx context.Context) (int, error)

	// RunUsageReset zeroes all usage counters.
	RunUsageReset(ctx context.Context) (int64, error)
}

type MaintenanceService struct {
	accountRepo repositories.AccountRepositoryInterface
	tierService TierServiceInterface
}

func NewMaintenanceService(
	accountRepo repositories.AccountRepositoryInterface,
	tierService TierServiceInterface,
) MaintenanceServiceInterface {
	return &MaintenanceService{
		accountRepo: accountRepo,
		tierService: tierService,
	}
}

func (m *MaintenanceService) RunExpirySweep(ctx context.Context) (int, error) {
	// Only accounts already past the grace window are candidates; the
	// transition re-checks the conditions itself, so racing an upgrade is
	// harmless (the downgrade just reports "not performed").
	cutoff := time.Now().UTC().AddDate(0, 0, -GracePeriodDays)
	candidates, err := m.accountRepo.ListExpiredPremium(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	downgraded := 0
	for _, account := range candidates {
		performed, err := m.tierService.PerformAutomaticDowngrade(ctx, account.ID)
		if err != nil {
			log.Printf("automatic downgrade failed for %s: %v", account.ID, err)
			continue
		}
		if performed {
			downgraded++
		}
	}
	return downgraded, nil
}

func (m *MaintenanceService) RunUsageReset(ctx context.Context) (int64, error) {
	return m.tierService.ResetAllCounters(ctx, time.Now().UTC())
}
