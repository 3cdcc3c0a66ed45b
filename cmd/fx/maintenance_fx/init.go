package maintenance_fx

import (
	"context"
	"log"
	"os"
	"time"

	"go.uber.org/fx"

	"stockly/internal/services"
)

var Module = fx.Invoke(startScheduler)

// startScheduler runs the expiry sweep and the usage counter reset on a
// fixed interval. The tier engine never spawns its own goroutines, so this
// is the only place periodic work is scheduled.
func startScheduler(lc fx.Lifecycle, maintenanceService services.MaintenanceServiceInterface) {
	interval := 24 * time.Hour
	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Printf("Invalid SWEEP_INTERVAL %q, using default: %v", raw, err)
		} else {
			interval = parsed
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						runOnce(ctx, maintenanceService)
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func runOnce(ctx context.Context, maintenanceService services.MaintenanceServiceInterface) {
	downgraded, err := maintenanceService.RunExpirySweep(ctx)
	if err != nil {
		log.Printf("Expiry sweep failed: %v", err)
	} else if downgraded > 0 {
		log.Printf("Expiry sweep downgraded %d accounts", downgraded)
	}

	reset, err := maintenanceService.RunUsageReset(ctx)
	if err != nil {
		log.Printf("Usage reset failed: %v", err)
	} else if reset > 0 {
		log.Printf("Usage reset zeroed %d counters", reset)
	}
}
