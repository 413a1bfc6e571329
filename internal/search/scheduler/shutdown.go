package scheduler

import (
	"context"
	"errors"
	"time"

	pkgApp "github.com/mateusmacedo/go-railwatch/pkg/application"
)

// ShutdownCoordinator drains the scheduler on termination: every poller is
// asked to stop after its current cycle and the wait is bounded, so the
// process always exits.
type ShutdownCoordinator struct {
	scheduler *Scheduler
	timeout   time.Duration
	logger    pkgApp.AppLogger
}

func NewShutdownCoordinator(scheduler *Scheduler, timeout time.Duration, logger pkgApp.AppLogger) *ShutdownCoordinator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ShutdownCoordinator{
		scheduler: scheduler,
		timeout:   timeout,
		logger:    logger,
	}
}

// Shutdown quiesces all pollers within the configured deadline. Pollers
// that miss it are logged and abandoned; their last checkpoint stays valid
// for the next recovery.
func (c *ShutdownCoordinator) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	c.logger.Info(ctx, "quiescing pollers", map[string]interface{}{
		"active_pollers": c.scheduler.ActiveSearchCount(-1),
		"deadline":       c.timeout.String(),
	})

	err := c.scheduler.Quiesce(ctx)
	switch {
	case err == nil:
		c.logger.Info(ctx, "all pollers quiesced", nil)
	case errors.Is(err, ErrQuiesceTimeout):
		pkgApp.LogError(ctx, c.logger, "quiesce deadline elapsed, exiting anyway", err, map[string]interface{}{
			"unconfirmed": c.scheduler.ActiveSearchIDs(),
		})
	default:
		pkgApp.LogError(ctx, c.logger, "quiesce failed", err, nil)
	}
}
