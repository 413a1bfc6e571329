package scheduler

import (
	"context"
	"fmt"

	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	pkgApp "github.com/mateusmacedo/go-railwatch/pkg/application"
)

// RecoveryManager resumes every persisted search at process start. A store
// that cannot be read is fatal: the process cannot guess which searches
// were active.
type RecoveryManager struct {
	repo      domain.SearchRepository
	scheduler *Scheduler
	logger    pkgApp.AppLogger
}

func NewRecoveryManager(repo domain.SearchRepository, scheduler *Scheduler, logger pkgApp.AppLogger) *RecoveryManager {
	return &RecoveryManager{
		repo:      repo,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Run lists all persisted records and hands every one of them to the
// scheduler; nothing is filtered here, so even expired-looking searches
// reach their terminal state through the regular poller path.
func (m *RecoveryManager) Run(ctx context.Context) error {
	records, err := m.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("listing persisted searches: %w", err)
	}

	m.scheduler.Resume(ctx, records)

	m.logger.Info(ctx, "recovery complete", map[string]interface{}{
		"persisted_records": len(records),
		"active_pollers":    m.scheduler.ActiveSearchCount(-1),
	})
	return nil
}
