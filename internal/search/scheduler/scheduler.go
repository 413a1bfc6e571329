package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	pkgApp "github.com/mateusmacedo/go-railwatch/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-railwatch/pkg/domain"
)

// ErrQuiesceTimeout is returned when pollers are still in flight once the
// quiesce deadline elapses. Their last checkpoint remains valid for
// recovery, only the in-flight cycle is discarded.
var ErrQuiesceTimeout = errors.New("quiesce deadline exceeded")

// Config tunes the scheduler. Zero values fall back to the production
// defaults.
type Config struct {
	PollInterval       time.Duration
	PollJitter         float64
	FailureCeiling     int
	MaxSearchesPerUser int
	ProbeTimeout       time.Duration
	Location           *time.Location
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Minute
	}
	if c.PollJitter < 0 || c.PollJitter >= 1 {
		c.PollJitter = 0.25
	}
	if c.FailureCeiling <= 0 {
		c.FailureCeiling = 8
	}
	if c.MaxSearchesPerUser <= 0 {
		c.MaxSearchesPerUser = 3
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 7 * time.Second
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	return c
}

// Scheduler owns the full set of live pollers: one goroutine per active
// search, at most one per search id. Registry and per-user sets are only
// touched under mu.
type Scheduler struct {
	cfg    Config
	repo   domain.SearchRepository
	probe  domain.AvailabilityProbe
	sink   domain.NotificationSink
	newID  pkgDomain.IDGenerator[string]
	logger pkgApp.AppLogger

	mu        sync.Mutex
	pollers   map[string]*poller
	byUser    map[int64]map[string]struct{}
	cancelled map[string]struct{}
	quiescing bool

	quiesce     chan struct{}
	quiesceOnce sync.Once
}

func NewScheduler(
	cfg Config,
	repo domain.SearchRepository,
	probe domain.AvailabilityProbe,
	sink domain.NotificationSink,
	newID pkgDomain.IDGenerator[string],
	logger pkgApp.AppLogger,
) *Scheduler {
	return &Scheduler{
		cfg:       cfg.withDefaults(),
		repo:      repo,
		probe:     probe,
		sink:      sink,
		newID:     newID,
		logger:    logger,
		pollers:   make(map[string]*poller),
		byUser:    make(map[int64]map[string]struct{}),
		cancelled: make(map[string]struct{}),
		quiesce:   make(chan struct{}),
	}
}

// Submit registers a new search, persists it and starts its poller. The
// per-user cap is enforced before any record is created.
func (s *Scheduler) Submit(ctx context.Context, request domain.SearchRequest) (string, error) {
	s.mu.Lock()
	if s.quiescing {
		s.mu.Unlock()
		return "", domain.ErrShuttingDown
	}
	if len(s.byUser[request.UserID]) >= s.cfg.MaxSearchesPerUser {
		s.mu.Unlock()
		return "", fmt.Errorf("user %d already has %d active searches: %w",
			request.UserID, s.cfg.MaxSearchesPerUser, domain.ErrCapacityExceeded)
	}

	id := s.newID()
	record := domain.NewSearchRecord(id, request)
	p := s.reserveLocked(record)
	s.mu.Unlock()

	if err := s.repo.Save(ctx, record); err != nil {
		s.mu.Lock()
		s.releaseLocked(id, request.UserID)
		s.mu.Unlock()
		// Unblock anyone already waiting on this poller.
		p.finished.Store(true)
		close(p.done)
		return "", fmt.Errorf("persisting search %s: %w", id, err)
	}

	go s.runPoller(p)

	s.logger.Info(ctx, "search submitted", map[string]interface{}{
		"search_id": id,
		"user_id":   request.UserID,
		"route":     request.Route(),
		"date":      request.TravelDate,
		"time":      request.TravelTime,
	})
	return id, nil
}

// Cancel stops the poller for id, waits for it to reach a quiescent point
// and removes the record. Cancelling an id that was already cancelled is a
// no-op success; an id never seen fails with ErrNotFound.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, done := s.cancelled[id]; done {
		s.mu.Unlock()
		return nil
	}
	p, ok := s.pollers[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("search %s: %w", id, domain.ErrNotFound)
	}
	s.cancelled[id] = struct{}{}
	s.mu.Unlock()

	p.signalStop()
	<-p.done

	// The poller may have reached a terminal state on its own between the
	// signal and the wait; its own cleanup then already ran.
	if p.finished.Load() {
		return nil
	}

	record := p.record
	if record.State.CanTransition(domain.StateCancelled) {
		record.State = domain.StateCancelled
	}
	s.checkpoint(ctx, record)
	s.deleteRecord(ctx, record.ID)
	s.remove(record.ID, record.UserID)

	s.logger.Info(ctx, "search cancelled", map[string]interface{}{
		"search_id": record.ID,
		"user_id":   record.UserID,
	})
	return nil
}

// CancelAllForUser cancels every active search owned by the user and
// returns how many were cancelled.
func (s *Scheduler) CancelAllForUser(ctx context.Context, userID int64) int {
	s.mu.Lock()
	ids := make([]string, 0, len(s.byUser[userID]))
	for id := range s.byUser[userID] {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	cancelled := 0
	for _, id := range ids {
		if err := s.Cancel(ctx, id); err == nil {
			cancelled++
		}
	}
	return cancelled
}

// Resume restarts pollers for recovered records. Only Active records get a
// poller; the cap is deliberately not re-checked (recovery never rejects
// previously accepted work) and nothing is re-persisted. Terminal leftovers
// from a crash between checkpoint and delete are cleaned up here.
func (s *Scheduler) Resume(ctx context.Context, records []domain.SearchRecord) {
	for _, record := range records {
		if record.State != domain.StateActive {
			s.logger.Info(ctx, "discarding terminal leftover record", map[string]interface{}{
				"search_id": record.ID,
				"state":     string(record.State),
			})
			s.deleteRecord(ctx, record.ID)
			continue
		}

		s.mu.Lock()
		if _, exists := s.pollers[record.ID]; exists {
			s.mu.Unlock()
			continue
		}
		p := s.reserveLocked(record)
		s.mu.Unlock()
		go s.runPoller(p)

		s.logger.Info(ctx, "search resumed", map[string]interface{}{
			"search_id": record.ID,
			"user_id":   record.UserID,
		})
	}
}

// Quiesce signals every poller to stop after its current cycle, waits for
// them up to the context deadline and reports the ids that did not confirm.
// Each poller checkpoints its record unchanged on the way out.
func (s *Scheduler) Quiesce(ctx context.Context) error {
	s.mu.Lock()
	s.quiescing = true
	waiting := make(map[string]*poller, len(s.pollers))
	for id, p := range s.pollers {
		waiting[id] = p
	}
	s.mu.Unlock()

	s.quiesceOnce.Do(func() { close(s.quiesce) })

	var pending []string
	for id, p := range waiting {
		select {
		case <-p.done:
		case <-ctx.Done():
			pending = append(pending, id)
		}
	}

	if len(pending) > 0 {
		return fmt.Errorf("%w: still in flight %v", ErrQuiesceTimeout, pending)
	}
	return nil
}

// ActiveSearchIDs lists the ids with a live poller.
func (s *Scheduler) ActiveSearchIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.pollers))
	for id := range s.pollers {
		ids = append(ids, id)
	}
	return ids
}

// ActiveSearchCount reports how many searches a user currently runs; a
// negative userID reports the total.
func (s *Scheduler) ActiveSearchCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID < 0 {
		return len(s.pollers)
	}
	return len(s.byUser[userID])
}

// reserveLocked registers the record in the poller registry and the
// per-user set. Caller holds mu.
func (s *Scheduler) reserveLocked(record domain.SearchRecord) *poller {
	p := newPoller(record)
	s.pollers[record.ID] = p
	set, ok := s.byUser[record.UserID]
	if !ok {
		set = make(map[string]struct{})
		s.byUser[record.UserID] = set
	}
	set[record.ID] = struct{}{}
	return p
}

// releaseLocked undoes a reservation. Caller holds mu.
func (s *Scheduler) releaseLocked(id string, userID int64) {
	delete(s.pollers, id)
	if set, ok := s.byUser[userID]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(s.byUser, userID)
		}
	}
}

func (s *Scheduler) remove(id string, userID int64) {
	s.mu.Lock()
	s.releaseLocked(id, userID)
	s.mu.Unlock()
}
