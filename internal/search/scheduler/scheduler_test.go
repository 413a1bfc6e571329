package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	"github.com/mateusmacedo/go-railwatch/internal/search/infrastructure"
	"github.com/mateusmacedo/go-railwatch/internal/search/scheduler"
	pkgInfra "github.com/mateusmacedo/go-railwatch/pkg/infrastructure"
)

type noopLogger struct{}

func (noopLogger) Info(context.Context, string, map[string]interface{}) {}
func (noopLogger) Debug(context.Context, string, map[string]interface{}) {}
func (noopLogger) Error(context.Context, string, map[string]interface{}) {}
func (noopLogger) Trace(context.Context, string, map[string]interface{}) {}

type probeFunc func(ctx context.Context, request domain.SearchRequest) (domain.AvailabilityResult, error)

func (f probeFunc) Check(ctx context.Context, request domain.SearchRequest) (domain.AvailabilityResult, error) {
	return f(ctx, request)
}

// sinkRecorder captures delivered notifications for assertions.
type sinkRecorder struct {
	mu       sync.Mutex
	messages []string
	users    []int64
}

func (s *sinkRecorder) Notify(ctx context.Context, userID int64, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, userID)
	s.messages = append(s.messages, message)
	return nil
}

func (s *sinkRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *sinkRecorder) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return ""
	}
	return s.messages[len(s.messages)-1]
}

func neverAvailable(ctx context.Context, request domain.SearchRequest) (domain.AvailabilityResult, error) {
	return domain.AvailabilityResult{Available: false}, nil
}

func testRequest(t *testing.T, userID int64) domain.SearchRequest {
	t.Helper()
	tomorrow := time.Now().UTC().Add(24 * time.Hour)
	request, err := domain.NewSearchRequest("Minsk", "Brest", tomorrow.Format(domain.DateFormat), "08:30", userID, time.UTC)
	require.NoError(t, err)
	return request
}

func newTestScheduler(cfg scheduler.Config, repo domain.SearchRepository, probe domain.AvailabilityProbe, sink domain.NotificationSink) *scheduler.Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return scheduler.NewScheduler(cfg, repo, probe, sink, pkgInfra.GenerateUUID, noopLogger{})
}

func TestSubmitNotifiesOnceWhenTicketAppears(t *testing.T) {
	repo := infrastructure.NewInMemorySearchRepository()
	sink := &sinkRecorder{}

	var calls atomic.Int32
	probe := probeFunc(func(ctx context.Context, request domain.SearchRequest) (domain.AvailabilityResult, error) {
		if calls.Add(1) < 3 {
			return domain.AvailabilityResult{Available: false}, nil
		}
		return domain.AvailabilityResult{Available: true, Fingerprint: "abc123"}, nil
	})

	sched := newTestScheduler(scheduler.Config{PollInterval: 10 * time.Millisecond, PollJitter: 0.1}, repo, probe, sink)

	id, err := sched.Submit(context.Background(), testRequest(t, 1))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool { return sink.count() == 1 }, 3*time.Second, 10*time.Millisecond)
	require.Contains(t, sink.last(), "Tickets available")
	require.Contains(t, sink.last(), "abc123")

	require.Eventually(t, func() bool { return sched.ActiveSearchCount(-1) == 0 }, time.Second, 10*time.Millisecond)
	require.Equal(t, 0, repo.Len(), "terminal searches must not stay persisted")

	// No duplicate notification after the search finished.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, sink.count())
}

func TestFailureCeilingEndsTheSearch(t *testing.T) {
	repo := infrastructure.NewInMemorySearchRepository()
	sink := &sinkRecorder{}
	probe := probeFunc(func(ctx context.Context, request domain.SearchRequest) (domain.AvailabilityResult, error) {
		return domain.AvailabilityResult{}, &domain.TransientError{Op: "schedule fetch", Err: errors.New("boom")}
	})

	sched := newTestScheduler(scheduler.Config{
		PollInterval:   5 * time.Millisecond,
		PollJitter:     0.1,
		FailureCeiling: 2,
	}, repo, probe, sink)

	_, err := sched.Submit(context.Background(), testRequest(t, 1))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return sink.count() == 1 }, 3*time.Second, 10*time.Millisecond)
	require.Contains(t, sink.last(), "failed checks")
	require.Eventually(t, func() bool { return sched.ActiveSearchCount(-1) == 0 }, time.Second, 10*time.Millisecond)
	require.Equal(t, 0, repo.Len())
}

func TestPerUserCapRejectsExtraSearches(t *testing.T) {
	repo := infrastructure.NewInMemorySearchRepository()
	sched := newTestScheduler(scheduler.Config{
		PollInterval:       time.Hour,
		MaxSearchesPerUser: 2,
	}, repo, probeFunc(neverAvailable), &sinkRecorder{})

	ctx := context.Background()
	_, err := sched.Submit(ctx, testRequest(t, 1))
	require.NoError(t, err)
	_, err = sched.Submit(ctx, testRequest(t, 1))
	require.NoError(t, err)

	_, err = sched.Submit(ctx, testRequest(t, 1))
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	require.Equal(t, 2, repo.Len(), "rejected submissions must leave no record")

	// The cap is per user, not global.
	_, err = sched.Submit(ctx, testRequest(t, 2))
	require.NoError(t, err)
	require.Equal(t, 2, sched.ActiveSearchCount(1))
	require.Equal(t, 1, sched.ActiveSearchCount(2))
}

func TestCancelSemantics(t *testing.T) {
	repo := infrastructure.NewInMemorySearchRepository()
	sched := newTestScheduler(scheduler.Config{PollInterval: time.Hour}, repo, probeFunc(neverAvailable), &sinkRecorder{})
	ctx := context.Background()

	err := sched.Cancel(ctx, "never-seen")
	require.ErrorIs(t, err, domain.ErrNotFound)

	id, err := sched.Submit(ctx, testRequest(t, 1))
	require.NoError(t, err)

	require.NoError(t, sched.Cancel(ctx, id))
	require.Equal(t, 0, sched.ActiveSearchCount(-1))
	require.Equal(t, 0, repo.Len())

	// Cancelling the same id again is a no-op success.
	require.NoError(t, sched.Cancel(ctx, id))
}

func TestCancelAllForUser(t *testing.T) {
	repo := infrastructure.NewInMemorySearchRepository()
	sink := &sinkRecorder{}
	sched := newTestScheduler(scheduler.Config{PollInterval: time.Hour}, repo, probeFunc(neverAvailable), sink)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := sched.Submit(ctx, testRequest(t, 1))
		require.NoError(t, err)
	}
	otherID, err := sched.Submit(ctx, testRequest(t, 2))
	require.NoError(t, err)

	require.Equal(t, 3, sched.CancelAllForUser(ctx, 1))
	require.Equal(t, 0, sched.ActiveSearchCount(1))
	require.Equal(t, 1, sched.ActiveSearchCount(2))
	require.Equal(t, 0, sink.count(), "cancellation sends no notification")

	require.NoError(t, sched.Cancel(ctx, otherID))
}

func TestResumeRestartsOnlyActiveRecords(t *testing.T) {
	repo := infrastructure.NewInMemorySearchRepository()
	sched := newTestScheduler(scheduler.Config{PollInterval: time.Hour}, repo, probeFunc(neverAvailable), &sinkRecorder{})
	ctx := context.Background()

	active := domain.NewSearchRecord("active-1", testRequest(t, 1))
	leftover := domain.NewSearchRecord("found-1", testRequest(t, 2))
	leftover.State = domain.StateFound
	require.NoError(t, repo.Save(ctx, active))
	require.NoError(t, repo.Save(ctx, leftover))

	recovery := scheduler.NewRecoveryManager(repo, sched, noopLogger{})
	require.NoError(t, recovery.Run(ctx))

	require.Equal(t, 1, sched.ActiveSearchCount(-1))
	_, stillThere := repo.Get("found-1")
	require.False(t, stillThere, "terminal leftovers are discarded during recovery")

	// Running recovery again must not double the pollers.
	require.NoError(t, repo.Save(ctx, domain.NewSearchRecord("active-1-copy", testRequest(t, 3))))
	require.NoError(t, recovery.Run(ctx))
	require.Equal(t, 2, sched.ActiveSearchCount(-1))

	require.NoError(t, recovery.Run(ctx))
	require.Equal(t, 2, sched.ActiveSearchCount(-1))
}

func TestResumeNeverDoublesALiveSearch(t *testing.T) {
	repo := infrastructure.NewInMemorySearchRepository()
	sched := newTestScheduler(scheduler.Config{PollInterval: time.Hour}, repo, probeFunc(neverAvailable), &sinkRecorder{})
	ctx := context.Background()

	id, err := sched.Submit(ctx, testRequest(t, 1))
	require.NoError(t, err)
	record, ok := repo.Get(id)
	require.True(t, ok)

	sched.Resume(ctx, []domain.SearchRecord{record})
	require.Equal(t, 1, sched.ActiveSearchCount(-1), "a live search keeps exactly one poller")
}

func TestResumeExpiresStaleRecordQuietly(t *testing.T) {
	repo := infrastructure.NewInMemorySearchRepository()
	sink := &sinkRecorder{}
	sched := newTestScheduler(scheduler.Config{PollInterval: time.Hour}, repo, probeFunc(neverAvailable), sink)
	ctx := context.Background()

	stale := domain.SearchRecord{
		ID:          "stale-1",
		UserID:      1,
		Origin:      "Minsk",
		Destination: "Brest",
		TravelDate:  "2020-01-01",
		TravelTime:  "08:30",
		State:       domain.StateActive,
	}
	require.NoError(t, repo.Save(ctx, stale))

	sched.Resume(ctx, []domain.SearchRecord{stale})

	require.Eventually(t, func() bool { return sched.ActiveSearchCount(-1) == 0 }, time.Second, 10*time.Millisecond)
	require.Equal(t, 0, repo.Len())
	require.Equal(t, 0, sink.count(), "expiry is silent")
}

func TestQuiesceStopsPollersAndKeepsRecords(t *testing.T) {
	repo := infrastructure.NewInMemorySearchRepository()
	sched := newTestScheduler(scheduler.Config{PollInterval: time.Hour}, repo, probeFunc(neverAvailable), &sinkRecorder{})
	ctx := context.Background()

	idA, err := sched.Submit(ctx, testRequest(t, 1))
	require.NoError(t, err)
	idB, err := sched.Submit(ctx, testRequest(t, 2))
	require.NoError(t, err)

	quiesceCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, sched.Quiesce(quiesceCtx))

	recordA, ok := repo.Get(idA)
	require.True(t, ok)
	require.Equal(t, domain.StateActive, recordA.State, "quiesced searches stay active for recovery")
	recordB, ok := repo.Get(idB)
	require.True(t, ok)
	require.Equal(t, domain.StateActive, recordB.State)

	// New work is refused once quiesce has begun.
	_, err = sched.Submit(ctx, testRequest(t, 3))
	require.ErrorIs(t, err, domain.ErrShuttingDown)
}
