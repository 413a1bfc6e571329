package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	pkgApp "github.com/mateusmacedo/go-railwatch/pkg/application"
)

// poller is the unit of work for one search. The record copy inside it is
// owned by the poller goroutine; other goroutines may read it only after
// done is closed.
type poller struct {
	record   domain.SearchRecord
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	finished atomic.Bool
}

func newPoller(record domain.SearchRecord) *poller {
	return &poller{
		record: record,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (p *poller) signalStop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

// runPoller drives one search through poll → compare → notify → reschedule
// until a terminal outcome, a cancel signal or quiesce. Cancellation is
// cooperative: it is checked at the top of each cycle and during the sleep,
// never mid-probe.
func (s *Scheduler) runPoller(p *poller) {
	defer close(p.done)
	ctx := context.Background()

	for {
		select {
		case <-p.stop:
			// Cancel owns the terminal transition and removal.
			return
		case <-s.quiesce:
			s.checkpoint(ctx, p.record)
			return
		default:
		}

		departure, err := p.record.Request().DepartureIn(s.cfg.Location)
		if err != nil || time.Now().In(s.cfg.Location).After(departure) {
			s.finish(p, domain.StateExpired, "")
			return
		}

		result, probeErr := s.probeOnce(p.record.Request())
		now := time.Now().In(s.cfg.Location)
		p.record.PollSeq++
		p.record.LastPolledAt = now

		switch {
		case probeErr != nil:
			p.record.FailureCount++
			s.logger.Debug(ctx, "probe failed", map[string]interface{}{
				"search_id":     p.record.ID,
				"failure_count": p.record.FailureCount,
				"error":         probeErr,
			})
			if p.record.FailureCount > s.cfg.FailureCeiling {
				s.finish(p, domain.StateFailed, fmt.Sprintf(
					"Search for %s on %s %s stopped after %d consecutive failed checks.",
					p.record.Request().Route(), p.record.TravelDate, p.record.TravelTime, p.record.FailureCount))
				return
			}
			s.checkpoint(ctx, p.record)

		case result.Available:
			s.finish(p, domain.StateFound, fmt.Sprintf(
				"Tickets available for %s on %s %s (offer %s).",
				p.record.Request().Route(), p.record.TravelDate, p.record.TravelTime, result.Fingerprint))
			return

		default:
			p.record.FailureCount = 0
			s.checkpoint(ctx, p.record)
		}

		timer := time.NewTimer(s.nextDelay())
		select {
		case <-p.stop:
			timer.Stop()
			return
		case <-s.quiesce:
			timer.Stop()
			s.checkpoint(ctx, p.record)
			return
		case <-timer.C:
		}
	}
}

// probeOnce runs one availability check under the probe's own timeout. The
// context is deliberately detached from the stop signal so an in-flight
// probe finishes instead of being aborted.
func (s *Scheduler) probeOnce(request domain.SearchRequest) (domain.AvailabilityResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ProbeTimeout)
	defer cancel()
	return s.probe.Check(ctx, request)
}

// finish moves the record into a terminal state, checkpoints it, removes it
// from the store and registry, and delivers the notification when there is
// one. Delivery failure is logged and does not undo the terminal state.
func (s *Scheduler) finish(p *poller, state domain.SearchState, message string) {
	ctx := context.Background()
	if p.record.State.CanTransition(state) {
		p.record.State = state
	}
	s.checkpoint(ctx, p.record)
	s.deleteRecord(ctx, p.record.ID)
	p.finished.Store(true)
	s.remove(p.record.ID, p.record.UserID)

	s.logger.Info(ctx, "search finished", map[string]interface{}{
		"search_id": p.record.ID,
		"user_id":   p.record.UserID,
		"route":     p.record.Request().Route(),
		"state":     string(p.record.State),
		"poll_seq":  p.record.PollSeq,
	})

	if message == "" {
		return
	}
	if err := s.sink.Notify(ctx, p.record.UserID, message); err != nil {
		deliveryErr := &domain.DeliveryError{UserID: p.record.UserID, Err: err}
		pkgApp.LogError(ctx, s.logger, "notification delivery failed", deliveryErr, map[string]interface{}{
			"search_id": p.record.ID,
		})
	}
}

// checkpoint persists the record's current state. A failed checkpoint is
// logged and left for the next cycle, which rewrites the same row.
func (s *Scheduler) checkpoint(ctx context.Context, record domain.SearchRecord) {
	if err := s.repo.Update(ctx, record); err != nil {
		pkgApp.LogError(ctx, s.logger, "checkpoint failed", err, map[string]interface{}{
			"search_id": record.ID,
			"state":     string(record.State),
		})
	}
}

// deleteRecord removes the row, retrying once before giving up. A row left
// behind carries a terminal state and is discarded on the next recovery.
func (s *Scheduler) deleteRecord(ctx context.Context, id string) {
	err := s.repo.Delete(ctx, id)
	if err == nil {
		return
	}
	if err = s.repo.Delete(ctx, id); err != nil {
		pkgApp.LogError(ctx, s.logger, "deleting search record failed", err, map[string]interface{}{
			"search_id": id,
		})
	}
}

// nextDelay jitters the poll interval by ±PollJitter so many pollers do not
// hit the booking site in lockstep.
func (s *Scheduler) nextDelay() time.Duration {
	base := float64(s.cfg.PollInterval)
	variation := base * s.cfg.PollJitter
	return time.Duration(base + variation*(2*rand.Float64()-1))
}
