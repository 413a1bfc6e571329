package search

import (
	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-railwatch/internal/search/application"
	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	"github.com/mateusmacedo/go-railwatch/internal/search/infrastructure"
	"github.com/mateusmacedo/go-railwatch/internal/search/scheduler"
	pkgApp "github.com/mateusmacedo/go-railwatch/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-railwatch/pkg/domain"
)

// Buses groups the message buses the slice consumes. Each payload type needs
// its own bus instance.
type Buses struct {
	SubmitSearch       pkgApp.CommandBus[pkgDomain.Command[application.SubmitSearchData], application.SubmitSearchData]
	CancelSearch       pkgApp.CommandBus[pkgDomain.Command[application.CancelSearchData], application.CancelSearchData]
	CancelUserSearches pkgApp.CommandBus[pkgDomain.Command[application.CancelUserSearchesData], application.CancelUserSearchesData]
	ListUserSearches   pkgApp.QueryBus[pkgDomain.Query[application.ListUserSearchesData], application.ListUserSearchesData, []domain.SearchRecord]
	SearchNotification pkgApp.EventBus[pkgDomain.Event[application.SearchNotificationData], application.SearchNotificationData]
}

type SearchSlice struct {
	httpHandler *infrastructure.SearchHTTPHandler
	scheduler   *scheduler.Scheduler
}

// NewSearchSlice wires the scheduling core to the buses and the HTTP surface.
// Notifications leave through the event bus; a log-based delivery handler is
// registered as the default subscriber.
func NewSearchSlice(
	cfg scheduler.Config,
	buses Buses,
	repository domain.SearchRepository,
	probe domain.AvailabilityProbe,
	idGenerator pkgDomain.IDGenerator[string],
	logger pkgApp.AppLogger,
) *SearchSlice {
	sink := infrastructure.NewEventBusNotifier(buses.SearchNotification)
	sched := scheduler.NewScheduler(cfg, repository, probe, sink, idGenerator, logger)

	buses.SubmitSearch.RegisterHandler("SubmitSearch", application.NewSubmitSearchHandler(sched, cfg.Location, logger))
	buses.CancelSearch.RegisterHandler("CancelSearch", application.NewCancelSearchHandler(sched, logger))
	buses.CancelUserSearches.RegisterHandler("CancelUserSearches", application.NewCancelUserSearchesHandler(sched, logger))
	buses.ListUserSearches.RegisterHandler("ListUserSearches", application.NewListUserSearchesHandler(repository, logger))
	buses.SearchNotification.RegisterHandler("SearchNotification", application.NewSearchNotificationHandler(logger))

	httpHandler := infrastructure.NewSearchHTTPHandler(sched, buses.ListUserSearches, cfg.Location, logger)

	return &SearchSlice{
		httpHandler: httpHandler,
		scheduler:   sched,
	}
}

// Scheduler exposes the core so the entrypoint can run recovery and shutdown
// around it.
func (s *SearchSlice) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

func (s *SearchSlice) RegisterRoutes(router *chi.Mux) {
	s.httpHandler.RegisterRoutes(router)
}
