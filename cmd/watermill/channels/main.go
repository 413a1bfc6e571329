package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mateusmacedo/go-railwatch/internal/search"
	"github.com/mateusmacedo/go-railwatch/internal/search/application"
	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	"github.com/mateusmacedo/go-railwatch/internal/search/infrastructure"
	"github.com/mateusmacedo/go-railwatch/internal/search/scheduler"
	pkgDomain "github.com/mateusmacedo/go-railwatch/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-railwatch/pkg/infrastructure"
	channelsAdapter "github.com/mateusmacedo/go-railwatch/pkg/infrastructure/channels/adapter"
	watermillAdapter "github.com/mateusmacedo/go-railwatch/pkg/infrastructure/watermill/adapter"
	zapAdapter "github.com/mateusmacedo/go-railwatch/pkg/infrastructure/zaplogger/adapter"
)

// demoProbe reports no availability twice, then an offer. It stands in for
// the live schedule page so the demo runs without network access.
type demoProbe struct {
	calls atomic.Int32
}

func (p *demoProbe) Check(ctx context.Context, request domain.SearchRequest) (domain.AvailabilityResult, error) {
	if p.calls.Add(1) < 3 {
		return domain.AvailabilityResult{Available: false}, nil
	}
	return domain.AvailabilityResult{Available: true, Fingerprint: "demo-offer"}, nil
}

func main() {
	appLogger, err := zapAdapter.NewZapAppLogger()
	if err != nil {
		panic(err)
	}

	logger := watermillAdapter.NewWatermillLoggerAdapter(appLogger)
	pubSub := channelsAdapter.NewGoChannelPubSub(logger)

	repository := infrastructure.NewInMemorySearchRepository()

	buses := search.Buses{
		SubmitSearch:       watermillAdapter.NewWatermillCommandBus[pkgDomain.Command[application.SubmitSearchData], application.SubmitSearchData](pubSub, pubSub, appLogger),
		CancelSearch:       watermillAdapter.NewWatermillCommandBus[pkgDomain.Command[application.CancelSearchData], application.CancelSearchData](pubSub, pubSub, appLogger),
		CancelUserSearches: watermillAdapter.NewWatermillCommandBus[pkgDomain.Command[application.CancelUserSearchesData], application.CancelUserSearchesData](pubSub, pubSub, appLogger),
		ListUserSearches:   watermillAdapter.NewWatermillQueryBus[pkgDomain.Query[application.ListUserSearchesData], application.ListUserSearchesData, []domain.SearchRecord](pubSub, pubSub, appLogger),
		SearchNotification: watermillAdapter.NewWatermillEventBus[pkgDomain.Event[application.SearchNotificationData], application.SearchNotificationData](pubSub, pubSub, appLogger),
	}

	searchSlice := search.NewSearchSlice(
		scheduler.Config{
			PollInterval: 300 * time.Millisecond,
			PollJitter:   0.1,
			Location:     time.UTC,
		},
		buses,
		repository,
		&demoProbe{},
		pkgInfra.GenerateUUID,
		appLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tomorrow := time.Now().UTC().Add(24 * time.Hour)
	command := application.NewSubmitSearchCommand(application.SubmitSearchData{
		Origin:      "Minsk",
		Destination: "Brest",
		TravelDate:  tomorrow.Format(domain.DateFormat),
		TravelTime:  "08:30",
		UserID:      42,
	})

	if err := buses.SubmitSearch.Dispatch(ctx, command); err != nil {
		appLogger.Error(ctx, "failed to dispatch search submission", map[string]interface{}{"error": err})
		return
	}
	appLogger.Info(ctx, "search submission dispatched", nil)

	// Give the poller a few cycles; the demo probe reports an offer on the
	// third check and the notification arrives through the event bus.
	time.Sleep(2 * time.Second)

	query := application.NewListUserSearchesQuery(application.ListUserSearchesData{UserID: 42})
	records, err := buses.ListUserSearches.Dispatch(ctx, query)
	if err != nil {
		appLogger.Error(ctx, "failed to list searches", map[string]interface{}{"error": err})
	} else {
		appLogger.Info(ctx, "remaining searches after the offer was found", map[string]interface{}{
			"count": len(records),
		})
	}

	coordinator := scheduler.NewShutdownCoordinator(searchSlice.Scheduler(), 2*time.Second, appLogger)
	coordinator.Shutdown()
}
