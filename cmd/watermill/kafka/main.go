package main

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/mateusmacedo/go-railwatch/internal/search"
	"github.com/mateusmacedo/go-railwatch/internal/search/application"
	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	"github.com/mateusmacedo/go-railwatch/internal/search/infrastructure"
	"github.com/mateusmacedo/go-railwatch/internal/search/scheduler"
	pkgDomain "github.com/mateusmacedo/go-railwatch/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-railwatch/pkg/infrastructure"
	kafkaAdapter "github.com/mateusmacedo/go-railwatch/pkg/infrastructure/kafka/adapter"
	watermillAdapter "github.com/mateusmacedo/go-railwatch/pkg/infrastructure/watermill/adapter"
	zapAdapter "github.com/mateusmacedo/go-railwatch/pkg/infrastructure/zaplogger/adapter"
)

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
	ctx := context.Background()

	brokers := []string{"localhost:9092"}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = []string{v}
	}

	logger := watermillAdapter.NewWatermillLoggerAdapter(appLogger)

	publisher, err := kafkaAdapter.NewKafkaPublisher(brokers, logger)
	if err != nil {
		appLogger.Error(ctx, "failed to create kafka publisher", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	defer publisher.Close()

	subscriber, err := kafkaAdapter.NewKafkaSubscriber(brokers, "railwatch_consumer_group", logger)
	if err != nil {
		appLogger.Error(ctx, "failed to create kafka subscriber", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	defer subscriber.Close()

	repository := infrastructure.NewInMemorySearchRepository()

	buses := search.Buses{
		SubmitSearch:       watermillAdapter.NewWatermillCommandBus[pkgDomain.Command[application.SubmitSearchData], application.SubmitSearchData](publisher, subscriber, appLogger),
		CancelSearch:       watermillAdapter.NewWatermillCommandBus[pkgDomain.Command[application.CancelSearchData], application.CancelSearchData](publisher, subscriber, appLogger),
		CancelUserSearches: watermillAdapter.NewWatermillCommandBus[pkgDomain.Command[application.CancelUserSearchesData], application.CancelUserSearchesData](publisher, subscriber, appLogger),
		ListUserSearches:   watermillAdapter.NewWatermillQueryBus[pkgDomain.Query[application.ListUserSearchesData], application.ListUserSearchesData, []domain.SearchRecord](publisher, subscriber, appLogger),
		SearchNotification: watermillAdapter.NewWatermillEventBus[pkgDomain.Event[application.SearchNotificationData], application.SearchNotificationData](publisher, subscriber, appLogger),
	}

	searchSlice := search.NewSearchSlice(
		scheduler.Config{
			PollInterval: 500 * time.Millisecond,
			PollJitter:   0.1,
			Location:     time.UTC,
		},
		buses,
		repository,
		&demoProbe{},
		pkgInfra.GenerateUUID,
		appLogger,
	)

	runCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	tomorrow := time.Now().UTC().Add(24 * time.Hour)
	command := application.NewSubmitSearchCommand(application.SubmitSearchData{
		Origin:      "Minsk",
		Destination: "Gomel",
		TravelDate:  tomorrow.Format(domain.DateFormat),
		TravelTime:  "17:05",
		UserID:      7,
	})

	if err := buses.SubmitSearch.Dispatch(runCtx, command); err != nil {
		appLogger.Error(runCtx, "failed to dispatch search submission", map[string]interface{}{"error": err})
		return
	}
	appLogger.Info(runCtx, "search submission dispatched", nil)

	time.Sleep(4 * time.Second)

	query := application.NewListUserSearchesQuery(application.ListUserSearchesData{UserID: 7})
	records, err := buses.ListUserSearches.Dispatch(runCtx, query)
	if err != nil {
		appLogger.Error(runCtx, "failed to list searches", map[string]interface{}{"error": err})
	} else {
		appLogger.Info(runCtx, "remaining searches after the offer was found", map[string]interface{}{
			"count": len(records),
		})
	}

	coordinator := scheduler.NewShutdownCoordinator(searchSlice.Scheduler(), 2*time.Second, appLogger)
	coordinator.Shutdown()
}
