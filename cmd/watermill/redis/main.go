package main

import (
	"context"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-railwatch/internal/config"
	"github.com/mateusmacedo/go-railwatch/internal/search"
	"github.com/mateusmacedo/go-railwatch/internal/search/application"
	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	"github.com/mateusmacedo/go-railwatch/internal/search/infrastructure"
	"github.com/mateusmacedo/go-railwatch/internal/search/scheduler"
	pkgDomain "github.com/mateusmacedo/go-railwatch/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-railwatch/pkg/infrastructure"
	redisAdapter "github.com/mateusmacedo/go-railwatch/pkg/infrastructure/redis/adapter"
	watermillAdapter "github.com/mateusmacedo/go-railwatch/pkg/infrastructure/watermill/adapter"
	zapAdapter "github.com/mateusmacedo/go-railwatch/pkg/infrastructure/zaplogger/adapter"
)

// Variant of the service with redis streams as the message transport and an
// in-memory store, for running without postgres.
func main() {
	appLogger, err := zapAdapter.NewZapAppLogger()
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		appLogger.Error(ctx, "invalid configuration", map[string]interface{}{"error": err})
		os.Exit(1)
	}

	location, err := cfg.Location()
	if err != nil {
		appLogger.Error(ctx, "invalid timezone", map[string]interface{}{"error": err, "timezone": cfg.Timezone})
		os.Exit(1)
	}

	redisAddr := "localhost:6379"
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		redisAddr = v
	}

	logger := watermillAdapter.NewWatermillLoggerAdapter(appLogger)
	redisClient := redisAdapter.NewRedisClient(redisAddr)
	defer redisClient.Close()

	publisher, err := redisAdapter.NewRedisPublisher(redisClient, logger)
	if err != nil {
		appLogger.Error(ctx, "failed to create redis publisher", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	defer publisher.Close()

	subscriber, err := redisAdapter.NewRedisSubscriber(redisClient, "railwatch_group", logger)
	if err != nil {
		appLogger.Error(ctx, "failed to create redis subscriber", map[string]interface{}{"error": err})
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
			PollInterval:       cfg.PollInterval,
			PollJitter:         cfg.PollJitter,
			FailureCeiling:     cfg.FailureCeiling,
			MaxSearchesPerUser: cfg.MaxSearchesPerUser,
			ProbeTimeout:       cfg.ProbeTimeout,
			Location:           location,
		},
		buses,
		repository,
		infrastructure.NewRailProbe(cfg.RailBaseURL, appLogger),
		pkgInfra.GenerateUUID,
		appLogger,
	)

	router := chi.NewRouter()
	searchSlice.RegisterRoutes(router)

	appLogger.Info(ctx, "server starting on "+cfg.HTTPAddr, nil)
	if err := http.ListenAndServe(cfg.HTTPAddr, router); err != nil {
		appLogger.Error(ctx, "server failed", map[string]interface{}{"error": err})
	}
}
