package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-railwatch/internal/config"
	"github.com/mateusmacedo/go-railwatch/internal/search"
	"github.com/mateusmacedo/go-railwatch/internal/search/application"
	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	"github.com/mateusmacedo/go-railwatch/internal/search/infrastructure"
	"github.com/mateusmacedo/go-railwatch/internal/search/scheduler"
	pkgDomain "github.com/mateusmacedo/go-railwatch/pkg/domain"
	pkgInfra "github.com/mateusmacedo/go-railwatch/pkg/infrastructure"
	zapAdapter "github.com/mateusmacedo/go-railwatch/pkg/infrastructure/zaplogger/adapter"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger, err := zapAdapter.NewZapAppLogger()
	if err != nil {
		panic(err)
	}

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

	repository, err := infrastructure.NewGormSearchRepository(cfg.DatabaseDSN, appLogger)
	if err != nil {
		appLogger.Error(ctx, "failed to initialize search store", map[string]interface{}{"error": err})
		os.Exit(1)
	}

	buses := search.Buses{
		SubmitSearch:       pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.SubmitSearchData], application.SubmitSearchData](appLogger),
		CancelSearch:       pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.CancelSearchData], application.CancelSearchData](appLogger),
		CancelUserSearches: pkgInfra.NewSimpleCommandBus[pkgDomain.Command[application.CancelUserSearchesData], application.CancelUserSearchesData](appLogger),
		ListUserSearches:   pkgInfra.NewSimpleQueryBus[pkgDomain.Query[application.ListUserSearchesData], application.ListUserSearchesData, []domain.SearchRecord](appLogger),
		SearchNotification: pkgInfra.NewSimpleEventBus[pkgDomain.Event[application.SearchNotificationData], application.SearchNotificationData](appLogger),
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

	recovery := scheduler.NewRecoveryManager(repository, searchSlice.Scheduler(), appLogger)
	if err := recovery.Run(ctx); err != nil {
		appLogger.Error(ctx, "recovery failed", map[string]interface{}{"error": err})
		os.Exit(1)
	}

	router := chi.NewRouter()
	searchSlice.RegisterRoutes(router)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		appLogger.Info(ctx, "signal received", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		appLogger.Info(ctx, "server starting on "+cfg.HTTPAddr, nil)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error(ctx, "server failed", map[string]interface{}{"error": err})
			cancel()
		}
	}()

	<-ctx.Done()
	appLogger.Info(context.Background(), "shutting down", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(context.Background(), "server shutdown failed", map[string]interface{}{"error": err})
	}

	coordinator := scheduler.NewShutdownCoordinator(searchSlice.Scheduler(), cfg.QuiesceTimeout, appLogger)
	coordinator.Shutdown()

	appLogger.Info(context.Background(), "stopped", nil)
}
