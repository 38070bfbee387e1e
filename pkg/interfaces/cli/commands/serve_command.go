package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newwavedigital/ERP-sub000/pkg/application/services/remediation"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/repositories"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/services"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/config"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/events"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/repositories/csv"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/repositories/gormstore"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/repositories/memory"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/repositories/redisstore"
	"github.com/newwavedigital/ERP-sub000/pkg/infrastructure/rpc"
	"github.com/newwavedigital/ERP-sub000/pkg/interfaces/api"
)

func newServeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator HTTP API",
		Long: `Starts the HTTP API. The catalog comes from the configured database
(database.driver postgres or sqlite) or from engine.catalog_dir. Sessions are
kept in redis when redis.host is set. Order allocation and remediation
triggers require rpc.base_url.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.serve(ctx)
		},
	}
}

func (a *App) serve(ctx context.Context) error {
	srv, cleanup, err := a.buildServer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting", zap.Int("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}
	a.Logger.Info("server exited")
	return nil
}

// buildServer wires the stores named by the configuration behind the API.
// The returned cleanup closes every connection that was opened.
func (a *App) buildServer(ctx context.Context) (*http.Server, func(), error) {
	cfg := a.Config
	logger := a.Logger

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("failed to close connection", zap.Error(err))
			}
		}
	}
	fail := func(err error) (*http.Server, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	var seed *services.Catalog
	if cfg.Engine.CatalogDir != "" {
		loaded, err := csv.NewLoader(logger).LoadCatalog(cfg.Engine.CatalogDir)
		if err != nil {
			return fail(fmt.Errorf("error loading catalog: %w", err))
		}
		seed = &loaded
	}

	var (
		catalog repositories.CatalogRepository
		alerts  repositories.AlertRepository
	)
	if cfg.Database.Driver != "" {
		db, err := gormstore.Open(cfg.Database, logger)
		if err != nil {
			return fail(err)
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, sqlDB.Close)
		}
		catalogRepo := gormstore.NewCatalogRepository(db, logger)
		if seed != nil {
			if err := catalogRepo.Import(ctx, *seed); err != nil {
				return fail(err)
			}
		}
		catalog = catalogRepo
		alerts = gormstore.NewAlertRepository(db)
	} else {
		catalogRepo := memory.NewCatalogRepository(0, 0)
		if seed != nil {
			if err := catalogRepo.LoadCatalog(*seed); err != nil {
				return fail(err)
			}
		}
		catalog = catalogRepo
		alerts = memory.NewAlertRepository()
	}

	var availability repositories.AvailabilityRepository
	if cfg.Engine.StockFile != "" {
		lots, err := csv.NewLoader(logger).LoadStock(cfg.Engine.StockFile)
		if err != nil {
			return fail(fmt.Errorf("error loading stock: %w", err))
		}
		stockRepo := memory.NewStockRepository()
		if err := stockRepo.LoadStockLots(lots); err != nil {
			return fail(err)
		}
		availability = stockRepo
	}

	var sessions repositories.SessionStore
	if cfg.Redis.Enabled() {
		client := redisstore.NewClient(cfg.Redis)
		closers = append(closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		}
		sessions = redisstore.NewSessionStore(client, cfg.Redis.KeyPrefix, cfg.Redis.SessionTTL, cfg.Redis.LockTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var (
		allocationGateway  repositories.AllocationGateway
		remediationGateway repositories.RemediationGateway
	)
	if cfg.RPC.BaseURL != "" {
		client := newRPCClient(cfg.RPC, logger)
		allocationGateway = client
		remediationGateway = client
	} else {
		logger.Warn("rpc.base_url not set, order allocation and remediation triggers are disabled")
	}

	publisher := events.NewBoundedEventStore(logger, cfg.Server.EventRetention)
	closers = append(closers, func() error {
		publisher.Wait()
		return nil
	})
	watched := []string{events.ShortageIdentifiedEvent, events.RemediationTriggerFailedEvent}
	if err := publisher.Subscribe(watched, &events.HandlerFunc{
		Types: watched,
		Fn: func(e events.Event) error {
			logger.Info("event", zap.String("type", e.Type()), zap.String("stream", e.StreamID()))
			return nil
		},
	}); err != nil {
		return fail(err)
	}
	calc := newOrchestrator(catalog, availability, allocationGateway, publisher, cfg.Engine, logger)
	remediator := remediation.NewService(sessions, remediationGateway, alerts, publisher, logger)

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.NewHandler(calc, remediator, logger), logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return srv, cleanup, nil
}

func newRPCClient(cfg config.RPCConfig, logger *zap.Logger) *rpc.Client {
	return rpc.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout,
		rpc.WithProcedures(rpc.Procedures{
			Allocate:     cfg.AllocateProcedure,
			Production:   cfg.ProductionProcedure,
			Purchase:     cfg.PurchaseProcedure,
			OrderIDParam: cfg.OrderIDParam,
		}),
		rpc.WithLogger(logger))
}
