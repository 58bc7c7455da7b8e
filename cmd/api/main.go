package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/MathijsBok/ticket-system-sub002/internal/api/http"
	"github.com/MathijsBok/ticket-system-sub002/internal/api/http/handlers"
	"github.com/MathijsBok/ticket-system-sub002/internal/auth"
	"github.com/MathijsBok/ticket-system-sub002/internal/config"
	"github.com/MathijsBok/ticket-system-sub002/internal/events"
	"github.com/MathijsBok/ticket-system-sub002/internal/observability"
	"github.com/MathijsBok/ticket-system-sub002/internal/persistence"
	"github.com/MathijsBok/ticket-system-sub002/internal/repository"
	"github.com/MathijsBok/ticket-system-sub002/internal/scheduler"
	"github.com/MathijsBok/ticket-system-sub002/internal/service"
	"github.com/MathijsBok/ticket-system-sub002/internal/worker"
)

func main() {
	root := &cobra.Command{
		Use:   "ticket-engine",
		Short: "Ticket lifecycle and automation engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the automation sweep",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Run a single automation sweep pass and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSweepOnce(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd.Context())
			},
		},
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// runtime holds wired dependencies shared by the subcommands.
type runtime struct {
	cfg      *config.Config
	logger   *zap.Logger
	pg       *persistence.Postgres
	redis    *persistence.Redis
	store    repository.Store
	metrics  *observability.Metrics
	sweeper  *scheduler.Sweeper
	handlers httptransport.RouteConfig
}

func bootstrap(ctx context.Context, migrate bool) (*runtime, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, nil, err
	}
	if migrate && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			pg.Close()
			return nil, nil, err
		}
	}
	rdb := persistence.NewRedis(cfg.Redis, logger)

	store := repository.NewPostgresStore(pg.PoolHandle())
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.FeedbackTokenTTLDays)

	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		Store:      store,
		Automation: cfg.Automation,
		Dispatcher: dispatcher,
	})
	tickets := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Dispatcher: dispatcher,
	})
	merges := service.NewMergeService(service.MergeDependencies{
		Store:      store,
		Dispatcher: dispatcher,
	})
	problems := service.NewProblemService(store)
	feedback := service.NewFeedbackService(service.FeedbackDependencies{
		Store:      store,
		Tokens:     tokens,
		Dispatcher: dispatcher,
	})
	notifications, err := service.NewNotificationService(service.NotificationDependencies{
		Config:     cfg.Notification,
		Dispatcher: dispatcher,
		Feedback:   feedback,
		Logger:     logger,
	})
	if err != nil {
		pg.Close()
		rdb.Close()
		return nil, nil, err
	}
	worker.StartNotificationWorker(notifications)

	sweeper := scheduler.NewSweeper(scheduler.SweeperDependencies{
		Store:      store,
		Lifecycle:  lifecycle,
		Automation: cfg.Automation,
		Redis:      rdb.Client,
		Logger:     logger,
		Metrics:    metrics,
	})

	authMiddleware := auth.NewAuthMiddleware(tokens)
	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		pg:      pg,
		redis:   rdb,
		store:   store,
		metrics: metrics,
		sweeper: sweeper,
		handlers: httptransport.RouteConfig{
			Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb),
			Tickets:        handlers.NewTicketsHandler(tickets, lifecycle),
			AgentTickets:   handlers.NewAgentTicketsHandler(lifecycle, merges, problems),
			Feedback:       handlers.NewFeedbackHandler(feedback),
			AuthMiddleware: authMiddleware,
		},
	}
	cleanup := func() {
		rdb.Close()
		pg.Close()
		_ = logger.Sync()
	}
	return rt, cleanup, nil
}

func runServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, cleanup, err := bootstrap(ctx, true)
	if err != nil {
		log.Printf("bootstrap failed: %v", err)
		return err
	}
	defer cleanup()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, rt.logger, rt.metrics, rt.cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, rt.handlers)

	go rt.sweeper.Run(ctx)
	go func() {
		if err := app.Listen(rt.cfg.App.Addr()); err != nil {
			rt.logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(rt.logger)
	cancel()
	return app.Shutdown()
}

func runSweepOnce(ctx context.Context) error {
	rt, cleanup, err := bootstrap(ctx, true)
	if err != nil {
		log.Printf("bootstrap failed: %v", err)
		return err
	}
	defer cleanup()

	result, err := rt.sweeper.Sweep(ctx)
	if err != nil {
		return err
	}
	rt.logger.Info("sweep complete",
		zap.Int("reminders", result.RemindersSent),
		zap.Int("auto_solved", result.AutoSolved),
		zap.Int("auto_closed", result.AutoClosed),
		zap.Int("attachments_deleted", result.AttachmentsDeleted),
		zap.Int("failures", result.Failures))
	return nil
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()
	return persistence.RunMigrations(ctx, pg.PoolHandle(), logger)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
