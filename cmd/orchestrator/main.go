package main

import (
	"context"
	"database/sql"
	"flag"
	"os/signal"
	"syscall"

	"coursemart/internal/config"
	"coursemart/internal/database"
	"coursemart/internal/logger"
	"coursemart/internal/notifications"
	"coursemart/internal/orchestrator/reconcile"
	"coursemart/internal/orchestrator/videosync"
	"coursemart/internal/payment"
	"coursemart/internal/pgmq"
	"coursemart/internal/pubsub"
	"coursemart/internal/repository"
	"coursemart/internal/service"
	"coursemart/internal/video"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "all", "Orchestrator mode: video|reconcile|all")
	flag.Parse()

	// Initialize logger
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	switch *mode {
	case "video", "reconcile", "all":
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.SecretManagerEnabled {
		secrets, err := service.NewSecretManagerService(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Secret Manager client: %v", err)
		}
		service.ResolveSecrets(ctx, cfg, secrets, logger)
		_ = secrets.Close()
	}

	// Repositories go through pgx, the queue through lib/pq
	pool, err := database.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	g, gctx := errgroup.WithContext(ctx)
	if *mode == "video" || *mode == "all" {
		db, err := sql.Open("postgres", cfg.DBConnectionString)
		if err != nil {
			logger.Fatal().Msgf("Failed to open DB connection: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal().Msgf("Failed to ping DB: %v", err)
		}
		worker := newVideoWorker(cfg, pool, pgmq.New(db), logger)
		g.Go(func() error { return worker.Run(gctx) })
	}
	if *mode == "reconcile" || *mode == "all" {
		worker, closeFn := newReconcileWorker(ctx, cfg, pool, logger)
		defer closeFn()
		g.Go(func() error { return worker.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Fatal().Msgf("%s orchestrator failed: %v", *mode, err)
	}
	logger.Info().Msgf("%s orchestrator stopped gracefully", *mode)
}

func newVideoWorker(cfg *config.Config, pool *pgxpool.Pool, queue *pgmq.Client, logger zerolog.Logger) *videosync.Worker {
	providers := video.NewRegistryFromConfig(cfg)
	processor := videosync.NewProcessor(repository.NewLessonRepo(pool), providers, logger)
	return videosync.NewWorker(cfg, queue, processor, logger)
}

// newReconcileWorker wires the checkout service the reconcile sweep drives.
// The returned func releases the Pub/Sub client.
func newReconcileWorker(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*reconcile.Worker, func()) {
	closeFn := func() {}
	var publisher pubsub.Publisher = pubsub.NoopPublisher{}
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Pub/Sub publisher: %v", err)
		}
		publisher = p
		closeFn = func() { _ = p.Close() }
	}

	checkout := service.NewCheckoutService(
		repository.NewCourseRepo(pool),
		repository.NewPurchaseRepo(pool),
		payment.NewGatewaysFromConfig(cfg),
		publisher,
		notifications.NewSender(cfg, logger),
		service.NewCheckoutConfig(cfg),
		logger,
	)
	return reconcile.NewWorker(cfg, checkout, logger), closeFn
}
