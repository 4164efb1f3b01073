package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursemart/internal/api/v1/router"
	"coursemart/internal/config"
	"coursemart/internal/database"
	"coursemart/internal/logger"
	"coursemart/internal/middleware"
	"coursemart/internal/notifications"
	"coursemart/internal/payment"
	"coursemart/internal/pgmq"
	"coursemart/internal/pubsub"
	"coursemart/internal/repository"
	"coursemart/internal/service"
	"coursemart/internal/video"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	logger := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	ctx := context.Background()

	// 2. Resolve secrets that are not set in the environment
	if cfg.SecretManagerEnabled {
		secrets, err := service.NewSecretManagerService(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Secret Manager client: %v", err)
		}
		service.ResolveSecrets(ctx, cfg, secrets, logger)
		_ = secrets.Close()
	}

	// 3. Open DB connection pool
	pool, err := database.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// The video queue is pgmq, which is driven through database/sql.
	queueDB := stdlib.OpenDBFromPool(pool)
	defer queueDB.Close()
	queue := pgmq.New(queueDB)

	// 4. Initialize S3 storage
	s3Client, err := service.NewS3Client(ctx, cfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to create S3 client: %v", err)
	}
	storage := service.NewStorageService(s3Client, cfg.S3Bucket, cfg.PublicBaseURL)

	// 5. Initialize Pub/Sub publisher
	var publisher pubsub.Publisher = pubsub.NoopPublisher{}
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Pub/Sub publisher: %v", err)
		}
		defer p.Close()
		publisher = p
	} else {
		logger.Warn().Msg("GCP_PROJECT_ID not set, purchase events are not published")
	}

	// 6. Initialize repositories & services
	courseRepo := repository.NewCourseRepo(pool)
	lessonRepo := repository.NewLessonRepo(pool)
	purchaseRepo := repository.NewPurchaseRepo(pool)
	slideRepo := repository.NewHeroSlideRepo(pool)
	testimonialRepo := repository.NewTestimonialRepo(pool)

	providers := video.NewRegistryFromConfig(cfg)
	gateways := payment.NewGatewaysFromConfig(cfg)
	if len(gateways) == 0 {
		logger.Warn().Msg("No payment gateway configured, only free courses can be checked out")
	}

	mailer := notifications.NewSender(cfg, logger)
	checkoutSvc := service.NewCheckoutService(courseRepo, purchaseRepo, gateways, publisher, mailer, service.NewCheckoutConfig(cfg), logger)

	svc := router.Services{
		Catalog:  service.NewCatalogService(courseRepo, lessonRepo, purchaseRepo, slideRepo, testimonialRepo, logger),
		Checkout: checkoutSvc,
		Courses:  service.NewCourseService(courseRepo, lessonRepo, providers, storage, logger),
		Lessons:  service.NewLessonService(lessonRepo, courseRepo, providers, queue, cfg.VideoQueueName, logger),
		Content:  service.NewContentService(slideRepo, testimonialRepo, storage, logger),
	}

	// 7. Build router
	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.AdminEmailSet(), logger)
	r := router.New(cfg, svc, auth, logger)

	// 8. Create HTTP server. Checkout waits on the gateway, so writes get more room than reads.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 9. Start server in a goroutine
	go func() {
		logger.Info().Msgf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Msgf("Listen: %s", err)
		}
	}()

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Msgf("Server forced to shutdown: %v", err)
	}
	logger.Info().Msg("Server shut down gracefully")
}
