package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"coursemart/internal/config"
	"coursemart/internal/database"
	"coursemart/internal/notifications"
	"coursemart/internal/payment"
	"coursemart/internal/pubsub"
	"coursemart/internal/repository"
	"coursemart/internal/service"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// backend is what the commands run against: the same repositories and
// checkout service the API uses.
type backend struct {
	courses  repository.CourseRepository
	checkout service.CheckoutService
	close    func()
}

func openBackend(ctx context.Context, verbose bool) (*backend, error) {
	_ = godotenv.Load()

	logger := zerolog.New(io.Discard)
	if verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.SecretManagerEnabled {
		secrets, err := service.NewSecretManagerService(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create secret manager client: %w", err)
		}
		service.ResolveSecrets(ctx, cfg, secrets, logger)
		_ = secrets.Close()
	}

	pool, err := database.NewPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	closers := []func(){pool.Close}
	var publisher pubsub.Publisher = pubsub.NoopPublisher{}
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			pool.Close()
			return nil, err
		}
		publisher = p
		closers = append(closers, func() { _ = p.Close() })
	}

	courses := repository.NewCourseRepo(pool)
	checkout := service.NewCheckoutService(
		courses,
		repository.NewPurchaseRepo(pool),
		payment.NewGatewaysFromConfig(cfg),
		publisher,
		notifications.NewSender(cfg, logger),
		service.NewCheckoutConfig(cfg),
		logger,
	)
	return &backend{
		courses:  courses,
		checkout: checkout,
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}
