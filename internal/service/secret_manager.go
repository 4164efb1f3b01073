package service

import (
	"context"
	"fmt"

	"coursemart/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// SecretManagerService reads gateway and provider credentials from Google Secret Manager.
type SecretManagerService interface {
	GetSecret(ctx context.Context, name string) (string, error)
	Close() error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretManagerService(ctx context.Context, cfg *config.Config) (SecretManagerService, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP Project ID is not set for the current environment")
	}

	var opts []option.ClientOption
	if cfg.GCPCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPCredentialsFile))
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &secretManagerService{
		client:    client,
		projectID: cfg.GCPProjectID,
	}, nil
}

func (s *secretManagerService) GetSecret(ctx context.Context, name string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name)

	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}

	return string(result.Payload.Data), nil
}

func (s *secretManagerService) Close() error {
	return s.client.Close()
}

// secretFields lists the config values that may live in Secret Manager, keyed by secret name.
func secretFields(cfg *config.Config) map[string]*string {
	return map[string]*string{
		"phonepe-client-secret":    &cfg.PhonePeClientSecret,
		"phonepe-webhook-password": &cfg.PhonePeWebhookPassword,
		"stripe-secret-key":        &cfg.StripeSecretKey,
		"stripe-webhook-secret":    &cfg.StripeWebhookSecret,
		"mux-token-secret":         &cfg.MuxTokenSecret,
		"vimeo-access-token":       &cfg.VimeoAccessToken,
		"cloudflare-api-token":     &cfg.CloudflareAPIToken,
		"sendgrid-api-key":         &cfg.SendGridAPIKey,
	}
}

// ResolveSecrets fills every empty secret field of cfg from the secret store.
// Secrets that are missing from the store are logged and left empty.
func ResolveSecrets(ctx context.Context, cfg *config.Config, secrets SecretManagerService, logger zerolog.Logger) {
	for name, field := range secretFields(cfg) {
		if *field != "" {
			continue
		}
		value, err := secrets.GetSecret(ctx, name)
		if err != nil {
			logger.Warn().Err(err).Str("secret", name).Msg("Secret not resolved")
			continue
		}
		*field = value
	}
}
