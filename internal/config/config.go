package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string   `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string   `envconfig:"SUPABASE_JWT_SECRET" required:"true"`
	AdminEmails        []string `envconfig:"ADMIN_EMAILS"`

	// Supabase storage (S3 compatible)
	S3URL         string `envconfig:"SUPABASE_S3_URL" required:"true"`
	S3Bucket      string `envconfig:"SUPABASE_S3_BUCKET" required:"true"`
	S3Region      string `envconfig:"SUPABASE_S3_REGION" required:"true"`
	S3AccessKey   string `envconfig:"SUPABASE_S3_ACCESS_KEY" required:"true"`
	S3SecretKey   string `envconfig:"SUPABASE_S3_SECRET_KEY" required:"true"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL"`

	// Advertised in the OpenAPI document
	APIBaseURL string `envconfig:"API_BASE_URL" default:"http://localhost:8080/v1"`

	// Where PhonePe and Stripe send the buyer back to after paying
	FrontendBaseURL string `envconfig:"FRONTEND_BASE_URL" default:"http://localhost:3000"`

	// Gateway used when a checkout does not name one
	PaymentGateway string `envconfig:"PAYMENT_GATEWAY" default:"phonepe"`

	// PhonePe standard checkout
	PhonePeClientID          string `envconfig:"PHONEPE_CLIENT_ID"`
	PhonePeClientSecret      string `envconfig:"PHONEPE_CLIENT_SECRET"`
	PhonePeClientVersion     string `envconfig:"PHONEPE_CLIENT_VERSION" default:"1"`
	PhonePeBaseURL           string `envconfig:"PHONEPE_BASE_URL" default:"https://api-preprod.phonepe.com/apis/pg-sandbox"`
	PhonePeAuthURL           string `envconfig:"PHONEPE_AUTH_URL" default:"https://api-preprod.phonepe.com/apis/pg-sandbox"`
	PhonePeWebhookUsername   string `envconfig:"PHONEPE_WEBHOOK_USERNAME"`
	PhonePeWebhookPassword   string `envconfig:"PHONEPE_WEBHOOK_PASSWORD"`
	PhonePeOrderExpirySec    int    `envconfig:"PHONEPE_ORDER_EXPIRY_SEC" default:"1200"`
	PhonePeRequestTimeoutSec int    `envconfig:"PHONEPE_REQUEST_TIMEOUT_SEC" default:"15"`

	// Stripe checkout
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	// Video hosting
	VideoProvider         string `envconfig:"VIDEO_PROVIDER" default:"mux"`
	MuxTokenID            string `envconfig:"MUX_TOKEN_ID"`
	MuxTokenSecret        string `envconfig:"MUX_TOKEN_SECRET"`
	MuxCORSOrigin         string `envconfig:"MUX_CORS_ORIGIN" default:"*"`
	VimeoAccessToken      string `envconfig:"VIMEO_ACCESS_TOKEN"`
	CloudflareAccountID   string `envconfig:"CLOUDFLARE_ACCOUNT_ID"`
	CloudflareAPIToken    string `envconfig:"CLOUDFLARE_API_TOKEN"`
	CloudflareMaxDuration int    `envconfig:"CLOUDFLARE_MAX_DURATION_SEC" default:"21600"`

	// Video orchestrator settings
	VideoQueueName           string `envconfig:"VIDEO_QUEUE_NAME" default:"video_queue"`
	VideoPollTimeoutSec      int    `envconfig:"VIDEO_POLL_TIMEOUT_SEC" default:"30"`
	VideoPollMaxMsg          int    `envconfig:"VIDEO_POLL_MAX_MSG" default:"1"`
	VideoMaxAttempts         int    `envconfig:"VIDEO_MAX_ATTEMPTS" default:"40"`
	VideoBackoffInitialSec   int    `envconfig:"VIDEO_BACKOFF_INITIAL_SEC" default:"5"`
	VideoBackoffMaxSec       int    `envconfig:"VIDEO_BACKOFF_MAX_SEC" default:"120"`
	VideoDeadLetterQueueName string `envconfig:"VIDEO_DEAD_LETTER_QUEUE_NAME" default:"video_queue_dlq"`

	// Payment reconciliation settings
	ReconcileIntervalSec int     `envconfig:"RECONCILE_INTERVAL_SEC" default:"60"`
	ReconcileMinAgeSec   int     `envconfig:"RECONCILE_MIN_AGE_SEC" default:"120"`
	ReconcileBatchSize   int     `envconfig:"RECONCILE_BATCH_SIZE" default:"50"`
	ReconcileRatePerSec  float64 `envconfig:"RECONCILE_RATE_PER_SEC" default:"2"`
	ReconcileGraceSec    int     `envconfig:"RECONCILE_GRACE_SEC" default:"600"`

	// Google Cloud
	GCPProjectID         string `envconfig:"GCP_PROJECT_ID"`
	GCPCredentialsFile   string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	PubSubPurchaseTopic  string `envconfig:"PUBSUB_PURCHASE_TOPIC" default:"purchase-completed"`
	SecretManagerEnabled bool   `envconfig:"SECRET_MANAGER_ENABLED" default:"false"`

	// Receipts
	SendGridAPIKey    string `envconfig:"SENDGRID_API_KEY"`
	SendGridFromEmail string `envconfig:"SENDGRID_FROM_EMAIL" default:"no-reply@coursemart.dev"`
	SendGridFromName  string `envconfig:"SENDGRID_FROM_NAME" default:"Coursemart"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs against local infrastructure.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// AdminEmailSet returns the configured admin emails, normalised for lookup.
func (c *Config) AdminEmailSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.AdminEmails))
	for _, e := range c.AdminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		set[e] = struct{}{}
	}
	return set
}
