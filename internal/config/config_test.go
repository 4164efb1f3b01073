package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_CONNECTION_STRING", "postgres://localhost:5432/coursemart")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("SUPABASE_S3_URL", "http://localhost:54321/storage/v1/s3")
	t.Setenv("SUPABASE_S3_BUCKET", "media")
	t.Setenv("SUPABASE_S3_REGION", "local")
	t.Setenv("SUPABASE_S3_ACCESS_KEY", "key")
	t.Setenv("SUPABASE_S3_SECRET_KEY", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mux", cfg.VideoProvider)
	assert.Equal(t, 1200, cfg.PhonePeOrderExpirySec)
	assert.Equal(t, "video_queue", cfg.VideoQueueName)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	require.NoError(t, os.Unsetenv("DB_CONNECTION_STRING"))

	_, err := Load()
	assert.Error(t, err)
}

func TestAdminEmailSet(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_EMAILS", " Owner@Example.com ,ops@example.com,")

	cfg, err := Load()
	require.NoError(t, err)

	set := cfg.AdminEmailSet()
	assert.Len(t, set, 2)
	assert.Contains(t, set, "owner@example.com")
	assert.Contains(t, set, "ops@example.com")
}
