package payment

import (
	"testing"

	"coursemart/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGatewaysFromConfig(t *testing.T) {
	assert.Empty(t, NewGatewaysFromConfig(&config.Config{}))

	gateways := NewGatewaysFromConfig(&config.Config{
		PhonePeClientID:       "client",
		PhonePeClientSecret:   "secret",
		PhonePeOrderExpirySec: 1200,
		StripeSecretKey:       "sk_test_123",
	})
	require.Len(t, gateways, 2)
	assert.Equal(t, GatewayPhonePe, gateways[0].Name())
	assert.Equal(t, GatewayStripe, gateways[1].Name())
}

func TestNormaliseState(t *testing.T) {
	assert.Equal(t, StateCompleted, normaliseState("COMPLETED"))
	assert.Equal(t, StateFailed, normaliseState("FAILED"))
	assert.Equal(t, StatePending, normaliseState("PENDING"))
	assert.Equal(t, StatePending, normaliseState("SOMETHING_NEW"))
}
