package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

type fakeSessions struct {
	created *stripe.CheckoutSessionParams
	session *stripe.CheckoutSession
	err     error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.created = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func (f *fakeSessions) Get(id string, _ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func TestStripeInitiate(t *testing.T) {
	fs := &fakeSessions{}
	g := newStripe(fs, "whsec")
	g.now = func() time.Time { return time.Unix(1_700_000_000, 0) }

	sess, err := g.Initiate(context.Background(), CheckoutRequest{
		MerchantOrderID: "CM_1",
		UserID:          "u1",
		UserEmail:       "buyer@example.com",
		CourseID:        "c1",
		CourseTitle:     "Go 101",
		AmountPaise:     49900,
		Currency:        "INR",
		RedirectURL:     "https://shop.test/checkout/return?merchantOrderId=CM_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.GatewayOrderID)

	p := fs.created
	require.NotNil(t, p)
	assert.Equal(t, "payment", *p.Mode)
	assert.Equal(t, "CM_1", *p.ClientReferenceID)
	assert.Equal(t, "inr", *p.LineItems[0].PriceData.Currency)
	assert.EqualValues(t, 49900, *p.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "https://shop.test/checkout/return?merchantOrderId=CM_1&status=success", *p.SuccessURL)
	assert.EqualValues(t, 1_700_000_000+31*60, *p.ExpiresAt)
	assert.Greater(t, g.OrderTTL(), 30*time.Minute, "expires_at must clear Stripe's 30 minute minimum")
	assert.Equal(t, g.OrderTTL(), time.Duration(*p.ExpiresAt-1_700_000_000)*time.Second)
	assert.Equal(t, "buyer@example.com", *p.CustomerEmail)
}

func TestStripeInitiateError(t *testing.T) {
	g := newStripe(&fakeSessions{err: errors.New("card_declined")}, "whsec")
	_, err := g.Initiate(context.Background(), CheckoutRequest{MerchantOrderID: "CM_1", RedirectURL: "https://x"})
	assert.Error(t, err)
}

func TestStripeStatus(t *testing.T) {
	fs := &fakeSessions{session: &stripe.CheckoutSession{ID: "cs_1", PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid, AmountTotal: 100}}
	g := newStripe(fs, "whsec")

	st, err := g.Status(context.Background(), "CM_1", "cs_1")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, st.State)
	assert.Equal(t, "CM_1", st.MerchantOrderID)
	assert.EqualValues(t, 100, st.AmountPaise)

	fs.session = &stripe.CheckoutSession{ID: "cs_1", Status: stripe.CheckoutSessionStatusExpired, PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid}
	st, err = g.Status(context.Background(), "CM_1", "cs_1")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, st.State)

	_, err = g.Status(context.Background(), "CM_1", "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func signedStripeRequest(t *testing.T, secret, eventType, object string) (*http.Request, []byte) {
	t.Helper()
	body := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","api_version":"2020-08-27","type":%q,"data":{"object":%s}}`, eventType, object))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   body,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/webhooks/stripe", strings.NewReader(string(body)))
	r.Header.Set("Stripe-Signature", signed.Header)
	return r, body
}

func TestStripeWebhook(t *testing.T) {
	g := newStripe(&fakeSessions{}, "whsec_test")

	r, body := signedStripeRequest(t, "whsec_test", "checkout.session.completed",
		`{"id":"cs_1","object":"checkout.session","client_reference_id":"CM_1","payment_status":"paid","status":"complete","amount_total":49900}`)
	st, err := g.ParseWebhook(r, body)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, st.State)
	assert.Equal(t, "CM_1", st.MerchantOrderID)
	assert.Equal(t, "cs_1", st.GatewayOrderID)
	assert.EqualValues(t, 49900, st.AmountPaise)

	r, body = signedStripeRequest(t, "whsec_test", "checkout.session.completed",
		`{"id":"cs_2","object":"checkout.session","client_reference_id":"CM_2","payment_status":"unpaid","status":"complete"}`)
	st, err = g.ParseWebhook(r, body)
	require.NoError(t, err)
	assert.Equal(t, StatePending, st.State)

	r, body = signedStripeRequest(t, "whsec_test", "checkout.session.expired",
		`{"id":"cs_3","object":"checkout.session","client_reference_id":"CM_3","payment_status":"unpaid","status":"expired"}`)
	st, err = g.ParseWebhook(r, body)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, "expired", st.Reason)

	r, body = signedStripeRequest(t, "whsec_test", "customer.created", `{"id":"cus_1","object":"customer"}`)
	_, err = g.ParseWebhook(r, body)
	assert.ErrorIs(t, err, ErrIgnoredEvent)

	r, body = signedStripeRequest(t, "whsec_other", "checkout.session.completed", `{"id":"cs_1","object":"checkout.session"}`)
	_, err = g.ParseWebhook(r, body)
	assert.ErrorIs(t, err, ErrInvalidWebhook)
}
