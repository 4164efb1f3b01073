package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePhonePe struct {
	tokenCalls   atomic.Int32
	rejectTokens atomic.Int32
	expiresIn    time.Duration
	lastPay      phonePePayRequest
	statusState  string
}

func (f *fakePhonePe) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "cid", r.Form.Get("client_id"))
		n := f.tokenCalls.Add(1)
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_at":%d,"token_type":"O-Bearer"}`, n, time.Now().Add(f.expiresIn).Unix())
	})
	authorised := func(w http.ResponseWriter, r *http.Request) bool {
		if f.rejectTokens.Load() > 0 {
			f.rejectTokens.Add(-1)
			w.WriteHeader(http.StatusUnauthorized)
			return false
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "O-Bearer tok-") {
			w.WriteHeader(http.StatusUnauthorized)
			return false
		}
		return true
	}
	mux.HandleFunc("POST /checkout/v2/pay", func(w http.ResponseWriter, r *http.Request) {
		if !authorised(w, r) {
			return
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.lastPay))
		io.WriteString(w, `{"orderId":"OMO123","state":"PENDING","redirectUrl":"https://mercury.phonepe.test/pay/OMO123"}`)
	})
	mux.HandleFunc("GET /checkout/v2/order/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		if !authorised(w, r) {
			return
		}
		fmt.Fprintf(w, `{"orderId":"OMO123","state":%q,"amount":49900,"errorCode":"TXN_DECLINED"}`, f.statusState)
	})
	return mux
}

func newTestPhonePe(t *testing.T, f *fakePhonePe) (*phonePe, func()) {
	srv := httptest.NewServer(f.handler(t))
	p := newPhonePe(srv.Client(), srv.URL, srv.URL, "cid", "csecret", "1", "hookuser", "hookpass", 20*time.Minute)
	return p, srv.Close
}

func TestPhonePeInitiate(t *testing.T) {
	f := &fakePhonePe{expiresIn: time.Hour}
	p, done := newTestPhonePe(t, f)
	defer done()

	sess, err := p.Initiate(context.Background(), CheckoutRequest{
		MerchantOrderID: "CM_1",
		UserID:          "u1",
		CourseID:        "c1",
		AmountPaise:     49900,
		RedirectURL:     "https://shop.test/checkout/return?merchantOrderId=CM_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "OMO123", sess.GatewayOrderID)
	assert.Equal(t, "https://mercury.phonepe.test/pay/OMO123", sess.RedirectURL)

	assert.Equal(t, "CM_1", f.lastPay.MerchantOrderID)
	assert.EqualValues(t, 49900, f.lastPay.Amount)
	assert.EqualValues(t, 1200, f.lastPay.ExpireAfter)
	assert.Equal(t, "PG_CHECKOUT", f.lastPay.PaymentFlow.Type)
	assert.Equal(t, "u1", f.lastPay.MetaInfo["udf1"])
	assert.Equal(t, "https://shop.test/checkout/return?merchantOrderId=CM_1", f.lastPay.PaymentFlow.MerchantURLs.RedirectURL)
}

func TestPhonePeTokenIsCached(t *testing.T) {
	f := &fakePhonePe{expiresIn: time.Hour, statusState: "PENDING"}
	p, done := newTestPhonePe(t, f)
	defer done()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Status(context.Background(), "CM_1", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, f.tokenCalls.Load())
}

func TestPhonePeTokenRefreshedNearExpiry(t *testing.T) {
	f := &fakePhonePe{expiresIn: 30 * time.Second, statusState: "PENDING"}
	p, done := newTestPhonePe(t, f)
	defer done()

	for range 3 {
		_, err := p.Status(context.Background(), "CM_1", "")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, f.tokenCalls.Load())
}

func TestPhonePeRetriesOnceAfter401(t *testing.T) {
	f := &fakePhonePe{expiresIn: time.Hour, statusState: "COMPLETED"}
	f.rejectTokens.Store(1)
	p, done := newTestPhonePe(t, f)
	defer done()

	st, err := p.Status(context.Background(), "CM_1", "")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, st.State)
	assert.EqualValues(t, 2, f.tokenCalls.Load())

	f.rejectTokens.Store(2)
	_, err = p.Status(context.Background(), "CM_1", "")
	assert.ErrorIs(t, err, errPhonePeUnauthorized)
}

func TestPhonePeStatusStates(t *testing.T) {
	tests := []struct {
		remote string
		want   string
		reason string
	}{
		{remote: "COMPLETED", want: StateCompleted},
		{remote: "FAILED", want: StateFailed, reason: "TXN_DECLINED"},
		{remote: "PENDING", want: StatePending},
		{remote: "SOMETHING_NEW", want: StatePending},
	}
	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			f := &fakePhonePe{expiresIn: time.Hour, statusState: tt.remote}
			p, done := newTestPhonePe(t, f)
			defer done()

			st, err := p.Status(context.Background(), "CM_9", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.State)
			assert.Equal(t, tt.reason, st.Reason)
			assert.Equal(t, "CM_9", st.MerchantOrderID)
			assert.EqualValues(t, 49900, st.AmountPaise)
		})
	}
}

func webhookRequest(auth, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/v1/webhooks/phonepe", strings.NewReader(body))
	if auth != "" {
		r.Header.Set("Authorization", auth)
	}
	return r
}

func TestPhonePeWebhook(t *testing.T) {
	p := newPhonePe(http.DefaultClient, "", "", "", "", "", "hookuser", "hookpass", time.Minute)
	sum := sha256.Sum256([]byte("hookuser:hookpass"))
	good := hex.EncodeToString(sum[:])

	completed := `{"event":"checkout.order.completed","payload":{"orderId":"OMO1","merchantOrderId":"CM_1","state":"COMPLETED","amount":100}}`
	failed := `{"event":"checkout.order.failed","payload":{"orderId":"OMO1","merchantOrderId":"CM_1","state":"FAILED","errorCode":"TIMED_OUT"}}`

	st, err := p.ParseWebhook(webhookRequest(good, completed), []byte(completed))
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, st.State)
	assert.Equal(t, "CM_1", st.MerchantOrderID)
	assert.EqualValues(t, 100, st.AmountPaise)

	st, err = p.ParseWebhook(webhookRequest(strings.ToUpper(good), failed), []byte(failed))
	require.NoError(t, err)
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, "TIMED_OUT", st.Reason)

	_, err = p.ParseWebhook(webhookRequest("deadbeef", completed), []byte(completed))
	assert.ErrorIs(t, err, ErrInvalidWebhook)

	_, err = p.ParseWebhook(webhookRequest("", completed), []byte(completed))
	assert.ErrorIs(t, err, ErrInvalidWebhook)

	refund := `{"event":"pg.refund.completed","payload":{"merchantOrderId":"CM_1"}}`
	_, err = p.ParseWebhook(webhookRequest(good, refund), []byte(refund))
	assert.ErrorIs(t, err, ErrIgnoredEvent)

	_, err = p.ParseWebhook(webhookRequest(good, "{"), []byte("{"))
	assert.ErrorIs(t, err, ErrInvalidWebhook)
}

func TestPhonePeWebhookRejectsWhenUnconfigured(t *testing.T) {
	p := newPhonePe(http.DefaultClient, "", "", "", "", "", "", "", time.Minute)
	sum := sha256.Sum256([]byte(":"))
	_, err := p.ParseWebhook(webhookRequest(hex.EncodeToString(sum[:]), "{}"), []byte("{}"))
	assert.ErrorIs(t, err, ErrInvalidWebhook)
}
