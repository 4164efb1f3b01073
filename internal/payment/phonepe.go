package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coursemart/internal/config"
)

// PhonePe webhook events that change an order.
const (
	phonePeEventCompleted = "checkout.order.completed"
	phonePeEventFailed    = "checkout.order.failed"
)

// errPhonePeUnauthorized marks a 401 so the caller can refresh the token and retry.
var errPhonePeUnauthorized = errors.New("phonepe rejected access token")

type phonePe struct {
	httpClient  *http.Client
	baseURL     string
	tokens      *phonePeTokenSource
	orderTTL    time.Duration
	webhookHash string
}

// NewPhonePe builds the PhonePe standard checkout gateway from config.
func NewPhonePe(cfg *config.Config) Gateway {
	timeout := time.Duration(cfg.PhonePeRequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	hc := &http.Client{Timeout: timeout}
	return newPhonePe(hc, cfg.PhonePeBaseURL, cfg.PhonePeAuthURL, cfg.PhonePeClientID, cfg.PhonePeClientSecret,
		cfg.PhonePeClientVersion, cfg.PhonePeWebhookUsername, cfg.PhonePeWebhookPassword,
		time.Duration(cfg.PhonePeOrderExpirySec)*time.Second)
}

func newPhonePe(hc *http.Client, baseURL, authURL, clientID, clientSecret, clientVersion, webhookUser, webhookPass string, orderTTL time.Duration) *phonePe {
	return &phonePe{
		httpClient:  hc,
		baseURL:     strings.TrimRight(baseURL, "/"),
		tokens:      newPhonePeTokenSource(hc, authURL, clientID, clientSecret, clientVersion),
		orderTTL:    orderTTL,
		webhookHash: webhookAuthHash(webhookUser, webhookPass),
	}
}

func (p *phonePe) Name() string { return GatewayPhonePe }

func (p *phonePe) OrderTTL() time.Duration { return p.orderTTL }

type phonePePayRequest struct {
	MerchantOrderID string            `json:"merchantOrderId"`
	Amount          int64             `json:"amount"`
	ExpireAfter     int64             `json:"expireAfter"`
	MetaInfo        map[string]string `json:"metaInfo,omitempty"`
	PaymentFlow     phonePePayFlow    `json:"paymentFlow"`
}

type phonePePayFlow struct {
	Type         string `json:"type"`
	Message      string `json:"message,omitempty"`
	MerchantURLs struct {
		RedirectURL string `json:"redirectUrl"`
	} `json:"merchantUrls"`
}

func (p *phonePe) Initiate(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	body := phonePePayRequest{
		MerchantOrderID: req.MerchantOrderID,
		Amount:          req.AmountPaise,
		ExpireAfter:     int64(p.orderTTL / time.Second),
		MetaInfo: map[string]string{
			"udf1": req.UserID,
			"udf2": req.CourseID,
		},
		PaymentFlow: phonePePayFlow{Type: "PG_CHECKOUT", Message: req.CourseTitle},
	}
	body.PaymentFlow.MerchantURLs.RedirectURL = req.RedirectURL

	var out struct {
		OrderID     string `json:"orderId"`
		State       string `json:"state"`
		RedirectURL string `json:"redirectUrl"`
	}
	if err := p.call(ctx, http.MethodPost, "/checkout/v2/pay", body, &out); err != nil {
		return nil, fmt.Errorf("phonepe pay %s: %w", req.MerchantOrderID, err)
	}
	if out.RedirectURL == "" {
		return nil, fmt.Errorf("phonepe pay %s: response has no redirectUrl", req.MerchantOrderID)
	}
	return &CheckoutSession{GatewayOrderID: out.OrderID, RedirectURL: out.RedirectURL}, nil
}

func (p *phonePe) Status(ctx context.Context, merchantOrderID, _ string) (*OrderStatus, error) {
	var out struct {
		OrderID      string `json:"orderId"`
		State        string `json:"state"`
		Amount       int64  `json:"amount"`
		ErrorCode    string `json:"errorCode"`
		DetailedCode string `json:"detailedErrorCode"`
	}
	path := "/checkout/v2/order/" + url.PathEscape(merchantOrderID) + "/status?details=false"
	if err := p.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("phonepe status %s: %w", merchantOrderID, err)
	}
	st := &OrderStatus{
		MerchantOrderID: merchantOrderID,
		GatewayOrderID:  out.OrderID,
		State:           normaliseState(out.State),
		AmountPaise:     out.Amount,
	}
	if st.State == StateFailed {
		st.Reason = firstNonEmpty(out.DetailedCode, out.ErrorCode, "payment_failed")
	}
	return st, nil
}

// call performs an authenticated request. A 401 drops the cached token and retries once.
func (p *phonePe) call(ctx context.Context, method, path string, in, out any) error {
	err := p.callOnce(ctx, method, path, in, out)
	if errors.Is(err, errPhonePeUnauthorized) {
		p.tokens.Invalidate()
		err = p.callOnce(ctx, method, path, in, out)
	}
	return err
}

func (p *phonePe) callOnce(ctx context.Context, method, path string, in, out any) error {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "O-Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return errPhonePeUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type phonePeWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		OrderID         string `json:"orderId"`
		MerchantOrderID string `json:"merchantOrderId"`
		State           string `json:"state"`
		Amount          int64  `json:"amount"`
		ErrorCode       string `json:"errorCode"`
	} `json:"payload"`
}

func (p *phonePe) ParseWebhook(r *http.Request, body []byte) (*OrderStatus, error) {
	if !p.authorised(r.Header.Get("Authorization")) {
		return nil, fmt.Errorf("%w: bad authorization header", ErrInvalidWebhook)
	}

	var hook phonePeWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	if hook.Event != phonePeEventCompleted && hook.Event != phonePeEventFailed {
		return nil, fmt.Errorf("%w: %s", ErrIgnoredEvent, hook.Event)
	}
	if hook.Payload.MerchantOrderID == "" {
		return nil, fmt.Errorf("%w: missing merchantOrderId", ErrInvalidWebhook)
	}

	st := &OrderStatus{
		MerchantOrderID: hook.Payload.MerchantOrderID,
		GatewayOrderID:  hook.Payload.OrderID,
		State:           normaliseState(hook.Payload.State),
		AmountPaise:     hook.Payload.Amount,
	}
	if hook.Event == phonePeEventFailed {
		st.State = StateFailed
		st.Reason = firstNonEmpty(hook.Payload.ErrorCode, "payment_failed")
	}
	return st, nil
}

// authorised checks the header against SHA256(username:password) in constant time.
func (p *phonePe) authorised(header string) bool {
	if p.webhookHash == "" {
		return false
	}
	got := strings.ToLower(strings.TrimSpace(header))
	got = strings.TrimPrefix(got, "sha256 ")
	return subtle.ConstantTimeCompare([]byte(got), []byte(p.webhookHash)) == 1
}

func webhookAuthHash(username, password string) string {
	if username == "" && password == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(username + ":" + password))
	return hex.EncodeToString(sum[:])
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
