package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenRefreshLeeway is how long before expiry a cached token is replaced.
const tokenRefreshLeeway = 60 * time.Second

// phonePeTokenSource caches the OAuth access token PhonePe requires on every API call.
type phonePeTokenSource struct {
	httpClient    *http.Client
	tokenURL      string
	clientID      string
	clientSecret  string
	clientVersion string
	now           func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newPhonePeTokenSource(httpClient *http.Client, authBaseURL, clientID, clientSecret, clientVersion string) *phonePeTokenSource {
	return &phonePeTokenSource{
		httpClient:    httpClient,
		tokenURL:      strings.TrimRight(authBaseURL, "/") + "/v1/oauth/token",
		clientID:      clientID,
		clientSecret:  clientSecret,
		clientVersion: clientVersion,
		now:           time.Now,
	}
}

// Token returns a valid access token, fetching a new one when the cached one is close to expiry.
// The lock is held across the fetch so concurrent callers share one refresh.
func (t *phonePeTokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.now().Add(tokenRefreshLeeway).Before(t.expiresAt) {
		return t.token, nil
	}

	token, expiresAt, err := t.fetch(ctx)
	if err != nil {
		return "", err
	}
	t.token = token
	t.expiresAt = expiresAt
	return token, nil
}

// Invalidate drops the cached token.
func (t *phonePeTokenSource) Invalidate() {
	t.mu.Lock()
	t.token = ""
	t.expiresAt = time.Time{}
	t.mu.Unlock()
}

func (t *phonePeTokenSource) fetch(ctx context.Context) (string, time.Time, error) {
	form := url.Values{}
	form.Set("client_id", t.clientID)
	form.Set("client_version", t.clientVersion)
	form.Set("client_secret", t.clientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build phonepe token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("phonepe token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", time.Time{}, fmt.Errorf("phonepe token request returned status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", time.Time{}, fmt.Errorf("decode phonepe token: %w", err)
	}
	if out.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("phonepe token response has no access_token")
	}
	return out.AccessToken, time.Unix(out.ExpiresAt, 0), nil
}
