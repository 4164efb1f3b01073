// Package video talks to the hosted video platforms lessons are streamed from.
// Each provider implements only the calls the upload pipeline needs.
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Normalised asset states.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusErrored    = "errored"
)

var (
	// ErrUnknownProvider is returned for a provider name that is not configured.
	ErrUnknownProvider = errors.New("unknown video provider")
	// ErrUploadFailed is returned when the provider gave up on a direct upload.
	ErrUploadFailed = errors.New("video upload failed")
)

// Provider is a video hosting platform.
type Provider interface {
	Name() string
	// CreateUpload returns a direct-upload target the browser sends the file to.
	CreateUpload(ctx context.Context, req UploadRequest) (*Upload, error)
	// ResolveUpload maps an upload to its asset. ready is false until the provider created the asset.
	ResolveUpload(ctx context.Context, uploadID string) (assetID string, ready bool, err error)
	GetAsset(ctx context.Context, assetID string) (*Asset, error)
	// DeleteAsset removes the asset. Deleting an asset that is already gone is not an error.
	DeleteAsset(ctx context.Context, assetID string) error
}

type UploadRequest struct {
	LessonID  string
	Filename  string
	SizeBytes int64
}

// Upload is a direct-upload target. Method is the HTTP verb the client must use,
// Protocol is "put", "form" or "tus".
type Upload struct {
	ID       string `json:"upload_id"`
	URL      string `json:"upload_url"`
	Method   string `json:"method"`
	Protocol string `json:"protocol"`
}

type Asset struct {
	ID              string
	Status          string
	PlaybackURL     string
	DurationSeconds int
	Message         string
}

// APIError is a non-2xx response from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from a provider.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Option customises a provider client.
type Option func(*apiClient)

// WithBaseURL points the client at another API host.
func WithBaseURL(u string) Option {
	return func(c *apiClient) { c.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *apiClient) { c.http = hc }
}

type apiClient struct {
	name    string
	baseURL string
	http    *http.Client
	auth    func(*http.Request)
	headers map[string]string
}

func newAPIClient(name, baseURL string, auth func(*http.Request), opts []Option) *apiClient {
	c := &apiClient{
		name:    name,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 20 * time.Second},
		auth:    auth,
		headers: map[string]string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends in as JSON (when non-nil) and decodes the response into out (when non-nil).
func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", c.name, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.name, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s %s: %w", c.name, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Provider: c.name, StatusCode: resp.StatusCode, Body: string(msg)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.name, err)
	}
	return nil
}

func (c *apiClient) delete(ctx context.Context, path string) error {
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if IsNotFound(err) {
		return nil
	}
	return err
}
