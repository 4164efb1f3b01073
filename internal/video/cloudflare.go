package video

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
)

const cloudflareBaseURL = "https://api.cloudflare.com/client/v4"

type cloudflare struct {
	api         *apiClient
	accountID   string
	maxDuration int
}

// NewCloudflare returns a Cloudflare Stream provider.
func NewCloudflare(accountID, apiToken string, maxDurationSec int, opts ...Option) Provider {
	auth := func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+apiToken) }
	return &cloudflare{
		api:         newAPIClient("cloudflare", cloudflareBaseURL, auth, opts),
		accountID:   accountID,
		maxDuration: maxDurationSec,
	}
}

func (c *cloudflare) Name() string { return "cloudflare" }

func (c *cloudflare) path(suffix string) string {
	return "/accounts/" + url.PathEscape(c.accountID) + "/stream" + suffix
}

type cloudflareEnvelope[T any] struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result T `json:"result"`
}

func (e cloudflareEnvelope[T]) err() error {
	if e.Success {
		return nil
	}
	if len(e.Errors) > 0 {
		return fmt.Errorf("cloudflare error %d: %s", e.Errors[0].Code, e.Errors[0].Message)
	}
	return fmt.Errorf("cloudflare request unsuccessful")
}

func (c *cloudflare) CreateUpload(ctx context.Context, req UploadRequest) (*Upload, error) {
	body := map[string]any{
		"maxDurationSeconds": c.maxDuration,
		"meta": map[string]string{
			"name":      req.Filename,
			"lesson_id": req.LessonID,
		},
	}
	var out cloudflareEnvelope[struct {
		UploadURL string `json:"uploadURL"`
		UID       string `json:"uid"`
	}]
	if err := c.api.do(ctx, http.MethodPost, c.path("/direct_upload"), body, &out); err != nil {
		return nil, err
	}
	if err := out.err(); err != nil {
		return nil, err
	}
	return &Upload{ID: out.Result.UID, URL: out.Result.UploadURL, Method: http.MethodPost, Protocol: "form"}, nil
}

// ResolveUpload returns the upload id itself. Stream uses one uid for the upload and the video.
func (c *cloudflare) ResolveUpload(_ context.Context, uploadID string) (string, bool, error) {
	return uploadID, true, nil
}

func (c *cloudflare) GetAsset(ctx context.Context, assetID string) (*Asset, error) {
	var out cloudflareEnvelope[struct {
		UID           string  `json:"uid"`
		ReadyToStream bool    `json:"readyToStream"`
		Duration      float64 `json:"duration"`
		Status        struct {
			State           string `json:"state"`
			ErrorReasonText string `json:"errorReasonText"`
		} `json:"status"`
		Playback struct {
			HLS string `json:"hls"`
		} `json:"playback"`
	}]
	if err := c.api.do(ctx, http.MethodGet, c.path("/"+url.PathEscape(assetID)), nil, &out); err != nil {
		return nil, err
	}
	if err := out.err(); err != nil {
		return nil, err
	}

	r := out.Result
	a := &Asset{ID: assetID, PlaybackURL: r.Playback.HLS}
	// Duration is -1 until the video has been processed.
	if r.Duration > 0 {
		a.DurationSeconds = int(math.Round(r.Duration))
	}
	switch {
	case r.Status.State == "error":
		a.Status = StatusErrored
		a.Message = r.Status.ErrorReasonText
	case r.ReadyToStream && r.Status.State == "ready":
		a.Status = StatusReady
	default:
		a.Status = StatusProcessing
	}
	return a, nil
}

func (c *cloudflare) DeleteAsset(ctx context.Context, assetID string) error {
	return c.api.delete(ctx, c.path("/"+url.PathEscape(assetID)))
}
