package video

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
)

const muxBaseURL = "https://api.mux.com"

type mux struct {
	api        *apiClient
	corsOrigin string
}

// NewMux returns a Mux Video provider authenticated with an access token pair.
func NewMux(tokenID, tokenSecret, corsOrigin string, opts ...Option) Provider {
	auth := func(r *http.Request) { r.SetBasicAuth(tokenID, tokenSecret) }
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	return &mux{api: newAPIClient("mux", muxBaseURL, auth, opts), corsOrigin: corsOrigin}
}

func (m *mux) Name() string { return "mux" }

type muxUpload struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Status  string `json:"status"`
	AssetID string `json:"asset_id"`
}

func (m *mux) CreateUpload(ctx context.Context, req UploadRequest) (*Upload, error) {
	body := map[string]any{
		"cors_origin": m.corsOrigin,
		"new_asset_settings": map[string]any{
			"playback_policy": []string{"public"},
			"passthrough":     req.LessonID,
		},
	}
	var out struct {
		Data muxUpload `json:"data"`
	}
	if err := m.api.do(ctx, http.MethodPost, "/video/v1/uploads", body, &out); err != nil {
		return nil, err
	}
	return &Upload{ID: out.Data.ID, URL: out.Data.URL, Method: http.MethodPut, Protocol: "put"}, nil
}

func (m *mux) ResolveUpload(ctx context.Context, uploadID string) (string, bool, error) {
	var out struct {
		Data muxUpload `json:"data"`
	}
	if err := m.api.do(ctx, http.MethodGet, "/video/v1/uploads/"+url.PathEscape(uploadID), nil, &out); err != nil {
		return "", false, err
	}
	switch out.Data.Status {
	case "asset_created":
		return out.Data.AssetID, out.Data.AssetID != "", nil
	case "errored", "cancelled", "timed_out":
		return "", false, fmt.Errorf("%w: mux upload %s is %s", ErrUploadFailed, uploadID, out.Data.Status)
	default:
		return "", false, nil
	}
}

func (m *mux) GetAsset(ctx context.Context, assetID string) (*Asset, error) {
	var out struct {
		Data struct {
			ID          string  `json:"id"`
			Status      string  `json:"status"`
			Duration    float64 `json:"duration"`
			PlaybackIDs []struct {
				ID     string `json:"id"`
				Policy string `json:"policy"`
			} `json:"playback_ids"`
			Errors struct {
				Messages []string `json:"messages"`
			} `json:"errors"`
		} `json:"data"`
	}
	if err := m.api.do(ctx, http.MethodGet, "/video/v1/assets/"+url.PathEscape(assetID), nil, &out); err != nil {
		return nil, err
	}

	a := &Asset{ID: assetID, DurationSeconds: int(math.Round(out.Data.Duration))}
	switch out.Data.Status {
	case "ready":
		a.Status = StatusReady
	case "errored":
		a.Status = StatusErrored
		if len(out.Data.Errors.Messages) > 0 {
			a.Message = out.Data.Errors.Messages[0]
		}
	default:
		a.Status = StatusProcessing
	}
	for _, p := range out.Data.PlaybackIDs {
		if p.Policy == "public" || a.PlaybackURL == "" {
			a.PlaybackURL = fmt.Sprintf("https://stream.mux.com/%s.m3u8", p.ID)
		}
	}
	if a.Status == StatusReady && a.PlaybackURL == "" {
		a.Status = StatusErrored
		a.Message = "asset has no playback id"
	}
	return a, nil
}

func (m *mux) DeleteAsset(ctx context.Context, assetID string) error {
	return m.api.delete(ctx, "/video/v1/assets/"+url.PathEscape(assetID))
}
