package video

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const vimeoBaseURL = "https://api.vimeo.com"

type vimeo struct {
	api *apiClient
}

// NewVimeo returns a Vimeo provider using a personal access token.
func NewVimeo(accessToken string, opts ...Option) Provider {
	auth := func(r *http.Request) { r.Header.Set("Authorization", "bearer "+accessToken) }
	c := newAPIClient("vimeo", vimeoBaseURL, auth, opts)
	c.headers["Accept"] = "application/vnd.vimeo.*+json;version=3.4"
	return &vimeo{api: c}
}

func (v *vimeo) Name() string { return "vimeo" }

func (v *vimeo) CreateUpload(ctx context.Context, req UploadRequest) (*Upload, error) {
	if req.SizeBytes <= 0 {
		return nil, fmt.Errorf("vimeo upload needs the file size")
	}
	body := map[string]any{
		"name": req.Filename,
		"upload": map[string]any{
			"approach": "tus",
			"size":     req.SizeBytes,
		},
		"privacy": map[string]string{"view": "disable", "embed": "public"},
	}
	var out struct {
		URI    string `json:"uri"`
		Upload struct {
			UploadLink string `json:"upload_link"`
		} `json:"upload"`
	}
	if err := v.api.do(ctx, http.MethodPost, "/me/videos", body, &out); err != nil {
		return nil, err
	}
	id := videoIDFromURI(out.URI)
	if id == "" {
		return nil, fmt.Errorf("vimeo returned unexpected video uri %q", out.URI)
	}
	return &Upload{ID: id, URL: out.Upload.UploadLink, Method: http.MethodPatch, Protocol: "tus"}, nil
}

// ResolveUpload returns the upload id itself. A Vimeo video exists from the moment the upload is created.
func (v *vimeo) ResolveUpload(_ context.Context, uploadID string) (string, bool, error) {
	return uploadID, true, nil
}

func (v *vimeo) GetAsset(ctx context.Context, assetID string) (*Asset, error) {
	var out struct {
		Duration       int    `json:"duration"`
		PlayerEmbedURL string `json:"player_embed_url"`
		Upload         struct {
			Status string `json:"status"`
		} `json:"upload"`
		Transcode struct {
			Status string `json:"status"`
		} `json:"transcode"`
	}
	if err := v.api.do(ctx, http.MethodGet, "/videos/"+url.PathEscape(assetID), nil, &out); err != nil {
		return nil, err
	}

	a := &Asset{ID: assetID, PlaybackURL: out.PlayerEmbedURL, DurationSeconds: out.Duration}
	switch {
	case out.Upload.Status == "error":
		a.Status = StatusErrored
		a.Message = "upload failed"
	case out.Transcode.Status == "error":
		a.Status = StatusErrored
		a.Message = "transcode failed"
	case out.Transcode.Status == "complete":
		a.Status = StatusReady
	default:
		a.Status = StatusProcessing
	}
	return a, nil
}

func (v *vimeo) DeleteAsset(ctx context.Context, assetID string) error {
	return v.api.delete(ctx, "/videos/"+url.PathEscape(assetID))
}

func videoIDFromURI(uri string) string {
	id, ok := strings.CutPrefix(uri, "/videos/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
