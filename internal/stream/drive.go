package stream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/vidgate/server/internal/model"
)

const defaultDriveBase = "https://www.googleapis.com/drive/v3"

// DriveResolver streams files from Google Drive using a read-only OAuth
// bearer token. Range headers are forwarded so the upstream serves partial
// content directly.
type DriveResolver struct {
	base        string
	accessToken string
	client      *http.Client
	retry       retrypolicy.RetryPolicy[*http.Response]
}

// NewDriveResolver creates a Drive resolver. baseURL overrides the Google
// API endpoint for tests; pass "" for the default.
func NewDriveResolver(baseURL, accessToken string, client *http.Client) *DriveResolver {
	if baseURL == "" {
		baseURL = defaultDriveBase
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	retry := retrypolicy.Builder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500
		}).
		WithMaxRetries(2).
		WithBackoff(200*time.Millisecond, 2*time.Second).
		Build()
	return &DriveResolver{
		base:        baseURL,
		accessToken: accessToken,
		client:      client,
		retry:       retry,
	}
}

// Resolve fetches the file media. 2xx becomes a StreamHandle; 404/410 and
// auth failures become ErrNotAvailable. Transport errors and 5xx are
// retried before giving up.
func (r *DriveResolver) Resolve(ctx context.Context, video model.VideoDescriptor, rangeHeader string) (*Resolution, error) {
	ref := video.ProviderRef
	if ref == "" {
		ref = video.VideoID
	}
	url := fmt.Sprintf("%s/files/%s?alt=media", r.base, ref)

	resp, err := failsafe.NewExecutor[*http.Response](r.retry).WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if r.accessToken != "" {
			req.Header.Set("Authorization", "Bearer "+r.accessToken)
		}
		if rangeHeader != "" {
			req.Header.Set("Range", rangeHeader)
		}
		return r.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("drive fetch: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("drive returned %d: %w", resp.StatusCode, ErrNotAvailable)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	return &Resolution{Stream: &StreamHandle{
		Body:          resp.Body,
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		StatusCode:    resp.StatusCode,
		ContentRange:  resp.Header.Get("Content-Range"),
	}}, nil
}
