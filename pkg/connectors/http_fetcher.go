package connectors

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPFetcher serves http and https URLs through one shared resty client
// with short retries for flaky mirrors.
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher() *HTTPFetcher {
	client := resty.New().
		SetTimeout(60 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("User-Agent", "craftlaunch")
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Scheme() string {
	return "https"
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("GET %s: status %s", url, resp.Status())
	}
	return resp.Body(), nil
}

func (f *HTTPFetcher) FetchConditional(ctx context.Context, url string, token string) (*Result, error) {
	req := f.client.R().SetContext(ctx)
	if token != "" {
		req.SetHeader("If-None-Match", token)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.StatusCode() == http.StatusNotModified {
		return &Result{NotModified: true, Token: token}, nil
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("GET %s: status %s", url, resp.Status())
	}
	return &Result{
		Body:  resp.Body(),
		Token: resp.Header().Get("ETag"),
	}, nil
}

func (f *HTTPFetcher) EnsureFile(ctx context.Context, url string, dest string, opts EnsureOptions) error {
	return ensureFile(ctx, f, url, dest, opts)
}
