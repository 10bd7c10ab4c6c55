// Package connectors fetches artifact bytes by URL. The scheme decides the
// transport: http/https, a local file tree, or a private sftp mirror.
package connectors

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sync"

	"arvenne.fr/craftlaunch/pkg/utils"
)

// Result is the outcome of a conditional fetch. When the remote reports
// the content unchanged for the presented token, NotModified is true and
// Body is empty; otherwise Body holds the full content and Token the value
// to present next time.
type Result struct {
	Body        []byte
	NotModified bool
	Token       string
}

type EnsureOptions struct {
	// Force re-downloads even when the destination already exists.
	Force bool
	// Sha1, when set, must match the destination for it to count as
	// present, and is verified on every downloaded body.
	Sha1 string
}

type Fetcher interface {
	Scheme() string

	Fetch(ctx context.Context, url string) ([]byte, error)
	// FetchConditional is Fetch with a revalidation token; token "" always
	// fetches in full.
	FetchConditional(ctx context.Context, url string, token string) (*Result, error)
	// EnsureFile downloads url to dest unless a matching file is already
	// there. The write is temp-then-rename so a crash never leaves a
	// truncated artifact.
	EnsureFile(ctx context.Context, url string, dest string, opts EnsureOptions) error
}

var (
	httpFetcher = NewHTTPFetcher()
	fileFetcher = &FileFetcher{}

	sftpMu       sync.Mutex
	sftpFetchers = map[string]*SFTPFetcher{}
)

// ForURL picks the fetcher for the URL's scheme. HTTP and file fetchers
// are shared; sftp fetchers are pooled per host so the connection is
// dialed once.
func ForURL(rawURL string) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		return httpFetcher, nil
	case "file":
		return fileFetcher, nil
	case "sftp":
		sftpMu.Lock()
		defer sftpMu.Unlock()
		if f, ok := sftpFetchers[u.Host]; ok {
			return f, nil
		}
		f, err := NewSFTPFetcher(u)
		if err != nil {
			return nil, err
		}
		sftpFetchers[u.Host] = f
		return f, nil
	}
	return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
}

// Present reports whether dest already satisfies the ensure contract: the
// file exists and matches sha1 when one is declared.
func Present(dest string, sha1 string) bool {
	if _, err := os.Stat(dest); err != nil {
		return false
	}
	return sha1 == "" || utils.FileSHA1(dest) == sha1
}

// ensureFile is the shared EnsureFile body; fetchers only contribute their
// Fetch.
func ensureFile(ctx context.Context, f Fetcher, rawURL string, dest string, opts EnsureOptions) error {
	if !opts.Force && Present(dest, opts.Sha1) {
		return nil
	}

	body, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	if opts.Sha1 != "" {
		if got := utils.BytesSHA1(body); got != opts.Sha1 {
			return fmt.Errorf("checksum mismatch for %s: got %s, want %s", rawURL, got, opts.Sha1)
		}
	}
	return utils.WriteFileAtomic(dest, body, 0644)
}
