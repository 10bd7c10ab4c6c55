package connectors

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"arvenne.fr/craftlaunch/pkg/utils"
)

// FileFetcher serves file:// URLs from the local filesystem, mostly for
// offline mirrors and tests.
type FileFetcher struct{}

func (f *FileFetcher) Scheme() string {
	return "file"
}

// localPath resolves file://host/path the lenient way: the host part is
// folded into the path, and a leading ./ is anchored at the working
// directory.
func localPath(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	p := parsed.Host + parsed.Path
	if strings.HasPrefix(p, "./") {
		pwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		p = filepath.Join(pwd, strings.TrimPrefix(p, "./"))
	}
	return filepath.FromSlash(p), nil
}

func (f *FileFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	path, err := localPath(rawURL)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// FetchConditional uses the content checksum as the revalidation token, so
// a caller holding the previous token skips the unchanged copy.
func (f *FileFetcher) FetchConditional(ctx context.Context, rawURL string, token string) (*Result, error) {
	body, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	sum := utils.BytesSHA1(body)
	if token != "" && token == sum {
		return &Result{NotModified: true, Token: token}, nil
	}
	return &Result{Body: body, Token: sum}, nil
}

func (f *FileFetcher) EnsureFile(ctx context.Context, rawURL string, dest string, opts EnsureOptions) error {
	return ensureFile(ctx, f, rawURL, dest, opts)
}
