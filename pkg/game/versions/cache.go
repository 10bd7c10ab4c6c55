package versions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"arvenne.fr/craftlaunch/pkg/connectors"
	"arvenne.fr/craftlaunch/pkg/utils"
)

// Index is the remote version index document.
type Index struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []GameVersion `json:"versions"`
}

type cacheEntry struct {
	FetchedAt time.Time     `json:"fetchedAt"`
	Token     string        `json:"token,omitempty"`
	Versions  []GameVersion `json:"versions"`
}

// Cache stores the version index on disk with a freshness window and a
// revalidation token. An unreadable or truncated cache file is treated as
// absent, never as an error.
type Cache struct {
	Path    string
	TTL     time.Duration
	URL     string
	Fetcher connectors.Fetcher

	logger *log.Logger
	mu     sync.Mutex
}

func NewCache(path string, ttl time.Duration, url string, fetcher connectors.Fetcher, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{Path: path, TTL: ttl, URL: url, Fetcher: fetcher, logger: logger}
}

// Get returns the stored list only while it is fresh. A miss means the
// caller should revalidate.
func (c *Cache) Get() ([]GameVersion, bool) {
	entry, ok := c.read()
	if !ok || time.Since(entry.FetchedAt) >= c.TTL {
		return nil, false
	}
	return entry.Versions, true
}

// Stale returns the stored list regardless of freshness, for serving
// while a revalidation runs or after one fails.
func (c *Cache) Stale() ([]GameVersion, bool) {
	entry, ok := c.read()
	if !ok {
		return nil, false
	}
	return entry.Versions, true
}

// Revalidate asks the remote index whether anything changed for the
// stored token. Unchanged refreshes only the timestamp; otherwise the
// whole list and token are replaced in one atomic write. Only one
// revalidation writer runs at a time.
func (c *Cache) Revalidate(ctx context.Context) ([]GameVersion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.read()
	token := ""
	if ok {
		token = entry.Token
	}

	res, err := c.Fetcher.FetchConditional(ctx, c.URL, token)
	if err != nil {
		return nil, fmt.Errorf("failed to revalidate version index: %w", err)
	}

	if res.NotModified && ok {
		entry.FetchedAt = time.Now()
		if err := c.write(entry); err != nil {
			return nil, err
		}
		c.logger.Debug("version index unchanged", "versions", len(entry.Versions))
		return entry.Versions, nil
	}

	var idx Index
	if err := json.Unmarshal(res.Body, &idx); err != nil {
		return nil, fmt.Errorf("failed to decode version index: %w", err)
	}
	if len(idx.Versions) == 0 {
		return nil, fmt.Errorf("version index is empty")
	}

	fresh := cacheEntry{FetchedAt: time.Now(), Token: res.Token, Versions: idx.Versions}
	if err := c.write(fresh); err != nil {
		return nil, err
	}
	c.logger.Debug("version index refreshed", "versions", len(fresh.Versions))
	return fresh.Versions, nil
}

func (c *Cache) read() (cacheEntry, bool) {
	var entry cacheEntry

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return entry, false
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Debug("version index cache unreadable, treating as absent", "path", c.Path, "err", err)
		return entry, false
	}
	if len(entry.Versions) == 0 {
		return entry, false
	}
	return entry, true
}

func (c *Cache) write(entry cacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode version index cache: %w", err)
	}
	if err := utils.WriteFileAtomic(c.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write version index cache: %w", err)
	}
	return nil
}
