// Package assets mirrors the game's content-addressed asset store: an
// index file per version and objects sharded by hash.
package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"arvenne.fr/craftlaunch/pkg/connectors"
	"arvenne.fr/craftlaunch/pkg/game/folder"
	"arvenne.fr/craftlaunch/pkg/game/manifest"
	"arvenne.fr/craftlaunch/pkg/game/shared"
	"arvenne.fr/craftlaunch/pkg/utils"
)

type Index struct {
	Objects map[string]Object `json:"objects"`
}

type Object struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// Downloader ensures the asset index and every object it names are
// present under assets/.
type Downloader struct {
	Dir folder.GameDir
	// ResourcesURL overrides the object store base, for tests.
	ResourcesURL string
	// Workers bounds download concurrency; 0 means NumCPU.
	Workers  int
	Progress shared.Progress

	logger *log.Logger
}

func NewDownloader(dir folder.GameDir, logger *log.Logger) *Downloader {
	if logger == nil {
		logger = log.Default()
	}
	return &Downloader{Dir: dir, ResourcesURL: shared.ResourcesURL, logger: logger}
}

// Ensure fetches the asset index named by ref and then every object the
// index lists that is absent or corrupt on disk. A nil ref means the
// version owns no assets and is a no-op.
func (d *Downloader) Ensure(ctx context.Context, ref *manifest.AssetIndexRef) error {
	if ref == nil {
		return nil
	}

	idxPath := d.Dir.AssetIndexPath(ref.ID)
	f, err := connectors.ForURL(ref.URL)
	if err != nil {
		return fmt.Errorf("failed to locate asset index: %w", err)
	}
	if err := f.EnsureFile(ctx, ref.URL, idxPath, connectors.EnsureOptions{Sha1: ref.Sha1}); err != nil {
		return fmt.Errorf("failed to fetch asset index %s: %w", ref.ID, err)
	}

	data, err := os.ReadFile(idxPath)
	if err != nil {
		return fmt.Errorf("failed to read asset index: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("failed to decode asset index %s: %w", ref.ID, err)
	}

	var missing []Object
	for _, obj := range idx.Objects {
		if len(obj.Hash) < 2 {
			continue
		}
		dest := d.Dir.AssetObjectPath(obj.Hash)
		if utils.FileSHA1(dest) == obj.Hash {
			continue
		}
		missing = append(missing, obj)
	}
	if len(missing) == 0 {
		return nil
	}

	failed := d.download(ctx, missing)
	if failed > 0 {
		return fmt.Errorf("failed to download %d of %d assets", failed, len(missing))
	}
	return nil
}

func (d *Downloader) download(ctx context.Context, objects []Object) int64 {
	numWorkers := d.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(objects) {
		numWorkers = len(objects)
	}

	jobCh := make(chan Object, len(objects))
	var wg sync.WaitGroup
	var done, failed int64

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for obj := range jobCh {
				url := fmt.Sprintf("%s/%s/%s", d.ResourcesURL, obj.Hash[:2], obj.Hash)
				f, err := connectors.ForURL(url)
				if err == nil {
					err = f.EnsureFile(ctx, url, d.Dir.AssetObjectPath(obj.Hash), connectors.EnsureOptions{Sha1: obj.Hash})
				}
				if err != nil {
					atomic.AddInt64(&failed, 1)
					d.logger.Warn("failed to download asset", "hash", obj.Hash, "err", err)
					continue
				}
				n := atomic.AddInt64(&done, 1)
				if d.Progress != nil {
					d.Progress.Sendf("Downloaded asset %d/%d", n, len(objects))
				} else {
					utils.PrintProgress("Assets", int(n), len(objects), obj.Hash)
				}
			}
		}()
	}

	for _, obj := range objects {
		jobCh <- obj
	}
	close(jobCh)
	wg.Wait()

	return atomic.LoadInt64(&failed)
}
