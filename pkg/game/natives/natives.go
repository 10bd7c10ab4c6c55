// Package natives unpacks platform-native library archives into the
// version-scoped directory the JVM loads them from.
package natives

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"arvenne.fr/craftlaunch/pkg/game/resolver"
	"arvenne.fr/craftlaunch/pkg/game/shared"
)

// Extractor unpacks the native artifacts of a resolved version. Archive
// entries matching an exclude pattern are skipped; everything else is
// written out flat, overwriting on conflict.
type Extractor struct {
	// Excludes are doublestar patterns over slash-separated archive entry
	// names.
	Excludes []string
	Progress shared.Progress

	logger *log.Logger
}

func NewExtractor(logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{
		Excludes: []string{"META-INF/**"},
		logger:   logger,
	}
}

// Extract clears and recreates destRoot/<version id>, then unpacks every
// native artifact of out into it. A broken archive is logged and skipped;
// the remaining archives still extract. The returned path is the
// version-scoped directory.
func (e *Extractor) Extract(out *resolver.Output, destRoot string) (string, error) {
	dest := filepath.Join(destRoot, out.ID)

	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("failed to clear natives directory %s: %w", dest, err)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", fmt.Errorf("failed to create natives directory %s: %w", dest, err)
	}

	for i, archive := range out.NativePaths {
		if err := e.extractArchive(archive, dest); err != nil {
			e.logger.Warn("failed to extract natives archive", "archive", archive, "err", err)
			continue
		}
		e.Progress.Sendf("Extracted natives %d/%d (%s)", i+1, len(out.NativePaths), filepath.Base(archive))
	}
	return dest, nil
}

func (e *Extractor) extractArchive(archivePath string, dest string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		name := path.Clean(f.Name)
		if strings.HasPrefix(name, "..") || path.IsAbs(name) {
			e.logger.Warn("skipping archive entry escaping the destination", "entry", f.Name)
			continue
		}
		if e.excluded(name) {
			continue
		}

		if err := writeEntry(f, filepath.Join(dest, filepath.FromSlash(name))); err != nil {
			return fmt.Errorf("failed to extract %s: %w", name, err)
		}
	}
	return nil
}

func (e *Extractor) excluded(name string) bool {
	for _, pattern := range e.Excludes {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func writeEntry(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
