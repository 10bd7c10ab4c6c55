// Package folder lays out the game directory: versions, libraries,
// extracted natives, assets, and the version index cache all live at
// fixed paths other tooling relies on.
package folder

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"arvenne.fr/craftlaunch/pkg/game/shared"
)

type GameDir struct {
	Root string
}

func At(root string) GameDir {
	return GameDir{Root: root}
}

// Default is the per-user game directory for folderName, following each
// platform's conventions.
func Default(folderName string) (GameDir, error) {
	switch runtime.GOOS {
	case "darwin":
		return At(filepath.Join(os.Getenv("HOME"), "Library", "Application Support", folderName)), nil
	case "windows":
		return At(filepath.Join(os.Getenv("APPDATA"), folderName)), nil
	case "linux":
		return At(filepath.Join(os.Getenv("HOME"), "."+folderName)), nil
	}
	return GameDir{}, fmt.Errorf("unsupported OS %q", runtime.GOOS)
}

// Ensure creates the standard directory skeleton.
func (g GameDir) Ensure() error {
	for _, dir := range []string{
		g.VersionsDir(),
		g.LibrariesDir(),
		g.AssetsDir(),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func (g GameDir) VersionsDir() string {
	return filepath.Join(g.Root, shared.DirVersions)
}

// VersionDir is versions/<id>, holding the manifest and (for base
// versions) the main jar.
func (g GameDir) VersionDir(id string) string {
	return filepath.Join(g.VersionsDir(), id)
}

func (g GameDir) ManifestPath(id string) string {
	return filepath.Join(g.VersionDir(id), id+".json")
}

func (g GameDir) JarPath(id string) string {
	return filepath.Join(g.VersionDir(id), id+".jar")
}

func (g GameDir) LibrariesDir() string {
	return filepath.Join(g.Root, shared.DirLibraries)
}

// LibraryPath places a slash-separated repository path under libraries/.
func (g GameDir) LibraryPath(relPath string) string {
	return filepath.Join(g.LibrariesDir(), filepath.FromSlash(relPath))
}

// NativesRoot holds one extraction directory per version.
func (g GameDir) NativesRoot() string {
	return filepath.Join(g.LibrariesDir(), shared.DirNatives)
}

// NativesDir is the version-scoped extraction target, transient and
// regenerable.
func (g GameDir) NativesDir(id string) string {
	return filepath.Join(g.NativesRoot(), id)
}

func (g GameDir) AssetsDir() string {
	return filepath.Join(g.Root, shared.DirAssets)
}

func (g GameDir) AssetIndexPath(id string) string {
	return filepath.Join(g.AssetsDir(), "indexes", id+".json")
}

// AssetObjectPath shards objects by the first two hash characters, the
// same way the remote resource store does.
func (g GameDir) AssetObjectPath(hash string) string {
	if len(hash) < 2 {
		return filepath.Join(g.AssetsDir(), "objects", hash)
	}
	return filepath.Join(g.AssetsDir(), "objects", hash[:2], hash)
}

// IndexCachePath holds the cached version index plus revalidation state.
func (g GameDir) IndexCachePath() string {
	return filepath.Join(g.Root, "version_index.json")
}
