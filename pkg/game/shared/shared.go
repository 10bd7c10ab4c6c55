// Package shared holds the constants and small types every game package
// agrees on: remote endpoints, directory names, and the progress sink.
package shared

import "fmt"

// Progress receives human-readable progress messages from long-running
// operations. It is purely observational; a nil Progress is valid and
// drops everything.
type Progress func(msg string)

func (p Progress) Send(msg string) {
	if p != nil {
		p(msg)
	}
}

func (p Progress) Sendf(format string, args ...any) {
	if p != nil {
		p(fmt.Sprintf(format, args...))
	}
}

const (
	// VersionIndexURL is the remote version index (v2 carries sha1 digests
	// for the per-version manifests).
	VersionIndexURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

	// ResourcesURL serves asset objects addressed by hash.
	ResourcesURL = "https://resources.download.minecraft.net"

	// FabricMetaURL serves the loader catalogue and loader profiles.
	FabricMetaURL = "https://meta.fabricmc.net/v2"

	// Maven repositories probed for bare-coordinate libraries, in order.
	MojangLibrariesURL = "https://libraries.minecraft.net"
	FabricMavenURL     = "https://maven.fabricmc.net"
	MavenCentralURL    = "https://repo1.maven.org/maven2"
)

const (
	DirVersions  = "versions"
	DirLibraries = "libraries"
	DirNatives   = "natives"
	DirAssets    = "assets"
)

// LoaderPrefix starts every composite loader version id.
const LoaderPrefix = "fabric-loader-"
