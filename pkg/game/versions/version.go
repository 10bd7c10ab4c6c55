// Package versions knows which game versions exist: the cached remote
// index, the fabric loader catalogue, and the composite ids that name a
// loader stacked on a base version.
package versions

import (
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"arvenne.fr/craftlaunch/pkg/game/shared"
)

// GameVersion identifies one launchable version. Vanilla entries come
// straight from the remote index; loader entries are derived from a base
// entry plus a loader version and never appear in the index itself.
type GameVersion struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	Sha1        string    `json:"sha1,omitempty"`
	ReleaseTime time.Time `json:"releaseTime"`

	Loader        bool   `json:"loader,omitempty"`
	LoaderVersion string `json:"loaderVersion,omitempty"`
	BaseID        string `json:"baseId,omitempty"`
}

// EffectiveID is the id the version directory and manifest are stored
// under: the plain id for vanilla, the composite loader id otherwise.
func (v GameVersion) EffectiveID() string {
	if !v.Loader {
		return v.ID
	}
	return shared.LoaderPrefix + v.LoaderVersion + "-" + v.BaseID
}

// BaseVersion is the vanilla version underneath, which is the id itself
// for vanilla entries.
func (v GameVersion) BaseVersion() string {
	if v.Loader {
		return v.BaseID
	}
	return v.ID
}

// WithLoader derives the loader-on-top-of-this variant. The manifest URL
// is cleared; whoever derives the value knows where loader profiles live.
func (v GameVersion) WithLoader(loaderVersion string) GameVersion {
	derived := GameVersion{
		Type:          v.Type,
		ReleaseTime:   v.ReleaseTime,
		Loader:        true,
		LoaderVersion: loaderVersion,
		BaseID:        v.BaseVersion(),
	}
	derived.ID = derived.EffectiveID()
	return derived
}

// ParseLoaderID inverts the composite "fabric-loader-<loader>-<base>"
// form. The two halves are both dash-separated, so the split walks the
// candidate positions until the left side is a plausible loader version
// and the right side starts like a game version.
func ParseLoaderID(id string) (loaderVersion string, baseID string, ok bool) {
	rest, found := strings.CutPrefix(id, shared.LoaderPrefix)
	if !found || rest == "" {
		return "", "", false
	}

	for i := 0; i < len(rest); i++ {
		if rest[i] != '-' || i == 0 || i == len(rest)-1 {
			continue
		}
		left, right := rest[:i], rest[i+1:]
		if semver.IsValid("v"+left) && right[0] >= '0' && right[0] <= '9' {
			return left, right, true
		}
	}
	return "", "", false
}
