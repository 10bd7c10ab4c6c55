// Package rules decides which manifest entries apply to the running
// platform and which native classifier keys to probe for it.
package rules

import (
	"runtime"
	"strings"

	"arvenne.fr/craftlaunch/pkg/game/manifest"
)

const (
	OSWindows = "windows"
	OSOSX     = "osx"
	OSLinux   = "linux"

	ArchX86 = "x86"
	ArchArm = "arm"
)

// UnsupportedKey is returned when the platform maps to no known native
// classifier.
const UnsupportedKey = "unsupported"

// PlatformInfo is an explicit snapshot of the host, carried by value into
// everything that filters on platform. Logic never reads the ambient Go
// runtime identifiers itself; CurrentPlatform is the one place that does.
type PlatformInfo struct {
	OS   string // windows | osx | linux
	Arch string // x86 | arm
	Bits int    // 32 | 64
}

func CurrentPlatform() PlatformInfo {
	p := PlatformInfo{OS: OSLinux, Arch: ArchX86, Bits: 64}
	switch runtime.GOOS {
	case "windows":
		p.OS = OSWindows
	case "darwin":
		p.OS = OSOSX
	}
	switch runtime.GOARCH {
	case "386":
		p.Bits = 32
	case "arm":
		p.Arch = ArchArm
		p.Bits = 32
	case "arm64":
		p.Arch = ArchArm
	}
	return p
}

// archToken is the manifest-side spelling of the platform architecture.
func (p PlatformInfo) archToken() string {
	switch {
	case p.Arch == ArchArm && p.Bits == 64:
		return "arm64"
	case p.Arch == ArchArm:
		return "arm"
	case p.Bits == 32:
		return "x86"
	default:
		return "x86_64"
	}
}

// NativeKey is the canonical classifier key for the platform, or
// UnsupportedKey when there is none.
func (p PlatformInfo) NativeKey() string {
	if p.OS != OSWindows && p.OS != OSOSX && p.OS != OSLinux {
		return UnsupportedKey
	}
	switch {
	case p.Arch == ArchArm && p.Bits == 64:
		return "natives-" + p.OS + "-arm64"
	case p.Arch == ArchArm:
		return UnsupportedKey
	case p.Bits == 32:
		return "natives-" + p.OS + "-32"
	default:
		return "natives-" + p.OS + "-64"
	}
}

// NativeKeys lists the classifier keys to probe, most specific first.
// Manifests have spelled these differently across the years, so the
// canonical key is followed by the historical ones for the platform.
func (p PlatformInfo) NativeKeys() []string {
	key := p.NativeKey()
	if key == UnsupportedKey {
		return nil
	}
	keys := []string{key}
	switch p.OS {
	case OSWindows:
		if p.Arch == ArchX86 && p.Bits == 32 {
			keys = append(keys, "natives-windows-x86")
		}
		keys = append(keys, "natives-windows", "windows")
	case OSLinux:
		keys = append(keys, "natives-linux", "linux")
	case OSOSX:
		if p.Arch == ArchArm {
			keys = append(keys, "natives-macos-arm64")
		} else {
			keys = append(keys, "natives-osx", "natives-macos")
		}
		keys = append(keys, "osx")
	}
	return keys
}

/////////////////////////////////////////////////////////////////////
// Evaluator
/////////////////////////////////////////////////////////////////////

// Evaluator applies conditional-inclusion rules against one fixed
// platform.
type Evaluator struct {
	Platform PlatformInfo
}

func NewEvaluator(p PlatformInfo) *Evaluator {
	return &Evaluator{Platform: p}
}

// Allowed reports whether an entry guarded by rs applies to the platform.
// No rules means universal inclusion. Otherwise the last matching rule
// decides; a rule without an OS predicate always matches. When nothing
// matches the verdict stays permissive, which is how historical manifests
// with incomplete rule lists behave.
func (e *Evaluator) Allowed(rs []manifest.Rule) bool {
	if len(rs) == 0 {
		return true
	}
	verdict := true
	for _, r := range rs {
		if !e.matches(r) {
			continue
		}
		verdict = strings.EqualFold(r.Action, "allow")
	}
	return verdict
}

// AllowedStrict is Allowed without the permissive fallback: an entry with
// rules stays excluded unless a matching rule allows it. Launch argument
// fragments are filtered this way, since a platform-gated JVM flag that
// leaks onto another OS aborts the JVM at startup; libraries keep the
// historical permissive form.
func (e *Evaluator) AllowedStrict(rs []manifest.Rule) bool {
	if len(rs) == 0 {
		return true
	}
	verdict := false
	for _, r := range rs {
		if !e.matches(r) {
			continue
		}
		verdict = strings.EqualFold(r.Action, "allow")
	}
	return verdict
}

// NativeKey mirrors PlatformInfo.NativeKey for callers that only hold the
// evaluator.
func (e *Evaluator) NativeKey() string {
	return e.Platform.NativeKey()
}

func (e *Evaluator) matches(r manifest.Rule) bool {
	// Feature predicates are a launch-argument concept; a platform-only
	// evaluator can never satisfy them.
	if len(r.Features) > 0 {
		return false
	}
	if r.OS == nil {
		return true
	}
	if r.OS.Name != "" && canonicalOS(r.OS.Name) != e.Platform.OS {
		return false
	}
	if r.OS.Arch != "" && canonicalArch(r.OS.Arch) != e.Platform.archToken() {
		return false
	}
	return true
}

// Mojang historically wrote "osx"; newer documents write "macos". Both
// mean the same platform.
func canonicalOS(name string) string {
	name = strings.ToLower(name)
	if name == "macos" {
		return OSOSX
	}
	return name
}

func canonicalArch(arch string) string {
	switch strings.ToLower(arch) {
	case "amd64", "x86_64":
		return "x86_64"
	case "i386", "386", "x86":
		return "x86"
	case "aarch64", "arm64":
		return "arm64"
	default:
		return strings.ToLower(arch)
	}
}
