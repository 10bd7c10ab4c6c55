package launcher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

/////////////////////////////////////////////////////////////////////
// Java discovery
/////////////////////////////////////////////////////////////////////

// RequiredJavaMajor maps a base game version to the java major it ships
// against. Ids that are not dotted versions (snapshots) get the newest
// mapping.
func RequiredJavaMajor(gameID string) string {
	v := "v" + gameID
	if !semver.IsValid(v) {
		return "21"
	}
	switch {
	case semver.Compare(v, "v1.16") < 0:
		return "8"
	case semver.Compare(v, "v1.17") < 0:
		return "11"
	case semver.Compare(v, "v1.18") < 0:
		return "16"
	case semver.Compare(v, "v1.20.5") < 0:
		return "17"
	default:
		return "21"
	}
}

// FindJava locates a java executable for the wanted major version. An
// explicit override wins unconditionally. Otherwise JAVA_HOME, PATH and
// the usual install roots are probed in order; an exact major match is
// preferred, a newer runtime accepted as fallback.
func FindJava(ctx context.Context, override, wantMajor string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("configured java %s: %w", override, err)
		}
		return override, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	want := majorOf(wantMajor)
	newer := ""
	for _, cand := range javaCandidates() {
		v, err := probeJavaVersion(ctx, cand)
		if err != nil {
			continue
		}
		major := majorOf(v)
		if want == 0 || major == want {
			return cand, nil
		}
		if newer == "" && major > want {
			newer = cand
		}
	}
	if newer != "" {
		return newer, nil
	}
	return "", fmt.Errorf("no java matching major %q found", wantMajor)
}

func javaExe() string {
	if runtime.GOOS == "windows" {
		return "java.exe"
	}
	return "java"
}

func javaCandidates() []string {
	var cands []string
	if jh := os.Getenv("JAVA_HOME"); jh != "" {
		cands = append(cands, filepath.Join(jh, "bin", javaExe()))
	}
	if p, err := exec.LookPath(javaExe()); err == nil {
		cands = append(cands, p)
	}

	switch runtime.GOOS {
	case "darwin":
		cands = append(cands, glob("/Library/Java/JavaVirtualMachines/*/Contents/Home/bin/java")...)
		cands = append(cands, glob(filepath.Join(os.Getenv("HOME"), "Library/Java/JavaVirtualMachines/*/Contents/Home/bin/java"))...)
		// Homebrew formulae on both Apple Silicon and Intel prefixes.
		cands = append(cands, glob("/opt/homebrew/opt/openjdk*/libexec/openjdk.jdk/Contents/Home/bin/java")...)
		cands = append(cands, glob("/usr/local/opt/openjdk*/libexec/openjdk.jdk/Contents/Home/bin/java")...)
	case "linux":
		cands = append(cands, glob("/usr/lib/jvm/*/bin/java")...)
		cands = append(cands, glob("/usr/java/*/bin/java")...)
	case "windows":
		for _, root := range []string{os.Getenv("ProgramFiles"), os.Getenv("ProgramFiles(x86)")} {
			if root == "" {
				continue
			}
			cands = append(cands, glob(filepath.Join(root, "Java", "*", "bin", "java.exe"))...)
			cands = append(cands, glob(filepath.Join(root, "Eclipse Adoptium", "jdk-*", "bin", "java.exe"))...)
			cands = append(cands, glob(filepath.Join(root, "Zulu", "zulu*", "bin", "java.exe"))...)
		}
	}

	seen := map[string]struct{}{}
	out := cands[:0]
	for _, c := range cands {
		abs, _ := filepath.Abs(c)
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, c)
	}
	return out
}

func glob(pattern string) []string {
	matches, _ := filepath.Glob(pattern)
	return matches
}

// extracts "17.0.10" or "1.8.0_392" from java -version output
var javaVersionRe = regexp.MustCompile(`"(.*?)"`)

func probeJavaVersion(ctx context.Context, javaPath string) (string, error) {
	cmd := exec.CommandContext(ctx, javaPath, "-version")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr // java -version prints to stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}
	m := javaVersionRe.FindStringSubmatch(stderr.String())
	if len(m) < 2 {
		return "", fmt.Errorf("failed to parse version from: %s", stderr.String())
	}
	return m[1], nil
}

// majorOf normalizes "1.8.0_392" style versions to 8 and "17.0.10" style
// to 17.
func majorOf(v string) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if strings.HasPrefix(v, "1.") {
		parts := strings.SplitN(v, ".", 3)
		if len(parts) >= 2 {
			return atoi(parts[1])
		}
		return 0
	}
	head, _, _ := strings.Cut(v, ".")
	return atoi(head)
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
