package launcher

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arvenne.fr/craftlaunch/pkg/game/folder"
	"arvenne.fr/craftlaunch/pkg/game/manifest"
	"arvenne.fr/craftlaunch/pkg/game/natives"
	"arvenne.fr/craftlaunch/pkg/game/resolver"
	"arvenne.fr/craftlaunch/pkg/game/rules"
	"arvenne.fr/craftlaunch/pkg/utils"
)

func TestPlanExpandsArguments(t *testing.T) {
	l := New(folder.At(t.TempDir()), nil, rules.NewEvaluator(linuxPlat), nil)
	l.JavaPath = "/opt/java/bin/java"

	out := &resolver.Output{
		ID:         "1.21.4",
		MainClass:  "net.minecraft.client.main.Main",
		AssetIndex: &manifest.AssetIndexRef{ID: "19"},
		Classpath:  []string{"/g/a.jar", "/g/b.jar"},
		JVMFragments: []manifest.Fragment{
			{Values: []string{"-Djava.library.path=${natives_directory}"}},
			{Values: []string{"-Dminecraft.launcher.brand=${launcher_name}"}},
			{Values: []string{"-cp", "${classpath}"}},
			{
				Values: []string{"-XstartOnFirstThread"},
				Rules:  []manifest.Rule{{Action: "allow", OS: &manifest.OSMatcher{Name: "osx"}}},
			},
		},
		GameFragments: []manifest.Fragment{
			{Values: []string{"--username", "${auth_player_name}"}},
			{Values: []string{"--assetIndex", "${assets_index_name}"}},
			{
				Values: []string{"--demo"},
				Rules:  []manifest.Rule{{Action: "allow", Features: map[string]bool{"is_demo_user": true}}},
			},
		},
	}

	plan, err := l.Plan(context.Background(), out, "/g/natives/1.21.4")
	require.NoError(t, err)

	assert.Equal(t, "/opt/java/bin/java", plan.Java)
	assert.Contains(t, plan.JVMArgs, "-Dminecraft.launcher.brand=craftlaunch")
	assert.NotContains(t, plan.JVMArgs, "-XstartOnFirstThread")
	assert.Equal(t, []string{"--username", "steve", "--assetIndex", "19"}, plan.GameArgs)

	// The builder owns the classpath and library-path flags; the manifest
	// fragments naming them must not produce a second copy.
	cmd := plan.Command()
	assert.Equal(t, 1, countToken(cmd, "-cp"))
	assert.Equal(t, 1, countPrefix(cmd, "-Djava.library.path="))
	assert.Contains(t, cmd, "-Djava.library.path=/g/natives/1.21.4")
	assert.Contains(t, cmd, "/g/a.jar:/g/b.jar")
}

func TestPlanMemoryAndEncodingLeadJVMArgs(t *testing.T) {
	l := New(folder.At(t.TempDir()), nil, rules.NewEvaluator(linuxPlat), nil)
	l.JavaPath = "java"

	plan, err := l.Plan(context.Background(), &resolver.Output{ID: "1.21.4", MainClass: "Main"}, "")
	require.NoError(t, err)
	require.True(t, len(plan.JVMArgs) >= 3)
	assert.Equal(t, []string{"-Xmx4G", "-Xms2G", "-Dfile.encoding=UTF-8"}, plan.JVMArgs[:3])
}

func TestPlanLegacyMacMainThreadFlag(t *testing.T) {
	out := func() *resolver.Output {
		return &resolver.Output{ID: "1.8.9", MainClass: "Main"}
	}

	onMac := New(folder.At(t.TempDir()), nil, rules.NewEvaluator(osxPlat), nil)
	onMac.JavaPath = "java"
	plan, err := onMac.Plan(context.Background(), out(), "")
	require.NoError(t, err)
	assert.Contains(t, plan.JVMArgs, "-XstartOnFirstThread")

	onLinux := New(folder.At(t.TempDir()), nil, rules.NewEvaluator(linuxPlat), nil)
	onLinux.JavaPath = "java"
	plan, err = onLinux.Plan(context.Background(), out(), "")
	require.NoError(t, err)
	assert.NotContains(t, plan.JVMArgs, "-XstartOnFirstThread")
}

func TestPlanExtraJVMArgsLast(t *testing.T) {
	l := New(folder.At(t.TempDir()), nil, rules.NewEvaluator(linuxPlat), nil)
	l.JavaPath = "java"
	l.ExtraJVMArgs = []string{"-XX:+UseG1GC"}

	plan, err := l.Plan(context.Background(), &resolver.Output{ID: "1.21.4", MainClass: "Main"}, "")
	require.NoError(t, err)
	assert.Equal(t, "-XX:+UseG1GC", plan.JVMArgs[len(plan.JVMArgs)-1])
}

// TestPlanVanillaEndToEnd resolves a version whose files are all already
// on disk, extracts its natives and builds the launch command, checking
// the classpath ends with the game jar and the library path points at a
// real directory.
func TestPlanVanillaEndToEnd(t *testing.T) {
	dir := folder.At(t.TempDir())
	require.NoError(t, dir.Ensure())

	libBody := []byte("lib-bytes")
	libRel := "com/example/engine/1.0/engine-1.0.jar"
	require.NoError(t, utils.WriteFileAtomic(dir.LibraryPath(libRel), libBody, 0o644))

	nativeJar := makeNativeJar(t, map[string]string{
		"libengine.so":         "so-bytes",
		"META-INF/MANIFEST.MF": "mf",
	})
	nativeRel := "com/example/engine/1.0/engine-1.0-natives-linux-64.jar"
	require.NoError(t, utils.WriteFileAtomic(dir.LibraryPath(nativeRel), nativeJar, 0o644))

	jarBody := []byte("client-bytes")
	require.NoError(t, utils.WriteFileAtomic(dir.JarPath("1.21"), jarBody, 0o644))

	doc := manifest.Document{
		ID:         "1.21",
		Type:       "release",
		MainClass:  "net.minecraft.client.main.Main",
		AssetIndex: &manifest.AssetIndexRef{ID: "17"},
		Downloads: map[string]manifest.DownloadEntry{
			"client": {Sha1: utils.BytesSHA1(jarBody), URL: "http://unused.invalid/client.jar"},
		},
		Arguments: manifest.Arguments{
			JVM: []manifest.Fragment{
				{Values: []string{"-Djava.library.path=${natives_directory}"}},
				{Values: []string{"-cp", "${classpath}"}},
			},
			Game: []manifest.Fragment{{Values: []string{"--version", "${version_name}"}}},
		},
		Libraries: []manifest.Library{{
			Name: "com.example:engine:1.0",
			Downloads: manifest.LibraryDownloads{
				Artifact: &manifest.Artifact{Path: libRel, Sha1: utils.BytesSHA1(libBody), URL: "http://unused.invalid/engine.jar"},
				Classifiers: map[string]*manifest.Artifact{
					"natives-linux-64": {Path: nativeRel, Sha1: utils.BytesSHA1(nativeJar), URL: "http://unused.invalid/native.jar"},
				},
			},
		}},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, utils.WriteFileAtomic(dir.ManifestPath("1.21"), data, 0o644))

	eval := rules.NewEvaluator(linuxPlat)
	r := resolver.New(dir, nil, eval, nil)
	out, err := r.ResolveForLaunch(context.Background(), "1.21")
	require.NoError(t, err)
	require.Empty(t, out.Missing)
	require.Equal(t, dir.JarPath("1.21"), out.Classpath[len(out.Classpath)-1])

	natDir, err := natives.NewExtractor(nil).Extract(out, dir.NativesRoot())
	require.NoError(t, err)

	l := New(dir, nil, eval, nil)
	l.JavaPath = "/usr/bin/java"
	plan, err := l.Plan(context.Background(), out, natDir)
	require.NoError(t, err)

	cmd := plan.Command()
	assert.Contains(t, cmd, "-Djava.library.path="+natDir)
	assert.Contains(t, cmd, "net.minecraft.client.main.Main")
	assert.Equal(t, []string{"--version", "1.21"}, cmd[len(cmd)-2:])

	info, err := os.Stat(natDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	_, err = os.Stat(filepath.Join(natDir, "libengine.so"))
	require.NoError(t, err)
}

func countToken(tokens []string, want string) int {
	n := 0
	for _, tok := range tokens {
		if tok == want {
			n++
		}
	}
	return n
}

func countPrefix(tokens []string, prefix string) int {
	n := 0
	for _, tok := range tokens {
		if strings.HasPrefix(tok, prefix) {
			n++
		}
	}
	return n
}

func makeNativeJar(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
