package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arvenne.fr/craftlaunch/pkg/connectors"
	"arvenne.fr/craftlaunch/pkg/game/folder"
	"arvenne.fr/craftlaunch/pkg/game/manifest"
	"arvenne.fr/craftlaunch/pkg/game/maven"
	"arvenne.fr/craftlaunch/pkg/game/rules"
	"arvenne.fr/craftlaunch/pkg/game/versions"
	"arvenne.fr/craftlaunch/pkg/utils"
)

var linux64 = rules.PlatformInfo{OS: rules.OSLinux, Arch: rules.ArchX86, Bits: 64}

type fixture struct {
	srv   *httptest.Server
	dir   folder.GameDir
	r     *Resolver
	files map[string][]byte
}

func (fx *fixture) serve(t *testing.T, path string, body []byte) {
	t.Helper()
	fx.files[path] = body
}

func (fx *fixture) serveJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	fx.serve(t, path, data)
}

func (fx *fixture) artifact(t *testing.T, path string, payload string) (url string, sha1 string) {
	t.Helper()
	fx.serve(t, path, []byte(payload))
	return fx.srv.URL + path, utils.BytesSHA1([]byte(payload))
}

func strFrag(s string) manifest.Fragment {
	return manifest.Fragment{Values: []string{s}}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fx := &fixture{files: map[string][]byte{}}
	fx.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if body, ok := fx.files[r.URL.Path]; ok {
			w.Write(body)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(fx.srv.Close)

	fx.dir = folder.At(filepath.Join(t.TempDir(), "game"))

	// Base version 1.21.4: two plain libraries, one with a native
	// classifier, one excluded on linux, plus the client jar.
	b1URL, b1Sha := fx.artifact(t, "/files/b-one.jar", "b-one-bytes")
	b2URL, b2Sha := fx.artifact(t, "/files/b-two.jar", "b-two-bytes")
	lwjglURL, lwjglSha := fx.artifact(t, "/files/lwjgl.jar", "lwjgl-bytes")
	nativeURL, nativeSha := fx.artifact(t, "/files/lwjgl-natives.jar", "lwjgl-natives-bytes")
	clientURL, clientSha := fx.artifact(t, "/files/client.jar", "client-bytes")

	baseDoc := manifest.Document{
		ID:        "1.21.4",
		Type:      "release",
		MainClass: "net.minecraft.client.main.Main",
		AssetIndex: &manifest.AssetIndexRef{
			ID:   "19",
			URL:  fx.srv.URL + "/assets/19.json",
			Sha1: "aa",
		},
		Downloads: map[string]manifest.DownloadEntry{
			"client": {URL: clientURL, Sha1: clientSha},
		},
		Arguments: manifest.Arguments{
			Game: []manifest.Fragment{strFrag("--username"), strFrag("${auth_player_name}")},
			JVM:  []manifest.Fragment{strFrag("-Djava.library.path=${natives_directory}")},
		},
		Libraries: []manifest.Library{
			{
				Name: "com.example:b-one:1.0",
				Downloads: manifest.LibraryDownloads{
					Artifact: &manifest.Artifact{Path: "com/example/b-one/1.0/b-one-1.0.jar", URL: b1URL, Sha1: b1Sha},
				},
			},
			{
				Name: "com.example:b-two:1.0",
				Downloads: manifest.LibraryDownloads{
					Artifact: &manifest.Artifact{Path: "com/example/b-two/1.0/b-two-1.0.jar", URL: b2URL, Sha1: b2Sha},
				},
			},
			{
				Name: "org.lwjgl:lwjgl:3.3.3",
				Downloads: manifest.LibraryDownloads{
					Artifact: &manifest.Artifact{Path: "org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3.jar", URL: lwjglURL, Sha1: lwjglSha},
					Classifiers: map[string]*manifest.Artifact{
						"natives-linux": {Path: "org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-linux.jar", URL: nativeURL, Sha1: nativeSha},
					},
				},
			},
			{
				Name: "com.example:win-only:1.0",
				Downloads: manifest.LibraryDownloads{
					Artifact: &manifest.Artifact{Path: "com/example/win-only/1.0/win-only-1.0.jar", URL: fx.srv.URL + "/files/never-served.jar"},
				},
				Rules: []manifest.Rule{
					{Action: "allow"},
					{Action: "disallow", OS: &manifest.OSMatcher{Name: "linux"}},
				},
			},
		},
	}
	fx.serveJSON(t, "/v/1.21.4.json", baseDoc)

	// Loader profile over 1.21.4: one bare-coordinate library served from
	// the declared maven base.
	_, l1Sha := fx.artifact(t, "/maven/net/fabricmc/fabric-loader/0.16.10/fabric-loader-0.16.10.jar", "loader-bytes")
	loaderDoc := manifest.Document{
		ID:           "fabric-loader-0.16.10-1.21.4",
		InheritsFrom: "1.21.4",
		Type:         "release",
		MainClass:    "net.fabricmc.loader.impl.launch.knot.KnotClient",
		Arguments: manifest.Arguments{
			JVM: []manifest.Fragment{strFrag("-DFabricMcEmu= net.minecraft.client.main.Main ")},
		},
		Libraries: []manifest.Library{
			{Name: "net.fabricmc:fabric-loader:0.16.10", URL: fx.srv.URL + "/maven", Sha1: l1Sha},
		},
	}
	fx.serveJSON(t, "/versions/loader/1.21.4/0.16.10/profile/json", loaderDoc)

	fx.serveJSON(t, "/index.json", versions.Index{
		Versions: []versions.GameVersion{
			{ID: "1.21.4", Type: "release", URL: fx.srv.URL + "/v/1.21.4.json"},
			{ID: "1.20.0", Type: "release", URL: fx.srv.URL + "/v/1.20.0.json"},
		},
	})

	fetcher, err := connectors.ForURL(fx.srv.URL)
	require.NoError(t, err)
	cache := versions.NewCache(fx.dir.IndexCachePath(), time.Hour, fx.srv.URL+"/index.json", fetcher, nil)
	svc := versions.NewService(cache, versions.NewFabricClient(fx.srv.URL), nil)

	fx.r = New(fx.dir, svc, rules.NewEvaluator(linux64), nil)
	fx.r.Workers = 4
	fx.r.Repos = []string{fx.srv.URL + "/maven"}
	return fx
}

func TestResolveVanilla(t *testing.T) {
	fx := newFixture(t)

	out, err := fx.r.Resolve(context.Background(), "1.21.4")
	require.NoError(t, err)
	assert.Empty(t, out.Missing)

	want := []string{
		fx.dir.LibraryPath("com/example/b-one/1.0/b-one-1.0.jar"),
		fx.dir.LibraryPath("com/example/b-two/1.0/b-two-1.0.jar"),
		fx.dir.LibraryPath("org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3.jar"),
		fx.dir.JarPath("1.21.4"),
	}
	assert.Equal(t, want, out.Classpath, "classpath must follow manifest order, main jar last")

	require.Len(t, out.NativePaths, 1)
	assert.Equal(t, fx.dir.LibraryPath("org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-linux.jar"), out.NativePaths[0])

	assert.Equal(t, "net.minecraft.client.main.Main", out.MainClass)
	assert.Equal(t, "19", out.AssetIndexID())

	for _, p := range append(append([]string{}, want...), out.NativePaths...) {
		_, err := os.Stat(p)
		assert.NoError(t, err, "resolved artifact %s must exist", p)
	}

	data, err := os.ReadFile(fx.dir.JarPath("1.21.4"))
	require.NoError(t, err)
	assert.Equal(t, "client-bytes", string(data))

	_, err = os.Stat(fx.dir.ManifestPath("1.21.4"))
	assert.NoError(t, err, "manifest must be persisted locally")
}

func TestResolveOfflineAfterFirstResolve(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.r.Resolve(context.Background(), "1.21.4")
	require.NoError(t, err)

	fx.srv.Close()

	out, err := fx.r.Resolve(context.Background(), "1.21.4")
	require.NoError(t, err, "a fully materialized version must resolve without network")
	assert.Empty(t, out.Missing)
}

func TestResolveForLaunchOverlay(t *testing.T) {
	fx := newFixture(t)

	out, err := fx.r.ResolveForLaunch(context.Background(), "fabric-loader-0.16.10-1.21.4")
	require.NoError(t, err)
	assert.Empty(t, out.Missing)

	want := []string{
		fx.dir.LibraryPath("net/fabricmc/fabric-loader/0.16.10/fabric-loader-0.16.10.jar"),
		fx.dir.LibraryPath("com/example/b-one/1.0/b-one-1.0.jar"),
		fx.dir.LibraryPath("com/example/b-two/1.0/b-two-1.0.jar"),
		fx.dir.LibraryPath("org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3.jar"),
		fx.dir.JarPath("1.21.4"),
	}
	assert.Equal(t, want, out.Classpath,
		"loader libraries first, then base libraries, base jar last, no loader jar")

	assert.Equal(t, "net.fabricmc.loader.impl.launch.knot.KnotClient", out.MainClass)
	assert.Equal(t, "19", out.AssetIndexID(), "asset index comes from the base manifest")

	require.NotEmpty(t, out.JVMFragments)
	assert.Equal(t, []string{"-DFabricMcEmu= net.minecraft.client.main.Main "}, out.JVMFragments[0].Values,
		"loader argument fragments come first")

	_, err = os.Stat(fx.dir.ManifestPath("fabric-loader-0.16.10-1.21.4"))
	assert.NoError(t, err, "loader profile must be persisted under its composite id")
}

func TestResolveForLaunchMissingBase(t *testing.T) {
	fx := newFixture(t)

	// A loader profile on disk whose base version exists nowhere.
	orphan := manifest.Document{
		ID:           "fabric-loader-0.16.10-9.0.0",
		InheritsFrom: "9.0.0",
		MainClass:    "net.fabricmc.loader.impl.launch.knot.KnotClient",
	}
	data, err := json.Marshal(orphan)
	require.NoError(t, err)
	require.NoError(t, utils.WriteFileAtomic(fx.dir.ManifestPath("fabric-loader-0.16.10-9.0.0"), data, 0644))

	_, err = fx.r.ResolveForLaunch(context.Background(), "fabric-loader-0.16.10-9.0.0")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrManifestMissing, "an unresolvable base must fail, not produce an empty classpath")
	assert.Contains(t, err.Error(), "9.0.0")
}

func TestResolveUnknownVersion(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.r.Resolve(context.Background(), "9.9.9")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrManifestMissing)
}

func TestResolveFallbackRepos(t *testing.T) {
	fx := newFixture(t)

	// fb resolves via the fallback repo after its declared base 404s;
	// gone exists nowhere and must surface as a warning, not an error.
	_, fbSha := fx.artifact(t, "/maven/com/example/fb/2.0/fb-2.0.jar", "fb-bytes")
	doc := manifest.Document{
		ID:        "1.20.0",
		Type:      "release",
		MainClass: "net.minecraft.client.main.Main",
		Libraries: []manifest.Library{
			{Name: "com.example:fb:2.0", URL: fx.srv.URL + "/broken-repo", Sha1: fbSha},
			{Name: "com.example:gone:1.0"},
		},
	}
	fx.serveJSON(t, "/v/1.20.0.json", doc)

	out, err := fx.r.Resolve(context.Background(), "1.20.0")
	require.NoError(t, err)

	fbPath := fx.dir.LibraryPath("com/example/fb/2.0/fb-2.0.jar")
	gonePath := fx.dir.LibraryPath("com/example/gone/1.0/gone-1.0.jar")

	_, err = os.Stat(fbPath)
	assert.NoError(t, err, "fallback repository must have served fb")

	require.Len(t, out.Missing, 1)
	assert.Equal(t, "com.example:gone:1.0", out.Missing[0].Name)
	assert.ErrorIs(t, out.Missing[0].Err, ErrArtifactUnavailable)

	// The classpath still lists both planned paths in order.
	assert.Equal(t, []string{fbPath, gonePath, fx.dir.JarPath("1.20.0")}, out.Classpath)
}

func TestResolvePresentArtifactWithoutURL(t *testing.T) {
	fx := newFixture(t)

	// Both artifacts declare no URL; one is already on disk, the other is
	// nowhere to be found.
	payload := []byte("local-bytes")
	onDisk := "com/example/local/1.0/local-1.0.jar"
	require.NoError(t, utils.WriteFileAtomic(fx.dir.LibraryPath(onDisk), payload, 0644))

	doc := manifest.Document{
		ID:        "1.20.0",
		Type:      "release",
		MainClass: "net.minecraft.client.main.Main",
		Libraries: []manifest.Library{
			{
				Name: "com.example:local:1.0",
				Downloads: manifest.LibraryDownloads{
					Artifact: &manifest.Artifact{Path: onDisk, Sha1: utils.BytesSHA1(payload)},
				},
			},
			{
				Name: "com.example:nowhere:1.0",
				Downloads: manifest.LibraryDownloads{
					Artifact: &manifest.Artifact{Path: "com/example/nowhere/1.0/nowhere-1.0.jar"},
				},
			},
		},
	}
	fx.serveJSON(t, "/v/1.20.0.json", doc)

	out, err := fx.r.Resolve(context.Background(), "1.20.0")
	require.NoError(t, err)

	require.Len(t, out.Missing, 1, "an artifact already on disk must never be reported missing")
	assert.Equal(t, "com.example:nowhere:1.0", out.Missing[0].Name)
	assert.ErrorIs(t, out.Missing[0].Err, ErrArtifactUnavailable)

	assert.Contains(t, out.Classpath, fx.dir.LibraryPath(onDisk))
}

func TestResolveInvalidCoordinate(t *testing.T) {
	fx := newFixture(t)

	okURL, okSha := fx.artifact(t, "/files/ok.jar", "ok-bytes")
	doc := manifest.Document{
		ID:        "1.20.0",
		Type:      "release",
		MainClass: "net.minecraft.client.main.Main",
		Libraries: []manifest.Library{
			{Name: "not-a-coordinate"},
			{
				Name: "com.example:ok:1.0",
				Downloads: manifest.LibraryDownloads{
					Artifact: &manifest.Artifact{Path: "com/example/ok/1.0/ok-1.0.jar", URL: okURL, Sha1: okSha},
				},
			},
		},
	}
	fx.serveJSON(t, "/v/1.20.0.json", doc)

	out, err := fx.r.Resolve(context.Background(), "1.20.0")
	require.NoError(t, err, "one malformed coordinate must not abort the resolve")

	require.Len(t, out.Missing, 1)
	assert.ErrorIs(t, out.Missing[0].Err, maven.ErrInvalidCoordinate)

	assert.Contains(t, out.Classpath, fx.dir.LibraryPath("com/example/ok/1.0/ok-1.0.jar"))
}
