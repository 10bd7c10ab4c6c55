// Package resolver turns a version id into artifacts on disk and an
// ordered classpath: it obtains the manifest, filters its libraries for
// the platform, downloads what is absent, and stacks a loader manifest
// on top of its base version.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"arvenne.fr/craftlaunch/pkg/connectors"
	"arvenne.fr/craftlaunch/pkg/game/folder"
	"arvenne.fr/craftlaunch/pkg/game/manifest"
	"arvenne.fr/craftlaunch/pkg/game/maven"
	"arvenne.fr/craftlaunch/pkg/game/rules"
	"arvenne.fr/craftlaunch/pkg/game/shared"
	"arvenne.fr/craftlaunch/pkg/game/versions"
	"arvenne.fr/craftlaunch/pkg/utils"
)

var (
	ErrManifestMissing = errors.New("manifest missing")

	// ErrArtifactUnavailable marks a library whose every fetch candidate
	// failed. It surfaces inside MissingLibrary, never as a resolve error.
	ErrArtifactUnavailable = errors.New("artifact unavailable")
)

// ManifestMissingError reports a version whose manifest exists neither on
// disk nor remotely. It is fatal to the resolve that needed it.
type ManifestMissingError struct {
	ID    string
	Cause error
}

func (e *ManifestMissingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no manifest available for version %q: %v", e.ID, e.Cause)
	}
	return fmt.Sprintf("no manifest available for version %q", e.ID)
}

func (e *ManifestMissingError) Unwrap() error { return ErrManifestMissing }

// MissingLibrary records one artifact the resolve could not produce.
// Missing libraries are warnings, not failures; the launch may still
// work, or will fail later with a clearer classpath error.
type MissingLibrary struct {
	Name string
	Err  error
}

// Output is the resolved form of one version: everything on disk, in
// manifest-declared order. For a self-contained version the classpath
// ends with the main game jar; a loader manifest contributes no jar of
// its own.
type Output struct {
	ID            string
	Manifest      manifest.Manifest
	MainClass     string
	AssetIndex    *manifest.AssetIndexRef
	Classpath     []string
	NativePaths   []string
	JVMFragments  []manifest.Fragment
	GameFragments []manifest.Fragment
	Missing       []MissingLibrary
}

// AssetIndexID is the asset index identifier, empty for manifests that do
// not own assets.
func (o *Output) AssetIndexID() string {
	if o.AssetIndex == nil {
		return ""
	}
	return o.AssetIndex.ID
}

type Resolver struct {
	Dir      folder.GameDir
	Versions *versions.Service
	Eval     *rules.Evaluator

	// Repos are the fallback repository bases probed for bare-coordinate
	// libraries after the manifest-declared one.
	Repos []string
	// Workers bounds download concurrency; 0 means NumCPU.
	Workers  int
	Progress shared.Progress

	logger *log.Logger
}

func New(dir folder.GameDir, svc *versions.Service, eval *rules.Evaluator, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{
		Dir:      dir,
		Versions: svc,
		Eval:     eval,
		Repos:    []string{shared.MojangLibrariesURL, shared.FabricMavenURL, shared.MavenCentralURL},
		logger:   logger,
	}
}

/////////////////////////////////////////////////////////////////////
// Manifest loading
/////////////////////////////////////////////////////////////////////

// loadManifest reads versions/<id>/<id>.json, fetching and persisting it
// first when absent (or unreadable) and the version has a known URL.
func (r *Resolver) loadManifest(ctx context.Context, id string) (manifest.Manifest, error) {
	path := r.Dir.ManifestPath(id)

	if data, err := os.ReadFile(path); err == nil {
		if m, err := manifest.Decode(data); err == nil {
			return m, nil
		}
		r.logger.Warn("manifest on disk unreadable, refetching", "version", id, "path", path)
	}

	v, err := r.Versions.Lookup(ctx, id)
	if err != nil {
		return nil, &ManifestMissingError{ID: id, Cause: err}
	}

	f, err := connectors.ForURL(v.URL)
	if err != nil {
		return nil, &ManifestMissingError{ID: id, Cause: err}
	}
	if err := f.EnsureFile(ctx, v.URL, path, connectors.EnsureOptions{Force: true, Sha1: v.Sha1}); err != nil {
		return nil, &ManifestMissingError{ID: id, Cause: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ManifestMissingError{ID: id, Cause: err}
	}
	m, err := manifest.Decode(data)
	if err != nil {
		return nil, &ManifestMissingError{ID: id, Cause: err}
	}
	return m, nil
}

/////////////////////////////////////////////////////////////////////
// Resolve
/////////////////////////////////////////////////////////////////////

// Resolve materializes one manifest: every allowed library present on
// disk and listed in declaration order. Self-contained versions end the
// classpath with their own main jar.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Output, error) {
	m, err := r.loadManifest(ctx, id)
	if err != nil {
		return nil, err
	}

	doc := m.Document()
	out := &Output{
		ID:            id,
		Manifest:      m,
		MainClass:     doc.MainClass,
		AssetIndex:    doc.AssetIndex,
		JVMFragments:  doc.Arguments.JVM,
		GameFragments: doc.Arguments.Game,
	}

	r.Progress.Sendf("Resolving %s (%d libraries)", id, len(doc.Libraries))

	var jobs []fetchJob
	for i := range doc.Libraries {
		lib := &doc.Libraries[i]
		if !r.Eval.Allowed(lib.Rules) {
			continue
		}
		jobs = r.planLibrary(lib, out, jobs)
	}

	if _, ok := m.(*manifest.SelfContained); ok {
		jarPath := r.Dir.JarPath(id)
		out.Classpath = append(out.Classpath, jarPath)
		if client := doc.ClientDownload(); client != nil {
			jobs = append(jobs, fetchJob{
				name: id + " client jar",
				urls: []string{client.URL},
				dest: jarPath,
				sha1: client.Sha1,
			})
		}
	}

	out.Missing = append(out.Missing, r.download(ctx, jobs)...)
	for _, miss := range out.Missing {
		r.logger.Warn("library unavailable", "version", id, "name", miss.Name, "err", miss.Err)
	}
	return out, nil
}

// planLibrary resolves one entry to its disk paths and queues whatever is
// not there yet. The primary artifact and the platform's native
// classifier are independent; both may apply.
func (r *Resolver) planLibrary(lib *manifest.Library, out *Output, jobs []fetchJob) []fetchJob {
	if art := lib.DeclaredArtifact(); art != nil {
		dest := r.Dir.LibraryPath(art.Path)
		out.Classpath = append(out.Classpath, dest)
		jobs = append(jobs, fetchJob{name: lib.Name, urls: []string{art.URL}, dest: dest, sha1: art.Sha1})
	} else {
		coord, err := maven.Parse(lib.Name)
		if err != nil {
			out.Missing = append(out.Missing, MissingLibrary{Name: lib.Name, Err: err})
			return jobs
		}
		dest := r.Dir.LibraryPath(coord.RelPath())
		out.Classpath = append(out.Classpath, dest)

		var urls []string
		for _, base := range r.repoBases(lib.URL) {
			urls = append(urls, coord.URL(base))
		}
		jobs = append(jobs, fetchJob{name: lib.Name, urls: urls, dest: dest, sha1: lib.Sha1})
	}

	for _, key := range r.Eval.Platform.NativeKeys() {
		cls := lib.Classifier(key)
		if cls == nil {
			continue
		}
		dest := r.Dir.LibraryPath(cls.Path)
		out.NativePaths = append(out.NativePaths, dest)
		jobs = append(jobs, fetchJob{name: lib.Name + ":" + key, urls: []string{cls.URL}, dest: dest, sha1: cls.Sha1})
		break
	}
	return jobs
}

// repoBases orders the repositories to probe: the manifest-declared base
// first, then the well-known public ones.
func (r *Resolver) repoBases(declared string) []string {
	if declared == "" {
		return r.Repos
	}
	bases := []string{declared}
	for _, repo := range r.Repos {
		if repo != declared {
			bases = append(bases, repo)
		}
	}
	return bases
}

/////////////////////////////////////////////////////////////////////
// Downloads
/////////////////////////////////////////////////////////////////////

type fetchJob struct {
	name string
	urls []string
	dest string
	sha1 string
}

// fetchFirst tries each candidate URL in order and stops at the first
// success. A destination already matching its checksum is taken as-is,
// even when no candidate URL is usable.
func fetchFirst(ctx context.Context, urls []string, dest string, sha1 string) error {
	if connectors.Present(dest, sha1) {
		return nil
	}

	var errs []error
	for _, u := range urls {
		f, err := connectors.ForURL(u)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := f.EnsureFile(ctx, u, dest, connectors.EnsureOptions{Sha1: sha1}); err != nil {
			errs = append(errs, err)
			continue
		}
		return nil
	}
	if len(errs) == 0 {
		return fmt.Errorf("%w: no download URL", ErrArtifactUnavailable)
	}
	return fmt.Errorf("%w: %w", ErrArtifactUnavailable, errors.Join(errs...))
}

// download fans the jobs out over a bounded worker pool. Failures are
// collected, never fatal; the classpath was already laid out in manifest
// order so completion order is irrelevant.
func (r *Resolver) download(ctx context.Context, jobs []fetchJob) []MissingLibrary {
	if len(jobs) == 0 {
		return nil
	}

	numWorkers := r.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	jobCh := make(chan fetchJob, len(jobs))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var missing []MissingLibrary
	var done int64

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				err := fetchFirst(ctx, job.urls, job.dest, job.sha1)
				n := atomic.AddInt64(&done, 1)
				if err != nil {
					mu.Lock()
					missing = append(missing, MissingLibrary{Name: job.name, Err: err})
					mu.Unlock()
					continue
				}
				if r.Progress != nil {
					r.Progress.Sendf("Downloaded %s (%d/%d)", job.name, n, len(jobs))
				} else {
					utils.PrintProgress("Libraries", int(n), len(jobs), job.name)
				}
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()

	return missing
}

/////////////////////////////////////////////////////////////////////
// Assembly
/////////////////////////////////////////////////////////////////////

// ResolveForLaunch resolves id and, when the manifest inherits from a
// base version, stacks the two: loader libraries first, then the base
// libraries ending with the base jar. The entry-point class comes from
// the loader, the asset index from the base, argument fragments loader
// first. The loader has no jar of its own to append.
func (r *Resolver) ResolveForLaunch(ctx context.Context, id string) (*Output, error) {
	out, err := r.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	switch m := out.Manifest.(type) {
	case *manifest.SelfContained:
		return out, nil

	case *manifest.LoaderOverlay:
		base, err := r.Resolve(ctx, m.BaseID())
		if err != nil {
			return nil, err
		}
		if _, ok := base.Manifest.(*manifest.SelfContained); !ok {
			return nil, fmt.Errorf("base version %q of %q is itself inherited, which is not supported", m.BaseID(), id)
		}

		return &Output{
			ID:            id,
			Manifest:      out.Manifest,
			MainClass:     out.MainClass,
			AssetIndex:    base.AssetIndex,
			Classpath:     append(out.Classpath, base.Classpath...),
			NativePaths:   append(out.NativePaths, base.NativePaths...),
			JVMFragments:  append(out.JVMFragments, base.JVMFragments...),
			GameFragments: append(out.GameFragments, base.GameFragments...),
			Missing:       append(out.Missing, base.Missing...),
		}, nil
	}
	return nil, fmt.Errorf("unknown manifest kind for %q", id)
}
