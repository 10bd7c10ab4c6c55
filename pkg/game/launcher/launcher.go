package launcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"arvenne.fr/craftlaunch/pkg/game/folder"
	"arvenne.fr/craftlaunch/pkg/game/profile"
	"arvenne.fr/craftlaunch/pkg/game/resolver"
	"arvenne.fr/craftlaunch/pkg/game/rules"
	"arvenne.fr/craftlaunch/pkg/game/versions"
)

// Launcher assembles launch plans for resolved versions.
type Launcher struct {
	Dir     folder.GameDir
	Profile *profile.Profile
	Eval    *rules.Evaluator

	// JavaPath skips java discovery when set.
	JavaPath     string
	ExtraJVMArgs []string
	Features     []Feature

	logger *log.Logger
}

func New(dir folder.GameDir, prof *profile.Profile, eval *rules.Evaluator, logger *log.Logger) *Launcher {
	if prof == nil {
		prof = profile.NewProfile()
	}
	if eval == nil {
		eval = rules.NewEvaluator(rules.CurrentPlatform())
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Launcher{Dir: dir, Profile: prof, Eval: eval, logger: logger}
}

// Plan builds the command line for a resolved version. nativesDir is the
// extractor's output directory for that version. The plan is assembled
// fresh on every call and never cached.
func (l *Launcher) Plan(ctx context.Context, out *resolver.Output, nativesDir string) (*LaunchPlan, error) {
	baseID := out.ID
	if _, base, ok := versions.ParseLoaderID(out.ID); ok {
		baseID = base
	}

	java := l.JavaPath
	if java == "" {
		found, err := FindJava(ctx, "", RequiredJavaMajor(baseID))
		if err != nil {
			return nil, fmt.Errorf("failed to locate a java runtime: %w", err)
		}
		java = found
	}

	versionType := ""
	if out.Manifest != nil {
		versionType = out.Manifest.Document().Type
	}

	sep := PathListSeparator(l.Eval.Platform)
	env := launchEnv{
		Profile:      l.Profile,
		Dir:          l.Dir,
		VersionID:    out.ID,
		VersionType:  versionType,
		AssetIndexID: out.AssetIndexID(),
		NativesDir:   nativesDir,
		Classpath:    strings.Join(out.Classpath, sep),
	}
	ex := newExpander(l.Eval, env, l.Features)

	jvm := l.Profile.Memory.ToArgs()
	jvm = append(jvm, "-Dfile.encoding=UTF-8")
	if len(out.JVMFragments) > 0 {
		jvm = append(jvm, dropBuilderOwnedFlags(ex.expand(out.JVMFragments))...)
	} else if l.Eval.Platform.OS == rules.OSOSX {
		// Manifests from before the arguments block never declare the
		// main-thread flag themselves.
		jvm = append(jvm, "-XstartOnFirstThread")
	}
	jvm = append(jvm, l.ExtraJVMArgs...)

	return &LaunchPlan{
		Platform:   l.Eval.Platform,
		Java:       java,
		WorkDir:    l.Dir.Root,
		JVMArgs:    jvm,
		NativesDir: nativesDir,
		Classpath:  out.Classpath,
		MainClass:  out.MainClass,
		GameArgs:   ex.expand(out.GameFragments),
	}, nil
}

// dropBuilderOwnedFlags removes classpath and library-path tokens from
// expanded manifest fragments; the command builder emits those itself and
// they must appear exactly once.
func dropBuilderOwnedFlags(args []string) []string {
	out := args[:0]
	skipNext := false
	for _, a := range args {
		if skipNext {
			skipNext = false
			continue
		}
		switch {
		case a == "-cp" || a == "-classpath":
			skipNext = true
		case strings.HasPrefix(a, "-Djava.library.path="):
		default:
			out = append(out, a)
		}
	}
	return out
}
