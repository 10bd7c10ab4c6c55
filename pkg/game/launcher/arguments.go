package launcher

import (
	"strings"

	"arvenne.fr/craftlaunch/pkg/game/folder"
	"arvenne.fr/craftlaunch/pkg/game/manifest"
	"arvenne.fr/craftlaunch/pkg/game/profile"
	"arvenne.fr/craftlaunch/pkg/game/rules"
)

/////////////////////////////////////////////////////////////////////
// Argument expansion
/////////////////////////////////////////////////////////////////////

// Feature is an opt-in launch feature. Key is the manifest predicate
// (e.g. is_demo_user), Flag the placeholder it unlocks (if any), Value
// what that placeholder expands to.
type Feature struct {
	Key   string
	Flag  string
	Value string
}

// launchEnv is everything argument placeholders can refer to.
type launchEnv struct {
	Profile      *profile.Profile
	Dir          folder.GameDir
	VersionID    string
	VersionType  string
	AssetIndexID string
	NativesDir   string
	Classpath    string
}

func (env launchEnv) placeholders(features []Feature) map[string]string {
	versionType := env.VersionType
	if versionType == "" {
		versionType = "release"
	}

	p := map[string]string{
		"auth_player_name":  env.Profile.Username,
		"version_name":      env.VersionID,
		"game_directory":    env.Dir.Root,
		"assets_root":       env.Dir.AssetsDir(),
		"assets_index_name": env.AssetIndexID,
		"auth_uuid":         env.Profile.UUID,
		"auth_access_token": env.Profile.Token,
		"clientid":          "0",
		"auth_xuid":         "0",
		"user_type":         env.Profile.UserType,
		"version_type":      versionType,
		"resolution_width":  "1280",
		"resolution_height": "720",
		"natives_directory": env.NativesDir,
		"launcher_name":     "craftlaunch",
		"launcher_version":  "1.0.0",
		"classpath":         env.Classpath,
	}
	for _, f := range features {
		if f.Flag != "" {
			p[f.Flag] = f.Value
		}
	}
	return p
}

// expander substitutes ${placeholder} tokens and filters fragments
// through platform rules and enabled features.
type expander struct {
	eval     *rules.Evaluator
	values   map[string]string
	features map[string]bool
}

func newExpander(eval *rules.Evaluator, env launchEnv, features []Feature) *expander {
	enabled := make(map[string]bool, len(features))
	for _, f := range features {
		enabled[f.Key] = true
	}
	return &expander{eval: eval, values: env.placeholders(features), features: enabled}
}

func (e *expander) expand(frags []manifest.Fragment) []string {
	var out []string
	for _, f := range frags {
		if !e.include(f.Rules) {
			continue
		}
		for _, v := range f.Values {
			out = append(out, e.substitute(v))
		}
	}
	return out
}

func (e *expander) include(rs []manifest.Rule) bool {
	for _, r := range rs {
		if len(r.Features) > 0 {
			return e.featuresSatisfied(rs)
		}
	}
	return e.eval.AllowedStrict(rs)
}

// featuresSatisfied accepts a fragment when some allow rule's feature
// predicates all hold for the enabled set. Anything else stays off; a
// demo-mode flag must never leak into a normal launch.
func (e *expander) featuresSatisfied(rs []manifest.Rule) bool {
	for _, r := range rs {
		if len(r.Features) == 0 || !strings.EqualFold(r.Action, "allow") {
			continue
		}
		ok := true
		for key, want := range r.Features {
			if e.features[key] != want {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func (e *expander) substitute(arg string) string {
	for name, value := range e.values {
		arg = strings.ReplaceAll(arg, "${"+name+"}", value)
	}
	return arg
}
