// Package launcher turns a resolved version into a runnable java command
// line and supervises the spawned game process.
package launcher

import (
	"strings"

	"arvenne.fr/craftlaunch/pkg/game/rules"
)

/////////////////////////////////////////////////////////////////////
// Command builder
/////////////////////////////////////////////////////////////////////

// CommandBuilder accumulates command-line pieces and materializes them in
// a fixed order: interpreter, JVM flags, native library path, classpath,
// entry-point class, game arguments. Nothing is reordered or deduplicated;
// callers that feed duplicate entries get duplicate tokens back.
type CommandBuilder struct {
	platform rules.PlatformInfo

	java       string
	jvmArgs    []string
	nativesDir string
	classpath  []string
	mainClass  string
	gameArgs   []string
}

func NewCommandBuilder(platform rules.PlatformInfo) *CommandBuilder {
	return &CommandBuilder{platform: platform}
}

func (b *CommandBuilder) Java(path string) *CommandBuilder {
	b.java = path
	return b
}

func (b *CommandBuilder) JVMArgs(args ...string) *CommandBuilder {
	b.jvmArgs = append(b.jvmArgs, args...)
	return b
}

func (b *CommandBuilder) NativesDir(dir string) *CommandBuilder {
	b.nativesDir = dir
	return b
}

func (b *CommandBuilder) Classpath(entries ...string) *CommandBuilder {
	b.classpath = append(b.classpath, entries...)
	return b
}

func (b *CommandBuilder) MainClass(name string) *CommandBuilder {
	b.mainClass = name
	return b
}

// GameArg appends one --flag value pair.
func (b *CommandBuilder) GameArg(flag, value string) *CommandBuilder {
	b.gameArgs = append(b.gameArgs, "--"+flag, value)
	return b
}

func (b *CommandBuilder) GameArgs(args ...string) *CommandBuilder {
	b.gameArgs = append(b.gameArgs, args...)
	return b
}

// Build materializes the accumulated state into the full token list, the
// interpreter first. It is pure: calling it twice yields the same slice.
func (b *CommandBuilder) Build() []string {
	out := make([]string, 0, len(b.jvmArgs)+len(b.gameArgs)+6)
	out = append(out, b.java)
	out = append(out, b.jvmArgs...)
	if b.nativesDir != "" {
		out = append(out, "-Djava.library.path="+b.nativesDir)
	}
	if len(b.classpath) > 0 {
		out = append(out, "-cp", strings.Join(b.classpath, PathListSeparator(b.platform)))
	}
	if b.mainClass != "" {
		out = append(out, b.mainClass)
	}
	out = append(out, b.gameArgs...)
	return out
}

// PathListSeparator is the classpath entry separator for the platform.
func PathListSeparator(p rules.PlatformInfo) string {
	if p.OS == rules.OSWindows {
		return ";"
	}
	return ":"
}

/////////////////////////////////////////////////////////////////////
// Launch plan
/////////////////////////////////////////////////////////////////////

// LaunchPlan is one launch attempt, assembled fresh every time and never
// persisted.
type LaunchPlan struct {
	Platform rules.PlatformInfo `json:"-"`

	Java       string   `json:"java"`
	WorkDir    string   `json:"workDir"`
	JVMArgs    []string `json:"jvmArgs"`
	NativesDir string   `json:"nativesDir"`
	Classpath  []string `json:"classpath"`
	MainClass  string   `json:"mainClass"`
	GameArgs   []string `json:"gameArgs"`
}

// Command is the full token list for the plan, interpreter first.
func (p *LaunchPlan) Command() []string {
	return NewCommandBuilder(p.Platform).
		Java(p.Java).
		JVMArgs(p.JVMArgs...).
		NativesDir(p.NativesDir).
		Classpath(p.Classpath...).
		MainClass(p.MainClass).
		GameArgs(p.GameArgs...).
		Build()
}

func (p *LaunchPlan) CommandLine() string {
	return strings.Join(p.Command(), " ")
}
