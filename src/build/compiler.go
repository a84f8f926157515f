package build

import (
	"fmt"
	"os/exec"
	"path"
	"strings"

	"github.com/forgebuild/forge/src/core"
)

// InvokeFlags selects variations in how CompilerFacade.Invoke formats its
// command line.
type InvokeFlags uint32

const (
	// SourcesInDFlags keeps source files inline in Dflags rather than
	// passed as a separate argument list.
	SourcesInDFlags InvokeFlags = 1 << iota
	// TranslateLFlags maps generic lflags through -L/-l style translation
	// rather than a compiler-specific linker-passthrough flag.
	TranslateLFlags
)

// InvokeCallback receives a completed compiler or linker invocation.
type InvokeCallback func(exitCode int, stdout, stderr string) error

// CompilerFacade is the narrow surface the Executor needs from a concrete
// compiler toolchain. prepareBuildSettings/setTarget mutate a
// *core.BuildSettings in place; invoke/invokeLinker run it.
type CompilerFacade interface {
	Name() string
	Binary() string

	PrepareBuildSettings(settings *core.BuildSettings, flags InvokeFlags)
	SetTarget(settings *core.BuildSettings, platform Platform, overrideObjName string)

	Invoke(settings *core.BuildSettings, platform Platform, cb InvokeCallback) error
	InvokeLinker(settings *core.BuildSettings, platform Platform, extraObjects []string, cb InvokeCallback) error

	OutFileFlags(out string) []string
	TargetTypeFlags(t core.TargetType) []string
	LFlagsToDFlags(lflags []string) []string
}

// NativeCompiler shells out to a gdc/ldc/dmd-style compiler binary found on
// PATH, translating BuildSettings into its command-line conventions.
type NativeCompiler struct {
	name   string
	binary string
	objExt string
}

// NewNativeCompiler returns a CompilerFacade for the named compiler
// (e.g. "dmd", "ldc2", "gdc"). binary is kept as given; a bare name is
// looked up on PATH when the compiler is run.
func NewNativeCompiler(name, binary string) *NativeCompiler {
	objExt := ".o"
	return &NativeCompiler{name: name, binary: binary, objExt: objExt}
}

func (c *NativeCompiler) Name() string   { return c.name }
func (c *NativeCompiler) Binary() string { return c.binary }

func (c *NativeCompiler) PrepareBuildSettings(settings *core.BuildSettings, flags InvokeFlags) {
	var dflags []string
	for _, p := range settings.ImportPaths {
		dflags = append(dflags, "-I"+p)
	}
	for _, p := range settings.StringImportPaths {
		dflags = append(dflags, "-J"+p)
	}
	for _, v := range settings.Versions {
		dflags = append(dflags, "-version="+v)
	}
	for _, v := range settings.DebugVersions {
		dflags = append(dflags, "-debug="+v)
	}
	if flags&TranslateLFlags != 0 {
		dflags = append(dflags, c.LFlagsToDFlags(settings.LFlags)...)
	}
	dflags = append(dflags, settings.DFlags...)
	if flags&SourcesInDFlags != 0 {
		dflags = append(dflags, settings.SourceFiles...)
	}
	settings.DFlags = dflags
}

func (c *NativeCompiler) SetTarget(settings *core.BuildSettings, platform Platform, overrideObjName string) {
	name := settings.TargetName
	if overrideObjName != "" {
		name = overrideObjName
	}
	out := path.Join(settings.TargetPath, c.artifactName(settings.TargetType, name, platform))
	settings.DFlags = append(settings.DFlags, c.OutFileFlags(out)...)
	settings.DFlags = append(settings.DFlags, c.TargetTypeFlags(settings.TargetType)...)
}

func (c *NativeCompiler) artifactName(t core.TargetType, name string, platform Platform) string {
	switch t {
	case core.Executable:
		return name + platform.ExeSuffix()
	case core.StaticLibrary:
		return platform.StaticLibName(name)
	case core.DynamicLibrary:
		return platform.DynamicLibName(name)
	default:
		return name
	}
}

func (c *NativeCompiler) Invoke(settings *core.BuildSettings, platform Platform, cb InvokeCallback) error {
	return c.run(c.binary, settings.DFlags, settings.WorkingDir, cb)
}

func (c *NativeCompiler) InvokeLinker(settings *core.BuildSettings, platform Platform, extraObjects []string, cb InvokeCallback) error {
	args := append([]string{}, settings.DFlags...)
	args = append(args, extraObjects...)
	for _, lib := range settings.Libs {
		args = append(args, "-L-l"+lib)
	}
	for _, lf := range settings.LFlags {
		args = append(args, "-L"+lf)
	}
	return c.run(c.binary, args, settings.WorkingDir, cb)
}

func (c *NativeCompiler) run(binary string, args []string, dir string, cb InvokeCallback) error {
	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return fmt.Errorf("failed to spawn %s: %w", binary, err)
		}
	}
	return cb(exitCode, stdout.String(), stderr.String())
}

func (c *NativeCompiler) OutFileFlags(out string) []string {
	return []string{"-of" + out}
}

func (c *NativeCompiler) TargetTypeFlags(t core.TargetType) []string {
	switch t {
	case core.StaticLibrary:
		return []string{"-lib"}
	case core.DynamicLibrary:
		return []string{"-shared"}
	default:
		return nil
	}
}

func (c *NativeCompiler) LFlagsToDFlags(lflags []string) []string {
	out := make([]string, 0, len(lflags))
	for _, f := range lflags {
		out = append(out, "-L"+f)
	}
	return out
}
