package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/src/core"
	"github.com/forgebuild/forge/src/fs"
)

// stubCompiler is a CompilerFacade that "compiles" by writing a marker
// file at the requested output path instead of spawning a real toolchain.
type stubCompiler struct {
	fsys     fs.Filesystem
	outFlags []string
}

func newStubCompiler(fsys fs.Filesystem) *stubCompiler { return &stubCompiler{fsys: fsys} }

func (c *stubCompiler) Name() string   { return "stub" }
func (c *stubCompiler) Binary() string { return "/usr/bin/stubc" }

func (c *stubCompiler) PrepareBuildSettings(settings *core.BuildSettings, flags InvokeFlags) {}

func (c *stubCompiler) SetTarget(settings *core.BuildSettings, platform Platform, overrideObjName string) {
	name := settings.TargetName
	if overrideObjName != "" {
		name = overrideObjName
	}
	settings.DFlags = append(settings.DFlags, "-of"+joinPath(settings.TargetPath, name))
}

func (c *stubCompiler) Invoke(settings *core.BuildSettings, platform Platform, cb InvokeCallback) error {
	out := lastOutFlag(settings.DFlags)
	if out != "" {
		_ = c.fsys.WriteFile(out, []byte("compiled"), 0)
	}
	return cb(0, "", "")
}

func (c *stubCompiler) InvokeLinker(settings *core.BuildSettings, platform Platform, extraObjects []string, cb InvokeCallback) error {
	out := lastOutFlag(settings.DFlags)
	if out != "" {
		_ = c.fsys.WriteFile(out, []byte("linked"), 0)
	}
	return cb(0, "", "")
}

func (c *stubCompiler) OutFileFlags(out string) []string     { return []string{"-of" + out} }
func (c *stubCompiler) TargetTypeFlags(t core.TargetType) []string { return nil }
func (c *stubCompiler) LFlagsToDFlags(lflags []string) []string   { return lflags }

func lastOutFlag(flags []string) string {
	for i := len(flags) - 1; i >= 0; i-- {
		if len(flags[i]) > 3 && flags[i][:3] == "-of" {
			return flags[i][3:]
		}
	}
	return ""
}

func joinPath(a, b string) string { return a + "/" + b }

func newTestExecutor(m *fs.MockFilesystem) *Executor {
	compiler := newStubCompiler(m)
	return NewExecutor(m, compiler, samplePlatform(), Options{BuildType: "debug", BuildMode: core.BuildModeAllAtOnce})
}

func TestDirectBuildProducesArtifact(t *testing.T) {
	m := fs.NewMockFilesystem()
	require.NoError(t, m.WriteFile("/pkg/source/app.d", []byte("module app;"), 0))
	e := newTestExecutor(m)
	e.Options.Direct = true

	target := &core.TargetInfo{
		Pack:     &core.Package{Name: "app", RecipePath: "/pkg/dub.sdl"},
		Packages: []*core.Package{{Name: "app", RecipePath: "/pkg/dub.sdl"}},
		Config:   "default",
		Settings: &core.BuildSettings{
			TargetType: core.Executable,
			TargetName: "app",
			TargetPath: "",
			SourceFiles: []string{"source/app.d"},
		},
	}
	status, err := e.Build("app", target, "/pkg", "/pkg")
	require.NoError(t, err)
	assert.Equal(t, "direct", status)
	assert.True(t, m.ExistsFile("/pkg/app"))
}

func TestCachedBuildThenUpToDate(t *testing.T) {
	m := fs.NewMockFilesystem()
	require.NoError(t, m.WriteFile("/pkg/source/app.d", []byte("module app;"), 0))
	// The freshness check treats the recipe file as an input and resolves
	// relative source paths against the filesystem's working directory.
	require.NoError(t, m.WriteFile("/pkg/dub.sdl", []byte("name \"app\""), 0))
	require.NoError(t, m.Chdir("/pkg"))
	e := newTestExecutor(m)

	target := &core.TargetInfo{
		Pack:     &core.Package{Name: "app", RecipePath: "/pkg/dub.sdl"},
		Packages: []*core.Package{{Name: "app", RecipePath: "/pkg/dub.sdl"}},
		Config:   "default",
		Settings: &core.BuildSettings{
			TargetType:  core.Executable,
			TargetName:  "app",
			TargetPath:  "",
			SourceFiles: []string{"source/app.d"},
		},
	}
	status, err := e.Build("app", target, "/pkg", "/pkg")
	require.NoError(t, err)
	assert.Equal(t, "fresh", status)
	assert.True(t, m.ExistsFile("/pkg/app"))

	e2 := newTestExecutor(m)
	status2, err := e2.Build("app", target, "/pkg", "/pkg")
	require.NoError(t, err)
	assert.Equal(t, "cached", status2)
}

// recipeScriptBuild shells out to a real external driver binary; these
// tests stand in "true"/"false" for it rather than an actual rdmd-alike
// tool, since only the exit-code handling and argument assembly are
// under test here, not the driver's own behavior.
func TestRecipeScriptBuildInvokesExternalDriver(t *testing.T) {
	m := fs.NewMockFilesystem()
	require.NoError(t, m.WriteFile("/pkg/source/app.d", []byte("module app;"), 0))
	e := NewExecutor(m, newStubCompiler(m), samplePlatform(), Options{
		BuildType:        "debug",
		RecipeScript:     true,
		RecipeScriptTool: "true",
	})

	target := &core.TargetInfo{
		Pack:     &core.Package{Name: "app", RecipePath: "/pkg/recipe.sdl"},
		Packages: []*core.Package{{Name: "app", RecipePath: "/pkg/recipe.sdl"}},
		Config:   "default",
		Settings: &core.BuildSettings{
			TargetType:  core.Executable,
			TargetName:  "app",
			TargetPath:  "",
			SourceFiles: []string{"source/app.d"},
		},
	}
	status, err := e.Build("app", target, "/pkg", "/pkg")
	require.NoError(t, err)
	assert.Equal(t, "direct", status)
	assert.Contains(t, e.artifactPaths, "app")
}

func TestRecipeScriptBuildNonZeroExitIsFatal(t *testing.T) {
	m := fs.NewMockFilesystem()
	require.NoError(t, m.WriteFile("/pkg/source/app.d", []byte("module app;"), 0))
	e := NewExecutor(m, newStubCompiler(m), samplePlatform(), Options{
		BuildType:        "debug",
		RecipeScript:     true,
		RecipeScriptTool: "false",
	})

	target := &core.TargetInfo{
		Pack:     &core.Package{Name: "app", RecipePath: "/pkg/recipe.sdl"},
		Packages: []*core.Package{{Name: "app", RecipePath: "/pkg/recipe.sdl"}},
		Config:   "default",
		Settings: &core.BuildSettings{
			TargetType:  core.Executable,
			TargetName:  "app",
			TargetPath:  "",
			SourceFiles: []string{"source/app.d"},
		},
	}
	_, err := e.Build("app", target, "/pkg", "/pkg")
	require.Error(t, err)
	var cerr *CompileError
	assert.ErrorAs(t, err, &cerr)
}
