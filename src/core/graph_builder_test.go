package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pkg(name string, cfgs map[string]*Configuration) *Package {
	return &Package{Name: name, RecipePath: name + "/recipe.sdl", Configurations: cfgs}
}

func defaultCfg(typ TargetType, sources []string, deps ...DependencyConstraint) map[string]*Configuration {
	return map[string]*Configuration{
		"default": {
			Name:       "default",
			TargetType: typ,
			Settings:   &BuildSettings{SourceFiles: sources},
			Dependencies: deps,
		},
	}
}

// S1 - single executable, no deps.
func TestSingleExecutableNoDeps(t *testing.T) {
	app := pkg("app", defaultCfg(Executable, []string{"source/app.d"}))
	b := &GraphBuilder{Root: app, Packages: map[string]*Package{"app": app}}
	targets, err := b.Build()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	at := targets["app"]
	require.NotNil(t, at)
	assert.Empty(t, at.Dependencies)
	assert.Equal(t, Executable, at.Settings.TargetType)
}

// S2 - executable + one static library dependency.
func TestExecutableWithStaticLibDep(t *testing.T) {
	lib := pkg("lib", defaultCfg(StaticLibrary, []string{"source/lib.d"}))
	app := pkg("app", defaultCfg(Executable, []string{"source/app.d"}, DependencyConstraint{Name: "lib"}))
	b := &GraphBuilder{Root: app, Packages: map[string]*Package{"app": app, "lib": lib}}
	targets, err := b.Build()
	require.NoError(t, err)
	require.Len(t, targets, 2)
	at := targets["app"]
	assert.Equal(t, []string{"lib"}, at.LinkDependencies)
	assert.Contains(t, at.Settings.Versions, "Have_lib")
	lt := targets["lib"]
	require.NotNil(t, lt)
}

// S3 - source-library dependency folded in.
func TestSourceLibraryFoldedIn(t *testing.T) {
	srclib := pkg("srclib", defaultCfg(SourceLibrary, []string{"source/srclib.d"}))
	app := pkg("app", defaultCfg(Executable, []string{"source/app.d"}, DependencyConstraint{Name: "srclib"}))
	b := &GraphBuilder{Root: app, Packages: map[string]*Package{"app": app, "srclib": srclib}}
	targets, err := b.Build()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	at := targets["app"]
	require.Len(t, at.Packages, 2)
	assert.Equal(t, "app", at.Packages[0].Name)
	assert.Equal(t, "srclib", at.Packages[1].Name)
	assert.Contains(t, at.Settings.SourceFiles, "source/srclib.d")
	assert.Contains(t, at.Settings.Versions, "Have_srclib")
}

// S4 - two levels of static-library transitivity.
func TestTransitiveStaticLibraries(t *testing.T) {
	low := pkg("low", defaultCfg(StaticLibrary, []string{"source/low.d"}))
	mid := pkg("mid", defaultCfg(StaticLibrary, []string{"source/mid.d"}, DependencyConstraint{Name: "low"}))
	app := pkg("app", defaultCfg(Executable, []string{"source/app.d"}, DependencyConstraint{Name: "mid"}))
	b := &GraphBuilder{Root: app, Packages: map[string]*Package{"app": app, "mid": mid, "low": low}}
	targets, err := b.Build()
	require.NoError(t, err)
	at := targets["app"]
	assert.Equal(t, []string{"mid", "low"}, at.LinkDependencies)
}

// S6 - string-import override.
func TestStringImportOverride(t *testing.T) {
	util := pkg("util", map[string]*Configuration{
		"default": {
			Name:       "default",
			TargetType: StaticLibrary,
			Settings:   &BuildSettings{SourceFiles: []string{"source/util.d"}, StringImportFiles: []string{"layout.html"}},
		},
	})
	app := pkg("app", map[string]*Configuration{
		"default": {
			Name:       "default",
			TargetType: Executable,
			Settings:   &BuildSettings{SourceFiles: []string{"source/app.d"}, StringImportPaths: []string{"views"}, StringImportFiles: []string{"app/views/layout.html"}},
			Dependencies: []DependencyConstraint{{Name: "util"}},
		},
	})
	b := &GraphBuilder{Root: app, Packages: map[string]*Package{"app": app, "util": util}}
	targets, err := b.Build()
	require.NoError(t, err)
	ut := targets["util"]
	require.NotNil(t, ut)
	assert.Contains(t, ut.Settings.StringImportFiles, "app/app/views/layout.html")
}

// With a single level of static-library dependency: dependencies ⊇
// linkDependencies, and every dependency name is in the target map.
func TestInvariantsHold(t *testing.T) {
	low := pkg("low", defaultCfg(StaticLibrary, []string{"low.d"}))
	app := pkg("app", defaultCfg(Executable, []string{"app.d"}, DependencyConstraint{Name: "low"}))
	b := &GraphBuilder{Root: app, Packages: map[string]*Package{"app": app, "low": low}}
	targets, err := b.Build()
	require.NoError(t, err)
	for _, t2 := range targets {
		for _, ld := range t2.LinkDependencies {
			assert.Contains(t, t2.Dependencies, ld)
		}
		for _, d := range t2.Dependencies {
			assert.Contains(t, targets, d)
		}
		assert.Equal(t, t2.Pack, t2.Packages[0])
	}
}

// Root producing no artifact without syntax-only is fatal.
func TestRootWithNoArtifactIsFatal(t *testing.T) {
	app := pkg("app", defaultCfg(None, nil))
	b := &GraphBuilder{Root: app, Packages: map[string]*Package{"app": app}}
	_, err := b.Build()
	require.Error(t, err)
	var rerr *RootHasNoArtifactError
	assert.ErrorAs(t, err, &rerr)
}

// A resolved dependency whose version violates the dependent's declared
// range is a fatal VersionConstraintError, not something the core silently
// tolerates.
func TestVersionConstraintViolationIsFatal(t *testing.T) {
	lib := &Package{Name: "lib", RecipePath: "lib/recipe.sdl", Version: "1.0.0", Configurations: defaultCfg(StaticLibrary, []string{"lib.d"})}
	app := pkg("app", defaultCfg(Executable, []string{"app.d"}, DependencyConstraint{Name: "lib", VersionRange: ">=2.0.0"}))
	b := &GraphBuilder{Root: app, Packages: map[string]*Package{"app": app, "lib": lib}}
	_, err := b.Build()
	require.Error(t, err)
	var verr *VersionConstraintError
	assert.ErrorAs(t, err, &verr)
}

func TestVersionConstraintSatisfiedBuildsCleanly(t *testing.T) {
	lib := &Package{Name: "lib", RecipePath: "lib/recipe.sdl", Version: "2.5.0", Configurations: defaultCfg(StaticLibrary, []string{"lib.d"})}
	app := pkg("app", defaultCfg(Executable, []string{"app.d"}, DependencyConstraint{Name: "lib", VersionRange: ">=2.0.0"}))
	b := &GraphBuilder{Root: app, Packages: map[string]*Package{"app": app, "lib": lib}}
	targets, err := b.Build()
	require.NoError(t, err)
	assert.Contains(t, targets["app"].LinkDependencies, "lib")
}

// Executable dependencies are always skipped.
func TestExecutableDependencySkipped(t *testing.T) {
	tool := pkg("tool", defaultCfg(Executable, []string{"tool.d"}))
	app := pkg("app", defaultCfg(Executable, []string{"app.d"}, DependencyConstraint{Name: "tool"}))
	b := &GraphBuilder{Root: app, Packages: map[string]*Package{"app": app, "tool": tool}}
	targets, err := b.Build()
	require.NoError(t, err)
	assert.Empty(t, targets["app"].Dependencies)
	assert.NotContains(t, targets, "tool")
}
