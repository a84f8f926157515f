package build

import (
	"fmt"
	"os/exec"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forgebuild/forge/src/cache"
	"github.com/forgebuild/forge/src/core"
	"github.com/forgebuild/forge/src/fs"
)

// Options configures one Executor run across all targets.
type Options struct {
	BuildType    string
	Force        bool
	Direct       bool
	TempBuild    bool
	SyntaxOnly   bool
	Run          bool
	RunArgs      []string
	Parallel     bool
	RecipeScript bool
	Combined     bool
	BuildMode    core.BuildMode

	ProjectRootPackage  string
	SelectedVersionsFile string

	// TempRoot is the system-temp-equivalent directory used for
	// temp-build/--run-into-unwritable-dir fallbacks.
	TempRoot string

	// RecipeScriptTool is the external recipe-script driver binary invoked
	// by recipeScriptBuild. Defaults to defaultRecipeScriptTool when empty.
	RecipeScriptTool string
}

// defaultRecipeScriptTool is the external single-command build+run driver
// recipe-script mode shells out to, matching the DUB_RDMD environment
// variable this mode sets for pre/post commands (env.go).
const defaultRecipeScriptTool = "rdmd"

// Executor drives compilation/linking for a dependency-ordered sequence of
// targets, per target computing a build ID, probing the cache, and
// invoking CompilerFacade through the selected build mode.
type Executor struct {
	FS        fs.Filesystem
	Compiler  CompilerFacade
	Platform  Platform
	Freshness *FreshnessChecker
	Options   Options

	artifactPaths map[string]string
	tempFiles     []string
	tempCounter   int64
	packagesUsed  []string
}

// NewExecutor returns an Executor ready to build targets.
func NewExecutor(fsys fs.Filesystem, compiler CompilerFacade, platform Platform, opts Options) *Executor {
	return &Executor{
		FS:            fsys,
		Compiler:      compiler,
		Platform:      platform,
		Freshness:     NewFreshnessChecker(fsys),
		Options:       opts,
		artifactPaths: map[string]string{},
	}
}

// Cleanup removes every temporary file registered during the run, in
// reverse insertion order, tolerating individual failures.
func (e *Executor) Cleanup() {
	for i := len(e.tempFiles) - 1; i >= 0; i-- {
		_ = e.FS.RemoveFile(e.tempFiles[i], true)
	}
	e.tempFiles = nil
}

func (e *Executor) registerTemp(path string) {
	e.tempFiles = append(e.tempFiles, path)
}

// Build drives one target to completion: mode selection, the chosen build
// strategy, and post-build commands. pkgRoot is the absolute directory of
// the target's root package. name identifies the target in the graph
// (used for additional-dep-file lookups and in log and error messages).
func (e *Executor) Build(name string, target *core.TargetInfo, pkgRoot string, cwd string) (string, error) {
	settings := target.Settings.Clone()
	e.relativizeInPlace(settings, cwd)

	var (
		status string
		err    error
	)
	switch {
	case e.Options.RecipeScript && settings.TargetType.ProducesArtifact():
		status, err = e.recipeScriptBuild(name, target, settings, pkgRoot)
	case e.Options.Direct || e.Options.SyntaxOnly:
		status, err = e.directBuild(name, target, settings, pkgRoot)
	default:
		status, err = e.cachedBuild(name, target, settings, pkgRoot)
	}
	if err != nil {
		return "", err
	}

	if status != "cached" && len(settings.PostBuildCommands) > 0 {
		if err := e.runCommands(name, target, settings, settings.PostBuildCommands, false); err != nil {
			return "", err
		}
	}
	return status, nil
}

func (e *Executor) relativizeInPlace(settings *core.BuildSettings, cwd string) {
	settings.SourceFiles = relativizeAll(settings.SourceFiles, cwd)
	settings.ImportPaths = relativizeAll(settings.ImportPaths, cwd)
	settings.StringImportPaths = relativizeAll(settings.StringImportPaths, cwd)
}

func relativizeAll(paths []string, cwd string) []string {
	base, err := core.NewPath(core.PathPosix, cwd)
	if err != nil {
		return paths
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		abs, err := core.NewPath(core.PathPosix, p)
		if err != nil || !abs.Absolute() {
			out[i] = p
			continue
		}
		rel, err := abs.RelativeTo(base)
		if err != nil {
			out[i] = p
			continue
		}
		out[i] = rel.String()
	}
	return out
}

// cachedBuild implements the §4.6.2 algorithm.
func (e *Executor) cachedBuild(name string, target *core.TargetInfo, settings *core.BuildSettings, pkgRoot string) (string, error) {
	buildID := ID(target.Config, e.Options.BuildType, settings, e.Platform)
	cacheDir := cache.Dir(pkgRoot, buildID)
	artifactName := e.artifactFileName(settings)
	cachedArtifact := path.Join(cacheDir, artifactName)

	if !e.Options.Force {
		result := e.Freshness.Check(e.freshnessInput(target, cachedArtifact, pkgRoot), time.Now())
		if result.UpToDate {
			log.Info("%s is up to date", name)
			userPath := path.Join(pkgRoot, settings.TargetPath, artifactName)
			if err := e.FS.HardLinkFile(cachedArtifact, userPath); err != nil {
				return "", err
			}
			e.artifactPaths[name] = userPath
			return "cached", nil
		}
	}

	if e.Options.TempBuild || !e.writable(cacheDir) {
		if !e.writable(cacheDir) {
			log.Warning("cache directory %s is not writable, falling back to a direct build", cacheDir)
		}
		return e.directBuild(name, target, settings, pkgRoot)
	}

	if len(settings.PreBuildCommands) > 0 {
		if err := e.runCommands(name, target, settings, settings.PreBuildCommands, true); err != nil {
			return "", err
		}
	}

	built := settings.Clone()
	built.TargetPath = cacheDir
	artifactPath, err := e.buildWithCompiler(name, target, built)
	if err != nil {
		return "", err
	}
	userPath := path.Join(pkgRoot, settings.TargetPath, artifactName)
	if err := e.FS.HardLinkFile(artifactPath, userPath); err != nil {
		return "", err
	}
	e.artifactPaths[name] = userPath
	return "fresh", nil
}

// directBuild implements the §4.6.3 algorithm.
func (e *Executor) directBuild(name string, target *core.TargetInfo, settings *core.BuildSettings, pkgRoot string) (string, error) {
	targetPath := path.Join(pkgRoot, settings.TargetPath)
	if e.Options.TempBuild || (e.Options.Run && !e.writable(targetPath)) {
		targetPath = e.newTempDir(settings.TargetName)
	}
	built := settings.Clone()
	built.TargetPath = targetPath
	artifactPath, err := e.buildWithCompiler(name, target, built)
	if err != nil {
		return "", err
	}
	e.registerTemp(artifactPath)
	for _, cp := range settings.CopyFiles {
		dst := path.Join(targetPath, path.Base(cp))
		if err := e.copyFile(cp, dst); err != nil {
			log.Warning("%s", (&CopyError{Src: cp, Dst: dst, Err: err}).Error())
			continue
		}
		e.registerTemp(dst)
	}
	e.artifactPaths[name] = artifactPath
	return "direct", nil
}

func (e *Executor) copyFile(src, dst string) error {
	data, err := e.FS.ReadFile(src)
	if err != nil {
		return err
	}
	return e.FS.WriteFile(dst, data, 0)
}

func (e *Executor) newTempDir(targetName string) string {
	n := atomic.AddInt64(&e.tempCounter, 1)
	root := e.Options.TempRoot
	if root == "" {
		root = "/tmp/dub"
	}
	return path.Join(root, fmt.Sprintf("%d-%s", n, targetName))
}

func (e *Executor) writable(dir string) bool {
	probe := path.Join(dir, ".forge-writable-probe")
	if err := e.FS.WriteFile(probe, []byte{}, 0); err != nil {
		return false
	}
	_ = e.FS.RemoveFile(probe, true)
	return true
}

func (e *Executor) artifactFileName(settings *core.BuildSettings) string {
	switch settings.TargetType {
	case core.Executable:
		return settings.TargetName + e.Platform.ExeSuffix()
	case core.StaticLibrary:
		return e.Platform.StaticLibName(settings.TargetName)
	case core.DynamicLibrary:
		return e.Platform.DynamicLibName(settings.TargetName)
	default:
		return settings.TargetName
	}
}

func (e *Executor) freshnessInput(target *core.TargetInfo, artifactPath, pkgRoot string) CheckInput {
	var additional []string
	for _, dep := range target.LinkDependencies {
		if p, ok := e.artifactPaths[dep]; ok {
			additional = append(additional, p)
		}
	}
	return CheckInput{
		ArtifactPath:         artifactPath,
		Settings:             target.Settings,
		Packages:             target.Packages,
		AdditionalDepFiles:   additional,
		IsProjectRoot:        target.Pack.Name == e.Options.ProjectRootPackage,
		SelectedVersionsFile: e.Options.SelectedVersionsFile,
	}
}

// --- buildWithCompiler (§4.6.4) ----------------------------------------

type buildMode int

const (
	modeAllAtOnce buildMode = iota
	modeSeparate
	modeSingleFile
)

func (e *Executor) selectMode(settings *core.BuildSettings) buildMode {
	if settings.TargetType == core.StaticLibrary {
		return modeAllAtOnce
	}
	if e.Options.BuildMode == core.BuildModeSingleFile {
		return modeSingleFile
	}
	if e.Options.BuildMode == core.BuildModeAllAtOnce {
		return modeAllAtOnce
	}
	if settings.TargetType == core.Executable || settings.TargetType == core.DynamicLibrary {
		return modeSeparate
	}
	return modeAllAtOnce
}

func (e *Executor) buildWithCompiler(name string, target *core.TargetInfo, settings *core.BuildSettings) (artifactPath string, err error) {
	windows := e.Platform.Windows()
	switch e.selectMode(settings) {
	case modeSingleFile:
		artifactPath, err = e.buildSingleFile(name, settings, windows)
	case modeSeparate:
		artifactPath, err = e.buildSeparate(name, settings, windows)
	default:
		artifactPath, err = e.buildAllAtOnce(name, settings, windows)
	}
	if err != nil && artifactPath != "" {
		_ = e.FS.RemoveFile(artifactPath, true)
		return "", err
	}
	return artifactPath, err
}

func (e *Executor) buildAllAtOnce(name string, settings *core.BuildSettings, windows bool) (string, error) {
	clone := settings.Clone()
	if clone.TargetType == core.StaticLibrary {
		clone.SourceFiles = excludeLinkerFiles(clone.SourceFiles, windows)
	}
	e.Compiler.PrepareBuildSettings(clone, SourcesInDFlags|TranslateLFlags)
	e.Compiler.SetTarget(clone, e.Platform, "")
	var outErr error
	err := e.Compiler.Invoke(clone, e.Platform, func(exitCode int, _, stderr string) error {
		if exitCode != 0 {
			outErr = &CompileError{Target: name, ExitCode: exitCode, Stderr: stderr}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if outErr != nil {
		return "", outErr
	}
	return path.Join(clone.TargetPath, e.artifactFileName(settings)), nil
}

func (e *Executor) buildSeparate(name string, settings *core.BuildSettings, windows bool) (string, error) {
	objExt := ".o"
	if windows {
		objExt = ".obj"
	}
	tempObj := path.Join(settings.TargetPath, settings.TargetName+objExt)

	compileSettings := settings.Clone()
	compileSettings.SourceFiles = excludeLinkerFiles(compileSettings.SourceFiles, windows)
	e.Compiler.PrepareBuildSettings(compileSettings, SourcesInDFlags)
	compileSettings.DFlags = append(compileSettings.DFlags, "-c")
	compileSettings.DFlags = append(compileSettings.DFlags, e.Compiler.OutFileFlags(tempObj)...)

	var compileErr error
	if err := e.Compiler.Invoke(compileSettings, e.Platform, func(exitCode int, _, stderr string) error {
		if exitCode != 0 {
			compileErr = &CompileError{Target: name, ExitCode: exitCode, Stderr: stderr}
		}
		return nil
	}); err != nil {
		return "", err
	}
	if compileErr != nil {
		return "", compileErr
	}
	e.registerTemp(tempObj)

	linkSettings := settings.Clone()
	e.Compiler.PrepareBuildSettings(linkSettings, TranslateLFlags)
	e.Compiler.SetTarget(linkSettings, e.Platform, "")
	extraObjects := []string{tempObj}
	extraObjects = append(extraObjects, linkerFilesOnly(settings.SourceFiles, windows)...)

	var linkErr error
	if err := e.Compiler.InvokeLinker(linkSettings, e.Platform, extraObjects, func(exitCode int, _, stderr string) error {
		if exitCode != 0 {
			linkErr = &LinkError{Target: name, ExitCode: exitCode, Stderr: stderr}
		}
		return nil
	}); err != nil {
		return "", err
	}
	if linkErr != nil {
		return "", linkErr
	}
	return path.Join(linkSettings.TargetPath, e.artifactFileName(settings)), nil
}

func (e *Executor) buildSingleFile(name string, settings *core.BuildSettings, windows bool) (string, error) {
	sources := nonLinkerFiles(settings.SourceFiles, windows)
	objExt := ".o"
	if windows {
		objExt = ".obj"
	}

	objects := make([]string, len(sources))
	var g errgroup.Group
	if e.Options.Parallel {
		for i, src := range sources {
			i, src := i, src
			g.Go(func() error {
				obj, err := e.compileOneSourceFile(name, settings, src, objExt, windows)
				if err != nil {
					return err
				}
				objects[i] = obj
				return nil
			})
		}
	} else {
		for i, src := range sources {
			obj, err := e.compileOneSourceFile(name, settings, src, objExt, windows)
			if err != nil {
				return "", err
			}
			objects[i] = obj
		}
	}
	if e.Options.Parallel {
		if err := g.Wait(); err != nil {
			return "", err
		}
	}
	for _, obj := range objects {
		e.registerTemp(obj)
	}

	linkSettings := settings.Clone()
	e.Compiler.PrepareBuildSettings(linkSettings, TranslateLFlags)
	e.Compiler.SetTarget(linkSettings, e.Platform, "")
	extraObjects := append([]string{}, objects...)
	extraObjects = append(extraObjects, linkerFilesOnly(settings.SourceFiles, windows)...)

	var linkErr error
	if err := e.Compiler.InvokeLinker(linkSettings, e.Platform, extraObjects, func(exitCode int, _, stderr string) error {
		if exitCode != 0 {
			linkErr = &LinkError{Target: name, ExitCode: exitCode, Stderr: stderr}
		}
		return nil
	}); err != nil {
		return "", err
	}
	if linkErr != nil {
		return "", linkErr
	}
	return path.Join(linkSettings.TargetPath, e.artifactFileName(settings)), nil
}

func (e *Executor) compileOneSourceFile(name string, settings *core.BuildSettings, src, objExt string, windows bool) (string, error) {
	objName := pathToObjName(settings.WorkingDir, src) + objExt
	objPath := path.Join(settings.TargetPath, objName)

	compileSettings := settings.Clone()
	compileSettings.SourceFiles = []string{src}
	e.Compiler.PrepareBuildSettings(compileSettings, SourcesInDFlags)
	compileSettings.DFlags = append(compileSettings.DFlags, "-c")
	compileSettings.DFlags = append(compileSettings.DFlags, e.Compiler.OutFileFlags(objPath)...)

	var compileErr error
	if err := e.Compiler.Invoke(compileSettings, e.Platform, func(exitCode int, _, stderr string) error {
		if exitCode != 0 {
			compileErr = &CompileError{Target: name, ExitCode: exitCode, Stderr: stderr}
		}
		return nil
	}); err != nil {
		return "", err
	}
	if compileErr != nil {
		return "", compileErr
	}
	return objPath, nil
}

// pathToObjName implements normalize(cwd+p) with separators replaced by
// dots, used to derive a unique per-source object filename in singleFile
// mode.
func pathToObjName(cwd, p string) string {
	full, err := core.NewPath(core.PathPosix, cwd+"/"+p)
	if err != nil {
		full, _ = core.NewPath(core.PathPosix, p)
	}
	s := strings.TrimPrefix(full.String(), "/")
	return strings.ReplaceAll(s, "/", ".")
}

func excludeLinkerFiles(files []string, windows bool) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if !core.IsLinkerFile(f, windows) {
			out = append(out, f)
		}
	}
	return out
}

func nonLinkerFiles(files []string, windows bool) []string { return excludeLinkerFiles(files, windows) }

func linkerFilesOnly(files []string, windows bool) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if core.IsLinkerFile(f, windows) {
			out = append(out, f)
		}
	}
	return out
}

// recipeScriptBuild implements §4.6.1: hands a target off to an external
// recipe-script driver tool (e.g. an rdmd-alike single-command build+run)
// rather than invoking the compiler facade's own build modes. The driver
// pulls in plain source files transitively starting from the resolved
// main source, so sourceFiles passed on its command line are trimmed down
// to linker input only (prebuilt objects/libraries).
func (e *Executor) recipeScriptBuild(name string, target *core.TargetInfo, settings *core.BuildSettings, pkgRoot string) (string, error) {
	main := settings.MainSource
	if main == "" {
		for _, candidate := range []string{"source/app.d", "src/app.d", "source/" + settings.TargetName + ".d", "src/" + settings.TargetName + ".d"} {
			if e.FS.ExistsFile(path.Join(pkgRoot, candidate)) {
				main = candidate
				break
			}
		}
	}

	targetPath := path.Join(pkgRoot, settings.TargetPath)
	if e.Options.Run && !e.writable(targetPath) {
		targetPath = e.newTempDir(settings.TargetName)
	}

	clone := settings.Clone()
	clone.SourceFiles = linkerFilesOnly(clone.SourceFiles, e.Platform.Windows())
	clone.TargetPath = targetPath

	args := []string{"--build-only", "--compiler=" + e.Platform.CompilerBinary}
	args = append(args, clone.DFlags...)
	args = append(args, clone.SourceFiles...)
	if main != "" {
		args = append(args, main)
	}

	tool := e.Options.RecipeScriptTool
	if tool == "" {
		tool = defaultRecipeScriptTool
	}

	artifactPath := path.Join(targetPath, e.artifactFileName(clone))
	exitCode, stderr, err := e.runProcess(tool, args, clone.WorkingDir)
	if err != nil {
		return "", err
	}
	if exitCode != 0 {
		return "", &CompileError{Target: name, ExitCode: exitCode, Stderr: stderr}
	}

	e.registerTemp(artifactPath)
	for _, cp := range clone.CopyFiles {
		dst := path.Join(targetPath, path.Base(cp))
		if err := e.copyFile(cp, dst); err != nil {
			log.Warning("%s", (&CopyError{Src: cp, Dst: dst, Err: err}).Error())
			continue
		}
		e.registerTemp(dst)
	}

	e.artifactPaths[name] = artifactPath
	return "direct", nil
}

// runProcess runs tool directly (not through a shell) with args in dir,
// returning its exit code and captured stderr.
func (e *Executor) runProcess(tool string, args []string, dir string) (int, string, error) {
	cmd := exec.Command(tool, args...)
	cmd.Dir = dir
	var stderr strings.Builder
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return 0, stderr.String(), nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), stderr.String(), nil
	}
	return -1, stderr.String(), fmt.Errorf("failed to spawn %s: %w", tool, err)
}

// runCommands executes a list of user-supplied shell commands with the
// standard environment, honoring the DUB_PACKAGES_USED recursion guard for
// pre-generate commands.
func (e *Executor) runCommands(name string, target *core.TargetInfo, settings *core.BuildSettings, commands []string, isPreGenerate bool) error {
	if isPreGenerate && contains(e.packagesUsed, target.Pack.Name) {
		log.Info("skipping generate-phase commands for %s, already processed in this invocation", target.Pack.Name)
		return nil
	}
	env := Environment(EnvContext{
		Settings:     settings,
		Platform:     e.Platform,
		BuildType:    e.Options.BuildType,
		BuildMode:    e.Options.BuildMode,
		Config:       target.Config,
		Pkg:          target.Pack,
		Combined:     e.Options.Combined,
		Run:          e.Options.Run,
		Force:        e.Options.Force,
		Direct:       e.Options.Direct,
		Rdmd:         e.Options.RecipeScript,
		TempBuild:    e.Options.TempBuild,
		Parallel:     e.Options.Parallel,
		RunArgs:      e.Options.RunArgs,
		PackagesUsed: e.packagesUsed,
	})
	for _, cmd := range commands {
		exitCode, err := e.runShell(cmd, settings.WorkingDir, env)
		if err != nil {
			return err
		}
		if exitCode != 0 {
			return &CommandError{Command: cmd, ExitCode: exitCode}
		}
	}
	if isPreGenerate {
		e.packagesUsed = appendUsed(e.packagesUsed, target.Pack.Name)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
