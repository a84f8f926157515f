// Package core implements the dependency-graph processing pipeline
// (GraphBuilder), plus the value types it operates over: PathModel,
// BuildSettings, TargetInfo and Package.
package core

import (
	"fmt"
	"path"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("core")

// pkgState is GraphBuilder's Phase-1 working memory for one package: its
// resolved configuration, effective target type and initial settings.
type pkgState struct {
	pkg       *Package
	cfg       *Configuration
	chosenCfg string
	typ       TargetType
	settings  *BuildSettings
	hasOutput bool
}

// GraphBuilder runs the five (six, counting the string-import override)
// phases over a resolved dependency set, producing
// map<package-name, TargetInfo>.
type GraphBuilder struct {
	// Root is the root package of the build.
	Root *Package
	// Packages is every package in the resolved, topologically-ordered
	// project (including Root), keyed by name. Version *selection* has
	// already happened upstream.
	Packages map[string]*Package
	// Chosen is the externally supplied configuration selection.
	Chosen ChosenConfig
	// Combined switches non-root autodetect/library packages to
	// SourceLibrary instead of StaticLibrary.
	Combined bool
	// Windows selects the linker-file extension set used by the merge
	// rules.
	Windows bool

	// Warnings accumulates every non-fatal condition encountered across
	// all phases (downgraded dynamic-library deps, empty-source targets
	// forced to None, ...), for callers like `forge describe` that want
	// to surface them programmatically rather than just via logging.
	//
	// Dependency resolution and version selection among constraints
	// happen upstream of GraphBuilder; by the time it runs, every
	// DependencyConstraint.Name resolves to exactly one entry in Packages.
	Warnings *multierror.Error

	state   map[string]*pkgState
	targets map[string]*TargetInfo
}

// Build runs all phases and returns the final target map.
func (b *GraphBuilder) Build() (map[string]*TargetInfo, error) {
	if b.Chosen == nil {
		b.Chosen = ChosenConfig{}
	}
	b.state = map[string]*pkgState{}
	b.targets = map[string]*TargetInfo{}

	for name, pkg := range b.Packages {
		st, err := b.shallowConfigure(name, pkg)
		if err != nil {
			return nil, err
		}
		b.state[name] = st
	}
	rootState := b.state[b.Root.Name]
	if rootState == nil {
		return nil, &GraphConsistencyError{Target: "<root>", Dependency: b.Root.Name}
	}
	if rootState.typ == None && !rootState.settings.Options.Has(OptSyntaxOnly) {
		return nil, &RootHasNoArtifactError{Root: b.Root.Name}
	}

	if _, err := b.collect(b.Root.Name, map[string]bool{}); err != nil {
		return nil, err
	}

	if err := b.downInherit(b.Root.Name, map[string]bool{}); err != nil {
		return nil, err
	}

	for name, t := range b.targets {
		b.defineHaveVersions(name, t)
	}

	if err := b.upInherit(b.Root.Name, map[string]bool{}); err != nil {
		return nil, err
	}

	b.overrideStringImports(b.Root.Name, map[string]fileOrigin{}, map[string]bool{})

	b.pruneAndCollectMainSources()

	for _, t := range b.targets {
		t.Freeze()
	}
	return b.targets, nil
}

func (b *GraphBuilder) warnf(format string, args ...interface{}) {
	err := fmt.Errorf(format, args...)
	log.Warning(err.Error())
	b.Warnings = multierror.Append(b.Warnings, err)
}

// --- Phase 1: shallow-configure --------------------------------------------

func (b *GraphBuilder) shallowConfigure(name string, pkg *Package) (*pkgState, error) {
	cfgName := b.Chosen.For(name)
	cfg := pkg.Config(cfgName)
	if cfg == nil {
		return nil, fmt.Errorf("package %s has no configuration %q", name, cfgName)
	}
	isRoot := name == b.Root.Name
	typ := cfg.TargetType
	if typ == Library {
		typ = StaticLibrary
	}
	if typ == Autodetect {
		if isRoot {
			typ = StaticLibrary
		} else if b.Combined {
			typ = SourceLibrary
		} else {
			typ = StaticLibrary
		}
	}
	if !isRoot && typ == DynamicLibrary {
		b.warnf("%s: dynamic library dependencies are not supported, downgrading to static library", name)
		typ = StaticLibrary
	}

	settings := cfg.Settings.Clone()
	settings.TargetType = typ
	settings.TargetName = lastSegment(name)
	if len(cfg.MainSourceFiles) > 0 {
		settings.MainSource = cfg.MainSourceFiles[0]
	}

	if len(settings.SourceFiles) == 0 && typ != None && typ != SourceLibrary {
		b.warnf("%s: no source files, forcing target type to none", name)
		typ = None
		settings.TargetType = None
	}
	if typ == DynamicLibrary {
		settings.Options |= OptPIC
	}
	if typ == None {
		settings = NewBuildSettings()
		settings.TargetType = None
	}

	hasOutput := typ.ProducesArtifact() || isRoot
	return &pkgState{pkg: pkg, cfg: cfg, chosenCfg: cfgName, typ: typ, settings: settings, hasOutput: hasOutput}, nil
}

func lastSegment(name string) string {
	return path.Base(name)
}

// --- Phase 2: collectDependencies -------------------------------------------

// collect returns the TargetInfo for the output package name, creating and
// populating it (and everything it binary-depends on) on first visit. The
// visited map is consulted only for output packages.
func (b *GraphBuilder) collect(name string, visited map[string]bool) (*TargetInfo, error) {
	if t, ok := b.targets[name]; ok {
		return t, nil
	}
	st := b.state[name]
	if st == nil {
		return nil, &GraphConsistencyError{Target: "<graph>", Dependency: name}
	}
	target := newTargetInfo(st.pkg, st.chosenCfg)
	target.HasOutput = st.hasOutput
	b.targets[name] = target
	visited[name] = true

	for _, dep := range st.cfg.Dependencies {
		if err := b.collectOne(target, name, dep, visited); err != nil {
			return nil, err
		}
	}
	return target, nil
}

// collectOne processes a single dependency constraint of the package
// currently being collected into target (name is that package's name; it
// may differ from target.Pack.Name when we're deep inside a chain of
// folded no-output packages).
func (b *GraphBuilder) collectOne(target *TargetInfo, fromName string, dep DependencyConstraint, visited map[string]bool) error {
	depName := dep.Name
	depState := b.state[depName]
	if depState == nil {
		if dep.Optional {
			return nil
		}
		return &GraphConsistencyError{Target: fromName, Dependency: depName}
	}
	if dep.VersionRange != "" {
		ok, err := SatisfiesConstraint(depState.pkg.Version, dep.VersionRange)
		if err != nil {
			return err
		}
		if !ok {
			return &VersionConstraintError{Target: fromName, Dependency: depName, Version: depState.pkg.Version, Constraint: dep.VersionRange}
		}
	}
	if !depState.hasOutput {
		target.addPackage(depState.pkg)
		for _, grandDep := range depState.cfg.Dependencies {
			if err := b.collectOne(target, depName, grandDep, visited); err != nil {
				return err
			}
		}
		return nil
	}
	if depState.typ == Executable {
		return nil // executable dependencies are always skipped
	}
	target.addDependency(depName)
	target.addLinkDependency(depName)
	if visited[depName] {
		// Already fully collected (or in progress on this path); avoid
		// re-descending, matching the per-package visited discipline
		// for output packages.
		if child, ok := b.targets[depName]; ok && depState.typ == StaticLibrary {
			target.appendLinkDependencies(child.LinkDependencies)
		}
		return nil
	}
	child, err := b.collect(depName, visited)
	if err != nil {
		return err
	}
	if depState.typ == StaticLibrary {
		target.appendLinkDependencies(child.LinkDependencies)
	}
	return nil
}

// --- Phase 3: down-inherit (configureDependencies) --------------------------

func (b *GraphBuilder) downInherit(name string, visiting map[string]bool) error {
	target, ok := b.targets[name]
	if !ok {
		return &GraphConsistencyError{Target: "<down-inherit>", Dependency: name}
	}
	if visiting[name] {
		return nil // a cycle; detecting it further is out of scope here
	}
	visiting[name] = true
	defer delete(visiting, name)

	for _, depName := range target.Dependencies {
		child, ok := b.targets[depName]
		if !ok {
			return &GraphConsistencyError{Target: name, Dependency: depName}
		}
		child.Settings.MergeFromDependent(target.Settings)
		if err := b.downInherit(depName, visiting); err != nil {
			return err
		}
	}
	return nil
}

// --- Phase 4: defineHaveDependencies ----------------------------------------

func (b *GraphBuilder) defineHaveVersions(name string, target *TargetInfo) {
	seen := map[string]bool{}
	add := func(n string) {
		v := HaveVersion(n)
		if !seen[v] {
			seen[v] = true
			target.Settings.Versions = append(target.Settings.Versions, v)
		}
	}
	for _, pkg := range target.Packages {
		add(pkg.Name)
	}
	for _, dep := range target.Dependencies {
		add(dep)
	}
}

// --- Phase 5: up-inherit (configureDependents) ------------------------------

func (b *GraphBuilder) upInherit(name string, visited map[string]bool) error {
	if visited[name] {
		return nil
	}
	visited[name] = true
	target, ok := b.targets[name]
	if !ok {
		return &GraphConsistencyError{Target: "<up-inherit>", Dependency: name}
	}
	for _, embedded := range target.Packages[1:] {
		// The embedded package's own declared settings, under the
		// configuration that was chosen when it was folded in.
		st := b.state[embedded.Name]
		if st != nil {
			target.Settings.Add(st.settings)
		}
	}
	for _, depName := range target.Dependencies {
		if err := b.upInherit(depName, visited); err != nil {
			return err
		}
		dep := b.targets[depName]
		target.Settings.MergeFromDependency(dep.Settings, b.Windows)
	}
	return nil
}

// --- Phase 6: overrideStringImports -----------------------------------------

// fileOrigin records where an ancestor's string-import file physically
// lives, so a descendant's same-named file can be redirected to it.
type fileOrigin struct {
	absPath string
	dir     string
}

func (b *GraphBuilder) overrideStringImports(name string, ancestors map[string]fileOrigin, visited map[string]bool) {
	if visited[name] {
		return
	}
	visited[name] = true
	target, ok := b.targets[name]
	if !ok {
		return
	}
	pkgDir := packageDir(target.Pack)

	for i, f := range target.Settings.StringImportFiles {
		base := path.Base(f)
		if origin, found := ancestors[base]; found {
			target.Settings.StringImportFiles[i] = origin.absPath
			target.Settings.StringImportPaths = append([]string{origin.dir}, target.Settings.StringImportPaths...)
		}
	}

	next := make(map[string]fileOrigin, len(ancestors)+len(target.Settings.StringImportFiles))
	for k, v := range ancestors {
		next[k] = v
	}
	for _, f := range target.Settings.StringImportFiles {
		abs := f
		if !path.IsAbs(abs) {
			abs = path.Join(pkgDir, f)
		}
		next[path.Base(f)] = fileOrigin{absPath: abs, dir: path.Dir(abs)}
	}

	for _, depName := range target.Dependencies {
		b.overrideStringImports(depName, next, visited)
	}
}

func packageDir(pkg *Package) string {
	if pkg.RecipePath == "" {
		return path.Dir(pkg.Name)
	}
	return path.Dir(pkg.RecipePath)
}

// --- final pruning & main-source collection ---------------------------------

func (b *GraphBuilder) pruneAndCollectMainSources() {
	var collected []string
	for name, t := range b.targets {
		if !t.HasOutput {
			delete(b.targets, name)
			continue
		}
	}
	for name, t := range b.targets {
		if t.Settings.TargetType == Executable {
			continue
		}
		if t.Settings.MainSource != "" {
			collected = append(collected, t.Settings.MainSource)
			t.Settings.SourceFiles = removeString(t.Settings.SourceFiles, t.Settings.MainSource)
		}
		_ = name
	}
	if root, ok := b.targets[b.Root.Name]; ok && root.Settings.TargetType == Executable {
		root.Settings.SourceFiles = append(root.Settings.SourceFiles, collected...)
	}
}

func removeString(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, x := range list {
		if x != s {
			out = append(out, x)
		}
	}
	return out
}
