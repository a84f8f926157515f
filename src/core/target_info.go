package core

// TargetInfo is one binary target: the root package of the target plus any
// packages folded into it, its chosen configuration, its merged
// BuildSettings, and its two dependency edge lists.
//
// TargetInfo is created by GraphBuilder, mutated only during its five
// phases, and frozen before the Executor touches it.
type TargetInfo struct {
	// Pack is the root package of this target. Invariant 1: Packages[0] == Pack.
	Pack *Package
	// Packages is Pack plus every no-output package folded into this
	// target by Phase 2 (collectDependencies).
	Packages []*Package
	// Config is the name of the configuration chosen for Pack.
	Config string

	// Settings is this target's merged BuildSettings, finalized by the end
	// of Phase 5 (up-inherit).
	Settings *BuildSettings

	// Dependencies lists the binary targets this target depends on
	// directly (names into the target map). Targets reached only through
	// another binary dependency are not listed here.
	Dependencies []string
	// LinkDependencies lists the targets actually linked in: every entry
	// of Dependencies plus, for each static-library dependency, that
	// dependency's own LinkDependencies. It can therefore name transitive
	// targets that are absent from Dependencies.
	LinkDependencies []string

	// HasOutput records whether this target actually produces an
	// artifact, i.e. it is not SourceLibrary/None, or it is the root.
	HasOutput bool

	frozen bool
}

// newTargetInfo constructs a TargetInfo rooted at pack, ready for
// GraphBuilder's phases to populate.
func newTargetInfo(pack *Package, config string) *TargetInfo {
	return &TargetInfo{
		Pack:     pack,
		Packages: []*Package{pack},
		Config:   config,
		Settings: NewBuildSettings(),
	}
}

// Freeze marks the target as immutable; GraphBuilder calls this once all
// five phases have completed for the whole graph.
func (t *TargetInfo) Freeze() { t.frozen = true }

// Frozen reports whether the target has been frozen.
func (t *TargetInfo) Frozen() bool { return t.frozen }

// addDependency appends name to Dependencies if not already present,
// preserving insertion (i.e. topological discovery) order.
func (t *TargetInfo) addDependency(name string) {
	if !containsString(t.Dependencies, name) {
		t.Dependencies = append(t.Dependencies, name)
	}
}

// addLinkDependency appends name to LinkDependencies if not already present.
func (t *TargetInfo) addLinkDependency(name string) {
	if !containsString(t.LinkDependencies, name) {
		t.LinkDependencies = append(t.LinkDependencies, name)
	}
}

// appendLinkDependencies merges others into t.LinkDependencies: entries
// already present that also appear in others are dropped from their old
// position, and others is appended in its own order, so a dependency
// always ends up after its dependent (topological order) and no name
// appears twice.
func (t *TargetInfo) appendLinkDependencies(others []string) {
	merged := make([]string, 0, len(others)+len(t.LinkDependencies))
	seen := map[string]bool{}
	inOthers := map[string]bool{}
	for _, o := range others {
		inOthers[o] = true
	}
	for _, o := range t.LinkDependencies {
		if !seen[o] && !inOthers[o] {
			merged = append(merged, o)
			seen[o] = true
		}
	}
	for _, o := range others {
		if !seen[o] {
			merged = append(merged, o)
			seen[o] = true
		}
	}
	t.LinkDependencies = merged
}

// addPackage appends pkg to Packages if not already present, keeping
// re-embedding of a no-output package revisited via a cycle idempotent.
func (t *TargetInfo) addPackage(pkg *Package) {
	for _, p := range t.Packages {
		if p == pkg {
			return
		}
	}
	t.Packages = append(t.Packages, pkg)
}

func containsString(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
