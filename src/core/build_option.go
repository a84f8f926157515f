package core

// BuildOption is a bitset of recognised build flags.
type BuildOption uint32

// Recognised build options. syntaxOnly and pic are not inheritable; the
// rest form the inheritable subset propagated from a dependent down to its
// dependencies by mergeFromDependent.
const (
	OptSyntaxOnly BuildOption = 1 << iota
	OptPIC
	OptCodeCoverage
	OptUnitTests
	OptDebugInfo
	OptRelease
	OptOptimize
	OptWarnings
	OptAsserts
	OptBoundsChecks
	OptInlining
)

// InheritableOptions is the compile-time-constant subset of BuildOption
// that mergeFromDependent propagates down the dependency graph.
const InheritableOptions = OptCodeCoverage | OptUnitTests | OptDebugInfo |
	OptRelease | OptOptimize | OptWarnings | OptAsserts | OptBoundsChecks | OptInlining

// Has reports whether all bits of other are set in o.
func (o BuildOption) Has(other BuildOption) bool { return o&other == other }

// Inheritable returns the subset of o that is allowed to propagate from a
// dependent to its dependencies.
func (o BuildOption) Inheritable() BuildOption { return o & InheritableOptions }

// BuildRequirement is a bitset of requirements placed on how a target is
// built, e.g. "don't apply this generator's implicit default flags".
type BuildRequirement uint32

// NoDefaultFlags suppresses any implicit default flags a generator would
// otherwise add.
const NoDefaultFlags BuildRequirement = 1 << iota
