package core

import "fmt"

// PathValidationError is raised when a path string is malformed for its
// declared format, or when a conversion between formats can't represent
// the path.
type PathValidationError struct {
	Path   string
	Format PathFormat
	Reason string
}

func (e *PathValidationError) Error() string {
	return fmt.Sprintf("invalid %s path %q: %s", e.Format, e.Path, e.Reason)
}

// GraphConsistencyError is raised when GraphBuilder finds a dependency name
// missing from the target map at inheritance time. It is always a
// programming error upstream of the core.
type GraphConsistencyError struct {
	Target     string
	Dependency string
}

func (e *GraphConsistencyError) Error() string {
	return fmt.Sprintf("target %s depends on %s, which is not in the target map", e.Target, e.Dependency)
}

// VersionConstraintError is raised when a resolved dependency's version
// doesn't satisfy the constraint its dependent declared. Since version
// *selection* happens upstream of the core, seeing this means the
// front-end resolved to a package version it shouldn't have.
type VersionConstraintError struct {
	Target     string
	Dependency string
	Version    string
	Constraint string
}

func (e *VersionConstraintError) Error() string {
	return fmt.Sprintf("target %s depends on %s %s, but the resolved version is %s", e.Target, e.Dependency, e.Constraint, e.Version)
}

// RootHasNoArtifactError is raised when the root package would produce no
// artifact and syntax-only mode was not requested.
type RootHasNoArtifactError struct {
	Root string
}

func (e *RootHasNoArtifactError) Error() string {
	return fmt.Sprintf("root package %s produces no artifact and its syntaxOnly option is not set", e.Root)
}
