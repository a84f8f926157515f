package core

import "strings"

// Package is the core's view of a resolved package. Recipe parsing and the
// registry/fetch layer are external collaborators; the core only ever
// consumes the fields below, which a front-end populates once per resolved
// dependency.
//
// Anonymous sub-packages (colon-separated names, e.g. "mypkg:sub") share
// their root's RecipePath.
type Package struct {
	Name       string
	Version    string
	RecipePath string

	// Configurations maps configuration name to its declared settings and
	// dependency constraints. Every package has at least one configuration.
	Configurations map[string]*Configuration
}

// Configuration is one named selection of sources/flags within a package's
// recipe (GLOSSARY).
type Configuration struct {
	Name            string
	TargetType      TargetType
	Settings        *BuildSettings
	Dependencies    []DependencyConstraint
	MainSourceFiles []string
}

// DependencyConstraint names a dependency package and, optionally, a
// configuration of it to prefer. Version *selection* among constraints is
// performed upstream of the core; by the time the core sees one, the name
// always resolves to exactly one entry in the resolved package set.
type DependencyConstraint struct {
	Name          string
	VersionRange  string
	Configuration string
	// Optional is true when the resolved set may omit this entirely; it
	// never appears in the core's dependency graph in that case.
	Optional bool
}

// IsAnonymous reports whether name identifies a colon-separated
// sub-package, which shares its root's path.
func IsAnonymous(name string) bool {
	return strings.Contains(name, ":")
}

// RootName returns the root package name for a possibly-anonymous name.
func RootName(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return name
}

// SanitizeIdentifier replaces every character that isn't valid in a
// conditional-compilation identifier with an underscore, used to build
// Have_<name> identifiers.
func SanitizeIdentifier(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// HaveVersion returns the Have_<pkg> version identifier for name.
func HaveVersion(name string) string {
	return "Have_" + SanitizeIdentifier(name)
}

// Config looks up a named configuration, returning nil if absent.
func (p *Package) Config(name string) *Configuration {
	return p.Configurations[name]
}
