package core

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	xmodsemver "golang.org/x/mod/semver"
)

// SatisfiesConstraint reports whether version satisfies a dependency's
// declared range (e.g. ">=2.0.0 <3.0.0"). An empty constraint is always
// satisfied. Ranges are parsed with Masterminds' constraint syntax; version
// strings the recipe layer hands us that aren't strict semver (missing
// patch component, "v" prefix variance, ...) fall back to a direct
// comparison via x/mod/semver, but only for a bare-version constraint —
// x/mod/semver has no range syntax of its own, so a genuine range
// constraint that strict semver can't check the version against is an
// error rather than a silently-wrong string comparison.
func SatisfiesConstraint(version, constraint string) (bool, error) {
	if constraint == "" {
		return true, nil
	}
	if c, err := semver.NewConstraint(constraint); err == nil {
		if v, err := semver.NewVersion(version); err == nil {
			return c.Check(v), nil
		}
		if isRangeConstraint(constraint) {
			return false, fmt.Errorf("version %q is not valid semver and cannot be checked against range constraint %q", version, constraint)
		}
	}
	return compareLoose(version, constraint)
}

// isRangeConstraint reports whether constraint uses range/comparison syntax
// rather than naming a single bare version to match exactly.
func isRangeConstraint(constraint string) bool {
	return strings.ContainsAny(constraint, "<>~^, ") || strings.Contains(constraint, "||")
}

// compareLoose handles a bare-version constraint (no range operators) for
// version strings Masterminds' stricter parser rejected.
func compareLoose(version, constraint string) (bool, error) {
	v, c := withVPrefix(version), withVPrefix(constraint)
	if !xmodsemver.IsValid(v) || !xmodsemver.IsValid(c) {
		return version == constraint, nil
	}
	return xmodsemver.Compare(v, c) == 0, nil
}

func withVPrefix(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
