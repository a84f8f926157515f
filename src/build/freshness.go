package build

import (
	"time"

	"github.com/forgebuild/forge/src/cmap"
	"github.com/forgebuild/forge/src/core"
	"github.com/forgebuild/forge/src/fs"
)

// FreshnessChecker decides whether a target's cached artifact can be reused
// instead of rebuilding. mtimes of existing files are memoized in a
// sharded, lock-protected map, so a checker may be shared between
// goroutines.
type FreshnessChecker struct {
	FS   fs.Filesystem
	memo *cmap.Map[string, time.Time]
}

// NewFreshnessChecker returns a checker backed by fsys.
func NewFreshnessChecker(fsys fs.Filesystem) *FreshnessChecker {
	return &FreshnessChecker{
		FS:   fsys,
		memo: cmap.New[string, time.Time](cmap.DefaultShardCount, cmap.StringHasher),
	}
}

func (c *FreshnessChecker) mtime(path string) (time.Time, bool, error) {
	if t, ok := c.memo.Get(path); ok {
		return t, true, nil
	}
	entries, err := c.FS.IterateDirectory(parentDir(path))
	if err != nil {
		return time.Time{}, false, nil
	}
	base := baseName(path)
	for _, e := range entries {
		if e.Name == base {
			c.memo.Set(path, e.ModTime)
			return e.ModTime, true, nil
		}
	}
	return time.Time{}, false, nil
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

// Result is the outcome of a freshness check, with a human-readable reason
// for logging.
type Result struct {
	UpToDate bool
	Reason   string
}

// CheckInput bundles everything the freshness algorithm consults for one
// target.
type CheckInput struct {
	ArtifactPath string
	Settings     *core.BuildSettings
	Packages     []*core.Package

	// AdditionalDepFiles names artifacts of static-library dependencies
	// that should invalidate this target when they change, since the
	// freshness check otherwise ignores library files at the artifact
	// level.
	AdditionalDepFiles []string

	// IsProjectRoot is true when this target's root package is the
	// project's root package, in which case the selected-versions lock
	// file also participates as an input.
	IsProjectRoot        bool
	SelectedVersionsFile string
}

// Check runs the freshness algorithm against now (the caller's wall clock,
// passed explicitly so tests can control it).
func (c *FreshnessChecker) Check(in CheckInput, now time.Time) Result {
	artifactTime, exists, err := c.mtime(in.ArtifactPath)
	if err != nil || !exists {
		return Result{UpToDate: false, Reason: "artifact does not exist"}
	}

	inputs := c.collectInputs(in)
	for _, input := range inputs {
		t, exists, err := c.mtime(input)
		if err != nil {
			return Result{UpToDate: false, Reason: "error statting " + input}
		}
		if !exists {
			return Result{UpToDate: false, Reason: "missing input " + input}
		}
		if t.After(now) {
			log.Warning("input %s has a modification time in the future", input)
			continue
		}
		if t.After(artifactTime) {
			return Result{UpToDate: false, Reason: "newer input " + input}
		}
	}
	return Result{UpToDate: true}
}

func (c *FreshnessChecker) collectInputs(in CheckInput) []string {
	var inputs []string
	inputs = append(inputs, in.Settings.SourceFiles...)
	inputs = append(inputs, in.Settings.ImportFiles...)
	inputs = append(inputs, in.Settings.StringImportFiles...)
	for _, pkg := range in.Packages {
		if pkg.RecipePath != "" {
			inputs = append(inputs, pkg.RecipePath)
		}
	}
	inputs = append(inputs, in.AdditionalDepFiles...)
	if in.IsProjectRoot && in.SelectedVersionsFile != "" {
		inputs = append(inputs, in.SelectedVersionsFile)
	}
	return inputs
}
