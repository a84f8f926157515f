// Package cache implements forge's on-disk build cache: one directory per
// build identifier, hard-linked out to the package's configured output
// path when a build completes.
package cache

import (
	"path"
	"sort"

	"github.com/dustin/go-humanize"
	"gopkg.in/op/go-logging.v1"

	"github.com/forgebuild/forge/src/fs"
)

var log = logging.MustGetLogger("cache")

// Dir returns the cache directory for one target's build: <pkgRoot>/.dub/build/<buildID>/.
func Dir(pkgRoot, buildID string) string {
	return path.Join(pkgRoot, ".dub", "build", buildID)
}

// ArtifactPath returns the cached path of an artifact named artifactName
// for a given package root and build ID.
func ArtifactPath(pkgRoot, buildID, artifactName string) string {
	return path.Join(Dir(pkgRoot, buildID), artifactName)
}

// Entry describes one cached build directory found while walking a
// package's cache root.
type Entry struct {
	BuildID string
	Path    string
	Size    int64
}

// Stats summarizes a package's cache usage, for `forge describe --cache-stats`.
type Stats struct {
	Entries   []Entry
	TotalSize int64
}

// HumanSize renders TotalSize using SI byte suffixes.
func (s Stats) HumanSize() string {
	return humanize.Bytes(uint64(s.TotalSize))
}

// Inspect walks <pkgRoot>/.dub/build and reports every cached build
// directory it finds, along with its total size.
func Inspect(fsys fs.Filesystem, pkgRoot string) (Stats, error) {
	buildRoot := path.Join(pkgRoot, ".dub", "build")
	if !fsys.ExistsDirectory(buildRoot) {
		return Stats{}, nil
	}
	entries, err := fsys.IterateDirectory(buildRoot)
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	for _, e := range entries {
		if !e.IsDir {
			continue
		}
		dirPath := path.Join(buildRoot, e.Name)
		size, err := dirSize(fsys, dirPath)
		if err != nil {
			return Stats{}, err
		}
		stats.Entries = append(stats.Entries, Entry{BuildID: e.Name, Path: dirPath, Size: size})
		stats.TotalSize += size
	}
	sort.Slice(stats.Entries, func(i, j int) bool { return stats.Entries[i].BuildID < stats.Entries[j].BuildID })
	return stats, nil
}

func dirSize(fsys fs.Filesystem, dirPath string) (int64, error) {
	entries, err := fsys.IterateDirectory(dirPath)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		if e.IsDir {
			sub, err := dirSize(fsys, path.Join(dirPath, e.Name))
			if err != nil {
				return 0, err
			}
			total += sub
			continue
		}
		total += e.Size
	}
	return total, nil
}

// Clean removes every cached build directory under pkgRoot whose build ID
// is not in keep, returning the number of directories removed.
func Clean(fsys fs.Filesystem, pkgRoot string, keep map[string]bool) (int, error) {
	stats, err := Inspect(fsys, pkgRoot)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range stats.Entries {
		if keep[e.BuildID] {
			continue
		}
		if err := fsys.RemoveDir(e.Path, true); err != nil {
			return removed, err
		}
		log.Info("removed stale cache directory %s", e.Path)
		removed++
	}
	return removed, nil
}
