package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/op/go-logging.v1"

	"github.com/forgebuild/forge/src/build"
	"github.com/forgebuild/forge/src/cache"
	"github.com/forgebuild/forge/src/cli"
	"github.com/forgebuild/forge/src/core"
	"github.com/forgebuild/forge/src/fs"
)

var log = logging.MustGetLogger("forge")

// version is overwritten by the release build process.
var version = "dev"

// describeBuildType is the nominal build type used when deriving a build ID
// for read-only commands that don't take a --build_type of their own.
const describeBuildType = "debug"

var opts struct {
	Usage string `usage:"forge builds D-style package graphs: given an already-resolved set of packages and a target, it derives build settings, checks a build's cache, and drives a compiler to produce an artifact."`

	Verbosity cli.Verbosity `short:"v" long:"verbosity" description:"Verbosity of output (error, warning, notice, info, debug)" default:"warning"`
	Config    string        `short:"c" long:"config" description:"Path to a .forgeconfig file." default:".forgeconfig"`
	Root      string        `short:"r" long:"root" description:"Root directory of the project being built." default:"."`

	Build struct {
		Graph      string `long:"graph" description:"Path to a JSON project-graph file (see core.ProjectFile)." required:"true"`
		Target     string `long:"target" description:"Name of the target to build." required:"true"`
		BuildType  string `long:"build_type" description:"Build type name, e.g. debug/release." default:"debug"`
		Force      bool   `short:"f" long:"force" description:"Rebuild even if the cache thinks the target is fresh."`
		Direct     bool   `long:"direct" description:"Skip the cache and build straight into the target path."`
		SyntaxOnly bool   `long:"syntax_only" description:"Only check syntax, produce no artifact."`
		Combined   bool   `long:"combined" description:"Fold autodetect/library packages into SourceLibrary instead of StaticLibrary."`
	} `command:"build" description:"Builds a single target."`

	Describe struct {
		Graph       string `long:"graph" description:"Path to a JSON project-graph file." required:"true"`
		Target      string `long:"target" description:"Name of the target to describe." required:"true"`
		CacheStats  bool   `long:"cache-stats" description:"Also print on-disk cache size for the target's package."`
	} `command:"describe" description:"Prints a target's merged build settings, build ID and dependency lists as JSON."`

	CleanCache struct {
		Graph string `long:"graph" description:"Path to a JSON project-graph file." required:"true"`
		DryRun bool  `long:"dry_run" description:"Print what would be removed without removing it."`
	} `command:"clean-cache" description:"Removes cached build-ID directories no longer referenced by the current graph."`
}

func main() {
	parser := cli.ParseFlagsOrDie("forge", version, &opts)
	cli.InitLogging(opts.Verbosity)
	defer cli.StopAtExit()

	switch parser.Active.Name {
	case "build":
		os.Exit(runBuildCommand())
	case "describe":
		os.Exit(runDescribeCommand())
	case "clean-cache":
		os.Exit(runCleanCacheCommand())
	default:
		log.Fatalf("No command given; run with --help.")
	}
}

// loadGraph reads a project-graph file and runs the GraphBuilder over it.
func loadGraph(path string, combined bool) (*core.ProjectFile, map[string]*core.TargetInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	proj := &core.ProjectFile{}
	if err := json.Unmarshal(data, proj); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	builder := &core.GraphBuilder{
		Root:     proj.Packages[proj.Root],
		Packages: proj.Packages,
		Chosen:   proj.Chosen,
		Combined: combined,
		Windows:  proj.Windows,
	}
	targets, err := builder.Build()
	if err != nil {
		return proj, nil, err
	}
	if builder.Warnings != nil {
		for _, w := range builder.Warnings.Errors {
			log.Warning("%s", w)
		}
	}
	return proj, targets, nil
}

func runBuildCommand() int {
	proj, targets, err := loadGraph(opts.Build.Graph, opts.Build.Combined)
	if err != nil {
		log.Fatalf("%s", err)
	}
	target, ok := targets[opts.Build.Target]
	if !ok {
		log.Fatalf("no such target: %s", opts.Build.Target)
	}

	settings, err := core.ReadGeneratorSettings([]string{opts.Config})
	if err != nil {
		log.Fatalf("reading config: %s", err)
	}
	platform := build.Platform{
		OS:             settings.Platform.OS,
		Architecture:   settings.Platform.Architecture,
		Compiler:       settings.Compiler.Name,
		CompilerBinary: settings.Compiler.Binary,
	}
	compiler := build.NewNativeCompiler(settings.Compiler.Name, settings.Compiler.Binary)
	realFS := fs.NewRealFilesystem()
	executor := build.NewExecutor(realFS, compiler, platform, build.Options{
		BuildType:          opts.Build.BuildType,
		Force:              opts.Build.Force,
		Direct:             opts.Build.Direct,
		SyntaxOnly:         opts.Build.SyntaxOnly,
		Parallel:           settings.Build.ParallelBuild,
		Combined:           opts.Build.Combined,
		ProjectRootPackage: proj.Root,
		TempRoot:           settings.Build.TempRoot,
	})
	defer executor.Cleanup()

	pkgRoot := filepath.Join(opts.Root, filepath.Dir(target.Pack.RecipePath))
	status, err := executor.Build(opts.Build.Target, target, pkgRoot, opts.Root)
	if err != nil {
		log.Fatalf("build failed: %s", err)
	}
	log.Notice("%s: %s", opts.Build.Target, status)
	return 0
}

func runDescribeCommand() int {
	_, targets, err := loadGraph(opts.Describe.Graph, false)
	if err != nil {
		log.Fatalf("%s", err)
	}
	target, ok := targets[opts.Describe.Target]
	if !ok {
		log.Fatalf("no such target: %s", opts.Describe.Target)
	}

	settings, err := core.ReadGeneratorSettings([]string{opts.Config})
	if err != nil {
		log.Fatalf("reading config: %s", err)
	}
	platform := build.Platform{
		OS:             settings.Platform.OS,
		Architecture:   settings.Platform.Architecture,
		Compiler:       settings.Compiler.Name,
		CompilerBinary: settings.Compiler.Binary,
	}
	out := struct {
		Target           string              `json:"target"`
		Config           string              `json:"config"`
		BuildID          string              `json:"buildId"`
		Settings         *core.BuildSettings `json:"settings"`
		Dependencies     []string            `json:"dependencies"`
		LinkDependencies []string            `json:"linkDependencies"`
		CacheBytes       int64               `json:"cacheBytes,omitempty"`
	}{
		Target:           opts.Describe.Target,
		Config:           target.Config,
		BuildID:          build.ID(target.Config, describeBuildType, target.Settings, platform),
		Settings:         target.Settings,
		Dependencies:     target.Dependencies,
		LinkDependencies: target.LinkDependencies,
	}

	if opts.Describe.CacheStats {
		pkgRoot := filepath.Join(opts.Root, filepath.Dir(target.Pack.RecipePath))
		stats, err := cache.Inspect(fs.NewRealFilesystem(), pkgRoot)
		if err != nil {
			log.Warning("reading cache stats: %s", err)
		} else {
			out.CacheBytes = stats.TotalSize
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("%s", err)
	}
	return 0
}

func runCleanCacheCommand() int {
	_, targets, err := loadGraph(opts.CleanCache.Graph, false)
	if err != nil {
		log.Fatalf("%s", err)
	}

	settings, err := core.ReadGeneratorSettings([]string{opts.Config})
	if err != nil {
		log.Fatalf("reading config: %s", err)
	}
	platform := build.Platform{
		OS:             settings.Platform.OS,
		Architecture:   settings.Platform.Architecture,
		Compiler:       settings.Compiler.Name,
		CompilerBinary: settings.Compiler.Binary,
	}

	realFS := fs.NewRealFilesystem()
	byPkgRoot := map[string]map[string]bool{}
	for _, target := range targets {
		pkgRoot := filepath.Join(opts.Root, filepath.Dir(target.Pack.RecipePath))
		id := build.ID(target.Config, describeBuildType, target.Settings, platform)
		if byPkgRoot[pkgRoot] == nil {
			byPkgRoot[pkgRoot] = map[string]bool{}
		}
		byPkgRoot[pkgRoot][id] = true
	}

	var roots []string
	for root := range byPkgRoot {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	total := 0
	for _, root := range roots {
		if opts.CleanCache.DryRun {
			stats, err := cache.Inspect(realFS, root)
			if err != nil {
				continue
			}
			for _, entry := range stats.Entries {
				if !byPkgRoot[root][entry.BuildID] {
					fmt.Printf("would remove %s (%s)\n", entry.Path, entry.BuildID)
				}
			}
			continue
		}
		n, err := cache.Clean(realFS, root, byPkgRoot[root])
		if err != nil {
			log.Warning("cleaning %s: %s", root, err)
			continue
		}
		total += n
	}
	log.Notice("removed %d stale cache director%s", total, plural(total))
	return 0
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
