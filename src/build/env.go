package build

import (
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/forgebuild/forge/src/core"
)

// EnvContext carries everything Environment needs to render the variable
// set described for every user-command spawn.
type EnvContext struct {
	Settings    *core.BuildSettings
	Platform    Platform
	BuildType   string
	BuildMode   core.BuildMode
	Config      string
	Pkg         *core.Package
	RootPkg     *core.Package
	Combined    bool
	Run         bool
	Force       bool
	Direct      bool
	Rdmd        bool
	TempBuild   bool
	Parallel    bool
	RunArgs     []string
	PackagesUsed []string
}

func boolEnv(b bool) string {
	if b {
		return "TRUE"
	}
	return ""
}

// Environment renders the full set of environment variables a pre/post
// command or recipe-script invocation receives.
func Environment(ctx EnvContext) []string {
	s := ctx.Settings
	env := []string{
		"DFLAGS=" + strings.Join(s.DFlags, " "),
		"LFLAGS=" + strings.Join(s.LFlags, " "),
		"VERSIONS=" + strings.Join(s.Versions, " "),
		"LIBS=" + strings.Join(s.Libs, " "),
		"IMPORT_PATHS=" + strings.Join(s.ImportPaths, " "),
		"STRING_IMPORT_PATHS=" + strings.Join(s.StringImportPaths, " "),
		"DC=" + ctx.Platform.CompilerBinary,
		"DC_BASE=" + ctx.Platform.Compiler,
		"D_FRONTEND_VER=" + strconv.FormatUint(uint64(ctx.Platform.FrontendVersion), 10),
		"DUB_PLATFORM=" + strings.Join(ctx.Platform.OS, "."),
		"DUB_ARCH=" + strings.Join(ctx.Platform.Architecture, "."),
		"DUB_TARGET_TYPE=" + s.TargetType.String(),
		"DUB_TARGET_PATH=" + s.TargetPath,
		"DUB_TARGET_NAME=" + s.TargetName,
		"DUB_WORKING_DIRECTORY=" + s.WorkingDir,
		"DUB_MAIN_SOURCE_FILE=" + s.MainSource,
		"DUB_CONFIG=" + ctx.Config,
		"DUB_BUILD_TYPE=" + ctx.BuildType,
		"DUB_BUILD_MODE=" + ctx.BuildMode.String(),
		"DUB_COMBINED=" + boolEnv(ctx.Combined),
		"DUB_RUN=" + boolEnv(ctx.Run),
		"DUB_FORCE=" + boolEnv(ctx.Force),
		"DUB_DIRECT=" + boolEnv(ctx.Direct),
		"DUB_RDMD=" + boolEnv(ctx.Rdmd),
		"DUB_TEMP_BUILD=" + boolEnv(ctx.TempBuild),
		"DUB_PARALLEL_BUILD=" + boolEnv(ctx.Parallel),
		"DUB_PACKAGES_USED=" + strings.Join(ctx.PackagesUsed, ","),
	}
	if ctx.Pkg != nil {
		env = append(env, "DUB_PACKAGE="+ctx.Pkg.Name, "DUB_PACKAGE_DIR="+packageDirOf(ctx.Pkg))
	}
	if ctx.RootPkg != nil {
		env = append(env, "DUB_ROOT_PACKAGE="+ctx.RootPkg.Name, "DUB_ROOT_PACKAGE_DIR="+packageDirOf(ctx.RootPkg))
	}
	if len(ctx.RunArgs) > 0 {
		env = append(env, "DUB_RUN_ARGS="+shellJoin(ctx.RunArgs))
	}
	return env
}

func packageDirOf(pkg *core.Package) string {
	if pkg.RecipePath == "" {
		return pkg.Name
	}
	if i := strings.LastIndex(pkg.RecipePath, "/"); i >= 0 {
		return pkg.RecipePath[:i]
	}
	return "."
}

func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n'\"\\$") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}

// SplitRunArgs splits a user-supplied --run-args style string into
// individual arguments using shell quoting rules.
func SplitRunArgs(s string) ([]string, error) {
	return shlex.Split(s)
}

// appendUsed adds pkgName to the DUB_PACKAGES_USED recursion-guard list if
// not already present.
func appendUsed(used []string, pkgName string) []string {
	for _, u := range used {
		if u == pkgName {
			return used
		}
	}
	return append(used, pkgName)
}
