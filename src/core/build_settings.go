package core

// BuildSettings holds the merged inputs to one compiler invocation. All
// collection fields are ordered sequences; callers that need set semantics
// (e.g. de-duplication) must do it explicitly.
type BuildSettings struct {
	TargetType  TargetType
	TargetName  string
	TargetPath  string
	WorkingDir  string
	MainSource  string

	SourceFiles       []string
	ImportFiles       []string
	StringImportFiles []string

	ImportPaths       []string
	StringImportPaths []string

	Versions      []string
	DebugVersions []string

	DFlags []string
	LFlags []string
	Libs   []string

	CopyFiles           []string
	ExtraDependencyFiles []string

	PreGenerateCommands  []string
	PostGenerateCommands []string
	PreBuildCommands     []string
	PostBuildCommands    []string

	Options      BuildOption
	Requirements BuildRequirement
}

// NewBuildSettings returns a zero-value BuildSettings ready for merging.
func NewBuildSettings() *BuildSettings {
	return &BuildSettings{}
}

// Clone returns a deep copy, used when a build task needs to own its
// settings independent of the target it was derived from.
func (s *BuildSettings) Clone() *BuildSettings {
	c := *s
	c.SourceFiles = append([]string{}, s.SourceFiles...)
	c.ImportFiles = append([]string{}, s.ImportFiles...)
	c.StringImportFiles = append([]string{}, s.StringImportFiles...)
	c.ImportPaths = append([]string{}, s.ImportPaths...)
	c.StringImportPaths = append([]string{}, s.StringImportPaths...)
	c.Versions = append([]string{}, s.Versions...)
	c.DebugVersions = append([]string{}, s.DebugVersions...)
	c.DFlags = append([]string{}, s.DFlags...)
	c.LFlags = append([]string{}, s.LFlags...)
	c.Libs = append([]string{}, s.Libs...)
	c.CopyFiles = append([]string{}, s.CopyFiles...)
	c.ExtraDependencyFiles = append([]string{}, s.ExtraDependencyFiles...)
	c.PreGenerateCommands = append([]string{}, s.PreGenerateCommands...)
	c.PostGenerateCommands = append([]string{}, s.PostGenerateCommands...)
	c.PreBuildCommands = append([]string{}, s.PreBuildCommands...)
	c.PostBuildCommands = append([]string{}, s.PostBuildCommands...)
	return &c
}

// Add concatenates all list fields of child into parent, OR-merges Options
// and Requirements, and ignores child's TargetType/TargetName/TargetPath.
// Used when embedding a sourceLibrary or none dependency into its dependent.
func (parent *BuildSettings) Add(child *BuildSettings) {
	parent.SourceFiles = append(parent.SourceFiles, child.SourceFiles...)
	parent.ImportFiles = append(parent.ImportFiles, child.ImportFiles...)
	parent.StringImportFiles = append(parent.StringImportFiles, child.StringImportFiles...)
	parent.ImportPaths = append(parent.ImportPaths, child.ImportPaths...)
	parent.StringImportPaths = append(parent.StringImportPaths, child.StringImportPaths...)
	parent.Versions = append(parent.Versions, child.Versions...)
	parent.DebugVersions = append(parent.DebugVersions, child.DebugVersions...)
	parent.DFlags = append(parent.DFlags, child.DFlags...)
	parent.LFlags = append(parent.LFlags, child.LFlags...)
	parent.Libs = append(parent.Libs, child.Libs...)
	parent.CopyFiles = append(parent.CopyFiles, child.CopyFiles...)
	parent.ExtraDependencyFiles = append(parent.ExtraDependencyFiles, child.ExtraDependencyFiles...)
	parent.PreGenerateCommands = append(parent.PreGenerateCommands, child.PreGenerateCommands...)
	parent.PostGenerateCommands = append(parent.PostGenerateCommands, child.PostGenerateCommands...)
	parent.PreBuildCommands = append(parent.PreBuildCommands, child.PreBuildCommands...)
	parent.PostBuildCommands = append(parent.PostBuildCommands, child.PostBuildCommands...)
	parent.Options |= child.Options
	parent.Requirements |= child.Requirements
}

// MergeFromDependent copies versions, debug versions and the inheritable
// subset of options from parent down into child. Applied down the graph so
// that parent-imposed version flags reach leaves. Only values child does
// not already hold are appended, so repeating the call with the same
// parent state changes nothing; GraphBuilder's down-inherit phase relies
// on this, since it visits a dependency once for every path that reaches it.
func (child *BuildSettings) MergeFromDependent(parent *BuildSettings) {
	for _, v := range parent.Versions {
		if !containsString(child.Versions, v) {
			child.Versions = append(child.Versions, v)
		}
	}
	for _, v := range parent.DebugVersions {
		if !containsString(child.DebugVersions, v) {
			child.DebugVersions = append(child.DebugVersions, v)
		}
	}
	child.Options |= parent.Options.Inheritable()
}

// linkerExtensions maps platform to the set of source extensions that
// identify linker input rather than compiler input.
func linkerExtensions(windows bool) []string {
	if windows {
		return []string{".obj", ".lib", ".res"}
	}
	return []string{".o", ".a", ".so", ".dylib"}
}

// IsLinkerFile reports whether path's extension identifies it as linker
// input. A ".d" suffix is always a source, never linker input, regardless
// of platform.
func IsLinkerFile(path string, windows bool) bool {
	if hasSuffixFold(path, ".d") {
		return false
	}
	for _, ext := range linkerExtensions(windows) {
		if hasSuffixFold(path, ext) {
			return true
		}
	}
	return false
}

func hasSuffixFold(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	tail := s[len(s)-len(suffix):]
	for i := range tail {
		a, b := tail[i], suffix[i]
		if a >= 'A' && a <= 'Z' {
			a += 'a' - 'A'
		}
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

// MergeFromDependency appends dflags, versions, debug versions, import
// paths and string import paths from child (a dependency) into parent.
// If child is a static library, it additionally appends child's
// linker-compatible source files, libs and lflags, since the parent is
// responsible for linking the static library's own dependencies.
func (parent *BuildSettings) MergeFromDependency(child *BuildSettings, windows bool) {
	parent.DFlags = append(parent.DFlags, child.DFlags...)
	parent.Versions = append(parent.Versions, child.Versions...)
	parent.DebugVersions = append(parent.DebugVersions, child.DebugVersions...)
	parent.ImportPaths = append(parent.ImportPaths, child.ImportPaths...)
	parent.StringImportPaths = append(parent.StringImportPaths, child.StringImportPaths...)
	if child.TargetType == StaticLibrary {
		for _, src := range child.SourceFiles {
			if IsLinkerFile(src, windows) {
				parent.SourceFiles = append(parent.SourceFiles, src)
			}
		}
		parent.Libs = append(parent.Libs, child.Libs...)
		parent.LFlags = append(parent.LFlags, child.LFlags...)
	}
}
