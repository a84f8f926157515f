package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneIsIndependent(t *testing.T) {
	s := &BuildSettings{SourceFiles: []string{"a.d"}, DFlags: []string{"-O"}}
	c := s.Clone()
	c.SourceFiles[0] = "b.d"
	c.DFlags = append(c.DFlags, "-release")
	assert.Equal(t, "a.d", s.SourceFiles[0])
	assert.Len(t, s.DFlags, 1)
}

func TestAddConcatenatesAndOrsBits(t *testing.T) {
	parent := &BuildSettings{SourceFiles: []string{"app.d"}, Options: OptDebugInfo}
	child := &BuildSettings{SourceFiles: []string{"lib.d"}, Libs: []string{"z"}, Options: OptRelease}
	parent.Add(child)
	assert.Equal(t, []string{"app.d", "lib.d"}, parent.SourceFiles)
	assert.Equal(t, []string{"z"}, parent.Libs)
	assert.True(t, parent.Options.Has(OptDebugInfo))
	assert.True(t, parent.Options.Has(OptRelease))
}

func TestMergeFromDependentOnlyCopiesInheritableOptions(t *testing.T) {
	parent := &BuildSettings{Versions: []string{"Have_parent"}, Options: OptRelease | OptSyntaxOnly}
	child := &BuildSettings{}
	child.MergeFromDependent(parent)
	assert.Contains(t, child.Versions, "Have_parent")
	assert.True(t, child.Options.Has(OptRelease))
	assert.False(t, child.Options.Has(OptSyntaxOnly))
}

func TestMergeFromDependencyStaticLibraryPullsLinkerFiles(t *testing.T) {
	child := &BuildSettings{
		TargetType:  StaticLibrary,
		SourceFiles: []string{"lib.d", "prebuilt.o", "vendor.a"},
		Libs:        []string{"z"},
		LFlags:      []string{"-L/usr/lib"},
		DFlags:      []string{"-Ilib/source"},
	}
	parent := &BuildSettings{}
	parent.MergeFromDependency(child, false)
	assert.Equal(t, []string{"prebuilt.o", "vendor.a"}, parent.SourceFiles)
	assert.Equal(t, []string{"z"}, parent.Libs)
	assert.Equal(t, []string{"-L/usr/lib"}, parent.LFlags)
	assert.Contains(t, parent.DFlags, "-Ilib/source")
}

func TestMergeFromDependencySourceLibraryDoesNotPullLinkerFiles(t *testing.T) {
	child := &BuildSettings{
		TargetType:  SourceLibrary,
		SourceFiles: []string{"lib.d", "prebuilt.o"},
		Libs:        []string{"z"},
	}
	parent := &BuildSettings{}
	parent.MergeFromDependency(child, false)
	assert.Empty(t, parent.SourceFiles)
	assert.Empty(t, parent.Libs)
}

func TestIsLinkerFileWindowsVsPosix(t *testing.T) {
	assert.True(t, IsLinkerFile("foo.o", false))
	assert.False(t, IsLinkerFile("foo.o", true))
	assert.True(t, IsLinkerFile("foo.obj", true))
	assert.False(t, IsLinkerFile("foo.d", true))
	assert.True(t, IsLinkerFile("FOO.A", false))
}
