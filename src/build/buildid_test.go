package build

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/forgebuild/forge/src/core"
)

func samplePlatform() Platform {
	return Platform{OS: []string{"linux"}, Architecture: []string{"x86_64"}, Compiler: "dmd", CompilerBinary: "/usr/bin/dmd", FrontendVersion: 2106}
}

func TestDigestStableForIdenticalSettings(t *testing.T) {
	s1 := &core.BuildSettings{DFlags: []string{"-O"}, Versions: []string{"Have_lib"}}
	s2 := &core.BuildSettings{DFlags: []string{"-O"}, Versions: []string{"Have_lib"}}
	assert.Equal(t, Digest(s1, samplePlatform()), Digest(s2, samplePlatform()))
}

func TestDigestChangesWithDflags(t *testing.T) {
	base := samplePlatform()
	s1 := &core.BuildSettings{DFlags: []string{"-O"}}
	s2 := &core.BuildSettings{DFlags: []string{"-O", "-release"}}
	assert.NotEqual(t, Digest(s1, base), Digest(s2, base))
}

func TestDigestChangesWithOptions(t *testing.T) {
	base := samplePlatform()
	s1 := &core.BuildSettings{Options: core.OptDebugInfo}
	s2 := &core.BuildSettings{Options: core.OptRelease}
	assert.NotEqual(t, Digest(s1, base), Digest(s2, base))
}

func TestDigestChangesWithCompilerBinary(t *testing.T) {
	s := &core.BuildSettings{DFlags: []string{"-O"}}
	p1 := samplePlatform()
	p2 := samplePlatform()
	p2.CompilerBinary = "/usr/bin/ldc2"
	assert.NotEqual(t, Digest(s, p1), Digest(s, p2))
}

func TestDigestUnaffectedByPostBuildCommands(t *testing.T) {
	base := samplePlatform()
	s1 := &core.BuildSettings{DFlags: []string{"-O"}}
	s2 := &core.BuildSettings{DFlags: []string{"-O"}, PostBuildCommands: []string{"echo hi"}}
	assert.Equal(t, Digest(s1, base), Digest(s2, base))
}

func TestIDIncludesConfigAndBuildType(t *testing.T) {
	s := &core.BuildSettings{}
	id := ID("default", "debug", s, samplePlatform())
	assert.Contains(t, id, "default-debug-linux-x86_64-dmd_2106-")
}
