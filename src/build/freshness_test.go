package build

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/src/core"
	"github.com/forgebuild/forge/src/fs"
)

func TestFreshnessMissingArtifact(t *testing.T) {
	m := fs.NewMockFilesystem()
	c := NewFreshnessChecker(m)
	result := c.Check(CheckInput{ArtifactPath: "/pkg/app", Settings: &core.BuildSettings{}}, time.Now())
	assert.False(t, result.UpToDate)
}

func TestFreshnessUpToDate(t *testing.T) {
	m := fs.NewMockFilesystem()
	m.Now = time.Unix(1000, 0)
	require.NoError(t, m.WriteFile("/pkg/source/app.d", []byte("x"), 0))
	m.Now = time.Unix(2000, 0)
	require.NoError(t, m.WriteFile("/pkg/app", []byte("binary"), 0))

	c := NewFreshnessChecker(m)
	result := c.Check(CheckInput{
		ArtifactPath: "/pkg/app",
		Settings:     &core.BuildSettings{SourceFiles: []string{"/pkg/source/app.d"}},
	}, time.Unix(3000, 0))
	assert.True(t, result.UpToDate)
}

func TestFreshnessStaleWhenSourceNewer(t *testing.T) {
	m := fs.NewMockFilesystem()
	m.Now = time.Unix(1000, 0)
	require.NoError(t, m.WriteFile("/pkg/app", []byte("binary"), 0))
	m.Now = time.Unix(2000, 0)
	require.NoError(t, m.WriteFile("/pkg/source/app.d", []byte("x"), 0))

	c := NewFreshnessChecker(m)
	result := c.Check(CheckInput{
		ArtifactPath: "/pkg/app",
		Settings:     &core.BuildSettings{SourceFiles: []string{"/pkg/source/app.d"}},
	}, time.Unix(3000, 0))
	assert.False(t, result.UpToDate)
}

func TestFreshnessMissingInput(t *testing.T) {
	m := fs.NewMockFilesystem()
	require.NoError(t, m.WriteFile("/pkg/app", []byte("binary"), 0))
	c := NewFreshnessChecker(m)
	result := c.Check(CheckInput{
		ArtifactPath: "/pkg/app",
		Settings:     &core.BuildSettings{SourceFiles: []string{"/pkg/source/missing.d"}},
	}, time.Now())
	assert.False(t, result.UpToDate)
}

func TestFreshnessIncludesSelectedVersionsFileForProjectRoot(t *testing.T) {
	m := fs.NewMockFilesystem()
	m.Now = time.Unix(1000, 0)
	require.NoError(t, m.WriteFile("/pkg/app", []byte("binary"), 0))
	m.Now = time.Unix(2000, 0)
	require.NoError(t, m.WriteFile("/pkg/dub.selections.json", []byte("{}"), 0))

	c := NewFreshnessChecker(m)
	result := c.Check(CheckInput{
		ArtifactPath:         "/pkg/app",
		Settings:             &core.BuildSettings{},
		IsProjectRoot:        true,
		SelectedVersionsFile: "/pkg/dub.selections.json",
	}, time.Unix(3000, 0))
	assert.False(t, result.UpToDate)
}
