package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/forge/src/fs"
)

func TestInspectAndClean(t *testing.T) {
	m := fs.NewMockFilesystem()
	require.NoError(t, m.WriteFile("/pkg/.dub/build/abc123/app", []byte("1234567890"), 0))
	require.NoError(t, m.WriteFile("/pkg/.dub/build/def456/app", []byte("12345"), 0))

	stats, err := Inspect(m, "/pkg")
	require.NoError(t, err)
	require.Len(t, stats.Entries, 2)
	assert.Equal(t, int64(15), stats.TotalSize)

	removed, err := Clean(m, "/pkg", map[string]bool{"abc123": true})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	stats, err = Inspect(m, "/pkg")
	require.NoError(t, err)
	require.Len(t, stats.Entries, 1)
	assert.Equal(t, "abc123", stats.Entries[0].BuildID)
}

func TestInspectEmptyCache(t *testing.T) {
	m := fs.NewMockFilesystem()
	stats, err := Inspect(m, "/pkg")
	require.NoError(t, err)
	assert.Empty(t, stats.Entries)
	assert.Equal(t, int64(0), stats.TotalSize)
}
