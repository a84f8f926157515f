package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosixAbsolute(t *testing.T) {
	p, err := NewPath(PathPosix, "/a/b")
	require.NoError(t, err)
	assert.True(t, p.Absolute())
	assert.Equal(t, "/a/b", p.String())
}

func TestPosixRelative(t *testing.T) {
	p, err := NewPath(PathPosix, "a/b")
	require.NoError(t, err)
	assert.False(t, p.Absolute())
	assert.Equal(t, "a/b", p.String())
}

func TestPosixNormalizeDotDot(t *testing.T) {
	p, err := NewPath(PathPosix, "/a/b/../c")
	require.NoError(t, err)
	assert.Equal(t, "/a/c", p.String())
}

func TestPosixAscendAboveRootErrors(t *testing.T) {
	_, err := NewPath(PathPosix, "/a/../..")
	require.Error(t, err)
	var pve *PathValidationError
	assert.ErrorAs(t, err, &pve)
}

func TestPosixRelativeAscendIsAllowed(t *testing.T) {
	p, err := NewPath(PathPosix, "a/../../b")
	require.NoError(t, err)
	assert.Equal(t, "../b", p.String())
}

func TestEmptyPathStringifiesEmpty(t *testing.T) {
	p, err := NewPath(PathPosix, "")
	require.NoError(t, err)
	assert.Equal(t, "", p.String())
}

func TestWindowsAbsoluteForms(t *testing.T) {
	for _, raw := range []string{`C:\foo\bar`, `\foo\bar`, `/foo/bar`} {
		p, err := NewPath(PathWindows, raw)
		require.NoError(t, err, raw)
		assert.True(t, p.Absolute(), raw)
	}
}

func TestWindowsUNCPrefixIsAtomic(t *testing.T) {
	p, err := NewPath(PathWindows, `\\host\share\dir\file.txt`)
	require.NoError(t, err)
	require.True(t, p.Absolute())
	assert.Equal(t, []string{"dir", "file.txt"}, p.segments)
	assert.Equal(t, `\\host\share\`, p.root)
}

func TestWindowsRelativeToRefusesCrossDrive(t *testing.T) {
	a, err := NewPath(PathWindows, `D:\foo\bar`)
	require.NoError(t, err)
	b, err := NewPath(PathWindows, `C:\foo`)
	require.NoError(t, err)
	rel, err := a.RelativeTo(b)
	require.NoError(t, err)
	// Refused: a is returned unchanged.
	assert.Equal(t, a.String(), rel.String())
}

func TestRelativeToRoundTrip(t *testing.T) {
	base, err := NewPath(PathPosix, "/a/b")
	require.NoError(t, err)
	target, err := NewPath(PathPosix, "/a/b/c/d")
	require.NoError(t, err)
	rel, err := target.RelativeTo(base)
	require.NoError(t, err)
	assert.Equal(t, "c/d", rel.String())
	// Round trip: base joined with the relative path reconstructs target.
	assert.Equal(t, target.String(), base.Join(rel).String())
}

func TestRelativeToWithAscend(t *testing.T) {
	base, err := NewPath(PathPosix, "/a/b/c")
	require.NoError(t, err)
	target, err := NewPath(PathPosix, "/a/x")
	require.NoError(t, err)
	rel, err := target.RelativeTo(base)
	require.NoError(t, err)
	assert.Equal(t, "../../x", rel.String())
}

func TestEncodeDecodeSegmentRoundTrip(t *testing.T) {
	raw := "hello world/weird?name"
	encoded := EncodeSegment(raw)
	decoded, err := DecodeSegment(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestInetAbsolute(t *testing.T) {
	p, err := NewPath(PathInet, "/a%20b/c")
	require.NoError(t, err)
	assert.Equal(t, "a b", p.segments[0])
}

func TestWithFormatConversion(t *testing.T) {
	p, err := NewPath(PathPosix, "/a/b")
	require.NoError(t, err)
	w, err := p.WithFormat(PathWindows)
	require.NoError(t, err)
	assert.True(t, w.Absolute())
	assert.Equal(t, []string{"a", "b"}, w.segments)
}
