package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadGeneratorSettingsMissingFileUsesDefaults(t *testing.T) {
	settings, err := ReadGeneratorSettings([]string{filepath.Join(t.TempDir(), "nope.forgeconfig")})
	require.NoError(t, err)
	assert.Equal(t, "dmd", settings.Compiler.Name)
}

func TestReadGeneratorSettingsTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.toml")
	contents := "[Compiler]\nName = \"ldc2\"\nBinary = \"/usr/bin/ldc2\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	settings, err := ReadGeneratorSettings([]string{path})
	require.NoError(t, err)
	assert.Equal(t, "ldc2", settings.Compiler.Name)
	assert.Equal(t, "/usr/bin/ldc2", settings.Compiler.Binary)
}
