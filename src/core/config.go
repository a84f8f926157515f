package core

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/please-build/gcfg"
)

// ConfigFileName is the INI-style project config file forge reads, normally
// checked into the package's repository.
const ConfigFileName = ".forgeconfig"

// GeneratorSettings is the opaque configuration value the project
// front-end hands to the Executor (the "genSettings" referenced alongside
// BuildSettings and config in the build-identifier formula). It carries
// ambient toolchain/cache configuration, not package-recipe data.
type GeneratorSettings struct {
	Platform struct {
		OS           []string
		Architecture []string
	}
	Compiler struct {
		Name   string
		Binary string
	}
	Build struct {
		ParallelBuild bool
		CacheRoot     string
		TempRoot      string
	}
}

// DefaultGeneratorSettings returns settings with conservative, always-valid
// defaults, before any config file is applied over them.
func DefaultGeneratorSettings() *GeneratorSettings {
	s := &GeneratorSettings{}
	s.Platform.OS = []string{"linux"}
	s.Platform.Architecture = []string{"x86_64"}
	s.Compiler.Name = "dmd"
	s.Compiler.Binary = "dmd"
	s.Build.ParallelBuild = true
	s.Build.CacheRoot = ".dub/build"
	s.Build.TempRoot = "/tmp/dub"
	return s
}

// ReadGeneratorSettings loads and merges every config file in filenames, in
// order, over a default configuration. A missing file is not an error; a
// malformed one is. Files named *.toml are read as TOML, used by
// integration-test fixtures that have no recipe file to derive an INI
// config from; everything else is read with the same gcfg-based INI parser
// as a real .forgeconfig.
func ReadGeneratorSettings(filenames []string) (*GeneratorSettings, error) {
	settings := DefaultGeneratorSettings()
	for _, filename := range filenames {
		var err error
		if strings.HasSuffix(filename, ".toml") {
			_, err = toml.DecodeFile(filename, settings)
		} else {
			err = gcfg.ReadFileInto(settings, filename)
		}
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			if gcfg.FatalOnly(err) != nil {
				return settings, err
			}
			log.Warning("error in config file %s: %s", filename, err)
		}
	}
	return settings, nil
}
