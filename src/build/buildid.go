package build

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/forgebuild/forge/src/core"
)

// ID renders the full build identifier for one target:
//
//	<config>-<buildType>-<platform>-<arch>-<compiler>_<frontendVer>-<hex digest>
func ID(configName, buildType string, settings *core.BuildSettings, platform Platform) string {
	return fmt.Sprintf("%s-%s-%s-%s-%s_%d-%s",
		configName,
		buildType,
		strings.Join(platform.OS, "."),
		strings.Join(platform.Architecture, "."),
		platform.Compiler,
		platform.FrontendVersion,
		Digest(settings, platform),
	)
}

// Digest computes the hex-encoded MD5 digest over the fields that affect
// build-identity equivalence: versions, debug versions, dflags, lflags,
// options, string import paths, architecture, compiler binary, compiler
// name, and frontend version. Fields affecting presentation only
// (postBuildCommands among them) are deliberately excluded.
func Digest(settings *core.BuildSettings, platform Platform) string {
	h := md5.New()
	writeList(h, settings.Versions)
	writeList(h, settings.DebugVersions)
	writeList(h, settings.DFlags)
	writeList(h, settings.LFlags)
	writeField(h, strconv.FormatUint(uint64(settings.Options), 10))
	writeList(h, settings.StringImportPaths)
	writeList(h, platform.Architecture)
	writeField(h, platform.CompilerBinary)
	writeField(h, platform.Compiler)

	var frontend [4]byte
	binary.LittleEndian.PutUint32(frontend[:], platform.FrontendVersion)
	h.Write(frontend[:])
	h.Write([]byte{0})

	sum := h.Sum(nil)
	return fmt.Sprintf("%X", sum)
}

type hasher interface {
	Write(p []byte) (int, error)
}

func writeList(h hasher, items []string) {
	for _, item := range items {
		h.Write([]byte(item))
		h.Write([]byte{0})
	}
	h.Write([]byte{0, 0})
}

func writeField(h hasher, s string) {
	h.Write([]byte(s))
	h.Write([]byte{0})
}
