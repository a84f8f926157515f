// Package build implements the build-identifier derivation, freshness
// checking and compiler-driving logic that turns a frozen core.TargetInfo
// into an on-disk artifact.
package build

import "gopkg.in/op/go-logging.v1"

var log = logging.MustGetLogger("build")

// Platform describes the toolchain and target triple a build runs under.
type Platform struct {
	OS              []string
	Architecture    []string
	Compiler        string
	CompilerBinary  string
	FrontendVersion uint32
}

// Windows reports whether this platform's primary OS entry is windows.
func (p Platform) Windows() bool {
	return len(p.OS) > 0 && p.OS[0] == "windows"
}

// ExeSuffix returns the platform's executable filename suffix.
func (p Platform) ExeSuffix() string {
	if p.Windows() {
		return ".exe"
	}
	return ""
}

// StaticLibName returns the conventional filename for a static library
// called name on this platform.
func (p Platform) StaticLibName(name string) string {
	if p.Windows() {
		return name + ".lib"
	}
	return "lib" + name + ".a"
}

// DynamicLibName returns the conventional filename for a dynamic library
// called name on this platform.
func (p Platform) DynamicLibName(name string) string {
	if p.Windows() {
		return name + ".dll"
	}
	if len(p.OS) > 0 && p.OS[0] == "darwin" {
		return "lib" + name + ".dylib"
	}
	return "lib" + name + ".so"
}
