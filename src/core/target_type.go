package core

import (
	"encoding/json"
)

// TargetType is the kind of artifact a target produces.
type TargetType int

const (
	Executable TargetType = iota
	StaticLibrary
	DynamicLibrary
	// Library is a host-policy alias for StaticLibrary; GraphBuilder's
	// shallow-configure phase maps it to StaticLibrary before any later
	// phase examines a TargetType value.
	Library
	SourceLibrary
	None
	Autodetect
)

func (t TargetType) String() string {
	switch t {
	case Executable:
		return "executable"
	case StaticLibrary:
		return "staticLibrary"
	case DynamicLibrary:
		return "dynamicLibrary"
	case Library:
		return "library"
	case SourceLibrary:
		return "sourceLibrary"
	case None:
		return "none"
	case Autodetect:
		return "autodetect"
	default:
		return "unknown"
	}
}

// MarshalJSON renders a TargetType as its name rather than its ordinal, for
// readable `forge describe` output.
func (t TargetType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// ProducesArtifact reports whether a target of this type produces an
// on-disk artifact file. Autodetect must be resolved before this is
// meaningful.
func (t TargetType) ProducesArtifact() bool {
	return t != SourceLibrary && t != None
}

// BuildMode selects how buildWithCompiler drives the compiler for a target.
type BuildMode int

const (
	BuildModeSeparate BuildMode = iota
	BuildModeAllAtOnce
	BuildModeSingleFile
)

func (m BuildMode) String() string {
	switch m {
	case BuildModeSeparate:
		return "separate"
	case BuildModeAllAtOnce:
		return "allAtOnce"
	case BuildModeSingleFile:
		return "singleFile"
	default:
		return "unknown"
	}
}
