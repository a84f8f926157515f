// PathModel is a platform-aware path abstraction supporting three formats:
// POSIX, Windows and Internet/URI paths. It normalizes, converts between
// formats, and computes relative paths.
package core

import (
	"strings"
)

// PathFormat identifies which set of path rules a Path obeys.
type PathFormat int

// The three path formats the core understands.
const (
	PathPosix PathFormat = iota
	PathWindows
	PathInet
)

func (f PathFormat) String() string {
	switch f {
	case PathPosix:
		return "posix"
	case PathWindows:
		return "windows"
	case PathInet:
		return "inet"
	default:
		return "unknown"
	}
}

// Path is an immutable, format-aware path value.
//
// root holds the format-specific absolute prefix ("/" for posix, "C:\" or
// "\" or "\\host\share\" for windows, "/" for inet) or "" for a relative
// path. segments holds the path components between the root and any
// trailing slash, already decoded from any format-specific escaping.
type Path struct {
	format        PathFormat
	root          string
	segments      []string
	trailingSlash bool
}

func ops(format PathFormat) formatOps {
	switch format {
	case PathPosix:
		return posixOps{}
	case PathWindows:
		return windowsOps{}
	case PathInet:
		return inetOps{}
	default:
		panic("unknown path format")
	}
}

// formatOps captures everything that differs between the three path formats.
type formatOps interface {
	// splitRoot separates an absolute prefix from the remainder of raw, or
	// returns ok=false if raw is not absolute in this format.
	splitRoot(raw string) (root, rest string, ok bool)
	// isSeparator reports whether b is a path separator in this format.
	isSeparator(b byte) bool
	// joinRoot renders root plus the given segments back into a string.
	joinRoot(root string, segments []string, trailingSlash bool) string
	// decodeSegment undoes any format-specific escaping of a raw segment.
	decodeSegment(s string) (string, error)
	// encodeSegment applies any format-specific escaping to a segment.
	encodeSegment(s string) string
	// sameRoot reports whether two roots are compatible for RelativeTo
	// (e.g. Windows refuses to cross drive letters or UNC hosts).
	sameRoot(a, b string) bool
}

// NewPath parses raw in the given format, normalizing it in the process.
// It never fails for relative paths; absolute paths are validated per the
// format's rules.
func NewPath(format PathFormat, raw string) (*Path, error) {
	o := ops(format)
	trailingSlash := len(raw) > 0 && o.isSeparator(raw[len(raw)-1])
	root, rest, absolute := o.splitRoot(raw)
	var segments []string
	for _, part := range splitOnSeparators(rest, o) {
		if part == "" {
			continue
		}
		decoded, err := o.decodeSegment(part)
		if err != nil {
			return nil, &PathValidationError{Path: raw, Format: format, Reason: err.Error()}
		}
		segments = append(segments, decoded)
	}
	p := &Path{format: format, root: "", segments: segments, trailingSlash: trailingSlash}
	if absolute {
		p.root = root
	}
	return p.normalize()
}

func splitOnSeparators(s string, o formatOps) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if o.isSeparator(s[i]) {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// Format returns the path's format.
func (p *Path) Format() PathFormat { return p.format }

// Absolute reports whether the path is absolute in its format.
func (p *Path) Absolute() bool { return p.root != "" }

// normalize collapses "." and ".." segments. It only raises an error when
// an absolute path would ascend above its root.
func (p *Path) normalize() (*Path, error) {
	out := make([]string, 0, len(p.segments))
	for _, seg := range p.segments {
		switch seg {
		case ".":
			continue
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
				continue
			}
			if p.Absolute() {
				return nil, &PathValidationError{Path: p.String(), Format: p.format, Reason: "path ascends above its root"}
			}
			out = append(out, seg)
		default:
			out = append(out, seg)
		}
	}
	return &Path{format: p.format, root: p.root, segments: out, trailingSlash: p.trailingSlash}, nil
}

// String renders the path back to its native string form. An empty
// relative path stringifies to "".
func (p *Path) String() string {
	if !p.Absolute() && len(p.segments) == 0 {
		return ""
	}
	return ops(p.format).joinRoot(p.root, p.segments, p.trailingSlash)
}

// Front returns the first segment of the path, or "" if there are none.
func (p *Path) Front() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[0]
}

// Back returns the last segment of the path, or "" if there are none.
func (p *Path) Back() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// RelativeTo returns p expressed relative to base. Both must be absolute.
// On Windows, if p and base don't share a drive letter or UNC host, p
// is returned unchanged, refusing to cross roots.
func (p *Path) RelativeTo(base *Path) (*Path, error) {
	if !p.Absolute() || !base.Absolute() {
		return nil, &PathValidationError{Path: p.String(), Format: p.format, Reason: "relativeTo requires two absolute paths"}
	}
	if p.format != base.format {
		return nil, &PathValidationError{Path: p.String(), Format: p.format, Reason: "relativeTo requires matching path formats"}
	}
	o := ops(p.format)
	if !o.sameRoot(p.root, base.root) {
		return &Path{format: p.format, root: p.root, segments: append([]string{}, p.segments...), trailingSlash: p.trailingSlash}, nil
	}
	i := 0
	for i < len(p.segments) && i < len(base.segments) && p.segments[i] == base.segments[i] {
		i++
	}
	var segs []string
	for j := i; j < len(base.segments); j++ {
		segs = append(segs, "..")
	}
	segs = append(segs, p.segments[i:]...)
	return &Path{format: p.format, root: "", segments: segs, trailingSlash: p.trailingSlash}, nil
}

// Join appends other's segments onto p, ignoring any root other carries.
func (p *Path) Join(other *Path) *Path {
	segs := append(append([]string{}, p.segments...), other.segments...)
	joined := &Path{format: p.format, root: p.root, segments: segs, trailingSlash: other.trailingSlash}
	normalized, err := joined.normalize()
	if err != nil {
		return joined
	}
	return normalized
}

// WithFormat reinterprets p in a different format, re-validating and
// re-encoding every segment. It fails with a PathValidationError when a
// character is not representable in the target format.
func (p *Path) WithFormat(format PathFormat) (*Path, error) {
	if format == p.format {
		return p, nil
	}
	raw := ops(format).joinRoot(convertRoot(p.format, format, p.root), p.segments, p.trailingSlash)
	return NewPath(format, raw)
}

// convertRoot maps an absolute root from one format's conventions to
// another's, falling back to a plain separator when there's no equivalent
// (e.g. a Windows drive letter has no POSIX analogue).
func convertRoot(from, to PathFormat, root string) string {
	if root == "" {
		return ""
	}
	switch to {
	case PathPosix, PathInet:
		return "/"
	case PathWindows:
		if from == PathWindows {
			return root
		}
		return "\\"
	default:
		return root
	}
}

// EncodeSegment percent-encodes s per the URI unreserved+sub-delims set,
// for use in Inet paths.
func EncodeSegment(s string) string {
	return inetOps{}.encodeSegment(s)
}

// DecodeSegment percent-decodes s per the URI unreserved+sub-delims set.
func DecodeSegment(s string) (string, error) {
	return inetOps{}.decodeSegment(s)
}

// unreservedOrSubDelim reports whether b never needs percent-encoding in a
// URI path segment.
func unreservedOrSubDelim(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	}
	return strings.IndexByte("-._~!$&'()*+,;=:@", b) >= 0
}
