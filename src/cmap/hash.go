package cmap

import "github.com/cespare/xxhash/v2"

// StringHasher is a hash function for Map instances keyed by string,
// e.g. the freshness checker's per-path mtime memo table.
func StringHasher(s string) uint32 {
	return uint32(xxhash.Sum64String(s))
}
