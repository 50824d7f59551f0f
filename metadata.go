package md2slides

import (
	"sort"
	"strings"
)

// Well-known metadata keys.
const (
	MetaFilename = "filename" // cleaned document name, prefixes cache keys
	MetaNoMain   = "no-main"  // compile only: no entry point, no link, no run
)

// Metadata is a per-document bag of string pairs threaded through to
// handlers and into the cache key. The pipeline only ever adds keys.
type Metadata map[string]string

// Clone returns an independent copy. A nil receiver yields an empty map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// With returns a copy of m with key set to value.
func (m Metadata) With(key, value string) Metadata {
	out := m.Clone()
	out[key] = value
	return out
}

// SortedPairs concatenates key+value for every entry in key order.
// Identical metadata always yields the identical string.
func (m Metadata) SortedPairs() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(m[k])
	}
	return b.String()
}

// NoMain reports whether compile-only mode was requested.
func (m Metadata) NoMain() bool {
	switch strings.ToLower(m[MetaNoMain]) {
	case "", "0", "false", "no":
		return false
	}
	return true
}

// Flags is an opaque, handler-specific bag of extra parameters.
type Flags map[string]any
