// Package pathnorm converts OS-native relative paths into the canonical
// forward-slash form used as hash input, so that a package hashes the same
// way regardless of which platform computed it.
package pathnorm

import (
	"path/filepath"
	"strings"
)

// Normalize rewrites p's platform separator to '/'. On platforms where the
// separator is already '/', p is returned unchanged.
func Normalize(p string) string {
	if filepath.Separator == '/' {
		return p
	}
	return strings.ReplaceAll(p, string(filepath.Separator), "/")
}
