// Package fetch normalizes heterogeneous dependency sources (local paths,
// file:// URIs, http(s):// archives) into a canonical on-disk tree,
// implementing spec.md's C5–C8.
package fetch

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// Kind classifies a resolved fetch location.
type Kind int

const (
	// KindFile is a local filesystem path (possibly a directory).
	KindFile Kind = iota
	// KindHTTPRequest is a http(s) URL to be fetched over the network.
	KindHTTPRequest
)

// Location is the output of ResolveLocation: a classified, absolute
// dependency source (spec.md §4.5).
type Location struct {
	Kind Kind
	Path string // absolute filesystem path, for KindFile
	URL  string // original http(s) URL, for KindHTTPRequest
}

// ResolveLocation classifies a dependency's declared location (a file
// path, a "file://" URI, or an "http(s)://" URL) and, for local sources,
// resolves it relative to referringDir — the directory of the package
// that declared the dependency.
func ResolveLocation(raw, referringDir string) (Location, error) {
	// Bare relative/absolute paths (not a URI) are treated as path
	// dependencies directly, mirroring how path-type manifest entries
	// synthesize file:// URIs per spec.md §4.11.
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parsing dependency location %q: %w", raw, err)
	}

	switch u.Scheme {
	case "", "file":
		p := raw
		if u.Scheme == "file" {
			decoded, err := url.PathUnescape(u.Path)
			if err != nil {
				return Location{}, fmt.Errorf("decoding file:// path %q: %w", raw, err)
			}
			p = decoded
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(referringDir, p)
		}
		return Location{Kind: KindFile, Path: filepath.Clean(p)}, nil

	case "http", "https":
		return Location{Kind: KindHTTPRequest, URL: raw}, nil

	default:
		return Location{}, fmt.Errorf("unknown scheme %q in dependency location %q", u.Scheme, raw)
	}
}
