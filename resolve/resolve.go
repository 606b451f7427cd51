// Package resolve implements the recursive dependency resolver (spec.md
// §4.11): for a root package directory, parse its manifest, resolve every
// declared dependency (cache hit or fetch+unpack+hash), verify the
// computed hash against what the manifest declares, and recurse into each
// resolved child. Resolution is strictly sequential — no speculative or
// cross-dependency parallelism, so that cache races, hash-mismatch
// diagnostics, and downstream code generation stay deterministic.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkgcache/fetchcore/cachestore"
	"github.com/pkgcache/fetchcore/diag"
	"github.com/pkgcache/fetchcore/fetch"
	"github.com/pkgcache/fetchcore/internal/dcontext"
	"github.com/pkgcache/fetchcore/manifest"
	"github.com/pkgcache/fetchcore/pkggraph"
	"github.com/pkgcache/fetchcore/pkghash"
)

// Config controls the names and limits the resolver uses; the zero value
// is filled in with sensible defaults by New.
type Config struct {
	// ManifestFileName is the name of the per-package dependency file the
	// resolver looks for in each package's root directory.
	ManifestFileName string

	// BuildMarkerFile is the file whose presence distinguishes a cached
	// directory that is a full package from one that is a bare fetched
	// object with no build description of its own (spec.md §4.10 step 5).
	BuildMarkerFile string

	// HashWorkers bounds the per-directory hashing worker pool (0 uses
	// pkghash.DefaultWorkers).
	HashWorkers int

	// HTTPClient is used for http(s) dependency sources (nil uses
	// http.DefaultClient).
	HTTPClient *http.Client
}

const (
	defaultManifestFileName = "dependencies.yaml"
	defaultBuildMarkerFile  = "pkg.build"
)

func (c Config) withDefaults() Config {
	if c.ManifestFileName == "" {
		c.ManifestFileName = defaultManifestFileName
	}
	if c.BuildMarkerFile == "" {
		c.BuildMarkerFile = defaultBuildMarkerFile
	}
	return c
}

// Resolver drives a single resolve run. It owns the global module
// registry and the synthetic deps package (spec.md §3's "deps package":
// a secondary, hash-keyed lookup table holding exactly one entry per
// distinct hash encountered).
type Resolver struct {
	store    *cachestore.Store
	registry *pkggraph.Registry
	cfg      Config
	bundle   *diag.Bundle
	depsPkg  *pkggraph.Package
}

// New returns a Resolver backed by store.
func New(store *cachestore.Store, cfg Config) *Resolver {
	cfg = cfg.withDefaults()
	return &Resolver{
		store:    store,
		registry: pkggraph.NewRegistry(store, cfg.BuildMarkerFile),
		cfg:      cfg,
		bundle:   &diag.Bundle{},
		depsPkg:  pkggraph.NewWithDir("", ""),
	}
}

// Registry returns the resolver's global module registry.
func (r *Resolver) Registry() *pkggraph.Registry {
	return r.registry
}

// DepsPackage returns the synthetic hash-keyed package holding exactly
// one entry per distinct package hash encountered during the run, as a
// secondary lookup by hash. codegen.Emit does not read it; it walks the
// root package's tables instead.
func (r *Resolver) DepsPackage() *pkggraph.Package {
	return r.depsPkg
}

// Resolve reads and recursively resolves the manifest rooted at rootDir.
// It returns the root package (always non-nil on success), the
// diagnostics bundle accumulated along the way (possibly empty, never
// nil), and an error — one of diag's sentinel errors if any diagnostics
// were pushed, wrapping an I/O error otherwise.
func (r *Resolver) Resolve(ctx context.Context, rootDir string) (*pkggraph.Package, *diag.Bundle, error) {
	root, err := pkggraph.NewFromPath(rootDir)
	if err != nil {
		return nil, r.bundle, fmt.Errorf("opening root package directory: %w", err)
	}

	if err := r.resolvePackage(ctx, root, ""); err != nil {
		return root, r.bundle, err
	}
	return root, r.bundle, nil
}

// resolvePackage reads pkg's manifest (if any) and resolves every
// declared dependency in manifest order, recursing into each. thisHash
// is pkg's own content hash, or "" for the root package — it is not
// currently consulted here but is threaded through for symmetry with
// spec.md's recursive step, which names it explicitly.
func (r *Resolver) resolvePackage(ctx context.Context, pkg *pkggraph.Package, thisHash string) error {
	manifestPath := filepath.Join(pkg.RootDir, r.cfg.ManifestFileName)

	f, err := os.Open(manifestPath)
	if errors.Is(err, os.ErrNotExist) {
		// No manifest: an empty dependency list, not an error.
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening manifest %s: %w", manifestPath, err)
	}
	defer f.Close()

	m, err := manifest.Parse(manifestPath, f)
	if err != nil {
		r.bundle.Pushf(manifestPath, 0, 0, "", "%v", err)
		return diag.ErrPackageFetchFailed
	}

	for _, dep := range m.Dependencies {
		if dep.HasHash {
			if _, parseErr := pkghash.ParseMultihash(dep.Hash); parseErr == nil {
				r.registry.MarkPending(dep.Hash)
			}
		}
	}

	for _, dep := range m.Dependencies {
		child, childHash, err := r.resolveDependency(ctx, pkg, manifestPath, m, dep)
		if err != nil {
			return err
		}

		pkg.Add(dep.Name, child)

		if existing, ok := r.depsPkg.Lookup(childHash); ok {
			if existing != child {
				panic("resolve: the same content hash resolved to two distinct package objects in one run")
			}
		} else {
			r.depsPkg.Add(childHash, child)
		}

		if err := r.resolvePackage(ctx, child, childHash); err != nil {
			return err
		}
	}

	return nil
}

// resolveDependency resolves a single manifest entry to a package, either
// via a cache hit or by fetching, unpacking, hashing, and verifying it.
func (r *Resolver) resolveDependency(ctx context.Context, parent *pkggraph.Package, manifestPath string, m *manifest.Manifest, dep manifest.Dependency) (*pkggraph.Package, string, error) {
	if dep.HasHash {
		// GetCached returns the same stable *Package for a given hash on
		// every call — including the non-build-file case — so two
		// dependents sharing a hash never end up with two distinct
		// Package objects for it (see Registry.GetCached).
		cached, _, found, err := r.registry.GetCached(ctx, dep.Hash)
		if err != nil {
			return nil, "", fmt.Errorf("probing cache for %s: %w", dep.Hash, err)
		}
		if found {
			return cached, dep.Hash, nil
		}
	}

	return r.fetchAndUnpack(ctx, parent, manifestPath, m, dep)
}

// fetchAndUnpack resolves a dependency's location to a readable resource,
// unpacks it (or, for an already-unpacked local directory, hashes it in
// place) and verifies the result against the manifest's declared hash.
func (r *Resolver) fetchAndUnpack(ctx context.Context, parent *pkggraph.Package, manifestPath string, m *manifest.Manifest, dep manifest.Dependency) (*pkggraph.Package, string, error) {
	loc, err := fetch.ResolveLocation(dep.Location, parent.RootDir)
	if err != nil {
		r.pushLocationError(manifestPath, m, dep, err)
		return nil, "", diag.ErrPackageFetchFailed
	}

	res, err := fetch.Open(ctx, loc, r.cfg.HTTPClient)
	if err != nil {
		r.pushLocationError(manifestPath, m, dep, err)
		return nil, "", diag.ErrPackageFetchFailed
	}
	defer res.Close()

	format, err := fetch.ClassifyArchive(res)
	if errors.Is(err, fetch.ErrIsDir) {
		return r.resolvePathDependency(ctx, manifestPath, m, dep, loc.Path)
	}
	if err != nil {
		r.pushLocationError(manifestPath, m, dep, err)
		return nil, "", diag.ErrPackageFetchFailed
	}

	tempDir, err := r.store.NewTempDir()
	if err != nil {
		return nil, "", fmt.Errorf("allocating temp dir: %w", err)
	}

	if err := fetch.Unpack(res, format, tempDir, nil); err != nil {
		os.RemoveAll(tempDir)
		r.pushLocationError(manifestPath, m, dep, err)
		return nil, "", diag.ErrPackageFetchFailed
	}

	digest, err := pkghash.HashDirectory(ctx, tempDir, r.cfg.HashWorkers)
	if err != nil {
		os.RemoveAll(tempDir)
		r.pushLocationError(manifestPath, m, dep, err)
		return nil, "", diag.ErrPackageFetchFailed
	}

	hexHash, err := digest.Multihash()
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, "", fmt.Errorf("encoding multihash: %w", err)
	}

	if err := r.verifyHash(manifestPath, m, dep, hexHash); err != nil {
		os.RemoveAll(tempDir)
		return nil, "", err
	}

	// Once fetched, unpacked, and hash-verified, the promotion into the
	// cache should complete even if ctx is canceled mid-run (e.g. the CLI
	// caught an interrupt) — an abandoned promote would leave tempDir
	// orphaned under the cache root with no entry pointing at it.
	finalDir, err := r.store.PromotePackage(dcontext.DetachedContext(ctx), tempDir, hexHash)
	if err != nil {
		return nil, "", fmt.Errorf("promoting fetched package: %w", err)
	}

	pkg, _ := r.registry.Register(hexHash, pkggraph.NewWithDir(finalDir, hexHash))
	dcontext.GetLogger(ctx).Debugf("resolved dependency %q to %s", dep.Name, hexHash)
	return pkg, hexHash, nil
}

// resolvePathDependency handles a dependency whose location resolved to
// an already-unpacked local directory: it is hashed in place rather than
// copied into the cache, matching spec.md §4.7's "directory source: no
// unpacking needed".
func (r *Resolver) resolvePathDependency(ctx context.Context, manifestPath string, m *manifest.Manifest, dep manifest.Dependency, dir string) (*pkggraph.Package, string, error) {
	digest, err := pkghash.HashDirectory(ctx, dir, r.cfg.HashWorkers)
	if err != nil {
		r.pushLocationError(manifestPath, m, dep, err)
		return nil, "", diag.ErrPackageFetchFailed
	}

	hexHash, err := digest.Multihash()
	if err != nil {
		return nil, "", fmt.Errorf("encoding multihash: %w", err)
	}

	if err := r.verifyHash(manifestPath, m, dep, hexHash); err != nil {
		return nil, "", err
	}

	pkg, _ := r.registry.Register(hexHash, pkggraph.NewWithDir(dir, hexHash))
	return pkg, hexHash, nil
}

// verifyHash compares computedHex against dep's declared hash, pushing a
// diagnostic and returning diag.ErrPackageFetchFailed on an absent or
// mismatched hash (spec.md §4.11 step 2).
func (r *Resolver) verifyHash(manifestPath string, m *manifest.Manifest, dep manifest.Dependency, computedHex string) error {
	if !dep.HasHash {
		r.bundle.Push(diag.Diagnostic{
			ManifestPath: manifestPath,
			Line:         dep.LocationLine,
			Column:       dep.LocationColumn,
			SourceLine:   m.SourceLine(dep.LocationLine),
			Message:      fmt.Sprintf("dependency %q has no hash", dep.Name),
			Notes:        []diag.Note{{Message: fmt.Sprintf(`add .hash = "%s" to this dependency`, computedHex)}},
		})
		return diag.ErrPackageFetchFailed
	}

	if dep.Hash != computedHex {
		r.bundle.Push(diag.Diagnostic{
			ManifestPath: manifestPath,
			Line:         dep.HashLine,
			Column:       dep.HashColumn,
			SourceLine:   m.SourceLine(dep.HashLine),
			Message:      fmt.Sprintf("hash mismatch: expected %s, found %s", dep.Hash, computedHex),
		})
		return diag.ErrPackageFetchFailed
	}

	return nil
}

func (r *Resolver) pushLocationError(manifestPath string, m *manifest.Manifest, dep manifest.Dependency, err error) {
	r.bundle.Push(diag.Diagnostic{
		ManifestPath: manifestPath,
		Line:         dep.LocationLine,
		Column:       dep.LocationColumn,
		SourceLine:   m.SourceLine(dep.LocationLine),
		Message:      err.Error(),
	})
}
