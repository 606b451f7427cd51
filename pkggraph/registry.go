package pkggraph

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkgcache/fetchcore/cachestore"
	"github.com/pkgcache/fetchcore/internal/dcontext"
)

// slotState tracks what the registry knows about a hash-keyed cache entry
// during a single resolver run (spec.md §9's absent/pending/resolved
// states).
type slotState int

const (
	slotAbsent slotState = iota
	slotPending
	slotResolvedPackage
	slotResolvedNonBuildFile
)

type slot struct {
	state slotState
	pkg   *Package
}

// Registry is the process-local, hash-keyed table of every package the
// resolver has fetched or is in the middle of fetching. It is the single
// owner of every non-root Package it hands out, and is the arbiter of
// fetch deduplication: two manifest entries naming the same hash resolve
// to the same *Package.
//
// The resolver is strictly sequential (spec.md §5), so Registry carries
// no internal locking; concurrent use from multiple goroutines is not
// supported.
type Registry struct {
	store           *cachestore.Store
	buildMarkerFile string
	slots           map[string]*slot
}

// NewRegistry returns a Registry backed by store. buildMarkerFile is the
// name of the file whose presence, at a cached package's root, marks that
// package as having its own build description; a cached directory
// without that file is treated as a plain content object rather than a
// full package (spec.md §9's "non-build-file package" sentinel).
func NewRegistry(store *cachestore.Store, buildMarkerFile string) *Registry {
	return &Registry{store: store, buildMarkerFile: buildMarkerFile, slots: map[string]*slot{}}
}

// MarkPending records that hexHash has been declared by a manifest but not
// yet resolved. It leaves an existing slot untouched. GetCached treats a
// pending hash the same as an unseen one, and Register or
// RegisterNonBuildFile replaces the pending slot.
func (r *Registry) MarkPending(hexHash string) {
	if _, ok := r.slots[hexHash]; !ok {
		r.slots[hexHash] = &slot{state: slotPending}
	}
}

// GetCached implements spec.md §9's get_cached: given the hex multihash a
// manifest dependency declares, it reports whether a resolved package
// already exists, either in the in-memory registry or on disk in the
// cache store from an earlier process.
//
// The three-value return mirrors the two shapes a resolved cache hit can
// take: a full package (isNonBuildFile == false) or a bare content object
// that has no build description of its own (isNonBuildFile == true). In
// both cases pkg is the same stable *Package for a given hexHash across
// every call in this Registry's lifetime — including the non-build-file
// case — so two dependents of the same hash always share one object,
// never two, matching the full-package path's dedup guarantee. found ==
// false means neither — the caller must fetch.
func (r *Registry) GetCached(ctx context.Context, hexHash string) (pkg *Package, isNonBuildFile bool, found bool, err error) {
	if hexHash == "" {
		return nil, false, false, nil
	}

	if s, ok := r.slots[hexHash]; ok {
		switch s.state {
		case slotResolvedPackage:
			return s.pkg, false, true, nil
		case slotResolvedNonBuildFile:
			return s.pkg, true, true, nil
		}
	}

	dir := r.store.PackagePath(hexHash)
	if _, statErr := os.Stat(dir); statErr != nil {
		return nil, false, false, nil
	}

	if _, markerErr := os.Stat(filepath.Join(dir, r.buildMarkerFile)); markerErr != nil {
		dcontext.GetLogger(ctx).Debugf("cache hit for %s has no build marker, treating as a non-build-file package", hexHash)
		nonBuildPkg := NewWithDir(dir, hexHash)
		r.slots[hexHash] = &slot{state: slotResolvedNonBuildFile, pkg: nonBuildPkg}
		return nonBuildPkg, true, true, nil
	}

	foundPkg := NewWithDir(dir, hexHash)
	r.slots[hexHash] = &slot{state: slotResolvedPackage, pkg: foundPkg}
	return foundPkg, false, true, nil
}

// Register admits a freshly fetched package into the registry under
// hexHash. If a concurrent resolution already admitted an entry for the
// same hash (spec.md §4.4's race-tolerant insert can make this happen
// even in a sequential resolver, across separate top-level dependency
// chains that both name the same transitive hash), Register discards pkg
// and returns the existing entry instead, so the graph never holds two
// distinct *Package values for one content hash.
func (r *Registry) Register(hexHash string, pkg *Package) (*Package, bool) {
	if s, ok := r.slots[hexHash]; ok && s.state == slotResolvedPackage {
		return s.pkg, false
	}
	r.slots[hexHash] = &slot{state: slotResolvedPackage, pkg: pkg}
	return pkg, true
}

// RegisterNonBuildFile admits a resolved non-build-file object into the
// registry under hexHash, mirroring Register's dedup discipline for the
// sentinel case: if an entry already exists for hexHash, the existing
// pointer wins and pkg is discarded, so every dependent of that hash
// shares one *Package rather than racing in separate ones.
func (r *Registry) RegisterNonBuildFile(hexHash string, pkg *Package) (*Package, bool) {
	if s, ok := r.slots[hexHash]; ok && (s.state == slotResolvedPackage || s.state == slotResolvedNonBuildFile) {
		return s.pkg, false
	}
	r.slots[hexHash] = &slot{state: slotResolvedNonBuildFile, pkg: pkg}
	return pkg, true
}

// All returns every *Package the registry holds as a resolved full
// package, for destruction or reporting at the end of a resolve run.
// Non-build-file entries are not included. Order is unspecified.
func (r *Registry) All() []*Package {
	var out []*Package
	for _, s := range r.slots {
		if s.state == slotResolvedPackage && s.pkg != nil {
			out = append(out, s.pkg)
		}
	}
	return out
}
