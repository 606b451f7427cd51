// Package pkghash implements the content-hash algorithm used for both cache
// addressing and integrity verification: a per-file digest folded, in
// sorted path order, into a single package digest (spec.md §4.2–§4.3).
package pkghash

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pkgcache/fetchcore/diag"
	"github.com/pkgcache/fetchcore/internal/dcontext"
	"github.com/pkgcache/fetchcore/pathnorm"
)

// hashedFile is the per-file record described in spec.md §3: the walked
// relative path (normalized with pathnorm when hashed and sorted), the
// resulting digest, and a failure slot so one bad file doesn't abort the
// whole fan-out.
type hashedFile struct {
	relPath string
	digest  Digest
	err     error
}

// DefaultWorkers is used when HashDirectory is called with workers <= 0.
const DefaultWorkers = 8

// HashDirectory walks root recursively, hashes every file across a bounded
// worker pool, and folds the sorted per-file digests into a single package
// digest. Any entry that is neither a regular file nor a directory
// (symlink, socket, device) fails the whole walk with
// diag.ErrIllegalFileType. Per-file failures are logged individually, then
// reported together as diag.ErrPackageHashUnavailable.
//
// The digest is independent of filesystem enumeration order: that's what
// makes HashDirectory produce the same result whether run with one worker
// or a hundred, and whether the tree came from ext4 or a tarball.
func HashDirectory(ctx context.Context, root string, workers int) (Digest, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var relPaths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		mode := d.Type()
		switch {
		case d.IsDir():
			return nil
		case mode.IsRegular():
			relPaths = append(relPaths, rel)
			return nil
		default:
			return fmt.Errorf("%w: %s", diag.ErrIllegalFileType, rel)
		}
	})
	if err != nil {
		return Digest{}, err
	}

	records := make([]hashedFile, len(relPaths))
	for i, rel := range relPaths {
		records[i].relPath = rel
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		rec := &records[i]
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			d, herr := hashFile(root, rec.relPath)
			rec.digest = d
			rec.err = herr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Digest{}, err
	}

	sort.Slice(records, func(i, j int) bool {
		return pathnorm.Normalize(records[i].relPath) < pathnorm.Normalize(records[j].relPath)
	})

	var failed bool
	for _, rec := range records {
		if rec.err != nil {
			failed = true
			dcontext.GetLogger(ctx).WithError(rec.err).Errorf("hashing %s", rec.relPath)
		}
	}
	if failed {
		return Digest{}, diag.ErrPackageHashUnavailable
	}

	return foldDigests(records)
}

// foldDigests feeds each record's digest, in the order given, through a
// streaming hash to produce the final package digest. Callers must supply
// records already sorted by normalized path for the result to be stable.
func foldDigests(records []hashedFile) (Digest, error) {
	h := sha256.New()
	for _, rec := range records {
		if _, err := h.Write(rec.digest[:]); err != nil {
			return Digest{}, err
		}
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out, nil
}
