package cachestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkgcache/fetchcore/internal/dcontext"
)

// PromotePackage atomically promotes tempDir (as produced by NewTempDir) to
// its final location under p/<hexMultihash>, per the retry policy in
// spec.md §4.4:
//
//   - if the rename fails because p/ doesn't exist yet, create it once and
//     retry;
//   - if another process already won the race (the destination now
//     exists), delete tempDir and treat it as success;
//   - any other error is surfaced.
//
// Precondition: hexMultihash must name a single path component (no
// separators) — the destination is always a direct child of the cache's
// p/ directory, mirroring the teacher's dest_dir_sub_path[1] == sep
// precondition on its rename helper.
func (s *Store) PromotePackage(ctx context.Context, tempDir, hexMultihash string) (string, error) {
	if filepath.Base(hexMultihash) != hexMultihash {
		panic("cachestore: PromotePackage hexMultihash must be a single path component")
	}
	return s.promote(ctx, tempDir, s.PackagePath(hexMultihash))
}

// PromoteObject is PromotePackage's counterpart for o/<hex> synthetic
// packages created by create_file_pkg (spec.md §4.9).
func (s *Store) PromoteObject(ctx context.Context, tempDir, hexDigest string) (string, error) {
	if filepath.Base(hexDigest) != hexDigest {
		panic("cachestore: PromoteObject hexDigest must be a single path component")
	}
	return s.promote(ctx, tempDir, s.ObjectPath(hexDigest))
}

func (s *Store) promote(ctx context.Context, src, dest string) (string, error) {
	err := os.Rename(src, dest)
	if err == nil {
		return dest, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if mkErr := os.MkdirAll(filepath.Dir(dest), 0o755); mkErr != nil {
			return "", fmt.Errorf("creating cache parent dir: %w", mkErr)
		}
		err = os.Rename(src, dest)
		if err == nil {
			return dest, nil
		}
	}

	if os.IsExist(err) || errors.Is(err, os.ErrExist) || isAccessDenied(err) {
		dcontext.GetLogger(ctx).Debugf("cache entry %s already exists, discarding losing temp dir", dest)
		if rmErr := os.RemoveAll(src); rmErr != nil {
			return "", fmt.Errorf("cleaning up temp dir after lost race: %w", rmErr)
		}
		return dest, nil
	}

	if _, statErr := os.Stat(dest); statErr == nil {
		dcontext.GetLogger(ctx).Debugf("cache entry %s already exists, discarding losing temp dir", dest)
		if rmErr := os.RemoveAll(src); rmErr != nil {
			return "", fmt.Errorf("cleaning up temp dir after lost race: %w", rmErr)
		}
		return dest, nil
	}

	return "", fmt.Errorf("promoting %s to %s: %w", src, dest, err)
}

func isAccessDenied(err error) bool {
	return errors.Is(err, os.ErrPermission)
}
