// Package cachestore implements the global content-addressed cache layout
// and the atomic temp-then-rename insertion protocol described in
// spec.md §4.4 and §6.
package cachestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkgcache/fetchcore/internal/uuid"
)

const (
	tmpDirName = "tmp"
	pkgDirName = "p"
	objDirName = "o"
)

// Store owns a single global cache directory, laid out as:
//
//	tmp/<random>   in-flight unpacks
//	p/<hex>        finalized content-addressed package trees
//	o/<hex>        synthetic packages created by create_file_pkg
type Store struct {
	root string
}

// Open returns a Store rooted at dir, creating dir and its tmp/p/o
// subdirectories if they don't already exist.
func Open(dir string) (*Store, error) {
	for _, sub := range []string{tmpDirName, pkgDirName, objDirName} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating cache layout: %w", err)
		}
	}
	return &Store{root: dir}, nil
}

// Root returns the cache's root directory.
func (s *Store) Root() string {
	return s.root
}

// NewTempDir creates a fresh tmp/<random> directory and returns its path.
// Callers unpack or write into it, then hand it to PromotePackage or
// PromoteObject.
func (s *Store) NewTempDir() (string, error) {
	path := filepath.Join(s.root, tmpDirName, uuid.NewString())
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	return path, nil
}

// PackagePath returns the final on-disk path for a package keyed by its
// hex multihash digest, without creating it.
func (s *Store) PackagePath(hexMultihash string) string {
	return filepath.Join(s.root, pkgDirName, hexMultihash)
}

// ObjectPath returns the final on-disk path for a synthetic object keyed by
// its hex digest, without creating it.
func (s *Store) ObjectPath(hexDigest string) string {
	return filepath.Join(s.root, objDirName, hexDigest)
}

// HasPackage reports whether a package directory already exists at the
// given hex multihash digest.
func (s *Store) HasPackage(hexMultihash string) bool {
	_, err := os.Stat(s.PackagePath(hexMultihash))
	return err == nil
}

// HasObject reports whether a synthetic o/<hex> object directory already
// exists at the given hex digest.
func (s *Store) HasObject(hexDigest string) bool {
	_, err := os.Stat(s.ObjectPath(hexDigest))
	return err == nil
}
