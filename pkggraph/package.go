// Package pkggraph implements the package object, its local dependency
// table, the process-local global module registry that deduplicates
// fetched packages by content hash, and the BFS name resolver used for
// error messages (spec.md's C9, C10, C12).
package pkggraph

import "os"

// Package owns a package root directory and a local name-to-child-package
// table (spec.md §3). It does not own its children: the registry is the
// authoritative owner of every fetched package; a Package's table holds
// non-owning references.
type Package struct {
	// RootDir is the absolute path to the package's root source directory.
	RootDir string

	// Hash is the package's hex multihash digest, or "" for the root
	// package and for path dependencies that were never fetched.
	Hash string

	// owned records whether dir must be closed on Destroy. It is true for a
	// package created by NewFromPath, which opens its own handle; a package
	// created by NewWithDir holds no handle.
	owned bool
	dir   *os.File

	table map[string]*Package
	order []string
}

// Entry is a single (name, child) pair from a Package's local table, in
// the order Add was called.
type Entry struct {
	Name string
	Pkg  *Package
}

// NewFromPath creates a package rooted at dirPath (or the process's
// current working directory if dirPath is ""), taking ownership of the
// opened directory handle.
func NewFromPath(dirPath string) (*Package, error) {
	if dirPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dirPath = wd
	}

	f, err := os.Open(dirPath)
	if err != nil {
		return nil, err
	}

	return &Package{RootDir: dirPath, owned: true, dir: f, table: map[string]*Package{}}, nil
}

// NewWithDir creates a package rooted at dirPath without taking ownership
// of any directory handle — used for fetched packages whose lifetime is
// owned by the Registry instead.
func NewWithDir(dirPath, hash string) *Package {
	return &Package{RootDir: dirPath, Hash: hash, table: map[string]*Package{}}
}

// Add inserts child into the local table under name. The same package may
// appear under different names in different parents' tables; Add does not
// take ownership of child. Re-adding an existing name overwrites its
// target but keeps its original position in Entries' order.
func (p *Package) Add(name string, child *Package) {
	if p.table == nil {
		p.table = map[string]*Package{}
	}
	if _, exists := p.table[name]; !exists {
		p.order = append(p.order, name)
	}
	p.table[name] = child
}

// Lookup returns the child package registered under name, if any.
func (p *Package) Lookup(name string) (*Package, bool) {
	child, ok := p.table[name]
	return child, ok
}

// Table returns the local name-to-package table. Callers must not mutate
// the returned map. Iteration order is unspecified; use Entries for a
// deterministic, insertion-ordered view.
func (p *Package) Table() map[string]*Package {
	return p.table
}

// Entries returns the local table's (name, child) pairs in the order Add
// was first called for each name — manifest order, for a package built by
// the resolver.
func (p *Package) Entries() []Entry {
	entries := make([]Entry, 0, len(p.order))
	for _, name := range p.order {
		entries = append(entries, Entry{Name: name, Pkg: p.table[name]})
	}
	return entries
}

// Destroy releases resources held directly by p. It does not cascade to
// children — per spec.md §3, the caller (the global registry) destroys
// those, since a child package may be referenced by more than one parent.
func (p *Package) Destroy() error {
	if p.owned && p.dir != nil {
		return p.dir.Close()
	}
	return nil
}
