// Package codegen streams the resolved dependency graph into a
// declarative text fragment the build runner imports to discover package
// roots (spec.md §4.13): a block per distinct content hash encountered,
// each naming its build root, its build-script path, and its own
// dependency edges, followed by the root package's dependency edges.
// Entries are written depth-first, in the order the resolver first
// encountered each hash, so the fragment is stable across runs.
package codegen

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/pkgcache/fetchcore/pkggraph"
)

// Emit writes the dependency-source fragment for root to w. buildMarkerFile
// names the file, relative to a package's root, that the build runner
// treats as that package's entry point — the same name resolve.Config's
// BuildMarkerFile supplies during resolution.
func Emit(w io.Writer, root *pkggraph.Package, buildMarkerFile string) error {
	e := &emitter{w: w, buildMarkerFile: buildMarkerFile, visited: map[string]bool{}}

	if err := e.writePackages(root); err != nil {
		return fmt.Errorf("emitting packages block: %w", err)
	}
	if err := e.writeRootDeps(root); err != nil {
		return fmt.Errorf("emitting root_deps block: %w", err)
	}
	return nil
}

type emitter struct {
	w               io.Writer
	buildMarkerFile string
	visited         map[string]bool
}

// writePackages walks pkg's children depth-first, emitting one block per
// distinct hash the first time it's encountered. Recursing into an
// already-visited child is skipped — a shared dependency's own subtree
// was already streamed the first time it appeared.
func (e *emitter) writePackages(pkg *pkggraph.Package) error {
	for _, entry := range pkg.Entries() {
		child := entry.Pkg
		if child.Hash == "" || e.visited[child.Hash] {
			continue
		}
		e.visited[child.Hash] = true

		if err := e.writePackageEntry(child); err != nil {
			return err
		}
		if err := e.writePackages(child); err != nil {
			return err
		}
	}
	return nil
}

func (e *emitter) writePackageEntry(pkg *pkggraph.Package) error {
	if _, err := fmt.Fprintf(e.w, "package %q {\n", pkg.Hash); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "    build_root = %q\n", pkg.RootDir); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "    build_script = %q\n", filepath.Join(pkg.RootDir, e.buildMarkerFile)); err != nil {
		return err
	}
	if err := writeEdges(e.w, "    deps", pkg.Entries()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(e.w, "}")
	return err
}

func (e *emitter) writeRootDeps(root *pkggraph.Package) error {
	return writeEdges(e.w, "root_deps", root.Entries())
}

// writeEdges renders a list of (name, hash) pairs under the given field
// name, quoting every string so it's safe regardless of what characters a
// local dependency name or filesystem path contains.
func writeEdges(w io.Writer, field string, entries []pkggraph.Entry) error {
	if _, err := fmt.Fprintf(w, "%s = [\n", field); err != nil {
		return err
	}
	for _, entry := range entries {
		if _, err := fmt.Fprintf(w, "    { name = %q, hash = %q },\n", entry.Name, entry.Pkg.Hash); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "]")
	return err
}
