package codegen

import (
	"strings"
	"testing"

	"github.com/pkgcache/fetchcore/pkggraph"
)

func TestEmitRootWithNoDepsIsEmptyRootDeps(t *testing.T) {
	root := pkggraph.NewWithDir("/proj", "")
	var buf strings.Builder
	if err := Emit(&buf, root, "pkg.build"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "root_deps = [\n]") {
		t.Errorf("expected an empty root_deps block, got:\n%s", out)
	}
}

func TestEmitWritesOnePackagePerDistinctHash(t *testing.T) {
	root := pkggraph.NewWithDir("/proj", "")
	shared := pkggraph.NewWithDir("/cache/p/hash1", "hash1")
	a := pkggraph.NewWithDir("/cache/p/hashA", "hashA")

	root.Add("a", a)
	root.Add("shared-direct", shared)
	a.Add("shared-transitive", shared)

	var buf strings.Builder
	if err := Emit(&buf, root, "pkg.build"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if strings.Count(out, `package "hash1" {`) != 1 {
		t.Errorf("expected exactly one package block for the shared hash, got:\n%s", out)
	}
	if strings.Count(out, `package "hashA" {`) != 1 {
		t.Errorf("expected exactly one package block for hashA, got:\n%s", out)
	}
}

func TestEmitDepthFirstOrder(t *testing.T) {
	root := pkggraph.NewWithDir("/proj", "")
	a := pkggraph.NewWithDir("/cache/p/hashA", "hashA")
	b := pkggraph.NewWithDir("/cache/p/hashB", "hashB")
	root.Add("a", a)
	root.Add("b", b)

	var buf strings.Builder
	if err := Emit(&buf, root, "pkg.build"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	idxA := strings.Index(out, `package "hashA"`)
	idxB := strings.Index(out, `package "hashB"`)
	if idxA < 0 || idxB < 0 || idxA > idxB {
		t.Errorf("expected hashA's block before hashB's in manifest order, got:\n%s", out)
	}
}

func TestEmitIncludesBuildRootAndScript(t *testing.T) {
	root := pkggraph.NewWithDir("/proj", "")
	a := pkggraph.NewWithDir("/cache/p/hashA", "hashA")
	root.Add("a", a)

	var buf strings.Builder
	if err := Emit(&buf, root, "pkg.build"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, `build_root = "/cache/p/hashA"`) {
		t.Errorf("expected a build_root line, got:\n%s", out)
	}
	if !strings.Contains(out, `build_script = "/cache/p/hashA/pkg.build"`) {
		t.Errorf("expected a build_script line, got:\n%s", out)
	}
}

func TestEmitRootDepsListsAllDirectDependencies(t *testing.T) {
	root := pkggraph.NewWithDir("/proj", "")
	a := pkggraph.NewWithDir("/cache/p/hashA", "hashA")
	b := pkggraph.NewWithDir("/cache/p/hashB", "hashB")
	root.Add("a", a)
	root.Add("b", b)

	var buf strings.Builder
	if err := Emit(&buf, root, "pkg.build"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, `{ name = "a", hash = "hashA" }`) {
		t.Errorf("expected root_deps to list a, got:\n%s", out)
	}
	if !strings.Contains(out, `{ name = "b", hash = "hashB" }`) {
		t.Errorf("expected root_deps to list b, got:\n%s", out)
	}
}
