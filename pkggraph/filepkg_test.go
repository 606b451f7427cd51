package pkggraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkgcache/fetchcore/cachestore"
)

func TestCreateFilePkgWritesAndPromotes(t *testing.T) {
	store, err := cachestore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	pkg, err := CreateFilePkg(context.Background(), store, "deps.txt", []byte("hello"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(pkg.RootDir, "deps.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("contents = %q, want %q", got, "hello")
	}
	if pkg.Hash == "" {
		t.Error("expected a non-empty hash")
	}
}

func TestCreateFilePkgIsIdempotentForSameContents(t *testing.T) {
	store, err := cachestore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first, err := CreateFilePkg(context.Background(), store, "deps.txt", []byte("same"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := CreateFilePkg(context.Background(), store, "deps.txt", []byte("same"))
	if err != nil {
		t.Fatal(err)
	}

	if first.Hash != second.Hash || first.RootDir != second.RootDir {
		t.Errorf("expected identical contents to map to the same object, got %+v and %+v", first, second)
	}
}

func TestCreateFilePkgDiffersByContent(t *testing.T) {
	store, err := cachestore.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	a, err := CreateFilePkg(context.Background(), store, "deps.txt", []byte("a"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := CreateFilePkg(context.Background(), store, "deps.txt", []byte("b"))
	if err != nil {
		t.Fatal(err)
	}

	if a.Hash == b.Hash {
		t.Error("expected different contents to produce different hashes")
	}
}
