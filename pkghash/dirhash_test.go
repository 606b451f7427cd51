package pkghash

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestHashDirectoryWorkerCountInvariant(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 50; i++ {
		files[filepath.Join("dir", "file"+string(rune('a'+i%26))+string(rune('0'+i/26))+".txt")] = "content"
	}
	writeTree(t, root, files)

	d1, err := HashDirectory(context.Background(), root, 1)
	if err != nil {
		t.Fatal(err)
	}
	d8, err := HashDirectory(context.Background(), root, 8)
	if err != nil {
		t.Fatal(err)
	}
	if d1 != d8 {
		t.Errorf("digest depends on worker count: workers=1 -> %x, workers=8 -> %x", d1, d8)
	}
}

func TestHashDirectoryContentChangeChangesDigest(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hello"})
	before, err := HashDirectory(context.Background(), root, 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("hellp"), 0o644); err != nil {
		t.Fatal(err)
	}
	after, err := HashDirectory(context.Background(), root, 1)
	if err != nil {
		t.Fatal(err)
	}

	if before == after {
		t.Error("single-byte content change did not change the directory digest")
	}
}

func TestHashDirectoryRenameChangesDigest(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "same content"})
	before, err := HashDirectory(context.Background(), root, 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Rename(filepath.Join(root, "a.txt"), filepath.Join(root, "b.txt")); err != nil {
		t.Fatal(err)
	}
	after, err := HashDirectory(context.Background(), root, 1)
	if err != nil {
		t.Fatal(err)
	}

	if before == after {
		t.Error("rename with identical contents did not change the directory digest")
	}
}

func TestHashDirectoryRejectsIllegalFileType(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "x"})
	if err := os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	_, err := HashDirectory(context.Background(), root, 1)
	if err == nil {
		t.Fatal("expected an error for a symlink entry")
	}
}

func TestMultihashRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"lib.txt": "a\n"})

	d, err := HashDirectory(context.Background(), root, 1)
	if err != nil {
		t.Fatal(err)
	}

	mh, err := d.Multihash()
	if err != nil {
		t.Fatal(err)
	}
	if len(mh) != 68 {
		t.Errorf("multihash hex length = %d, want 68", len(mh))
	}

	back, err := ParseMultihash(mh)
	if err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Errorf("round trip mismatch: %x != %x", back, d)
	}
}
