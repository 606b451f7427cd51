package pkggraph

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaolacci/murmur3"

	"github.com/pkgcache/fetchcore/cachestore"
	"github.com/pkgcache/fetchcore/version"
)

// CreateFilePkg implements spec.md §4.9's create_file_pkg: it writes
// contents into a fresh temp directory under basename, hashes
// version||contents with a non-cryptographic hasher (unlike the
// cryptographic multihash content-addressing the fetched-package path
// uses — this is an internal cache key, never compared against a
// manifest's declared hash, so there is no integrity property to
// preserve), and promotes the result into the cache's o/<hex> object
// directory. It is how fetchcore itself would cache something like its
// own generated dependency-source fragment (codegen.Emit's output)
// alongside the fetched packages, keyed so a second resolve of an
// unchanged graph on an unchanged binary reuses the same object.
func CreateFilePkg(ctx context.Context, store *cachestore.Store, basename string, contents []byte) (*Package, error) {
	hexDigest := fileHash(contents)

	if store.HasObject(hexDigest) {
		return NewWithDir(store.ObjectPath(hexDigest), hexDigest), nil
	}

	tempDir, err := store.NewTempDir()
	if err != nil {
		return nil, fmt.Errorf("create_file_pkg: allocating temp dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(tempDir, basename), contents, 0o644); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("create_file_pkg: writing %s: %w", basename, err)
	}

	finalDir, err := store.PromoteObject(ctx, tempDir, hexDigest)
	if err != nil {
		return nil, fmt.Errorf("create_file_pkg: promoting object: %w", err)
	}

	return NewWithDir(finalDir, hexDigest), nil
}

// fileHash hashes version.Version()||contents with murmur3/128, the
// non-cryptographic hasher spec.md §4.9 calls for: create_file_pkg's
// output is an internal cache key, not a value ever compared against a
// manifest-declared hash, so there's no reason to pay for a
// cryptographic digest here the way the fetched-package path (pkghash)
// must.
func fileHash(contents []byte) string {
	h := murmur3.New128()
	h.Write([]byte(version.Version()))
	h.Write(contents)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}
