package pkghash

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkgcache/fetchcore/pathnorm"
)

// copyBufferSize matches the teacher's streamed-read buffer size used
// throughout registry/storage/driver for file content copies.
const copyBufferSize = 8 * 1024

// hashFile computes the per-file digest described in spec.md §4.2: the
// normalized relative path, a zero byte, the executable-bit byte, then the
// file's content streamed through an 8 KiB buffer.
func hashFile(baseDir, relPath string) (Digest, error) {
	f, err := os.Open(filepath.Join(baseDir, relPath))
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return Digest{}, err
	}

	h := sha256.New()
	h.Write([]byte(pathnorm.Normalize(relPath)))
	h.Write([]byte{0})
	h.Write([]byte{executableByte(fi.Mode())})

	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return Digest{}, fmt.Errorf("reading %s: %w", relPath, err)
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// executableByte reports the POSIX user-execute bit as 1, or 0 on platforms
// where the bit can't be meaningfully determined. This is flagged as an
// open question in spec.md §9: Windows packages of a POSIX tree will hash
// differently than the POSIX original, a real limitation we preserve
// rather than paper over.
func executableByte(mode os.FileMode) byte {
	if runtime.GOOS == "windows" {
		return 0
	}
	if mode.Perm()&0o100 != 0 {
		return 1
	}
	return 0
}
