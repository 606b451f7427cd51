package fetch

import (
	"errors"
	"fmt"
	"strings"
)

// ArchiveFormat is the decision ClassifyArchive makes about how to unpack a
// Resource (spec.md §4.7).
type ArchiveFormat int

const (
	FormatUnknown ArchiveFormat = iota
	FormatTarGz
	FormatTarXz
)

// ErrIsDir is returned when the resource is an already-unpacked directory;
// the caller should skip straight to hashing (spec.md §4.7).
var ErrIsDir = errors.New("resource is a directory, no unpacking needed")

// ClassifyArchive decides the archive format for r: by file suffix for a
// local file, by Content-Type (with a Content-Disposition fallback for
// application/octet-stream) for an HTTP response, or ErrIsDir for an
// already-unpacked directory.
func ClassifyArchive(r *Resource) (ArchiveFormat, error) {
	switch r.Kind {
	case ResourceDir:
		return FormatUnknown, ErrIsDir

	case ResourceFile:
		switch {
		case strings.HasSuffix(r.Path, ".tar.gz"):
			return FormatTarGz, nil
		case strings.HasSuffix(r.Path, ".tar.xz"):
			return FormatTarXz, nil
		default:
			return FormatUnknown, fmt.Errorf("unknown file type: %s", r.Path)
		}

	case ResourceHTTP:
		return classifyContentType(r.ContentType, r.ContentDisposition)

	default:
		return FormatUnknown, fmt.Errorf("unsupported resource kind %d", r.Kind)
	}
}

func classifyContentType(contentType, contentDisposition string) (ArchiveFormat, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))

	switch mediaType {
	case "application/gzip", "application/x-gzip", "application/tar+gzip":
		return FormatTarGz, nil
	case "application/x-xz":
		return FormatTarXz, nil
	case "application/octet-stream":
		if isTarGzAttachment(contentDisposition) {
			return FormatTarGz, nil
		}
		return FormatUnknown, fmt.Errorf("octet-stream response lacks a .tar.gz attachment filename")
	case "":
		return FormatUnknown, fmt.Errorf("missing Content-Type")
	default:
		return FormatUnknown, fmt.Errorf("unknown Content-Type: %s", contentType)
	}
}

// isTarGzAttachment implements the Content-Disposition parser in spec.md
// §6: case-insensitive match of the "attachment;" prefix, then a
// "filename" or "filename*" parameter whose value (trimmed of an optional
// trailing quote) ends in ".tar.gz".
func isTarGzAttachment(contentDisposition string) bool {
	cd := strings.TrimSpace(contentDisposition)
	lower := strings.ToLower(cd)
	if !strings.HasPrefix(lower, "attachment;") {
		return false
	}

	rest := cd[len("attachment;"):]
	restLower := strings.ToLower(rest)

	idx := strings.Index(restLower, "filename")
	if idx < 0 {
		return false
	}
	rest = rest[idx:]
	restLower = restLower[idx:]

	// Skip an optional trailing "*" (RFC 5987 extended parameter).
	paramLen := len("filename")
	if strings.HasPrefix(restLower[paramLen:], "*") {
		paramLen++
	}
	rest = rest[paramLen:]
	rest = strings.TrimSpace(rest)

	if !strings.HasPrefix(rest, "=") {
		return false
	}
	value := strings.TrimSpace(rest[1:])

	if end := strings.IndexByte(value, ';'); end >= 0 {
		value = value[:end]
	}
	value = strings.TrimSpace(value)
	value = strings.Trim(value, `"`)

	return strings.HasSuffix(value, ".tar.gz")
}
