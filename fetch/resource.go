package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ResourceKind discriminates the three shapes a ReadableResource can take
// (spec.md §4.6).
type ResourceKind int

const (
	ResourceFile ResourceKind = iota
	ResourceDir
	ResourceHTTP
)

// Resource is a ReadableResource: an open stream (or directory handle) for
// a resolved dependency source, plus the metadata the content-type
// classifier (C8) needs.
type Resource struct {
	Kind ResourceKind
	Path string // for ResourceFile/ResourceDir

	Body io.ReadCloser // for ResourceFile/ResourceHTTP

	ContentType        string
	ContentDisposition string
	ContentLength      int64 // -1 if unknown
}

// Close releases any open handle held by the resource.
func (r *Resource) Close() error {
	if r.Body != nil {
		return r.Body.Close()
	}
	return nil
}

// Open produces a ReadableResource for loc. For local sources it opens the
// file or, for an already-unpacked tree, the directory; for http(s)
// sources it performs the GET and requires a 200 OK response.
func Open(ctx context.Context, loc Location, client *http.Client) (*Resource, error) {
	switch loc.Kind {
	case KindFile:
		return openFile(loc.Path)
	case KindHTTPRequest:
		return openHTTP(ctx, loc.URL, client)
	default:
		return nil, fmt.Errorf("unsupported location kind %d", loc.Kind)
	}
}

// openFile implements the directory-detection rule in spec.md §4.6: a path
// ending in the separator is a directory; a path with a non-empty
// extension is a file; otherwise try opening as a directory and fall back
// to a file on ENOTDIR.
func openFile(path string) (*Resource, error) {
	looksLikeDir := strings.HasSuffix(path, string(filepath.Separator))
	hasExt := filepath.Ext(path) != ""

	if !looksLikeDir && !hasExt {
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			looksLikeDir = true
		}
	}

	if looksLikeDir {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if fi.IsDir() {
			return &Resource{Kind: ResourceDir, Path: path}, nil
		}
		// Fell through: a trailing-separator path that's actually a
		// file is a caller error; treat it as a file anyway.
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.IsDir() {
		f.Close()
		return &Resource{Kind: ResourceDir, Path: path}, nil
	}

	return &Resource{Kind: ResourceFile, Path: path, Body: f, ContentLength: fi.Size()}, nil
}

func openHTTP(ctx context.Context, rawURL string, client *http.Client) (*Resource, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %d %s: %s", ErrUnexpectedStatus, rawURL, resp.StatusCode, resp.Status, string(body))
	}

	return &Resource{
		Kind:               ResourceHTTP,
		Body:               resp.Body,
		ContentType:        resp.Header.Get("Content-Type"),
		ContentDisposition: resp.Header.Get("Content-Disposition"),
		ContentLength:      resp.ContentLength,
	}, nil
}

// ErrUnexpectedStatus is wrapped into the error returned when an http(s)
// fetch returns anything other than 200 OK.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")
