// Package diag implements the structured diagnostic sink the core pushes
// user-attributable failures into, and the sentinel errors components use
// to signal that diagnostics have already been recorded.
package diag

import (
	"errors"
	"fmt"
)

// Sentinel errors returned at the core boundary (spec.md §7).
var (
	// ErrPackageFetchFailed is returned once diagnostics describing the
	// failure have already been pushed into a Bundle.
	ErrPackageFetchFailed = errors.New("package fetch failed")

	// ErrPackageHashUnavailable is returned when one or more per-file
	// hashes in a directory could not be computed.
	ErrPackageHashUnavailable = errors.New("package hash unavailable")

	// ErrIllegalFileType is returned when a directory being hashed
	// contains an entry that is neither a regular file nor a directory.
	ErrIllegalFileType = errors.New("illegal file type in package")
)

// Note is a remediation hint attached to a Diagnostic, e.g. suggesting the
// exact `.hash = "..."` line to add to a manifest.
type Note struct {
	Message string
}

// Diagnostic is a single user-facing error anchored at a location in a
// manifest file.
type Diagnostic struct {
	ManifestPath string
	Line         int
	Column       int
	SourceLine   string
	Message      string
	Notes        []Note
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", d.ManifestPath, d.Line, d.Column, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.ManifestPath, d.Message)
}

// Bundle collects diagnostics produced while resolving a dependency graph.
// It is not safe for concurrent use; the resolver that owns it is
// single-threaded (spec.md §5).
type Bundle struct {
	diagnostics []Diagnostic
}

// Push records a diagnostic.
func (b *Bundle) Push(d Diagnostic) {
	b.diagnostics = append(b.diagnostics, d)
}

// Pushf records a diagnostic built from a manifest location and a formatted
// message, with no notes.
func (b *Bundle) Pushf(manifestPath string, line, column int, sourceLine, format string, args ...any) {
	b.Push(Diagnostic{
		ManifestPath: manifestPath,
		Line:         line,
		Column:       column,
		SourceLine:   sourceLine,
		Message:      fmt.Sprintf(format, args...),
	})
}

// Empty reports whether no diagnostics have been recorded.
func (b *Bundle) Empty() bool {
	return len(b.diagnostics) == 0
}

// All returns the recorded diagnostics in push order.
func (b *Bundle) All() []Diagnostic {
	return b.diagnostics
}

// Error renders every diagnostic, one per line, satisfying the error
// interface so a Bundle can be returned alongside ErrPackageFetchFailed.
func (b *Bundle) Error() string {
	var msg string
	for i, d := range b.diagnostics {
		if i > 0 {
			msg += "\n"
		}
		msg += d.String()
		for _, n := range d.Notes {
			msg += "\nnote: " + n.Message
		}
	}
	return msg
}
