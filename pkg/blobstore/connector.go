// Package blobstore provides the low-level blob I/O primitives the data
// file manager and type dictionary build on: exists, size, read-range,
// append, truncate, delete, move, list-children, create-dir, create-file.
// Paths are logical, '/'-separated, with the first element naming the
// container (a root directory for LocalFS, a blob container for AzureBlob).
//
// Two variants ship: LocalFS (the default) and AzureBlob (a remote
// object-store connector), matching the {local-filesystem,
// remote-object-store} pair named in SPEC_FULL.md §4.1.
package blobstore

import "context"

// ErrorKind is the blob-connector-specific error taxonomy named in
// SPEC_FULL.md §4.1 — distinct from, and narrower than, the engine-wide
// taxonomy in pkg/types, because a blob connector has no concept of
// storage-consistency or type-handler errors.
type ErrorKind string

const (
	ErrNotFound     ErrorKind = "not-found"
	ErrAccessDenied ErrorKind = "access-denied"
	ErrIO           ErrorKind = "io"
	ErrIntegrity    ErrorKind = "integrity"
)

// Error wraps a blob operation failure with its kind and the path involved.
type Error struct {
	Kind  ErrorKind
	Op    string
	Path  string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Op + " " + e.Path + ": " + string(e.Kind) + ": " + e.Cause.Error()
	}
	return e.Op + " " + e.Path + ": " + string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	be, ok := err.(*Error)
	return ok && be.Kind == kind
}

// ChildInfo describes one entry returned by ListChildren.
type ChildInfo struct {
	Path  string
	IsDir bool
	Size  int64
}

// Connector is the capability set every blob backend must implement. All
// operations are blocking and must be safe to call concurrently for
// independent paths — callers serialize writes to the same path themselves
// (the data file manager does this per channel).
type Connector interface {
	// FileExists reports whether path names a regular file.
	FileExists(ctx context.Context, path string) (bool, error)

	// DirExists reports whether path names a directory.
	DirExists(ctx context.Context, path string) (bool, error)

	// FileSize returns the current size in bytes of the file at path.
	FileSize(ctx context.Context, path string) (int64, error)

	// ReadRange reads length bytes starting at offset.
	ReadRange(ctx context.Context, path string, offset, length int64) ([]byte, error)

	// Append appends data to the file at path, creating it if absent, and
	// returns the byte offset at which the data was written.
	Append(ctx context.Context, path string, data []byte) (int64, error)

	// Truncate shrinks the file at path to exactly size bytes.
	Truncate(ctx context.Context, path string, size int64) error

	// Delete removes the file at path.
	Delete(ctx context.Context, path string) error

	// Move renames/relocates a file from src to dst.
	Move(ctx context.Context, src, dst string) error

	// ListChildren lists the immediate children of the directory at path.
	ListChildren(ctx context.Context, path string) ([]ChildInfo, error)

	// CreateDir creates the directory at path, including parents.
	CreateDir(ctx context.Context, path string) error

	// CreateFile creates an empty file at path. It fails if the file
	// already exists.
	CreateFile(ctx context.Context, path string) error
}
