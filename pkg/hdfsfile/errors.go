package hdfsfile

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/marmos91/hdfsfile/pkg/native"
)

// ============================================================================
// Standard Handle Errors
// ============================================================================

// These errors are returned by every Client and FileHandle operation, wrapped
// with the operation and path:
//
//	fh, err := client.Open(ctx, "/data/part-0000")
//	if errors.Is(err, hdfsfile.ErrNotFound) {
//	    // no such file
//	}
//
// When the failure comes from a driver, the driver error stays in the chain
// as well, so errors.Is(err, native.ErrNotEmpty) and similar checks work.

var (
	// ErrNotFound indicates the path does not exist.
	//
	// This error is returned when:
	//   - Open/OpenWithCoordinator/FromSplit on a missing path
	//   - DeleteDir or ListDirectory on a missing path
	//   - Stat on a missing path
	ErrNotFound = fmt.Errorf("no such file or directory: %w", fs.ErrNotExist)

	// ErrIO indicates a driver call failed (flush, delete, read, write, ...).
	ErrIO = errors.New("i/o error")

	// ErrConnectionFailed indicates the coordinator could not be reached.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrClosed indicates I/O on a handle that cannot serve it: writes or
	// flushes after Close, and reads after Delete or on an entry that was
	// never opened.
	ErrClosed = fmt.Errorf("file handle closed: %w", fs.ErrClosed)

	// ErrInvalidPath indicates a path the coordinator cannot represent:
	// empty, or containing a NUL byte.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidRange indicates a negative offset or an inverted byte range.
	ErrInvalidRange = errors.New("invalid byte range")

	// ErrIsDirectory indicates a file operation on a directory.
	ErrIsDirectory = errors.New("is a directory")
)

// validatePath rejects paths the native layer cannot carry. Every entry point
// calls it before connecting.
func validatePath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.IndexByte(p, 0) >= 0 {
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidPath, p)
	}
	return nil
}

// wrapNative maps a driver error onto the handle error kinds. Missing paths
// become ErrNotFound, directories ErrIsDirectory, everything else ErrIO.
func wrapNative(op, p string, err error) error {
	switch {
	case errors.Is(err, native.ErrNotFound):
		return fmt.Errorf("%s %s: %w: %w", op, p, ErrNotFound, err)
	case errors.Is(err, native.ErrIsDirectory):
		return fmt.Errorf("%s %s: %w: %w", op, p, ErrIsDirectory, err)
	default:
		return ioError(op, p, err)
	}
}

// ioError wraps err as ErrIO regardless of its kind.
func ioError(op, p string, err error) error {
	return fmt.Errorf("%s %s: %w: %w", op, p, ErrIO, err)
}
