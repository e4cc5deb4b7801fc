package native

import (
	"errors"
	"fmt"
	"io/fs"
)

// Driver errors. Implementations wrap these with context:
//
//	return fmt.Errorf("stat %s: %w", path, native.ErrNotFound)
//
// so callers can test them with errors.Is.
var (
	// ErrNotFound indicates the path does not exist.
	ErrNotFound = fmt.Errorf("path not found: %w", fs.ErrNotExist)

	// ErrExists indicates the path already exists with an incompatible kind,
	// for example opening a directory for writing.
	ErrExists = fmt.Errorf("path already exists: %w", fs.ErrExist)

	// ErrNotEmpty indicates a non-recursive delete of a non-empty directory.
	ErrNotEmpty = errors.New("directory not empty")

	// ErrIsDirectory indicates a file operation on a directory.
	ErrIsDirectory = errors.New("is a directory")

	// ErrBadHandle indicates a File token that is closed, foreign to the
	// session, or opened in the wrong mode for the call.
	ErrBadHandle = errors.New("bad file handle")

	// ErrDisconnected indicates a call on a session after Disconnect.
	ErrDisconnected = errors.New("session disconnected")

	// ErrUnsupported indicates the driver cannot serve the call.
	ErrUnsupported = errors.New("operation not supported by driver")

	// ErrUnreachable indicates the coordinator could not be reached.
	ErrUnreachable = errors.New("coordinator unreachable")
)
