// Package native defines the capability surface of a distributed filesystem
// client: a namenode-coordinated cluster where files are split into replicated
// blocks served by data nodes.
//
// The surface mirrors the classic libhdfs C API (connect, open, pread, write,
// flush, close, disconnect, path info, list directory, get hosts, delete,
// mkdir). A Driver establishes sessions; a Session issues every other call.
// Implementations live in sub-packages:
//   - hdfs: a real cluster through github.com/colinmarc/hdfs/v2
//   - memory: an in-process emulation, for tests and development
//   - badger: a persistent single-node emulation on BadgerDB
//   - s3: files stored as objects in an S3-compatible bucket
//
// Sessions and File tokens are not safe for concurrent use unless an
// implementation documents otherwise.
package native

import (
	"context"
	"os"
)

// DefaultCoordinator selects the environment-configured coordinator.
const DefaultCoordinator = "default"

// Open flags. These are the os package flags, as understood by libhdfs:
// O_RDONLY opens for positional reads, O_WRONLY creates (truncating any
// existing file) and O_WRONLY|O_APPEND appends.
const (
	O_RDONLY = os.O_RDONLY
	O_WRONLY = os.O_WRONLY
	O_CREATE = os.O_CREATE
	O_APPEND = os.O_APPEND
)

// AccessMode extracts the access mode bits of flags.
func AccessMode(flags int) int {
	return flags & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR)
}

// IsWrite reports whether flags open a file for writing.
func IsWrite(flags int) bool {
	return AccessMode(flags) == O_WRONLY
}

// OpenOptions tunes a native open. Zero values select the cluster defaults.
type OpenOptions struct {
	BufferSize  int
	Replication int
	BlockSize   int64
}

// Driver establishes sessions to a coordinator.
type Driver interface {
	// Connect opens a session to coordinator. DefaultCoordinator (or "")
	// selects the coordinator configured for the driver or environment.
	Connect(ctx context.Context, coordinator string) (Session, error)
}

// File is an opaque open-file token issued by a Session. It is only
// meaningful to the session that issued it.
type File interface {
	// Path returns the path the token was opened for.
	Path() string
}

// Session is one live connection to a coordinator.
type Session interface {
	// Disconnect releases the session. Calls after the first return nil.
	Disconnect() error

	// Exists reports whether path names a file or directory.
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns metadata for path, or ErrNotFound.
	Stat(ctx context.Context, path string) (*PathInfo, error)

	// OpenFile opens path. Read-only opens require an existing file; write
	// opens create missing files and their parent directories.
	OpenFile(ctx context.Context, path string, flags int, opts OpenOptions) (File, error)

	// Pread reads up to len(buf) bytes at offset without touching any
	// stream position. It returns 0 at or past the end of the file.
	Pread(ctx context.Context, f File, offset int64, buf []byte) (int, error)

	// Write appends buf at the file's own append position.
	Write(ctx context.Context, f File, buf []byte) (int, error)

	// Flush makes written data visible to readers.
	Flush(ctx context.Context, f File) error

	// CloseFile releases f, committing any pending writes.
	CloseFile(ctx context.Context, f File) error

	// Delete removes path. Non-recursive deletes of non-empty directories
	// fail with ErrNotEmpty.
	Delete(ctx context.Context, path string, recursive bool) error

	// MakeDirectory creates path and any missing parents.
	MakeDirectory(ctx context.Context, path string) error

	// ListDirectory returns the direct children of path. PathInfo.Name
	// carries the full child path.
	ListDirectory(ctx context.Context, path string) ([]PathInfo, error)

	// GetHosts returns, for each block overlapping [start, start+length),
	// the hosts holding a replica of it, in block order.
	GetHosts(ctx context.Context, path string, start, length int64) ([][]string, error)
}
