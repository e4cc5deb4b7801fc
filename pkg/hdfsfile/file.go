package hdfsfile

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/marmos91/hdfsfile/internal/logger"
	"github.com/marmos91/hdfsfile/pkg/native"
)

// State is the lifecycle state of a FileHandle.
type State int

const (
	// StateClosed holds no connection and no native file.
	StateClosed State = iota

	// StateConnected holds a connection but no native file (after Delete).
	StateConnected

	// StateOpen holds a connection and an open native file.
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnected:
		return "connected"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// resources is the part of a handle that must be released exactly once.
//
// It lives apart from FileHandle so the cleanup registered on the handle does
// not keep the handle reachable.
type resources struct {
	mu   sync.Mutex
	path string
	conn *Connection
	file native.File
}

func (r *resources) connection() *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn
}

func (r *resources) openFile() native.File {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file
}

func (r *resources) setConnection(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn = conn
}

func (r *resources) setFile(file native.File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.file = file
}

// closeFile closes the native file, if any, and keeps the connection.
func (r *resources) closeFile(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeFileLocked(ctx)
}

func (r *resources) closeFileLocked(ctx context.Context) error {
	if r.file == nil {
		return nil
	}

	file := r.file
	r.file = nil

	session, err := r.conn.live()
	if err != nil {
		return fmt.Errorf("close %s: %w", r.path, err)
	}
	if err := session.CloseFile(ctx, file); err != nil {
		return fmt.Errorf("close %s: %w", r.path, err)
	}
	return nil
}

// release closes the native file, then disconnects. It is safe to call any
// number of times, from Close or from the cleanup.
func (r *resources) release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.closeFileLocked(context.Background()); err != nil {
		logger.Warn("hdfsfile: %v", err)
	}

	if r.conn != nil {
		r.conn.disconnectLogged()
		r.conn = nil
	}
}

// FileHandle is an open (or reopenable) file on a coordinator.
//
// A FileHandle is single-owner and not safe for concurrent use. Resources are
// released by Close, or automatically once the handle becomes unreachable.
type FileHandle struct {
	client      *Client
	coordinator string
	path        string

	cursor    int64
	size      int64
	blockSize int64
	kind      native.Kind

	writable      bool
	split         bool
	resurrectable bool

	res *resources
}

func newHandle(client *Client, coordinator, path string) *FileHandle {
	fh := &FileHandle{
		client:      client,
		coordinator: client.coordinatorOr(coordinator),
		path:        path,
		kind:        native.KindFile,
		res:         &resources{path: path},
	}
	runtime.AddCleanup(fh, func(r *resources) { r.release() }, fh.res)
	return fh
}

// newEntry builds an inert DirectoryEntry from listing metadata.
func newEntry(client *Client, coordinator string, info native.PathInfo) *FileHandle {
	fh := newHandle(client, coordinator, info.Name)
	fh.size = info.Size
	fh.blockSize = info.BlockSize
	fh.kind = info.Kind
	return fh
}

// Path returns the path the handle refers to.
func (f *FileHandle) Path() string { return f.path }

// Coordinator returns the coordinator the handle connects to.
func (f *FileHandle) Coordinator() string { return f.coordinator }

// Size returns the cached size: set at open, or the end offset of a split.
func (f *FileHandle) Size() int64 { return f.size }

// BlockSize returns the cached remote block size.
func (f *FileHandle) BlockSize() int64 { return f.blockSize }

// Kind returns whether the handle refers to a file or a directory.
func (f *FileHandle) Kind() native.Kind { return f.kind }

// IsDir reports whether the handle refers to a directory.
func (f *FileHandle) IsDir() bool { return f.kind == native.KindDirectory }

// Offset returns the read cursor.
func (f *FileHandle) Offset() int64 { return f.cursor }

// Resurrectable reports whether a closed handle reopens on Read.
func (f *FileHandle) Resurrectable() bool { return f.resurrectable }

// State returns the lifecycle state.
func (f *FileHandle) State() State {
	f.res.mu.Lock()
	defer f.res.mu.Unlock()

	switch {
	case f.res.file != nil:
		return StateOpen
	case f.res.conn != nil:
		return StateConnected
	default:
		return StateClosed
	}
}

// open connects (unless already connected) and opens the native file with
// flags. Any failure leaves the handle closed.
func (f *FileHandle) open(ctx context.Context, flags int) error {
	// ===== Step 1: Connect =====
	conn := f.res.connection()
	if conn == nil {
		var err error
		conn, err = f.client.Connect(ctx, f.coordinator)
		if err != nil {
			return err
		}
		f.res.setConnection(conn)
	}

	fail := func(err error) error {
		f.res.release()
		return err
	}

	// ===== Step 2: Resolve metadata =====
	exists, err := conn.Exists(ctx, f.path)
	if err != nil {
		return fail(err)
	}
	if !exists && flags&native.O_CREATE == 0 {
		return fail(fmt.Errorf("open %s: %w", f.path, ErrNotFound))
	}

	if exists {
		info, err := conn.Stat(ctx, f.path)
		if err != nil {
			return fail(err)
		}
		if info.IsDir() {
			return fail(fmt.Errorf("open %s: %w", f.path, ErrIsDirectory))
		}
		f.blockSize = info.BlockSize
		if !f.split {
			f.size = info.Size
		}
	} else {
		f.blockSize = f.client.opts.BlockSize
	}

	// ===== Step 3: Native open =====
	session, err := conn.live()
	if err != nil {
		return fail(err)
	}

	start := time.Now()
	file, err := session.OpenFile(ctx, f.path, flags, f.client.openOptions())
	f.client.metrics.ObserveOperation("open", time.Since(start), err)
	if err != nil {
		return fail(wrapNative("open", f.path, err))
	}

	f.res.setFile(file)
	f.kind = native.KindFile
	f.writable = native.IsWrite(flags)
	f.resurrectable = true

	if f.writable && flags&native.O_APPEND == 0 {
		f.size = 0
	}
	if f.cursor > f.size {
		f.cursor = f.size
	}

	logger.Debug("hdfsfile: opened %s on %s (flags=%#x size=%d)", f.path, f.coordinator, flags, f.size)
	return nil
}

// Reopen opens the handle read-only, reconnecting if needed. It turns a
// DirectoryEntry into a readable handle and refreshes the cached size, except
// for split handles whose size is the split end.
func (f *FileHandle) Reopen(ctx context.Context) error {
	if err := f.res.closeFile(ctx); err != nil {
		logger.Warn("hdfsfile: %v", err)
	}
	if f.IsDir() {
		return fmt.Errorf("reopen %s: %w", f.path, ErrIsDirectory)
	}
	return f.open(ctx, native.O_RDONLY)
}

// Close releases the native file and the connection. Failures are logged,
// never returned; Close always returns nil and may be called repeatedly.
func (f *FileHandle) Close() error {
	f.res.release()
	return nil
}

// Delete removes the file (non-recursively), closing the native file first
// and connecting if needed. The connection is kept and the handle can no
// longer be reopened.
func (f *FileHandle) Delete(ctx context.Context) error {
	conn := f.res.connection()
	if conn == nil {
		var err error
		conn, err = f.client.Connect(ctx, f.coordinator)
		if err != nil {
			return err
		}
		f.res.setConnection(conn)
	}

	if err := f.res.closeFile(ctx); err != nil {
		logger.Warn("hdfsfile: %v", err)
	}
	f.resurrectable = false

	session, err := conn.live()
	if err != nil {
		return err
	}

	start := time.Now()
	err = session.Delete(ctx, f.path, false)
	f.client.metrics.ObserveOperation("delete", time.Since(start), err)
	if err != nil {
		return ioError("delete", f.path, err)
	}

	logger.Debug("hdfsfile: deleted %s on %s", f.path, f.coordinator)
	return nil
}

// GetHosts returns the hosts storing [start, end) of the file, block by block.
func (f *FileHandle) GetHosts(ctx context.Context, start, end int64) ([]string, error) {
	return f.client.HostsForRange(ctx, f.coordinator, f.path, start, end)
}
