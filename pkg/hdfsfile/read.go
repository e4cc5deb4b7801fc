package hdfsfile

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/marmos91/hdfsfile/internal/logger"
	"github.com/marmos91/hdfsfile/pkg/native"
)

// Read implements io.Reader. See ReadContext.
func (f *FileHandle) Read(p []byte) (int, error) {
	return f.ReadContext(context.Background(), p)
}

// ReadContext reads up to len(p) bytes at the cursor with one positional read
// and advances the cursor by the bytes transferred.
//
// Reads never pass the cached size: at the end it returns 0, io.EOF. A closed
// handle that was opened before reopens itself read-only first.
func (f *FileHandle) ReadContext(ctx context.Context, p []byte) (int, error) {
	if err := f.readable(ctx); err != nil {
		return 0, err
	}

	remaining := f.size - f.cursor
	if remaining <= 0 {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := f.pread(ctx, f.cursor, p)
	f.cursor += int64(n)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, fmt.Errorf("read %s at %d: %w", f.path, f.cursor, io.ErrUnexpectedEOF)
	}
	return n, nil
}

// ReadAt implements io.ReaderAt within the cached size. It does not move the
// cursor.
func (f *FileHandle) ReadAt(p []byte, off int64) (int, error) {
	ctx := context.Background()
	if off < 0 {
		return 0, fmt.Errorf("read %s at %d: %w", f.path, off, ErrInvalidRange)
	}
	if err := f.readable(ctx); err != nil {
		return 0, err
	}
	if off >= f.size {
		return 0, io.EOF
	}

	want := p
	if remaining := f.size - off; int64(len(want)) > remaining {
		want = want[:remaining]
	}

	total := 0
	for total < len(want) {
		n, err := f.pread(ctx, off+int64(total), want[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrUnexpectedEOF
		}
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

// readable makes sure a read-only native file is open, reopening a closed
// resurrectable handle.
func (f *FileHandle) readable(ctx context.Context) error {
	if f.res.openFile() != nil {
		if f.writable {
			return ioError("read", f.path, native.ErrBadHandle)
		}
		return nil
	}
	if !f.resurrectable {
		return fmt.Errorf("read %s: %w", f.path, ErrClosed)
	}

	logger.Debug("hdfsfile: reopening %s for read", f.path)
	return f.open(ctx, native.O_RDONLY)
}

func (f *FileHandle) pread(ctx context.Context, off int64, p []byte) (int, error) {
	session, err := f.res.connection().live()
	if err != nil {
		return 0, err
	}

	start := time.Now()
	n, err := session.Pread(ctx, f.res.openFile(), off, p)
	f.client.metrics.ObserveOperation("read", time.Since(start), err)
	f.client.metrics.RecordBytes("read", int64(n))
	if err != nil {
		return n, ioError("read", f.path, err)
	}
	return n, nil
}
