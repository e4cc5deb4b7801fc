package hdfsfile

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/marmos91/hdfsfile/pkg/native"
)

// Write implements io.Writer. See WriteContext.
func (f *FileHandle) Write(p []byte) (int, error) {
	return f.WriteContext(context.Background(), p)
}

// WriteContext issues one native write at the file's append position and
// returns the count the driver reports. It does not retry: a short count is
// returned with io.ErrShortWrite. The read cursor is not moved.
func (f *FileHandle) WriteContext(ctx context.Context, p []byte) (int, error) {
	file, session, err := f.writeTarget()
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", f.path, err)
	}

	start := time.Now()
	n, err := session.Write(ctx, file, p)
	f.client.metrics.ObserveOperation("write", time.Since(start), err)
	f.client.metrics.RecordBytes("write", int64(n))
	if err != nil {
		return n, ioError("write", f.path, err)
	}
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Flush makes written data visible to readers. A flush of a read handle is a
// no-op for the drivers.
func (f *FileHandle) Flush() error {
	return f.FlushContext(context.Background())
}

// FlushContext is Flush with a context.
func (f *FileHandle) FlushContext(ctx context.Context) error {
	file := f.res.openFile()
	if file == nil {
		return fmt.Errorf("flush %s: %w", f.path, ErrClosed)
	}
	session, err := f.res.connection().live()
	if err != nil {
		return err
	}

	start := time.Now()
	err = session.Flush(ctx, file)
	f.client.metrics.ObserveOperation("flush", time.Since(start), err)
	if err != nil {
		return ioError("flush", f.path, err)
	}
	return nil
}

func (f *FileHandle) writeTarget() (native.File, native.Session, error) {
	file := f.res.openFile()
	if file == nil {
		return nil, nil, ErrClosed
	}
	if !f.writable {
		return nil, nil, fmt.Errorf("%w: %w", ErrIO, native.ErrBadHandle)
	}
	session, err := f.res.connection().live()
	if err != nil {
		return nil, nil, err
	}
	return file, session, nil
}
