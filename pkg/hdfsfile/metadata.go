package hdfsfile

import (
	"context"
	"time"

	"github.com/marmos91/hdfsfile/pkg/native"
)

// Exists reports whether path names a file or directory on the
// connection's coordinator.
func (c *Connection) Exists(ctx context.Context, path string) (bool, error) {
	if err := validatePath(path); err != nil {
		return false, err
	}

	session, err := c.live()
	if err != nil {
		return false, err
	}

	start := time.Now()
	ok, err := session.Exists(ctx, path)
	c.metrics.ObserveOperation("exists", time.Since(start), err)
	if err != nil {
		return false, ioError("exists", path, err)
	}
	return ok, nil
}

// Stat returns the metadata of path. A missing path fails with ErrNotFound.
func (c *Connection) Stat(ctx context.Context, path string) (*native.PathInfo, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	session, err := c.live()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	info, err := session.Stat(ctx, path)
	c.metrics.ObserveOperation("stat", time.Since(start), err)
	if err != nil {
		return nil, wrapNative("stat", path, err)
	}
	return info, nil
}
