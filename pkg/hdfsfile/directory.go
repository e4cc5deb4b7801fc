package hdfsfile

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/hdfsfile/internal/logger"
)

// ListDirectory returns one inert DirectoryEntry per child of path. Entries
// are closed and carry path, size, block size and kind; call Reopen on a file
// entry to read it. The listing connection is released before returning.
func (c *Client) ListDirectory(ctx context.Context, path string) ([]*FileHandle, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	var entries []*FileHandle
	err := c.withConnection(ctx, "", func(conn *Connection) error {
		session, err := conn.live()
		if err != nil {
			return err
		}

		start := time.Now()
		infos, err := session.ListDirectory(ctx, path)
		c.metrics.ObserveOperation("list", time.Since(start), err)
		if err != nil {
			return wrapNative("list", path, err)
		}

		entries = make([]*FileHandle, 0, len(infos))
		for _, info := range infos {
			entries = append(entries, newEntry(c, conn.Coordinator(), info))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("hdfsfile: listed %s: %d entries", path, len(entries))
	return entries, nil
}

// DeleteDir removes path non-recursively. A missing path fails with
// ErrNotFound; a non-empty directory fails with ErrIO.
func (c *Client) DeleteDir(ctx context.Context, path string) error {
	return c.remove(ctx, path, false)
}

// RemoveAll removes path and everything below it.
func (c *Client) RemoveAll(ctx context.Context, path string) error {
	return c.remove(ctx, path, true)
}

func (c *Client) remove(ctx context.Context, path string, recursive bool) error {
	if err := validatePath(path); err != nil {
		return err
	}

	return c.withConnection(ctx, "", func(conn *Connection) error {
		// ===== Step 1: Check existence =====
		exists, err := conn.Exists(ctx, path)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("delete %s: %w", path, ErrNotFound)
		}

		// ===== Step 2: Delete =====
		session, err := conn.live()
		if err != nil {
			return err
		}

		start := time.Now()
		err = session.Delete(ctx, path, recursive)
		c.metrics.ObserveOperation("delete", time.Since(start), err)
		if err != nil {
			return ioError("delete", path, err)
		}

		logger.Debug("hdfsfile: deleted %s (recursive=%t)", path, recursive)
		return nil
	})
}

// MakeDirectory creates path and any missing parents.
func (c *Client) MakeDirectory(ctx context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return err
	}

	return c.withConnection(ctx, "", func(conn *Connection) error {
		session, err := conn.live()
		if err != nil {
			return err
		}

		start := time.Now()
		err = session.MakeDirectory(ctx, path)
		c.metrics.ObserveOperation("mkdir", time.Since(start), err)
		if err != nil {
			return ioError("mkdir", path, err)
		}
		return nil
	})
}
