package hdfsfile

import (
	"context"
	"fmt"

	"github.com/marmos91/hdfsfile/pkg/native"
)

// Open opens path read-only on the default coordinator.
func (c *Client) Open(ctx context.Context, path string) (*FileHandle, error) {
	return c.openWith(ctx, "", path, native.O_RDONLY)
}

// OpenWithCoordinator opens path read-only on coordinator.
func (c *Client) OpenWithCoordinator(ctx context.Context, coordinator, path string) (*FileHandle, error) {
	return c.openWith(ctx, coordinator, path, native.O_RDONLY)
}

// Create opens path for writing, creating it (and its parents) when missing
// and truncating it otherwise.
func (c *Client) Create(ctx context.Context, path string) (*FileHandle, error) {
	return c.openWith(ctx, "", path, native.O_WRONLY|native.O_CREATE)
}

// CreateAppend opens path for appending, creating it when missing.
func (c *Client) CreateAppend(ctx context.Context, path string) (*FileHandle, error) {
	return c.openWith(ctx, "", path, native.O_WRONLY|native.O_CREATE|native.O_APPEND)
}

// OpenFile opens path on the default coordinator with os-style flags.
//
// Parameters:
//   - flags: native.O_RDONLY, or native.O_WRONLY combined with O_CREATE
//     and/or O_APPEND. Read-write access is not supported.
//
// Returns:
//   - *FileHandle: The open handle
//   - error: ErrNotFound when the path is missing and O_CREATE is not set,
//     ErrIsDirectory, ErrInvalidPath, ErrConnectionFailed or ErrIO
func (c *Client) OpenFile(ctx context.Context, path string, flags int) (*FileHandle, error) {
	return c.openWith(ctx, "", path, flags)
}

// FromSplit opens the byte range [start, end) of path read-only: reads start
// at start and stop at end.
func (c *Client) FromSplit(ctx context.Context, path string, start, end int64) (*FileHandle, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if start < 0 || end < start {
		return nil, fmt.Errorf("split %s [%d, %d): %w", path, start, end, ErrInvalidRange)
	}

	fh := newHandle(c, "", path)
	fh.split = true
	fh.cursor = start
	fh.size = end

	if err := fh.open(ctx, native.O_RDONLY); err != nil {
		return nil, err
	}
	return fh, nil
}

func (c *Client) openWith(ctx context.Context, coordinator, path string, flags int) (*FileHandle, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if mode := native.AccessMode(flags); mode != native.O_RDONLY && mode != native.O_WRONLY {
		return nil, fmt.Errorf("open %s: read-write access: %w", path, native.ErrUnsupported)
	}

	fh := newHandle(c, coordinator, path)
	if err := fh.open(ctx, flags); err != nil {
		return nil, err
	}
	return fh, nil
}
