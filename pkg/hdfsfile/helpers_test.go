package hdfsfile

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/marmos91/hdfsfile/pkg/native"
	"github.com/marmos91/hdfsfile/pkg/native/memory"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, cfg memory.MemoryDriverConfig) (*Client, *memory.MemoryDriver) {
	t.Helper()

	driver := memory.NewMemoryDriver(cfg)
	client, err := NewClient(driver, Options{})
	require.NoError(t, err)
	return client, driver
}

func writeFile(t *testing.T, c *Client, path string, data []byte) {
	t.Helper()

	fh, err := c.Create(context.Background(), path)
	require.NoError(t, err)

	n, err := fh.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, fh.Flush())
	require.NoError(t, fh.Close())
}

// faultyDriver wraps a driver and injects failures into its sessions.
type faultyDriver struct {
	native.Driver

	connects   atomic.Int64
	connectErr error

	shortWrite bool
	flushErr   error
	closeErr   error
}

func (d *faultyDriver) Connect(ctx context.Context, coordinator string) (native.Session, error) {
	d.connects.Add(1)
	if d.connectErr != nil {
		return nil, d.connectErr
	}

	s, err := d.Driver.Connect(ctx, coordinator)
	if err != nil {
		return nil, err
	}
	return &faultySession{Session: s, driver: d}, nil
}

type faultySession struct {
	native.Session
	driver *faultyDriver
}

func (s *faultySession) Write(ctx context.Context, f native.File, buf []byte) (int, error) {
	if s.driver.shortWrite && len(buf) > 1 {
		return s.Session.Write(ctx, f, buf[:len(buf)/2])
	}
	return s.Session.Write(ctx, f, buf)
}

func (s *faultySession) Flush(ctx context.Context, f native.File) error {
	if s.driver.flushErr != nil {
		return s.driver.flushErr
	}
	return s.Session.Flush(ctx, f)
}

func (s *faultySession) CloseFile(ctx context.Context, f native.File) error {
	err := s.Session.CloseFile(ctx, f)
	if s.driver.closeErr != nil {
		return errors.Join(s.driver.closeErr, err)
	}
	return err
}

func newFaultyClient(t *testing.T) (*Client, *faultyDriver, *memory.MemoryDriver) {
	t.Helper()

	mem := memory.NewMemoryDriver(memory.MemoryDriverConfig{})
	faulty := &faultyDriver{Driver: mem}
	client, err := NewClient(faulty, Options{})
	require.NoError(t, err)
	return client, faulty, mem
}
