package badger

import (
	"bytes"
	"context"
	"testing"

	"github.com/marmos91/hdfsfile/pkg/native"
	nativetesting "github.com/marmos91/hdfsfile/pkg/native/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDriver(t *testing.T, cfg BadgerDriverConfig) *BadgerDriver {
	t.Helper()

	d, err := NewBadgerDriver(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// TestBadgerDriver runs the complete driver conformance suite against the
// BadgerDriver implementation.
func TestBadgerDriver(t *testing.T) {
	suite := &nativetesting.DriverTestSuite{
		NewDriver: func(t *testing.T) native.Driver {
			// Small chunks so multi-chunk reads and appends are exercised.
			return newTestDriver(t, BadgerDriverConfig{InMemory: true, ChunkSize: 64})
		},
	}

	suite.Run(t)
}

func TestBadgerDriver_RequiresPath(t *testing.T) {
	_, err := NewBadgerDriver(context.Background(), BadgerDriverConfig{})
	assert.Error(t, err)
}

func TestBadgerDriver_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	data := bytes.Repeat([]byte("persist"), 50)

	d, err := NewBadgerDriver(ctx, BadgerDriverConfig{DBPath: dir, ChunkSize: 16})
	require.NoError(t, err)

	s, err := d.Connect(ctx, "")
	require.NoError(t, err)

	f, err := s.OpenFile(ctx, "/keep/me", native.O_WRONLY|native.O_CREATE, native.OpenOptions{})
	require.NoError(t, err)
	_, err = s.Write(ctx, f, data)
	require.NoError(t, err)
	require.NoError(t, s.CloseFile(ctx, f))
	require.NoError(t, s.Disconnect())
	require.NoError(t, d.Close())

	// Reopen the same directory.
	d = newTestDriver(t, BadgerDriverConfig{DBPath: dir, ChunkSize: 16})
	s, err = d.Connect(ctx, "")
	require.NoError(t, err)
	defer func() { _ = s.Disconnect() }()

	info, err := s.Stat(ctx, "/keep/me")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)

	f, err = s.OpenFile(ctx, "/keep/me", native.O_RDONLY, native.OpenOptions{})
	require.NoError(t, err)
	buf := make([]byte, len(data))
	n, err := s.Pread(ctx, f, 0, buf)
	require.NoError(t, err)
	assert.Equal(t, data, buf[:n])
}

func TestBadgerDriver_AppendAcrossChunks(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t, BadgerDriverConfig{InMemory: true, ChunkSize: 4})

	s, err := d.Connect(ctx, "")
	require.NoError(t, err)
	defer func() { _ = s.Disconnect() }()

	f, err := s.OpenFile(ctx, "/a", native.O_WRONLY|native.O_CREATE, native.OpenOptions{})
	require.NoError(t, err)
	_, err = s.Write(ctx, f, []byte("abcdef"))
	require.NoError(t, err)
	require.NoError(t, s.Flush(ctx, f))
	_, err = s.Write(ctx, f, []byte("ghij"))
	require.NoError(t, err)
	require.NoError(t, s.CloseFile(ctx, f))

	f, err = s.OpenFile(ctx, "/a", native.O_RDONLY, native.OpenOptions{})
	require.NoError(t, err)
	buf := make([]byte, 5)
	n, err := s.Pread(ctx, f, 3, buf)
	require.NoError(t, err)
	assert.Equal(t, "defgh", string(buf[:n]))
}

func TestBadgerDriver_CoordinatorsRestrictConnect(t *testing.T) {
	d := newTestDriver(t, BadgerDriverConfig{InMemory: true, Coordinators: []string{"default"}})

	_, err := d.Connect(context.Background(), "other:8020")
	assert.ErrorIs(t, err, native.ErrUnreachable)

	s, err := d.Connect(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, d.OpenSessions())
	require.NoError(t, s.Disconnect())
	assert.Equal(t, 0, d.OpenSessions())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "m:/a/b", string(keyMeta("/a/b")))
	assert.Equal(t, "c:/a\x00000000000000000f", string(keyChunk("/a", 15)))
	assert.Equal(t, "m:/", string(keyDescendantPrefix("/")))
	assert.Equal(t, "m:/a/", string(keyDescendantPrefix("/a")))
	assert.Equal(t, "/a/b", pathFromMetaKey(keyMeta("/a/b")))
}
