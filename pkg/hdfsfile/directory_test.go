package hdfsfile

import (
	"context"
	"io"
	"testing"

	"github.com/marmos91/hdfsfile/pkg/native"
	"github.com/marmos91/hdfsfile/pkg/native/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDirectory(t *testing.T) {
	ctx := context.Background()
	client, driver := newTestClient(t, memory.MemoryDriverConfig{BlockSize: 64})

	writeFile(t, client, "/list/a", []byte("a"))
	writeFile(t, client, "/list/bb", []byte("bb"))
	writeFile(t, client, "/list/empty", nil)
	require.NoError(t, client.MakeDirectory(ctx, "/list/sub"))

	entries, err := client.ListDirectory(ctx, "/list")
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, 0, driver.OpenSessions(), "listing must release its connection")

	byPath := make(map[string]*FileHandle, len(entries))
	for _, e := range entries {
		assert.GreaterOrEqual(t, e.Size(), int64(0))
		assert.Equal(t, StateClosed, e.State())
		assert.False(t, e.Resurrectable())
		byPath[e.Path()] = e
	}

	require.Contains(t, byPath, "/list/bb")
	assert.Equal(t, int64(2), byPath["/list/bb"].Size())
	assert.Equal(t, int64(64), byPath["/list/bb"].BlockSize())
	assert.Equal(t, native.KindFile, byPath["/list/bb"].Kind())

	require.Contains(t, byPath, "/list/sub")
	assert.True(t, byPath["/list/sub"].IsDir())

	t.Run("EntryIsInert", func(t *testing.T) {
		_, err := byPath["/list/a"].Read(make([]byte, 1))
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("ReopenEntry", func(t *testing.T) {
		e := byPath["/list/bb"]
		require.NoError(t, e.Reopen(ctx))
		defer e.Close()

		got, err := io.ReadAll(e)
		require.NoError(t, err)
		assert.Equal(t, "bb", string(got))
	})

	t.Run("ReopenDirectoryEntry", func(t *testing.T) {
		err := byPath["/list/sub"].Reopen(ctx)
		assert.ErrorIs(t, err, ErrIsDirectory)
	})
}

func TestListDirectory_EmptyAndMissing(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t, memory.MemoryDriverConfig{})
	require.NoError(t, client.MakeDirectory(ctx, "/empty"))

	entries, err := client.ListDirectory(ctx, "/empty")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = client.ListDirectory(ctx, "/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteDir(t *testing.T) {
	ctx := context.Background()
	client, driver := newTestClient(t, memory.MemoryDriverConfig{})

	t.Run("Empty", func(t *testing.T) {
		require.NoError(t, client.MakeDirectory(ctx, "/gone"))
		require.NoError(t, client.DeleteDir(ctx, "/gone"))

		ok, err := client.Exists(ctx, "/gone")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Missing", func(t *testing.T) {
		err := client.DeleteDir(ctx, "/never")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("NotEmpty", func(t *testing.T) {
		writeFile(t, client, "/full/file", []byte("x"))

		err := client.DeleteDir(ctx, "/full")
		assert.ErrorIs(t, err, ErrIO)
		assert.ErrorIs(t, err, native.ErrNotEmpty)

		require.NoError(t, client.RemoveAll(ctx, "/full"))
		ok, err := client.Exists(ctx, "/full/file")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("File", func(t *testing.T) {
		writeFile(t, client, "/plain", []byte("x"))
		require.NoError(t, client.DeleteDir(ctx, "/plain"))
	})

	assert.Equal(t, 0, driver.OpenSessions())
}

func TestMakeDirectory(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t, memory.MemoryDriverConfig{})

	require.NoError(t, client.MakeDirectory(ctx, "/a/b/c"))
	require.NoError(t, client.MakeDirectory(ctx, "/a/b/c"))

	info, err := client.Stat(ctx, "/a/b")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	writeFile(t, client, "/a/file", []byte("x"))
	err = client.MakeDirectory(ctx, "/a/file")
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, native.ErrExists)
}

func TestStat_NotFound(t *testing.T) {
	client, _ := newTestClient(t, memory.MemoryDriverConfig{})

	_, err := client.Stat(context.Background(), "/nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConnection(t *testing.T) {
	ctx := context.Background()
	client, driver := newTestClient(t, memory.MemoryDriverConfig{})

	conn, err := client.Connect(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, native.DefaultCoordinator, conn.Coordinator())
	assert.True(t, conn.Connected())
	assert.NotNil(t, conn.Session())

	ok, err := conn.Exists(ctx, "/")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, conn.Disconnect())
	require.NoError(t, conn.Disconnect())
	assert.False(t, conn.Connected())
	assert.Equal(t, 0, driver.OpenSessions())

	_, err = conn.Exists(ctx, "/")
	assert.ErrorIs(t, err, ErrClosed)
}
