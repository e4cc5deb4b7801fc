//go:build integration

package hdfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/hdfsfile/pkg/hdfsfile"
	"github.com/marmos91/hdfsfile/pkg/native"
	nativetesting "github.com/marmos91/hdfsfile/pkg/native/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// integrationDriver connects to the namenode in HDFS_TEST_NAMENODE
// (host:port). Every test works below a private scratch directory.
//
// Run with:
//
//	HDFS_TEST_NAMENODE=localhost:8020 go test -tags=integration ./pkg/native/hdfs/...
func integrationDriver(t *testing.T) (*HDFSDriver, string) {
	t.Helper()

	addr := os.Getenv("HDFS_TEST_NAMENODE")
	if addr == "" {
		t.Skip("HDFS_TEST_NAMENODE not set")
	}

	d, err := NewHDFSDriver(HDFSDriverConfig{
		Addresses:      []string{addr},
		WebHDFSAddress: os.Getenv("HDFS_TEST_WEBHDFS"),
	})
	require.NoError(t, err)

	root := fmt.Sprintf("/tmp/hdfsfile-it-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		s, err := d.Connect(context.Background(), native.DefaultCoordinator)
		if err != nil {
			return
		}
		_ = s.Delete(context.Background(), root, true)
		_ = s.Disconnect()
	})

	return d, root
}

func TestHDFSDriver_IntegrationHandles(t *testing.T) {
	ctx := context.Background()
	d, root := integrationDriver(t)

	client, err := hdfsfile.NewClient(d, hdfsfile.Options{})
	require.NoError(t, err)
	path := root + "/t"

	fh, err := client.Create(ctx, path)
	require.NoError(t, err)
	_, err = fh.Write([]byte("HHHHHello worldddddd\n"))
	require.NoError(t, err)
	require.NoError(t, fh.Flush())
	require.NoError(t, fh.Close())

	split, err := client.FromSplit(ctx, path, 4, 15)
	require.NoError(t, err)
	got, err := io.ReadAll(split)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", string(got))
	require.NoError(t, split.Close())

	entries, err := client.ListDirectory(ctx, root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, path, entries[0].Path())
	assert.Equal(t, int64(21), entries[0].Size())

	hosts, err := client.HostsForRange(ctx, "", path, 0, 21)
	require.NoError(t, err)
	assert.NotEmpty(t, hosts)

	require.NoError(t, client.DeleteDir(ctx, path))
	assert.Equal(t, 0, d.OpenSessions())
}

func TestHDFSDriver_Suite(t *testing.T) {
	if os.Getenv("HDFS_TEST_NAMENODE") == "" {
		t.Skip("HDFS_TEST_NAMENODE not set")
	}

	suite := &nativetesting.DriverTestSuite{
		NewDriver: func(t *testing.T) native.Driver {
			d, root := integrationDriver(t)

			s, err := d.Connect(context.Background(), native.DefaultCoordinator)
			require.NoError(t, err)
			require.NoError(t, s.MakeDirectory(context.Background(), root))
			require.NoError(t, s.Disconnect())

			return &scratchDriver{Driver: d, root: root}
		},
		// The namenode default minimum block size; it is also a multiple of
		// the 512-byte checksum chunk.
		BlockSize: 1 << 20,
		Skip: map[string]string{
			"Write_SizeUntilFlush": "the namenode only reports the length of completed blocks",
		},
	}
	suite.Run(t)
}

// scratchDriver runs every session below root so each test sees an empty
// namespace on a shared cluster.
type scratchDriver struct {
	native.Driver
	root string
}

func (d *scratchDriver) Connect(ctx context.Context, coordinator string) (native.Session, error) {
	s, err := d.Driver.Connect(ctx, coordinator)
	if err != nil {
		return nil, err
	}
	return &scratchSession{Session: s, root: d.root}, nil
}

type scratchSession struct {
	native.Session
	root string
}

func (s *scratchSession) abs(p string) string {
	return s.root + native.CleanPath(p)
}

func (s *scratchSession) rel(p string) string {
	if rel := strings.TrimPrefix(p, s.root); rel != "" {
		return rel
	}
	return "/"
}

func (s *scratchSession) Exists(ctx context.Context, p string) (bool, error) {
	return s.Session.Exists(ctx, s.abs(p))
}

func (s *scratchSession) Stat(ctx context.Context, p string) (*native.PathInfo, error) {
	info, err := s.Session.Stat(ctx, s.abs(p))
	if err != nil {
		return nil, err
	}
	info.Name = s.rel(info.Name)
	return info, nil
}

func (s *scratchSession) OpenFile(ctx context.Context, p string, flags int, opts native.OpenOptions) (native.File, error) {
	return s.Session.OpenFile(ctx, s.abs(p), flags, opts)
}

func (s *scratchSession) Delete(ctx context.Context, p string, recursive bool) error {
	return s.Session.Delete(ctx, s.abs(p), recursive)
}

func (s *scratchSession) MakeDirectory(ctx context.Context, p string) error {
	return s.Session.MakeDirectory(ctx, s.abs(p))
}

func (s *scratchSession) ListDirectory(ctx context.Context, p string) ([]native.PathInfo, error) {
	entries, err := s.Session.ListDirectory(ctx, s.abs(p))
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Name = s.rel(entries[i].Name)
	}
	return entries, nil
}

func (s *scratchSession) GetHosts(ctx context.Context, p string, start, length int64) ([][]string, error) {
	return s.Session.GetHosts(ctx, s.abs(p), start, length)
}
