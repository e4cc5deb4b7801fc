package hdfsfile

import (
	"context"
	"testing"

	"github.com/marmos91/hdfsfile/pkg/native/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostsForRange(t *testing.T) {
	ctx := context.Background()
	client, driver := newTestClient(t, memory.MemoryDriverConfig{
		BlockSize:   4,
		Replication: 2,
		Datanodes:   []string{"dn1", "dn2", "dn3"},
	})
	writeFile(t, client, "/blocks", []byte("0123456789"))
	writeFile(t, client, "/empty", nil)

	tests := []struct {
		name       string
		path       string
		start, end int64
		want       []string
	}{
		{name: "WholeFile", path: "/blocks", start: 0, end: 10, want: []string{"dn1", "dn2", "dn2", "dn3", "dn3", "dn1"}},
		{name: "MiddleBlock", path: "/blocks", start: 4, end: 8, want: []string{"dn2", "dn3"}},
		{name: "SpansTwoBlocks", path: "/blocks", start: 3, end: 5, want: []string{"dn1", "dn2", "dn2", "dn3"}},
		{name: "PastEnd", path: "/blocks", start: 8, end: 100, want: []string{"dn3", "dn1"}},
		{name: "EmptyRange", path: "/blocks", start: 5, end: 5, want: []string{}},
		{name: "EmptyFile", path: "/empty", start: 0, end: 10, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hosts, err := client.HostsForRange(ctx, "", tt.path, tt.start, tt.end)
			require.NoError(t, err)
			require.NotNil(t, hosts)
			assert.Equal(t, tt.want, hosts)
		})
	}

	assert.Equal(t, 0, driver.OpenSessions())
}

func TestHostsForRange_Errors(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t, memory.MemoryDriverConfig{})
	writeFile(t, client, "/f", []byte("x"))

	_, err := client.HostsForRange(ctx, "", "/f", -1, 1)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = client.HostsForRange(ctx, "", "/f", 5, 1)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = client.HostsForRange(ctx, "", "/missing", 0, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileHandle_GetHosts(t *testing.T) {
	ctx := context.Background()
	client, driver := newTestClient(t, memory.MemoryDriverConfig{
		BlockSize:   5,
		Replication: 1,
		Datanodes:   []string{"dn1", "dn2"},
	})
	writeFile(t, client, "/h", []byte("0123456789"))

	fh, err := client.Open(ctx, "/h")
	require.NoError(t, err)
	defer fh.Close()

	hosts, err := fh.GetHosts(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"dn1", "dn2"}, hosts)
	assert.Equal(t, 1, driver.OpenSessions(), "GetHosts uses its own short-lived connection")

	hosts, err = fh.GetHosts(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, hosts)
}

func TestFlattenHosts(t *testing.T) {
	assert.Equal(t, []string{}, flattenHosts(nil))
	assert.Equal(t, []string{"a", "b", "a"}, flattenHosts([][]string{{"a", "b"}, {}, {"a"}}))
}
