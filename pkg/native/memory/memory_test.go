package memory

import (
	"context"
	"testing"

	"github.com/marmos91/hdfsfile/pkg/native"
	nativetesting "github.com/marmos91/hdfsfile/pkg/native/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryDriver runs the complete driver conformance suite against the
// MemoryDriver implementation.
func TestMemoryDriver(t *testing.T) {
	suite := &nativetesting.DriverTestSuite{
		NewDriver: func(t *testing.T) native.Driver {
			return NewMemoryDriver(MemoryDriverConfig{})
		},
	}

	suite.Run(t)
}

func TestMemoryDriver_CoordinatorsRestrictConnect(t *testing.T) {
	d := NewMemoryDriver(MemoryDriverConfig{Coordinators: []string{"default", "nn1:8020"}})

	s, err := d.Connect(context.Background(), "nn1:8020")
	require.NoError(t, err)
	require.NoError(t, s.Disconnect())

	_, err = d.Connect(context.Background(), "elsewhere:8020")
	assert.ErrorIs(t, err, native.ErrUnreachable)
}

func TestMemoryDriver_NamespacesPerCoordinator(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDriver(MemoryDriverConfig{})

	a, err := d.Connect(ctx, "a")
	require.NoError(t, err)
	defer func() { _ = a.Disconnect() }()
	b, err := d.Connect(ctx, "b")
	require.NoError(t, err)
	defer func() { _ = b.Disconnect() }()

	require.NoError(t, a.MakeDirectory(ctx, "/only-in-a"))

	ok, err := b.Exists(ctx, "/only-in-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDriver_OpenSessions(t *testing.T) {
	d := NewMemoryDriver(MemoryDriverConfig{})

	s, err := d.Connect(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, d.OpenSessions())

	require.NoError(t, s.Disconnect())
	require.NoError(t, s.Disconnect())
	assert.Equal(t, 0, d.OpenSessions())
}

func TestMemoryDriver_ReplicaPlacement(t *testing.T) {
	ctx := context.Background()
	d := NewMemoryDriver(MemoryDriverConfig{Datanodes: []string{"dn1", "dn2", "dn3"}})

	s, err := d.Connect(ctx, "")
	require.NoError(t, err)
	defer func() { _ = s.Disconnect() }()

	f, err := s.OpenFile(ctx, "/p", native.O_WRONLY|native.O_CREATE, native.OpenOptions{BlockSize: 2, Replication: 2})
	require.NoError(t, err)
	_, err = s.Write(ctx, f, []byte("abcdef"))
	require.NoError(t, err)
	require.NoError(t, s.CloseFile(ctx, f))

	blocks, err := s.GetHosts(ctx, "/p", 0, 6)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"dn1", "dn2"}, {"dn2", "dn3"}, {"dn3", "dn1"}}, blocks)
}
