package hdfsfile

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/hdfsfile/pkg/native"
	"github.com/marmos91/hdfsfile/pkg/native/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	_, err := NewClient(nil, Options{})
	assert.Error(t, err)

	client, err := NewClient(memory.NewMemoryDriver(memory.MemoryDriverConfig{}), Options{})
	require.NoError(t, err)
	assert.Equal(t, native.DefaultCoordinator, client.Coordinator())

	client, err = NewClient(memory.NewMemoryDriver(memory.MemoryDriverConfig{}), Options{Coordinator: "hdfs://nn:8020"})
	require.NoError(t, err)
	assert.Equal(t, "hdfs://nn:8020", client.Coordinator())
}

func TestClient_ConnectRate(t *testing.T) {
	driver := memory.NewMemoryDriver(memory.MemoryDriverConfig{})
	client, err := NewClient(driver, Options{ConnectRate: 1, ConnectBurst: 2})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := client.Exists(ctx, "/")
		require.NoError(t, err)
		require.True(t, ok)
	}

	// The bucket is empty and the next token is a second away.
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	_, err = client.Exists(short, "/")
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Equal(t, 0, driver.OpenSessions())
}

func TestClient_Exists(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t, memory.MemoryDriverConfig{})
	writeFile(t, client, "/here", []byte("x"))

	ok, err := client.Exists(ctx, "/here")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.Exists(ctx, "/there")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = client.Exists(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
