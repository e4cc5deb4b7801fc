package hdfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marmos91/hdfsfile/pkg/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinator(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "nn1:8020", want: "nn1:8020"},
		{in: "nn1", want: "nn1:8020"},
		{in: "hdfs://nn1:9000", want: "nn1:9000"},
		{in: "hdfs://nn1", want: "nn1:8020"},
		{in: "hdfs://nn1:9000/user/data", want: "nn1:9000"},
		{in: "  nn2:1234 ", want: "nn2:1234"},
		{in: "s3://bucket", wantErr: true},
		{in: "hdfs://", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCoordinator(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultWebHDFSURL(t *testing.T) {
	assert.Equal(t, "http://nn1:9870", defaultWebHDFSURL([]string{"nn1:8020", "nn2:8020"}))
	assert.Equal(t, "http://nn1:9870", defaultWebHDFSURL([]string{"nn1"}))
	assert.Equal(t, "", defaultWebHDFSURL(nil))
}

func TestClientOptions(t *testing.T) {
	d, err := NewHDFSDriver(HDFSDriverConfig{User: "alice", Addresses: []string{"a:8020", "b:8020"}})
	require.NoError(t, err)

	t.Run("ExplicitCoordinator", func(t *testing.T) {
		opts, err := d.clientOptions("hdfs://other:9000")
		require.NoError(t, err)
		assert.Equal(t, []string{"other:9000"}, opts.Addresses)
		assert.Equal(t, "alice", opts.User)
	})

	t.Run("DefaultUsesConfiguredAddresses", func(t *testing.T) {
		opts, err := d.clientOptions(native.DefaultCoordinator)
		require.NoError(t, err)
		assert.Equal(t, []string{"a:8020", "b:8020"}, opts.Addresses)
	})

	t.Run("DefaultFromEnvironment", func(t *testing.T) {
		t.Setenv(DefaultFSEnv, "hdfs://envnn:8021")

		bare, err := NewHDFSDriver(HDFSDriverConfig{User: "bob"})
		require.NoError(t, err)

		opts, err := bare.clientOptions("")
		require.NoError(t, err)
		assert.Equal(t, []string{"envnn:8021"}, opts.Addresses)
		assert.Equal(t, "bob", opts.User)
	})
}

func TestNewHDFSDriver_Defaults(t *testing.T) {
	d, err := NewHDFSDriver(HDFSDriverConfig{User: "carol"})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d.cfg.HTTPTimeout)
	assert.Equal(t, 0, d.OpenSessions())
}

func TestConnect_Unreachable(t *testing.T) {
	d, err := NewHDFSDriver(HDFSDriverConfig{User: "dave"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = d.Connect(ctx, "127.0.0.1:1")
	assert.ErrorIs(t, err, native.ErrUnreachable)
	assert.Equal(t, 0, d.OpenSessions())
}

func TestWebHDFS_BlockHosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhdfs/v1/data/part 0", r.URL.Path)
		assert.Equal(t, "GETFILEBLOCKLOCATIONS", r.URL.Query().Get("op"))
		assert.Equal(t, "10", r.URL.Query().Get("offset"))
		assert.Equal(t, "300", r.URL.Query().Get("length"))
		assert.Equal(t, "erin", r.URL.Query().Get("user.name"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"BlockLocations":{"BlockLocation":[
			{"hosts":["dn1","dn2"],"offset":0,"length":128},
			{"hosts":["dn3"],"offset":128,"length":128},
			{"hosts":["dn2","dn3"],"offset":256,"length":64}
		]}}`))
	}))
	defer srv.Close()

	w := newWebHDFS(srv.URL+"/", "erin", 5*time.Second)
	blocks, err := w.blockHosts(context.Background(), "/data/part 0", 10, 300)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"dn1", "dn2"}, {"dn3"}, {"dn2", "dn3"}}, blocks)
}

func TestWebHDFS_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"RemoteException":{"exception":"FileNotFoundException","message":"File does not exist: /x"}}`))
	}))
	defer srv.Close()

	w := newWebHDFS(srv.URL, "", time.Second)
	_, err := w.blockHosts(context.Background(), "/x", 0, 1)
	assert.ErrorIs(t, err, native.ErrNotFound)
}

func TestWebHDFS_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"RemoteException":{"exception":"AccessControlException","message":"denied"}}`))
	}))
	defer srv.Close()

	w := newWebHDFS(srv.URL, "", time.Second)
	_, err := w.blockHosts(context.Background(), "/x", 0, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessControlException")
	assert.NotErrorIs(t, err, native.ErrNotFound)
}

func TestWebHDFS_NoAddress(t *testing.T) {
	w := newWebHDFS("", "", time.Second)
	_, err := w.blockHosts(context.Background(), "/x", 0, 1)
	assert.ErrorIs(t, err, native.ErrUnsupported)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("op", "/p", nil))
	assert.ErrorIs(t, mapError("op", "/p", native.ErrNotFound), native.ErrNotFound)
}
