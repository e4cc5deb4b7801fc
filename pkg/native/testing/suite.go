package testing

import (
	"context"
	"testing"

	"github.com/marmos91/hdfsfile/pkg/native"
	"github.com/stretchr/testify/require"
)

// DriverTestSuite is a conformance suite for native.Driver implementations.
// It tests the capability contract, not implementation details, so it can be
// reused by every emulating driver (memory, badger, ...).
//
// Usage:
//
//	func TestMyDriver(t *testing.T) {
//	    suite := &testing.DriverTestSuite{
//	        NewDriver: func(t *testing.T) native.Driver {
//	            return mydriver.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type DriverTestSuite struct {
	// NewDriver creates a fresh, empty driver for each test.
	NewDriver func(t *testing.T) native.Driver

	// BlockSize is the block size used by multi-block tests. Drivers that
	// enforce a minimum block size set it; zero means 10 bytes.
	BlockSize int64

	// Skip maps subtest names to the reason the driver cannot honour them.
	Skip map[string]string
}

// Run executes all tests in the suite.
func (suite *DriverTestSuite) Run(t *testing.T) {
	t.Run("Session", suite.RunSessionTests)
	t.Run("ReadWrite", suite.RunReadWriteTests)
	t.Run("Namespace", suite.RunNamespaceTests)
	t.Run("Hosts", suite.RunHostsTests)
}

// run registers a subtest unless the driver opted out of it.
func (suite *DriverTestSuite) run(t *testing.T, name string, fn func(*testing.T)) {
	t.Run(name, func(t *testing.T) {
		if reason, ok := suite.Skip[name]; ok {
			t.Skip(reason)
		}
		fn(t)
	})
}

func (suite *DriverTestSuite) blockSize() int64 {
	if suite.BlockSize > 0 {
		return suite.BlockSize
	}
	return 10
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}

// connect opens a default-coordinator session that is disconnected when the
// test ends.
func (suite *DriverTestSuite) connect(t *testing.T) native.Session {
	t.Helper()

	driver := suite.NewDriver(t)
	s, err := driver.Connect(testContext(), native.DefaultCoordinator)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Disconnect() })
	return s
}

// mustWriteFile creates path with data and closes it.
func mustWriteFile(t *testing.T, s native.Session, path string, data []byte, opts native.OpenOptions) {
	t.Helper()

	f, err := s.OpenFile(testContext(), path, native.O_WRONLY|native.O_CREATE, opts)
	require.NoError(t, err)

	n, err := s.Write(testContext(), f, data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	require.NoError(t, s.Flush(testContext(), f))
	require.NoError(t, s.CloseFile(testContext(), f))
}

// mustReadFile reads all of path through positional reads.
func mustReadFile(t *testing.T, s native.Session, path string) []byte {
	t.Helper()

	info, err := s.Stat(testContext(), path)
	require.NoError(t, err)

	f, err := s.OpenFile(testContext(), path, native.O_RDONLY, native.OpenOptions{})
	require.NoError(t, err)
	defer func() { _ = s.CloseFile(testContext(), f) }()

	out := make([]byte, 0, info.Size)
	buf := make([]byte, 7)
	for offset := int64(0); offset < info.Size; {
		n, err := s.Pread(testContext(), f, offset, buf)
		require.NoError(t, err)
		require.NotZero(t, n, "pread returned 0 before end of file")
		out = append(out, buf[:n]...)
		offset += int64(n)
	}
	return out
}
