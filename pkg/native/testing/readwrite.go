package testing

import (
	"bytes"
	"testing"

	"github.com/marmos91/hdfsfile/pkg/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunReadWriteTests executes open, pread, write and flush tests.
func (suite *DriverTestSuite) RunReadWriteTests(t *testing.T) {
	suite.run(t, "OpenFile_NotFound", suite.testOpenNotFound)
	suite.run(t, "OpenFile_Directory", suite.testOpenDirectory)
	suite.run(t, "Write_RoundTrip", suite.testWriteRoundTrip)
	suite.run(t, "Write_SizeUntilFlush", suite.testSizeUntilFlush)
	suite.run(t, "Write_Truncates", suite.testWriteTruncates)
	suite.run(t, "Write_Append", suite.testAppend)
	suite.run(t, "Write_CreatesParents", suite.testCreatesParents)
	suite.run(t, "Pread_PastEnd", suite.testPreadPastEnd)
	suite.run(t, "Pread_Offset", suite.testPreadOffset)
	suite.run(t, "Pread_WriteHandle", suite.testPreadWriteHandle)
	suite.run(t, "CloseFile_InvalidatesToken", suite.testCloseInvalidates)
	suite.run(t, "LargeContent", suite.testLargeContent)
}

func (suite *DriverTestSuite) testOpenNotFound(t *testing.T) {
	s := suite.connect(t)

	_, err := s.OpenFile(testContext(), "/missing", native.O_RDONLY, native.OpenOptions{})
	assert.ErrorIs(t, err, native.ErrNotFound)
}

func (suite *DriverTestSuite) testOpenDirectory(t *testing.T) {
	s := suite.connect(t)
	require.NoError(t, s.MakeDirectory(testContext(), "/dir"))

	_, err := s.OpenFile(testContext(), "/dir", native.O_RDONLY, native.OpenOptions{})
	assert.ErrorIs(t, err, native.ErrIsDirectory)
}

func (suite *DriverTestSuite) testWriteRoundTrip(t *testing.T) {
	s := suite.connect(t)
	data := []byte("HHHHHello worldddddd\n")

	mustWriteFile(t, s, "/t", data, native.OpenOptions{})

	info, err := s.Stat(testContext(), "/t")
	require.NoError(t, err)
	assert.Equal(t, native.KindFile, info.Kind)
	assert.Equal(t, int64(21), info.Size)
	assert.Greater(t, info.BlockSize, int64(0))

	assert.Equal(t, data, mustReadFile(t, s, "/t"))
}

func (suite *DriverTestSuite) testSizeUntilFlush(t *testing.T) {
	s := suite.connect(t)

	f, err := s.OpenFile(testContext(), "/pending", native.O_WRONLY|native.O_CREATE, native.OpenOptions{})
	require.NoError(t, err)

	ok, err := s.Exists(testContext(), "/pending")
	require.NoError(t, err)
	assert.True(t, ok, "created file must exist before the first flush")

	_, err = s.Write(testContext(), f, []byte("abc"))
	require.NoError(t, err)

	info, err := s.Stat(testContext(), "/pending")
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size)

	require.NoError(t, s.Flush(testContext(), f))

	info, err = s.Stat(testContext(), "/pending")
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)

	require.NoError(t, s.CloseFile(testContext(), f))
}

func (suite *DriverTestSuite) testWriteTruncates(t *testing.T) {
	s := suite.connect(t)

	mustWriteFile(t, s, "/trunc", []byte("a long first version"), native.OpenOptions{})
	mustWriteFile(t, s, "/trunc", []byte("short"), native.OpenOptions{})

	assert.Equal(t, []byte("short"), mustReadFile(t, s, "/trunc"))
}

func (suite *DriverTestSuite) testAppend(t *testing.T) {
	s := suite.connect(t)
	mustWriteFile(t, s, "/log", []byte("one\n"), native.OpenOptions{})

	f, err := s.OpenFile(testContext(), "/log", native.O_WRONLY|native.O_APPEND, native.OpenOptions{})
	require.NoError(t, err)
	_, err = s.Write(testContext(), f, []byte("two\n"))
	require.NoError(t, err)
	require.NoError(t, s.CloseFile(testContext(), f))

	assert.Equal(t, []byte("one\ntwo\n"), mustReadFile(t, s, "/log"))
}

func (suite *DriverTestSuite) testCreatesParents(t *testing.T) {
	s := suite.connect(t)
	mustWriteFile(t, s, "/a/b/c.txt", []byte("x"), native.OpenOptions{})

	info, err := s.Stat(testContext(), "/a/b")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func (suite *DriverTestSuite) testPreadPastEnd(t *testing.T) {
	s := suite.connect(t)
	mustWriteFile(t, s, "/short", []byte("abc"), native.OpenOptions{})

	f, err := s.OpenFile(testContext(), "/short", native.O_RDONLY, native.OpenOptions{})
	require.NoError(t, err)
	defer func() { _ = s.CloseFile(testContext(), f) }()

	n, err := s.Pread(testContext(), f, 3, make([]byte, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func (suite *DriverTestSuite) testPreadOffset(t *testing.T) {
	s := suite.connect(t)
	mustWriteFile(t, s, "/digits", []byte("0123456789"), native.OpenOptions{})

	f, err := s.OpenFile(testContext(), "/digits", native.O_RDONLY, native.OpenOptions{})
	require.NoError(t, err)
	defer func() { _ = s.CloseFile(testContext(), f) }()

	buf := make([]byte, 4)
	n, err := s.Pread(testContext(), f, 3, buf)
	require.NoError(t, err)
	assert.Equal(t, "3456", string(buf[:n]))

	// Positional reads never depend on earlier reads.
	n, err = s.Pread(testContext(), f, 0, buf)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(buf[:n]))
}

func (suite *DriverTestSuite) testPreadWriteHandle(t *testing.T) {
	s := suite.connect(t)

	f, err := s.OpenFile(testContext(), "/wonly", native.O_WRONLY|native.O_CREATE, native.OpenOptions{})
	require.NoError(t, err)
	defer func() { _ = s.CloseFile(testContext(), f) }()

	_, err = s.Pread(testContext(), f, 0, make([]byte, 1))
	assert.ErrorIs(t, err, native.ErrBadHandle)
}

func (suite *DriverTestSuite) testCloseInvalidates(t *testing.T) {
	s := suite.connect(t)
	mustWriteFile(t, s, "/closed", []byte("abc"), native.OpenOptions{})

	f, err := s.OpenFile(testContext(), "/closed", native.O_RDONLY, native.OpenOptions{})
	require.NoError(t, err)
	require.NoError(t, s.CloseFile(testContext(), f))

	_, err = s.Pread(testContext(), f, 0, make([]byte, 1))
	assert.ErrorIs(t, err, native.ErrBadHandle)
}

func (suite *DriverTestSuite) testLargeContent(t *testing.T) {
	s := suite.connect(t)
	data := bytes.Repeat([]byte("0123456789abcdef"), 4096)

	mustWriteFile(t, s, "/large", data, native.OpenOptions{BlockSize: max(1000, suite.BlockSize)})

	assert.Equal(t, data, mustReadFile(t, s, "/large"))
}
