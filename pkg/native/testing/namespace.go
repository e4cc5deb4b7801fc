package testing

import (
	"testing"

	"github.com/marmos91/hdfsfile/pkg/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunNamespaceTests executes exists, delete, mkdir and listing tests.
func (suite *DriverTestSuite) RunNamespaceTests(t *testing.T) {
	suite.run(t, "Stat_NotFound", suite.testStatNotFound)
	suite.run(t, "Delete_File", suite.testDeleteFile)
	suite.run(t, "Delete_NotFound", suite.testDeleteNotFound)
	suite.run(t, "Delete_NonEmptyDirectory", suite.testDeleteNonEmpty)
	suite.run(t, "Delete_Recursive", suite.testDeleteRecursive)
	suite.run(t, "MakeDirectory_Nested", suite.testMakeDirectoryNested)
	suite.run(t, "ListDirectory_Entries", suite.testListDirectory)
	suite.run(t, "ListDirectory_Empty", suite.testListEmpty)
	suite.run(t, "ListDirectory_NotFound", suite.testListNotFound)
}

func (suite *DriverTestSuite) testStatNotFound(t *testing.T) {
	s := suite.connect(t)

	_, err := s.Stat(testContext(), "/nope")
	assert.ErrorIs(t, err, native.ErrNotFound)

	ok, err := s.Exists(testContext(), "/nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func (suite *DriverTestSuite) testDeleteFile(t *testing.T) {
	s := suite.connect(t)
	mustWriteFile(t, s, "/gone", []byte("x"), native.OpenOptions{})

	require.NoError(t, s.Delete(testContext(), "/gone", false))

	ok, err := s.Exists(testContext(), "/gone")
	require.NoError(t, err)
	assert.False(t, ok)
}

func (suite *DriverTestSuite) testDeleteNotFound(t *testing.T) {
	s := suite.connect(t)

	err := s.Delete(testContext(), "/never", false)
	assert.ErrorIs(t, err, native.ErrNotFound)
}

func (suite *DriverTestSuite) testDeleteNonEmpty(t *testing.T) {
	s := suite.connect(t)
	mustWriteFile(t, s, "/full/file", []byte("x"), native.OpenOptions{})

	err := s.Delete(testContext(), "/full", false)
	assert.ErrorIs(t, err, native.ErrNotEmpty)

	ok, err := s.Exists(testContext(), "/full/file")
	require.NoError(t, err)
	assert.True(t, ok)
}

func (suite *DriverTestSuite) testDeleteRecursive(t *testing.T) {
	s := suite.connect(t)
	mustWriteFile(t, s, "/tree/a/1", []byte("x"), native.OpenOptions{})
	mustWriteFile(t, s, "/tree/b", []byte("y"), native.OpenOptions{})

	require.NoError(t, s.Delete(testContext(), "/tree", true))

	for _, p := range []string{"/tree", "/tree/a", "/tree/a/1", "/tree/b"} {
		ok, err := s.Exists(testContext(), p)
		require.NoError(t, err)
		assert.False(t, ok, p)
	}
}

func (suite *DriverTestSuite) testMakeDirectoryNested(t *testing.T) {
	s := suite.connect(t)

	require.NoError(t, s.MakeDirectory(testContext(), "/x/y/z"))
	require.NoError(t, s.MakeDirectory(testContext(), "/x/y/z"), "mkdir of an existing directory succeeds")

	for _, p := range []string{"/x", "/x/y", "/x/y/z"} {
		info, err := s.Stat(testContext(), p)
		require.NoError(t, err)
		assert.True(t, info.IsDir(), p)
	}
}

func (suite *DriverTestSuite) testListDirectory(t *testing.T) {
	s := suite.connect(t)
	mustWriteFile(t, s, "/list/a", []byte("a"), native.OpenOptions{})
	mustWriteFile(t, s, "/list/bb", []byte("bb"), native.OpenOptions{})
	mustWriteFile(t, s, "/list/sub/deep", []byte("deep"), native.OpenOptions{})

	entries, err := s.ListDirectory(testContext(), "/list")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byName := make(map[string]native.PathInfo)
	for _, e := range entries {
		byName[e.Name] = e
		assert.GreaterOrEqual(t, e.Size, int64(0))
	}

	require.Contains(t, byName, "/list/a")
	require.Contains(t, byName, "/list/bb")
	require.Contains(t, byName, "/list/sub")
	assert.Equal(t, int64(2), byName["/list/bb"].Size)
	sub := byName["/list/sub"]
	assert.True(t, sub.IsDir())
}

func (suite *DriverTestSuite) testListEmpty(t *testing.T) {
	s := suite.connect(t)
	require.NoError(t, s.MakeDirectory(testContext(), "/empty"))

	entries, err := s.ListDirectory(testContext(), "/empty")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func (suite *DriverTestSuite) testListNotFound(t *testing.T) {
	s := suite.connect(t)

	_, err := s.ListDirectory(testContext(), "/absent")
	assert.ErrorIs(t, err, native.ErrNotFound)
}
