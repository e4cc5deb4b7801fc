package testing

import (
	"bytes"
	"testing"

	"github.com/marmos91/hdfsfile/pkg/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunHostsTests executes block locality tests.
func (suite *DriverTestSuite) RunHostsTests(t *testing.T) {
	suite.run(t, "GetHosts_EmptyFile", suite.testHostsEmptyFile)
	suite.run(t, "GetHosts_BlocksCovered", suite.testHostsBlocksCovered)
	suite.run(t, "GetHosts_NotFound", suite.testHostsNotFound)
}

func (suite *DriverTestSuite) testHostsEmptyFile(t *testing.T) {
	s := suite.connect(t)
	mustWriteFile(t, s, "/empty-file", nil, native.OpenOptions{})

	blocks, err := s.GetHosts(testContext(), "/empty-file", 0, 100)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func (suite *DriverTestSuite) testHostsBlocksCovered(t *testing.T) {
	s := suite.connect(t)
	bs := suite.blockSize()
	data := bytes.Repeat([]byte("x"), int(4*bs))
	mustWriteFile(t, s, "/blocks", data, native.OpenOptions{BlockSize: bs, Replication: 2})

	all, err := s.GetHosts(testContext(), "/blocks", 0, 4*bs)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for _, hosts := range all {
		assert.NotEmpty(t, hosts)
	}

	// A block-sized range starting mid block 1 touches blocks 1 and 2 only.
	part, err := s.GetHosts(testContext(), "/blocks", bs+bs/2, bs)
	require.NoError(t, err)
	require.Len(t, part, 2)
	assert.Equal(t, all[1], part[0])
	assert.Equal(t, all[2], part[1])
}

func (suite *DriverTestSuite) testHostsNotFound(t *testing.T) {
	s := suite.connect(t)

	_, err := s.GetHosts(testContext(), "/nowhere", 0, 1)
	assert.ErrorIs(t, err, native.ErrNotFound)
}
