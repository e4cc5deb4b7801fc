package testing

import (
	"testing"

	"github.com/marmos91/hdfsfile/pkg/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionTests executes connection lifecycle tests.
func (suite *DriverTestSuite) RunSessionTests(t *testing.T) {
	suite.run(t, "Disconnect_Idempotent", suite.testDisconnectIdempotent)
	suite.run(t, "Disconnected_RejectsCalls", suite.testDisconnectedRejectsCalls)
	suite.run(t, "Root_Exists", suite.testRootExists)
}

func (suite *DriverTestSuite) testDisconnectIdempotent(t *testing.T) {
	driver := suite.NewDriver(t)

	s, err := driver.Connect(testContext(), native.DefaultCoordinator)
	require.NoError(t, err)

	assert.NoError(t, s.Disconnect())
	assert.NoError(t, s.Disconnect())
}

func (suite *DriverTestSuite) testDisconnectedRejectsCalls(t *testing.T) {
	driver := suite.NewDriver(t)

	s, err := driver.Connect(testContext(), native.DefaultCoordinator)
	require.NoError(t, err)
	require.NoError(t, s.Disconnect())

	_, err = s.Exists(testContext(), "/")
	assert.ErrorIs(t, err, native.ErrDisconnected)
}

func (suite *DriverTestSuite) testRootExists(t *testing.T) {
	s := suite.connect(t)

	ok, err := s.Exists(testContext(), "/")
	require.NoError(t, err)
	assert.True(t, ok)

	info, err := s.Stat(testContext(), "/")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
