package hdfsfile

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/hdfsfile/internal/logger"
	"github.com/marmos91/hdfsfile/pkg/native"
)

// Connection owns one live session to a coordinator.
//
// A Connection is exclusively owned by the FileHandle or helper that created
// it and is never shared. It is not safe for concurrent use.
type Connection struct {
	coordinator string
	session     native.Session
	metrics     Metrics
}

// connect establishes a session to coordinator through driver.
//
// Returns:
//   - *Connection: A live connection
//   - error: Wraps ErrConnectionFailed (and the driver error) when the
//     coordinator cannot be reached
func connect(ctx context.Context, driver native.Driver, coordinator string, metrics Metrics) (*Connection, error) {
	if coordinator == "" {
		coordinator = native.DefaultCoordinator
	}

	start := time.Now()
	session, err := driver.Connect(ctx, coordinator)
	metrics.ObserveOperation("connect", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w: %w", coordinator, ErrConnectionFailed, err)
	}

	metrics.ConnectionOpened()
	logger.Debug("hdfsfile: connected to %s", coordinator)

	return &Connection{
		coordinator: coordinator,
		session:     session,
		metrics:     metrics,
	}, nil
}

// Coordinator returns the coordinator the connection was opened to.
func (c *Connection) Coordinator() string {
	return c.coordinator
}

// Session returns the underlying driver session, or nil once disconnected.
func (c *Connection) Session() native.Session {
	return c.session
}

// Connected reports whether Disconnect has not been called yet.
func (c *Connection) Connected() bool {
	return c.session != nil
}

// Disconnect releases the session. Calls after the first are no-ops.
func (c *Connection) Disconnect() error {
	if c.session == nil {
		return nil
	}

	session := c.session
	c.session = nil
	c.metrics.ConnectionClosed()

	if err := session.Disconnect(); err != nil {
		return fmt.Errorf("disconnect %s: %w", c.coordinator, err)
	}

	logger.Debug("hdfsfile: disconnected from %s", c.coordinator)
	return nil
}

// disconnectLogged disconnects and logs any failure at WARN.
func (c *Connection) disconnectLogged() {
	if err := c.Disconnect(); err != nil {
		logger.Warn("hdfsfile: %v", err)
	}
}

// session returns the live session or ErrClosed.
func (c *Connection) live() (native.Session, error) {
	if c == nil || c.session == nil {
		return nil, ErrClosed
	}
	return c.session, nil
}
