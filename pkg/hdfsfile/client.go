// Package hdfsfile provides file handles over a block-oriented distributed
// filesystem reached through a native.Driver.
//
// A Client binds a driver to a default coordinator and open tuning. Every
// handle it returns owns a private Connection:
//
//	client, _ := hdfsfile.NewClient(driver, hdfsfile.Options{})
//	fh, err := client.Create(ctx, "/t")
//	...
//	fh.Write([]byte("HHHHHello worldddddd\n"))
//	fh.Flush()
//	fh.Close()
//
// FileHandle implements io.Reader, io.ReaderAt, io.Writer and io.Closer.
// Reads past the cached size return io.EOF. A closed handle that was opened
// successfully reopens itself read-only on the next Read.
package hdfsfile

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/hdfsfile/internal/logger"
	"github.com/marmos91/hdfsfile/internal/ratelimiter"
	"github.com/marmos91/hdfsfile/pkg/native"
)

// Options tunes a Client.
type Options struct {
	// Coordinator is used by entry points that do not name one
	// (default: native.DefaultCoordinator, the environment-configured one)
	Coordinator string

	// BufferSize, Replication and BlockSize are passed to native opens.
	// Zero selects the cluster defaults.
	BufferSize  int
	Replication int
	BlockSize   int64

	// ConnectRate caps new coordinator connections per second (0 = unlimited).
	// ConnectBurst is the number admitted at once (0 = ConnectRate).
	ConnectRate  uint
	ConnectBurst uint

	// Metrics collects operation statistics (optional)
	Metrics Metrics
}

// Client opens handles and runs namespace operations through a driver.
//
// A Client holds no mutable state and is safe for concurrent use; the handles
// it returns are not.
type Client struct {
	driver  native.Driver
	opts    Options
	metrics Metrics
	limiter *ratelimiter.Limiter
}

// NewClient creates a Client over driver.
//
// Parameters:
//   - driver: The native capability implementation
//   - opts: Default coordinator, open tuning and metrics
//
// Returns:
//   - *Client: The client
//   - error: If driver is nil
func NewClient(driver native.Driver, opts Options) (*Client, error) {
	if driver == nil {
		return nil, errors.New("hdfsfile: driver is required")
	}
	if opts.Coordinator == "" {
		opts.Coordinator = native.DefaultCoordinator
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	limiter := ratelimiter.New(opts.ConnectRate, opts.ConnectBurst)
	if limiter != nil {
		logger.Debug("hdfsfile: connects limited to %.0f/s, burst %d", limiter.Limit(), limiter.Burst())
	}

	return &Client{
		driver:  driver,
		opts:    opts,
		metrics: metrics,
		limiter: limiter,
	}, nil
}

// Coordinator returns the default coordinator.
func (c *Client) Coordinator() string {
	return c.opts.Coordinator
}

// Connect opens a Connection to coordinator ("" selects the default).
// The caller owns the connection and must Disconnect it.
//
// With Options.ConnectRate set, Connect waits for the limiter first.
func (c *Client) Connect(ctx context.Context, coordinator string) (*Connection, error) {
	coordinator = c.coordinatorOr(coordinator)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w: %w", coordinator, ErrConnectionFailed, err)
	}
	return connect(ctx, c.driver, coordinator, c.metrics)
}

func (c *Client) coordinatorOr(coordinator string) string {
	if coordinator == "" {
		return c.opts.Coordinator
	}
	return coordinator
}

func (c *Client) openOptions() native.OpenOptions {
	return native.OpenOptions{
		BufferSize:  c.opts.BufferSize,
		Replication: c.opts.Replication,
		BlockSize:   c.opts.BlockSize,
	}
}

// withConnection runs fn on a short-lived connection to coordinator.
func (c *Client) withConnection(ctx context.Context, coordinator string, fn func(*Connection) error) error {
	conn, err := c.Connect(ctx, coordinator)
	if err != nil {
		return err
	}
	defer conn.disconnectLogged()

	return fn(conn)
}

// Exists reports whether path exists on the default coordinator.
func (c *Client) Exists(ctx context.Context, path string) (bool, error) {
	if err := validatePath(path); err != nil {
		return false, err
	}

	var ok bool
	err := c.withConnection(ctx, "", func(conn *Connection) error {
		var err error
		ok, err = conn.Exists(ctx, path)
		return err
	})
	return ok, err
}

// Stat returns the metadata of path on the default coordinator.
func (c *Client) Stat(ctx context.Context, path string) (*native.PathInfo, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	var info *native.PathInfo
	err := c.withConnection(ctx, "", func(conn *Connection) error {
		var err error
		info, err = conn.Stat(ctx, path)
		return err
	})
	return info, err
}
