// Package hdfs implements native.Driver against a real HDFS cluster using
// github.com/colinmarc/hdfs/v2, the pure Go namenode/datanode client.
//
// Block locations are not exposed by the client library, so GetHosts asks
// the namenode's WebHDFS endpoint (op=GETFILEBLOCKLOCATIONS).
package hdfs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/user"
	"strings"
	"sync/atomic"
	"time"

	"github.com/colinmarc/hdfs/v2"
	"github.com/colinmarc/hdfs/v2/hadoopconf"
	"github.com/marmos91/hdfsfile/internal/logger"
	"github.com/marmos91/hdfsfile/pkg/native"
)

// DefaultFSEnv names the environment variable consulted when the default
// coordinator is requested and no addresses are configured.
const DefaultFSEnv = "LIBHDFS_DEFAULT_FS"

const (
	defaultNamenodePort = "8020"
	defaultWebHDFSPort  = "9870"
)

// HDFSDriverConfig contains configuration for the HDFS driver.
type HDFSDriverConfig struct {
	// Addresses are the namenode host:port pairs used for the default
	// coordinator. Empty falls back to LIBHDFS_DEFAULT_FS, then to the
	// Hadoop configuration in HADOOP_CONF_DIR / HADOOP_HOME.
	Addresses []string `mapstructure:"addresses"`

	// User is the HDFS user name (default: the current OS user)
	User string `mapstructure:"user"`

	// WebHDFSAddress is the base URL of the namenode HTTP endpoint used for
	// block locations (default: http://<namenode host>:9870)
	WebHDFSAddress string `mapstructure:"webhdfs_address"`

	// HTTPTimeout bounds WebHDFS requests (default: 30s)
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// HDFSDriver implements native.Driver for HDFS namenodes.
//
// Every Connect dials a new hdfs.Client; sessions are independent and are
// closed by Disconnect.
type HDFSDriver struct {
	cfg      HDFSDriverConfig
	sessions atomic.Int64
}

// NewHDFSDriver returns a driver for cfg. No connection is made until
// Connect.
func NewHDFSDriver(cfg HDFSDriverConfig) (*HDFSDriver, error) {
	if cfg.User == "" {
		u, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("hdfs driver: resolve current user: %w", err)
		}
		cfg.User = u.Username
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.WebHDFSAddress != "" {
		if _, err := url.Parse(cfg.WebHDFSAddress); err != nil {
			return nil, fmt.Errorf("hdfs driver: invalid webhdfs_address: %w", err)
		}
	}

	return &HDFSDriver{cfg: cfg}, nil
}

// OpenSessions returns the number of sessions not yet disconnected.
func (d *HDFSDriver) OpenSessions() int {
	return int(d.sessions.Load())
}

// Connect implements native.Driver.
//
// The session is validated with a ServerDefaults call so an unreachable
// namenode is reported here rather than on first use.
func (d *HDFSDriver) Connect(ctx context.Context, coordinator string) (native.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts, err := d.clientOptions(coordinator)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", coordinator, err)
	}

	client, err := hdfs.NewClient(opts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("connect %s: %w", coordinator, native.ErrUnreachable), err)
	}

	defaults, err := client.ServerDefaults()
	if err != nil {
		_ = client.Close()
		return nil, errors.Join(fmt.Errorf("connect %s: server defaults: %w", coordinator, native.ErrUnreachable), err)
	}

	webURL := d.cfg.WebHDFSAddress
	if webURL == "" {
		webURL = defaultWebHDFSURL(opts.Addresses)
	}

	logger.Debug("hdfs: connected to %s as %s (block size %d, replication %d)",
		strings.Join(opts.Addresses, ","), opts.User, defaults.BlockSize, defaults.Replication)

	d.sessions.Add(1)
	return &session{
		driver:   d,
		client:   client,
		defaults: defaults,
		web:      newWebHDFS(webURL, opts.User, d.cfg.HTTPTimeout),
	}, nil
}

// clientOptions resolves coordinator into hdfs.ClientOptions.
func (d *HDFSDriver) clientOptions(coordinator string) (hdfs.ClientOptions, error) {
	if coordinator != "" && coordinator != native.DefaultCoordinator {
		addr, err := ParseCoordinator(coordinator)
		if err != nil {
			return hdfs.ClientOptions{}, err
		}
		return hdfs.ClientOptions{Addresses: []string{addr}, User: d.cfg.User}, nil
	}

	if len(d.cfg.Addresses) > 0 {
		return hdfs.ClientOptions{Addresses: d.cfg.Addresses, User: d.cfg.User}, nil
	}

	if defaultFS := os.Getenv(DefaultFSEnv); defaultFS != "" {
		addr, err := ParseCoordinator(defaultFS)
		if err != nil {
			return hdfs.ClientOptions{}, fmt.Errorf("%s: %w", DefaultFSEnv, err)
		}
		return hdfs.ClientOptions{Addresses: []string{addr}, User: d.cfg.User}, nil
	}

	conf, err := hadoopconf.LoadFromEnvironment()
	if err != nil {
		return hdfs.ClientOptions{}, fmt.Errorf("load hadoop configuration: %w", err)
	}
	opts := hdfs.ClientOptionsFromConf(conf)
	if len(opts.Addresses) == 0 {
		return hdfs.ClientOptions{}, fmt.Errorf("no namenode configured: set addresses, %s or HADOOP_CONF_DIR", DefaultFSEnv)
	}
	opts.User = d.cfg.User
	return opts, nil
}

// ParseCoordinator normalizes a coordinator string into a namenode
// host:port address. Accepted forms are "hdfs://host:port", "host:port" and
// "host" (port 8020).
func ParseCoordinator(coordinator string) (string, error) {
	c := strings.TrimSpace(coordinator)
	if c == "" {
		return "", errors.New("empty coordinator")
	}

	if strings.Contains(c, "://") {
		u, err := url.Parse(c)
		if err != nil {
			return "", fmt.Errorf("invalid coordinator %q: %w", coordinator, err)
		}
		if u.Scheme != "hdfs" {
			return "", fmt.Errorf("invalid coordinator %q: unsupported scheme %q", coordinator, u.Scheme)
		}
		c = u.Host
		if c == "" {
			return "", fmt.Errorf("invalid coordinator %q: missing host", coordinator)
		}
	}

	if _, _, err := net.SplitHostPort(c); err != nil {
		return net.JoinHostPort(c, defaultNamenodePort), nil
	}
	return c, nil
}

// defaultWebHDFSURL derives the namenode HTTP endpoint from the first RPC
// address.
func defaultWebHDFSURL(addresses []string) string {
	if len(addresses) == 0 {
		return ""
	}
	host, _, err := net.SplitHostPort(addresses[0])
	if err != nil {
		host = addresses[0]
	}
	return "http://" + net.JoinHostPort(host, defaultWebHDFSPort)
}
