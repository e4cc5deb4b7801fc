package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/hdfsfile/pkg/native"
)

// MemoryDriverConfig configures the in-memory cluster emulation.
type MemoryDriverConfig struct {
	// Coordinators restricts the coordinator names Connect accepts.
	// Empty accepts any name; each distinct name gets its own namespace.
	Coordinators []string `mapstructure:"coordinators"`

	// BlockSize is the default block size for new files (default: 128MB)
	BlockSize int64 `mapstructure:"block_size"`

	// Replication is the default replica count for new files (default: 3)
	Replication int `mapstructure:"replication"`

	// Datanodes are the host names blocks are placed on
	// (default: datanode-1..datanode-3)
	Datanodes []string `mapstructure:"datanodes"`

	// Owner and Group are reported for every path (default: "hdfs")
	Owner string `mapstructure:"owner"`
	Group string `mapstructure:"group"`
}

// MemoryDriver implements native.Driver with per-coordinator namespaces kept
// in memory.
//
// It is designed for tests and development: contents are volatile and every
// operation completes at memory speed. Placement of block replicas follows
// native.PlaceReplicas over the configured datanodes.
//
// Thread Safety:
// The driver and each namespace are safe for concurrent use. Individual
// sessions and file tokens follow the native package contract and must not be
// shared between goroutines.
type MemoryDriver struct {
	cfg MemoryDriverConfig

	mu       sync.Mutex
	clusters map[string]*cluster

	sessions atomic.Int64
}

// NewMemoryDriver creates an empty in-memory cluster.
func NewMemoryDriver(cfg MemoryDriverConfig) *MemoryDriver {
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = native.DefaultBlockSize
	}
	if cfg.Replication <= 0 {
		cfg.Replication = native.DefaultReplication
	}
	if len(cfg.Datanodes) == 0 {
		cfg.Datanodes = []string{"datanode-1", "datanode-2", "datanode-3"}
	}
	if cfg.Owner == "" {
		cfg.Owner = "hdfs"
	}
	if cfg.Group == "" {
		cfg.Group = "hdfs"
	}

	return &MemoryDriver{
		cfg:      cfg,
		clusters: make(map[string]*cluster),
	}
}

// OpenSessions returns the number of sessions not yet disconnected.
func (d *MemoryDriver) OpenSessions() int {
	return int(d.sessions.Load())
}

// Connect implements native.Driver.
func (d *MemoryDriver) Connect(ctx context.Context, coordinator string) (native.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if coordinator == "" {
		coordinator = native.DefaultCoordinator
	}

	if len(d.cfg.Coordinators) > 0 && !d.accepts(coordinator) {
		return nil, fmt.Errorf("connect %s: %w", coordinator, native.ErrUnreachable)
	}

	d.mu.Lock()
	c, ok := d.clusters[coordinator]
	if !ok {
		c = newCluster()
		d.clusters[coordinator] = c
	}
	d.mu.Unlock()

	d.sessions.Add(1)
	return &session{driver: d, cluster: c}, nil
}

func (d *MemoryDriver) accepts(coordinator string) bool {
	for _, name := range d.cfg.Coordinators {
		if name == coordinator {
			return true
		}
	}
	return false
}

// cluster is one coordinator's namespace.
type cluster struct {
	mu    sync.RWMutex
	nodes map[string]*node
}

type node struct {
	info native.PathInfo
	data []byte
}

func newCluster() *cluster {
	now := time.Now()
	return &cluster{
		nodes: map[string]*node{
			"/": {info: native.PathInfo{
				Kind:        native.KindDirectory,
				Name:        "/",
				Permissions: 0755,
				ModTime:     now,
				AccessTime:  now,
			}},
		},
	}
}

// mkdirAllLocked creates p and its parents. Caller holds c.mu.
func (c *cluster) mkdirAllLocked(p string, cfg *MemoryDriverConfig) error {
	if n, ok := c.nodes[p]; ok {
		if n.info.Kind != native.KindDirectory {
			return fmt.Errorf("mkdir %s: %w", p, native.ErrExists)
		}
		return nil
	}

	if err := c.mkdirAllLocked(native.Parent(p), cfg); err != nil {
		return err
	}

	now := time.Now()
	c.nodes[p] = &node{info: native.PathInfo{
		Kind:        native.KindDirectory,
		Name:        p,
		Owner:       cfg.Owner,
		Group:       cfg.Group,
		Permissions: 0755,
		ModTime:     now,
		AccessTime:  now,
	}}
	return nil
}

// hasChildrenLocked reports whether directory p has entries. Caller holds c.mu.
func (c *cluster) hasChildrenLocked(p string) bool {
	for name := range c.nodes {
		if native.IsChild(p, name) {
			return true
		}
	}
	return false
}
