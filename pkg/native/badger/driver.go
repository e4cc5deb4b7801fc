package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/hdfsfile/pkg/native"
)

// DefaultChunkSize is the size of the value each content chunk is stored in.
const DefaultChunkSize = 1 << 20

// BadgerDriverConfig contains configuration for the BadgerDB cluster
// emulation.
type BadgerDriverConfig struct {
	// DBPath is the directory where BadgerDB stores its files.
	// Required unless InMemory is set.
	DBPath string `mapstructure:"db_path"`

	// InMemory keeps the database in memory only (no persistence)
	InMemory bool `mapstructure:"in_memory"`

	// Coordinators restricts the coordinator names Connect accepts.
	// Empty accepts any name. All names share one namespace.
	Coordinators []string `mapstructure:"coordinators"`

	// ChunkSize is the size of stored content values (default: 1MB)
	ChunkSize int `mapstructure:"chunk_size"`

	// BlockSize is the default block size for new files (default: 128MB)
	BlockSize int64 `mapstructure:"block_size"`

	// Replication is the default replica count for new files (default: 3)
	Replication int `mapstructure:"replication"`

	// Datanodes are the host names blocks are placed on (default: localhost)
	Datanodes []string `mapstructure:"datanodes"`

	// Owner and Group are recorded for new paths (default: "hdfs")
	Owner string `mapstructure:"owner"`
	Group string `mapstructure:"group"`
}

// BadgerDriver implements native.Driver on top of an embedded BadgerDB.
//
// It emulates a single-node cluster whose namespace survives restarts: path
// metadata and file content live in the database under the key schema
// documented in keys.go. Block placement is computed, not stored, with
// native.PlaceReplicas over the configured datanodes.
//
// Writes are buffered per open file and committed on Flush and CloseFile.
// Content is committed chunk by chunk before the metadata record, so readers
// never observe a size larger than the committed data.
//
// Thread Safety:
// The driver is safe for concurrent use. BadgerDB provides MVCC transactions;
// concurrent commits to the same file may fail with a conflict error.
type BadgerDriver struct {
	db  *badger.DB
	cfg BadgerDriverConfig

	sessions atomic.Int64
}

// NewBadgerDriver opens (or creates) the database described by cfg.
//
// Parameters:
//   - ctx: Context for cancellation
//   - cfg: Driver configuration
//
// Returns:
//   - *BadgerDriver: A driver ready for Connect
//   - error: Error if the database cannot be opened
func NewBadgerDriver(ctx context.Context, cfg BadgerDriverConfig) (*BadgerDriver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !cfg.InMemory && cfg.DBPath == "" {
		return nil, errors.New("badger driver: db_path is required")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = native.DefaultBlockSize
	}
	if cfg.Replication <= 0 {
		cfg.Replication = native.DefaultReplication
	}
	if len(cfg.Datanodes) == 0 {
		cfg.Datanodes = []string{"localhost"}
	}
	if cfg.Owner == "" {
		cfg.Owner = "hdfs"
	}
	if cfg.Group == "" {
		cfg.Group = "hdfs"
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.DBPath)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	d := &BadgerDriver{db: db, cfg: cfg}
	if err := d.initializeRoot(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize root: %w", err)
	}

	return d, nil
}

// initializeRoot creates the "/" record on first open.
func (d *BadgerDriver) initializeRoot() error {
	return d.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyMeta("/"))
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		now := time.Now()
		return putRecord(txn, "/", &record{
			Kind:       native.KindDirectory,
			Owner:      d.cfg.Owner,
			Group:      d.cfg.Group,
			Mode:       0755,
			ModTime:    now,
			AccessTime: now,
		})
	})
}

// Close closes the database. Sessions must not be used afterwards.
func (d *BadgerDriver) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

// OpenSessions returns the number of sessions not yet disconnected.
func (d *BadgerDriver) OpenSessions() int {
	return int(d.sessions.Load())
}

// Connect implements native.Driver.
func (d *BadgerDriver) Connect(ctx context.Context, coordinator string) (native.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if coordinator == "" {
		coordinator = native.DefaultCoordinator
	}
	if len(d.cfg.Coordinators) > 0 && !slices.Contains(d.cfg.Coordinators, coordinator) {
		return nil, fmt.Errorf("connect %s: %w", coordinator, native.ErrUnreachable)
	}

	d.sessions.Add(1)
	return &session{driver: d}, nil
}

// getRecord loads the record of path. Missing paths return native.ErrNotFound.
func getRecord(txn *badger.Txn, path string) (*record, error) {
	item, err := txn.Get(keyMeta(path))
	if err == badger.ErrKeyNotFound {
		return nil, native.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var r *record
	err = item.Value(func(val []byte) error {
		r, err = decodeRecord(val)
		return err
	})
	return r, err
}

// putRecord stores the record of path.
func putRecord(txn *badger.Txn, path string, r *record) error {
	data, err := encodeRecord(r)
	if err != nil {
		return err
	}
	return txn.Set(keyMeta(path), data)
}

// mkdirAll creates dir and its missing parents inside txn.
func (d *BadgerDriver) mkdirAll(txn *badger.Txn, dir string) error {
	r, err := getRecord(txn, dir)
	if err == nil {
		if r.Kind != native.KindDirectory {
			return fmt.Errorf("mkdir %s: %w", dir, native.ErrExists)
		}
		return nil
	}
	if !errors.Is(err, native.ErrNotFound) {
		return err
	}

	if err := d.mkdirAll(txn, native.Parent(dir)); err != nil {
		return err
	}

	now := time.Now()
	return putRecord(txn, dir, &record{
		Kind:       native.KindDirectory,
		Owner:      d.cfg.Owner,
		Group:      d.cfg.Group,
		Mode:       0755,
		ModTime:    now,
		AccessTime: now,
	})
}

// collectKeys returns copies of every key with prefix.
func collectKeys(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// deleteKeys removes keys with a write batch, which splits oversized
// deletions across transactions.
func (d *BadgerDriver) deleteKeys(keys [][]byte) error {
	if len(keys) == 0 {
		return nil
	}

	wb := d.db.NewWriteBatch()
	defer wb.Cancel()

	for _, key := range keys {
		if err := wb.Delete(key); err != nil {
			return err
		}
	}
	return wb.Flush()
}
