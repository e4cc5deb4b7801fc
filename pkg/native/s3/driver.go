// Package s3 implements native.Driver on an S3-compatible object store.
//
// Files are objects keyed by their path relative to the bucket root (with an
// optional key prefix). Directories are implicit: a path is a directory when
// any object lives below it. MakeDirectory stores an empty "<dir>/" marker so
// empty directories survive. Objects are immutable, so writes are buffered
// in the open file and uploaded whole on every Flush.
package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/hdfsfile/pkg/native"
)

// Client is the subset of *s3.Client the driver uses.
type Client interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Object metadata keys carrying the block layout of a file.
const (
	metaBlockSize   = "block-size"
	metaReplication = "replication"
)

// S3DriverConfig contains configuration for the S3 driver.
type S3DriverConfig struct {
	// Client is the configured S3 client
	Client Client

	// Bucket is used for the default coordinator. Any other coordinator
	// name is taken as a bucket name.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "hdfs/" maps /a/b to "hdfs/a/b"
	KeyPrefix string

	// BlockSize is the logical block size reported for files (default: 128MB)
	BlockSize int64

	// Hosts are reported as the location of every block.
	// Defaults to the host of Endpoint, or the bucket name.
	Hosts []string

	// Endpoint is the service endpoint, used to derive Hosts
	Endpoint string

	// Metrics receives per-request observations (optional)
	Metrics S3Metrics
}

// S3Driver implements native.Driver over one or more buckets.
//
// Thread Safety:
// The driver is safe for concurrent use. Concurrent writers of the same path
// follow S3 last-write-wins semantics.
type S3Driver struct {
	cfg      S3DriverConfig
	sessions atomic.Int64
}

// NewS3Driver validates cfg and returns a driver.
//
// Parameters:
//   - cfg: S3 driver configuration
//
// Returns:
//   - *S3Driver: Driver ready for Connect
//   - error: Returns error if the client or bucket is missing
func NewS3Driver(cfg S3DriverConfig) (*S3Driver, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = native.DefaultBlockSize
	}
	if cfg.KeyPrefix != "" && !strings.HasSuffix(cfg.KeyPrefix, "/") {
		cfg.KeyPrefix += "/"
	}
	if len(cfg.Hosts) == 0 {
		cfg.Hosts = []string{endpointHost(cfg.Endpoint, cfg.Bucket)}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}

	return &S3Driver{cfg: cfg}, nil
}

// endpointHost returns the host name of endpoint, falling back to bucket.
func endpointHost(endpoint, bucket string) string {
	if endpoint != "" {
		if u, err := url.Parse(endpoint); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	return bucket
}

// OpenSessions returns the number of sessions not yet disconnected.
func (d *S3Driver) OpenSessions() int {
	return int(d.sessions.Load())
}

// Connect implements native.Driver. The bucket is probed with HeadBucket.
func (d *S3Driver) Connect(ctx context.Context, coordinator string) (native.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bucket := d.cfg.Bucket
	if coordinator != "" && coordinator != native.DefaultCoordinator {
		bucket = coordinator
	}

	start := time.Now()
	_, err := d.cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	d.cfg.Metrics.ObserveOperation("HeadBucket", time.Since(start), err)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("connect bucket %q: %w", bucket, native.ErrUnreachable), err)
	}

	d.sessions.Add(1)
	return &session{driver: d, bucket: bucket}, nil
}

// objectKey maps a cleaned path to its object key. The root maps to the
// key prefix itself.
func (d *S3Driver) objectKey(p string) string {
	return d.cfg.KeyPrefix + strings.TrimPrefix(p, "/")
}

// dirPrefix returns the key prefix shared by every object below directory p.
func (d *S3Driver) dirPrefix(p string) string {
	if p == "/" {
		return d.cfg.KeyPrefix
	}
	return d.objectKey(p) + "/"
}

// pathFromKey maps an object key (without a trailing slash) back to a path.
func (d *S3Driver) pathFromKey(key string) string {
	return "/" + strings.TrimPrefix(key, d.cfg.KeyPrefix)
}

// isNotFound reports whether err is an S3 missing-object error.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
