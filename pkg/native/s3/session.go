package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/hdfsfile/pkg/native"
)

// deleteBatchSize is the S3 limit of keys per DeleteObjects request.
const deleteBatchSize = 1000

type session struct {
	driver *S3Driver
	bucket string
	closed bool
}

type file struct {
	owner       *session
	path        string
	key         string
	flags       int
	size        int64 // object size at open, for read tokens
	blockSize   int64
	replication int
	committed   []byte // uploaded content, for write tokens
	pending     []byte
	closed      bool
}

func (f *file) Path() string { return f.path }

func (s *session) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return native.ErrDisconnected
	}
	return nil
}

func (s *session) token(f native.File) (*file, error) {
	sf, ok := f.(*file)
	if !ok || sf.owner != s || sf.closed {
		return nil, native.ErrBadHandle
	}
	return sf, nil
}

func (s *session) observe(operation string, start time.Time, err error) {
	s.driver.cfg.Metrics.ObserveOperation(operation, time.Since(start), err)
}

func (s *session) Disconnect() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.driver.sessions.Add(-1)
	return nil
}

func (s *session) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.Stat(ctx, path)
	if errors.Is(err, native.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *session) Stat(ctx context.Context, path string) (*native.PathInfo, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	info, err := s.stat(ctx, native.CleanPath(path))
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return info, nil
}

// stat resolves p as an object first and as a directory prefix second.
func (s *session) stat(ctx context.Context, p string) (*native.PathInfo, error) {
	if p == "/" {
		return s.dirInfo(p, time.Time{}), nil
	}

	d := s.driver

	start := time.Now()
	head, err := d.cfg.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(d.objectKey(p)),
	})
	s.observe("HeadObject", start, err)
	if err == nil {
		return s.fileInfo(p, aws.ToInt64(head.ContentLength), aws.ToTime(head.LastModified), head.Metadata), nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("failed to head object: %w", err)
	}

	start = time.Now()
	list, err := d.cfg.Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(d.dirPrefix(p)),
		MaxKeys: aws.Int32(1),
	})
	s.observe("ListObjectsV2", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	if len(list.Contents) == 0 {
		return nil, native.ErrNotFound
	}

	return s.dirInfo(p, aws.ToTime(list.Contents[0].LastModified)), nil
}

func (s *session) dirInfo(p string, mtime time.Time) *native.PathInfo {
	return &native.PathInfo{
		Kind:        native.KindDirectory,
		Name:        p,
		Permissions: 0755,
		ModTime:     mtime,
		AccessTime:  mtime,
	}
}

func (s *session) fileInfo(p string, size int64, mtime time.Time, meta map[string]string) *native.PathInfo {
	blockSize := s.driver.cfg.BlockSize
	if v, err := strconv.ParseInt(meta[metaBlockSize], 10, 64); err == nil && v > 0 {
		blockSize = v
	}
	replication := int16(1)
	if v, err := strconv.ParseInt(meta[metaReplication], 10, 16); err == nil && v > 0 {
		replication = int16(v)
	}

	return &native.PathInfo{
		Kind:        native.KindFile,
		Name:        p,
		Size:        size,
		BlockSize:   blockSize,
		Replication: replication,
		Permissions: os.FileMode(0644),
		ModTime:     mtime,
		AccessTime:  mtime,
	}
}

func (s *session) OpenFile(ctx context.Context, path string, flags int, opts native.OpenOptions) (native.File, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	p := native.CleanPath(path)
	d := s.driver

	info, err := s.stat(ctx, p)
	switch {
	case err == nil && info.IsDir():
		return nil, fmt.Errorf("open %s: %w", path, native.ErrIsDirectory)
	case err != nil && !errors.Is(err, native.ErrNotFound):
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	exists := err == nil

	f := &file{owner: s, path: p, key: d.objectKey(p), flags: flags}

	if !native.IsWrite(flags) {
		if !exists {
			return nil, fmt.Errorf("open %s: %w", path, native.ErrNotFound)
		}
		f.size = info.Size
		f.blockSize = info.BlockSize
		f.replication = int(info.Replication)
		return f, nil
	}

	// ===== Append rewrites the existing object on every flush =====

	if exists && flags&native.O_APPEND != 0 {
		f.blockSize = info.BlockSize
		f.replication = int(info.Replication)

		current, err := s.getObject(ctx, f.key, "")
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		f.committed = current
		return f, nil
	}

	f.blockSize = opts.BlockSize
	if f.blockSize <= 0 {
		f.blockSize = d.cfg.BlockSize
	}
	f.replication = opts.Replication
	if f.replication <= 0 {
		f.replication = 1
	}

	// Creating (or truncating) uploads an empty object so the path exists
	// before the first flush.
	if err := s.putObject(ctx, f, nil); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return f, nil
}

// getObject downloads key, or the byte range rng when it is not empty.
func (s *session) getObject(ctx context.Context, key, rng string) ([]byte, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if rng != "" {
		input.Range = aws.String(rng)
	}

	start := time.Now()
	out, err := s.driver.cfg.Client.GetObject(ctx, input)
	s.observe("GetObject", start, err)
	if err != nil {
		if isNotFound(err) {
			return nil, native.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	s.driver.cfg.Metrics.RecordBytes("GetObject", int64(len(data)))
	return data, nil
}

// putObject uploads data as the whole content of f.
func (s *session) putObject(ctx context.Context, f *file, data []byte) error {
	start := time.Now()
	_, err := s.driver.cfg.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(f.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			metaBlockSize:   strconv.FormatInt(f.blockSize, 10),
			metaReplication: strconv.Itoa(f.replication),
		},
	})
	s.observe("PutObject", start, err)
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	s.driver.cfg.Metrics.RecordBytes("PutObject", int64(len(data)))
	return nil
}

func (s *session) Pread(ctx context.Context, f native.File, offset int64, buf []byte) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	sf, err := s.token(f)
	if err != nil {
		return 0, err
	}
	if native.IsWrite(sf.flags) {
		return 0, fmt.Errorf("pread %s: opened for write: %w", sf.path, native.ErrBadHandle)
	}
	if offset < 0 {
		return 0, fmt.Errorf("pread %s: negative offset %d", sf.path, offset)
	}
	if offset >= sf.size || len(buf) == 0 {
		return 0, nil
	}

	end := min(offset+int64(len(buf)), sf.size) - 1
	data, err := s.getObject(ctx, sf.key, fmt.Sprintf("bytes=%d-%d", offset, end))
	if err != nil {
		return 0, fmt.Errorf("pread %s: %w", sf.path, err)
	}

	return copy(buf, data), nil
}

func (s *session) Write(ctx context.Context, f native.File, buf []byte) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	sf, err := s.token(f)
	if err != nil {
		return 0, err
	}
	if !native.IsWrite(sf.flags) {
		return 0, fmt.Errorf("write %s: opened for read: %w", sf.path, native.ErrBadHandle)
	}

	sf.pending = append(sf.pending, buf...)
	return len(buf), nil
}

func (s *session) Flush(ctx context.Context, f native.File) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	sf, err := s.token(f)
	if err != nil {
		return err
	}
	if !native.IsWrite(sf.flags) {
		return nil
	}

	return s.commit(ctx, sf)
}

func (s *session) commit(ctx context.Context, sf *file) error {
	if len(sf.pending) == 0 {
		return nil
	}

	content := append(sf.committed, sf.pending...)
	if err := s.putObject(ctx, sf, content); err != nil {
		return fmt.Errorf("flush %s: %w", sf.path, err)
	}

	sf.committed = content
	sf.pending = nil
	return nil
}

func (s *session) CloseFile(ctx context.Context, f native.File) error {
	sf, err := s.token(f)
	if err != nil {
		return err
	}

	var commitErr error
	if native.IsWrite(sf.flags) && !s.closed {
		commitErr = s.commit(ctx, sf)
	}
	sf.closed = true
	sf.committed = nil
	return commitErr
}

func (s *session) Delete(ctx context.Context, path string, recursive bool) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	p := native.CleanPath(path)
	d := s.driver

	info, err := s.stat(ctx, p)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}

	if !info.IsDir() {
		start := time.Now()
		_, err := d.cfg.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(d.objectKey(p)),
		})
		s.observe("DeleteObject", start, err)
		if err != nil {
			return fmt.Errorf("delete %s: failed to delete object: %w", path, err)
		}
		return nil
	}

	if p == "/" {
		return fmt.Errorf("delete %s: refusing to remove root", path)
	}

	prefix := d.dirPrefix(p)
	keys, err := s.listKeys(ctx, prefix)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}

	if !recursive {
		for _, key := range keys {
			if key != prefix {
				return fmt.Errorf("delete %s: %w", path, native.ErrNotEmpty)
			}
		}
	}

	if err := s.deleteKeys(ctx, keys); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// listKeys returns every object key starting with prefix.
func (s *session) listKeys(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.driver.cfg.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		start := time.Now()
		page, err := paginator.NextPage(ctx)
		s.observe("ListObjectsV2", start, err)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// deleteKeys removes keys in DeleteObjects batches.
func (s *session) deleteKeys(ctx context.Context, keys []string) error {
	for i := 0; i < len(keys); i += deleteBatchSize {
		batch := keys[i:min(i+deleteBatchSize, len(keys))]

		objects := make([]types.ObjectIdentifier, len(batch))
		for j, key := range batch {
			objects[j] = types.ObjectIdentifier{Key: aws.String(key)}
		}

		start := time.Now()
		out, err := s.driver.cfg.Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		s.observe("DeleteObjects", start, err)
		if err != nil {
			return fmt.Errorf("failed to delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("failed to delete %d objects, first %s: %s",
				len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	return nil
}

func (s *session) MakeDirectory(ctx context.Context, path string) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	p := native.CleanPath(path)
	if p == "/" {
		return nil
	}

	info, err := s.stat(ctx, p)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("mkdir %s: %w", path, native.ErrExists)
		}
		return nil
	}
	if !errors.Is(err, native.ErrNotFound) {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}

	start := time.Now()
	_, err = s.driver.cfg.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.driver.dirPrefix(p)),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
	})
	s.observe("PutObject", start, err)
	if err != nil {
		return fmt.Errorf("mkdir %s: failed to create marker: %w", path, err)
	}
	return nil
}

func (s *session) ListDirectory(ctx context.Context, path string) ([]native.PathInfo, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	p := native.CleanPath(path)
	d := s.driver

	info, err := s.stat(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	if !info.IsDir() {
		return []native.PathInfo{*info}, nil
	}

	prefix := d.dirPrefix(p)
	paginator := s3.NewListObjectsV2Paginator(d.cfg.Client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	entries := make([]native.PathInfo, 0)
	for paginator.HasMorePages() {
		start := time.Now()
		page, err := paginator.NextPage(ctx)
		s.observe("ListObjectsV2", start, err)
		if err != nil {
			return nil, fmt.Errorf("list %s: failed to list objects: %w", path, err)
		}

		for _, cp := range page.CommonPrefixes {
			key := strings.TrimSuffix(aws.ToString(cp.Prefix), "/")
			entries = append(entries, *s.dirInfo(d.pathFromKey(key), time.Time{}))
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == prefix {
				continue // directory marker
			}
			entries = append(entries, *s.fileInfo(d.pathFromKey(key),
				aws.ToInt64(obj.Size), aws.ToTime(obj.LastModified), nil))
		}
	}

	return entries, nil
}

func (s *session) GetHosts(ctx context.Context, path string, start, length int64) ([][]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	info, err := s.stat(ctx, native.CleanPath(path))
	if err != nil {
		return nil, fmt.Errorf("get hosts %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("get hosts %s: %w", path, native.ErrIsDirectory)
	}

	return native.BlockHosts(info.Size, info.BlockSize, start, length,
		int(info.Replication), s.driver.cfg.Hosts), nil
}
