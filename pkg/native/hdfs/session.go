package hdfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"syscall"

	"github.com/colinmarc/hdfs/v2"
	"github.com/marmos91/hdfsfile/pkg/native"
)

const (
	defaultFilePermissions os.FileMode = 0644
	defaultDirPermissions  os.FileMode = 0755
)

type session struct {
	driver   *HDFSDriver
	client   *hdfs.Client
	defaults hdfs.ServerDefaults
	web      *webHDFS
	closed   bool
}

type file struct {
	owner  *session
	path   string
	reader *hdfs.FileReader
	writer *hdfs.FileWriter
	closed bool
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
	hf, ok := f.(*file)
	if !ok || hf.owner != s || hf.closed {
		return nil, native.ErrBadHandle
	}
	return hf, nil
}

// mapError translates client errors into native sentinels, keeping the
// original error in the chain.
func mapError(op, p string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errors.Join(fmt.Errorf("%s %s: %w", op, p, native.ErrNotFound), err)
	case errors.Is(err, fs.ErrExist):
		return errors.Join(fmt.Errorf("%s %s: %w", op, p, native.ErrExists), err)
	case errors.Is(err, syscall.ENOTEMPTY):
		return errors.Join(fmt.Errorf("%s %s: %w", op, p, native.ErrNotEmpty), err)
	case errors.Is(err, syscall.EISDIR):
		return errors.Join(fmt.Errorf("%s %s: %w", op, p, native.ErrIsDirectory), err)
	default:
		return fmt.Errorf("%s %s: %w", op, p, err)
	}
}

// toPathInfo converts a FileInfo returned by the client. name is the full
// path the info describes.
func toPathInfo(name string, fi os.FileInfo) native.PathInfo {
	info := native.PathInfo{
		Kind:        native.KindFile,
		Name:        name,
		Size:        fi.Size(),
		Permissions: fi.Mode().Perm(),
		ModTime:     fi.ModTime(),
	}
	if fi.IsDir() {
		info.Kind = native.KindDirectory
		info.Size = 0
	}

	hfi, ok := fi.(*hdfs.FileInfo)
	if !ok {
		return info
	}
	info.Owner = hfi.Owner()
	info.Group = hfi.OwnerGroup()
	info.AccessTime = hfi.AccessTime()

	if st, ok := hfi.Sys().(*hdfs.FileStatus); ok && st != nil {
		info.BlockSize = int64(st.GetBlocksize())
		info.Replication = int16(st.GetBlockReplication())
	}
	return info
}

func (s *session) Disconnect() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.driver.sessions.Add(-1)
	return s.client.Close()
}

func (s *session) Exists(ctx context.Context, p string) (bool, error) {
	if err := s.check(ctx); err != nil {
		return false, err
	}

	_, err := s.client.Stat(native.CleanPath(p))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, mapError("stat", p, err)
	}
	return true, nil
}

func (s *session) Stat(ctx context.Context, p string) (*native.PathInfo, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	name := native.CleanPath(p)
	fi, err := s.client.Stat(name)
	if err != nil {
		return nil, mapError("stat", p, err)
	}

	info := toPathInfo(name, fi)
	return &info, nil
}

// createOptions fills zero open options from the server defaults.
func (s *session) createOptions(opts native.OpenOptions) (replication int, blockSize int64) {
	replication = opts.Replication
	if replication <= 0 {
		replication = s.defaults.Replication
	}
	if replication <= 0 {
		replication = native.DefaultReplication
	}

	blockSize = opts.BlockSize
	if blockSize <= 0 {
		blockSize = s.defaults.BlockSize
	}
	if blockSize <= 0 {
		blockSize = native.DefaultBlockSize
	}
	return replication, blockSize
}

func (s *session) OpenFile(ctx context.Context, p string, flags int, opts native.OpenOptions) (native.File, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	name := native.CleanPath(p)
	f := &file{owner: s, path: name}

	if fi, err := s.client.Stat(name); err == nil && fi.IsDir() {
		return nil, fmt.Errorf("open %s: %w", p, native.ErrIsDirectory)
	}

	var err error
	switch {
	case !native.IsWrite(flags):
		f.reader, err = s.client.Open(name)
		if err != nil {
			return nil, mapError("open", p, err)
		}

	case flags&native.O_APPEND != 0:
		f.writer, err = s.client.Append(name)
		if errors.Is(err, fs.ErrNotExist) && flags&native.O_CREATE != 0 {
			f.writer, err = s.createFile(name, opts)
		}
		if err != nil {
			return nil, mapError("append", p, err)
		}

	default:
		// CreateFile refuses existing paths; truncation is remove + create.
		if err := s.client.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, mapError("truncate", p, err)
		}
		f.writer, err = s.createFile(name, opts)
		if err != nil {
			return nil, mapError("create", p, err)
		}
	}

	return f, nil
}

// createFile creates name and any missing parents. CreateFile alone asks the
// namenode not to create parents.
func (s *session) createFile(name string, opts native.OpenOptions) (*hdfs.FileWriter, error) {
	if err := s.client.MkdirAll(path.Dir(name), defaultDirPermissions); err != nil {
		return nil, err
	}
	replication, blockSize := s.createOptions(opts)
	return s.client.CreateFile(name, replication, blockSize, defaultFilePermissions)
}

func (s *session) Pread(ctx context.Context, f native.File, offset int64, buf []byte) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	hf, err := s.token(f)
	if err != nil {
		return 0, err
	}
	if hf.reader == nil {
		return 0, fmt.Errorf("pread %s: opened for write: %w", hf.path, native.ErrBadHandle)
	}
	if offset >= hf.reader.Stat().Size() {
		return 0, nil
	}

	n, err := hf.reader.ReadAt(buf, offset)
	if errors.Is(err, io.EOF) {
		return n, nil
	}
	if err != nil {
		return n, mapError("pread", hf.path, err)
	}
	return n, nil
}

func (s *session) Write(ctx context.Context, f native.File, buf []byte) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	hf, err := s.token(f)
	if err != nil {
		return 0, err
	}
	if hf.writer == nil {
		return 0, fmt.Errorf("write %s: opened for read: %w", hf.path, native.ErrBadHandle)
	}

	n, err := hf.writer.Write(buf)
	if err != nil {
		return n, mapError("write", hf.path, err)
	}
	return n, nil
}

func (s *session) Flush(ctx context.Context, f native.File) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	hf, err := s.token(f)
	if err != nil {
		return err
	}
	if hf.writer == nil {
		return nil
	}

	return mapError("flush", hf.path, hf.writer.Flush())
}

func (s *session) CloseFile(ctx context.Context, f native.File) error {
	hf, err := s.token(f)
	if err != nil {
		return err
	}
	hf.closed = true

	if hf.writer != nil {
		return mapError("close", hf.path, hf.writer.Close())
	}
	return mapError("close", hf.path, hf.reader.Close())
}

func (s *session) Delete(ctx context.Context, p string, recursive bool) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	name := native.CleanPath(p)
	if name == "/" {
		return fmt.Errorf("delete %s: refusing to remove root", p)
	}

	if recursive {
		if _, err := s.client.Stat(name); err != nil {
			return mapError("delete", p, err)
		}
		return mapError("delete", p, s.client.RemoveAll(name))
	}
	return mapError("delete", p, s.client.Remove(name))
}

func (s *session) MakeDirectory(ctx context.Context, p string) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	return mapError("mkdir", p, s.client.MkdirAll(native.CleanPath(p), defaultDirPermissions))
}

func (s *session) ListDirectory(ctx context.Context, p string) ([]native.PathInfo, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	name := native.CleanPath(p)
	fi, err := s.client.Stat(name)
	if err != nil {
		return nil, mapError("list", p, err)
	}
	if !fi.IsDir() {
		return []native.PathInfo{toPathInfo(name, fi)}, nil
	}

	children, err := s.client.ReadDir(name)
	if err != nil {
		return nil, mapError("list", p, err)
	}

	entries := make([]native.PathInfo, 0, len(children))
	for _, child := range children {
		entries = append(entries, toPathInfo(path.Join(name, child.Name()), child))
	}
	return entries, nil
}

func (s *session) GetHosts(ctx context.Context, p string, start, length int64) ([][]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	name := native.CleanPath(p)
	fi, err := s.client.Stat(name)
	if err != nil {
		return nil, mapError("get hosts", p, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("get hosts %s: %w", p, native.ErrIsDirectory)
	}
	if fi.Size() == 0 || length <= 0 || start >= fi.Size() {
		return [][]string{}, nil
	}

	blocks, err := s.web.blockHosts(ctx, name, start, length)
	if err != nil {
		return nil, mapError("get hosts", p, err)
	}
	return blocks, nil
}
