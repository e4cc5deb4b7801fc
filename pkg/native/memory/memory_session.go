package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/marmos91/hdfsfile/pkg/native"
)

type session struct {
	driver  *MemoryDriver
	cluster *cluster
	closed  bool
}

type file struct {
	owner   *session
	path    string
	flags   int
	pending []byte
	closed  bool
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
	mf, ok := f.(*file)
	if !ok || mf.owner != s || mf.closed {
		return nil, native.ErrBadHandle
	}
	return mf, nil
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
	if err := s.check(ctx); err != nil {
		return false, err
	}

	s.cluster.mu.RLock()
	defer s.cluster.mu.RUnlock()

	_, ok := s.cluster.nodes[native.CleanPath(path)]
	return ok, nil
}

func (s *session) Stat(ctx context.Context, path string) (*native.PathInfo, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	s.cluster.mu.RLock()
	defer s.cluster.mu.RUnlock()

	n, ok := s.cluster.nodes[native.CleanPath(path)]
	if !ok {
		return nil, fmt.Errorf("stat %s: %w", path, native.ErrNotFound)
	}

	info := n.info
	return &info, nil
}

func (s *session) OpenFile(ctx context.Context, path string, flags int, opts native.OpenOptions) (native.File, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	p := native.CleanPath(path)
	cfg := &s.driver.cfg

	s.cluster.mu.Lock()
	defer s.cluster.mu.Unlock()

	n, exists := s.cluster.nodes[p]
	if exists && n.info.Kind == native.KindDirectory {
		return nil, fmt.Errorf("open %s: %w", path, native.ErrIsDirectory)
	}

	if !native.IsWrite(flags) {
		if !exists {
			return nil, fmt.Errorf("open %s: %w", path, native.ErrNotFound)
		}
		n.info.AccessTime = time.Now()
		return &file{owner: s, path: p, flags: flags}, nil
	}

	if exists && flags&native.O_APPEND != 0 {
		return &file{owner: s, path: p, flags: flags}, nil
	}

	if err := s.cluster.mkdirAllLocked(native.Parent(p), cfg); err != nil {
		return nil, err
	}

	blockSize := opts.BlockSize
	if blockSize <= 0 {
		blockSize = cfg.BlockSize
	}
	replication := opts.Replication
	if replication <= 0 {
		replication = cfg.Replication
	}

	now := time.Now()
	s.cluster.nodes[p] = &node{info: native.PathInfo{
		Kind:        native.KindFile,
		Name:        p,
		BlockSize:   blockSize,
		Replication: int16(replication),
		Owner:       cfg.Owner,
		Group:       cfg.Group,
		Permissions: 0644,
		ModTime:     now,
		AccessTime:  now,
	}}

	return &file{owner: s, path: p, flags: flags}, nil
}

func (s *session) Pread(ctx context.Context, f native.File, offset int64, buf []byte) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	mf, err := s.token(f)
	if err != nil {
		return 0, err
	}
	if native.IsWrite(mf.flags) {
		return 0, fmt.Errorf("pread %s: opened for write: %w", mf.path, native.ErrBadHandle)
	}
	if offset < 0 {
		return 0, fmt.Errorf("pread %s: negative offset %d", mf.path, offset)
	}

	s.cluster.mu.RLock()
	defer s.cluster.mu.RUnlock()

	n, ok := s.cluster.nodes[mf.path]
	if !ok {
		return 0, fmt.Errorf("pread %s: %w", mf.path, native.ErrNotFound)
	}
	if offset >= int64(len(n.data)) {
		return 0, nil
	}

	return copy(buf, n.data[offset:]), nil
}

func (s *session) Write(ctx context.Context, f native.File, buf []byte) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	mf, err := s.token(f)
	if err != nil {
		return 0, err
	}
	if !native.IsWrite(mf.flags) {
		return 0, fmt.Errorf("write %s: opened for read: %w", mf.path, native.ErrBadHandle)
	}

	mf.pending = append(mf.pending, buf...)
	return len(buf), nil
}

func (s *session) Flush(ctx context.Context, f native.File) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	mf, err := s.token(f)
	if err != nil {
		return err
	}
	if !native.IsWrite(mf.flags) {
		return nil
	}

	return s.commit(mf)
}

// commit appends pending bytes to the stored file.
func (s *session) commit(mf *file) error {
	if len(mf.pending) == 0 {
		return nil
	}

	s.cluster.mu.Lock()
	defer s.cluster.mu.Unlock()

	n, ok := s.cluster.nodes[mf.path]
	if !ok {
		return fmt.Errorf("flush %s: %w", mf.path, native.ErrNotFound)
	}

	n.data = append(n.data, mf.pending...)
	n.info.Size = int64(len(n.data))
	n.info.ModTime = time.Now()
	mf.pending = nil
	return nil
}

func (s *session) CloseFile(ctx context.Context, f native.File) error {
	mf, err := s.token(f)
	if err != nil {
		return err
	}

	var commitErr error
	if native.IsWrite(mf.flags) {
		commitErr = s.commit(mf)
	}
	mf.closed = true
	return commitErr
}

func (s *session) Delete(ctx context.Context, path string, recursive bool) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	p := native.CleanPath(path)

	s.cluster.mu.Lock()
	defer s.cluster.mu.Unlock()

	n, ok := s.cluster.nodes[p]
	if !ok {
		return fmt.Errorf("delete %s: %w", path, native.ErrNotFound)
	}

	if n.info.Kind == native.KindDirectory {
		if p == "/" {
			return fmt.Errorf("delete %s: refusing to remove root", path)
		}
		if !recursive && s.cluster.hasChildrenLocked(p) {
			return fmt.Errorf("delete %s: %w", path, native.ErrNotEmpty)
		}
		prefix := p + "/"
		for name := range s.cluster.nodes {
			if strings.HasPrefix(name, prefix) {
				delete(s.cluster.nodes, name)
			}
		}
	}

	delete(s.cluster.nodes, p)
	return nil
}

func (s *session) MakeDirectory(ctx context.Context, path string) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	s.cluster.mu.Lock()
	defer s.cluster.mu.Unlock()

	return s.cluster.mkdirAllLocked(native.CleanPath(path), &s.driver.cfg)
}

func (s *session) ListDirectory(ctx context.Context, path string) ([]native.PathInfo, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	p := native.CleanPath(path)

	s.cluster.mu.RLock()
	defer s.cluster.mu.RUnlock()

	n, ok := s.cluster.nodes[p]
	if !ok {
		return nil, fmt.Errorf("list %s: %w", path, native.ErrNotFound)
	}
	if n.info.Kind != native.KindDirectory {
		return []native.PathInfo{n.info}, nil
	}

	entries := make([]native.PathInfo, 0)
	for name, child := range s.cluster.nodes {
		if native.IsChild(p, name) {
			entries = append(entries, child.info)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (s *session) GetHosts(ctx context.Context, path string, start, length int64) ([][]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	s.cluster.mu.RLock()
	defer s.cluster.mu.RUnlock()

	n, ok := s.cluster.nodes[native.CleanPath(path)]
	if !ok {
		return nil, fmt.Errorf("get hosts %s: %w", path, native.ErrNotFound)
	}
	if n.info.Kind == native.KindDirectory {
		return nil, fmt.Errorf("get hosts %s: %w", path, native.ErrIsDirectory)
	}

	return native.BlockHosts(n.info.Size, n.info.BlockSize, start, length,
		int(n.info.Replication), s.driver.cfg.Datanodes), nil
}
