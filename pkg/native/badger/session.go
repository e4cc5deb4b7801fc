package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/hdfsfile/pkg/native"
)

type session struct {
	driver *BadgerDriver
	closed bool
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
	bf, ok := f.(*file)
	if !ok || bf.owner != s || bf.closed {
		return nil, native.ErrBadHandle
	}
	return bf, nil
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

	p := native.CleanPath(path)

	var info native.PathInfo
	err := s.driver.db.View(func(txn *badger.Txn) error {
		r, err := getRecord(txn, p)
		if err != nil {
			return err
		}
		info = r.toPathInfo(p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &info, nil
}

func (s *session) OpenFile(ctx context.Context, path string, flags int, opts native.OpenOptions) (native.File, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	p := native.CleanPath(path)
	d := s.driver

	if !native.IsWrite(flags) {
		err := d.db.View(func(txn *badger.Txn) error {
			r, err := getRecord(txn, p)
			if err != nil {
				return err
			}
			if r.Kind == native.KindDirectory {
				return native.ErrIsDirectory
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return &file{owner: s, path: p, flags: flags}, nil
	}

	// ===== Write open: append keeps content, anything else truncates =====

	truncate := false
	err := d.db.Update(func(txn *badger.Txn) error {
		r, err := getRecord(txn, p)
		switch {
		case err == nil && r.Kind == native.KindDirectory:
			return native.ErrIsDirectory
		case err == nil && flags&native.O_APPEND != 0:
			return nil
		case err == nil:
			truncate = true
		case !errors.Is(err, native.ErrNotFound):
			return err
		}

		if err := d.mkdirAll(txn, native.Parent(p)); err != nil {
			return err
		}

		blockSize := opts.BlockSize
		if blockSize <= 0 {
			blockSize = d.cfg.BlockSize
		}
		replication := opts.Replication
		if replication <= 0 {
			replication = d.cfg.Replication
		}

		now := time.Now()
		return putRecord(txn, p, &record{
			Kind:        native.KindFile,
			BlockSize:   blockSize,
			Replication: int16(replication),
			Owner:       d.cfg.Owner,
			Group:       d.cfg.Group,
			Mode:        0644,
			ModTime:     now,
			AccessTime:  now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if truncate {
		var stale [][]byte
		_ = d.db.View(func(txn *badger.Txn) error {
			stale = collectKeys(txn, keyChunkPrefix(p))
			return nil
		})
		if err := d.deleteKeys(stale); err != nil {
			return nil, fmt.Errorf("open %s: truncate: %w", path, err)
		}
	}

	return &file{owner: s, path: p, flags: flags}, nil
}

func (s *session) Pread(ctx context.Context, f native.File, offset int64, buf []byte) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	bf, err := s.token(f)
	if err != nil {
		return 0, err
	}
	if native.IsWrite(bf.flags) {
		return 0, fmt.Errorf("pread %s: opened for write: %w", bf.path, native.ErrBadHandle)
	}
	if offset < 0 {
		return 0, fmt.Errorf("pread %s: negative offset %d", bf.path, offset)
	}

	chunkSize := int64(s.driver.cfg.ChunkSize)
	read := 0

	err = s.driver.db.View(func(txn *badger.Txn) error {
		r, err := getRecord(txn, bf.path)
		if err != nil {
			return err
		}

		end := offset + int64(len(buf))
		if end > r.Size {
			end = r.Size
		}

		for pos := offset; pos < end; {
			index := pos / chunkSize
			within := pos % chunkSize

			item, err := txn.Get(keyChunk(bf.path, index))
			if err != nil {
				return fmt.Errorf("chunk %d: %w", index, err)
			}

			err = item.Value(func(val []byte) error {
				if within >= int64(len(val)) {
					return fmt.Errorf("chunk %d: short chunk", index)
				}
				want := end - pos
				n := copy(buf[read:read+int(want)], val[within:])
				read += n
				pos += int64(n)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("pread %s: %w", bf.path, err)
	}

	return read, nil
}

func (s *session) Write(ctx context.Context, f native.File, buf []byte) (int, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}

	bf, err := s.token(f)
	if err != nil {
		return 0, err
	}
	if !native.IsWrite(bf.flags) {
		return 0, fmt.Errorf("write %s: opened for read: %w", bf.path, native.ErrBadHandle)
	}

	bf.pending = append(bf.pending, buf...)
	return len(buf), nil
}

func (s *session) Flush(ctx context.Context, f native.File) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	bf, err := s.token(f)
	if err != nil {
		return err
	}
	if !native.IsWrite(bf.flags) {
		return nil
	}

	return s.commit(bf)
}

// commit appends the pending bytes of bf to its stored content.
//
// Each chunk is written in its own transaction; the record's size is updated
// last.
func (s *session) commit(bf *file) error {
	if len(bf.pending) == 0 {
		return nil
	}

	db := s.driver.db
	chunkSize := int64(s.driver.cfg.ChunkSize)

	var size int64
	err := db.View(func(txn *badger.Txn) error {
		r, err := getRecord(txn, bf.path)
		if err != nil {
			return err
		}
		size = r.Size
		return nil
	})
	if err != nil {
		return fmt.Errorf("flush %s: %w", bf.path, err)
	}

	data := bf.pending
	offset := size
	for len(data) > 0 {
		index := offset / chunkSize
		within := offset % chunkSize
		n := min(int64(len(data)), chunkSize-within)

		err := db.Update(func(txn *badger.Txn) error {
			var chunk []byte
			if within > 0 {
				item, err := txn.Get(keyChunk(bf.path, index))
				if err != nil {
					return err
				}
				if chunk, err = item.ValueCopy(nil); err != nil {
					return err
				}
				if int64(len(chunk)) < within {
					return fmt.Errorf("short chunk of %d bytes", len(chunk))
				}
				chunk = chunk[:within]
			}
			chunk = append(chunk, data[:n]...)
			return txn.Set(keyChunk(bf.path, index), chunk)
		})
		if err != nil {
			return fmt.Errorf("flush %s: chunk %d: %w", bf.path, index, err)
		}

		data = data[n:]
		offset += n
	}

	err = db.Update(func(txn *badger.Txn) error {
		r, err := getRecord(txn, bf.path)
		if err != nil {
			return err
		}
		r.Size = offset
		r.ModTime = time.Now()
		return putRecord(txn, bf.path, r)
	})
	if err != nil {
		return fmt.Errorf("flush %s: %w", bf.path, err)
	}

	bf.pending = nil
	return nil
}

func (s *session) CloseFile(ctx context.Context, f native.File) error {
	bf, err := s.token(f)
	if err != nil {
		return err
	}

	var commitErr error
	if native.IsWrite(bf.flags) {
		commitErr = s.commit(bf)
	}
	bf.closed = true
	return commitErr
}

func (s *session) Delete(ctx context.Context, path string, recursive bool) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	p := native.CleanPath(path)
	d := s.driver

	var keys [][]byte
	err := d.db.View(func(txn *badger.Txn) error {
		r, err := getRecord(txn, p)
		if err != nil {
			return err
		}

		if r.Kind == native.KindDirectory {
			if p == "/" {
				return errors.New("refusing to remove root")
			}
			descendants := collectKeys(txn, keyDescendantPrefix(p))
			if !recursive && len(descendants) > 0 {
				return native.ErrNotEmpty
			}
			keys = append(keys, descendants...)
			keys = append(keys, collectKeys(txn, keyDescendantChunkPrefix(p))...)
		} else {
			keys = append(keys, collectKeys(txn, keyChunkPrefix(p))...)
		}

		keys = append(keys, keyMeta(p))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}

	if err := d.deleteKeys(keys); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *session) MakeDirectory(ctx context.Context, path string) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	p := native.CleanPath(path)
	return s.driver.db.Update(func(txn *badger.Txn) error {
		return s.driver.mkdirAll(txn, p)
	})
}

func (s *session) ListDirectory(ctx context.Context, path string) ([]native.PathInfo, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	p := native.CleanPath(path)
	entries := make([]native.PathInfo, 0)

	err := s.driver.db.View(func(txn *badger.Txn) error {
		r, err := getRecord(txn, p)
		if err != nil {
			return err
		}
		if r.Kind != native.KindDirectory {
			entries = append(entries, r.toPathInfo(p))
			return nil
		}

		prefix := keyDescendantPrefix(p)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			child := pathFromMetaKey(item.Key())
			if !native.IsChild(p, child) {
				continue
			}

			err := item.Value(func(val []byte) error {
				cr, err := decodeRecord(val)
				if err != nil {
					return err
				}
				entries = append(entries, cr.toPathInfo(child))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}

	return entries, nil
}

func (s *session) GetHosts(ctx context.Context, path string, start, length int64) ([][]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	p := native.CleanPath(path)

	var r *record
	err := s.driver.db.View(func(txn *badger.Txn) error {
		var err error
		r, err = getRecord(txn, p)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get hosts %s: %w", path, err)
	}
	if r.Kind == native.KindDirectory {
		return nil, fmt.Errorf("get hosts %s: %w", path, native.ErrIsDirectory)
	}

	return native.BlockHosts(r.Size, r.BlockSize, start, length,
		int(r.Replication), s.driver.cfg.Datanodes), nil
}
