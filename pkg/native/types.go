package native

import (
	"os"
	"path"
	"strings"
	"time"
)

// Kind distinguishes files from directories.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// PathInfo is the metadata the coordinator keeps for a path.
type PathInfo struct {
	Kind        Kind
	Name        string
	Size        int64
	BlockSize   int64
	Replication int16
	Owner       string
	Group       string
	Permissions os.FileMode
	ModTime     time.Time
	AccessTime  time.Time
}

// IsDir reports whether the path is a directory.
func (p *PathInfo) IsDir() bool {
	return p.Kind == KindDirectory
}

// CleanPath normalizes p to an absolute slash-separated path.
func CleanPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Parent returns the parent directory of a cleaned path.
func Parent(p string) string {
	return path.Dir(p)
}

// IsChild reports whether child is a direct child of dir. Both paths must be
// cleaned.
func IsChild(dir, child string) bool {
	if child == dir {
		return false
	}
	prefix := dir
	if prefix != "/" {
		prefix += "/"
	}
	if !strings.HasPrefix(child, prefix) {
		return false
	}
	return !strings.Contains(child[len(prefix):], "/")
}
