package badger

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/marmos91/hdfsfile/pkg/native"
)

// record is the persisted form of native.PathInfo. The path itself is the
// key and is not repeated in the value.
type record struct {
	Kind        native.Kind `json:"kind"`
	Size        int64       `json:"size"`
	BlockSize   int64       `json:"block_size"`
	Replication int16       `json:"replication"`
	Owner       string      `json:"owner"`
	Group       string      `json:"group"`
	Mode        uint32      `json:"mode"`
	ModTime     time.Time   `json:"mtime"`
	AccessTime  time.Time   `json:"atime"`
}

// encodeRecord serializes a record to JSON bytes.
func encodeRecord(r *record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return data, nil
}

// decodeRecord deserializes JSON bytes into a record.
func decodeRecord(data []byte) (*record, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &r, nil
}

// toPathInfo converts the stored record of path into the driver-neutral form.
func (r *record) toPathInfo(path string) native.PathInfo {
	return native.PathInfo{
		Kind:        r.Kind,
		Name:        path,
		Size:        r.Size,
		BlockSize:   r.BlockSize,
		Replication: r.Replication,
		Owner:       r.Owner,
		Group:       r.Group,
		Permissions: os.FileMode(r.Mode),
		ModTime:     r.ModTime,
		AccessTime:  r.AccessTime,
	}
}
