package badger

import (
	"fmt"
	"strings"
)

// Database Key Namespace Design
// ==============================
//
// The emulated namespace is flat: every path owns one metadata entry and zero
// or more data chunks. Paths are cleaned absolute paths and can never contain
// a NUL byte, so NUL separates a path from its chunk index.
//
// Data Type        Prefix   Key Format                       Value Type
// =======================================================================
// Path Metadata    "m:"     m:<path>                         record (JSON)
// File Chunks      "c:"     c:<path>\x00<index as %016x>     raw bytes
//
// Descendants of directory /a are found with a prefix scan of "m:/a/". Chunk
// indexes are fixed-width hex so an iterator visits them in file order.

const (
	// prefixMeta is the key prefix for path metadata
	prefixMeta = "m:"

	// prefixChunk is the key prefix for file content chunks
	prefixChunk = "c:"
)

// keyMeta generates the metadata key for path.
//
// Format: "m:<path>"
// Example: "m:/user/data/part-0000"
func keyMeta(path string) []byte {
	return []byte(prefixMeta + path)
}

// keyChunk generates the key of the index-th chunk of path.
//
// Format: "c:<path>\x00<index>"
func keyChunk(path string, index int64) []byte {
	return []byte(fmt.Sprintf("%s%s\x00%016x", prefixChunk, path, index))
}

// keyChunkPrefix generates the prefix shared by every chunk of path.
func keyChunkPrefix(path string) []byte {
	return []byte(prefixChunk + path + "\x00")
}

// keyDescendantPrefix generates the metadata prefix shared by every path
// below directory dir.
func keyDescendantPrefix(dir string) []byte {
	if dir == "/" {
		return []byte(prefixMeta + "/")
	}
	return []byte(prefixMeta + dir + "/")
}

// keyDescendantChunkPrefix generates the chunk prefix shared by every file
// below directory dir.
func keyDescendantChunkPrefix(dir string) []byte {
	if dir == "/" {
		return []byte(prefixChunk + "/")
	}
	return []byte(prefixChunk + dir + "/")
}

// pathFromMetaKey extracts the path from a metadata key.
func pathFromMetaKey(key []byte) string {
	return strings.TrimPrefix(string(key), prefixMeta)
}
