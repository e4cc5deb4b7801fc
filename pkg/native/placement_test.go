package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockRange(t *testing.T) {
	tests := []struct {
		name                         string
		fileSize, blockSize          int64
		start, length                int64
		wantFirst, wantLast          int64
		wantOK                       bool
	}{
		{"empty file", 0, 10, 0, 100, 0, 0, false},
		{"empty range", 100, 10, 5, 0, 0, 0, false},
		{"start past end", 100, 10, 100, 5, 0, 0, false},
		{"single block", 100, 10, 3, 4, 0, 0, true},
		{"block boundary", 100, 10, 10, 10, 1, 1, true},
		{"spanning", 100, 10, 15, 10, 1, 2, true},
		{"clamped to size", 25, 10, 0, 1000, 0, 2, true},
		{"negative start", 25, 10, -1, 5, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last, ok := BlockRange(tt.fileSize, tt.blockSize, tt.start, tt.length)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantFirst, first)
				assert.Equal(t, tt.wantLast, last)
			}
		})
	}
}

func TestPlaceReplicas(t *testing.T) {
	nodes := []string{"a", "b", "c"}

	assert.Equal(t, []string{"a", "b"}, PlaceReplicas(0, 2, nodes))
	assert.Equal(t, []string{"c", "a"}, PlaceReplicas(2, 2, nodes))
	assert.Equal(t, []string{"b", "c", "a"}, PlaceReplicas(4, 5, nodes), "replication is capped at the datanode count")
	assert.Empty(t, PlaceReplicas(0, 3, nil))
}

func TestIsChild(t *testing.T) {
	assert.True(t, IsChild("/", "/a"))
	assert.True(t, IsChild("/a", "/a/b"))
	assert.False(t, IsChild("/a", "/a/b/c"))
	assert.False(t, IsChild("/a", "/ab"))
	assert.False(t, IsChild("/a", "/a"))
}

func TestCleanPath(t *testing.T) {
	assert.Equal(t, "/a/b", CleanPath("a/b"))
	assert.Equal(t, "/a", CleanPath("/a/b/.."))
	assert.Equal(t, "/", CleanPath(""))
}
