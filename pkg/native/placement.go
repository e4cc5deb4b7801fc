package native

// DefaultBlockSize is the block size emulating drivers use when neither the
// open call nor the driver configuration sets one (128MB, the HDFS default).
const DefaultBlockSize int64 = 128 * 1024 * 1024

// DefaultReplication is the HDFS default replica count.
const DefaultReplication = 3

// BlockRange returns the indexes [first, last] of the blocks that overlap
// [start, start+length) in a file of fileSize bytes. ok is false when no block
// overlaps, which is always the case for empty files and empty ranges.
func BlockRange(fileSize, blockSize, start, length int64) (first, last int64, ok bool) {
	if blockSize <= 0 || length <= 0 || start < 0 || start >= fileSize {
		return 0, 0, false
	}

	end := start + length
	if end > fileSize || end < start {
		end = fileSize
	}

	return start / blockSize, (end - 1) / blockSize, true
}

// PlaceReplicas returns the hosts holding block index when replicas are
// spread round-robin over datanodes.
//
// The result never repeats a datanode; replication is capped at
// len(datanodes).
func PlaceReplicas(index int64, replication int, datanodes []string) []string {
	n := len(datanodes)
	if n == 0 || replication <= 0 {
		return []string{}
	}
	if replication > n {
		replication = n
	}

	hosts := make([]string, 0, replication)
	for i := 0; i < replication; i++ {
		hosts = append(hosts, datanodes[(int(index%int64(n))+i)%n])
	}
	return hosts
}

// BlockHosts builds the per-block host lists for [start, start+length) of a
// file whose blocks are placed by PlaceReplicas.
func BlockHosts(fileSize, blockSize, start, length int64, replication int, datanodes []string) [][]string {
	first, last, ok := BlockRange(fileSize, blockSize, start, length)
	if !ok {
		return [][]string{}
	}

	blocks := make([][]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		blocks = append(blocks, PlaceReplicas(i, replication, datanodes))
	}
	return blocks
}
