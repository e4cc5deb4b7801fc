package hdfsfile

import (
	"context"
	"fmt"
	"time"
)

// HostsForRange returns the hosts storing the bytes [start, end) of path on
// coordinator ("" selects the default).
//
// The per-block host lists reported by the driver are flattened in block
// order without deduplication, so a host holding replicas of two blocks
// appears twice. An empty range or an empty file yields an empty slice.
func (c *Client) HostsForRange(ctx context.Context, coordinator, path string, start, end int64) ([]string, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if start < 0 || end < start {
		return nil, fmt.Errorf("hosts %s [%d, %d): %w", path, start, end, ErrInvalidRange)
	}
	if start == end {
		return []string{}, nil
	}

	var hosts []string
	err := c.withConnection(ctx, coordinator, func(conn *Connection) error {
		session, err := conn.live()
		if err != nil {
			return err
		}

		begin := time.Now()
		blocks, err := session.GetHosts(ctx, path, start, end-start)
		c.metrics.ObserveOperation("get_hosts", time.Since(begin), err)
		if err != nil {
			return wrapNative("hosts", path, err)
		}

		hosts = flattenHosts(blocks)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hosts, nil
}

func flattenHosts(blocks [][]string) []string {
	total := 0
	for _, b := range blocks {
		total += len(b)
	}

	hosts := make([]string, 0, total)
	for _, b := range blocks {
		hosts = append(hosts, b...)
	}
	return hosts
}
