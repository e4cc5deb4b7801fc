package hdfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/marmos91/hdfsfile/pkg/native"
)

// webHDFS queries block locations over the namenode REST API.
type webHDFS struct {
	base   string
	user   string
	client *http.Client
}

func newWebHDFS(base, user string, timeout time.Duration) *webHDFS {
	return &webHDFS{
		base:   strings.TrimSuffix(base, "/"),
		user:   user,
		client: &http.Client{Timeout: timeout},
	}
}

// blockLocationsResponse is the GETFILEBLOCKLOCATIONS payload.
type blockLocationsResponse struct {
	BlockLocations struct {
		BlockLocation []struct {
			Hosts  []string `json:"hosts"`
			Offset int64    `json:"offset"`
			Length int64    `json:"length"`
		} `json:"BlockLocation"`
	} `json:"BlockLocations"`
}

// remoteException is the error payload WebHDFS returns with non-2xx codes.
type remoteException struct {
	RemoteException struct {
		Exception string `json:"exception"`
		Message   string `json:"message"`
	} `json:"RemoteException"`
}

// blockHosts returns the hosts of every block overlapping
// [offset, offset+length) of p, in block order.
func (w *webHDFS) blockHosts(ctx context.Context, p string, offset, length int64) ([][]string, error) {
	if w.base == "" {
		return nil, fmt.Errorf("webhdfs address unknown: %w", native.ErrUnsupported)
	}

	q := url.Values{}
	q.Set("op", "GETFILEBLOCKLOCATIONS")
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("length", strconv.FormatInt(length, 10))
	if w.user != "" {
		q.Set("user.name", w.user)
	}

	u := w.base + "/webhdfs/v1" + (&url.URL{Path: p}).EscapedPath() + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhdfs request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("webhdfs response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var rex remoteException
		_ = json.Unmarshal(body, &rex)
		if resp.StatusCode == http.StatusNotFound || rex.RemoteException.Exception == "FileNotFoundException" {
			return nil, native.ErrNotFound
		}
		return nil, fmt.Errorf("webhdfs %s: %s %s", resp.Status,
			rex.RemoteException.Exception, rex.RemoteException.Message)
	}

	var out blockLocationsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("webhdfs response: %w", err)
	}

	blocks := make([][]string, 0, len(out.BlockLocations.BlockLocation))
	for _, loc := range out.BlockLocations.BlockLocation {
		hosts := make([]string, len(loc.Hosts))
		copy(hosts, loc.Hosts)
		blocks = append(blocks, hosts)
	}
	return blocks, nil
}
