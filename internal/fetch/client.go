// Package fetch retrieves the raw bytes of a track for offline analysis.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/satindergrewal/beatsync/internal/beat"
)

// DefaultMaxBytes caps a single download. Analysis only needs the first
// thirty seconds, but encoded formats have to be read from the start.
const DefaultMaxBytes = 256 << 20

// ErrNotFound is returned when the source does not exist.
var ErrNotFound = errors.New("source not found")

// Client fetches sources that are either http(s) URLs or local paths.
type Client struct {
	http     *http.Client
	maxBytes int64
}

// NewClient creates a fetch client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		maxBytes: DefaultMaxBytes,
	}
}

// SetMaxBytes changes the download cap. Larger payloads are rejected.
func (c *Client) SetMaxBytes(n int64) {
	c.maxBytes = n
}

// Fetch implements beat.Fetcher.
func (c *Client) Fetch(ctx context.Context, id beat.SourceID) ([]byte, error) {
	loc := string(id)
	if isURL(loc) {
		return c.download(ctx, loc)
	}
	return c.readFile(loc)
}

func isURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("download %s: %w", url, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	return c.readLimited(resp.Body)
}

func (c *Client) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("open %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return c.readLimited(f)
}

func (c *Client) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("audio larger than %d bytes", c.maxBytes)
	}
	return data, nil
}
