// Package snapshot fetches published allowlists for drops. Allowlists are
// not stored on the ledger; each claim condition with a merkle root has a
// JSON document of {address, maxClaimable} entries hosted off-chain.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/ethereum/go-ethereum/common"
)

// zeroRoot is the merkle root of a claim condition without an allowlist.
var zeroRoot = common.Hash{}.Hex()

// maxDocumentBytes caps how much of a hosted allowlist is read.
const maxDocumentBytes = 16 << 20

// Config holds snapshot source settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client resolves allowlists over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxBytes   int64
}

var _ domain.SnapshotSource = (*Client)(nil)

// New creates a snapshot client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxDocumentBytes,
	}
}

// GetSnapshot returns the allowlist published for (contract, merkleRoot).
// An empty or zero merkle root means no allowlist and yields a nil slice.
// A document that was never published yields domain.ErrNotFound.
func (c *Client) GetSnapshot(ctx context.Context, contract, merkleRoot string) ([]domain.SnapshotEntry, error) {
	if merkleRoot == "" || strings.EqualFold(merkleRoot, zeroRoot) {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/snapshots/%s/%s.json", c.baseURL, url.PathEscape(strings.ToLower(contract)), url.PathEscape(strings.ToLower(merkleRoot)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot: get %s: %w", contract, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("snapshot: read response: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("snapshot: %s/%s: document larger than %d bytes", contract, merkleRoot, c.maxBytes)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("snapshot: %s/%s: %w", contract, merkleRoot, domain.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("snapshot: %w", domain.ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("snapshot: HTTP %d: %s", resp.StatusCode, string(body))
	}

	entries, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", contract, err)
	}
	return entries, nil
}

// decode accepts either a bare array of entries or an object wrapping them
// under "entries". The result is never nil so that an empty document still
// reads as an allowlist nobody is on.
func decode(body []byte) ([]domain.SnapshotEntry, error) {
	var entries []domain.SnapshotEntry
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, err
		}
	} else {
		var wrapped struct {
			Entries []domain.SnapshotEntry `json:"entries"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, err
		}
		entries = wrapped.Entries
	}
	if entries == nil {
		entries = []domain.SnapshotEntry{}
	}
	return entries, nil
}
