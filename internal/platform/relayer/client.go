// Package relayer submits bids, buyouts and claims to a transaction relayer
// over HTTP. The relayer holds the signing keys; this service never does.
package relayer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/amount"
	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/google/uuid"
)

// Config holds relayer connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is the REST client for the relayer API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ domain.Submitter = (*Client)(nil)

// New creates a relayer client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type bidRequest struct {
	RequestID string `json:"request_id"`
	ListingID string `json:"listing_id"`
	Bidder    string `json:"bidder"`
	Amount    string `json:"amount"`
	Decimals  uint8  `json:"decimals"`
}

type buyoutRequest struct {
	RequestID string `json:"request_id"`
	ListingID string `json:"listing_id"`
	Buyer     string `json:"buyer"`
	Quantity  int64  `json:"quantity"`
}

type claimRequest struct {
	RequestID string `json:"request_id"`
	Contract  string `json:"contract"`
	To        string `json:"to"`
	Quantity  int64  `json:"quantity"`
}

// SubmitBid relays a bid of total on an auction listing.
func (c *Client) SubmitBid(ctx context.Context, listingID, bidder string, total amount.Amount) (domain.Receipt, error) {
	req := bidRequest{
		RequestID: uuid.NewString(),
		ListingID: listingID,
		Bidder:    bidder,
		Amount:    total.Raw().String(),
		Decimals:  total.Decimals(),
	}
	rcpt, err := c.submit(ctx, "/v1/marketplace/bids", req.RequestID, req)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("relayer: submit bid on %s: %w", listingID, err)
	}
	return rcpt, nil
}

// SubmitBuyout relays a purchase of quantity units from a listing.
func (c *Client) SubmitBuyout(ctx context.Context, listingID, buyer string, quantity int64) (domain.Receipt, error) {
	req := buyoutRequest{
		RequestID: uuid.NewString(),
		ListingID: listingID,
		Buyer:     buyer,
		Quantity:  quantity,
	}
	rcpt, err := c.submit(ctx, "/v1/marketplace/buyouts", req.RequestID, req)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("relayer: submit buyout of %s: %w", listingID, err)
	}
	return rcpt, nil
}

// SubmitClaim relays a claim of quantity units from a drop to the given
// address.
func (c *Client) SubmitClaim(ctx context.Context, contract, to string, quantity int64) (domain.Receipt, error) {
	req := claimRequest{
		RequestID: uuid.NewString(),
		Contract:  contract,
		To:        to,
		Quantity:  quantity,
	}
	rcpt, err := c.submit(ctx, "/v1/drops/claims", req.RequestID, req)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("relayer: submit claim on %s: %w", contract, err)
	}
	return rcpt, nil
}

// submitResponse is the relayer's reply envelope.
type submitResponse struct {
	OK        bool   `json:"ok"`
	RequestID string `json:"request_id"`
	TxHash    string `json:"tx_hash"`
	Error     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Data    *struct {
			Message string `json:"message"`
		} `json:"data"`
	} `json:"error"`
}

func (c *Client) submit(ctx context.Context, path, requestID string, body any) (domain.Receipt, error) {
	status, respBody, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return domain.Receipt{}, err
	}

	var resp submitResponse
	if jsonErr := json.Unmarshal(respBody, &resp); jsonErr != nil {
		if err := checkHTTPStatus(status, respBody); err != nil {
			return domain.Receipt{}, err
		}
		return domain.Receipt{}, fmt.Errorf("decode response: %w", jsonErr)
	}

	if resp.Error != nil || !resp.OK {
		se := &domain.SubmissionError{RequestID: requestID}
		if resp.Error != nil {
			se.Code = resp.Error.Code
			se.Message = resp.Error.Message
			if resp.Error.Data != nil {
				se.DataMessage = resp.Error.Data.Message
			}
		}
		if se.Message == "" {
			if err := checkHTTPStatus(status, respBody); err != nil {
				return domain.Receipt{}, err
			}
			se.Message = "relayer rejected the submission"
		}
		return domain.Receipt{}, se
	}

	if err := checkHTTPStatus(status, respBody); err != nil {
		return domain.Receipt{}, err
	}
	if resp.RequestID == "" {
		resp.RequestID = requestID
	}
	return domain.Receipt{RequestID: resp.RequestID, TxHash: resp.TxHash}, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
