// Package evm reads marketplace and drop state from EVM contracts through
// go-ethereum.
package evm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/alanyoungcy/dropmarket/internal/amount"
	"github.com/alanyoungcy/dropmarket/internal/domain"
	"github.com/alanyoungcy/dropmarket/internal/metrics"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// Caller is the subset of *ethclient.Client the reader needs.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Config holds reader settings.
type Config struct {
	ChainID            int64
	MarketplaceAddress string
	RequestTimeout     time.Duration
	RPS                float64
	Burst              int
}

// Client implements the ledger read interfaces against EVM contracts.
type Client struct {
	caller      Caller
	chain       Chain
	marketplace common.Address
	timeout     time.Duration
	limiter     *rate.Limiter
	currencies  *lru.Cache[common.Address, amount.Currency]
	logger      *slog.Logger
}

var (
	_ domain.ListingReader        = (*Client)(nil)
	_ domain.ClaimConditionReader = (*Client)(nil)
	_ domain.ChainInfo            = (*Client)(nil)
)

// Dial connects to rpcURL and returns a Client. When rpcURL is empty the
// chain's default endpoint is used.
func Dial(ctx context.Context, rpcURL string, cfg Config, logger *slog.Logger) (*Client, error) {
	if rpcURL == "" {
		chain, err := LookupChain(cfg.ChainID)
		if err != nil {
			return nil, err
		}
		if chain.DefaultRPC == "" {
			return nil, fmt.Errorf("evm: no rpc url configured for chain %d", cfg.ChainID)
		}
		rpcURL = chain.DefaultRPC
	}
	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("evm: dial %s: %w", rpcURL, err)
	}
	return New(ec, cfg, logger)
}

// New returns a Client that issues calls through caller.
func New(caller Caller, cfg Config, logger *slog.Logger) (*Client, error) {
	chain, err := LookupChain(cfg.ChainID)
	if err != nil {
		return nil, err
	}
	if cfg.MarketplaceAddress != "" && !common.IsHexAddress(cfg.MarketplaceAddress) {
		return nil, fmt.Errorf("evm: invalid marketplace address %q", cfg.MarketplaceAddress)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	currencies, err := lru.New[common.Address, amount.Currency](256)
	if err != nil {
		return nil, fmt.Errorf("evm: currency cache: %w", err)
	}

	return &Client{
		caller:      caller,
		chain:       chain,
		marketplace: common.HexToAddress(cfg.MarketplaceAddress),
		timeout:     cfg.RequestTimeout,
		limiter:     rate.NewLimiter(limit, burst),
		currencies:  currencies,
		logger:      logger.With(slog.String("component", "evm")),
	}, nil
}

// Chain returns the network the client was configured for.
func (c *Client) Chain() Chain { return c.chain }

// Close releases the underlying RPC connection when the caller owns one.
func (c *Client) Close() {
	if closer, ok := c.caller.(interface{ Close() }); ok {
		closer.Close()
	}
}

// ChainID asks the node which chain it serves.
func (c *Client) ChainID(ctx context.Context) (int64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	id, err := c.caller.ChainID(ctx)
	metrics.LedgerCallsTotal.WithLabelValues("chainId", ClassifyError(err)).Inc()
	if err != nil {
		return 0, fmt.Errorf("evm: chain id: %w", err)
	}
	return id.Int64(), nil
}

// call packs method with args, executes it against to and unpacks the
// result.
func (c *Client) call(ctx context.Context, to common.Address, contract abi.ABI, method string, args ...any) ([]any, error) {
	input, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	metrics.LedgerCallLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	metrics.LedgerCallsTotal.WithLabelValues(method, ClassifyError(err)).Inc()
	if err != nil {
		if ClassifyError(err) == "rate_limited" {
			return nil, fmt.Errorf("call %s: %w: %v", method, domain.ErrRateLimited, err)
		}
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	values, err := contract.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// wait blocks until the limiter releases one token or ctx is done.
func (c *Client) wait(ctx context.Context) error {
	r := c.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("evm: %w: cannot reserve token", domain.ErrRateLimited)
	}
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}
	metrics.LedgerRateLimitWaits.Inc()
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

// currency resolves decimals and symbol for a currency address. The native
// sentinel and the zero address both mean the chain's native currency.
func (c *Client) currency(ctx context.Context, addr common.Address) (amount.Currency, error) {
	if addr == nativeCurrency || addr == (common.Address{}) {
		return amount.Currency{Decimals: NativeDecimals, Symbol: c.chain.NativeSymbol}, nil
	}
	if cur, ok := c.currencies.Get(addr); ok {
		return cur, nil
	}

	out, err := c.call(ctx, addr, erc20ABI, "decimals")
	if err != nil {
		return amount.Currency{}, fmt.Errorf("currency %s: %w", addr.Hex(), err)
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return amount.Currency{}, fmt.Errorf("currency %s: unexpected decimals type %T", addr.Hex(), out[0])
	}
	out, err = c.call(ctx, addr, erc20ABI, "symbol")
	if err != nil {
		return amount.Currency{}, fmt.Errorf("currency %s: %w", addr.Hex(), err)
	}
	symbol, _ := out[0].(string)

	cur := amount.Currency{Decimals: decimals, Symbol: symbol}
	c.currencies.Add(addr, cur)
	return cur, nil
}

// ClassifyError buckets a call error for metrics.
func ClassifyError(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return "timeout"
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "429") || strings.Contains(lower, "too many requests"):
		return "rate_limited"
	case strings.Contains(lower, "execution reverted"):
		return "reverted"
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") || strings.Contains(lower, "eof"):
		return "network_error"
	default:
		return "client_error"
	}
}

func parseID(id string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(id), 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid id %q", domain.ErrNotFound, id)
	}
	return n, nil
}
