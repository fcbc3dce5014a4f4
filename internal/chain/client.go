// Package chain wraps go-ethereum RPC access behind a Backend interface.
// The concrete Client dials a primary endpoint plus optional backups and
// fails over between them on read errors.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Backend is the read/write surface the domain services depend on.
// *Client implements it against live RPC; tests substitute fakes.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

const (
	defaultRetryAttempts = 3
	defaultRetryDelay    = 500 * time.Millisecond
	defaultRateLimit     = 20 // reads per second across all endpoints
	defaultRateBurst     = 40

	healthCheckTimeout = 2 * time.Second
)

// Options configures the client.
type Options struct {
	URLs          []string
	RetryAttempts uint
	RetryDelay    time.Duration
	RateLimit     rate.Limit
	RateBurst     int
}

type endpoint struct {
	url    string
	client *ethclient.Client
}

// Client is a failover RPC client. Reads retry on the current endpoint and
// then move to the next; writes go to the current endpoint only.
type Client struct {
	endpoints []endpoint
	attempts  uint
	delay     time.Duration
	limiter   *rate.Limiter
	logger    *zap.Logger

	mu      sync.Mutex
	current int
}

var _ Backend = (*Client)(nil)

// New dials and health-checks every configured endpoint. Endpoints that
// fail to dial or respond are skipped with a warning; at least one healthy
// endpoint is required.
func New(ctx context.Context, opts Options, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.URLs) == 0 {
		return nil, fmt.Errorf("at least one rpc url is required")
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = defaultRetryAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = defaultRateBurst
	}

	endpoints := make([]endpoint, 0, len(opts.URLs))
	for _, url := range opts.URLs {
		rpcClient, err := rpc.DialContext(ctx, url)
		if err != nil {
			logger.Warn("rpc dial failed, skipping endpoint", zap.String("url", url), zap.Error(err))
			continue
		}
		client := ethclient.NewClient(rpcClient)
		if err := healthCheck(ctx, client); err != nil {
			logger.Warn("rpc health check failed, skipping endpoint", zap.String("url", url), zap.Error(err))
			client.Close()
			continue
		}
		endpoints = append(endpoints, endpoint{url: url, client: client})
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no healthy rpc endpoint among %d configured", len(opts.URLs))
	}

	return &Client{
		endpoints: endpoints,
		attempts:  opts.RetryAttempts,
		delay:     opts.RetryDelay,
		limiter:   rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		logger:    logger,
	}, nil
}

func healthCheck(ctx context.Context, client *ethclient.Client) error {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	_, err := client.BlockNumber(checkCtx)
	return err
}

// Close closes every endpoint.
func (c *Client) Close() {
	for _, ep := range c.endpoints {
		ep.client.Close()
	}
}

func (c *Client) active() (endpoint, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoints[c.current], c.current
}

func (c *Client) advance(from int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == from {
		c.current = (c.current + 1) % len(c.endpoints)
	}
}

// read runs fn against the active endpoint with retry, failing over to the
// next endpoint after the attempts are exhausted. Every endpoint is tried
// at most once per call.
func read[T any](ctx context.Context, c *Client, op string, fn func(*ethclient.Client) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for tried := 0; tried < len(c.endpoints); tried++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, err
		}

		ep, idx := c.active()
		value, err := retry.DoWithData(
			func() (T, error) { return fn(ep.client) },
			retry.Context(ctx),
			retry.Attempts(c.attempts),
			retry.Delay(c.delay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
		)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return zero, err
		}

		c.logger.Warn("rpc read failed, failing over",
			zap.String("op", op),
			zap.String("endpoint", ep.url),
			zap.Error(err))
		c.advance(idx)
	}
	return zero, fmt.Errorf("%s: all endpoints failed: %w", op, lastErr)
}

// ChainID returns the chain id of the active endpoint.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return read(ctx, c, "eth_chainId", func(cl *ethclient.Client) (*big.Int, error) {
		return cl.ChainID(ctx)
	})
}

// CallContract performs an eth_call.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return read(ctx, c, "eth_call", func(cl *ethclient.Client) ([]byte, error) {
		return cl.CallContract(ctx, msg, blockNumber)
	})
}

// BalanceAt returns the latest native balance of an account.
func (c *Client) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return read(ctx, c, "eth_getBalance", func(cl *ethclient.Client) (*big.Int, error) {
		return cl.BalanceAt(ctx, account, nil)
	})
}

// PendingNonceAt returns the pending nonce of an account.
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return read(ctx, c, "eth_getTransactionCount", func(cl *ethclient.Client) (uint64, error) {
		return cl.PendingNonceAt(ctx, account)
	})
}

// SuggestGasPrice returns the node's suggested gas price.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return read(ctx, c, "eth_gasPrice", func(cl *ethclient.Client) (*big.Int, error) {
		return cl.SuggestGasPrice(ctx)
	})
}

// EstimateGas simulates the message and returns its gas requirement.
// Reverts surface as errors carrying the reason.
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return read(ctx, c, "eth_estimateGas", func(cl *ethclient.Client) (uint64, error) {
		return cl.EstimateGas(ctx, msg)
	})
}

// SendTransaction broadcasts a signed transaction through the active
// endpoint. No retry: rebroadcasting a rejected transaction does not
// change the outcome, and nonce errors must reach the caller.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	ep, _ := c.active()
	return ep.client.SendTransaction(ctx, tx)
}

// TransactionReceipt returns the receipt of a mined transaction, or
// ethereum.NotFound while it is pending.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ep, _ := c.active()
	return ep.client.TransactionReceipt(ctx, txHash)
}

// HeaderByNumber returns the block header by number.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return read(ctx, c, "eth_getBlockByNumber", func(cl *ethclient.Client) (*types.Header, error) {
		return cl.HeaderByNumber(ctx, number)
	})
}
