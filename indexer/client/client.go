package client

import (
	"context"
	"time"

	"vesting-indexer/config"
	"vesting-indexer/database"
	"vesting-indexer/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/ybbus/jsonrpc/v3"
)

// VaultInfo is a vault as reported by the on-chain registry
type VaultInfo struct {
	Address     string          `json:"address"`
	Owner       string          `json:"owner"`
	Token       string          `json:"token"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	BlockNumber uint64          `json:"blockNumber"`
}

// VaultEvent is one ledger event (vault creation, top-up or claim) with its
// originating block
type VaultEvent struct {
	Type        database.VaultEventType `json:"type"`
	BlockNumber uint64                  `json:"blockNumber"`
	TxHash      string                  `json:"txHash"`
	Timestamp   time.Time               `json:"timestamp"`

	Vault string `json:"vault"`
	Owner string `json:"owner,omitempty"`
	Token string `json:"token,omitempty"`

	// Top-up fields
	Amount          decimal.Decimal `json:"amount"`
	CliffSeconds    uint64          `json:"cliffSeconds,omitempty"`
	DurationSeconds uint64          `json:"durationSeconds,omitempty"`
	StartTime       time.Time       `json:"startTime,omitempty"`

	// Claim fields
	User string `json:"user,omitempty"`
}

// LedgerClient reads vault state and events from the chain RPC node
type LedgerClient interface {
	GetVaultCount(ctx context.Context) (uint64, error)
	ListVaults(ctx context.Context) ([]VaultInfo, error)

	// FetchEvents returns events with block number >= fromBlock, at most
	// batchSize of them, together with the last block known to the chain
	FetchEvents(ctx context.Context, fromBlock uint64, batchSize int) ([]VaultEvent, uint64, error)
}

type rpcLedgerClient struct {
	rpc      jsonrpc.RPCClient
	registry string
	timeout  time.Duration
	retry    utils.RetryPolicy
}

func NewLedgerClient(cfg *config.ChainConfig) LedgerClient {
	opts := &jsonrpc.RPCClientOpts{}
	if cfg.APIKey != "" {
		opts.CustomHeaders = map[string]string{"X-API-Key": cfg.APIKey}
	}
	timeout := time.Duration(cfg.TimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &rpcLedgerClient{
		rpc:      jsonrpc.NewClientWithOpts(cfg.RPCURL, opts),
		registry: NormalizeAddress(cfg.RegistryAddress),
		timeout:  timeout,
		retry:    utils.RetryPolicy{},
	}
}

func (c *rpcLedgerClient) GetVaultCount(ctx context.Context) (uint64, error) {
	return callWithRetry[uint64](c, ctx, "vault_getVaultCount", c.registry)
}

func (c *rpcLedgerClient) ListVaults(ctx context.Context) ([]VaultInfo, error) {
	vaults, err := callWithRetry[[]VaultInfo](c, ctx, "vault_listVaults", c.registry)
	if err != nil {
		return nil, err
	}
	for i := range vaults {
		vaults[i].Address = NormalizeAddress(vaults[i].Address)
		vaults[i].Owner = NormalizeAddress(vaults[i].Owner)
		vaults[i].Token = NormalizeAddress(vaults[i].Token)
	}
	return vaults, nil
}

type eventsResult struct {
	Events    []VaultEvent `json:"events"`
	LastBlock uint64       `json:"lastBlock"`
}

func (c *rpcLedgerClient) FetchEvents(ctx context.Context, fromBlock uint64, batchSize int) ([]VaultEvent, uint64, error) {
	result, err := callWithRetry[eventsResult](c, ctx, "vault_getEvents", c.registry, fromBlock, batchSize)
	if err != nil {
		return nil, 0, err
	}
	for i := range result.Events {
		e := &result.Events[i]
		e.Vault = NormalizeAddress(e.Vault)
		e.Owner = NormalizeAddress(e.Owner)
		e.Token = NormalizeAddress(e.Token)
		e.User = NormalizeAddress(e.User)
	}
	return result.Events, result.LastBlock, nil
}

func callWithRetry[T any](c *rpcLedgerClient, ctx context.Context, method string, params ...interface{}) (T, error) {
	return utils.Retry(c.retry, func() (T, error) {
		var result T

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		response, err := c.rpc.Call(callCtx, method, params...)
		if err != nil {
			return result, errors.Wrap(err, method)
		}
		if response.Error != nil {
			// RPC-level errors are caller mistakes, not transient failures
			return result, utils.NonRetryable(errors.Errorf("%s: %s", method, response.Error.Message))
		}
		err = response.GetObject(&result)
		return result, errors.Wrap(err, method)
	})
}

// NormalizeAddress returns the EIP-55 checksum form of an EVM address so
// that local rows and on-chain listings diff cleanly. Empty and malformed
// values are returned unchanged.
func NormalizeAddress(address string) string {
	if !common.IsHexAddress(address) {
		return address
	}
	return common.HexToAddress(address).Hex()
}
