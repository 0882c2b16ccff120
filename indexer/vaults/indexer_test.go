//go:build !integration
// +build !integration

package vaults

import (
	"context"
	"testing"
	"time"

	"vesting-indexer/database"
	"vesting-indexer/indexer/claims"
	"vesting-indexer/indexer/client"
	"vesting-indexer/indexer/config"
	indexerctx "vesting-indexer/indexer/context"
	"vesting-indexer/indexer/events"
	"vesting-indexer/indexer/tracker"
	"vesting-indexer/utils"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testVaultAddress = "0x21d20E85d7c26C772e26Ac1bc2Fd8A126A0f13a6"
	testOwnerAddress = "0x503828976D22510aad0201ac7EC88293211D23Da"
	testTokenAddress = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
)

var eventTime = utils.ParseTime("2024-03-01T00:00:00Z")

type testLedgerClient struct {
	events    []client.VaultEvent
	chainHead uint64
	onFetch   func()
}

func (c *testLedgerClient) GetVaultCount(ctx context.Context) (uint64, error) {
	return 0, nil
}

func (c *testLedgerClient) ListVaults(ctx context.Context) ([]client.VaultInfo, error) {
	return nil, nil
}

func (c *testLedgerClient) FetchEvents(ctx context.Context, fromBlock uint64, batchSize int) ([]client.VaultEvent, uint64, error) {
	if c.onFetch != nil {
		c.onFetch()
	}
	var batch []client.VaultEvent
	for _, e := range c.events {
		if e.BlockNumber >= fromBlock && len(batch) < batchSize {
			batch = append(batch, e)
		}
	}
	return batch, c.chainHead, nil
}

type fixedOracle struct{}

func (fixedOracle) PriceAt(ctx context.Context, tokenAddress string, ts time.Time) (decimal.Decimal, error) {
	return decimal.NewFromInt(2), nil
}

func testEvents() []client.VaultEvent {
	return []client.VaultEvent{
		{
			Type:        database.VaultEventCreated,
			BlockNumber: 1,
			TxHash:      "0x1111111111111111111111111111111111111111111111111111111111111111",
			Timestamp:   eventTime,
			Vault:       testVaultAddress,
			Owner:       testOwnerAddress,
			Token:       testTokenAddress,
			Amount:      decimal.Zero,
		},
		{
			Type:            database.VaultEventTopUp,
			BlockNumber:     2,
			TxHash:          "0x2222222222222222222222222222222222222222222222222222222222222222",
			Timestamp:       eventTime,
			Vault:           testVaultAddress,
			Amount:          decimal.NewFromInt(1000),
			DurationSeconds: 3600,
			StartTime:       eventTime,
		},
		{
			Type:        database.VaultEventClaim,
			BlockNumber: 3,
			TxHash:      "0x3333333333333333333333333333333333333333333333333333333333333333",
			Timestamp:   eventTime,
			Vault:       testVaultAddress,
			Token:       testTokenAddress,
			Amount:      decimal.NewFromInt(50),
			User:        testOwnerAddress,
		},
	}
}

func TestIndexBatch(t *testing.T) {
	cfg := config.Config{
		VaultIndexer: config.IndexerConfig{
			Enabled:       true,
			TimeoutMillis: 1000,
			BatchSize:     100,
		},
	}
	ctx, err := indexerctx.BuildTestContext(&cfg)
	require.NoError(t, err)

	require.NoError(t, database.CreateState(ctx.DB(), &database.State{Name: StateName, NextDBIndex: 0}))

	ledger := &testLedgerClient{events: testEvents(), chainHead: 3}
	ingestor := claims.NewIngestor(claims.NewClaimDBGorm(ctx.DB()), fixedOracle{}, events.NewBus(0))
	indexer := CreateVaultIndexer(ctx, ledger, ingestor)

	require.NoError(t, indexer.IndexBatch())

	vault, err := database.FetchVault(ctx.DB(), testVaultAddress)
	require.NoError(t, err)
	require.True(t, vault.TotalAmount.Equal(decimal.NewFromInt(1000)))

	schedules, err := database.FetchVaultSchedules(ctx.DB(), vault.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	claim, err := database.FetchClaimByTxHash(ctx.DB(),
		"0x3333333333333333333333333333333333333333333333333333333333333333")
	require.NoError(t, err)
	require.True(t, claim.Amount.Equal(decimal.NewFromInt(50)))

	state, err := database.FetchState(ctx.DB(), StateName)
	require.NoError(t, err)
	require.Equal(t, uint64(3), state.LastIngested())

	// Nothing new on chain, the cursor stays put
	require.NoError(t, indexer.IndexBatch())
	state, err = database.FetchState(ctx.DB(), StateName)
	require.NoError(t, err)
	require.Equal(t, uint64(3), state.LastIngested())

	// The chain advances and reports the old events again, e.g. after an
	// operator rollback; everything is applied idempotently
	_, err = tracker.New(ctx.DB(), StateName).RollbackToLedger(0)
	require.NoError(t, err)
	ledger.chainHead = 4

	// The rollback reversed the top-up
	vault, err = database.FetchVault(ctx.DB(), testVaultAddress)
	require.NoError(t, err)
	require.True(t, vault.TotalAmount.Equal(decimal.Zero),
		"expected 0, got %s", vault.TotalAmount)

	require.NoError(t, indexer.IndexBatch())

	schedules, err = database.FetchVaultSchedules(ctx.DB(), vault.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	// Replaying the top-up must not double count the vault total
	vault, err = database.FetchVault(ctx.DB(), testVaultAddress)
	require.NoError(t, err)
	require.True(t, vault.TotalAmount.Equal(decimal.NewFromInt(1000)),
		"expected 1000, got %s", vault.TotalAmount)

	state, err = database.FetchState(ctx.DB(), StateName)
	require.NoError(t, err)
	require.Equal(t, uint64(4), state.LastIngested())
}

func TestIndexBatchConcurrentRollback(t *testing.T) {
	cfg := config.Config{
		VaultIndexer: config.IndexerConfig{
			Enabled:       true,
			TimeoutMillis: 1000,
			BatchSize:     100,
		},
	}
	ctx, err := indexerctx.BuildTestContext(&cfg)
	require.NoError(t, err)

	require.NoError(t, database.CreateState(ctx.DB(), &database.State{Name: StateName, NextDBIndex: 0}))

	ledger := &testLedgerClient{events: testEvents(), chainHead: 3}
	ingestor := claims.NewIngestor(claims.NewClaimDBGorm(ctx.DB()), fixedOracle{}, events.NewBus(0))
	indexer := CreateVaultIndexer(ctx, ledger, ingestor)

	require.NoError(t, indexer.IndexBatch())

	// An operator rollback lands after the batch has read its cursor; the
	// batch must abort instead of writing the stale cursor back
	ledger.chainHead = 4
	ledger.onFetch = func() {
		_, err := tracker.New(ctx.DB(), StateName).RollbackToLedger(0)
		require.NoError(t, err)
	}
	err = indexer.IndexBatch()
	require.True(t, errors.Is(err, errStaleCursor))

	state, err := database.FetchState(ctx.DB(), StateName)
	require.NoError(t, err)
	require.Equal(t, uint64(0), state.LastIngested())

	// The next run picks up from the rewound cursor
	ledger.onFetch = nil
	require.NoError(t, indexer.IndexBatch())

	vault, err := database.FetchVault(ctx.DB(), testVaultAddress)
	require.NoError(t, err)
	require.True(t, vault.TotalAmount.Equal(decimal.NewFromInt(1000)))

	state, err = database.FetchState(ctx.DB(), StateName)
	require.NoError(t, err)
	require.Equal(t, uint64(4), state.LastIngested())
}

func TestIndexBatchUnknownVaultTopUp(t *testing.T) {
	cfg := config.Config{
		VaultIndexer: config.IndexerConfig{
			Enabled:       true,
			TimeoutMillis: 1000,
			BatchSize:     100,
		},
	}
	ctx, err := indexerctx.BuildTestContext(&cfg)
	require.NoError(t, err)

	require.NoError(t, database.CreateState(ctx.DB(), &database.State{Name: StateName, NextDBIndex: 0}))

	topUp := testEvents()[1]
	ledger := &testLedgerClient{events: []client.VaultEvent{topUp}, chainHead: 2}
	ingestor := claims.NewIngestor(claims.NewClaimDBGorm(ctx.DB()), fixedOracle{}, events.NewBus(0))
	indexer := CreateVaultIndexer(ctx, ledger, ingestor)

	// A top-up for a vault not yet in the store fails the batch; the cursor
	// stays put so the schedule is not lost
	require.Error(t, indexer.IndexBatch())

	state, err := database.FetchState(ctx.DB(), StateName)
	require.NoError(t, err)
	require.Equal(t, uint64(0), state.LastIngested())

	// Reconciliation backfills the vault, the retried batch then applies
	require.NoError(t, database.CreateVaults(ctx.DB(), []*database.Vault{{
		Address:      testVaultAddress,
		Owner:        testOwnerAddress,
		TokenAddress: testTokenAddress,
		TotalAmount:  decimal.Zero,
		Active:       true,
		BlockNumber:  1,
	}}))
	require.NoError(t, indexer.IndexBatch())

	vault, err := database.FetchVault(ctx.DB(), testVaultAddress)
	require.NoError(t, err)
	require.True(t, vault.TotalAmount.Equal(decimal.NewFromInt(1000)))

	schedules, err := database.FetchVaultSchedules(ctx.DB(), vault.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	state, err = database.FetchState(ctx.DB(), StateName)
	require.NoError(t, err)
	require.Equal(t, uint64(2), state.LastIngested())
}

func TestLastProcessedBlock(t *testing.T) {
	full := testEvents()

	// Batch not truncated: the cursor may advance to the chain head
	require.Equal(t, uint64(10), lastProcessedBlock(full, 10, 100))

	// Truncated batch: only as far as the last block in the batch
	require.Equal(t, uint64(3), lastProcessedBlock(full, 10, 3))
}
