package vaults

import (
	"context"
	"time"

	"vesting-indexer/database"
	"vesting-indexer/indexer/claims"
	"vesting-indexer/indexer/client"
	"vesting-indexer/indexer/config"
	indexerctx "vesting-indexer/indexer/context"
	"vesting-indexer/indexer/shared"
	"vesting-indexer/logger"
	"vesting-indexer/utils"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const StateName string = "vault_events"

// An operator rollback committed while the batch was in flight; the batch
// is discarded and the next run starts from the rewound cursor
var errStaleCursor = errors.New("cursor moved concurrently, batch aborted")

// VaultIndexer polls the ledger source for vault events from the current
// cursor and projects them into the local store. Entity writes and the
// cursor advance commit in one transaction; claims go through the
// idempotent ingestor, so re-processing a batch after a partial failure is
// safe.
type VaultIndexer struct {
	db       *gorm.DB
	client   client.LedgerClient
	ingestor *claims.Ingestor
	config   config.IndexerConfig
	metrics  *shared.Metrics
}

func CreateVaultIndexer(ctx indexerctx.IndexerContext, ledger client.LedgerClient, ingestor *claims.Ingestor) *VaultIndexer {
	return &VaultIndexer{
		db:       ctx.DB(),
		client:   ledger,
		ingestor: ingestor,
		config:   ctx.Config().VaultIndexer,
		metrics:  shared.NewMetrics(StateName),
	}
}

func (vi *VaultIndexer) Run() {
	if !vi.config.Enabled {
		logger.Debug("vault indexer disabled")
		return
	}

	ticker := time.NewTicker(time.Duration(vi.config.TimeoutMillis) * time.Millisecond)
	for range ticker.C {
		if err := vi.IndexBatch(); err != nil {
			logger.Error("vault indexer error: %v", err)
		}
	}
}

func (vi *VaultIndexer) IndexBatch() error {
	startTime := time.Now()

	currentState, err := database.FetchState(vi.db, StateName)
	if err != nil {
		return err
	}
	fetchedNextIndex := currentState.NextDBIndex
	nextBlock := utils.Max(currentState.NextDBIndex, vi.config.StartBlock)

	ctx := context.Background()
	vaultEvents, lastBlock, err := vi.client.FetchEvents(ctx, nextBlock, vi.config.BatchSize)
	if err != nil {
		return err
	}
	if lastBlock < nextBlock {
		logger.Debug("nothing to do, last block %d < next to process %d", lastBlock, nextBlock)
		return nil
	}

	lastProcessed := lastProcessedBlock(vaultEvents, lastBlock, vi.config.BatchSize)

	// Claims are keyed on tx hash and ingested idempotently before the
	// cursor moves; a duplicate on re-processing is expected and skipped
	for i := range vaultEvents {
		e := &vaultEvents[i]
		if e.Type != database.VaultEventClaim {
			continue
		}
		if err := vi.ingestClaim(ctx, e); err != nil {
			return err
		}
	}

	err = database.DoInTransaction(vi.db,
		func(db *gorm.DB) error { return vi.persistEntities(db, vaultEvents) },
		func(db *gorm.DB) error {
			// The cursor write is conditional on the value read at the start
			// of the batch; if a rollback rewound it in between, the whole
			// batch aborts instead of resurrecting the old cursor
			currentState.Update(lastProcessed+1, lastBlock)
			ok, err := database.UpdateStateCursor(db, &currentState, fetchedNextIndex)
			if err != nil {
				return err
			}
			if !ok {
				return errStaleCursor
			}
			return nil
		},
	)
	if err != nil {
		return err
	}

	duration := time.Since(startTime).Milliseconds()
	vi.metrics.Update(lastBlock, lastProcessed, duration)
	logger.Info("vault indexer processed to block %d, last chain block is %d, duration %dms",
		lastProcessed, lastBlock, duration)
	return nil
}

func (vi *VaultIndexer) ingestClaim(ctx context.Context, e *client.VaultEvent) error {
	_, err := vi.ingestor.ProcessClaim(ctx, &claims.ClaimData{
		UserAddress:  e.User,
		TokenAddress: e.Token,
		Amount:       e.Amount,
		TxHash:       e.TxHash,
		BlockNumber:  e.BlockNumber,
		ClaimedAt:    e.Timestamp,
	})
	if err == claims.ErrDuplicateClaim {
		logger.Debug("claim %s already ingested", e.TxHash)
		return nil
	}
	return err
}
