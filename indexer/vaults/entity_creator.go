package vaults

import (
	"vesting-indexer/database"
	"vesting-indexer/indexer/client"
	"vesting-indexer/indexer/vesting"
	"vesting-indexer/logger"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// persistEntities applies vault-creation and top-up events in ledger order
// inside the batch transaction. Claim events were already handled by the
// ingestor.
func (vi *VaultIndexer) persistEntities(tx *gorm.DB, vaultEvents []client.VaultEvent) error {
	for i := range vaultEvents {
		e := &vaultEvents[i]

		switch e.Type {
		case database.VaultEventCreated:
			if err := createVault(tx, e); err != nil {
				return err
			}
		case database.VaultEventTopUp:
			if err := applyTopUp(tx, e); err != nil {
				return err
			}
		case database.VaultEventClaim:
			// handled before the transaction
		default:
			logger.Warn("skipping unknown vault event type %s in block %d", e.Type, e.BlockNumber)
		}
	}
	return nil
}

func createVault(tx *gorm.DB, e *client.VaultEvent) error {
	_, err := database.FetchVault(tx, e.Vault)
	if err == nil {
		logger.Debug("vault %s already exists", e.Vault)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return database.CreateVaults(tx, []*database.Vault{{
		Address:      e.Vault,
		Owner:        e.Owner,
		TokenAddress: e.Token,
		TotalAmount:  e.Amount,
		Active:       true,
		BlockNumber:  e.BlockNumber,
	}})
}

func applyTopUp(tx *gorm.DB, e *client.VaultEvent) error {
	_, err := vesting.ApplyTopUp(tx, &vesting.TopUp{
		VaultAddress:    e.Vault,
		Amount:          e.Amount,
		CliffSeconds:    e.CliffSeconds,
		StartTime:       e.StartTime,
		DurationSeconds: e.DurationSeconds,
		TxHash:          e.TxHash,
		BlockNumber:     e.BlockNumber,
	})
	if errors.Is(err, vesting.ErrVaultNotFound) {
		// Failing the batch keeps the cursor in place; once reconciliation
		// has backfilled the vault, the retried batch applies the schedule
		return errors.Wrapf(err, "top-up %s for unknown vault %s in block %d",
			e.TxHash, e.Vault, e.BlockNumber)
	}
	return err
}

// lastProcessedBlock determines how far the cursor may advance: to the last
// chain block when the batch was not truncated, otherwise only to the last
// block actually contained in the batch.
func lastProcessedBlock(vaultEvents []client.VaultEvent, lastBlock uint64, batchSize int) uint64 {
	if len(vaultEvents) < batchSize {
		return lastBlock
	}
	last := uint64(0)
	for i := range vaultEvents {
		if vaultEvents[i].BlockNumber > last {
			last = vaultEvents[i].BlockNumber
		}
	}
	return last
}
