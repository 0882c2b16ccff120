package tracker

import (
	"vesting-indexer/database"
	"vesting-indexer/logger"
	"vesting-indexer/utils"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// The cursor moves forward only through AdvanceTo and backward only through
// an explicit rollback; a move in the wrong direction is rejected
var ErrCursorRegression = errors.New("invalid cursor move")

type RollbackResult struct {
	ClaimsDeleted    int64
	SchedulesDeleted int64
	Cursor           uint64
}

// Tracker owns the ingestion cursor for one named service and implements
// the reorg recovery path: discard derived state beyond the fork point and
// rewind the cursor, all in one transaction.
type Tracker struct {
	db   *gorm.DB
	name string
}

func New(db *gorm.DB, serviceName string) *Tracker {
	return &Tracker{db: db, name: serviceName}
}

// LastIngestedLedger returns the last ingested ledger sequence, 0 when no
// state exists yet
func (t *Tracker) LastIngestedLedger() (uint64, error) {
	state, err := database.FetchState(t.db, t.name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return state.LastIngested(), nil
}

// AdvanceTo moves the cursor forward to sequence. A backward move outside an
// explicit rollback is rejected.
func (t *Tracker) AdvanceTo(sequence uint64) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		state, err := database.FetchState(tx, t.name)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			state = database.State{Name: t.name}
			state.Update(sequence+1, sequence)
			return database.CreateState(tx, &state)
		}
		if err != nil {
			return err
		}
		if sequence < state.LastIngested() {
			return errors.Wrapf(ErrCursorRegression,
				"advance to %d behind cursor %d", sequence, state.LastIngested())
		}
		state.Update(sequence+1, utils.Max(state.LastChainIndex, sequence))
		return database.UpdateState(tx, &state)
	})
}

// RollbackToLedger handles a chain reorganization: it deletes all claims and
// vesting schedules originating beyond targetSequence, reverses the vault
// totals those schedules had added, and rewinds the cursor, atomically. On
// any failure the transaction aborts and the prior consistent state is kept.
// Invoking it twice with the same target is a no-op the second time; a
// target ahead of the cursor is rejected with ErrCursorRegression.
func (t *Tracker) RollbackToLedger(targetSequence uint64) (*RollbackResult, error) {
	result := &RollbackResult{Cursor: targetSequence}

	err := t.db.Transaction(func(tx *gorm.DB) error {
		state, err := database.FetchState(tx, t.name)
		stateExists := true
		if errors.Is(err, gorm.ErrRecordNotFound) {
			stateExists = false
			state = database.State{Name: t.name}
		} else if err != nil {
			return errors.Wrap(err, "fetching state")
		} else if targetSequence > state.LastIngested() {
			return errors.Wrapf(ErrCursorRegression,
				"rollback target %d ahead of cursor %d", targetSequence, state.LastIngested())
		}

		claimsDeleted, err := database.DeleteClaimsAboveBlock(tx, targetSequence)
		if err != nil {
			return errors.Wrap(err, "deleting claims")
		}
		result.ClaimsDeleted = claimsDeleted

		// The schedules about to be deleted each added their amount to the
		// owning vault's total when ingested; subtract it back so a later
		// replay of the same top-ups does not double count.
		schedules, err := database.FetchSchedulesAboveBlock(tx, targetSequence)
		if err != nil {
			return errors.Wrap(err, "fetching schedules")
		}
		removed := make(map[uint64]decimal.Decimal)
		for i := range schedules {
			removed[schedules[i].VaultID] = removed[schedules[i].VaultID].Add(schedules[i].Amount)
		}
		for vaultID, amount := range removed {
			vault, err := database.FetchVaultByID(tx, vaultID)
			if err != nil {
				return errors.Wrapf(err, "fetching vault %d", vaultID)
			}
			vault.TotalAmount = vault.TotalAmount.Sub(amount)
			if err := database.UpdateVault(tx, &vault); err != nil {
				return errors.Wrapf(err, "reverting total of vault %d", vaultID)
			}
		}

		schedulesDeleted, err := database.DeleteSchedulesAboveBlock(tx, targetSequence)
		if err != nil {
			return errors.Wrap(err, "deleting vesting schedules")
		}
		result.SchedulesDeleted = schedulesDeleted

		state.Update(targetSequence+1, targetSequence)
		if stateExists {
			return database.UpdateState(tx, &state)
		}
		return database.CreateState(tx, &state)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("rolled back '%s' to ledger %d: %d claims and %d schedules deleted",
		t.name, targetSequence, result.ClaimsDeleted, result.SchedulesDeleted)
	return result, nil
}
