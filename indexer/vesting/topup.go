package vesting

import (
	"time"

	"vesting-indexer/database"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TopUp struct {
	VaultAddress    string
	Amount          decimal.Decimal
	CliffSeconds    uint64
	StartTime       time.Time
	DurationSeconds uint64
	TxHash          string
	BlockNumber     uint64
}

// CreateTopUp records one deposit into a vault: a new sub-schedule with its
// own cliff and vesting terms, and the vault's aggregate total. Both writes
// commit together.
func CreateTopUp(db *gorm.DB, t *TopUp) (*database.VestingSchedule, error) {
	var schedule *database.VestingSchedule

	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		schedule, err = ApplyTopUp(tx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// ApplyTopUp is CreateTopUp inside an already running transaction; the vault
// event indexer uses it to persist a whole batch atomically.
func ApplyTopUp(tx *gorm.DB, t *TopUp) (*database.VestingSchedule, error) {
	vault, err := database.FetchVault(tx, t.VaultAddress)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVaultNotFound
		}
		return nil, err
	}

	schedule := &database.VestingSchedule{
		VaultID:         vault.ID,
		Amount:          t.Amount,
		AmountReleased:  decimal.Zero,
		VestingStart:    t.StartTime,
		DurationSeconds: t.DurationSeconds,
		BlockNumber:     t.BlockNumber,
		TxHash:          t.TxHash,
	}
	if t.CliffSeconds > 0 {
		cliffEnd := t.StartTime.Add(time.Duration(t.CliffSeconds) * time.Second)
		schedule.CliffEnd = &cliffEnd
	}
	if err := tx.Create(schedule).Error; err != nil {
		return nil, err
	}

	vault.TotalAmount = vault.TotalAmount.Add(t.Amount)
	if err := database.UpdateVault(tx, &vault); err != nil {
		return nil, err
	}
	return schedule, nil
}
