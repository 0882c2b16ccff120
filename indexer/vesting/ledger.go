package vesting

import (
	"time"

	"vesting-indexer/database"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WithdrawableInfo struct {
	// Sum of vested amounts over all of the vault's schedules
	TotalVested decimal.Decimal

	// Amount the beneficiary may withdraw now: the vested pool capped by
	// their own allocation, minus what they already withdrew
	Withdrawable decimal.Decimal

	// Allocation not yet withdrawn, regardless of vesting
	Remaining decimal.Decimal

	// True iff every schedule is past its vesting end
	FullyVested bool

	// Earliest upcoming cliff end or vesting end across schedules still
	// vesting; nil when everything has vested
	NextVestEvent *time.Time
}

// ComputeWithdrawable derives a beneficiary's withdrawable state from the
// vault's schedules at asOf. The vested pool is computed once per vault and
// capped only by the beneficiary's own allocation; it is not apportioned
// across beneficiaries sharing the same vault-level schedules.
func ComputeWithdrawable(
	beneficiary *database.Beneficiary,
	schedules []database.VestingSchedule,
	asOf time.Time,
) WithdrawableInfo {
	info := WithdrawableInfo{
		TotalVested: decimal.Zero,
		FullyVested: true,
	}

	for i := range schedules {
		s := &schedules[i]
		info.TotalVested = info.TotalVested.Add(VestedAmount(s, asOf))

		if asOf.Before(VestingEnd(s)) {
			info.FullyVested = false
			next := nextEventTime(s, asOf)
			if info.NextVestEvent == nil || next.Before(*info.NextVestEvent) {
				info.NextVestEvent = &next
			}
		}
	}

	capped := decimal.Min(info.TotalVested, beneficiary.TotalAllocated)
	info.Withdrawable = capped.Sub(beneficiary.TotalWithdrawn)
	if info.Withdrawable.IsNegative() {
		info.Withdrawable = decimal.Zero
	}
	info.Remaining = beneficiary.TotalAllocated.Sub(beneficiary.TotalWithdrawn)
	return info
}

func nextEventTime(s *database.VestingSchedule, asOf time.Time) time.Time {
	if s.CliffEnd != nil && asOf.Before(*s.CliffEnd) {
		return *s.CliffEnd
	}
	return VestingEnd(s)
}

// Ledger runs vault-level vesting operations against the store
type Ledger struct {
	db *gorm.DB
}

// sqlite serializes writers and does not accept FOR UPDATE
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) WithdrawableInfo(vaultAddress, beneficiaryAddress string, asOf time.Time) (*WithdrawableInfo, error) {
	vault, err := database.FetchVault(l.db, vaultAddress)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVaultNotFound
		}
		return nil, err
	}
	beneficiary, err := database.FetchBeneficiary(l.db, vault.ID, beneficiaryAddress)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBeneficiaryNotFound
		}
		return nil, err
	}
	schedules, err := database.FetchVaultSchedules(l.db, vault.ID)
	if err != nil {
		return nil, err
	}

	info := ComputeWithdrawable(&beneficiary, schedules, asOf)
	return &info, nil
}

// ProcessWithdrawal checks the requested amount against the beneficiary's
// withdrawable amount and records it. The beneficiary row is locked for the
// duration of the transaction so concurrent withdrawals cannot jointly
// overdraw the allocation.
func (l *Ledger) ProcessWithdrawal(
	vaultAddress, beneficiaryAddress string,
	amount decimal.Decimal,
	asOf time.Time,
) (*WithdrawableInfo, error) {
	var info WithdrawableInfo

	err := l.db.Transaction(func(tx *gorm.DB) error {
		vault, err := database.FetchVault(tx, vaultAddress)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVaultNotFound
			}
			return err
		}

		var beneficiary database.Beneficiary
		err = lockForUpdate(tx).
			Where(&database.Beneficiary{VaultID: vault.ID, Address: beneficiaryAddress}).
			First(&beneficiary).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBeneficiaryNotFound
			}
			return err
		}

		schedules, err := database.FetchVaultSchedules(tx, vault.ID)
		if err != nil {
			return err
		}

		info = ComputeWithdrawable(&beneficiary, schedules, asOf)
		if amount.GreaterThan(info.Withdrawable) {
			return errors.Wrapf(ErrInsufficientVestedAmount,
				"requested %s, withdrawable %s", amount, info.Withdrawable)
		}

		beneficiary.TotalWithdrawn = beneficiary.TotalWithdrawn.Add(amount)
		if err := database.UpdateBeneficiary(tx, &beneficiary); err != nil {
			return err
		}

		info = ComputeWithdrawable(&beneficiary, schedules, asOf)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// ProcessRelease distributes an on-chain release event across the vault's
// schedules, oldest first, consuming each schedule's releasable amount until
// the requested amount is accounted for. Nothing is committed when the
// schedules cannot cover the amount.
func (l *Ledger) ProcessRelease(vaultAddress string, amount decimal.Decimal, asOf time.Time) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		vault, err := database.FetchVault(tx, vaultAddress)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVaultNotFound
			}
			return err
		}

		var schedules []database.VestingSchedule
		err = lockForUpdate(tx).
			Where(&database.VestingSchedule{VaultID: vault.ID}).
			Order("id asc").
			Find(&schedules).Error
		if err != nil {
			return err
		}

		remaining := amount
		for i := range schedules {
			if !remaining.IsPositive() {
				break
			}
			s := &schedules[i]
			consumed := decimal.Min(remaining, Releasable(s, asOf))
			if !consumed.IsPositive() {
				continue
			}
			s.AmountReleased = s.AmountReleased.Add(consumed)
			remaining = remaining.Sub(consumed)
			if err := database.UpdateVestingSchedule(tx, s); err != nil {
				return err
			}
		}

		if remaining.IsPositive() {
			return errors.Wrapf(ErrInsufficientVestedAmount,
				"release of %s exceeds releasable by %s", amount, remaining)
		}
		return nil
	})
}
