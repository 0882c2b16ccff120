package vesting

import (
	"time"

	"vesting-indexer/database"

	"github.com/shopspring/decimal"
)

// Pure vesting schedule math. No I/O, no side effects; callers pass the
// evaluation time explicitly.

func VestingEnd(s *database.VestingSchedule) time.Time {
	return s.VestingStart.Add(time.Duration(s.DurationSeconds) * time.Second)
}

// VestedAmount returns the vested amount of one schedule at asOf.
// Zero before the cliff end and before the vesting start, the full amount
// at and after the vesting end, linear interpolation in between. A zero
// duration vests fully at VestingStart.
//
// The result is monotonically non-decreasing in asOf and always within
// [0, s.Amount].
func VestedAmount(s *database.VestingSchedule, asOf time.Time) decimal.Decimal {
	if s.CliffEnd != nil && asOf.Before(*s.CliffEnd) {
		return decimal.Zero
	}
	if asOf.Before(s.VestingStart) {
		return decimal.Zero
	}
	end := VestingEnd(s)
	if !asOf.Before(end) {
		return s.Amount
	}

	elapsed := asOf.Unix() - s.VestingStart.Unix()
	return s.Amount.
		Mul(decimal.NewFromInt(elapsed)).
		Div(decimal.NewFromInt(int64(s.DurationSeconds)))
}

// Releasable is the vested amount not yet released, floored at zero
func Releasable(s *database.VestingSchedule, asOf time.Time) decimal.Decimal {
	releasable := VestedAmount(s, asOf).Sub(s.AmountReleased)
	if releasable.IsNegative() {
		return decimal.Zero
	}
	return releasable
}
