//go:build !integration
// +build !integration

package vesting

import (
	"testing"
	"time"

	"vesting-indexer/config"
	"vesting-indexer/database"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testVaultAddress       = "0x21d20E85d7c26C772e26Ac1bc2Fd8A126A0f13a6"
	testBeneficiaryAddress = "0x503828976D22510aad0201ac7EC88293211D23Da"
	testTokenAddress       = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.ConnectAndInitializeTestDB(&config.DBConfig{})
	require.NoError(t, err)
	return db
}

func createTestVault(t *testing.T, db *gorm.DB) *database.Vault {
	vault := &database.Vault{
		Address:      testVaultAddress,
		Owner:        testBeneficiaryAddress,
		TokenAddress: testTokenAddress,
		TotalAmount:  decimal.Zero,
		Active:       true,
		BlockNumber:  1,
	}
	require.NoError(t, database.CreateVaults(db, []*database.Vault{vault}))
	return vault
}

func requireDecimalEqual(t *testing.T, expected, actual decimal.Decimal) {
	t.Helper()
	require.True(t, expected.Sub(actual).Abs().LessThan(decimal.NewFromFloat(0.0001)),
		"expected %s, got %s", expected, actual)
}

func TestComputeWithdrawableTwoTopUps(t *testing.T) {
	schedules := []database.VestingSchedule{
		*schedule(1000, 0, t0, 30*day),
		*schedule(500, 0, t0.Add(15*day), 60*day),
	}
	beneficiary := &database.Beneficiary{
		TotalAllocated: decimal.NewFromInt(1500),
		TotalWithdrawn: decimal.Zero,
	}

	info := ComputeWithdrawable(beneficiary, schedules, t0.Add(20*day))

	// 1000*(20/30) + 500*(5/60)
	expected := decimal.NewFromInt(1000).Mul(decimal.NewFromInt(20)).Div(decimal.NewFromInt(30)).
		Add(decimal.NewFromInt(500).Mul(decimal.NewFromInt(5)).Div(decimal.NewFromInt(60)))
	requireDecimalEqual(t, expected, info.TotalVested)
	requireDecimalEqual(t, expected, info.Withdrawable)
	require.False(t, info.FullyVested)
}

func TestComputeWithdrawableAllocationCap(t *testing.T) {
	schedules := []database.VestingSchedule{
		*schedule(1000, 0, t0, 30*day),
	}
	beneficiary := &database.Beneficiary{
		TotalAllocated: decimal.NewFromInt(500),
		TotalWithdrawn: decimal.NewFromInt(100),
	}

	info := ComputeWithdrawable(beneficiary, schedules, t0.Add(31*day))

	require.True(t, info.Withdrawable.Equal(decimal.NewFromInt(400)))
	require.True(t, info.Remaining.Equal(decimal.NewFromInt(400)))
	require.True(t, info.FullyVested)
	require.Nil(t, info.NextVestEvent)
}

func TestComputeWithdrawableFlooredAtZero(t *testing.T) {
	schedules := []database.VestingSchedule{
		*schedule(1000, 0, t0, 30*day),
	}
	beneficiary := &database.Beneficiary{
		TotalAllocated: decimal.NewFromInt(100),
		TotalWithdrawn: decimal.NewFromInt(100),
	}

	info := ComputeWithdrawable(beneficiary, schedules, t0.Add(5*day))
	require.True(t, info.Withdrawable.IsZero())
}

func TestComputeWithdrawableNextVestEvent(t *testing.T) {
	withCliff := schedule(1000, 10*day, t0, 30*day)
	schedules := []database.VestingSchedule{
		*withCliff,
		*schedule(500, 0, t0, 20*day),
	}
	beneficiary := &database.Beneficiary{
		TotalAllocated: decimal.NewFromInt(1500),
		TotalWithdrawn: decimal.Zero,
	}

	info := ComputeWithdrawable(beneficiary, schedules, t0.Add(day))
	require.NotNil(t, info.NextVestEvent)
	require.Equal(t, *withCliff.CliffEnd, *info.NextVestEvent)
}

func TestWithdrawableInfoNotFound(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)

	_, err := ledger.WithdrawableInfo(testVaultAddress, testBeneficiaryAddress, t0)
	require.ErrorIs(t, err, ErrVaultNotFound)

	createTestVault(t, db)
	_, err = ledger.WithdrawableInfo(testVaultAddress, testBeneficiaryAddress, t0)
	require.ErrorIs(t, err, ErrBeneficiaryNotFound)
}

func TestProcessWithdrawal(t *testing.T) {
	db := setupTestDB(t)
	vault := createTestVault(t, db)

	s := schedule(1000, 0, t0, 30*day)
	s.VaultID = vault.ID
	require.NoError(t, database.CreateVestingSchedules(db, []*database.VestingSchedule{s}))
	require.NoError(t, database.CreateBeneficiary(db, &database.Beneficiary{
		VaultID:        vault.ID,
		Address:        testBeneficiaryAddress,
		TotalAllocated: decimal.NewFromInt(1000),
		TotalWithdrawn: decimal.Zero,
	}))

	ledger := NewLedger(db)

	// Fully vested, withdraw 400 of 1000
	info, err := ledger.ProcessWithdrawal(testVaultAddress, testBeneficiaryAddress,
		decimal.NewFromInt(400), t0.Add(31*day))
	require.NoError(t, err)
	require.True(t, info.Withdrawable.Equal(decimal.NewFromInt(600)))

	b, err := database.FetchBeneficiary(db, vault.ID, testBeneficiaryAddress)
	require.NoError(t, err)
	require.True(t, b.TotalWithdrawn.Equal(decimal.NewFromInt(400)))
}

func TestProcessWithdrawalInsufficient(t *testing.T) {
	db := setupTestDB(t)
	vault := createTestVault(t, db)

	s := schedule(1000, 0, t0, 30*day)
	s.VaultID = vault.ID
	require.NoError(t, database.CreateVestingSchedules(db, []*database.VestingSchedule{s}))
	require.NoError(t, database.CreateBeneficiary(db, &database.Beneficiary{
		VaultID:        vault.ID,
		Address:        testBeneficiaryAddress,
		TotalAllocated: decimal.NewFromInt(1000),
		TotalWithdrawn: decimal.Zero,
	}))

	ledger := NewLedger(db)

	// Only half is vested at day 15
	_, err := ledger.ProcessWithdrawal(testVaultAddress, testBeneficiaryAddress,
		decimal.NewFromInt(600), t0.Add(15*day))
	require.True(t, errors.Is(err, ErrInsufficientVestedAmount))

	// The failed attempt must not change anything
	b, err := database.FetchBeneficiary(db, vault.ID, testBeneficiaryAddress)
	require.NoError(t, err)
	require.True(t, b.TotalWithdrawn.IsZero())
}

func TestProcessReleaseOldestFirst(t *testing.T) {
	db := setupTestDB(t)
	vault := createTestVault(t, db)

	first := schedule(1000, 0, t0, 10*day)
	first.VaultID = vault.ID
	second := schedule(500, 0, t0, 10*day)
	second.VaultID = vault.ID
	require.NoError(t, database.CreateVestingSchedules(db,
		[]*database.VestingSchedule{first, second}))

	ledger := NewLedger(db)

	// Everything vested; 1200 consumes the first schedule fully and 200
	// of the second
	err := ledger.ProcessRelease(testVaultAddress, decimal.NewFromInt(1200), t0.Add(11*day))
	require.NoError(t, err)

	schedules, err := database.FetchVaultSchedules(db, vault.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	require.True(t, schedules[0].AmountReleased.Equal(decimal.NewFromInt(1000)))
	require.True(t, schedules[1].AmountReleased.Equal(decimal.NewFromInt(200)))
}

func TestProcessReleaseAllOrNothing(t *testing.T) {
	db := setupTestDB(t)
	vault := createTestVault(t, db)

	s := schedule(1000, 0, t0, 10*day)
	s.VaultID = vault.ID
	require.NoError(t, database.CreateVestingSchedules(db, []*database.VestingSchedule{s}))

	ledger := NewLedger(db)

	err := ledger.ProcessRelease(testVaultAddress, decimal.NewFromInt(1500), t0.Add(11*day))
	require.True(t, errors.Is(err, ErrInsufficientVestedAmount))

	schedules, err := database.FetchVaultSchedules(db, vault.ID)
	require.NoError(t, err)
	require.True(t, schedules[0].AmountReleased.IsZero())
}

func TestCreateTopUp(t *testing.T) {
	db := setupTestDB(t)
	vault := createTestVault(t, db)

	s, err := CreateTopUp(db, &TopUp{
		VaultAddress:    testVaultAddress,
		Amount:          decimal.NewFromInt(500),
		CliffSeconds:    uint64((2 * day) / time.Second),
		StartTime:       t0,
		DurationSeconds: uint64((30 * day) / time.Second),
		TxHash:          "0x1111111111111111111111111111111111111111111111111111111111111111",
		BlockNumber:     7,
	})
	require.NoError(t, err)
	require.NotNil(t, s.CliffEnd)
	require.Equal(t, t0.Add(2*day), *s.CliffEnd)

	updated, err := database.FetchVault(db, testVaultAddress)
	require.NoError(t, err)
	require.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(500)))
	require.Equal(t, vault.ID, updated.ID)
}

func TestCreateTopUpUnknownVault(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateTopUp(db, &TopUp{
		VaultAddress: testVaultAddress,
		Amount:       decimal.NewFromInt(500),
		StartTime:    t0,
	})
	require.ErrorIs(t, err, ErrVaultNotFound)
}
