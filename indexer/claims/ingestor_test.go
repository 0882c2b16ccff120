//go:build !integration
// +build !integration

package claims

import (
	"context"
	"testing"
	"time"

	"vesting-indexer/config"
	"vesting-indexer/database"
	"vesting-indexer/indexer/events"
	"vesting-indexer/utils"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testUserAddress  = "0x503828976D22510aad0201ac7EC88293211D23Da"
	testTokenAddress = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
	testTxHash       = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

var claimedAt = utils.ParseTime("2024-02-01T12:00:00Z")

type testOracle struct {
	price decimal.Decimal
	err   error
	calls int
}

func (o *testOracle) PriceAt(ctx context.Context, tokenAddress string, ts time.Time) (decimal.Decimal, error) {
	o.calls++
	if o.err != nil {
		return decimal.Zero, o.err
	}
	return o.price, nil
}

func setupIngestor(t *testing.T, o *testOracle) (*Ingestor, *gorm.DB, *events.Bus) {
	db, err := database.ConnectAndInitializeTestDB(&config.DBConfig{})
	require.NoError(t, err)
	bus := events.NewBus(0)
	return NewIngestor(NewClaimDBGorm(db), o, bus), db, bus
}

func claimData(txHash string, block uint64) *ClaimData {
	return &ClaimData{
		UserAddress:  testUserAddress,
		TokenAddress: testTokenAddress,
		Amount:       decimal.NewFromInt(100),
		TxHash:       txHash,
		BlockNumber:  block,
		ClaimedAt:    claimedAt,
	}
}

func TestProcessClaim(t *testing.T) {
	oracle := &testOracle{price: decimal.NewFromFloat(1.5)}
	ingestor, db, bus := setupIngestor(t, oracle)

	received := bus.Subscribe(events.ClaimRecorded)

	claim, err := ingestor.ProcessClaim(context.Background(), claimData(testTxHash, 10))
	require.NoError(t, err)
	require.NotNil(t, claim.PriceUSD)
	require.True(t, claim.PriceUSD.Equal(decimal.NewFromFloat(1.5)))

	stored, err := database.FetchClaimByTxHash(db, testTxHash)
	require.NoError(t, err)
	require.True(t, stored.Amount.Equal(decimal.NewFromInt(100)))

	select {
	case e := <-received:
		require.Equal(t, events.ClaimRecorded, e.Type)
	case <-time.After(time.Second):
		t.Fatal("no event published for the recorded claim")
	}
}

func TestProcessClaimDuplicate(t *testing.T) {
	oracle := &testOracle{price: decimal.NewFromFloat(1.5)}
	ingestor, db, _ := setupIngestor(t, oracle)

	_, err := ingestor.ProcessClaim(context.Background(), claimData(testTxHash, 10))
	require.NoError(t, err)

	_, err = ingestor.ProcessClaim(context.Background(), claimData(testTxHash, 10))
	require.True(t, errors.Is(err, ErrDuplicateClaim))

	var count int64
	require.NoError(t, db.Model(&database.Claim{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestProcessClaimOracleDown(t *testing.T) {
	oracle := &testOracle{err: errors.New("oracle unreachable")}
	ingestor, db, _ := setupIngestor(t, oracle)

	// The claim is recorded anyway, with no price
	claim, err := ingestor.ProcessClaim(context.Background(), claimData(testTxHash, 10))
	require.NoError(t, err)
	require.Nil(t, claim.PriceUSD)

	stored, err := database.FetchClaimByTxHash(db, testTxHash)
	require.NoError(t, err)
	require.Nil(t, stored.PriceUSD)
}

func TestProcessBatchIsolation(t *testing.T) {
	oracle := &testOracle{price: decimal.NewFromFloat(2)}
	ingestor, _, _ := setupIngestor(t, oracle)

	batch := []*ClaimData{
		claimData("0x1111111111111111111111111111111111111111111111111111111111111111", 10),
		claimData("0x1111111111111111111111111111111111111111111111111111111111111111", 10),
		claimData("0x2222222222222222222222222222222222222222222222222222222222222222", 11),
	}

	result := ingestor.ProcessBatch(context.Background(), batch)
	require.Equal(t, 2, result.ProcessedCount)
	require.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Results, 2)
	require.Len(t, result.Errors, 1)
	require.True(t, errors.Is(result.Errors[0], ErrDuplicateClaim))
}

func TestBackfillMissingPrices(t *testing.T) {
	oracle := &testOracle{err: errors.New("oracle unreachable")}
	ingestor, db, _ := setupIngestor(t, oracle)

	_, err := ingestor.ProcessClaim(context.Background(), claimData(testTxHash, 10))
	require.NoError(t, err)

	// Oracle recovers; the backfill fills in the missing price
	oracle.err = nil
	oracle.price = decimal.NewFromFloat(3.25)

	updated, err := ingestor.BackfillMissingPrices(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	stored, err := database.FetchClaimByTxHash(db, testTxHash)
	require.NoError(t, err)
	require.NotNil(t, stored.PriceUSD)
	require.True(t, stored.PriceUSD.Equal(decimal.NewFromFloat(3.25)))

	// Nothing left to backfill
	updated, err = ingestor.BackfillMissingPrices(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, updated)
}
