package claims

import (
	"context"
	"time"

	"vesting-indexer/database"
	"vesting-indexer/indexer/events"
	"vesting-indexer/indexer/oracle"
	"vesting-indexer/logger"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// A claim with this transaction hash was already recorded; the stored row
// is left untouched
var ErrDuplicateClaim = errors.New("claim already recorded")

const backfillBatchSize = 100

// ClaimData is an external claim event prior to ingestion
type ClaimData struct {
	UserAddress  string
	TokenAddress string
	Amount       decimal.Decimal
	TxHash       string
	BlockNumber  uint64
	ClaimedAt    time.Time
}

// claimDB handles the direct store interactions; the GORM implementation is
// in stubs.go
type claimDB interface {
	CreateClaim(c *database.Claim) error
	FetchClaimsWithoutPrice(limit int) ([]database.Claim, error)
	UpdateClaim(c *database.Claim) error
}

// Ingestor idempotently records claim events, enriched with the token's USD
// price at claim time. Side effects are decoupled through the event bus and
// can never fail or delay the primary write.
type Ingestor struct {
	db     claimDB
	oracle oracle.PriceOracle
	bus    *events.Bus
}

func NewIngestor(db claimDB, priceOracle oracle.PriceOracle, bus *events.Bus) *Ingestor {
	return &Ingestor{
		db:     db,
		oracle: priceOracle,
		bus:    bus,
	}
}

// ClaimEvent is the payload published on the bus after a claim is persisted
type ClaimEvent struct {
	Claim *database.Claim
}

// ProcessClaim records one claim, keyed on its transaction hash. An
// unreachable price oracle is tolerated; the claim is stored with a null
// price and backfilled later. A duplicate transaction hash fails with
// ErrDuplicateClaim without creating a second row.
func (i *Ingestor) ProcessClaim(ctx context.Context, data *ClaimData) (*database.Claim, error) {
	claim := &database.Claim{
		UserAddress:  data.UserAddress,
		TokenAddress: data.TokenAddress,
		Amount:       data.Amount,
		ClaimedAt:    data.ClaimedAt,
		TxHash:       data.TxHash,
		BlockNumber:  data.BlockNumber,
	}

	price, err := i.oracle.PriceAt(ctx, data.TokenAddress, data.ClaimedAt)
	if err != nil {
		logger.Warn("price unavailable for claim %s (token %s): %v", data.TxHash, data.TokenAddress, err)
	} else {
		claim.PriceUSD = &price
	}

	if err := i.db.CreateClaim(claim); err != nil {
		return nil, err
	}

	i.bus.Publish(events.New(events.ClaimRecorded, ClaimEvent{Claim: claim}))
	return claim, nil
}

type BatchResult struct {
	ProcessedCount int
	ErrorCount     int
	Results        []*database.Claim
	Errors         []error
}

// ProcessBatch processes each claim independently; one failing claim does
// not abort the batch.
func (i *Ingestor) ProcessBatch(ctx context.Context, claims []*ClaimData) *BatchResult {
	result := &BatchResult{}
	for _, data := range claims {
		claim, err := i.ProcessClaim(ctx, data)
		if err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, errors.Wrapf(err, "claim %s", data.TxHash))
			continue
		}
		result.ProcessedCount++
		result.Results = append(result.Results, claim)
	}
	return result
}

// BackfillMissingPrices scans a bounded batch of claims stored without a
// price and fetches the historical price for each. Per-claim failures are
// logged and skipped. Returns the number of claims updated.
func (i *Ingestor) BackfillMissingPrices(ctx context.Context) (int, error) {
	claims, err := i.db.FetchClaimsWithoutPrice(backfillBatchSize)
	if err != nil {
		return 0, err
	}

	updated := 0
	for idx := range claims {
		claim := &claims[idx]
		price, err := i.oracle.PriceAt(ctx, claim.TokenAddress, claim.ClaimedAt)
		if err != nil {
			logger.Warn("price backfill failed for claim %s: %v", claim.TxHash, err)
			continue
		}
		claim.PriceUSD = &price
		if err := i.db.UpdateClaim(claim); err != nil {
			logger.Error("price backfill update failed for claim %s: %v", claim.TxHash, err)
			continue
		}
		updated++
	}

	if updated > 0 {
		logger.Info("backfilled prices for %d of %d claims", updated, len(claims))
	}
	return updated, nil
}
