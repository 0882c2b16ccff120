// Stubs for the claim ingestor. These handle the direct interactions with
// the store; the actual logic is in ingestor.go, which is unit-tested.
package claims

import (
	"vesting-indexer/database"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type claimDBGorm struct {
	db *gorm.DB
}

func NewClaimDBGorm(db *gorm.DB) claimDB {
	return claimDBGorm{db: db}
}

func (c claimDBGorm) CreateClaim(claim *database.Claim) error {
	err := database.CreateClaim(c.db, claim)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// The unique constraint on tx_hash is the sole idempotency
		// mechanism; the losing caller of a concurrent duplicate insert
		// ends up here
		return ErrDuplicateClaim
	}
	return err
}

func (c claimDBGorm) FetchClaimsWithoutPrice(limit int) ([]database.Claim, error) {
	return database.FetchClaimsWithoutPrice(c.db, limit)
}

func (c claimDBGorm) UpdateClaim(claim *database.Claim) error {
	return database.UpdateClaim(c.db, claim)
}
