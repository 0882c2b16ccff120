package database

import (
	"time"

	"github.com/shopspring/decimal"
)

// Abstract entity, all other entities should be derived from it
type BaseEntity struct {
	ID uint64 `gorm:"primaryKey"`
}

type Migration struct {
	BaseEntity
	Version     string `gorm:"type:varchar(50);unique;not null"`
	Description string `gorm:"type:varchar(256)"`
	ExecutedAt  time.Time
	Duration    int
	Status      MigrationStatus `gorm:"type:varchar(20)"`
}

// Ingestion cursor for an indexer or job, keyed by name. NextDBIndex is the
// next ledger sequence to ingest, i.e., "last ingested" + 1.
type State struct {
	BaseEntity
	Name           string `gorm:"type:varchar(50);index"`
	NextDBIndex    uint64
	LastChainIndex uint64
	Updated        time.Time
}

// On-chain vesting vault. Created on a vault-creation event, total amount
// mutated by top-ups, never deleted (soft-deactivated via Active).
type Vault struct {
	BaseEntity
	Address      string          `gorm:"type:varchar(42);uniqueIndex;not null"`
	Owner        string          `gorm:"type:varchar(42);index"`
	TokenAddress string          `gorm:"type:varchar(42);index"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(65,18);not null"`
	Active       bool            `gorm:"default:true"`
	BlockNumber  uint64          `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// One vesting sub-schedule per top-up. CliffEnd is nil when the top-up has
// no cliff. Invariant: 0 <= AmountReleased <= Amount.
type VestingSchedule struct {
	BaseEntity
	VaultID         uint64          `gorm:"index;not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(65,18);not null"`
	AmountReleased  decimal.Decimal `gorm:"type:decimal(65,18);not null"`
	CliffEnd        *time.Time      `gorm:"index"`
	VestingStart    time.Time       `gorm:"not null"`
	DurationSeconds uint64
	BlockNumber     uint64 `gorm:"index"`
	TxHash          string `gorm:"type:varchar(66)"`
	CliffNotified   bool   `gorm:"default:false"`
}

// Invariant: 0 <= TotalWithdrawn <= TotalAllocated.
type Beneficiary struct {
	BaseEntity
	VaultID        uint64          `gorm:"uniqueIndex:idx_vault_beneficiary;not null"`
	Address        string          `gorm:"uniqueIndex:idx_vault_beneficiary;type:varchar(42);not null"`
	TotalAllocated decimal.Decimal `gorm:"type:decimal(65,18);not null"`
	TotalWithdrawn decimal.Decimal `gorm:"type:decimal(65,18);not null"`
}

// On-chain claim event. TxHash is globally unique and serves as the
// idempotency key; PriceUSD stays nil when the price oracle was unavailable
// at ingestion time.
type Claim struct {
	BaseEntity
	UserAddress  string          `gorm:"type:varchar(42);index"`
	TokenAddress string          `gorm:"type:varchar(42);index"`
	Amount       decimal.Decimal `gorm:"type:decimal(65,18);not null"`
	ClaimedAt    time.Time
	TxHash       string           `gorm:"type:varchar(66);uniqueIndex;not null"`
	BlockNumber  uint64           `gorm:"index"`
	PriceUSD     *decimal.Decimal `gorm:"type:decimal(65,18)"`
}
