package migrations

import (
	"time"

	"vesting-indexer/database"
	"vesting-indexer/indexer/vaults"

	"gorm.io/gorm"
)

func init() {
	Container.Add("2024-03-04-00-00", "Create initial state for vault event ingestion", createVaultEventState)
}

func createVaultEventState(db *gorm.DB) error {
	return database.CreateState(db, &database.State{
		Name:           vaults.StateName,
		NextDBIndex:    0,
		LastChainIndex: 0,
		Updated:        time.Now(),
	})
}
