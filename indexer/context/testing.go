package context

import (
	"vesting-indexer/database"
	"vesting-indexer/indexer/config"
)

// BuildTestContext creates a context backed by an in-memory database
func BuildTestContext(cfg *config.Config) (IndexerContext, error) {
	ctx := indexerContext{config: cfg}

	db, err := database.ConnectAndInitializeTestDB(&cfg.DB)
	if err != nil {
		return nil, err
	}
	ctx.db = db
	return &ctx, nil
}
