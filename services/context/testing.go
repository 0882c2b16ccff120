package context

import (
	"vesting-indexer/database"
	"vesting-indexer/services/config"
)

// BuildTestContext creates a context backed by an in-memory database
func BuildTestContext(cfg *config.Config) (ServicesContext, error) {
	ctx := servicesContext{config: cfg}

	db, err := database.ConnectAndInitializeTestDB(&cfg.DB)
	if err != nil {
		return nil, err
	}
	ctx.db = db
	return &ctx, nil
}
