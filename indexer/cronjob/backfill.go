package cronjob

import (
	"context"
	"time"

	"vesting-indexer/indexer/claims"
	indexerctx "vesting-indexer/indexer/context"
)

// Periodically fills in USD prices for claims whose price fetch failed at
// ingestion time
type priceBackfillCronjob struct {
	ingestor *claims.Ingestor
	enabled  bool
	timeout  time.Duration
}

func NewPriceBackfillCronjob(ctx indexerctx.IndexerContext, ingestor *claims.Ingestor) Cronjob {
	cfg := ctx.Config().PriceBackfill
	return &priceBackfillCronjob{
		ingestor: ingestor,
		enabled:  cfg.Enabled,
		timeout:  cfg.Timeout(),
	}
}

func (c *priceBackfillCronjob) Name() string { return "price_backfill" }

func (c *priceBackfillCronjob) Enabled() bool { return c.enabled }

func (c *priceBackfillCronjob) Timeout() time.Duration { return c.timeout }

func (c *priceBackfillCronjob) OnStart() error { return nil }

func (c *priceBackfillCronjob) Call() error {
	_, err := c.ingestor.BackfillMissingPrices(context.Background())
	return err
}
