package runner

import (
	"time"

	"vesting-indexer/indexer/claims"
	"vesting-indexer/indexer/client"
	"vesting-indexer/indexer/context"
	"vesting-indexer/indexer/cronjob"
	"vesting-indexer/indexer/events"
	"vesting-indexer/indexer/notify"
	"vesting-indexer/indexer/oracle"
	"vesting-indexer/indexer/vaults"
	"vesting-indexer/utils"

	"github.com/shopspring/decimal"
)

func Start(ctx context.IndexerContext) {
	cfg := ctx.Config()

	ledger := client.NewLedgerClient(&cfg.Chain)
	priceOracle := oracle.NewHTTPOracle(&cfg.PriceOracle)

	var notifier notify.Notifier
	if cfg.Notifications.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notifications.WebhookURL,
			time.Duration(cfg.Notifications.TimeoutMillis)*time.Millisecond)
	} else {
		notifier = notify.NewNopNotifier()
	}

	bus := events.NewBus(0)
	aggregator := claims.NewAggregator(ctx.DB(),
		utils.NewTTLCache[string, decimal.Decimal](1000, 10*time.Minute, time.Now))
	claims.StartConsumers(bus, aggregator, notifier, &cfg.Notifications)

	ingestor := claims.NewIngestor(claims.NewClaimDBGorm(ctx.DB()), priceOracle, bus)
	vaultIndexer := vaults.CreateVaultIndexer(ctx, ledger, ingestor)

	go vaultIndexer.Run()

	go cronjob.RunCronjob(cronjob.NewReconcileCronjob(ctx, ledger))
	go cronjob.RunCronjob(cronjob.NewPriceBackfillCronjob(ctx, ingestor))
	go cronjob.RunCronjob(cronjob.NewCliffCronjob(ctx, notifier))
}
