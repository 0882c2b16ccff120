package cronjob

import (
	"context"
	"time"

	"vesting-indexer/database"
	indexerctx "vesting-indexer/indexer/context"
	"vesting-indexer/indexer/notify"
	"vesting-indexer/logger"
	"vesting-indexer/utils"

	"gorm.io/gorm"
)

// cliffCronjob scans for schedules whose cliff ends inside the look-ahead
// window and notifies the dispatcher once per schedule
type cliffCronjob struct {
	db        *gorm.DB
	notifier  notify.Notifier
	enabled   bool
	timeout   time.Duration
	lookahead time.Duration

	// For testing to set "now" to some past date
	time utils.ShiftedTime
}

func NewCliffCronjob(ctx indexerctx.IndexerContext, notifier notify.Notifier) Cronjob {
	cfg := ctx.Config().CliffScan
	return &cliffCronjob{
		db:        ctx.DB(),
		notifier:  notifier,
		enabled:   cfg.Enabled,
		timeout:   cfg.Timeout(),
		lookahead: time.Duration(cfg.LookaheadHours) * time.Hour,
	}
}

func (c *cliffCronjob) Name() string { return "cliff_scan" }

func (c *cliffCronjob) Enabled() bool { return c.enabled }

func (c *cliffCronjob) Timeout() time.Duration { return c.timeout }

func (c *cliffCronjob) OnStart() error { return nil }

func (c *cliffCronjob) Call() error {
	now := c.time.Now()
	schedules, err := database.FetchUpcomingCliffs(c.db, now, now.Add(c.lookahead))
	if err != nil {
		return err
	}

	for i := range schedules {
		s := &schedules[i]

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := c.notifier.Notify(ctx, "CLIFF_APPROACHING", map[string]any{
			"vaultId":  s.VaultID,
			"cliffEnd": s.CliffEnd,
			"amount":   s.Amount,
		})
		cancel()
		if err != nil {
			// Notification delivery is best effort; the schedule stays
			// unmarked and is retried on the next scan
			logger.Error("cliff notification failed for schedule %d: %v", s.ID, err)
			continue
		}

		s.CliffNotified = true
		if err := database.UpdateVestingSchedule(c.db, s); err != nil {
			return err
		}
	}
	return nil
}
