package claims

import (
	"context"
	"time"

	"vesting-indexer/config"
	"vesting-indexer/database"
	"vesting-indexer/indexer/events"
	"vesting-indexer/indexer/notify"
	"vesting-indexer/logger"
	"vesting-indexer/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const sideEffectTimeout = 15 * time.Second

// Aggregator maintains a per-user total claimed USD value, cached with a
// TTL. Recomputed after every recorded claim.
type Aggregator struct {
	db    *gorm.DB
	cache utils.Cache[string, decimal.Decimal]
}

func NewAggregator(db *gorm.DB, cache utils.Cache[string, decimal.Decimal]) *Aggregator {
	return &Aggregator{db: db, cache: cache}
}

func (a *Aggregator) UserClaimValue(userAddress string) (decimal.Decimal, error) {
	if total, ok := a.cache.Get(userAddress); ok {
		return total, nil
	}
	total, err := a.recompute(userAddress)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (a *Aggregator) Invalidate(userAddress string) {
	a.cache.Remove(userAddress)
}

func (a *Aggregator) recompute(userAddress string) (decimal.Decimal, error) {
	claims, err := database.FetchUserClaims(a.db, userAddress)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for i := range claims {
		if claims[i].PriceUSD == nil {
			continue
		}
		total = total.Add(claims[i].Amount.Mul(*claims[i].PriceUSD))
	}
	a.cache.Add(userAddress, total)
	return total, nil
}

// StartConsumers subscribes the claim side effects to the event bus: the
// large-claim alert, the aggregate-value recompute with cache invalidation,
// and the optional organization webhook. Every failure is caught and logged;
// none can reach the primary write path.
func StartConsumers(
	bus *events.Bus,
	aggregator *Aggregator,
	notifier notify.Notifier,
	cfg *config.NotificationConfig,
) {
	threshold := decimal.NewFromFloat(cfg.LargeClaimThresholdUSD)

	bus.SubscribeFunc(events.ClaimRecorded, func(e events.Event) {
		claim := claimFromEvent(e)
		if claim == nil {
			return
		}
		alertLargeClaim(claim, threshold, notifier)
	})

	bus.SubscribeFunc(events.ClaimRecorded, func(e events.Event) {
		claim := claimFromEvent(e)
		if claim == nil {
			return
		}
		aggregator.Invalidate(claim.UserAddress)
		if _, err := aggregator.UserClaimValue(claim.UserAddress); err != nil {
			logger.Error("aggregate recompute failed for %s: %v", claim.UserAddress, err)
		}
	})

	if cfg.OrgWebhookURL != "" {
		orgNotifier := notify.NewWebhookNotifier(cfg.OrgWebhookURL,
			time.Duration(cfg.TimeoutMillis)*time.Millisecond)
		bus.SubscribeFunc(events.ClaimRecorded, func(e events.Event) {
			claim := claimFromEvent(e)
			if claim == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
			defer cancel()
			if err := orgNotifier.Notify(ctx, string(events.ClaimRecorded), claim); err != nil {
				logger.Error("org webhook failed for claim %s: %v", claim.TxHash, err)
			}
		})
	}
}

func claimFromEvent(e events.Event) *database.Claim {
	payload, ok := e.Payload.(ClaimEvent)
	if !ok {
		logger.Error("unexpected payload type for event %s", e.ID)
		return nil
	}
	return payload.Claim
}

func alertLargeClaim(claim *database.Claim, threshold decimal.Decimal, notifier notify.Notifier) {
	if claim.PriceUSD == nil {
		return
	}
	value := claim.Amount.Mul(*claim.PriceUSD)
	if value.LessThanOrEqual(threshold) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()
	err := notifier.Notify(ctx, "LARGE_CLAIM", map[string]any{
		"user":     claim.UserAddress,
		"token":    claim.TokenAddress,
		"amount":   claim.Amount,
		"valueUsd": value,
		"txHash":   claim.TxHash,
	})
	if err != nil {
		logger.Error("large claim alert failed for %s: %v", claim.TxHash, err)
	}
}
