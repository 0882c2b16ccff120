package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"vesting-indexer/config"
	"vesting-indexer/utils"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	defaultCacheSize = 1000
	defaultCacheTTL  = 5 * time.Minute

	// Historical prices are bucketed per hour for caching
	priceBucket = time.Hour
)

// PriceOracle returns the USD price of a token at a point in time.
// Implementations must respect the context deadline; a caller may tolerate
// an error by storing a null price.
type PriceOracle interface {
	PriceAt(ctx context.Context, tokenAddress string, ts time.Time) (decimal.Decimal, error)
}

type httpOracle struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   utils.Cache[string, decimal.Decimal]
	retry   utils.RetryPolicy
}

func NewHTTPOracle(cfg *config.PriceOracleConfig) PriceOracle {
	timeout := time.Duration(cfg.TimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &httpOracle{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		cache:   utils.NewTTLCache[string, decimal.Decimal](cacheSize, ttl, time.Now),
		retry:   utils.RetryPolicy{},
	}
}

type priceResponse struct {
	Price decimal.Decimal `json:"price"`
}

func (o *httpOracle) PriceAt(ctx context.Context, tokenAddress string, ts time.Time) (decimal.Decimal, error) {
	key := cacheKey(tokenAddress, ts)
	if price, ok := o.cache.Get(key); ok {
		return price, nil
	}

	price, err := utils.Retry(o.retry, func() (decimal.Decimal, error) {
		return o.fetchPrice(ctx, tokenAddress, ts)
	})
	if err != nil {
		return decimal.Zero, err
	}

	o.cache.Add(key, price)
	return price, nil
}

func (o *httpOracle) fetchPrice(ctx context.Context, tokenAddress string, ts time.Time) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("token", tokenAddress)
	query.Set("timestamp", fmt.Sprint(ts.Unix()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/price?"+query.Encode(), nil)
	if err != nil {
		return decimal.Zero, utils.NonRetryable(err)
	}
	if o.apiKey != "" {
		req.Header.Set("X-API-Key", o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "price oracle request")
	}
	defer resp.Body.Close()

	// Client errors other than rate limiting will not succeed on retry
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return decimal.Zero, utils.NonRetryable(fmt.Errorf("price oracle returned status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price oracle returned status %d", resp.StatusCode)
	}

	var pr priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return decimal.Zero, errors.Wrap(err, "decoding price response")
	}
	return pr.Price, nil
}

func cacheKey(tokenAddress string, ts time.Time) string {
	return fmt.Sprintf("%s:%d", tokenAddress, ts.Truncate(priceBucket).Unix())
}
