package routes

import (
	"net/http"
	"time"

	"vesting-indexer/indexer/claims"
	"vesting-indexer/indexer/client"
	"vesting-indexer/indexer/events"
	"vesting-indexer/indexer/notify"
	"vesting-indexer/indexer/oracle"
	"vesting-indexer/services/api"
	"vesting-indexer/services/context"
	"vesting-indexer/services/utils"
	globalUtils "vesting-indexer/utils"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type claimsRouteHandlers struct {
	ingestor *claims.Ingestor
}

func newClaimsRouteHandlers(ctx context.ServicesContext) *claimsRouteHandlers {
	cfg := ctx.Config()

	var notifier notify.Notifier
	if cfg.Notifications.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notifications.WebhookURL,
			time.Duration(cfg.Notifications.TimeoutMillis)*time.Millisecond)
	} else {
		notifier = notify.NewNopNotifier()
	}

	bus := events.NewBus(0)
	aggregator := claims.NewAggregator(ctx.DB(),
		globalUtils.NewTTLCache[string, decimal.Decimal](1000, 10*time.Minute, time.Now))
	claims.StartConsumers(bus, aggregator, notifier, &cfg.Notifications)

	ingestor := claims.NewIngestor(
		claims.NewClaimDBGorm(ctx.DB()),
		oracle.NewHTTPOracle(&cfg.PriceOracle),
		bus,
	)
	return &claimsRouteHandlers{ingestor: ingestor}
}

func claimDataFromRequest(request *api.ApiClaimRequest) *claims.ClaimData {
	return &claims.ClaimData{
		UserAddress:  client.NormalizeAddress(request.UserAddress),
		TokenAddress: client.NormalizeAddress(request.TokenAddress),
		Amount:       request.Amount,
		TxHash:       request.TxHash,
		BlockNumber:  request.BlockNumber,
		ClaimedAt:    request.ClaimedAt,
	}
}

func (rh *claimsRouteHandlers) processClaim(w http.ResponseWriter, r *http.Request) {
	var request api.ApiClaimRequest
	if !utils.DecodeBody(w, r, &request) {
		return
	}

	claim, err := rh.ingestor.ProcessClaim(r.Context(), claimDataFromRequest(&request))
	if err != nil {
		if errors.Is(err, claims.ErrDuplicateClaim) {
			utils.WriteApiResponseError(w, api.ApiResStatusDuplicate,
				"claim already recorded", request.TxHash)
			return
		}
		utils.HandleInternalServerError(w, err)
		return
	}
	utils.WriteApiResponseOk(w, api.NewApiClaim(claim))
}

func (rh *claimsRouteHandlers) processBatchClaims(w http.ResponseWriter, r *http.Request) {
	var request api.ApiBatchClaimsRequest
	if !utils.DecodeBody(w, r, &request) {
		return
	}

	data := make([]*claims.ClaimData, len(request.Claims))
	for i := range request.Claims {
		data[i] = claimDataFromRequest(&request.Claims[i])
	}

	result := rh.ingestor.ProcessBatch(r.Context(), data)

	response := api.ApiBatchClaimsResponse{
		ProcessedCount: result.ProcessedCount,
		ErrorCount:     result.ErrorCount,
		Results:        make([]api.ApiClaim, len(result.Results)),
		Errors:         make([]string, len(result.Errors)),
	}
	for i, claim := range result.Results {
		response.Results[i] = api.NewApiClaim(claim)
	}
	for i, err := range result.Errors {
		response.Errors[i] = err.Error()
	}
	utils.WriteApiResponseOk(w, response)
}

func (rh *claimsRouteHandlers) backfillPrices(w http.ResponseWriter, r *http.Request) {
	updated, err := rh.ingestor.BackfillMissingPrices(r.Context())
	if utils.HandleInternalServerError(w, err) {
		return
	}
	utils.WriteApiResponseOk(w, api.ApiBackfillResponse{Updated: updated})
}

func AddClaimRoutes(router *mux.Router, ctx context.ServicesContext) {
	rh := newClaimsRouteHandlers(ctx)
	subrouter := router.PathPrefix("/claims").Subrouter()
	subrouter.HandleFunc("/process", rh.processClaim).Methods(http.MethodPost)
	subrouter.HandleFunc("/batch", rh.processBatchClaims).Methods(http.MethodPost)
	subrouter.HandleFunc("/backfill_prices", rh.backfillPrices).Methods(http.MethodPost)
}
