package routes

import (
	"net/http"

	"vesting-indexer/indexer/client"
	"vesting-indexer/indexer/cronjob"
	"vesting-indexer/indexer/tracker"
	"vesting-indexer/indexer/vaults"
	"vesting-indexer/services/api"
	"vesting-indexer/services/context"
	"vesting-indexer/services/utils"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type adminRouteHandlers struct {
	tracker    *tracker.Tracker
	reconciler *cronjob.Reconciler
}

func newAdminRouteHandlers(ctx context.ServicesContext) *adminRouteHandlers {
	return &adminRouteHandlers{
		tracker: tracker.New(ctx.DB(), vaults.StateName),
		reconciler: cronjob.NewReconciler(
			cronjob.NewReconcileDBGorm(ctx.DB()),
			client.NewLedgerClient(&ctx.Config().Chain),
		),
	}
}

func (rh *adminRouteHandlers) getCursor(w http.ResponseWriter, r *http.Request) {
	cursor, err := rh.tracker.LastIngestedLedger()
	if utils.HandleInternalServerError(w, err) {
		return
	}
	utils.WriteApiResponseOk(w, api.ApiCursorResponse{LastIngestedLedger: cursor})
}

func (rh *adminRouteHandlers) rollback(w http.ResponseWriter, r *http.Request) {
	var request api.ApiRollbackRequest
	if !utils.DecodeBody(w, r, &request) {
		return
	}

	result, err := rh.tracker.RollbackToLedger(request.TargetSequence)
	if err != nil {
		if errors.Is(err, tracker.ErrCursorRegression) {
			utils.WriteApiResponseError(w, api.ApiResStatusInvalidRequest,
				"invalid rollback target", err.Error())
			return
		}
		utils.HandleInternalServerError(w, err)
		return
	}
	utils.WriteApiResponseOk(w, api.ApiRollbackResponse{
		ClaimsDeleted:    result.ClaimsDeleted,
		SchedulesDeleted: result.SchedulesDeleted,
		Cursor:           result.Cursor,
	})
}

// A manually triggered reconciliation run propagates failures to the caller
// instead of swallowing them like the scheduled run does
func (rh *adminRouteHandlers) reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := rh.reconciler.Reconcile(r.Context())
	if utils.HandleInternalServerError(w, err) {
		return
	}
	utils.WriteApiResponseOk(w, api.ApiReconcileResponse{
		OnChainCount: result.OnChainCount,
		DBCount:      result.DBCount,
		Mismatch:     result.Mismatch,
		Backfilled:   result.Backfilled,
	})
}

func AddAdminRoutes(router *mux.Router, ctx context.ServicesContext) {
	rh := newAdminRouteHandlers(ctx)
	subrouter := router.PathPrefix("/admin").Subrouter()
	subrouter.HandleFunc("/cursor", rh.getCursor).Methods(http.MethodGet)
	subrouter.HandleFunc("/rollback", rh.rollback).Methods(http.MethodPost)
	subrouter.HandleFunc("/reconcile", rh.reconcile).Methods(http.MethodPost)
}
