package routes

import (
	"net/http"
	"time"

	"vesting-indexer/indexer/client"
	"vesting-indexer/indexer/vesting"
	"vesting-indexer/services/api"
	"vesting-indexer/services/context"
	"vesting-indexer/services/utils"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type withdrawalRouteHandlers struct {
	ledger *vesting.Ledger
}

func newWithdrawalRouteHandlers(ctx context.ServicesContext) *withdrawalRouteHandlers {
	return &withdrawalRouteHandlers{
		ledger: vesting.NewLedger(ctx.DB()),
	}
}

func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vesting.ErrVaultNotFound):
		utils.WriteApiResponseError(w, api.ApiResStatusNotFound, "vault not found", err.Error())
	case errors.Is(err, vesting.ErrBeneficiaryNotFound):
		utils.WriteApiResponseError(w, api.ApiResStatusNotFound, "beneficiary not found", err.Error())
	case errors.Is(err, vesting.ErrInsufficientVestedAmount):
		utils.WriteApiResponseError(w, api.ApiResStatusInvalidRequest,
			"insufficient vested amount", err.Error())
	default:
		utils.HandleInternalServerError(w, err)
	}
}

func (rh *withdrawalRouteHandlers) getWithdrawableInfo(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	vaultAddress := client.NormalizeAddress(params["vault"])
	beneficiaryAddress := client.NormalizeAddress(params["beneficiary"])

	info, err := rh.ledger.WithdrawableInfo(vaultAddress, beneficiaryAddress, time.Now())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	utils.WriteApiResponseOk(w, api.NewApiWithdrawableInfo(info))
}

func (rh *withdrawalRouteHandlers) processWithdrawal(w http.ResponseWriter, r *http.Request) {
	var request api.ApiWithdrawalRequest
	if !utils.DecodeBody(w, r, &request) {
		return
	}

	info, err := rh.ledger.ProcessWithdrawal(
		client.NormalizeAddress(request.VaultAddress),
		client.NormalizeAddress(request.BeneficiaryAddress),
		request.Amount,
		time.Now(),
	)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	utils.WriteApiResponseOk(w, api.NewApiWithdrawableInfo(info))
}

func AddWithdrawalRoutes(router *mux.Router, ctx context.ServicesContext) {
	rh := newWithdrawalRouteHandlers(ctx)
	subrouter := router.PathPrefix("/withdrawals").Subrouter()
	subrouter.HandleFunc("/process", rh.processWithdrawal).Methods(http.MethodPost)
	subrouter.HandleFunc("/{vault:0x[0-9a-fA-F]+}/{beneficiary:0x[0-9a-fA-F]+}",
		rh.getWithdrawableInfo).Methods(http.MethodGet)
}
