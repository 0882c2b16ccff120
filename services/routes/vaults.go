package routes

import (
	"net/http"
	"time"

	"vesting-indexer/database"
	"vesting-indexer/indexer/client"
	"vesting-indexer/indexer/vesting"
	"vesting-indexer/services/api"
	"vesting-indexer/services/context"
	"vesting-indexer/services/utils"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type vaultRouteHandlers struct {
	db *gorm.DB
}

func newVaultRouteHandlers(ctx context.ServicesContext) *vaultRouteHandlers {
	return &vaultRouteHandlers{
		db: ctx.DB(),
	}
}

func (rh *vaultRouteHandlers) getVaultSummary(w http.ResponseWriter, r *http.Request) {
	params := mux.Vars(r)
	address := client.NormalizeAddress(params["address"])
	now := time.Now()

	vault, err := database.FetchVault(rh.db, address)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteApiResponseError(w, api.ApiResStatusNotFound, "vault not found", address)
			return
		}
		utils.HandleInternalServerError(w, err)
		return
	}

	schedules, err := database.FetchVaultSchedules(rh.db, vault.ID)
	if utils.HandleInternalServerError(w, err) {
		return
	}
	beneficiaries, err := database.FetchVaultBeneficiaries(rh.db, vault.ID)
	if utils.HandleInternalServerError(w, err) {
		return
	}

	totalVested := decimal.Zero
	for i := range schedules {
		totalVested = totalVested.Add(vesting.VestedAmount(&schedules[i], now))
	}

	response := api.ApiVaultSummary{
		Address:       vault.Address,
		Owner:         vault.Owner,
		TokenAddress:  vault.TokenAddress,
		TotalAmount:   vault.TotalAmount,
		Active:        vault.Active,
		ScheduleCount: len(schedules),
		TotalVested:   totalVested,
		Beneficiaries: make([]api.ApiVaultBeneficiary, len(beneficiaries)),
	}
	for i := range beneficiaries {
		b := &beneficiaries[i]
		info := vesting.ComputeWithdrawable(b, schedules, now)
		response.Beneficiaries[i] = api.ApiVaultBeneficiary{
			Address:        b.Address,
			TotalAllocated: b.TotalAllocated,
			TotalWithdrawn: b.TotalWithdrawn,
			Withdrawable:   info.Withdrawable,
		}
	}
	utils.WriteApiResponseOk(w, response)
}

func (rh *vaultRouteHandlers) createTopUp(w http.ResponseWriter, r *http.Request) {
	var request api.ApiTopUpRequest
	if !utils.DecodeBody(w, r, &request) {
		return
	}

	schedule, err := vesting.CreateTopUp(rh.db, &vesting.TopUp{
		VaultAddress:    client.NormalizeAddress(request.VaultAddress),
		Amount:          request.Amount,
		CliffSeconds:    request.CliffSeconds,
		StartTime:       request.StartTime,
		DurationSeconds: request.DurationSeconds,
		TxHash:          request.TxHash,
		BlockNumber:     request.BlockNumber,
	})
	if err != nil {
		if errors.Is(err, vesting.ErrVaultNotFound) {
			utils.WriteApiResponseError(w, api.ApiResStatusNotFound,
				"vault not found", request.VaultAddress)
			return
		}
		utils.HandleInternalServerError(w, err)
		return
	}
	utils.WriteApiResponseOk(w, api.NewApiVestingSchedule(schedule))
}

func AddVaultRoutes(router *mux.Router, ctx context.ServicesContext) {
	rh := newVaultRouteHandlers(ctx)
	subrouter := router.PathPrefix("/vaults").Subrouter()
	subrouter.HandleFunc("/topup", rh.createTopUp).Methods(http.MethodPost)
	subrouter.HandleFunc("/{address:0x[0-9a-fA-F]+}/summary", rh.getVaultSummary).Methods(http.MethodGet)
}
