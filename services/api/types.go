package api

import (
	"time"

	"vesting-indexer/database"
	"vesting-indexer/indexer/vesting"

	"github.com/shopspring/decimal"
)

type ApiClaimRequest struct {
	UserAddress  string          `json:"userAddress" validate:"required,eth_addr"`
	TokenAddress string          `json:"tokenAddress" validate:"required,eth_addr"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	TxHash       string          `json:"txHash" validate:"required,tx-hash"`
	BlockNumber  uint64          `json:"blockNumber" validate:"required"`
	ClaimedAt    time.Time       `json:"claimedAt" validate:"required"`
}

type ApiBatchClaimsRequest struct {
	Claims []ApiClaimRequest `json:"claims" validate:"required,min=1,dive"`
}

type ApiBatchClaimsResponse struct {
	ProcessedCount int        `json:"processedCount"`
	ErrorCount     int        `json:"errorCount"`
	Results        []ApiClaim `json:"results"`
	Errors         []string   `json:"errors"`
}

type ApiClaim struct {
	ID           uint64           `json:"id"`
	UserAddress  string           `json:"userAddress"`
	TokenAddress string           `json:"tokenAddress"`
	Amount       decimal.Decimal  `json:"amount"`
	TxHash       string           `json:"txHash"`
	BlockNumber  uint64           `json:"blockNumber"`
	ClaimedAt    time.Time        `json:"claimedAt"`
	PriceUSD     *decimal.Decimal `json:"priceAtClaimUsd"`
}

func NewApiClaim(c *database.Claim) ApiClaim {
	return ApiClaim{
		ID:           c.ID,
		UserAddress:  c.UserAddress,
		TokenAddress: c.TokenAddress,
		Amount:       c.Amount,
		TxHash:       c.TxHash,
		BlockNumber:  c.BlockNumber,
		ClaimedAt:    c.ClaimedAt,
		PriceUSD:     c.PriceUSD,
	}
}

type ApiTopUpRequest struct {
	VaultAddress    string          `json:"vaultAddress" validate:"required,eth_addr"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	CliffSeconds    uint64          `json:"cliffSeconds"`
	StartTime       time.Time       `json:"startTime" validate:"required"`
	DurationSeconds uint64          `json:"durationSeconds"`
	TxHash          string          `json:"txHash" validate:"required,tx-hash"`
	BlockNumber     uint64          `json:"blockNumber" validate:"required"`
}

type ApiVestingSchedule struct {
	ID              uint64          `json:"id"`
	VaultID         uint64          `json:"vaultId"`
	Amount          decimal.Decimal `json:"amount"`
	AmountReleased  decimal.Decimal `json:"amountReleased"`
	CliffEnd        *time.Time      `json:"cliffEnd"`
	VestingStart    time.Time       `json:"vestingStart"`
	DurationSeconds uint64          `json:"durationSeconds"`
	TxHash          string          `json:"txHash"`
	BlockNumber     uint64          `json:"blockNumber"`
}

func NewApiVestingSchedule(s *database.VestingSchedule) ApiVestingSchedule {
	return ApiVestingSchedule{
		ID:              s.ID,
		VaultID:         s.VaultID,
		Amount:          s.Amount,
		AmountReleased:  s.AmountReleased,
		CliffEnd:        s.CliffEnd,
		VestingStart:    s.VestingStart,
		DurationSeconds: s.DurationSeconds,
		TxHash:          s.TxHash,
		BlockNumber:     s.BlockNumber,
	}
}

type ApiBackfillResponse struct {
	Updated int `json:"updated"`
}

type ApiCursorResponse struct {
	LastIngestedLedger uint64 `json:"lastIngestedLedger"`
}

type ApiWithdrawalRequest struct {
	VaultAddress       string          `json:"vaultAddress" validate:"required,eth_addr"`
	BeneficiaryAddress string          `json:"beneficiaryAddress" validate:"required,eth_addr"`
	Amount             decimal.Decimal `json:"amount" validate:"required"`
}

type ApiWithdrawableInfo struct {
	TotalVested   decimal.Decimal `json:"totalVested"`
	Withdrawable  decimal.Decimal `json:"withdrawable"`
	Remaining     decimal.Decimal `json:"remaining"`
	FullyVested   bool            `json:"isFullyVested"`
	NextVestEvent *time.Time      `json:"nextVestEvent"`
}

func NewApiWithdrawableInfo(info *vesting.WithdrawableInfo) ApiWithdrawableInfo {
	return ApiWithdrawableInfo{
		TotalVested:   info.TotalVested,
		Withdrawable:  info.Withdrawable,
		Remaining:     info.Remaining,
		FullyVested:   info.FullyVested,
		NextVestEvent: info.NextVestEvent,
	}
}

type ApiVaultSummary struct {
	Address       string              `json:"address"`
	Owner         string              `json:"owner"`
	TokenAddress  string              `json:"tokenAddress"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	Active        bool                `json:"active"`
	ScheduleCount int                 `json:"scheduleCount"`
	TotalVested   decimal.Decimal     `json:"totalVested"`
	Beneficiaries []ApiVaultBeneficiary `json:"beneficiaries"`
}

type ApiVaultBeneficiary struct {
	Address        string          `json:"address"`
	TotalAllocated decimal.Decimal `json:"totalAllocated"`
	TotalWithdrawn decimal.Decimal `json:"totalWithdrawn"`
	Withdrawable   decimal.Decimal `json:"withdrawable"`
}

type ApiRollbackRequest struct {
	TargetSequence uint64 `json:"targetSequence"`
}

type ApiRollbackResponse struct {
	ClaimsDeleted    int64  `json:"claimsDeleted"`
	SchedulesDeleted int64  `json:"schedulesDeleted"`
	Cursor           uint64 `json:"cursor"`
}

type ApiReconcileResponse struct {
	OnChainCount uint64 `json:"onChainCount"`
	DBCount      uint64 `json:"dbCount"`
	Mismatch     bool   `json:"mismatch"`
	Backfilled   int    `json:"backfilled"`
}
