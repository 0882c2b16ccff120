package vesting

import "github.com/pkg/errors"

var (
	ErrVaultNotFound       = errors.New("vault not found")
	ErrBeneficiaryNotFound = errors.New("beneficiary not found")

	// Withdrawal or release exceeding the releasable amount; the operation
	// is rejected without any partial mutation
	ErrInsufficientVestedAmount = errors.New("insufficient vested amount")
)
