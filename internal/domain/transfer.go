package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount indicates a malformed or non-positive amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrSelfTransfer indicates that source and destination accounts are the same.
	ErrSelfTransfer = errors.New("transfer to the same account")
	// ErrInsufficientBalance indicates that the account does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrAccountBusy indicates that a row lock on one of the accounts could not be
	// acquired within the bounded wait. The transfer may be retried.
	ErrAccountBusy = errors.New("account busy, retry the transfer")
	// ErrTransferNotFound indicates that the transfer is not found.
	ErrTransferNotFound = errors.New("transfer not found")
	// ErrTransferFinalized indicates an attempt to change the status of a transfer
	// that already reached a terminal status.
	ErrTransferFinalized = errors.New("transfer already finalized")
)

// TransferStatus is the lifecycle status of a ledger entry. Once a transfer
// reaches a terminal status the row is never mutated again.
type TransferStatus string

// All possible transfer statuses.
const (
	StatusInProgress TransferStatus = "IN_PROGRESS"
	StatusSuccess    TransferStatus = "SUCCESS"
	StatusFailed     TransferStatus = "FAILED"
)

// Terminal reports whether the status is final.
func (s TransferStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed:
		return true
	case StatusInProgress:
		return false
	}

	return false
}

// Transfer is an immutable ledger entry recording one attempted movement of
// funds. Account ids are stored by value so history survives account deletion.
type Transfer struct {
	ID            int64          `json:"id"`
	FromAccountID string         `json:"from_account_id"`
	ToAccountID   string         `json:"to_account_id"`
	Amount        string         `json:"amount"` // must be positive
	Status        TransferStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CreateTransferParams is the input data for the transfer transaction.
type CreateTransferParams struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
}

// InsufficientBalanceError reports a balance check failure together with the
// amounts involved. It matches ErrInsufficientBalance via errors.Is.
type InsufficientBalanceError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: available %s, requested %s",
		e.Available.String(), e.Requested.String())
}

// Is makes errors.Is(err, ErrInsufficientBalance) hold for this error.
func (e InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
