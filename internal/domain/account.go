// Package domain provides defenitions of all entities.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountOwnerMismatch indicates that the caller does not own the account.
	ErrAccountOwnerMismatch = errors.New("account owned by another user")
	// ErrOwnerNotFound indicates that the owner for the account is not found.
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrNegativeBalance indicates an attempt to open an account with a negative balance.
	ErrNegativeBalance = errors.New("negative initial balance")
)

// Account holds monetary balance data owned by a single user.
type Account struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateAccountParams is the input data to create an account.
type CreateAccountParams struct {
	Number  string `json:"number"`
	Name    string `json:"name"`
	Owner   string `json:"owner"`
	Balance string `json:"balance"`
}

// UpdateAccountParams is the input data to patch an account.
// Nil fields are left untouched. Balance is deliberately absent:
// balances change only through transfers.
type UpdateAccountParams struct {
	ID     string  `json:"id"`
	Name   *string `json:"name"`
	Number *string `json:"number"`
}

// SearchAccountsParams holds owner scope and optional substring filters.
type SearchAccountsParams struct {
	Owner  string `json:"owner"`
	Number string `json:"number"`
	Name   string `json:"name"`
}
