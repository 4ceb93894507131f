// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/m-koval/bank-ledger/internal/domain"
	"github.com/m-koval/bank-ledger/pkg/randompkg"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, id string) (domain.Account, error)
	Update(ctx context.Context, arg domain.UpdateAccountParams) (domain.Account, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, arg domain.SearchAccountsParams) ([]domain.Account, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo Repo
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo) *Service {
	return &Service{repo: ar}
}

// Create opens an account for the given owner with the given initial balance.
// The display number is generated here; the id is assigned by the store.
func (s *Service) Create(ctx context.Context, owner, name, balance string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Account{}, domain.ErrInvalidAmount
	}

	if parsed.IsNegative() {
		return domain.Account{}, domain.ErrNegativeBalance
	}

	arg := domain.CreateAccountParams{
		Number:  randompkg.AccountNumber(),
		Name:    name,
		Owner:   owner,
		Balance: balance,
	}

	account, err := s.repo.Create(ctx, arg)
	if err != nil {
		return account, err
	}

	return account, nil
}

// Get returns the account with the given id.
func (s *Service) Get(ctx context.Context, id string) (domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// Update patches the account name and display number. Balance is not
// reachable through this path.
func (s *Service) Update(ctx context.Context, arg domain.UpdateAccountParams) (domain.Account, error) {
	return s.repo.Update(ctx, arg)
}

// Delete removes the account. Ledger history referencing it is preserved.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Search returns accounts owned by the caller, optionally filtered by
// substring matches on the display number and name.
func (s *Service) Search(ctx context.Context, owner, number, name string) ([]domain.Account, error) {
	arg := domain.SearchAccountsParams{
		Owner:  owner,
		Number: number,
		Name:   name,
	}

	return s.repo.Search(ctx, arg)
}
