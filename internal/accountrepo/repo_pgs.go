// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/m-koval/bank-ledger/internal/domain"
	"github.com/m-koval/bank-ledger/pkg/dbpkg"
	"github.com/m-koval/bank-ledger/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates account repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns account RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

func scanAccount(row *sql.Row, a *domain.Account) error {
	return row.Scan(
		&a.ID,
		&a.Number,
		&a.Name,
		&a.Owner,
		&a.Balance,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

const createQuery = `
INSERT INTO
    accounts (number, name, owner, balance)
VALUES
    ($1, $2, $3, $4)
RETURNING id, number, name, owner, balance, created_at, updated_at
`

// Create creates the account and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, arg.Number, arg.Name, arg.Owner, arg.Balance)

	var a domain.Account

	if err := scanAccount(row, &a); err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "accounts_owner_fkey":
				return a, domain.ErrOwnerNotFound
			case "accounts_balance_check":
				return a, domain.ErrNegativeBalance
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const getQuery = `
SELECT
	id, number, name, owner, balance, created_at, updated_at
FROM accounts
WHERE id = $1
`

// Get returns the account with the given id.
func (r *RepoPGS) Get(ctx context.Context, id string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	var a domain.Account

	if err := scanAccount(row, &a); err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const addBalanceQuery = `
UPDATE accounts
SET balance = balance + $1, updated_at = now()
WHERE id = $2
RETURNING id, number, name, owner, balance, created_at, updated_at
`

// AddBalance changes the account's balance and returns the changed account.
// A negative amount decrements the balance; the accounts_balance_check
// constraint rejects updates that would make it negative.
func (r *RepoPGS) AddBalance(ctx context.Context, amount string, id string) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, addBalanceQuery, amount, id)

	var a domain.Account

	if err := scanAccount(row, &a); err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Constraint == "accounts_balance_check" {
				return a, domain.ErrInsufficientBalance
			}

			if pqErr.Code.Name() == "lock_not_available" {
				return a, domain.ErrAccountBusy
			}
		}

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const updateQuery = `
UPDATE accounts
SET name = COALESCE($2, name),
    number = COALESCE($3, number),
    updated_at = now()
WHERE id = $1
RETURNING id, number, name, owner, balance, created_at, updated_at
`

// Update patches the account name and number. Nil params leave the
// column untouched. Balance has no update path here.
func (r *RepoPGS) Update(ctx context.Context, arg domain.UpdateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, updateQuery, arg.ID, arg.Name, arg.Number)

	var a domain.Account

	if err := scanAccount(row, &a); err != nil {
		if err == sql.ErrNoRows {
			return a, domain.ErrAccountNotFound
		}

		l.Error().Err(err).Send()

		return a, errorspkg.ErrInternal
	}

	return a, nil
}

const deleteQuery = `
DELETE FROM accounts
WHERE id = $1
`

// Delete removes the account with the given id. Ledger history referencing
// the account is kept.
func (r *RepoPGS) Delete(ctx context.Context, id string) error {
	l := zerolog.Ctx(ctx)

	res, err := r.db.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	n, err := res.RowsAffected()
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

const searchQuery = `
SELECT
	id, number, name, owner, balance, created_at, updated_at
FROM accounts
WHERE owner = $1
  AND ($2 = '' OR number ILIKE '%' || $2 || '%')
  AND ($3 = '' OR name ILIKE '%' || $3 || '%')
ORDER BY created_at
`

// likeEscaper neutralizes ILIKE pattern metacharacters in user input so
// filters match them literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search returns the caller's accounts, optionally filtered by substring
// matches on number and name.
func (r *RepoPGS) Search(ctx context.Context, arg domain.SearchAccountsParams) ([]domain.Account, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, searchQuery,
		arg.Owner, likeEscaper.Replace(arg.Number), likeEscaper.Replace(arg.Name))
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Account{}

	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Number, &a.Name, &a.Owner, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, a)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
