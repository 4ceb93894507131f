// Package transferrepo manages repository layer of transfers.
//
// A transfers row is the ledger entry for one attempted movement of funds.
// Rows with a terminal status are never mutated again.
package transferrepo

import (
	"context"
	"database/sql"

	"github.com/m-koval/bank-ledger/internal/accountrepo"
	"github.com/m-koval/bank-ledger/internal/domain"
	"github.com/m-koval/bank-ledger/pkg/dbpkg"
	"github.com/m-koval/bank-ledger/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Bounded wait for row locks inside the transfer transaction. On expiry the
// transfer fails with domain.ErrAccountBusy instead of blocking indefinitely.
const lockTimeoutQuery = `SET LOCAL lock_timeout = '3s'`

// RepoPGS facilitates transfer repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns transfer RepoPGS bound to an existing transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns transfer RepoPGS with a connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

func scanTransfer(row *sql.Row, t *domain.Transfer) error {
	return row.Scan(
		&t.ID,
		&t.FromAccountID,
		&t.ToAccountID,
		&t.Amount,
		&t.Status,
		&t.CreatedAt,
	)
}

const createQuery = `
INSERT INTO
    transfers (from_account_id, to_account_id, amount, status)
VALUES
    ($1, $2, $3, $4)
RETURNING id, from_account_id, to_account_id, amount, status, created_at
`

// CreateWithStatus writes a ledger entry with the given status and returns it.
func (r *RepoPGS) CreateWithStatus(
	ctx context.Context,
	arg domain.CreateTransferParams,
	status domain.TransferStatus,
) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, arg.FromAccountID, arg.ToAccountID, arg.Amount, status)

	var t domain.Transfer

	if err := scanTransfer(row, &t); err != nil {
		l.Error().Err(err).Msgf("CreateWithStatus(ctx, %+v, %v)", arg, status)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "transfers_amount_check":
				return t, domain.ErrInvalidAmount
			case "transfers_accounts_check":
				return t, domain.ErrSelfTransfer
			}
		}

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const setStatusQuery = `
UPDATE transfers
SET status = $2
WHERE id = $1 AND status = 'IN_PROGRESS'
RETURNING id, from_account_id, to_account_id, amount, status, created_at
`

// SetStatus finalizes an IN_PROGRESS ledger entry. Finalizing an entry that
// already reached a terminal status returns domain.ErrTransferFinalized.
func (r *RepoPGS) SetStatus(ctx context.Context, id int64, status domain.TransferStatus) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	if !status.Terminal() {
		return domain.Transfer{}, domain.ErrTransferFinalized
	}

	row := r.db.QueryRowContext(ctx, setStatusQuery, id, status)

	var t domain.Transfer

	if err := scanTransfer(row, &t); err != nil {
		if err == sql.ErrNoRows {
			if _, getErr := r.Get(ctx, id); getErr == domain.ErrTransferNotFound {
				return t, domain.ErrTransferNotFound
			}

			return t, domain.ErrTransferFinalized
		}

		l.Error().Err(err).Send()

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const getQuery = `
SELECT
	id, from_account_id, to_account_id, amount, status, created_at
FROM transfers
WHERE id = $1
`

// Get returns the transfer with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	var t domain.Transfer

	if err := scanTransfer(row, &t); err != nil {
		if err == sql.ErrNoRows {
			return t, domain.ErrTransferNotFound
		}

		l.Error().Err(err).Send()

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const listBySourceQuery = `
SELECT
	id, from_account_id, to_account_id, amount, status, created_at
FROM transfers
WHERE from_account_id = $1
ORDER BY created_at DESC, id DESC
`

const listByDestinationQuery = `
SELECT
	id, from_account_id, to_account_id, amount, status, created_at
FROM transfers
WHERE to_account_id = $1
ORDER BY created_at DESC, id DESC
`

// ListBySource returns ledger entries where the account is the source leg.
func (r *RepoPGS) ListBySource(ctx context.Context, accountID string) ([]domain.Transfer, error) {
	return r.list(ctx, listBySourceQuery, accountID)
}

// ListByDestination returns ledger entries where the account is the destination leg.
func (r *RepoPGS) ListByDestination(ctx context.Context, accountID string) ([]domain.Transfer, error) {
	return r.list(ctx, listByDestinationQuery, accountID)
}

func (r *RepoPGS) list(ctx context.Context, query, accountID string) ([]domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transfer{}

	for rows.Next() {
		var t domain.Transfer
		if err := rows.Scan(
			&t.ID,
			&t.FromAccountID,
			&t.ToAccountID,
			&t.Amount,
			&t.Status,
			&t.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

// TransferTx moves money between two accounts.
//
// Both balance updates and the SUCCESS ledger entry are committed as a single
// database transaction: concurrent readers observe all of it or none of it.
func (r *RepoPGS) TransferTx(ctx context.Context, arg domain.CreateTransferParams) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	var result domain.Transfer

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	if _, err := tx.ExecContext(ctx, lockTimeoutQuery); err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	accountRepo := accountrepo.NewRepoPGS(tx)

	// To avoid deadlocks acquire the row locks in consistent id order.
	if arg.FromAccountID < arg.ToAccountID {
		_, err = accountRepo.AddBalance(ctx, "-"+arg.Amount, arg.FromAccountID)
		if err == nil {
			_, err = accountRepo.AddBalance(ctx, arg.Amount, arg.ToAccountID)
		}
	} else {
		_, err = accountRepo.AddBalance(ctx, arg.Amount, arg.ToAccountID)
		if err == nil {
			_, err = accountRepo.AddBalance(ctx, "-"+arg.Amount, arg.FromAccountID)
		}
	}

	if err != nil {
		return result, normalizeTxErr(err)
	}

	txRepo := NewTxRepoPGS(tx)

	result, err = txRepo.CreateWithStatus(ctx, arg, domain.StatusSuccess)
	if err != nil {
		return result, normalizeTxErr(err)
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	return result, nil
}

// normalizeTxErr keeps domain errors intact; everything else is internal.
func normalizeTxErr(err error) error {
	switch err {
	case domain.ErrAccountNotFound,
		domain.ErrInsufficientBalance,
		domain.ErrInvalidAmount,
		domain.ErrSelfTransfer,
		domain.ErrAccountBusy:
		return err
	}

	return errorspkg.ErrInternal
}
