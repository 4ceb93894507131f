// Package transferservice manages business logic layer of transfers.
//
// It is the only writer of account balances and ledger entries.
package transferservice

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/m-koval/bank-ledger/internal/domain"
	"github.com/m-koval/bank-ledger/pkg/errorspkg"
)

// TransferCompletedTopic is the event topic for successfully committed transfers.
const TransferCompletedTopic = "transfer.completed"

// Repo provides data access layer interface needed by transfer service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package transferservice
type Repo interface {
	TransferTx(ctx context.Context, arg domain.CreateTransferParams) (domain.Transfer, error)
	CreateWithStatus(ctx context.Context, arg domain.CreateTransferParams, status domain.TransferStatus) (domain.Transfer, error)
	ListBySource(ctx context.Context, accountID string) ([]domain.Transfer, error)
	ListByDestination(ctx context.Context, accountID string) ([]domain.Transfer, error)
}

// AccountGetter provides the account lookups needed for validation.
type AccountGetter interface {
	Get(ctx context.Context, id string) (domain.Account, error)
}

// EventPublisher publishes domain events after a transfer commits.
type EventPublisher interface {
	Publish(topic string, event any) error
}

// Service facilitates transfer service layer logic.
type Service struct {
	repo     Repo
	accounts AccountGetter
	events   EventPublisher
}

// New returns transfer service struct to manage transfer bussines logic.
func New(tr Repo, ag AccountGetter, ep EventPublisher) *Service {
	return &Service{
		repo:     tr,
		accounts: ag,
		events:   ep,
	}
}

// validRequest runs the precondition checks in order; the first failing check
// wins. None of these checks writes a ledger entry.
func (s *Service) validRequest(ctx context.Context, fromUsername string, arg domain.CreateTransferParams) error {
	l := zerolog.Ctx(ctx)

	fromAccount, err := s.accounts.Get(ctx, arg.FromAccountID)
	if err != nil {
		l.Info().Err(err).Str("account_id", arg.FromAccountID).Msg("source account lookup")
		return err
	}

	if fromAccount.Owner != fromUsername {
		l.Warn().Str("account_id", arg.FromAccountID).Str("username", fromUsername).Msg("owner mismatch")
		return domain.ErrAccountOwnerMismatch
	}

	if _, err := s.accounts.Get(ctx, arg.ToAccountID); err != nil {
		l.Info().Err(err).Str("account_id", arg.ToAccountID).Msg("destination account lookup")
		return err
	}

	amount, err := decimal.NewFromString(arg.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.ErrInvalidAmount
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}

	if arg.FromAccountID == arg.ToAccountID {
		return domain.ErrSelfTransfer
	}

	balance, err := decimal.NewFromString(fromAccount.Balance)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	if balance.LessThan(amount) {
		return domain.InsufficientBalanceError{
			Available: balance,
			Requested: amount,
		}
	}

	return nil
}

// Transfer validates the transfer request and then executes it atomically.
//
// Requests rejected by the precondition checks leave no trace in the ledger.
// Once the mutation phase starts, the attempt always ends with exactly one
// terminal ledger entry: SUCCESS when the transaction committed, FAILED
// otherwise.
func (s *Service) Transfer(ctx context.Context, fromUsername string, arg domain.CreateTransferParams) (domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	if err := s.validRequest(ctx, fromUsername, arg); err != nil {
		return domain.Transfer{}, err
	}

	result, err := s.repo.TransferTx(ctx, arg)
	if err != nil {
		// The rolled back transaction left balances untouched, but the
		// attempt itself must stay auditable. The audit write runs on a
		// detached context so a cancelled request cannot abort it too.
		auditCtx := l.WithContext(context.Background())
		if _, auditErr := s.repo.CreateWithStatus(auditCtx, arg, domain.StatusFailed); auditErr != nil {
			l.Error().Err(auditErr).Msg("recording failed transfer")
		}

		return domain.Transfer{}, err
	}

	if s.events != nil {
		if err := s.events.Publish(TransferCompletedTopic, result); err != nil {
			l.Warn().Err(err).Int64("transfer_id", result.ID).Msg("publishing transfer event")
		}
	}

	return result, nil
}

// History returns the account's ledger entries, newest first.
//
// Entries where the account is either leg are merged and ordered by creation
// time descending, ties broken by id descending. An account without activity
// yields an empty slice.
func (s *Service) History(ctx context.Context, username, accountID string) ([]domain.Transfer, error) {
	l := zerolog.Ctx(ctx)

	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		l.Info().Err(err).Str("account_id", accountID).Msg("history account lookup")
		return nil, err
	}

	if account.Owner != username {
		l.Warn().Str("account_id", accountID).Str("username", username).Msg("owner mismatch")
		return nil, domain.ErrAccountOwnerMismatch
	}

	outgoing, err := s.repo.ListBySource(ctx, accountID)
	if err != nil {
		return nil, err
	}

	incoming, err := s.repo.ListByDestination(ctx, accountID)
	if err != nil {
		return nil, err
	}

	merged := make([]domain.Transfer, 0, len(outgoing)+len(incoming))
	merged = append(merged, outgoing...)
	merged = append(merged, incoming...)

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID > merged[j].ID
		}

		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	return merged, nil
}
