// Package helpers provides shared test helpers.
package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/m-koval/bank-ledger/internal/accountrepo"
	"github.com/m-koval/bank-ledger/internal/domain"
	"github.com/m-koval/bank-ledger/internal/sessionrepo"
	"github.com/m-koval/bank-ledger/internal/transferrepo"
	"github.com/m-koval/bank-ledger/internal/userrepo"
	"github.com/m-koval/bank-ledger/pkg/dbpkg"
	"github.com/m-koval/bank-ledger/pkg/passpkg"
	"github.com/m-koval/bank-ledger/pkg/randompkg"
)

// RandomAccount returns random account owned by the given owner.
func RandomAccount(owner string) domain.Account {
	return domain.Account{
		ID:        uuid.NewString(),
		Number:    randompkg.AccountNumber(),
		Name:      randompkg.String(10),
		Owner:     owner,
		Balance:   randompkg.MoneyAmountBetween(1000, 10_000),
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}
}

// SeedUser creates random User inside a test transaction.
func SeedUser(t *testing.T, tx dbpkg.SQLInterface) domain.User {
	t.Helper()

	hashedPassword, err := passpkg.Hash(randompkg.String(32))
	if err != nil {
		t.Fatalf("passpkg.Hash(randompkg.String(32)) returned error: %v", err)
	}

	arg := domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.String(10),
		Email:          randompkg.Email(),
	}

	userRepo := userrepo.NewRepoPGS(tx)

	user, err := userRepo.Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("userRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return user
}

// SeedSession creates a session with the given params inside a test transaction.
func SeedSession(t *testing.T, tx dbpkg.SQLInterface, arg domain.CreateSessionParams) domain.Session {
	t.Helper()

	sessionRepo := sessionrepo.NewRepoPGS(tx)

	session, err := sessionRepo.Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("sessionRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return session
}

// SeedAccount creates an account with the given balance inside a test transaction.
func SeedAccount(t *testing.T, tx dbpkg.SQLInterface, username, balance string) domain.Account {
	t.Helper()

	accountRepo := accountrepo.NewRepoPGS(tx)

	arg := domain.CreateAccountParams{
		Number:  randompkg.AccountNumber(),
		Name:    randompkg.String(10),
		Owner:   username,
		Balance: balance,
	}

	account, err := accountRepo.Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("accountRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return account
}

// SeedAccountWith1000Balance creates an account with 1000 on balance inside a test transaction.
func SeedAccountWith1000Balance(t *testing.T, tx dbpkg.SQLInterface, username string) domain.Account {
	t.Helper()

	return SeedAccount(t, tx, username, "1000")
}

// SeedTransfer records a ledger entry with the given status inside a test transaction.
func SeedTransfer(t *testing.T, tx dbpkg.SQLInterface, fromAccountID, toAccountID, amount string, status domain.TransferStatus) domain.Transfer {
	t.Helper()

	transferRepo := transferrepo.NewTxRepoPGS(tx)

	arg := domain.CreateTransferParams{
		FromAccountID: fromAccountID,
		ToAccountID:   toAccountID,
		Amount:        amount,
	}

	transfer, err := transferRepo.CreateWithStatus(context.Background(), arg, status)
	if err != nil {
		t.Fatalf("transferRepo.CreateWithStatus(context.Background(), %+v, %v) returned error: %v", arg, status, err)
	}

	return transfer
}
