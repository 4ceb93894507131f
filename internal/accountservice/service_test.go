package accountservice

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/m-koval/bank-ledger/internal/domain"
	"github.com/m-koval/bank-ledger/pkg/errorspkg"
	"github.com/m-koval/bank-ledger/pkg/randompkg"
)

func TestCreate(t *testing.T) {
	testOwner := randompkg.Owner()
	testName := "Checking"
	testBalance := "1000"

	testCases := []struct {
		name          string
		owner         string
		accName       string
		balance       string
		buildStubs    func(repo *MockRepo)
		checkResponse func(res domain.Account, err error)
	}{
		{
			name:    "InvalidBalance",
			owner:   testOwner,
			accName: testName,
			balance: "not-a-number",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Account, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
			},
		},
		{
			name:    "NegativeBalance",
			owner:   testOwner,
			accName: testName,
			balance: "-50",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Account, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrNegativeBalance)
			},
		},
		{
			name:    "OwnerNotFound",
			owner:   testOwner,
			accName: testName,
			balance: testBalance,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.Account{}, domain.ErrOwnerNotFound)
			},
			checkResponse: func(res domain.Account, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrOwnerNotFound)
			},
		},
		{
			name:    "OK",
			owner:   testOwner,
			accName: testName,
			balance: testBalance,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).
					Times(1).
					DoAndReturn(func(_ context.Context, arg domain.CreateAccountParams) (domain.Account, error) {
						require.Equal(t, testOwner, arg.Owner)
						require.Equal(t, testName, arg.Name)
						require.Equal(t, testBalance, arg.Balance)
						require.True(t, strings.HasPrefix(arg.Number, "ACC-"))
						require.Len(t, arg.Number, 12)

						return domain.Account{
							ID:        uuid.NewString(),
							Number:    arg.Number,
							Name:      arg.Name,
							Owner:     arg.Owner,
							Balance:   arg.Balance,
							CreatedAt: time.Now().Truncate(time.Second).UTC(),
						}, nil
					})
			},
			checkResponse: func(res domain.Account, err error) {
				require.NoError(t, err)
				require.Equal(t, testOwner, res.Owner)
				require.Equal(t, testBalance, res.Balance)
				require.True(t, strings.HasPrefix(res.Number, "ACC-"))
			},
		},
		{
			name:    "ZeroBalanceOK",
			owner:   testOwner,
			accName: testName,
			balance: "0",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.Account{Owner: testOwner, Balance: "0"}, nil)
			},
			checkResponse: func(res domain.Account, err error) {
				require.NoError(t, err)
				require.Equal(t, "0", res.Balance)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			accountRepo := NewMockRepo(ctrl)
			accountService := New(accountRepo)

			tc.buildStubs(accountRepo)

			tc.checkResponse(accountService.Create(
				context.Background(), tc.owner, tc.accName, tc.balance))
		})
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := NewMockRepo(ctrl)
	accountService := New(accountRepo)

	testAccount := domain.Account{
		ID:      uuid.NewString(),
		Number:  randompkg.AccountNumber(),
		Owner:   randompkg.Owner(),
		Balance: "100",
	}

	accountRepo.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
		Times(1).
		Return(testAccount, nil)

	res, err := accountService.Get(context.Background(), testAccount.ID)
	require.NoError(t, err)
	require.Equal(t, testAccount, res)

	accountRepo.EXPECT().Get(gomock.Any(), gomock.Any()).
		Times(1).
		Return(domain.Account{}, domain.ErrAccountNotFound)

	_, err = accountService.Get(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := NewMockRepo(ctrl)
	accountService := New(accountRepo)

	newName := "Savings"
	arg := domain.UpdateAccountParams{
		ID:   uuid.NewString(),
		Name: &newName,
	}

	accountRepo.EXPECT().Update(gomock.Any(), gomock.Eq(arg)).
		Times(1).
		Return(domain.Account{ID: arg.ID, Name: newName}, nil)

	res, err := accountService.Update(context.Background(), arg)
	require.NoError(t, err)
	require.Equal(t, newName, res.Name)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := NewMockRepo(ctrl)
	accountService := New(accountRepo)

	id := uuid.NewString()

	accountRepo.EXPECT().Delete(gomock.Any(), gomock.Eq(id)).
		Times(1).
		Return(nil)

	require.NoError(t, accountService.Delete(context.Background(), id))

	accountRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).
		Times(1).
		Return(domain.ErrAccountNotFound)

	err := accountService.Delete(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	accountRepo := NewMockRepo(ctrl)
	accountService := New(accountRepo)

	owner := randompkg.Owner()
	want := []domain.Account{
		{ID: uuid.NewString(), Owner: owner, Number: "ACC-AB12CD34"},
	}

	accountRepo.EXPECT().Search(gomock.Any(), gomock.Eq(domain.SearchAccountsParams{
		Owner:  owner,
		Number: "AB12",
		Name:   "",
	})).
		Times(1).
		Return(want, nil)

	res, err := accountService.Search(context.Background(), owner, "AB12", "")
	require.NoError(t, err)
	require.Equal(t, want, res)

	accountRepo.EXPECT().Search(gomock.Any(), gomock.Any()).
		Times(1).
		Return(nil, errorspkg.ErrInternal)

	_, err = accountService.Search(context.Background(), owner, "", "")
	require.ErrorIs(t, err, errorspkg.ErrInternal)
}
