package transferservice

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/m-koval/bank-ledger/internal/domain"
	"github.com/m-koval/bank-ledger/pkg/errorspkg"
	"github.com/m-koval/bank-ledger/pkg/randompkg"
)

func randomAccount(balance string) domain.Account {
	return domain.Account{
		ID:        uuid.NewString(),
		Number:    randompkg.AccountNumber(),
		Name:      randompkg.String(10),
		Owner:     randompkg.Owner(),
		Balance:   balance,
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}
}

func TestTransfer(t *testing.T) {
	testAccount1 := randomAccount("1000")
	testAccount2 := randomAccount("1000")
	testAmount := "100"

	testArg := domain.CreateTransferParams{
		FromAccountID: testAccount1.ID,
		ToAccountID:   testAccount2.ID,
		Amount:        testAmount,
	}

	testTransfer := domain.Transfer{
		ID:            1,
		FromAccountID: testAccount1.ID,
		ToAccountID:   testAccount2.ID,
		Amount:        testAmount,
		Status:        domain.StatusSuccess,
		CreatedAt:     time.Now().Truncate(time.Second).UTC(),
	}

	type input struct {
		fromUsername string
		arg          domain.CreateTransferParams
	}

	testCases := []struct {
		name          string
		input         input
		buildStubs    func(repo *MockRepo, accounts *MockAccountGetter, events *MockEventPublisher)
		checkResponse func(res domain.Transfer, err error)
	}{
		{
			name: "SourceAccountNotFound",
			input: input{
				fromUsername: testAccount1.Owner,
				arg:          testArg,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter, events *MockEventPublisher) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount1.ID)).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
				repo.EXPECT().TransferTx(gomock.Any(), gomock.Any()).Times(0)
				repo.EXPECT().CreateWithStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrAccountNotFound)
			},
		},
		{
			name: "OwnerMismatch",
			input: input{
				fromUsername: testAccount1.Owner,
				arg: domain.CreateTransferParams{
					FromAccountID: testAccount2.ID,
					ToAccountID:   testAccount1.ID,
					Amount:        testAmount,
				},
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter, events *MockEventPublisher) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount2.ID)).
					Times(1).
					Return(testAccount2, nil)
				repo.EXPECT().TransferTx(gomock.Any(), gomock.Any()).Times(0)
				repo.EXPECT().CreateWithStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrAccountOwnerMismatch)
			},
		},
		{
			name: "DestinationAccountNotFound",
			input: input{
				fromUsername: testAccount1.Owner,
				arg:          testArg,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter, events *MockEventPublisher) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount1.ID)).
					Times(1).
					Return(testAccount1, nil)
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount2.ID)).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
				repo.EXPECT().TransferTx(gomock.Any(), gomock.Any()).Times(0)
				repo.EXPECT().CreateWithStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrAccountNotFound)
			},
		},
		{
			name: "InvalidAmount",
			input: input{
				fromUsername: testAccount1.Owner,
				arg: domain.CreateTransferParams{
					FromAccountID: testAccount1.ID,
					ToAccountID:   testAccount2.ID,
					Amount:        "!@#$",
				},
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter, events *MockEventPublisher) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount1.ID)).
					Times(1).
					Return(testAccount1, nil)
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount2.ID)).
					Times(1).
					Return(testAccount2, nil)
				repo.EXPECT().TransferTx(gomock.Any(), gomock.Any()).Times(0)
				repo.EXPECT().CreateWithStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
			},
		},
		{
			name: "NonPositiveAmount",
			input: input{
				fromUsername: testAccount1.Owner,
				arg: domain.CreateTransferParams{
					FromAccountID: testAccount1.ID,
					ToAccountID:   testAccount2.ID,
					Amount:        "-100",
				},
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter, events *MockEventPublisher) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount1.ID)).
					Times(1).
					Return(testAccount1, nil)
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount2.ID)).
					Times(1).
					Return(testAccount2, nil)
				repo.EXPECT().TransferTx(gomock.Any(), gomock.Any()).Times(0)
				repo.EXPECT().CreateWithStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrInvalidAmount)
			},
		},
		{
			name: "SelfTransfer",
			input: input{
				fromUsername: testAccount1.Owner,
				arg: domain.CreateTransferParams{
					FromAccountID: testAccount1.ID,
					ToAccountID:   testAccount1.ID,
					Amount:        testAmount,
				},
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter, events *MockEventPublisher) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount1.ID)).
					Times(2).
					Return(testAccount1, nil)
				repo.EXPECT().TransferTx(gomock.Any(), gomock.Any()).Times(0)
				repo.EXPECT().CreateWithStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrSelfTransfer)
			},
		},
		{
			name: "InsufficientBalance",
			input: input{
				fromUsername: testAccount1.Owner,
				arg: domain.CreateTransferParams{
					FromAccountID: testAccount1.ID,
					ToAccountID:   testAccount2.ID,
					Amount:        "10000",
				},
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter, events *MockEventPublisher) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount1.ID)).
					Times(1).
					Return(testAccount1, nil)
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount2.ID)).
					Times(1).
					Return(testAccount2, nil)
				repo.EXPECT().TransferTx(gomock.Any(), gomock.Any()).Times(0)
				repo.EXPECT().CreateWithStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrInsufficientBalance)
				require.Contains(t, err.Error(), "available 1000")
				require.Contains(t, err.Error(), "requested 10000")
			},
		},
		{
			name: "CorruptedBalance",
			input: input{
				fromUsername: testAccount1.Owner,
				arg:          testArg,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter, events *MockEventPublisher) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount1.ID)).
					Times(1).
					Return(domain.Account{
						ID:      testAccount1.ID,
						Owner:   testAccount1.Owner,
						Balance: "invalid",
					}, nil)
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount2.ID)).
					Times(1).
					Return(testAccount2, nil)
				repo.EXPECT().TransferTx(gomock.Any(), gomock.Any()).Times(0)
				repo.EXPECT().CreateWithStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, errorspkg.ErrInternal)
			},
		},
		{
			name: "TxFailureRecordsFailedEntry",
			input: input{
				fromUsername: testAccount1.Owner,
				arg:          testArg,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter, events *MockEventPublisher) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount1.ID)).
					Times(1).
					Return(testAccount1, nil)
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount2.ID)).
					Times(1).
					Return(testAccount2, nil)
				repo.EXPECT().TransferTx(gomock.Any(), gomock.Eq(testArg)).
					Times(1).
					Return(domain.Transfer{}, domain.ErrAccountBusy)
				repo.EXPECT().CreateWithStatus(gomock.Any(), gomock.Eq(testArg), gomock.Eq(domain.StatusFailed)).
					Times(1).
					Return(domain.Transfer{Status: domain.StatusFailed}, nil)
				events.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrAccountBusy)
			},
		},
		{
			name: "TxFailureAuditWriteAlsoFails",
			input: input{
				fromUsername: testAccount1.Owner,
				arg:          testArg,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter, events *MockEventPublisher) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount1.ID)).
					Times(1).
					Return(testAccount1, nil)
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount2.ID)).
					Times(1).
					Return(testAccount2, nil)
				repo.EXPECT().TransferTx(gomock.Any(), gomock.Eq(testArg)).
					Times(1).
					Return(domain.Transfer{}, errorspkg.ErrInternal)
				repo.EXPECT().CreateWithStatus(gomock.Any(), gomock.Eq(testArg), gomock.Eq(domain.StatusFailed)).
					Times(1).
					Return(domain.Transfer{}, errorspkg.ErrInternal)
				events.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, errorspkg.ErrInternal)
			},
		},
		{
			name: "OK",
			input: input{
				fromUsername: testAccount1.Owner,
				arg:          testArg,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter, events *MockEventPublisher) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount1.ID)).
					Times(1).
					Return(testAccount1, nil)
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount2.ID)).
					Times(1).
					Return(testAccount2, nil)
				repo.EXPECT().TransferTx(gomock.Any(), gomock.Eq(testArg)).
					Times(1).
					Return(testTransfer, nil)
				repo.EXPECT().CreateWithStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				events.EXPECT().Publish(gomock.Eq(TransferCompletedTopic), gomock.Eq(testTransfer)).
					Times(1).
					Return(nil)
			},
			checkResponse: func(res domain.Transfer, err error) {
				require.NoError(t, err)
				require.Equal(t, testTransfer, res)
			},
		},
		{
			name: "OKDespitePublishError",
			input: input{
				fromUsername: testAccount1.Owner,
				arg:          testArg,
			},
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter, events *MockEventPublisher) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount1.ID)).
					Times(1).
					Return(testAccount1, nil)
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount2.ID)).
					Times(1).
					Return(testAccount2, nil)
				repo.EXPECT().TransferTx(gomock.Any(), gomock.Eq(testArg)).
					Times(1).
					Return(testTransfer, nil)
				events.EXPECT().Publish(gomock.Eq(TransferCompletedTopic), gomock.Eq(testTransfer)).
					Times(1).
					Return(errorspkg.ErrInternal)
			},
			checkResponse: func(res domain.Transfer, err error) {
				require.NoError(t, err)
				require.Equal(t, testTransfer, res)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			transferRepo := NewMockRepo(ctrl)
			accounts := NewMockAccountGetter(ctrl)
			events := NewMockEventPublisher(ctrl)
			transferService := New(transferRepo, accounts, events)

			tc.buildStubs(transferRepo, accounts, events)

			tc.checkResponse(transferService.Transfer(
				context.Background(),
				tc.input.fromUsername,
				tc.input.arg))
		})
	}
}

func TestTransferAuditSurvivesRequestCancellation(t *testing.T) {
	t.Parallel()

	testAccount1 := randomAccount("1000")
	testAccount2 := randomAccount("1000")

	testArg := domain.CreateTransferParams{
		FromAccountID: testAccount1.ID,
		ToAccountID:   testAccount2.ID,
		Amount:        "100",
	}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transferRepo := NewMockRepo(ctrl)
	accounts := NewMockAccountGetter(ctrl)
	events := NewMockEventPublisher(ctrl)
	transferService := New(transferRepo, accounts, events)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount1.ID)).
		Times(1).
		Return(testAccount1, nil)
	accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount2.ID)).
		Times(1).
		Return(testAccount2, nil)
	transferRepo.EXPECT().TransferTx(gomock.Any(), gomock.Eq(testArg)).
		Times(1).
		DoAndReturn(func(ctx context.Context, arg domain.CreateTransferParams) (domain.Transfer, error) {
			return domain.Transfer{}, ctx.Err()
		})
	transferRepo.EXPECT().CreateWithStatus(gomock.Any(), gomock.Eq(testArg), gomock.Eq(domain.StatusFailed)).
		Times(1).
		DoAndReturn(func(ctx context.Context, arg domain.CreateTransferParams, status domain.TransferStatus) (domain.Transfer, error) {
			if err := ctx.Err(); err != nil {
				t.Errorf("failed transfer entry written with dead context: %v", err)
			}

			return domain.Transfer{Status: domain.StatusFailed}, nil
		})
	events.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	res, err := transferService.Transfer(ctx, testAccount1.Owner, testArg)
	require.Empty(t, res)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHistory(t *testing.T) {
	testAccount := randomAccount("1000")
	otherAccount := randomAccount("1000")

	now := time.Now().Truncate(time.Second).UTC()

	outgoing := []domain.Transfer{
		{ID: 5, FromAccountID: testAccount.ID, ToAccountID: otherAccount.ID, Amount: "30", Status: domain.StatusSuccess, CreatedAt: now},
		{ID: 2, FromAccountID: testAccount.ID, ToAccountID: otherAccount.ID, Amount: "10", Status: domain.StatusFailed, CreatedAt: now.Add(-2 * time.Minute)},
	}
	incoming := []domain.Transfer{
		{ID: 4, FromAccountID: otherAccount.ID, ToAccountID: testAccount.ID, Amount: "20", Status: domain.StatusSuccess, CreatedAt: now},
		{ID: 3, FromAccountID: otherAccount.ID, ToAccountID: testAccount.ID, Amount: "15", Status: domain.StatusSuccess, CreatedAt: now.Add(-time.Minute)},
	}

	testCases := []struct {
		name          string
		username      string
		accountID     string
		buildStubs    func(repo *MockRepo, accounts *MockAccountGetter)
		checkResponse func(res []domain.Transfer, err error)
	}{
		{
			name:      "AccountNotFound",
			username:  testAccount.Owner,
			accountID: testAccount.ID,
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(domain.Account{}, domain.ErrAccountNotFound)
				repo.EXPECT().ListBySource(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res []domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrAccountNotFound)
			},
		},
		{
			name:      "OwnerMismatch",
			username:  otherAccount.Owner,
			accountID: testAccount.ID,
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().ListBySource(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res []domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrAccountOwnerMismatch)
			},
		},
		{
			name:      "ListBySourceError",
			username:  testAccount.Owner,
			accountID: testAccount.ID,
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().ListBySource(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(nil, errorspkg.ErrInternal)
				repo.EXPECT().ListByDestination(gomock.Any(), gomock.Any()).Times(0)
			},
			checkResponse: func(res []domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, errorspkg.ErrInternal)
			},
		},
		{
			name:      "ListByDestinationError",
			username:  testAccount.Owner,
			accountID: testAccount.ID,
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().ListBySource(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(outgoing, nil)
				repo.EXPECT().ListByDestination(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(nil, errorspkg.ErrInternal)
			},
			checkResponse: func(res []domain.Transfer, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, errorspkg.ErrInternal)
			},
		},
		{
			name:      "EmptyHistory",
			username:  testAccount.Owner,
			accountID: testAccount.ID,
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().ListBySource(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(nil, nil)
				repo.EXPECT().ListByDestination(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(nil, nil)
			},
			checkResponse: func(res []domain.Transfer, err error) {
				require.NoError(t, err)
				require.NotNil(t, res)
				require.Len(t, res, 0)
			},
		},
		{
			name:      "MergedNewestFirst",
			username:  testAccount.Owner,
			accountID: testAccount.ID,
			buildStubs: func(repo *MockRepo, accounts *MockAccountGetter) {
				accounts.EXPECT().Get(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(testAccount, nil)
				repo.EXPECT().ListBySource(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(outgoing, nil)
				repo.EXPECT().ListByDestination(gomock.Any(), gomock.Eq(testAccount.ID)).
					Times(1).
					Return(incoming, nil)
			},
			checkResponse: func(res []domain.Transfer, err error) {
				require.NoError(t, err)

				want := []domain.Transfer{outgoing[0], incoming[0], incoming[1], outgoing[1]}
				if diff := cmp.Diff(want, res); diff != "" {
					t.Errorf("history mismatch (-want +got):\n%s", diff)
				}
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			transferRepo := NewMockRepo(ctrl)
			accounts := NewMockAccountGetter(ctrl)
			transferService := New(transferRepo, accounts, nil)

			tc.buildStubs(transferRepo, accounts)

			tc.checkResponse(transferService.History(
				context.Background(),
				tc.username,
				tc.accountID))
		})
	}
}
