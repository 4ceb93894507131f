package userservice

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/m-koval/bank-ledger/internal/domain"
	"github.com/m-koval/bank-ledger/pkg/errorspkg"
	"github.com/m-koval/bank-ledger/pkg/passpkg"
	"github.com/m-koval/bank-ledger/pkg/randompkg"
)

func randomUser(t *testing.T) (domain.User, string) {
	t.Helper()

	password := randompkg.String(10)

	hashed, err := passpkg.Hash(password)
	require.NoError(t, err)

	return domain.User{
		Username:       randompkg.Owner(),
		HashedPassword: hashed,
		FullName:       randompkg.Owner(),
		Email:          randompkg.Email(),
		CreatedAt:      time.Now().Truncate(time.Second).UTC(),
	}, password
}

func TestCreate(t *testing.T) {
	testUser, testPassword := randomUser(t)

	testCases := []struct {
		name          string
		buildStubs    func(repo *MockRepo)
		checkResponse func(res domain.UserWithoutPassword, err error)
	}{
		{
			name: "UsernameAlreadyExists",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.User{}, domain.ErrUsernameAlreadyExists)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrUsernameAlreadyExists)
			},
		},
		{
			name: "EmailAlreadyExists",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).
					Times(1).
					Return(domain.User{}, domain.ErrEmailAlreadyExists)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
			},
		},
		{
			name: "OK",
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).
					Times(1).
					DoAndReturn(func(_ context.Context, arg domain.CreateUserParams) (domain.User, error) {
						require.Equal(t, testUser.Username, arg.Username)
						require.NoError(t, passpkg.Check(testPassword, arg.HashedPassword))

						return domain.User{
							Username:       arg.Username,
							HashedPassword: arg.HashedPassword,
							FullName:       arg.FullName,
							Email:          arg.Email,
							CreatedAt:      testUser.CreatedAt,
						}, nil
					})
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.NoError(t, err)
				require.Equal(t, testUser.Username, res.Username)
				require.Equal(t, testUser.FullName, res.FullName)
				require.Equal(t, testUser.Email, res.Email)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			userRepo := NewMockRepo(ctrl)
			userService := New(userRepo)

			tc.buildStubs(userRepo)

			tc.checkResponse(userService.Create(
				context.Background(),
				testUser.Username, testPassword, testUser.FullName, testUser.Email))
		})
	}
}

func TestCheckPassword(t *testing.T) {
	testUser, testPassword := randomUser(t)

	testCases := []struct {
		name          string
		password      string
		buildStubs    func(repo *MockRepo)
		checkResponse func(res domain.UserWithoutPassword, err error)
	}{
		{
			name:     "UserNotFound",
			password: testPassword,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Get(gomock.Any(), gomock.Eq(testUser.Username)).
					Times(1).
					Return(domain.User{}, domain.ErrUserNotFound)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrUserNotFound)
			},
		},
		{
			name:     "RepoError",
			password: testPassword,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Get(gomock.Any(), gomock.Eq(testUser.Username)).
					Times(1).
					Return(domain.User{}, errorspkg.ErrInternal)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, errorspkg.ErrInternal)
			},
		},
		{
			name:     "WrongPassword",
			password: "wrong" + testPassword,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Get(gomock.Any(), gomock.Eq(testUser.Username)).
					Times(1).
					Return(testUser, nil)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.Empty(t, res)
				require.ErrorIs(t, err, domain.ErrWrongPassword)
			},
		},
		{
			name:     "OK",
			password: testPassword,
			buildStubs: func(repo *MockRepo) {
				repo.EXPECT().Get(gomock.Any(), gomock.Eq(testUser.Username)).
					Times(1).
					Return(testUser, nil)
			},
			checkResponse: func(res domain.UserWithoutPassword, err error) {
				require.NoError(t, err)
				require.Equal(t, NewUserWithoutPassword(testUser), res)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			userRepo := NewMockRepo(ctrl)
			userService := New(userRepo)

			tc.buildStubs(userRepo)

			tc.checkResponse(userService.CheckPassword(
				context.Background(), testUser.Username, tc.password))
		})
	}
}
