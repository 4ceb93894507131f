package sessiondelivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"

	"github.com/m-koval/bank-ledger/internal/domain"
	"github.com/m-koval/bank-ledger/pkg/errorspkg"
	"github.com/m-koval/bank-ledger/pkg/tokenpkg"
	"github.com/m-koval/bank-ledger/pkg/web"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestRenewAccessToken(t *testing.T) {
	refreshToken := "refresh-token"
	accessToken := "new-access-token"
	expiresAt := time.Now().Add(time.Minute).Truncate(time.Second).UTC()

	testCases := []struct {
		name           string
		requestBody    map[string]any
		buildStubs     func(sessionService *MockService)
		wantStatusCode int
	}{
		{
			name:        "OK",
			requestBody: map[string]any{"refresh_token": refreshToken},
			buildStubs: func(sessionService *MockService) {
				sessionService.EXPECT().
					RenewAccessToken(gomock.Any(), gomock.Eq(refreshToken)).
					Times(1).
					Return(accessToken, expiresAt, nil)
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:        "MissingToken",
			requestBody: map[string]any{},
			buildStubs: func(sessionService *MockService) {
				sessionService.EXPECT().
					RenewAccessToken(gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:        "InvalidToken",
			requestBody: map[string]any{"refresh_token": refreshToken},
			buildStubs: func(sessionService *MockService) {
				sessionService.EXPECT().
					RenewAccessToken(gomock.Any(), gomock.Eq(refreshToken)).
					Times(1).
					Return("", time.Time{}, tokenpkg.ErrInvalidToken)
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:        "BlockedSession",
			requestBody: map[string]any{"refresh_token": refreshToken},
			buildStubs: func(sessionService *MockService) {
				sessionService.EXPECT().
					RenewAccessToken(gomock.Any(), gomock.Eq(refreshToken)).
					Times(1).
					Return("", time.Time{}, domain.ErrBlockedSession)
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:        "ExpiredSession",
			requestBody: map[string]any{"refresh_token": refreshToken},
			buildStubs: func(sessionService *MockService) {
				sessionService.EXPECT().
					RenewAccessToken(gomock.Any(), gomock.Eq(refreshToken)).
					Times(1).
					Return("", time.Time{}, domain.ErrExpiredSession)
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:        "InternalServerError",
			requestBody: map[string]any{"refresh_token": refreshToken},
			buildStubs: func(sessionService *MockService) {
				sessionService.EXPECT().
					RenewAccessToken(gomock.Any(), gomock.Eq(refreshToken)).
					Times(1).
					Return("", time.Time{}, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			sessionService := NewMockService(ctrl)
			sessionHandler := NewHandler(sessionService)

			server := gin.New()
			server.POST("/sessions", sessionHandler.RenewAccessToken)

			tc.buildStubs(sessionService)

			body, err := json.Marshal(tc.requestBody)
			if err != nil {
				t.Fatalf("Encoding request body error: %v", err)
			}

			req, err := http.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(body))
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			if tc.wantStatusCode == http.StatusOK {
				var res renewAccessTokenResponse
				if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
					t.Errorf("Decoding response body error: %v", err)
				}

				if res.AccessToken != accessToken {
					t.Errorf(`res.AccessToken=%q, want %q`, res.AccessToken, accessToken)
				}
			} else {
				var res web.Response
				if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
					t.Errorf("Decoding response body error: %v", err)
				}

				if res.Error == "" {
					t.Error("res.Error is empty, want error message")
				}
			}
		})
	}
}
