package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/karibuapp/payout/internal/handler/http/mocks"
	"github.com/karibuapp/payout/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWithdrawalHandler_CreateWithdrawal(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		token          *models.TokenPayload
		body           string
		setup          func(t *testing.T) *mocks.MockWithdrawalService
		wantStatusCode int
		wantBody       *withdrawalResponse
	}{
		{
			// 202 — заявка принята.
			name: "valid_request_return_202",
			token: &models.TokenPayload{
				UserID: 1,
			},
			body: `{"amount": 7000, "phone": "0744123456"}`,
			setup: func(t *testing.T) *mocks.MockWithdrawalService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockWithdrawalService(ctrl)
				svcMock.EXPECT().RequestWithdrawal(gomock.Any(), uint64(1), int64(7000), "0744123456").Return(&models.Withdrawal{
					ID:        5,
					UserID:    1,
					Amount:    7000,
					Fee:       350,
					NetAmount: 6650,
					Phone:     "255744123456",
					Status:    models.WithdrawalStatusPending,
					CreatedAt: createdAt,
				}, nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusAccepted,
			wantBody: &withdrawalResponse{
				ID:        5,
				Amount:    7000,
				Fee:       350,
				NetAmount: 6650,
				Phone:     "255744123456",
				Status:    models.WithdrawalStatusPending,
				CreatedAt: "2026-03-14T09:00:00Z",
			},
		},
		{
			// 402 — на счету недостаточно средств.
			name: "insufficient_balance_return_402",
			token: &models.TokenPayload{
				UserID: 1,
			},
			body: `{"amount": 7000, "phone": "0744123456"}`,
			setup: func(t *testing.T) *mocks.MockWithdrawalService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockWithdrawalService(ctrl)
				svcMock.EXPECT().RequestWithdrawal(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrInsufficientBalance).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusPaymentRequired,
		},
		{
			// 422 — неверная сумма.
			name: "amount_below_minimum_return_422",
			token: &models.TokenPayload{
				UserID: 1,
			},
			body: `{"amount": 500, "phone": "0744123456"}`,
			setup: func(t *testing.T) *mocks.MockWithdrawalService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockWithdrawalService(ctrl)
				svcMock.EXPECT().RequestWithdrawal(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrInvalidAmount).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			// 422 — неверный номер телефона.
			name: "invalid_phone_return_422",
			token: &models.TokenPayload{
				UserID: 1,
			},
			body: `{"amount": 7000, "phone": "12345"}`,
			setup: func(t *testing.T) *mocks.MockWithdrawalService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockWithdrawalService(ctrl)
				svcMock.EXPECT().RequestWithdrawal(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrInvalidPhone).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			// 400 — неверный формат запроса.
			name: "malformed_body_return_400",
			token: &models.TokenPayload{
				UserID: 1,
			},
			body: `{"amount": `,
			setup: func(t *testing.T) *mocks.MockWithdrawalService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				return mocks.NewMockWithdrawalService(ctrl)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 401 — пользователь не авторизован.
			name:  "no_token_return_401",
			token: nil,
			body:  `{"amount": 7000, "phone": "0744123456"}`,
			setup: func(t *testing.T) *mocks.MockWithdrawalService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				return mocks.NewMockWithdrawalService(ctrl)
			},
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, "/api/user/withdrawals", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal("cannot create request", zap.Error(err))
			}

			w := httptest.NewRecorder()
			st := tt.setup(t)
			ctx := req.Context()
			if tt.token != nil {
				ctx = context.WithValue(ctx, authPayloadKey, tt.token)
			}

			handler := NewWithdrawalHandler(st)
			h := handler.CreateWithdrawal()
			h(w, req.WithContext(ctx))

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
			resBody, err := io.ReadAll(res.Body)
			require.NoError(t, err)

			if tt.wantBody != nil {
				var got withdrawalResponse
				err = json.Unmarshal(resBody, &got)
				require.NoError(t, err)

				if diff := cmp.Diff(*tt.wantBody, got); diff != "" {
					t.Errorf("mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestWithdrawalHandler_ListWithdrawals(t *testing.T) {
	tests := []struct {
		name           string
		token          *models.TokenPayload
		setup          func(t *testing.T) *mocks.MockWithdrawalService
		wantStatusCode int
		wantLen        int
	}{
		{
			// 200 — успешная обработка запроса.
			name: "valid_request_return_200",
			token: &models.TokenPayload{
				UserID: 1,
			},
			setup: func(t *testing.T) *mocks.MockWithdrawalService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockWithdrawalService(ctrl)
				svcMock.EXPECT().GetWithdrawals(gomock.Any(), uint64(1)).Return([]models.Withdrawal{
					{ID: 5, Amount: 7000, Status: models.WithdrawalStatusCompleted},
					{ID: 6, Amount: 2000, Status: models.WithdrawalStatusPending},
				}, nil).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantLen:        2,
		},
		{
			// 204 — нет ни одной заявки.
			name: "no_withdrawals_return_204",
			token: &models.TokenPayload{
				UserID: 1,
			},
			setup: func(t *testing.T) *mocks.MockWithdrawalService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockWithdrawalService(ctrl)
				svcMock.EXPECT().GetWithdrawals(gomock.Any(), gomock.Any()).Return(nil, models.ErrWithdrawalsNotExist).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusNoContent,
		},
		{
			// 500 — внутренняя ошибка сервера.
			name: "internal_error_return_500",
			token: &models.TokenPayload{
				UserID: 1,
			},
			setup: func(t *testing.T) *mocks.MockWithdrawalService {

				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				svcMock := mocks.NewMockWithdrawalService(ctrl)
				svcMock.EXPECT().GetWithdrawals(gomock.Any(), gomock.Any()).Return(nil, models.ErrInternalError).AnyTimes()
				return svcMock
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "/api/user/withdrawals", nil)
			if err != nil {
				t.Fatal("cannot create request", zap.Error(err))
			}

			w := httptest.NewRecorder()
			st := tt.setup(t)
			ctx := context.WithValue(req.Context(), authPayloadKey, tt.token)

			handler := NewWithdrawalHandler(st)
			h := handler.ListWithdrawals()
			h(w, req.WithContext(ctx))

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)

			if tt.wantLen > 0 {
				resBody, err := io.ReadAll(res.Body)
				require.NoError(t, err)
				var got []withdrawalResponse
				require.NoError(t, json.Unmarshal(resBody, &got))
				assert.Len(t, got, tt.wantLen)
			}
		})
	}
}
