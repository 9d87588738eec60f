package remove

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/eltawla-payments/internal/http/middlewarectx"
	"github.com/magabrotheeeer/eltawla-payments/internal/lib/payerr"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) RemoveMethod(ctx context.Context, userID, methodID string) error {
	return m.Called(ctx, userID, methodID).Error(0)
}

func TestRemoveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное удаление",
			id:   "m1",
			setupMock: func(m *MockService) {
				m.On("RemoveMethod", mock.Anything, "u1", "m1").Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"removed_id":"m1"`,
		},
		{
			name: "чужой или отсутствующий метод",
			id:   "m2",
			setupMock: func(m *MockService) {
				m.On("RemoveMethod", mock.Anything, "u1", "m2").Return(payerr.ErrMethodNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"payment method not found","code":"not_found"}`,
		},
		{
			name: "шлюз недоступен",
			id:   "m3",
			setupMock: func(m *MockService) {
				m.On("RemoveMethod", mock.Anything, "u1", "m3").
					Return(payerr.NewGatewayError("api_connection_error", "timeout", 0)).Once()
			},
			expectedStatus: http.StatusPaymentRequired,
			expectedBody:   `"code":"api_connection_error"`,
		},
		{
			name: "ошибка базы",
			id:   "m4",
			setupMock: func(m *MockService) {
				m.On("RemoveMethod", mock.Anything, "u1", "m4").
					Return(payerr.NewPersistenceError("remove", errors.New("db error"))).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"status":"Error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/payment-methods/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.UserID, "u1")
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
