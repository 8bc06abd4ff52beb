package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
	"github.com/rupeeflow/bbps-backend/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, req *orchestrator.Request) (*orchestrator.Result, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*orchestrator.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestBBPSHandler_PayBill(t *testing.T) {
	logger := testLogger()
	gin.SetMode(gin.TestMode)

	userID := uuid.New()
	serviceID := uuid.New()
	body, _ := json.Marshal(BillPaymentRequest{
		ServiceID:      serviceID.String(),
		BillerID:       "MAHA00000NATDL",
		ConsumerNumber: "1234567890",
		Amount:         "100.00",
	})

	t.Run("Success", func(t *testing.T) {
		processor := new(MockProcessor)
		processor.On("Process", mock.Anything, mock.MatchedBy(func(req *orchestrator.Request) bool {
			var payload orchestrator.BillPaymentPayload
			if err := json.Unmarshal(req.Payload, &payload); err != nil {
				return false
			}
			return req.Operation == orchestrator.OpBillPayment &&
				req.UserID == userID &&
				req.Channel == "MOBILE" &&
				req.IdempotencyKey == "idem-1" &&
				payload.ServiceID == serviceID &&
				payload.Amount == "100.00"
		})).Return(&orchestrator.Result{
			Operation: orchestrator.OpBillPayment,
			Message:   "Bill payment successful",
		}, nil).Once()

		h := NewBBPSHandler(logger, processor)
		router := gin.New()
		router.POST("/bbps/bills/pay", h.PayBill)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/bbps/bills/pay", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(UserIDHeader, userID.String())
		req.Header.Set(ChannelHeader, "MOBILE")
		req.Header.Set(IdempotencyKeyHeader, "idem-1")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		processor.AssertExpectations(t)
	})

	t.Run("DuplicateReplay", func(t *testing.T) {
		processor := new(MockProcessor)
		processor.On("Process", mock.Anything, mock.Anything).Return(&orchestrator.Result{
			Operation: orchestrator.OpBillPayment,
			Duplicate: true,
			Message:   "Transaction already processed",
		}, nil).Once()

		h := NewBBPSHandler(logger, processor)
		router := gin.New()
		router.POST("/bbps/bills/pay", h.PayBill)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/bbps/bills/pay", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Duplicate)
		assert.Equal(t, "Transaction already processed", resp.Message)
	})

	t.Run("MissingFields", func(t *testing.T) {
		h := NewBBPSHandler(logger, new(MockProcessor))
		router := gin.New()
		router.POST("/bbps/bills/pay", h.PayBill)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/bbps/bills/pay", bytes.NewReader([]byte(`{"biller_id":"X"}`)))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("InvalidUserHeader", func(t *testing.T) {
		h := NewBBPSHandler(logger, new(MockProcessor))
		router := gin.New()
		router.POST("/bbps/bills/pay", h.PayBill)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/bbps/bills/pay", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(UserIDHeader, "not-a-uuid")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBBPSHandler_ErrorMapping(t *testing.T) {
	logger := testLogger()
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"RateLimited", shared.NewRateLimited("payment limit exceeded"), http.StatusTooManyRequests},
		{"ProviderDeclined", shared.NewProviderDeclined("biller unavailable"), http.StatusBadGateway},
		{"Validation", shared.NewValidation("amount must be positive"), http.StatusBadRequest},
		{"InsufficientFunds", shared.NewInsufficientFunds("balance too low"), http.StatusUnprocessableEntity},
		{"Internal", shared.NewInternal("db down", assert.AnError), http.StatusInternalServerError},
	}

	body, _ := json.Marshal(BillPaymentRequest{
		ServiceID:      uuid.New().String(),
		BillerID:       "MAHA00000NATDL",
		ConsumerNumber: "1234567890",
		Amount:         "100.00",
	})

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			processor := new(MockProcessor)
			processor.On("Process", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			h := NewBBPSHandler(logger, processor)
			router := gin.New()
			router.POST("/bbps/bills/pay", h.PayBill)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/bbps/bills/pay", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			require.Equal(t, tc.status, w.Code)

			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			if tc.status == http.StatusInternalServerError {
				assert.Equal(t, "An internal server error occurred", resp.Error.Message)
			}
		})
	}
}

func TestBBPSHandler_ListBillers(t *testing.T) {
	logger := testLogger()
	gin.SetMode(gin.TestMode)

	processor := new(MockProcessor)
	processor.On("Process", mock.Anything, mock.MatchedBy(func(req *orchestrator.Request) bool {
		var payload map[string]any
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return false
		}
		return req.Operation == orchestrator.OpBillerInfo &&
			payload["billerCategory"] == "ELECTRICITY" &&
			payload["page"] == float64(2)
	})).Return(&orchestrator.Result{Operation: orchestrator.OpBillerInfo}, nil).Once()

	h := NewBBPSHandler(logger, processor)
	router := gin.New()
	router.GET("/bbps/billers", h.ListBillers)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/bbps/billers?category=ELECTRICITY&page=2", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	processor.AssertExpectations(t)
}
