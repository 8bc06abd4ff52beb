package orchestrator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/bbps"
	"github.com/rupeeflow/bbps-backend/internal/commission"
	"github.com/rupeeflow/bbps-backend/internal/config"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
	"github.com/rupeeflow/bbps-backend/internal/domain/transaction"
	"github.com/rupeeflow/bbps-backend/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(gateway *MockGateway, txns *MockTransactionRepository, pool *WorkerPool) *Orchestrator {
	log := testLogger()
	wallets := new(MockWalletRepository)
	users := new(MockUserRepository)
	settings := new(MockSettingRepository)
	earnings := new(MockEarningRepository)

	store := ledger.NewStore(log, fakeTxRunner{}, wallets, &config.LedgerConfig{RetryAttempts: 2, RetryBackoff: time.Millisecond})
	engine := commission.NewEngine(log, commission.NewResolver(log, users, settings), fakeTxRunner{}, store, earnings)

	return New(log, Dependencies{
		Gateway:      gateway,
		Ledger:       store,
		Engine:       engine,
		Transactions: txns,
		Users:        users,
		RateLimiter:  allowAllLimiter{},
		BBPS:         &config.BBPSConfig{RetryAttempts: 2, RetryBackoff: time.Millisecond},
	}, pool)
}

func TestOrchestrator_UnsupportedOperation(t *testing.T) {
	o := newTestOrchestrator(new(MockGateway), new(MockTransactionRepository), nil)

	_, err := o.Process(context.Background(), &Request{Operation: Operation("MANDATE_SETUP")})
	require.Error(t, err)
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	assert.Contains(t, err.Error(), "unsupported operation")
}

func TestOrchestrator_DispatchesBillerInfo(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("ListBillers", mock.Anything, mock.MatchedBy(func(req bbps.BillerInfoRequest) bool {
		return req.Category == "ELECTRICITY" && req.Page == 1 && req.PageSize == 20
	})).Return(&bbps.BillerInfoResponse{
		Billers:    []bbps.Biller{{BillerID: "MAHA00000NATDL", Name: "Mahavitaran", Category: "ELECTRICITY"}},
		TotalCount: 1,
	}, nil).Once()

	o := newTestOrchestrator(gateway, new(MockTransactionRepository), nil)

	payload, _ := json.Marshal(map[string]string{"billerCategory": "ELECTRICITY"})
	result, err := o.Process(context.Background(), &Request{
		Operation:     OpBillerInfo,
		UserID:        uuid.New(),
		CorrelationID: "corr-1",
		Payload:       payload,
	})
	require.NoError(t, err)
	assert.Equal(t, OpBillerInfo, result.Operation)
	gateway.AssertExpectations(t)
}

func TestOrchestrator_RetriesReadCalls(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("ListBillers", mock.Anything, mock.Anything).
		Return(nil, shared.NewProviderDeclined("provider busy")).Once()
	gateway.On("ListBillers", mock.Anything, mock.Anything).
		Return(&bbps.BillerInfoResponse{}, nil).Once()

	o := newTestOrchestrator(gateway, new(MockTransactionRepository), nil)

	_, err := o.Process(context.Background(), &Request{Operation: OpBillerInfo})
	require.NoError(t, err)
	gateway.AssertExpectations(t)
}

func TestOrchestrator_PaymentRunsThroughWorkerPool(t *testing.T) {
	log := testLogger()
	pool, err := NewWorkerPool(log, &config.WorkerPoolConfig{Size: 2})
	require.NoError(t, err)
	defer pool.Shutdown()

	txns := new(MockTransactionRepository)
	existing := &transaction.Transaction{
		ID:             uuid.New(),
		Status:         transaction.StatusSuccess,
		IdempotencyKey: "dup",
	}
	txns.On("GetByIdempotencyKey", mock.Anything, "dup").Return(existing, nil).Once()

	o := newTestOrchestrator(new(MockGateway), txns, pool)

	payload, _ := json.Marshal(BillPaymentPayload{
		ServiceID:      uuid.New(),
		BillerID:       "MAHA00000NATDL",
		ConsumerNumber: "1234567890",
		Amount:         "100.00",
	})
	result, err := o.Process(context.Background(), &Request{
		Operation:      OpBillPayment,
		UserID:         uuid.New(),
		IdempotencyKey: "dup",
		Payload:        payload,
	})
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	txns.AssertExpectations(t)
}
