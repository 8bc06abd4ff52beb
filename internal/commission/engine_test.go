package commission

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rupeeflow/bbps-backend/internal/domain/commission"
	"github.com/rupeeflow/bbps-backend/internal/domain/user"
	"github.com/rupeeflow/bbps-backend/internal/domain/wallet"
	"github.com/rupeeflow/bbps-backend/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestComputeAmount(t *testing.T) {
	tests := []struct {
		name      string
		remaining int64
		cType     commission.Type
		value     int64
		want      int64
	}{
		{"flat ignores remaining", 99, commission.TypeFlat, 500, 500},
		{"twenty percent of 10000", 10000, commission.TypePercentage, 2000, 2000},
		{"fifteen percent of 8000", 8000, commission.TypePercentage, 1500, 1200},
		{"ten percent of 6800", 6800, commission.TypePercentage, 1000, 680},
		{"floors fractional result", 999, commission.TypePercentage, 1000, 99},
		{"zero value", 10000, commission.TypeFlat, 0, 0},
		{"unknown type", 10000, commission.Type("BOGUS"), 1000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeAmount(tt.remaining, tt.cType, tt.value))
		})
	}
}

func percentChain(values ...int64) []commission.ChainMember {
	chain := make([]commission.ChainMember, len(values))
	for i, v := range values {
		chain[i] = commission.ChainMember{
			UserID: uuid.New(),
			RoleID: uuid.New(),
			Type:   commission.TypePercentage,
			Value:  v,
			Level:  i + 1,
		}
	}
	return chain
}

func TestCalculateHierarchical(t *testing.T) {
	t.Run("worked example: 10 15 20 percent on 10000", func(t *testing.T) {
		// Leaf first: paying user 10%, admin 15%, super admin 20%.
		chain := percentChain(1000, 1500, 2000)

		calcs := CalculateHierarchical(chain, 10000)
		require.Len(t, calcs, 3)

		// Root first: 20% of 10000, then 15% of 8000, then 10% of 6800.
		assert.Equal(t, chain[2].UserID, calcs[0].UserID)
		assert.Equal(t, int64(2000), calcs[0].Amount)
		assert.Equal(t, 3, calcs[0].Level)

		assert.Equal(t, chain[1].UserID, calcs[1].UserID)
		assert.Equal(t, int64(1200), calcs[1].Amount)

		assert.Equal(t, chain[0].UserID, calcs[2].UserID)
		assert.Equal(t, int64(680), calcs[2].Amount)
	})

	t.Run("empty chain", func(t *testing.T) {
		assert.Empty(t, CalculateHierarchical(nil, 10000))
	})

	t.Run("zero placeholder keeps base intact for lower levels", func(t *testing.T) {
		chain := []commission.ChainMember{
			{UserID: uuid.New(), Type: commission.TypePercentage, Value: 1000, Level: 1},
			{UserID: uuid.New(), Type: commission.TypeFlat, Value: 0, Level: 2},
		}
		calcs := CalculateHierarchical(chain, 10000)
		require.Len(t, calcs, 2)
		assert.Equal(t, int64(0), calcs[0].Amount)
		assert.Equal(t, int64(1000), calcs[1].Amount) // 10% of the untouched 10000
	})

	t.Run("oversized flat rule is capped at the remaining base", func(t *testing.T) {
		chain := []commission.ChainMember{
			{UserID: uuid.New(), Type: commission.TypePercentage, Value: 1000, Level: 1},
			{UserID: uuid.New(), Type: commission.TypeFlat, Value: 25000, Level: 2},
		}
		calcs := CalculateHierarchical(chain, 10000)
		require.Len(t, calcs, 2)

		// The flat root takes everything that exists, nothing more.
		assert.Equal(t, int64(10000), calcs[0].Amount)
		// Nothing remains for the leaf, never a negative commission.
		assert.Equal(t, int64(0), calcs[1].Amount)
	})
}

func TestBuildPayouts(t *testing.T) {
	txnID := uuid.New()

	t.Run("cascade wiring", func(t *testing.T) {
		chain := percentChain(1000, 1500, 2000)
		calcs := CalculateHierarchical(chain, 10000)
		payouts := BuildPayouts(calcs, txnID)
		require.Len(t, payouts, 3)

		superAdmin := chain[2].UserID
		admin := chain[1].UserID
		payer := chain[0].UserID

		assert.Nil(t, payouts[0].FromUserID)
		assert.Equal(t, superAdmin, payouts[0].ToUserID)
		assert.Equal(t, int64(2000), payouts[0].Amount)
		assert.Equal(t, fmt.Sprintf("Top-level commission from BBPS Provider for transaction %s", txnID), payouts[0].Narration)

		require.NotNil(t, payouts[1].FromUserID)
		assert.Equal(t, superAdmin, *payouts[1].FromUserID)
		assert.Equal(t, admin, payouts[1].ToUserID)
		assert.Equal(t, int64(1200), payouts[1].Amount)
		assert.Equal(t, fmt.Sprintf("Commission share from %s for transaction %s", superAdmin, txnID), payouts[1].Narration)

		require.NotNil(t, payouts[2].FromUserID)
		assert.Equal(t, admin, *payouts[2].FromUserID)
		assert.Equal(t, payer, payouts[2].ToUserID)
		assert.Equal(t, int64(680), payouts[2].Amount)
	})

	t.Run("zero amounts skipped and payer chain bridges the gap", func(t *testing.T) {
		chain := []commission.ChainMember{
			{UserID: uuid.New(), Type: commission.TypePercentage, Value: 1000, Level: 1},
			{UserID: uuid.New(), Type: commission.TypeFlat, Value: 0, Level: 2},
			{UserID: uuid.New(), Type: commission.TypePercentage, Value: 2000, Level: 3},
		}
		calcs := CalculateHierarchical(chain, 10000)
		payouts := BuildPayouts(calcs, txnID)
		require.Len(t, payouts, 2)

		assert.Nil(t, payouts[0].FromUserID)
		assert.Equal(t, chain[2].UserID, payouts[0].ToUserID)

		// Level 2 earned nothing, so the top level pays the leaf directly.
		require.NotNil(t, payouts[1].FromUserID)
		assert.Equal(t, chain[2].UserID, *payouts[1].FromUserID)
		assert.Equal(t, chain[0].UserID, payouts[1].ToUserID)
	})

	t.Run("zero root makes the first earning level SYSTEM-paid", func(t *testing.T) {
		chain := []commission.ChainMember{
			{UserID: uuid.New(), Type: commission.TypePercentage, Value: 1000, Level: 1},
			{UserID: uuid.New(), Type: commission.TypeFlat, Value: 0, Level: 2},
		}
		calcs := CalculateHierarchical(chain, 10000)
		payouts := BuildPayouts(calcs, txnID)
		require.Len(t, payouts, 1)

		assert.Nil(t, payouts[0].FromUserID)
		assert.Equal(t, chain[0].UserID, payouts[0].ToUserID)
		assert.Equal(t, int64(1000), payouts[0].Amount)
		assert.Equal(t, fmt.Sprintf("Top-level commission from BBPS Provider for transaction %s", txnID), payouts[0].Narration)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, BuildPayouts(nil, txnID))
	})
}

// MockWalletMover mocks WalletMover
type MockWalletMover struct {
	mock.Mock
	balances map[uuid.UUID]int64 // running per-wallet net, keyed by wallet id
}

func (m *MockWalletMover) GetPrimaryWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	args := m.Called(ctx, userID)
	if w := args.Get(0); w != nil {
		return w.(*wallet.Wallet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWalletMover) CreditInTx(ctx context.Context, tx pgx.Tx, mv ledger.Movement) (*wallet.LedgerEntry, error) {
	args := m.Called(ctx, tx, mv)
	if m.balances != nil && args.Error(1) == nil {
		m.balances[mv.WalletID] += mv.Amount
	}
	if e := args.Get(0); e != nil {
		return e.(*wallet.LedgerEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWalletMover) DebitInTx(ctx context.Context, tx pgx.Tx, mv ledger.Movement) (*wallet.LedgerEntry, error) {
	args := m.Called(ctx, tx, mv)
	if m.balances != nil && args.Error(1) == nil {
		m.balances[mv.WalletID] -= mv.Amount
	}
	if e := args.Get(0); e != nil {
		return e.(*wallet.LedgerEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockEarningRepository mocks commission.EarningRepository
type MockEarningRepository struct {
	mock.Mock
	created []*commission.Earning
}

func (m *MockEarningRepository) Create(ctx context.Context, earning *commission.Earning) error {
	args := m.Called(ctx, earning)
	if args.Error(0) == nil {
		m.created = append(m.created, earning)
	}
	return args.Error(0)
}

func (m *MockEarningRepository) SumByTransactionID(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEarningRepository) ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*commission.Earning, error) {
	args := m.Called(ctx, transactionID)
	if e := args.Get(0); e != nil {
		return e.([]*commission.Earning), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEarningRepository) WithTx(tx pgx.Tx) commission.EarningRepository {
	return m
}

type fakeTxRunner struct{}

func (fakeTxRunner) ExecuteTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return fn(nil)
}

func TestEngine_Distribute(t *testing.T) {
	ctx := context.Background()
	serviceID := uuid.New()
	txnID := uuid.New()

	t.Run("worked example nets out per level", func(t *testing.T) {
		users := new(MockUserRepository)
		settings := new(MockSettingRepository)
		resolver := NewResolver(testResolverLogger(), users, settings)

		superAdminID := uuid.New()
		adminID := uuid.New()
		payerID := uuid.New()
		wallets := map[uuid.UUID]uuid.UUID{
			superAdminID: uuid.New(),
			adminID:      uuid.New(),
			payerID:      uuid.New(),
		}

		users.On("GetByID", ctx, payerID).Return(userFixture(payerID, &adminID), nil).Once()
		users.On("GetByID", ctx, adminID).Return(userFixture(adminID, &superAdminID), nil).Once()
		users.On("GetByID", ctx, superAdminID).Return(userFixture(superAdminID, nil), nil).Once()
		settings.On("FindActiveUserSetting", ctx, payerID, serviceID, (*string)(nil)).Return(percentSetting(1000), nil).Once()
		settings.On("FindActiveUserSetting", ctx, adminID, serviceID, (*string)(nil)).Return(percentSetting(1500), nil).Once()
		settings.On("FindActiveUserSetting", ctx, superAdminID, serviceID, (*string)(nil)).Return(percentSetting(2000), nil).Once()

		mover := &MockWalletMover{balances: make(map[uuid.UUID]int64)}
		for userID, walletID := range wallets {
			w := &wallet.Wallet{ID: walletID, UserID: userID, Balance: 100000, Currency: "INR", Version: 1, IsPrimary: true}
			mover.On("GetPrimaryWallet", ctx, userID).Return(w, nil)
		}
		mover.On("CreditInTx", ctx, nil, mock.Anything).Return(&wallet.LedgerEntry{}, nil)
		mover.On("DebitInTx", ctx, nil, mock.Anything).Return(&wallet.LedgerEntry{}, nil)

		earnings := new(MockEarningRepository)
		earnings.On("Create", ctx, mock.Anything).Return(nil)

		engine := NewEngine(testResolverLogger(), resolver, fakeTxRunner{}, mover, earnings)

		result, err := engine.Distribute(ctx, payerID, serviceID, txnID, nil, 10000)
		require.NoError(t, err)

		assert.Equal(t, int64(3880), result.TotalDistributed)
		assert.Equal(t, int64(2000), result.SystemOutflow)
		assert.Equal(t, 3, result.Legs)

		// Each level's net equals exactly its own commission.
		assert.Equal(t, int64(800), mover.balances[wallets[superAdminID]])
		assert.Equal(t, int64(520), mover.balances[wallets[adminID]])
		assert.Equal(t, int64(680), mover.balances[wallets[payerID]])

		require.Len(t, earnings.created, 3)
		assert.Equal(t, superAdminID, earnings.created[0].UserID)
		assert.Nil(t, earnings.created[0].FromUserID)
		assert.Equal(t, int64(2000), earnings.created[0].Amount)
		assert.Equal(t, adminID, earnings.created[1].UserID)
		require.NotNil(t, earnings.created[1].FromUserID)
		assert.Equal(t, superAdminID, *earnings.created[1].FromUserID)
		assert.Equal(t, payerID, earnings.created[2].UserID)
	})

	t.Run("empty chain is a no-op", func(t *testing.T) {
		users := new(MockUserRepository)
		settings := new(MockSettingRepository)
		resolver := NewResolver(testResolverLogger(), users, settings)

		payerID := uuid.New()
		users.On("GetByID", ctx, payerID).Return(userFixture(payerID, nil), nil).Once()
		settings.On("FindActiveUserSetting", ctx, payerID, serviceID, (*string)(nil)).Return(nil, nil).Once()
		settings.On("FindActiveRoleSetting", ctx, mock.Anything, serviceID, (*string)(nil)).Return(nil, nil).Once()

		mover := &MockWalletMover{}
		earnings := new(MockEarningRepository)
		engine := NewEngine(testResolverLogger(), resolver, fakeTxRunner{}, mover, earnings)

		result, err := engine.Distribute(ctx, payerID, serviceID, txnID, nil, 10000)
		require.NoError(t, err)
		assert.Equal(t, int64(0), result.TotalDistributed)
		assert.Equal(t, 0, result.Legs)
		mover.AssertNotCalled(t, "CreditInTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("leg failure aborts whole distribution", func(t *testing.T) {
		users := new(MockUserRepository)
		settings := new(MockSettingRepository)
		resolver := NewResolver(testResolverLogger(), users, settings)

		parentID := uuid.New()
		payerID := uuid.New()
		users.On("GetByID", ctx, payerID).Return(userFixture(payerID, &parentID), nil).Once()
		users.On("GetByID", ctx, parentID).Return(userFixture(parentID, nil), nil).Once()
		settings.On("FindActiveUserSetting", ctx, payerID, serviceID, (*string)(nil)).Return(percentSetting(1000), nil).Once()
		settings.On("FindActiveUserSetting", ctx, parentID, serviceID, (*string)(nil)).Return(percentSetting(2000), nil).Once()

		mover := &MockWalletMover{}
		parentWallet := &wallet.Wallet{ID: uuid.New(), UserID: parentID, Balance: 0, Version: 1}
		mover.On("GetPrimaryWallet", ctx, parentID).Return(parentWallet, nil)
		mover.On("CreditInTx", ctx, nil, mock.Anything).Return(&wallet.LedgerEntry{}, nil).Once()
		mover.On("DebitInTx", ctx, nil, mock.Anything).Return(nil, wallet.ErrInsufficientFunds).Once()

		earnings := new(MockEarningRepository)
		earnings.On("Create", ctx, mock.Anything).Return(nil)

		engine := NewEngine(testResolverLogger(), resolver, fakeTxRunner{}, mover, earnings)

		_, err := engine.Distribute(ctx, payerID, serviceID, txnID, nil, 10000)
		require.Error(t, err)
		assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)
	})
}

func userFixture(id uuid.UUID, parentID *uuid.UUID) *user.User {
	return &user.User{ID: id, RoleID: uuid.New(), ParentID: parentID, Status: user.StatusActive}
}
