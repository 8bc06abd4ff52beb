package commission

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/domain/commission"
	"github.com/rupeeflow/bbps-backend/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository mocks user.Repository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*user.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSettingRepository mocks commission.SettingRepository
type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) FindActiveUserSetting(ctx context.Context, userID, serviceID uuid.UUID, channel *string) (*commission.Setting, error) {
	args := m.Called(ctx, userID, serviceID, channel)
	if s := args.Get(0); s != nil {
		return s.(*commission.Setting), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSettingRepository) FindActiveRoleSetting(ctx context.Context, roleID, serviceID uuid.UUID, channel *string) (*commission.Setting, error) {
	args := m.Called(ctx, roleID, serviceID, channel)
	if s := args.Get(0); s != nil {
		return s.(*commission.Setting), args.Error(1)
	}
	return nil, args.Error(1)
}

func testResolverLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func percentSetting(value int64) *commission.Setting {
	return &commission.Setting{
		ID:       uuid.New(),
		Type:     commission.TypePercentage,
		Value:    value,
		IsActive: true,
	}
}

func TestResolver_ResolveChain(t *testing.T) {
	ctx := context.Background()
	serviceID := uuid.New()

	t.Run("three-level chain ordered leaf first", func(t *testing.T) {
		users := new(MockUserRepository)
		settings := new(MockSettingRepository)
		r := NewResolver(testResolverLogger(), users, settings)

		superAdminID := uuid.New()
		adminID := uuid.New()
		payerID := uuid.New()

		superAdmin := &user.User{ID: superAdminID, RoleID: uuid.New(), Status: user.StatusActive}
		admin := &user.User{ID: adminID, RoleID: uuid.New(), ParentID: &superAdminID, Status: user.StatusActive}
		payer := &user.User{ID: payerID, RoleID: uuid.New(), ParentID: &adminID, Status: user.StatusActive}

		users.On("GetByID", ctx, payerID).Return(payer, nil).Once()
		users.On("GetByID", ctx, adminID).Return(admin, nil).Once()
		users.On("GetByID", ctx, superAdminID).Return(superAdmin, nil).Once()

		settings.On("FindActiveUserSetting", ctx, payerID, serviceID, (*string)(nil)).Return(percentSetting(1000), nil).Once()
		settings.On("FindActiveUserSetting", ctx, adminID, serviceID, (*string)(nil)).Return(percentSetting(1500), nil).Once()
		settings.On("FindActiveUserSetting", ctx, superAdminID, serviceID, (*string)(nil)).Return(percentSetting(2000), nil).Once()

		chain, err := r.ResolveChain(ctx, payerID, serviceID, nil)
		require.NoError(t, err)
		require.Len(t, chain, 3)

		assert.Equal(t, payerID, chain[0].UserID)
		assert.Equal(t, 1, chain[0].Level)
		assert.Equal(t, int64(1000), chain[0].Value)

		assert.Equal(t, adminID, chain[1].UserID)
		assert.Equal(t, 2, chain[1].Level)

		assert.Equal(t, superAdminID, chain[2].UserID)
		assert.Equal(t, 3, chain[2].Level)
		assert.Equal(t, int64(2000), chain[2].Value)

		users.AssertExpectations(t)
		settings.AssertExpectations(t)
	})

	t.Run("falls back to role default then zero flat", func(t *testing.T) {
		users := new(MockUserRepository)
		settings := new(MockSettingRepository)
		r := NewResolver(testResolverLogger(), users, settings)

		parentID := uuid.New()
		payerID := uuid.New()
		parentRoleID := uuid.New()

		parent := &user.User{ID: parentID, RoleID: parentRoleID, Status: user.StatusActive}
		payer := &user.User{ID: payerID, RoleID: uuid.New(), ParentID: &parentID, Status: user.StatusActive}

		users.On("GetByID", ctx, payerID).Return(payer, nil).Once()
		users.On("GetByID", ctx, parentID).Return(parent, nil).Once()

		// Payer has a role default, parent has nothing at all.
		settings.On("FindActiveUserSetting", ctx, payerID, serviceID, (*string)(nil)).Return(nil, nil).Once()
		settings.On("FindActiveRoleSetting", ctx, payer.RoleID, serviceID, (*string)(nil)).Return(percentSetting(500), nil).Once()
		settings.On("FindActiveUserSetting", ctx, parentID, serviceID, (*string)(nil)).Return(nil, nil).Once()
		settings.On("FindActiveRoleSetting", ctx, parentRoleID, serviceID, (*string)(nil)).Return(nil, nil).Once()

		chain, err := r.ResolveChain(ctx, payerID, serviceID, nil)
		require.NoError(t, err)
		require.Len(t, chain, 2)

		assert.Equal(t, commission.TypePercentage, chain[0].Type)
		assert.Equal(t, int64(500), chain[0].Value)

		// Placeholder keeps the position so levels above are not skipped.
		assert.Equal(t, commission.TypeFlat, chain[1].Type)
		assert.Equal(t, int64(0), chain[1].Value)
		assert.Equal(t, 2, chain[1].Level)

		users.AssertExpectations(t)
		settings.AssertExpectations(t)
	})

	t.Run("truncates on cycle", func(t *testing.T) {
		users := new(MockUserRepository)
		settings := new(MockSettingRepository)
		r := NewResolver(testResolverLogger(), users, settings)

		aID := uuid.New()
		bID := uuid.New()
		a := &user.User{ID: aID, RoleID: uuid.New(), ParentID: &bID, Status: user.StatusActive}
		b := &user.User{ID: bID, RoleID: uuid.New(), ParentID: &aID, Status: user.StatusActive}

		users.On("GetByID", ctx, aID).Return(a, nil).Once()
		users.On("GetByID", ctx, bID).Return(b, nil).Once()
		settings.On("FindActiveUserSetting", ctx, mock.Anything, serviceID, (*string)(nil)).Return(nil, nil)
		settings.On("FindActiveRoleSetting", ctx, mock.Anything, serviceID, (*string)(nil)).Return(nil, nil)

		chain, err := r.ResolveChain(ctx, aID, serviceID, nil)
		require.NoError(t, err)
		assert.Len(t, chain, 2)
		users.AssertExpectations(t)
	})

	t.Run("truncates at depth cap", func(t *testing.T) {
		users := new(MockUserRepository)
		settings := new(MockSettingRepository)
		r := NewResolver(testResolverLogger(), users, settings)

		// Build a 60-deep parent chain; only the first 50 should resolve.
		ids := make([]uuid.UUID, 60)
		for i := range ids {
			ids[i] = uuid.New()
		}
		for i := 0; i < 50; i++ {
			u := &user.User{ID: ids[i], RoleID: uuid.New(), Status: user.StatusActive}
			if i+1 < len(ids) {
				u.ParentID = &ids[i+1]
			}
			users.On("GetByID", ctx, ids[i]).Return(u, nil).Once()
		}
		settings.On("FindActiveUserSetting", ctx, mock.Anything, serviceID, (*string)(nil)).Return(nil, nil)
		settings.On("FindActiveRoleSetting", ctx, mock.Anything, serviceID, (*string)(nil)).Return(nil, nil)

		chain, err := r.ResolveChain(ctx, ids[0], serviceID, nil)
		require.NoError(t, err)
		assert.Len(t, chain, maxChainDepth)
		users.AssertExpectations(t)
	})

	t.Run("propagates user lookup failure", func(t *testing.T) {
		users := new(MockUserRepository)
		settings := new(MockSettingRepository)
		r := NewResolver(testResolverLogger(), users, settings)

		payerID := uuid.New()
		lookupErr := errors.New("db down")
		users.On("GetByID", ctx, payerID).Return(nil, lookupErr).Once()

		_, err := r.ResolveChain(ctx, payerID, serviceID, nil)
		assert.ErrorIs(t, err, lookupErr)
		users.AssertExpectations(t)
	})
}
