package commission

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SettingRepository reads commission rules. Rules are owned by an
// external administrative surface; the core only queries them.
type SettingRepository interface {
	// FindActiveUserSetting returns the most recent active USER-scoped
	// setting for the exact user+service+channel, or nil, nil when none.
	FindActiveUserSetting(ctx context.Context, userID, serviceID uuid.UUID, channel *string) (*Setting, error)

	// FindActiveRoleSetting is the role-default fallback; nil, nil when none.
	FindActiveRoleSetting(ctx context.Context, roleID, serviceID uuid.UUID, channel *string) (*Setting, error)
}

// EarningRepository persists payout-leg audit rows.
type EarningRepository interface {
	Create(ctx context.Context, earning *Earning) error
	SumByTransactionID(ctx context.Context, transactionID uuid.UUID) (int64, error)
	ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*Earning, error)

	WithTx(tx pgx.Tx) EarningRepository
}
