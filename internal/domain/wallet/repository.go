package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines wallet persistence operations
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Wallet, error)
	GetPrimaryByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)

	// UpdateBalance writes newBalance conditioned on the version being
	// unchanged since it was read; returns ErrConcurrentModification when
	// another writer got there first.
	UpdateBalance(ctx context.Context, id uuid.UUID, newBalance int64, version int) error

	AppendEntry(ctx context.Context, entry *LedgerEntry) error
	EntriesByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*LedgerEntry, error)
	LatestEntry(ctx context.Context, walletID uuid.UUID) (*LedgerEntry, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrWalletNotFound indicates a missing wallet
type ErrWalletNotFound struct {
	WalletID uuid.UUID
	UserID   uuid.UUID
}

func (e ErrWalletNotFound) Error() string {
	if e.UserID != uuid.Nil {
		return "wallet not found for user: " + e.UserID.String()
	}
	return "wallet not found: " + e.WalletID.String()
}

// Is matches any ErrWalletNotFound when the target carries zero ids.
func (e ErrWalletNotFound) Is(target error) bool {
	t, ok := target.(ErrWalletNotFound)
	if !ok {
		return false
	}
	if t.WalletID == uuid.Nil && t.UserID == uuid.Nil {
		return true
	}
	return e.WalletID == t.WalletID && e.UserID == t.UserID
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	WalletID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for wallet: " + e.WalletID.String()
}

func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	return t.WalletID == uuid.Nil || e.WalletID == t.WalletID
}
