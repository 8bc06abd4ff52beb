// Package wallet defines the wallet and ledger-entry domain model owned
// by the wallet ledger store.
package wallet

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
)

// EntryType labels the direction of a ledger entry.
type EntryType string

const (
	EntryTypeCredit EntryType = "CREDIT"
	EntryTypeDebit  EntryType = "DEBIT"
)

// Wallet is a user's primary store of value. Balance is held in integer
// minor units (paise) and guarded by an optimistic-concurrency version
// counter that increases by exactly one on every committed mutation.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"` // minor units, never negative
	Currency  string    `json:"currency"`
	Version   int       `json:"version"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LedgerEntry is an immutable record of one balance movement. Entries are
// never updated or deleted; ordered by creation time they reconstruct the
// wallet's balance sequence exactly.
type LedgerEntry struct {
	ID             uuid.UUID `json:"id"`
	WalletID       uuid.UUID `json:"wallet_id"`
	TransactionID  uuid.UUID `json:"transaction_id"`
	EntryType      EntryType `json:"entry_type"`
	Amount         int64     `json:"amount"`          // positive, minor units
	RunningBalance int64     `json:"running_balance"` // wallet balance after this entry
	Narration      string    `json:"narration"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}
