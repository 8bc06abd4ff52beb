// Package ledger implements the wallet ledger store: atomic balance
// mutations with an immutable entry per movement. Every credit or debit
// commits the balance write and the ledger entry in one database
// transaction, guarded by the wallet's optimistic version counter.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rupeeflow/bbps-backend/internal/config"
	"github.com/rupeeflow/bbps-backend/internal/domain/wallet"
)

// TxRunner begins a database transaction and runs fn inside it,
// committing on nil and rolling back on error.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(pgx.Tx) error) error
}

// Movement describes one requested balance change.
type Movement struct {
	WalletID      uuid.UUID
	TransactionID uuid.UUID
	Amount        int64 // positive, minor units
	Narration     string
	CreatedBy     string
}

// Store applies credits and debits to wallets. Public Credit and Debit
// open their own transaction and retry on version conflicts; the InTx
// variants join a caller-owned transaction and never retry, leaving
// conflict handling to the enclosing retry loop.
type Store struct {
	logger   *slog.Logger
	runner   TxRunner
	wallets  wallet.Repository
	attempts int
	backoff  time.Duration
}

// NewStore creates a wallet ledger store
func NewStore(logger *slog.Logger, runner TxRunner, wallets wallet.Repository, cfg *config.LedgerConfig) *Store {
	return &Store{
		logger:   logger,
		runner:   runner,
		wallets:  wallets,
		attempts: cfg.RetryAttempts,
		backoff:  cfg.RetryBackoff,
	}
}

// GetWallet returns the wallet by id
func (s *Store) GetWallet(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	return s.wallets.GetByID(ctx, id)
}

// GetPrimaryWallet returns the user's primary wallet
func (s *Store) GetPrimaryWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	return s.wallets.GetPrimaryByUserID(ctx, userID)
}

// Entries returns a page of the wallet's ledger, newest first
func (s *Store) Entries(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*wallet.LedgerEntry, error) {
	return s.wallets.EntriesByWalletID(ctx, walletID, limit, offset)
}

// Credit adds funds to a wallet, retrying on concurrent modification.
func (s *Store) Credit(ctx context.Context, m Movement) (*wallet.LedgerEntry, error) {
	return s.apply(ctx, wallet.EntryTypeCredit, m)
}

// Debit removes funds from a wallet, retrying on concurrent modification.
// Returns wallet.ErrInsufficientFunds without retrying when the balance
// cannot cover the amount.
func (s *Store) Debit(ctx context.Context, m Movement) (*wallet.LedgerEntry, error) {
	return s.apply(ctx, wallet.EntryTypeDebit, m)
}

func (s *Store) apply(ctx context.Context, entryType wallet.EntryType, m Movement) (*wallet.LedgerEntry, error) {
	if m.Amount <= 0 {
		return nil, wallet.ErrInvalidAmount
	}

	var entry *wallet.LedgerEntry
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err := s.runner.ExecuteTx(ctx, func(tx pgx.Tx) error {
			var txErr error
			entry, txErr = s.applyInTx(ctx, tx, entryType, m)
			return txErr
		})
		if err == nil {
			return entry, nil
		}
		lastErr = err

		if !errors.Is(err, wallet.ErrConcurrentModification{}) {
			return nil, err
		}

		s.logger.Warn("Wallet version conflict, retrying",
			"wallet_id", m.WalletID.String(),
			"entry_type", string(entryType),
			"attempt", attempt,
		)
		if attempt < s.attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * s.backoff):
			}
		}
	}

	return nil, fmt.Errorf("wallet %s still contended after %d attempts: %w", m.WalletID, s.attempts, lastErr)
}

// CreditInTx credits a wallet inside a caller-owned transaction.
func (s *Store) CreditInTx(ctx context.Context, tx pgx.Tx, m Movement) (*wallet.LedgerEntry, error) {
	if m.Amount <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	return s.applyInTx(ctx, tx, wallet.EntryTypeCredit, m)
}

// DebitInTx debits a wallet inside a caller-owned transaction.
func (s *Store) DebitInTx(ctx context.Context, tx pgx.Tx, m Movement) (*wallet.LedgerEntry, error) {
	if m.Amount <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	return s.applyInTx(ctx, tx, wallet.EntryTypeDebit, m)
}

// applyInTx performs the read-check-write-append sequence on the given
// transaction. The balance write is version-conditioned so a concurrent
// writer surfaces as wallet.ErrConcurrentModification and aborts the tx.
func (s *Store) applyInTx(ctx context.Context, tx pgx.Tx, entryType wallet.EntryType, m Movement) (*wallet.LedgerEntry, error) {
	repo := s.wallets.WithTx(tx)

	w, err := repo.GetByID(ctx, m.WalletID)
	if err != nil {
		return nil, err
	}

	var newBalance int64
	switch entryType {
	case wallet.EntryTypeCredit:
		newBalance = w.Balance + m.Amount
	case wallet.EntryTypeDebit:
		if w.Balance < m.Amount {
			return nil, wallet.ErrInsufficientFunds
		}
		newBalance = w.Balance - m.Amount
	default:
		return nil, fmt.Errorf("unknown entry type: %s", entryType)
	}

	if err := repo.UpdateBalance(ctx, w.ID, newBalance, w.Version); err != nil {
		return nil, err
	}

	entry := &wallet.LedgerEntry{
		ID:             uuid.New(),
		WalletID:       w.ID,
		TransactionID:  m.TransactionID,
		EntryType:      entryType,
		Amount:         m.Amount,
		RunningBalance: newBalance,
		Narration:      m.Narration,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      time.Now().UTC(),
	}
	if err := repo.AppendEntry(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}
