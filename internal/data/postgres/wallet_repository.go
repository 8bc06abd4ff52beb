// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the payments core.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rupeeflow/bbps-backend/internal/domain/wallet"
	"github.com/rupeeflow/bbps-backend/internal/platform/persistence"
)

// WalletRepository implements the wallet.Repository interface for PostgreSQL
type WalletRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewWalletRepository(logger *slog.Logger, db *persistence.PostgresDB) wallet.Repository {
	return &WalletRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *WalletRepository) WithTx(tx pgx.Tx) wallet.Repository {
	return &WalletRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByID retrieves a wallet by its ID
func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	query := `
		SELECT id, user_id, balance, currency, version, is_primary, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`

	var w wallet.Wallet
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&w.ID,
		&w.UserID,
		&w.Balance,
		&w.Currency,
		&w.Version,
		&w.IsPrimary,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{WalletID: id}
		}
		r.logger.Error("Failed to get wallet", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &w, nil
}

// GetPrimaryByUserID retrieves the user's primary wallet
func (r *WalletRepository) GetPrimaryByUserID(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	query := `
		SELECT id, user_id, balance, currency, version, is_primary, created_at, updated_at
		FROM wallets
		WHERE user_id = $1 AND is_primary = TRUE
	`

	var w wallet.Wallet
	err := r.querier.QueryRow(ctx, query, userID).Scan(
		&w.ID,
		&w.UserID,
		&w.Balance,
		&w.Currency,
		&w.Version,
		&w.IsPrimary,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{UserID: userID}
		}
		r.logger.Error("Failed to get primary wallet", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to get primary wallet: %w", err)
	}

	return &w, nil
}

// UpdateBalance writes the new balance using optimistic locking. Returns
// ErrConcurrentModification if the wallet was modified between read and update.
func (r *WalletRepository) UpdateBalance(ctx context.Context, id uuid.UUID, newBalance int64, version int) error {
	query := `
		UPDATE wallets
		SET balance = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
	`

	result, err := r.querier.Exec(ctx, query, newBalance, id, version)
	if err != nil {
		r.logger.Error("Failed to update wallet balance", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return wallet.ErrConcurrentModification{WalletID: id}
	}

	return nil
}

// AppendEntry stores an immutable ledger entry
func (r *WalletRepository) AppendEntry(ctx context.Context, entry *wallet.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, wallet_id, transaction_id, entry_type, amount, running_balance, narration, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.ID,
		entry.WalletID,
		entry.TransactionID,
		entry.EntryType,
		entry.Amount,
		entry.RunningBalance,
		entry.Narration,
		entry.CreatedBy,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append ledger entry", "wallet_id", entry.WalletID.String(), "error", err)
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return nil
}

// EntriesByWalletID retrieves ledger entries for a wallet, newest first
func (r *WalletRepository) EntriesByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]*wallet.LedgerEntry, error) {
	query := `
		SELECT id, wallet_id, transaction_id, entry_type, amount, running_balance, narration, created_by, created_at
		FROM ledger_entries
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", "wallet_id", walletID.String(), "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*wallet.LedgerEntry
	for rows.Next() {
		var e wallet.LedgerEntry
		err := rows.Scan(
			&e.ID,
			&e.WalletID,
			&e.TransactionID,
			&e.EntryType,
			&e.Amount,
			&e.RunningBalance,
			&e.Narration,
			&e.CreatedBy,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}

// LatestEntry returns the most recent ledger entry for a wallet, or
// nil, nil when the wallet has no entries yet.
func (r *WalletRepository) LatestEntry(ctx context.Context, walletID uuid.UUID) (*wallet.LedgerEntry, error) {
	query := `
		SELECT id, wallet_id, transaction_id, entry_type, amount, running_balance, narration, created_by, created_at
		FROM ledger_entries
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var e wallet.LedgerEntry
	err := r.querier.QueryRow(ctx, query, walletID).Scan(
		&e.ID,
		&e.WalletID,
		&e.TransactionID,
		&e.EntryType,
		&e.Amount,
		&e.RunningBalance,
		&e.Narration,
		&e.CreatedBy,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get latest ledger entry", "wallet_id", walletID.String(), "error", err)
		return nil, fmt.Errorf("failed to get latest ledger entry: %w", err)
	}

	return &e, nil
}
