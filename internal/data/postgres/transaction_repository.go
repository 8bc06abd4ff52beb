package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rupeeflow/bbps-backend/internal/domain/transaction"
	"github.com/rupeeflow/bbps-backend/internal/platform/persistence"
)

const idempotencyKeyIndex = "idx_transactions_idempotency_key"

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const transactionColumns = `id, user_id, wallet_id, service_id, amount, provider_charge, commission_amount, net_amount,
		status, channel, idempotency_key, external_ref_id, request_payload, response_payload,
		error_code, error_message, created_at, completed_at`

// Create stores a new transaction record in PENDING state
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''), $13, $14, NULLIF($15, ''), NULLIF($16, ''), $17, $18)
	`

	_, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.UserID,
		txn.WalletID,
		txn.ServiceID,
		txn.Amount,
		txn.ProviderCharge,
		txn.CommissionAmount,
		txn.NetAmount,
		txn.Status,
		txn.Channel,
		txn.IdempotencyKey,
		txn.ExternalRefID,
		txn.RequestPayload,
		txn.ResponsePayload,
		txn.ErrorCode,
		txn.ErrorMessage,
		txn.CreatedAt,
		txn.CompletedAt,
	)
	if err != nil {
		// A unique violation on the idempotency index means a concurrent
		// request with the same key won the insert.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == idempotencyKeyIndex {
			return transaction.ErrDuplicateIdempotencyKey{Key: txn.IdempotencyKey}
		}
		r.logger.Error("Failed to create transaction", "id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

func (r *TransactionRepository) scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	var channel, idempotencyKey, externalRefID, errorCode, errorMessage *string
	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.WalletID,
		&txn.ServiceID,
		&txn.Amount,
		&txn.ProviderCharge,
		&txn.CommissionAmount,
		&txn.NetAmount,
		&txn.Status,
		&channel,
		&idempotencyKey,
		&externalRefID,
		&txn.RequestPayload,
		&txn.ResponsePayload,
		&errorCode,
		&errorMessage,
		&txn.CreatedAt,
		&txn.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if channel != nil {
		txn.Channel = *channel
	}
	if idempotencyKey != nil {
		txn.IdempotencyKey = *idempotencyKey
	}
	if externalRefID != nil {
		txn.ExternalRefID = *externalRefID
	}
	if errorCode != nil {
		txn.ErrorCode = *errorCode
	}
	if errorMessage != nil {
		txn.ErrorMessage = *errorMessage
	}
	return &txn, nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
	`

	txn, err := r.scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// GetByIdempotencyKey retrieves a transaction by its idempotency key.
// Returns nil, nil when no transaction carries the key.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE idempotency_key = $1
	`

	txn, err := r.scanTransaction(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by idempotency key", "error", err)
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}

	return txn, nil
}

// Finalize moves a PENDING transaction to its terminal state exactly once.
// Returns ErrTransactionNotFound when the transaction is missing or no
// longer pending.
func (r *TransactionRepository) Finalize(ctx context.Context, id uuid.UUID, fin transaction.Finalization) error {
	query := `
		UPDATE transactions
		SET status = $1, provider_charge = $2, external_ref_id = NULLIF($3, ''), response_payload = $4,
		    error_code = NULLIF($5, ''), error_message = NULLIF($6, ''), completed_at = NOW()
		WHERE id = $7 AND status = 'PENDING'
	`

	result, err := r.querier.Exec(ctx, query,
		fin.Status,
		fin.ProviderCharge,
		fin.ExternalRefID,
		fin.ResponsePayload,
		fin.ErrorCode,
		fin.ErrorMessage,
		id,
	)
	if err != nil {
		r.logger.Error("Failed to finalize transaction", "id", id.String(), "error", err)
		return fmt.Errorf("failed to finalize transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

// UpdateCommission records the distributed commission totals on a transaction
func (r *TransactionRepository) UpdateCommission(ctx context.Context, id uuid.UUID, commissionAmount, netAmount int64) error {
	query := `
		UPDATE transactions
		SET commission_amount = $1, net_amount = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, commissionAmount, netAmount, id)
	if err != nil {
		r.logger.Error("Failed to update transaction commission", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update transaction commission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}

// MarkRefunded moves a SUCCESS transaction to REFUNDED. Returns
// ErrTransactionNotFound when the transaction is missing or not refundable.
func (r *TransactionRepository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE transactions
		SET status = 'REFUNDED'
		WHERE id = $1 AND status = 'SUCCESS'
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to mark transaction refunded", "id", id.String(), "error", err)
		return fmt.Errorf("failed to mark transaction refunded: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{TransactionID: id}
	}

	return nil
}
