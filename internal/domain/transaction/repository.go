package transaction

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Finalization carries the terminal-state fields written exactly once
// when a pending transaction completes.
type Finalization struct {
	Status          Status
	ProviderCharge  int64
	ExternalRefID   string
	ResponsePayload json.RawMessage
	ErrorCode       string
	ErrorMessage    string
}

// Repository manages transaction persistence
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// GetByIdempotencyKey returns nil, nil when no transaction carries the key.
	GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)

	Finalize(ctx context.Context, id uuid.UUID, fin Finalization) error
	UpdateCommission(ctx context.Context, id uuid.UUID, commissionAmount, netAmount int64) error
	MarkRefunded(ctx context.Context, id uuid.UUID) error

	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates a missing transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || e.TransactionID == t.TransactionID
}

// ErrDuplicateIdempotencyKey indicates a concurrent request already
// claimed the idempotency key between lookup and insert.
type ErrDuplicateIdempotencyKey struct {
	Key string
}

func (e ErrDuplicateIdempotencyKey) Error() string {
	return "idempotency key already claimed: " + e.Key
}

func (e ErrDuplicateIdempotencyKey) Is(target error) bool {
	t, ok := target.(ErrDuplicateIdempotencyKey)
	if !ok {
		return false
	}
	return t.Key == "" || e.Key == t.Key
}
