// Package transaction defines the bill-payment transaction record owned
// by the orchestrator.
package transaction

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a bill-payment attempt. A transaction
// is created PENDING and transitions exactly once to a terminal state.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSuccess  Status = "SUCCESS"
	StatusFailed   Status = "FAILED"
	StatusRefunded Status = "REFUNDED"
)

// Error codes recorded on failed transactions. Provider declines carry
// the provider's own response code instead when the gateway returns one.
const (
	ErrCodeProcessing        = "PROCESSING_ERROR"
	ErrCodeProvider          = "PROVIDER_ERROR"
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"
)

// Transaction represents one bill-payment attempt. All monetary fields
// are integer minor units.
type Transaction struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	WalletID         uuid.UUID       `json:"wallet_id"`
	ServiceID        uuid.UUID       `json:"service_id"`
	Amount           int64           `json:"amount"`
	ProviderCharge   int64           `json:"provider_charge"`
	CommissionAmount int64           `json:"commission_amount"`
	NetAmount        int64           `json:"net_amount"`
	Status           Status          `json:"status"`
	Channel          string          `json:"channel,omitempty"`
	IdempotencyKey   string          `json:"idempotency_key,omitempty"` // unique when set
	ExternalRefID    string          `json:"external_ref_id,omitempty"`
	RequestPayload   json.RawMessage `json:"request_payload,omitempty"`
	ResponsePayload  json.RawMessage `json:"response_payload,omitempty"`
	ErrorCode        string          `json:"error_code,omitempty"`
	ErrorMessage     string          `json:"error_message,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
}

// Terminal reports whether the transaction has reached a final state.
func (t *Transaction) Terminal() bool {
	return t.Status != StatusPending
}
