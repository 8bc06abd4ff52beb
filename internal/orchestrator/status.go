package orchestrator

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/bbps"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
	"github.com/rupeeflow/bbps-backend/internal/domain/transaction"
)

// transactionStatusPayload identifies the transaction to check.
type transactionStatusPayload struct {
	TransactionID uuid.UUID `json:"transaction_id"`
}

// TransactionStatusResult pairs the local record with the provider's view.
type TransactionStatusResult struct {
	Transaction    *transaction.Transaction `json:"transaction"`
	ProviderStatus *bbps.StatusResponse     `json:"provider_status,omitempty"`
}

type transactionStatusCommand struct {
	logger       *slog.Logger
	gateway      bbps.Gateway
	transactions transaction.Repository
	read         readCommandConfig
}

func (c *transactionStatusCommand) Execute(ctx context.Context, req *Request) (*Result, error) {
	var payload transactionStatusPayload
	if err := decodePayload(req, &payload); err != nil {
		return nil, shared.NewValidation("%v", err)
	}
	if payload.TransactionID == uuid.Nil {
		return nil, shared.NewValidation("transaction id is required")
	}

	txn, err := c.transactions.GetByID(ctx, payload.TransactionID)
	if err != nil {
		return nil, err
	}

	result := &TransactionStatusResult{Transaction: txn}

	// Without a provider reference there is nothing to reconcile against;
	// the stored state is the answer.
	if txn.ExternalRefID != "" {
		status, err := retryRead(ctx, c.logger, c.read.attempts, c.read.backoff, string(OpTransactionStatus),
			func(ctx context.Context) (*bbps.StatusResponse, error) {
				return c.gateway.GetTransactionStatus(ctx, txn.ExternalRefID)
			})
		if err != nil {
			c.logger.Warn("Provider status unavailable, returning stored state",
				"transaction_id", txn.ID.String(), "error", err)
		} else {
			result.ProviderStatus = status
		}
	}

	return &Result{Operation: OpTransactionStatus, Data: result}, nil
}
