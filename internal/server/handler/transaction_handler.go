package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
	"github.com/rupeeflow/bbps-backend/internal/domain/transaction"
)

// Refunder reverses a settled transaction.
type Refunder interface {
	Refund(ctx context.Context, transactionID uuid.UUID) (*transaction.Transaction, error)
}

// TransactionHandler serves transaction reads and refunds.
type TransactionHandler struct {
	logger       *slog.Logger
	transactions transaction.Repository
	refunder     Refunder
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactions transaction.Repository, refunder Refunder) *TransactionHandler {
	return &TransactionHandler{
		logger:       logger,
		transactions: transactions,
		refunder:     refunder,
	}
}

// GetByID returns one transaction. GET /api/v1/transactions/:id
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	txn, err := h.transactions.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		RespondError(c, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// Refund reverses a SUCCESS transaction: wallet credit plus REFUNDED
// status. POST /api/v1/transactions/:id/refund
func (h *TransactionHandler) Refund(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	txn, err := h.refunder.Refund(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Refund failed", "transaction_id", id.String(), "error", err)
		RespondError(c, err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:               txn.ID.String(),
		UserID:           txn.UserID.String(),
		WalletID:         txn.WalletID.String(),
		ServiceID:        txn.ServiceID.String(),
		Amount:           shared.FormatMinor(txn.Amount),
		ProviderCharge:   shared.FormatMinor(txn.ProviderCharge),
		CommissionAmount: shared.FormatMinor(txn.CommissionAmount),
		NetAmount:        shared.FormatMinor(txn.NetAmount),
		Status:           string(txn.Status),
		Channel:          txn.Channel,
		ExternalRefID:    txn.ExternalRefID,
		ErrorCode:        txn.ErrorCode,
		ErrorMessage:     txn.ErrorMessage,
		CreatedAt:        txn.CreatedAt.Format(time.RFC3339),
	}
	if txn.CompletedAt != nil {
		resp.CompletedAt = txn.CompletedAt.Format(time.RFC3339)
	}
	return resp
}
