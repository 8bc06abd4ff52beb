package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/commission"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
	"github.com/rupeeflow/bbps-backend/internal/domain/transaction"
	"github.com/rupeeflow/bbps-backend/internal/ledger"
	"github.com/rupeeflow/bbps-backend/internal/platform/messaging"
)

// RefundService reverses settled bill payments after the fact, for
// provider-confirmed failures discovered during reconciliation.
type RefundService struct {
	logger       *slog.Logger
	ledger       *ledger.Store
	transactions transaction.Repository
	audit        messaging.AuditPublisher // optional
}

// NewRefundService creates the refund service
func NewRefundService(logger *slog.Logger, ledgerStore *ledger.Store, transactions transaction.Repository, audit messaging.AuditPublisher) *RefundService {
	return &RefundService{
		logger:       logger,
		ledger:       ledgerStore,
		transactions: transactions,
		audit:        audit,
	}
}

// Refund credits the gross amount back to the paying wallet and moves the
// transaction to REFUNDED. Only SUCCESS transactions are refundable; the
// status-conditioned update makes a concurrent double refund impossible.
func (s *RefundService) Refund(ctx context.Context, transactionID uuid.UUID) (*transaction.Transaction, error) {
	txn, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status != transaction.StatusSuccess {
		return nil, shared.NewConflict("transaction %s is %s, only SUCCESS transactions can be refunded", txn.ID, txn.Status)
	}

	if err := s.transactions.MarkRefunded(ctx, txn.ID); err != nil {
		return nil, shared.NewConflict("transaction %s was already refunded", txn.ID)
	}

	if _, err := s.ledger.Credit(ctx, ledger.Movement{
		WalletID:      txn.WalletID,
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		Narration:     fmt.Sprintf("Refund for transaction %s", txn.ID),
		CreatedBy:     commission.SystemPayerLabel,
	}); err != nil {
		// Status already says REFUNDED but the money did not move back.
		// Surface loudly; replaying the credit is the operator's fix.
		s.logger.Error("REFUND CREDIT FAILED after status update",
			"transaction_id", txn.ID.String(),
			"wallet_id", txn.WalletID.String(),
			"amount", txn.Amount,
			"error", err,
		)
		return nil, shared.NewInternal("refund credit failed", err)
	}

	s.logger.Info("Transaction refunded",
		"transaction_id", txn.ID.String(),
		"amount", txn.Amount,
	)

	if s.audit != nil {
		if err := s.audit.Publish(ctx, messaging.AuditEvent{
			TransactionID: txn.ID,
			Operation:     "REFUND",
			Status:        string(transaction.StatusRefunded),
		}); err != nil {
			s.logger.Warn("Audit event publish failed", "transaction_id", txn.ID.String(), "error", err)
		}
	}

	refreshed, err := s.transactions.GetByID(ctx, txn.ID)
	if err != nil {
		return nil, err
	}
	return refreshed, nil
}
