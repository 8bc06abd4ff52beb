package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/bbps"
	"github.com/rupeeflow/bbps-backend/internal/commission"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
	"github.com/rupeeflow/bbps-backend/internal/domain/transaction"
	"github.com/rupeeflow/bbps-backend/internal/domain/user"
	"github.com/rupeeflow/bbps-backend/internal/domain/wallet"
	"github.com/rupeeflow/bbps-backend/internal/ledger"
	"github.com/rupeeflow/bbps-backend/internal/platform/messaging"
)

// BillPaymentPayload is the BILL_PAYMENT request body. Amount is a
// decimal major-unit string and converts to minor units on entry.
type BillPaymentPayload struct {
	ServiceID      uuid.UUID         `json:"service_id"`
	BillerID       string            `json:"biller_id"`
	ConsumerNumber string            `json:"consumer_number"`
	Amount         string            `json:"amount"`
	Params         map[string]string `json:"params,omitempty"`
}

// BillPaymentResult is the BILL_PAYMENT success data.
type BillPaymentResult struct {
	TransactionID         uuid.UUID          `json:"transaction_id"`
	Status                transaction.Status `json:"status"`
	ExternalRefID         string             `json:"external_ref_id,omitempty"`
	Amount                int64              `json:"amount"`
	ProviderCharge        int64              `json:"provider_charge"`
	CommissionDistributed int64              `json:"commission_distributed"`
}

type billPaymentCommand struct {
	logger       *slog.Logger
	gateway      bbps.Gateway
	ledger       *ledger.Store
	engine       *commission.Engine
	transactions transaction.Repository
	users        user.Repository
	rateLimiter  RateLimiter
	audit        messaging.AuditPublisher // optional
}

// Execute drives the payment state machine: idempotency, validation,
// rate limit, provider validation, debit, provider payment, then
// settlement or compensation.
func (c *billPaymentCommand) Execute(ctx context.Context, req *Request) (*Result, error) {
	var payload BillPaymentPayload
	if err := decodePayload(req, &payload); err != nil {
		return nil, shared.NewValidation("%v", err)
	}

	// Replays of an already-processed request return the recorded outcome
	// without touching money again.
	if req.IdempotencyKey != "" {
		existing, err := c.transactions.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, shared.NewInternal("idempotency lookup failed", err)
		}
		if existing != nil {
			return &Result{
				Operation: OpBillPayment,
				Duplicate: true,
				Message:   "Transaction already processed",
				Data:      existing,
			}, nil
		}
	}

	amount, payer, walletID, err := c.validate(ctx, req, &payload)
	if err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Allow(ctx, payer.ID, payload.ServiceID); err != nil {
		return nil, err
	}

	validation, err := c.gateway.ValidateBill(ctx, bbps.BillValidationRequest{
		BillerID:       payload.BillerID,
		ConsumerNumber: payload.ConsumerNumber,
		Amount:         amount,
		Params:         payload.Params,
	})
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		reason := validation.Reason
		if reason == "" {
			reason = "bill cannot be paid"
		}
		return nil, shared.NewValidation("bill validation failed: %s", reason)
	}
	if validation.Amount != amount {
		return nil, shared.NewValidation("amount mismatch: bill is %s, request is %s",
			shared.FormatMinor(validation.Amount), shared.FormatMinor(amount))
	}

	txn := &transaction.Transaction{
		ID:             uuid.New(),
		UserID:         payer.ID,
		WalletID:       walletID,
		ServiceID:      payload.ServiceID,
		Amount:         amount,
		NetAmount:      amount,
		Status:         transaction.StatusPending,
		Channel:        req.Channel,
		IdempotencyKey: req.IdempotencyKey,
		RequestPayload: req.Payload,
		CreatedAt:      time.Now().UTC(),
	}
	if err := c.transactions.Create(ctx, txn); err != nil {
		// A concurrent request with the same key raced past the lookup
		// above and won the insert; its outcome is the answer here too.
		if errors.Is(err, transaction.ErrDuplicateIdempotencyKey{}) {
			existing, lookupErr := c.transactions.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if lookupErr == nil && existing != nil {
				return &Result{
					Operation: OpBillPayment,
					Duplicate: true,
					Message:   "Transaction already processed",
					Data:      existing,
				}, nil
			}
			return nil, shared.NewDuplicateRequest("a request with this idempotency key is already processing")
		}
		return nil, shared.NewInternal("failed to create transaction", err)
	}
	c.publishAudit(ctx, txn.ID, string(transaction.StatusPending), "", req.Payload)

	if _, err := c.ledger.Debit(ctx, ledger.Movement{
		WalletID:      walletID,
		TransactionID: txn.ID,
		Amount:        amount,
		Narration:     fmt.Sprintf("Bill payment to %s for consumer %s", payload.BillerID, payload.ConsumerNumber),
		CreatedBy:     payer.ID.String(),
	}); err != nil {
		errCode := transaction.ErrCodeProcessing
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			errCode = transaction.ErrCodeInsufficientFunds
		}
		c.finalizeFailed(ctx, txn.ID, errCode, err.Error(), nil)
		c.publishAudit(ctx, txn.ID, string(transaction.StatusFailed), errCode, nil)
		return nil, err
	}

	// The provider call is invoked exactly once: an ambiguous outcome is
	// resolved via TRANSACTION_STATUS, never by re-invoking the payment.
	payment, payErr := c.gateway.ProcessPayment(ctx, bbps.PaymentRequest{
		ReferenceID:    txn.ID.String(),
		BillerID:       payload.BillerID,
		ConsumerNumber: payload.ConsumerNumber,
		Amount:         amount,
		Channel:        req.Channel,
		Contact:        payer.PhoneNumber,
		Params:         payload.Params,
	})
	if payErr != nil || !payment.Success {
		return nil, c.compensate(ctx, txn, amount, walletID, payment, payErr)
	}

	if err := c.transactions.Finalize(ctx, txn.ID, transaction.Finalization{
		Status:          transaction.StatusSuccess,
		ProviderCharge:  payment.Charge,
		ExternalRefID:   payment.ExternalRefID,
		ResponsePayload: payment.Raw,
	}); err != nil {
		// The money has moved and the provider has settled; a finalize
		// failure is an internal inconsistency, not a payment failure.
		c.logger.Error("Failed to finalize successful transaction",
			"transaction_id", txn.ID.String(), "error", err)
	}

	distributed := c.distributeCommission(ctx, txn, &payload, amount)
	c.publishAudit(ctx, txn.ID, string(transaction.StatusSuccess), "", nil)

	return &Result{
		Operation: OpBillPayment,
		Message:   "Bill payment successful",
		Data: BillPaymentResult{
			TransactionID:         txn.ID,
			Status:                transaction.StatusSuccess,
			ExternalRefID:         payment.ExternalRefID,
			Amount:                amount,
			ProviderCharge:        payment.Charge,
			CommissionDistributed: distributed,
		},
	}, nil
}

// validate checks the payload and the payer's standing, returning the
// minor-unit amount, the payer and the wallet to debit.
func (c *billPaymentCommand) validate(ctx context.Context, req *Request, payload *BillPaymentPayload) (int64, *user.User, uuid.UUID, error) {
	if req.UserID == uuid.Nil {
		return 0, nil, uuid.Nil, shared.NewValidation("user id is required")
	}
	if payload.ServiceID == uuid.Nil {
		return 0, nil, uuid.Nil, shared.NewValidation("service id is required")
	}
	if payload.BillerID == "" {
		return 0, nil, uuid.Nil, shared.NewValidation("biller id is required")
	}
	if payload.ConsumerNumber == "" {
		return 0, nil, uuid.Nil, shared.NewValidation("consumer number is required")
	}

	amount, err := shared.ParseMajor(payload.Amount)
	if err != nil {
		return 0, nil, uuid.Nil, shared.NewValidation("invalid amount %q: %v", payload.Amount, err)
	}
	if amount <= 0 {
		return 0, nil, uuid.Nil, shared.NewValidation("amount must be positive")
	}

	payer, err := c.users.GetByID(ctx, req.UserID)
	if err != nil {
		return 0, nil, uuid.Nil, err
	}
	if payer.Status != user.StatusActive {
		return 0, nil, uuid.Nil, shared.NewValidation("user is not active")
	}

	w, err := c.ledger.GetPrimaryWallet(ctx, payer.ID)
	if err != nil {
		return 0, nil, uuid.Nil, err
	}

	return amount, payer, w.ID, nil
}

// compensate reverses the debit after a provider failure and records the
// terminal FAILED state. A decline keeps the provider's own response
// code on the transaction; an unexpected internal error is recorded as a
// processing failure. A compensation failure is logged loudly but the
// original provider error is what the caller sees.
func (c *billPaymentCommand) compensate(ctx context.Context, txn *transaction.Transaction, amount int64, walletID uuid.UUID, payment *bbps.PaymentResponse, payErr error) error {
	errCode := transaction.ErrCodeProvider
	errMsg := "provider reported failure"
	switch {
	case payErr != nil:
		errMsg = payErr.Error()
		if shared.CodeOf(payErr) != shared.CodeProviderDeclined {
			errCode = transaction.ErrCodeProcessing
		}
	case payment != nil:
		if payment.ResponseCode != "" {
			errCode = payment.ResponseCode
		}
		if payment.Message != "" {
			errMsg = payment.Message
		}
	}

	if _, err := c.ledger.Credit(ctx, ledger.Movement{
		WalletID:      walletID,
		TransactionID: txn.ID,
		Amount:        amount,
		Narration:     fmt.Sprintf("Reversal for failed bill payment %s", txn.ID),
		CreatedBy:     commission.SystemPayerLabel,
	}); err != nil {
		// Funds are stuck until the reversal is replayed; this must page.
		c.logger.Error("COMPENSATION FAILED: debit not reversed",
			"transaction_id", txn.ID.String(),
			"wallet_id", walletID.String(),
			"amount", amount,
			"error", err,
		)
	}

	var responsePayload json.RawMessage
	if payment != nil {
		responsePayload = payment.Raw
	}
	c.finalizeFailed(ctx, txn.ID, errCode, errMsg, responsePayload)
	c.publishAudit(ctx, txn.ID, string(transaction.StatusFailed), errCode, nil)

	if payErr != nil {
		return payErr
	}
	return shared.NewProviderDeclined("%s", errMsg)
}

func (c *billPaymentCommand) finalizeFailed(ctx context.Context, txnID uuid.UUID, errCode, errMsg string, responsePayload json.RawMessage) {
	if err := c.transactions.Finalize(ctx, txnID, transaction.Finalization{
		Status:          transaction.StatusFailed,
		ErrorCode:       errCode,
		ErrorMessage:    errMsg,
		ResponsePayload: responsePayload,
	}); err != nil {
		c.logger.Error("Failed to record FAILED transaction state",
			"transaction_id", txnID.String(), "error", err)
	}
}

// distributeCommission runs the hierarchical distribution after a settled
// payment. Distribution failure degrades the payment, it never reverses it.
func (c *billPaymentCommand) distributeCommission(ctx context.Context, txn *transaction.Transaction, payload *BillPaymentPayload, amount int64) int64 {
	var channel *string
	if txn.Channel != "" {
		channel = &txn.Channel
	}

	result, err := c.engine.Distribute(ctx, txn.UserID, payload.ServiceID, txn.ID, channel, amount)
	if err != nil {
		c.logger.Error("Commission distribution failed after successful payment",
			"transaction_id", txn.ID.String(),
			"error", err,
		)
		return 0
	}

	if result.TotalDistributed > 0 {
		if err := c.transactions.UpdateCommission(ctx, txn.ID, result.TotalDistributed, amount-result.TotalDistributed); err != nil {
			c.logger.Error("Failed to record commission totals",
				"transaction_id", txn.ID.String(), "error", err)
		}
	}
	return result.TotalDistributed
}

func (c *billPaymentCommand) publishAudit(ctx context.Context, txnID uuid.UUID, status, errCode string, payload json.RawMessage) {
	if c.audit == nil {
		return
	}
	event := messaging.AuditEvent{
		TransactionID: txnID,
		Operation:     string(OpBillPayment),
		Status:        status,
		ErrorCode:     errCode,
		Payload:       redactedPayload(payload),
	}
	if err := c.audit.Publish(ctx, event); err != nil {
		c.logger.Warn("Audit event publish failed",
			"transaction_id", txnID.String(), "status", status, "error", err)
	}
}
