package mongo

import (
	"context"
	"log/slog"

	"github.com/rupeeflow/bbps-backend/internal/bbps"
)

// GatewayRecorder adapts the provider call log to the gateway's recorder
// hook. Recording runs inline with the provider call but failures only
// log; the payment path never depends on the log being writable.
type GatewayRecorder struct {
	repo   *ProviderLogRepository
	logger *slog.Logger
}

// NewGatewayRecorder creates a recorder backed by the call log repository
func NewGatewayRecorder(logger *slog.Logger, repo *ProviderLogRepository) *GatewayRecorder {
	return &GatewayRecorder{repo: repo, logger: logger}
}

// RecordCall persists one provider exchange snapshot.
func (r *GatewayRecorder) RecordCall(ctx context.Context, snapshot bbps.CallSnapshot) {
	record := &CallRecord{
		TransactionID: snapshot.TransactionID,
		Operation:     snapshot.Operation,
		BillerID:      snapshot.BillerID,
		Request:       snapshot.Request,
		Response:      snapshot.Response,
		Success:       snapshot.Success,
		ErrorMessage:  snapshot.ErrorMessage,
		Duration:      snapshot.Duration,
	}
	if err := r.repo.Record(ctx, record); err != nil {
		r.logger.Warn("Provider call log write failed", "operation", snapshot.Operation, "error", err)
	}
}
