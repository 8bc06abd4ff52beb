package orchestrator

import (
	"context"
	"log/slog"

	"github.com/rupeeflow/bbps-backend/internal/bbps"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
)

type complaintRegisterCommand struct {
	logger  *slog.Logger
	gateway bbps.Gateway
}

// Execute registers a complaint. Registration creates provider-side state,
// so it is invoked once without the retry helper.
func (c *complaintRegisterCommand) Execute(ctx context.Context, req *Request) (*Result, error) {
	var payload bbps.ComplaintRequest
	if err := decodePayload(req, &payload); err != nil {
		return nil, shared.NewValidation("%v", err)
	}
	if payload.ExternalRefID == "" {
		return nil, shared.NewValidation("transaction reference is required")
	}
	if payload.Description == "" {
		return nil, shared.NewValidation("complaint description is required")
	}

	resp, err := c.gateway.RegisterComplaint(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &Result{Operation: OpComplaintRegister, Data: resp}, nil
}

type complaintTrackingPayload struct {
	ComplaintID string `json:"complaint_id"`
}

type complaintTrackingCommand struct {
	logger  *slog.Logger
	gateway bbps.Gateway
	read    readCommandConfig
}

func (c *complaintTrackingCommand) Execute(ctx context.Context, req *Request) (*Result, error) {
	var payload complaintTrackingPayload
	if err := decodePayload(req, &payload); err != nil {
		return nil, shared.NewValidation("%v", err)
	}
	if payload.ComplaintID == "" {
		return nil, shared.NewValidation("complaint id is required")
	}

	resp, err := retryRead(ctx, c.logger, c.read.attempts, c.read.backoff, string(OpComplaintTracking),
		func(ctx context.Context) (*bbps.ComplaintResponse, error) {
			return c.gateway.TrackComplaint(ctx, payload.ComplaintID)
		})
	if err != nil {
		return nil, err
	}
	return &Result{Operation: OpComplaintTracking, Data: resp}, nil
}
