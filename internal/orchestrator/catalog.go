package orchestrator

import (
	"context"
	"log/slog"

	"github.com/rupeeflow/bbps-backend/internal/bbps"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
)

// Thin pass-through commands over the provider catalogue. All of them are
// read-style and wrapped in the bounded retry helper.

type billerInfoCommand struct {
	logger  *slog.Logger
	gateway bbps.Gateway
	read    readCommandConfig
}

func (c *billerInfoCommand) Execute(ctx context.Context, req *Request) (*Result, error) {
	var payload bbps.BillerInfoRequest
	if err := decodePayload(req, &payload); err != nil {
		return nil, shared.NewValidation("%v", err)
	}
	if payload.PageSize <= 0 {
		payload.PageSize = 20
	}
	if payload.Page <= 0 {
		payload.Page = 1
	}

	resp, err := retryRead(ctx, c.logger, c.read.attempts, c.read.backoff, string(OpBillerInfo),
		func(ctx context.Context) (*bbps.BillerInfoResponse, error) {
			return c.gateway.ListBillers(ctx, payload)
		})
	if err != nil {
		return nil, err
	}
	return &Result{Operation: OpBillerInfo, Data: resp}, nil
}

type billerFetchCommand struct {
	logger  *slog.Logger
	gateway bbps.Gateway
	read    readCommandConfig
}

func (c *billerFetchCommand) Execute(ctx context.Context, req *Request) (*Result, error) {
	var payload bbps.BillFetchRequest
	if err := decodePayload(req, &payload); err != nil {
		return nil, shared.NewValidation("%v", err)
	}
	if payload.BillerID == "" {
		return nil, shared.NewValidation("biller id is required")
	}
	if payload.ConsumerNumber == "" {
		return nil, shared.NewValidation("consumer number is required")
	}

	resp, err := retryRead(ctx, c.logger, c.read.attempts, c.read.backoff, string(OpBillerFetch),
		func(ctx context.Context) (*bbps.BillFetchResponse, error) {
			return c.gateway.FetchBill(ctx, payload)
		})
	if err != nil {
		return nil, err
	}
	return &Result{Operation: OpBillerFetch, Data: resp}, nil
}

// billValidationPayload carries the major-unit amount string for the
// standalone validation operation.
type billValidationPayload struct {
	BillerID       string            `json:"biller_id"`
	ConsumerNumber string            `json:"consumer_number"`
	Amount         string            `json:"amount"`
	Params         map[string]string `json:"params,omitempty"`
}

type billValidationCommand struct {
	logger  *slog.Logger
	gateway bbps.Gateway
	read    readCommandConfig
}

func (c *billValidationCommand) Execute(ctx context.Context, req *Request) (*Result, error) {
	var payload billValidationPayload
	if err := decodePayload(req, &payload); err != nil {
		return nil, shared.NewValidation("%v", err)
	}
	if payload.BillerID == "" {
		return nil, shared.NewValidation("biller id is required")
	}
	if payload.ConsumerNumber == "" {
		return nil, shared.NewValidation("consumer number is required")
	}
	amount, err := shared.ParseMajor(payload.Amount)
	if err != nil {
		return nil, shared.NewValidation("invalid amount %q: %v", payload.Amount, err)
	}
	if amount <= 0 {
		return nil, shared.NewValidation("amount must be positive")
	}

	resp, err := retryRead(ctx, c.logger, c.read.attempts, c.read.backoff, string(OpBillValidation),
		func(ctx context.Context) (*bbps.BillValidationResponse, error) {
			return c.gateway.ValidateBill(ctx, bbps.BillValidationRequest{
				BillerID:       payload.BillerID,
				ConsumerNumber: payload.ConsumerNumber,
				Amount:         amount,
				Params:         payload.Params,
			})
		})
	if err != nil {
		return nil, err
	}
	return &Result{Operation: OpBillValidation, Data: resp}, nil
}

type planPullCommand struct {
	logger  *slog.Logger
	gateway bbps.Gateway
	read    readCommandConfig
}

func (c *planPullCommand) Execute(ctx context.Context, req *Request) (*Result, error) {
	var payload bbps.PlanPullRequest
	if err := decodePayload(req, &payload); err != nil {
		return nil, shared.NewValidation("%v", err)
	}
	if payload.BillerID == "" {
		return nil, shared.NewValidation("biller id is required")
	}

	resp, err := retryRead(ctx, c.logger, c.read.attempts, c.read.backoff, string(OpPlanPull),
		func(ctx context.Context) (*bbps.PlanPullResponse, error) {
			return c.gateway.PullPlans(ctx, payload)
		})
	if err != nil {
		return nil, err
	}
	return &Result{Operation: OpPlanPull, Data: resp}, nil
}
