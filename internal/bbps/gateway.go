// Package bbps is the HTTP client for the external BBPS biller provider.
// Calls carry the agent credentials from config and an explicit per-call
// timeout; a timeout is reported as a provider failure, never retried
// here. Every call can be snapshotted to an append-only log via a
// CallRecorder.
package bbps

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/config"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
)

// Gateway is the provider surface the orchestrator consumes.
type Gateway interface {
	ListBillers(ctx context.Context, req BillerInfoRequest) (*BillerInfoResponse, error)
	FetchBill(ctx context.Context, req BillFetchRequest) (*BillFetchResponse, error)
	ValidateBill(ctx context.Context, req BillValidationRequest) (*BillValidationResponse, error)
	ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error)
	GetTransactionStatus(ctx context.Context, externalRefID string) (*StatusResponse, error)
	RegisterComplaint(ctx context.Context, req ComplaintRequest) (*ComplaintResponse, error)
	TrackComplaint(ctx context.Context, complaintID string) (*ComplaintResponse, error)
	PullPlans(ctx context.Context, req PlanPullRequest) (*PlanPullResponse, error)
}

// CallSnapshot is one provider exchange handed to the CallRecorder.
// Request and Response are already redacted by the gateway's caller
// convention: credentials never enter these maps.
type CallSnapshot struct {
	TransactionID *uuid.UUID
	Operation     string
	BillerID      string
	Request       map[string]any
	Response      map[string]any
	Success       bool
	ErrorMessage  string
	Duration      time.Duration
}

// CallRecorder receives a snapshot of every provider exchange. Recording
// failures are the recorder's problem; the gateway ignores them.
type CallRecorder interface {
	RecordCall(ctx context.Context, snapshot CallSnapshot)
}

// HTTPGateway implements Gateway over the provider's JSON API.
type HTTPGateway struct {
	logger   *slog.Logger
	client   *http.Client
	baseURL  string
	agentID  string
	token    string
	recorder CallRecorder // optional
}

// NewHTTPGateway creates the provider client from config.
func NewHTTPGateway(logger *slog.Logger, cfg *config.BBPSConfig, recorder CallRecorder) *HTTPGateway {
	return &HTTPGateway{
		logger:   logger,
		client:   &http.Client{Timeout: cfg.Timeout},
		baseURL:  cfg.BaseURL,
		agentID:  cfg.AgentID,
		token:    cfg.AuthToken,
		recorder: recorder,
	}
}

func (g *HTTPGateway) ListBillers(ctx context.Context, req BillerInfoRequest) (*BillerInfoResponse, error) {
	var resp BillerInfoResponse
	if err := g.call(ctx, "BILLER_INFO", "/billers/info", req, req.Category, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *HTTPGateway) FetchBill(ctx context.Context, req BillFetchRequest) (*BillFetchResponse, error) {
	var resp BillFetchResponse
	if err := g.call(ctx, "BILLER_FETCH", "/bills/fetch", req, req.BillerID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *HTTPGateway) ValidateBill(ctx context.Context, req BillValidationRequest) (*BillValidationResponse, error) {
	var resp BillValidationResponse
	if err := g.call(ctx, "BILL_VALIDATION", "/bills/validate", req, req.BillerID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProcessPayment invokes the payment exactly once. Callers must never
// wrap this in a retry loop; an ambiguous outcome is resolved through
// GetTransactionStatus, not re-invocation.
func (g *HTTPGateway) ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResponse, error) {
	txnID := parseUUIDOrNil(req.ReferenceID)
	var resp PaymentResponse
	raw, err := g.callRaw(ctx, "BILL_PAYMENT", "/bills/pay", req, req.BillerID, txnID, &resp)
	if err != nil {
		return nil, err
	}
	resp.Raw = raw
	return &resp, nil
}

func (g *HTTPGateway) GetTransactionStatus(ctx context.Context, externalRefID string) (*StatusResponse, error) {
	req := map[string]string{"txnRefId": externalRefID}
	var resp StatusResponse
	if err := g.call(ctx, "TRANSACTION_STATUS", "/transactions/status", req, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *HTTPGateway) RegisterComplaint(ctx context.Context, req ComplaintRequest) (*ComplaintResponse, error) {
	var resp ComplaintResponse
	if err := g.call(ctx, "COMPLAINT_REGISTER", "/complaints/register", req, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *HTTPGateway) TrackComplaint(ctx context.Context, complaintID string) (*ComplaintResponse, error) {
	req := map[string]string{"complaintId": complaintID}
	var resp ComplaintResponse
	if err := g.call(ctx, "COMPLAINT_TRACKING", "/complaints/track", req, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *HTTPGateway) PullPlans(ctx context.Context, req PlanPullRequest) (*PlanPullResponse, error) {
	var resp PlanPullResponse
	if err := g.call(ctx, "PLAN_PULL", "/plans/pull", req, req.BillerID, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *HTTPGateway) call(ctx context.Context, operation, path string, reqBody any, billerID string, txnID *uuid.UUID, out any) error {
	_, err := g.callRaw(ctx, operation, path, reqBody, billerID, txnID, out)
	return err
}

// callRaw posts one JSON request to the provider and decodes the data
// envelope into out. The full exchange is snapshotted to the recorder
// regardless of outcome.
func (g *HTTPGateway) callRaw(ctx context.Context, operation, path string, reqBody any, billerID string, txnID *uuid.UUID, out any) (json.RawMessage, error) {
	start := time.Now()

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, shared.NewInternal("failed to encode provider request", err)
	}

	raw, callErr := g.post(ctx, path, body)

	snapshot := CallSnapshot{
		TransactionID: txnID,
		Operation:     operation,
		BillerID:      billerID,
		Request:       toMap(body),
		Response:      toMap(raw),
		Success:       callErr == nil,
		Duration:      time.Since(start),
	}
	if callErr != nil {
		snapshot.ErrorMessage = callErr.Error()
	}
	if g.recorder != nil {
		g.recorder.RecordCall(ctx, snapshot)
	}

	if callErr != nil {
		g.logger.Error("Provider call failed",
			"operation", operation,
			"biller_id", billerID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", callErr,
		)
		return nil, callErr
	}

	g.logger.Debug("Provider call completed",
		"operation", operation,
		"biller_id", billerID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, shared.NewInternal("failed to decode provider response", err)
		}
	}
	return raw, nil
}

// post sends the request and unwraps the provider envelope. Transport
// errors, including the client timeout, surface as provider failures.
func (g *HTTPGateway) post(ctx context.Context, path string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, shared.NewInternal("failed to build provider request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("X-Agent-Id", g.agentID)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &shared.Error{Code: shared.CodeProviderDeclined, Message: "provider unreachable", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &shared.Error{Code: shared.CodeProviderDeclined, Message: "failed to read provider response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, shared.NewProviderDeclined("provider returned HTTP %d", resp.StatusCode)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &shared.Error{Code: shared.CodeProviderDeclined, Message: "malformed provider response", Err: err}
	}
	if !envelope.Success {
		msg := envelope.Message
		if msg == "" {
			msg = "provider declined the request"
		}
		return nil, shared.NewProviderDeclined("%s", msg)
	}
	if len(envelope.Data) == 0 {
		return json.RawMessage("{}"), nil
	}
	return envelope.Data, nil
}

func toMap(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	return m
}

func parseUUIDOrNil(s string) *uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
