package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/bbps"
	"github.com/rupeeflow/bbps-backend/internal/orchestrator"
	"github.com/rupeeflow/bbps-backend/internal/server/middleware"
)

// UserIDHeader identifies the acting user. Authentication lives in front
// of this service; the header is trusted input here.
const UserIDHeader = "X-User-Id"

// IdempotencyKeyHeader dedupes payment submissions.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// ChannelHeader names the originating channel (MOBILE, WEB, ...).
const ChannelHeader = "X-Channel"

// Processor dispatches one operation request.
type Processor interface {
	Process(ctx context.Context, req *orchestrator.Request) (*orchestrator.Result, error)
}

// BBPSHandler exposes the bill-payment operations over HTTP.
type BBPSHandler struct {
	logger    *slog.Logger
	processor Processor
}

// NewBBPSHandler creates the operations handler
func NewBBPSHandler(logger *slog.Logger, processor Processor) *BBPSHandler {
	return &BBPSHandler{logger: logger, processor: processor}
}

// ListBillers pages through the provider's biller catalogue.
// GET /api/v1/bbps/billers?category=ELECTRICITY&page=1&page_size=20
func (h *BBPSHandler) ListBillers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	h.dispatch(c, orchestrator.OpBillerInfo, bbps.BillerInfoRequest{
		Category: c.Query("category"),
		Page:     page,
		PageSize: pageSize,
	})
}

// FetchBill retrieves the outstanding bill for a consumer.
func (h *BBPSHandler) FetchBill(c *gin.Context) {
	var req BillFetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	h.dispatch(c, orchestrator.OpBillerFetch, bbps.BillFetchRequest{
		BillerID:       req.BillerID,
		ConsumerNumber: req.ConsumerNumber,
		Params:         req.Params,
	})
}

// ValidateBill checks a bill without moving money.
func (h *BBPSHandler) ValidateBill(c *gin.Context) {
	var req BillValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	h.dispatch(c, orchestrator.OpBillValidation, req)
}

// PayBill runs the full payment state machine.
func (h *BBPSHandler) PayBill(c *gin.Context) {
	var req BillPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		RespondBadRequest(c, "Invalid service ID")
		return
	}

	h.dispatch(c, orchestrator.OpBillPayment, orchestrator.BillPaymentPayload{
		ServiceID:      serviceID,
		BillerID:       req.BillerID,
		ConsumerNumber: req.ConsumerNumber,
		Amount:         req.Amount,
		Params:         req.Params,
	})
}

// TransactionStatus reconciles a transaction against the provider.
// GET /api/v1/bbps/transactions/:id/status
func (h *BBPSHandler) TransactionStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	h.dispatch(c, orchestrator.OpTransactionStatus, map[string]string{
		"transaction_id": id.String(),
	})
}

// RegisterComplaint opens a provider complaint.
func (h *BBPSHandler) RegisterComplaint(c *gin.Context) {
	var req ComplaintRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	h.dispatch(c, orchestrator.OpComplaintRegister, bbps.ComplaintRequest{
		ExternalRefID: req.ExternalRefID,
		Type:          req.Type,
		Description:   req.Description,
	})
}

// TrackComplaint reads a complaint's current state.
// GET /api/v1/bbps/complaints/:id
func (h *BBPSHandler) TrackComplaint(c *gin.Context) {
	complaintID := c.Param("id")
	if complaintID == "" {
		RespondBadRequest(c, "Complaint ID is required")
		return
	}

	h.dispatch(c, orchestrator.OpComplaintTracking, map[string]string{
		"complaint_id": complaintID,
	})
}

// PullPlans lists prepaid plans for a biller.
func (h *BBPSHandler) PullPlans(c *gin.Context) {
	var req PlanPullRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	h.dispatch(c, orchestrator.OpPlanPull, bbps.PlanPullRequest{
		BillerID: req.BillerID,
		Circle:   req.Circle,
	})
}

// dispatch marshals the payload, attaches the caller's identity and trace
// headers, and maps the operation result onto the response envelope.
func (h *BBPSHandler) dispatch(c *gin.Context, op orchestrator.Operation, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to encode operation payload", "operation", string(op), "error", err)
		RespondError(c, err)
		return
	}

	var userID uuid.UUID
	if raw := c.GetHeader(UserIDHeader); raw != "" {
		userID, err = uuid.Parse(raw)
		if err != nil {
			RespondBadRequest(c, "Invalid "+UserIDHeader+" header")
			return
		}
	}

	result, err := h.processor.Process(c.Request.Context(), &orchestrator.Request{
		Operation:      op,
		UserID:         userID,
		Channel:        c.GetHeader(ChannelHeader),
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
		CorrelationID:  middleware.GetCorrelationID(c),
		Payload:        body,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	// Idempotent replays answer 200 with the recorded outcome; the
	// duplicate flag tells the caller no new money moved.
	c.JSON(http.StatusOK, &Response{
		Data:          result.Data,
		Message:       result.Message,
		Duplicate:     result.Duplicate,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}
