// Package orchestrator drives bill-payment operations end to end: a
// command per provider operation behind one Process entry point, with
// idempotency, rate limiting and compensation around the payment path.
package orchestrator

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Operation names one supported provider operation.
type Operation string

const (
	OpBillerInfo        Operation = "BILLER_INFO"
	OpBillerFetch       Operation = "BILLER_FETCH"
	OpBillValidation    Operation = "BILL_VALIDATION"
	OpBillPayment       Operation = "BILL_PAYMENT"
	OpTransactionStatus Operation = "TRANSACTION_STATUS"
	OpComplaintRegister Operation = "COMPLAINT_REGISTER"
	OpComplaintTracking Operation = "COMPLAINT_TRACKING"
	OpPlanPull          Operation = "PLAN_PULL"
)

// Request is one operation invocation from the HTTP layer. Payload is the
// operation-specific body; amounts inside it are decimal major-unit
// strings and convert to minor units at the command boundary.
type Request struct {
	Operation      Operation       `json:"operation"`
	UserID         uuid.UUID       `json:"user_id"`
	Channel        string          `json:"channel,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
	Payload        json.RawMessage `json:"payload"`
}

// Result is the structured outcome of one operation.
type Result struct {
	Operation Operation `json:"operation"`
	Duplicate bool      `json:"duplicate,omitempty"`
	Message   string    `json:"message,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// decodePayload unmarshals the request payload into the command's own
// shape, surfacing malformed bodies as validation failures.
func decodePayload(req *Request, out any) error {
	if len(req.Payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	if err := json.Unmarshal(req.Payload, out); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return nil
}
