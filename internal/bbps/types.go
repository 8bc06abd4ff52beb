package bbps

import "encoding/json"

// Request and response shapes for the BBPS provider API. All amounts are
// integer minor units (paise), matching the provider wire format.

// Biller is one entry of the provider's biller catalogue.
type Biller struct {
	BillerID       string   `json:"billerId"`
	Name           string   `json:"billerName"`
	Category       string   `json:"billerCategory"`
	CoverageArea   string   `json:"billerCoverage,omitempty"`
	FetchRequired  bool     `json:"fetchRequirement"`
	SupportsPlans  bool     `json:"planRequirement,omitempty"`
	PaymentModes   []string `json:"paymentModes,omitempty"`
	InputParams    []string `json:"inputParams,omitempty"`
	AdhocSupported bool     `json:"adhocPayment,omitempty"`
}

// BillerInfoRequest pages through the biller catalogue.
type BillerInfoRequest struct {
	Category string `json:"billerCategory,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"pageSize,omitempty"`
}

// BillerInfoResponse is one catalogue page.
type BillerInfoResponse struct {
	Billers    []Biller `json:"billers"`
	TotalCount int      `json:"totalCount"`
}

// BillFetchRequest asks the biller for the outstanding bill.
type BillFetchRequest struct {
	BillerID       string            `json:"billerId"`
	ConsumerNumber string            `json:"consumerNumber"`
	Params         map[string]string `json:"additionalParams,omitempty"`
}

// BillFetchResponse carries the outstanding bill details.
type BillFetchResponse struct {
	BillerID       string `json:"billerId"`
	ConsumerNumber string `json:"consumerNumber"`
	CustomerName   string `json:"customerName,omitempty"`
	BillAmount     int64  `json:"billAmount"`
	BillDate       string `json:"billDate,omitempty"`
	DueDate        string `json:"dueDate,omitempty"`
	BillNumber     string `json:"billNumber,omitempty"`
}

// BillValidationRequest checks the bill before money moves. Params
// carry the biller's extra input fields (billing unit, cycle, etc).
type BillValidationRequest struct {
	BillerID       string            `json:"billerId"`
	ConsumerNumber string            `json:"consumerNumber"`
	Amount         int64             `json:"amount"`
	Params         map[string]string `json:"additionalParams,omitempty"`
}

// BillValidationResponse reports whether the bill may be paid and for
// how much.
type BillValidationResponse struct {
	Valid        bool   `json:"valid"`
	Amount       int64  `json:"amount"`
	CustomerName string `json:"customerName,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// PaymentRequest invokes the actual bill payment. ReferenceID is the
// caller's transaction id and makes the provider call traceable; the
// provider treats it as the dedupe token.
type PaymentRequest struct {
	ReferenceID    string            `json:"referenceId"`
	BillerID       string            `json:"billerId"`
	ConsumerNumber string            `json:"consumerNumber"`
	Amount         int64             `json:"amount"`
	Channel        string            `json:"paymentChannel,omitempty"`
	Contact        string            `json:"contactNumber,omitempty"`
	Params         map[string]string `json:"additionalParams,omitempty"`
}

// PaymentResponse is the provider's settlement answer.
type PaymentResponse struct {
	Success       bool            `json:"success"`
	ExternalRefID string          `json:"txnRefId"`
	Charge        int64           `json:"customerConvenienceFee"`
	ResponseCode  string          `json:"responseCode,omitempty"`
	Message       string          `json:"responseReason,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// StatusResponse reports the provider-side state of a payment.
type StatusResponse struct {
	ExternalRefID string `json:"txnRefId"`
	Status        string `json:"txnStatus"`
	ResponseCode  string `json:"responseCode,omitempty"`
	Message       string `json:"responseReason,omitempty"`
}

// ComplaintRequest registers a dispute against a settled payment.
type ComplaintRequest struct {
	ExternalRefID string `json:"txnRefId"`
	Type          string `json:"complaintType"`
	Description   string `json:"complaintDesc"`
}

// ComplaintResponse acknowledges a registered complaint.
type ComplaintResponse struct {
	ComplaintID string `json:"complaintId"`
	Status      string `json:"complaintStatus"`
	Remarks     string `json:"complaintRemarks,omitempty"`
}

// PlanPullRequest lists prepaid plans for a biller.
type PlanPullRequest struct {
	BillerID string `json:"billerId"`
	Circle   string `json:"circle,omitempty"`
}

// Plan is one prepaid plan offered by a biller.
type Plan struct {
	PlanID      string `json:"planId"`
	Amount      int64  `json:"amount"`
	Validity    string `json:"validity,omitempty"`
	Description string `json:"planDesc,omitempty"`
}

// PlanPullResponse lists the available plans.
type PlanPullResponse struct {
	Plans []Plan `json:"plans"`
}

// apiEnvelope is the provider's outer response wrapper.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}
