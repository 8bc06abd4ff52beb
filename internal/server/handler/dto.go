package handler

// Monetary amounts cross the API boundary as decimal major-unit strings
// ("125.50") and are converted to integer paise at the edge.

// BillPaymentRequest initiates a bill payment.
type BillPaymentRequest struct {
	ServiceID      string            `json:"service_id" binding:"required,uuid"`
	BillerID       string            `json:"biller_id" binding:"required"`
	ConsumerNumber string            `json:"consumer_number" binding:"required"`
	Amount         string            `json:"amount" binding:"required"`
	Params         map[string]string `json:"params,omitempty"`
}

// BillFetchRequest asks the biller for the outstanding bill.
type BillFetchRequest struct {
	BillerID       string            `json:"biller_id" binding:"required"`
	ConsumerNumber string            `json:"consumer_number" binding:"required"`
	Params         map[string]string `json:"params,omitempty"`
}

// BillValidationRequest checks a bill before paying it.
type BillValidationRequest struct {
	BillerID       string            `json:"biller_id" binding:"required"`
	ConsumerNumber string            `json:"consumer_number" binding:"required"`
	Amount         string            `json:"amount" binding:"required"`
	Params         map[string]string `json:"params,omitempty"`
}

// ComplaintRegisterRequest opens a complaint against a settled payment,
// referenced by the provider's transaction ref.
type ComplaintRegisterRequest struct {
	ExternalRefID string `json:"external_ref_id" binding:"required"`
	Type          string `json:"type" binding:"required"`
	Description   string `json:"description" binding:"required"`
}

// PlanPullRequest lists recharge plans for a biller.
type PlanPullRequest struct {
	BillerID string `json:"biller_id" binding:"required"`
	Circle   string `json:"circle,omitempty"`
}

// PaginationParams bounds list endpoints.
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

// WalletResponse is a wallet read with its most recent ledger entries.
type WalletResponse struct {
	ID        string                `json:"id"`
	UserID    string                `json:"user_id"`
	Balance   string                `json:"balance"`
	Currency  string                `json:"currency"`
	IsPrimary bool                  `json:"is_primary"`
	Entries   []LedgerEntryResponse `json:"entries,omitempty"`
}

// LedgerEntryResponse is one balance movement.
type LedgerEntryResponse struct {
	ID             string `json:"id"`
	TransactionID  string `json:"transaction_id"`
	EntryType      string `json:"entry_type"`
	Amount         string `json:"amount"`
	RunningBalance string `json:"running_balance"`
	Narration      string `json:"narration"`
	CreatedBy      string `json:"created_by"`
	CreatedAt      string `json:"created_at"`
}

// TransactionResponse is a bill-payment transaction read.
type TransactionResponse struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	WalletID         string `json:"wallet_id"`
	ServiceID        string `json:"service_id"`
	Amount           string `json:"amount"`
	ProviderCharge   string `json:"provider_charge"`
	CommissionAmount string `json:"commission_amount"`
	NetAmount        string `json:"net_amount"`
	Status           string `json:"status"`
	Channel          string `json:"channel,omitempty"`
	ExternalRefID    string `json:"external_ref_id,omitempty"`
	ErrorCode        string `json:"error_code,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
	CreatedAt        string `json:"created_at"`
	CompletedAt      string `json:"completed_at,omitempty"`
}
