// Package commission defines commission rules, the resolved distribution
// chain, and the per-leg earning audit record.
package commission

import (
	"time"

	"github.com/google/uuid"
)

// SystemPayer is the synthetic payer for the top-of-chain credit: the
// provider-side commission enters the platform here.
const SystemPayer = "SYSTEM"

// Scope says whether a setting targets one user or a whole role.
type Scope string

const (
	ScopeUser Scope = "USER"
	ScopeRole Scope = "ROLE"
)

// Type selects the commission arithmetic.
type Type string

const (
	// TypeFlat pays a fixed amount; Value is in minor units.
	TypeFlat Type = "FLAT"
	// TypePercentage pays a share of the remaining base; Value is in
	// basis points (10% = 1000) so the computation stays integral.
	TypePercentage Type = "PERCENTAGE"
)

// Setting is one commission rule. Settings are administered outside the
// core and read-only here; for a given target the most recent active one
// wins, ties broken by latest EffectiveFrom.
type Setting struct {
	ID            uuid.UUID  `json:"id"`
	Scope         Scope      `json:"scope"`
	TargetUserID  *uuid.UUID `json:"target_user_id,omitempty"`
	RoleID        *uuid.UUID `json:"role_id,omitempty"`
	ServiceID     uuid.UUID  `json:"service_id"`
	Channel       *string    `json:"channel,omitempty"` // nil = any channel
	Type          Type       `json:"commission_type"`
	Value         int64      `json:"commission_value"` // minor units or basis points
	IsActive      bool       `json:"is_active"`
	EffectiveFrom time.Time  `json:"effective_from"`
}

// ChainMember is one resolved position in the commission chain, ordered
// from the paying user (level 1) up to the root ancestor.
type ChainMember struct {
	UserID uuid.UUID `json:"user_id"`
	RoleID uuid.UUID `json:"role_id"`
	Type   Type      `json:"commission_type"`
	Value  int64     `json:"commission_value"`
	Level  int       `json:"level"`
}

// Calculation is the commission computed for one chain member.
type Calculation struct {
	UserID uuid.UUID
	Amount int64
	Level  int
	Type   Type
	Value  int64
}

// Payout is one leg of the distribution cascade. A nil FromUserID means
// the SYSTEM payer (credit only, no debit).
type Payout struct {
	FromUserID *uuid.UUID
	ToUserID   uuid.UUID
	Amount     int64
	Level      int
	Type       Type
	Value      int64
	Narration  string
}

// PayerLabel renders the payer for narrations and audit metadata.
func (p Payout) PayerLabel() string {
	if p.FromUserID == nil {
		return SystemPayer
	}
	return p.FromUserID.String()
}

// Earning is the append-only audit record of one payout leg.
type Earning struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"` // payee
	FromUserID    *uuid.UUID     `json:"from_user_id,omitempty"`
	ServiceID     uuid.UUID      `json:"service_id"`
	TransactionID uuid.UUID      `json:"transaction_id"`
	Amount        int64          `json:"amount"`
	Type          Type           `json:"commission_type"`
	Value         int64          `json:"commission_value"`
	Level         int            `json:"level"`
	CreatedBy     string         `json:"created_by"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
