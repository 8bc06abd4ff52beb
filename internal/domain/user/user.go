// Package user is the read-only view of the user directory the core
// consumes: status, role, parent and contact fields keyed by user id.
// User management itself lives outside the money-movement core.
package user

import (
	"context"

	"github.com/google/uuid"
)

// Status of a user account.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

// User carries the directory fields the core reads. ParentID links the
// organizational hierarchy; the chain of parents up to the root is the
// commission chain.
type User struct {
	ID          uuid.UUID  `json:"id"`
	RoleID      uuid.UUID  `json:"role_id"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Status      Status     `json:"status"`
	PhoneNumber string     `json:"phone_number"`
	Email       string     `json:"email"`
}

// Repository is the read-only directory lookup.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// ErrUserNotFound indicates a missing user
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e ErrUserNotFound) Error() string {
	return "user not found: " + e.UserID.String()
}

func (e ErrUserNotFound) Is(target error) bool {
	t, ok := target.(ErrUserNotFound)
	if !ok {
		return false
	}
	return t.UserID == uuid.Nil || e.UserID == t.UserID
}
