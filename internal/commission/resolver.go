// Package commission implements the rule resolver and the hierarchical
// distribution engine over the wallet ledger.
package commission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/rupeeflow/bbps-backend/internal/domain/commission"
	"github.com/rupeeflow/bbps-backend/internal/domain/user"
)

// maxChainDepth bounds the ancestor walk. The hierarchy is supposed to be
// a tree, but malformed data must not loop forever; exceeding the cap
// truncates the chain instead of failing the payment.
const maxChainDepth = 50

// Resolver walks a paying user's ancestor chain and attaches the
// commission rule that applies to each member.
type Resolver struct {
	logger   *slog.Logger
	users    user.Repository
	settings commission.SettingRepository
}

// NewResolver creates a commission chain resolver
func NewResolver(logger *slog.Logger, users user.Repository, settings commission.SettingRepository) *Resolver {
	return &Resolver{
		logger:   logger,
		users:    users,
		settings: settings,
	}
}

// ResolveChain returns the commission chain for a paying user and service,
// ordered from the paying user (level 1) up to the root ancestor. Members
// without an applicable setting get a zero-value FLAT placeholder so
// downstream levels keep their positions.
func (r *Resolver) ResolveChain(ctx context.Context, payingUserID, serviceID uuid.UUID, channel *string) ([]commission.ChainMember, error) {
	var chain []commission.ChainMember
	seen := make(map[uuid.UUID]bool)

	currentID := payingUserID
	for level := 1; ; level++ {
		if level > maxChainDepth {
			r.logger.Warn("Commission chain exceeds depth cap, truncating",
				"paying_user_id", payingUserID.String(),
				"depth", maxChainDepth,
			)
			break
		}
		if seen[currentID] {
			r.logger.Warn("Cycle detected in user hierarchy, truncating chain",
				"paying_user_id", payingUserID.String(),
				"user_id", currentID.String(),
			)
			break
		}
		seen[currentID] = true

		u, err := r.users.GetByID(ctx, currentID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve chain member at level %d: %w", level, err)
		}

		cType, cValue, err := r.resolveRule(ctx, u, serviceID, channel)
		if err != nil {
			return nil, err
		}

		chain = append(chain, commission.ChainMember{
			UserID: u.ID,
			RoleID: u.RoleID,
			Type:   cType,
			Value:  cValue,
			Level:  level,
		})

		if u.ParentID == nil {
			break
		}
		currentID = *u.ParentID
	}

	return chain, nil
}

// resolveRule picks the commission rule for one member: an active
// USER-scoped setting wins, else the role default, else zero FLAT.
func (r *Resolver) resolveRule(ctx context.Context, u *user.User, serviceID uuid.UUID, channel *string) (commission.Type, int64, error) {
	setting, err := r.settings.FindActiveUserSetting(ctx, u.ID, serviceID, channel)
	if err != nil {
		return "", 0, fmt.Errorf("failed to look up user commission setting: %w", err)
	}
	if setting == nil {
		setting, err = r.settings.FindActiveRoleSetting(ctx, u.RoleID, serviceID, channel)
		if err != nil {
			return "", 0, fmt.Errorf("failed to look up role commission setting: %w", err)
		}
	}
	if setting == nil {
		return commission.TypeFlat, 0, nil
	}
	return setting.Type, setting.Value, nil
}
