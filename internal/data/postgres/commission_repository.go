package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rupeeflow/bbps-backend/internal/domain/commission"
	"github.com/rupeeflow/bbps-backend/internal/platform/persistence"
)

// CommissionSettingRepository implements commission.SettingRepository for PostgreSQL.
// Settings are administered elsewhere; this repository only reads them.
type CommissionSettingRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCommissionSettingRepository creates a new PostgreSQL commission setting repository
func NewCommissionSettingRepository(logger *slog.Logger, db *persistence.PostgresDB) commission.SettingRepository {
	return &CommissionSettingRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

const settingColumns = `id, scope, target_user_id, role_id, service_id, channel, commission_type, commission_value, is_active, effective_from`

func (r *CommissionSettingRepository) scanSetting(row pgx.Row) (*commission.Setting, error) {
	var s commission.Setting
	err := row.Scan(
		&s.ID,
		&s.Scope,
		&s.TargetUserID,
		&s.RoleID,
		&s.ServiceID,
		&s.Channel,
		&s.Type,
		&s.Value,
		&s.IsActive,
		&s.EffectiveFrom,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindActiveUserSetting returns the winning USER-scoped setting for the
// user+service+channel, or nil, nil when none applies. A channel-specific
// setting beats a channel-agnostic one; ties break on latest effective_from.
func (r *CommissionSettingRepository) FindActiveUserSetting(ctx context.Context, userID, serviceID uuid.UUID, channel *string) (*commission.Setting, error) {
	query := `
		SELECT ` + settingColumns + `
		FROM commission_settings
		WHERE scope = 'USER' AND target_user_id = $1 AND service_id = $2
		  AND is_active = TRUE AND effective_from <= NOW()
		  AND (channel IS NULL OR channel = $3)
		ORDER BY (channel IS NOT NULL) DESC, effective_from DESC
		LIMIT 1
	`

	s, err := r.scanSetting(r.querier.QueryRow(ctx, query, userID, serviceID, channel))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to find user commission setting", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to find user commission setting: %w", err)
	}

	return s, nil
}

// FindActiveRoleSetting is the role-default fallback; nil, nil when none.
func (r *CommissionSettingRepository) FindActiveRoleSetting(ctx context.Context, roleID, serviceID uuid.UUID, channel *string) (*commission.Setting, error) {
	query := `
		SELECT ` + settingColumns + `
		FROM commission_settings
		WHERE scope = 'ROLE' AND role_id = $1 AND service_id = $2
		  AND is_active = TRUE AND effective_from <= NOW()
		  AND (channel IS NULL OR channel = $3)
		ORDER BY (channel IS NOT NULL) DESC, effective_from DESC
		LIMIT 1
	`

	s, err := r.scanSetting(r.querier.QueryRow(ctx, query, roleID, serviceID, channel))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to find role commission setting", "role_id", roleID.String(), "error", err)
		return nil, fmt.Errorf("failed to find role commission setting: %w", err)
	}

	return s, nil
}

// CommissionEarningRepository implements commission.EarningRepository for PostgreSQL
type CommissionEarningRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCommissionEarningRepository creates a new PostgreSQL commission earning repository
func NewCommissionEarningRepository(logger *slog.Logger, db *persistence.PostgresDB) commission.EarningRepository {
	return &CommissionEarningRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction
func (r *CommissionEarningRepository) WithTx(tx pgx.Tx) commission.EarningRepository {
	return &CommissionEarningRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores an append-only earning record for one payout leg
func (r *CommissionEarningRepository) Create(ctx context.Context, earning *commission.Earning) error {
	var metadata []byte
	if earning.Metadata != nil {
		var err error
		metadata, err = json.Marshal(earning.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal earning metadata: %w", err)
		}
	}

	query := `
		INSERT INTO commission_earnings (id, user_id, from_user_id, service_id, transaction_id, amount, commission_type, commission_value, level, created_by, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		earning.ID,
		earning.UserID,
		earning.FromUserID,
		earning.ServiceID,
		earning.TransactionID,
		earning.Amount,
		earning.Type,
		earning.Value,
		earning.Level,
		earning.CreatedBy,
		metadata,
		earning.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create commission earning", "transaction_id", earning.TransactionID.String(), "error", err)
		return fmt.Errorf("failed to create commission earning: %w", err)
	}

	return nil
}

// SumByTransactionID totals all earnings recorded for a transaction
func (r *CommissionEarningRepository) SumByTransactionID(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM commission_earnings
		WHERE transaction_id = $1
	`

	var total int64
	if err := r.querier.QueryRow(ctx, query, transactionID).Scan(&total); err != nil {
		r.logger.Error("Failed to sum commission earnings", "transaction_id", transactionID.String(), "error", err)
		return 0, fmt.Errorf("failed to sum commission earnings: %w", err)
	}

	return total, nil
}

// ListByTransactionID retrieves all earning legs for a transaction, top of chain first
func (r *CommissionEarningRepository) ListByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*commission.Earning, error) {
	query := `
		SELECT id, user_id, from_user_id, service_id, transaction_id, amount, commission_type, commission_value, level, created_by, metadata, created_at
		FROM commission_earnings
		WHERE transaction_id = $1
		ORDER BY level DESC
	`

	rows, err := r.querier.Query(ctx, query, transactionID)
	if err != nil {
		r.logger.Error("Failed to list commission earnings", "transaction_id", transactionID.String(), "error", err)
		return nil, fmt.Errorf("failed to list commission earnings: %w", err)
	}
	defer rows.Close()

	var earnings []*commission.Earning
	for rows.Next() {
		var e commission.Earning
		var metadata []byte
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.FromUserID,
			&e.ServiceID,
			&e.TransactionID,
			&e.Amount,
			&e.Type,
			&e.Value,
			&e.Level,
			&e.CreatedBy,
			&metadata,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commission earning: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal earning metadata: %w", err)
			}
		}
		earnings = append(earnings, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate commission earnings: %w", err)
	}

	return earnings, nil
}
