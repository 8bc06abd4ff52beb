package commission

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rupeeflow/bbps-backend/internal/domain/commission"
	"github.com/rupeeflow/bbps-backend/internal/domain/wallet"
	"github.com/rupeeflow/bbps-backend/internal/ledger"
)

// WalletMover moves funds inside a caller-owned transaction. The ledger
// store satisfies this.
type WalletMover interface {
	GetPrimaryWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error)
	CreditInTx(ctx context.Context, tx pgx.Tx, m ledger.Movement) (*wallet.LedgerEntry, error)
	DebitInTx(ctx context.Context, tx pgx.Tx, m ledger.Movement) (*wallet.LedgerEntry, error)
}

// SystemPayerLabel re-exports the synthetic payer name for callers that
// write ledger entries on the platform's behalf.
const SystemPayerLabel = commission.SystemPayer

// Result summarizes one completed distribution.
type Result struct {
	TotalDistributed int64 // sum of commissions credited across all levels
	SystemOutflow    int64 // top-level credit only; what SYSTEM actually paid
	Legs             int
}

// Engine computes the hierarchical commission split for a transaction and
// executes the resulting payout cascade against the wallet ledger.
type Engine struct {
	logger   *slog.Logger
	resolver *Resolver
	runner   ledger.TxRunner
	wallets  WalletMover
	earnings commission.EarningRepository
}

// NewEngine creates a commission distribution engine
func NewEngine(logger *slog.Logger, resolver *Resolver, runner ledger.TxRunner, wallets WalletMover, earnings commission.EarningRepository) *Engine {
	return &Engine{
		logger:   logger,
		resolver: resolver,
		runner:   runner,
		wallets:  wallets,
		earnings: earnings,
	}
}

// ComputeAmount returns the commission due on remaining for one rule.
// FLAT values are minor units; PERCENTAGE values are basis points, and
// the result floors so repeated distributions never leak sub-unit drift.
func ComputeAmount(remaining int64, cType commission.Type, value int64) int64 {
	switch cType {
	case commission.TypeFlat:
		return value
	case commission.TypePercentage:
		return remaining * value / 10000
	default:
		return 0
	}
}

// CalculateHierarchical walks the chain root-first against a decreasing
// base: each level's commission comes off the amount remaining after the
// levels above took theirs. A level never takes more than what remains,
// so an oversized FLAT rule is capped and the base cannot go negative.
// The returned slice is root-first.
func CalculateHierarchical(chain []commission.ChainMember, baseAmount int64) []commission.Calculation {
	calcs := make([]commission.Calculation, 0, len(chain))
	remaining := baseAmount
	for i := len(chain) - 1; i >= 0; i-- {
		member := chain[i]
		amount := ComputeAmount(remaining, member.Type, member.Value)
		if amount > remaining {
			amount = remaining
		}
		calcs = append(calcs, commission.Calculation{
			UserID: member.UserID,
			Amount: amount,
			Level:  member.Level,
			Type:   member.Type,
			Value:  member.Value,
		})
		remaining -= amount
	}
	return calcs
}

// BuildPayouts converts a root-first calculation list into the payout
// cascade: SYSTEM credits the highest earning level its commission, then
// each level passes the next level down its own commission. Zero-amount
// legs are skipped entirely, so when every ancestor above a leg earned
// nothing that leg is SYSTEM-paid.
func BuildPayouts(calcs []commission.Calculation, transactionID uuid.UUID) []commission.Payout {
	var payouts []commission.Payout
	for _, calc := range calcs {
		if calc.Amount == 0 {
			continue
		}
		p := commission.Payout{
			ToUserID: calc.UserID,
			Amount:   calc.Amount,
			Level:    calc.Level,
			Type:     calc.Type,
			Value:    calc.Value,
		}
		if len(payouts) == 0 {
			p.Narration = fmt.Sprintf("Top-level commission from BBPS Provider for transaction %s", transactionID)
		} else {
			// Payer is the nearest ancestor with a non-zero commission.
			payer := payouts[len(payouts)-1].ToUserID
			p.FromUserID = &payer
			p.Narration = fmt.Sprintf("Commission share from %s for transaction %s", payer, transactionID)
		}
		payouts = append(payouts, p)
	}
	return payouts
}

// Distribute resolves the chain for the paying user, computes the split
// on the gross amount, and executes every payout leg plus its audit row
// inside one database transaction. An empty chain is a no-op.
func (e *Engine) Distribute(ctx context.Context, payingUserID, serviceID, transactionID uuid.UUID, channel *string, baseAmount int64) (*Result, error) {
	chain, err := e.resolver.ResolveChain(ctx, payingUserID, serviceID, channel)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve commission chain: %w", err)
	}
	if len(chain) == 0 {
		return &Result{}, nil
	}

	calcs := CalculateHierarchical(chain, baseAmount)
	payouts := BuildPayouts(calcs, transactionID)
	if len(payouts) == 0 {
		return &Result{}, nil
	}

	result := &Result{SystemOutflow: payouts[0].Amount}

	err = e.runner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		earningRepo := e.earnings.WithTx(tx)

		for _, p := range payouts {
			if p.FromUserID != nil {
				payerWallet, err := e.wallets.GetPrimaryWallet(ctx, *p.FromUserID)
				if err != nil {
					return fmt.Errorf("failed to load payer wallet for leg level %d: %w", p.Level, err)
				}
				_, err = e.wallets.DebitInTx(ctx, tx, ledger.Movement{
					WalletID:      payerWallet.ID,
					TransactionID: transactionID,
					Amount:        p.Amount,
					Narration:     fmt.Sprintf("Commission paid to %s for transaction %s", p.ToUserID, transactionID),
					CreatedBy:     commission.SystemPayer,
				})
				if err != nil {
					return fmt.Errorf("failed to debit payer at leg level %d: %w", p.Level, err)
				}
			}

			payeeWallet, err := e.wallets.GetPrimaryWallet(ctx, p.ToUserID)
			if err != nil {
				return fmt.Errorf("failed to load payee wallet for leg level %d: %w", p.Level, err)
			}
			_, err = e.wallets.CreditInTx(ctx, tx, ledger.Movement{
				WalletID:      payeeWallet.ID,
				TransactionID: transactionID,
				Amount:        p.Amount,
				Narration:     p.Narration,
				CreatedBy:     commission.SystemPayer,
			})
			if err != nil {
				return fmt.Errorf("failed to credit payee at leg level %d: %w", p.Level, err)
			}

			earning := &commission.Earning{
				ID:            uuid.New(),
				UserID:        p.ToUserID,
				FromUserID:    p.FromUserID,
				ServiceID:     serviceID,
				TransactionID: transactionID,
				Amount:        p.Amount,
				Type:          p.Type,
				Value:         p.Value,
				Level:         p.Level,
				CreatedBy:     commission.SystemPayer,
				Metadata: map[string]any{
					"payer":       p.PayerLabel(),
					"base_amount": baseAmount,
				},
				CreatedAt: time.Now().UTC(),
			}
			if err := earningRepo.Create(ctx, earning); err != nil {
				return fmt.Errorf("failed to record commission earning at level %d: %w", p.Level, err)
			}

			result.TotalDistributed += p.Amount
			result.Legs++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Commission distributed",
		"transaction_id", transactionID.String(),
		"legs", result.Legs,
		"total_distributed", result.TotalDistributed,
		"system_outflow", result.SystemOutflow,
	)
	return result, nil
}
