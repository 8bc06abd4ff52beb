package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rupeeflow/bbps-backend/internal/bbps"
	"github.com/rupeeflow/bbps-backend/internal/commission"
	"github.com/rupeeflow/bbps-backend/internal/config"
	"github.com/rupeeflow/bbps-backend/internal/domain/shared"
	"github.com/rupeeflow/bbps-backend/internal/domain/transaction"
	"github.com/rupeeflow/bbps-backend/internal/domain/user"
	"github.com/rupeeflow/bbps-backend/internal/ledger"
	"github.com/rupeeflow/bbps-backend/internal/logger"
	"github.com/rupeeflow/bbps-backend/internal/platform/messaging"
)

// Command executes one operation against its collaborators.
type Command interface {
	Execute(ctx context.Context, req *Request) (*Result, error)
}

// Dependencies carries everything the command table needs.
type Dependencies struct {
	Gateway      bbps.Gateway
	Ledger       *ledger.Store
	Engine       *commission.Engine
	Transactions transaction.Repository
	Users        user.Repository
	RateLimiter  RateLimiter
	Audit        messaging.AuditPublisher // optional
	BBPS         *config.BBPSConfig
}

// Orchestrator dispatches operation requests to their commands. Payment
// execution runs through a bounded worker pool so a burst of payments
// cannot exhaust database connections.
type Orchestrator struct {
	logger   *slog.Logger
	commands map[Operation]Command
	pool     *WorkerPool // optional
}

// New builds the orchestrator with its full command table.
func New(log *slog.Logger, deps Dependencies, pool *WorkerPool) *Orchestrator {
	read := readCommandConfig{
		attempts: deps.BBPS.RetryAttempts,
		backoff:  deps.BBPS.RetryBackoff,
	}

	commands := map[Operation]Command{
		OpBillerInfo:        &billerInfoCommand{logger: log, gateway: deps.Gateway, read: read},
		OpBillerFetch:       &billerFetchCommand{logger: log, gateway: deps.Gateway, read: read},
		OpBillValidation:    &billValidationCommand{logger: log, gateway: deps.Gateway, read: read},
		OpTransactionStatus: &transactionStatusCommand{logger: log, gateway: deps.Gateway, transactions: deps.Transactions, read: read},
		OpComplaintRegister: &complaintRegisterCommand{logger: log, gateway: deps.Gateway},
		OpComplaintTracking: &complaintTrackingCommand{logger: log, gateway: deps.Gateway, read: read},
		OpPlanPull:          &planPullCommand{logger: log, gateway: deps.Gateway, read: read},
		OpBillPayment: &billPaymentCommand{
			logger:       log,
			gateway:      deps.Gateway,
			ledger:       deps.Ledger,
			engine:       deps.Engine,
			transactions: deps.Transactions,
			users:        deps.Users,
			rateLimiter:  deps.RateLimiter,
			audit:        deps.Audit,
		},
	}

	return &Orchestrator{
		logger:   log,
		commands: commands,
		pool:     pool,
	}
}

// Process validates, dispatches and logs one operation request.
func (o *Orchestrator) Process(ctx context.Context, req *Request) (*Result, error) {
	cmd, ok := o.commands[req.Operation]
	if !ok {
		return nil, shared.NewValidation("unsupported operation: %s", req.Operation)
	}

	log := o.logger
	if req.CorrelationID != "" {
		log = log.With("correlation_id", req.CorrelationID)
	}
	log.Info("Processing operation",
		"operation", string(req.Operation),
		"user_id", req.UserID.String(),
		"payload", redactedPayload(req.Payload),
	)

	var result *Result
	var err error
	if req.Operation == OpBillPayment && o.pool != nil {
		var cmdErr error
		if submitErr := o.pool.SubmitWait(ctx, func() {
			result, cmdErr = cmd.Execute(ctx, req)
		}); submitErr != nil {
			err = shared.NewInternal("payment execution was not scheduled", submitErr)
		} else {
			err = cmdErr
		}
	} else {
		result, err = cmd.Execute(ctx, req)
	}

	if err != nil {
		log.Error("Operation failed",
			"operation", string(req.Operation),
			"error_code", string(shared.CodeOf(err)),
			"error", err,
		)
		return nil, err
	}

	log.Info("Operation completed",
		"operation", string(req.Operation),
		"duplicate", result.Duplicate,
	)
	return result, nil
}

// readCommandConfig tunes the retry helper for read-style commands.
type readCommandConfig struct {
	attempts int
	backoff  time.Duration
}

// redactedPayload renders a payload for logs with sensitive fields masked.
func redactedPayload(payload json.RawMessage) map[string]any {
	if len(payload) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return map[string]any{"malformed": true}
	}
	return logger.Redact(m)
}
