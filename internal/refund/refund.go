package refund

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"PostPromoter/internal/logger"
	"PostPromoter/internal/model"
)

// MemoPrefix starts every refund memo.
const MemoPrefix = "Refund for invalid bid - "

// Disposition is what happened to a rejected bid.
type Disposition int

const (
	Sent Disposition = iota
	Skipped
	Failed
)

func (d Disposition) String() string {
	switch d {
	case Sent:
		return "sent"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Policy decides which rejected bids are paid back.
type Policy struct {
	Account  string
	Enabled  bool
	NoRefund map[string]struct{}
}

// Transferer sends funds out of the bot account.
type Transferer interface {
	Transfer(ctx context.Context, from, to, amount, memo string) error
}

// Executor returns rejected bids to their senders.
type Executor struct {
	policy Policy
	ledger Transferer
}

// NewExecutor creates an Executor.
func NewExecutor(policy Policy, ledger Transferer) *Executor {
	return &Executor{policy: policy, ledger: ledger}
}

// Memo builds the refund memo for a rejection message.
func Memo(message string) string {
	return MemoPrefix + message
}

// Refund sends the exact amount back to the sender unless refunds are off
// or the sender is exempt. A failed transfer is not retried.
func (e *Executor) Refund(ctx context.Context, r model.RejectedBid) (Disposition, error) {
	amount := r.Amount.StringFixed(3) + " " + r.Currency
	fields := []zap.Field{
		zap.String("sender", r.Sender),
		zap.String("amount", amount),
		zap.String("reason", string(r.Reason)),
	}

	if !e.policy.Enabled {
		logger.Info("refunds disabled, keeping rejected bid", fields...)
		return Skipped, nil
	}
	if _, exempt := e.policy.NoRefund[r.Sender]; exempt {
		logger.Info("sender on no-refund list", fields...)
		return Skipped, nil
	}

	if err := e.ledger.Transfer(ctx, e.policy.Account, r.Sender, amount, Memo(r.Message)); err != nil {
		logger.Error("refund failed", append(fields, zap.Error(err))...)
		return Failed, fmt.Errorf("refund %s to %s: %w", amount, r.Sender, err)
	}
	logger.Info("refund sent", fields...)
	return Sent, nil
}
