package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"PostPromoter/internal/bidding"
	"PostPromoter/internal/cursor"
	"PostPromoter/internal/ledger"
	"PostPromoter/internal/logger"
	"PostPromoter/internal/metrics"
	"PostPromoter/internal/model"
	"PostPromoter/internal/notifier"
	"PostPromoter/internal/pool"
	"PostPromoter/internal/power"
	"PostPromoter/internal/recorder"
	"PostPromoter/internal/refund"
	"PostPromoter/internal/round"
)

// Config holds the engine parameters.
type Config struct {
	Account     string
	PageSize    int
	CallTimeout time.Duration
	StartTime   time.Time // history at or before this instant is never evaluated
}

// Deps are the collaborators of an Engine. Recorder and Notifier are optional.
type Deps struct {
	Ledger    ledger.Gateway
	Validator *bidding.Validator
	Refunds   *refund.Executor
	Runner    *round.Runner
	Recorder  recorder.Recorder
	Notifier  notifier.Notifier
}

// Engine owns all bot state. One Tick refreshes the account, ingests new
// history, and starts a voting round once the account is fully charged.
type Engine struct {
	cfg       Config
	ledger    ledger.Gateway
	validator *bidding.Validator
	refunds   *refund.Executor
	runner    *round.Runner
	recorder  recorder.Recorder
	notifier  notifier.Notifier
	cursor    *cursor.Cursor
	pool      *pool.Pool
	Now       func() time.Time

	// tickMu is held for a whole Tick so that overlapping callers never
	// see the same history records before they are committed.
	tickMu sync.Mutex

	mu          sync.Mutex
	snapshot    *model.AccountSnapshot
	roundActive bool
	rounds      sync.WaitGroup
}

// New creates an Engine.
func New(cfg Config, deps Deps) *Engine {
	if cfg.StartTime.IsZero() {
		cfg.StartTime = time.Now()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	e := &Engine{
		cfg:       cfg,
		ledger:    deps.Ledger,
		validator: deps.Validator,
		refunds:   deps.Refunds,
		runner:    deps.Runner,
		recorder:  deps.Recorder,
		notifier:  deps.Notifier,
		cursor:    cursor.New(cfg.StartTime),
		pool:      pool.New(),
		Now:       time.Now,
	}
	if e.recorder == nil {
		e.recorder = recorder.NewNoopRecorder()
	}
	if e.notifier == nil {
		e.notifier = notifier.NoopNotifier{}
	}
	e.runner.OnVote = e.recordVote
	return e
}

// Tick runs one poll cycle. A returned error means the tick was abandoned;
// the next tick retries from the same cursor position.
func (e *Engine) Tick(ctx context.Context) error {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	snap, err := e.refreshAccount(ctx)
	if err != nil {
		return err
	}
	if err := e.ingest(ctx); err != nil {
		return err
	}

	if power.Ready(snap, e.pool.Len()) {
		e.startRound(ctx)
	}
	return nil
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.CallTimeout > 0 {
		return context.WithTimeout(ctx, e.cfg.CallTimeout)
	}
	return context.WithCancel(ctx)
}

// refreshAccount updates the voting power estimate. If the account cannot be
// fetched the previous snapshot is reused; without one the tick is skipped.
func (e *Engine) refreshAccount(ctx context.Context) (model.AccountSnapshot, error) {
	callCtx, cancel := e.callContext(ctx)
	acc, err := e.ledger.GetAccount(callCtx, e.cfg.Account)
	cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		if e.snapshot == nil {
			logger.Error("account refresh failed, skipping tick", zap.String("account", e.cfg.Account), zap.Error(err))
			return model.AccountSnapshot{}, fmt.Errorf("refresh account: %w", err)
		}
		logger.Warn("account refresh failed, using previous snapshot", zap.Error(err),
			zap.Time("snapshot", e.snapshot.TakenAt))
		return *e.snapshot, nil
	}

	snap := power.Snapshot(acc, e.Now())
	e.snapshot = &snap
	metrics.SetVotingPower(snap.VotingPower)
	logger.Debug("account refreshed", zap.Int("voting_power", snap.VotingPower))
	return snap, nil
}

// ingest evaluates every history record not seen before, in history order.
func (e *Engine) ingest(ctx context.Context) error {
	callCtx, cancel := e.callContext(ctx)
	history, err := e.ledger.GetAccountHistory(callCtx, e.cfg.Account, -1, e.cfg.PageSize)
	cancel()
	if err != nil {
		logger.Error("history fetch failed, skipping tick", zap.Error(err))
		return fmt.Errorf("fetch history: %w", err)
	}

	for _, entry := range e.cursor.Advance(history) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		callCtx, cancel := e.callContext(ctx)
		out := e.validator.Evaluate(callCtx, entry)
		e.handle(callCtx, entry, out)
		cancel()
		e.cursor.Commit(entry.ID)
	}

	metrics.SetLastTransaction(e.cursor.LastID())
	metrics.SetPool(e.pool.Len(), e.pool.Total())
	return nil
}

func (e *Engine) handle(ctx context.Context, entry model.HistoryEntry, out bidding.Outcome) {
	if entry.Transfer != nil && entry.Transfer.To == e.cfg.Account {
		metrics.IncBidsReceived()
		if err := e.recorder.RecordTransfer(&recorder.TransferEvent{
			TxID:      entry.ID,
			Timestamp: entry.Timestamp,
			From:      entry.Transfer.From,
			Amount:    entry.Transfer.Amount,
			Memo:      entry.Transfer.Memo,
			Outcome:   out.Kind.String(),
		}); err != nil {
			logger.Warn("record transfer", zap.Error(err))
		}
	}

	switch out.Kind {
	case bidding.Ignored:
		return

	case bidding.Accepted:
		e.pool.Add(*out.Bid)
		metrics.IncBidsAccepted()
		logger.Info("valid bid",
			zap.String("sender", out.Bid.Sender),
			zap.String("amount", out.Bid.Amount.StringFixed(3)+" "+out.Bid.Currency),
			zap.String("author", out.Bid.Post.Author),
			zap.String("permlink", out.Bid.Post.Permlink))

	case bidding.Rejected:
		r := out.Rejection
		metrics.IncBidsRejected(string(r.Reason))
		logger.Info("invalid bid", zap.String("sender", r.Sender), zap.String("reason", string(r.Reason)),
			zap.String("message", r.Message))
		disp, _ := e.refunds.Refund(ctx, *r)
		metrics.RecordRefund(disp.String())
		e.recordRejection(r, disp.String())

	case bidding.Dropped:
		r := out.Rejection
		metrics.IncBidsRejected(string(r.Reason))
		logger.Info("bid dropped without refund", zap.String("sender", r.Sender),
			zap.String("reason", string(r.Reason)), zap.String("message", r.Message))
		e.recordRejection(r, "none")

	default:
		logger.Error("unhandled bid outcome", zap.Stringer("kind", out.Kind), zap.Int64("tx", entry.ID))
	}
}

func (e *Engine) recordRejection(r *model.RejectedBid, disposition string) {
	if err := e.recorder.RecordRejection(&recorder.RejectionEvent{
		TxID:        r.TxID,
		Sender:      r.Sender,
		Amount:      r.Amount.StringFixed(3) + " " + r.Currency,
		Reason:      string(r.Reason),
		Message:     r.Message,
		Disposition: disposition,
	}); err != nil {
		logger.Warn("record rejection", zap.Error(err))
	}
}

// startRound drains the pool and votes on the captured bids in the
// background. At most one round runs at a time.
func (e *Engine) startRound(ctx context.Context) {
	e.mu.Lock()
	if e.roundActive {
		e.mu.Unlock()
		logger.Debug("round already in progress")
		return
	}
	bids := e.pool.Drain()
	if len(bids) == 0 {
		e.mu.Unlock()
		return
	}
	e.roundActive = true
	e.rounds.Add(1)
	e.mu.Unlock()
	metrics.SetPool(0, decimal.Zero)

	go func() {
		defer e.rounds.Done()
		defer func() {
			e.mu.Lock()
			e.roundActive = false
			e.mu.Unlock()
		}()

		e.notify(ctx, notifier.FormatRoundStart(e.cfg.Account, bids))
		res := e.runner.Run(ctx, bids)
		metrics.RecordRoundTotal(res.Total)
		if err := e.recorder.RecordRound(&recorder.RoundEvent{
			StartedAt:  res.StartedAt,
			FinishedAt: res.FinishedAt,
			Bids:       len(res.Bids),
			Total:      res.Total.StringFixed(3),
			Voted:      res.Voted,
			Failed:     res.Failed,
			Commented:  res.Commented,
		}); err != nil {
			logger.Warn("record round", zap.Error(err))
		}
		logger.Info("round finished", zap.Int("voted", res.Voted), zap.Int("failed", res.Failed),
			zap.Int("commented", res.Commented))
		e.notify(ctx, notifier.FormatRoundResult(e.cfg.Account, res))
	}()
}

func (e *Engine) recordVote(vr round.VoteResult) {
	commented := vr.Permlink != "" && vr.CommentErr == nil
	metrics.RecordVote(vr.VoteErr == nil, commented)

	evt := &recorder.VoteEvent{
		TxID:      vr.Bid.TxID,
		Sender:    vr.Bid.Sender,
		Author:    vr.Bid.Post.Author,
		Permlink:  vr.Bid.Post.Permlink,
		Amount:    vr.Bid.Amount.StringFixed(3) + " " + vr.Bid.Currency,
		Weight:    vr.Bid.Weight,
		Success:   vr.VoteErr == nil,
		Reply:     vr.Permlink,
		Commented: commented,
	}
	if vr.VoteErr != nil {
		evt.Error = vr.VoteErr.Error()
	}
	if err := e.recorder.RecordVote(evt); err != nil {
		logger.Warn("record vote", zap.Error(err))
	}
}

func (e *Engine) notify(ctx context.Context, text string) {
	if err := e.notifier.SendWithRetry(ctx, text, 3); err != nil {
		logger.Error("send notification", zap.Error(err))
	}
}

// Wait blocks until the running round, if any, has finished.
func (e *Engine) Wait() {
	e.rounds.Wait()
}

// Status returns a point-in-time view for operators.
func (e *Engine) Status() model.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := model.Status{
		Account:     e.cfg.Account,
		PoolSize:    e.pool.Len(),
		PoolTotal:   e.pool.Total(),
		LastTxID:    e.cursor.LastID(),
		RoundActive: e.roundActive,
	}
	if e.snapshot != nil {
		s.VotingPower = e.snapshot.VotingPower
		s.SnapshotTime = e.snapshot.TakenAt
	}
	return s
}

// PendingBids returns the bids waiting for the next round.
func (e *Engine) PendingBids() []model.Bid {
	return e.pool.Snapshot()
}
