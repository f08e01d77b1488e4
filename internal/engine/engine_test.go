package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PostPromoter/internal/bidding"
	"PostPromoter/internal/ledger"
	"PostPromoter/internal/model"
	"PostPromoter/internal/refund"
	"PostPromoter/internal/round"
)

const bot = "promobot"

var (
	now   = time.Date(2018, 3, 1, 12, 0, 0, 0, time.UTC)
	start = now.Add(-time.Hour)
)

type fixture struct {
	gw     *ledger.MockGateway
	engine *Engine
}

func newFixture(t *testing.T, votingPower int) *fixture {
	t.Helper()
	gw := ledger.NewMockGateway()
	gw.SetAccount(&model.Account{Name: bot, VotingPower: votingPower, LastVoteTime: now})
	gw.AddPost(&model.Post{ID: 1, Author: "bob", Permlink: "first", Created: now.Add(-2 * time.Hour)})
	gw.AddPost(&model.Post{ID: 2, Author: "dave", Permlink: "second", Created: now.Add(-3 * time.Hour)})

	validator := bidding.NewValidator(bidding.Policy{
		Account:   bot,
		MinBid:    decimal.RequireFromString("0.1"),
		MaxBid:    decimal.NewFromInt(9999),
		Currency:  "SBD",
		Blacklist: map[string]struct{}{"spammer": {}},
	}, gw)
	validator.Now = func() time.Time { return now }

	runner := round.NewRunner(round.Config{Account: bot, BatchWeight: decimal.NewFromInt(100)}, gw)
	runner.Now = func() time.Time { return now }

	e := New(Config{Account: bot, PageSize: 50, StartTime: start}, Deps{
		Ledger:    gw,
		Validator: validator,
		Refunds:   refund.NewExecutor(refund.Policy{Account: bot, Enabled: true}, gw),
		Runner:    runner,
	})
	e.Now = func() time.Time { return now }
	return &fixture{gw: gw, engine: e}
}

func payment(id int64, from, amount, memo string) model.HistoryEntry {
	return model.HistoryEntry{
		ID:        id,
		Op:        model.OpTransfer,
		Timestamp: start.Add(time.Duration(id) * time.Minute),
		Transfer:  &model.Transfer{From: from, To: bot, Amount: amount, Memo: memo},
	}
}

func (f *fixture) tick(t *testing.T) {
	t.Helper()
	require.NoError(t, f.engine.Tick(context.Background()))
	f.engine.Wait()
}

func TestTick_FullPowerVotesProportionally(t *testing.T) {
	f := newFixture(t, 10000)
	f.gw.SetHistory([]model.HistoryEntry{
		payment(1, "alice", "1.000 SBD", "https://steemit.com/@bob/first"),
		payment(2, "carol", "3.000 SBD", "https://steemit.com/@dave/second"),
	})

	f.tick(t)

	votes := f.gw.Votes()
	require.Len(t, votes, 2)
	assert.Equal(t, ledger.VoteCall{Voter: bot, Author: "dave", Permlink: "second", Weight: 7500}, votes[0])
	assert.Equal(t, ledger.VoteCall{Voter: bot, Author: "bob", Permlink: "first", Weight: 2500}, votes[1])
	assert.Empty(t, f.engine.PendingBids())
	assert.Empty(t, f.gw.Transfers())
	assert.False(t, f.engine.Status().RoundActive)
}

func TestTick_WrongCurrencyRefundedOnce(t *testing.T) {
	f := newFixture(t, 10000)
	f.gw.SetHistory([]model.HistoryEntry{
		payment(1, "alice", "2.000 STEEM", "@bob/first"),
	})

	f.tick(t)
	f.tick(t)

	assert.Empty(t, f.engine.PendingBids())
	assert.Empty(t, f.gw.Votes())
	transfers := f.gw.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "alice", transfers[0].To)
	assert.Equal(t, "2.000 STEEM", transfers[0].Amount)
	assert.Equal(t, refund.Memo("Only SBD bids accepted!"), transfers[0].Memo)
}

func TestTick_BelowFullPowerKeepsPool(t *testing.T) {
	f := newFixture(t, 9999)
	f.gw.SetHistory([]model.HistoryEntry{
		payment(1, "alice", "1.000 SBD", "@bob/first"),
		payment(2, "carol", "3.000 SBD", "@dave/second"),
	})

	f.tick(t)
	f.tick(t)

	assert.Empty(t, f.gw.Votes())
	bids := f.engine.PendingBids()
	require.Len(t, bids, 2)
	assert.Equal(t, int64(1), bids[0].TxID)
	assert.Equal(t, int64(2), bids[1].TxID)

	s := f.engine.Status()
	assert.Equal(t, 9999, s.VotingPower)
	assert.Equal(t, 2, s.PoolSize)
	assert.True(t, s.PoolTotal.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, int64(2), s.LastTxID)
}

func TestTick_ConsumedBidsNeverReturn(t *testing.T) {
	f := newFixture(t, 10000)
	history := []model.HistoryEntry{payment(1, "alice", "1.000 SBD", "@bob/first")}
	f.gw.SetHistory(history)
	f.tick(t)
	require.Len(t, f.gw.Votes(), 1)

	history = append(history, payment(2, "carol", "3.000 SBD", "@dave/second"))
	f.gw.SetHistory(history)
	f.tick(t)

	votes := f.gw.Votes()
	require.Len(t, votes, 2)
	assert.Equal(t, "dave", votes[1].Author)
	assert.Equal(t, 10000, votes[1].Weight)
}

func TestTick_BlacklistedAuthorDroppedWithoutRefund(t *testing.T) {
	f := newFixture(t, 9000)
	f.gw.SetHistory([]model.HistoryEntry{
		payment(1, "spammer-friend", "5.000 SBD", "@spammer/buy-now"),
	})

	f.tick(t)

	assert.Empty(t, f.gw.Transfers())
	assert.Empty(t, f.engine.PendingBids())
	assert.Equal(t, int64(1), f.engine.Status().LastTxID)
}

func TestTick_HistoryFailureRetriesNextTick(t *testing.T) {
	f := newFixture(t, 9000)
	f.gw.SetHistory([]model.HistoryEntry{payment(1, "alice", "1.000 SBD", "@bob/first")})
	f.gw.SetErrors(func(m *ledger.MockGateway) { m.HistoryErr = errors.New("node down") })

	require.Error(t, f.engine.Tick(context.Background()))
	assert.Empty(t, f.engine.PendingBids())
	assert.Equal(t, int64(-1), f.engine.Status().LastTxID)

	f.gw.SetErrors(func(m *ledger.MockGateway) { m.HistoryErr = nil })
	f.tick(t)
	assert.Len(t, f.engine.PendingBids(), 1)
}

func TestTick_AccountFailure(t *testing.T) {
	f := newFixture(t, 9000)
	f.gw.SetHistory([]model.HistoryEntry{payment(1, "alice", "1.000 SBD", "@bob/first")})
	f.gw.SetErrors(func(m *ledger.MockGateway) { m.AccountErr = errors.New("timeout") })

	// no snapshot yet: the tick is skipped entirely
	require.Error(t, f.engine.Tick(context.Background()))
	assert.Empty(t, f.engine.PendingBids())

	f.gw.SetErrors(func(m *ledger.MockGateway) { m.AccountErr = nil })
	f.tick(t)

	f.gw.SetHistory([]model.HistoryEntry{
		payment(1, "alice", "1.000 SBD", "@bob/first"),
		payment(2, "carol", "1.000 SBD", "@dave/second"),
	})
	f.gw.SetErrors(func(m *ledger.MockGateway) { m.AccountErr = errors.New("timeout") })
	f.tick(t)
	assert.Len(t, f.engine.PendingBids(), 2)
	assert.Equal(t, 9000, f.engine.Status().VotingPower)
}

func TestTick_IgnoresHistoryBeforeStart(t *testing.T) {
	f := newFixture(t, 10000)
	old := payment(1, "alice", "1.000 STEEM", "@bob/first")
	old.Timestamp = start
	older := payment(2, "carol", "1.000 SBD", "@bob/first")
	older.Timestamp = start.Add(-time.Minute)
	f.gw.SetHistory([]model.HistoryEntry{old, older})

	f.tick(t)

	assert.Empty(t, f.gw.Transfers())
	assert.Empty(t, f.gw.Votes())
	assert.Equal(t, int64(-1), f.engine.Status().LastTxID)
}

func TestTick_IgnoresUnrelatedOperations(t *testing.T) {
	f := newFixture(t, 10000)
	outgoing := payment(1, bot, "1.000 SBD", "thanks")
	outgoing.Transfer.To = "alice"
	f.gw.SetHistory([]model.HistoryEntry{
		outgoing,
		{ID: 2, Op: "vote", Timestamp: start.Add(2 * time.Minute)},
	})

	f.tick(t)

	assert.Empty(t, f.gw.Transfers())
	assert.Empty(t, f.engine.PendingBids())
	assert.Equal(t, int64(2), f.engine.Status().LastTxID)
}

func TestTick_RoundOutlivesTick(t *testing.T) {
	f := newFixture(t, 10000)
	f.engine.runner = round.NewRunner(round.Config{
		Account:     bot,
		BatchWeight: decimal.NewFromInt(100),
		Pacing:      50 * time.Millisecond,
	}, f.gw)
	f.engine.runner.OnVote = f.engine.recordVote

	f.gw.SetHistory([]model.HistoryEntry{
		payment(1, "alice", "1.000 SBD", "@bob/first"),
		payment(2, "carol", "1.000 SBD", "@dave/second"),
	})
	require.NoError(t, f.engine.Tick(context.Background()))

	// a second round cannot start while the first is voting
	f.gw.SetHistory([]model.HistoryEntry{
		payment(1, "alice", "1.000 SBD", "@bob/first"),
		payment(2, "carol", "1.000 SBD", "@dave/second"),
		payment(3, "erin", "1.000 SBD", "@bob/first"),
	})
	require.NoError(t, f.engine.Tick(context.Background()))
	assert.Len(t, f.engine.PendingBids(), 1)

	f.engine.Wait()
	assert.Len(t, f.gw.Votes(), 2)
	assert.False(t, f.engine.Status().RoundActive)
}

// slowContent delays lookups so that overlapping ticks interleave.
type slowContent struct {
	*ledger.MockGateway
	delay time.Duration
}

func (s slowContent) GetContent(ctx context.Context, author, permlink string) (*model.Post, error) {
	time.Sleep(s.delay)
	return s.MockGateway.GetContent(ctx, author, permlink)
}

func TestTick_OverlappingTicksEvaluateOnce(t *testing.T) {
	f := newFixture(t, 9000)
	f.engine.validator.Content = slowContent{MockGateway: f.gw, delay: 50 * time.Millisecond}
	f.gw.SetHistory([]model.HistoryEntry{
		payment(1, "alice", "2.000 SBD", "@bob/missing"),
		payment(2, "carol", "1.000 SBD", "@bob/first"),
	})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.engine.Tick(context.Background()))
		}()
	}
	wg.Wait()
	f.engine.Wait()

	transfers := f.gw.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, refund.Memo("Invalid Memo"), transfers[0].Memo)
	assert.Len(t, f.engine.PendingBids(), 1)
	assert.Equal(t, int64(2), f.engine.Status().LastTxID)
}
