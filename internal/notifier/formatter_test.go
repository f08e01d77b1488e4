package notifier

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"PostPromoter/internal/model"
)

func sampleBids() []model.Bid {
	return []model.Bid{
		{Amount: decimal.RequireFromString("1"), Currency: "SBD", Sender: "alice", Weight: 2500,
			Post: &model.Post{Author: "bob", Permlink: "first"}},
		{Amount: decimal.RequireFromString("3"), Currency: "SBD", Sender: "carol", Weight: 7500,
			Post: &model.Post{Author: "dave", Permlink: "second"}},
	}
}

func TestFormatRoundStart(t *testing.T) {
	msg := FormatRoundStart("promobot", sampleBids())
	assert.Contains(t, msg, "@promobot round started")
	assert.Contains(t, msg, "Bids: 2")
	assert.Contains(t, msg, "Total: 4.000 SBD")
	assert.Contains(t, msg, "@bob/first  1.000 SBD (25.0%) from @alice")
	assert.Contains(t, msg, "@dave/second  3.000 SBD (75.0%) from @carol")
}

func TestFormatRoundStart_NoBids(t *testing.T) {
	msg := FormatRoundStart("promobot", nil)
	assert.Contains(t, msg, "Bids: 0")
	assert.Contains(t, msg, "Total: 0.000")
}

func TestFormatRoundResult(t *testing.T) {
	start := time.Date(2018, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := FormatRoundResult("promobot", model.RoundResult{
		StartedAt:  start,
		FinishedAt: start.Add(30 * time.Second),
		Bids:       sampleBids(),
		Voted:      2,
	})
	assert.Contains(t, msg, "25.00% @bob/first (1.000 SBD from @alice)")
	assert.Contains(t, msg, "75.00% @dave/second")
	assert.Contains(t, msg, "Promoted: 4.000 SBD")
	assert.Contains(t, msg, "Votes: 2 ok, 0 failed")
	assert.Contains(t, msg, "Duration: 30s")
}

func TestFormatStatus(t *testing.T) {
	msg := FormatStatus(model.Status{
		Account:     "promobot",
		VotingPower: 9876,
		PoolSize:    2,
		PoolTotal:   decimal.RequireFromString("4"),
		LastTxID:    42,
	})
	assert.Contains(t, msg, "Voting power: 98.76%")
	assert.Contains(t, msg, "Outstanding bids: 2")
	assert.Contains(t, msg, "Pool total: 4.000")
	assert.Contains(t, msg, "Last transaction: 42")
	assert.NotContains(t, msg, "Updated")
}

func TestFormatPool(t *testing.T) {
	assert.Equal(t, "📭 No outstanding bids", FormatPool(nil))
	msg := FormatPool(sampleBids())
	assert.Contains(t, msg, "Outstanding bids (2)")
	assert.Contains(t, msg, "3.000 SBD @dave/second from @carol")
}
