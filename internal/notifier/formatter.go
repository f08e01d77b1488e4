package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"PostPromoter/internal/model"
)

func percent(weight int) string {
	return fmt.Sprintf("%d.%02d", weight/100, weight%100)
}

// FormatRoundStart announces a round that is about to vote, with each bid's
// share of the pool. Shares are what the weights will be proportional to.
func FormatRoundStart(account string, bids []model.Bid) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗳 <b>@%s round started</b>\n\n", account))
	b.WriteString(fmt.Sprintf("Bids: %d\n", len(bids)))
	if len(bids) == 0 {
		b.WriteString("Total: 0.000\n")
		return b.String()
	}
	total := decimal.Zero
	for _, bid := range bids {
		total = total.Add(bid.Amount)
	}
	for _, bid := range bids {
		share := decimal.Zero
		if total.IsPositive() {
			share = bid.Amount.Div(total).Mul(decimal.NewFromInt(100))
		}
		b.WriteString(fmt.Sprintf("  @%s/%s  %s %s (%s%%) from @%s\n",
			bid.Post.Author, bid.Post.Permlink, bid.Amount.StringFixed(3), bid.Currency,
			share.StringFixed(1), bid.Sender))
	}
	b.WriteString(fmt.Sprintf("Total: %s %s\n", total.StringFixed(3), bids[0].Currency))
	return b.String()
}

// FormatRoundResult reports a finished round with the weight of every bid.
func FormatRoundResult(account string, res model.RoundResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✅ <b>@%s round finished</b> | %s\n\n", account, res.FinishedAt.UTC().Format("2006-01-02 15:04")))
	for _, bid := range res.Bids {
		b.WriteString(fmt.Sprintf("  %s%% @%s/%s (%s %s from @%s)\n",
			percent(bid.Weight), bid.Post.Author, bid.Post.Permlink,
			bid.Amount.StringFixed(3), bid.Currency, bid.Sender))
	}
	b.WriteString("  ─────────────────\n")
	if len(res.Bids) > 0 {
		spent := decimal.Zero
		for _, bid := range res.Bids {
			spent = spent.Add(bid.Amount)
		}
		b.WriteString(fmt.Sprintf("Promoted: %s %s\n", spent.StringFixed(3), res.Bids[0].Currency))
	}
	b.WriteString(fmt.Sprintf("Votes: %d ok, %d failed\n", res.Voted, res.Failed))
	b.WriteString(fmt.Sprintf("Comments: %d\n", res.Commented))
	b.WriteString(fmt.Sprintf("Duration: %s\n", res.FinishedAt.Sub(res.StartedAt).Round(time.Second)))
	return b.String()
}

// FormatStatus formats the engine status for display.
func FormatStatus(s model.Status) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>@%s status</b>\n\n", s.Account))
	b.WriteString(fmt.Sprintf("Voting power: %s%%\n", percent(s.VotingPower)))
	b.WriteString(fmt.Sprintf("Outstanding bids: %d\n", s.PoolSize))
	b.WriteString(fmt.Sprintf("Pool total: %s\n", s.PoolTotal.StringFixed(3)))
	b.WriteString(fmt.Sprintf("Last transaction: %d\n", s.LastTxID))
	b.WriteString(fmt.Sprintf("Round active: %v\n", s.RoundActive))
	if !s.SnapshotTime.IsZero() {
		b.WriteString(fmt.Sprintf("Updated: %s\n", s.SnapshotTime.UTC().Format("2006-01-02 15:04:05")))
	}
	return b.String()
}

// FormatPool lists the outstanding bids.
func FormatPool(bids []model.Bid) string {
	if len(bids) == 0 {
		return "📭 No outstanding bids"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📬 <b>Outstanding bids (%d)</b>\n\n", len(bids)))
	for _, bid := range bids {
		b.WriteString(fmt.Sprintf("  %s %s @%s/%s from @%s\n",
			bid.Amount.StringFixed(3), bid.Currency, bid.Post.Author, bid.Post.Permlink, bid.Sender))
	}
	return b.String()
}
