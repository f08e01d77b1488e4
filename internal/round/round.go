package round

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"PostPromoter/internal/logger"
	"PostPromoter/internal/model"
	"PostPromoter/internal/pool"
	"PostPromoter/internal/power"
)

// Broadcaster is the ledger side of a round.
type Broadcaster interface {
	Vote(ctx context.Context, voter, author, permlink string, weight int) error
	Comment(ctx context.Context, c model.Comment) error
}

// Config holds the round parameters.
type Config struct {
	Account          string
	BatchWeight      decimal.Decimal // percent of a full vote shared by one round
	Pacing           time.Duration
	PromotionContent string
	CallTimeout      time.Duration
}

// VoteResult is the outcome of one bid inside a round.
type VoteResult struct {
	Bid        model.Bid
	VoteErr    error
	Permlink   string // reply permlink, empty if no comment was attempted
	CommentErr error
}

// Runner executes voting rounds.
type Runner struct {
	cfg    Config
	ledger Broadcaster
	Now    func() time.Time
	// OnVote, if set, is called after every vote attempt.
	OnVote func(VoteResult)
}

// NewRunner creates a Runner.
func NewRunner(cfg Config, ledger Broadcaster) *Runner {
	return &Runner{cfg: cfg, ledger: ledger, Now: time.Now}
}

// Run assigns weights to bids and votes on each of them in turn, waiting
// Pacing between votes. Failed votes are logged and skipped. Cancelling ctx
// abandons the remaining bids.
func (r *Runner) Run(ctx context.Context, bids []model.Bid) model.RoundResult {
	res := model.RoundResult{StartedAt: r.Now(), Total: pool.Sum(bids)}
	if len(bids) == 0 {
		res.FinishedAt = r.Now()
		return res
	}

	amounts := make([]decimal.Decimal, len(bids))
	for i, b := range bids {
		amounts[i] = b.Amount
	}
	weights, err := power.CalculateWeights(amounts, r.cfg.BatchWeight)
	if err != nil {
		logger.Error("cannot weigh round", zap.Error(err), zap.Int("bids", len(bids)))
		res.FinishedAt = r.Now()
		return res
	}
	res.Bids = make([]model.Bid, len(bids))
	for i := range bids {
		res.Bids[i] = bids[i]
		res.Bids[i].Weight = weights[i]
	}

	logger.Info("=======================================================")
	logger.Info("bidding round ended, starting votes",
		zap.Int("bids", len(bids)), zap.String("total", res.Total.StringFixed(3)))
	logger.Info("=======================================================")

	// Bids are voted last-in first.
	for i := len(res.Bids) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			logger.Warn("round interrupted", zap.Int("remaining", i+1))
			break
		}
		vr := r.vote(ctx, res.Bids[i])
		if vr.VoteErr != nil {
			res.Failed++
		} else {
			res.Voted++
			if vr.Permlink != "" && vr.CommentErr == nil {
				res.Commented++
			}
		}
		if r.OnVote != nil {
			r.OnVote(vr)
		}

		if i > 0 && r.cfg.Pacing > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(r.cfg.Pacing):
			}
		}
	}

	res.FinishedAt = r.Now()
	return res
}

func (r *Runner) vote(ctx context.Context, bid model.Bid) VoteResult {
	vr := VoteResult{Bid: bid}
	fields := []zap.Field{
		zap.String("author", bid.Post.Author),
		zap.String("permlink", bid.Post.Permlink),
		zap.Int("weight", bid.Weight),
		zap.String("sender", bid.Sender),
	}

	callCtx, cancel := r.callContext(ctx)
	vr.VoteErr = r.ledger.Vote(callCtx, r.cfg.Account, bid.Post.Author, bid.Post.Permlink, bid.Weight)
	cancel()
	if vr.VoteErr != nil {
		logger.Error("vote failed", append(fields, zap.Error(vr.VoteErr))...)
		return vr
	}
	logger.Info(FormatPercent(bid.Weight)+"% vote cast", fields...)

	if r.cfg.PromotionContent == "" {
		return vr
	}
	vr.Permlink = ReplyPermlink(bid.Post.Author, bid.Post.Permlink, r.Now())
	comment := model.Comment{
		ParentAuthor:   bid.Post.Author,
		ParentPermlink: bid.Post.Permlink,
		Author:         r.cfg.Account,
		Permlink:       vr.Permlink,
		Title:          vr.Permlink,
		Body:           RenderPromotion(r.cfg.PromotionContent, bid),
	}
	callCtx, cancel = r.callContext(ctx)
	vr.CommentErr = r.ledger.Comment(callCtx, comment)
	cancel()
	if vr.CommentErr != nil {
		logger.Warn("promotion comment failed", append(fields, zap.Error(vr.CommentErr))...)
	} else {
		logger.Debug("posted promotion comment", append(fields, zap.String("reply", vr.Permlink))...)
	}
	return vr
}

func (r *Runner) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.CallTimeout > 0 {
		return context.WithTimeout(ctx, r.cfg.CallTimeout)
	}
	return context.WithCancel(ctx)
}

// ReplyPermlink builds the permlink of a reply to author/permlink in the
// usual "re-" convention, suffixed with a compact UTC timestamp.
func ReplyPermlink(author, permlink string, now time.Time) string {
	now = now.UTC()
	stamp := now.Format("20060102t150405") + fmt.Sprintf("%03dz", now.Nanosecond()/int(time.Millisecond))
	return "re-" + strings.ReplaceAll(author, ".", "") + "-" + permlink + "-" + stamp
}

// RenderPromotion fills {weight} and {sender} in a comment template.
func RenderPromotion(template string, bid model.Bid) string {
	out := strings.ReplaceAll(template, "{weight}", FormatPercent(bid.Weight))
	return strings.ReplaceAll(out, "{sender}", bid.Sender)
}

// FormatPercent renders basis points as a percentage with two decimals.
func FormatPercent(weight int) string {
	return decimal.New(int64(weight), -2).StringFixed(2)
}
