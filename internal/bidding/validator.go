package bidding

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"PostPromoter/internal/logger"
	"PostPromoter/internal/model"
)

// DuplicateVoteWindow is the age an existing bot vote must exceed before the
// post counts as already voted.
const DuplicateVoteWindow = 20 * time.Minute

// Kind tags the result of evaluating one history record.
type Kind int

const (
	// Ignored records are not bids: other operations, outgoing transfers.
	Ignored Kind = iota
	// Accepted bids go to the outstanding pool.
	Accepted
	// Rejected bids are routed to the refund executor.
	Rejected
	// Dropped bids are rejected without any refund attempt.
	Dropped
)

func (k Kind) String() string {
	switch k {
	case Ignored:
		return "ignored"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Dropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Outcome is the classification of one history record.
type Outcome struct {
	Kind      Kind
	Bid       *model.Bid         // set when Kind == Accepted
	Rejection *model.RejectedBid // set when Kind == Rejected or Dropped
}

// Policy is the set of rules a payment must satisfy to become a bid.
type Policy struct {
	Account       string
	MinBid        decimal.Decimal
	MaxBid        decimal.Decimal
	Currency      string
	Blacklist     map[string]struct{}
	Disabled      bool
	AllowComments bool
	MaxPostAge    time.Duration // zero means no limit
}

// ContentLookup fetches the post a memo refers to.
type ContentLookup interface {
	GetContent(ctx context.Context, author, permlink string) (*model.Post, error)
}

// Validator classifies incoming payments against a Policy.
type Validator struct {
	Policy  Policy
	Content ContentLookup
	Now     func() time.Time
}

// NewValidator creates a Validator using the wall clock.
func NewValidator(policy Policy, content ContentLookup) *Validator {
	return &Validator{Policy: policy, Content: content, Now: time.Now}
}

// ParseMemo extracts author and permlink from a memo of the form
// ".../@author/permlink". Either result may be empty if the memo is malformed.
func ParseMemo(memo string) (author, permlink string) {
	memo = strings.TrimSpace(memo)
	slash := strings.LastIndex(memo, "/")
	if slash < 0 {
		return "", ""
	}
	permlink = memo[slash+1:]
	at := strings.LastIndex(memo[:slash], "@")
	if at < 0 {
		return "", permlink
	}
	return memo[at+1 : slash], permlink
}

// Evaluate applies the policy to one history record. Checks run in a fixed
// order and stop at the first failure.
func (v *Validator) Evaluate(ctx context.Context, entry model.HistoryEntry) Outcome {
	p := v.Policy
	if entry.Op != model.OpTransfer || entry.Transfer == nil || entry.Transfer.To != p.Account {
		return Outcome{Kind: Ignored}
	}
	tr := entry.Transfer

	amount, err := model.ParseAmount(tr.Amount)
	if err != nil {
		logger.Warn("unparseable transfer amount", zap.Int64("tx", entry.ID), zap.String("amount", tr.Amount), zap.Error(err))
		return Outcome{Kind: Ignored}
	}
	reject := func(kind Kind, reason model.RejectReason, msg string) Outcome {
		return Outcome{Kind: kind, Rejection: &model.RejectedBid{
			TxID:     entry.ID,
			Sender:   tr.From,
			Amount:   amount.Value,
			Currency: amount.Currency,
			Reason:   reason,
			Message:  msg,
		}}
	}

	switch {
	case p.Disabled:
		return reject(Rejected, model.ReasonDisabled, "Bot is disabled!")
	case amount.Value.LessThan(p.MinBid):
		return reject(Rejected, model.ReasonBelowMinimum, "Min bid amount is "+p.MinBid.String())
	case amount.Value.GreaterThan(p.MaxBid):
		return reject(Rejected, model.ReasonAboveMaximum, "Max bid amount is "+p.MaxBid.String())
	case amount.Currency != p.Currency:
		return reject(Rejected, model.ReasonWrongCurrency, "Only "+p.Currency+" bids accepted!")
	}

	author, permlink := ParseMemo(tr.Memo)
	if _, banned := p.Blacklist[author]; banned && author != "" {
		return reject(Dropped, model.ReasonBlacklisted, "@"+author+" is on the blacklist!")
	}
	if author == "" || permlink == "" {
		return reject(Rejected, model.ReasonInvalidMemo, "Invalid Memo")
	}

	post, err := v.Content.GetContent(ctx, author, permlink)
	if err != nil || post == nil || post.ID <= 0 {
		if err != nil {
			logger.Debug("content lookup failed", zap.String("author", author), zap.String("permlink", permlink), zap.Error(err))
		}
		return reject(Rejected, model.ReasonInvalidMemo, "Invalid Memo")
	}

	if !p.AllowComments && post.IsReply() {
		return reject(Rejected, model.ReasonCommentsNotAllowed, "Bids not allowed on comments.")
	}

	now := v.Now()
	// Only a bot vote older than the window counts; a fresh one does not.
	if vote, ok := post.VoteBy(p.Account); ok && now.Sub(vote.Time) > DuplicateVoteWindow {
		return reject(Rejected, model.ReasonAlreadyVoted, "Already Voted")
	}
	if p.MaxPostAge > 0 && now.Sub(post.Created) >= p.MaxPostAge {
		return reject(Rejected, model.ReasonPostTooOld, "Post older than max age")
	}

	return Outcome{Kind: Accepted, Bid: &model.Bid{
		TxID:       entry.ID,
		Amount:     amount.Value,
		Currency:   amount.Currency,
		Sender:     tr.From,
		Post:       post,
		ReceivedAt: entry.Timestamp,
	}}
}
