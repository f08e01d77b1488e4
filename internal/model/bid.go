package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bid is an accepted payment earmarked to promote a post.
type Bid struct {
	TxID       int64
	Amount     decimal.Decimal
	Currency   string
	Sender     string
	Post       *Post
	Weight     int // assigned at round settlement, basis points
	ReceivedAt time.Time
}

// RejectReason classifies why a payment was not accepted.
type RejectReason string

const (
	ReasonDisabled           RejectReason = "disabled"
	ReasonBelowMinimum       RejectReason = "below minimum"
	ReasonAboveMaximum       RejectReason = "above maximum"
	ReasonWrongCurrency      RejectReason = "wrong currency"
	ReasonBlacklisted        RejectReason = "blacklisted author"
	ReasonInvalidMemo        RejectReason = "invalid memo"
	ReasonCommentsNotAllowed RejectReason = "comments not allowed"
	ReasonAlreadyVoted       RejectReason = "already voted"
	ReasonPostTooOld         RejectReason = "post too old"
)

// RejectedBid is a payment that failed validation.
type RejectedBid struct {
	TxID     int64
	Sender   string
	Amount   decimal.Decimal
	Currency string
	Reason   RejectReason
	Message  string // human-readable, sent back in the refund memo
}

// RoundResult summarizes one voting round.
type RoundResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Total      decimal.Decimal
	Bids       []Bid
	Voted      int
	Failed     int
	Commented  int
}

// Status is a point-in-time view of the engine for operators.
type Status struct {
	Account      string
	VotingPower  int
	PoolSize     int
	PoolTotal    decimal.Decimal
	LastTxID     int64
	RoundActive  bool
	SnapshotTime time.Time
}
