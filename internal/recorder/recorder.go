package recorder

import "time"

// TransferEvent is one incoming payment as read from the account history.
type TransferEvent struct {
	TxID      int64
	Timestamp time.Time
	From      string
	Amount    string
	Memo      string
	Outcome   string // ignored, accepted, rejected or dropped
}

// RejectionEvent records a rejected bid and what was done about it.
type RejectionEvent struct {
	TxID        int64
	Sender      string
	Amount      string
	Reason      string
	Message     string
	Disposition string // sent, skipped, failed or none
}

// VoteEvent records one vote attempt and its optional promotion comment.
type VoteEvent struct {
	TxID      int64
	Sender    string
	Author    string
	Permlink  string
	Amount    string
	Weight    int
	Success   bool
	Error     string
	Reply     string
	Commented bool
}

// RoundEvent summarizes a finished voting round.
type RoundEvent struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Bids       int
	Total      string
	Voted      int
	Failed     int
	Commented  int
}

// Recorder appends an audit trail of the bot's activity. Nothing recorded is
// read back by the bot.
type Recorder interface {
	RecordTransfer(evt *TransferEvent) error
	RecordRejection(evt *RejectionEvent) error
	RecordVote(evt *VoteEvent) error
	RecordRound(evt *RoundEvent) error
	Close() error
}
