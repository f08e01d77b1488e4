package model

import "time"

// OpTransfer is the history operation type carrying a payment.
const OpTransfer = "transfer"

// Transfer is the payload of a transfer operation.
type Transfer struct {
	From   string
	To     string
	Amount string // e.g. "1.000 SBD"
	Memo   string
}

// HistoryEntry is one record of the account history.
type HistoryEntry struct {
	ID        int64
	Op        string
	Timestamp time.Time
	Transfer  *Transfer // nil unless Op == OpTransfer
}
