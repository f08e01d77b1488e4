package model

import "time"

// Account is the bot's own account state as reported by the ledger.
type Account struct {
	Name         string
	VotingPower  int // raw value recorded at LastVoteTime, basis points
	LastVoteTime time.Time
}

// AccountSnapshot is the account state used for one poll tick.
type AccountSnapshot struct {
	Name        string
	VotingPower int // estimated current power, 0 ~ 10000
	TakenAt     time.Time
}
