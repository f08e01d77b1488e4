package power

import (
	"math"
	"time"

	"PostPromoter/internal/model"
)

const (
	// FullPower is 100% voting power in basis points.
	FullPower = 10000
	// RegenerationSeconds is how long an empty account takes to recharge fully.
	RegenerationSeconds = 5 * 24 * 60 * 60
)

// CalculateVotingPower estimates the account's current voting power from the
// raw value recorded at its last vote plus the power regenerated since.
func CalculateVotingPower(acc *model.Account, now time.Time) int {
	elapsed := now.Sub(acc.LastVoteTime).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	regenerated := int(math.Round(FullPower * elapsed / RegenerationSeconds))
	current := acc.VotingPower + regenerated
	if current > FullPower {
		current = FullPower
	}
	return current
}

// Snapshot builds the per-tick account view.
func Snapshot(acc *model.Account, now time.Time) model.AccountSnapshot {
	return model.AccountSnapshot{
		Name:        acc.Name,
		VotingPower: CalculateVotingPower(acc, now),
		TakenAt:     now,
	}
}

// Ready reports whether a voting round may start: the account is fully
// charged and there is at least one outstanding bid.
func Ready(snap model.AccountSnapshot, outstanding int) bool {
	return snap.VotingPower >= FullPower && outstanding > 0
}
