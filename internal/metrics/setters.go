package metrics

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"
)

func SetVotingPower(power int) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	current.votingPower = int64(power)
}

func SetPool(size int, total decimal.Decimal) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	current.poolSize = int64(size)
	current.poolTotal = total.InexactFloat64()
}

func SetLastTransaction(id int64) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	current.lastTxID = id
}

func IncBidsReceived() {
	BidsReceivedCounter.Add(context.Background(), 1)
}

func IncBidsAccepted() {
	BidsAcceptedCounter.Add(context.Background(), 1)
}

func IncBidsRejected(reason string) {
	BidsRejectedCounter.Add(context.Background(), 1,
		api.WithAttributes(attribute.String("reason", reason)))
}

// RecordVote counts one vote attempt and whether its comment was posted.
func RecordVote(success, commented bool) {
	ctx := context.Background()
	if !success {
		VoteFailuresCounter.Add(ctx, 1)
		return
	}
	VotesCastCounter.Add(ctx, 1)
	if commented {
		CommentsPostedCounter.Add(ctx, 1)
	}
}

// RecordRefund counts a refund by disposition: sent, skipped or failed.
func RecordRefund(disposition string) {
	ctx := context.Background()
	switch disposition {
	case "sent":
		RefundsSentCounter.Add(ctx, 1)
	case "skipped":
		RefundsSkippedCounter.Add(ctx, 1)
	case "failed":
		RefundFailuresCounter.Add(ctx, 1)
	}
}

func RecordRoundTotal(total decimal.Decimal) {
	RoundTotalHistogram.Record(context.Background(), total.InexactFloat64())
}
