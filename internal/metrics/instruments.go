package metrics

import (
	api "go.opentelemetry.io/otel/metric"
)

// metric instruments
var (
	BidsReceivedCounter   api.Int64Counter
	BidsAcceptedCounter   api.Int64Counter
	BidsRejectedCounter   api.Int64Counter
	VotesCastCounter      api.Int64Counter
	VoteFailuresCounter   api.Int64Counter
	CommentsPostedCounter api.Int64Counter
	RefundsSentCounter    api.Int64Counter
	RefundsSkippedCounter api.Int64Counter
	RefundFailuresCounter api.Int64Counter

	VotingPowerGauge     api.Int64ObservableGauge
	PoolSizeGauge        api.Int64ObservableGauge
	PoolTotalGauge       api.Float64ObservableGauge
	LastTransactionGauge api.Int64ObservableGauge

	RoundTotalHistogram api.Float64Histogram
)

func createInstruments(m api.Meter) error {
	var err error

	counters := []struct {
		target *api.Int64Counter
		name   string
		desc   string
	}{
		{&BidsReceivedCounter, "bids_received", "Incoming transfers evaluated as bids"},
		{&BidsAcceptedCounter, "bids_accepted", "Bids added to the outstanding pool"},
		{&BidsRejectedCounter, "bids_rejected", "Bids rejected, by reason"},
		{&VotesCastCounter, "votes_cast", "Votes broadcast successfully"},
		{&VoteFailuresCounter, "vote_failures", "Votes that failed to broadcast"},
		{&CommentsPostedCounter, "comments_posted", "Promotion comments posted"},
		{&RefundsSentCounter, "refunds_sent", "Refund transfers sent"},
		{&RefundsSkippedCounter, "refunds_skipped", "Rejected bids kept without refund"},
		{&RefundFailuresCounter, "refund_failures", "Refund transfers that failed"},
	}
	for _, c := range counters {
		if *c.target, err = m.Int64Counter(c.name, api.WithDescription(c.desc)); err != nil {
			return err
		}
	}

	if VotingPowerGauge, err = m.Int64ObservableGauge("voting_power",
		api.WithDescription("Estimated voting power in basis points")); err != nil {
		return err
	}
	if PoolSizeGauge, err = m.Int64ObservableGauge("pool_size",
		api.WithDescription("Outstanding bids waiting for the next round")); err != nil {
		return err
	}
	if PoolTotalGauge, err = m.Float64ObservableGauge("pool_total",
		api.WithDescription("Sum of outstanding bid amounts")); err != nil {
		return err
	}
	if LastTransactionGauge, err = m.Int64ObservableGauge("last_transaction_id",
		api.WithDescription("Highest account history id evaluated")); err != nil {
		return err
	}

	if RoundTotalHistogram, err = m.Float64Histogram("round_total",
		api.WithDescription("Total bid amount per voting round")); err != nil {
		return err
	}
	return nil
}
