package refund

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PostPromoter/internal/ledger"
	"PostPromoter/internal/model"
)

func rejected(sender string) model.RejectedBid {
	return model.RejectedBid{
		TxID:     7,
		Sender:   sender,
		Amount:   decimal.RequireFromString("2"),
		Currency: "STEEM",
		Reason:   model.ReasonWrongCurrency,
		Message:  "Only SBD bids accepted!",
	}
}

func TestRefund_Sent(t *testing.T) {
	gw := ledger.NewMockGateway()
	e := NewExecutor(Policy{Account: "promobot", Enabled: true}, gw)

	d, err := e.Refund(context.Background(), rejected("alice"))
	require.NoError(t, err)
	assert.Equal(t, Sent, d)

	transfers := gw.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, ledger.TransferCall{
		From:   "promobot",
		To:     "alice",
		Amount: "2.000 STEEM",
		Memo:   "Refund for invalid bid - Only SBD bids accepted!",
	}, transfers[0])
}

func TestRefund_Skipped(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
	}{
		{"disabled", Policy{Account: "promobot", Enabled: false}},
		{"no-refund list", Policy{Account: "promobot", Enabled: true, NoRefund: map[string]struct{}{"alice": {}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := ledger.NewMockGateway()
			d, err := NewExecutor(tt.policy, gw).Refund(context.Background(), rejected("alice"))
			require.NoError(t, err)
			assert.Equal(t, Skipped, d)
			assert.Empty(t, gw.Transfers())
		})
	}
}

func TestRefund_Failed(t *testing.T) {
	gw := ledger.NewMockGateway()
	boom := errors.New("bandwidth exceeded")
	gw.SetErrors(func(m *ledger.MockGateway) { m.TransferErr = boom })

	d, err := NewExecutor(Policy{Account: "promobot", Enabled: true}, gw).Refund(context.Background(), rejected("alice"))
	assert.Equal(t, Failed, d)
	assert.ErrorIs(t, err, boom)
}

func TestDisposition_String(t *testing.T) {
	assert.Equal(t, "sent", Sent.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "failed", Failed.String())
}
