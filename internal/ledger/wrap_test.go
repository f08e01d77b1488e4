package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PostPromoter/internal/model"
)

// overlapGateway records the maximum number of concurrent broadcasts.
type overlapGateway struct {
	*MockGateway
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (o *overlapGateway) enter() {
	n := o.inFlight.Add(1)
	for {
		m := o.maxSeen.Load()
		if n <= m || o.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	o.inFlight.Add(-1)
}

func (o *overlapGateway) Vote(ctx context.Context, voter, author, permlink string, weight int) error {
	o.enter()
	return o.MockGateway.Vote(ctx, voter, author, permlink, weight)
}

func (o *overlapGateway) Transfer(ctx context.Context, from, to, amount, memo string) error {
	o.enter()
	return o.MockGateway.Transfer(ctx, from, to, amount, memo)
}

func (o *overlapGateway) Comment(ctx context.Context, c model.Comment) error {
	o.enter()
	return o.MockGateway.Comment(ctx, c)
}

func TestSerialize_NoConcurrentBroadcasts(t *testing.T) {
	inner := &overlapGateway{MockGateway: NewMockGateway()}
	gw := Serialize(inner)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); _ = gw.Vote(ctx, "bot", "a", "p", 100) }()
		go func() { defer wg.Done(); _ = gw.Transfer(ctx, "bot", "a", "1.000 SBD", "m") }()
		go func() { defer wg.Done(); _ = gw.Comment(ctx, model.Comment{Author: "bot"}) }()
	}
	wg.Wait()

	assert.Equal(t, int32(1), inner.maxSeen.Load())
	assert.Len(t, inner.Votes(), 8)
	assert.Len(t, inner.Transfers(), 8)
	assert.Len(t, inner.Comments(), 8)
}

func TestDryRun_DoesNotBroadcast(t *testing.T) {
	inner := NewMockGateway()
	inner.AddPost(&model.Post{ID: 1, Author: "bob", Permlink: "hello"})
	gw := DryRun(inner)
	ctx := context.Background()

	require.NoError(t, gw.Vote(ctx, "bot", "bob", "hello", 100))
	require.NoError(t, gw.Transfer(ctx, "bot", "alice", "1.000 SBD", "m"))
	require.NoError(t, gw.Comment(ctx, model.Comment{Author: "bot"}))
	assert.Empty(t, inner.Votes())
	assert.Empty(t, inner.Transfers())
	assert.Empty(t, inner.Comments())

	// reads still pass through
	p, err := gw.GetContent(ctx, "bob", "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
}
