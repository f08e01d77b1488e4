package pool

import (
	"sync"

	"github.com/shopspring/decimal"

	"PostPromoter/internal/model"
)

// Pool holds the accepted bids waiting for the next voting round.
// It is safe for concurrent use; Drain is the only way bids leave it.
type Pool struct {
	mu   sync.Mutex
	bids []model.Bid
}

// New creates an empty Pool.
func New() *Pool {
	return &Pool{}
}

// Add appends an accepted bid.
func (p *Pool) Add(bid model.Bid) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bids = append(p.bids, bid)
}

// Len returns the number of outstanding bids.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bids)
}

// Total returns the sum of outstanding bid amounts.
func (p *Pool) Total() decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return sum(p.bids)
}

// Snapshot returns a copy of the outstanding bids.
func (p *Pool) Snapshot() []model.Bid {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Bid(nil), p.bids...)
}

// Drain takes every outstanding bid and leaves the pool empty.
func (p *Pool) Drain() []model.Bid {
	p.mu.Lock()
	defer p.mu.Unlock()
	bids := p.bids
	p.bids = nil
	return bids
}

// Sum returns the total amount of bids.
func Sum(bids []model.Bid) decimal.Decimal {
	return sum(bids)
}

func sum(bids []model.Bid) decimal.Decimal {
	total := decimal.Zero
	for _, b := range bids {
		total = total.Add(b.Amount)
	}
	return total
}
