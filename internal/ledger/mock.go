package ledger

import (
	"context"
	"fmt"
	"sync"

	"PostPromoter/internal/model"
)

// VoteCall records one Vote broadcast.
type VoteCall struct {
	Voter    string
	Author   string
	Permlink string
	Weight   int
}

// TransferCall records one Transfer broadcast.
type TransferCall struct {
	From   string
	To     string
	Amount string
	Memo   string
}

// MockGateway is an in-memory Gateway for development and testing.
// Broadcasts are recorded instead of sent.
type MockGateway struct {
	mu sync.Mutex

	Accounts map[string]*model.Account
	History  []model.HistoryEntry
	Contents map[string]*model.Post // keyed by "author/permlink"

	AccountErr  error
	HistoryErr  error
	VoteErr     error
	CommentErr  error
	TransferErr error

	votes        []VoteCall
	comments     []model.Comment
	transfers    []TransferCall
	contentCalls int
}

// NewMockGateway creates an empty MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		Accounts: make(map[string]*model.Account),
		Contents: make(map[string]*model.Post),
	}
}

// AddPost registers content returned by GetContent.
func (m *MockGateway) AddPost(p *model.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Contents[p.Author+"/"+p.Permlink] = p
}

// SetAccount registers the account returned by GetAccount.
func (m *MockGateway) SetAccount(a *model.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Accounts[a.Name] = a
}

// SetHistory replaces the history page returned by GetAccountHistory.
func (m *MockGateway) SetHistory(entries []model.HistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.History = entries
}

// SetErrors sets the injected errors under the lock.
func (m *MockGateway) SetErrors(fn func(m *MockGateway)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m)
}

func (m *MockGateway) GetAccount(_ context.Context, name string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AccountErr != nil {
		return nil, m.AccountErr
	}
	a, ok := m.Accounts[name]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", name, ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *MockGateway) GetAccountHistory(_ context.Context, _ string, _ int64, limit int) ([]model.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	h := m.History
	if limit > 0 && len(h) > limit {
		h = h[:limit]
	}
	out := make([]model.HistoryEntry, len(h))
	copy(out, h)
	return out, nil
}

func (m *MockGateway) GetContent(_ context.Context, author, permlink string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contentCalls++
	p, ok := m.Contents[author+"/"+permlink]
	if !ok {
		return nil, fmt.Errorf("content @%s/%s: %w", author, permlink, ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *MockGateway) Vote(_ context.Context, voter, author, permlink string, weight int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.VoteErr != nil {
		return m.VoteErr
	}
	m.votes = append(m.votes, VoteCall{Voter: voter, Author: author, Permlink: permlink, Weight: weight})
	return nil
}

func (m *MockGateway) Comment(_ context.Context, c model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CommentErr != nil {
		return m.CommentErr
	}
	m.comments = append(m.comments, c)
	return nil
}

func (m *MockGateway) Transfer(_ context.Context, from, to, amount, memo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TransferErr != nil {
		return m.TransferErr
	}
	m.transfers = append(m.transfers, TransferCall{From: from, To: to, Amount: amount, Memo: memo})
	return nil
}

// Votes returns the recorded vote broadcasts.
func (m *MockGateway) Votes() []VoteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]VoteCall(nil), m.votes...)
}

// Comments returns the recorded comment broadcasts.
func (m *MockGateway) Comments() []model.Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Comment(nil), m.comments...)
}

// Transfers returns the recorded transfer broadcasts.
func (m *MockGateway) Transfers() []TransferCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TransferCall(nil), m.transfers...)
}

// ContentCalls returns how many times GetContent was called.
func (m *MockGateway) ContentCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contentCalls
}
