package ledger

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"PostPromoter/internal/logger"
	"PostPromoter/internal/model"
)

// serialGateway holds one lock across all broadcasts so that votes, comments
// and refunds never reach the ledger concurrently.
type serialGateway struct {
	Gateway
	mu sync.Mutex
}

// Serialize wraps gw so that its mutating calls run one at a time.
func Serialize(gw Gateway) Gateway {
	return &serialGateway{Gateway: gw}
}

func (s *serialGateway) Vote(ctx context.Context, voter, author, permlink string, weight int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Gateway.Vote(ctx, voter, author, permlink, weight)
}

func (s *serialGateway) Comment(ctx context.Context, c model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Gateway.Comment(ctx, c)
}

func (s *serialGateway) Transfer(ctx context.Context, from, to, amount, memo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Gateway.Transfer(ctx, from, to, amount, memo)
}

// dryRunGateway reads from the ledger but only logs broadcasts.
type dryRunGateway struct {
	Gateway
}

// DryRun wraps gw so that broadcasts are logged and never sent.
func DryRun(gw Gateway) Gateway {
	return dryRunGateway{Gateway: gw}
}

func (d dryRunGateway) Vote(_ context.Context, voter, author, permlink string, weight int) error {
	logger.Info("dry-run vote", zap.String("voter", voter), zap.String("author", author),
		zap.String("permlink", permlink), zap.Int("weight", weight))
	return nil
}

func (d dryRunGateway) Comment(_ context.Context, c model.Comment) error {
	logger.Info("dry-run comment", zap.String("parent_author", c.ParentAuthor),
		zap.String("parent_permlink", c.ParentPermlink), zap.String("permlink", c.Permlink))
	return nil
}

func (d dryRunGateway) Transfer(_ context.Context, from, to, amount, memo string) error {
	logger.Info("dry-run transfer", zap.String("from", from), zap.String("to", to),
		zap.String("amount", amount), zap.String("memo", memo))
	return nil
}
