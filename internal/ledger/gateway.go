package ledger

import (
	"context"
	"errors"

	"PostPromoter/internal/model"
)

var (
	// ErrNotFound is returned when the requested content does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRPC wraps an error payload returned by the remote node.
	ErrRPC = errors.New("rpc error")
)

// Gateway defines the ledger operations the bot consumes.
type Gateway interface {
	GetAccount(ctx context.Context, name string) (*model.Account, error)
	GetAccountHistory(ctx context.Context, name string, from int64, limit int) ([]model.HistoryEntry, error)
	GetContent(ctx context.Context, author, permlink string) (*model.Post, error)

	Vote(ctx context.Context, voter, author, permlink string, weight int) error
	Comment(ctx context.Context, c model.Comment) error
	Transfer(ctx context.Context, from, to, amount, memo string) error
}
