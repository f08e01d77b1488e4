package cursor

import (
	"sync"
	"time"

	"PostPromoter/internal/model"
)

// Cursor remembers which history records have been evaluated so that each
// one is handed out at most once per process lifetime.
type Cursor struct {
	mu        sync.Mutex
	startTime time.Time
	lastID    int64
}

// New creates a cursor that ignores everything recorded at or before startTime.
func New(startTime time.Time) *Cursor {
	return &Cursor{startTime: startTime, lastID: -1}
}

// Advance filters a history page down to the records not yet evaluated:
// timestamp strictly after process start and id strictly greater than the
// last committed id. The page's order is preserved.
func (c *Cursor) Advance(history []model.HistoryEntry) []model.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var pending []model.HistoryEntry
	for _, h := range history {
		if h.Timestamp.After(c.startTime) && h.ID > c.lastID {
			pending = append(pending, h)
		}
	}
	return pending
}

// Commit records id as evaluated. The cursor only moves forward.
func (c *Cursor) Commit(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id > c.lastID {
		c.lastID = id
	}
}

// LastID returns the highest committed id, or -1 if none.
func (c *Cursor) LastID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastID
}

// StartTime returns the process-start watermark.
func (c *Cursor) StartTime() time.Time {
	return c.startTime
}
