package cursor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"PostPromoter/internal/model"
)

var start = time.Date(2018, 3, 1, 12, 0, 0, 0, time.UTC)

func entry(id int64, offset time.Duration) model.HistoryEntry {
	return model.HistoryEntry{ID: id, Op: model.OpTransfer, Timestamp: start.Add(offset)}
}

func ids(entries []model.HistoryEntry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestAdvance_SkipsRecordsBeforeStart(t *testing.T) {
	c := New(start)
	page := []model.HistoryEntry{
		entry(12, 2*time.Second),
		entry(11, 0), // exactly at start: not strictly after
		entry(10, -time.Minute),
	}
	assert.Equal(t, []int64{12}, ids(c.Advance(page)))
}

func TestAdvance_PreservesOrder(t *testing.T) {
	c := New(start)
	desc := []model.HistoryEntry{entry(5, 3*time.Second), entry(4, 2*time.Second), entry(3, time.Second)}
	assert.Equal(t, []int64{5, 4, 3}, ids(c.Advance(desc)))
}

func TestAdvance_NeverReturnsCommittedRecords(t *testing.T) {
	c := New(start)
	page := []model.HistoryEntry{entry(3, time.Second), entry(4, 2*time.Second)}

	for _, e := range c.Advance(page) {
		c.Commit(e.ID)
	}
	assert.Empty(t, c.Advance(page))

	page = append(page, entry(5, 3*time.Second))
	assert.Equal(t, []int64{5}, ids(c.Advance(page)))
}

func TestAdvance_UncommittedRecordsAreRetried(t *testing.T) {
	c := New(start)
	page := []model.HistoryEntry{entry(7, time.Second)}

	// a tick that fails before committing leaves the cursor where it was
	assert.Len(t, c.Advance(page), 1)
	assert.Len(t, c.Advance(page), 1)
	assert.Equal(t, int64(-1), c.LastID())
}

func TestCommit_Monotonic(t *testing.T) {
	c := New(start)
	c.Commit(9)
	c.Commit(4)
	assert.Equal(t, int64(9), c.LastID())
}
