package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"PostPromoter/internal/logger"
)

// SQLiteRecorder appends the audit trail to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transfers (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded   INTEGER NOT NULL,
			tx_id      INTEGER NOT NULL,
			tx_time    INTEGER NOT NULL,
			sender     TEXT,
			amount     TEXT,
			memo       TEXT,
			outcome    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_tx ON transfers(tx_id)`,

		`CREATE TABLE IF NOT EXISTS rejections (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded    INTEGER NOT NULL,
			tx_id       INTEGER NOT NULL,
			sender      TEXT,
			amount      TEXT,
			reason      TEXT,
			message     TEXT,
			disposition TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rejections_sender ON rejections(sender)`,

		`CREATE TABLE IF NOT EXISTS votes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded   INTEGER NOT NULL,
			tx_id      INTEGER NOT NULL,
			sender     TEXT,
			author     TEXT,
			permlink   TEXT,
			amount     TEXT,
			weight     INTEGER,
			success    INTEGER,
			error      TEXT,
			reply      TEXT,
			commented  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_post ON votes(author, permlink)`,

		`CREATE TABLE IF NOT EXISTS rounds (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			bids        INTEGER,
			total       TEXT,
			voted       INTEGER,
			failed      INTEGER,
			commented   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_ts ON rounds(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTransfer(evt *TransferEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO transfers
		(recorded, tx_id, tx_time, sender, amount, memo, outcome)
		VALUES (?,?,?,?,?,?,?)`,
		r.now().Unix(), evt.TxID, evt.Timestamp.Unix(), evt.From, evt.Amount, evt.Memo, evt.Outcome,
	)
	return err
}

func (r *SQLiteRecorder) RecordRejection(evt *RejectionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO rejections
		(recorded, tx_id, sender, amount, reason, message, disposition)
		VALUES (?,?,?,?,?,?,?)`,
		r.now().Unix(), evt.TxID, evt.Sender, evt.Amount, evt.Reason, evt.Message, evt.Disposition,
	)
	return err
}

func (r *SQLiteRecorder) RecordVote(evt *VoteEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO votes
		(recorded, tx_id, sender, author, permlink, amount, weight, success, error, reply, commented)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		r.now().Unix(), evt.TxID, evt.Sender, evt.Author, evt.Permlink, evt.Amount,
		evt.Weight, evt.Success, evt.Error, evt.Reply, evt.Commented,
	)
	return err
}

func (r *SQLiteRecorder) RecordRound(evt *RoundEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO rounds
		(started_at, finished_at, bids, total, voted, failed, commented)
		VALUES (?,?,?,?,?,?,?)`,
		evt.StartedAt.Unix(), evt.FinishedAt.Unix(), evt.Bids, evt.Total,
		evt.Voted, evt.Failed, evt.Commented,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	logger.Info("closing sqlite recorder")
	return r.db.Close()
}
