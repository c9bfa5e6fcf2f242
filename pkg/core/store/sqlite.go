package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"agentic_debate/pkg/core/debate"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
PRAGMA busy_timeout = 5000;
CREATE TABLE IF NOT EXISTS debates (
	id TEXT PRIMARY KEY,
	topic TEXT NOT NULL,
	status TEXT NOT NULL,
	phase TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL,
	elapsed_seconds INTEGER NOT NULL,
	total_rounds INTEGER NOT NULL,
	final_proposition_id TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS debate_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	debate_id TEXT NOT NULL REFERENCES debates(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	round_number INTEGER NOT NULL,
	speaker_id TEXT NOT NULL,
	speaker_name TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	word_count INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_debate_messages_debate ON debate_messages(debate_id, seq);

CREATE TABLE IF NOT EXISTS debate_switches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	debate_id TEXT NOT NULL REFERENCES debates(id) ON DELETE CASCADE,
	round_number INTEGER NOT NULL,
	old_agent_id TEXT NOT NULL,
	new_agent_id TEXT NOT NULL,
	reason TEXT NOT NULL,
	in_votes INTEGER NOT NULL,
	out_votes INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
`

// SQLiteArchive writes finished debates to a local SQLite file.
type SQLiteArchive struct {
	db *sql.DB
	mu sync.Mutex // serializes writers to avoid SQLITE_BUSY
}

var _ Archive = (*SQLiteArchive)(nil)

// NewSQLiteArchive opens (creating if needed) the database at dbPath.
func NewSQLiteArchive(dbPath string) (*SQLiteArchive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteArchive{db: db}, nil
}

// SaveDebate persists the debate row, its transcript and its switch log in
// one transaction. Saving the same id twice replaces the earlier copy.
func (a *SQLiteArchive) SaveDebate(ctx context.Context, debateID string, s debate.DebateState) error {
	stateJSON, err := encodeState(s)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM debate_messages WHERE debate_id = ?`,
		`DELETE FROM debate_switches WHERE debate_id = ?`,
		`DELETE FROM debates WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, debateID); err != nil {
			return fmt.Errorf("clear debate %s: %w", debateID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO debates (id, topic, status, phase, duration_seconds, elapsed_seconds,
			total_rounds, final_proposition_id, summary, error_message, state, started_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		debateID, s.Topic, string(s.Status), string(s.Phase), s.TotalDurationSeconds, s.ElapsedSeconds,
		s.CurrentRound, s.ActivePropositionID, s.Summary, s.ErrorMessage, string(stateJSON),
		s.StartTime.Unix(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert debate: %w", err)
	}

	for i, m := range s.Messages {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO debate_messages (debate_id, seq, round_number, speaker_id, speaker_name, role, content, word_count, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			debateID, i+1, m.RoundNumber, m.SpeakerID, m.SpeakerName, string(m.Role), m.Content, m.WordCount, m.Timestamp.Unix())
		if err != nil {
			return fmt.Errorf("insert message %d: %w", i+1, err)
		}
	}
	for _, sw := range s.Switches {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO debate_switches (debate_id, round_number, old_agent_id, new_agent_id, reason, in_votes, out_votes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			debateID, sw.RoundNumber, sw.OldSubjectID, sw.NewSubjectID, sw.Reason, sw.VoteTally.In, sw.VoteTally.Out, sw.Timestamp.Unix())
		if err != nil {
			return fmt.Errorf("insert switch: %w", err)
		}
	}

	return tx.Commit()
}

// GetDebate loads the archived state of one debate.
func (a *SQLiteArchive) GetDebate(ctx context.Context, debateID string) (debate.DebateState, error) {
	var stateJSON string
	err := a.db.QueryRowContext(ctx, `SELECT state FROM debates WHERE id = ?`, debateID).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return debate.DebateState{}, ErrNotFound
	}
	if err != nil {
		return debate.DebateState{}, fmt.Errorf("load debate %s: %w", debateID, err)
	}
	return decodeState([]byte(stateJSON))
}

// MessageCount returns how many transcript rows are stored for debateID.
func (a *SQLiteArchive) MessageCount(ctx context.Context, debateID string) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM debate_messages WHERE debate_id = ?`, debateID).Scan(&n)
	return n, err
}

func (a *SQLiteArchive) Close() {
	a.db.Close()
}
