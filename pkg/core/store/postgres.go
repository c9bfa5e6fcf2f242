package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"agentic_debate/pkg/core/debate"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/001_debates.sql
var postgresSchema string

// PostgresArchive writes finished debates to Postgres.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

var _ Archive = (*PostgresArchive)(nil)

// NewPostgresArchive connects to databaseURL and applies the schema.
func NewPostgresArchive(ctx context.Context, databaseURL string) (*PostgresArchive, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &PostgresArchive{pool: pool}, nil
}

// SaveDebate persists the debate row, its transcript and its switch log in
// one transaction. Saving the same id twice replaces the earlier copy.
func (a *PostgresArchive) SaveDebate(ctx context.Context, debateID string, s debate.DebateState) error {
	stateJSON, err := encodeState(s)
	if err != nil {
		return err
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM debates WHERE id = $1`, debateID); err != nil {
		return fmt.Errorf("failed to clear debate %s: %w", debateID, err)
	}

	query := `
		INSERT INTO debates (id, topic, status, phase, duration_seconds, elapsed_seconds,
			total_rounds, final_proposition_id, summary, error_message, state, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.Exec(ctx, query, debateID, s.Topic, string(s.Status), string(s.Phase),
		s.TotalDurationSeconds, s.ElapsedSeconds, s.CurrentRound, s.ActivePropositionID,
		s.Summary, s.ErrorMessage, stateJSON, s.StartTime)
	if err != nil {
		return fmt.Errorf("failed to insert debate: %w", err)
	}

	batch := &pgx.Batch{}
	for i, m := range s.Messages {
		batch.Queue(`
			INSERT INTO debate_messages (debate_id, seq, round_number, speaker_id, speaker_name, role, content, word_count, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, debateID, i+1, m.RoundNumber, m.SpeakerID, m.SpeakerName, string(m.Role), m.Content, m.WordCount, m.Timestamp)
	}
	for _, sw := range s.Switches {
		batch.Queue(`
			INSERT INTO debate_switches (debate_id, round_number, old_agent_id, new_agent_id, reason, in_votes, out_votes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, debateID, sw.RoundNumber, sw.OldSubjectID, sw.NewSubjectID, sw.Reason, sw.VoteTally.In, sw.VoteTally.Out, sw.Timestamp)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert transcript: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetDebate loads the archived state of one debate.
func (a *PostgresArchive) GetDebate(ctx context.Context, debateID string) (debate.DebateState, error) {
	var stateJSON []byte
	err := a.pool.QueryRow(ctx, `SELECT state FROM debates WHERE id = $1`, debateID).Scan(&stateJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return debate.DebateState{}, ErrNotFound
	}
	if err != nil {
		return debate.DebateState{}, fmt.Errorf("failed to load debate %s: %w", debateID, err)
	}
	return decodeState(stateJSON)
}

func (a *PostgresArchive) Close() {
	a.pool.Close()
}
