// Package store archives finished debates in Postgres or SQLite.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"agentic_debate/pkg/core/debate"
)

// ErrNotFound is returned when no archived debate has the requested id.
var ErrNotFound = errors.New("debate not found")

// Archive is implemented by both backends. It satisfies debate.Archive.
type Archive interface {
	debate.Archive
	GetDebate(ctx context.Context, debateID string) (debate.DebateState, error)
	Close()
}

func encodeState(s debate.DebateState) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode debate state: %w", err)
	}
	return data, nil
}

func decodeState(data []byte) (debate.DebateState, error) {
	var s debate.DebateState
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode debate state: %w", err)
	}
	return s, nil
}
