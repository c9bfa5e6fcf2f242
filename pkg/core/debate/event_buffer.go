package debate

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// DefaultBufferSize is how many records a new EventBuffer keeps.
const DefaultBufferSize = 500

// Record is an encoded event as delivered to subscribers, sinks and
// late-joining clients.
type Record struct {
	DebateID  string          `json:"debate_id"`
	Seq       int             `json:"seq"`
	Type      EventType       `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewRecord encodes e once for every downstream consumer.
func NewRecord(debateID string, seq int, e Event) (Record, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s event: %w", e.Type(), err)
	}
	return Record{
		DebateID:  debateID,
		Seq:       seq,
		Type:      e.Type(),
		Timestamp: e.Time(),
		Data:      data,
	}, nil
}

// EventBuffer keeps the most recent records of the current debate.
type EventBuffer struct {
	mu      sync.RWMutex
	max     int
	records []Record
}

func NewEventBuffer(max int) *EventBuffer {
	if max <= 0 {
		max = DefaultBufferSize
	}
	return &EventBuffer{max: max}
}

func (b *EventBuffer) Add(r Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, r)
	if len(b.records) > b.max {
		b.records = append([]Record(nil), b.records[len(b.records)-b.max:]...)
	}
}

// All returns a copy of the buffered records, oldest first.
func (b *EventBuffer) All() []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Record(nil), b.records...)
}

// Since returns the records stamped strictly after t.
func (b *EventBuffer) Since(t time.Time) []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Record
	for _, r := range b.records {
		if r.Timestamp.After(t) {
			out = append(out, r)
		}
	}
	return out
}

func (b *EventBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = nil
}

func (b *EventBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}
