package debate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventSink receives every record of every debate, in order.
type EventSink interface {
	Publish(ctx context.Context, r Record) error
}

// Archive stores the final state of a finished debate.
type Archive interface {
	SaveDebate(ctx context.Context, debateID string, s DebateState) error
}

// ManagerConfig holds the collaborators of a Manager.
type ManagerConfig struct {
	Roster    RosterProvider
	Generator Generator
	// Simulator answers for debates started in simulation mode. Defaults to a
	// MockGenerator.
	Simulator Generator
	Options   Options
	Sinks     []EventSink
	Archive   Archive
	// BufferSize is how many records late joiners can replay.
	BufferSize int
}

// StatusInfo is the summary served by the status endpoint
type StatusInfo struct {
	IsRunning      bool   `json:"is_running"`
	DebateID       string `json:"debate_id,omitempty"`
	Topic          string `json:"topic,omitempty"`
	Phase          Phase  `json:"phase,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	TotalMessages  int    `json:"total_messages"`
	TotalRounds    int    `json:"total_rounds"`
}

type session struct {
	id     string
	cfg    Config
	orch   *Orchestrator
	seq    int
	ended  bool // set under Manager.mu once subscribers are finished
	done   chan struct{}
	cancel context.CancelFunc
}

// Manager runs at most one debate at a time in the background and fans its
// events out to subscribers, sinks and the replay buffer.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger
	buffer *EventBuffer

	mu          sync.RWMutex
	current     *session
	subscribers []*subscriber
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Simulator == nil {
		cfg.Simulator = NewMockGenerator()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger(cfg.Options.Logger).With("component", "manager"),
		buffer: NewEventBuffer(cfg.BufferSize),
	}
}

// Start launches a debate in a background goroutine and returns its id.
func (m *Manager) Start(cfg Config, simulate bool) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.isActive(m.current) {
		return "", ErrDebateInProgress
	}

	gen := m.cfg.Generator
	if simulate || gen == nil {
		gen = m.cfg.Simulator
	}
	if ta, ok := gen.(TopicAware); ok {
		ta.SetTopic(cfg.Topic)
	}
	ctx, cancel := context.WithCancel(context.Background())
	sess := &session{
		id:     uuid.New().String(),
		cfg:    cfg,
		orch:   NewOrchestrator(m.cfg.Roster, gen, m.cfg.Options),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	m.current = sess
	m.buffer.Clear()

	m.logger.Info("starting debate", "debate_id", sess.id, "topic", cfg.Topic, "simulation", simulate)
	go m.run(ctx, sess)
	return sess.id, nil
}

func (m *Manager) run(ctx context.Context, sess *session) {
	defer close(sess.done)
	defer sess.cancel()

	for ev := range sess.orch.Run(ctx, sess.cfg) {
		m.dispatch(ctx, sess, ev)
	}

	if st, ok := sess.orch.State(); ok && m.cfg.Archive != nil {
		actx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := m.cfg.Archive.SaveDebate(actx, sess.id, st); err != nil {
			m.logger.Error("archive debate failed", "debate_id", sess.id, "error", err)
		}
		cancel()
	}

	m.mu.Lock()
	sess.ended = true
	for _, sub := range m.subscribers {
		sub.finish()
	}
	m.subscribers = nil
	m.mu.Unlock()
	m.logger.Info("debate finished", "debate_id", sess.id)
}

func (m *Manager) dispatch(ctx context.Context, sess *session, ev Event) {
	sess.seq++
	rec, err := NewRecord(sess.id, sess.seq, ev)
	if err != nil {
		m.logger.Error("dropping event", "type", ev.Type(), "error", err)
		return
	}

	m.mu.Lock()
	m.buffer.Add(rec)
	kept := m.subscribers[:0]
	for _, sub := range m.subscribers {
		if sub.push(rec) {
			kept = append(kept, sub)
			continue
		}
		m.logger.Warn("subscriber fell behind, closing its stream", "debate_id", sess.id, "seq", rec.Seq)
	}
	clear(m.subscribers[len(kept):])
	m.subscribers = kept
	m.mu.Unlock()

	for _, sink := range m.cfg.Sinks {
		sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := sink.Publish(sctx, rec); err != nil {
			m.logger.Warn("event sink publish failed", "type", rec.Type, "error", err)
		}
		cancel()
	}
}

// Subscribe returns a channel of live records and the records already
// buffered. Every live record is delivered in order however slowly the
// channel is read; the channel is closed after the debate's last record.
// A client more than maxPendingRecords behind has its channel closed early
// and can catch up from Events. With no debate running the channel is
// returned closed.
func (m *Manager) Subscribe() (<-chan Record, []Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.buffer.All()
	if m.current == nil || m.current.ended {
		ch := make(chan Record)
		close(ch)
		return ch, history
	}
	sub := newSubscriber()
	m.subscribers = append(m.subscribers, sub)
	return sub.out, history
}

// Unsubscribe removes a client channel and closes it.
func (m *Manager) Unsubscribe(ch <-chan Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub.out == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			sub.cancel()
			return
		}
	}
	// Already finished or cut off: let its pump deliver the tail and exit.
	go func() {
		for range ch {
		}
	}()
}

// Stop asks the running debate to conclude early. It returns ErrNoDebate
// when no debate is running.
func (m *Manager) Stop() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil || !m.isActive(m.current) {
		return ErrNoDebate
	}
	m.current.orch.Stop()
	return nil
}

// Wait blocks until the current debate has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.RLock()
	sess := m.current
	m.mu.RUnlock()
	if sess == nil {
		return ErrNoDebate
	}
	select {
	case <-sess.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status reports on the current or most recent debate.
func (m *Manager) Status() StatusInfo {
	m.mu.RLock()
	sess := m.current
	m.mu.RUnlock()
	if sess == nil {
		return StatusInfo{}
	}

	info := StatusInfo{
		IsRunning: m.isActive(sess),
		DebateID:  sess.id,
		Topic:     sess.cfg.Topic,
	}
	if st, ok := sess.orch.State(); ok {
		info.Phase = st.Phase
		info.ElapsedSeconds = st.ElapsedSeconds
		info.TotalMessages = len(st.Messages)
		info.TotalRounds = st.CurrentRound
	}
	return info
}

// State returns the full state of the current or most recent debate.
func (m *Manager) State() (DebateState, error) {
	m.mu.RLock()
	sess := m.current
	m.mu.RUnlock()
	if sess == nil {
		return DebateState{}, ErrNoDebate
	}
	st, ok := sess.orch.State()
	if !ok {
		return DebateState{}, ErrNoDebate
	}
	return st, nil
}

// Events returns buffered records, all of them when since is zero.
func (m *Manager) Events(since time.Time) []Record {
	if since.IsZero() {
		return m.buffer.All()
	}
	return m.buffer.Since(since)
}

// Roster exposes the participants debates are started with.
func (m *Manager) Roster() RosterProvider {
	return m.cfg.Roster
}

func (m *Manager) isActive(sess *session) bool {
	select {
	case <-sess.done:
		return false
	default:
		return true
	}
}
