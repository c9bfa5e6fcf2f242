// Package debate implements the turn-based debate engine: a phase state machine
// over a single DebateState, the turn, voting, switch and conclusion steps that
// mutate it, and the Orchestrator that sequences them under a time budget while
// emitting an ordered stream of typed events.
package debate

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// DebateState is the aggregate root of one debate. It is exclusively owned by
// the Orchestrator running the debate; readers get copies via Clone.
type DebateState struct {
	// Config, immutable after Initialize
	Topic                string `json:"topic"`
	TotalDurationSeconds int    `json:"total_duration_seconds"`
	ExchangesPerRound    int    `json:"exchanges_per_round"`

	// Roster
	ActivePropositionID string   `json:"active_proposition_id"`
	OppositionID        string   `json:"opposition_id"`
	ObserverIDs         []string `json:"observer_ids"`
	AllPropositionIDs   []string `json:"all_proposition_ids"`

	// History
	Messages             []Message `json:"messages"`
	CurrentRound         int       `json:"current_round"`
	CurrentExchangeCount int       `json:"current_exchange_count"`

	// Voting, current round only
	CurrentVotes           []Vote    `json:"current_votes"`
	VoteTally              VoteTally `json:"vote_tally"`
	SubjectUnderEvaluation string    `json:"subject_under_evaluation,omitempty"`

	Switches []SwitchRecord `json:"switches"`

	// Timer
	StartTime      time.Time `json:"start_time"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	PausedSeconds  float64   `json:"paused_seconds"`
	IsPaused       bool      `json:"is_paused"`

	Phase        Phase        `json:"phase"`
	Status       DebateStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Summary      string       `json:"summary,omitempty"`

	pausedAt time.Time
	now      func() time.Time
}

// InitParams are the inputs of Initialize.
type InitParams struct {
	Topic               string
	DurationSeconds     int
	ExchangesPerRound   int
	AllPropositionIDs   []string
	OppositionID        string
	ActivePropositionID string
	// ObserverIDs defaults to AllPropositionIDs minus the active id.
	ObserverIDs []string
}

// StateOption customizes a new DebateState.
type StateOption func(*DebateState)

// WithClock replaces time.Now as the state's time source.
func WithClock(now func() time.Time) StateOption {
	return func(s *DebateState) {
		s.now = now
	}
}

// Initialize validates the inputs and creates the state in phase initializing.
func Initialize(p InitParams, opts ...StateOption) (*DebateState, error) {
	if p.Topic == "" {
		return nil, configErrorf("topic is required")
	}
	if p.DurationSeconds <= 0 {
		return nil, configErrorf("duration must be positive, got %d", p.DurationSeconds)
	}
	if p.ExchangesPerRound <= 0 {
		return nil, configErrorf("exchanges_per_round must be positive, got %d", p.ExchangesPerRound)
	}
	if len(p.AllPropositionIDs) == 0 {
		return nil, configErrorf("at least one proposition participant is required")
	}
	if !slices.Contains(p.AllPropositionIDs, p.ActivePropositionID) {
		return nil, configErrorf("active proposition %q is not in the roster", p.ActivePropositionID)
	}
	if p.OppositionID == "" {
		return nil, configErrorf("opposition participant is required")
	}

	all := slices.Clone(p.AllPropositionIDs)
	var observers []string
	if p.ObserverIDs == nil {
		for _, id := range all {
			if id != p.ActivePropositionID {
				observers = append(observers, id)
			}
		}
	} else {
		for _, id := range p.ObserverIDs {
			if id == p.ActivePropositionID {
				return nil, configErrorf("active proposition %q cannot observe", id)
			}
			if !slices.Contains(all, id) {
				return nil, configErrorf("observer %q is not in the roster", id)
			}
		}
		// keep roster order regardless of the order supplied
		for _, id := range all {
			if slices.Contains(p.ObserverIDs, id) {
				observers = append(observers, id)
			}
		}
	}

	s := &DebateState{
		Topic:                p.Topic,
		TotalDurationSeconds: p.DurationSeconds,
		ExchangesPerRound:    p.ExchangesPerRound,
		ActivePropositionID:  p.ActivePropositionID,
		OppositionID:         p.OppositionID,
		ObserverIDs:          observers,
		AllPropositionIDs:    all,
		Messages:             []Message{},
		CurrentRound:         1,
		CurrentVotes:         []Vote{},
		Switches:             []SwitchRecord{},
		Phase:                PhaseInitializing,
		Status:               StatusRunning,
		now:                  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.StartTime = s.now()
	return s, nil
}

// IsFrozen reports whether the state has become read-only.
func (s *DebateState) IsFrozen() bool {
	return s.Phase == PhaseCompleted || s.Status == StatusError
}

// SetPhase moves to a new phase if the transition table allows it.
func (s *DebateState) SetPhase(to Phase) error {
	if s.IsFrozen() {
		return ErrStateFrozen
	}
	if !IsValidTransition(s.Phase, to) {
		return &PhaseTransitionError{From: s.Phase, To: to}
	}
	s.Phase = to
	return nil
}

// ForcePhase applies a transition without consulting the table. It still
// refuses to touch a frozen state.
func (s *DebateState) ForcePhase(to Phase) error {
	if s.IsFrozen() {
		return ErrStateFrozen
	}
	s.Phase = to
	return nil
}

// RecordMessage appends a message tagged with the current round and counts it
// as one exchange.
func (s *DebateState) RecordMessage(speakerID, speakerName string, role Role, content string) (Message, error) {
	if s.IsFrozen() {
		return Message{}, ErrStateFrozen
	}
	if !IsSpeakingRole(role) {
		return Message{}, fmt.Errorf("record message from %s: role %q cannot speak", speakerID, role)
	}
	msg := Message{
		SpeakerID:   speakerID,
		SpeakerName: speakerName,
		Role:        role,
		Content:     content,
		Timestamp:   s.now(),
		RoundNumber: s.CurrentRound,
		WordCount:   WordCount(content),
	}
	s.Messages = append(s.Messages, msg)
	s.CurrentExchangeCount++
	return msg, nil
}

// OpenVotingRound enters the voting phase for subjectID, clears the previous
// round's votes and pauses the timer.
func (s *DebateState) OpenVotingRound(subjectID string) error {
	if err := s.SetPhase(PhaseVoting); err != nil {
		return err
	}
	s.CurrentVotes = []Vote{}
	s.VoteTally = VoteTally{}
	s.SubjectUnderEvaluation = subjectID
	s.IsPaused = true
	s.pausedAt = s.now()
	s.Status = StatusPaused
	return nil
}

// RecordVote appends an eligible observer's vote and updates the tally.
func (s *DebateState) RecordVote(voterID, voterName string, decision VoteDecision, reasoning string) (Vote, error) {
	if s.IsFrozen() {
		return Vote{}, ErrStateFrozen
	}
	if ok, reason := CanVote(s, voterID); !ok {
		return Vote{}, fmt.Errorf("%w: %s: %s", ErrVoterIneligible, voterID, reason)
	}
	if !IsValidVote(decision) {
		return Vote{}, fmt.Errorf("%w: %q", ErrInvalidVote, decision)
	}
	v := Vote{
		VoterID:     voterID,
		VoterName:   voterName,
		SubjectID:   s.SubjectUnderEvaluation,
		Decision:    decision,
		Reasoning:   reasoning,
		Timestamp:   s.now(),
		RoundNumber: s.CurrentRound,
	}
	s.CurrentVotes = append(s.CurrentVotes, v)
	if decision == VoteOut {
		s.VoteTally.Out++
	} else {
		s.VoteTally.In++
	}
	return v, nil
}

// CloseVotingRound decides the round, resumes the timer and starts the next
// round. Ties favor the incumbent.
func (s *DebateState) CloseVotingRound() (Decision, error) {
	if s.Phase != PhaseVoting {
		return "", &PhaseTransitionError{From: s.Phase, To: PhaseDebating}
	}
	if err := s.SetPhase(PhaseDebating); err != nil {
		return "", err
	}
	decision := Decide(s.VoteTally)
	s.resume()
	s.CurrentExchangeCount = 0
	s.CurrentRound++
	return decision, nil
}

// ApplySwitch replaces the active proposition speaker with an observer,
// moving the old speaker into the observer set.
func (s *DebateState) ApplySwitch(oldP, newP Participant, reason string) (SwitchRecord, error) {
	if s.IsFrozen() {
		return SwitchRecord{}, ErrStateFrozen
	}
	if oldP.ID != s.ActivePropositionID {
		return SwitchRecord{}, fmt.Errorf("switch: %s is not the active speaker", oldP.ID)
	}
	if !slices.Contains(s.ObserverIDs, newP.ID) {
		return SwitchRecord{}, fmt.Errorf("switch: %s is not an observer", newP.ID)
	}
	rec := SwitchRecord{
		OldSubjectID:   oldP.ID,
		OldSubjectName: oldP.Name,
		NewSubjectID:   newP.ID,
		NewSubjectName: newP.Name,
		Reason:         reason,
		VoteTally:      s.VoteTally,
		RoundNumber:    s.CurrentRound,
		Timestamp:      s.now(),
	}
	s.Switches = append(s.Switches, rec)
	s.ActivePropositionID = newP.ID

	observers := make([]string, 0, len(s.ObserverIDs))
	for _, id := range s.AllPropositionIDs {
		if id == newP.ID {
			continue
		}
		if id == oldP.ID || slices.Contains(s.ObserverIDs, id) {
			observers = append(observers, id)
		}
	}
	s.ObserverIDs = observers
	return rec, nil
}

// TickTimer refreshes ElapsedSeconds. It does nothing while the timer is paused.
func (s *DebateState) TickTimer() {
	if s.IsPaused || s.IsFrozen() {
		return
	}
	total := s.now().Sub(s.StartTime).Seconds()
	elapsed := int(math.Floor(total - s.PausedSeconds))
	if elapsed < 0 {
		elapsed = 0
	}
	s.ElapsedSeconds = elapsed
}

// RemainingSeconds is the unused part of the time budget, never negative.
func (s *DebateState) RemainingSeconds() int {
	return max(0, s.TotalDurationSeconds-s.ElapsedSeconds)
}

// SetError marks the run as failed. History is kept.
func (s *DebateState) SetError(message string) {
	if s.Status == StatusError {
		return
	}
	if s.IsPaused {
		s.resume()
	}
	s.Status = StatusError
	s.ErrorMessage = message
}

// Complete stores the summary and finishes the debate.
func (s *DebateState) Complete(summary string) error {
	if err := s.SetPhase(PhaseCompleted); err != nil {
		return err
	}
	s.Summary = summary
	s.Status = StatusCompleted
	return nil
}

func (s *DebateState) resume() {
	if !s.IsPaused {
		return
	}
	s.PausedSeconds += s.now().Sub(s.pausedAt).Seconds()
	s.IsPaused = false
	if s.Status == StatusPaused {
		s.Status = StatusRunning
	}
}

// LastMessageByRole returns the most recent message spoken from role.
func (s *DebateState) LastMessageByRole(role Role) (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == role {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// RecentMessages returns up to n of the latest messages, oldest first.
func (s *DebateState) RecentMessages(n int) []Message {
	if n <= 0 {
		return nil
	}
	start := max(0, len(s.Messages)-n)
	return slices.Clone(s.Messages[start:])
}

// Clone returns a deep copy that is safe to hand to another goroutine.
func (s *DebateState) Clone() DebateState {
	c := *s
	c.ObserverIDs = slices.Clone(s.ObserverIDs)
	c.AllPropositionIDs = slices.Clone(s.AllPropositionIDs)
	c.Messages = slices.Clone(s.Messages)
	c.CurrentVotes = slices.Clone(s.CurrentVotes)
	c.Switches = slices.Clone(s.Switches)
	return c
}

// FormatSeconds renders seconds as MM:SS.
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
