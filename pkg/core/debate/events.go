package debate

import (
	"time"
)

// EventType is the wire tag of an event
type EventType string

const (
	EventDebateStarted            EventType = "debate_started"
	EventTimerUpdate              EventType = "timer_update"
	EventAgentMessageComplete     EventType = "agent_message_complete"
	EventVotingInitiated          EventType = "voting_initiated"
	EventVoteCast                 EventType = "vote_cast"
	EventVotingComplete           EventType = "voting_complete"
	EventAgentSwitch              EventType = "agent_switch"
	EventPhaseChange              EventType = "phase_change"
	EventModeratorMessageChunk    EventType = "moderator_message_chunk"
	EventModeratorMessageComplete EventType = "moderator_message_complete"
	EventDebateComplete           EventType = "debate_complete"
	EventError                    EventType = "error"
	EventWarning                  EventType = "warning"
)

// Event is one entry of the ordered stream a debate run produces. Concrete
// events are flat structs whose JSON encoding is the wire payload.
type Event interface {
	Type() EventType
	Time() time.Time
}

// EventMeta carries the fields shared by every event.
type EventMeta struct {
	Timestamp time.Time `json:"timestamp"`
}

func (m EventMeta) Time() time.Time { return m.Timestamp }

func meta(t time.Time) EventMeta { return EventMeta{Timestamp: t} }

type DebateStartedEvent struct {
	EventMeta
	Topic             string   `json:"topic"`
	Duration          int      `json:"duration"`
	ExchangesPerRound int      `json:"exchanges_per_round"`
	FirstDebaterID    string   `json:"first_debater_id"`
	FirstDebaterName  string   `json:"first_debater_name"`
	OppositionName    string   `json:"opposition_name"`
	ObserverNames     []string `json:"observer_names"`
	TotalAgents       int      `json:"total_agents"`
}

func (DebateStartedEvent) Type() EventType { return EventDebateStarted }

type TimerUpdateEvent struct {
	EventMeta
	Elapsed            int    `json:"elapsed"`
	Remaining          int    `json:"remaining"`
	ElapsedFormatted   string `json:"elapsed_formatted"`
	RemainingFormatted string `json:"remaining_formatted"`
	IsPaused           bool   `json:"is_paused"`
}

func (TimerUpdateEvent) Type() EventType { return EventTimerUpdate }

// NewTimerUpdate snapshots the timer fields of s.
func NewTimerUpdate(s *DebateState) TimerUpdateEvent {
	return TimerUpdateEvent{
		EventMeta:          meta(s.now()),
		Elapsed:            s.ElapsedSeconds,
		Remaining:          s.RemainingSeconds(),
		ElapsedFormatted:   FormatSeconds(s.ElapsedSeconds),
		RemainingFormatted: FormatSeconds(s.RemainingSeconds()),
		IsPaused:           s.IsPaused,
	}
}

type AgentMessageCompleteEvent struct {
	EventMeta
	AgentID     string `json:"agent_id"`
	AgentName   string `json:"agent_name"`
	Role        Role   `json:"role"`
	Content     string `json:"content"`
	WordCount   int    `json:"word_count"`
	RoundNumber int    `json:"round_number"`
}

func (AgentMessageCompleteEvent) Type() EventType { return EventAgentMessageComplete }

type VotingInitiatedEvent struct {
	EventMeta
	EvaluatingAgentID   string `json:"evaluating_agent_id"`
	EvaluatingAgentName string `json:"evaluating_agent_name"`
	RoundNumber         int    `json:"round_number"`
	ObserverCount       int    `json:"observer_count"`
}

func (VotingInitiatedEvent) Type() EventType { return EventVotingInitiated }

type VoteCastEvent struct {
	EventMeta
	VoterID   string       `json:"voter_id"`
	VoterName string       `json:"voter_name"`
	Vote      VoteDecision `json:"vote"`
	Reasoning string       `json:"reasoning"`
}

func (VoteCastEvent) Type() EventType { return EventVoteCast }

type VotingCompleteEvent struct {
	EventMeta
	EvaluatingAgentID   string   `json:"evaluating_agent_id"`
	EvaluatingAgentName string   `json:"evaluating_agent_name"`
	InVotes             int      `json:"in_votes"`
	OutVotes            int      `json:"out_votes"`
	Decision            Decision `json:"decision"`
	Votes               []Vote   `json:"votes"`
}

func (VotingCompleteEvent) Type() EventType { return EventVotingComplete }

type AgentSwitchEvent struct {
	EventMeta
	OldAgentID   string    `json:"old_agent_id"`
	OldAgentName string    `json:"old_agent_name"`
	NewAgentID   string    `json:"new_agent_id"`
	NewAgentName string    `json:"new_agent_name"`
	Reason       string    `json:"reason"`
	VoteTally    VoteTally `json:"vote_tally"`
	RoundNumber  int       `json:"round_number"`
}

func (AgentSwitchEvent) Type() EventType { return EventAgentSwitch }

type PhaseChangeEvent struct {
	EventMeta
	OldPhase Phase  `json:"old_phase"`
	NewPhase Phase  `json:"new_phase"`
	Message  string `json:"message"`
}

func (PhaseChangeEvent) Type() EventType { return EventPhaseChange }

type ModeratorMessageChunkEvent struct {
	EventMeta
	Chunk string `json:"chunk"`
}

func (ModeratorMessageChunkEvent) Type() EventType { return EventModeratorMessageChunk }

type ModeratorMessageCompleteEvent struct {
	EventMeta
	Summary    string `json:"summary"`
	WordCount  int    `json:"word_count"`
	IsFallback bool   `json:"is_fallback"`
}

func (ModeratorMessageCompleteEvent) Type() EventType { return EventModeratorMessageComplete }

type DebateCompleteEvent struct {
	EventMeta
	Topic                 string     `json:"topic"`
	DurationSeconds       int        `json:"duration_seconds"`
	TotalMessages         int        `json:"total_messages"`
	TotalRounds           int        `json:"total_rounds"`
	TotalSwitches         int        `json:"total_switches"`
	FinalPropositionAgent string     `json:"final_proposition_agent"`
	Statistics            Statistics `json:"statistics"`
	SummaryPreview        string     `json:"summary_preview"`
}

func (DebateCompleteEvent) Type() EventType { return EventDebateComplete }

type ErrorEvent struct {
	EventMeta
	Step       string `json:"step"`
	Error      string `json:"error"`
	IsCritical bool   `json:"is_critical"`
	AgentID    string `json:"agent_id,omitempty"`
}

func (ErrorEvent) Type() EventType { return EventError }

type WarningEvent struct {
	EventMeta
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (WarningEvent) Type() EventType { return EventWarning }

// Emit receives events in generation order.
type Emit func(Event)
