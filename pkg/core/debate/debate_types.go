package debate

import (
	"time"
)

// Role is the side a participant takes in the debate
type Role string

const (
	RoleProposition Role = "proposition"
	RoleOpposition  Role = "opposition"
	RoleModerator   Role = "moderator"
)

// Phase is the position of the debate in its state machine
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseDebating     Phase = "debating"
	PhaseVoting       Phase = "voting"
	PhaseConcluding   Phase = "concluding"
	PhaseCompleted    Phase = "completed"
)

// DebateStatus enumerates the lifecycle states of a debate run
type DebateStatus string

const (
	StatusRunning   DebateStatus = "running"
	StatusPaused    DebateStatus = "paused"
	StatusCompleted DebateStatus = "completed"
	StatusError     DebateStatus = "error"
)

// VoteDecision is an observer's verdict on the active speaker
type VoteDecision string

const (
	VoteIn  VoteDecision = "in"
	VoteOut VoteDecision = "out"
)

// Decision is the outcome of a closed voting round
type Decision string

const (
	DecisionSwitch Decision = "switch"
	DecisionStay   Decision = "stay"
)

// RoundOutcome is the result of the round-completion check
type RoundOutcome string

const (
	OutcomeTimeExpired RoundOutcome = "time_expired"
	OutcomeVote        RoundOutcome = "vote"
	OutcomeContinue    RoundOutcome = "continue"
)

// Participant is an immutable agent identity taken from the roster at debate start.
type Participant struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Role        Role   `json:"role" yaml:"role"`
	Personality string `json:"personality_type" yaml:"personality_type"`
	Behavior    string `json:"behavior,omitempty" yaml:"behavior"`
	Icon        string `json:"icon,omitempty" yaml:"icon"`
}

// Message is one recorded argument. Messages are append-only.
type Message struct {
	SpeakerID   string    `json:"speaker_id"`
	SpeakerName string    `json:"speaker_name"`
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
	RoundNumber int       `json:"round_number"`
	WordCount   int       `json:"word_count"`
}

// Vote is a single observer's verdict within the current voting round
type Vote struct {
	VoterID     string       `json:"voter_id"`
	VoterName   string       `json:"voter_name"`
	SubjectID   string       `json:"subject_id"`
	Decision    VoteDecision `json:"vote"`
	Reasoning   string       `json:"reasoning"`
	Timestamp   time.Time    `json:"timestamp"`
	RoundNumber int          `json:"round_number"`
}

// VoteTally counts the votes of the current round
type VoteTally struct {
	In  int `json:"in"`
	Out int `json:"out"`
}

// Total returns the number of votes counted
func (t VoteTally) Total() int {
	return t.In + t.Out
}

// SwitchRecord is the audit entry written whenever the active speaker is replaced
type SwitchRecord struct {
	OldSubjectID   string    `json:"old_agent_id"`
	OldSubjectName string    `json:"old_agent_name"`
	NewSubjectID   string    `json:"new_agent_id"`
	NewSubjectName string    `json:"new_agent_name"`
	Reason         string    `json:"reason"`
	VoteTally      VoteTally `json:"vote_tally"`
	RoundNumber    int       `json:"round_number"`
	Timestamp      time.Time `json:"timestamp"`
}

// Config holds the user-supplied settings of one debate
type Config struct {
	Topic             string `json:"topic"`
	DurationSeconds   int    `json:"duration"`
	ExchangesPerRound int    `json:"exchanges_per_round"`
	FirstAgentID      string `json:"first_agent_id,omitempty"`
}

// Statistics are derived from state at conclusion time
type Statistics struct {
	TotalMessages        int            `json:"total_messages"`
	TotalWords           int            `json:"total_words"`
	AverageMessageLength float64        `json:"average_message_length"`
	MessagesPerAgent     map[string]int `json:"messages_per_agent"`
	WordsPerAgent        map[string]int `json:"words_per_agent"`
	TotalRounds          int            `json:"total_rounds"`
	TotalSwitches        int            `json:"total_switches"`
	ElapsedSeconds       int            `json:"elapsed_seconds"`
	Duration             int            `json:"duration"`
	Phase                Phase          `json:"phase"`
	Status               DebateStatus   `json:"status"`
}

// Validate checks the user-supplied settings before a debate is started.
func (c Config) Validate() error {
	if c.Topic == "" {
		return configErrorf("topic is required")
	}
	if c.DurationSeconds <= 0 {
		return configErrorf("duration must be positive, got %d", c.DurationSeconds)
	}
	if c.ExchangesPerRound <= 0 {
		return configErrorf("exchanges_per_round must be positive, got %d", c.ExchangesPerRound)
	}
	return nil
}
