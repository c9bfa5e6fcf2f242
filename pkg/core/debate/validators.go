package debate

import (
	"slices"
	"strings"
)

// allowedTransitions is the phase table. completed has no exits.
var allowedTransitions = map[Phase][]Phase{
	PhaseInitializing: {PhaseDebating},
	PhaseDebating:     {PhaseVoting, PhaseConcluding, PhaseCompleted},
	PhaseVoting:       {PhaseDebating, PhaseConcluding},
	PhaseConcluding:   {PhaseCompleted},
	PhaseCompleted:    {},
}

// IsValidTransition reports whether from -> to appears in the phase table.
func IsValidTransition(from, to Phase) bool {
	return slices.Contains(allowedTransitions[from], to)
}

// IsValidVote reports whether decision is "in" or "out".
func IsValidVote(decision VoteDecision) bool {
	return decision == VoteIn || decision == VoteOut
}

// IsSpeakingRole reports whether role may record debate messages.
func IsSpeakingRole(role Role) bool {
	return role == RoleProposition || role == RoleOpposition
}

// IsValidRole reports whether role is one of the three participant roles.
func IsValidRole(role Role) bool {
	return IsSpeakingRole(role) || role == RoleModerator
}

// ExchangesComplete reports whether the current round has used its exchanges.
func ExchangesComplete(s *DebateState) bool {
	return s.CurrentExchangeCount >= s.ExchangesPerRound
}

// TimeRemaining reports whether the time budget is not yet used up.
func TimeRemaining(s *DebateState) bool {
	return s.ElapsedSeconds < s.TotalDurationSeconds
}

// CanVote checks phase, observer membership and duplicate votes. The reason is
// empty when the vote is allowed.
func CanVote(s *DebateState, voterID string) (bool, string) {
	if s.Phase != PhaseVoting {
		return false, "not in voting phase"
	}
	if !slices.Contains(s.ObserverIDs, voterID) {
		return false, "voter is not an observer"
	}
	for _, v := range s.CurrentVotes {
		if v.VoterID == voterID {
			return false, "voter has already voted this round"
		}
	}
	return true, ""
}

// CheckRoundCompletion decides what the loop does after a pair of turns.
func CheckRoundCompletion(s *DebateState) RoundOutcome {
	if !TimeRemaining(s) && s.Phase != PhaseCompleted {
		return OutcomeTimeExpired
	}
	if s.Phase == PhaseDebating && ExchangesComplete(s) {
		return OutcomeVote
	}
	return OutcomeContinue
}

// Decide maps a tally to a round decision. A strict majority of "out" votes
// is needed to switch; ties keep the incumbent.
func Decide(t VoteTally) Decision {
	if t.Out > t.In {
		return DecisionSwitch
	}
	return DecisionStay
}

// WordCount counts whitespace separated words.
func WordCount(content string) int {
	return len(strings.Fields(content))
}
