package debate

import (
	"fmt"
	"log/slog"
)

const NoReplacementMessage = "No replacement agents available. Continuing with current agent."

// SwitchHandler applies the outcome of a voting round to the roster.
type SwitchHandler struct {
	Roster RosterProvider
	Logger *slog.Logger
}

// SelectReplacement returns the first observer in roster order.
func SelectReplacement(s *DebateState) (string, bool) {
	if len(s.ObserverIDs) == 0 {
		return "", false
	}
	return s.ObserverIDs[0], true
}

// SwitchReason embeds the tally that caused a switch.
func SwitchReason(t VoteTally) string {
	return fmt.Sprintf("Voted out with %d out votes vs %d in votes", t.Out, t.In)
}

// RunSwitch keeps or replaces the active proposition speaker. A switch with
// no observer left leaves the speaker in place and emits a warning.
func (h *SwitchHandler) RunSwitch(s *DebateState, decision Decision, emit Emit) error {
	current, err := mustLookup(h.Roster, s.ActivePropositionID)
	if err != nil {
		return err
	}

	if decision != DecisionSwitch {
		emit(PhaseChangeEvent{
			EventMeta: meta(s.now()),
			OldPhase:  s.Phase,
			NewPhase:  s.Phase,
			Message:   fmt.Sprintf("%s stays in the debate", current.Name),
		})
		return nil
	}

	newID, ok := SelectReplacement(s)
	if !ok {
		logger(h.Logger).Warn("switch requested without observers", "agent_id", current.ID)
		emit(WarningEvent{EventMeta: meta(s.now()), Message: NoReplacementMessage})
		return nil
	}
	replacement, err := mustLookup(h.Roster, newID)
	if err != nil {
		return err
	}

	reason := SwitchReason(s.VoteTally)
	emit(AgentSwitchEvent{
		EventMeta:    meta(s.now()),
		OldAgentID:   current.ID,
		OldAgentName: current.Name,
		NewAgentID:   replacement.ID,
		NewAgentName: replacement.Name,
		Reason:       reason,
		VoteTally:    s.VoteTally,
		RoundNumber:  s.CurrentRound,
	})
	_, err = s.ApplySwitch(current, replacement, reason)
	return err
}
