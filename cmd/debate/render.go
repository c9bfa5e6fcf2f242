package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"agentic_debate/pkg/core/debate"
)

// render formats one record for the terminal. Records with nothing worth
// showing (timer ticks, summary chunks) return "".
func render(rec debate.Record) (string, error) {
	switch rec.Type {
	case debate.EventDebateStarted:
		var e debate.DebateStartedEvent
		if err := json.Unmarshal(rec.Data, &e); err != nil {
			return "", err
		}
		return fmt.Sprintf("=== %s ===\n%s (for) vs %s (against), %s, %d exchanges per round\nobservers: %s",
			e.Topic, e.FirstDebaterName, e.OppositionName, debate.FormatSeconds(e.Duration),
			e.ExchangesPerRound, strings.Join(e.ObserverNames, ", ")), nil

	case debate.EventAgentMessageComplete:
		var e debate.AgentMessageCompleteEvent
		if err := json.Unmarshal(rec.Data, &e); err != nil {
			return "", err
		}
		return fmt.Sprintf("\n[%s] %s (round %d):\n%s", strings.ToUpper(string(e.Role)), e.AgentName, e.RoundNumber, e.Content), nil

	case debate.EventVotingInitiated:
		var e debate.VotingInitiatedEvent
		if err := json.Unmarshal(rec.Data, &e); err != nil {
			return "", err
		}
		return fmt.Sprintf("\n-- voting on %s (%d observers) --", e.EvaluatingAgentName, e.ObserverCount), nil

	case debate.EventVoteCast:
		var e debate.VoteCastEvent
		if err := json.Unmarshal(rec.Data, &e); err != nil {
			return "", err
		}
		return fmt.Sprintf("   %s votes %s: %s", e.VoterName, strings.ToUpper(string(e.Vote)), e.Reasoning), nil

	case debate.EventVotingComplete:
		var e debate.VotingCompleteEvent
		if err := json.Unmarshal(rec.Data, &e); err != nil {
			return "", err
		}
		return fmt.Sprintf("   result: %d in, %d out, %s", e.InVotes, e.OutVotes, e.Decision), nil

	case debate.EventAgentSwitch:
		var e debate.AgentSwitchEvent
		if err := json.Unmarshal(rec.Data, &e); err != nil {
			return "", err
		}
		return fmt.Sprintf(">> %s replaces %s", e.NewAgentName, e.OldAgentName), nil

	case debate.EventPhaseChange:
		var e debate.PhaseChangeEvent
		if err := json.Unmarshal(rec.Data, &e); err != nil {
			return "", err
		}
		if e.Message == "" {
			return "", nil
		}
		return "\n" + e.Message, nil

	case debate.EventModeratorMessageComplete:
		var e debate.ModeratorMessageCompleteEvent
		if err := json.Unmarshal(rec.Data, &e); err != nil {
			return "", err
		}
		return "\n" + e.Summary, nil

	case debate.EventDebateComplete:
		var e debate.DebateCompleteEvent
		if err := json.Unmarshal(rec.Data, &e); err != nil {
			return "", err
		}
		return fmt.Sprintf("\n=== debate complete: %d messages, %d rounds, %d switches, final debater %s ===",
			e.TotalMessages, e.TotalRounds, e.TotalSwitches, e.FinalPropositionAgent), nil

	case debate.EventError:
		var e debate.ErrorEvent
		if err := json.Unmarshal(rec.Data, &e); err != nil {
			return "", err
		}
		if e.IsCritical {
			return fmt.Sprintf("!! critical error in %s: %s", e.Step, e.Error), nil
		}
		return fmt.Sprintf("!  error in %s: %s", e.Step, e.Error), nil

	case debate.EventWarning:
		var e debate.WarningEvent
		if err := json.Unmarshal(rec.Data, &e); err != nil {
			return "", err
		}
		return "!  " + e.Message, nil
	}
	return "", nil
}
