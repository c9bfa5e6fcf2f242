package debate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"agentic_debate/pkg/core/prompt"
	"agentic_debate/pkg/core/utils"
)

const (
	// voteHistoryWindow is how many recent messages observers judge.
	voteHistoryWindow = 6

	ReasoningParseDefault = "[Vote could not be parsed, defaulting to 'in']"
)

// VotingCoordinator runs one voting round over the current observers.
type VotingCoordinator struct {
	Roster    RosterProvider
	Generator Generator
	Logger    *slog.Logger
}

// voteResponse is the JSON shape observers are asked to answer with
type voteResponse struct {
	Vote      string `json:"vote"`
	Reasoning string `json:"reasoning"`
}

// ParseVote extracts the verdict from an observer's response. Surrounding
// prose is tolerated; the first balanced JSON object is used.
func ParseVote(response string) (VoteDecision, string, error) {
	obj, ok := utils.ExtractJSONObject(response)
	if !ok {
		return "", "", fmt.Errorf("%w: no JSON object in response", ErrVoteParse)
	}
	var vr voteResponse
	if _, err := utils.SmartParse(obj, &vr); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrVoteParse, err)
	}
	decision := VoteDecision(strings.ToLower(strings.TrimSpace(vr.Vote)))
	if !IsValidVote(decision) {
		return "", "", fmt.Errorf("%w: vote %q", ErrVoteParse, vr.Vote)
	}
	return decision, vr.Reasoning, nil
}

// RunVotingRound asks every observer, in roster order, to judge subjectID.
// Generation and parse failures default the vote to "in". The returned error
// is reserved for failures of the state itself.
func (v *VotingCoordinator) RunVotingRound(ctx context.Context, s *DebateState, subjectID string, emit Emit) (Decision, error) {
	subject, err := mustLookup(v.Roster, subjectID)
	if err != nil {
		return "", err
	}
	if !IsValidTransition(s.Phase, PhaseVoting) {
		return "", &PhaseTransitionError{From: s.Phase, To: PhaseVoting}
	}

	emit(VotingInitiatedEvent{
		EventMeta:           meta(s.now()),
		EvaluatingAgentID:   subject.ID,
		EvaluatingAgentName: subject.Name,
		RoundNumber:         s.CurrentRound,
		ObserverCount:       len(s.ObserverIDs),
	})
	if err := s.OpenVotingRound(subject.ID); err != nil {
		return "", err
	}

	exchanges := exchangesOf(s.RecentMessages(voteHistoryWindow))
	for _, voterID := range slices.Clone(s.ObserverIDs) {
		if ok, reason := CanVote(s, voterID); !ok {
			logger(v.Logger).Warn("skipping ineligible voter", "voter_id", voterID, "reason", reason)
			continue
		}
		voter, ok := v.Roster.Lookup(voterID)
		if !ok {
			logger(v.Logger).Warn("skipping voter missing from roster", "voter_id", voterID)
			continue
		}

		decision, reasoning := v.castVote(ctx, s, voter, subject, exchanges, emit)
		emit(VoteCastEvent{
			EventMeta: meta(s.now()),
			VoterID:   voter.ID,
			VoterName: voter.Name,
			Vote:      decision,
			Reasoning: reasoning,
		})
		if _, err := s.RecordVote(voter.ID, voter.Name, decision, reasoning); err != nil {
			if errors.Is(err, ErrVoterIneligible) {
				logger(v.Logger).Warn("vote rejected", "voter_id", voter.ID, "error", err)
				continue
			}
			return "", err
		}
	}

	decision := Decide(s.VoteTally)
	emit(VotingCompleteEvent{
		EventMeta:           meta(s.now()),
		EvaluatingAgentID:   subject.ID,
		EvaluatingAgentName: subject.Name,
		InVotes:             s.VoteTally.In,
		OutVotes:            s.VoteTally.Out,
		Decision:            decision,
		Votes:               slices.Clone(s.CurrentVotes),
	})
	return s.CloseVotingRound()
}

func (v *VotingCoordinator) castVote(ctx context.Context, s *DebateState, voter, subject Participant, exchanges []prompt.Exchange, emit Emit) (VoteDecision, string) {
	text, err := prompt.BuildVote(prompt.VoteRequest{
		DebaterName:      subject.Name,
		Exchanges:        exchanges,
		VoterPersonality: voter.Personality,
	})
	var response string
	if err == nil {
		response, err = v.Generator.Generate(ctx, voter, text)
	}
	if err != nil {
		logger(v.Logger).Warn("vote generation failed, defaulting to in", "voter_id", voter.ID, "error", err)
		emit(ErrorEvent{
			EventMeta:  meta(s.now()),
			Step:       "voting",
			Error:      err.Error(),
			IsCritical: false,
			AgentID:    voter.ID,
		})
		return VoteIn, generationDefaultReasoning(err)
	}

	decision, reasoning, err := ParseVote(response)
	if err != nil {
		logger(v.Logger).Warn("vote parse failed, defaulting to in", "voter_id", voter.ID, "error", err)
		emit(WarningEvent{
			EventMeta: meta(s.now()),
			Message:   fmt.Sprintf("Could not parse vote from %s, defaulting to 'in'", voter.Name),
			Details:   map[string]any{"voter_id": voter.ID, "response": truncate(response, 200)},
		})
		return VoteIn, ReasoningParseDefault
	}
	return decision, reasoning
}

func generationDefaultReasoning(err error) string {
	return fmt.Sprintf("[Error during voting: %s]", truncate(err.Error(), 50))
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
