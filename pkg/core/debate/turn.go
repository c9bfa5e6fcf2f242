package debate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"agentic_debate/pkg/core/prompt"
)

// turnHistoryWindow is how many recent messages a speaker sees.
const turnHistoryWindow = 5

// TurnExecutor drives a single speaking turn.
type TurnExecutor struct {
	Roster    RosterProvider
	Generator Generator
	Logger    *slog.Logger
}

// FallbackContent is recorded in place of a failed generation.
func FallbackContent(name string) string {
	return fmt.Sprintf("%s encountered an error; continuing.", name)
}

// RunTurn lets speakerID argue against the latest message from opposing. A
// generation failure is contained: an error event is emitted and a fallback
// message is recorded so the exchange counter still advances. The returned
// error is reserved for failures of the state itself.
func (t *TurnExecutor) RunTurn(ctx context.Context, s *DebateState, speakerID string, opposing Role, emit Emit) (Message, error) {
	speaker, err := mustLookup(t.Roster, speakerID)
	if err != nil {
		return Message{}, err
	}
	role := RoleProposition
	stance := "for"
	if opposing == RoleProposition {
		role = RoleOpposition
		stance = "against"
	}
	step := string(role) + "_turn"

	var opponentLast string
	if m, ok := s.LastMessageByRole(opposing); ok {
		opponentLast = m.Content
	}

	content, genErr := t.generate(ctx, speaker, prompt.ArgumentRequest{
		Topic:                s.Topic,
		Stance:               stance,
		History:              exchangesOf(s.RecentMessages(turnHistoryWindow)),
		OpponentLastArgument: opponentLast,
		Personality:          speaker.Personality,
	})
	if genErr != nil {
		logger(t.Logger).Warn("turn generation failed, using fallback",
			"agent_id", speaker.ID, "step", step, "error", genErr)
		emit(ErrorEvent{
			EventMeta:  meta(s.now()),
			Step:       step,
			Error:      genErr.Error(),
			IsCritical: false,
			AgentID:    speaker.ID,
		})
		content = FallbackContent(speaker.Name)
	}

	if s.IsFrozen() {
		return Message{}, ErrStateFrozen
	}
	emit(AgentMessageCompleteEvent{
		EventMeta:   meta(s.now()),
		AgentID:     speaker.ID,
		AgentName:   speaker.Name,
		Role:        role,
		Content:     content,
		WordCount:   WordCount(content),
		RoundNumber: s.CurrentRound,
	})
	return s.RecordMessage(speaker.ID, speaker.Name, role, content)
}

func (t *TurnExecutor) generate(ctx context.Context, speaker Participant, req prompt.ArgumentRequest) (string, error) {
	text, err := prompt.BuildArgument(req)
	if err != nil {
		return "", fmt.Errorf("%w: build prompt: %v", ErrGeneration, err)
	}
	out, err := t.Generator.Generate(ctx, speaker, text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty response from %s", ErrGeneration, speaker.ID)
	}
	return out, nil
}

func exchangesOf(msgs []Message) []prompt.Exchange {
	out := make([]prompt.Exchange, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, prompt.Exchange{Speaker: m.SpeakerName, Argument: m.Content})
	}
	return out
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
