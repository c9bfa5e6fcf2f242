package debate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"agentic_debate/pkg/core/prompt"
	"agentic_debate/pkg/core/utils"
)

const (
	defaultChunkWords  = 8
	summaryPreviewLen  = 200
	concludingMessage  = "Debate concluding, generating summary..."
	fallbackSummaryTag = "*[This is an automatically generated summary due to moderator unavailability]*"
)

// ConclusionGenerator asks the moderator for a closing summary and finalizes
// the debate.
type ConclusionGenerator struct {
	Roster    RosterProvider
	Generator Generator
	Logger    *slog.Logger
	// ChunkWords is the size of each moderator_message_chunk. Zero means 8.
	ChunkWords int
	// Lenient forces an illegal transition into concluding instead of failing.
	Lenient bool
}

// Conclude moves the debate through concluding to completed. A failed summary
// is replaced by a templated one; the returned error is reserved for failures
// of the state itself.
func (c *ConclusionGenerator) Conclude(ctx context.Context, s *DebateState, emit Emit) error {
	old := s.Phase
	emit(PhaseChangeEvent{
		EventMeta: meta(s.now()),
		OldPhase:  old,
		NewPhase:  PhaseConcluding,
		Message:   concludingMessage,
	})
	if err := transition(s, PhaseConcluding, c.Lenient, c.Logger, emit); err != nil {
		return err
	}

	stats := ComputeStatistics(s, c.Roster)
	summary, genErr := c.generateSummary(ctx, s)
	isFallback := false
	if genErr != nil {
		logger(c.Logger).Warn("moderator summary failed, using fallback", "error", genErr)
		emit(ErrorEvent{
			EventMeta:  meta(s.now()),
			Step:       "conclusion",
			Error:      genErr.Error(),
			IsCritical: false,
			AgentID:    c.Roster.ModeratorParticipant().ID,
		})
		summary = FallbackSummary(s, stats)
		isFallback = true
	}

	for _, chunk := range ChunkWords(summary, c.chunkSize()) {
		emit(ModeratorMessageChunkEvent{EventMeta: meta(s.now()), Chunk: chunk})
	}
	emit(ModeratorMessageCompleteEvent{
		EventMeta:  meta(s.now()),
		Summary:    summary,
		WordCount:  WordCount(summary),
		IsFallback: isFallback,
	})

	stats.Phase = PhaseCompleted
	stats.Status = StatusCompleted
	emit(DebateCompleteEvent{
		EventMeta:             meta(s.now()),
		Topic:                 s.Topic,
		DurationSeconds:       s.ElapsedSeconds,
		TotalMessages:         stats.TotalMessages,
		TotalRounds:           stats.TotalRounds,
		TotalSwitches:         stats.TotalSwitches,
		FinalPropositionAgent: participantName(c.Roster, s.ActivePropositionID),
		Statistics:            stats,
		SummaryPreview:        SummaryPreview(summary),
	})
	return s.Complete(summary)
}

func (c *ConclusionGenerator) generateSummary(ctx context.Context, s *DebateState) (string, error) {
	moderator := c.Roster.ModeratorParticipant()

	transcript := make([]prompt.TranscriptEntry, 0, len(s.Messages))
	for _, m := range s.Messages {
		transcript = append(transcript, prompt.TranscriptEntry{Speaker: m.SpeakerName, Role: string(m.Role), Content: m.Content})
	}
	text, err := prompt.BuildSummary(prompt.SummaryRequest{
		Topic:           s.Topic,
		Transcript:      transcript,
		Votes:           VoteHistory(s),
		DurationSeconds: s.ElapsedSeconds,
	})
	if err != nil {
		return "", fmt.Errorf("%w: build prompt: %v", ErrGeneration, err)
	}

	out, err := c.Generator.Generate(ctx, moderator, text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	out = utils.CleanMarkdown(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty summary from %s", ErrGeneration, moderator.ID)
	}
	return out, nil
}

func (c *ConclusionGenerator) chunkSize() int {
	if c.ChunkWords > 0 {
		return c.ChunkWords
	}
	return defaultChunkWords
}

// VoteHistory rebuilds the moderator's view of voting from the switch log.
// Individual votes of past rounds are not kept, so each switch is reported
// as one collective "out" verdict.
func VoteHistory(s *DebateState) []prompt.VoteEntry {
	entries := make([]prompt.VoteEntry, 0, len(s.Switches))
	for _, sw := range s.Switches {
		entries = append(entries, prompt.VoteEntry{
			Voter:     "Multiple Observers",
			VotedFor:  sw.OldSubjectName,
			VoteType:  string(VoteOut),
			Reasoning: sw.Reason,
		})
	}
	return entries
}

// ComputeStatistics derives the closing statistics from state alone.
func ComputeStatistics(s *DebateState, roster RosterProvider) Statistics {
	stats := Statistics{
		TotalMessages:    len(s.Messages),
		MessagesPerAgent: make(map[string]int),
		WordsPerAgent:    make(map[string]int),
		TotalRounds:      s.CurrentRound,
		TotalSwitches:    len(s.Switches),
		ElapsedSeconds:   s.ElapsedSeconds,
		Duration:         s.TotalDurationSeconds,
		Phase:            s.Phase,
		Status:           s.Status,
	}
	for _, m := range s.Messages {
		key := fmt.Sprintf("%s (%s)", m.SpeakerName, m.SpeakerID)
		stats.TotalWords += m.WordCount
		stats.MessagesPerAgent[key]++
		stats.WordsPerAgent[key] += m.WordCount
	}
	if stats.TotalMessages > 0 {
		avg := float64(stats.TotalWords) / float64(stats.TotalMessages)
		stats.AverageMessageLength = math.Round(avg*10) / 10
	}
	return stats
}

// FallbackSummary is the templated summary used when the moderator fails.
func FallbackSummary(s *DebateState, stats Statistics) string {
	var b strings.Builder
	b.WriteString("## Debate Summary\n\n")
	fmt.Fprintf(&b, "**Topic:** %s\n\n", s.Topic)
	fmt.Fprintf(&b, "**Duration:** %d minutes, %d seconds\n\n", s.ElapsedSeconds/60, s.ElapsedSeconds%60)
	b.WriteString("### Statistics\n\n")
	fmt.Fprintf(&b, "- Total messages: %d\n", stats.TotalMessages)
	fmt.Fprintf(&b, "- Total words: %d\n", stats.TotalWords)
	fmt.Fprintf(&b, "- Average message length: %.1f words\n", stats.AverageMessageLength)
	fmt.Fprintf(&b, "- Rounds: %d\n", stats.TotalRounds)
	fmt.Fprintf(&b, "- Agent switches: %d\n\n", stats.TotalSwitches)
	b.WriteString(fallbackSummaryTag)
	return b.String()
}

// ChunkWords splits text into groups of n words. Every chunk except the last
// keeps a trailing space so the chunks concatenate back to the spaced text.
func ChunkWords(text string, n int) []string {
	words := strings.Fields(text)
	if len(words) == 0 || n <= 0 {
		return nil
	}
	chunks := make([]string, 0, len(words)/n+1)
	for i := 0; i < len(words); i += n {
		end := min(i+n, len(words))
		chunk := strings.Join(words[i:end], " ")
		if end < len(words) {
			chunk += " "
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// SummaryPreview returns the first 200 characters, with an ellipsis when cut.
func SummaryPreview(summary string) string {
	r := []rune(summary)
	if len(r) <= summaryPreviewLen {
		return summary
	}
	return string(r[:summaryPreviewLen]) + "..."
}
