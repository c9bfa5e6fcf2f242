package prompt

import (
	"fmt"
	"strings"
)

// Prompt IDs used by the debate engine. A loaded template with the same ID
// replaces the built-in default.
const (
	IDArgument  = "debate.argument"
	IDVote      = "debate.vote"
	IDModerator = "debate.moderator"
)

// DefaultVoteCriteria is used when a VoteRequest carries no criteria.
const DefaultVoteCriteria = "argument strength, evidence quality, persuasiveness, and response to opponent"

// Exchange is one line of recent debate context
type Exchange struct {
	Speaker  string
	Argument string
}

// ArgumentRequest holds the inputs of a speaking turn prompt
type ArgumentRequest struct {
	Topic                string
	Stance               string // "for" or "against"
	History              []Exchange
	OpponentLastArgument string
	Personality          string
}

// VoteRequest holds the inputs of an observer's vote prompt
type VoteRequest struct {
	DebaterName      string
	Exchanges        []Exchange
	Criteria         string
	VoterPersonality string
}

// TranscriptEntry is one message of the full transcript
type TranscriptEntry struct {
	Speaker string
	Role    string
	Content string
}

// VoteEntry is one voting event shown to the moderator
type VoteEntry struct {
	Voter     string
	VotedFor  string
	VoteType  string
	Reasoning string
}

// SummaryRequest holds the inputs of the moderator's summary prompt
type SummaryRequest struct {
	Topic           string
	Transcript      []TranscriptEntry
	Votes           []VoteEntry
	DurationSeconds int
}

var defaultTemplates = map[string]*PromptTemplate{
	IDArgument: {
		ID:       IDArgument,
		Name:     "Debate Argument",
		Category: "debate",
		UserPromptTmpl: `DEBATE TOPIC: {{.Topic}}

YOUR STANCE: You are arguing {{.StanceText}} the proposition.

RECENT DEBATE CONTEXT:
{{.HistoryText}}
{{if .OpponentLastArgument}}
OPPONENT'S LAST ARGUMENT:
{{.OpponentLastArgument}}

YOUR TASK: Respond with a strong counter-argument that directly addresses the opponent's points. Use your {{.Personality}} style.
{{else}}
YOUR TASK: Make a compelling opening argument using your {{.Personality}} style.
{{end}}
GUIDELINES:
- Keep your response to just one sentence
- Be specific and impactful
- Stay in character with your personality
- Make every word count`,
	},
	IDVote: {
		ID:       IDVote,
		Name:     "Vote Evaluation",
		Category: "debate",
		UserPromptTmpl: `VOTE EVALUATION TASK

You are evaluating {{.DebaterName}}'s debate performance.

RECENT EXCHANGES:
{{.ExchangesText}}

EVALUATION CRITERIA:
Judge based on: {{.Criteria}}

YOUR PERSPECTIVE:
Vote from YOUR perspective as a {{.VoterPersonality}} personality.
Consider what matters most to someone with your viewpoint.

RESPONSE FORMAT:
You MUST respond ONLY with valid JSON in this exact format:
{"vote": "in", "reasoning": "Your 1-2 sentence explanation"}

OR

{"vote": "out", "reasoning": "Your 1-2 sentence explanation"}

Respond with ONLY the JSON, no other text.`,
	},
	IDModerator: {
		ID:       IDModerator,
		Name:     "Moderator Summary",
		Category: "debate",
		UserPromptTmpl: `MODERATOR SUMMARY TASK

Provide an objective, balanced summary of this debate.

DEBATE TOPIC: {{.Topic}}

DURATION: {{.DurationText}}

FULL TRANSCRIPT:
{{.TranscriptText}}

VOTING EVENTS:
{{.VotesText}}

REQUIRED SUMMARY STRUCTURE:

1. **Overview** (2-3 sentences)
   Briefly describe what the debate was about and how it unfolded.

2. **Key Proposition Arguments** (bullet points)
   List the strongest arguments made in favor of the proposition.

3. **Key Opposition Arguments** (bullet points)
   List the strongest arguments made against the proposition.

4. **Notable Moments** (if any)
   Highlight any switches, particularly strong performances, or turning points.

5. **Conclusion**
   Provide a fair assessment of which side presented the stronger case and why.
   Be objective and acknowledge strengths from both sides.

Remember: You are a neutral moderator. Present facts fairly without personal bias.`,
	},
}

// BuildArgument renders the prompt for a proposition or opposition turn.
func BuildArgument(req ArgumentRequest) (string, error) {
	stanceText := "AGAINST"
	if req.Stance == "for" {
		stanceText = "IN FAVOR OF"
	}
	history := "(This is the opening argument)"
	if len(req.History) > 0 {
		history = formatExchanges(lastExchanges(req.History, 5))
	}
	personality := req.Personality
	if personality == "" {
		personality = "analytical"
	}

	ctx := NewContext().
		Set("Topic", req.Topic).
		Set("StanceText", stanceText).
		Set("HistoryText", history).
		Set("OpponentLastArgument", req.OpponentLastArgument).
		Set("Personality", personality)
	return render(IDArgument, ctx)
}

// BuildVote renders the prompt an observer answers with a JSON verdict.
func BuildVote(req VoteRequest) (string, error) {
	exchanges := "(No exchanges yet)"
	if len(req.Exchanges) > 0 {
		exchanges = formatExchanges(lastExchanges(req.Exchanges, 5))
	}
	criteria := req.Criteria
	if criteria == "" {
		criteria = DefaultVoteCriteria
	}
	personality := req.VoterPersonality
	if personality == "" {
		personality = "analytical"
	}

	ctx := NewContext().
		Set("DebaterName", req.DebaterName).
		Set("ExchangesText", exchanges).
		Set("Criteria", criteria).
		Set("VoterPersonality", personality)
	return render(IDVote, ctx)
}

// BuildSummary renders the moderator's closing prompt.
func BuildSummary(req SummaryRequest) (string, error) {
	transcript := "(No transcript available)"
	if len(req.Transcript) > 0 {
		lines := make([]string, 0, len(req.Transcript))
		for _, m := range req.Transcript {
			lines = append(lines, fmt.Sprintf("[%s] %s: %s", strings.ToUpper(m.Role), m.Speaker, m.Content))
		}
		transcript = strings.Join(lines, "\n\n")
	}

	votes := "(No votes recorded)"
	if len(req.Votes) > 0 {
		lines := make([]string, 0, len(req.Votes))
		for _, v := range req.Votes {
			line := fmt.Sprintf("- %s voted '%s' for %s", v.Voter, v.VoteType, v.VotedFor)
			if v.Reasoning != "" {
				line += fmt.Sprintf(" (%s)", v.Reasoning)
			}
			lines = append(lines, line)
		}
		votes = strings.Join(lines, "\n")
	}

	ctx := NewContext().
		Set("Topic", req.Topic).
		Set("DurationText", FormatDuration(req.DurationSeconds)).
		Set("TranscriptText", transcript).
		Set("VotesText", votes)
	return render(IDModerator, ctx)
}

// SystemPrompt is the persona instruction sent with every debater request.
func SystemPrompt(name, behavior string) string {
	return fmt.Sprintf("You are %s, participating in a formal debate. %s Keep your responses between 50-100 words and address your opponent's points directly.", name, behavior)
}

// ModeratorSystemPrompt is the persona instruction for the closing summary.
func ModeratorSystemPrompt(name, behavior, topic string) string {
	return fmt.Sprintf("You are %s, a neutral, objective debate moderator. %s Summarize the debate on: %s. Be fair and balanced and follow the required summary structure exactly.", name, behavior, topic)
}

// FormatDuration renders seconds as "M minutes, S seconds", or "S seconds"
// under a minute.
func FormatDuration(seconds int) string {
	minutes := seconds / 60
	secs := seconds % 60
	if minutes > 0 {
		return fmt.Sprintf("%d minutes, %d seconds", minutes, secs)
	}
	return fmt.Sprintf("%d seconds", secs)
}

func render(id string, ctx *PromptExecutionContext) (string, error) {
	pt, err := Get().GetPrompt(id)
	if err != nil {
		return "", err
	}
	return RenderUserPrompt(pt, ctx)
}

func lastExchanges(ex []Exchange, n int) []Exchange {
	if len(ex) <= n {
		return ex
	}
	return ex[len(ex)-n:]
}

func formatExchanges(ex []Exchange) string {
	lines := make([]string, 0, len(ex))
	for _, e := range ex {
		lines = append(lines, fmt.Sprintf("- %s: %s", e.Speaker, e.Argument))
	}
	return strings.Join(lines, "\n")
}
