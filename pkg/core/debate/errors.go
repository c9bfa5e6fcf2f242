package debate

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned when a debate cannot be initialized from its inputs.
	ErrConfig = errors.New("debate config error")
	// ErrInvalidPhaseTransition marks a transition missing from the phase table.
	ErrInvalidPhaseTransition = errors.New("invalid phase transition")
	// ErrVoterIneligible is returned when a vote comes from a non-observer or a repeat voter.
	ErrVoterIneligible = errors.New("voter ineligible")
	// ErrGeneration wraps any failure of the generation collaborator.
	ErrGeneration = errors.New("generation failed")
	// ErrInvalidVote is returned for a decision other than "in" or "out".
	ErrInvalidVote = errors.New("invalid vote")
	// ErrVoteParse is returned when a vote response carries no usable verdict.
	ErrVoteParse = errors.New("vote could not be parsed")
	// ErrDebateInProgress is returned by the Manager while another debate runs.
	ErrDebateInProgress = errors.New("a debate is already in progress")
	// ErrNoDebate is returned by the Manager when no debate has been started.
	ErrNoDebate = errors.New("no active debate")
	// ErrStateFrozen is returned by mutators once the debate is completed or failed.
	ErrStateFrozen = errors.New("debate state is read-only")
)

// PhaseTransitionError names the rejected transition.
type PhaseTransitionError struct {
	From Phase
	To   Phase
}

func (e *PhaseTransitionError) Error() string {
	return fmt.Sprintf("invalid phase transition: %s -> %s", e.From, e.To)
}

func (e *PhaseTransitionError) Is(target error) bool {
	return target == ErrInvalidPhaseTransition
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
