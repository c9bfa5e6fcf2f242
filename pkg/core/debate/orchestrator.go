package debate

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures an Orchestrator.
type Options struct {
	Logger *slog.Logger
	// Clock replaces time.Now for the debate timer.
	Clock func() time.Time
	// LenientTransitions forces phase transitions missing from the table,
	// with a warning, instead of failing the run.
	LenientTransitions bool
	// SummaryChunkWords sets the moderator chunk size. Zero means 8.
	SummaryChunkWords int
}

// Orchestrator runs one debate at a time: initialize, then alternate
// proposition and opposition turns with voting rounds until the time budget
// is spent or Stop is called, then conclude.
type Orchestrator struct {
	roster    RosterProvider
	turns     *TurnExecutor
	voting    *VotingCoordinator
	switcher  *SwitchHandler
	concluder *ConclusionGenerator

	logger  *slog.Logger
	clock   func() time.Time
	lenient bool

	running       atomic.Bool
	stopRequested atomic.Bool

	mu       sync.RWMutex
	snapshot *DebateState
}

// NewOrchestrator wires the engine steps around a roster and a generator.
func NewOrchestrator(roster RosterProvider, gen Generator, opts Options) *Orchestrator {
	log := logger(opts.Logger).With("component", "debate")
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		roster:   roster,
		turns:    &TurnExecutor{Roster: roster, Generator: gen, Logger: log},
		voting:   &VotingCoordinator{Roster: roster, Generator: gen, Logger: log},
		switcher: &SwitchHandler{Roster: roster, Logger: log},
		concluder: &ConclusionGenerator{
			Roster:     roster,
			Generator:  gen,
			Logger:     log,
			ChunkWords: opts.SummaryChunkWords,
			Lenient:    opts.LenientTransitions,
		},
		logger:  log,
		clock:   clock,
		lenient: opts.LenientTransitions,
	}
}

// Stop asks the loop to finish after the current iteration. In-flight
// generation calls are not interrupted; the debate still concludes. A Stop
// issued before Run starts applies to that run.
func (o *Orchestrator) Stop() {
	o.stopRequested.Store(true)
}

// IsRunning reports whether a Run sequence is being consumed.
func (o *Orchestrator) IsRunning() bool {
	return o.running.Load()
}

// State returns a copy of the debate state as of the last emitted event, or
// false if no debate was initialized.
func (o *Orchestrator) State() (DebateState, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.snapshot == nil {
		return DebateState{}, false
	}
	return o.snapshot.Clone(), true
}

// Run returns the debate's event sequence. The debate executes while the
// sequence is ranged over; the sequence is single-use. Failures never escape
// as panics or errors: a critical error event ends the sequence instead.
// Breaking out of the range stops the debate as Stop would.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if !o.running.CompareAndSwap(false, true) {
			yield(ErrorEvent{
				EventMeta:  meta(o.clock()),
				Step:       "initialize",
				Error:      ErrDebateInProgress.Error(),
				IsCritical: true,
			})
			return
		}
		defer o.running.Store(false)
		defer o.stopRequested.Store(false)

		var st *DebateState
		consumerGone := false
		emit := func(e Event) {
			if st != nil {
				o.publish(st)
			}
			if consumerGone {
				return
			}
			if !yield(e) {
				consumerGone = true
				o.Stop()
			}
		}

		err := o.safeRun(ctx, cfg, &st, emit)
		if err != nil {
			o.logger.Error("debate failed", "error", err)
			if st != nil {
				st.SetError(err.Error())
			}
			emit(ErrorEvent{
				EventMeta:  meta(o.clock()),
				Step:       "workflow",
				Error:      err.Error(),
				IsCritical: true,
			})
		}
		if st != nil {
			o.publish(st)
		}
	}
}

func (o *Orchestrator) safeRun(ctx context.Context, cfg Config, st **DebateState, emit Emit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in debate loop: %v", r)
		}
	}()

	s, err := o.initialize(cfg, emit)
	if err != nil {
		return err
	}
	*st = s
	o.publish(s)
	if err := o.loop(ctx, s, emit); err != nil {
		return err
	}
	return o.concluder.Conclude(ctx, s, emit)
}

func (o *Orchestrator) initialize(cfg Config, emit Emit) (*DebateState, error) {
	props := o.roster.PropositionParticipants()
	opposition := o.roster.OppositionParticipant()

	ids := make([]string, 0, len(props))
	for _, p := range props {
		ids = append(ids, p.ID)
	}
	active := ""
	for _, id := range ids {
		if id == cfg.FirstAgentID {
			active = id
		}
	}
	if active == "" {
		if cfg.FirstAgentID != "" {
			o.logger.Warn("first agent not in roster, using default", "first_agent_id", cfg.FirstAgentID)
		}
		if len(ids) > 0 {
			active = ids[0]
		}
	}

	s, err := Initialize(InitParams{
		Topic:               cfg.Topic,
		DurationSeconds:     cfg.DurationSeconds,
		ExchangesPerRound:   cfg.ExchangesPerRound,
		AllPropositionIDs:   ids,
		OppositionID:        opposition.ID,
		ActivePropositionID: active,
	}, WithClock(o.clock))
	if err != nil {
		return nil, err
	}

	first := participantName(o.roster, active)
	observerNames := make([]string, 0, len(s.ObserverIDs))
	for _, id := range s.ObserverIDs {
		observerNames = append(observerNames, participantName(o.roster, id))
	}
	o.logger.Info("debate started", "topic", s.Topic, "duration", s.TotalDurationSeconds, "first_debater", active)
	emit(DebateStartedEvent{
		EventMeta:         meta(s.now()),
		Topic:             s.Topic,
		Duration:          s.TotalDurationSeconds,
		ExchangesPerRound: s.ExchangesPerRound,
		FirstDebaterID:    active,
		FirstDebaterName:  first,
		OppositionName:    opposition.Name,
		ObserverNames:     observerNames,
		TotalAgents:       len(props) + 2,
	})
	if err := transition(s, PhaseDebating, o.lenient, o.logger, emit); err != nil {
		return nil, err
	}
	return s, nil
}

func (o *Orchestrator) loop(ctx context.Context, s *DebateState, emit Emit) error {
	for !o.stopRequested.Load() {
		if ctx.Err() != nil {
			o.logger.Info("context done, concluding debate", "error", ctx.Err())
			return nil
		}

		s.TickTimer()
		emit(NewTimerUpdate(s))
		if !TimeRemaining(s) {
			return nil
		}

		if _, err := o.turns.RunTurn(ctx, s, s.ActivePropositionID, RoleOpposition, emit); err != nil {
			return fmt.Errorf("proposition turn: %w", err)
		}
		if _, err := o.turns.RunTurn(ctx, s, s.OppositionID, RoleProposition, emit); err != nil {
			return fmt.Errorf("opposition turn: %w", err)
		}

		s.TickTimer()
		switch CheckRoundCompletion(s) {
		case OutcomeTimeExpired:
			return nil
		case OutcomeVote:
			decision, err := o.voting.RunVotingRound(ctx, s, s.ActivePropositionID, emit)
			if err != nil {
				return fmt.Errorf("voting round: %w", err)
			}
			if err := o.switcher.RunSwitch(s, decision, emit); err != nil {
				return fmt.Errorf("agent switch: %w", err)
			}
		}

		s.TickTimer()
		if !TimeRemaining(s) {
			return nil
		}
	}
	o.logger.Info("stop requested, concluding debate")
	return nil
}

func (o *Orchestrator) publish(s *DebateState) {
	snap := s.Clone()
	o.mu.Lock()
	o.snapshot = &snap
	o.mu.Unlock()
}

// transition applies a phase change. Under the lenient policy a transition
// missing from the table is forced and reported as a warning.
func transition(s *DebateState, to Phase, lenient bool, log *slog.Logger, emit Emit) error {
	err := s.SetPhase(to)
	if err == nil {
		return nil
	}
	var pte *PhaseTransitionError
	if !lenient || !errors.As(err, &pte) {
		return err
	}
	logger(log).Warn("forcing phase transition", "from", pte.From, "to", pte.To)
	emit(WarningEvent{
		EventMeta: meta(s.now()),
		Message:   fmt.Sprintf("Forcing phase transition %s -> %s", pte.From, pte.To),
	})
	return s.ForcePhase(to)
}
