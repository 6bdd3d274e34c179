package ai

import (
	rand "math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"buckeuchre/internal/engine"
	"buckeuchre/internal/game"
)

// Submitter is the slice of the game actor the executor talks back to
type Submitter interface {
	SubmitAI(position int, version uint64, action engine.Action)
	PublishAnalysis(analysis game.ActionAnalysis)
}

// SeatConfig tunes one AI seat
type SeatConfig struct {
	Iterations int
	Character  Character
}

// ExecutorOptions configures an executor
type ExecutorOptions struct {
	Logger *log.Logger
	Clock  quartz.Clock
	// DelayMin/DelayMax bound the human-feel pause before an AI move.
	DelayMin time.Duration
	DelayMax time.Duration
	// AnalysisIterations sizes hint searches for human seats; zero
	// disables analysis.
	AnalysisIterations int
	Seed               uint64
}

// Executor watches actor state changes, runs searches for AI seats,
// and publishes hint analysis for human seats. Searches racing a state
// change are discarded by generation and version checks.
type Executor struct {
	log      *log.Logger
	clock    quartz.Clock
	target   Submitter
	delayMin time.Duration
	delayMax time.Duration
	analysis int

	gen     atomic.Uint64
	stopped atomic.Bool

	mu    sync.Mutex
	seats map[int]SeatConfig
	rng   *rand.Rand
}

// NewExecutor creates an executor bound to one game actor
func NewExecutor(target Submitter, opts ExecutorOptions) *Executor {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.DelayMax < opts.DelayMin {
		opts.DelayMax = opts.DelayMin
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}
	return &Executor{
		log:      opts.Logger.WithPrefix("ai"),
		clock:    opts.Clock,
		target:   target,
		delayMin: opts.DelayMin,
		delayMax: opts.DelayMax,
		analysis: opts.AnalysisIterations,
		seats:    make(map[int]SeatConfig),
		rng:      rand.New(rand.NewPCG(opts.Seed, 0)),
	}
}

// ConfigureSeat registers search parameters for an AI seat
func (e *Executor) ConfigureSeat(position int, cfg SeatConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultIterations
	}
	e.seats[position] = cfg
}

// Notify implements game.AIDriver. Each call supersedes any search
// still running against an older snapshot.
func (e *Executor) Notify(snapshot *engine.GameState) {
	if e.stopped.Load() {
		return
	}
	gen := e.gen.Add(1)
	go e.process(snapshot, gen)
}

// Stop implements game.AIDriver
func (e *Executor) Stop() {
	e.stopped.Store(true)
	e.gen.Add(1)
}

func (e *Executor) stale(gen uint64) bool {
	return e.stopped.Load() || e.gen.Load() != gen
}

func (e *Executor) process(snapshot *engine.GameState, gen uint64) {
	pos, _, ok := snapshot.CurrentActor()
	if !ok {
		return
	}
	p := snapshot.Players[pos]
	if p == nil {
		return
	}

	if p.Type == engine.SeatAI {
		e.driveSeat(snapshot, pos, gen)
		return
	}
	if e.analysis > 0 && p.Connected {
		e.analyzeSeat(snapshot, pos, gen)
	}
}

func (e *Executor) driveSeat(snapshot *engine.GameState, pos int, gen uint64) {
	e.mu.Lock()
	cfg, ok := e.seats[pos]
	delay := e.delayMin
	if span := e.delayMax - e.delayMin; span > 0 {
		delay += time.Duration(e.rng.Int64N(int64(span)))
	}
	seed := e.rng.Uint64()
	e.mu.Unlock()
	if !ok {
		cfg = SeatConfig{Iterations: DefaultIterations}
	}

	run := func() {
		if e.stale(gen) {
			return
		}
		result, ok := Search(snapshot, Config{
			Iterations: cfg.Iterations,
			Character:  cfg.Character,
			Seed:       seed,
			Cancel:     func() bool { return e.stale(gen) },
		})
		if !ok || len(result.Actions) == 0 || e.stale(gen) {
			return
		}
		e.log.Debug("AI move chosen", "position", pos, "action", result.BestKey,
			"visits", result.Actions[0].Visits, "value", result.Actions[0].AvgValue)
		e.target.SubmitAI(pos, snapshot.Version, result.Best)
	}

	if delay <= 0 {
		run()
		return
	}
	e.clock.AfterFunc(delay, run)
}

func (e *Executor) analyzeSeat(snapshot *engine.GameState, pos int, gen uint64) {
	e.mu.Lock()
	seed := e.rng.Uint64()
	e.mu.Unlock()

	result, ok := Search(snapshot, Config{
		Iterations: e.analysis,
		Seed:       seed,
		Cancel:     func() bool { return e.stale(gen) },
	})
	if !ok || len(result.Actions) == 0 || e.stale(gen) {
		return
	}
	analysis := game.ActionAnalysis{
		Position:   pos,
		Version:    snapshot.Version,
		Iterations: result.Iterations,
		Best:       result.BestKey,
	}
	for _, a := range result.Actions {
		analysis.Actions = append(analysis.Actions, game.ActionStat{
			Action:   a.Key,
			Visits:   a.Visits,
			AvgValue: a.AvgValue,
			StdErr:   a.StdErr,
			CILow:    a.CILow,
			CIHigh:   a.CIHigh,
		})
	}
	e.target.PublishAnalysis(analysis)
}
