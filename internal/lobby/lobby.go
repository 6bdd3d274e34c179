// Package lobby tracks live games: creation, listing, AI seating, and
// cleanup of finished games.
package lobby

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"buckeuchre/internal/ai"
	"buckeuchre/internal/deck"
	"buckeuchre/internal/engine"
	"buckeuchre/internal/game"
	"buckeuchre/internal/gameid"
	"buckeuchre/internal/statistics"
)

// difficulty presets map onto search budgets.
var difficultyIterations = map[string]int{
	"easy":   250,
	"medium": 1000,
	"hard":   5000,
	"expert": 20000,
}

// DefaultDifficulty is used when a request omits one.
const DefaultDifficulty = "hard"

// finishedLinger is how long a finished game stays listed before the
// registry reaps it.
const finishedLinger = 5 * time.Minute

// Options configures the registry and every actor it creates
type Options struct {
	Logger    *log.Logger
	Clock     quartz.Clock
	Timers    game.Timers
	Abandon   game.AbandonPolicy
	Sink      statistics.Sink
	Metrics   game.Metrics
	AIDelay   [2]time.Duration
	Analysis  int
	// DevDeals wraps every game's deal source in a pinnable layer for
	// the test endpoints.
	DevDeals bool
}

// Entry pairs an actor with its supporting pieces
type Entry struct {
	Actor    *game.Actor
	Executor *ai.Executor
	// Deals is non-nil only when dev deal pinning is enabled.
	Deals     *deck.FixedDealSource
	CreatedAt time.Time
}

// Summary is one row in the lobby listing
type Summary struct {
	GameID      string    `json:"gameId"`
	SeatsFilled int       `json:"seatsFilled"`
	Players     []string  `json:"players"`
	Phase       string    `json:"phase"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Registry owns the id-to-actor map
type Registry struct {
	log   *log.Logger
	clock quartz.Clock
	opts  Options
	ids   *gameid.Generator

	mu    sync.RWMutex
	games map[string]*Entry

	aiSeq int
}

// NewRegistry creates an empty lobby
func NewRegistry(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	return &Registry{
		log:   opts.Logger.WithPrefix("lobby"),
		clock: opts.Clock,
		opts:  opts,
		ids:   gameid.NewGenerator(nil),
		games: make(map[string]*Entry),
	}
}

// CreateGame spins up a new actor and seats the creator at position 0
func (r *Registry) CreateGame(ctx context.Context, playerID, name string) (*Entry, string, error) {
	id := r.ids.Generate()

	var deals deck.DealSource = deck.NewCryptoDealSource()
	var fixed *deck.FixedDealSource
	if r.opts.DevDeals {
		fixed = deck.NewFixedDealSource(deals)
		deals = fixed
	}

	actor := game.New(id, game.Options{
		Logger:  r.opts.Logger,
		Clock:   r.opts.Clock,
		Deals:   deals,
		Timers:  r.opts.Timers,
		Abandon: r.opts.Abandon,
		Sink:    r.opts.Sink,
		Metrics: r.opts.Metrics,
	})
	exec := ai.NewExecutor(actor, ai.ExecutorOptions{
		Logger:             r.opts.Logger,
		Clock:              r.opts.Clock,
		DelayMin:           r.opts.AIDelay[0],
		DelayMax:           r.opts.AIDelay[1],
		AnalysisIterations: r.opts.Analysis,
	})
	actor.SetDriver(exec)

	if _, err := actor.Join(ctx, playerID, name, engine.SeatHuman); err != nil {
		actor.Stop()
		return nil, "", err
	}

	entry := &Entry{
		Actor:     actor,
		Executor:  exec,
		Deals:     fixed,
		CreatedAt: r.clock.Now(),
	}
	r.mu.Lock()
	r.games[id] = entry
	r.mu.Unlock()

	r.log.Info("game created", "game", id, "creator", name)
	return entry, id, nil
}

// Get looks up a live game
func (r *Registry) Get(id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.games[id]; ok {
		return entry, nil
	}
	return nil, engine.ErrGameNotFound
}

// List returns joinable games: those still waiting for players
func (r *Registry) List(ctx context.Context) []Summary {
	r.mu.RLock()
	entries := make(map[string]*Entry, len(r.games))
	for id, e := range r.games {
		entries[id] = e
	}
	r.mu.RUnlock()

	var out []Summary
	for id, entry := range entries {
		snap, err := entry.Actor.Snapshot(ctx)
		if err != nil {
			continue
		}
		if snap.Phase != engine.PhaseWaitingForPlayers {
			continue
		}
		summary := Summary{
			GameID:      id,
			SeatsFilled: snap.SeatCount(),
			Phase:       string(snap.Phase),
			CreatedAt:   entry.CreatedAt,
		}
		for _, p := range snap.Players {
			if p != nil {
				summary.Players = append(summary.Players, p.Name)
			}
		}
		out = append(out, summary)
	}
	return out
}

// SeatAI adds an AI player to a waiting game
func (r *Registry) SeatAI(ctx context.Context, id, difficulty string, character ai.Character) (int, error) {
	iterations, ok := difficultyIterations[difficulty]
	if !ok {
		if difficulty != "" {
			return -1, engine.InvalidAction("unknown difficulty %q", difficulty)
		}
		iterations = difficultyIterations[DefaultDifficulty]
	}

	entry, err := r.Get(id)
	if err != nil {
		return -1, err
	}

	r.mu.Lock()
	r.aiSeq++
	seq := r.aiSeq
	r.mu.Unlock()

	aiID := fmt.Sprintf("ai-%s-%d", id, seq)
	aiName := fmt.Sprintf("Bot %d", seq)
	pos, err := entry.Actor.Join(ctx, aiID, aiName, engine.SeatAI)
	if err != nil {
		return -1, err
	}
	entry.Executor.ConfigureSeat(pos, ai.SeatConfig{Iterations: iterations, Character: character})
	r.log.Info("AI seated", "game", id, "position", pos, "difficulty", difficulty, "iterations", iterations)
	return pos, nil
}

// Remove stops and forgets a game
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	entry, ok := r.games[id]
	delete(r.games, id)
	r.mu.Unlock()
	if ok {
		entry.Actor.Stop()
		r.log.Info("game removed", "game", id)
	}
}

// Count returns the number of live games
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// Sweep reaps games that finished more than the linger window ago.
// Run calls it periodically; tests call it directly.
func (r *Registry) Sweep(ctx context.Context) int {
	r.mu.RLock()
	entries := make(map[string]*Entry, len(r.games))
	for id, e := range r.games {
		entries[id] = e
	}
	r.mu.RUnlock()

	removed := 0
	now := r.clock.Now()
	for id, entry := range entries {
		snap, err := entry.Actor.Snapshot(ctx)
		if err != nil {
			r.Remove(id)
			removed++
			continue
		}
		if snap.Phase == engine.PhaseGameOver && now.Sub(snap.UpdatedAt) >= finishedLinger {
			r.Remove(id)
			removed++
		}
	}
	return removed
}

// Run sweeps until the context ends
func (r *Registry) Run(ctx context.Context) error {
	ticker := r.clock.TickerFunc(ctx, time.Minute, func() error {
		r.Sweep(ctx)
		return nil
	})
	return ticker.Wait()
}

// Shutdown stops every live game
func (r *Registry) Shutdown() {
	r.mu.Lock()
	entries := r.games
	r.games = make(map[string]*Entry)
	r.mu.Unlock()
	for _, entry := range entries {
		entry.Actor.Stop()
	}
}
