// Package ai implements the Information Set Monte Carlo Tree Search
// engine behind AI seats and human hint analysis. Each simulation runs
// against a freshly determinized world so the search never peeks at
// hidden cards.
package ai

import (
	"math"
	rand "math/rand/v2"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"buckeuchre/internal/deck"
	"buckeuchre/internal/engine"
)

// DefaultIterations is the search budget when none is configured.
const DefaultIterations = 5000

// defaultExploration is the UCB1 constant.
var defaultExploration = math.Sqrt2

// Config tunes one search
type Config struct {
	Iterations  int
	Exploration float64
	Character   Character
	Seed        uint64
	// Workers shards the search across independent trees. Zero means
	// one tree per CPU for large budgets, a single tree otherwise.
	Workers int
	// Cancel is polled between simulations; a true return abandons the
	// rest of the budget and reports whatever was searched so far.
	Cancel func() bool
}

func (c Config) normalized() Config {
	if c.Iterations <= 0 {
		c.Iterations = DefaultIterations
	}
	if c.Exploration == 0 {
		c.Exploration = defaultExploration
	}
	c.Character = c.Character.normalized()
	if c.Workers <= 0 {
		if c.Iterations >= 4000 {
			c.Workers = runtime.GOMAXPROCS(0)
		} else {
			c.Workers = 1
		}
	}
	return c
}

// ActionResult is the search summary for one root action
type ActionResult struct {
	Action   engine.Action
	Key      string
	Visits   int
	AvgValue float64
	StdErr   float64
	CILow    float64
	CIHigh   float64
}

// Result is the outcome of a search: per-action statistics sorted by
// visits, and the robust-child best action
type Result struct {
	Position   int
	Iterations int
	Actions    []ActionResult
	Best       engine.Action
	BestKey    string
}

// node is one information-set decision point in the search tree
type node struct {
	action   engine.Action
	key      string
	actor    int
	parent   *node
	children map[string]*node
	stats    actionStats
	// avail counts how often this child was legal when its parent was
	// visited; UCB1 uses it instead of raw parent visits because legal
	// sets vary across determinizations.
	avail int
}

func newNode(parent *node, actor int, a engine.Action) *node {
	return &node{
		action:   a,
		key:      a.Key(),
		actor:    actor,
		parent:   parent,
		children: make(map[string]*node),
	}
}

// ucb1 scores a child for selection
func (n *node) ucb1(c float64) float64 {
	if n.stats.visits == 0 {
		return math.Inf(1)
	}
	return n.stats.Mean() + c*math.Sqrt(math.Log(float64(n.avail))/float64(n.stats.visits))
}

// Search runs ISMCTS from the given state for the seat that currently
// owes a decision. The state is not modified.
func Search(s *engine.GameState, cfg Config) (*Result, bool) {
	cfg = cfg.normalized()
	pos, _, ok := s.CurrentActor()
	if !ok {
		return nil, false
	}
	legal := s.LegalActions(pos)
	if len(legal) == 0 {
		return nil, false
	}
	if cfg.Workers == 1 {
		root := searchTree(s, pos, cfg, cfg.Iterations, rand.New(rand.NewPCG(cfg.Seed, 0)))
		return buildResult(pos, cfg.Iterations, root.children), true
	}

	// Root parallelism: independent trees merged by action key.
	roots := make([]*node, cfg.Workers)
	share := cfg.Iterations / cfg.Workers
	var g errgroup.Group
	for w := 0; w < cfg.Workers; w++ {
		iters := share
		if w == 0 {
			iters += cfg.Iterations % cfg.Workers
		}
		rng := rand.New(rand.NewPCG(cfg.Seed, uint64(w)+1))
		g.Go(func() error {
			roots[w] = searchTree(s, pos, cfg, iters, rng)
			return nil
		})
	}
	_ = g.Wait()

	merged := make(map[string]*node)
	for _, root := range roots {
		for key, child := range root.children {
			if m, ok := merged[key]; ok {
				m.stats.merge(child.stats)
			} else {
				clone := newNode(nil, child.actor, child.action)
				clone.stats = child.stats
				merged[key] = clone
			}
		}
	}
	return buildResult(pos, cfg.Iterations, merged), true
}

// searchTree runs one independent tree for the given budget
func searchTree(s *engine.GameState, rootPos int, cfg Config, iterations int, rng *rand.Rand) *node {
	root := newNode(nil, rootPos, engine.Action{})
	deals := deck.NewSeededDealSource(int64(rng.Uint64()))

	for i := 0; i < iterations; i++ {
		if cfg.Cancel != nil && cfg.Cancel() {
			break
		}
		sim := determinize(s, rootPos, rng)
		leaf := descend(root, sim, cfg, rng, deals)
		values := rollout(sim, rng, cfg.Character, deals)
		for n := leaf; n.parent != nil; n = n.parent {
			n.stats.add(values[n.actor])
		}
	}
	return root
}

// descend selects through the tree on the determinized state until it
// expands a new child or hits the end of the hand
func descend(root *node, sim *engine.GameState, cfg Config, rng *rand.Rand, deals deck.DealSource) *node {
	n := root
	for {
		if sim.Phase == engine.PhaseRoundOver || sim.Phase == engine.PhaseGameOver {
			return n
		}
		if sim.Phase == engine.PhasePlaying && sim.CurrentTrick != nil && sim.CurrentTrick.Complete() {
			if err := sim.BeginNextTrick(); err != nil {
				return n
			}
			continue
		}
		pos, _, ok := sim.CurrentActor()
		if !ok {
			return n
		}
		legal := sim.LegalActions(pos)
		if len(legal) == 0 {
			return n
		}

		// Track availability and collect untried actions for this
		// determinization.
		var untried []engine.Action
		for _, a := range legal {
			if child, ok := n.children[a.Key()]; ok {
				child.avail++
			} else {
				untried = append(untried, a)
			}
		}

		if len(untried) > 0 {
			a := untried[rng.IntN(len(untried))]
			child := newNode(n, pos, a)
			child.avail = 1
			n.children[a.Key()] = child
			if err := sim.Apply(pos, a, deals); err != nil {
				return n
			}
			return child
		}

		var best *node
		bestScore := math.Inf(-1)
		for _, a := range legal {
			child := n.children[a.Key()]
			if score := child.ucb1(cfg.Exploration); score > bestScore {
				best, bestScore = child, score
			}
		}
		if best == nil {
			return n
		}
		if err := sim.Apply(pos, best.action, deals); err != nil {
			return n
		}
		n = best
	}
}

// buildResult summarizes root children, most-visited first
func buildResult(pos, iterations int, children map[string]*node) *Result {
	r := &Result{Position: pos, Iterations: iterations}
	for _, child := range children {
		low, high := child.stats.CI95()
		r.Actions = append(r.Actions, ActionResult{
			Action:   child.action,
			Key:      child.key,
			Visits:   child.stats.visits,
			AvgValue: child.stats.Mean(),
			StdErr:   child.stats.StdErr(),
			CILow:    low,
			CIHigh:   high,
		})
	}
	sort.Slice(r.Actions, func(i, j int) bool {
		if r.Actions[i].Visits != r.Actions[j].Visits {
			return r.Actions[i].Visits > r.Actions[j].Visits
		}
		return r.Actions[i].Key < r.Actions[j].Key
	})
	if len(r.Actions) > 0 {
		r.Best = r.Actions[0].Action
		r.BestKey = r.Actions[0].Key
	}
	return r
}
