// Package game runs one game per actor goroutine. The actor owns the
// engine state exclusively; connections, the lobby, and the AI driver
// talk to it only through its inbox. Timers come from an injectable
// clock so tests can drive them deterministically.
package game

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"buckeuchre/internal/deck"
	"buckeuchre/internal/engine"
	"buckeuchre/internal/statistics"
)

// Timers holds the pacing delays the actor schedules
type Timers struct {
	TrickReveal     time.Duration
	RoundStart      time.Duration
	DisconnectGrace time.Duration
}

// DefaultTimers matches live play pacing
func DefaultTimers() Timers {
	return Timers{
		TrickReveal:     3 * time.Second,
		RoundStart:      8 * time.Second,
		DisconnectGrace: 30 * time.Second,
	}
}

// AbandonPolicy decides what happens when a disconnected player's grace
// timer expires mid-game
type AbandonPolicy string

const (
	// AbandonPause leaves the seat disconnected; the game waits.
	AbandonPause AbandonPolicy = "pause"
	// AbandonReplaceAI hands the seat to the AI driver.
	AbandonReplaceAI AbandonPolicy = "ai"
)

// AIDriver observes state changes and drives AI seats. Notify receives
// a private deep copy and must not block.
type AIDriver interface {
	Notify(snapshot *engine.GameState)
	Stop()
}

// Metrics receives actor-level counters. Implementations must be safe
// for concurrent use.
type Metrics interface {
	ActionApplied(actionType string)
	ActionRejected(code string)
	GameFinished()
}

type nopMetrics struct{}

func (nopMetrics) ActionApplied(string) {}
func (nopMetrics) ActionRejected(string) {}
func (nopMetrics) GameFinished()        {}

// Options configures a game actor
type Options struct {
	Logger  *log.Logger
	Clock   quartz.Clock
	Deals   deck.DealSource
	Timers  Timers
	Abandon AbandonPolicy
	Sink    statistics.Sink
	Metrics Metrics
}

// Actor is the single writer for one game
type Actor struct {
	id      string
	log     *log.Logger
	clock   quartz.Clock
	deals   deck.DealSource
	timers  Timers
	abandon AbandonPolicy
	sink    statistics.Sink
	metrics Metrics

	inbox    chan command
	done     chan struct{}
	stopOnce sync.Once

	// Owned by the run loop.
	state     *engine.GameState
	subs      map[string]Subscriber
	driver    AIDriver
	revealSeq uint64
	roundSeq  uint64
	graceSeq  map[string]uint64
	paused    bool
	createdAt time.Time
}

// New creates and starts a game actor
func New(id string, opts Options) *Actor {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Deals == nil {
		opts.Deals = deck.NewCryptoDealSource()
	}
	if opts.Timers == (Timers{}) {
		opts.Timers = DefaultTimers()
	}
	if opts.Abandon == "" {
		opts.Abandon = AbandonPause
	}
	if opts.Sink == nil {
		opts.Sink = statistics.NopSink{}
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}

	now := opts.Clock.Now()
	a := &Actor{
		id:        id,
		log:       opts.Logger.WithPrefix("game").With("game", id),
		clock:     opts.Clock,
		deals:     opts.Deals,
		timers:    opts.Timers,
		abandon:   opts.Abandon,
		sink:      opts.Sink,
		metrics:   opts.Metrics,
		inbox:     make(chan command, 64),
		done:      make(chan struct{}),
		state:     engine.NewGame(id, now),
		subs:      make(map[string]Subscriber),
		graceSeq:  make(map[string]uint64),
		createdAt: now,
	}
	go a.run()
	return a
}

// ID returns the game id
func (a *Actor) ID() string { return a.id }

// SetDriver attaches the AI driver. Call before any AI seat joins.
func (a *Actor) SetDriver(d AIDriver) {
	select {
	case a.inbox <- driverCmd{driver: d}:
	case <-a.done:
	}
}

type driverCmd struct{ driver AIDriver }

func (c driverCmd) apply(a *Actor) { a.driver = c.driver }

// Stop shuts the actor down. Pending commands are dropped.
func (a *Actor) Stop() {
	a.stopOnce.Do(func() {
		close(a.done)
	})
}

// Done is closed when the actor stops
func (a *Actor) Done() <-chan struct{} { return a.done }

func (a *Actor) run() {
	defer func() {
		if a.driver != nil {
			a.driver.Stop()
		}
	}()
	for {
		select {
		case cmd := <-a.inbox:
			cmd.apply(a)
		case <-a.done:
			return
		}
	}
}

// --- command handlers ---

func (c joinCmd) apply(a *Actor) {
	pos, err := a.state.AddPlayer(c.playerID, c.name, c.seatType, a.deals)
	c.reply <- joinReply{position: pos, err: err}
	if err != nil {
		return
	}
	a.stamp()
	if a.state.Phase == engine.PhaseWaitingForPlayers {
		a.broadcast(Event{Type: EventGameWaiting, SeatsFilled: a.state.SeatCount()})
		a.broadcastState()
		return
	}
	// Fourth seat filled; the first round was just dealt.
	a.log.Info("game started", "round", a.state.Round, "dealer", a.state.DealerPosition)
	a.afterChange()
}

func (c actCmd) apply(a *Actor) {
	pos, err := a.seatOf(c.playerID)
	if err != nil {
		c.reply <- err
		return
	}
	c.reply <- a.applyAction(pos, c.action)
}

func (c aiActCmd) apply(a *Actor) {
	if c.version != a.state.Version {
		a.log.Debug("dropping stale AI action", "position", c.position,
			"version", c.version, "current", a.state.Version)
		return
	}
	if err := a.applyAction(c.position, c.action); err != nil {
		a.log.Error("AI action rejected", "position", c.position,
			"action", c.action.Key(), "err", err)
	}
}

// applyAction runs one engine transition and fans out the result
func (a *Actor) applyAction(pos int, action engine.Action) error {
	priorRound := a.state.Round
	priorPhase := a.state.Phase

	if err := a.state.Apply(pos, action, a.deals); err != nil {
		a.metrics.ActionRejected(string(engine.CodeOf(err)))
		return err
	}
	a.metrics.ActionApplied(string(action.Type))

	if priorPhase == engine.PhaseBidding && a.state.Round > priorRound {
		a.broadcast(Event{Type: EventAllPlayersPassed})
	}
	a.afterChange()
	return nil
}

func (c startRoundCmd) apply(a *Actor) {
	if _, err := a.seatOf(c.playerID); err != nil {
		c.reply <- err
		return
	}
	c.reply <- a.beginNextRound()
}

func (c leaveCmd) apply(a *Actor) {
	pos, err := a.seatOf(c.playerID)
	if err != nil {
		c.reply <- err
		return
	}
	if a.state.Phase != engine.PhaseWaitingForPlayers {
		c.reply <- engine.InvalidAction("cannot leave a started game")
		return
	}
	a.state.RemovePlayer(pos)
	a.stamp()
	delete(a.subs, c.playerID)
	c.reply <- nil
	a.broadcast(Event{Type: EventGameWaiting, SeatsFilled: a.state.SeatCount()})
	a.broadcastState()
}

func (c snapshotCmd) apply(a *Actor) {
	c.reply <- a.state.Clone()
}

func (c connectCmd) apply(a *Actor) {
	a.subs[c.playerID] = c.sub
	a.graceSeq[c.playerID]++

	p := a.state.PlayerByID(c.playerID)
	if p != nil && !p.Connected {
		p.Connected = true
		a.stamp()
		if a.state.Phase != engine.PhaseWaitingForPlayers {
			a.broadcast(Event{Type: EventPlayerReconnected,
				PlayerPosition: intPtr(p.Position), PlayerName: p.Name})
		} else {
			a.broadcast(Event{Type: EventPlayerConnected,
				PlayerPosition: intPtr(p.Position), PlayerName: p.Name})
		}
		if a.paused && !a.humanDisconnected() {
			a.resume()
		}
	}
	// The new subscriber always gets a fresh view immediately.
	if p != nil {
		c.sub.Deliver(Event{Type: EventGameState, State: Redact(a.state, p.Position)})
	} else {
		c.sub.Deliver(Event{Type: EventGameState, State: Redact(a.state, -1)})
	}
}

func (c disconnectCmd) apply(a *Actor) {
	delete(a.subs, c.playerID)
	p := a.state.PlayerByID(c.playerID)
	if p == nil || !p.Connected {
		return
	}
	p.Connected = false
	a.stamp()
	a.broadcast(Event{Type: EventPlayerDisconnected,
		PlayerPosition: intPtr(p.Position), PlayerName: p.Name})

	if a.state.Phase == engine.PhaseWaitingForPlayers {
		// Unstarted games just free the seat.
		a.state.RemovePlayer(p.Position)
		a.broadcast(Event{Type: EventGameWaiting, SeatsFilled: a.state.SeatCount()})
		return
	}

	a.graceSeq[c.playerID]++
	seq := a.graceSeq[c.playerID]
	id := c.playerID
	a.clock.AfterFunc(a.timers.DisconnectGrace, func() {
		select {
		case a.inbox <- graceTimerCmd{playerID: id, seq: seq}:
		case <-a.done:
		}
	})
}

func (c graceTimerCmd) apply(a *Actor) {
	if c.seq != a.graceSeq[c.playerID] {
		return
	}
	p := a.state.PlayerByID(c.playerID)
	if p == nil || p.Connected {
		return
	}
	switch a.abandon {
	case AbandonReplaceAI:
		a.log.Info("handing abandoned seat to AI", "position", p.Position, "player", p.Name)
		p.Type = engine.SeatAI
		a.afterChange()
	default:
		a.log.Info("player abandoned, game paused", "position", p.Position, "player", p.Name)
		a.pause()
	}
}

// pause cancels any pending pacing timers. The game holds wherever it
// is until the abandoned seat reconnects.
func (a *Actor) pause() {
	a.paused = true
	a.revealSeq++
	a.roundSeq++
}

// resume re-arms whichever pacing timer the held phase was waiting on
func (a *Actor) resume() {
	a.paused = false
	s := a.state
	switch {
	case s.Phase == engine.PhasePlaying && s.CurrentTrick != nil && s.CurrentTrick.Complete():
		a.scheduleReveal()
	case s.Phase == engine.PhaseRoundOver && s.Scored:
		a.scheduleRoundStart()
	}
}

// humanDisconnected reports whether any human seat is still offline
func (a *Actor) humanDisconnected() bool {
	for _, p := range a.state.Players {
		if p != nil && p.Type == engine.SeatHuman && !p.Connected {
			return true
		}
	}
	return false
}

func (c analysisCmd) apply(a *Actor) {
	p := a.state.Players[c.analysis.Position]
	if p == nil || p.Type != engine.SeatHuman {
		return
	}
	if c.analysis.Version != a.state.Version {
		return
	}
	if sub, ok := a.subs[p.ID]; ok {
		analysis := c.analysis
		sub.Deliver(Event{Type: EventAIAnalysis, Analysis: &analysis})
	}
}

func (c revealTimerCmd) apply(a *Actor) {
	if c.seq != a.revealSeq {
		return
	}
	if err := a.state.BeginNextTrick(); err != nil {
		a.log.Error("reveal timer misfire", "err", err)
		return
	}
	a.afterChange()
}

func (c roundTimerCmd) apply(a *Actor) {
	if c.seq != a.roundSeq {
		return
	}
	if err := a.beginNextRound(); err != nil {
		a.log.Error("round timer misfire", "err", err)
	}
}

func (a *Actor) beginNextRound() error {
	a.roundSeq++
	if err := a.state.StartNextRound(a.deals); err != nil {
		return err
	}
	a.log.Info("round started", "round", a.state.Round, "dealer", a.state.DealerPosition)
	a.afterChange()
	return nil
}

// --- fan-out and pacing ---

// afterChange stamps and broadcasts the new state, settles round
// scoring, and schedules whatever pacing timer the phase calls for
func (a *Actor) afterChange() {
	a.stamp()
	s := a.state

	if s.Phase == engine.PhasePlaying && s.CurrentTrick != nil && s.CurrentTrick.Complete() {
		a.broadcastState()
		a.broadcast(Event{Type: EventTrickComplete,
			TrickNumber:        intPtr(s.CurrentTrick.Number),
			TrickWinner:        intPtr(s.CurrentTrick.Winner),
			NextPlayerPosition: intPtr(s.CurrentPlayer)})
		if !a.paused {
			a.scheduleReveal()
		}
		a.notifyDriver()
		return
	}

	if s.Phase == engine.PhaseRoundOver && !s.Scored {
		deltas, err := s.ScoreRound()
		if err != nil {
			a.log.Error("scoring failed", "round", s.Round, "err", err)
			return
		}
		scores := make(map[int]int, engine.NumPlayers)
		for i, d := range deltas {
			scores[i] = d
		}
		a.broadcastState()
		a.broadcast(Event{Type: EventRoundComplete, ScoreDeltas: scores})

		if s.Phase == engine.PhaseGameOver {
			a.finishGame()
			return
		}
		if !a.paused {
			a.scheduleRoundStart()
		}
		a.notifyDriver()
		return
	}

	a.broadcastState()
	if s.Phase == engine.PhaseGameOver {
		a.finishGame()
		return
	}
	a.notifyDriver()
}

// stamp records when the state last changed; the lobby reaper keys its
// linger window off this, so the engine never touches a wall clock.
func (a *Actor) stamp() {
	a.state.UpdatedAt = a.clock.Now()
}

func (a *Actor) scheduleReveal() {
	a.revealSeq++
	seq := a.revealSeq
	a.clock.AfterFunc(a.timers.TrickReveal, func() {
		select {
		case a.inbox <- revealTimerCmd{seq: seq}:
		case <-a.done:
		}
	})
}

func (a *Actor) scheduleRoundStart() {
	a.roundSeq++
	seq := a.roundSeq
	a.clock.AfterFunc(a.timers.RoundStart, func() {
		select {
		case a.inbox <- roundTimerCmd{seq: seq}:
		case <-a.done:
		}
	})
}

func (a *Actor) finishGame() {
	s := a.state
	a.log.Info("game over", "winner", s.Winner, "rounds", s.Round)
	a.metrics.GameFinished()

	result := statistics.GameResult{
		GameID:     a.id,
		Winner:     s.Winner,
		Rounds:     s.Round,
		StartedAt:  a.createdAt,
		FinishedAt: a.clock.Now(),
	}
	for i, p := range s.Players {
		if p == nil {
			continue
		}
		result.Players = append(result.Players, statistics.PlayerResult{
			PlayerID:    p.ID,
			DisplayName: p.Name,
			Position:    i,
			Score:       p.Score,
			IsAI:        p.Type == engine.SeatAI,
		})
	}
	// Sinks are best-effort; a slow or broken sink never blocks the
	// actor.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.sink.RecordGameResult(ctx, result); err != nil {
			a.log.Error("statistics sink failed", "err", err)
		}
	}()
}

func (a *Actor) notifyDriver() {
	if a.driver == nil {
		return
	}
	a.driver.Notify(a.state.Clone())
}

// broadcastState sends each subscriber its own redacted view
func (a *Actor) broadcastState() {
	for playerID, sub := range a.subs {
		viewer := -1
		if p := a.state.PlayerByID(playerID); p != nil {
			viewer = p.Position
		}
		sub.Deliver(Event{Type: EventGameState, State: Redact(a.state, viewer)})
	}
}

// broadcast sends the same event to every subscriber
func (a *Actor) broadcast(event Event) {
	for _, sub := range a.subs {
		sub.Deliver(event)
	}
}

func (a *Actor) seatOf(playerID string) (int, error) {
	if p := a.state.PlayerByID(playerID); p != nil {
		return p.Position, nil
	}
	return -1, engine.NotSeated("player %s is not seated in game %s", playerID, a.id)
}
