package game

import (
	"context"

	"buckeuchre/internal/engine"
)

// command is one message on the actor's inbox. Every state mutation
// flows through here; the run loop is the only goroutine that touches
// the engine state.
type command interface {
	apply(a *Actor)
}

type joinReply struct {
	position int
	err      error
}

type joinCmd struct {
	playerID string
	name     string
	seatType engine.SeatType
	reply    chan joinReply
}

type actCmd struct {
	playerID string
	action   engine.Action
	reply    chan error
}

// aiActCmd is an action submitted by the AI driver. It carries the
// state version the search ran against; a stale version is dropped.
type aiActCmd struct {
	position int
	version  uint64
	action   engine.Action
}

type startRoundCmd struct {
	playerID string
	reply    chan error
}

type leaveCmd struct {
	playerID string
	reply    chan error
}

type snapshotCmd struct {
	reply chan *engine.GameState
}

type connectCmd struct {
	playerID string
	sub      Subscriber
}

type disconnectCmd struct {
	playerID string
}

type analysisCmd struct {
	analysis ActionAnalysis
}

type revealTimerCmd struct{ seq uint64 }

type roundTimerCmd struct{ seq uint64 }

type graceTimerCmd struct {
	playerID string
	seq      uint64
}

// send enqueues a command, giving up if the actor stops or the context
// ends first
func (a *Actor) send(ctx context.Context, cmd command) error {
	select {
	case a.inbox <- cmd:
		return nil
	case <-a.done:
		return engine.ErrGameNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join seats a player, or returns their existing seat. Seating the
// fourth player starts the game.
func (a *Actor) Join(ctx context.Context, playerID, name string, seatType engine.SeatType) (int, error) {
	reply := make(chan joinReply, 1)
	if err := a.send(ctx, joinCmd{playerID: playerID, name: name, seatType: seatType, reply: reply}); err != nil {
		return -1, err
	}
	select {
	case r := <-reply:
		return r.position, r.err
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// Act applies a player action (bid, trump, fold, card)
func (a *Actor) Act(ctx context.Context, playerID string, action engine.Action) error {
	reply := make(chan error, 1)
	if err := a.send(ctx, actCmd{playerID: playerID, action: action, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartNextRound deals the next round ahead of the auto-start timer
func (a *Actor) StartNextRound(ctx context.Context, playerID string) error {
	reply := make(chan error, 1)
	if err := a.send(ctx, startRoundCmd{playerID: playerID, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leave removes a player from a game that has not started
func (a *Actor) Leave(ctx context.Context, playerID string) error {
	reply := make(chan error, 1)
	if err := a.send(ctx, leaveCmd{playerID: playerID, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a deep copy of the current state
func (a *Actor) Snapshot(ctx context.Context) (*engine.GameState, error) {
	reply := make(chan *engine.GameState, 1)
	if err := a.send(ctx, snapshotCmd{reply: reply}); err != nil {
		return nil, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Connect attaches a player's event subscriber. A second connection for
// the same player replaces the first.
func (a *Actor) Connect(ctx context.Context, playerID string, sub Subscriber) error {
	return a.send(ctx, connectCmd{playerID: playerID, sub: sub})
}

// Disconnect detaches a player's subscriber and starts the reconnect
// grace timer if the game is in progress
func (a *Actor) Disconnect(ctx context.Context, playerID string) error {
	return a.send(ctx, disconnectCmd{playerID: playerID})
}

// SubmitAI hands an AI decision to the actor. Decisions computed
// against a superseded state version are discarded.
func (a *Actor) SubmitAI(position int, version uint64, action engine.Action) {
	select {
	case a.inbox <- aiActCmd{position: position, version: version, action: action}:
	case <-a.done:
	}
}

// PublishAnalysis delivers hint statistics to the analyzed seat
func (a *Actor) PublishAnalysis(analysis ActionAnalysis) {
	select {
	case a.inbox <- analysisCmd{analysis: analysis}:
	case <-a.done:
	}
}
