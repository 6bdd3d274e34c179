// Package statistics records terminal game results to pluggable sinks.
// In-progress games are never persisted; a sink only ever sees a game
// once, when it reaches GAME_OVER.
package statistics

import (
	"context"
	"time"
)

// PlayerResult is one seat's final line in a finished game
type PlayerResult struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Position    int    `json:"position"`
	Score       int    `json:"score"`
	IsAI        bool   `json:"isAi"`
}

// GameResult is the terminal record of a finished game
type GameResult struct {
	GameID     string         `json:"gameId"`
	Winner     int            `json:"winner"`
	Rounds     int            `json:"rounds"`
	Players    []PlayerResult `json:"players"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
}

// Sink receives terminal game results. Implementations must be safe for
// concurrent use; callers treat failures as log-and-continue.
type Sink interface {
	RecordGameResult(ctx context.Context, result GameResult) error
	Close() error
}

// NopSink discards every result
type NopSink struct{}

func (NopSink) RecordGameResult(context.Context, GameResult) error { return nil }
func (NopSink) Close() error                                       { return nil }
