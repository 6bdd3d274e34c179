package statistics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"
)

const createResultsTable = `
CREATE TABLE IF NOT EXISTS game_results (
	game_id     TEXT PRIMARY KEY,
	winner      INTEGER NOT NULL,
	rounds      INTEGER NOT NULL,
	players     JSONB NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
)`

const insertResult = `
INSERT INTO game_results (game_id, winner, rounds, players, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (game_id) DO NOTHING`

// PostgresSink appends finished games to a game_results table. Rows are
// insert-only; a replayed result for the same game id is a no-op.
type PostgresSink struct {
	db  *sql.DB
	log *log.Logger
}

// NewPostgresSink opens the database, verifies connectivity, and
// ensures the results table exists.
func NewPostgresSink(ctx context.Context, dsn string, logger *log.Logger) (*PostgresSink, error) {
	if logger == nil {
		logger = log.Default()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createResultsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating game_results table: %w", err)
	}
	return &PostgresSink{db: db, log: logger.WithPrefix("statistics")}, nil
}

func (s *PostgresSink) RecordGameResult(ctx context.Context, result GameResult) error {
	players, err := json.Marshal(result.Players)
	if err != nil {
		return fmt.Errorf("encoding players: %w", err)
	}
	res, err := s.db.ExecContext(ctx, insertResult,
		result.GameID, result.Winner, result.Rounds, players,
		result.StartedAt, result.FinishedAt)
	if err != nil {
		return fmt.Errorf("inserting game result: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.log.Warn("duplicate game result ignored", "game", result.GameID)
	}
	return nil
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}
