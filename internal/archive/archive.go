// Package archive persists finished game transcripts in a SQLite database
// so past games can be listed, inspected, and exported after their run
// directories are gone.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nightfall-sim/nightfall/internal/errors"
	"github.com/nightfall-sim/nightfall/internal/game"
	"github.com/nightfall-sim/nightfall/internal/transcript"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	winner     TEXT NOT NULL,
	rounds     INTEGER NOT NULL,
	players    INTEGER NOT NULL,
	messages   INTEGER NOT NULL,
	votes      INTEGER NOT NULL,
	document   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_games_created_at ON games (created_at DESC);
`

// Summary is one archived game's listing row.
type Summary struct {
	ID        string
	CreatedAt time.Time
	Winner    game.Team
	Rounds    int
	Players   int
	Messages  int
	Votes     int
}

// Store is a SQLite-backed transcript archive.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (or creates) the archive database and ensures the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("archive path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping archive db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ensure archive schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Insert archives one finished game. Inserting the same game id twice
// replaces the stored document.
func (s *Store) Insert(ctx context.Context, doc *transcript.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.ID == "" {
		return fmt.Errorf("transcript has no game id")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT OR REPLACE INTO games
			(id, created_at, winner, rounds, players, messages, votes, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID,
		toMillis(doc.CreatedAt),
		string(doc.Result.Winner),
		doc.Result.Rounds,
		len(doc.Players),
		doc.Result.Messages,
		doc.Result.Votes,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", doc.ID, err)
	}
	return nil
}

// List returns archived game summaries, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, created_at, winner, rounds, players, messages, votes
		FROM games ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var created int64
		var winner string
		if err := rows.Scan(&sum.ID, &created, &winner, &sum.Rounds,
			&sum.Players, &sum.Messages, &sum.Votes); err != nil {
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		sum.CreatedAt = fromMillis(created)
		sum.Winner = game.Team(winner)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate game rows: %w", err)
	}
	return out, nil
}

// Get loads one archived transcript by game id.
func (s *Store) Get(ctx context.Context, id string) (*transcript.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT document FROM games WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.NewTranscriptError(
			fmt.Sprintf("game %s is not archived", id), errors.ErrGameNotFound).WithGameID(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}

	var doc transcript.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, errors.NewTranscriptError("parse archived transcript",
			errors.ErrTranscriptCorrupted).WithGameID(id)
	}
	return &doc, nil
}

// Delete removes one archived game. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	return nil
}
