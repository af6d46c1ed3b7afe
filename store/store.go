// Package store persists player accounts, match results and the leaderboard
// in SQLite. Nothing here is consulted by the live coordinator; it serves the
// HTTP collaborators (auth, results, leaderboard).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	rating        INTEGER NOT NULL DEFAULT 0,
	wins          INTEGER NOT NULL DEFAULT 0,
	losses        INTEGER NOT NULL DEFAULT 0,
	draws         INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id     TEXT NOT NULL,
	white       TEXT NOT NULL,
	black       TEXT NOT NULL,
	winner      TEXT NOT NULL DEFAULT '',
	recorded_at INTEGER NOT NULL
);
`

// Rating swing applied per decisive result.
const ratingDelta = 10

// User is a stored player account.
type User struct {
	ID        int64
	Username  string
	Email     string
	Hash      string
	Rating    int
	Wins      int
	Losses    int
	Draws     int
	CreatedAt time.Time
}

// Result is one finished game. An empty Winner means a draw.
type Result struct {
	RoomID string `json:"roomId"`
	White  string `json:"white"`
	Black  string `json:"black"`
	Winner string `json:"winner,omitempty"`
}

// Store wraps the SQLite handle.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the SQLite database and applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateUser inserts a new account. Duplicate username or email reports
// ErrUserExists.
func (s *Store) CreateUser(ctx context.Context, username, email, hash string) error {
	if username == "" || email == "" || hash == "" {
		return fmt.Errorf("username, email and password hash are required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		username, email, hash, time.Now().UTC().UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UserByEmail loads one account by email.
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.userBy(ctx, "email", email)
}

// UserByName loads one account by username.
func (s *Store) UserByName(ctx context.Context, username string) (User, error) {
	return s.userBy(ctx, "username", username)
}

func (s *Store) userBy(ctx context.Context, column, value string) (User, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, rating, wins, losses, draws, created_at
		 FROM users WHERE `+column+` = ?`, value)

	var u User
	var createdAt int64
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Hash, &u.Rating,
		&u.Wins, &u.Losses, &u.Draws, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("load user: %w", err)
	}
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	return u, nil
}

// RecordResult stores a finished game and adjusts both players' counters and
// ratings in one transaction. Players without an account are skipped.
func (s *Store) RecordResult(ctx context.Context, r Result) error {
	if r.RoomID == "" || r.White == "" || r.Black == "" {
		return fmt.Errorf("room id and both players are required")
	}
	if r.Winner != "" && r.Winner != r.White && r.Winner != r.Black {
		return fmt.Errorf("winner %q is not a participant", r.Winner)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO results (room_id, white, black, winner, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		r.RoomID, r.White, r.Black, r.Winner, time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	if r.Winner == "" {
		for _, name := range []string{r.White, r.Black} {
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET draws = draws + 1 WHERE username = ?`, name); err != nil {
				return fmt.Errorf("update draws: %w", err)
			}
		}
	} else {
		loser := r.White
		if r.Winner == r.White {
			loser = r.Black
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET wins = wins + 1, rating = rating + ? WHERE username = ?`,
			ratingDelta, r.Winner); err != nil {
			return fmt.Errorf("update winner: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET losses = losses + 1, rating = MAX(0, rating - ?) WHERE username = ?`,
			ratingDelta, loser); err != nil {
			return fmt.Errorf("update loser: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Standing is one leaderboard row.
type Standing struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Draws    int    `json:"draws"`
}

// Leaderboard returns the top rated players.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT username, rating, wins, losses, draws FROM users
		 ORDER BY rating DESC, username ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var standings []Standing
	for rows.Next() {
		var st Standing
		if err := rows.Scan(&st.Username, &st.Rating, &st.Wins, &st.Losses, &st.Draws); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		standings = append(standings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	return standings, nil
}

func isUniqueViolation(err error) bool {
	var serr *msqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}
