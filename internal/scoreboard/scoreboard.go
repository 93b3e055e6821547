// Package scoreboard persists finished reactor sessions in SQLite.
package scoreboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/appengine-ltd/reactor/internal/reactor"
)

const schemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL UNIQUE,
    seed INTEGER NOT NULL,
    cause TEXT NOT NULL,
    power_generated REAL NOT NULL,
    ticks INTEGER NOT NULL,
    sim_time_ns INTEGER NOT NULL,
    recorded_at_ns INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_power ON sessions(power_generated DESC);
CREATE INDEX IF NOT EXISTS idx_sessions_recorded ON sessions(recorded_at_ns DESC);
`

var ErrNotFound = errors.New("session not found")

// Entry is one finished session.
type Entry struct {
	ID             int64         `json:"id"`
	SessionID      uuid.UUID     `json:"session_id"`
	Seed           int64         `json:"seed"`
	Cause          reactor.Cause `json:"cause"`
	PowerGenerated float64       `json:"power_generated"`
	Ticks          uint64        `json:"ticks"`
	SimTime        time.Duration `json:"sim_time"`
	RecordedAt     time.Time     `json:"recorded_at"`
}

// Summary is the game-over line for the entry.
func (e Entry) Summary() string {
	return reactor.GameOver{Cause: e.Cause, PowerGenerated: e.PowerGenerated}.Summary()
}

type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the scoreboard at path. ":memory:" keeps it in
// memory for the life of the store.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create scoreboard directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open scoreboard: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize scoreboard schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)`,
		schemaVersion, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a game over. Recording the same session twice keeps the
// first row and returns it.
func (s *Store) Record(ctx context.Context, over reactor.GameOver) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, seed, cause, power_generated, ticks, sim_time_ns, recorded_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO NOTHING`,
		over.SessionID.String(), over.Seed, over.Cause.String(), over.PowerGenerated,
		int64(over.Tick), int64(over.SimTime), s.now().UnixNano())
	if err != nil {
		return Entry{}, fmt.Errorf("failed to record session %s: %w", over.SessionID, err)
	}
	return s.get(ctx, over.SessionID)
}

func (s *Store) Get(ctx context.Context, sessionID uuid.UUID) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx, sessionID)
}

func (s *Store) get(ctx context.Context, sessionID uuid.UUID) (Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE session_id = ?`, sessionID.String())
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Top returns the sessions that generated the most power.
func (s *Store) Top(ctx context.Context, limit int) ([]Entry, error) {
	return s.list(ctx, ` ORDER BY power_generated DESC, sim_time_ns DESC, id ASC LIMIT ?`, limit)
}

// Recent returns the latest finished sessions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return s.list(ctx, ` ORDER BY recorded_at_ns DESC, id DESC LIMIT ?`, limit)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

const selectColumns = `SELECT id, session_id, seed, cause, power_generated, ticks, sim_time_ns, recorded_at_ns FROM sessions`

func (s *Store) list(ctx context.Context, order string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, selectColumns+order, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e         Entry
		sessionID string
		cause     string
		ticks     int64
		simTime   int64
		recorded  int64
	)
	if err := row.Scan(&e.ID, &sessionID, &e.Seed, &cause, &e.PowerGenerated, &ticks, &simTime, &recorded); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("failed to scan session: %w", err)
	}
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return Entry{}, fmt.Errorf("bad session id %q: %w", sessionID, err)
	}
	c, err := reactor.ParseCause(cause)
	if err != nil {
		return Entry{}, fmt.Errorf("bad cause for session %s: %w", sessionID, err)
	}
	e.SessionID = id
	e.Cause = c
	e.Ticks = uint64(ticks)
	e.SimTime = time.Duration(simTime)
	e.RecordedAt = time.Unix(0, recorded)
	return e, nil
}
