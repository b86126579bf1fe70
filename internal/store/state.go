package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"guildboard-cli/internal/model"
)

const stateFileName = "state.sqlite"

// Store is rooted at the config dir. The SQLite state is intentionally
// best-effort: callers tolerate missing or invalid data and fall back to
// server state.
type Store struct {
	Dir string
}

// Default returns a store rooted at the resolved config dir.
func Default() (Store, error) {
	dir, err := ConfigDir()
	if err != nil {
		return Store{}, err
	}
	return Store{Dir: dir}, nil
}

func (s Store) statePath() string {
	return filepath.Join(s.Dir, stateFileName)
}

func (s Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store dir not set")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.statePath())
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout avoids "database
	// is locked" flakiness when CLI and TUI run at once.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateState(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateState(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS session (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS scope_state (
			scope TEXT PRIMARY KEY,
			sort_mode TEXT NOT NULL DEFAULT '',
			order_json TEXT NOT NULL DEFAULT '[]'
		);`,
		`CREATE TABLE IF NOT EXISTS recently_viewed (
			entity_id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			viewed_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Session is the small cross-launch state: which guild and view the user was
// last in.
type Session struct {
	LastGuildID string
	LastView    string
}

func (s Store) LoadSession(ctx context.Context) (Session, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return Session{}, err
	}
	defer db.Close()

	out := Session{}
	rows, err := db.QueryContext(ctx, `SELECT k, v FROM session`)
	if err != nil {
		return Session{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Session{}, err
		}
		switch k {
		case "last_guild":
			out.LastGuildID = v
		case "last_view":
			out.LastView = v
		}
	}
	return out, rows.Err()
}

func (s Store) SaveSession(ctx context.Context, sess Session) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	for k, v := range map[string]string{
		"last_guild": sess.LastGuildID,
		"last_view":  sess.LastView,
	} {
		if _, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO session(k, v) VALUES(?, ?)`, k, v); err != nil {
			return err
		}
	}
	return nil
}

// ScopeState remembers, per list scope, the chosen sort mode and the last
// known custom order so a relaunched client shows something sensible before
// the first fetch lands.
type ScopeState struct {
	SortMode model.SortMode
	Order    []string
}

func (s Store) LoadScopeState(ctx context.Context, scope string) (ScopeState, bool, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return ScopeState{}, false, err
	}
	defer db.Close()

	var mode, orderJSON string
	err = db.QueryRowContext(ctx, `SELECT sort_mode, order_json FROM scope_state WHERE scope = ?`, scope).
		Scan(&mode, &orderJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return ScopeState{}, false, nil
	}
	if err != nil {
		return ScopeState{}, false, err
	}

	st := ScopeState{}
	if m, perr := model.ParseSortMode(mode); perr == nil {
		st.SortMode = m
	}
	// Tolerate malformed order blobs: the order just resets.
	_ = json.Unmarshal([]byte(orderJSON), &st.Order)
	return st, true, nil
}

func (s Store) SaveScopeState(ctx context.Context, scope string, st ScopeState) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	b, err := json.Marshal(st.Order)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO scope_state(scope, sort_mode, order_json) VALUES(?, ?, ?)`,
		scope, string(st.SortMode), string(b))
	return err
}

// MarkViewed records that an entity was opened; powers the recently_viewed
// sort mode. LastViewedAt never leaves the client.
func (s Store) MarkViewed(ctx context.Context, kind, entityID string, at time.Time) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx,
		`INSERT OR REPLACE INTO recently_viewed(entity_id, kind, viewed_at) VALUES(?, ?, ?)`,
		entityID, kind, at.UTC().Format(time.RFC3339Nano))
	return err
}

// ViewTimes returns last-view timestamps keyed by entity id.
func (s Store) ViewTimes(ctx context.Context) (map[string]time.Time, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT entity_id, viewed_at FROM recently_viewed`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]time.Time{}
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		if t, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
			out[id] = t
		}
	}
	return out, rows.Err()
}
