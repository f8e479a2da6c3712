package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/ayush/potty-buddy/backend/internal/apperr"
	"github.com/ayush/potty-buddy/backend/internal/models"
)

// SQLiteStore is the single-file backend used for local development and
// tests. Timestamps are stored as unix microseconds in UTC.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore wraps an already opened database. It does not migrate.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// OpenSQLite opens (or creates) the database at path with foreign keys
// enabled and applies pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	s := NewSQLiteStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return s, nil
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		// Every connection to a bare :memory: gets its own empty database.
		path = "file::memory:?cache=shared"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrate(ctx, s.db, goose.DialectSQLite3, "migrations/sqlite")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
	return scanSQLiteUser(row)
}

func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, created_at)
		 VALUES (?, ?, ?)
		 RETURNING id, username, password_hash, created_at`,
		username, passwordHash, toMicros(s.now()))
	return scanSQLiteUser(row)
}

// CreateLegacyUser inserts an account without a password hash, the shape
// rows had before password support.
func (s *SQLiteStore) CreateLegacyUser(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, created_at)
		 VALUES (?, ?)
		 RETURNING id, username, password_hash, created_at`,
		username, toMicros(s.now()))
	return scanSQLiteUser(row)
}

func (s *SQLiteStore) SetPasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?
		 WHERE id = ? AND (password_hash IS NULL OR password_hash = '')`,
		passwordHash, userID)
	if err != nil {
		return mapSQLiteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapSQLiteError(err)
	}
	if n == 0 {
		return apperr.ErrConflict
	}
	return nil
}

func (s *SQLiteStore) DeleteUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`DELETE FROM users WHERE username = ?
		 RETURNING id, username, password_hash, created_at`, username)
	return scanSQLiteUser(row)
}

func (s *SQLiteStore) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, userID).Scan(&exists)
	if err != nil {
		return false, mapSQLiteError(err)
	}
	return exists, nil
}

func (s *SQLiteStore) InsertEvent(ctx context.Context, userID int64, eventType models.EventType, at time.Time) (*models.Event, error) {
	var (
		ev     = models.Event{UserID: userID}
		typ    string
		micros int64
	)
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO events (user_id, event_type, created_at)
		 VALUES (?, ?, ?)
		 RETURNING id, event_type, created_at`,
		userID, eventType.String(), toMicros(at),
	).Scan(&ev.ID, &typ, &micros)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	if ev.Type, err = models.ParseEventType(typ); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	ev.CreatedAt = fromMicros(micros)
	return &ev, nil
}

func (s *SQLiteStore) ListEventsSince(ctx context.Context, userID int64, since time.Time) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, created_at FROM events
		 WHERE user_id = ? AND created_at >= ?
		 ORDER BY created_at DESC`,
		userID, toMicros(since))
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var (
			ev     = models.Event{UserID: userID}
			typ    string
			micros int64
		)
		if err := rows.Scan(&ev.ID, &typ, &micros); err != nil {
			return nil, mapSQLiteError(err)
		}
		t, err := models.ParseEventType(typ)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ev.Type = t
		ev.CreatedAt = fromMicros(micros)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}
	return out, nil
}

func scanSQLiteUser(row *sql.Row) (*models.User, error) {
	var (
		u      models.User
		hash   sql.NullString
		micros int64
	)
	if err := row.Scan(&u.ID, &u.Username, &hash, &micros); err != nil {
		return nil, mapSQLiteError(err)
	}
	if hash.Valid {
		u.PasswordHash = &hash.String
	}
	u.CreatedAt = fromMicros(micros)
	return &u, nil
}

func mapSQLiteError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", apperr.ErrConflict, se)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", apperr.ErrNotFound, se)
		case sqlite3.ErrConstraintCheck:
			return fmt.Errorf("%w: %v", apperr.ErrValidation, se)
		}
	}
	return fmt.Errorf("db error: %w", err)
}

func toMicros(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromMicros(us int64) time.Time { return time.UnixMicro(us).UTC() }
