package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ayush/potty-buddy/backend/internal/apperr"
	"github.com/ayush/potty-buddy/backend/internal/models"
)

// PostgreSQL error codes the store translates into apperr kinds.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// PgxDB is the subset of *pgxpool.Pool the store uses.
type PgxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore handles users and events against PostgreSQL.
type PostgresStore struct {
	db PgxDB
}

func NewPostgresStore(db PgxDB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres creates and pings a connection pool capped at maxConns.
func OpenPostgres(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// MigratePostgres brings the schema up to date. Tables created by earlier
// versions of the service are adopted as-is.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return migrate(ctx, db, goose.DialectPostgres, "migrations/postgres")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (username, password_hash)
		 VALUES ($1, $2)
		 RETURNING id, username, password_hash, created_at`,
		username, passwordHash,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// SetPasswordHash stores a hash for a legacy account. It never overwrites an
// existing hash; if one is already present it returns apperr.ErrConflict.
func (s *PostgresStore) SetPasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET password_hash = $1
		 WHERE id = $2 AND (password_hash IS NULL OR password_hash = '')`,
		passwordHash, userID,
	)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrConflict
	}
	return nil
}

func (s *PostgresStore) DeleteUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`DELETE FROM users WHERE username = $1
		 RETURNING id, username, password_hash, created_at`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *PostgresStore) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, mapPgError(err)
	}
	return exists, nil
}

func (s *PostgresStore) InsertEvent(ctx context.Context, userID int64, eventType models.EventType, at time.Time) (*models.Event, error) {
	var (
		ev  = models.Event{UserID: userID}
		typ string
	)
	err := s.db.QueryRow(ctx,
		`INSERT INTO events (user_id, event_type, created_at)
		 VALUES ($1, $2, $3)
		 RETURNING id, event_type, created_at`,
		userID, eventType.String(), at.UTC(),
	).Scan(&ev.ID, &typ, &ev.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	if ev.Type, err = models.ParseEventType(typ); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	ev.CreatedAt = ev.CreatedAt.UTC()
	return &ev, nil
}

// ListEventsSince returns the user's events created at or after since,
// newest first.
func (s *PostgresStore) ListEventsSince(ctx context.Context, userID int64, since time.Time) ([]models.Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, event_type, created_at FROM events
		 WHERE user_id = $1 AND created_at >= $2
		 ORDER BY created_at DESC`,
		userID, since.UTC(),
	)
	if err != nil {
		return nil, mapPgError(err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Event, error) {
		var (
			ev  = models.Event{UserID: userID}
			typ string
		)
		if err := row.Scan(&ev.ID, &typ, &ev.CreatedAt); err != nil {
			return ev, err
		}
		ev.CreatedAt = ev.CreatedAt.UTC()
		t, err := models.ParseEventType(typ)
		ev.Type = t
		return ev, err
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return events, nil
}

// mapPgError translates driver errors into apperr kinds. Anything it does not
// recognise is a storage failure.
func mapPgError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", apperr.ErrConflict, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", apperr.ErrNotFound, pgErr.ConstraintName)
		case pgCheckViolation:
			return fmt.Errorf("%w: %s", apperr.ErrValidation, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("db error: %w", err)
}
