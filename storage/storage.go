package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"plansync-api/domain"
)

// Store provides durable persistence for the project/goal/task hierarchy on
// Postgres. All multi-entity writes (cascade deletes, reconciliation batches)
// run inside a single transaction.
type Store struct {
	log  *log.Logger
	conn *sqlx.DB
}

// New connects to Postgres at the given address.
func New(logger *log.Logger, address string) (*Store, error) {
	conn, err := sqlx.Connect("pgx", address)
	if err != nil {
		logger.WithError(err).Error("postgres connection failed")
		return nil, err
	}
	return &Store{log: logger, conn: conn}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping verifies the store connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// normalizeCompletedAt keeps the completion timestamp invariant: non-nil iff
// the task is completed.
func normalizeCompletedAt(completed bool, completedAt *time.Time, now time.Time) *time.Time {
	if !completed {
		return nil
	}
	if completedAt != nil {
		ts := completedAt.UTC()
		return &ts
	}
	ts := now.UTC()
	return &ts
}

// pg helpers

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

func translateWriteError(err error) error {
	switch {
	case isUniqueViolation(err):
		return domain.ErrConflict
	case isForeignKeyViolation(err):
		return domain.ErrNotFound
	case isCheckViolation(err):
		return domain.NewValidationError(domain.FieldError{Field: "name", Message: "out of range"})
	}
	return err
}
