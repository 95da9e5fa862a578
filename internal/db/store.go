package db

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate is returned when an insert trips a unique constraint
// (one project per student, one evaluation per project, scheme year).
var ErrDuplicate = errors.New("duplicate row")

// Store wraps the shared *sql.DB handle. State-changing methods embed their
// guards in the WHERE clause and report via the bool return whether the
// guarded row was actually touched, so a stale read can never commit a
// transition that stopped being legal.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) *Store { return &Store{db: database} }

func (s *Store) DB() *sql.DB { return s.db }

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
