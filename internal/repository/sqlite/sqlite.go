// Package sqlite implements the repository interfaces on an embedded SQLite
// database. Timestamps are stored as fixed-width UTC text so they sort lexically.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/spec-kit/helpdesk-service/internal/repository"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

// NewStore returns the SQLite-backed repositories sharing one handle.
func NewStore(db *sql.DB) repository.Store {
	return repository.Store{
		Users:   NewUserRepository(db),
		Tickets: NewTicketRepository(db),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", raw, err)
	}
	return t, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var sqliteErr *sqlitedriver.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return repository.ErrDuplicate
		}
	}
	return err
}
