package connlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SQL stores entries in the connections table of a SQLite database.
type SQL struct {
	db *sql.DB
}

// OpenSQL opens dsn and applies migrations.
func OpenSQL(dsn string, log zerolog.Logger) (*SQL, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("open connection db: %w", err)
	}
	if err := migrate(db, log.With().Str("component", "connlog").Logger()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate connection db: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Record(ctx context.Context, e Event) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO connections (at, name, kind, remote, session_id, line)
        VALUES (?, ?, ?, ?, ?, ?)`,
		e.Time.UTC().Format(time.RFC3339Nano), e.Name, string(e.Kind), e.Remote, e.Session, e.Line(),
	)
	if err != nil {
		return fmt.Errorf("insert connection: %w", err)
	}
	return nil
}

func (s *SQL) Recent(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		n = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT line FROM (
            SELECT id, line FROM connections ORDER BY id DESC LIMIT ?
        ) ORDER BY id ASC`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// Logins counts CONNECT entries for name.
func (s *SQL) Logins(ctx context.Context, name string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM connections WHERE name=? AND kind=?`, name, string(Connect),
	).Scan(&n)
	return n, err
}

func (s *SQL) Close() error { return s.db.Close() }
