package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/cnpj-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS lookups (
	id         TEXT PRIMARY KEY,
	identifier TEXT NOT NULL,
	result     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_lookups_identifier ON lookups(identifier);
CREATE INDEX IF NOT EXISTS idx_lookups_created_at ON lookups(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveLookup(ctx context.Context, result model.LookupResult) (*model.Lookup, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lookups (id, identifier, result, created_at) VALUES (?, ?, ?, ?)`,
		id, result.Identifier, string(resultJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert lookup")
	}

	return &model.Lookup{ID: id, Identifier: result.Identifier, Result: result, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetLookup(ctx context.Context, id string) (*model.Lookup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, identifier, result, created_at FROM lookups WHERE id = ?`,
		id,
	)

	var l model.Lookup
	var resultJSON string
	if err := row.Scan(&l.ID, &l.Identifier, &resultJSON, &l.CreatedAt); err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lookup %s", id)
	}
	if err := json.Unmarshal([]byte(resultJSON), &l.Result); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal lookup %s", id)
	}
	return &l, nil
}

func (s *SQLiteStore) ListLookups(ctx context.Context, filter LookupFilter) ([]model.Lookup, error) {
	query := `SELECT id, identifier, result, created_at FROM lookups WHERE 1=1`
	var args []any

	if filter.Identifier != "" {
		query += ` AND identifier = ?`
		args = append(args, filter.Identifier)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lookups")
	}
	defer rows.Close()

	var lookups []model.Lookup
	for rows.Next() {
		var l model.Lookup
		var resultJSON string
		if err := rows.Scan(&l.ID, &l.Identifier, &resultJSON, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lookup")
		}
		if err := json.Unmarshal([]byte(resultJSON), &l.Result); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal lookup %s", l.ID)
		}
		lookups = append(lookups, l)
	}
	return lookups, eris.Wrap(rows.Err(), "sqlite: list lookups iterate")
}
