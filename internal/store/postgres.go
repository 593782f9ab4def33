package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/cnpj-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, kept narrow so tests
// can substitute a mock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS lookups (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	identifier TEXT NOT NULL,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_lookups_identifier ON lookups(identifier);
CREATE INDEX IF NOT EXISTS idx_lookups_created_at ON lookups(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveLookup(ctx context.Context, result model.LookupResult) (*model.Lookup, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO lookups (id, identifier, result, created_at) VALUES ($1, $2, $3, $4)`,
		id, result.Identifier, resultJSON, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert lookup")
	}

	return &model.Lookup{ID: id, Identifier: result.Identifier, Result: result, CreatedAt: now}, nil
}

func (s *PostgresStore) GetLookup(ctx context.Context, id string) (*model.Lookup, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, identifier, result, created_at FROM lookups WHERE id = $1`,
		id,
	)

	var l model.Lookup
	var resultJSON []byte
	if err := row.Scan(&l.ID, &l.Identifier, &resultJSON, &l.CreatedAt); err != nil {
		return nil, eris.Wrapf(err, "postgres: get lookup %s", id)
	}
	if err := json.Unmarshal(resultJSON, &l.Result); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal lookup %s", id)
	}
	return &l, nil
}

func (s *PostgresStore) ListLookups(ctx context.Context, filter LookupFilter) ([]model.Lookup, error) {
	query := `SELECT id, identifier, result, created_at FROM lookups WHERE 1=1`
	var args []any

	if filter.Identifier != "" {
		args = append(args, filter.Identifier)
		query += ` AND identifier = $1`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lookups")
	}
	defer rows.Close()

	var lookups []model.Lookup
	for rows.Next() {
		var l model.Lookup
		var resultJSON []byte
		if err := rows.Scan(&l.ID, &l.Identifier, &resultJSON, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lookup")
		}
		if err := json.Unmarshal(resultJSON, &l.Result); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal lookup %s", l.ID)
		}
		lookups = append(lookups, l)
	}
	return lookups, eris.Wrap(rows.Err(), "postgres: list lookups iterate")
}

func itoa(n int) string {
	return string(rune('0' + n))
}
