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
)

// Pool is the subset of pgxpool.Pool the store uses. Satisfied by pgxmock
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
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
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	domain     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scans_domain_kind ON scans(domain, kind);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveScan(ctx context.Context, domain string, kind ScanKind, payload any) (*Scan, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal scan payload")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scans (id, domain, kind, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, domain, string(kind), string(raw), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert scan for %s", domain)
	}

	return &Scan{ID: id, Domain: domain, Kind: kind, Payload: raw, CreatedAt: now}, nil
}

func (s *PostgresStore) GetScan(ctx context.Context, id string) (*Scan, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, domain, kind, payload, created_at FROM scans WHERE id = $1`, id,
	)
	scan, err := scanRow(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get scan %s", id)
	}
	return scan, nil
}

func (s *PostgresStore) LatestScan(ctx context.Context, domain string, kind ScanKind) (*Scan, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, domain, kind, payload, created_at FROM scans WHERE domain = $1 AND kind = $2 ORDER BY created_at DESC, id DESC LIMIT 1`,
		domain, string(kind),
	)
	scan, err := scanRow(row)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: latest scan for %s", domain)
	}
	return scan, nil
}

func (s *PostgresStore) ListScans(ctx context.Context, filter ScanFilter) ([]Scan, error) {
	query := `SELECT id, domain, kind, payload, created_at FROM scans WHERE 1=1`
	var args []any

	if filter.Domain != "" {
		args = append(args, filter.Domain)
		query += ` AND domain = ` + placeholder(len(args))
	}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		query += ` AND kind = ` + placeholder(len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT ` + placeholder(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET ` + placeholder(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scans")
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		sc, err := scanRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		scans = append(scans, *sc)
	}
	return scans, eris.Wrap(rows.Err(), "postgres: list scans iterate")
}

func (s *PostgresStore) DeleteScansBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM scans WHERE created_at < $1`, cutoff.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete old scans")
	}
	return int(tag.RowsAffected()), nil
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
