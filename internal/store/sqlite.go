package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
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
CREATE TABLE IF NOT EXISTS scans (
	id         TEXT PRIMARY KEY,
	domain     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_scans_domain_kind ON scans(domain, kind);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveScan(ctx context.Context, domain string, kind ScanKind, payload any) (*Scan, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal scan payload")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, domain, kind, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, domain, string(kind), string(raw), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert scan for %s", domain)
	}

	return &Scan{ID: id, Domain: domain, Kind: kind, Payload: raw, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetScan(ctx context.Context, id string) (*Scan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, domain, kind, payload, created_at FROM scans WHERE id = ?`,
		id,
	)
	scan, err := scanRow(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get scan %s", id)
	}
	return scan, nil
}

func (s *SQLiteStore) LatestScan(ctx context.Context, domain string, kind ScanKind) (*Scan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, domain, kind, payload, created_at FROM scans WHERE domain = ? AND kind = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		domain, string(kind),
	)
	scan, err := scanRow(row)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest scan for %s", domain)
	}
	return scan, nil
}

func (s *SQLiteStore) ListScans(ctx context.Context, filter ScanFilter) ([]Scan, error) {
	query := `SELECT id, domain, kind, payload, created_at FROM scans WHERE 1=1`
	var args []any

	if filter.Domain != "" {
		query += ` AND domain = ?`
		args = append(args, filter.Domain)
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	query += ` ORDER BY created_at DESC, id DESC`

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
		return nil, eris.Wrap(err, "sqlite: list scans")
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		var sc Scan
		var kind string
		var payload string
		if err := rows.Scan(&sc.ID, &sc.Domain, &kind, &payload, &sc.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		sc.Kind = ScanKind(kind)
		sc.Payload = json.RawMessage(payload)
		scans = append(scans, sc)
	}
	return scans, eris.Wrap(rows.Err(), "sqlite: list scans iterate")
}

func (s *SQLiteStore) DeleteScansBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM scans WHERE created_at < ?`, cutoff.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete old scans")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRow(row rowScanner) (*Scan, error) {
	var sc Scan
	var kind, payload string
	if err := row.Scan(&sc.ID, &sc.Domain, &kind, &payload, &sc.CreatedAt); err != nil {
		return nil, err
	}
	sc.Kind = ScanKind(kind)
	sc.Payload = json.RawMessage(payload)
	return &sc, nil
}
