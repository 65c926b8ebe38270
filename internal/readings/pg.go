package readings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createReadingsSQL = `
CREATE TABLE IF NOT EXISTS readings (
    device     TEXT NOT NULL,
    name       TEXT NOT NULL,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (device, name)
)`

const upsertReadingSQL = `INSERT INTO readings (device, name, value, updated_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (device, name) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = EXCLUDED.updated_at`

// PGStore keeps the readings of one device in PostgreSQL
type PGStore struct {
	pool   *pgxpool.Pool
	device string
	now    func() time.Time
}

// NewPGStore connects to databaseURL and creates the readings table if needed.
func NewPGStore(ctx context.Context, databaseURL, device string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, createReadingsSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create readings table: %w", err)
	}
	return &PGStore{pool: pool, device: device, now: time.Now}, nil
}

// Close releases the pool resources.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PGStore) Update(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	ts := s.now()
	batch := &pgx.Batch{}
	for name, value := range values {
		batch.Queue(upsertReadingSQL, s.device, name, value, ts)
	}

	res := s.pool.SendBatch(ctx, batch)
	defer res.Close()

	for range values {
		if _, err := res.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM readings WHERE device = $1 AND name = $2`, s.device, name).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *PGStore) Delete(ctx context.Context, pattern string) error {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		_, err := s.pool.Exec(ctx,
			`DELETE FROM readings WHERE device = $1 AND starts_with(name, $2)`, s.device, prefix)
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM readings WHERE device = $1 AND name = $2`, s.device, pattern)
	return err
}

func (s *PGStore) Snapshot(ctx context.Context) (map[string]Reading, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, value, updated_at FROM readings WHERE device = $1`, s.device)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]Reading)
	for rows.Next() {
		var name string
		var r Reading
		if err := rows.Scan(&name, &r.Value, &r.Time); err != nil {
			return nil, err
		}
		result[name] = r
	}
	return result, rows.Err()
}
