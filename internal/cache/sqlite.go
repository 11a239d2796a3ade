package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	subject_id TEXT NOT NULL,
	category   TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_subject ON cache_entries(subject_id);
CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
`

// SQLiteTier is the local durable cache tier, surviving process restarts
// without an external service.
type SQLiteTier struct {
	db *sql.DB
}

// NewSQLiteTier opens (or creates) the cache database at path.
func NewSQLiteTier(path string) (*SQLiteTier, error) {
	initMetrics()
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}

	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite cache: %w", err)
	}
	return &SQLiteTier{db: db}, nil
}

// Name implements Tier.
func (t *SQLiteTier) Name() string { return "sqlite" }

// Get implements Tier.
func (t *SQLiteTier) Get(ctx context.Context, key string) (*Entry, error) {
	row := t.db.QueryRowContext(ctx,
		`SELECT subject_id, category, payload, created_at, expires_at
		 FROM cache_entries WHERE key = ?`, key)

	var (
		entry     Entry
		payload   []byte
		createdAt int64
		expiresAt int64
	)
	err := row.Scan(&entry.SubjectID, &entry.Category, &payload, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}

	if err := json.Unmarshal(payload, &entry.Bundle); err != nil {
		_ = t.Delete(ctx, key)
		return nil, ErrNotFound
	}
	entry.Key = key
	entry.CreatedAt = time.Unix(createdAt, 0).UTC()
	entry.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	return &entry, nil
}

// Set implements Tier.
func (t *SQLiteTier) Set(ctx context.Context, entry *Entry) error {
	payload, err := json.Marshal(entry.Bundle)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	_, err = t.db.ExecContext(ctx,
		`INSERT INTO cache_entries (key, subject_id, category, payload, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			subject_id = excluded.subject_id,
			category   = excluded.category,
			payload    = excluded.payload,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		entry.Key, entry.SubjectID, entry.Category, payload,
		entry.CreatedAt.Unix(), entry.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

// Delete implements Tier.
func (t *SQLiteTier) Delete(ctx context.Context, key string) error {
	if _, err := t.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

// DeleteScope implements Tier.
func (t *SQLiteTier) DeleteScope(ctx context.Context, subjectID string, categories []string) (int, error) {
	var (
		clauses []string
		args    []any
	)
	if subjectID != "" {
		clauses = append(clauses, "subject_id = ?")
		args = append(args, subjectID)
	}
	if len(categories) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(categories)), ",")
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", placeholders))
		for _, c := range categories {
			args = append(args, c)
		}
	}

	query := `DELETE FROM cache_entries`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	res, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlite delete scope: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Clear implements Tier.
func (t *SQLiteTier) Clear(ctx context.Context) (int, error) {
	res, err := t.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	if err != nil {
		return 0, fmt.Errorf("sqlite clear: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Sweep implements Tier, deleting rows that expired before now.
func (t *SQLiteTier) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := t.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at < ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("sqlite sweep: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		evictionsTotal.WithLabelValues("expired").Add(float64(n))
	}
	return int(n), nil
}

// Close implements Tier.
func (t *SQLiteTier) Close() error {
	return t.db.Close()
}
