package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/giantswarm/lantern/internal/api"
	"github.com/giantswarm/lantern/pkg/logging"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS manifests (
	server TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	operation_count INTEGER NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS manifest_entries (
	server TEXT NOT NULL,
	position INTEGER NOT NULL,
	operation TEXT NOT NULL,
	body TEXT NOT NULL,
	PRIMARY KEY (server, position)
);`

// SQLiteStore keeps manifests in an SQLite database: the full text in
// manifests and one row per operation block in manifest_entries, ready for
// an external full-text index.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("manifest: sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("manifest: create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("manifest: sqlite open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("manifest: sqlite set WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("manifest: sqlite create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Write replaces every row of server in one transaction.
func (s *SQLiteStore) Write(ctx context.Context, server string, ops []api.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := Compile(server, ops)
	entries := Entries(server, ops)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("manifest: sqlite begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM manifest_entries WHERE server = ?`, server); err != nil {
		return fmt.Errorf("manifest: sqlite clear entries: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO manifests (server, body, operation_count, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(server) DO UPDATE SET
	body = excluded.body,
	operation_count = excluded.operation_count,
	updated_at = excluded.updated_at`,
		server, body, len(ops), now,
	); err != nil {
		return fmt.Errorf("manifest: sqlite upsert manifest: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO manifest_entries (server, position, operation, body)
VALUES (?, ?, ?, ?)`,
			e.Server, e.Position, e.Operation, e.Body,
		); err != nil {
			return fmt.Errorf("manifest: sqlite insert entry %s: %w", e.Operation, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("manifest: sqlite commit: %w", err)
	}

	logging.Debug("Manifest", "Indexed %s (%d operations)", server, len(ops))
	return nil
}

// Remove deletes every row of server.
func (s *SQLiteStore) Remove(ctx context.Context, server string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("manifest: sqlite begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM manifest_entries WHERE server = ?`, server); err != nil {
		return fmt.Errorf("manifest: sqlite delete entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM manifests WHERE server = ?`, server); err != nil {
		return fmt.Errorf("manifest: sqlite delete manifest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("manifest: sqlite commit: %w", err)
	}
	return nil
}

// Read returns the manifest text of server.
func (s *SQLiteStore) Read(ctx context.Context, server string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM manifests WHERE server = ?`, server).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w for server %s", ErrManifestNotFound, server)
		}
		return "", fmt.Errorf("manifest: sqlite read %s: %w", server, err)
	}
	return body, nil
}

// List returns the servers with a manifest.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT server FROM manifests ORDER BY server ASC`)
	if err != nil {
		return nil, fmt.Errorf("manifest: sqlite list: %w", err)
	}
	defer rows.Close()

	var servers []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("manifest: sqlite scan: %w", err)
		}
		servers = append(servers, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("manifest: sqlite rows: %w", err)
	}
	return servers, nil
}

// Entries returns the per-operation blocks of server in manifest order.
func (s *SQLiteStore) Entries(ctx context.Context, server string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT server, position, operation, body
FROM manifest_entries
WHERE server = ?
ORDER BY position ASC`, server)
	if err != nil {
		return nil, fmt.Errorf("manifest: sqlite entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Server, &e.Position, &e.Operation, &e.Body); err != nil {
			return nil, fmt.Errorf("manifest: sqlite scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("manifest: sqlite entry rows: %w", err)
	}
	return entries, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
