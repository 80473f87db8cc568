package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// DB wraps the on-disk index: documents, chunks, the FTS5 side index,
// the entity graph, and the query/audit logs, all in one SQLite file.
//
// A single *sql.DB with one open connection gives us the engine's
// single-writer discipline for free; concurrent readers are served by
// WAL mode.
type DB struct {
	mu   sync.RWMutex
	conn *sql.DB
	path string
}

// Open opens (creating if necessary) the index at path, applies
// pragmas for WAL durability and performance, and runs any pending
// migrations. An empty path opens an in-memory index, used by tests.
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := ":memory:"
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, ragerr.New(ragerr.Storage, "failed to create db directory: "+dir, err)
			}
		}
		dsn = path
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to open database: "+path, err)
	}

	// Single writer, many readers: WAL mode plus one connection avoids
	// SQLITE_BUSY under concurrent ingest/search.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536", // 64MiB, negative = KiB
		"PRAGMA temp_store = MEMORY",
		"PRAGMA foreign_keys = ON",
		"PRAGMA mmap_size = 268435456", // 256MiB, best-effort
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			_ = conn.Close()
			return nil, ragerr.New(ragerr.Storage, "failed to set pragma: "+p, err)
		}
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// Close checkpoints the WAL and closes the underlying connection.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, _ = d.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return d.conn.Close()
}

// withTx runs fn inside a transaction, committing on success and
// rolling back on error or panic.
func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return ragerr.New(ragerr.Storage, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return ragerr.New(ragerr.Storage, "failed to commit transaction", err)
	}
	return nil
}

// Stats summarizes index size for the explain(index_stats) tool.
type Stats struct {
	DocumentCount      int
	ChunkCount         int
	EmbeddedChunkCount int
	LastUpdated        string
}

func (d *DB) Stats(ctx context.Context) (*Stats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s := &Stats{}
	if err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&s.DocumentCount); err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to count documents", err)
	}
	if err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&s.ChunkCount); err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to count chunks", err)
	}
	if err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE embedding IS NOT NULL`).Scan(&s.EmbeddedChunkCount); err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to count embedded chunks", err)
	}
	var lastUpdated sql.NullString
	if err := d.conn.QueryRowContext(ctx, `SELECT MAX(last_modified) FROM documents`).Scan(&lastUpdated); err != nil {
		return nil, ragerr.New(ragerr.Storage, "failed to read last update time", err)
	}
	s.LastUpdated = lastUpdated.String
	return s, nil
}
