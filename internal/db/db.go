// Package db is the durable store: one SQLite file holding the published
// story records, opened lazily exactly once per process.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hpungsan/storydrop/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 2

// Store wraps the single process-wide database handle. The file is not
// opened until the first operation needs it; concurrent first callers
// share one initialization and its result.
type Store struct {
	baseDir string
	cfg     *config.Config

	once    sync.Once
	db      *sql.DB
	initErr error
}

// NewStore prepares a store rooted at baseDir without opening anything.
// The baseDir parameter allows tests to use t.TempDir() instead of
// ~/.storydrop.
func NewStore(baseDir string, cfg *config.Config) *Store {
	return &Store{baseDir: baseDir, cfg: cfg}
}

// Conn returns the shared database handle, opening and migrating the
// database on first use. Every later call returns the same handle (or
// the same initialization error).
func (s *Store) Conn() (*sql.DB, error) {
	s.once.Do(func() {
		s.db, s.initErr = open(s.baseDir, s.cfg)
	})
	return s.db, s.initErr
}

// Close closes the handle if it was ever opened.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// open initializes the SQLite database at baseDir/storydrop.db.
func open(baseDir string, cfg *config.Config) (*sql.DB, error) {
	// Create base directory with restricted permissions
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in the connection string so they apply
	// to every pooled connection. WAL keeps readers off the writer's
	// lock; busy_timeout makes the engine wait before reporting busy;
	// synchronous=NORMAL survives process crash under WAL.
	dbPath := filepath.Join(baseDir, "storydrop.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify WAL mode is active
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// Run migrations (this creates the file if it doesn't exist)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	configurePool(db, cfg)

	return db, nil
}

// configurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func configurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: initial schema. Stories are write-once rows; the
	// expires_at index serves the sweeper's scan, created_at is there for
	// ops/listing use.
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS stories (
		  id         TEXT PRIMARY KEY,
		  title      TEXT NOT NULL,
		  body       TEXT NOT NULL,
		  created_at INTEGER NOT NULL,
		  expires_at INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_stories_expires_at
		ON stories(expires_at)
		WHERE expires_at IS NOT NULL;

		CREATE INDEX IF NOT EXISTS idx_stories_created_at
		ON stories(created_at);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Migration 1 -> 2: encoding tag column. Rows from before this
	// migration have NULL here and are read as plain.
	if version < 2 {
		if _, err := db.Exec(`ALTER TABLE stories ADD COLUMN encoding TEXT`); err != nil {
			return fmt.Errorf("migration 2 failed: %w", err)
		}
		if err := SetUserVersion(db, 2); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
