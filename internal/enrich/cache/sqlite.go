package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteCache persists insights in a local SQLite file, surviving process
// restarts without any external service.
type SQLiteCache struct {
	db     *sql.DB
	config Config
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS insights (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL
)`

// NewSQLiteCache opens (creating if needed) a cache database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	return NewSQLiteCacheWithConfig(path, DefaultConfig())
}

// NewSQLiteCacheWithConfig opens a cache database at path with custom
// configuration.
func NewSQLiteCacheWithConfig(path string, config Config) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	cache, err := NewSQLiteCacheWithDB(db, config)
	if err != nil {
		db.Close()
		return nil, err
	}
	return cache, nil
}

// NewSQLiteCacheWithDB wraps an existing database handle. The caller keeps
// ownership of db only until Close is called on the cache.
func NewSQLiteCacheWithDB(db *sql.DB, config Config) (*SQLiteCache, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &SQLiteCache{db: db, config: config}, nil
}

func (s *SQLiteCache) Get(ctx context.Context, key string) ([]byte, error) {
	fullKey := s.config.Prefix + key

	var value []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM insights WHERE key = ?", fullKey,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrCacheMiss{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}

	if expiresAt > 0 && time.Now().Unix() >= expiresAt {
		// Expired rows are deleted lazily on read.
		_, _ = s.db.ExecContext(ctx, "DELETE FROM insights WHERE key = ?", fullKey)
		return nil, ErrCacheMiss{Key: key}
	}

	return value, nil
}

func (s *SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = s.config.DefaultTTL
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO insights (key, value, expires_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at",
		s.config.Prefix+key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM insights WHERE key = ?", s.config.Prefix+key,
	); err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteCache) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM insights WHERE key LIKE ?", s.config.Prefix+"%",
	); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}
