package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"prodnorm/internal/port"
)

const createTable = `
CREATE TABLE IF NOT EXISTS responses (
	key        TEXT PRIMARY KEY,
	model      TEXT,
	response   TEXT,
	created_at TIMESTAMP
)`

// Key returns the cache key for a prompt: the SHA-256 hex digest of its text.
func Key(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

type sqliteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (or creates) a SQLite-backed response cache at path.
func NewSQLiteCache(path string) (port.ResponseCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	if _, err := db.Exec(createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating responses table: %w", err)
	}
	return &sqliteCache{db: db}, nil
}

func (c *sqliteCache) Get(ctx context.Context, key string) (string, bool, error) {
	var response string
	err := c.db.QueryRowContext(ctx,
		`SELECT response FROM responses WHERE key = ?`, key).Scan(&response)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return response, true, nil
}

func (c *sqliteCache) Put(ctx context.Context, key, model, response string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO responses (key, model, response, created_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET
			model = excluded.model,
			response = excluded.response,
			created_at = excluded.created_at`,
		key, model, response)
	return err
}

func (c *sqliteCache) Close() error {
	return c.db.Close()
}
