// Package sqlite stores the ledger collection in a local SQLite key-value table.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mamadbah2/krishichain/internal/domain/models"
)

// DefaultKey is the fixed key holding the serialized collection.
const DefaultKey = "krishichain-products"

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// Store is a durable single-key blob store.
type Store struct {
	db     *sql.DB
	key    string
	logger *zap.Logger
}

// Open creates (if needed) and opens the database at path.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		return nil, errors.New("sqlite path must not be empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	logger.Debug("sqlite store opened", zap.String("path", path))
	return &Store{db: db, key: DefaultKey, logger: logger}, nil
}

// Load reads and decodes the collection. A missing key is an empty ledger.
func (s *Store) Load(ctx context.Context) ([]models.ProduceRecord, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.ProduceRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read key %s: %w", s.key, err)
	}

	var records []models.ProduceRecord
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, fmt.Errorf("decode key %s: %w", s.key, err)
	}
	return records, nil
}

// Save encodes and upserts the collection in a single statement.
func (s *Store) Save(ctx context.Context, records []models.ProduceRecord) error {
	blob, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key, blob, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write key %s: %w", s.key, err)
	}

	s.logger.Debug("ledger blob written", zap.Int("records", len(records)), zap.Int("bytes", len(blob)))
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
