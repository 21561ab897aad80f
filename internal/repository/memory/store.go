// Package memory keeps the ledger collection as a serialized blob in process.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mamadbah2/krishichain/internal/domain/models"
)

// Store holds the encoded record collection. Each Load decodes a fresh copy,
// so callers never alias stored state.
type Store struct {
	mu   sync.RWMutex
	blob []byte
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// Load decodes the current collection.
func (s *Store) Load(ctx context.Context) ([]models.ProduceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.blob) == 0 {
		return []models.ProduceRecord{}, nil
	}

	var records []models.ProduceRecord
	if err := json.Unmarshal(s.blob, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// Save replaces the collection.
func (s *Store) Save(ctx context.Context, records []models.ProduceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	blob, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	s.mu.Lock()
	s.blob = blob
	s.mu.Unlock()
	return nil
}
