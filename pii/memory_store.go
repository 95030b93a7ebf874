package pii

import (
	"context"
	"sync"
	"time"
)

type memoryMapping struct {
	dummy     string
	piiType   string
	createdAt time.Time
}

// MemoryMappingStore is an in-process MappingStore used for CLI runs
// and tests. Safe for concurrent use.
type MemoryMappingStore struct {
	mu         sync.RWMutex
	byOriginal map[string]memoryMapping
	byDummy    map[string]string
}

// NewMemoryMappingStore creates an empty in-memory store.
func NewMemoryMappingStore() *MemoryMappingStore {
	return &MemoryMappingStore{
		byOriginal: make(map[string]memoryMapping),
		byDummy:    make(map[string]string),
	}
}

// StoreMapping stores a mapping, replacing any previous one for the
// same original.
func (s *MemoryMappingStore) StoreMapping(ctx context.Context, original, dummy, piiType string, confidence float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byOriginal[original]; ok {
		delete(s.byDummy, prev.dummy)
	}
	s.byOriginal[original] = memoryMapping{dummy: dummy, piiType: piiType, createdAt: time.Now()}
	s.byDummy[dummy] = original
	return nil
}

// GetDummy retrieves the dummy value for an original span.
func (s *MemoryMappingStore) GetDummy(ctx context.Context, original string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byOriginal[original]
	return m.dummy, ok, nil
}

// GetOriginal retrieves the original span for a dummy value.
func (s *MemoryMappingStore) GetOriginal(ctx context.Context, dummy string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	original, ok := s.byDummy[dummy]
	return original, ok, nil
}

// DeleteMapping removes the mapping for an original span.
func (s *MemoryMappingStore) DeleteMapping(ctx context.Context, original string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.byOriginal[original]; ok {
		delete(s.byDummy, m.dummy)
		delete(s.byOriginal, original)
	}
	return nil
}

// CleanupOldMappings removes mappings older than the given duration.
func (s *MemoryMappingStore) CleanupOldMappings(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for original, m := range s.byOriginal {
		if m.createdAt.Before(cutoff) {
			delete(s.byDummy, m.dummy)
			delete(s.byOriginal, original)
			removed++
		}
	}
	return removed, nil
}

// Close implements MappingStore.
func (s *MemoryMappingStore) Close() error {
	return nil
}
