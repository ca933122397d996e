package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/cryptidx/index-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu          sync.RWMutex
	histories   map[string][]model.PricePoint
	definitions map[string]*model.IndexDefinition
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		histories:   make(map[string][]model.PricePoint),
		definitions: make(map[string]*model.IndexDefinition),
	}
}

func (s *MemoryStore) GetAssetHistory(_ context.Context, assetID string) ([]model.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := make([]model.PricePoint, len(s.histories[assetID]))
	copy(points, s.histories[assetID])
	return points, nil
}

func (s *MemoryStore) GetAssetHistorySince(_ context.Context, assetID string, sinceTime int64) ([]model.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var points []model.PricePoint
	for _, p := range s.histories[assetID] {
		if p.Time >= sinceTime {
			points = append(points, p)
		}
	}
	return points, nil
}

func (s *MemoryStore) UpsertAssetHistory(_ context.Context, assetID string, points []model.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byTime := make(map[int64]model.PricePoint, len(s.histories[assetID])+len(points))
	for _, p := range s.histories[assetID] {
		byTime[p.Time] = p
	}
	for _, p := range points {
		byTime[p.Time] = p
	}

	merged := make([]model.PricePoint, 0, len(byTime))
	for _, p := range byTime {
		merged = append(merged, p)
	}
	s.histories[assetID] = merged
	return nil
}

func (s *MemoryStore) CreateIndexDefinition(_ context.Context, def *model.IndexDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.definitions[def.ID]; exists {
		return fmt.Errorf("index %s: %w", def.ID, ErrAlreadyExists)
	}

	// Store a copy to avoid external mutation.
	copied := *def
	copied.Assets = append([]model.AssetWeight(nil), def.Assets...)
	s.definitions[def.ID] = &copied
	return nil
}

func (s *MemoryStore) GetIndexDefinition(_ context.Context, id string) (*model.IndexDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.definitions[id]
	if !ok {
		return nil, fmt.Errorf("index %s: %w", id, ErrNotFound)
	}
	copied := *def
	copied.Assets = append([]model.AssetWeight(nil), def.Assets...)
	return &copied, nil
}

func (s *MemoryStore) ListIndexDefinitions(_ context.Context) ([]model.IndexDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs := make([]model.IndexDefinition, 0, len(s.definitions))
	for _, def := range s.definitions {
		copied := *def
		copied.Assets = append([]model.AssetWeight(nil), def.Assets...)
		defs = append(defs, copied)
	}
	return defs, nil
}
