package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cryptidx/index-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for asset histories and index definitions. Writes go to the
// primary store and invalidate the cache; reads check Redis first then
// fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetAssetHistory(ctx context.Context, assetID string) ([]model.PricePoint, error) {
	data, err := s.rdb.Get(ctx, historyKey(assetID)).Bytes()
	if err == nil {
		var points []model.PricePoint
		if json.Unmarshal(data, &points) == nil {
			return points, nil
		}
	}

	points, err := s.primary.GetAssetHistory(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(points); err == nil {
		s.rdb.Set(ctx, historyKey(assetID), data, s.ttl)
	}
	return points, nil
}

func (s *CachedStore) GetIndexDefinition(ctx context.Context, id string) (*model.IndexDefinition, error) {
	data, err := s.rdb.Get(ctx, definitionKey(id)).Bytes()
	if err == nil {
		var def model.IndexDefinition
		if json.Unmarshal(data, &def) == nil {
			return &def, nil
		}
	}

	def, err := s.primary.GetIndexDefinition(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(def); err == nil {
		s.rdb.Set(ctx, definitionKey(id), data, s.ttl)
	}
	return def, nil
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) UpsertAssetHistory(ctx context.Context, assetID string, points []model.PricePoint) error {
	if err := s.primary.UpsertAssetHistory(ctx, assetID, points); err != nil {
		return err
	}
	// Invalidate; next read re-populates.
	s.rdb.Del(ctx, historyKey(assetID))
	return nil
}

func (s *CachedStore) CreateIndexDefinition(ctx context.Context, def *model.IndexDefinition) error {
	if err := s.primary.CreateIndexDefinition(ctx, def); err != nil {
		return err
	}
	s.rdb.Del(ctx, definitionKey(def.ID))
	return nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) GetAssetHistorySince(ctx context.Context, assetID string, sinceTime int64) ([]model.PricePoint, error) {
	return s.primary.GetAssetHistorySince(ctx, assetID, sinceTime)
}

func (s *CachedStore) ListIndexDefinitions(ctx context.Context) ([]model.IndexDefinition, error) {
	return s.primary.ListIndexDefinitions(ctx)
}

// --- Cache keys ---

func historyKey(assetID string) string { return fmt.Sprintf("history:%s", assetID) }
func definitionKey(id string) string   { return fmt.Sprintf("indexdef:%s", id) }
