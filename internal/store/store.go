// Package store defines the persistence interface for the index engine.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/cryptidx/index-engine/internal/model"
)

// ErrNotFound is returned when an index definition does not exist.
// An asset with no price rows is not an error: its history is empty.
var ErrNotFound = errors.New("store: not found")

// ErrAlreadyExists is returned when creating an index definition whose id
// is already taken.
var ErrAlreadyExists = errors.New("store: already exists")

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer. Point ordering on reads is
// not guaranteed — the series package performs its own sort/validation.
type Store interface {
	// --- Asset price history ---

	// GetAssetHistory returns every recorded daily price for an asset.
	GetAssetHistory(ctx context.Context, assetID string) ([]model.PricePoint, error)

	// GetAssetHistorySince returns the daily prices at or after sinceTime.
	GetAssetHistorySince(ctx context.Context, assetID string, sinceTime int64) ([]model.PricePoint, error)

	// UpsertAssetHistory lands daily closes from a collector, replacing
	// any existing row for the same asset and day.
	UpsertAssetHistory(ctx context.Context, assetID string, points []model.PricePoint) error

	// --- Index definitions ---

	// CreateIndexDefinition persists a new index definition with its
	// constituents.
	CreateIndexDefinition(ctx context.Context, def *model.IndexDefinition) error

	// GetIndexDefinition retrieves a definition by its ID.
	GetIndexDefinition(ctx context.Context, id string) (*model.IndexDefinition, error)

	// ListIndexDefinitions returns all index definitions.
	ListIndexDefinitions(ctx context.Context) ([]model.IndexDefinition, error)
}
