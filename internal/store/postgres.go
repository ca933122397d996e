package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cryptidx/index-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Prices and portions are stored as NUMERIC for exact decimal precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetAssetHistory(ctx context.Context, assetID string) ([]model.PricePoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT time, date, price_usd::TEXT
		 FROM asset_prices WHERE asset_id = $1`, assetID)
	if err != nil {
		return nil, fmt.Errorf("get history %s: %w", assetID, err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

func (s *PostgresStore) GetAssetHistorySince(ctx context.Context, assetID string, sinceTime int64) ([]model.PricePoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT time, date, price_usd::TEXT
		 FROM asset_prices WHERE asset_id = $1 AND time >= $2`, assetID, sinceTime)
	if err != nil {
		return nil, fmt.Errorf("get history %s since %d: %w", assetID, sinceTime, err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

func (s *PostgresStore) UpsertAssetHistory(ctx context.Context, assetID string, points []model.PricePoint) error {
	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(
			`INSERT INTO asset_prices (asset_id, time, date, price_usd)
			 VALUES ($1, $2, $3, $4::NUMERIC)
			 ON CONFLICT (asset_id, time) DO UPDATE SET price_usd = EXCLUDED.price_usd`,
			assetID, p.Time, p.Date, p.PriceUSD.String(),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range points {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert history %s: %w", assetID, err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateIndexDefinition(ctx context.Context, def *model.IndexDefinition) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO index_definitions (id, name, start_time, end_time, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		def.ID, def.Name, def.StartTime, def.EndTime, def.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("create index %s: %w", def.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("create index %s: %w", def.ID, err)
	}

	for _, a := range def.Assets {
		_, err = tx.Exec(ctx,
			`INSERT INTO index_assets (index_id, asset_id, portion)
			 VALUES ($1, $2, $3::NUMERIC)`,
			def.ID, a.ID, a.Portion.String(),
		)
		if err != nil {
			return fmt.Errorf("create index %s constituent %s: %w", def.ID, a.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetIndexDefinition(ctx context.Context, id string) (*model.IndexDefinition, error) {
	var def model.IndexDefinition

	err := s.pool.QueryRow(ctx,
		`SELECT id, name, start_time, end_time, created_at
		 FROM index_definitions WHERE id = $1`, id).
		Scan(&def.ID, &def.Name, &def.StartTime, &def.EndTime, &def.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("index %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get index %s: %w", id, err)
	}

	def.Assets, err = s.indexAssets(ctx, id)
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (s *PostgresStore) ListIndexDefinitions(ctx context.Context) ([]model.IndexDefinition, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, start_time, end_time, created_at
		 FROM index_definitions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []model.IndexDefinition
	for rows.Next() {
		var def model.IndexDefinition
		if err := rows.Scan(&def.ID, &def.Name, &def.StartTime, &def.EndTime, &def.CreatedAt); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range defs {
		defs[i].Assets, err = s.indexAssets(ctx, defs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return defs, nil
}

func (s *PostgresStore) indexAssets(ctx context.Context, indexID string) ([]model.AssetWeight, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT asset_id, portion::TEXT
		 FROM index_assets WHERE index_id = $1 ORDER BY asset_id`, indexID)
	if err != nil {
		return nil, fmt.Errorf("get index %s constituents: %w", indexID, err)
	}
	defer rows.Close()

	var assets []model.AssetWeight
	for rows.Next() {
		var a model.AssetWeight
		var portionS string
		if err := rows.Scan(&a.ID, &portionS); err != nil {
			return nil, err
		}
		a.Portion, _ = decimal.NewFromString(portionS)
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// scanPricePoints reads pgx rows into PricePoint slices.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanPricePoints(rows pgxRows) ([]model.PricePoint, error) {
	var points []model.PricePoint
	for rows.Next() {
		var p model.PricePoint
		var priceS string

		if err := rows.Scan(&p.Time, &p.Date, &priceS); err != nil {
			return nil, err
		}

		p.PriceUSD, _ = decimal.NewFromString(priceS)
		points = append(points, p)
	}
	return points, rows.Err()
}
