// Package compose orchestrates index composition: it fans out the
// constituent history fetches, normalizes and aligns the series, merges
// them under the portion weights, and attaches performance overviews and
// drawdowns per constituent and for the merged index.
//
// A portion-sum violation is fatal to the whole composition — it signals
// a broken index definition. A failed or empty constituent fetch is not:
// that asset degrades to "no data" and the rest of the index still
// computes. No partial merged result is ever returned; a composition
// either completes fully or yields an error.
package compose

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cryptidx/index-engine/internal/metrics"
	"github.com/cryptidx/index-engine/internal/model"
	"github.com/cryptidx/index-engine/internal/series"
	"github.com/cryptidx/index-engine/internal/store"
)

// Composer produces a fully computed Index from its definition.
type Composer interface {
	ComposeIndex(ctx context.Context, def model.IndexDefinition) (*model.Index, error)
}

// Config carries the tunables the composition math depends on.
type Config struct {
	// Horizons are the overview lookbacks (defaults 1/7/30 days).
	Horizons series.Horizons

	// PortionEpsilon is the portion-sum tolerance (default 1e-8).
	PortionEpsilon decimal.Decimal
}

// Service is the concrete Composer backed by an asset history store.
type Service struct {
	store    store.Store
	horizons series.Horizons
	epsilon  decimal.Decimal
}

// NewService creates a composer over the given store. Zero-value config
// fields fall back to the package defaults.
func NewService(st store.Store, cfg Config) *Service {
	if cfg.Horizons == (series.Horizons{}) {
		cfg.Horizons = series.DefaultHorizons
	}
	if cfg.PortionEpsilon.IsZero() {
		cfg.PortionEpsilon = series.DefaultPortionEpsilon
	}
	return &Service{
		store:    st,
		horizons: cfg.Horizons,
		epsilon:  cfg.PortionEpsilon,
	}
}

// ComposeIndex builds the complete Index aggregate for one definition.
func (s *Service) ComposeIndex(ctx context.Context, def model.IndexDefinition) (*model.Index, error) {
	start := time.Now()
	defer func() {
		metrics.CompositionDuration.Observe(time.Since(start).Seconds())
	}()

	portions := make([]decimal.Decimal, len(def.Assets))
	for i, a := range def.Assets {
		portions[i] = a.Portion
	}

	// Portion sum is validated before any I/O: a broken definition fails
	// fast regardless of data availability.
	if err := series.ValidatePortions(portions, s.epsilon); err != nil {
		metrics.CompositionsTotal.WithLabelValues("invariant_violation").Inc()
		return nil, fmt.Errorf("compose index %s: %w", def.ID, err)
	}

	histories, err := s.fetchHistories(ctx, def)
	if err != nil {
		metrics.CompositionsTotal.WithLabelValues("canceled").Inc()
		return nil, fmt.Errorf("compose index %s: %w", def.ID, err)
	}

	aligned := series.AlignRange(histories, def.StartTime, def.EndTime)

	assets := make([]model.IndexAsset, len(def.Assets))
	for i, a := range def.Assets {
		assets[i] = enrichAsset(a, aligned.Histories[a.ID], s.horizons)
	}

	merged, err := s.mergeAligned(def, aligned, portions)
	if err != nil {
		metrics.CompositionsTotal.WithLabelValues("invariant_violation").Inc()
		return nil, fmt.Errorf("compose index %s: %w", def.ID, err)
	}

	overview := series.Overview(merged, s.horizons)
	drawdown := series.MaxDrawDown(merged)

	slog.Info("index composed",
		"index", def.ID,
		"assets", len(def.Assets),
		"points", len(merged),
	)
	metrics.CompositionsTotal.WithLabelValues("ok").Inc()

	return &model.Index{
		ID:              def.ID,
		Name:            def.Name,
		Assets:          assets,
		History:         merged,
		HistoryOverview: &overview,
		MaxDrawDown:     &drawdown,
		StartTime:       def.StartTime,
		EndTime:         def.EndTime,
	}, nil
}

// fetchHistories reads every constituent's raw history concurrently and
// normalizes it. The join point waits for all fetches; a failed read or
// malformed series degrades to an empty history rather than failing the
// others. Only caller cancellation aborts the fan-out.
func (s *Service) fetchHistories(ctx context.Context, def model.IndexDefinition) (map[string][]model.PricePoint, error) {
	results := make([][]model.PricePoint, len(def.Assets))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range def.Assets {
		i, a := i, a
		g.Go(func() error {
			// Always read the full history: normalization needs the last
			// point at or before any start bound to fill a gap straddling
			// it. AlignRange applies the bounds afterward.
			raw, err := s.store.GetAssetHistory(gctx, a.ID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("asset history unavailable",
					"index", def.ID, "asset", a.ID, "err", err)
				metrics.DataGapsTotal.WithLabelValues(def.ID).Inc()
				return nil
			}

			normalized, err := series.Normalize(raw)
			if err != nil {
				slog.Warn("asset history rejected",
					"index", def.ID, "asset", a.ID, "err", err)
				metrics.DataGapsTotal.WithLabelValues(def.ID).Inc()
				return nil
			}

			results[i] = normalized
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	histories := make(map[string][]model.PricePoint, len(def.Assets))
	for i, a := range def.Assets {
		histories[a.ID] = results[i]
	}
	return histories, nil
}

// mergeAligned builds the weighted index series. Constituents whose
// aligned history came back empty keep their place in the weighted sum as
// an all-zero series, so their portion contributes zero at every point
// while the portion invariant stays intact.
func (s *Service) mergeAligned(def model.IndexDefinition, aligned series.AlignedRange, portions []decimal.Decimal) ([]model.PricePoint, error) {
	var timeline []model.PricePoint
	for _, a := range def.Assets {
		if len(aligned.Histories[a.ID]) > 0 {
			timeline = aligned.Histories[a.ID]
			break
		}
	}

	inputs := make([][]model.PricePoint, len(def.Assets))
	for i, a := range def.Assets {
		pts := aligned.Histories[a.ID]
		if len(pts) == 0 && len(timeline) > 0 {
			pts = zeroSeries(timeline)
		}
		inputs[i] = pts
	}

	return series.MergeWeighted(inputs, portions, s.epsilon)
}

// zeroSeries clones a timeline with every price set to zero.
func zeroSeries(timeline []model.PricePoint) []model.PricePoint {
	out := make([]model.PricePoint, len(timeline))
	for i, p := range timeline {
		out[i] = model.PricePoint{Time: p.Time, Date: p.Date, PriceUSD: decimal.Zero}
	}
	return out
}

// enrichAsset attaches the aligned history and its analytics to one
// constituent. An empty history carries no overview or drawdown.
func enrichAsset(a model.AssetWeight, history []model.PricePoint, h series.Horizons) model.IndexAsset {
	asset := model.IndexAsset{
		AssetWeight: a,
		History:     history,
	}
	if len(history) == 0 {
		return asset
	}

	overview := series.Overview(history, h)
	drawdown := series.MaxDrawDown(history)
	asset.HistoryOverview = &overview
	asset.MaxDrawDown = &drawdown
	return asset
}
