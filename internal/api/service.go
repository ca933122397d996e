// Package api provides the HTTP handlers for managing index definitions,
// ingesting asset price histories, and serving composed indices.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cryptidx/index-engine/internal/compose"
	"github.com/cryptidx/index-engine/internal/model"
	"github.com/cryptidx/index-engine/internal/series"
	"github.com/cryptidx/index-engine/internal/store"
)

// Service handles index and asset-history operations.
type Service struct {
	store    store.Store
	composer compose.Composer
	epsilon  decimal.Decimal
}

// NewService creates a new API service. A zero epsilon falls back to the
// default portion tolerance.
func NewService(st store.Store, composer compose.Composer, epsilon decimal.Decimal) *Service {
	if epsilon.IsZero() {
		epsilon = series.DefaultPortionEpsilon
	}
	return &Service{
		store:    st,
		composer: composer,
		epsilon:  epsilon,
	}
}

// --- Request types ---

// CreateIndexRequest is the JSON body for index creation.
type CreateIndexRequest struct {
	Name      string              `json:"name"`
	Assets    []model.AssetWeight `json:"assets"`
	StartTime *int64              `json:"startTime,omitempty"`
	EndTime   *int64              `json:"endTime,omitempty"`
}

// PricePointRequest is one ingested daily close. The calendar date is
// derived from the timestamp server-side.
type PricePointRequest struct {
	Time     int64           `json:"time"`
	PriceUSD decimal.Decimal `json:"priceUsd"`
}

// --- HTTP Handlers ---

// CreateIndex handles POST /api/v1/indices
func (s *Service) CreateIndex(w http.ResponseWriter, r *http.Request) {
	var req CreateIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		writeError(w, "name is required", http.StatusBadRequest)
		return
	}
	if len(req.Assets) == 0 {
		writeError(w, "at least one asset is required", http.StatusBadRequest)
		return
	}
	for _, a := range req.Assets {
		if a.ID == "" {
			writeError(w, "asset id is required", http.StatusBadRequest)
			return
		}
		if a.Portion.IsNegative() {
			writeError(w, "asset portion must not be negative", http.StatusBadRequest)
			return
		}
	}
	if req.StartTime != nil && req.EndTime != nil && *req.EndTime < *req.StartTime {
		writeError(w, "endTime must not precede startTime", http.StatusBadRequest)
		return
	}

	// Reject definitions whose portions cannot compose.
	portions := make([]decimal.Decimal, len(req.Assets))
	for i, a := range req.Assets {
		portions[i] = a.Portion
	}
	if err := series.ValidatePortions(portions, s.epsilon); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	def := &model.IndexDefinition{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Assets:    req.Assets,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateIndexDefinition(r.Context(), def); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			writeError(w, err.Error(), http.StatusConflict)
			return
		}
		writeError(w, "failed to store index definition", http.StatusInternalServerError)
		return
	}

	slog.Info("index created",
		"id", def.ID,
		"name", def.Name,
		"assets", len(def.Assets),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(def)
}

// ListIndices handles GET /api/v1/indices
func (s *Service) ListIndices(w http.ResponseWriter, r *http.Request) {
	defs, err := s.store.ListIndexDefinitions(r.Context())
	if err != nil {
		writeError(w, "failed to list indices", http.StatusInternalServerError)
		return
	}
	if defs == nil {
		defs = []model.IndexDefinition{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(defs)
}

// GetIndex handles GET /api/v1/indices/{indexID}
// Composes the index on read: fetches constituent histories, merges them,
// and returns the aggregate with analytics.
func (s *Service) GetIndex(w http.ResponseWriter, r *http.Request) {
	indexID := chi.URLParam(r, "indexID")

	def, err := s.store.GetIndexDefinition(r.Context(), indexID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "index not found", http.StatusNotFound)
			return
		}
		writeError(w, "failed to load index definition", http.StatusInternalServerError)
		return
	}

	idx, err := s.composer.ComposeIndex(r.Context(), *def)
	if err != nil {
		if errors.Is(err, series.ErrPortionSum) {
			writeError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeError(w, "failed to compose index", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(idx)
}

// GetAssetHistory handles GET /api/v1/assets/{assetID}/history
// Returns the normalized (gap-free) daily series, optionally bounded by
// ?since=<epoch-ms>.
func (s *Service) GetAssetHistory(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")
	ctx := r.Context()

	var points []model.PricePoint
	var err error
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			writeError(w, "since must be epoch milliseconds", http.StatusBadRequest)
			return
		}
		points, err = s.store.GetAssetHistorySince(ctx, assetID, since)
	} else {
		points, err = s.store.GetAssetHistory(ctx, assetID)
	}
	if err != nil {
		writeError(w, "failed to load asset history", http.StatusInternalServerError)
		return
	}

	normalized, err := series.Normalize(points)
	if err != nil {
		writeError(w, "stored history is malformed", http.StatusInternalServerError)
		return
	}
	if normalized == nil {
		normalized = []model.PricePoint{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(normalized)
}

// UpsertAssetHistory handles PUT /api/v1/assets/{assetID}/history
// Ingests daily closes; points for existing days are overwritten.
func (s *Service) UpsertAssetHistory(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetID")

	var req []PricePointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req) == 0 {
		writeError(w, "at least one price point is required", http.StatusBadRequest)
		return
	}

	points := make([]model.PricePoint, len(req))
	for i, p := range req {
		if p.Time%model.MillisPerDay != 0 {
			writeError(w, "time must be UTC midnight in epoch milliseconds", http.StatusBadRequest)
			return
		}
		if p.PriceUSD.IsNegative() {
			writeError(w, "priceUsd must not be negative", http.StatusBadRequest)
			return
		}
		points[i] = model.NewPricePoint(p.Time, p.PriceUSD)
	}

	if err := s.store.UpsertAssetHistory(r.Context(), assetID, points); err != nil {
		writeError(w, "failed to store asset history", http.StatusInternalServerError)
		return
	}

	slog.Info("asset history upserted", "asset", assetID, "points", len(points))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"upserted": len(points)})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
