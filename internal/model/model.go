// Package model defines the core domain types shared across the index engine.
// All prices and portions use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MillisPerDay is the length of one UTC calendar day in epoch milliseconds.
const MillisPerDay int64 = 24 * 60 * 60 * 1000

// DateLayout is the calendar-day format used for PricePoint.Date.
const DateLayout = "2006-01-02"

// PricePoint is one daily close for an asset or a merged index.
// Time is epoch milliseconds at UTC midnight of the day it represents.
type PricePoint struct {
	Time     int64           `json:"time" db:"time"`
	Date     string          `json:"date" db:"date"`
	PriceUSD decimal.Decimal `json:"priceUsd" db:"price_usd"`
}

// NewPricePoint builds a point for the UTC calendar day containing ms.
func NewPricePoint(ms int64, price decimal.Decimal) PricePoint {
	day := DayStart(ms)
	return PricePoint{
		Time:     day,
		Date:     FormatDay(day),
		PriceUSD: price,
	}
}

// DayStart truncates an epoch-milliseconds timestamp to UTC midnight.
func DayStart(ms int64) int64 {
	rem := ms % MillisPerDay
	if rem == 0 {
		return ms
	}
	if ms < 0 {
		return ms - rem - MillisPerDay
	}
	return ms - rem
}

// FormatDay renders an epoch-milliseconds timestamp as its UTC calendar day.
func FormatDay(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(DateLayout)
}

// AssetWeight is one constituent of an index definition. Portion is a
// percentage share in [0, 100]; across one index the portions must sum
// to exactly 100 within the configured epsilon.
type AssetWeight struct {
	ID      string          `json:"id" db:"asset_id"`
	Portion decimal.Decimal `json:"portion" db:"portion"`
}

// IndexDefinition is the stored description of an index: its constituents
// and optional explicit time bounds. It carries no computed data.
type IndexDefinition struct {
	ID        string        `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	Assets    []AssetWeight `json:"assets"`
	StartTime *int64        `json:"startTime,omitempty" db:"start_time"`
	EndTime   *int64        `json:"endTime,omitempty" db:"end_time"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
}

// HistoryOverview holds fixed-horizon fractional returns for one series
// (0.05 = +5%). A nil field means the series is too short for that horizon;
// callers must treat it as "not available", never as zero.
type HistoryOverview struct {
	Days1  *decimal.Decimal `json:"days1,omitempty"`
	Days7  *decimal.Decimal `json:"days7,omitempty"`
	Days30 *decimal.Decimal `json:"days30,omitempty"`
	Total  *decimal.Decimal `json:"total,omitempty"`
}

// MaxDrawDown is the worst peak-to-trough decline of a series.
// Value is a fractional loss ≤ 0 (-0.4 = a 40% decline); StartTime marks
// the peak and EndTime the trough. A series with fewer than two points
// has Value 0 and no meaningful range.
type MaxDrawDown struct {
	Value     decimal.Decimal `json:"value"`
	StartTime int64           `json:"startTime,omitempty"`
	EndTime   int64           `json:"endTime,omitempty"`
}

// IndexAsset is a constituent enriched with its aligned history and the
// analytics computed over it.
type IndexAsset struct {
	AssetWeight
	History         []PricePoint     `json:"history"`
	HistoryOverview *HistoryOverview `json:"historyOverview,omitempty"`
	MaxDrawDown     *MaxDrawDown     `json:"maxDrawDown,omitempty"`
}

// Index is the fully composed aggregate for one index definition: the
// merged weighted price series, its analytics, and the same per
// constituent. It is derived and recomputed on read — it owns no mutable
// state and is fully reconstructable from the definition plus current
// asset histories.
type Index struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Assets          []IndexAsset     `json:"assets"`
	History         []PricePoint     `json:"history"`
	HistoryOverview *HistoryOverview `json:"historyOverview,omitempty"`
	MaxDrawDown     *MaxDrawDown     `json:"maxDrawDown,omitempty"`
	StartTime       *int64           `json:"startTime,omitempty"`
	EndTime         *int64           `json:"endTime,omitempty"`
}
