// Package series implements the pure time-series computations behind index
// composition: gap-filled daily normalization, common-range alignment,
// weighted merging, fixed-horizon performance overviews, and maximum
// drawdown.
//
// Every function here is deterministic and side-effect free: each call
// produces a fresh result from immutable inputs, so no locking is needed
// anywhere in this package.
//
// All prices use shopspring/decimal — never float64 for money.
package series

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cryptidx/index-engine/internal/model"
)

var (
	// ErrMalformedTime is returned when a point's timestamp is not at a
	// UTC calendar-day boundary. Normalization aborts for that asset; the
	// caller decides whether to drop the asset or fail the whole index.
	ErrMalformedTime = errors.New("series: timestamp is not at UTC midnight")
)

// Normalize sorts a raw daily price series ascending by time and fills
// every missing UTC calendar day between its first and last entries by
// forward-filling the previous day's price. Duplicate days are collapsed
// to the first occurrence after the sort. A series of length ≤ 1 is
// returned unchanged.
//
// Forward-fill is deliberate: it biases flat price during outages rather
// than interpolating.
func Normalize(points []model.PricePoint) ([]model.PricePoint, error) {
	for _, p := range points {
		if p.Time%model.MillisPerDay != 0 {
			return nil, fmt.Errorf("%w: %d (%s)", ErrMalformedTime, p.Time, p.Date)
		}
	}

	if len(points) <= 1 {
		return points, nil
	}

	sorted := make([]model.PricePoint, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	out := make([]model.PricePoint, 0, len(sorted))
	out = append(out, sorted[0])

	for _, cur := range sorted[1:] {
		prev := out[len(out)-1]
		gapDays := (cur.Time - prev.Time) / model.MillisPerDay
		if gapDays == 0 {
			continue // duplicate calendar day
		}
		for ; gapDays > 1; gapDays-- {
			filler := model.NewPricePoint(out[len(out)-1].Time+model.MillisPerDay, out[len(out)-1].PriceUSD)
			out = append(out, filler)
		}
		out = append(out, cur)
	}

	return out, nil
}
