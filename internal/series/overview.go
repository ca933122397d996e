package series

import (
	"github.com/shopspring/decimal"

	"github.com/cryptidx/index-engine/internal/model"
)

// Horizons are the calendar-day lookbacks used by Overview. They are
// passed in rather than hard-coded so the engine stays testable with
// arbitrary horizons.
type Horizons struct {
	Days1  int
	Days7  int
	Days30 int
}

// DefaultHorizons are the standard 1/7/30-day lookbacks.
var DefaultHorizons = Horizons{Days1: 1, Days7: 7, Days30: 30}

// Overview computes fixed-horizon fractional returns for one series. Each
// horizon looks up the point exactly N calendar days before the final
// point — no nearest-match fallback, the Normalizer has already filled
// gaps — and Total uses the series' first point. A horizon whose
// reference day is missing yields nil ("not available"), never zero.
func Overview(points []model.PricePoint, h Horizons) model.HistoryOverview {
	if len(points) == 0 {
		return model.HistoryOverview{}
	}

	byTime := make(map[int64]decimal.Decimal, len(points))
	for _, p := range points {
		byTime[p.Time] = p.PriceUSD
	}

	last := points[len(points)-1]
	at := func(days int) *decimal.Decimal {
		ref, ok := byTime[last.Time-int64(days)*model.MillisPerDay]
		if !ok {
			return nil
		}
		return ratio(last.PriceUSD, ref)
	}

	return model.HistoryOverview{
		Days1:  at(h.Days1),
		Days7:  at(h.Days7),
		Days30: at(h.Days30),
		Total:  ratio(last.PriceUSD, points[0].PriceUSD),
	}
}

// ratio returns (current − reference) / reference, or nil when the
// reference price is zero.
func ratio(current, reference decimal.Decimal) *decimal.Decimal {
	if reference.IsZero() {
		return nil
	}
	r := current.Sub(reference).Div(reference)
	return &r
}
