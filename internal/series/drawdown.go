package series

import (
	"github.com/shopspring/decimal"

	"github.com/cryptidx/index-engine/internal/model"
)

// MaxDrawDown scans an ascending price series once and returns the worst
// peak-to-trough fractional decline with its time range: StartTime is the
// running peak the decline fell from, EndTime the trough it reached.
//
// Only a price strictly above the running peak resets the peak, so a
// price equal to the peak keeps the earlier peak time. A series with
// fewer than two points has zero drawdown and no range.
func MaxDrawDown(points []model.PricePoint) model.MaxDrawDown {
	if len(points) < 2 {
		return model.MaxDrawDown{Value: decimal.Zero}
	}

	peakPrice := points[0].PriceUSD
	peakTime := points[0].Time

	worst := model.MaxDrawDown{Value: decimal.Zero}

	for _, p := range points[1:] {
		if p.PriceUSD.GreaterThan(peakPrice) {
			peakPrice = p.PriceUSD
			peakTime = p.Time
			continue
		}
		if peakPrice.IsZero() {
			continue
		}
		decline := p.PriceUSD.Sub(peakPrice).Div(peakPrice)
		if decline.LessThan(worst.Value) {
			worst = model.MaxDrawDown{
				Value:     decline,
				StartTime: peakTime,
				EndTime:   p.Time,
			}
		}
	}

	return worst
}
