package series

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cryptidx/index-engine/internal/model"
)

var (
	// ErrPortionSum is returned when constituent portions do not sum to
	// 100 within the epsilon. This signals a broken index definition
	// upstream, not a data gap, and is never recoverable.
	ErrPortionSum = errors.New("series: portions do not sum to 100")

	// ErrLengthMismatch is returned when histories reaching the merger do
	// not all share one length. That indicates an alignment bug upstream;
	// the merger refuses to guess rather than truncate silently.
	ErrLengthMismatch = errors.New("series: aligned histories have mismatched lengths")
)

var (
	// DefaultPortionEpsilon is the tolerance for the portion-sum invariant.
	DefaultPortionEpsilon = decimal.New(1, -8) // 1e-8

	// MergeScale is the number of decimal places merged prices are rounded
	// to. High precision avoids cumulative rounding loss across many
	// weighted constituents.
	MergeScale int32 = 20
)

var oneHundred = decimal.NewFromInt(100)

// ValidatePortions checks the portion-sum invariant: Σ portions == 100
// within epsilon. Violations wrap ErrPortionSum with the offending sum.
func ValidatePortions(portions []decimal.Decimal, epsilon decimal.Decimal) error {
	sum := decimal.Zero
	for _, p := range portions {
		sum = sum.Add(p)
	}
	if sum.Sub(oneHundred).Abs().GreaterThan(epsilon) {
		return fmt.Errorf("%w: got %s", ErrPortionSum, sum)
	}
	return nil
}

// MergeWeighted merges N aligned, equal-length histories into one series
// where every point's price is the portion-weighted sum of the per-asset
// prices at that timestamp:
//
//	price[i] = Σ_j (portion_j / 100) * price_j[i]
//
// Timestamps and dates are taken from the first history; alignment
// guarantees all histories share them index-for-index. With zero
// histories, or an empty first history, the result is empty.
func MergeWeighted(histories [][]model.PricePoint, portions []decimal.Decimal, epsilon decimal.Decimal) ([]model.PricePoint, error) {
	if len(histories) == 0 {
		return []model.PricePoint{}, nil
	}
	if len(histories) != len(portions) {
		return nil, fmt.Errorf("%w: %d histories for %d portions", ErrLengthMismatch, len(histories), len(portions))
	}
	if err := ValidatePortions(portions, epsilon); err != nil {
		return nil, err
	}
	if len(histories[0]) == 0 {
		return []model.PricePoint{}, nil
	}

	length := len(histories[0])
	for j, h := range histories {
		if len(h) != length {
			return nil, fmt.Errorf("%w: history %d has %d points, expected %d", ErrLengthMismatch, j, len(h), length)
		}
	}

	weights := make([]decimal.Decimal, len(portions))
	for j, p := range portions {
		weights[j] = p.Div(oneHundred)
	}

	merged := make([]model.PricePoint, length)
	for i := 0; i < length; i++ {
		price := decimal.Zero
		for j := range histories {
			price = price.Add(weights[j].Mul(histories[j][i].PriceUSD))
		}
		merged[i] = model.PricePoint{
			Time:     histories[0][i].Time,
			Date:     histories[0][i].Date,
			PriceUSD: price.Round(MergeScale),
		}
	}

	return merged, nil
}
