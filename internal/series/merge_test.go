package series

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cryptidx/index-engine/internal/model"
)

func TestMergeWeighted_FiftyFifty(t *testing.T) {
	a := pts(10, 20)
	b := pts(100, 200)

	merged, err := MergeWeighted(
		[][]model.PricePoint{a, b},
		[]decimal.Decimal{d(50), d(50)},
		DefaultPortionEpsilon,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected 2 points, got %d", len(merged))
	}
	if !merged[0].PriceUSD.Equal(d(55)) {
		t.Errorf("expected 55, got %s", merged[0].PriceUSD)
	}
	if !merged[1].PriceUSD.Equal(d(110)) {
		t.Errorf("expected 110, got %s", merged[1].PriceUSD)
	}
}

func TestMergeWeighted_TakesTimeFromFirstHistory(t *testing.T) {
	a := pts(1, 2, 3)
	b := pts(4, 5, 6)

	merged, err := MergeWeighted(
		[][]model.PricePoint{a, b},
		[]decimal.Decimal{d(60), d(40)},
		DefaultPortionEpsilon,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range merged {
		if merged[i].Time != a[i].Time || merged[i].Date != a[i].Date {
			t.Errorf("point %d: time/date should come from first history", i)
		}
	}
}

func TestMergeWeighted_UnevenPortions(t *testing.T) {
	a := pts(100)
	b := pts(200)

	merged, err := MergeWeighted(
		[][]model.PricePoint{a, b},
		[]decimal.Decimal{d(25), d(75)},
		DefaultPortionEpsilon,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 0.25*100 + 0.75*200 = 175
	if !merged[0].PriceUSD.Equal(d(175)) {
		t.Errorf("expected 175, got %s", merged[0].PriceUSD)
	}
}

func TestMergeWeighted_PortionInvariant(t *testing.T) {
	tests := []struct {
		name     string
		portions []float64
		wantErr  bool
	}{
		{"sums to 99", []float64{50, 49}, true},
		{"sums to 101", []float64{50, 51}, true},
		{"exactly 100", []float64{50, 50}, false},
		{"within epsilon", []float64{50, 50.00000001}, false},
		{"beyond epsilon", []float64{50, 50.001}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			portions := make([]decimal.Decimal, len(tt.portions))
			histories := make([][]model.PricePoint, len(tt.portions))
			for i, p := range tt.portions {
				portions[i] = d(p)
				histories[i] = pts(1, 2)
			}

			_, err := MergeWeighted(histories, portions, DefaultPortionEpsilon)
			if tt.wantErr && !errors.Is(err, ErrPortionSum) {
				t.Errorf("expected ErrPortionSum, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestMergeWeighted_LengthMismatch(t *testing.T) {
	a := pts(1, 2, 3)
	b := pts(1, 2)

	_, err := MergeWeighted(
		[][]model.PricePoint{a, b},
		[]decimal.Decimal{d(50), d(50)},
		DefaultPortionEpsilon,
	)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestMergeWeighted_PortionCountMismatch(t *testing.T) {
	_, err := MergeWeighted(
		[][]model.PricePoint{pts(1)},
		[]decimal.Decimal{d(50), d(50)},
		DefaultPortionEpsilon,
	)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestMergeWeighted_EmptyInput(t *testing.T) {
	merged, err := MergeWeighted(nil, nil, DefaultPortionEpsilon)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(merged) != 0 {
		t.Errorf("expected empty result, got %d points", len(merged))
	}

	merged, err = MergeWeighted(
		[][]model.PricePoint{{}, {}},
		[]decimal.Decimal{d(50), d(50)},
		DefaultPortionEpsilon,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(merged) != 0 {
		t.Errorf("expected empty result for empty histories, got %d points", len(merged))
	}
}

func TestValidatePortions_EmptySumsToZero(t *testing.T) {
	if err := ValidatePortions(nil, DefaultPortionEpsilon); !errors.Is(err, ErrPortionSum) {
		t.Errorf("expected ErrPortionSum for empty portions, got %v", err)
	}
}
