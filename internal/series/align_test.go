package series

import (
	"testing"

	"github.com/cryptidx/index-engine/internal/model"
)

// rangePts builds a constant-price series covering days [from, to] inclusive.
func rangePts(from, to int) []model.PricePoint {
	out := make([]model.PricePoint, 0, to-from+1)
	for day := from; day <= to; day++ {
		out = append(out, pt(day, 1))
	}
	return out
}

func days(n int) int64 { return int64(n) * model.MillisPerDay }

func TestAlignRange_StrictIntersection(t *testing.T) {
	histories := map[string][]model.PricePoint{
		"btc": rangePts(0, 100),
		"eth": rangePts(20, 120),
		"sol": rangePts(10, 90),
	}

	aligned := AlignRange(histories, nil, nil)

	if aligned.StartTime != days(20) {
		t.Errorf("expected start day 20, got %d", aligned.StartTime/model.MillisPerDay)
	}
	if aligned.EndTime != days(90) {
		t.Errorf("expected end day 90, got %d", aligned.EndTime/model.MillisPerDay)
	}

	for id, pts := range aligned.Histories {
		if len(pts) != 71 {
			t.Errorf("%s: expected 71 points in [20,90], got %d", id, len(pts))
			continue
		}
		if pts[0].Time != days(20) || pts[len(pts)-1].Time != days(90) {
			t.Errorf("%s: window is [%d,%d] days", id,
				pts[0].Time/model.MillisPerDay, pts[len(pts)-1].Time/model.MillisPerDay)
		}
	}
}

func TestAlignRange_CallerBoundsNarrowWindow(t *testing.T) {
	histories := map[string][]model.PricePoint{
		"btc": rangePts(0, 100),
		"eth": rangePts(10, 100),
	}

	start := days(30)
	end := days(50)
	aligned := AlignRange(histories, &start, &end)

	if aligned.StartTime != days(30) || aligned.EndTime != days(50) {
		t.Errorf("expected [30,50], got [%d,%d]",
			aligned.StartTime/model.MillisPerDay, aligned.EndTime/model.MillisPerDay)
	}
	if got := len(aligned.Histories["btc"]); got != 21 {
		t.Errorf("expected 21 points, got %d", got)
	}
}

func TestAlignRange_CallerBoundsOnlyRaiseOrLower(t *testing.T) {
	// An earlier caller start must not widen the window beyond the data.
	histories := map[string][]model.PricePoint{
		"btc": rangePts(20, 80),
	}

	start := days(5)
	end := days(200)
	aligned := AlignRange(histories, &start, &end)

	if aligned.StartTime != days(20) || aligned.EndTime != days(80) {
		t.Errorf("expected data-bounded [20,80], got [%d,%d]",
			aligned.StartTime/model.MillisPerDay, aligned.EndTime/model.MillisPerDay)
	}
}

func TestAlignRange_EmptyHistoryContributesNoBound(t *testing.T) {
	histories := map[string][]model.PricePoint{
		"btc":  rangePts(10, 50),
		"dead": {},
	}

	aligned := AlignRange(histories, nil, nil)

	if aligned.StartTime != days(10) || aligned.EndTime != days(50) {
		t.Errorf("empty history must not shrink window, got [%d,%d]",
			aligned.StartTime/model.MillisPerDay, aligned.EndTime/model.MillisPerDay)
	}
	if len(aligned.Histories["dead"]) != 0 {
		t.Errorf("empty history should stay empty")
	}
	if len(aligned.Histories["btc"]) != 41 {
		t.Errorf("expected 41 points, got %d", len(aligned.Histories["btc"]))
	}
}

func TestAlignRange_DisjointRangesYieldEmpty(t *testing.T) {
	histories := map[string][]model.PricePoint{
		"old": rangePts(0, 10),
		"new": rangePts(50, 60),
	}

	aligned := AlignRange(histories, nil, nil)

	for id, pts := range aligned.Histories {
		if len(pts) != 0 {
			t.Errorf("%s: disjoint ranges should filter to empty, got %d points", id, len(pts))
		}
	}
}

func TestAlignRange_AllEmpty(t *testing.T) {
	aligned := AlignRange(map[string][]model.PricePoint{"a": {}, "b": {}}, nil, nil)
	for id, pts := range aligned.Histories {
		if len(pts) != 0 {
			t.Errorf("%s: expected empty, got %d points", id, len(pts))
		}
	}
}
