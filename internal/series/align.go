package series

import (
	"github.com/cryptidx/index-engine/internal/model"
)

// AlignedRange is the result of aligning several asset histories to their
// largest common window: each history filtered to [StartTime, EndTime]
// inclusive, plus the window itself.
type AlignedRange struct {
	Histories map[string][]model.PricePoint
	StartTime int64
	EndTime   int64
}

// AlignRange computes the strict intersection of the per-asset time ranges
// and any caller-supplied bounds: the aligned start is the latest of all
// series starts (raised further by startTime if that is later), the
// aligned end the earliest of all series ends (lowered by endTime).
// Every history is then filtered to that window.
//
// An index cannot have price data before all of its constituents existed,
// or after any of them stopped reporting.
//
// Assets with empty histories contribute no bound and come back empty.
// Input series must already be normalized (time-ascending, gap-free).
func AlignRange(histories map[string][]model.PricePoint, startTime, endTime *int64) AlignedRange {
	var (
		minStart int64
		maxEnd   int64
		startSet bool
		endSet   bool
	)

	if startTime != nil {
		minStart, startSet = *startTime, true
	}
	if endTime != nil {
		maxEnd, endSet = *endTime, true
	}

	for _, pts := range histories {
		if len(pts) == 0 {
			continue
		}
		assetStart := pts[0].Time
		assetEnd := pts[len(pts)-1].Time
		if !startSet || assetStart > minStart {
			minStart, startSet = assetStart, true
		}
		if !endSet || assetEnd < maxEnd {
			maxEnd, endSet = assetEnd, true
		}
	}

	filtered := make(map[string][]model.PricePoint, len(histories))
	for id, pts := range histories {
		filtered[id] = filterWindow(pts, minStart, maxEnd)
	}

	return AlignedRange{
		Histories: filtered,
		StartTime: minStart,
		EndTime:   maxEnd,
	}
}

// filterWindow keeps the points with start ≤ time ≤ end. The input is
// time-ascending, so the window is a contiguous slice.
func filterWindow(points []model.PricePoint, start, end int64) []model.PricePoint {
	lo := 0
	for lo < len(points) && points[lo].Time < start {
		lo++
	}
	hi := len(points)
	for hi > lo && points[hi-1].Time > end {
		hi--
	}
	out := make([]model.PricePoint, hi-lo)
	copy(out, points[lo:hi])
	return out
}
