// Package scoring holds the daily candidate-selection pipeline: the
// moving-average engine that annotates price bars, the RSI/OBV helper
// indicators, and the multi-factor scorer that marks swing candidates.
package scoring

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"kis-swingbot/internal/store"
	"kis-swingbot/pkg/types"
)

// maWindows are the moving-average spans annotated on every bar.
var maWindows = []int{5, 10, 20, 30, 60, 120, 200, 240}

// windowMean averages the closes in bars[i .. i+window-1], clipped at
// the series end. Bars are newest-first, so the window reaches back in
// time. Zero closes (missing sessions) are excluded from the divisor;
// a window with no usable close yields 0.
func windowMean(bars []types.PriceBar, i, window int) float64 {
	end := i + window
	if end > len(bars) {
		end = len(bars)
	}
	var vals []float64
	for j := i; j < end; j++ {
		if c := bars[j].Close; c != 0 {
			vals = append(vals, float64(c))
		}
	}
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}

// ComputeMAs fills the eight moving-average fields of every bar in
// place. The input must be newest-first; partial windows near the old
// end of the series emit the partial mean. Idempotent.
func ComputeMAs(bars []types.PriceBar) {
	for i := range bars {
		for _, w := range maWindows {
			m := windowMean(bars, i, w)
			switch w {
			case 5:
				bars[i].MA5 = m
			case 10:
				bars[i].MA10 = m
			case 20:
				bars[i].MA20 = m
			case 30:
				bars[i].MA30 = m
			case 60:
				bars[i].MA60 = m
			case 120:
				bars[i].MA120 = m
			case 200:
				bars[i].MA200 = m
			case 240:
				bars[i].MA240 = m
			}
		}
	}
}

// RecomputeMAs loads a ticker's full bar series, recomputes every
// moving average, and writes the results back.
func RecomputeMAs(s *store.Store, code string) error {
	bars, err := s.BarsNewestFirst(code)
	if err != nil {
		return fmt.Errorf("recompute MAs %s: %w", code, err)
	}
	ComputeMAs(bars)
	for i := range bars {
		if err := s.UpdateBarMAs(bars[i]); err != nil {
			return fmt.Errorf("recompute MAs %s: %w", code, err)
		}
	}
	return nil
}
