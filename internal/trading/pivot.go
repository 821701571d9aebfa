package trading

import (
	"fmt"

	"kis-swingbot/internal/store"
	"kis-swingbot/pkg/types"
)

// pivotLevels computes classical daily pivots from the prior session's
// high/low/close and today's open/high/low. Integer arithmetic
// truncates toward zero, matching the tick-size granularity of KRX
// limit prices. The range-derived levels need today's session to have
// opened; before the open they stay zero.
func pivotLevels(prevHigh, prevLow, prevClose, todayOpen, todayHigh, todayLow int) (p, r1, r2, r3, s1, s2, s3 int) {
	p = (prevHigh + prevLow + prevClose) / 3
	r1 = 2*p - prevLow
	s1 = 2*p - prevHigh
	if todayOpen > 0 {
		rng := todayHigh - todayLow
		r2 = p + rng
		r3 = r1 + rng
		s2 = p - rng
		s3 = s1 - rng
	}
	return
}

// writePivots recomputes a ticker's pivot levels from its latest stored
// bar plus today's intraday figures, and upserts the trade-info row.
// The upsert leaves any existing candidate flag and note untouched.
func writePivots(s *store.Store, code, date string, open, high, low, current int) error {
	prev, err := s.LatestBar(code)
	if err != nil {
		return fmt.Errorf("pivots %s: %w", code, err)
	}
	if prev == nil {
		return fmt.Errorf("pivots %s: no prior bar", code)
	}
	p, r1, r2, r3, s1, s2, s3 := pivotLevels(prev.High, prev.Low, prev.Close, open, high, low)
	ti := types.TradeInfo{
		Code: code, Date: date,
		Pivot: p, R1: r1, R2: r2, R3: r3, S1: s1, S2: s2, S3: s3,
		Open: open, PrevClose: prev.Close, Current: current,
		Strategy: types.StrategySwing,
	}
	if err := s.UpsertPivots(ti); err != nil {
		return fmt.Errorf("pivots %s: %w", code, err)
	}
	return nil
}
