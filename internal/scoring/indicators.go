package scoring

import "kis-swingbot/pkg/types"

// Technical indicators over the bar series. The series convention is
// the same as everywhere else in the pipeline: newest-first storage
// order, traversed by ascending index.

// rsiSignal computes a Wilder-smoothed RSI over the series and maps it
// to a trade signal: -2 overbought (>70), +2 oversold (<30), 0 neutral.
// Series shorter than period+1 give no signal.
func rsiSignal(bars []types.PriceBar, period int) int {
	if len(bars) < period+1 {
		return 0
	}
	gains := make([]float64, len(bars))
	losses := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		change := float64(bars[i].Close - bars[i-1].Close)
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	rsi := 0.0
	for i := period; i < len(bars); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		if avgLoss == 0 {
			rsi = 100
		} else {
			rs := avgGain / avgLoss
			rsi = 100 - (100 / (1 + rs))
		}
	}

	switch {
	case rsi > 70:
		return -2
	case rsi < 30:
		return 2
	default:
		return 0
	}
}

// obvSignal accumulates on-balance volume over the full series and
// compares the final value against the one period steps back:
// +2 ascending, -2 descending, 0 flat or insufficient data.
func obvSignal(bars []types.PriceBar, period int) int {
	if len(bars) < 2 {
		return 0
	}
	obv := make([]float64, 0, len(bars))
	acc := 0.0
	obv = append(obv, acc)
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			acc += float64(bars[i].Volume)
		case bars[i].Close < bars[i-1].Close:
			acc -= float64(bars[i].Volume)
		}
		obv = append(obv, acc)
	}
	if len(obv) < period {
		return 0
	}
	start := obv[len(obv)-period]
	end := obv[len(obv)-1]
	switch {
	case end > start:
		return 2
	case end < start:
		return -2
	default:
		return 0
	}
}
