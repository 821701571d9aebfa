package scoring

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"kis-swingbot/internal/store"
	"kis-swingbot/pkg/marketday"
	"kis-swingbot/pkg/types"
)

// Candidate-selection thresholds. The first four sub-scores gate in
// order; a ticker failing any gate is dropped before the remaining
// scores are computed.
const (
	minSheetScore  = 3
	minPriceScore  = 0
	minTrendScore  = 3
	minCapScore    = 3
	totalThreshold = 30

	kpiPeriod = 14
)

const candidateNote = "swing target"

// Scorer runs the daily multi-factor scoring pass over the view of
// joined financials, snapshots, and price bars.
type Scorer struct {
	store *store.Store
	log   zerolog.Logger
}

func NewScorer(s *store.Store, logger zerolog.Logger) *Scorer {
	return &Scorer{store: s, log: logger.With().Str("component", "scorer").Logger()}
}

// Run scores every ticker in the view and marks those whose total
// clears the threshold as today's swing candidates. Per-ticker
// failures log and skip; the pass itself only fails when the view
// cannot be read. Returns the number of candidates found.
func (sc *Scorer) Run(ctx context.Context) (int, error) {
	date := marketday.Today()
	rows, err := sc.store.ScoringView(marketday.Yesterday())
	if err != nil {
		return 0, fmt.Errorf("scoring run: %w", err)
	}

	found := 0
	for _, row := range rows {
		select {
		case <-ctx.Done():
			return found, ctx.Err()
		default:
		}
		ok, err := sc.scoreOne(row, date)
		if err != nil {
			sc.log.Warn().Err(err).Str("code", row.Code).Msg("scoring ticker failed")
			continue
		}
		if ok {
			found++
		}
	}
	sc.log.Info().Int("tickers", len(rows)).Int("candidates", found).Msg("scoring pass done")
	return found, nil
}

// scoreOne evaluates one view row. Returns true when the ticker was
// written as a candidate.
func (sc *Scorer) scoreOne(row store.ViewRow, date string) (bool, error) {
	netIncome, err := sc.latestNetIncome(row.Code)
	if err != nil {
		return false, err
	}
	sheet := sheetScore(row, netIncome)
	if sheet < minSheetScore {
		return false, nil
	}
	price := priceScore(row.RateVsYearHigh, row.RateVsYearLow)
	if price < minPriceScore {
		return false, nil
	}
	trend := trendScore(float64(row.Close), row.MA5, row.MA20, row.MA60)
	if trend < minTrendScore {
		return false, nil
	}
	cap := capScore(row.ListedShares, row.Close)
	if cap < minCapScore {
		return false, nil
	}

	buy := buyScore(row)
	per := perScore(row.PER)
	pbr := pbrScore(row.PBR)

	bars, err := sc.store.BarsNewestFirst(row.Code)
	if err != nil {
		return false, err
	}
	kpi := kpiScore(bars)

	total := sheet + trend + price + buy + kpi + cap + per + pbr
	if total <= totalThreshold {
		return false, nil
	}

	sc.log.Info().Str("code", row.Code).Str("name", row.Name).Int("total", total).Msg("swing candidate found")
	card := types.ScoreCard{
		Code: row.Code, Date: date,
		Sheet: sheet, Trend: trend, Price: price, KPI: kpi,
		Buy: buy, Cap: cap, PER: per, PBR: pbr, Total: total,
	}
	if err := sc.store.UpsertScoreCard(card); err != nil {
		return false, err
	}
	if err := sc.store.SetCandidate(row.Code, date, types.CandidateYes, types.StrategySwing, candidateNote); err != nil {
		return false, err
	}
	return true, nil
}

func (sc *Scorer) latestNetIncome(code string) (float64, error) {
	row, err := sc.store.LatestIncomeRow(code)
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	f, _ := row.NetIncome.Float64()
	return f, nil
}

// ————————————————————————————————————————————————————————————————————————
// Sub-score rule tables
// ————————————————————————————————————————————————————————————————————————

// sheetScore grades growth, retention, leverage, and bottom-line
// profitability, one point each.
func sheetScore(row store.ViewRow, netIncome float64) int {
	score := 0
	if row.RevenueGrowth > 10 {
		score++
	}
	if row.OpProfitGrowth > 10 {
		score++
	}
	if row.ReserveRate > 500 {
		score++
	}
	if row.DebtRate > 50 {
		score++
	}
	if netIncome > 0 {
		score++
	}
	return score
}

// priceScore rewards drawdown from the yearly high and penalizes
// run-up from the yearly low, floored at zero.
func priceScore(rateVsHigh, rateVsLow float64) int {
	score := highDrawdownScore(rateVsHigh) - lowRunupPenalty(rateVsLow)
	if score < 0 {
		return 0
	}
	return score
}

func highDrawdownScore(rate float64) int {
	switch {
	case rate <= -30:
		return 5
	case rate <= -20:
		return 4
	case rate <= -10:
		return 3
	case rate <= -5:
		return 2
	case rate < 0:
		return 1
	default:
		return 0
	}
}

func lowRunupPenalty(rate float64) int {
	switch {
	case rate > 30:
		return 3
	case rate > 20:
		return 2
	case rate > 10:
		return 1
	default:
		return 0
	}
}

// trendScore reads the moving-average stack. A missing average zeroes
// the whole score.
func trendScore(close, ma5, ma20, ma60 float64) int {
	if ma5 == 0 || ma20 == 0 || ma60 == 0 {
		return 0
	}
	score := 0
	if ma60 > ma20 {
		score += 2
	}
	if close >= ma20 {
		score += 2
	}
	if close >= ma5 {
		score += 1
	}
	return score
}

// capScore bands the market cap (listed shares × close) in KRW.
func capScore(listedShares int64, close int) int {
	cap := float64(listedShares) * float64(close)
	const billion = 1e9
	switch {
	case cap < 10*billion:
		return 1
	case cap < 50*billion:
		return 2
	case cap < 100*billion:
		return 3
	case cap < 500*billion:
		return 4
	default:
		return 5
	}
}

// rate is a percentage with a zero-denominator guard.
func rate(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b * 100
}

// buyScore grades foreign/program demand: net buys against volume and
// foreign holdings against the float.
func buyScore(row store.ViewRow) int {
	volRate := max(
		rate(float64(row.ForeignNetBuyQty), float64(row.Volume)),
		rate(float64(row.ProgramNetBuyQty), float64(row.Volume)),
	)
	holdRate := rate(float64(row.ForeignHoldQty), float64(row.ListedShares))

	switch {
	case volRate > 10 && holdRate > 10:
		return 5
	case volRate > 10 || holdRate > 10:
		return 4
	case volRate > 5 && holdRate > 5:
		return 3
	case volRate > 5 || holdRate > 5:
		return 2
	default:
		return 1
	}
}

func perScore(per float64) int {
	switch {
	case per <= 0:
		return 1
	case per < 5:
		return 5
	case per < 10:
		return 4
	case per < 15:
		return 3
	case per < 20:
		return 2
	default:
		return 1
	}
}

func pbrScore(pbr float64) int {
	switch {
	case pbr <= 0:
		return 1
	case pbr < 1:
		return 5
	case pbr < 2:
		return 4
	case pbr < 3:
		return 3
	case pbr < 4:
		return 2
	default:
		return 1
	}
}

// kpiScore combines the RSI and OBV signals, with a bonus point when
// both fire.
func kpiScore(bars []types.PriceBar) int {
	rsi := rsiSignal(bars, kpiPeriod)
	obv := obvSignal(bars, kpiPeriod)
	bonus := 0
	if rsi != 0 && obv != 0 {
		bonus = 1
	}
	return rsi + obv + bonus
}
