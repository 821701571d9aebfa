package store

import "fmt"

// ViewRow is one line of the scoring view: the latest annual financial
// ratios joined with the ticker, its equity snapshot, and the newest
// price bar at or before the as-of date. Ratio fields come back as
// float64 because the scoring rules are plain threshold comparisons.
type ViewRow struct {
	Market   string
	Industry string
	Code     string
	Name     string

	RevenueGrowth  float64
	OpProfitGrowth float64
	ReserveRate    float64
	DebtRate       float64

	Close          int
	YearHigh       int
	RateVsYearHigh float64

	MA5   float64
	MA10  float64
	MA20  float64
	MA30  float64
	MA60  float64
	MA120 float64
	MA240 float64

	ForeignNetBuyQty int64
	ProgramNetBuyQty int64
	Volume           int64
	ForeignHoldQty   int64
	ListedShares     int64

	PER           float64
	PBR           float64
	YearLow       int
	RateVsYearLow float64
	EPS           float64
	BPS           float64
}

// scoringViewSQL joins each ticker's latest annual ratio filing with its
// snapshot and the bar at the most recent session on or before the
// as-of date. SPAC listings are excluded by name. Output order is
// (market, industry, code), which fixes the scoring iteration order.
const scoringViewSQL = `
SELECT
	t.market, e.industry, f.code, t.name,
	f.revenue_growth, f.op_profit_growth, f.reserve_rate, f.debt_rate,
	p.close, e.year_high, e.rate_vs_year_high,
	p.ma5, p.ma10, p.ma20, p.ma30, p.ma60, p.ma120, p.ma240,
	e.foreign_net_buy_qty, e.program_net_buy_qty, p.volume,
	e.foreign_hold_qty, e.listed_shares, e.per, e.pbr,
	e.year_low, e.rate_vs_year_low, e.eps, e.bps
FROM financial_ratios f
INNER JOIN (
	SELECT code, MAX(year_month) AS year_month
	FROM financial_ratios WHERE class = '0' GROUP BY code
) lf ON f.code = lf.code AND f.year_month = lf.year_month
INNER JOIN tickers t ON t.code = f.code
INNER JOIN equity_snapshots e ON e.code = f.code
INNER JOIN (
	SELECT * FROM price_bars
	WHERE (code, date) IN (
		SELECT code, MAX(date) FROM price_bars WHERE date <= ? GROUP BY code
	)
) p ON p.code = f.code
WHERE f.class = '0' AND t.name NOT LIKE '%스팩%'
ORDER BY t.market, e.industry, f.code`

// ScoringView runs the join for the given as-of date (the last session
// date considered, normally yesterday) and returns the rows in scoring
// order.
func (s *Store) ScoringView(asOf string) ([]ViewRow, error) {
	rows, err := s.db.Query(scoringViewSQL, asOf)
	if err != nil {
		return nil, fmt.Errorf("scoring view: %w", err)
	}
	defer rows.Close()

	var out []ViewRow
	for rows.Next() {
		var r ViewRow
		if err := rows.Scan(
			&r.Market, &r.Industry, &r.Code, &r.Name,
			&r.RevenueGrowth, &r.OpProfitGrowth, &r.ReserveRate, &r.DebtRate,
			&r.Close, &r.YearHigh, &r.RateVsYearHigh,
			&r.MA5, &r.MA10, &r.MA20, &r.MA30, &r.MA60, &r.MA120, &r.MA240,
			&r.ForeignNetBuyQty, &r.ProgramNetBuyQty, &r.Volume,
			&r.ForeignHoldQty, &r.ListedShares, &r.PER, &r.PBR,
			&r.YearLow, &r.RateVsYearLow, &r.EPS, &r.BPS,
		); err != nil {
			return nil, fmt.Errorf("scan view row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
