package store

import (
	"database/sql"
	"errors"
	"fmt"

	"kis-swingbot/pkg/numeric"
	"kis-swingbot/pkg/types"
)

// ————————————————————————————————————————————————————————————————————————
// Tickers
// ————————————————————————————————————————————————————————————————————————

// InsertTickerIfAbsent stores a ticker unless its code already exists.
// Returns true when a row was inserted.
func (s *Store) InsertTickerIfAbsent(t types.Ticker) (bool, error) {
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO tickers (code, market, name, corp_name, sector) VALUES (?, ?, ?, ?, ?)`,
		t.Code, t.Market, t.Name, t.CorpName, t.Sector,
	)
	if err != nil {
		return false, fmt.Errorf("insert ticker %s: %w", t.Code, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListTickersByMarket returns all tickers for one market tag, SPAC names
// excluded, ordered by code.
func (s *Store) ListTickersByMarket(market string) ([]types.Ticker, error) {
	rows, err := s.db.Query(
		`SELECT code, market, name, corp_name, sector FROM tickers
		 WHERE market = ? AND name NOT LIKE '%스팩%' ORDER BY code`, market)
	if err != nil {
		return nil, fmt.Errorf("list tickers %s: %w", market, err)
	}
	defer rows.Close()

	var out []types.Ticker
	for rows.Next() {
		var t types.Ticker
		if err := rows.Scan(&t.Code, &t.Market, &t.Name, &t.CorpName, &t.Sector); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TickerName returns the short name for a code, "" when unknown.
func (s *Store) TickerName(code string) (string, error) {
	var name string
	err := s.db.QueryRow(`SELECT name FROM tickers WHERE code = ?`, code).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ticker name %s: %w", code, err)
	}
	return name, nil
}

// ————————————————————————————————————————————————————————————————————————
// Equity snapshots
// ————————————————————————————————————————————————————————————————————————

// UpsertEquity overwrites the daily fundamentals snapshot for one ticker.
func (s *Store) UpsertEquity(e types.EquitySnapshot) error {
	_, err := s.db.Exec(`
		INSERT INTO equity_snapshots (
			code, industry, status_code, ref_price, weighted_avg_price,
			ceiling_price, floor_price, substitute_price, face_price,
			quote_unit, deal_qty_unit, restriction_width, listed_shares,
			capital, market_cap, turnover_rate, foreign_exhaust_rate,
			foreign_hold_qty, foreign_net_buy_qty, program_net_buy_qty,
			d250_high, d250_high_date, d250_high_rate,
			d250_low, d250_low_date, d250_low_rate,
			year_high, year_high_date, rate_vs_year_high,
			year_low, year_low_date, rate_vs_year_low,
			w52_high, w52_high_date, w52_high_rate,
			w52_low, w52_low_date, w52_low_rate,
			loan_remain_rate, short_sale_allowed, last_short_sale_qty,
			face_currency, capital_currency, per, eps, pbr, bps
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(code) DO UPDATE SET
			industry=excluded.industry, status_code=excluded.status_code,
			ref_price=excluded.ref_price, weighted_avg_price=excluded.weighted_avg_price,
			ceiling_price=excluded.ceiling_price, floor_price=excluded.floor_price,
			substitute_price=excluded.substitute_price, face_price=excluded.face_price,
			quote_unit=excluded.quote_unit, deal_qty_unit=excluded.deal_qty_unit,
			restriction_width=excluded.restriction_width, listed_shares=excluded.listed_shares,
			capital=excluded.capital, market_cap=excluded.market_cap,
			turnover_rate=excluded.turnover_rate, foreign_exhaust_rate=excluded.foreign_exhaust_rate,
			foreign_hold_qty=excluded.foreign_hold_qty, foreign_net_buy_qty=excluded.foreign_net_buy_qty,
			program_net_buy_qty=excluded.program_net_buy_qty,
			d250_high=excluded.d250_high, d250_high_date=excluded.d250_high_date,
			d250_high_rate=excluded.d250_high_rate,
			d250_low=excluded.d250_low, d250_low_date=excluded.d250_low_date,
			d250_low_rate=excluded.d250_low_rate,
			year_high=excluded.year_high, year_high_date=excluded.year_high_date,
			rate_vs_year_high=excluded.rate_vs_year_high,
			year_low=excluded.year_low, year_low_date=excluded.year_low_date,
			rate_vs_year_low=excluded.rate_vs_year_low,
			w52_high=excluded.w52_high, w52_high_date=excluded.w52_high_date,
			w52_high_rate=excluded.w52_high_rate,
			w52_low=excluded.w52_low, w52_low_date=excluded.w52_low_date,
			w52_low_rate=excluded.w52_low_rate,
			loan_remain_rate=excluded.loan_remain_rate,
			short_sale_allowed=excluded.short_sale_allowed,
			last_short_sale_qty=excluded.last_short_sale_qty,
			face_currency=excluded.face_currency, capital_currency=excluded.capital_currency,
			per=excluded.per, eps=excluded.eps, pbr=excluded.pbr, bps=excluded.bps`,
		e.Code, e.Industry, e.StatusCode, e.RefPrice, e.WeightedAvgPrice,
		e.CeilingPrice, e.FloorPrice, e.SubstitutePrice, e.FacePrice,
		e.QuoteUnit, e.DealQtyUnit, e.RestrictionWidth, e.ListedShares,
		e.Capital.String(), e.MarketCap.String(), e.TurnoverRate, e.ForeignExhaustRate,
		e.ForeignHoldQty, e.ForeignNetBuyQty, e.ProgramNetBuyQty,
		e.D250High, e.D250HighDate, e.D250HighRate,
		e.D250Low, e.D250LowDate, e.D250LowRate,
		e.YearHigh, e.YearHighDate, e.RateVsYearHigh,
		e.YearLow, e.YearLowDate, e.RateVsYearLow,
		e.W52High, e.W52HighDate, e.W52HighRate,
		e.W52Low, e.W52LowDate, e.W52LowRate,
		e.LoanRemainRate, e.ShortSaleAllowed, e.LastShortSaleQty,
		e.FaceCurrency, e.CapitalCurrency, e.PER, e.EPS, e.PBR, e.BPS,
	)
	if err != nil {
		return fmt.Errorf("upsert equity %s: %w", e.Code, err)
	}
	return nil
}

// ————————————————————————————————————————————————————————————————————————
// Price bars
// ————————————————————————————————————————————————————————————————————————

// UpsertBar writes one daily bar's OHLCV fields. Moving averages are
// managed separately by UpdateBarMAs and survive the upsert.
func (s *Store) UpsertBar(b types.PriceBar) error {
	_, err := s.db.Exec(`
		INSERT INTO price_bars (code, date, open, high, low, close, volume, turnover, prev_delta, prev_sign)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(code, date) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, volume=excluded.volume, turnover=excluded.turnover,
			prev_delta=excluded.prev_delta, prev_sign=excluded.prev_sign`,
		b.Code, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume,
		b.Turnover.String(), b.PrevDelta, b.PrevSign,
	)
	if err != nil {
		return fmt.Errorf("upsert bar %s/%s: %w", b.Code, b.Date, err)
	}
	return nil
}

// HasBars reports whether any bar exists for the code.
func (s *Store) HasBars(code string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM price_bars WHERE code = ? LIMIT 1`, code).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has bars %s: %w", code, err)
	}
	return true, nil
}

// HasBar reports whether the bar for (code, date) exists.
func (s *Store) HasBar(code, date string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM price_bars WHERE code = ? AND date = ?`, code, date).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has bar %s/%s: %w", code, date, err)
	}
	return true, nil
}

const barColumns = `code, date, open, high, low, close, volume, turnover,
	prev_delta, prev_sign, ma5, ma10, ma20, ma30, ma60, ma120, ma200, ma240`

func scanBar(rows *sql.Rows) (types.PriceBar, error) {
	var b types.PriceBar
	var turnover string
	err := rows.Scan(&b.Code, &b.Date, &b.Open, &b.High, &b.Low, &b.Close,
		&b.Volume, &turnover, &b.PrevDelta, &b.PrevSign,
		&b.MA5, &b.MA10, &b.MA20, &b.MA30, &b.MA60, &b.MA120, &b.MA200, &b.MA240)
	if err != nil {
		return b, err
	}
	b.Turnover = numeric.Decimal(turnover)
	return b, nil
}

// BarsNewestFirst returns the full bar series for one code, newest
// session first. The MA/RSI/OBV computations all assume this order.
func (s *Store) BarsNewestFirst(code string) ([]types.PriceBar, error) {
	rows, err := s.db.Query(
		`SELECT `+barColumns+` FROM price_bars WHERE code = ? ORDER BY date DESC`, code)
	if err != nil {
		return nil, fmt.Errorf("bars %s: %w", code, err)
	}
	defer rows.Close()

	var out []types.PriceBar
	for rows.Next() {
		b, err := scanBar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LatestBar returns the most recent bar for the code, nil when none.
func (s *Store) LatestBar(code string) (*types.PriceBar, error) {
	rows, err := s.db.Query(
		`SELECT `+barColumns+` FROM price_bars WHERE code = ? ORDER BY date DESC LIMIT 1`, code)
	if err != nil {
		return nil, fmt.Errorf("latest bar %s: %w", code, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	b, err := scanBar(rows)
	if err != nil {
		return nil, fmt.Errorf("scan bar: %w", err)
	}
	return &b, nil
}

// UpdateBarMAs writes the eight moving-average fields for one bar.
func (s *Store) UpdateBarMAs(b types.PriceBar) error {
	_, err := s.db.Exec(`
		UPDATE price_bars SET ma5=?, ma10=?, ma20=?, ma30=?, ma60=?, ma120=?, ma200=?, ma240=?
		WHERE code = ? AND date = ?`,
		b.MA5, b.MA10, b.MA20, b.MA30, b.MA60, b.MA120, b.MA200, b.MA240,
		b.Code, b.Date,
	)
	if err != nil {
		return fmt.Errorf("update bar MAs %s/%s: %w", b.Code, b.Date, err)
	}
	return nil
}
