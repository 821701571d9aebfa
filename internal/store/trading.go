package store

import (
	"database/sql"
	"errors"
	"fmt"

	"kis-swingbot/pkg/types"
)

// ————————————————————————————————————————————————————————————————————————
// Score cards
// ————————————————————————————————————————————————————————————————————————

// UpsertScoreCard writes one scoring result.
func (s *Store) UpsertScoreCard(c types.ScoreCard) error {
	_, err := s.db.Exec(`
		INSERT INTO score_cards (code, date, sheet, trend, price, kpi, buy, cap, per, pbr, total)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(code, date) DO UPDATE SET
			sheet=excluded.sheet, trend=excluded.trend, price=excluded.price,
			kpi=excluded.kpi, buy=excluded.buy, cap=excluded.cap,
			per=excluded.per, pbr=excluded.pbr, total=excluded.total`,
		c.Code, c.Date, c.Sheet, c.Trend, c.Price, c.KPI, c.Buy, c.Cap, c.PER, c.PBR, c.Total,
	)
	if err != nil {
		return fmt.Errorf("upsert score card %s/%s: %w", c.Code, c.Date, err)
	}
	return nil
}

// ListScoreCards returns one day's cards ranked by total descending,
// code ascending within equal totals.
func (s *Store) ListScoreCards(date string) ([]types.ScoreCard, error) {
	rows, err := s.db.Query(`
		SELECT code, date, sheet, trend, price, kpi, buy, cap, per, pbr, total
		FROM score_cards WHERE date = ? ORDER BY total DESC, code ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("list score cards %s: %w", date, err)
	}
	defer rows.Close()

	var out []types.ScoreCard
	for rows.Next() {
		var c types.ScoreCard
		if err := rows.Scan(&c.Code, &c.Date, &c.Sheet, &c.Trend, &c.Price,
			&c.KPI, &c.Buy, &c.Cap, &c.PER, &c.PBR, &c.Total); err != nil {
			return nil, fmt.Errorf("scan score card: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ————————————————————————————————————————————————————————————————————————
// Trade info
// ————————————————————————————————————————————————————————————————————————

const tradeInfoColumns = `code, date, pivot, r1, r2, r3, s1, s2, s3,
	open, prev_close, current, strategy, candidate, note`

func scanTradeInfo(row interface{ Scan(...any) error }) (types.TradeInfo, error) {
	var ti types.TradeInfo
	err := row.Scan(&ti.Code, &ti.Date, &ti.Pivot, &ti.R1, &ti.R2, &ti.R3,
		&ti.S1, &ti.S2, &ti.S3, &ti.Open, &ti.PrevClose, &ti.Current,
		&ti.Strategy, &ti.Candidate, &ti.Note)
	return ti, err
}

// UpsertPivots writes the pivot levels and price fields of a trade-info
// row. A new row starts with an empty candidate flag; an existing row
// keeps its candidate and note, which belong to the scoring pass and
// the buy loop.
func (s *Store) UpsertPivots(ti types.TradeInfo) error {
	_, err := s.db.Exec(`
		INSERT INTO trade_info (code, date, pivot, r1, r2, r3, s1, s2, s3,
			open, prev_close, current, strategy, candidate, note)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,'','')
		ON CONFLICT(code, date) DO UPDATE SET
			pivot=excluded.pivot, r1=excluded.r1, r2=excluded.r2, r3=excluded.r3,
			s1=excluded.s1, s2=excluded.s2, s3=excluded.s3,
			open=excluded.open, prev_close=excluded.prev_close,
			current=excluded.current, strategy=excluded.strategy`,
		ti.Code, ti.Date, ti.Pivot, ti.R1, ti.R2, ti.R3, ti.S1, ti.S2, ti.S3,
		ti.Open, ti.PrevClose, ti.Current, ti.Strategy,
	)
	if err != nil {
		return fmt.Errorf("upsert pivots %s/%s: %w", ti.Code, ti.Date, err)
	}
	return nil
}

// SetCandidate marks a ticker's candidate flag, strategy and note,
// creating the row when the pivot pass has not touched it yet.
func (s *Store) SetCandidate(code, date, candidate, strategy, note string) error {
	_, err := s.db.Exec(`
		INSERT INTO trade_info (code, date, strategy, candidate, note)
		VALUES (?,?,?,?,?)
		ON CONFLICT(code, date) DO UPDATE SET
			candidate=excluded.candidate, strategy=excluded.strategy, note=excluded.note`,
		code, date, strategy, candidate, note,
	)
	if err != nil {
		return fmt.Errorf("set candidate %s/%s: %w", code, date, err)
	}
	return nil
}

// UpdateTradeInfoPrices refreshes the current and open prices of an
// existing row; a missing row is left missing.
func (s *Store) UpdateTradeInfoPrices(code, date string, current, open int) error {
	_, err := s.db.Exec(`
		UPDATE trade_info SET current = ?, open = ? WHERE code = ? AND date = ?`,
		current, open, code, date,
	)
	if err != nil {
		return fmt.Errorf("update trade info prices %s/%s: %w", code, date, err)
	}
	return nil
}

// GetTradeInfo returns the row for (code, date), nil when absent.
func (s *Store) GetTradeInfo(code, date string) (*types.TradeInfo, error) {
	row := s.db.QueryRow(`SELECT `+tradeInfoColumns+` FROM trade_info WHERE code = ? AND date = ?`, code, date)
	ti, err := scanTradeInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get trade info %s/%s: %w", code, date, err)
	}
	return &ti, nil
}

// LatestTradeInfo returns the most recent row for a code, nil when none.
func (s *Store) LatestTradeInfo(code string) (*types.TradeInfo, error) {
	row := s.db.QueryRow(`SELECT `+tradeInfoColumns+` FROM trade_info WHERE code = ? ORDER BY date DESC LIMIT 1`, code)
	ti, err := scanTradeInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest trade info %s: %w", code, err)
	}
	return &ti, nil
}

// ListCandidates returns the day's swing candidates: strategy "SW" and
// candidate not explicitly "N", ordered by code.
func (s *Store) ListCandidates(date string) ([]types.TradeInfo, error) {
	rows, err := s.db.Query(`
		SELECT `+tradeInfoColumns+` FROM trade_info
		WHERE date = ? AND strategy = ? AND candidate != ? ORDER BY code`,
		date, types.StrategySwing, types.CandidateNo)
	if err != nil {
		return nil, fmt.Errorf("list candidates %s: %w", date, err)
	}
	defer rows.Close()

	var out []types.TradeInfo
	for rows.Next() {
		ti, err := scanTradeInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade info: %w", err)
		}
		out = append(out, ti)
	}
	return out, rows.Err()
}

// ————————————————————————————————————————————————————————————————————————
// Trade status
// ————————————————————————————————————————————————————————————————————————

// UpsertStatus writes today's position state for a ticker. The order
// number is fixed at row creation; later updates move direction,
// quantity, price and time only.
func (s *Store) UpsertStatus(st types.TradeStatus) error {
	_, err := s.db.Exec(`
		INSERT INTO trade_status (code, date, direction, order_no, qty, price, time)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(code, date) DO UPDATE SET
			direction=excluded.direction, qty=excluded.qty,
			price=excluded.price, time=excluded.time`,
		st.Code, st.Date, string(st.Direction), st.OrderNo, st.Qty, st.Price, st.Time,
	)
	if err != nil {
		return fmt.Errorf("upsert status %s/%s: %w", st.Code, st.Date, err)
	}
	return nil
}

// GetStatus returns the row for (code, date), nil when absent.
func (s *Store) GetStatus(code, date string) (*types.TradeStatus, error) {
	var st types.TradeStatus
	var dir string
	err := s.db.QueryRow(`
		SELECT code, date, direction, order_no, qty, price, time
		FROM trade_status WHERE code = ? AND date = ?`, code, date).
		Scan(&st.Code, &st.Date, &dir, &st.OrderNo, &st.Qty, &st.Price, &st.Time)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get status %s/%s: %w", code, date, err)
	}
	st.Direction = types.Direction(dir)
	return &st, nil
}

// ListStatuses returns one day's rows with the given direction, ordered
// by code.
func (s *Store) ListStatuses(date string, dir types.Direction) ([]types.TradeStatus, error) {
	rows, err := s.db.Query(`
		SELECT code, date, direction, order_no, qty, price, time
		FROM trade_status WHERE date = ? AND direction = ? ORDER BY code`,
		date, string(dir))
	if err != nil {
		return nil, fmt.Errorf("list statuses %s/%s: %w", date, dir, err)
	}
	defer rows.Close()

	var out []types.TradeStatus
	for rows.Next() {
		var st types.TradeStatus
		var d string
		if err := rows.Scan(&st.Code, &st.Date, &d, &st.OrderNo, &st.Qty, &st.Price, &st.Time); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		st.Direction = types.Direction(d)
		out = append(out, st)
	}
	return out, rows.Err()
}

// ————————————————————————————————————————————————————————————————————————
// Trade history
// ————————————————————————————————————————————————————————————————————————

// AppendHistory records one trade log line. History is append-only.
func (s *Store) AppendHistory(h types.TradeHistory) error {
	_, err := s.db.Exec(`
		INSERT INTO trade_history (code, date, time, type, qty, price, note)
		VALUES (?,?,?,?,?,?,?)`,
		h.Code, h.Date, h.Time, h.Type, h.Qty, h.Price, h.Note,
	)
	if err != nil {
		return fmt.Errorf("append history %s/%s: %w", h.Code, h.Date, err)
	}
	return nil
}

// HasHistory reports whether any entry of the given type exists for
// (code, date). The buy task uses this as its daily dedup check.
func (s *Store) HasHistory(code, date, typ string) (bool, error) {
	var one int
	err := s.db.QueryRow(`
		SELECT 1 FROM trade_history WHERE code = ? AND date = ? AND type = ? LIMIT 1`,
		code, date, typ).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has history %s/%s/%s: %w", code, date, typ, err)
	}
	return true, nil
}

// ListHistoryByType returns every entry of one type across all dates,
// ordered by code then date then time.
func (s *Store) ListHistoryByType(typ string) ([]types.TradeHistory, error) {
	rows, err := s.db.Query(`
		SELECT code, date, time, type, qty, price, note
		FROM trade_history WHERE type = ? ORDER BY code, date, time`, typ)
	if err != nil {
		return nil, fmt.Errorf("list history %s: %w", typ, err)
	}
	defer rows.Close()

	var out []types.TradeHistory
	for rows.Next() {
		var h types.TradeHistory
		if err := rows.Scan(&h.Code, &h.Date, &h.Time, &h.Type, &h.Qty, &h.Price, &h.Note); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
