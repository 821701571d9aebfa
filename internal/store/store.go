// Package store persists the bot's market data and trading state in
// SQLite. Every table keyed by a composite identity is written upsert-
// style (INSERT ... ON CONFLICT DO UPDATE); trade history is the one
// append-only table.
package store

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite handle. Safe for concurrent use; WAL mode lets
// the dashboard read while the collector writes.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (creating if needed) the database at path and runs the
// schema migration. Use ":memory:" for tests.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc.org/sqlite serializes writers; one connection avoids
	// SQLITE_BUSY churn between the collector and the trading loop.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: logger.With().Str("component", "store").Logger()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tickers (
		code       TEXT PRIMARY KEY,
		market     TEXT NOT NULL,
		name       TEXT NOT NULL,
		corp_name  TEXT NOT NULL DEFAULT '',
		sector     TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS equity_snapshots (
		code                 TEXT PRIMARY KEY,
		industry             TEXT NOT NULL DEFAULT '',
		status_code          TEXT NOT NULL DEFAULT '',
		ref_price            INTEGER NOT NULL DEFAULT 0,
		weighted_avg_price   REAL NOT NULL DEFAULT 0,
		ceiling_price        INTEGER NOT NULL DEFAULT 0,
		floor_price          INTEGER NOT NULL DEFAULT 0,
		substitute_price     INTEGER NOT NULL DEFAULT 0,
		face_price           REAL NOT NULL DEFAULT 0,
		quote_unit           INTEGER NOT NULL DEFAULT 0,
		deal_qty_unit        INTEGER NOT NULL DEFAULT 0,
		restriction_width    INTEGER NOT NULL DEFAULT 0,
		listed_shares        INTEGER NOT NULL DEFAULT 0,
		capital              TEXT NOT NULL DEFAULT '0',
		market_cap           TEXT NOT NULL DEFAULT '0',
		turnover_rate        REAL NOT NULL DEFAULT 0,
		foreign_exhaust_rate REAL NOT NULL DEFAULT 0,
		foreign_hold_qty     INTEGER NOT NULL DEFAULT 0,
		foreign_net_buy_qty  INTEGER NOT NULL DEFAULT 0,
		program_net_buy_qty  INTEGER NOT NULL DEFAULT 0,
		d250_high            INTEGER NOT NULL DEFAULT 0,
		d250_high_date       TEXT NOT NULL DEFAULT '',
		d250_high_rate       REAL NOT NULL DEFAULT 0,
		d250_low             INTEGER NOT NULL DEFAULT 0,
		d250_low_date        TEXT NOT NULL DEFAULT '',
		d250_low_rate        REAL NOT NULL DEFAULT 0,
		year_high            INTEGER NOT NULL DEFAULT 0,
		year_high_date       TEXT NOT NULL DEFAULT '',
		rate_vs_year_high    REAL NOT NULL DEFAULT 0,
		year_low             INTEGER NOT NULL DEFAULT 0,
		year_low_date        TEXT NOT NULL DEFAULT '',
		rate_vs_year_low     REAL NOT NULL DEFAULT 0,
		w52_high             INTEGER NOT NULL DEFAULT 0,
		w52_high_date        TEXT NOT NULL DEFAULT '',
		w52_high_rate        REAL NOT NULL DEFAULT 0,
		w52_low              INTEGER NOT NULL DEFAULT 0,
		w52_low_date         TEXT NOT NULL DEFAULT '',
		w52_low_rate         REAL NOT NULL DEFAULT 0,
		loan_remain_rate     REAL NOT NULL DEFAULT 0,
		short_sale_allowed   TEXT NOT NULL DEFAULT '',
		last_short_sale_qty  INTEGER NOT NULL DEFAULT 0,
		face_currency        TEXT NOT NULL DEFAULT '',
		capital_currency     TEXT NOT NULL DEFAULT '',
		per                  REAL NOT NULL DEFAULT 0,
		eps                  REAL NOT NULL DEFAULT 0,
		pbr                  REAL NOT NULL DEFAULT 0,
		bps                  REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS price_bars (
		code       TEXT NOT NULL,
		date       TEXT NOT NULL,
		open       INTEGER NOT NULL DEFAULT 0,
		high       INTEGER NOT NULL DEFAULT 0,
		low        INTEGER NOT NULL DEFAULT 0,
		close      INTEGER NOT NULL DEFAULT 0,
		volume     INTEGER NOT NULL DEFAULT 0,
		turnover   TEXT NOT NULL DEFAULT '0',
		prev_delta INTEGER NOT NULL DEFAULT 0,
		prev_sign  TEXT NOT NULL DEFAULT '',
		ma5   REAL NOT NULL DEFAULT 0,
		ma10  REAL NOT NULL DEFAULT 0,
		ma20  REAL NOT NULL DEFAULT 0,
		ma30  REAL NOT NULL DEFAULT 0,
		ma60  REAL NOT NULL DEFAULT 0,
		ma120 REAL NOT NULL DEFAULT 0,
		ma200 REAL NOT NULL DEFAULT 0,
		ma240 REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (code, date)
	)`,
	`CREATE TABLE IF NOT EXISTS balance_sheets (
		code TEXT NOT NULL, class TEXT NOT NULL, year_month TEXT NOT NULL,
		current_assets      TEXT NOT NULL DEFAULT '0',
		fixed_assets        TEXT NOT NULL DEFAULT '0',
		total_assets        TEXT NOT NULL DEFAULT '0',
		current_liabilities TEXT NOT NULL DEFAULT '0',
		fixed_liabilities   TEXT NOT NULL DEFAULT '0',
		total_liabilities   TEXT NOT NULL DEFAULT '0',
		capital             TEXT NOT NULL DEFAULT '0',
		capital_surplus     TEXT NOT NULL DEFAULT '0',
		retained_earnings   TEXT NOT NULL DEFAULT '0',
		total_equity        TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (code, class, year_month)
	)`,
	`CREATE TABLE IF NOT EXISTS income_statements (
		code TEXT NOT NULL, class TEXT NOT NULL, year_month TEXT NOT NULL,
		revenue          TEXT NOT NULL DEFAULT '0',
		cost_of_sales    TEXT NOT NULL DEFAULT '0',
		gross_profit     TEXT NOT NULL DEFAULT '0',
		depreciation     TEXT NOT NULL DEFAULT '0',
		sga              TEXT NOT NULL DEFAULT '0',
		operating_profit TEXT NOT NULL DEFAULT '0',
		non_op_income    TEXT NOT NULL DEFAULT '0',
		non_op_expense   TEXT NOT NULL DEFAULT '0',
		ordinary_profit  TEXT NOT NULL DEFAULT '0',
		extra_gain       TEXT NOT NULL DEFAULT '0',
		extra_loss       TEXT NOT NULL DEFAULT '0',
		net_income       TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (code, class, year_month)
	)`,
	`CREATE TABLE IF NOT EXISTS financial_ratios (
		code TEXT NOT NULL, class TEXT NOT NULL, year_month TEXT NOT NULL,
		revenue_growth    TEXT NOT NULL DEFAULT '0',
		op_profit_growth  TEXT NOT NULL DEFAULT '0',
		net_income_growth TEXT NOT NULL DEFAULT '0',
		roe               TEXT NOT NULL DEFAULT '0',
		eps               TEXT NOT NULL DEFAULT '0',
		sps               TEXT NOT NULL DEFAULT '0',
		bps               TEXT NOT NULL DEFAULT '0',
		reserve_rate      TEXT NOT NULL DEFAULT '0',
		debt_rate         TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (code, class, year_month)
	)`,
	`CREATE TABLE IF NOT EXISTS profit_ratios (
		code TEXT NOT NULL, class TEXT NOT NULL, year_month TEXT NOT NULL,
		return_on_capital TEXT NOT NULL DEFAULT '0',
		return_on_equity  TEXT NOT NULL DEFAULT '0',
		net_margin        TEXT NOT NULL DEFAULT '0',
		gross_margin      TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (code, class, year_month)
	)`,
	`CREATE TABLE IF NOT EXISTS other_ratios (
		code TEXT NOT NULL, class TEXT NOT NULL, year_month TEXT NOT NULL,
		ebitda    TEXT NOT NULL DEFAULT '0',
		ev_ebitda TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (code, class, year_month)
	)`,
	`CREATE TABLE IF NOT EXISTS score_cards (
		code TEXT NOT NULL, date TEXT NOT NULL,
		sheet INTEGER NOT NULL DEFAULT 0,
		trend INTEGER NOT NULL DEFAULT 0,
		price INTEGER NOT NULL DEFAULT 0,
		kpi   INTEGER NOT NULL DEFAULT 0,
		buy   INTEGER NOT NULL DEFAULT 0,
		cap   INTEGER NOT NULL DEFAULT 0,
		per   INTEGER NOT NULL DEFAULT 0,
		pbr   INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (code, date)
	)`,
	`CREATE TABLE IF NOT EXISTS trade_info (
		code TEXT NOT NULL, date TEXT NOT NULL,
		pivot      INTEGER NOT NULL DEFAULT 0,
		r1         INTEGER NOT NULL DEFAULT 0,
		r2         INTEGER NOT NULL DEFAULT 0,
		r3         INTEGER NOT NULL DEFAULT 0,
		s1         INTEGER NOT NULL DEFAULT 0,
		s2         INTEGER NOT NULL DEFAULT 0,
		s3         INTEGER NOT NULL DEFAULT 0,
		open       INTEGER NOT NULL DEFAULT 0,
		prev_close INTEGER NOT NULL DEFAULT 0,
		current    INTEGER NOT NULL DEFAULT 0,
		strategy   TEXT NOT NULL DEFAULT '',
		candidate  TEXT NOT NULL DEFAULT '',
		note       TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (code, date)
	)`,
	`CREATE TABLE IF NOT EXISTS trade_status (
		code TEXT NOT NULL, date TEXT NOT NULL,
		direction TEXT NOT NULL,
		order_no  TEXT NOT NULL DEFAULT '',
		qty       INTEGER NOT NULL DEFAULT 0,
		price     INTEGER NOT NULL DEFAULT 0,
		time      TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (code, date)
	)`,
	`CREATE TABLE IF NOT EXISTS trade_history (
		code TEXT NOT NULL, date TEXT NOT NULL, time TEXT NOT NULL, type TEXT NOT NULL,
		qty   INTEGER NOT NULL DEFAULT 0,
		price INTEGER NOT NULL DEFAULT 0,
		note  TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (code, date, time, type)
	)`,
}
