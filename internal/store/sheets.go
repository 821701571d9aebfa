package store

import (
	"database/sql"
	"errors"
	"fmt"

	"kis-swingbot/pkg/numeric"
	"kis-swingbot/pkg/types"
)

// Financial-sheet upserts. Five tables with the same (code, class,
// year_month) key; decimals persist as their canonical string form.

func (s *Store) UpsertBalanceRow(r types.BalanceRow) error {
	_, err := s.db.Exec(`
		INSERT INTO balance_sheets (code, class, year_month,
			current_assets, fixed_assets, total_assets,
			current_liabilities, fixed_liabilities, total_liabilities,
			capital, capital_surplus, retained_earnings, total_equity)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(code, class, year_month) DO UPDATE SET
			current_assets=excluded.current_assets, fixed_assets=excluded.fixed_assets,
			total_assets=excluded.total_assets, current_liabilities=excluded.current_liabilities,
			fixed_liabilities=excluded.fixed_liabilities, total_liabilities=excluded.total_liabilities,
			capital=excluded.capital, capital_surplus=excluded.capital_surplus,
			retained_earnings=excluded.retained_earnings, total_equity=excluded.total_equity`,
		r.Code, string(r.Class), r.YearMonth,
		r.CurrentAssets.String(), r.FixedAssets.String(), r.TotalAssets.String(),
		r.CurrentLiabilities.String(), r.FixedLiabilities.String(), r.TotalLiabilities.String(),
		r.Capital.String(), r.CapitalSurplus.String(), r.RetainedEarnings.String(), r.TotalEquity.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert balance sheet %s/%s/%s: %w", r.Code, r.Class, r.YearMonth, err)
	}
	return nil
}

func (s *Store) UpsertIncomeRow(r types.IncomeRow) error {
	_, err := s.db.Exec(`
		INSERT INTO income_statements (code, class, year_month,
			revenue, cost_of_sales, gross_profit, depreciation, sga,
			operating_profit, non_op_income, non_op_expense,
			ordinary_profit, extra_gain, extra_loss, net_income)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(code, class, year_month) DO UPDATE SET
			revenue=excluded.revenue, cost_of_sales=excluded.cost_of_sales,
			gross_profit=excluded.gross_profit, depreciation=excluded.depreciation,
			sga=excluded.sga, operating_profit=excluded.operating_profit,
			non_op_income=excluded.non_op_income, non_op_expense=excluded.non_op_expense,
			ordinary_profit=excluded.ordinary_profit, extra_gain=excluded.extra_gain,
			extra_loss=excluded.extra_loss, net_income=excluded.net_income`,
		r.Code, string(r.Class), r.YearMonth,
		r.Revenue.String(), r.CostOfSales.String(), r.GrossProfit.String(),
		r.Depreciation.String(), r.SGA.String(), r.OperatingProfit.String(),
		r.NonOpIncome.String(), r.NonOpExpense.String(), r.OrdinaryProfit.String(),
		r.ExtraGain.String(), r.ExtraLoss.String(), r.NetIncome.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert income %s/%s/%s: %w", r.Code, r.Class, r.YearMonth, err)
	}
	return nil
}

func (s *Store) UpsertRatioRow(r types.RatioRow) error {
	_, err := s.db.Exec(`
		INSERT INTO financial_ratios (code, class, year_month,
			revenue_growth, op_profit_growth, net_income_growth,
			roe, eps, sps, bps, reserve_rate, debt_rate)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(code, class, year_month) DO UPDATE SET
			revenue_growth=excluded.revenue_growth, op_profit_growth=excluded.op_profit_growth,
			net_income_growth=excluded.net_income_growth, roe=excluded.roe,
			eps=excluded.eps, sps=excluded.sps, bps=excluded.bps,
			reserve_rate=excluded.reserve_rate, debt_rate=excluded.debt_rate`,
		r.Code, string(r.Class), r.YearMonth,
		r.RevenueGrowth.String(), r.OpProfitGrowth.String(), r.NetIncomeGrowth.String(),
		r.ROE.String(), r.EPS.String(), r.SPS.String(), r.BPS.String(),
		r.ReserveRate.String(), r.DebtRate.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert ratio %s/%s/%s: %w", r.Code, r.Class, r.YearMonth, err)
	}
	return nil
}

func (s *Store) UpsertProfitRow(r types.ProfitRow) error {
	_, err := s.db.Exec(`
		INSERT INTO profit_ratios (code, class, year_month,
			return_on_capital, return_on_equity, net_margin, gross_margin)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(code, class, year_month) DO UPDATE SET
			return_on_capital=excluded.return_on_capital,
			return_on_equity=excluded.return_on_equity,
			net_margin=excluded.net_margin, gross_margin=excluded.gross_margin`,
		r.Code, string(r.Class), r.YearMonth,
		r.ReturnOnCapital.String(), r.ReturnOnEquity.String(),
		r.NetMargin.String(), r.GrossMargin.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert profit ratio %s/%s/%s: %w", r.Code, r.Class, r.YearMonth, err)
	}
	return nil
}

func (s *Store) UpsertOtherRow(r types.OtherRow) error {
	_, err := s.db.Exec(`
		INSERT INTO other_ratios (code, class, year_month, ebitda, ev_ebitda)
		VALUES (?,?,?,?,?)
		ON CONFLICT(code, class, year_month) DO UPDATE SET
			ebitda=excluded.ebitda, ev_ebitda=excluded.ev_ebitda`,
		r.Code, string(r.Class), r.YearMonth,
		r.EBITDA.String(), r.EVEBITDA.String(),
	)
	if err != nil {
		return fmt.Errorf("upsert other ratio %s/%s/%s: %w", r.Code, r.Class, r.YearMonth, err)
	}
	return nil
}

// LatestIncomeRow returns the most recent income filing for a code,
// irrespective of class; year_month descending, then class ascending
// breaks ties. Nil when the ticker has no filings.
func (s *Store) LatestIncomeRow(code string) (*types.IncomeRow, error) {
	var r types.IncomeRow
	var class, netIncome string
	err := s.db.QueryRow(`
		SELECT code, class, year_month, net_income FROM income_statements
		WHERE code = ? ORDER BY year_month DESC, class ASC LIMIT 1`, code).
		Scan(&r.Code, &class, &r.YearMonth, &netIncome)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest income %s: %w", code, err)
	}
	r.Class = types.SheetClass(class)
	r.NetIncome = numeric.Decimal(netIncome)
	return &r, nil
}
