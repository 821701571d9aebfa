package store

import (
	"testing"

	"github.com/shopspring/decimal"

	"kis-swingbot/pkg/types"
)

// seedViewTicker inserts the full row set one view line needs.
func seedViewTicker(t *testing.T, s *Store, code, market, industry, name string, close int) {
	t.Helper()
	if _, err := s.InsertTickerIfAbsent(types.Ticker{Code: code, Market: market, Name: name}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertEquity(types.EquitySnapshot{
		Code: code, Industry: industry,
		ListedShares: 1000000, YearHigh: close * 2, RateVsYearHigh: -35,
		YearLow: close / 2, RateVsYearLow: 5,
		ForeignHoldQty: 200000, ForeignNetBuyQty: 1500, ProgramNetBuyQty: 900,
		PER: 8.5, PBR: 0.9, EPS: 1200, BPS: 45000,
		Capital: decimal.Zero, MarketCap: decimal.Zero,
	}); err != nil {
		t.Fatal(err)
	}
	bar := types.PriceBar{Code: code, Date: "20250819", Close: close, Volume: 10000}
	if err := s.UpsertBar(bar); err != nil {
		t.Fatal(err)
	}
	bar.MA5, bar.MA20, bar.MA60 = float64(close), float64(close)-100, float64(close)-200
	if err := s.UpdateBarMAs(bar); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertRatioRow(types.RatioRow{
		SheetKey:      types.SheetKey{Code: code, Class: types.ClassAnnual, YearMonth: "202412"},
		RevenueGrowth: decimal.NewFromFloat(15.5), OpProfitGrowth: decimal.NewFromFloat(12),
		ReserveRate: decimal.NewFromInt(800), DebtRate: decimal.NewFromInt(60),
	}); err != nil {
		t.Fatal(err)
	}
}

func TestScoringViewJoinsLatestAnnualRatio(t *testing.T) {
	t.Parallel()
	s := openTest(t)
	seedViewTicker(t, s, "005930", "KOSPI", "전기전자", "삼성전자", 70000)

	// An older annual filing and a newer quarterly one must not displace
	// the latest annual row.
	if err := s.UpsertRatioRow(types.RatioRow{
		SheetKey:      types.SheetKey{Code: "005930", Class: types.ClassAnnual, YearMonth: "202312"},
		RevenueGrowth: decimal.NewFromInt(-5),
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertRatioRow(types.RatioRow{
		SheetKey:      types.SheetKey{Code: "005930", Class: types.ClassQuarter, YearMonth: "202506"},
		RevenueGrowth: decimal.NewFromInt(99),
	}); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ScoringView("20250824")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	r := rows[0]
	if r.Code != "005930" || r.Market != "KOSPI" || r.Industry != "전기전자" {
		t.Errorf("row identity = %+v", r)
	}
	if r.RevenueGrowth != 15.5 {
		t.Errorf("RevenueGrowth = %v, want latest annual 15.5", r.RevenueGrowth)
	}
	if r.Close != 70000 || r.Volume != 10000 {
		t.Errorf("bar fields = close %d vol %d", r.Close, r.Volume)
	}
	if r.MA20 != 69900 {
		t.Errorf("MA20 = %v", r.MA20)
	}
}

func TestScoringViewExcludesSPAC(t *testing.T) {
	t.Parallel()
	s := openTest(t)
	seedViewTicker(t, s, "000001", "KOSPI", "금융", "좋은회사", 10000)
	seedViewTicker(t, s, "000002", "KOSPI", "금융", "교보15호스팩", 2000)

	rows, err := s.ScoringView("20250824")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Code != "000001" {
		t.Errorf("rows = %+v, SPAC must be excluded", rows)
	}
}

func TestScoringViewOrdering(t *testing.T) {
	t.Parallel()
	s := openTest(t)
	seedViewTicker(t, s, "100200", "KOSPI", "화학", "비", 1000)
	seedViewTicker(t, s, "100100", "KOSPI", "화학", "가", 1000)
	seedViewTicker(t, s, "100300", "KOSDAQ", "바이오", "다", 1000)
	seedViewTicker(t, s, "100400", "KOSPI", "건설", "라", 1000)

	rows, err := s.ScoringView("20250824")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"100300", "100400", "100100", "100200"} // KOSDAQ<KOSPI, then industry, then code
	if len(rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(rows), len(want))
	}
	for i, code := range want {
		if rows[i].Code != code {
			t.Errorf("rows[%d] = %s, want %s", i, rows[i].Code, code)
		}
	}
}

func TestScoringViewKeepsHaltedTicker(t *testing.T) {
	t.Parallel()
	s := openTest(t)
	seedViewTicker(t, s, "000001", "KOSPI", "금융", "좋은회사", 10000)
	seedViewTicker(t, s, "000002", "KOSPI", "금융", "멈춘회사", 5000)

	// One ticker traded more recently; the halted one still appears with
	// its own latest bar.
	if err := s.UpsertBar(types.PriceBar{Code: "000001", Date: "20250822", Close: 10500}); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ScoringView("20250824")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want both tickers", len(rows))
	}
	byCode := map[string]int{}
	for _, r := range rows {
		byCode[r.Code] = r.Close
	}
	if byCode["000001"] != 10500 || byCode["000002"] != 5000 {
		t.Errorf("closes = %v", byCode)
	}
}

func TestScoringViewUsesBarOnOrBeforeAsOf(t *testing.T) {
	t.Parallel()
	s := openTest(t)
	seedViewTicker(t, s, "005930", "KOSPI", "전기전자", "삼성전자", 70000)

	// A newer bar past the as-of date must be ignored.
	if err := s.UpsertBar(types.PriceBar{Code: "005930", Date: "20250825", Close: 99999}); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ScoringView("20250824")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Close != 70000 {
		t.Errorf("Close = %d, want the 20250819 bar", rows[0].Close)
	}
}
