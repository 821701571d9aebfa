package scoring

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"kis-swingbot/internal/store"
	"kis-swingbot/pkg/marketday"
	"kis-swingbot/pkg/types"
)

func TestSheetScore(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		row       store.ViewRow
		netIncome float64
		want      int
	}{
		{"all criteria", store.ViewRow{RevenueGrowth: 15, OpProfitGrowth: 12, ReserveRate: 800, DebtRate: 60}, 100, 5},
		{"none", store.ViewRow{RevenueGrowth: 5, OpProfitGrowth: 5, ReserveRate: 100, DebtRate: 30}, -10, 0},
		{"boundaries excluded", store.ViewRow{RevenueGrowth: 10, OpProfitGrowth: 10, ReserveRate: 500, DebtRate: 50}, 0, 0},
		{"net income only", store.ViewRow{}, 1, 1},
	}
	for _, tt := range tests {
		if got := sheetScore(tt.row, tt.netIncome); got != tt.want {
			t.Errorf("%s: sheetScore = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPriceScore(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rateVsHigh, rateVsLow float64
		want                  int
	}{
		{-35, 5, 5},   // deep drawdown, no run-up
		{-30, 0, 5},   // band edge
		{-25, 0, 4},
		{-15, 0, 3},
		{-7, 0, 2},
		{-1, 0, 1},
		{0, 0, 0},
		{-35, 35, 2},  // 5 - 3
		{-1, 25, 0},   // 1 - 2, floored at 0
		{-15, 12, 2},  // 3 - 1
	}
	for _, tt := range tests {
		if got := priceScore(tt.rateVsHigh, tt.rateVsLow); got != tt.want {
			t.Errorf("priceScore(%v, %v) = %d, want %d", tt.rateVsHigh, tt.rateVsLow, got, tt.want)
		}
	}
}

func TestTrendScore(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                  string
		close, ma5, ma20, ma60 float64
		want                  int
	}{
		{"missing ma zeroes", 9000, 0, 8700, 8500, 0},
		{"pullback above lifeline", 9000, 8800, 8700, 8500, 3}, // ma60<ma20, close≥ma20, close≥ma5
		{"full stack", 9000, 9100, 8700, 8900, 4},              // ma60>ma20 +2, close≥ma20 +2, close<ma5
		{"everything aligned", 9000, 8800, 8700, 8900, 5},
		{"below all", 8000, 8800, 8700, 8500, 0},
	}
	for _, tt := range tests {
		if got := trendScore(tt.close, tt.ma5, tt.ma20, tt.ma60); got != tt.want {
			t.Errorf("%s: trendScore = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestCapScore(t *testing.T) {
	t.Parallel()
	tests := []struct {
		shares int64
		close  int
		want   int
	}{
		{1000000, 5000, 1},      // 5e9 < 10G
		{1000000, 20000, 2},     // 2e10
		{1000000, 70000, 3},     // 7e10
		{50000000, 9000, 4},     // 4.5e11
		{100000000, 70000, 5},   // 7e12
	}
	for _, tt := range tests {
		if got := capScore(tt.shares, tt.close); got != tt.want {
			t.Errorf("capScore(%d, %d) = %d, want %d", tt.shares, tt.close, got, tt.want)
		}
	}
}

func TestBuyScore(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		row  store.ViewRow
		want int
	}{
		{"both over 10", store.ViewRow{ForeignNetBuyQty: 1500, ProgramNetBuyQty: 900, Volume: 10000,
			ForeignHoldQty: 20000000, ListedShares: 50000000}, 5},
		{"one over 10", store.ViewRow{ForeignNetBuyQty: 1500, Volume: 10000,
			ForeignHoldQty: 1000000, ListedShares: 50000000}, 4},
		{"both over 5", store.ViewRow{ForeignNetBuyQty: 700, Volume: 10000,
			ForeignHoldQty: 4000000, ListedShares: 50000000}, 3},
		{"one over 5", store.ViewRow{ForeignNetBuyQty: 700, Volume: 10000,
			ForeignHoldQty: 1000000, ListedShares: 50000000}, 2},
		{"neither", store.ViewRow{ForeignNetBuyQty: 100, Volume: 10000,
			ForeignHoldQty: 1000000, ListedShares: 50000000}, 1},
		{"zero denominators", store.ViewRow{ForeignNetBuyQty: 1500, Volume: 0,
			ForeignHoldQty: 20000000, ListedShares: 0}, 1},
	}
	for _, tt := range tests {
		if got := buyScore(tt.row); got != tt.want {
			t.Errorf("%s: buyScore = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPerPbrScores(t *testing.T) {
	t.Parallel()
	perTests := []struct {
		per  float64
		want int
	}{{-3, 1}, {0, 1}, {4.9, 5}, {8.5, 4}, {12, 3}, {18, 2}, {25, 1}}
	for _, tt := range perTests {
		if got := perScore(tt.per); got != tt.want {
			t.Errorf("perScore(%v) = %d, want %d", tt.per, got, tt.want)
		}
	}
	pbrTests := []struct {
		pbr  float64
		want int
	}{{-1, 1}, {0, 1}, {0.9, 5}, {1.5, 4}, {2.5, 3}, {3.5, 2}, {6, 1}}
	for _, tt := range pbrTests {
		if got := pbrScore(tt.pbr); got != tt.want {
			t.Errorf("pbrScore(%v) = %d, want %d", tt.pbr, got, tt.want)
		}
	}
}

// seedScoringTicker writes everything the view needs for one ticker.
func seedScoringTicker(t *testing.T, s *store.Store, code string, row store.ViewRow, netIncome int64) {
	t.Helper()
	if _, err := s.InsertTickerIfAbsent(types.Ticker{Code: code, Market: "KOSPI", Name: "테스트" + code}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertEquity(types.EquitySnapshot{
		Code: code, Industry: "전기전자",
		ListedShares: row.ListedShares, ForeignHoldQty: row.ForeignHoldQty,
		ForeignNetBuyQty: row.ForeignNetBuyQty, ProgramNetBuyQty: row.ProgramNetBuyQty,
		RateVsYearHigh: row.RateVsYearHigh, RateVsYearLow: row.RateVsYearLow,
		PER: row.PER, PBR: row.PBR,
	}); err != nil {
		t.Fatal(err)
	}
	bar := types.PriceBar{Code: code, Date: "20250101", Close: row.Close, Volume: row.Volume}
	if err := s.UpsertBar(bar); err != nil {
		t.Fatal(err)
	}
	bar.MA5, bar.MA20, bar.MA60 = row.MA5, row.MA20, row.MA60
	if err := s.UpdateBarMAs(bar); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertRatioRow(types.RatioRow{
		SheetKey:      types.SheetKey{Code: code, Class: types.ClassAnnual, YearMonth: "202412"},
		RevenueGrowth: decimal.NewFromFloat(row.RevenueGrowth),
		OpProfitGrowth: decimal.NewFromFloat(row.OpProfitGrowth),
		ReserveRate:   decimal.NewFromFloat(row.ReserveRate),
		DebtRate:      decimal.NewFromFloat(row.DebtRate),
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertIncomeRow(types.IncomeRow{
		SheetKey:  types.SheetKey{Code: code, Class: types.ClassAnnual, YearMonth: "202412"},
		NetIncome: decimal.NewFromInt(netIncome),
	}); err != nil {
		t.Fatal(err)
	}
}

// strongRow passes every gate: sheet 5, price 5, trend 3, cap 4,
// buy 5, per 4, pbr 5, kpi 0 (single bar) → total 31.
func strongRow() store.ViewRow {
	return store.ViewRow{
		RevenueGrowth: 15, OpProfitGrowth: 12, ReserveRate: 800, DebtRate: 60,
		RateVsYearHigh: -35, RateVsYearLow: 5,
		Close: 9000, MA5: 8800, MA20: 8700, MA60: 8500,
		ListedShares: 50000000, Volume: 10000,
		ForeignNetBuyQty: 1500, ProgramNetBuyQty: 900, ForeignHoldQty: 20000000,
		PER: 8.5, PBR: 0.9,
	}
}

func TestScorerMarksCandidate(t *testing.T) {
	t.Parallel()
	s, err := store.Open(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	seedScoringTicker(t, s, "005930", strongRow(), 100)

	found, err := NewScorer(s, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if found != 1 {
		t.Fatalf("candidates = %d, want 1", found)
	}

	today := marketday.Today()
	cards, err := s.ListScoreCards(today)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 1 {
		t.Fatalf("cards = %d, want 1", len(cards))
	}
	c := cards[0]
	if c.Sheet != 5 || c.Price != 5 || c.Trend != 3 || c.Cap != 4 || c.Buy != 5 || c.PER != 4 || c.PBR != 5 {
		t.Errorf("sub-scores = %+v", c)
	}
	if c.Total != 31 {
		t.Errorf("total = %d, want 31", c.Total)
	}

	ti, err := s.GetTradeInfo("005930", today)
	if err != nil {
		t.Fatal(err)
	}
	if ti == nil || ti.Candidate != types.CandidateYes || ti.Strategy != types.StrategySwing || ti.Note != "swing target" {
		t.Errorf("trade info = %+v, want candidate Y / SW / swing target", ti)
	}
}

func TestScorerGatesSkipWithoutWriting(t *testing.T) {
	t.Parallel()
	s, err := store.Open(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Sheet gate: strong everywhere except the financials.
	weak := strongRow()
	weak.RevenueGrowth, weak.OpProfitGrowth, weak.ReserveRate, weak.DebtRate = 0, 0, 0, 0
	seedScoringTicker(t, s, "000010", weak, -5)

	// Trend gate: close below every average.
	flat := strongRow()
	flat.Close = 8000
	seedScoringTicker(t, s, "000020", flat, 100)

	// Cap gate: micro cap.
	tiny := strongRow()
	tiny.ListedShares = 100000
	seedScoringTicker(t, s, "000030", tiny, 100)

	found, err := NewScorer(s, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if found != 0 {
		t.Errorf("candidates = %d, want 0", found)
	}
	cards, err := s.ListScoreCards(marketday.Today())
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 0 {
		t.Errorf("cards = %d, want none for gated tickers", len(cards))
	}
}

func TestScorerBelowThresholdWritesNothing(t *testing.T) {
	t.Parallel()
	s, err := store.Open(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Passes all gates but stays at the threshold: expensive multiples
	// drop per/pbr to 1 each → total 5+5+3+4+5+1+1 = 24.
	row := strongRow()
	row.PER = 30
	row.PBR = 6
	seedScoringTicker(t, s, "005930", row, 100)

	found, err := NewScorer(s, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if found != 0 {
		t.Errorf("candidates = %d, want 0", found)
	}
	ti, err := s.GetTradeInfo("005930", marketday.Today())
	if err != nil {
		t.Fatal(err)
	}
	if ti != nil {
		t.Errorf("trade info written below threshold: %+v", ti)
	}
}
