package collector

import (
	"testing"

	"github.com/shopspring/decimal"

	"kis-swingbot/pkg/types"
)

func TestBarFromChartRow(t *testing.T) {
	t.Parallel()
	bar := barFromChartRow("005930", map[string]string{
		"stck_bsop_date": "20250822",
		"stck_clpr":      "70,000",
		"stck_oprc":      "69500",
		"stck_hgpr":      "70200",
		"stck_lwpr":      "69100",
		"acml_vol":       "12345678",
		"acml_tr_pbmn":   "864197532000.00",
		"prdy_vrss":      "-500",
		"prdy_vrss_sign": "5",
	})
	if bar.Code != "005930" || bar.Date != "20250822" {
		t.Errorf("key = %s/%s", bar.Code, bar.Date)
	}
	if bar.Close != 70000 {
		t.Errorf("close = %d, comma must be tolerated", bar.Close)
	}
	if bar.PrevDelta != -500 || bar.PrevSign != "5" {
		t.Errorf("delta = %d sign = %s", bar.PrevDelta, bar.PrevSign)
	}
	if !bar.Turnover.Equal(decimal.RequireFromString("864197532000.00")) {
		t.Errorf("turnover = %s", bar.Turnover)
	}
}

func TestSnapshotFromQuote(t *testing.T) {
	t.Parallel()
	snap := snapshotFromQuote("005930", map[string]string{
		"bstp_kor_isnm":            "전기전자",
		"iscd_stat_cls_code":       "55",
		"lstn_stcn":                "5,969,782,550",
		"frgn_ntby_qty":            "123456",
		"pgtr_ntby_qty":            "-4567",
		"stck_dryy_hgpr":           "88800",
		"dryy_hgpr_vrss_prpr_rate": "-21.17",
		"per":                      "12.34",
		"pbr":                      "1.05",
		"hts_avls":                 "4178848",
	})
	if snap.Industry != "전기전자" || snap.StatusCode != "55" {
		t.Errorf("identity fields = %+v", snap)
	}
	if snap.ListedShares != 5969782550 {
		t.Errorf("listed shares = %d", snap.ListedShares)
	}
	if snap.ProgramNetBuyQty != -4567 {
		t.Errorf("program net buy = %d", snap.ProgramNetBuyQty)
	}
	if snap.YearHigh != 88800 || snap.RateVsYearHigh != -21.17 {
		t.Errorf("year high = %d rate = %v", snap.YearHigh, snap.RateVsYearHigh)
	}
	if snap.PER != 12.34 || snap.PBR != 1.05 {
		t.Errorf("multiples = %v / %v", snap.PER, snap.PBR)
	}
	// Absent keys coerce to zero rather than erroring.
	if snap.W52High != 0 || snap.ForeignHoldQty != 0 {
		t.Errorf("missing fields must be zero: %+v", snap)
	}
}

func TestRatioRowFrom(t *testing.T) {
	t.Parallel()
	key := types.SheetKey{Code: "005930", Class: types.ClassAnnual, YearMonth: "202412"}
	row := ratioRowFrom(key, map[string]string{
		"grs":            "10.99",
		"bsop_prfi_inrt": "-3.50",
		"rsrv_rate":      "34567.89",
		"lblt_rate":      "26.54",
	})
	if row.SheetKey != key {
		t.Errorf("key = %+v", row.SheetKey)
	}
	if !row.RevenueGrowth.Equal(decimal.RequireFromString("10.99")) {
		t.Errorf("revenue growth = %s", row.RevenueGrowth)
	}
	if !row.OpProfitGrowth.Equal(decimal.RequireFromString("-3.50")) {
		t.Errorf("op growth = %s", row.OpProfitGrowth)
	}
	if !row.DebtRate.Equal(decimal.RequireFromString("26.54")) {
		t.Errorf("debt rate = %s", row.DebtRate)
	}
}
