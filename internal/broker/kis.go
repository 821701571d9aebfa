package broker

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"kis-swingbot/pkg/marketday"
	"kis-swingbot/pkg/numeric"
	"kis-swingbot/pkg/types"
)

// Typed wrappers over the KIS REST surface. One fixed path and tr_id per
// method; ticker codes are sent with any leading "A" stripped (the KRX
// reference set prefixes codes, the brokerage does not).

const (
	pathQuote      = "/uapi/domestic-stock/v1/quotations/inquire-price"
	pathChart      = "/uapi/domestic-stock/v1/quotations/inquire-daily-itemchartprice"
	pathDailyPrice = "/uapi/domestic-stock/v1/quotations/inquire-daily-price"
	pathBalance    = "/uapi/domestic-stock/v1/trading/inquire-balance"
	pathOrderCash  = "/uapi/domestic-stock/v1/trading/order-cash"

	trQuote      = "FHKST01010100"
	trChart      = "FHKST03010100"
	trDailyPrice = "FHKST01010400"
)

// sheetEndpoints maps each statement kind to its path and tr_id.
var sheetEndpoints = map[types.SheetKind]struct {
	path string
	trID string
}{
	types.SheetBalance: {"/uapi/domestic-stock/v1/finance/balance-sheet", "FHKST66430100"},
	types.SheetIncome:  {"/uapi/domestic-stock/v1/finance/income-statement", "FHKST66430200"},
	types.SheetRatio:   {"/uapi/domestic-stock/v1/finance/financial-ratio", "FHKST66430300"},
	types.SheetProfit:  {"/uapi/domestic-stock/v1/finance/profit-ratio", "FHKST66430400"},
	types.SheetOther:   {"/uapi/domestic-stock/v1/finance/other-major-ratios", "FHKST66430500"},
}

func stripCode(code string) string { return strings.TrimPrefix(code, "A") }

// Quote fetches the live quotation for one ticker and returns the raw
// output map (~50 string fields). The collector consumes the full map;
// trading callers use Spot.
func (c *Client) Quote(ctx context.Context, code string) (map[string]string, error) {
	var out types.Body
	err := c.do(ctx, request{
		client: c.market,
		method: http.MethodGet,
		path:   pathQuote,
		trID:   trQuote,
		query: map[string]string{
			"fid_cond_mrkt_div_code": "J",
			"fid_input_iscd":         stripCode(code),
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", code, err)
	}
	if !out.OK() {
		return nil, fmt.Errorf("quote %s: %w", code, &RejectError{RtCd: out.RtCd, Msg1: out.Msg1})
	}
	if len(out.Output) == 0 {
		return nil, fmt.Errorf("quote %s: %w", code, ErrDataMissing)
	}
	return out.Output, nil
}

// Spot is the intraday price view of Quote. Open may legitimately be
// zero before the session opens; callers fall back to the latest daily
// price row in that case.
func (c *Client) Spot(ctx context.Context, code string) (types.SpotQuote, error) {
	out, err := c.Quote(ctx, code)
	if err != nil {
		return types.SpotQuote{}, err
	}
	return types.SpotQuote{
		Current: numeric.Int(out["stck_prpr"]),
		Open:    numeric.Int(out["stck_oprc"]),
		High:    numeric.Int(out["stck_hgpr"]),
		Low:     numeric.Int(out["stck_lwpr"]),
	}, nil
}

// Sheets fetches one financial-statement table for a ticker. cycle is
// the statement class: "0" annual, "1" quarterly. Rows are newest-first.
func (c *Client) Sheets(ctx context.Context, kind types.SheetKind, code string, cycle types.SheetClass) ([]map[string]string, error) {
	ep, ok := sheetEndpoints[kind]
	if !ok {
		return nil, fmt.Errorf("sheets %s: unknown kind %q: %w", code, kind, ErrArgumentInvalid)
	}
	var out types.SheetData
	err := c.do(ctx, request{
		client: c.market,
		method: http.MethodGet,
		path:   ep.path,
		trID:   ep.trID,
		query: map[string]string{
			"fid_cond_mrkt_div_code": "J",
			"fid_input_iscd":         stripCode(code),
			"FID_DIV_CLS_CODE":       string(cycle),
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("sheets %s/%s: %w", kind, code, err)
	}
	if !out.OK() {
		return nil, fmt.Errorf("sheets %s/%s: %w", kind, code, &RejectError{RtCd: out.RtCd, Msg1: out.Msg1})
	}
	return out.Output, nil
}

// ChartPage fetches one page (≤100 bars) of the adjusted daily chart
// between from and to, both YYYYMMDD inclusive. Bars are newest-first.
func (c *Client) ChartPage(ctx context.Context, code, from, to string) (*types.IndexData, error) {
	var out types.IndexData
	err := c.do(ctx, request{
		client: c.market,
		method: http.MethodGet,
		path:   pathChart,
		trID:   trChart,
		query: map[string]string{
			"fid_cond_mrkt_div_code": "J",
			"fid_input_iscd":         stripCode(code),
			"fid_input_date_1":       from,
			"fid_input_date_2":       to,
			"fid_period_div_code":    "D",
			"fid_org_adj_prc":        "1",
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("chart %s [%s,%s]: %w", code, from, to, err)
	}
	if !out.OK() {
		return nil, fmt.Errorf("chart %s [%s,%s]: %w", code, from, to, &RejectError{RtCd: out.RtCd, Msg1: out.Msg1})
	}
	return &out, nil
}

// Charts fetches the daily bar history for a ticker. With todayOnly it
// issues a single one-day page; otherwise four 100-day pages covering
// the last 400 calendar days, fetched concurrently (the shared pacer
// still serializes the wire calls). Rows come back newest-first.
func (c *Client) Charts(ctx context.Context, code string, todayOnly bool) ([]map[string]string, error) {
	if todayOnly {
		today := marketday.Today()
		page, err := c.ChartPage(ctx, code, today, today)
		if err != nil {
			return nil, err
		}
		return page.Output2, nil
	}

	pages := make([][]map[string]string, 4)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			from := marketday.DaysAgo((i+1)*100 - 1)
			to := marketday.DaysAgo(i * 100)
			page, err := c.ChartPage(gctx, code, from, to)
			if err != nil {
				return err
			}
			pages[i] = page.Output2
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []map[string]string
	for _, page := range pages {
		rows = append(rows, page...)
	}
	return rows, nil
}

// DailyPrices fetches the recent unadjusted daily price rows for a
// ticker, newest-first. The buy task uses the first row's open as the
// session-open fallback when the quote reports zero.
func (c *Client) DailyPrices(ctx context.Context, code string) ([]map[string]string, error) {
	var out types.SheetData
	err := c.do(ctx, request{
		client: c.market,
		method: http.MethodGet,
		path:   pathDailyPrice,
		trID:   trDailyPrice,
		query: map[string]string{
			"fid_cond_mrkt_div_code": "J",
			"fid_input_iscd":         stripCode(code),
			"FID_PERIOD_DIV_CODE":    "D",
			"FID_ORG_ADJ_PRC":        "0",
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("daily prices %s: %w", code, err)
	}
	if !out.OK() {
		return nil, fmt.Errorf("daily prices %s: %w", code, &RejectError{RtCd: out.RtCd, Msg1: out.Msg1})
	}
	return out.Output, nil
}

// balanceTR returns the inquire-balance tr_id for the active mode.
func (c *Client) balanceTR() string {
	if c.real {
		return "TTTC8434R"
	}
	return "VTTC8434R"
}

// orderTR returns the order-cash tr_id for the active mode and side.
func (c *Client) orderTR(side types.Side) string {
	if c.real {
		if side == types.Buy {
			return "TTTC0012U"
		}
		return "TTTC0011U"
	}
	if side == types.Buy {
		return "VTTC0012U"
	}
	return "VTTC0011U"
}

// Balance fetches the account's positions and cash totals.
func (c *Client) Balance(ctx context.Context) (*types.AccountBalance, error) {
	var out types.TwoArrData
	err := c.do(ctx, request{
		client: c.trade,
		method: http.MethodGet,
		path:   pathBalance,
		trID:   c.balanceTR(),
		query: map[string]string{
			"CANO":                  c.account,
			"ACNT_PRDT_CD":          c.product,
			"AFHR_FLPR_YN":          "N",
			"OFL_YN":                "",
			"INQR_DVSN":             "01",
			"UNPR_DVSN":             "01",
			"FUND_STTL_ICLD_YN":     "N",
			"FNCG_AMT_AUTO_RDPT_YN": "N",
			"PRCS_DVSN":             "01",
			"CTX_AREA_FK100":        "",
			"CTX_AREA_NK100":        "",
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	if !out.OK() {
		return nil, fmt.Errorf("balance: %w", &RejectError{RtCd: out.RtCd, Msg1: out.Msg1})
	}

	bal := &types.AccountBalance{}
	for _, row := range out.Output1 {
		bal.Holdings = append(bal.Holdings, types.Holding{
			Code:           row["pdno"],
			Name:           row["prdt_name"],
			PurchaseAmount: numeric.Float(row["pchs_amt"]),
			AvgPrice:       numeric.Float(row["pchs_avg_pric"]),
			Quantity:       numeric.Float(row["hldg_qty"]),
		})
	}
	if len(out.Output2) > 0 {
		bal.DepositTotal = numeric.Int(out.Output2[0]["dnca_tot_amt"])
		bal.SettledAmount = numeric.Int(out.Output2[0]["prvs_rcdl_excc_amt"])
	}
	return bal, nil
}

// Order places a limit cash order (ORD_DVSN "00"). The parsed result is
// returned whether or not the broker accepted; rt_cd "0" means accepted
// and carries the order number, anything else is a business rejection
// the caller branches on.
func (c *Client) Order(ctx context.Context, side types.Side, code string, qty, price int) (*types.OrderResult, error) {
	if qty <= 0 || price <= 0 {
		return nil, fmt.Errorf("order %s %s: qty=%d price=%d: %w", side, code, qty, price, ErrArgumentInvalid)
	}
	var out types.Body
	err := c.do(ctx, request{
		client: c.trade,
		method: http.MethodPost,
		path:   pathOrderCash,
		trID:   c.orderTR(side),
		body: map[string]string{
			"CANO":         c.account,
			"ACNT_PRDT_CD": c.product,
			"PDNO":         stripCode(code),
			"ORD_DVSN":     "00",
			"ORD_QTY":      strconv.Itoa(qty),
			"ORD_UNPR":     strconv.Itoa(price),
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("order %s %s: %w", side, code, err)
	}
	return &types.OrderResult{
		RtCd:    out.RtCd,
		Msg:     out.Msg1,
		OrderNo: out.Output["ODNO"],
	}, nil
}
