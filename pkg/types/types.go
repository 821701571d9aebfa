// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the bot — wire envelopes for the
// brokerage REST API, order/trade enums, and the persisted market entities.
// It has no dependencies on internal packages, so it can be imported by any
// layer.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————
//
// The wire values ("B"/"S", "BS"/"SS", "0"/"1", "Y"/"N") are fixed by the
// brokerage API and the persisted schema; the named constants exist so the
// rest of the code never spells them inline.

// Side is the direction of a cash order.
type Side string

const (
	Buy  Side = "B"
	Sell Side = "S"
)

// Direction is the per-day position state recorded in TradeStatus.
type Direction string

const (
	BuyStop  Direction = "BS" // bought/held today, no further buys
	SellStop Direction = "SS" // sold today, no further sells
)

// SheetKind selects one of the five financial-statement endpoints.
type SheetKind string

const (
	SheetBalance SheetKind = "B"
	SheetIncome  SheetKind = "I"
	SheetRatio   SheetKind = "F"
	SheetProfit  SheetKind = "P"
	SheetOther   SheetKind = "E"
)

// Valid reports whether k names a known sheet endpoint.
func (k SheetKind) Valid() bool {
	switch k {
	case SheetBalance, SheetIncome, SheetRatio, SheetProfit, SheetOther:
		return true
	}
	return false
}

// SheetClass is the statement cycle: annual or quarterly.
type SheetClass string

const (
	ClassAnnual  SheetClass = "0"
	ClassQuarter SheetClass = "1"
)

// Market tags as stored on tickers.
const (
	MarketKOSPI  = "KOSPI"
	MarketKOSDAQ = "KOSDAQ"
)

// StrategySwing tags TradeInfo rows produced by the swing pipeline.
const StrategySwing = "SW"

// Candidate flag values on TradeInfo.
const (
	CandidateYes = "Y"
	CandidateNo  = "N"
)

// ————————————————————————————————————————————————————————————————————————
// Wire envelopes
// ————————————————————————————————————————————————————————————————————————
// Every brokerage response is one of four shapes sharing a {rt_cd, msg1}
// header. All leaf values arrive as strings regardless of their logical
// type; pkg/numeric coerces them at the consumption site.

// Body is the single-object envelope: quotes, order results.
type Body struct {
	RtCd   string            `json:"rt_cd"`
	Msg1   string            `json:"msg1"`
	Output map[string]string `json:"output"`
}

// OK reports broker-level success.
func (b *Body) OK() bool { return b.RtCd == "0" }

// SheetData is the array envelope: financial sheets, daily price series.
type SheetData struct {
	RtCd   string              `json:"rt_cd"`
	Msg1   string              `json:"msg1"`
	Output []map[string]string `json:"output"`
}

func (s *SheetData) OK() bool { return s.RtCd == "0" }

// TwoArrData is the dual-array envelope: account balance (positions + totals).
type TwoArrData struct {
	RtCd    string              `json:"rt_cd"`
	Msg1    string              `json:"msg1"`
	Output1 []map[string]string `json:"output1"`
	Output2 []map[string]string `json:"output2"`
}

func (t *TwoArrData) OK() bool { return t.RtCd == "0" }

// IndexData is the metadata-plus-array envelope: daily chart pages.
type IndexData struct {
	RtCd    string              `json:"rt_cd"`
	Msg1    string              `json:"msg1"`
	Output1 map[string]string   `json:"output1"`
	Output2 []map[string]string `json:"output2"`
}

func (i *IndexData) OK() bool { return i.RtCd == "0" }

// ————————————————————————————————————————————————————————————————————————
// Adapter results
// ————————————————————————————————————————————————————————————————————————

// SpotQuote is the intraday price view the trading tasks consume.
// Open may be zero before the session opens; callers fall back to the
// latest daily-price row in that case.
type SpotQuote struct {
	Current int
	Open    int
	High    int
	Low     int
}

// Holding is one position row from the account-balance response.
type Holding struct {
	Code           string  // pdno
	Name           string  // prdt_name
	PurchaseAmount float64 // pchs_amt
	AvgPrice       float64 // pchs_avg_pric
	Quantity       float64 // hldg_qty
}

// AccountBalance is the typed inquire-balance result.
type AccountBalance struct {
	Holdings []Holding
	// Account totals from output2[0]; both zero when the broker returned
	// no totals row.
	DepositTotal  int // dnca_tot_amt
	SettledAmount int // prvs_rcdl_excc_amt
}

// EffectiveCash is the amount available to open new positions today:
// the settled amount when positive, otherwise the raw deposit total.
func (b *AccountBalance) EffectiveCash() int {
	if b.SettledAmount > 0 {
		return b.SettledAmount
	}
	return b.DepositTotal
}

// OrderResult is the parsed order-cash response. RtCd "0" means accepted;
// anything else is a business rejection explained by Msg.
type OrderResult struct {
	RtCd    string
	Msg     string
	OrderNo string // output.ODNO, set only on acceptance
}

// Accepted reports whether the broker took the order.
func (o *OrderResult) Accepted() bool { return o.RtCd == "0" }

// ————————————————————————————————————————————————————————————————————————
// Persisted entities
// ————————————————————————————————————————————————————————————————————————

// Ticker is one listed equity from the exchange reference set.
type Ticker struct {
	Code      string // 6-char short code, PK
	Market    string // KOSPI or KOSDAQ
	Name      string // short Korean name
	CorpName  string // English/corporate name
	Sector    string
	CreatedAt time.Time
}

// EquitySnapshot is the daily per-ticker fundamentals/supply-demand view,
// overwritten on every ingest. Field groups follow the quote endpoint's
// output: price references, share structure, foreign/program flow, yearly
// and 52-week extremes, and valuation multiples.
type EquitySnapshot struct {
	Code      string
	Industry  string // bstp_kor_isnm
	StatusCode string // iscd_stat_cls_code

	RefPrice         int     // stck_sdpr
	WeightedAvgPrice float64 // wghn_avrg_stck_prc
	CeilingPrice     int     // stck_mxpr
	FloorPrice       int     // stck_llam
	SubstitutePrice  int     // stck_sspr
	FacePrice        float64 // stck_fcam
	QuoteUnit        int     // aspr_unit
	DealQtyUnit      int     // hts_deal_qty_unit_val
	RestrictionWidth int     // rstc_wdth_prc

	ListedShares int64           // lstn_stcn
	Capital      decimal.Decimal // cpfn
	MarketCap    decimal.Decimal // hts_avls
	TurnoverRate float64         // vol_tnrt

	ForeignExhaustRate float64 // hts_frgn_ehrt
	ForeignHoldQty     int64   // frgn_hldn_qty
	ForeignNetBuyQty   int64   // frgn_ntby_qty
	ProgramNetBuyQty   int64   // pgtr_ntby_qty

	D250High       int     // d250_hgpr
	D250HighDate   string  // d250_hgpr_date
	D250HighRate   float64 // d250_hgpr_vrss_prpr_rate
	D250Low        int
	D250LowDate    string
	D250LowRate    float64
	YearHigh       int     // stck_dryy_hgpr
	YearHighDate   string  // dryy_hgpr_date
	RateVsYearHigh float64 // dryy_hgpr_vrss_prpr_rate
	YearLow        int
	YearLowDate    string
	RateVsYearLow  float64
	W52High        int     // w52_hgpr
	W52HighDate    string
	W52HighRate    float64 // w52_hgpr_vrss_prpr_ctrt
	W52Low         int
	W52LowDate     string
	W52LowRate     float64

	LoanRemainRate   float64 // whol_loan_rmnd_rate
	ShortSaleAllowed string  // ssts_yn
	LastShortSaleQty int64   // last_ssts_cntg_qty
	FaceCurrency     string  // fcam_cnnm
	CapitalCurrency  string  // cpfn_cnnm

	PER float64
	EPS float64
	PBR float64
	BPS float64
}

// PriceBar is one daily OHLCV record. Series reads are newest-first.
type PriceBar struct {
	Code     string
	Date     string // session date YYYYMMDD
	Open     int
	High     int
	Low      int
	Close    int
	Volume   int64           // acml_vol
	Turnover decimal.Decimal // acml_tr_pbmn, 23 digits / 2 fractional
	PrevDelta int            // prdy_vrss
	PrevSign  string         // prdy_vrss_sign

	MA5   float64
	MA10  float64
	MA20  float64
	MA30  float64
	MA60  float64
	MA120 float64
	MA200 float64
	MA240 float64
}

// SheetKey is the composite identity of every financial-statement row.
type SheetKey struct {
	Code      string
	Class     SheetClass
	YearMonth string // stac_yymm
}

// BalanceRow is one balance-sheet filing.
type BalanceRow struct {
	SheetKey
	CurrentAssets      decimal.Decimal // cras
	FixedAssets        decimal.Decimal // fxas
	TotalAssets        decimal.Decimal // total_aset
	CurrentLiabilities decimal.Decimal // flow_lblt
	FixedLiabilities   decimal.Decimal // fix_lblt
	TotalLiabilities   decimal.Decimal // total_lblt
	Capital            decimal.Decimal // cpfn
	CapitalSurplus     decimal.Decimal // cfp_surp
	RetainedEarnings   decimal.Decimal // prfi_surp
	TotalEquity        decimal.Decimal // total_cptl
}

// IncomeRow is one income-statement filing.
type IncomeRow struct {
	SheetKey
	Revenue         decimal.Decimal // sale_account
	CostOfSales     decimal.Decimal // sale_cost
	GrossProfit     decimal.Decimal // sale_totl_prfi
	Depreciation    decimal.Decimal // depr_cost
	SGA             decimal.Decimal // sell_mang
	OperatingProfit decimal.Decimal // bsop_prti
	NonOpIncome     decimal.Decimal // bsop_non_ernn
	NonOpExpense    decimal.Decimal // bsop_non_expn
	OrdinaryProfit  decimal.Decimal // op_prfi
	ExtraGain       decimal.Decimal // spec_prfi
	ExtraLoss       decimal.Decimal // spec_loss
	NetIncome       decimal.Decimal // thtr_ntin
}

// RatioRow is one financial-ratio filing; the scoring view reads these.
type RatioRow struct {
	SheetKey
	RevenueGrowth   decimal.Decimal // grs
	OpProfitGrowth  decimal.Decimal // bsop_prfi_inrt
	NetIncomeGrowth decimal.Decimal // ntin_inrt
	ROE             decimal.Decimal // roe_val
	EPS             decimal.Decimal
	SPS             decimal.Decimal
	BPS             decimal.Decimal
	ReserveRate     decimal.Decimal // rsrv_rate
	DebtRate        decimal.Decimal // lblt_rate
}

// ProfitRow is one profitability-ratio filing.
type ProfitRow struct {
	SheetKey
	ReturnOnCapital decimal.Decimal // cptl_ntin_rate
	ReturnOnEquity  decimal.Decimal // self_cptl_ntin_inrt
	NetMargin       decimal.Decimal // sale_ntin_rate
	GrossMargin     decimal.Decimal // sale_totl_rate
}

// OtherRow is one other-major-ratios filing.
type OtherRow struct {
	SheetKey
	EBITDA   decimal.Decimal
	EVEBITDA decimal.Decimal // ev_ebitda
}

// ScoreCard is the per-ticker daily scoring result. Only tickers whose
// total clears the candidate threshold get a card at all.
type ScoreCard struct {
	Code  string
	Date  string
	Sheet int
	Trend int
	Price int
	KPI   int
	Buy   int
	Cap   int
	PER   int
	PBR   int
	Total int
}

// TradeInfo carries the per-day pivot levels and the candidate flag that
// bridges the scoring run to the buy loop.
type TradeInfo struct {
	Code      string
	Date      string
	Pivot     int
	R1        int
	R2        int
	R3        int
	S1        int
	S2        int
	S3        int
	Open      int // today's open, set once known
	PrevClose int
	Current   int
	Strategy  string // "SW"
	Candidate string // "Y", "N", or "" before scoring
	Note      string
}

// TradeStatus is today's position state for one ticker: at most one row
// per (code, date). The order number is fixed at creation; direction,
// quantity and price move with the latest action.
type TradeStatus struct {
	Code      string
	Date      string
	Direction Direction
	OrderNo   string
	Qty       int
	Price     int
	Time      string // HHMMSS of the last transition
}

// TradeHistory is one append-only trade log line.
type TradeHistory struct {
	Code  string
	Date  string
	Time  string // HHMMSS
	Type  string // "B" buy submitted, "SS" sell filled
	Qty   int
	Price int
	Note  string
}
