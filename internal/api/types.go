package api

import (
	"time"

	"kis-swingbot/internal/config"
)

// StatusResponse is the complete dashboard state: scoring results with
// their rank, positions still being accumulated, today's portfolio,
// and the trading settings in effect.
type StatusResponse struct {
	Timestamp time.Time `json:"timestamp"`

	Scoring   []ScoringStatus   `json:"scoring"`
	Buying    []BuyingStatus    `json:"buying"`
	Portfolio []PortfolioStatus `json:"portfolio"`

	Totals   PortfolioTotals `json:"totals"`
	Settings SettingsSummary `json:"settings"`
}

// ScoringStatus is one ticker's latest score card, ranked by total.
type ScoringStatus struct {
	Rank    int    `json:"rank"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Date    string `json:"date"`
	Sheet   int    `json:"sheet"`
	Trend   int    `json:"trend"`
	Price   int    `json:"price"`
	KPI     int    `json:"kpi"`
	Buy     int    `json:"buy"`
	Cap     int    `json:"cap"`
	PER     int    `json:"per"`
	PBR     int    `json:"pbr"`
	Total   int    `json:"total"`
	Current int    `json:"current"` // latest observed price, 0 when never quoted
}

// BuyingStatus is one ticker still below its accumulation target:
// the buy loop will keep adding until TotalQty reaches TargetQty.
type BuyingStatus struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	TotalQty  int     `json:"total_qty"`
	AvgPrice  float64 `json:"avg_price"`
	TargetQty int     `json:"target_qty"`
	Progress  float64 `json:"progress"` // TotalQty/TargetQty in percent
	FirstBuy  string  `json:"first_buy"`
}

// PortfolioStatus is one position held today.
type PortfolioStatus struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Qty        int     `json:"qty"`
	AvgPrice   int     `json:"avg_price"`
	Current    int     `json:"current"`
	EvalAmount int     `json:"eval_amount"`
	PLAmount   int     `json:"pl_amount"`
	PLRate     float64 `json:"pl_rate"`
	FirstBuy   string  `json:"first_buy"`
}

// PortfolioTotals aggregates today's positions.
type PortfolioTotals struct {
	EvalAmount int     `json:"eval_amount"`
	PLAmount   int     `json:"pl_amount"`
	PLRate     float64 `json:"pl_rate"`
}

// SettingsSummary echoes the trading knobs so the dashboard shows what
// the bot is actually running with. Credentials never appear here.
type SettingsSummary struct {
	Mode          string  `json:"mode"`
	ContractRate  float64 `json:"contract_rate"`
	LimitPrice    float64 `json:"limit_price"`
	LimitCnt      int     `json:"limit_cnt"`
	BuyEnabled    string  `json:"buy_enabled"`
	UpRate        float64 `json:"up_rate"`
	DownRate      float64 `json:"down_rate"`
	UseLossCut    string  `json:"use_loss_cut"`
	HoldRate      float64 `json:"hold_rate"`
	TestForceBuy  string  `json:"test_force_buy"`
	TestForceSell string  `json:"test_force_sell"`
}

// NewSettingsSummary builds the settings echo from config.
func NewSettingsSummary(cfg config.Config) SettingsSummary {
	return SettingsSummary{
		Mode:          cfg.Broker.Mode,
		ContractRate:  cfg.Trading.ContractRate,
		LimitPrice:    cfg.Trading.LimitPrice,
		LimitCnt:      cfg.Trading.LimitCnt,
		BuyEnabled:    cfg.Trading.Buy.UseYN,
		UpRate:        cfg.Trading.Sell.UpRate,
		DownRate:      cfg.Trading.Sell.DownRate,
		UseLossCut:    cfg.Trading.Sell.UseLossCut,
		HoldRate:      cfg.Trading.Sell.HoldRate,
		TestForceBuy:  cfg.Trading.Buy.TestForceBuy,
		TestForceSell: cfg.Trading.Sell.TestForceSell,
	}
}
