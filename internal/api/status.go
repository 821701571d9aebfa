package api

import (
	"math"
	"time"

	"kis-swingbot/internal/config"
	"kis-swingbot/internal/store"
	"kis-swingbot/pkg/marketday"
	"kis-swingbot/pkg/types"
)

// BuildStatus aggregates today's scoring, accumulation progress, and
// portfolio state from the store into one dashboard response.
func BuildStatus(s *store.Store, cfg config.Config) (StatusResponse, error) {
	date := marketday.Today()

	scoring, err := buildScoring(s, date)
	if err != nil {
		return StatusResponse{}, err
	}
	buying, firstBuys, err := buildBuying(s, cfg.Trading.LimitPrice)
	if err != nil {
		return StatusResponse{}, err
	}
	portfolio, totals, err := buildPortfolio(s, date, firstBuys)
	if err != nil {
		return StatusResponse{}, err
	}

	return StatusResponse{
		Timestamp: time.Now(),
		Scoring:   scoring,
		Buying:    buying,
		Portfolio: portfolio,
		Totals:    totals,
		Settings:  NewSettingsSummary(cfg),
	}, nil
}

func buildScoring(s *store.Store, date string) ([]ScoringStatus, error) {
	cards, err := s.ListScoreCards(date)
	if err != nil {
		return nil, err
	}
	out := make([]ScoringStatus, 0, len(cards))
	for i, card := range cards {
		name, err := s.TickerName(card.Code)
		if err != nil {
			return nil, err
		}
		current := 0
		if ti, err := s.LatestTradeInfo(card.Code); err != nil {
			return nil, err
		} else if ti != nil {
			current = ti.Current
		}
		out = append(out, ScoringStatus{
			Rank: i + 1, Code: card.Code, Name: name, Date: card.Date,
			Sheet: card.Sheet, Trend: card.Trend, Price: card.Price,
			KPI: card.KPI, Buy: card.Buy, Cap: card.Cap,
			PER: card.PER, PBR: card.PBR, Total: card.Total,
			Current: current,
		})
	}
	return out, nil
}

// buildBuying folds the buy history into per-ticker accumulation
// progress. A ticker appears while its bought quantity is still below
// the target implied by the accumulation cap. The per-code first buy
// dates are returned for reuse in the portfolio view.
func buildBuying(s *store.Store, limitPrice float64) ([]BuyingStatus, map[string]string, error) {
	history, err := s.ListHistoryByType("B")
	if err != nil {
		return nil, nil, err
	}

	type acc struct {
		qty      int
		cost     float64
		firstBuy string
	}
	sums := make(map[string]*acc)
	var order []string // history is code-ordered; keep that order
	for _, h := range history {
		a, ok := sums[h.Code]
		if !ok {
			a = &acc{firstBuy: h.Date}
			sums[h.Code] = a
			order = append(order, h.Code)
		}
		a.qty += h.Qty
		a.cost += float64(h.Qty) * float64(h.Price)
	}

	firstBuys := make(map[string]string, len(sums))
	var out []BuyingStatus
	for _, code := range order {
		a := sums[code]
		firstBuys[code] = a.firstBuy
		if a.qty == 0 {
			continue
		}
		avg := a.cost / float64(a.qty)
		target := int(limitPrice / avg)
		if a.qty >= target {
			continue
		}
		name, err := s.TickerName(code)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, BuyingStatus{
			Code:      code,
			Name:      name,
			TotalQty:  a.qty,
			AvgPrice:  round2(avg),
			TargetQty: target,
			Progress:  round2(float64(a.qty) / float64(target) * 100),
			FirstBuy:  a.firstBuy,
		})
	}
	return out, firstBuys, nil
}

func buildPortfolio(s *store.Store, date string, firstBuys map[string]string) ([]PortfolioStatus, PortfolioTotals, error) {
	statuses, err := s.ListStatuses(date, types.BuyStop)
	if err != nil {
		return nil, PortfolioTotals{}, err
	}

	var out []PortfolioStatus
	var totals PortfolioTotals
	for _, st := range statuses {
		name, err := s.TickerName(st.Code)
		if err != nil {
			return nil, PortfolioTotals{}, err
		}
		current := 0
		if ti, err := s.LatestTradeInfo(st.Code); err != nil {
			return nil, PortfolioTotals{}, err
		} else if ti != nil {
			current = ti.Current
		}

		eval := current * st.Qty
		pl := (current - st.Price) * st.Qty
		rate := 0.0
		if st.Price != 0 {
			rate = round2(float64(current-st.Price) / float64(st.Price) * 100)
		}
		out = append(out, PortfolioStatus{
			Code: st.Code, Name: name, Qty: st.Qty, AvgPrice: st.Price,
			Current: current, EvalAmount: eval, PLAmount: pl, PLRate: rate,
			FirstBuy: firstBuys[st.Code],
		})
		totals.EvalAmount += eval
		totals.PLAmount += pl
	}
	if cost := totals.EvalAmount - totals.PLAmount; cost > 0 {
		totals.PLRate = round2(float64(totals.PLAmount) / float64(cost) * 100)
	}
	return out, totals, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
