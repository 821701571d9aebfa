package trading

import (
	"context"

	"kis-swingbot/pkg/marketday"
	"kis-swingbot/pkg/types"
)

const historySell = "SS"

// RunSell executes one sell tick over today's held positions. Each
// position is evaluated independently; a failure logs and moves on.
func (t *Trader) RunSell(ctx context.Context) error {
	date := marketday.Today()
	statuses, err := t.store.ListStatuses(date, types.BuyStop)
	if err != nil {
		return err
	}
	for _, st := range statuses {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := t.sellOne(ctx, st, date); err != nil {
			t.log.Warn().Err(err).Str("code", st.Code).Msg("sell evaluation failed")
		}
	}
	return nil
}

// sellOne decides whether one position exits this tick. Exits are
// take-profit with a pivot-stop override, or loss-cut when enabled; a
// position still under its accumulation target keeps accumulating.
func (t *Trader) sellOne(ctx context.Context, st types.TradeStatus, date string) error {
	unlock, ok := t.tryLockTicker(st.Code)
	if !ok {
		t.log.Debug().Str("code", st.Code).Msg("ticker busy, sell skipped")
		return nil
	}
	defer unlock()

	spot, err := t.broker.Spot(ctx, st.Code)
	if err != nil {
		return err
	}
	if spot.Current == 0 {
		return nil
	}
	if err := t.store.UpdateTradeInfoPrices(st.Code, date, spot.Current, spot.Open); err != nil {
		return err
	}

	profit := 0.0
	if st.Price != 0 {
		profit = round2((float64(spot.Current) - float64(st.Price)) / float64(st.Price) * 100)
	}

	if t.cfg.Sell.TestForceSell != "Y" {
		// Keep accumulating while the position is below its target size.
		if float64(st.Qty)*float64(st.Price) < t.cfg.LimitPrice*t.cfg.Sell.HoldRate {
			return nil
		}

		var stop float64
		if ti, err := t.store.GetTradeInfo(st.Code, date); err != nil {
			return err
		} else if ti != nil {
			if ti.S1 > 0 {
				stop = float64(ti.S1)
			} else {
				stop = meanPositive(ti.S2, ti.S3)
			}
		}

		// Misconfigured thresholds must never force an exit.
		if (profit < 0 && t.cfg.Sell.DownRate > 0) || (profit > 0 && t.cfg.Sell.UpRate < 0) {
			return nil
		}

		takeProfit := profit >= t.cfg.Sell.UpRate && (stop == 0 || float64(spot.Current) < stop)
		lossCut := t.cfg.Sell.UseLossCut == "Y" && profit <= t.cfg.Sell.DownRate
		if !takeProfit && !lossCut {
			return nil
		}
	}

	res, err := t.broker.Order(ctx, types.Sell, st.Code, st.Qty, spot.Current)
	if err != nil {
		return err
	}
	return t.recordFill(ctx, res, types.SellStop, historySell, st.Code, st.Qty, spot.Current, "swing sell")
}
