package trading

import (
	"context"

	"kis-swingbot/pkg/marketday"
	"kis-swingbot/pkg/numeric"
	"kis-swingbot/pkg/types"
)

const historyBuy = "B"

// RunBuy executes one buy tick: reconcile the account, then walk
// today's candidates and place a limit buy for each one trading below
// its pivot-support target. Per-candidate failures log and continue.
func (t *Trader) RunBuy(ctx context.Context) error {
	bal, err := t.broker.Balance(ctx)
	if err != nil {
		return err
	}
	cash := bal.EffectiveCash()
	if cash == 0 {
		t.log.Debug().Msg("no cash, buy tick skipped")
		return nil
	}
	if err := t.reconcile(ctx, bal); err != nil {
		return err
	}
	if t.cfg.Buy.UseYN != "Y" {
		return nil
	}

	held := make(map[string]bool, len(bal.Holdings))
	heldCount := 0
	for _, h := range bal.Holdings {
		if h.Quantity > 0 {
			held[h.Code] = true
			heldCount++
		}
	}

	date := marketday.Today()
	candidates, err := t.store.ListCandidates(date)
	if err != nil {
		return err
	}
	for _, cand := range candidates {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := t.buyOne(ctx, cand.Code, date, cash, heldCount, held[cand.Code]); err != nil {
			t.log.Warn().Err(err).Str("code", cand.Code).Msg("buy candidate failed")
		}
	}
	return nil
}

// buyOne evaluates a single candidate. Adding to an existing position
// is allowed past the holdings limit; opening a new one is not.
func (t *Trader) buyOne(ctx context.Context, code, date string, cash, heldCount int, alreadyHeld bool) error {
	unlock, ok := t.tryLockTicker(code)
	if !ok {
		t.log.Debug().Str("code", code).Msg("ticker busy, buy skipped")
		return nil
	}
	defer unlock()

	if heldCount >= t.cfg.LimitCnt && !alreadyHeld {
		return nil
	}

	spot, err := t.broker.Spot(ctx, code)
	if err != nil {
		return err
	}
	if spot.Current == 0 {
		return nil
	}
	open := spot.Open
	if open == 0 {
		// Before the open the quote reports zero; the latest daily
		// price row still carries the last session's figure.
		rows, err := t.broker.DailyPrices(ctx, code)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			open = numeric.Int(rows[0]["stck_oprc"])
		}
	}

	if err := t.store.UpdateTradeInfoPrices(code, date, spot.Current, open); err != nil {
		return err
	}
	if err := writePivots(t.store, code, date, open, spot.High, spot.Low, spot.Current); err != nil {
		return err
	}

	bought, err := t.store.HasHistory(code, date, historyBuy)
	if err != nil {
		return err
	}
	if bought {
		return nil
	}

	ti, err := t.store.GetTradeInfo(code, date)
	if err != nil {
		return err
	}
	if ti == nil {
		return nil
	}
	target := meanPositive(ti.S1, ti.S2, ti.S3)
	if target <= 0 {
		return nil
	}
	if t.cfg.Buy.TestForceBuy != "Y" && float64(spot.Current) >= target {
		return nil
	}

	alloc := float64(cash) * t.cfg.ContractRate
	qty := int(alloc / float64(spot.Current))
	if qty == 0 && cash >= spot.Current {
		qty = 1
	}
	if qty == 0 {
		return nil
	}

	res, err := t.broker.Order(ctx, types.Buy, code, qty, spot.Current)
	if err != nil {
		return err
	}
	return t.recordFill(ctx, res, types.BuyStop, historyBuy, code, qty, spot.Current, "swing buy")
}
