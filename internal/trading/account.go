package trading

import (
	"context"
	"fmt"

	"kis-swingbot/internal/api"
	"kis-swingbot/pkg/marketday"
	"kis-swingbot/pkg/types"
)

const (
	noteBought     = "swing bought item"
	noteBoughtStop = "swing bought item(buy-stop)"
)

// reconcile mirrors the brokerage's position rows into today's trade
// status, so the decision loop works from what the account actually
// holds rather than from what it remembers ordering.
//
// A row whose status already shows a sell today is left alone: the
// balance can keep listing a just-sold position until settlement. Held
// rows (purchase amount > 0) become BS and refresh the candidate flag;
// a position past the accumulation cap is flagged "N" so the buy loop
// stops adding to it. Rows with zero purchase amount become SS.
func (t *Trader) reconcile(ctx context.Context, bal *types.AccountBalance) error {
	date := marketday.Today()
	for _, h := range bal.Holdings {
		st, err := t.store.GetStatus(h.Code, date)
		if err != nil {
			return err
		}
		if st != nil && st.Direction == types.SellStop {
			continue
		}

		qty := int(h.Quantity)
		price := int(h.AvgPrice)
		if h.PurchaseAmount > 0 {
			if err := t.store.UpsertStatus(types.TradeStatus{
				Code: h.Code, Date: date, Direction: types.BuyStop,
				OrderNo: "", Qty: qty, Price: price, Time: marketday.Now(),
			}); err != nil {
				return err
			}
			candidate, note := types.CandidateYes, noteBought
			if float64(qty)*float64(price) > t.cfg.LimitPrice {
				candidate, note = types.CandidateNo, noteBoughtStop
			}
			if err := t.store.SetCandidate(h.Code, date, candidate, types.StrategySwing, note); err != nil {
				return err
			}
			continue
		}

		if err := t.store.UpsertStatus(types.TradeStatus{
			Code: h.Code, Date: date, Direction: types.SellStop,
			OrderNo: "", Qty: qty, Price: price, Time: marketday.Now(),
		}); err != nil {
			return err
		}
	}
	return nil
}

// recordFill persists an accepted order: status, history line, and a
// notification. A rejected order only logs the broker's message.
func (t *Trader) recordFill(ctx context.Context, res *types.OrderResult, dir types.Direction, histType, code string, qty, price int, note string) error {
	if !res.Accepted() {
		t.log.Warn().Str("code", code).Str("rt_cd", res.RtCd).Str("msg", res.Msg).Msg("order rejected")
		return nil
	}
	date := marketday.Today()
	now := marketday.Now()
	if err := t.store.UpsertStatus(types.TradeStatus{
		Code: code, Date: date, Direction: dir,
		OrderNo: res.OrderNo, Qty: qty, Price: price, Time: now,
	}); err != nil {
		return err
	}
	if err := t.store.AppendHistory(types.TradeHistory{
		Code: code, Date: date, Time: now, Type: histType,
		Qty: qty, Price: price, Note: note,
	}); err != nil {
		return err
	}
	if t.notify != nil {
		t.notify.Notify(ctx, fmt.Sprintf("[%s] %s x%d @ %d (order %s)", histType, code, qty, price, res.OrderNo))
	}
	if t.events != nil {
		t.events.Publish("order", code, api.OrderEvent{
			Code: code, Type: histType, Qty: qty, Price: price, OrderNo: res.OrderNo,
		})
	}
	t.log.Info().Str("code", code).Str("type", histType).Int("qty", qty).Int("price", price).
		Str("order_no", res.OrderNo).Msg("order accepted")
	return nil
}
