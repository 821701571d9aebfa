// Package trading implements the intraday decision loop: pivot levels,
// account reconciliation, and the periodic buy and sell tasks.
package trading

import (
	"context"
	"math"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"kis-swingbot/internal/config"
	"kis-swingbot/internal/store"
	"kis-swingbot/pkg/types"
)

// Brokerage is the slice of the broker client the trading loop uses.
type Brokerage interface {
	Balance(ctx context.Context) (*types.AccountBalance, error)
	Spot(ctx context.Context, code string) (types.SpotQuote, error)
	DailyPrices(ctx context.Context, code string) ([]map[string]string, error)
	Order(ctx context.Context, side types.Side, code string, qty, price int) (*types.OrderResult, error)
}

// Notifier is the fire-and-forget message sink for order fills.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// Publisher pushes order events to the dashboard stream. Optional.
type Publisher interface {
	Publish(evtType, code string, data any)
}

// Trader owns the buy and sell tasks. Both run on the same cadence;
// per-ticker advisory locks keep a slow buy evaluation and a sell
// evaluation of the same ticker from interleaving.
type Trader struct {
	store  *store.Store
	broker Brokerage
	notify Notifier
	events Publisher
	cfg    config.TradingConfig
	log    zerolog.Logger

	locks sync.Map // code → *sync.Mutex
}

// SetPublisher attaches the dashboard event sink. Safe to leave unset.
func (t *Trader) SetPublisher(p Publisher) { t.events = p }

func NewTrader(s *store.Store, b Brokerage, n Notifier, cfg config.TradingConfig, logger zerolog.Logger) *Trader {
	return &Trader{
		store:  s,
		broker: b,
		notify: n,
		cfg:    cfg,
		log:    logger.With().Str("component", "trader").Logger(),
	}
}

// tryLockTicker takes the per-ticker advisory lock without blocking.
// The caller that loses the race drops its tick for that ticker.
func (t *Trader) tryLockTicker(code string) (unlock func(), ok bool) {
	v, _ := t.locks.LoadOrStore(code, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	if !mu.TryLock() {
		return nil, false
	}
	return mu.Unlock, true
}

// round2 rounds to two decimal places, the precision profit rates are
// stored and compared at.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// meanPositive averages the strictly positive terms, 0 when none.
func meanPositive(vals ...int) float64 {
	var pos []float64
	for _, v := range vals {
		if v > 0 {
			pos = append(pos, float64(v))
		}
	}
	if len(pos) == 0 {
		return 0
	}
	return stat.Mean(pos, nil)
}
