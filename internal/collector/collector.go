// Package collector runs the after-close ingest for one market: daily
// price bars, the quote snapshot, and the five financial-statement
// endpoints for every listed ticker, followed by a moving-average
// recompute over the stored series.
package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"kis-swingbot/internal/scoring"
	"kis-swingbot/internal/store"
	"kis-swingbot/pkg/marketday"
	"kis-swingbot/pkg/types"
)

// Brokerage is the slice of the broker client the collector needs.
type Brokerage interface {
	Quote(ctx context.Context, code string) (map[string]string, error)
	Charts(ctx context.Context, code string, todayOnly bool) ([]map[string]string, error)
	Sheets(ctx context.Context, kind types.SheetKind, code string, cycle types.SheetClass) ([]map[string]string, error)
}

const (
	// tickerConcurrency bounds in-flight tickers; the broker's pacer
	// serializes the actual requests, this only bounds queued work.
	tickerConcurrency = 4

	// runDeadline soft-caps one market's ingest. ~2500 tickers at 1 rps
	// and a dozen calls each will not finish inside it on a full-history
	// day, so past the deadline the run stops starting tickers and keeps
	// the progress it made.
	runDeadline = 30 * time.Minute
)

type Collector struct {
	broker   Brokerage
	store    *store.Store
	log      zerolog.Logger
	deadline time.Duration
}

func New(b Brokerage, s *store.Store, logger zerolog.Logger) *Collector {
	return &Collector{
		broker:   b,
		store:    s,
		log:      logger.With().Str("component", "collector").Logger(),
		deadline: runDeadline,
	}
}

// Run ingests every ticker of one market. Per-ticker failures are
// logged and skipped so one bad issue cannot starve the rest; only a
// listing-read error or cancellation of ctx aborts the run. The
// deadline is soft: once it passes no new ticker is started, but
// tickers already in flight run to completion and the run ends
// without error.
func (c *Collector) Run(ctx context.Context, market string) error {
	tickers, err := c.store.ListTickersByMarket(market)
	if err != nil {
		return err
	}
	c.log.Info().Str("market", market).Int("tickers", len(tickers)).Msg("ingest started")

	deadline, cancelDeadline := context.WithTimeout(context.Background(), c.deadline)
	defer cancelDeadline()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tickerConcurrency)
	for i, tk := range tickers {
		if gctx.Err() != nil {
			break
		}
		if deadline.Err() != nil {
			c.log.Warn().Str("market", market).Int("remaining", len(tickers)-i).
				Msg("ingest deadline reached, finishing in-flight tickers")
			break
		}
		code := tk.Code
		g.Go(func() error {
			// Queued behind the concurrency limit; recheck before starting.
			if deadline.Err() != nil {
				return nil
			}
			if err := c.collectOne(gctx, code); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.log.Warn().Err(err).Str("code", code).Msg("ticker ingest failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	c.log.Info().Str("market", market).Msg("ingest finished")
	return nil
}

func (c *Collector) collectOne(ctx context.Context, code string) error {
	if err := c.collectBars(ctx, code); err != nil {
		return err
	}
	if err := c.collectFundamentals(ctx, code); err != nil {
		return err
	}
	return scoring.RecomputeMAs(c.store, code)
}

// collectBars backfills the full chart history for a ticker seen for
// the first time, and otherwise tops up today's bar if it is missing.
func (c *Collector) collectBars(ctx context.Context, code string) error {
	has, err := c.store.HasBars(code)
	if err != nil {
		return err
	}
	todayOnly := has
	if has {
		done, err := c.store.HasBar(code, marketday.Today())
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}

	rows, err := c.broker.Charts(ctx, code, todayOnly)
	if err != nil {
		return err
	}
	for _, row := range rows {
		bar := barFromChartRow(code, row)
		if bar.Date == "" {
			continue
		}
		if err := c.store.UpsertBar(bar); err != nil {
			return err
		}
	}
	return nil
}

// collectFundamentals fetches the quote snapshot and all ten sheet
// series (five statements, annual and quarterly) concurrently and
// upserts the typed rows.
func (c *Collector) collectFundamentals(ctx context.Context, code string) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		quote, err := c.broker.Quote(ctx, code)
		if err != nil {
			return err
		}
		return c.store.UpsertEquity(snapshotFromQuote(code, quote))
	})

	for _, kind := range []types.SheetKind{
		types.SheetBalance, types.SheetIncome, types.SheetRatio,
		types.SheetProfit, types.SheetOther,
	} {
		for _, cycle := range []types.SheetClass{types.ClassAnnual, types.ClassQuarter} {
			g.Go(func() error {
				rows, err := c.broker.Sheets(ctx, kind, code, cycle)
				if err != nil {
					return err
				}
				return c.storeSheetRows(code, kind, cycle, rows)
			})
		}
	}

	return g.Wait()
}

func (c *Collector) storeSheetRows(code string, kind types.SheetKind, cycle types.SheetClass, rows []map[string]string) error {
	for _, row := range rows {
		key := types.SheetKey{Code: code, Class: cycle, YearMonth: row["stac_yymm"]}
		if key.YearMonth == "" {
			continue
		}
		var err error
		switch kind {
		case types.SheetBalance:
			err = c.store.UpsertBalanceRow(balanceRowFrom(key, row))
		case types.SheetIncome:
			err = c.store.UpsertIncomeRow(incomeRowFrom(key, row))
		case types.SheetRatio:
			err = c.store.UpsertRatioRow(ratioRowFrom(key, row))
		case types.SheetProfit:
			err = c.store.UpsertProfitRow(profitRowFrom(key, row))
		case types.SheetOther:
			err = c.store.UpsertOtherRow(otherRowFrom(key, row))
		}
		if err != nil {
			return err
		}
	}
	return nil
}
