// Package engine schedules the bot's jobs on KRX market time:
//
//   - monthly ticker-universe refresh before the first session opens
//   - pre-open scoring over yesterday's data
//   - after-close ingest per market (KOSDAQ at 16:00, KOSPI at 17:00)
//   - a buy/sell tick every 30 seconds during session hours
//
// Jobs never overlap themselves: a tick that fires while the previous
// run is still going is dropped, not queued.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"kis-swingbot/internal/api"
	"kis-swingbot/pkg/marketday"
	"kis-swingbot/pkg/types"
)

// Cron specs carry a seconds field and run in exchange time.
const (
	specUniverse = "0 0 6 1 * *"       // 06:00 on the 1st of each month
	specScoring  = "0 0 5 * * *"       // 05:00 daily
	specKosdaq   = "0 0 16 * * *"      // 16:00 daily, after close
	specKospi    = "0 0 17 * * *"      // 17:00 daily
	specTrade    = "*/30 * 9-15 * * *" // every 30s during session hours
)

// UniverseRefresher loads the listed-ticker reference set.
type UniverseRefresher interface {
	Refresh(ctx context.Context) error
}

// Scorer runs one scoring pass and reports how many candidates it found.
type Scorer interface {
	Run(ctx context.Context) (int, error)
}

// Ingester runs one market's after-close data collection.
type Ingester interface {
	Run(ctx context.Context, market string) error
}

// Trader runs the intraday order loops.
type Trader interface {
	RunBuy(ctx context.Context) error
	RunSell(ctx context.Context) error
}

// Notifier receives job-boundary messages.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// Publisher pushes events to the dashboard. Nil when it is disabled.
type Publisher interface {
	Publish(evtType, code string, data any)
}

type Engine struct {
	cron      *cron.Cron
	universe  UniverseRefresher
	scorer    Scorer
	collector Ingester
	trader    Trader
	notify    Notifier
	events    Publisher
	log       zerolog.Logger

	jobLocks map[string]*sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

func New(u UniverseRefresher, sc Scorer, col Ingester, tr Trader, n Notifier, pub Publisher, logger zerolog.Logger) (*Engine, error) {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(marketday.Location()),
		),
		universe:  u,
		scorer:    sc,
		collector: col,
		trader:    tr,
		notify:    n,
		events:    pub,
		log:       logger.With().Str("component", "engine").Logger(),
		jobLocks: map[string]*sync.Mutex{
			"universe":      {},
			"scoring":       {},
			"ingest-kosdaq": {},
			"ingest-kospi":  {},
			"trade":         {},
		},
		ctx:    ctx,
		cancel: cancel,
	}

	for _, job := range []struct {
		spec, name string
		run        func(context.Context) error
	}{
		{specUniverse, "universe", e.universe.Refresh},
		{specScoring, "scoring", e.runScoring},
		{specKosdaq, "ingest-kosdaq", func(ctx context.Context) error {
			return e.collector.Run(ctx, types.MarketKOSDAQ)
		}},
		{specKospi, "ingest-kospi", func(ctx context.Context) error {
			return e.collector.Run(ctx, types.MarketKOSPI)
		}},
		{specTrade, "trade", e.runTrade},
	} {
		name, run := job.name, job.run
		if _, err := e.cron.AddFunc(job.spec, func() { e.runJob(name, run) }); err != nil {
			cancel()
			return nil, fmt.Errorf("schedule %s: %w", name, err)
		}
	}

	return e, nil
}

// Start launches the scheduler. Returns immediately; jobs fire on
// exchange time until Stop.
func (e *Engine) Start() {
	e.log.Info().Str("tz", marketday.Location().String()).Msg("scheduler starting")
	e.cron.Start()
}

// Stop cancels running jobs and waits for in-flight ones to return.
func (e *Engine) Stop() {
	e.log.Info().Msg("scheduler stopping")
	e.cancel()
	<-e.cron.Stop().Done()
	e.log.Info().Msg("scheduler stopped")
}

// runJob is the common wrapper: per-job overlap guard, boundary
// notifications, and dashboard events. The trade tick stays quiet on
// success to avoid flooding the webhook every 30 seconds.
func (e *Engine) runJob(name string, run func(context.Context) error) {
	lock := e.jobLocks[name]
	if !lock.TryLock() {
		e.log.Warn().Str("job", name).Msg("previous run still active, tick dropped")
		return
	}
	defer lock.Unlock()

	chatty := name != "trade"
	if chatty {
		e.log.Info().Str("job", name).Msg("job started")
		e.notify.Notify(e.ctx, fmt.Sprintf("job %s started", name))
	}
	e.publish("job", api.JobEvent{Job: name, Phase: "started"})

	if err := run(e.ctx); err != nil {
		e.log.Error().Err(err).Str("job", name).Msg("job failed")
		e.notify.Notify(e.ctx, fmt.Sprintf("job %s failed: %v", name, err))
		e.publish("job", api.JobEvent{Job: name, Phase: "failed", Error: err.Error()})
		return
	}

	if chatty {
		e.log.Info().Str("job", name).Msg("job finished")
		e.notify.Notify(e.ctx, fmt.Sprintf("job %s finished", name))
	}
	e.publish("job", api.JobEvent{Job: name, Phase: "finished"})
}

func (e *Engine) runScoring(ctx context.Context) error {
	found, err := e.scorer.Run(ctx)
	if err != nil {
		return err
	}
	e.log.Info().Int("candidates", found).Msg("scoring complete")
	e.notify.Notify(ctx, fmt.Sprintf("scoring found %d candidates", found))
	return nil
}

func (e *Engine) runTrade(ctx context.Context) error {
	if err := e.trader.RunBuy(ctx); err != nil {
		return fmt.Errorf("buy: %w", err)
	}
	if err := e.trader.RunSell(ctx); err != nil {
		return fmt.Errorf("sell: %w", err)
	}
	return nil
}

func (e *Engine) publish(evtType string, data any) {
	if e.events == nil {
		return
	}
	e.events.Publish(evtType, "", data)
}
