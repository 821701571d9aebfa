// KIS Swing Bot — an automated swing-trading bot for KRX equities on
// the Korea Investment & Securities OpenAPI.
//
// Architecture:
//
//	main.go              — entry point: loads config, starts the scheduler, waits for SIGINT/SIGTERM
//	engine/engine.go     — cron scheduler: universe refresh, scoring, ingest, and the trade tick
//	market/universe.go   — monthly KRX listed-issue refresh into the ticker table
//	collector/           — after-close ingest: daily bars, quote snapshot, financial sheets, MA recompute
//	scoring/             — rule-based scorer: fundamentals, trend, drawdown, supply-demand, RSI/OBV
//	trading/             — intraday loop: pivot-support buys, take-profit and loss-cut sells
//	broker/              — KIS REST client: paced, token-cached, typed over all-string envelopes
//	store/               — SQLite persistence for everything the pipeline produces
//	api/                 — read-only dashboard: JSON status plus a websocket event stream
//
// How it trades:
//
//	After each close the bot ingests prices and fundamentals for every
//	listed ticker. Before the next open it scores the universe and marks
//	candidates. During the session it buys candidates trading below their
//	pivot-support mean and sells held positions on take-profit or loss-cut,
//	sizing every order from the account's effective cash.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"kis-swingbot/internal/api"
	"kis-swingbot/internal/broker"
	"kis-swingbot/internal/collector"
	"kis-swingbot/internal/config"
	"kis-swingbot/internal/engine"
	"kis-swingbot/internal/market"
	"kis-swingbot/internal/notify"
	"kis-swingbot/internal/scoring"
	"kis-swingbot/internal/store"
	"kis-swingbot/internal/trading"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if p := os.Getenv("KIS_CONFIG"); p != "" {
		cfgPath = p
	}

	bootstrap := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootstrap.Fatal().Err(err).Str("path", cfgPath).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		bootstrap.Fatal().Err(err).Msg("invalid config")
	}

	logger := newLogger(cfg.Log)

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("failed to open store")
	}
	defer st.Close()

	tokens := broker.NewTokenManager(
		cfg.Broker.TokenBaseURL(), cfg.Broker.AppKey, cfg.Broker.AppSecret,
		cfg.Broker.TokenPath, logger,
	)
	client := broker.NewClient(cfg.Broker, tokens, logger)

	webhook := notify.NewWebhook(cfg.Notify.WebhookURL, logger)
	universe := market.NewUniverse(cfg.Exchange, st, logger)
	scorer := scoring.NewScorer(st, logger)
	ingest := collector.New(client, st, logger)
	trader := trading.NewTrader(st, client, webhook, cfg.Trading, logger)

	var apiServer *api.Server
	var publisher engine.Publisher
	if cfg.Dashboard.Enabled {
		apiServer = api.NewServer(*cfg, st, logger)
		publisher = apiServer
		trader.SetPublisher(apiServer)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("dashboard server failed")
			}
		}()
	}

	eng, err := engine.New(universe, scorer, ingest, trader, webhook, publisher, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build scheduler")
	}
	eng.Start()

	logger.Info().
		Str("mode", cfg.Broker.Mode).
		Float64("contract_rate", cfg.Trading.ContractRate).
		Float64("limit_price", cfg.Trading.LimitPrice).
		Int("limit_cnt", cfg.Trading.LimitCnt).
		Msg("swing bot started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("failed to stop dashboard")
		}
	}
	eng.Stop()
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stderr)
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
