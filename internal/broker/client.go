package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"kis-swingbot/internal/config"
)

// rateExceededCode is the gateway's throttle sentinel. It arrives inside
// an otherwise well-formed 2xx body, so the raw body is scanned before
// decoding.
const rateExceededCode = "EGW00201"

// Client is the rate-limited KIS REST client. Market-data calls always
// target the real endpoint family (the paper-trading gateway serves no
// quotations); account and order calls switch endpoint and tr_id family
// on broker.mode.
//
// All calls share one Pacer, so process-wide throughput stays at or
// below one request per second no matter how many workers fan out.
type Client struct {
	market *resty.Client // quotations, charts, sheets
	trade  *resty.Client // balance, orders
	tokens *TokenManager
	pacer  *Pacer
	log    zerolog.Logger

	appKey    string
	appSecret string
	account   string // CANO
	product   string // ACNT_PRDT_CD
	real      bool
}

// NewClient wires the client from broker config. The token manager is
// injected so tests can point it at a fixture server.
func NewClient(cfg config.BrokerConfig, tokens *TokenManager, logger zerolog.Logger) *Client {
	newResty := func(base string) *resty.Client {
		return resty.New().
			SetBaseURL(base).
			SetTimeout(10 * time.Second)
	}
	return &Client{
		market:    newResty(cfg.BaseURLReal),
		trade:     newResty(cfg.TradeBaseURL()),
		tokens:    tokens,
		pacer:     NewPacer(time.Second),
		log:       logger.With().Str("component", "broker").Logger(),
		appKey:    cfg.AppKey,
		appSecret: cfg.AppSecret,
		account:   cfg.AccountNumber,
		product:   cfg.AccountProduct,
		real:      cfg.Real(),
	}
}

// request describes one KIS call for the retry core.
type request struct {
	client *resty.Client
	method string
	path   string
	trID   string
	query  map[string]string
	body   any // JSON-encoded when non-nil
}

// do executes req with pacing and bounded retry, decoding the response
// body into out. Transport errors, 5xx statuses, and the gateway
// throttle sentinel each consume one of three attempts; the pacer's
// one-second spacing runs before every attempt, retries included.
// Client errors (4xx) and decode failures surface immediately.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}

		r := req.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json; charset=utf-8").
			SetHeader("authorization", "Bearer "+tok).
			SetHeader("appkey", c.appKey).
			SetHeader("appsecret", c.appSecret).
			SetHeader("tr_id", req.trID)
		if req.query != nil {
			r.SetQueryParams(req.query)
		}
		if req.body != nil {
			r.SetBody(req.body)
		}

		var resp *resty.Response
		switch req.method {
		case http.MethodPost:
			resp, err = r.Post(req.path)
		default:
			resp, err = r.Get(req.path)
		}
		if err != nil {
			lastErr = fmt.Errorf("%w: %s %s: %v", ErrNetwork, req.method, req.path, err)
			c.log.Warn().Err(err).Str("path", req.path).Int("attempt", attempt).Msg("transport error")
			continue
		}
		raw := resp.Body()
		if resp.IsError() {
			statusErr := &StatusError{Code: resp.StatusCode(), Body: string(raw)}
			if resp.StatusCode() < http.StatusInternalServerError {
				// 401/403/404 do not heal on a retry.
				return statusErr
			}
			lastErr = statusErr
			c.log.Warn().Int("status", resp.StatusCode()).Str("path", req.path).Int("attempt", attempt).Msg("server error")
			continue
		}
		if strings.Contains(string(raw), rateExceededCode) {
			lastErr = fmt.Errorf("%w: %s", ErrRateExceeded, req.path)
			c.log.Warn().Str("path", req.path).Int("attempt", attempt).Msg("gateway rate limit hit")
			continue
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrDecode, req.path, err)
		}
		return nil
	}
	return lastErr
}
