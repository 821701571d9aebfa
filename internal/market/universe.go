// Package market refreshes the tradable ticker universe from the KRX
// reference-data API. The universe is append-only: a ticker seen once
// stays in the store even after delisting, so historical rows keep
// their join target.
package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"kis-swingbot/internal/config"
	"kis-swingbot/internal/store"
	"kis-swingbot/pkg/marketday"
	"kis-swingbot/pkg/types"
)

// krxIssue is one row of the KRX daily listed-issue response.
type krxIssue struct {
	ShortCode string `json:"ISU_SRT_CD"`
	Name      string `json:"ISU_ABBRV"`
	EngName   string `json:"ISU_ENG_NM"`
	Market    string `json:"MKT_TP_NM"`
	Sector    string `json:"SECT_TP_NM"`
	Kind      string `json:"KIND_STKCERT_TP_NM"`
}

type krxResponse struct {
	Rows []krxIssue `json:"OutBlock_1"`
}

const commonStockKind = "보통주"

// Universe loads listed issues for both markets and inserts the ones
// the store has not seen yet.
type Universe struct {
	client *resty.Client
	cfg    config.ExchangeConfig
	store  *store.Store
	log    zerolog.Logger
}

func NewUniverse(cfg config.ExchangeConfig, s *store.Store, logger zerolog.Logger) *Universe {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	return &Universe{
		client: client,
		cfg:    cfg,
		store:  s,
		log:    logger.With().Str("component", "universe").Logger(),
	}
}

// Refresh pulls both markets for the last completed session and inserts
// new common-stock tickers. Existing rows are never modified.
func (u *Universe) Refresh(ctx context.Context) error {
	date := marketday.Yesterday()
	for _, m := range []struct{ name, url string }{
		{"KOSPI", u.cfg.KospiURL},
		{"KOSDAQ", u.cfg.KosdaqURL},
	} {
		added, total, err := u.refreshMarket(ctx, m.name, m.url, date)
		if err != nil {
			return fmt.Errorf("refresh %s: %w", m.name, err)
		}
		u.log.Info().Str("market", m.name).Int("listed", total).Int("added", added).
			Msg("universe refreshed")
	}
	return nil
}

func (u *Universe) refreshMarket(ctx context.Context, market, url, date string) (added, total int, err error) {
	var body krxResponse
	resp, err := u.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"AUTH_KEY": u.cfg.Key,
			"basDd":    date,
		}).
		SetResult(&body).
		Get(url)
	if err != nil {
		return 0, 0, err
	}
	if resp.StatusCode() != 200 {
		return 0, 0, fmt.Errorf("status %d", resp.StatusCode())
	}

	// The feed occasionally repeats an issue; the first row wins.
	seen := make(map[string]bool, len(body.Rows))
	for _, row := range body.Rows {
		if row.Kind != commonStockKind {
			continue
		}
		code := strings.TrimPrefix(row.ShortCode, "A")
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		total++

		inserted, err := u.store.InsertTickerIfAbsent(types.Ticker{
			Code:     code,
			Market:   market,
			Name:     row.Name,
			CorpName: row.EngName,
			Sector:   row.Sector,
		})
		if err != nil {
			return added, total, fmt.Errorf("insert %s: %w", code, err)
		}
		if inserted {
			added++
		}
	}
	return added, total, nil
}
