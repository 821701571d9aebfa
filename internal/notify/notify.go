// Package notify posts short operational messages to a chat webhook.
// Delivery is best-effort: a failed post is logged and dropped, never
// propagated into the pipeline that produced the message.
package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

type Webhook struct {
	url    string
	client *resty.Client
	log    zerolog.Logger
}

// NewWebhook builds a notifier for the given URL. An empty URL yields
// a no-op notifier, so callers never need a nil check.
func NewWebhook(url string, logger zerolog.Logger) *Webhook {
	return &Webhook{
		url:    url,
		client: resty.New().SetTimeout(10 * time.Second),
		log:    logger.With().Str("component", "notify").Logger(),
	}
}

func (w *Webhook) Notify(ctx context.Context, msg string) {
	if w.url == "" {
		return
	}
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"text": msg}).
		Post(w.url)
	if err != nil {
		w.log.Warn().Err(err).Msg("webhook post failed")
		return
	}
	if resp.IsError() {
		w.log.Warn().Int("status", resp.StatusCode()).Msg("webhook rejected message")
	}
}
