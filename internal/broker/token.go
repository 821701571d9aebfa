package broker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"kis-swingbot/pkg/marketday"
)

// tokenLifetime is how long a freshly issued bearer token is treated as
// valid. KIS tokens live 24 hours; an hour of slack avoids racing the
// server-side expiry.
const tokenLifetime = 23 * time.Hour

// tokenFileLayout is the cache-file timestamp format: ISO-8601 local
// datetime without a zone suffix.
const tokenFileLayout = "2006-01-02T15:04:05"

// TokenManager obtains and caches the KIS OAuth bearer token. The token
// is held in memory and mirrored to a two-line text file (token, expiry)
// so restarts within the token's lifetime skip the issue call — KIS
// rate-limits token issuance far harder than data calls.
//
// Refreshes are single-flight: concurrent callers that miss the cache
// share one in-flight request.
type TokenManager struct {
	http      *resty.Client
	appKey    string
	appSecret string
	path      string
	log       zerolog.Logger

	sf singleflight.Group

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenManager builds a manager issuing tokens against baseURL and
// caching them at path.
func NewTokenManager(baseURL, appKey, appSecret, path string, logger zerolog.Logger) *TokenManager {
	m := &TokenManager{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
		appKey:    appKey,
		appSecret: appSecret,
		path:      path,
		log:       logger.With().Str("component", "token").Logger(),
	}
	m.loadFile()
	return m
}

// Token returns a bearer token valid for at least another minute,
// refreshing it if needed.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.token != "" && time.Now().Add(time.Minute).Before(m.expiresAt) {
		tok := m.token
		m.mu.Unlock()
		return tok, nil
	}
	m.mu.Unlock()

	v, err, _ := m.sf.Do("token", func() (any, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refresh issues a new token, retrying twice at one-second intervals
// before giving up.
func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrTokenFailure, ctx.Err())
			}
		}
		tok, err := m.issue(ctx)
		if err == nil {
			m.store(tok)
			return tok, nil
		}
		lastErr = err
		m.log.Warn().Err(err).Int("attempt", attempt).Msg("token issue failed")
	}
	return "", fmt.Errorf("%w: %v", ErrTokenFailure, lastErr)
}

func (m *TokenManager) issue(ctx context.Context) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	resp, err := m.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"grant_type": "client_credentials",
			"appkey":     m.appKey,
			"appsecret":  m.appSecret,
		}).
		SetResult(&out).
		Post("/oauth2/tokenP")
	if err != nil {
		return "", fmt.Errorf("post tokenP: %w", err)
	}
	if resp.IsError() {
		return "", &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access_token", ErrDecode)
	}
	return out.AccessToken, nil
}

// store records the token in memory and mirrors it to the cache file.
func (m *TokenManager) store(tok string) {
	expires := time.Now().In(marketday.Location()).Add(tokenLifetime)

	m.mu.Lock()
	m.token = tok
	m.expiresAt = expires
	m.mu.Unlock()

	if m.path == "" {
		return
	}
	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			m.log.Warn().Err(err).Msg("create token dir failed")
			return
		}
	}
	body := tok + "\n" + expires.Format(tokenFileLayout) + "\n"
	if err := os.WriteFile(m.path, []byte(body), 0o600); err != nil {
		m.log.Warn().Err(err).Str("path", m.path).Msg("write token file failed")
	}
}

// loadFile restores a previously cached token. An unreadable or partial
// file is treated as absent.
func (m *TokenManager) loadFile() {
	if m.path == "" {
		return
	}
	raw, err := os.ReadFile(m.path)
	if err != nil {
		return
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) < 2 {
		return
	}
	tok := strings.TrimSpace(lines[0])
	expires, err := time.ParseInLocation(tokenFileLayout, strings.TrimSpace(lines[1]), marketday.Location())
	if err != nil || tok == "" {
		return
	}
	m.mu.Lock()
	m.token = tok
	m.expiresAt = expires
	m.mu.Unlock()
	m.log.Debug().Time("expires", expires).Msg("token restored from file")
}
