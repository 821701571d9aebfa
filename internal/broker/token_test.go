package broker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"kis-swingbot/pkg/marketday"
)

func tokenServer(t *testing.T, hits *atomic.Int32, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/tokenP" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"` + token + `","expires_in":86400}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenIssueAndCache(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := tokenServer(t, &hits, "tok-1")
	path := filepath.Join(t.TempDir(), "token.txt")

	m := NewTokenManager(srv.URL, "key", "secret", path, zerolog.Nop())

	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}
	if tok != "tok-1" {
		t.Errorf("token = %q, want tok-1", tok)
	}

	// Second call is served from memory.
	if _, err := m.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("issue calls = %d, want 1", got)
	}

	// File mirror: two lines, token then expiry.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 || lines[0] != "tok-1" {
		t.Errorf("token file = %q", raw)
	}
	if _, err := time.ParseInLocation("2006-01-02T15:04:05", lines[1], marketday.Location()); err != nil {
		t.Errorf("expiry line %q does not parse: %v", lines[1], err)
	}
}

func TestTokenRestoredFromFile(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := tokenServer(t, &hits, "fresh")
	path := filepath.Join(t.TempDir(), "token.txt")

	expiry := time.Now().In(marketday.Location()).Add(10 * time.Hour).Format("2006-01-02T15:04:05")
	if err := os.WriteFile(path, []byte("cached-tok\n"+expiry+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	m := NewTokenManager(srv.URL, "key", "secret", path, zerolog.Nop())
	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tok != "cached-tok" {
		t.Errorf("token = %q, want cached-tok", tok)
	}
	if hits.Load() != 0 {
		t.Errorf("issue calls = %d, want 0", hits.Load())
	}
}

func TestTokenExpiredFileRefreshes(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := tokenServer(t, &hits, "fresh")
	path := filepath.Join(t.TempDir(), "token.txt")

	stale := time.Now().In(marketday.Location()).Add(-time.Hour).Format("2006-01-02T15:04:05")
	if err := os.WriteFile(path, []byte("old-tok\n"+stale+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	m := NewTokenManager(srv.URL, "key", "secret", path, zerolog.Nop())
	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tok != "fresh" {
		t.Errorf("token = %q, want fresh", tok)
	}
	if hits.Load() != 1 {
		t.Errorf("issue calls = %d, want 1", hits.Load())
	}
}

func TestTokenPartialFileIgnored(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := tokenServer(t, &hits, "fresh")
	path := filepath.Join(t.TempDir(), "token.txt")
	if err := os.WriteFile(path, []byte("only-one-line\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	m := NewTokenManager(srv.URL, "key", "secret", path, zerolog.Nop())
	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tok != "fresh" {
		t.Errorf("token = %q, want fresh", tok)
	}
}

func TestTokenSingleFlight(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(100 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"shared"}`))
	}))
	defer slow.Close()

	m := NewTokenManager(slow.URL, "key", "secret", "", zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := m.Token(context.Background())
			if err != nil {
				t.Errorf("Token() error: %v", err)
				return
			}
			if tok != "shared" {
				t.Errorf("token = %q", tok)
			}
		}()
	}
	wg.Wait()
	if got := hits.Load(); got != 1 {
		t.Errorf("issue calls = %d, want 1 (single-flight)", got)
	}
}

func TestTokenFailureAfterRetries(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	m := NewTokenManager(srv.URL, "key", "secret", "", zerolog.Nop())
	_, err := m.Token(context.Background())
	if !errors.Is(err, ErrTokenFailure) {
		t.Fatalf("err = %v, want ErrTokenFailure", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("issue calls = %d, want 3 (initial + 2 retries)", got)
	}
}
