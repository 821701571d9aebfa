package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeJobs struct {
	mu        sync.Mutex
	refreshes int
	scores    int
	ingests   []string
	buys      int
	sells     int

	scoreErr error
	block    chan struct{} // when set, Refresh blocks until closed
}

func (f *fakeJobs) Refresh(ctx context.Context) error {
	f.mu.Lock()
	f.refreshes++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return nil
}

func (f *fakeJobs) Run(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores++
	return 3, f.scoreErr
}

func (f *fakeJobs) RunMarket(ctx context.Context, market string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingests = append(f.ingests, market)
	return nil
}

func (f *fakeJobs) RunBuy(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buys++
	return nil
}

func (f *fakeJobs) RunSell(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sells++
	return nil
}

type ingestAdapter struct{ *fakeJobs }

func (a ingestAdapter) Run(ctx context.Context, market string) error {
	return a.RunMarket(ctx, market)
}

type fakeNotify struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotify) Notify(ctx context.Context, msg string) {
	f.mu.Lock()
	f.msgs = append(f.msgs, msg)
	f.mu.Unlock()
}

type fakePublisher struct{ events atomic.Int64 }

func (f *fakePublisher) Publish(evtType, code string, data any) { f.events.Add(1) }

func newTestEngine(t *testing.T, jobs *fakeJobs, n Notifier, pub Publisher) *Engine {
	t.Helper()
	e, err := New(jobs, jobs, ingestAdapter{jobs}, jobs, n, pub, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestNewRegistersAllJobs(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &fakeJobs{}, &fakeNotify{}, nil)
	if got := len(e.cron.Entries()); got != 5 {
		t.Errorf("scheduled jobs = %d, want 5", got)
	}
}

func TestRunJobNotifiesBoundaries(t *testing.T) {
	t.Parallel()
	jobs := &fakeJobs{}
	n := &fakeNotify{}
	pub := &fakePublisher{}
	e := newTestEngine(t, jobs, n, pub)

	e.runJob("universe", jobs.Refresh)

	if jobs.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", jobs.refreshes)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.msgs) != 2 {
		t.Fatalf("notifications = %v, want start+finish", n.msgs)
	}
	if n.msgs[0] != "job universe started" || n.msgs[1] != "job universe finished" {
		t.Errorf("messages = %v", n.msgs)
	}
	if pub.events.Load() != 2 {
		t.Errorf("published events = %d, want 2", pub.events.Load())
	}
}

func TestRunJobReportsFailure(t *testing.T) {
	t.Parallel()
	jobs := &fakeJobs{scoreErr: errors.New("gateway down")}
	n := &fakeNotify{}
	e := newTestEngine(t, jobs, n, nil)

	e.runJob("scoring", e.runScoring)

	n.mu.Lock()
	defer n.mu.Unlock()
	last := n.msgs[len(n.msgs)-1]
	if last != "job scoring failed: gateway down" {
		t.Errorf("last notification = %q", last)
	}
}

func TestRunJobDropsOverlappingTick(t *testing.T) {
	t.Parallel()
	jobs := &fakeJobs{block: make(chan struct{})}
	e := newTestEngine(t, jobs, &fakeNotify{}, nil)

	done := make(chan struct{})
	go func() {
		e.runJob("universe", jobs.Refresh)
		close(done)
	}()

	// Wait for the first run to take the lock, then fire a second tick.
	deadline := time.After(time.Second)
	for {
		jobs.mu.Lock()
		started := jobs.refreshes == 1
		jobs.mu.Unlock()
		if started {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first run never started")
		case <-time.After(time.Millisecond):
		}
	}

	e.runJob("universe", jobs.Refresh) // must return without running

	jobs.mu.Lock()
	got := jobs.refreshes
	jobs.mu.Unlock()
	if got != 1 {
		t.Errorf("refreshes = %d, overlapping tick must be dropped", got)
	}

	close(jobs.block)
	<-done
}

func TestTradeTickRunsBuyThenSell(t *testing.T) {
	t.Parallel()
	jobs := &fakeJobs{}
	n := &fakeNotify{}
	e := newTestEngine(t, jobs, n, nil)

	e.runJob("trade", e.runTrade)

	if jobs.buys != 1 || jobs.sells != 1 {
		t.Errorf("buys = %d sells = %d, want 1 each", jobs.buys, jobs.sells)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.msgs) != 0 {
		t.Errorf("trade tick must not notify on success: %v", n.msgs)
	}
}

func TestScoringNotifiesCandidateCount(t *testing.T) {
	t.Parallel()
	jobs := &fakeJobs{}
	n := &fakeNotify{}
	e := newTestEngine(t, jobs, n, nil)

	e.runJob("scoring", e.runScoring)

	n.mu.Lock()
	defer n.mu.Unlock()
	found := false
	for _, m := range n.msgs {
		if m == "scoring found 3 candidates" {
			found = true
		}
	}
	if !found {
		t.Errorf("candidate count not notified: %v", n.msgs)
	}
}
