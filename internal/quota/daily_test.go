package quota

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newTestGuard(t *testing.T, limit int, clock *fakeClock) *DailyGuard {
	t.Helper()
	g, err := NewDailyGuard(limit, WithLocation(time.UTC), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewDailyGuard: %v", err)
	}
	return g
}

func TestNewDailyGuardRejectsNonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		g, err := NewDailyGuard(limit)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("limit=%d: expected ErrInvalidConfig, got %v", limit, err)
		}
		if g != nil {
			t.Fatalf("limit=%d: expected nil guard", limit)
		}
	}
}

func TestNewDailyGuardStartsAtZeroForToday(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC)}
	g := newTestGuard(t, 3, clock)

	snap := g.Snapshot()
	if snap.UsedToday != 0 || snap.Limit != 3 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.DateString() != "2025-03-09" {
		t.Fatalf("expected date 2025-03-09, got %s", snap.DateString())
	}
}

func TestDailyGuardBudgetCap(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	g := newTestGuard(t, 25, clock)

	calls := 0
	for i := 0; i < 25; i++ {
		if err := g.Do(func() error { calls++; return nil }); err != nil {
			t.Fatalf("call %d: unexpected error %v", i+1, err)
		}
	}

	err := g.Do(func() error { calls++; return nil })
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected *ExceededError, got %T", err)
	}
	if exceeded.Limit != 25 {
		t.Fatalf("expected limit 25, got %d", exceeded.Limit)
	}
	if exceeded.Date.Format(DateLayout) != "2025-01-01" {
		t.Fatalf("unexpected exceeded date %s", exceeded.Date.Format(DateLayout))
	}
	if calls != 25 {
		t.Fatalf("expected 25 actions to run, got %d", calls)
	}
	if used := g.Snapshot().UsedToday; used != 25 {
		t.Fatalf("expected used=25 after rejection, got %d", used)
	}
}

func TestDailyGuardChargesFailedActions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	g := newTestGuard(t, 2, clock)
	upstream := errors.New("upstream unavailable")

	for i := 0; i < 2; i++ {
		if err := g.Do(func() error { return upstream }); !errors.Is(err, upstream) {
			t.Fatalf("call %d: expected upstream error, got %v", i+1, err)
		}
	}
	if used := g.Snapshot().UsedToday; used != 2 {
		t.Fatalf("expected used=2, got %d", used)
	}
	if err := g.Do(func() error { return upstream }); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded once spent, got %v", err)
	}
}

func TestDailyGuardRollover(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 22, 0, 0, 0, time.UTC)}
	g := newTestGuard(t, 1, clock)

	if err := g.Do(func() error { return nil }); err != nil {
		t.Fatalf("day D call: %v", err)
	}
	if err := g.Do(func() error { return nil }); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected day D to be exhausted, got %v", err)
	}

	clock.Set(time.Date(2025, 1, 2, 0, 0, 1, 0, time.UTC))
	if err := g.Do(func() error { return nil }); err != nil {
		t.Fatalf("day D+1 call: %v", err)
	}
	snap := g.Snapshot()
	if snap.DateString() != "2025-01-02" {
		t.Fatalf("expected current date 2025-01-02, got %s", snap.DateString())
	}
	if snap.UsedToday != 1 {
		t.Fatalf("expected used=1 after rollover, got %d", snap.UsedToday)
	}
}

func TestDailyGuardRolloverAcrossGap(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	g := newTestGuard(t, 2, clock)
	_ = g.Do(func() error { return nil })
	_ = g.Do(func() error { return nil })

	clock.Set(time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC))
	if err := g.Do(func() error { return nil }); err != nil {
		t.Fatalf("expected call after downtime to succeed, got %v", err)
	}
	if got := g.Snapshot().DateString(); got != "2025-01-09" {
		t.Fatalf("expected date to jump to 2025-01-09, got %s", got)
	}
}

func TestDailyGuardIgnoresClockStepBack(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 2, 0, 5, 0, 0, time.UTC)}
	g := newTestGuard(t, 1, clock)
	if err := g.Do(func() error { return nil }); err != nil {
		t.Fatalf("first call: %v", err)
	}

	clock.Set(time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC))
	if err := g.Do(func() error { return nil }); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected step back to keep the exhausted day, got %v", err)
	}
	if got := g.Snapshot().DateString(); got != "2025-01-02" {
		t.Fatalf("expected date to stay 2025-01-02, got %s", got)
	}
}

func TestDailyGuardUsesConfiguredZone(t *testing.T) {
	zone := time.FixedZone("UTC+9", 9*60*60)
	clock := &fakeClock{now: time.Date(2025, 1, 1, 14, 0, 0, 0, time.UTC)}
	g, err := NewDailyGuard(1, WithLocation(zone), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewDailyGuard: %v", err)
	}
	if got := g.Snapshot().DateString(); got != "2025-01-01" {
		t.Fatalf("expected 2025-01-01 in UTC+9, got %s", got)
	}
	_ = g.Do(func() error { return nil })

	// 15:00 UTC is midnight in UTC+9.
	clock.Set(time.Date(2025, 1, 1, 15, 0, 0, 0, time.UTC))
	if err := g.Do(func() error { return nil }); err != nil {
		t.Fatalf("expected rollover at local midnight, got %v", err)
	}
	if got := g.Snapshot().DateString(); got != "2025-01-02" {
		t.Fatalf("expected 2025-01-02, got %s", got)
	}
}

func TestSnapshotDoesNotRollOver(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	g := newTestGuard(t, 5, clock)
	_ = g.Do(func() error { return nil })
	_ = g.Do(func() error { return nil })

	clock.Set(time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC))
	for i := 0; i < 10; i++ {
		snap := g.Snapshot()
		if snap.UsedToday != 2 || snap.DateString() != "2025-01-01" {
			t.Fatalf("snapshot %d changed state: %+v", i, snap)
		}
	}
	if remaining := g.Snapshot().Remaining(); remaining != 3 {
		t.Fatalf("expected remaining=3, got %d", remaining)
	}
}

func TestRunPassesThroughResult(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	g := newTestGuard(t, 1, clock)

	got, err := Run(g, func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Fatalf("expected ok, got %q err=%v", got, err)
	}

	invoked := false
	got, err = Run(g, func() (string, error) { invoked = true; return "late", nil })
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if invoked {
		t.Fatalf("action must not run once the budget is spent")
	}
	if got != "" {
		t.Fatalf("expected zero value on rejection, got %q", got)
	}
}

func TestDailyGuardConcurrentCallersNeverOverAdmit(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	const limit = 40
	g := newTestGuard(t, limit, clock)

	var invoked atomic.Int64
	var rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.Do(func() error {
				invoked.Add(1)
				time.Sleep(time.Millisecond)
				return nil
			})
			if errors.Is(err, ErrQuotaExceeded) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	if invoked.Load() != limit {
		t.Fatalf("expected exactly %d actions, got %d", limit, invoked.Load())
	}
	if rejected.Load() != 200-limit {
		t.Fatalf("expected %d rejections, got %d", 200-limit, rejected.Load())
	}
	if used := g.Snapshot().UsedToday; used != limit {
		t.Fatalf("expected used=%d, got %d", limit, used)
	}
}

func TestSlowActionDoesNotBlockOtherCallers(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	g := newTestGuard(t, 2, clock)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- g.Do(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if err := g.TryConsume(); err != nil {
		t.Fatalf("expected second caller to proceed while the first action runs, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("slow action: %v", err)
	}
}
