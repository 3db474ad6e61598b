package quota

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Option customizes a DailyGuard.
type Option func(*DailyGuard)

// WithLocation sets the time zone that defines the calendar day boundary.
func WithLocation(loc *time.Location) Option {
	return func(g *DailyGuard) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(nowFn func() time.Time) Option {
	return func(g *DailyGuard) {
		if nowFn != nil {
			g.nowFn = nowFn
		}
	}
}

// DailyGuard admits at most limit actions per calendar day across all callers.
type DailyGuard struct {
	limit int
	loc   *time.Location
	nowFn func() time.Time

	mu   sync.Mutex
	used int
	day  time.Time
}

// NewDailyGuard constructs a DailyGuard with the counter starting at zero for today.
func NewDailyGuard(limit int, opts ...Option) (*DailyGuard, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: daily limit must be positive, got %d", ErrInvalidConfig, limit)
	}
	g := &DailyGuard{
		limit: limit,
		loc:   time.Local,
		nowFn: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	g.day = g.dayOf(g.nowFn())
	return g, nil
}

// Limit returns the configured daily budget.
func (g *DailyGuard) Limit() int {
	return g.limit
}

// TryConsume charges one call against today's budget or returns an *ExceededError.
func (g *DailyGuard) TryConsume() error {
	g.mu.Lock()
	today := g.dayOf(g.nowFn())
	rolled := false
	if today.After(g.day) {
		g.day = today
		g.used = 0
		rolled = true
	}
	day := g.day
	if g.used >= g.limit {
		g.mu.Unlock()
		logRollover(rolled, day)
		log.Warnf("quota: daily API limit reached (%d calls)", g.limit)
		return &ExceededError{Limit: g.limit, Date: day}
	}
	g.used++
	used := g.used
	g.mu.Unlock()

	logRollover(rolled, day)
	log.Debugf("quota: API call %d/%d", used, g.limit)
	return nil
}

func logRollover(rolled bool, day time.Time) {
	if rolled {
		log.WithField("date", day.Format(DateLayout)).Info("quota: counter reset for new day")
	}
}

// Do charges one call and then runs action outside the lock.
// The call stays charged even when action fails.
func (g *DailyGuard) Do(action func() error) error {
	if errConsume := g.TryConsume(); errConsume != nil {
		return errConsume
	}
	return action()
}

// Run charges one call against g and returns action's result unchanged.
func Run[T any](g *DailyGuard, action func() (T, error)) (T, error) {
	if errConsume := g.TryConsume(); errConsume != nil {
		var zero T
		return zero, errConsume
	}
	return action()
}

// Snapshot reports current usage. It never applies a rollover.
func (g *DailyGuard) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		UsedToday:   g.used,
		Limit:       g.limit,
		CurrentDate: g.day,
	}
}

func (g *DailyGuard) dayOf(t time.Time) time.Time {
	y, m, d := t.In(g.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, g.loc)
}
