package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dispatchhq/dispatch/internal/types"
)

// MissionSource lists the missions a sweep re-evaluates. The reconcile
// mirror satisfies this.
type MissionSource interface {
	ListMissions(ctx context.Context) ([]*types.Mission, error)
}

// BucketChange reports one mission crossing buckets between sweeps,
// typically the queued to ready promotion at its scheduled instant.
type BucketChange struct {
	MissionID string
	From      Bucket
	To        Bucket
}

// Sweeper consumes scheduler-tick requests and a wall-clock interval,
// re-buckets every mission, and reports changes. Sweep frequency is
// bounded by a rate limiter so bursts of tick requests collapse into one
// pass.
type Sweeper struct {
	source   MissionSource
	ticks    *TickRequester
	limiter  *rate.Limiter
	interval time.Duration
	onChange func(BucketChange)
	now      func() time.Time

	mu   sync.Mutex
	last map[string]Bucket
}

// SweeperConfig configures a Sweeper.
type SweeperConfig struct {
	Source MissionSource
	Ticks  *TickRequester

	// Interval is the wall-clock re-evaluation period for time-based
	// promotions. Zero disables the timer (tick requests still sweep).
	Interval time.Duration

	// MaxSweepsPerSecond bounds how often sweeps actually run. Zero means
	// one sweep per second.
	MaxSweepsPerSecond float64

	// OnChange receives each bucket transition observed by a sweep.
	OnChange func(BucketChange)

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewSweeper creates a sweeper. Source is required.
func NewSweeper(cfg SweeperConfig) *Sweeper {
	limit := cfg.MaxSweepsPerSecond
	if limit <= 0 {
		limit = 1
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		source:   cfg.Source,
		ticks:    cfg.Ticks,
		limiter:  rate.NewLimiter(rate.Limit(limit), 1),
		interval: cfg.Interval,
		onChange: cfg.OnChange,
		now:      now,
		last:     make(map[string]Bucket),
	}
}

// Run loops until the context is cancelled, sweeping on every tick request
// and on the wall-clock interval.
func (s *Sweeper) Run(ctx context.Context) error {
	var tickC <-chan struct{}
	if s.ticks != nil {
		tickC = s.ticks.C()
	}

	var timerC <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		timerC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tickC:
		case <-timerC:
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.Sweep(ctx); err != nil {
			slog.Warn("promotion sweep failed", "error", err)
		}
	}
}

// Sweep re-buckets every mission once and reports transitions. Derivation
// is pure per mission, so the fan-out is safe to run concurrently.
func (s *Sweeper) Sweep(ctx context.Context) error {
	missions, err := s.source.ListMissions(ctx)
	if err != nil {
		return err
	}
	now := s.now()

	buckets := make([]Bucket, len(missions))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, m := range missions {
		i, m := i, m
		g.Go(func() error {
			buckets[i] = For(m, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(missions))
	for i, m := range missions {
		seen[m.ID] = true
		next := buckets[i]
		prev, ok := s.last[m.ID]
		s.last[m.ID] = next
		if ok && prev != next && s.onChange != nil {
			s.onChange(BucketChange{MissionID: m.ID, From: prev, To: next})
		}
	}
	for id := range s.last {
		if !seen[id] {
			delete(s.last, id)
		}
	}
	return nil
}
