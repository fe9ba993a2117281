package fetcher

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// QuotaWindow is the sliding window the hourly quota is measured over.
const QuotaWindow = time.Hour

var (
	// ErrBudgetExhausted reports that the run spent its external call budget.
	ErrBudgetExhausted = errors.New("per-run external call budget exhausted")
	// ErrQuotaExhausted reports that the hourly API quota is used up.
	ErrQuotaExhausted = errors.New("hourly api quota exhausted")
)

// CallKind distinguishes quota-bearing API calls from plain downloads.
type CallKind int

const (
	// CallSearch is an API request and counts toward the hourly quota. A granted
	// search also holds one budget unit for the download that follows it.
	CallSearch CallKind = iota
	// CallDownload fetches bytes from the CDN and only counts toward the budget.
	CallDownload
)

// SchedulerConfig bounds external traffic.
type SchedulerConfig struct {
	// MinInterval is the minimum spacing between any two external calls.
	MinInterval time.Duration
	// HourlyQuota caps API calls in any sliding hour. Zero or less disables it.
	HourlyQuota int
	// Budget caps all external calls for the run.
	Budget int
	// History seeds API call times from earlier runs.
	History []time.Time
}

// Scheduler paces and counts external calls.
type Scheduler struct {
	clock   Clock
	limiter *rate.Limiter
	quota   int
	budget  int

	mu    sync.Mutex
	used  int
	held  int
	calls []time.Time
}

// NewScheduler builds a scheduler. A nil clock uses the wall clock.
func NewScheduler(clock Clock, cfg SchedulerConfig) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	s := &Scheduler{
		clock:   clock,
		limiter: rate.NewLimiter(limit, 1),
		quota:   cfg.HourlyQuota,
		budget:  max(cfg.Budget, 0),
	}
	s.calls = append(s.calls, cfg.History...)
	slices.SortFunc(s.calls, func(a, b time.Time) int { return a.Compare(b) })
	return s
}

// Acquire reserves one call of the given kind and waits out the minimum
// interval. Refused calls consume nothing. A search is refused unless the
// budget also covers its download; a download first spends a unit held by an
// earlier search.
func (s *Scheduler) Acquire(ctx context.Context, kind CallKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	now := s.clock.Now()
	need := 1
	switch {
	case kind == CallSearch:
		need = 2
	case s.held > 0:
		need = 0
	}
	if s.used+s.held+need > s.budget {
		s.mu.Unlock()
		return ErrBudgetExhausted
	}
	if kind == CallSearch && s.quota > 0 {
		s.pruneLocked(now)
		if len(s.calls) >= s.quota {
			s.mu.Unlock()
			return ErrQuotaExhausted
		}
	}
	s.used++
	switch {
	case kind == CallSearch:
		s.held++
	case s.held > 0:
		s.held--
	}
	reservation := s.limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	if kind == CallSearch {
		s.calls = append(s.calls, now.Add(delay))
	}
	s.mu.Unlock()

	return s.clock.Sleep(ctx, delay)
}

func (s *Scheduler) pruneLocked(now time.Time) {
	cutoff := now.Add(-QuotaWindow)
	idx := 0
	for idx < len(s.calls) && !s.calls[idx].After(cutoff) {
		idx++
	}
	s.calls = s.calls[idx:]
}

// Forfeit gives back the download unit held by a search whose result will
// not be downloaded.
func (s *Scheduler) Forfeit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held > 0 {
		s.held--
	}
}

// Used returns how many calls the run has made.
func (s *Scheduler) Used() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// Remaining returns the run budget neither spent nor held for a download.
func (s *Scheduler) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget - s.used - s.held
}

// History returns API call times still inside the quota window, oldest first.
func (s *Scheduler) History() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.clock.Now())
	return slices.Clone(s.calls)
}
