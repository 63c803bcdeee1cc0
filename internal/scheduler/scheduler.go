// Package scheduler drives daily runs and manual triggers against a
// single-flight worker: at most one run executes at a time, with a
// pending queue of depth one.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/LinkfordSolutions/lead-scraper-system/internal/config"
)

type Task func(ctx context.Context) error

type Scheduler struct {
	Log  zerolog.Logger
	Task Task

	// Config returns the current configuration; daily_at changes take
	// effect when the next wakeup is computed.
	Config func() config.Config

	mu      sync.Mutex
	running bool
	pending bool
	wake    chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(log zerolog.Logger, cfgFn func() config.Config, task Task) *Scheduler {
	return &Scheduler{
		Log:    log,
		Task:   task,
		Config: cfgFn,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Start launches the clock and worker goroutines. ctx cancellation (or
// Stop) shuts both down; an in-flight run is allowed to finish.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clock(ctx)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
}

// Stop drains the scheduler. The in-flight run keeps the background
// context it was started with, so its work is not interrupted.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// TriggerNow requests a run. Returns false when a run is already
// executing and one more is already queued behind it.
func (s *Scheduler) TriggerNow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		if s.pending {
			return false
		}
		s.pending = true
		return true
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// Running reports whether a run is currently executing.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) clock(ctx context.Context) {
	for {
		next := s.nextWakeup(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.Log.Info().Time("scheduled_for", next).Msg("daily trigger")
			s.TriggerNow()
		}
	}
}

// nextWakeup computes the next daily_at wall-clock instant after now.
func (s *Scheduler) nextWakeup(now time.Time) time.Time {
	hour, minute, err := config.ParseDailyAt(s.Config().Schedule.DailyAt)
	if err != nil {
		hour, minute = 3, 30
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			s.running = true
			s.mu.Unlock()

			if err := s.Task(ctx); err != nil {
				s.Log.Error().Err(err).Msg("run error")
			}

			s.mu.Lock()
			s.running = false
			again := s.pending
			s.pending = false
			s.mu.Unlock()

			if !again || ctx.Err() != nil {
				break
			}
		}
	}
}
