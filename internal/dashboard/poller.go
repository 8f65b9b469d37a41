// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/config"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

// StatusFetcher fetches one status snapshot.
type StatusFetcher func(ctx context.Context) (models.ProjectStatus, error)

// PollerOptions configures a Poller. Zero values fall back to defaults.
type PollerOptions struct {
	Clock       clock.Clock
	Interval    time.Duration
	BackoffBase time.Duration
	BackoffMax  time.Duration
	OnSnapshot  func(models.ProjectStatus)
	OnFailure   func(err error, failures int)
}

// PollerOptionsFromConfig maps the poll section of the app config.
func PollerOptionsFromConfig(cfg config.PollConfig) PollerOptions {
	return PollerOptions{
		Interval:    cfg.Interval,
		BackoffBase: cfg.BackoffBase,
		BackoffMax:  cfg.BackoffMax,
	}
}

// Poller fetches the status snapshot on a fixed interval.
//
// Failures arm an exponential backoff window (base, doubling, capped at max).
// Ticks that land inside the window are skipped; the interval timer itself
// keeps its cadence, so backoff can only thin out attempts, never stall them.
type Poller struct {
	opts  PollerOptions
	fetch StatusFetcher

	mu        sync.Mutex
	running   bool
	timer     *clock.Timer
	ctx       context.Context
	cancel    context.CancelFunc
	inFlight  bool
	failures  int
	holdUntil time.Time
	wg        sync.WaitGroup
}

// NewPoller returns a stopped poller.
func NewPoller(fetch StatusFetcher, opts PollerOptions) *Poller {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Interval <= 0 {
		opts.Interval = 3 * time.Second
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Second
	}
	if opts.BackoffMax < opts.BackoffBase {
		opts.BackoffMax = 10 * opts.BackoffBase
	}
	return &Poller{opts: opts, fetch: fetch}
}

// Start begins polling. The first fetch runs right away in the background.
// Starting a running poller does nothing.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.failures = 0
	p.holdUntil = time.Time{}
	p.scheduleLocked()
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		p.poll()
	}()
}

// Stop cancels the timer and any in-flight fetch, and waits for it to
// return. No callback runs after Stop returns. It must not be called from
// OnSnapshot or OnFailure.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
}

// Failures returns the current failure streak.
func (p *Poller) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

// Backoff returns the hold applied after n consecutive failures.
func (p *Poller) Backoff(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	d := p.opts.BackoffBase
	for i := 1; i < n; i++ {
		d *= 2
		if d >= p.opts.BackoffMax {
			return p.opts.BackoffMax
		}
	}
	return d
}

func (p *Poller) scheduleLocked() {
	p.timer = p.opts.Clock.AfterFunc(p.opts.Interval, p.tick)
}

func (p *Poller) tick() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.scheduleLocked()
	p.wg.Add(1)
	p.mu.Unlock()

	defer p.wg.Done()
	p.poll()
}

func (p *Poller) poll() {
	log := logger.GetDashboardLogger()

	p.mu.Lock()
	if !p.running || p.inFlight {
		p.mu.Unlock()
		return
	}
	if hold := p.holdUntil; p.opts.Clock.Now().Before(hold) {
		p.mu.Unlock()
		log.Debug().Time("hold_until", hold).Msg("Skipping poll inside backoff window")
		return
	}
	p.inFlight = true
	ctx := p.ctx
	p.mu.Unlock()

	snap, err := p.fetch(ctx)

	p.mu.Lock()
	p.inFlight = false
	if !p.running || ctx.Err() != nil {
		p.mu.Unlock()
		return
	}
	var failures int
	if err != nil {
		p.failures++
		failures = p.failures
		p.holdUntil = p.opts.Clock.Now().Add(p.Backoff(failures))
	} else {
		p.failures = 0
		p.holdUntil = time.Time{}
	}
	p.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Int("failures", failures).Msg("Status poll failed")
		if p.opts.OnFailure != nil {
			p.opts.OnFailure(err, failures)
		}
		return
	}
	if p.opts.OnSnapshot != nil {
		p.opts.OnSnapshot(snap)
	}
}
