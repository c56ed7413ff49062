package consultations

import (
	"context"
	"errors"
	"sync"
	"time"

	"healthcare-portal/internal/clinicalapi"
	"healthcare-portal/internal/metrics"

	"go.uber.org/zap"
)

// DefaultInterval is the feed refresh cadence.
const DefaultInterval = 5 * time.Second

// FetchFunc fetches one page of raw consultations.
type FetchFunc func(ctx context.Context) ([]clinicalapi.Consultation, error)

// Poller refreshes a Reconciler on a fixed interval. A tick is issued even if
// the previous fetch is still in flight; ordering is left to the reconciler's
// sequence numbers.
type Poller struct {
	Interval time.Duration

	rec            *Reconciler
	fetch          FetchFunc
	log            *zap.Logger
	metrics        *metrics.Collector
	onUnauthorized func(error)

	mu       sync.Mutex
	cancel   context.CancelFunc
	stopped  bool
	wg       sync.WaitGroup
	authOnce sync.Once
}

// NewPoller creates a poller. onUnauthorized is called at most once, from its
// own goroutine, when the clinical API rejects the session; by then polling
// has already stopped.
func NewPoller(rec *Reconciler, fetch FetchFunc, interval time.Duration, logger *zap.Logger, collector *metrics.Collector, onUnauthorized func(error)) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if onUnauthorized == nil {
		onUnauthorized = func(error) {}
	}
	return &Poller{
		Interval:       interval,
		rec:            rec,
		fetch:          fetch,
		log:            logger,
		metrics:        collector,
		onUnauthorized: onUnauthorized,
	}
}

// Start fetches once immediately and then on every tick until Stop is called,
// ctx is cancelled, or the session is rejected. Calling Start again is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil || p.stopped {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.run(runCtx)
}

// Stop cancels the timer and any in-flight fetch, then waits for them to
// return. No result is committed after Stop returns. Stop is idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.rec.Deactivate()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	seq := p.rec.Begin()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.fetchAndCommit(ctx, seq)
	}()
}

func (p *Poller) fetchAndCommit(ctx context.Context, seq uint64) {
	start := time.Now()
	raws, err := p.fetch(ctx)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, clinicalapi.ErrUnauthorized) {
			p.metrics.RecordPoll(metrics.PollUnauthorized, elapsed)
			p.log.Info("consultations.Poller session rejected; stopping",
				zap.Uint64("seq", seq),
				zap.Error(err),
			)
			p.terminate(err)
			return
		}
		p.metrics.RecordPoll(metrics.PollError, elapsed)
		p.log.Warn("consultations.Poller fetch failed; keeping current feed",
			zap.Uint64("seq", seq),
			zap.Error(err),
		)
		return
	}

	result := p.rec.Commit(seq, TransformAll(raws))
	p.metrics.RecordPoll(result.String(), elapsed)
	p.log.Debug("consultations.Poller fetch committed",
		zap.Uint64("seq", seq),
		zap.Stringer("result", result),
		zap.Int("count", len(raws)),
		zap.Duration("elapsed", elapsed),
	)
}

// terminate stops polling without waiting on the fetch goroutine that calls it.
func (p *Poller) terminate(err error) {
	p.mu.Lock()
	p.stopped = true
	p.rec.Deactivate()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()

	p.authOnce.Do(func() {
		go p.onUnauthorized(err)
	})
}
