// Package poller periodically merges freshly published articles into the store.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Adda-Baaj/khobor-reader/internal/aggregate"
	"github.com/Adda-Baaj/khobor-reader/internal/domain"
	"github.com/Adda-Baaj/khobor-reader/internal/logger"
	"github.com/Adda-Baaj/khobor-reader/internal/metrics"
	"github.com/Adda-Baaj/khobor-reader/internal/pagination"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultWindow   = 30 * time.Second
)

// Outcome is the result of the most recent poll.
type Outcome string

const (
	OutcomeIdle     Outcome = "idle"
	OutcomeInFlight Outcome = "in_flight"
	OutcomeSuccess  Outcome = "success"
	OutcomeFailure  Outcome = "failure"
)

// Notifier receives the articles a poll inserted.
type Notifier interface {
	Announce(ctx context.Context, articles []domain.Article) error
}

// Options configures a Poller. SinceLast bounds the recency window by the last
// successful poll instead of Window.
type Options struct {
	Interval  time.Duration
	Window    time.Duration
	SinceLast bool
	Now       func() time.Time
	Notifier  Notifier
	Log       logger.Logger
}

// Status reports the poller's independent fetch state.
type Status struct {
	Outcome     Outcome   `json:"outcome"`
	LastPollAt  time.Time `json:"last_poll_at,omitzero"`
	LastSuccess time.Time `json:"last_success_at,omitzero"`
	Inserted    int       `json:"last_inserted"`
	Error       string    `json:"error,omitempty"`
}

// Poller fetches the current real month on a fixed cadence.
type Poller struct {
	fetcher pagination.Fetcher
	store   *aggregate.Store
	opts    Options
	log     logger.Logger

	mu     sync.Mutex
	status Status
}

// New builds a poller; zero durations fall back to the defaults.
func New(fetcher pagination.Fetcher, store *aggregate.Store, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Poller{
		fetcher: fetcher,
		store:   store,
		opts:    opts,
		log:     logger.Ensure(opts.Log),
		status:  Status{Outcome: OutcomeIdle},
	}
}

// Run waits for ready, then polls every interval until ctx ends. If ctx ends first the
// poller is never scheduled.
func (p *Poller) Run(ctx context.Context, ready <-chan struct{}) error {
	select {
	case <-ctx.Done():
		p.log.InfoObj("poller not scheduled", "reason", ctx.Err().Error())
		return nil
	case <-ready:
	}

	p.log.InfoObj("poller starting", "poller_config", map[string]any{
		"interval":   p.opts.Interval.String(),
		"window":     p.opts.Window.String(),
		"since_last": p.opts.SinceLast,
	})

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("poller exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			// Errors stop here; polling is best effort.
			_, _ = p.PollOnce(ctx)
		}
	}
}

// PollOnce fetches the current month and merges articles that are new and recent. It
// returns the inserted articles.
func (p *Poller) PollOnce(ctx context.Context) ([]domain.Article, error) {
	now := p.opts.Now()
	window := p.window(now)

	p.mu.Lock()
	p.status.Outcome = OutcomeInFlight
	p.status.LastPollAt = now
	p.mu.Unlock()

	current := now.In(p.store.Location())
	articles, err := p.fetcher.FetchMonth(ctx, current.Year(), int(current.Month()))
	if err != nil {
		p.settle(OutcomeFailure, 0, err)
		metrics.RecordPoll("error", 0)
		if !errors.Is(err, context.Canceled) {
			p.log.WarnObj("poll failed", "error", err.Error())
		}
		return nil, err
	}

	inserted := p.store.MergeFresh(articles, now, window)
	p.settle(OutcomeSuccess, len(inserted), nil)
	metrics.RecordPoll("success", len(inserted))
	metrics.SetStoreArticles(p.store.Len())

	if len(inserted) > 0 {
		p.log.InfoObj("fresh articles merged", "poll_meta", map[string]any{
			"inserted": len(inserted),
			"window":   window.String(),
		})
		if p.opts.Notifier != nil {
			if err := p.opts.Notifier.Announce(ctx, inserted); err != nil {
				p.log.WarnObj("announce failed", "error", err.Error())
			}
		}
	}
	return inserted, nil
}

// window returns the recency window for a poll started at now.
func (p *Poller) window(now time.Time) time.Duration {
	if !p.opts.SinceLast {
		return p.opts.Window
	}
	p.mu.Lock()
	last := p.status.LastSuccess
	p.mu.Unlock()
	if last.IsZero() || !now.After(last) {
		return p.opts.Window
	}
	return now.Sub(last)
}

func (p *Poller) settle(outcome Outcome, inserted int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Outcome = outcome
	p.status.Inserted = inserted
	p.status.Error = ""
	if err != nil {
		p.status.Error = err.Error()
		return
	}
	p.status.LastSuccess = p.status.LastPollAt
}

// Status returns the last poll outcome.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
