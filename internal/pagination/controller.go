// Package pagination drives backward-in-time month loads into the aggregation store.
package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Adda-Baaj/khobor-reader/internal/aggregate"
	"github.com/Adda-Baaj/khobor-reader/internal/domain"
	"github.com/Adda-Baaj/khobor-reader/internal/logger"
	"github.com/Adda-Baaj/khobor-reader/internal/metrics"
	"github.com/Adda-Baaj/khobor-reader/pkg/archive"
)

// State is the page-load state of a Controller.
type State string

const (
	StateIdle           State = "idle"
	StateLoadingInitial State = "loading_initial"
	StateLoadingMore    State = "loading_more"
	StateExhausted      State = "exhausted"
	StateErrored        State = "errored"
)

// Display tells the read surface how to present a page-load error.
type Display string

const (
	DisplayFullscreen Display = "fullscreen"
	DisplayBanner     Display = "banner"
)

const errorPrefix = "Failed to load news: "

var (
	// ErrAlreadyStarted is returned by a second LoadInitial call.
	ErrAlreadyStarted = errors.New("initial load already started")
	// ErrClosed is returned when a load settles after Close.
	ErrClosed = errors.New("controller closed")
)

// Fetcher supplies one month of articles.
type Fetcher interface {
	FetchMonth(ctx context.Context, year, month int) ([]domain.Article, error)
}

// Cursor is the (year, month) of the page most recently requested.
type Cursor struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// CursorFor returns the month containing t.
func CursorFor(t time.Time) Cursor {
	return Cursor{Year: t.Year(), Month: int(t.Month())}
}

// Prev steps one calendar month back, wrapping January to the prior December.
func (c Cursor) Prev() Cursor {
	if c.Month <= 1 {
		return Cursor{Year: c.Year - 1, Month: 12}
	}
	return Cursor{Year: c.Year, Month: c.Month - 1}
}

func (c Cursor) String() string { return fmt.Sprintf("%04d-%02d", c.Year, c.Month) }

// Status is a snapshot of the controller.
type Status struct {
	State        State   `json:"state"`
	Cursor       Cursor  `json:"cursor"`
	HasMore      bool    `json:"has_more"`
	Error        string  `json:"error,omitempty"`
	ErrorDisplay Display `json:"error_display,omitempty"`
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock overrides the wall clock used to pick the initial month.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Controller) { c.log = logger.Ensure(log) }
}

// Controller owns the page-load state machine. Only one page load is in flight at a
// time; signals that arrive while loading, exhausted or errored are dropped.
type Controller struct {
	fetcher Fetcher
	store   *aggregate.Store
	log     logger.Logger
	now     func() time.Time

	mu      sync.Mutex
	state   State
	started bool
	active  bool
	cursor  Cursor
	hasMore bool
	err     error

	settled    chan struct{}
	settleOnce sync.Once
	wg         sync.WaitGroup
}

// NewController builds an idle controller over store.
func NewController(fetcher Fetcher, store *aggregate.Store, opts ...Option) *Controller {
	c := &Controller{
		fetcher: fetcher,
		store:   store,
		log:     logger.NopLogger{},
		now:     time.Now,
		state:   StateIdle,
		active:  true,
		hasMore: true,
		settled: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadInitial fetches the current month and replaces the store contents with it.
func (c *Controller) LoadInitial(ctx context.Context) error {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.state = StateLoadingInitial
	c.cursor = CursorFor(c.now().In(c.store.Location()))
	cursor := c.cursor
	c.mu.Unlock()

	c.log.InfoObj("initial load started", "page", map[string]any{"cursor": cursor.String()})
	articles, err := c.fetcher.FetchMonth(ctx, cursor.Year, cursor.Month)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ErrClosed
	}
	defer c.settleOnce.Do(func() { close(c.settled) })

	if err != nil {
		c.failLocked("initial", cursor, err)
		return err
	}

	kept := c.store.ReplaceAll(articles)
	c.finishLocked("initial", cursor, kept)
	return nil
}

// LoadMore steps the cursor back one month and merges that page into the store. It
// reports whether a load ran; a dropped signal returns false with a nil error.
func (c *Controller) LoadMore(ctx context.Context) (bool, error) {
	cursor, ok := c.begin()
	if !ok {
		return false, nil
	}
	defer c.wg.Done()
	return true, c.loadMore(ctx, cursor)
}

// Signal is the asynchronous boundary signal. The load runs on a goroutine owned by the
// controller and Close waits for it. It reports whether the signal was accepted.
func (c *Controller) Signal(ctx context.Context) bool {
	cursor, ok := c.begin()
	if !ok {
		return false
	}
	go func() {
		defer c.wg.Done()
		if err := c.loadMore(ctx, cursor); err != nil && !errors.Is(err, ErrClosed) {
			c.log.WarnObj("page load failed", "page", map[string]any{
				"cursor": cursor.String(),
				"error":  err.Error(),
			})
		}
	}()
	return true
}

// begin performs the Idle -> LoadingMore transition under the lock.
func (c *Controller) begin() (Cursor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || !c.started || c.state != StateIdle || !c.hasMore {
		c.log.DebugObj("boundary signal dropped", "state", string(c.state))
		return Cursor{}, false
	}
	c.cursor = c.cursor.Prev()
	c.state = StateLoadingMore
	c.wg.Add(1)
	return c.cursor, true
}

func (c *Controller) loadMore(ctx context.Context, cursor Cursor) error {
	articles, err := c.fetcher.FetchMonth(ctx, cursor.Year, cursor.Month)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ErrClosed
	}
	if err != nil {
		c.failLocked("more", cursor, err)
		return err
	}

	inserted := c.store.MergeAppend(articles)
	c.finishLocked("more", cursor, admissibleCount(articles))
	c.log.InfoObj("page merged", "page", map[string]any{
		"cursor":   cursor.String(),
		"inserted": len(inserted),
	})
	return nil
}

func (c *Controller) finishLocked(kind string, cursor Cursor, admissible int) {
	if admissible == 0 {
		c.state = StateExhausted
		c.hasMore = false
		c.log.InfoObj("archive exhausted", "page", map[string]any{"cursor": cursor.String()})
	} else {
		c.state = StateIdle
	}
	metrics.RecordPageLoad(kind, "success")
	metrics.SetStoreArticles(c.store.Len())
}

func (c *Controller) failLocked(kind string, cursor Cursor, err error) {
	c.state = StateErrored
	c.err = err
	metrics.RecordPageLoad(kind, "error")
	c.log.ErrorObj("page load failed", "page", map[string]any{
		"kind":   kind,
		"cursor": cursor.String(),
		"error":  err.Error(),
	})
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{State: c.state, Cursor: c.cursor, HasMore: c.hasMore}
	if c.state == StateErrored && c.err != nil {
		st.Error = errorPrefix + archive.Describe(c.err)
		st.ErrorDisplay = DisplayBanner
		if c.store.Len() == 0 {
			st.ErrorDisplay = DisplayFullscreen
		}
	}
	return st
}

// Settled is closed once the initial load has settled, successfully or not.
func (c *Controller) Settled() <-chan struct{} { return c.settled }

// Close marks the controller inactive and waits for owned loads to return. Results that
// arrive afterwards are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
	c.wg.Wait()
}

func admissibleCount(articles []domain.Article) int {
	n := 0
	for _, a := range articles {
		if a.Validate() == nil {
			n++
		}
	}
	return n
}
