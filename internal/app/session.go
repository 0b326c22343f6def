package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Adda-Baaj/khobor-reader/internal/aggregate"
	"github.com/Adda-Baaj/khobor-reader/internal/announce"
	"github.com/Adda-Baaj/khobor-reader/internal/config"
	"github.com/Adda-Baaj/khobor-reader/internal/domain"
	"github.com/Adda-Baaj/khobor-reader/internal/logger"
	"github.com/Adda-Baaj/khobor-reader/internal/pagination"
	"github.com/Adda-Baaj/khobor-reader/internal/poller"
	"github.com/Adda-Baaj/khobor-reader/internal/storage"
	"github.com/Adda-Baaj/khobor-reader/pkg/archive"
	"github.com/Adda-Baaj/khobor-reader/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-reader/pkg/publishers"
	"github.com/google/uuid"
)

// Session owns one reader pipeline: adapter, store, page controller, poller and the
// optional announcer. Close tears it down deterministically.
type Session struct {
	id         string
	cfg        *config.Config
	log        logger.Logger
	adapter    *archive.Adapter
	store      *aggregate.Store
	controller *pagination.Controller
	poller     *poller.Poller
	fanout     *publishers.Fanout
	seen       storage.Store

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	closed    bool
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// Status is the combined view served to readers.
type Status struct {
	SessionID        string            `json:"session_id"`
	Mode             archive.Mode      `json:"mode"`
	Strategy         string            `json:"strategy"`
	APIKeyConfigured bool              `json:"api_key_configured"`
	Articles         int               `json:"articles"`
	Days             int               `json:"days"`
	Page             pagination.Status `json:"page"`
	Poll             poller.Status     `json:"poll"`
}

// ConnectionResult is the outcome of an on-demand archive connection test.
type ConnectionResult struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Mode     string    `json:"mode"`
	TestedAt time.Time `json:"tested_at"`
}

// NewSession wires a session from config. Sinks are built only when a publishers file
// is configured.
func NewSession(ctx context.Context, cfg *config.Config, log logger.Logger) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log = logger.Ensure(log)

	mode, err := archive.ParseMode(cfg.ArchiveMode)
	if err != nil {
		return nil, err
	}
	adapter := archive.NewAdapter(archive.Options{
		Mode: mode,
		Remote: archive.RemoteOptions{
			BaseURL:       cfg.APIBaseURL,
			APIKey:        cfg.APIKey,
			ProxyURL:      cfg.CORSProxyURL,
			Delay:         cfg.APIDelay,
			RatePerMinute: cfg.RatePerMinute,
		},
		Seed: cfg.SyntheticSeed,
	}, httpclient.NewRestyClient(cfg.HTTPTimeout), log)

	return newSession(ctx, cfg, adapter, log)
}

func newSession(ctx context.Context, cfg *config.Config, adapter *archive.Adapter, log logger.Logger) (*Session, error) {
	s := &Session{
		id:      uuid.NewString(),
		cfg:     cfg,
		log:     log,
		adapter: adapter,
		store:   aggregate.NewStore(cfg.Location),
	}
	if zl, ok := log.(*logger.ZapLogger); ok {
		s.log = zl.With("session_id", s.id)
	}

	var notifier poller.Notifier
	if cfg.PublishersFile != "" {
		a, err := s.initAnnouncer(ctx)
		if err != nil {
			return nil, err
		}
		notifier = a
	}

	s.controller = pagination.NewController(adapter, s.store, pagination.WithLogger(s.log))
	s.poller = poller.New(adapter, s.store, poller.Options{
		Interval:  cfg.PollInterval,
		Window:    cfg.PollWindow,
		SinceLast: cfg.PollSinceLast,
		Notifier:  notifier,
		Log:       s.log,
	})

	s.log.InfoObj("session created", "session_meta", map[string]any{
		"session_id":    s.id,
		"mode":          string(adapter.Mode()),
		"strategy":      adapter.Name(),
		"poll_interval": cfg.PollInterval.String(),
		"announcing":    notifier != nil,
	})
	return s, nil
}

// initAnnouncer loads sinks and the seen store.
func (s *Session) initAnnouncer(ctx context.Context) (*announce.Announcer, error) {
	cfgs, err := publishers.LoadConfigs(s.cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	enabled := publishers.Enabled(cfgs)
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no publishers enabled in %s", s.cfg.PublishersFile)
	}

	pubs, err := publishers.DefaultBuilders().Build(ctx, enabled, s.log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	s.fanout = publishers.NewFanout(pubs)

	summaries := make([]map[string]string, 0, len(enabled))
	for _, p := range enabled {
		summaries = append(summaries, map[string]string{"id": p.ID, "type": p.Type})
	}
	s.log.InfoObj("publishers loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})

	seen, err := storage.NewStore(s.cfg.StorageType, storage.Options{
		ArticleTTL:      s.cfg.StorageTTL,
		CleanupInterval: s.cfg.StorageCleanupInterval,
		BBoltPath:       s.cfg.BBoltPath,
		RedisAddr:       s.cfg.RedisAddr,
		RedisPassword:   s.cfg.RedisPassword,
		RedisDB:         s.cfg.RedisDB,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), s.fanout.Close())
	}
	s.seen = seen
	s.log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     s.cfg.StorageType,
		"article_ttl_seconds":      int(s.cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(s.cfg.StorageCleanupInterval.Seconds()),
	})

	return announce.New(s.fanout, seen, s.id, s.cfg.Location, s.log), nil
}

// ID returns the session identifier used for log correlation.
func (s *Session) ID() string { return s.id }

// Start launches the initial load and the poller. The poller only runs once the initial
// load has settled.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil || s.closed {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.controller.LoadInitial(s.ctx); err != nil && !errors.Is(err, pagination.ErrClosed) {
			s.log.ErrorObj("initial load failed", "error", err.Error())
		}
	}()
	go func() {
		defer s.wg.Done()
		_ = s.poller.Run(s.ctx, s.controller.Settled())
	}()
}

// Run starts the session and blocks until ctx ends, then closes it.
func (s *Session) Run(ctx context.Context) error {
	s.Start(ctx)
	<-ctx.Done()
	s.log.InfoObj("session stopping", "reason", ctx.Err().Error())
	return s.Close()
}

// Signal is the boundary signal from the read surface. It reports whether a page load
// was started.
func (s *Session) Signal() bool {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return false
	}
	return s.controller.Signal(ctx)
}

// Settled is closed once the initial load has settled.
func (s *Session) Settled() <-chan struct{} { return s.controller.Settled() }

// SortedDateKeys returns loaded days, newest first.
func (s *Session) SortedDateKeys() []domain.DateKey { return s.store.SortedDateKeys() }

// Bucket returns the articles of one day, newest first.
func (s *Session) Bucket(key domain.DateKey) []domain.Article { return s.store.Bucket(key) }

// Status reports pipeline state.
func (s *Session) Status() Status {
	return Status{
		SessionID:        s.id,
		Mode:             s.adapter.Mode(),
		Strategy:         s.adapter.Name(),
		APIKeyConfigured: config.ValidAPIKey(s.cfg.APIKey),
		Articles:         s.store.Len(),
		Days:             len(s.store.SortedDateKeys()),
		Page:             s.controller.Status(),
		Poll:             s.poller.Status(),
	}
}

// TestConnection checks the remote archive for the current month. It never touches the
// store and never falls back to synthetic data.
func (s *Session) TestConnection(ctx context.Context) ConnectionResult {
	ok, msg := s.adapter.TestConnection(ctx)
	return ConnectionResult{
		Success:  ok,
		Message:  msg,
		Mode:     string(s.adapter.Mode()),
		TestedAt: time.Now().UTC(),
	}
}

// Close cancels the session, waits for the poller and any page load, then releases the
// store, sinks and seen store. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		if s.cancel != nil {
			s.cancel()
		}
		s.mu.Unlock()

		s.controller.Close()
		s.wg.Wait()
		s.store.Close()

		var errs []error
		if err := s.fanout.Close(); err != nil {
			errs = append(errs, err)
		}
		if s.seen != nil {
			if err := s.seen.Close(); err != nil {
				errs = append(errs, fmt.Errorf("storage close: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
		s.log.InfoObj("session closed", "session_id", s.id)
	})
	return s.closeErr
}
