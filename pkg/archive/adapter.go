package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-reader/internal/domain"
	"github.com/Adda-Baaj/khobor-reader/internal/logger"
	"github.com/Adda-Baaj/khobor-reader/internal/metrics"
	"github.com/Adda-Baaj/khobor-reader/pkg/httpclient"
)

// Strategy names reported by Source.Name.
const (
	StrategyRemote    = "remote"
	StrategySynthetic = "synthetic"
)

// Mode selects how the Adapter chains its strategies.
type Mode string

const (
	// ModeAuto tries the remote strategy and falls back to synthetic data on any failure.
	ModeAuto Mode = "auto"
	// ModeRemote pins the remote strategy; failures propagate.
	ModeRemote Mode = "remote"
	// ModeMock serves synthetic data only.
	ModeMock Mode = "mock"
)

// ParseMode maps a config value onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAuto, ModeRemote, ModeMock:
		return m, nil
	case "":
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("unsupported archive mode %q", s)
	}
}

// Source fetches one month of archive articles.
type Source interface {
	Name() string
	FetchMonth(ctx context.Context, year, month int) ([]domain.Article, error)
}

// Options configures NewAdapter.
type Options struct {
	Mode   Mode
	Remote RemoteOptions
	Seed   uint64
}

// Adapter is the Source used by the pipeline: it resolves the strategy once and applies the
// fallback policy at its boundary.
type Adapter struct {
	mode      Mode
	remote    Source
	synthetic Source
	log       logger.Logger
}

// NewAdapter builds the remote and synthetic strategies from opts.
func NewAdapter(opts Options, client httpclient.Client, log logger.Logger) *Adapter {
	var remote Source
	if opts.Mode != ModeMock {
		remote = NewRemoteSource(opts.Remote, client, log)
	}
	return NewAdapterWith(opts.Mode, remote, NewSyntheticSource(opts.Seed), log)
}

// NewAdapterWith assembles an Adapter from explicit strategies.
func NewAdapterWith(mode Mode, remote, synthetic Source, log logger.Logger) *Adapter {
	if mode == "" {
		mode = ModeAuto
	}
	if remote == nil {
		mode = ModeMock
	}
	return &Adapter{
		mode:      mode,
		remote:    remote,
		synthetic: synthetic,
		log:       logger.Ensure(log),
	}
}

// Mode reports the resolved mode.
func (a *Adapter) Mode() Mode { return a.mode }

func (a *Adapter) Name() string {
	if a.mode == ModeMock {
		return StrategySynthetic
	}
	return StrategyRemote
}

// FetchMonth returns the admissible articles for (year, month).
func (a *Adapter) FetchMonth(ctx context.Context, year, month int) ([]domain.Article, error) {
	if a == nil || a.synthetic == nil {
		return nil, fmt.Errorf("archive adapter is not initialized")
	}
	if a.mode == ModeMock {
		return a.fetch(ctx, a.synthetic, year, month)
	}

	articles, err := a.fetch(ctx, a.remote, year, month)
	if err == nil {
		return articles, nil
	}
	if !a.fallbackEligible(ctx, err) {
		return nil, err
	}

	reason := fallbackReason(err)
	a.log.WarnObj("remote archive failed; serving synthetic data", "archive_fallback", map[string]any{
		"year":   year,
		"month":  month,
		"reason": reason,
		"error":  err.Error(),
	})
	metrics.RecordFallback(reason)

	return a.fetch(ctx, a.synthetic, year, month)
}

// TestConnection fetches the current month from the remote strategy without falling back.
// It reports success and a message for the reader; mock mode always succeeds.
func (a *Adapter) TestConnection(ctx context.Context) (bool, string) {
	if a == nil {
		return false, "archive adapter is not initialized"
	}
	if a.mode == ModeMock {
		a.log.InfoObj("connection test skipped", "mode", string(a.mode))
		return true, "Mock mode enabled; connection test skipped."
	}

	now := time.Now().UTC()
	articles, err := a.fetch(ctx, a.remote, now.Year(), int(now.Month()))
	if err != nil {
		a.log.WarnObj("connection test failed", "error", err.Error())
		return false, Describe(err)
	}
	a.log.InfoObj("connection test succeeded", "articles", len(articles))
	return true, fmt.Sprintf("Connected to the archive API: %d articles for %04d-%02d.",
		len(articles), now.Year(), int(now.Month()))
}

func (a *Adapter) fallbackEligible(ctx context.Context, err error) bool {
	if a.mode == ModeRemote {
		return false
	}
	// A cancelled session has nobody to serve; argument errors fail the same way synthetically.
	if ctx.Err() != nil || errors.Is(err, ErrValidation) {
		return false
	}
	return true
}

func (a *Adapter) fetch(ctx context.Context, src Source, year, month int) ([]domain.Article, error) {
	start := time.Now()
	articles, err := src.FetchMonth(ctx, year, month)
	if err != nil {
		metrics.RecordFetch(src.Name(), "error", time.Since(start))
		return nil, fmt.Errorf("%s fetch %04d-%02d: %w", src.Name(), year, month, err)
	}
	metrics.RecordFetch(src.Name(), "success", time.Since(start))
	return a.admissible(articles), nil
}

// admissible drops records failing the validity invariant; they are logged, never surfaced.
func (a *Adapter) admissible(articles []domain.Article) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	dropped := 0
	for _, art := range articles {
		if err := art.Validate(); err != nil {
			dropped++
			continue
		}
		out = append(out, art)
	}
	if dropped > 0 {
		a.log.DebugObj("archive records dropped", "archive_validation", map[string]any{
			"dropped": dropped,
			"kept":    len(out),
		})
	}
	return out
}

func fallbackReason(err error) string {
	var te *TransportError
	switch {
	case errors.As(err, &te):
		return string(te.Kind)
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	default:
		return "unknown"
	}
}
