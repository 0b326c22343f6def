// Package announce forwards freshly merged articles to the configured event sinks.
package announce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/khobor-reader/internal/domain"
	"github.com/Adda-Baaj/khobor-reader/internal/logger"
	"github.com/Adda-Baaj/khobor-reader/internal/metrics"
	"github.com/Adda-Baaj/khobor-reader/internal/storage"
	"github.com/Adda-Baaj/khobor-reader/pkg/publishers"
)

// EventPublisher delivers one event and reports how many sinks accepted it.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Announcer publishes each article at most once per seen-store TTL.
type Announcer struct {
	pub       EventPublisher
	seen      storage.Store
	sessionID string
	loc       *time.Location
	log       logger.Logger
}

// New builds an announcer. A nil seen store disables de-duplication across restarts.
func New(pub EventPublisher, seen storage.Store, sessionID string, loc *time.Location, log logger.Logger) *Announcer {
	if seen == nil {
		seen, _ = storage.NewStore(storage.TypeNone, storage.Options{})
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Announcer{pub: pub, seen: seen, sessionID: sessionID, loc: loc, log: logger.Ensure(log)}
}

// Announce publishes articles not seen before and marks the delivered ones. Failures
// for individual articles are joined; the remaining articles are still attempted.
func (a *Announcer) Announce(ctx context.Context, articles []domain.Article) error {
	if a == nil || a.pub == nil {
		return nil
	}

	var errs []error
	published := 0
	for _, article := range articles {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		seen, err := a.seen.SeenArticle(ctx, article.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("check seen %s: %w", article.ID, err))
			metrics.RecordAnnounce("error")
			continue
		}
		if seen {
			metrics.RecordAnnounce("duplicate")
			continue
		}

		evt := publishers.NewEvent(a.sessionID, domain.KeyFor(article.PublishedAt, a.loc), article)
		delivered, err := a.pub.Publish(ctx, evt)
		if err != nil {
			errs = append(errs, fmt.Errorf("announce %s: %w", article.ID, err))
		}
		if delivered == 0 {
			metrics.RecordAnnounce("error")
			continue
		}

		if err := a.seen.MarkArticle(ctx, article.ID); err != nil {
			errs = append(errs, fmt.Errorf("mark seen %s: %w", article.ID, err))
		}
		metrics.RecordAnnounce("published")
		published++
	}

	a.log.InfoObj("fresh articles announced", "announce_meta", map[string]any{
		"session_id": a.sessionID,
		"candidates": len(articles),
		"published":  published,
		"errors":     len(errs),
	})
	return errors.Join(errs...)
}
