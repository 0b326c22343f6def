package publishers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adda-Baaj/khobor-reader/internal/domain"
	"github.com/google/uuid"
)

// EventKindFresh marks an article first merged by a freshness poll.
const EventKindFresh = "article.fresh"

// Event represents the payload published downstream.
type Event struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	SessionID   string         `json:"session_id,omitempty"`
	DateKey     domain.DateKey `json:"date_key"`
	Article     domain.Article `json:"article"`
	AnnouncedAt time.Time      `json:"announced_at"`
}

// NewEvent wraps a freshly merged article for delivery.
func NewEvent(sessionID string, dateKey domain.DateKey, article domain.Article) Event {
	return Event{
		ID:          uuid.NewString(),
		Kind:        EventKindFresh,
		SessionID:   sessionID,
		DateKey:     dateKey,
		Article:     article,
		AnnouncedAt: time.Now().UTC(),
	}
}

// attributes are the string metadata attached to queue and topic messages.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{
		"event_kind": e.Kind,
		"article_id": e.Article.ID,
		"date_key":   e.DateKey.String(),
	}
	if e.Article.Section != "" {
		attrs["section"] = e.Article.Section
	}
	return attrs
}

// encode renders the JSON message body for queue and topic sinks.
func (e Event) encode() (string, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal event %s: %w", e.ID, err)
	}
	return string(payload), nil
}
