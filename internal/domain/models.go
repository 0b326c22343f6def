package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Domain contains core models and interfaces.

// ErrInvalidArticle marks an article that fails the admissibility check.
var ErrInvalidArticle = errors.New("invalid article")

// Media is an attachment (usually an image) referenced by an article.
type Media struct {
	URL     string `json:"url"`
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Caption string `json:"caption,omitempty"`
}

// Article is an immutable archive record.
type Article struct {
	ID          string    `json:"id"`
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
	Source      string    `json:"source"`
	Section     string    `json:"section,omitempty"`
	Byline      string    `json:"byline,omitempty"`
	WordCount   int       `json:"word_count,omitempty"`
	Multimedia  []Media   `json:"multimedia,omitempty"`
}

// Validate reports why an article cannot be admitted, wrapping ErrInvalidArticle.
func (a Article) Validate() error {
	switch {
	case strings.TrimSpace(a.Summary) == "":
		return fmt.Errorf("%w: summary is empty (id %q)", ErrInvalidArticle, a.ID)
	case strings.TrimSpace(a.Link) == "":
		return fmt.Errorf("%w: link is empty (id %q)", ErrInvalidArticle, a.ID)
	case strings.TrimSpace(a.Headline) == "":
		return fmt.Errorf("%w: headline is empty (id %q)", ErrInvalidArticle, a.ID)
	case a.PublishedAt.IsZero():
		return fmt.Errorf("%w: publish time is missing (id %q)", ErrInvalidArticle, a.ID)
	}
	return nil
}

// DateKey is a calendar day formatted as YYYY-MM-DD; lexical order is chronological.
type DateKey string

const dateKeyLayout = "2006-01-02"

// KeyFor truncates t to its calendar day in loc.
func KeyFor(t time.Time, loc *time.Location) DateKey {
	if loc == nil {
		loc = time.UTC
	}
	return DateKey(t.In(loc).Format(dateKeyLayout))
}

// ParseDateKey validates a YYYY-MM-DD string.
func ParseDateKey(s string) (DateKey, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(dateKeyLayout, s); err != nil {
		return "", fmt.Errorf("parse date key %q: %w", s, err)
	}
	return DateKey(s), nil
}

func (k DateKey) String() string { return string(k) }
