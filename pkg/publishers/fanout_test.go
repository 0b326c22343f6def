package publishers

import (
	"context"
	"errors"
	"testing"
)

type stubPublisher struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubPublisher) ID() string   { return s.id }
func (s *stubPublisher) Type() string { return s.typ }
func (s *stubPublisher) Publish(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubPublisher) Close() error {
	s.closed = true
	return nil
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	bad := &stubPublisher{id: "bad", typ: "http", err: errors.New("failed")}
	fanout := NewFanout([]Publisher{&stubPublisher{id: "ok", typ: "http"}, nil, bad})

	if fanout.Size() != 2 {
		t.Fatalf("nil publisher must be skipped, size %d", fanout.Size())
	}
	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil || !errors.Is(err, bad.err) {
		t.Fatalf("expected aggregated error wrapping the failure, got %v", err)
	}
}

func TestFanoutCloseReleasesPublishers(t *testing.T) {
	a := &stubPublisher{id: "a", typ: "gcp_pubsub"}
	if err := NewFanout([]Publisher{a}).Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.closed {
		t.Fatalf("publisher not closed")
	}
}

func TestBuildWithDefaultBuilders(t *testing.T) {
	pubs, err := DefaultBuilders().Build(context.Background(), []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(pubs) != 1 || pubs[0].Type() != TypeHTTP {
		t.Fatalf("unexpected publishers %#v", pubs)
	}
}

func TestBuildClosesBuiltPublishersOnFailure(t *testing.T) {
	built := &stubPublisher{id: "first", typ: "stub"}
	builders := Builders{
		"stub": func(context.Context, PublisherConfig, Logger) (Publisher, error) { return built, nil },
	}
	_, err := builders.Build(context.Background(), []PublisherConfig{
		{ID: "first", Type: "stub"},
		{ID: "x", Type: "kafka"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if !built.closed {
		t.Fatalf("publisher built before the failure was not closed")
	}
}
