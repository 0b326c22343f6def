package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Adda-Baaj/khobor-reader/internal/config"
	"github.com/Adda-Baaj/khobor-reader/internal/pagination"
	"github.com/Adda-Baaj/khobor-reader/pkg/archive"
)

func testConfig() *config.Config {
	return &config.Config{
		AppName:                "khobor-reader",
		APIBaseURL:             "http://127.0.0.1:1",
		ArchiveMode:            config.ModeMock,
		SyntheticSeed:          1,
		HTTPTimeout:            time.Second,
		Location:               time.UTC,
		PollInterval:           time.Hour,
		PollWindow:             30 * time.Second,
		StorageType:            "none",
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
	}
}

func waitSettled(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Settled():
	case <-time.After(5 * time.Second):
		t.Fatalf("initial load did not settle")
	}
}

func TestSessionLoadsSyntheticMonth(t *testing.T) {
	s, err := NewSession(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	s.Start(context.Background())
	waitSettled(t, s)

	st := s.Status()
	if st.Mode != archive.ModeMock || st.Strategy != archive.StrategySynthetic {
		t.Fatalf("unexpected strategy %s/%s", st.Mode, st.Strategy)
	}
	if st.Articles == 0 || st.Days == 0 {
		t.Fatalf("expected synthetic articles, got %#v", st)
	}
	if st.Page.State != pagination.StateIdle || !st.Page.HasMore {
		t.Fatalf("unexpected page status %#v", st.Page)
	}
	keys := s.SortedDateKeys()
	if len(s.Bucket(keys[0])) == 0 {
		t.Fatalf("newest bucket is empty")
	}
	if s.ID() == "" || st.SessionID != s.ID() {
		t.Fatalf("missing session id")
	}
}

func TestSessionSignalLoadsPreviousMonth(t *testing.T) {
	s, err := NewSession(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()
	s.Start(context.Background())
	waitSettled(t, s)

	before := s.Status().Articles
	if !s.Signal() {
		t.Fatalf("signal rejected on idle session")
	}

	deadline := time.After(5 * time.Second)
	for s.Status().Page.State != pagination.StateIdle {
		select {
		case <-deadline:
			t.Fatalf("page load did not finish")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if after := s.Status().Articles; after <= before {
		t.Fatalf("expected more articles after signal, before %d after %d", before, after)
	}
}

func TestSessionCloseIsDeterministic(t *testing.T) {
	s, err := NewSession(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.Start(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Close() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Close: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Close did not return")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if s.Signal() {
		t.Fatalf("signal accepted after close")
	}
}

func TestSessionRunStopsWithContext(t *testing.T) {
	s, err := NewSession(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitSettled(t, s)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestSessionBuildsAnnouncerFromPublishersFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "publishers.yaml")
	raw := "publishers:\n  - id: hook\n    type: http\n    http:\n      url: " + srv.URL + "\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write publishers file: %v", err)
	}

	cfg := testConfig()
	cfg.PublishersFile = path
	cfg.StorageType = "bbolt"
	cfg.BBoltPath = filepath.Join(t.TempDir(), "announced.db")

	s, err := NewSession(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	if s.fanout.Size() != 1 {
		t.Fatalf("expected one sink, got %d", s.fanout.Size())
	}
	if s.seen == nil {
		t.Fatalf("seen store not initialized")
	}
}

func TestSessionRejectsMissingPublishersFile(t *testing.T) {
	cfg := testConfig()
	cfg.PublishersFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewSession(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing publishers file")
	}
}

func TestSessionConnectionTestInMockMode(t *testing.T) {
	s, err := NewSession(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	res := s.TestConnection(context.Background())
	if !res.Success || res.Mode != string(archive.ModeMock) {
		t.Fatalf("unexpected result %#v", res)
	}
	if s.Status().APIKeyConfigured {
		t.Fatalf("no key is configured")
	}
}

func TestSessionConnectionTestReportsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.ArchiveMode = config.ModeRemote
	cfg.APIBaseURL = srv.URL
	cfg.APIKey = "expired-key"

	s, err := NewSession(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	res := s.TestConnection(context.Background())
	if res.Success || !strings.Contains(res.Message, "Invalid API key") {
		t.Fatalf("unexpected result %#v", res)
	}
	if !s.Status().APIKeyConfigured {
		t.Fatalf("configured key not reported")
	}
	if s.Status().Articles != 0 {
		t.Fatalf("connection test must not touch the store")
	}
}
