package aggregate

import (
	"reflect"
	"testing"
	"time"

	"github.com/Adda-Baaj/khobor-reader/internal/domain"
)

func article(id string, published time.Time) domain.Article {
	return domain.Article{
		ID:          id,
		Headline:    "headline " + id,
		Summary:     "summary " + id,
		Link:        "https://example.test/" + id,
		PublishedAt: published,
	}
}

func at(day, hour int) time.Time {
	return time.Date(2024, 5, day, hour, 0, 0, 0, time.UTC)
}

func TestReplaceAllGroupsByDay(t *testing.T) {
	s := NewStore(time.UTC)
	kept := s.ReplaceAll([]domain.Article{
		article("1", at(10, 8)),
		article("2", at(10, 12)),
		article("3", at(9, 23)),
	})
	if kept != 3 {
		t.Fatalf("kept = %d, want 3", kept)
	}

	want := []domain.DateKey{"2024-05-10", "2024-05-09"}
	if got := s.SortedDateKeys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("SortedDateKeys = %v, want %v", got, want)
	}

	bucket := s.Bucket("2024-05-10")
	if len(bucket) != 2 || bucket[0].ID != "2" || bucket[1].ID != "1" {
		t.Fatalf("bucket not newest first: %#v", bucket)
	}
}

func TestReplaceAllDiscardsPreviousContent(t *testing.T) {
	s := NewStore(time.UTC)
	s.ReplaceAll([]domain.Article{article("old", at(1, 1))})
	s.ReplaceAll([]domain.Article{article("new", at(2, 1))})

	if s.Contains("old") {
		t.Fatalf("expected old article to be discarded")
	}
	if got := s.SortedDateKeys(); len(got) != 1 || got[0] != "2024-05-02" {
		t.Fatalf("unexpected keys %v", got)
	}
}

func TestReplaceAllDropsDuplicatesAndInvalid(t *testing.T) {
	s := NewStore(time.UTC)
	first := article("dup", at(10, 1))
	second := article("dup", at(11, 1))
	invalid := article("bad", at(10, 2))
	invalid.Link = ""

	if kept := s.ReplaceAll([]domain.Article{first, second, invalid}); kept != 1 {
		t.Fatalf("kept = %d, want 1", kept)
	}
	if got := s.Bucket("2024-05-10"); len(got) != 1 || got[0].ID != "dup" {
		t.Fatalf("expected first occurrence to win, got %#v", got)
	}
	if len(s.Bucket("2024-05-11")) != 0 {
		t.Fatalf("duplicate leaked into another bucket")
	}
}

func TestMergeAppendIsIdempotent(t *testing.T) {
	s := NewStore(time.UTC)
	s.ReplaceAll([]domain.Article{article("a", at(20, 1))})

	page := []domain.Article{article("a", at(20, 1)), article("b", at(19, 5)), article("c", at(20, 9))}
	inserted := s.MergeAppend(page)
	if len(inserted) != 2 {
		t.Fatalf("inserted = %d, want 2", len(inserted))
	}
	if again := s.MergeAppend(page); len(again) != 0 {
		t.Fatalf("second merge inserted %d articles", len(again))
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}

	bucket := s.Bucket("2024-05-20")
	if bucket[0].ID != "c" || bucket[1].ID != "a" {
		t.Fatalf("bucket order = %s,%s", bucket[0].ID, bucket[1].ID)
	}
}

func TestMergeFreshAdmitsOnlyRecent(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore(time.UTC)
	s.ReplaceAll([]domain.Article{article("morning", now.Add(-3*time.Hour))})

	inserted := s.MergeFresh([]domain.Article{
		article("stale", now.Add(-10*time.Minute)),
		article("fresh", now.Add(-5*time.Second)),
		article("edge", now.Add(-30*time.Second)),
	}, now, 30*time.Second)

	if len(inserted) != 1 || inserted[0].ID != "fresh" {
		t.Fatalf("unexpected inserted %#v", inserted)
	}
	if s.Contains("stale") || s.Contains("edge") {
		t.Fatalf("articles outside the window must not be inserted")
	}
	bucket := s.Bucket("2024-05-10")
	if len(bucket) != 2 || bucket[0].ID != "fresh" {
		t.Fatalf("fresh article not at bucket front: %#v", bucket)
	}
}

func TestMergeFreshSkipsKnownIDs(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore(time.UTC)
	s.ReplaceAll([]domain.Article{article("x", now.Add(-time.Second))})

	if got := s.MergeFresh([]domain.Article{article("x", now.Add(-time.Second))}, now, time.Minute); len(got) != 0 {
		t.Fatalf("expected known id to be skipped, got %#v", got)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestMergeFreshDefaultsWindow(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore(time.UTC)
	got := s.MergeFresh([]domain.Article{
		article("in", now.Add(-20*time.Second)),
		article("out", now.Add(-40*time.Second)),
	}, now, 0)
	if len(got) != 1 || got[0].ID != "in" {
		t.Fatalf("unexpected result with default window: %#v", got)
	}
}

func TestDateKeysUseReferenceLocation(t *testing.T) {
	loc := time.FixedZone("UTC+6", 6*60*60)
	s := NewStore(loc)
	s.ReplaceAll([]domain.Article{article("late", time.Date(2024, 5, 9, 20, 0, 0, 0, time.UTC))})

	if got := s.SortedDateKeys(); len(got) != 1 || got[0] != "2024-05-10" {
		t.Fatalf("expected key in reference zone, got %v", got)
	}
}

func TestEmptyStoreHasNoKeys(t *testing.T) {
	s := NewStore(nil)
	if keys := s.SortedDateKeys(); len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}
	if s.Location() != time.UTC {
		t.Fatalf("nil location should default to UTC")
	}
}

func TestBucketReturnsCopy(t *testing.T) {
	s := NewStore(time.UTC)
	s.ReplaceAll([]domain.Article{article("1", at(3, 3))})

	b := s.Bucket("2024-05-03")
	b[0].Headline = "mutated"
	if s.Bucket("2024-05-03")[0].Headline == "mutated" {
		t.Fatalf("Bucket must not expose internal storage")
	}
}

func TestClosedStoreIgnoresMutations(t *testing.T) {
	s := NewStore(time.UTC)
	s.ReplaceAll([]domain.Article{article("1", at(3, 3))})
	s.Close()

	if n := s.ReplaceAll(nil); n != 0 {
		t.Fatalf("ReplaceAll after close returned %d", n)
	}
	if got := s.MergeAppend([]domain.Article{article("2", at(4, 4))}); got != nil {
		t.Fatalf("MergeAppend after close inserted %#v", got)
	}
	if got := s.MergeFresh([]domain.Article{article("3", at(4, 4))}, at(4, 4), time.Minute); got != nil {
		t.Fatalf("MergeFresh after close inserted %#v", got)
	}
	if s.Len() != 1 {
		t.Fatalf("closed store content changed, Len = %d", s.Len())
	}
}
