package archive

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestSyntheticFetchMonthShape(t *testing.T) {
	src := NewSyntheticSource(42)
	articles, err := src.FetchMonth(context.Background(), 2024, 5)
	if err != nil {
		t.Fatalf("FetchMonth: %v", err)
	}

	perDay := map[int]int{}
	ids := map[string]bool{}
	for i, a := range articles {
		if err := a.Validate(); err != nil {
			t.Fatalf("synthetic article %s invalid: %v", a.ID, err)
		}
		if ids[a.ID] {
			t.Fatalf("duplicate synthetic id %s", a.ID)
		}
		ids[a.ID] = true
		if a.PublishedAt.Month() != time.May || a.PublishedAt.Year() != 2024 {
			t.Fatalf("article %s outside requested month: %v", a.ID, a.PublishedAt)
		}
		perDay[a.PublishedAt.Day()]++
		if i > 0 && a.PublishedAt.After(articles[i-1].PublishedAt) {
			t.Fatalf("articles not sorted newest first at %d", i)
		}
	}

	if len(perDay) != 10 {
		t.Fatalf("expected 10 days covered, got %d", len(perDay))
	}
	for day, n := range perDay {
		if day < 22 || day > 31 {
			t.Errorf("day %d outside trailing window", day)
		}
		if n < 3 || n > 5 {
			t.Errorf("day %d has %d articles, want 3-5", day, n)
		}
	}
}

func TestSyntheticFetchMonthDeterministic(t *testing.T) {
	a, _ := NewSyntheticSource(7).FetchMonth(context.Background(), 2024, 2)
	b, _ := NewSyntheticSource(7).FetchMonth(context.Background(), 2024, 2)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical output for equal seeds")
	}

	c, _ := NewSyntheticSource(8).FetchMonth(context.Background(), 2024, 2)
	if reflect.DeepEqual(a, c) {
		t.Fatalf("expected different output for different seeds")
	}
}

func TestSyntheticFetchMonthLeapFebruary(t *testing.T) {
	articles, err := NewSyntheticSource(1).FetchMonth(context.Background(), 2024, 2)
	if err != nil {
		t.Fatalf("FetchMonth: %v", err)
	}
	last := articles[0].PublishedAt.Day()
	for _, a := range articles {
		if d := a.PublishedAt.Day(); d > last {
			last = d
		}
		if a.PublishedAt.Day() < 20 {
			t.Fatalf("unexpected day %d for trailing window of February 2024", a.PublishedAt.Day())
		}
	}
	if last != 29 {
		t.Fatalf("expected leap day to be covered, last day %d", last)
	}
}

func TestSyntheticFetchMonthRejectsBadMonth(t *testing.T) {
	if _, err := NewSyntheticSource(1).FetchMonth(context.Background(), 2024, 0); err == nil {
		t.Fatalf("expected validation error for month 0")
	}
}
