package store

import (
	"context"
	"testing"
	"time"

	"guildboard-cli/internal/model"
)

func TestSession_RoundTrip(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	ctx := context.Background()

	if err := s.SaveSession(ctx, Session{LastGuildID: "g1", LastView: "tasks"}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	got, err := s.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if got.LastGuildID != "g1" || got.LastView != "tasks" {
		t.Fatalf("got %+v", got)
	}
}

func TestLoadSession_EmptyStore(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	got, err := s.LoadSession(context.Background())
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if got.LastGuildID != "" {
		t.Fatalf("expected empty session, got %+v", got)
	}
}

func TestScopeState_RoundTripAndMissing(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	ctx := context.Background()

	if _, ok, err := s.LoadScopeState(ctx, "projects"); err != nil || ok {
		t.Fatalf("missing scope: ok=%v err=%v", ok, err)
	}

	in := ScopeState{SortMode: model.SortCustom, Order: []string{"b", "a", "c"}}
	if err := s.SaveScopeState(ctx, "projects", in); err != nil {
		t.Fatalf("SaveScopeState: %v", err)
	}
	got, ok, err := s.LoadScopeState(ctx, "projects")
	if err != nil || !ok {
		t.Fatalf("LoadScopeState: ok=%v err=%v", ok, err)
	}
	if got.SortMode != model.SortCustom {
		t.Fatalf("sort mode = %q", got.SortMode)
	}
	if len(got.Order) != 3 || got.Order[0] != "b" {
		t.Fatalf("order = %v", got.Order)
	}
}

func TestScopeState_InvalidSortModeIgnored(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	ctx := context.Background()

	if err := s.SaveScopeState(ctx, "x", ScopeState{SortMode: "bogus"}); err != nil {
		t.Fatalf("SaveScopeState: %v", err)
	}
	got, ok, err := s.LoadScopeState(ctx, "x")
	if err != nil || !ok {
		t.Fatalf("LoadScopeState: ok=%v err=%v", ok, err)
	}
	if got.SortMode != "" {
		t.Fatalf("invalid mode must load as empty, got %q", got.SortMode)
	}
}

func TestViewTimes_RoundTrip(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	ctx := context.Background()
	at := time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)

	if err := s.MarkViewed(ctx, "task", "t1", at); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	if err := s.MarkViewed(ctx, "task", "t1", at.Add(time.Hour)); err != nil {
		t.Fatalf("MarkViewed update: %v", err)
	}
	got, err := s.ViewTimes(ctx)
	if err != nil {
		t.Fatalf("ViewTimes: %v", err)
	}
	if !got["t1"].Equal(at.Add(time.Hour)) {
		t.Fatalf("view time = %v", got["t1"])
	}
}
