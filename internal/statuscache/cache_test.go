package statuscache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"guildboard-cli/internal/model"
	"guildboard-cli/internal/testutil"
)

func st(id, projectID string, cat model.Category) model.Status {
	return model.Status{ID: id, ProjectID: projectID, Name: id, Category: cat}
}

func TestEnsure_Complete_ServesFromCacheWithoutRefetch(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetStatuses("p1", st("s1", "p1", model.CategoryTodo), st("s2", "p1", model.CategoryDone))
	c := New(svc)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		got, err := c.Ensure(ctx, "p1", "g1")
		if err != nil {
			t.Fatalf("Ensure unexpected err: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 statuses, got %d", len(got))
		}
	}
	if calls := svc.StatusFetchCalls["p1"]; calls != 1 {
		t.Fatalf("expected exactly 1 fetch, got %d", calls)
	}
}

func TestEnsure_NoTenantID_ReturnsCachedWithoutFetching(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetStatuses("p1", st("s1", "p1", model.CategoryTodo))
	c := New(svc)
	c.Observe(st("seen", "p1", model.CategoryDone))

	got, err := c.Ensure(context.Background(), "p1", "")
	if err != nil {
		t.Fatalf("Ensure unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].ID != "seen" {
		t.Fatalf("expected only the observed status, got %v", got)
	}
	if svc.StatusFetchCalls["p1"] != 0 {
		t.Fatalf("expected no fetch without a tenant id")
	}
	if e, ok := c.GetCached("p1"); !ok || e.Complete {
		t.Fatalf("entry should exist and stay incomplete, got %+v ok=%v", e, ok)
	}
}

func TestEnsure_MergeKeepsObservedEntriesAndAppendsNew(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetStatuses("p1",
		st("s1", "p1", model.CategoryBacklog),
		st("s2", "p1", model.CategoryTodo),
	)
	c := New(svc)
	// s2 was already seen via a loaded task.
	c.Observe(st("s2", "p1", model.CategoryTodo))

	got, err := c.Ensure(context.Background(), "p1", "g1")
	if err != nil {
		t.Fatalf("Ensure unexpected err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected merged set of 2, got %v", got)
	}
	// Observed entry is retained, fetched novelty appended after it.
	if got[0].ID != "s2" || got[1].ID != "s1" {
		t.Fatalf("expected [s2 s1], got [%s %s]", got[0].ID, got[1].ID)
	}
	if e, _ := c.GetCached("p1"); !e.Complete {
		t.Fatalf("entry should be complete after fetch")
	}
}

func TestEnsure_FetchFailure_LeavesEntryIncomplete(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListStatusesErr["p1"] = errors.New("boom")
	c := New(svc)
	c.Observe(st("seen", "p1", model.CategoryDone))

	if _, err := c.Ensure(context.Background(), "p1", "g1"); err == nil {
		t.Fatalf("expected fetch error")
	}
	e, ok := c.GetCached("p1")
	if !ok || e.Complete {
		t.Fatalf("entry must stay incomplete after a failed upgrade, got %+v", e)
	}
	if len(e.Statuses) != 1 {
		t.Fatalf("observed statuses must survive a failed fetch, got %v", e.Statuses)
	}

	// Recovery: clearing the error lets the next Ensure complete the entry.
	delete(svc.ListStatusesErr, "p1")
	svc.SetStatuses("p1", st("s1", "p1", model.CategoryTodo))
	if _, err := c.Ensure(context.Background(), "p1", "g1"); err != nil {
		t.Fatalf("Ensure after recovery: %v", err)
	}
	if e, _ := c.GetCached("p1"); !e.Complete {
		t.Fatalf("entry should complete once the fetch succeeds")
	}
}

func TestEnsure_ConcurrentCallsShareOneFetch(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetStatuses("p1", st("s1", "p1", model.CategoryTodo))
	c := New(svc)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Ensure(context.Background(), "p1", "g1"); err != nil {
				t.Errorf("Ensure: %v", err)
			}
		}()
	}
	wg.Wait()
	if calls := svc.StatusFetchCalls["p1"]; calls > 2 {
		// One fetch is the common case; a second can slip in when a goroutine
		// misses the shared flight entirely. Anything more means dedup is broken.
		t.Fatalf("expected deduplicated fetches, got %d", calls)
	}
}

func TestInvalidate_AllowsRefetch(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetStatuses("p1", st("s1", "p1", model.CategoryTodo))
	c := New(svc)
	ctx := context.Background()

	if _, err := c.Ensure(ctx, "p1", "g1"); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	c.Invalidate("p1")
	if _, ok := c.GetCached("p1"); ok {
		t.Fatalf("entry should be gone after invalidation")
	}
	if _, err := c.Ensure(ctx, "p1", "g1"); err != nil {
		t.Fatalf("Ensure after invalidate: %v", err)
	}
	if calls := svc.StatusFetchCalls["p1"]; calls != 2 {
		t.Fatalf("expected a refetch after invalidation, got %d calls", calls)
	}
}

func TestObserve_DuplicateAndBlankIDsIgnored(t *testing.T) {
	c := New(testutil.NewFakeService())
	c.Observe(st("s1", "p1", model.CategoryTodo))
	c.Observe(st("s1", "p1", model.CategoryDone)) // same id, different payload: first wins
	c.Observe(model.Status{ID: "", ProjectID: "p1"})
	c.Observe(model.Status{ID: "x", ProjectID: ""})

	e, ok := c.GetCached("p1")
	if !ok {
		t.Fatalf("expected an entry for p1")
	}
	if len(e.Statuses) != 1 {
		t.Fatalf("expected 1 unique status, got %v", e.Statuses)
	}
	if e.Statuses[0].Category != model.CategoryTodo {
		t.Fatalf("existing record must win over a duplicate id")
	}
}

func TestObserveTask_MergesEmbeddedStatus(t *testing.T) {
	c := New(testutil.NewFakeService())
	emb := st("s9", "p2", model.CategoryInProgress)
	c.ObserveTask(model.Task{ID: "t1", ProjectID: "p2", Status: &emb})
	c.ObserveTask(model.Task{ID: "t2", ProjectID: "p2"}) // no embedded status

	e, ok := c.GetCached("p2")
	if !ok || len(e.Statuses) != 1 || e.Statuses[0].ID != "s9" {
		t.Fatalf("expected s9 observed, got %+v ok=%v", e, ok)
	}
	if e.Complete {
		t.Fatalf("observation must not complete an entry")
	}
}
