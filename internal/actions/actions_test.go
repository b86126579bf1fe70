package actions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"guildboard-cli/internal/model"
	"guildboard-cli/internal/notify"
	"guildboard-cli/internal/ordering"
	"guildboard-cli/internal/statuscache"
	"guildboard-cli/internal/store"
	"guildboard-cli/internal/tenantctx"
	"guildboard-cli/internal/testutil"
)

var base = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, svc *testutil.FakeService, active string) (*Engine, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	cache := statuscache.New(svc)
	guard := tenantctx.NewGuard(svc, rec, active)
	st := store.Store{Dir: t.TempDir()}
	return New(svc, cache, guard, rec, st), rec
}

func seedTask(svc *testutil.FakeService, id, tenant, project string, cat model.Category) model.Task {
	svc.SetStatuses(project,
		model.Status{ID: "s-backlog", ProjectID: project, Category: model.CategoryBacklog},
		model.Status{ID: "s-todo", ProjectID: project, Category: model.CategoryTodo},
		model.Status{ID: "s-done", ProjectID: project, Category: model.CategoryDone},
	)
	statusID := "s-" + string(cat)
	task := model.Task{
		ID: id, ProjectID: project, Name: id, OwnerTenantID: tenant,
		StatusID: statusID, StatusCategory: cat,
		CreatedAt: base, UpdatedAt: base,
	}
	svc.AddTask(task)
	return task
}

func TestSetTaskCategory_ResolvesPersistsAndExtendsCache(t *testing.T) {
	svc := testutil.NewFakeService()
	task := seedTask(svc, "t1", "g1", "p1", model.CategoryTodo)
	e, _ := newEngine(t, svc, "g1")

	if !e.SetTaskCategory(context.Background(), &task, model.CategoryDone) {
		t.Fatalf("expected success")
	}
	if task.StatusID != "s-done" || task.StatusCategory != model.CategoryDone {
		t.Fatalf("task not updated: %+v", task)
	}
	// The embedded status from the PATCH response landed in the cache.
	entry, ok := e.Statuses().GetCached("p1")
	if !ok {
		t.Fatalf("expected a cache entry for p1")
	}
	found := false
	for _, st := range entry.Statuses {
		if st.ID == "s-done" {
			found = true
		}
	}
	if !found {
		t.Fatalf("PATCH response status missing from cache: %+v", entry.Statuses)
	}
}

func TestSetTaskCategory_MissingCategory_FallsBack(t *testing.T) {
	svc := testutil.NewFakeService()
	// Pipeline without in_progress.
	svc.SetStatuses("p1",
		model.Status{ID: "s-backlog", ProjectID: "p1", Category: model.CategoryBacklog},
		model.Status{ID: "s-todo", ProjectID: "p1", Category: model.CategoryTodo},
	)
	task := model.Task{ID: "t1", ProjectID: "p1", OwnerTenantID: "g1",
		StatusID: "s-backlog", StatusCategory: model.CategoryBacklog}
	svc.AddTask(task)
	e, _ := newEngine(t, svc, "g1")

	if !e.SetTaskCategory(context.Background(), &task, model.CategoryInProgress) {
		t.Fatalf("expected fallback resolution to succeed")
	}
	if task.StatusID != "s-todo" {
		t.Fatalf("expected fallback to s-todo, got %q", task.StatusID)
	}
}

func TestSetTaskCategory_NoResolution_NotifiesAndAborts(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetStatuses("p1") // empty pipeline
	task := model.Task{ID: "t1", ProjectID: "p1", OwnerTenantID: "g1"}
	e, rec := newEngine(t, svc, "g1")

	if e.SetTaskCategory(context.Background(), &task, model.CategoryDone) {
		t.Fatalf("expected abort")
	}
	if task.StatusID != "" {
		t.Fatalf("aborted action must leave no local change: %+v", task)
	}
	if last, ok := rec.Last(); !ok || last.Level != notify.LevelError {
		t.Fatalf("expected an error notification")
	}
}

func TestSetTaskCategory_PersistFailure_RollsBack(t *testing.T) {
	svc := testutil.NewFakeService()
	task := seedTask(svc, "t1", "g1", "p1", model.CategoryTodo)
	svc.UpdateTaskStatusErr = errors.New("500")
	e, rec := newEngine(t, svc, "g1")

	if e.SetTaskCategory(context.Background(), &task, model.CategoryDone) {
		t.Fatalf("expected failure")
	}
	if task.StatusID != "s-todo" || task.StatusCategory != model.CategoryTodo {
		t.Fatalf("rollback must restore previous status: %+v", task)
	}
	if last, ok := rec.Last(); !ok || !strings.Contains(last.Message, "update task") {
		t.Fatalf("expected update failure notification, got %+v", last)
	}
}

func TestSetTaskCategory_CrossTenant_SwitchesFirst(t *testing.T) {
	svc := testutil.NewFakeService()
	task := seedTask(svc, "t1", "g2", "p1", model.CategoryTodo)
	e, _ := newEngine(t, svc, "g1")

	if !e.SetTaskCategory(context.Background(), &task, model.CategoryDone) {
		t.Fatalf("expected success after switch")
	}
	if svc.SwitchCalls != 1 {
		t.Fatalf("expected exactly one switch, got %d", svc.SwitchCalls)
	}
	if e.Guard().ActiveTenant() != "g2" {
		t.Fatalf("active tenant = %q, want g2", e.Guard().ActiveTenant())
	}
}

func TestSetTaskCategory_SwitchFailure_NeverStartsMutation(t *testing.T) {
	svc := testutil.NewFakeService()
	task := seedTask(svc, "t1", "g2", "p1", model.CategoryTodo)
	svc.SwitchTenantErr = errors.New("denied")
	e, _ := newEngine(t, svc, "g1")

	if e.SetTaskCategory(context.Background(), &task, model.CategoryDone) {
		t.Fatalf("expected abort")
	}
	if task.StatusCategory != model.CategoryTodo {
		t.Fatalf("mutation must never start after a failed switch: %+v", task)
	}
	if svc.StatusFetchCalls["p1"] != 0 {
		t.Fatalf("no status fetch should happen after a failed switch")
	}
}

func TestToggleTaskDone_FlipsBothWays(t *testing.T) {
	svc := testutil.NewFakeService()
	task := seedTask(svc, "t1", "g1", "p1", model.CategoryTodo)
	e, _ := newEngine(t, svc, "g1")
	ctx := context.Background()

	if !e.ToggleTaskDone(ctx, &task) || task.StatusCategory != model.CategoryDone {
		t.Fatalf("toggle to done failed: %+v", task)
	}
	if !e.ToggleTaskDone(ctx, &task) || task.StatusCategory != model.CategoryTodo {
		t.Fatalf("toggle back to todo failed: %+v", task)
	}
}

func TestReorderItem_RollbackOnFailure_RefreshesAuthoritativeOrder(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SaveOrderErr = errors.New("conflict")
	e, rec := newEngine(t, svc, "g1")

	authoritative := []string{"1", "2", "3", "4"}
	l := ordering.NewList("projects",
		func(ctx context.Context, ids []string) error {
			return svc.SaveOrder(ctx, "g1", "projects", ids)
		},
		func(ctx context.Context) ([]string, error) { return authoritative, nil },
	)
	l.Reconcile(authoritative)

	if e.ReorderItem(context.Background(), l, "g1", "3", "1") {
		t.Fatalf("expected failure")
	}
	got := l.Order()
	for i, want := range authoritative {
		if got[i] != want {
			t.Fatalf("visible order must return to %v, got %v", authoritative, got)
		}
	}
	if _, ok := rec.Last(); !ok {
		t.Fatalf("expected a notification on rollback")
	}
}

func TestReorderItem_Success_SnapshotsOrderLocally(t *testing.T) {
	svc := testutil.NewFakeService()
	e, _ := newEngine(t, svc, "g1")

	l := ordering.NewList("projects",
		func(ctx context.Context, ids []string) error {
			return svc.SaveOrder(ctx, "g1", "projects", ids)
		},
		nil,
	)
	l.Reconcile([]string{"1", "2", "3"})

	if !e.ReorderItem(context.Background(), l, "g1", "3", "1") {
		t.Fatalf("expected success")
	}
	saved := svc.SavedOrder("projects")
	if len(saved) != 3 || saved[0] != "3" {
		t.Fatalf("persisted order = %v", saved)
	}
	st, ok, err := e.state.LoadScopeState(context.Background(), "projects")
	if err != nil || !ok {
		t.Fatalf("scope state: ok=%v err=%v", ok, err)
	}
	if len(st.Order) != 3 || st.Order[0] != "3" {
		t.Fatalf("snapshot order = %v", st.Order)
	}
}

func TestOpenEntity_CrossTenant_GuardsThenMarksViewed(t *testing.T) {
	svc := testutil.NewFakeService()
	e, _ := newEngine(t, svc, "g1")

	ref := EntityRef{Kind: "project", ID: "p9", OwnerTenantID: "g2"}
	if !e.OpenEntity(context.Background(), ref) {
		t.Fatalf("expected success")
	}
	if e.Guard().ActiveTenant() != "g2" {
		t.Fatalf("navigation must switch first")
	}
	views, err := e.state.ViewTimes(context.Background())
	if err != nil {
		t.Fatalf("ViewTimes: %v", err)
	}
	if _, ok := views["p9"]; !ok {
		t.Fatalf("expected p9 marked viewed")
	}
}

func TestOpenEntity_SwitchFailure_NoNavigationNoView(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SwitchTenantErr = errors.New("denied")
	e, _ := newEngine(t, svc, "g1")

	if e.OpenEntity(context.Background(), EntityRef{Kind: "task", ID: "t9", OwnerTenantID: "g2"}) {
		t.Fatalf("expected abort")
	}
	views, _ := e.state.ViewTimes(context.Background())
	if _, ok := views["t9"]; ok {
		t.Fatalf("aborted navigation must not mark viewed")
	}
}

func TestObserveTasks_FeedsCacheAndAttachesViewTimes(t *testing.T) {
	svc := testutil.NewFakeService()
	e, _ := newEngine(t, svc, "g1")
	ctx := context.Background()

	if err := e.state.MarkViewed(ctx, "task", "t1", base); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	emb := model.Status{ID: "s1", ProjectID: "p1", Category: model.CategoryTodo}
	tasks := []model.Task{
		{ID: "t1", ProjectID: "p1", Status: &emb},
		{ID: "t2", ProjectID: "p1"},
	}
	got := e.ObserveTasks(ctx, tasks)
	if got[0].LastViewedAt == nil || !got[0].LastViewedAt.Equal(base) {
		t.Fatalf("view time not attached: %+v", got[0])
	}
	if got[1].LastViewedAt != nil {
		t.Fatalf("unviewed task must stay bare")
	}
	if entry, ok := e.Statuses().GetCached("p1"); !ok || len(entry.Statuses) != 1 {
		t.Fatalf("embedded status must reach the cache")
	}
}
