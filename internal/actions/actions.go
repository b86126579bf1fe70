// Package actions is the orchestration layer: each user-initiated action
// composes the tenant guard, status resolution, optimistic local state and
// persistence, and recovers every failure locally. Callers get a boolean
// outcome; anything the user should know went out through the Notifier
// already.
package actions

import (
	"context"
	"fmt"
	"time"

	"guildboard-cli/internal/api"
	"guildboard-cli/internal/model"
	"guildboard-cli/internal/notify"
	"guildboard-cli/internal/ordering"
	"guildboard-cli/internal/statuscache"
	"guildboard-cli/internal/store"
	"guildboard-cli/internal/tenantctx"
)

type Engine struct {
	svc      api.Service
	statuses *statuscache.Cache
	guard    *tenantctx.Guard
	notifier notify.Notifier
	state    store.Store

	now func() time.Time
}

func New(svc api.Service, statuses *statuscache.Cache, guard *tenantctx.Guard, notifier notify.Notifier, state store.Store) *Engine {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Engine{
		svc:      svc,
		statuses: statuses,
		guard:    guard,
		notifier: notifier,
		state:    state,
		now:      time.Now,
	}
}

func (e *Engine) Guard() *tenantctx.Guard { return e.guard }

func (e *Engine) Statuses() *statuscache.Cache { return e.statuses }

// SetTaskCategory moves a task to the project status resolved for category:
// guard the tenant, resolve through the fallback chain, apply the change
// optimistically, persist, then reconcile the task (and the status cache)
// from the server response or roll back. Reports whether the task ended up
// changed.
func (e *Engine) SetTaskCategory(ctx context.Context, t *model.Task, category model.Category) bool {
	if t == nil || !category.IsValid() {
		return false
	}
	if !e.guard.EnsureContext(ctx, t.ID, t.OwnerTenantID) {
		return false
	}
	tenantID := t.OwnerTenantID
	if tenantID == "" {
		tenantID = e.guard.ActiveTenant()
	}

	statusID, ok := e.statuses.ResolveForCategory(ctx, t.ProjectID, category, tenantID)
	if !ok {
		e.notifier.Notify(notify.LevelError,
			fmt.Sprintf("no status for %q in this project; configure the project pipeline", category))
		return false
	}
	if statusID == t.StatusID {
		return false
	}

	prevID, prevCat := t.StatusID, t.StatusCategory

	// Optimistic: the UI shows the new status while the PATCH is in flight.
	t.StatusID = statusID
	t.StatusCategory = category

	updated, err := e.svc.UpdateTaskStatus(ctx, tenantID, t.ID, statusID)
	if err != nil {
		t.StatusID = prevID
		t.StatusCategory = prevCat
		e.notifier.Notify(notify.LevelError, fmt.Sprintf("could not update task: %v", err))
		return false
	}

	t.StatusID = updated.StatusID
	t.StatusCategory = updated.StatusCategory
	t.UpdatedAt = updated.UpdatedAt
	t.Status = updated.Status
	// The PATCH response embeds the resolved status; fold it into the cache.
	e.statuses.ObserveTask(updated)
	return true
}

// ToggleTaskDone flips a task between done and todo (checkbox semantics).
func (e *Engine) ToggleTaskDone(ctx context.Context, t *model.Task) bool {
	if t == nil {
		return false
	}
	target := model.CategoryDone
	if t.StatusCategory == model.CategoryDone {
		target = model.CategoryTodo
	}
	return e.SetTaskCategory(ctx, t, target)
}

// ReorderItem relocates movedID to targetID's position in a list and runs
// the optimistic commit. ownerTenantID scopes the guard; the moved id is the
// tracked entity.
func (e *Engine) ReorderItem(ctx context.Context, l *ordering.List, ownerTenantID, movedID, targetID string) bool {
	if !e.guard.EnsureContext(ctx, movedID, ownerTenantID) {
		return false
	}
	cmd, err := l.CommandFor(movedID, targetID)
	if err != nil {
		e.notifier.Notify(notify.LevelError, fmt.Sprintf("cannot reorder: %v", err))
		return false
	}
	if cmd == nil {
		return true // no-op move
	}
	return e.RunCommit(ctx, l, cmd)
}

// ReorderRelative places movedID immediately before or after refID and runs
// the optimistic commit (CLI --before/--after path).
func (e *Engine) ReorderRelative(ctx context.Context, l *ordering.List, ownerTenantID, movedID, refID string, after bool) bool {
	if !e.guard.EnsureContext(ctx, movedID, ownerTenantID) {
		return false
	}
	next := ordering.InsertRelative(l.Order(), movedID, refID, after)
	cmd, err := l.CommandForOrder(next)
	if err != nil {
		e.notifier.Notify(notify.LevelError, fmt.Sprintf("cannot reorder: %v", err))
		return false
	}
	if cmd == nil {
		return true
	}
	return e.RunCommit(ctx, l, cmd)
}

// RunCommit executes a prepared reorder command (Drop path from the TUI or
// CommandFor from the CLI), notifying on rollback and snapshotting the
// settled order locally.
func (e *Engine) RunCommit(ctx context.Context, l *ordering.List, cmd *ordering.Command) bool {
	if err := cmd.Run(ctx); err != nil {
		e.notifier.Notify(notify.LevelError, fmt.Sprintf("could not save order: %v", err))
		e.snapshotOrder(ctx, l)
		return false
	}
	e.snapshotOrder(ctx, l)
	return true
}

func (e *Engine) snapshotOrder(ctx context.Context, l *ordering.List) {
	if e.state.Dir == "" {
		return
	}
	st, _, err := e.state.LoadScopeState(ctx, l.Scope())
	if err != nil {
		return
	}
	st.Order = l.Order()
	_ = e.state.SaveScopeState(ctx, l.Scope(), st)
}

// EntityRef names a navigation target for switch-then-navigate.
type EntityRef struct {
	Kind          string // "project" | "task" | "document" | "initiative"
	ID            string
	OwnerTenantID string
}

// OpenEntity guards the tenant context and records the view. On true the
// caller may navigate; on false it must not.
func (e *Engine) OpenEntity(ctx context.Context, ref EntityRef) bool {
	if !e.guard.EnsureContext(ctx, ref.ID, ref.OwnerTenantID) {
		return false
	}
	if e.state.Dir != "" {
		_ = e.state.MarkViewed(ctx, ref.Kind, ref.ID, e.now())
	}
	return true
}

// ObserveTasks feeds every loaded task through the status cache observation
// hook and decorates tasks with client-local view times.
func (e *Engine) ObserveTasks(ctx context.Context, tasks []model.Task) []model.Task {
	var views map[string]time.Time
	if e.state.Dir != "" {
		views, _ = e.state.ViewTimes(ctx)
	}
	for i := range tasks {
		e.statuses.ObserveTask(tasks[i])
		if at, ok := views[tasks[i].ID]; ok {
			at := at
			tasks[i].LastViewedAt = &at
		}
	}
	return tasks
}

// DecorateProjects attaches client-local view times to projects.
func (e *Engine) DecorateProjects(ctx context.Context, projects []model.Project) []model.Project {
	if e.state.Dir == "" {
		return projects
	}
	views, err := e.state.ViewTimes(ctx)
	if err != nil {
		return projects
	}
	for i := range projects {
		if at, ok := views[projects[i].ID]; ok {
			at := at
			projects[i].LastViewedAt = &at
		}
	}
	return projects
}
