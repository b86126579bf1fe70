package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"guildboard-cli/internal/actions"
	"guildboard-cli/internal/model"
	"guildboard-cli/internal/notify"
	"guildboard-cli/internal/ordering"
	"guildboard-cli/internal/statuscache"
	"guildboard-cli/internal/store"
	"guildboard-cli/internal/tenantctx"
	"guildboard-cli/internal/testutil"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T) (appModel, *testutil.FakeService, *notify.Recorder) {
	t.Helper()
	svc := testutil.NewFakeService()
	svc.AddTenant("g1", "Forge Keepers")
	rec := &notify.Recorder{}
	guard := tenantctx.NewGuard(svc, rec, "g1")
	engine := actions.New(svc, statuscache.New(svc), guard, rec, store.Store{Dir: t.TempDir()})
	m := newAppModel(context.Background(), Deps{
		Service: svc,
		Engine:  engine,
		State:   store.Store{Dir: ""},
		Notes:   rec,
	})
	m.resize()
	return m, svc, rec
}

func seedProjects(svc *testutil.FakeService, ids ...string) []model.Project {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	out := make([]model.Project, 0, len(ids))
	for i, id := range ids {
		p := model.Project{
			ID: id, Name: "Project " + id, OwnerTenantID: "g1",
			CreatedAt: now, UpdatedAt: now.Add(time.Duration(i) * time.Minute),
		}
		svc.AddProject(p)
		out = append(out, p)
	}
	return out
}

func step(t *testing.T, m tea.Model, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(appModel)
	if !ok {
		t.Fatalf("Update returned %T, want appModel", next)
	}
	return am, cmd
}

func key(s string) tea.KeyMsg {
	if len(s) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func visibleIDs(m appModel) []string {
	items := m.rows.Items()
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.(rowItem).id
	}
	return out
}

func TestGrabMoveDrop_PersistsNewOrder(t *testing.T) {
	m, svc, _ := newTestModel(t)
	projects := seedProjects(svc, "p1", "p2", "p3")

	m, _ = step(t, m, projectsMsg{
		guilds:   []model.Tenant{{ID: "g1", Name: "Forge Keepers"}},
		projects: projects,
	})
	if got := strings.Join(visibleIDs(m), ","); got != "p1,p2,p3" {
		t.Fatalf("initial rows = %s, want p1,p2,p3", got)
	}

	// Grab the first project and move it down one slot.
	m, _ = step(t, m, key("g"))
	if m.grabbed != "p1" {
		t.Fatalf("grabbed = %q, want p1", m.grabbed)
	}
	m, _ = step(t, m, key("j"))
	if got := strings.Join(visibleIDs(m), ","); got != "p2,p1,p3" {
		t.Fatalf("preview rows = %s, want p2,p1,p3", got)
	}

	// Drop runs the optimistic commit off the update loop.
	m, cmd := step(t, m, key("g"))
	if m.grabbed != "" {
		t.Fatalf("grabbed should clear on drop")
	}
	if cmd == nil {
		t.Fatalf("drop with movement must produce a commit command")
	}
	m, _ = step(t, m, cmd())

	scope := ordering.ProjectsScope("g1")
	if got := strings.Join(svc.SavedOrder(scope), ","); got != "p2,p1,p3" {
		t.Fatalf("persisted order = %s, want p2,p1,p3", got)
	}
	if m.order.Phase() != ordering.PhaseSettled {
		t.Fatalf("phase = %v, want settled", m.order.Phase())
	}
}

func TestGrabEscape_CancelsWithoutPersisting(t *testing.T) {
	m, svc, _ := newTestModel(t)
	projects := seedProjects(svc, "p1", "p2")

	m, _ = step(t, m, projectsMsg{
		guilds:   []model.Tenant{{ID: "g1", Name: "Forge Keepers"}},
		projects: projects,
	})
	m, _ = step(t, m, key("g"))
	m, _ = step(t, m, key("j"))
	m, _ = step(t, m, key("esc"))

	if m.grabbed != "" {
		t.Fatalf("grabbed should clear on cancel")
	}
	if got := strings.Join(visibleIDs(m), ","); got != "p1,p2" {
		t.Fatalf("rows after cancel = %s, want p1,p2", got)
	}
	if svc.SaveOrderCalls != 0 {
		t.Fatalf("SaveOrderCalls = %d, want 0", svc.SaveOrderCalls)
	}
}

func TestGrab_RefusedOutsideCustomSort(t *testing.T) {
	m, svc, rec := newTestModel(t)
	projects := seedProjects(svc, "p1", "p2")

	m, _ = step(t, m, projectsMsg{
		guilds:   []model.Tenant{{ID: "g1", Name: "Forge Keepers"}},
		projects: projects,
	})
	m, _ = step(t, m, key("s")) // custom -> updated
	if m.sortMode != model.SortUpdated {
		t.Fatalf("sortMode = %v, want updated", m.sortMode)
	}
	m, _ = step(t, m, key("g"))
	if m.grabbed != "" {
		t.Fatalf("grab must be refused outside custom sort")
	}
	if e, ok := rec.Last(); !ok || !strings.Contains(e.Message, "custom sort") {
		t.Fatalf("expected a custom-sort notification, got %v", e)
	}
}

func TestGrab_PinnedRowRefused(t *testing.T) {
	m, svc, rec := newTestModel(t)
	projects := seedProjects(svc, "p1", "p2")
	pin := time.Date(2026, 8, 2, 9, 0, 0, 0, time.UTC)
	projects[0].PinnedAt = &pin

	m, _ = step(t, m, projectsMsg{
		guilds:   []model.Tenant{{ID: "g1", Name: "Forge Keepers"}},
		projects: projects,
	})
	// Cursor starts on the pinned row.
	m, _ = step(t, m, key("g"))
	if m.grabbed != "" {
		t.Fatalf("pinned rows must not be grabbable")
	}
	if e, ok := rec.Last(); !ok || !strings.Contains(e.Message, "pinned") {
		t.Fatalf("expected a pinned notification, got %v", e)
	}
}
