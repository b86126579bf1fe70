// Package tui is the interactive surface: guild-scoped project and task
// lists with pinned sections, sort-mode cycling, and drag reordering that
// runs the same optimistic commit pipeline as the CLI.
package tui

import (
	"context"
	"fmt"
	"strings"

	"guildboard-cli/internal/actions"
	"guildboard-cli/internal/api"
	"guildboard-cli/internal/model"
	"guildboard-cli/internal/notify"
	"guildboard-cli/internal/ordering"
	"guildboard-cli/internal/store"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Deps is everything the TUI borrows from the session that launched it.
type Deps struct {
	Service api.Service
	Engine  *actions.Engine
	State   store.Store
	Notes   *notify.Recorder
}

func Run(ctx context.Context, deps Deps) error {
	applyColorProfile()
	p := tea.NewProgram(newAppModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

type view int

const (
	viewProjects view = iota
	viewTasks
)

type projectsMsg struct {
	guilds   []model.Tenant
	projects []model.Project
	saved    store.ScopeState
	err      error
}

type tasksMsg struct {
	project model.Project
	tasks   []model.Task
	saved   store.ScopeState
	err     error
}

type commitMsg struct{ ok bool }

type taskToggledMsg struct{ changed bool }

type guildSwitchedMsg struct {
	ok      bool
	guildID string
}

type appModel struct {
	ctx  context.Context
	deps Deps
	th   theme

	width  int
	height int

	view view

	guilds   []model.Tenant
	projects []model.Project
	tasks    []model.Task
	project  model.Project

	rows     list.Model
	order    *ordering.List
	sortMode model.SortMode
	grabbed  string
	busy     bool
	spin     spinner.Model
	loadErr  string
}

func newAppModel(ctx context.Context, deps Deps) appModel {
	m := appModel{
		ctx:      ctx,
		deps:     deps,
		th:       newTheme(),
		view:     viewProjects,
		sortMode: model.SortCustom,
	}
	m.rows = newList(m.th)
	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot
	return m
}

func newList(th theme) list.Model {
	l := list.New(nil, rowDelegate{th: th}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	return l
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadProjects())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case projectsMsg:
		m.busy = false
		if msg.err != nil {
			m.loadErr = msg.err.Error()
			return m, nil
		}
		m.loadErr = ""
		m.guilds = msg.guilds
		m.projects = msg.projects
		m.view = viewProjects
		m.grabbed = ""
		m.installScopeState(msg.saved, ordering.ProjectsScope(m.activeGuildID()), m.projectRefresh())
		m.rebuildRows()
		return m, nil

	case tasksMsg:
		m.busy = false
		if msg.err != nil {
			m.loadErr = msg.err.Error()
			return m, nil
		}
		m.loadErr = ""
		m.project = msg.project
		m.tasks = msg.tasks
		m.view = viewTasks
		m.grabbed = ""
		scope := ordering.TasksScope(m.activeGuildID(), msg.project.ID)
		m.installScopeState(msg.saved, scope, m.taskRefresh(msg.project.ID))
		m.rebuildRows()
		return m, nil

	case commitMsg:
		m.busy = false
		m.rebuildRows()
		return m, nil

	case taskToggledMsg:
		m.busy = false
		if msg.changed {
			m.busy = true
			return m, m.reload()
		}
		return m, nil

	case guildSwitchedMsg:
		m.busy = false
		if !msg.ok {
			return m, nil
		}
		if m.deps.State.Dir != "" {
			sess, err := m.deps.State.LoadSession(m.ctx)
			if err == nil {
				sess.LastGuildID = msg.guildID
				_ = m.deps.State.SaveSession(m.ctx, sess)
			}
		}
		m.busy = true
		return m, m.loadProjects()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.rows, cmd = m.rows.Update(msg)
	return m, cmd
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "esc", "backspace":
		if m.grabbed != "" {
			m.order.Cancel()
			m.grabbed = ""
			m.rebuildRows()
			return m, nil
		}
		if m.view == viewTasks {
			m.busy = true
			return m, m.loadProjects()
		}
		return m, nil

	case "r":
		if m.busy || m.grabbed != "" {
			return m, nil
		}
		m.busy = true
		return m, m.reload()

	case "s":
		if m.busy || m.grabbed != "" {
			return m, nil
		}
		m.cycleSortMode()
		m.rebuildRows()
		return m, nil

	case "t":
		if m.busy || m.grabbed != "" || len(m.guilds) < 2 {
			return m, nil
		}
		next := m.nextGuild()
		m.busy = true
		return m, m.switchGuild(next)

	case "enter":
		if m.grabbed != "" {
			return m.dropGrabbed()
		}
		if m.view == viewProjects && !m.busy {
			if row, ok := m.rows.SelectedItem().(rowItem); ok {
				for _, p := range m.projects {
					if p.ID == row.id {
						m.busy = true
						return m, m.openProject(p)
					}
				}
			}
		}
		return m, nil

	case "g":
		if m.busy {
			return m, nil
		}
		if m.grabbed != "" {
			return m.dropGrabbed()
		}
		return m.grabSelected()

	case "x":
		if m.view != viewTasks || m.busy || m.grabbed != "" {
			return m, nil
		}
		if row, ok := m.rows.SelectedItem().(rowItem); ok {
			for _, t := range m.tasks {
				if t.ID == row.id {
					m.busy = true
					return m, m.toggleDone(t)
				}
			}
		}
		return m, nil

	case "j", "down":
		if m.grabbed != "" {
			m.dragStep(1)
			return m, nil
		}

	case "k", "up":
		if m.grabbed != "" {
			m.dragStep(-1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.rows, cmd = m.rows.Update(msg)
	return m, cmd
}

func (m appModel) View() string {
	guild := m.activeGuildName()
	title := m.th.title.Render("Guildboard") + "  " + m.th.guild.Render(guild)
	if m.view == viewTasks {
		title += "  " + m.th.title.Render("/ "+m.project.Name)
	}
	title += "  " + m.th.sortMode.Render("[sort: "+m.sortMode.String()+"]")
	if m.busy {
		title += "  " + m.spin.View()
	}

	var note string
	if m.loadErr != "" {
		note = m.th.errNote.Render("error: " + m.loadErr)
	} else if e, ok := m.deps.Notes.Last(); ok {
		style := m.th.note
		if e.Level == notify.LevelError {
			style = m.th.errNote
		}
		note = style.Render(e.Message)
	}

	help := "enter: open  g: grab/drop  j/k: move  s: sort  x: done  t: guild  r: reload  q: quit"
	if m.view == viewProjects {
		help = "enter: open  g: grab/drop  j/k: move  s: sort  t: guild  r: reload  q: quit"
	}

	parts := []string{title, m.rows.View(), m.th.help.Render(help)}
	if note != "" {
		parts = append(parts, note)
	}
	return strings.Join(parts, "\n\n")
}

func (m *appModel) resize() {
	h := m.height - 8
	if h < 6 {
		h = 6
	}
	w := m.width
	if w < 30 {
		w = 30
	}
	m.rows.SetSize(w, h)
}

// installScopeState adopts the remembered sort mode and builds the custom
// order list for the new scope, reconciled against what the server returned.
func (m *appModel) installScopeState(saved store.ScopeState, scope string, refresh ordering.RefreshFunc) {
	m.sortMode = saved.SortMode
	if m.sortMode == "" {
		m.sortMode = model.SortCustom
	}
	deps := m.deps
	guildID := m.activeGuildID()
	m.order = ordering.NewList(scope,
		func(ctx context.Context, ids []string) error {
			return deps.Service.SaveOrder(ctx, guildID, scope, ids)
		},
		refresh,
	)
	m.order.Reconcile(ordering.Reconcile(saved.Order, m.orderableIDs()))
}

func (m *appModel) projectRefresh() ordering.RefreshFunc {
	deps := m.deps
	guildID := m.activeGuildID()
	return func(ctx context.Context) ([]string, error) {
		ps, err := deps.Service.ListProjects(ctx, guildID)
		if err != nil {
			return nil, err
		}
		var ids []string
		for _, p := range ps {
			if p.PinnedAt == nil {
				ids = append(ids, p.ID)
			}
		}
		return ids, nil
	}
}

func (m *appModel) taskRefresh(projectID string) ordering.RefreshFunc {
	deps := m.deps
	guildID := m.activeGuildID()
	return func(ctx context.Context) ([]string, error) {
		ts, err := deps.Service.ListTasks(ctx, guildID, projectID)
		if err != nil {
			return nil, err
		}
		var ids []string
		for _, t := range ts {
			if t.PinnedAt == nil {
				ids = append(ids, t.ID)
			}
		}
		return ids, nil
	}
}

func (m *appModel) currentItems() []ordering.Item {
	if m.view == viewTasks {
		items := make([]ordering.Item, 0, len(m.tasks))
		for _, t := range m.tasks {
			items = append(items, ordering.FromTask(t))
		}
		return items
	}
	items := make([]ordering.Item, 0, len(m.projects))
	for _, p := range m.projects {
		items = append(items, ordering.FromProject(p))
	}
	return items
}

func (m *appModel) orderableIDs() []string {
	_, orderable := ordering.Partition(m.currentItems())
	ids := make([]string, len(orderable))
	for i, it := range orderable {
		ids[i] = it.ID
	}
	return ids
}

// rebuildRows recomputes the visible rows: pinned section first, then the
// orderable remainder under the active sort mode (the drag preview shows
// through the order list while a grab is live).
func (m *appModel) rebuildRows() {
	pinned, orderable := ordering.Partition(m.currentItems())
	var custom []string
	if m.sortMode == model.SortCustom && m.order != nil {
		custom = m.order.Order()
	}
	sorted := ordering.Sort(orderable, m.sortMode, custom)

	items := make([]list.Item, 0, len(pinned)+len(sorted))
	for _, it := range append(pinned, sorted...) {
		items = append(items, m.rowFor(it))
	}
	sel := m.rows.Index()
	m.rows.SetItems(items)
	if m.grabbed != "" {
		for i, it := range items {
			if it.(rowItem).id == m.grabbed {
				m.rows.Select(i)
				return
			}
		}
	}
	if sel < len(items) {
		m.rows.Select(sel)
	}
}

func (m *appModel) rowFor(it ordering.Item) rowItem {
	row := rowItem{
		id:      it.ID,
		title:   it.Name,
		pinned:  it.PinnedAt != nil,
		grabbed: it.ID == m.grabbed,
	}
	if m.view == viewTasks {
		for _, t := range m.tasks {
			if t.ID != it.ID {
				continue
			}
			row.done = t.StatusCategory == model.CategoryDone
			if t.Status != nil {
				row.meta = t.Status.Name
			} else {
				row.meta = t.StatusCategory.String()
			}
			break
		}
	}
	row.inflight = m.deps.Engine.Guard().SwitchInFlight(it.ID)
	return row
}

func (m appModel) grabSelected() (tea.Model, tea.Cmd) {
	if m.order == nil {
		return m, nil
	}
	if m.sortMode != model.SortCustom {
		m.deps.Notes.Notify(notify.LevelInfo, "reordering needs the custom sort (press s)")
		return m, nil
	}
	row, ok := m.rows.SelectedItem().(rowItem)
	if !ok {
		return m, nil
	}
	if row.pinned {
		m.deps.Notes.Notify(notify.LevelInfo, "pinned items keep their place")
		return m, nil
	}
	if err := m.order.Grab(row.id); err != nil {
		m.deps.Notes.Notify(notify.LevelError, err.Error())
		return m, nil
	}
	m.grabbed = row.id
	m.rebuildRows()
	return m, nil
}

func (m appModel) dropGrabbed() (tea.Model, tea.Cmd) {
	cmd, err := m.order.Drop()
	m.grabbed = ""
	if err != nil {
		m.deps.Notes.Notify(notify.LevelError, err.Error())
		m.rebuildRows()
		return m, nil
	}
	if cmd == nil {
		m.rebuildRows()
		return m, nil
	}
	m.busy = true
	return m, m.commit(cmd)
}

// dragStep moves the grabbed item one slot within the orderable section.
func (m *appModel) dragStep(delta int) {
	order := m.order.Order()
	idx := -1
	for i, id := range order {
		if id == m.grabbed {
			idx = i
			break
		}
	}
	target := idx + delta
	if idx < 0 || target < 0 || target >= len(order) {
		return
	}
	m.order.DragOver(order[target])
	m.rebuildRows()
}

func (m *appModel) cycleSortMode() {
	next := model.SortModes[0]
	for i, mode := range model.SortModes {
		if mode == m.sortMode {
			next = model.SortModes[(i+1)%len(model.SortModes)]
			break
		}
	}
	m.sortMode = next
	if m.deps.State.Dir == "" || m.order == nil {
		return
	}
	scope := m.order.Scope()
	st, _, err := m.deps.State.LoadScopeState(m.ctx, scope)
	if err != nil {
		return
	}
	st.SortMode = next
	_ = m.deps.State.SaveScopeState(m.ctx, scope, st)
}

func (m *appModel) activeGuildID() string {
	return m.deps.Engine.Guard().ActiveTenant()
}

func (m *appModel) activeGuildName() string {
	id := m.activeGuildID()
	for _, g := range m.guilds {
		if g.ID == id {
			return g.Name
		}
	}
	if id == "" {
		return "(no guild)"
	}
	return id
}

func (m *appModel) nextGuild() model.Tenant {
	id := m.activeGuildID()
	for i, g := range m.guilds {
		if g.ID == id {
			return m.guilds[(i+1)%len(m.guilds)]
		}
	}
	return m.guilds[0]
}

func (m *appModel) reload() tea.Cmd {
	if m.view == viewTasks {
		return m.openProject(m.project)
	}
	return m.loadProjects()
}

func (m *appModel) loadProjects() tea.Cmd {
	deps, ctx := m.deps, m.ctx
	guildID := m.activeGuildID()
	return func() tea.Msg {
		guilds, err := deps.Service.ListTenants(ctx)
		if err != nil {
			return projectsMsg{err: err}
		}
		ps, err := deps.Service.ListProjects(ctx, guildID)
		if err != nil {
			return projectsMsg{err: err}
		}
		ps = deps.Engine.DecorateProjects(ctx, ps)
		var saved store.ScopeState
		if deps.State.Dir != "" {
			saved, _, _ = deps.State.LoadScopeState(ctx, ordering.ProjectsScope(guildID))
		}
		return projectsMsg{guilds: guilds, projects: ps, saved: saved}
	}
}

func (m *appModel) openProject(p model.Project) tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		if !deps.Engine.OpenEntity(ctx, actions.EntityRef{Kind: "project", ID: p.ID, OwnerTenantID: p.OwnerTenantID}) {
			return tasksMsg{err: fmt.Errorf("could not open %s", p.Name)}
		}
		guildID := deps.Engine.Guard().ActiveTenant()
		ts, err := deps.Service.ListTasks(ctx, guildID, p.ID)
		if err != nil {
			return tasksMsg{err: err}
		}
		ts = deps.Engine.ObserveTasks(ctx, ts)
		var saved store.ScopeState
		if deps.State.Dir != "" {
			saved, _, _ = deps.State.LoadScopeState(ctx, ordering.TasksScope(guildID, p.ID))
		}
		return tasksMsg{project: p, tasks: ts, saved: saved}
	}
}

// commit runs the drop's optimistic commit off the update loop. Items in
// view always belong to the active guild, so no tenant switch is needed on
// this path.
func (m *appModel) commit(cmd *ordering.Command) tea.Cmd {
	deps, ctx, l := m.deps, m.ctx, m.order
	return func() tea.Msg {
		return commitMsg{ok: deps.Engine.RunCommit(ctx, l, cmd)}
	}
}

func (m *appModel) toggleDone(t model.Task) tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		task := t
		return taskToggledMsg{changed: deps.Engine.ToggleTaskDone(ctx, &task)}
	}
}

func (m *appModel) switchGuild(g model.Tenant) tea.Cmd {
	deps, ctx := m.deps, m.ctx
	return func() tea.Msg {
		ok := deps.Engine.Guard().EnsureContext(ctx, "guild:"+g.ID, g.ID)
		return guildSwitchedMsg{ok: ok, guildID: g.ID}
	}
}
