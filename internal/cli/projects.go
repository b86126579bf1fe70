package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"guildboard-cli/internal/format"
	"guildboard-cli/internal/model"
	"guildboard-cli/internal/notify"
	"guildboard-cli/internal/ordering"
	"guildboard-cli/internal/store"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and reorder projects in the active guild",
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsMoveCmd(app))
	return cmd
}

func newProjectsListCmd(app *App) *cobra.Command {
	var sortFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects (pinned first, then the chosen sort)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, app, notify.Writer{W: cmd.ErrOrStderr()})
			if err != nil {
				return writeErr(cmd, err)
			}
			guildID := s.engine.Guard().ActiveTenant()

			projects, err := s.svc.ListProjects(ctx, guildID)
			if err != nil {
				return writeErr(cmd, err)
			}
			projects = s.engine.DecorateProjects(ctx, projects)

			items := make([]ordering.Item, 0, len(projects))
			for _, p := range projects {
				items = append(items, ordering.FromProject(p))
			}
			pinned, orderable := ordering.Partition(items)

			mode, customOrder, err := resolveListState(ctx, s.state, ordering.ProjectsScope(guildID), sortFlag)
			if err != nil {
				return writeErr(cmd, err)
			}
			customOrder = ordering.Reconcile(customOrder, itemIDs(orderable))
			sorted := ordering.Sort(orderable, mode, customOrder)

			byID := make(map[string]model.Project, len(projects))
			for _, p := range projects {
				byID[p.ID] = p
			}
			if app.Format == "table" {
				t := format.Table{Header: []string{"ID", "NAME", "PINNED", "UPDATED"}}
				for _, it := range append(pinned, sorted...) {
					p := byID[it.ID]
					pin := ""
					if p.PinnedAt != nil {
						pin = "*"
					}
					t.Rows = append(t.Rows, []string{p.ID, p.Name, pin, p.UpdatedAt.Format(time.RFC3339)})
				}
				return writeOut(cmd, app, t)
			}
			out := make([]model.Project, 0, len(projects))
			for _, it := range append(pinned, sorted...) {
				out = append(out, byID[it.ID])
			}
			return writeOut(cmd, app, map[string]any{"data": out, "sort": mode})
		},
	}
	cmd.Flags().StringVar(&sortFlag, "sort", "", "Sort mode (custom|updated|created|alphabetical|recently_viewed)")
	return cmd
}

func newProjectsMoveCmd(app *App) *cobra.Command {
	var before string
	var after string
	cmd := &cobra.Command{
		Use:   "move <project-id>",
		Short: "Reorder a project in the custom order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if (before == "" && after == "") || (before != "" && after != "") {
				return writeErr(cmd, errors.New("provide exactly one of --before or --after"))
			}
			s, err := newSession(ctx, app, notify.Writer{W: cmd.ErrOrStderr()})
			if err != nil {
				return writeErr(cmd, err)
			}
			guildID := s.engine.Guard().ActiveTenant()

			projects, err := s.svc.ListProjects(ctx, guildID)
			if err != nil {
				return writeErr(cmd, err)
			}
			items := make([]ordering.Item, 0, len(projects))
			for _, p := range projects {
				items = append(items, ordering.FromProject(p))
			}
			_, orderable := ordering.Partition(items)

			l, err := buildList(ctx, s, ordering.ProjectsScope(guildID), guildID, itemIDs(orderable), func(ctx context.Context) ([]string, error) {
				ps, err := s.svc.ListProjects(ctx, guildID)
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
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			refID, isAfter := before, false
			if after != "" {
				refID, isAfter = after, true
			}
			if !s.engine.ReorderRelative(ctx, l, guildID, args[0], refID, isAfter) {
				return errors.New("reorder failed")
			}
			return writeOut(cmd, app, map[string]any{"order": l.Order()})
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Move before project id")
	cmd.Flags().StringVar(&after, "after", "", "Move after project id")
	return cmd
}

func itemIDs(items []ordering.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// resolveListState picks the sort mode (flag wins over the remembered mode,
// default custom) and the remembered custom order for a scope.
func resolveListState(ctx context.Context, st store.Store, scope, sortFlag string) (model.SortMode, []string, error) {
	saved, _, err := st.LoadScopeState(ctx, scope)
	if err != nil {
		return "", nil, err
	}
	mode := saved.SortMode
	if sortFlag != "" {
		m, err := model.ParseSortMode(sortFlag)
		if err != nil {
			return "", nil, err
		}
		mode = m
	}
	if mode == "" {
		mode = model.SortCustom
	}
	return mode, saved.Order, nil
}

// buildList assembles the ordering list for a scope: remembered order
// reconciled against the current server ids, persisting through SaveOrder.
func buildList(ctx context.Context, s *session, scope, guildID string, currentIDs []string, refresh ordering.RefreshFunc) (*ordering.List, error) {
	saved, _, err := s.state.LoadScopeState(ctx, scope)
	if err != nil {
		return nil, err
	}
	l := ordering.NewList(scope,
		func(ctx context.Context, ids []string) error {
			return s.svc.SaveOrder(ctx, guildID, scope, ids)
		},
		refresh,
	)
	l.Reconcile(ordering.Reconcile(saved.Order, currentIDs))
	return l, nil
}
