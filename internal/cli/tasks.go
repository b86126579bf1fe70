package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"guildboard-cli/internal/format"
	"guildboard-cli/internal/model"
	"guildboard-cli/internal/notify"
	"guildboard-cli/internal/ordering"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and update tasks",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksDoneCmd(app))
	cmd.AddCommand(newTasksStatusCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var projectID string
	var sortFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in the active guild",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, app, notify.Writer{W: cmd.ErrOrStderr()})
			if err != nil {
				return writeErr(cmd, err)
			}
			guildID := s.engine.Guard().ActiveTenant()

			tasks, err := s.svc.ListTasks(ctx, guildID, projectID)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks = s.engine.ObserveTasks(ctx, tasks)

			items := make([]ordering.Item, 0, len(tasks))
			for _, t := range tasks {
				items = append(items, ordering.FromTask(t))
			}
			pinned, orderable := ordering.Partition(items)

			mode, customOrder, err := resolveListState(ctx, s.state, ordering.TasksScope(guildID, projectID), sortFlag)
			if err != nil {
				return writeErr(cmd, err)
			}
			customOrder = ordering.Reconcile(customOrder, itemIDs(orderable))
			sorted := ordering.Sort(orderable, mode, customOrder)

			byID := make(map[string]model.Task, len(tasks))
			for _, t := range tasks {
				byID[t.ID] = t
			}
			if app.Format == "table" {
				tbl := format.Table{Header: []string{"ID", "NAME", "STATUS", "CATEGORY", "PINNED"}}
				for _, it := range append(pinned, sorted...) {
					t := byID[it.ID]
					pin := ""
					if t.PinnedAt != nil {
						pin = "*"
					}
					name := t.StatusID
					if t.Status != nil {
						name = t.Status.Name
					}
					tbl.Rows = append(tbl.Rows, []string{t.ID, t.Name, name, string(t.StatusCategory), pin})
				}
				return writeOut(cmd, app, tbl)
			}
			out := make([]model.Task, 0, len(tasks))
			for _, it := range append(pinned, sorted...) {
				out = append(out, byID[it.ID])
			}
			return writeOut(cmd, app, map[string]any{"data": out, "sort": mode})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "Limit to one project")
	cmd.Flags().StringVar(&sortFlag, "sort", "", "Sort mode (custom|updated|created|alphabetical|recently_viewed)")
	return cmd
}

func newTasksDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task done (resolves the project's done status)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setCategory(cmd, app, args[0], model.CategoryDone)
		},
	}
}

func newTasksStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id> <category>",
		Short: "Move a task to a status category (backlog|todo|in_progress|done)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := model.ParseCategory(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			return setCategory(cmd, app, args[0], cat)
		},
	}
}

func setCategory(cmd *cobra.Command, app *App, taskID string, cat model.Category) error {
	ctx := cmd.Context()
	s, err := newSession(ctx, app, notify.Writer{W: cmd.ErrOrStderr()})
	if err != nil {
		return writeErr(cmd, err)
	}
	guildID := s.engine.Guard().ActiveTenant()

	task, err := findTask(ctx, s, guildID, taskID)
	if err != nil {
		return writeErr(cmd, err)
	}
	if !s.engine.SetTaskCategory(ctx, &task, cat) {
		// The engine already notified; reflect the failure in the exit code.
		return fmt.Errorf("task %s not updated", taskID)
	}
	s.rememberGuild(ctx)
	return writeOut(cmd, app, map[string]any{"data": task})
}

func findTask(ctx context.Context, s *session, guildID, taskID string) (model.Task, error) {
	tasks, err := s.svc.ListTasks(ctx, guildID, "")
	if err != nil {
		return model.Task{}, err
	}
	tasks = s.engine.ObserveTasks(ctx, tasks)
	for _, t := range tasks {
		if t.ID == taskID {
			return t, nil
		}
	}
	return model.Task{}, fmt.Errorf("task not found: %s", taskID)
}

func newTasksMoveCmd(app *App) *cobra.Command {
	var before string
	var after string
	var projectID string
	cmd := &cobra.Command{
		Use:   "move <task-id>",
		Short: "Reorder a task in the custom order",
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

			tasks, err := s.svc.ListTasks(ctx, guildID, projectID)
			if err != nil {
				return writeErr(cmd, err)
			}
			items := make([]ordering.Item, 0, len(tasks))
			for _, t := range tasks {
				items = append(items, ordering.FromTask(t))
			}
			_, orderable := ordering.Partition(items)

			scope := ordering.TasksScope(guildID, projectID)
			l, err := buildList(ctx, s, scope, guildID, itemIDs(orderable), func(ctx context.Context) ([]string, error) {
				ts, err := s.svc.ListTasks(ctx, guildID, projectID)
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
	cmd.Flags().StringVar(&before, "before", "", "Move before task id")
	cmd.Flags().StringVar(&after, "after", "", "Move after task id")
	cmd.Flags().StringVar(&projectID, "project", "", "Scope the order to a project list")
	return cmd
}
