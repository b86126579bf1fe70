package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"guildboard-cli/internal/model"
	"guildboard-cli/internal/notify"
)

// status resolve is a debugging aid: it shows which concrete status a
// category lands on for a project, including the fallback walk.
func newStatusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Inspect status resolution",
	}
	cmd.AddCommand(newStatusResolveCmd(app))
	return cmd
}

func newStatusResolveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <project-id> <category>",
		Short: "Resolve a category to the project's concrete status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, err := model.ParseCategory(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			s, err := newSession(ctx, app, notify.Writer{W: cmd.ErrOrStderr()})
			if err != nil {
				return writeErr(cmd, err)
			}
			guildID := s.engine.Guard().ActiveTenant()

			statuses, err := s.engine.Statuses().Ensure(ctx, args[0], guildID)
			if err != nil {
				return writeErr(cmd, err)
			}
			statusID, ok := s.engine.Statuses().ResolveForCategory(ctx, args[0], cat, guildID)
			if !ok {
				return writeErr(cmd, errors.New("unable to determine status: no category in the fallback chain is present"))
			}
			var resolved model.Status
			for _, st := range statuses {
				if st.ID == statusID {
					resolved = st
					break
				}
			}
			return writeOut(cmd, app, map[string]any{
				"requested": cat,
				"chain":     cat.FallbackChain(),
				"resolved":  resolved,
			})
		},
	}
}
