package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"guildboard-cli/internal/format"
	"guildboard-cli/internal/notify"
)

func newGuildsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guilds",
		Short: "List and switch guilds",
	}
	cmd.AddCommand(newGuildsListCmd(app))
	cmd.AddCommand(newGuildsUseCmd(app))
	return cmd
}

func newGuildsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the guilds you belong to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, app, notify.Writer{W: cmd.ErrOrStderr()})
			if err != nil {
				return writeErr(cmd, err)
			}
			tenants, err := s.svc.ListTenants(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.Format == "table" {
				t := format.Table{Header: []string{"ID", "NAME", "ACTIVE"}}
				active := s.engine.Guard().ActiveTenant()
				for _, g := range tenants {
					mark := ""
					if g.ID == active {
						mark = "*"
					}
					t.Rows = append(t.Rows, []string{g.ID, g.Name, mark})
				}
				return writeOut(cmd, app, t)
			}
			return writeOut(cmd, app, map[string]any{"data": tenants, "active": s.engine.Guard().ActiveTenant()})
		},
	}
}

func newGuildsUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <guild-id>",
		Short: "Switch the active guild",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, app, notify.Writer{W: cmd.ErrOrStderr()})
			if err != nil {
				return writeErr(cmd, err)
			}
			// Route through the guard so the switch follows the same
			// single-in-flight contract as implicit switches.
			if !s.engine.Guard().EnsureContext(ctx, "guild:"+args[0], args[0]) {
				return errors.New("guild switch failed")
			}
			s.rememberGuild(ctx)
			return writeOut(cmd, app, map[string]any{"active": s.engine.Guard().ActiveTenant()})
		},
	}
}
