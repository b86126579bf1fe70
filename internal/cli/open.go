package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"guildboard-cli/internal/actions"
	"guildboard-cli/internal/notify"
)

// open implements switch-then-navigate for cross-guild targets: the guild
// context is switched first, and only on success is the target surfaced.
func newOpenCmd(app *App) *cobra.Command {
	var guild string
	cmd := &cobra.Command{
		Use:   "open <kind> <id>",
		Short: "Open a project, task or document, switching guilds when needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind, id := args[0], args[1]
			switch kind {
			case "project", "task", "document", "initiative":
			default:
				return writeErr(cmd, fmt.Errorf("unknown kind %q (want project|task|document|initiative)", kind))
			}
			s, err := newSession(ctx, app, notify.Writer{W: cmd.ErrOrStderr()})
			if err != nil {
				return writeErr(cmd, err)
			}
			ref := actions.EntityRef{Kind: kind, ID: id, OwnerTenantID: guild}
			if !s.engine.OpenEntity(ctx, ref) {
				return fmt.Errorf("could not open %s %s", kind, id)
			}
			s.rememberGuild(ctx)
			return writeOut(cmd, app, map[string]any{
				"opened": ref,
				"guild":  s.engine.Guard().ActiveTenant(),
			})
		},
	}
	cmd.Flags().StringVar(&guild, "owner-guild", "", "Owning guild id of the target (triggers a switch when it differs)")
	return cmd
}
