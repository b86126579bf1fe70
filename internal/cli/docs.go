package cli

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"guildboard-cli/internal/actions"
	"guildboard-cli/internal/notify"
)

func newDocsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Read project documents",
	}
	cmd.AddCommand(newDocsShowCmd(app))
	return cmd
}

func newDocsShowCmd(app *App) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <document-id>",
		Short: "Render a document's markdown body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, app, notify.Writer{W: cmd.ErrOrStderr()})
			if err != nil {
				return writeErr(cmd, err)
			}
			guildID := s.engine.Guard().ActiveTenant()

			doc, err := s.svc.GetDocument(ctx, guildID, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			// Cross-guild documents go through the same switch-then-open
			// contract as navigation.
			if !s.engine.OpenEntity(ctx, actions.EntityRef{Kind: "document", ID: doc.ID, OwnerTenantID: doc.OwnerTenantID}) {
				return fmt.Errorf("could not open document %s", doc.ID)
			}
			s.rememberGuild(ctx)

			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), doc.Body)
				return nil
			}
			r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
			if err != nil {
				return writeErr(cmd, err)
			}
			out, err := r.Render("# " + doc.Title + "\n\n" + doc.Body)
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the raw markdown without rendering")
	return cmd
}
