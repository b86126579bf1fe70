package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"guildboard-cli/internal/actions"
	"guildboard-cli/internal/api"
	"guildboard-cli/internal/format"
	"guildboard-cli/internal/notify"
	"guildboard-cli/internal/statuscache"
	"guildboard-cli/internal/store"
	"guildboard-cli/internal/tenantctx"
	"guildboard-cli/internal/tui"
)

type App struct {
	ServerURL  string
	Tenant     string
	Format     string
	PrettyJSON bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "guildboard",
		Short:        "Guildboard terminal client",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  guildboard

  # Scriptable commands
  guildboard tasks list
  guildboard tasks done task-41
  guildboard projects move proj-7 --before proj-2
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd.Context(), app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", envOr("GUILDBOARD_SERVER", ""), "Guildboard API base URL (overrides config.json)")
	cmd.PersistentFlags().StringVar(&app.Tenant, "guild", envOr("GUILDBOARD_GUILD", ""), "Guild id to act in (overrides the last-used guild)")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("GUILDBOARD_FORMAT", "json"), "Output format (json|table)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newGuildsCmd(app))
	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newOpenCmd(app))

	return cmd
}

// session wires one engine instance for a command invocation: config, local
// state, API client, caches and guard.
type session struct {
	cfg    *store.GlobalConfig
	state  store.Store
	svc    api.Service
	engine *actions.Engine
}

func newSession(ctx context.Context, app *App, notifier notify.Notifier) (*session, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	serverURL := app.ServerURL
	if serverURL == "" {
		serverURL = cfg.ServerURL
	}
	if serverURL == "" {
		return nil, errors.New("no server configured; pass --server or set serverUrl in config.json")
	}
	tokenPath, err := cfg.TokenPath()
	if err != nil {
		return nil, err
	}
	svc, err := api.NewClient(ctx, serverURL, tokenPath)
	if err != nil {
		return nil, err
	}
	return newSessionWith(ctx, app, cfg, svc, notifier)
}

// newSessionWith is the injectable seam for tests (fake service, temp state).
func newSessionWith(ctx context.Context, app *App, cfg *store.GlobalConfig, svc api.Service, notifier notify.Notifier) (*session, error) {
	state, err := store.Default()
	if err != nil {
		return nil, err
	}

	// Active guild: explicit flag, then last used, then configured default,
	// then the first guild the server lists.
	active := strings.TrimSpace(app.Tenant)
	if active == "" {
		if sess, err := state.LoadSession(ctx); err == nil {
			active = sess.LastGuildID
		}
	}
	if active == "" {
		active = cfg.DefaultGuild
	}

	guard := tenantctx.NewGuard(svc, notifier, active)
	if tenants, err := svc.ListTenants(ctx); err == nil && len(tenants) > 0 {
		names := make(map[string]string, len(tenants))
		for _, t := range tenants {
			names[t.ID] = t.Name
		}
		guard.RememberTenantNames(names)
		if active == "" {
			active = tenants[0].ID
			guard = tenantctx.NewGuard(svc, notifier, active)
			guard.RememberTenantNames(names)
		}
	}
	if active == "" {
		return nil, errors.New("no guild available; check your account or pass --guild")
	}

	cache := statuscache.New(svc)
	engine := actions.New(svc, cache, guard, notifier, state)
	return &session{cfg: cfg, state: state, svc: svc, engine: engine}, nil
}

// rememberGuild persists the session's active guild for the next launch.
func (s *session) rememberGuild(ctx context.Context) {
	sess, err := s.state.LoadSession(ctx)
	if err != nil {
		return
	}
	sess.LastGuildID = s.engine.Guard().ActiveTenant()
	_ = s.state.SaveSession(ctx, sess)
}

func runTUI(ctx context.Context, app *App) error {
	rec := &notify.Recorder{}
	s, err := newSession(ctx, app, rec)
	if err != nil {
		return err
	}
	defer s.rememberGuild(ctx)
	return tui.Run(ctx, tui.Deps{
		Service: s.svc,
		Engine:  s.engine,
		State:   s.state,
		Notes:   rec,
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
