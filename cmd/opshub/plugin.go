package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/opshub/console/internal/app"
	"github.com/opshub/console/internal/plugin"
)

func newPluginCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plugin",
		Aliases: []string{"plugins"},
		Short:   "List, install and uninstall console plugins",
	}
	cmd.AddCommand(
		newPluginListCmd(o),
		newPluginInstallCmd(o),
		newPluginUninstallCmd(o),
		newPluginMenusCmd(o),
		newPluginRoutesCmd(o),
		newPluginOpenCmd(o),
	)
	return cmd
}

func newPluginListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				statuses := a.Registry.Statuses()
				if o.jsonOutput() {
					return printJSON(out(cmd), statuses)
				}
				var rows []table.Row
				for _, s := range statuses {
					installed := "no"
					if s.Installed {
						installed = "yes"
					}
					rows = append(rows, table.Row{s.Name, s.PrettyName, s.Version, installed, s.Description})
				}
				renderTable(out(cmd), table.Row{"Name", "Title", "Version", "Installed", "Description"}, rows)
				return nil
			})
		},
	}
}

func newPluginInstallCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install <name>...",
		Short: "Install plugins and add their menus and routes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				for _, name := range args {
					if err := a.Registry.Install(ctx, name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newPluginUninstallCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <name>...",
		Short: "Uninstall plugins and remove their menus and routes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				for _, name := range args {
					if err := a.Registry.Uninstall(ctx, name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newPluginMenusCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "menus",
		Short: "Show the merged menu tree of installed plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				nav := a.Registry.Navigation()
				if o.jsonOutput() {
					return printJSON(out(cmd), nav.Menus)
				}
				tw := newTreeWriter(out(cmd))
				var walk func(nodes []*plugin.MenuNode, depth int)
				walk = func(nodes []*plugin.MenuNode, depth int) {
					for _, n := range nodes {
						label := fmt.Sprintf("%s  %s", n.Name, n.Path)
						if n.Hidden {
							label += " (hidden)"
						}
						tw.Add(label, depth)
						walk(n.Children, depth+1)
					}
				}
				walk(nav.Menus, 0)
				tw.Render()
				for _, warning := range nav.Warnings {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
				}
				return nil
			})
		},
	}
}

func newPluginRoutesCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the view routes contributed by installed plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				nav := a.Registry.Navigation()
				if o.jsonOutput() {
					return printJSON(out(cmd), nav.Root)
				}
				var rows []table.Row
				for _, r := range nav.Routes() {
					rows = append(rows, table.Row{r.Path, r.Name, r.Component, r.Redirect, r.Plugin})
				}
				renderTable(out(cmd), table.Row{"Path", "Name", "Component", "Redirect", "Plugin"}, rows)
				return nil
			})
		},
	}
}

func newPluginOpenCmd(o *rootOptions) *cobra.Command {
	var consoleURL string
	cmd := &cobra.Command{
		Use:   "open <name>",
		Short: "Open a plugin's first screen in the browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, a *app.App) error {
				name := args[0]
				p, ok := a.Registry.Get(name)
				if !ok {
					return fmt.Errorf("%w: %s", plugin.ErrPluginNotFound, name)
				}
				if !a.Registry.IsInstalled(name) {
					return fmt.Errorf("%w: %s", plugin.ErrNotInstalled, name)
				}
				mp, ok := p.(plugin.MenuProvider)
				if !ok || len(mp.Menus()) == 0 {
					return fmt.Errorf("plugin %s has no screens", name)
				}

				base := consoleURL
				if base == "" {
					base = "http://localhost:" + a.Config.Port
				}
				target := strings.TrimRight(base, "/") + mp.Menus()[0].Path
				if err := browser.OpenURL(target); err != nil {
					fmt.Fprintf(out(cmd), "Open this URL in your browser:\n  %s\n", target)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&consoleURL, "console", "", "Console UI URL (default http://localhost:<PORT>)")
	return cmd
}
