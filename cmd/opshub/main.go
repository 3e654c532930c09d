// Command opshub drives the opshub console from a terminal: sign in,
// manage plugins and inspect backend resources.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/opshub/console/internal/app"
	"github.com/opshub/console/internal/config"
	"github.com/opshub/console/internal/logx"
	"github.com/opshub/console/internal/notify"
	"github.com/opshub/console/internal/request"
)

var version = "dev"

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	server     string
	store      string
	configFile string
	output     string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "opshub",
		Short: "CLI for the OpsHub console",
		Long: `opshub talks to the OpsHub REST backend with the same facade the console uses.
Installed plugins and the login token are kept in the local store, so a console
server sharing that store picks up changes made here.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&o.server, "server", "", "Backend URL (overrides OPSHUB_SERVER)")
	flags.StringVar(&o.store, "store", "", "State store DSN (overrides OPSHUB_STORE)")
	flags.StringVar(&o.configFile, "config", "", "Config file (default ~/.opshub/config.yaml)")
	flags.StringVarP(&o.output, "output", "o", "table", "Output format: table or json")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level (default from LOG_LEVEL, else warn)")

	rootCmd.AddCommand(
		newLoginCmd(o),
		newLogoutCmd(o),
		newWhoamiCmd(o),
		newVersionCmd(),
		newPluginCmd(o),
		newAssetGroupCmd(o),
		newAuditCmd(o),
		newTaskCmd(o),
		newCertCmd(o),
		newArthasCmd(o),
	)
	return rootCmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	path := o.configFile
	if path == "" {
		path = config.DefaultFile()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if o.server != "" {
		cfg.Server = o.server
	}
	if o.store != "" {
		cfg.Store = o.store
	}
	return cfg, nil
}

// run opens the application for one command and closes it afterwards.
func (o *rootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	level := o.logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "warn"
	}
	logx.ConfigureOutput(level, cmd.ErrOrStderr())

	stderr := cmd.ErrOrStderr()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, app.Options{
		Config:   cfg,
		Notifier: notify.NewWriter(stderr),
		QuietLog: true,
		Navigator: request.NavigatorFunc(func(context.Context) {
			fmt.Fprintln(stderr, "Run 'opshub login' to sign in again.")
		}),
	})
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func (o *rootOptions) jsonOutput() bool {
	return o.output == "json"
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
