// Package app wires the console kit together: configuration, durable
// storage, credentials, notice sinks, the backend facade, the API modules
// and the plugin registry with the built-in plugins.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/opshub/console/internal/api/account"
	"github.com/opshub/console/internal/api/arthas"
	"github.com/opshub/console/internal/api/assetgroup"
	"github.com/opshub/console/internal/api/audit"
	"github.com/opshub/console/internal/api/task"
	"github.com/opshub/console/internal/config"
	"github.com/opshub/console/internal/credential"
	"github.com/opshub/console/internal/logx"
	"github.com/opshub/console/internal/metrics"
	"github.com/opshub/console/internal/notify"
	"github.com/opshub/console/internal/plugin"
	"github.com/opshub/console/internal/request"
	"github.com/opshub/console/internal/storage"
	"github.com/opshub/console/plugins/monitor"
	"github.com/opshub/console/plugins/sslcert"
	taskplugin "github.com/opshub/console/plugins/task"
)

// Options carries what differs between the server and the CLI.
type Options struct {
	Config *config.Config
	// Notifier receives every notice in addition to the configured sinks.
	Notifier  notify.Notifier
	Navigator request.Navigator
	Metrics   *metrics.Metrics
	// Store overrides the store named by Config.Store.
	Store      storage.KV
	HTTPClient *http.Client
	// QuietLog stops notices from also being written to the log, for
	// callers that print them already.
	QuietLog bool
}

type App struct {
	Config      *config.Config
	Store       storage.KV
	Credentials *credential.Store
	Notifier    notify.Notifier
	Client      *request.Client
	Registry    *plugin.Registry
	Metrics     *metrics.Metrics

	Account     *account.API
	AssetGroups *assetgroup.API
	Audit       *audit.API
	Tasks       *task.API
	Arthas      *arthas.API
	Certs       *sslcert.API

	closers []io.Closer
	logger  zerolog.Logger
}

// New builds the application and restores the installed plugins. Restore
// failures are logged; they never fail startup.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Load()
	}
	a := &App{Config: cfg, Metrics: opts.Metrics, logger: logx.Component("app")}

	kv := opts.Store
	if kv == nil {
		var err error
		kv, err = storage.Open(ctx, cfg.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		a.closers = append(a.closers, kv)
	}
	a.Store = kv
	a.Credentials = credential.NewStore(kv)

	sinks, err := a.noticeSinks(opts.Notifier, opts.QuietLog)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Notifier = sinks

	a.Client = request.New(cfg.Server, request.Options{
		Timeout:    cfg.Timeout,
		HTTPClient: opts.HTTPClient,
		Tokens:     a.Credentials,
		Notifier:   a.Notifier,
		Navigator:  opts.Navigator,
		Metrics:    opts.Metrics,
	})

	a.Account = account.New(a.Client)
	a.AssetGroups = assetgroup.New(a.Client)
	a.Audit = audit.New(a.Client)
	a.Tasks = task.New(a.Client)
	a.Arthas = arthas.New(a.Client)
	a.Arthas.ProfilerTimeout = cfg.LongTimeout
	a.Certs = sslcert.NewAPI(a.Client)

	a.Registry = plugin.NewRegistry(ctx, plugin.Options{
		Store:    plugin.NewInstalledStore(kv),
		Notifier: a.Notifier,
		Metrics:  opts.Metrics,
	})
	for _, p := range a.Builtins() {
		a.Register(p)
	}
	if err := a.Registry.Restore(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("some installed plugins could not be restored")
	}
	return a, nil
}

func (a *App) noticeSinks(extra notify.Notifier, quiet bool) (notify.Notifier, error) {
	sinks := notify.Multi{extra}
	if !quiet {
		sinks = append(sinks, notify.NewLog(logx.Component("notice")))
	}

	if a.Config.NotifyWebhookURL != "" {
		wh, err := notify.NewWebhook(notify.WebhookConfig{URL: a.Config.NotifyWebhookURL})
		if err != nil {
			return nil, fmt.Errorf("failed to configure notice webhook: %w", err)
		}
		sinks = append(sinks, wh)
		a.closers = append(a.closers, wh)
	}

	if brokers := a.Config.KafkaBrokerList(); len(brokers) > 0 {
		k, err := notify.NewKafka(brokers, a.Config.KafkaNoticeTopic)
		if err != nil {
			return nil, fmt.Errorf("failed to configure kafka notices: %w", err)
		}
		sinks = append(sinks, k)
		a.closers = append(a.closers, k)
	}
	return sinks, nil
}

// Builtins returns the plugins shipped with the console.
func (a *App) Builtins() []plugin.Plugin {
	return []plugin.Plugin{
		monitor.New(),
		sslcert.New(a.Certs),
		taskplugin.New(),
	}
}

// Register adds p to the registry, logging metadata problems.
func (a *App) Register(p plugin.Plugin) {
	for _, problem := range plugin.Lint(p.Info()) {
		a.logger.Warn().Str("plugin", p.Name()).Msg(problem)
	}
	a.Registry.Register(p)
}

// Watch reloads the installed set whenever another process changes the
// store. Stores that cannot report changes make this a no-op.
func (a *App) Watch(ctx context.Context, onReload func(plugin.LoadResult)) error {
	w, ok := a.Store.(storage.Watcher)
	if !ok {
		a.logger.Debug().Msg("store does not support watching")
		return nil
	}
	return w.Watch(ctx, func() {
		result := a.Registry.Reload(ctx)
		a.logger.Info().Str("result", result.String()).Msg("installed plugins reloaded")
		if onReload != nil {
			onReload(result)
		}
	})
}

// Close releases the store and notice sinks opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
