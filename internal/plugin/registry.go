// Package plugin holds the plugin registry: which feature modules exist,
// which are installed, and the navigation their contributions project to.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/opshub/console/internal/logx"
	"github.com/opshub/console/internal/metrics"
	"github.com/opshub/console/internal/notify"
	"github.com/opshub/console/internal/storage"
)

var (
	ErrPluginNotFound = errors.New("plugin not found")
	ErrNotInstalled   = errors.New("plugin not installed")
)

// HookError wraps a failure of a plugin's install or uninstall hook.
type HookError struct {
	Plugin string
	Op     string
	Err    error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("plugin %q %s failed: %v", e.Plugin, e.Op, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// Status pairs a plugin's metadata with its installed state.
type Status struct {
	Info
	Installed bool `json:"installed"`
}

// Options configures a Registry. A nil Store keeps the installed set in
// memory only.
type Options struct {
	Store    *InstalledStore
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
}

type Registry struct {
	mu        sync.RWMutex
	plugins   map[string]Plugin
	order     []string
	installed []string
	nav       *Navigation
	version   uint64
	subs      map[int]func(*Navigation)
	nextSub   int

	deliverMu sync.Mutex
	delivered uint64

	store    *InstalledStore
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	flight singleflight.Group
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewRegistry creates a registry and reads the persisted installed set.
// Read failures leave the set empty; they are logged, never returned.
func NewRegistry(ctx context.Context, opts Options) *Registry {
	r := &Registry{
		plugins:  make(map[string]Plugin),
		subs:     make(map[int]func(*Navigation)),
		locks:    make(map[string]*sync.Mutex),
		store:    opts.Store,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		logger:   logx.Component("plugin"),
	}
	if r.store == nil {
		r.store = NewInstalledStore(storage.NewMemory())
	}
	if r.notifier == nil {
		r.notifier = notify.Discard
	}

	r.installed, _ = r.load(ctx)
	r.rebuild()
	return r
}

func (r *Registry) load(ctx context.Context) ([]string, LoadResult) {
	names, result, err := r.store.Load(ctx)
	switch result {
	case LoadOK:
		r.logger.Debug().Strs("plugins", names).Msg("loaded installed plugins")
	case LoadAbsent:
		r.logger.Debug().Msg("no installed plugins stored")
	case LoadCorrupt:
		r.logger.Warn().Err(err).Str("result", result.String()).Msg("installed plugin list is corrupt")
	case LoadUnavailable:
		r.logger.Warn().Err(err).Str("result", result.String()).Msg("installed plugin list unavailable")
	}
	return names, result
}

// Register adds or replaces a plugin by name. Installed state is untouched.
func (r *Registry) Register(p Plugin) {
	name := p.Name()
	r.mu.Lock()
	if _, exists := r.plugins[name]; !exists {
		r.order = append(r.order, name)
	} else {
		r.logger.Debug().Str("plugin", name).Msg("replacing registered plugin")
	}
	r.plugins[name] = p
	r.mu.Unlock()

	r.rebuild()
}

// Install installs a plugin and reports the outcome as a notice.
func (r *Registry) Install(ctx context.Context, name string) error {
	return r.install(ctx, name, true)
}

// InstallQuiet installs a plugin without emitting notices.
func (r *Registry) InstallQuiet(ctx context.Context, name string) error {
	return r.install(ctx, name, false)
}

// install runs at most once at a time per name; concurrent callers share
// the result. The flight runs detached from the caller that started it;
// each caller stops waiting when its own ctx is done.
func (r *Registry) install(ctx context.Context, name string, loud bool) error {
	flightCtx := context.WithoutCancel(ctx)
	ch := r.flight.DoChan(name, func() (interface{}, error) {
		unlock := r.lockName(name)
		defer unlock()
		return nil, r.doInstall(flightCtx, name, loud)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) doInstall(ctx context.Context, name string, loud bool) error {
	p, ok := r.Get(name)
	if !ok {
		if loud {
			r.notify(ctx, notify.LevelError, "plugin %s not found", name)
		}
		r.observe(name, "install", "not_found")
		return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}

	if r.IsInstalled(name) {
		r.rebuild()
		return nil
	}

	if err := safeHook(ctx, p.Install); err != nil {
		if loud {
			r.notify(ctx, notify.LevelError, "plugin %s install failed", name)
		}
		r.observe(name, "install", "hook_error")
		r.logger.Error().Err(err).Str("plugin", name).Msg("install hook failed")
		return &HookError{Plugin: name, Op: "install", Err: err}
	}

	r.mu.Lock()
	r.installed = append(r.installed, name)
	snapshot := append([]string(nil), r.installed...)
	r.mu.Unlock()

	r.persist(ctx, snapshot)
	r.rebuild()
	r.observe(name, "install", "success")
	r.logger.Info().Str("plugin", name).Msg("plugin installed")
	if loud {
		r.notify(ctx, notify.LevelSuccess, "plugin %s installed", name)
	}
	return nil
}

// Uninstall runs the plugin's uninstall hook and removes it from the
// installed set. Its menus and routes disappear from the navigation at once.
func (r *Registry) Uninstall(ctx context.Context, name string) error {
	unlock := r.lockName(name)
	defer unlock()

	p, ok := r.Get(name)
	if !ok {
		r.notify(ctx, notify.LevelError, "plugin %s not found", name)
		r.observe(name, "uninstall", "not_found")
		return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	if !r.IsInstalled(name) {
		r.notify(ctx, notify.LevelWarning, "plugin %s is not installed", name)
		r.observe(name, "uninstall", "not_installed")
		return fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}

	if err := safeHook(ctx, p.Uninstall); err != nil {
		r.notify(ctx, notify.LevelError, "plugin %s uninstall failed", name)
		r.observe(name, "uninstall", "hook_error")
		r.logger.Error().Err(err).Str("plugin", name).Msg("uninstall hook failed")
		return &HookError{Plugin: name, Op: "uninstall", Err: err}
	}

	r.mu.Lock()
	kept := r.installed[:0:0]
	for _, n := range r.installed {
		if n != name {
			kept = append(kept, n)
		}
	}
	r.installed = kept
	snapshot := append([]string(nil), kept...)
	r.mu.Unlock()

	r.persist(ctx, snapshot)
	r.rebuild()
	r.observe(name, "uninstall", "success")
	r.logger.Info().Str("plugin", name).Msg("plugin uninstalled")
	r.notify(ctx, notify.LevelSuccess, "plugin %s uninstalled", name)
	return nil
}

// Restore replays a quiet install for every persisted name, re-applying
// contributions at startup. Names that are not registered are reported.
func (r *Registry) Restore(ctx context.Context) error {
	var errs []error
	for _, name := range r.InstalledNames() {
		if err := r.InstallQuiet(ctx, name); err != nil {
			r.logger.Warn().Err(err).Str("plugin", name).Msg("failed to restore plugin")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reload re-reads the installed set from storage, for when another process
// changed it, and rebuilds the navigation. No hooks run.
// A corrupt or unavailable read keeps the current set.
func (r *Registry) Reload(ctx context.Context) LoadResult {
	names, result := r.load(ctx)
	if result == LoadCorrupt || result == LoadUnavailable {
		r.logger.Warn().Str("result", result.String()).Msg("keeping current installed plugins")
		return result
	}
	r.mu.Lock()
	r.installed = names
	r.mu.Unlock()
	r.rebuild()
	return result
}

// Get returns a registered plugin.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// All returns the registered plugins in registration order.
func (r *Registry) All() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.plugins[name])
	}
	return out
}

// Installed returns the registered plugins that are installed, in
// registration order.
func (r *Registry) Installed() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.installedSet()
	var out []Plugin
	for _, name := range r.order {
		if set[name] {
			out = append(out, r.plugins[name])
		}
	}
	return out
}

// InstalledNames returns the installed set in install order, including
// names that are not registered in this process.
func (r *Registry) InstalledNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.installed...)
}

func (r *Registry) IsInstalled(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.installed {
		if n == name {
			return true
		}
	}
	return false
}

// Statuses lists every registered plugin with its installed flag.
func (r *Registry) Statuses() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.installedSet()
	out := make([]Status, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Status{Info: r.plugins[name].Info(), Installed: set[name]})
	}
	return out
}

// Navigation returns the current projection.
func (r *Registry) Navigation() *Navigation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nav
}

// Subscribe registers fn to be called with new projections, one call at a
// time and in increasing Version order. A snapshot superseded before its
// delivery is skipped. fn must not modify the registry. The returned
// function removes the subscription.
func (r *Registry) Subscribe(fn func(*Navigation)) func() {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// installedSet must be called with r.mu held.
func (r *Registry) installedSet() map[string]bool {
	set := make(map[string]bool, len(r.installed))
	for _, n := range r.installed {
		set[n] = true
	}
	return set
}

// rebuild recomputes the navigation from the installed, registered
// plugins in install order and notifies subscribers.
func (r *Registry) rebuild() {
	r.mu.Lock()
	var contribs []Contribution
	for _, name := range r.installed {
		p, ok := r.plugins[name]
		if !ok {
			continue
		}
		contribs = append(contribs, Contribution{Plugin: name, Menus: menusOf(p), Routes: routesOf(p)})
	}
	nav := Project(contribs)
	r.version++
	nav.Version = r.version
	r.nav = nav
	installedCount := len(contribs)
	subs := make([]func(*Navigation), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, w := range nav.Warnings {
		r.logger.Warn().Msg(w)
	}
	if r.metrics != nil {
		r.metrics.NavigationRebuilds.Inc()
		r.metrics.PluginsInstalled.Set(float64(installedCount))
	}
	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()
	if nav.Version <= r.delivered {
		return
	}
	r.delivered = nav.Version
	for _, fn := range subs {
		fn(nav)
	}
}

func (r *Registry) persist(ctx context.Context, names []string) {
	if err := r.store.Save(ctx, names); err != nil {
		r.logger.Warn().Err(err).Msg("failed to persist installed plugins")
	}
}

func (r *Registry) notify(ctx context.Context, level notify.Level, format string, args ...interface{}) {
	r.notifier.Notify(ctx, notify.New(level, format, args...))
	if r.metrics != nil {
		r.metrics.NoticesTotal.WithLabelValues(string(level)).Inc()
	}
}

func (r *Registry) observe(name, op, status string) {
	if r.metrics != nil {
		r.metrics.PluginOperationsTotal.WithLabelValues(name, op, status).Inc()
	}
}

func (r *Registry) lockName(name string) func() {
	r.lockMu.Lock()
	l, ok := r.locks[name]
	if !ok {
		l = &sync.Mutex{}
		r.locks[name] = l
	}
	r.lockMu.Unlock()
	l.Lock()
	return l.Unlock
}

// safeHook runs a lifecycle hook, converting panics to errors.
func safeHook(ctx context.Context, hook func(context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return hook(ctx)
}
