package monitor

import (
	"context"
	"testing"

	"github.com/opshub/console/internal/plugin"
)

func TestMonitorPluginInfo(t *testing.T) {
	p := New()
	if p.Name() != "monitor" {
		t.Errorf("expected name 'monitor', got '%s'", p.Name())
	}
	i := p.Info()
	if i.PrettyName != "Monitor Center" {
		t.Errorf("expected pretty name 'Monitor Center', got '%s'", i.PrettyName)
	}
	if problems := plugin.Lint(i); len(problems) != 0 {
		t.Errorf("expected clean metadata, got %v", problems)
	}
}

func TestMonitorNavigation(t *testing.T) {
	p := New()
	nav := plugin.Project([]plugin.Contribution{{Plugin: p.Name(), Menus: p.Menus(), Routes: p.Routes()}})

	if len(nav.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", nav.Warnings)
	}
	if len(nav.Menus) != 1 {
		t.Fatalf("expected 1 top-level menu, got %d", len(nav.Menus))
	}
	top := nav.Menus[0]
	if top.Path != "/monitor" || top.Sort != 20 {
		t.Errorf("unexpected top menu %+v", top.MenuConfig)
	}
	if len(top.Children) != 2 || top.Children[0].Path != "/monitor/domain" || top.Children[1].Path != "/monitor/trouble" {
		t.Errorf("unexpected children %+v", top.Children)
	}

	r, ok := nav.Lookup("/monitor")
	if !ok {
		t.Fatal("expected /monitor route")
	}
	if r.Redirect != "/monitor/domain" {
		t.Errorf("expected redirect to /monitor/domain, got '%s'", r.Redirect)
	}
	for _, name := range []string{"DomainMonitor", "TroubleHandling"} {
		if _, ok := nav.RouteByName(name); !ok {
			t.Errorf("expected route %s", name)
		}
	}
}

func TestMonitorHooks(t *testing.T) {
	p := New()
	if err := p.Install(context.Background()); err != nil {
		t.Errorf("Install failed: %v", err)
	}
	if err := p.Uninstall(context.Background()); err != nil {
		t.Errorf("Uninstall failed: %v", err)
	}
}
