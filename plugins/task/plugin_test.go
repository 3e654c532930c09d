package task

import (
	"testing"

	"github.com/opshub/console/internal/plugin"
)

func TestTaskPluginInfo(t *testing.T) {
	p := New()
	if p.Name() != "task" {
		t.Errorf("expected name 'task', got '%s'", p.Name())
	}
	if p.Info().PrettyName != "Task Center" {
		t.Errorf("expected pretty name 'Task Center', got '%s'", p.Info().PrettyName)
	}
	if len(p.Menus()) != 4 {
		t.Errorf("expected 4 menus, got %d", len(p.Menus()))
	}
}

func TestTaskNestedRoutes(t *testing.T) {
	p := New()
	nav := plugin.Project([]plugin.Contribution{{Plugin: p.Name(), Menus: p.Menus(), Routes: p.Routes()}})

	if len(nav.Root.Children) != 1 {
		t.Fatalf("expected 1 route under the layout, got %d", len(nav.Root.Children))
	}
	task := nav.Root.Children[0]
	if task.Name != "Task" || len(task.Children) != 3 {
		t.Fatalf("unexpected task route %+v", task)
	}

	want := map[string]string{
		"/task/jobs":      "TaskJobs",
		"/task/templates": "TaskTemplates",
		"/task/ansible":   "TaskAnsible",
	}
	for path, name := range want {
		r, ok := nav.Lookup(path)
		if !ok {
			t.Errorf("expected route at %s", path)
			continue
		}
		if r.Name != name {
			t.Errorf("expected %s at %s, got %s", name, path, r.Name)
		}
	}

	if nav.Menus[0].Sort != 90 || len(nav.Menus[0].Children) != 3 {
		t.Errorf("unexpected task menu %+v", nav.Menus[0])
	}
}
