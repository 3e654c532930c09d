// Package task contributes the Task Center: jobs, templates and Ansible
// tasks under one nested route.
package task

import (
	"context"

	"github.com/opshub/console/internal/logx"
	"github.com/opshub/console/internal/plugin"
)

var info = plugin.Info{
	Name:        "task",
	PrettyName:  "Task Center",
	Description: "Task center for jobs, job templates and Ansible tasks",
	Version:     "1.0.0",
	Author:      "OpsHub Team",
}

const parentPath = "/task"

type TaskPlugin struct{}

func New() *TaskPlugin {
	return &TaskPlugin{}
}

func (p *TaskPlugin) Name() string {
	return info.Name
}

func (p *TaskPlugin) Info() plugin.Info {
	return info
}

func (p *TaskPlugin) Install(ctx context.Context) error {
	log := logx.Component("task")
	log.Info().Msg("plugin installing")
	return nil
}

func (p *TaskPlugin) Uninstall(ctx context.Context) error {
	log := logx.Component("task")
	log.Info().Msg("plugin uninstalling")
	return nil
}

func (p *TaskPlugin) Menus() []plugin.MenuConfig {
	return []plugin.MenuConfig{
		{Name: "Task Center", Path: parentPath, Icon: "Tickets", Sort: 90},
		{Name: "Jobs", Path: "/task/jobs", Icon: "List", Sort: 1, ParentPath: parentPath},
		{Name: "Templates", Path: "/task/templates", Icon: "Document", Sort: 2, ParentPath: parentPath},
		{Name: "Ansible Tasks", Path: "/task/ansible", Icon: "Setting", Sort: 3, ParentPath: parentPath},
	}
}

func (p *TaskPlugin) Routes() []plugin.RouteConfig {
	return []plugin.RouteConfig{{
		Path:      parentPath,
		Name:      "Task",
		Component: "task/Index",
		Meta:      map[string]interface{}{"title": "Task Center"},
		Children: []plugin.RouteConfig{
			{Path: "jobs", Name: "TaskJobs", Component: "task/Jobs", Meta: map[string]interface{}{"title": "Jobs"}},
			{Path: "templates", Name: "TaskTemplates", Component: "task/Templates", Meta: map[string]interface{}{"title": "Templates"}},
			{Path: "ansible", Name: "TaskAnsible", Component: "task/Ansible", Meta: map[string]interface{}{"title": "Ansible Tasks"}},
		},
	}}
}
