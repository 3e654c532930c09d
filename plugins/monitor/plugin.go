// Package monitor contributes the Monitor Center screens: domain
// monitoring and trouble handling.
package monitor

import (
	"context"

	"github.com/opshub/console/internal/logx"
	"github.com/opshub/console/internal/plugin"
)

var info = plugin.Info{
	Name:        "monitor",
	PrettyName:  "Monitor Center",
	Description: "Monitor center with domain monitoring and trouble handling",
	Version:     "1.0.0",
	Author:      "OpsHub Team",
}

const parentPath = "/monitor"

type MonitorPlugin struct{}

func New() *MonitorPlugin {
	return &MonitorPlugin{}
}

func (p *MonitorPlugin) Name() string {
	return info.Name
}

func (p *MonitorPlugin) Info() plugin.Info {
	return info
}

func (p *MonitorPlugin) Install(ctx context.Context) error {
	log := logx.Component("monitor")
	log.Info().Msg("plugin installing")
	return nil
}

func (p *MonitorPlugin) Uninstall(ctx context.Context) error {
	log := logx.Component("monitor")
	log.Info().Msg("plugin uninstalling")
	return nil
}

func (p *MonitorPlugin) Menus() []plugin.MenuConfig {
	return []plugin.MenuConfig{
		{Name: "Monitor Center", Path: parentPath, Icon: "Monitor", Sort: 20},
		{Name: "Domain Monitor", Path: "/monitor/domain", Icon: "Monitor", Sort: 1, ParentPath: parentPath},
		{Name: "Trouble Handling", Path: "/monitor/trouble", Icon: "Warning", Sort: 2, ParentPath: parentPath},
	}
}

func (p *MonitorPlugin) Routes() []plugin.RouteConfig {
	return []plugin.RouteConfig{
		{
			Path:      parentPath,
			Name:      "Monitor",
			Component: "monitor/DomainMonitor",
			Redirect:  "/monitor/domain",
			Meta:      map[string]interface{}{"title": "Monitor Center"},
		},
		{
			Path:      "/monitor/domain",
			Name:      "DomainMonitor",
			Component: "monitor/DomainMonitor",
			Meta:      map[string]interface{}{"title": "Domain Monitor"},
		},
		{
			Path:      "/monitor/trouble",
			Name:      "TroubleHandling",
			Component: "monitor/TroubleHandling",
			Meta:      map[string]interface{}{"title": "Trouble Handling"},
		},
	}
}
