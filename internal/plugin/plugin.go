package plugin

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Info is the display metadata of a plugin.
type Info struct {
	Name        string `json:"name"`
	PrettyName  string `json:"prettyName"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Author      string `json:"author"`
}

// Plugin defines the interface that all plugins must implement.
type Plugin interface {
	Name() string
	Info() Info
	Install(ctx context.Context) error
	Uninstall(ctx context.Context) error
}

// MenuProvider is implemented by plugins that contribute menu entries.
type MenuProvider interface {
	Menus() []MenuConfig
}

// RouteProvider is implemented by plugins that contribute view routes.
type RouteProvider interface {
	Routes() []RouteConfig
}

// MenuConfig is one menu entry. Path is the tree key; an empty ParentPath
// places the entry at the top level.
type MenuConfig struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Icon       string `json:"icon"`
	Sort       int    `json:"sort"`
	Hidden     bool   `json:"hidden"`
	ParentPath string `json:"parentPath"`
}

// RouteConfig is one view route. Component is a key the UI shell resolves
// to a lazily loaded view. Child paths without a leading slash are
// relative to the parent.
type RouteConfig struct {
	Path      string                 `json:"path"`
	Name      string                 `json:"name"`
	Component string                 `json:"component"`
	Redirect  string                 `json:"redirect,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	Children  []RouteConfig          `json:"children,omitempty"`
}

// Lint reports problems with a plugin's metadata. Registration never
// rejects a plugin; callers log these.
func Lint(info Info) []string {
	var problems []string
	if info.Name == "" {
		problems = append(problems, "plugin has no name")
	}
	if info.Version == "" {
		problems = append(problems, fmt.Sprintf("plugin %q has no version", info.Name))
	} else if _, err := semver.StrictNewVersion(info.Version); err != nil {
		problems = append(problems, fmt.Sprintf("plugin %q version %q is not semantic: %v", info.Name, info.Version, err))
	}
	return problems
}

func menusOf(p Plugin) []MenuConfig {
	if mp, ok := p.(MenuProvider); ok {
		return mp.Menus()
	}
	return nil
}

func routesOf(p Plugin) []RouteConfig {
	if rp, ok := p.(RouteProvider); ok {
		return rp.Routes()
	}
	return nil
}
