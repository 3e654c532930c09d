package plugin

import (
	"path"
	"sort"
	"strings"
)

// LayoutRoute is the name of the root route every plugin route hangs under.
const LayoutRoute = "Layout"

// Contribution is what one installed plugin adds to the navigation.
type Contribution struct {
	Plugin string
	Menus  []MenuConfig
	Routes []RouteConfig
}

// MenuNode is a menu entry placed in the merged tree.
type MenuNode struct {
	MenuConfig
	Plugin   string      `json:"plugin"`
	Children []*MenuNode `json:"children,omitempty"`
}

// Route is a resolved route. Path is always absolute.
type Route struct {
	Path      string                 `json:"path"`
	Name      string                 `json:"name"`
	Component string                 `json:"component,omitempty"`
	Redirect  string                 `json:"redirect,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	Plugin    string                 `json:"plugin,omitempty"`
	Children  []*Route               `json:"children,omitempty"`
}

// Navigation is an immutable snapshot of the merged menus and routes.
type Navigation struct {
	Version  uint64      `json:"version"`
	Menus    []*MenuNode `json:"menus"`
	Root     *Route      `json:"root"`
	Warnings []string    `json:"warnings,omitempty"`
}

// Project merges contributions, in order, into a navigation tree. It is
// pure: the same contributions always give the same tree. Configuration
// defects are reported as warnings and never fail the projection.
func Project(contribs []Contribution) *Navigation {
	nav := &Navigation{Root: &Route{Path: "/", Name: LayoutRoute}}
	nav.Menus = projectMenus(contribs, &nav.Warnings)
	projectRoutes(nav.Root, contribs, &nav.Warnings)
	return nav
}

func projectMenus(contribs []Contribution, warnings *[]string) []*MenuNode {
	var order []*MenuNode
	byPath := make(map[string]*MenuNode)

	for _, c := range contribs {
		for _, m := range c.Menus {
			node := &MenuNode{MenuConfig: m, Plugin: c.Plugin}
			if prev, ok := byPath[m.Path]; ok {
				*warnings = append(*warnings, "menu path "+m.Path+" from "+c.Plugin+" replaces the entry from "+prev.Plugin)
				for i, n := range order {
					if n == prev {
						order = append(order[:i], order[i+1:]...)
						break
					}
				}
			}
			byPath[m.Path] = node
			order = append(order, node)
		}
	}

	var top []*MenuNode
	for _, node := range order {
		parent := node.ParentPath
		if parent == "" {
			top = append(top, node)
			continue
		}
		p, ok := byPath[parent]
		if !ok {
			*warnings = append(*warnings, "menu "+node.Path+" references missing parent "+parent+"; shown at top level")
			top = append(top, node)
			continue
		}
		if inCycle(node, byPath) {
			*warnings = append(*warnings, "menu "+node.Path+" is part of a parent cycle through "+parent+"; shown at top level")
			top = append(top, node)
			continue
		}
		p.Children = append(p.Children, node)
	}

	sortMenus(top)
	return top
}

// inCycle reports whether following ParentPath from node leads back to
// node itself. A node that merely descends from a cycle is not in it.
func inCycle(node *MenuNode, byPath map[string]*MenuNode) bool {
	seen := make(map[string]bool)
	cur := node
	for cur.ParentPath != "" {
		next, ok := byPath[cur.ParentPath]
		if !ok {
			return false
		}
		if next.Path == node.Path {
			return true
		}
		if seen[next.Path] {
			return false
		}
		seen[next.Path] = true
		cur = next
	}
	return false
}

func sortMenus(nodes []*MenuNode) {
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Sort < nodes[j].Sort })
	for _, n := range nodes {
		sortMenus(n.Children)
	}
}

func projectRoutes(root *Route, contribs []Contribution, warnings *[]string) {
	for _, c := range contribs {
		for _, rc := range c.Routes {
			addRoute(root, root, rc, c.Plugin, warnings)
		}
	}
}

func addRoute(root, parent *Route, rc RouteConfig, plugin string, warnings *[]string) {
	r := &Route{
		Path:      joinPath(parent.Path, rc.Path),
		Name:      rc.Name,
		Component: rc.Component,
		Redirect:  rc.Redirect,
		Meta:      copyMeta(rc.Meta),
		Plugin:    plugin,
	}
	if r.Name != "" {
		if prev := findByName(root, r.Name); prev != nil {
			*warnings = append(*warnings, "route name "+r.Name+" from "+plugin+" replaces the route from "+prev.Plugin)
			removeByName(root, r.Name)
		}
	}
	parent.Children = append(parent.Children, r)
	for _, child := range rc.Children {
		addRoute(root, r, child, plugin, warnings)
	}
}

func joinPath(parent, p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	if p == "" {
		return parent
	}
	return path.Join(parent, p)
}

func copyMeta(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func findByName(r *Route, name string) *Route {
	for _, c := range r.Children {
		if c.Name == name {
			return c
		}
		if found := findByName(c, name); found != nil {
			return found
		}
	}
	return nil
}

func removeByName(r *Route, name string) bool {
	for i, c := range r.Children {
		if c.Name == name {
			r.Children = append(r.Children[:i:i], r.Children[i+1:]...)
			return true
		}
		if removeByName(c, name) {
			return true
		}
	}
	return false
}

// Lookup returns the route registered at path.
func (n *Navigation) Lookup(p string) (*Route, bool) {
	if n == nil || n.Root == nil {
		return nil, false
	}
	p = path.Clean("/" + strings.TrimSpace(p))
	if p == n.Root.Path {
		return n.Root, true
	}
	var found *Route
	walkRoutes(n.Root.Children, func(r *Route) bool {
		if r.Path == p {
			found = r
			return false
		}
		return true
	})
	return found, found != nil
}

// Routes returns every route below the layout root, parents first.
func (n *Navigation) Routes() []*Route {
	if n == nil || n.Root == nil {
		return nil
	}
	var out []*Route
	walkRoutes(n.Root.Children, func(r *Route) bool {
		out = append(out, r)
		return true
	})
	return out
}

// RouteByName returns the route with the given name.
func (n *Navigation) RouteByName(name string) (*Route, bool) {
	if n == nil || n.Root == nil {
		return nil, false
	}
	r := findByName(n.Root, name)
	return r, r != nil
}

func walkRoutes(routes []*Route, fn func(*Route) bool) bool {
	for _, r := range routes {
		if !fn(r) {
			return false
		}
		if !walkRoutes(r.Children, fn) {
			return false
		}
	}
	return true
}
