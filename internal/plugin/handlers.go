package plugin

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/opshub/console/internal/httputil"
)

type Handlers struct {
	registry   *Registry
	writeGuard mux.MiddlewareFunc
}

// NewHandlers exposes the registry over HTTP. writeGuard, when non-nil,
// protects install and uninstall.
func NewHandlers(registry *Registry, writeGuard mux.MiddlewareFunc) *Handlers {
	return &Handlers{registry: registry, writeGuard: writeGuard}
}

func (h *Handlers) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/plugins").Subrouter()
	api.HandleFunc("", h.handleList).Methods("GET")
	api.HandleFunc("/installed", h.handleListInstalled).Methods("GET")
	api.HandleFunc("/{name}", h.handleGet).Methods("GET")

	writeAPI := api.PathPrefix("").Subrouter()
	if h.writeGuard != nil {
		writeAPI.Use(h.writeGuard)
	}
	writeAPI.HandleFunc("/{name}/install", h.handleInstall).Methods("POST")
	writeAPI.HandleFunc("/{name}/uninstall", h.handleUninstall).Methods("POST")

	r.HandleFunc("/api/navigation", h.handleNavigation).Methods("GET")
}

func (h *Handlers) handleList(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, h.registry.Statuses())
}

func (h *Handlers) handleListInstalled(w http.ResponseWriter, r *http.Request) {
	infos := []Info{}
	for _, p := range h.registry.Installed() {
		infos = append(infos, p.Info())
	}
	httputil.WriteOK(w, infos)
}

func (h *Handlers) handleGet(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	p, ok := h.registry.Get(name)
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "plugin "+name+" not found")
		return
	}
	httputil.WriteOK(w, struct {
		Status
		Menus  []MenuConfig  `json:"menus"`
		Routes []RouteConfig `json:"routes"`
	}{
		Status: Status{Info: p.Info(), Installed: h.registry.IsInstalled(name)},
		Menus:  menusOf(p),
		Routes: routesOf(p),
	})
}

func (h *Handlers) handleInstall(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.registry.Install(r.Context(), name); err != nil {
		httputil.WriteError(w, statusFor(err), err.Error())
		return
	}

	httputil.WriteOK(w, map[string]string{"status": "installed"})
}

func (h *Handlers) handleUninstall(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.registry.Uninstall(r.Context(), name); err != nil {
		httputil.WriteError(w, statusFor(err), err.Error())
		return
	}

	httputil.WriteOK(w, map[string]string{"status": "uninstalled"})
}

func (h *Handlers) handleNavigation(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, h.registry.Navigation())
}

func statusFor(err error) int {
	var hookErr *HookError
	switch {
	case errors.Is(err, ErrPluginNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotInstalled):
		return http.StatusConflict
	case errors.As(err, &hookErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
