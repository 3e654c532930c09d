package plugin

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opshub/console/internal/storage"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupHandlers(t *testing.T, guard mux.MiddlewareFunc) (*mux.Router, *Registry) {
	t.Helper()
	r, _ := newTestRegistry(t, storage.NewMemory())
	r.Register(newMockPlugin("monitor", "1.0.0"))
	failing := newMockPlugin("broken", "1.0.0")
	failing.installErr = errors.New("nope")
	r.Register(failing)

	router := mux.NewRouter()
	NewHandlers(r, guard).RegisterRoutes(router)
	return router, r
}

func do(t *testing.T, h http.Handler, method, path string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestHandlersInstallFlow(t *testing.T) {
	router, reg := setupHandlers(t, nil)

	code, env := do(t, router, "GET", "/api/plugins")
	require.Equal(t, http.StatusOK, code)
	var statuses []Status
	require.NoError(t, json.Unmarshal(env.Data, &statuses))
	assert.Len(t, statuses, 2)

	code, _ = do(t, router, "POST", "/api/plugins/monitor/install")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, reg.IsInstalled("monitor"))

	code, env = do(t, router, "GET", "/api/plugins/installed")
	require.Equal(t, http.StatusOK, code)
	var infos []Info
	require.NoError(t, json.Unmarshal(env.Data, &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "monitor", infos[0].Name)

	code, env = do(t, router, "GET", "/api/navigation")
	require.Equal(t, http.StatusOK, code)
	var nav Navigation
	require.NoError(t, json.Unmarshal(env.Data, &nav))
	require.Len(t, nav.Menus, 1)
	assert.Equal(t, "/monitor", nav.Menus[0].Path)

	code, _ = do(t, router, "POST", "/api/plugins/monitor/uninstall")
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, reg.IsInstalled("monitor"))
}

func TestHandlersErrors(t *testing.T) {
	router, _ := setupHandlers(t, nil)

	code, env := do(t, router, "POST", "/api/plugins/ghost/install")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, http.StatusNotFound, env.Code)

	code, _ = do(t, router, "POST", "/api/plugins/monitor/uninstall")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = do(t, router, "POST", "/api/plugins/broken/install")
	assert.Equal(t, http.StatusBadGateway, code)

	code, _ = do(t, router, "GET", "/api/plugins/ghost")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandlersGetPlugin(t *testing.T) {
	router, _ := setupHandlers(t, nil)
	code, env := do(t, router, "GET", "/api/plugins/monitor")
	require.Equal(t, http.StatusOK, code)

	var detail struct {
		Name      string        `json:"name"`
		Installed bool          `json:"installed"`
		Menus     []MenuConfig  `json:"menus"`
		Routes    []RouteConfig `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "monitor", detail.Name)
	assert.False(t, detail.Installed)
	assert.Len(t, detail.Menus, 1)
	assert.Len(t, detail.Routes, 1)
}

func TestWriteGuardProtectsMutations(t *testing.T) {
	deny := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"message":"unauthorized"}`))
		})
	}
	router, reg := setupHandlers(t, deny)

	code, _ := do(t, router, "POST", "/api/plugins/monitor/install")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, reg.IsInstalled("monitor"))

	code, _ = do(t, router, "GET", "/api/plugins")
	assert.Equal(t, http.StatusOK, code)
}
