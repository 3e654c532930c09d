package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opshub/console/internal/config"
	"github.com/opshub/console/internal/notify"
	"github.com/opshub/console/internal/plugin"
	"github.com/opshub/console/internal/storage"
)

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": 0, "data": map[string]int64{"active": 1}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(server string) *config.Config {
	return &config.Config{Server: server, Store: "memory://", Timeout: 5 * time.Second, LongTimeout: time.Minute}
}

func TestNewRegistersBuiltins(t *testing.T) {
	a, err := New(context.Background(), Options{Config: testConfig(backend(t).URL)})
	require.NoError(t, err)
	defer a.Close()

	var names []string
	for _, p := range a.Registry.All() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"monitor", "ssl-cert", "task"}, names)
	assert.Empty(t, a.Registry.InstalledNames())
	assert.Equal(t, time.Minute, a.Arthas.ProfilerTimeout)
}

func TestInstalledPluginsSurviveRestart(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	srv := backend(t)
	rec := &notify.Recorder{}

	first, err := New(ctx, Options{Config: testConfig(srv.URL), Store: kv, Notifier: rec})
	require.NoError(t, err)
	require.NoError(t, first.Registry.Install(ctx, "ssl-cert"))
	require.NoError(t, first.Registry.Install(ctx, "task"))
	require.Len(t, rec.Notices(), 2)

	second, err := New(ctx, Options{Config: testConfig(srv.URL), Store: kv})
	require.NoError(t, err)
	assert.Equal(t, []string{"ssl-cert", "task"}, second.Registry.InstalledNames())

	nav := second.Registry.Navigation()
	_, ok := nav.RouteByName("CertificateList")
	assert.True(t, ok)
	_, ok = nav.Lookup("/task/jobs")
	assert.True(t, ok)
}

func TestRestoreKeepsUnknownNames(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(ctx, plugin.InstalledKey, `["monitor","retired"]`))

	a, err := New(ctx, Options{Config: testConfig(backend(t).URL), Store: kv})
	require.NoError(t, err)
	assert.Equal(t, []string{"monitor", "retired"}, a.Registry.InstalledNames())
	require.Len(t, a.Registry.Installed(), 1)
	assert.Equal(t, "monitor", a.Registry.Installed()[0].Name())
}

func TestWebhookSink(t *testing.T) {
	var mu sync.Mutex
	var got []map[string]interface{}
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			mu.Lock()
			got = append(got, body)
			mu.Unlock()
		}
	}))
	defer hook.Close()

	cfg := testConfig(backend(t).URL)
	cfg.NotifyWebhookURL = hook.URL
	a, err := New(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Registry.Install(context.Background(), "monitor"))
	require.NoError(t, a.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "plugin monitor installed", got[0]["message"])
	assert.Equal(t, "success", got[0]["level"])
}

func TestInvalidStore(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Store = "mongodb://nowhere"
	_, err := New(context.Background(), Options{Config: cfg})
	assert.Error(t, err)
}

func TestWatchReloadsFromFileStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig(backend(t).URL)
	cfg.Store = filepath.Join(t.TempDir(), "state.json")

	watcher, err := New(ctx, Options{Config: cfg})
	require.NoError(t, err)
	defer watcher.Close()

	reloaded := make(chan plugin.LoadResult, 4)
	require.NoError(t, watcher.Watch(ctx, func(r plugin.LoadResult) { reloaded <- r }))

	writer, err := New(ctx, Options{Config: cfg})
	require.NoError(t, err)
	defer writer.Close()
	require.NoError(t, writer.Registry.Install(ctx, "monitor"))

	select {
	case r := <-reloaded:
		assert.Equal(t, plugin.LoadOK, r)
	case <-time.After(5 * time.Second):
		t.Fatal("store change was not picked up")
	}
	assert.True(t, watcher.Registry.IsInstalled("monitor"))
}

func TestWatchWithoutWatcherIsNoop(t *testing.T) {
	a, err := New(context.Background(), Options{Config: testConfig(backend(t).URL)})
	require.NoError(t, err)
	assert.NoError(t, a.Watch(context.Background(), nil))
}
