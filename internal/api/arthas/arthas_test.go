package arthas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opshub/console/internal/request"
)

var target = Target{ClusterID: 1, Namespace: "default", Pod: "orders-7d9f8-abcde", Container: "app", ProcessID: "1"}

func TestTargetValidate(t *testing.T) {
	require.NoError(t, target.Validate())

	cases := map[string]Target{
		"cluster":   {Namespace: "default", Pod: "p", Container: "c"},
		"namespace": {ClusterID: 1, Namespace: "Bad_NS", Pod: "p", Container: "c"},
		"pod":       {ClusterID: 1, Namespace: "default", Pod: "", Container: "c"},
		"container": {ClusterID: 1, Namespace: "default", Pod: "p", Container: "a.b"},
		"process":   {ClusterID: 1, Namespace: "default", Pod: "p", Container: "c", ProcessID: "abc"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, tc.Validate())
		})
	}

	// Pods may contain dots, containers may not.
	ok := Target{ClusterID: 1, Namespace: "default", Pod: "web.v1", Container: "c"}
	assert.NoError(t, ok.Validate())
}

type call struct {
	method string
	path   string
	query  url.Values
	body   map[string]interface{}
}

func newAPI(t *testing.T, respond func(path string) interface{}) (*API, *[]call) {
	t.Helper()
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := call{method: r.Method, path: r.URL.Path, query: r.URL.Query()}
		_ = json.NewDecoder(r.Body).Decode(&c.body)
		calls = append(calls, c)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": 0, "message": "success", "data": respond(r.URL.Path)})
	}))
	t.Cleanup(srv.Close)
	return New(request.New(srv.URL, request.Options{})), &calls
}

func TestJavaProcessesAndCheck(t *testing.T) {
	api, calls := newAPI(t, func(path string) interface{} {
		if path == basePath+"/check" {
			return map[string]interface{}{"hasJava": true, "hasArthas": false, "javaVersion": "17"}
		}
		return []map[string]string{{"pid": "1", "mainClass": "com.example.App"}}
	})
	ctx := context.Background()

	procs, err := api.JavaProcesses(ctx, target)
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, "com.example.App", procs[0].MainClass)
	assert.Empty(t, (*calls)[0].query.Get("processId"))
	assert.Equal(t, "orders-7d9f8-abcde", (*calls)[0].query.Get("pod"))

	res, err := api.Check(ctx, target)
	require.NoError(t, err)
	assert.True(t, res.HasJava)
	assert.Equal(t, "17", res.JavaVersion)
}

func TestExecPostsCommand(t *testing.T) {
	api, calls := newAPI(t, func(string) interface{} { return "thread output" })

	out, err := api.Exec(context.Background(), target, "thread -n 3")
	require.NoError(t, err)
	assert.Equal(t, "thread output", out)

	c := (*calls)[0]
	assert.Equal(t, http.MethodPost, c.method)
	assert.Equal(t, basePath+"/command", c.path)
	assert.Equal(t, "thread -n 3", c.body["command"])
	assert.Equal(t, "default", c.body["namespace"])
	assert.Equal(t, 1.0, c.body["clusterId"])

	_, err = api.Exec(context.Background(), target, "  ")
	assert.Error(t, err)
}

func TestInvalidTargetNeverReachesBackend(t *testing.T) {
	api, calls := newAPI(t, func(string) interface{} { return nil })
	bad := target
	bad.Namespace = "NOT VALID"

	_, err := api.JVM(context.Background(), bad)
	assert.Error(t, err)
	assert.Error(t, api.Install(context.Background(), bad))
	_, err = api.Profiler(context.Background(), bad, ProfilerOptions{})
	assert.Error(t, err)
	assert.Empty(t, *calls)
}

func TestQueryEndpoints(t *testing.T) {
	api, calls := newAPI(t, func(path string) interface{} {
		switch path {
		case basePath + "/dashboard":
			return map[string]interface{}{"threads": []map[string]interface{}{{"id": "1", "daemon": true}}, "rawOutput": "raw"}
		case basePath + "/sysprop", basePath + "/sysenv":
			return []map[string]string{{"name": "java.version", "value": "17"}}
		default:
			return "ok"
		}
	})
	ctx := context.Background()

	d, err := api.Dashboard(ctx, target)
	require.NoError(t, err)
	require.Len(t, d.Threads, 1)
	assert.True(t, d.Threads[0].Daemon)

	props, err := api.SysProp(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, "java.version", props[0].Name)
	_, err = api.SysEnv(ctx, target)
	require.NoError(t, err)

	for _, fn := range []func() (string, error){
		func() (string, error) { return api.Threads(ctx, target) },
		func() (string, error) { return api.ThreadStack(ctx, target, "12") },
		func() (string, error) { return api.JVM(ctx, target) },
		func() (string, error) { return api.PerfCounter(ctx, target) },
		func() (string, error) { return api.Memory(ctx, target) },
		func() (string, error) { return api.Decompile(ctx, target, "com.example.App") },
		func() (string, error) { return api.GetStatic(ctx, target, "com.example.App", "INSTANCE") },
		func() (string, error) { return api.SearchClass(ctx, target, "com.example.*") },
		func() (string, error) { return api.SearchMethod(ctx, target, "com.example.App", "") },
	} {
		out, err := fn()
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
	}

	paths := make([]string, 0, len(*calls))
	for _, c := range *calls {
		paths = append(paths, c.path)
	}
	assert.Contains(t, paths, basePath+"/thread/stack")
	assert.Contains(t, paths, basePath+"/jad")
	assert.Contains(t, paths, basePath+"/getstatic")

	for _, c := range *calls {
		switch c.path {
		case basePath + "/thread/stack":
			assert.Equal(t, "12", c.query.Get("threadId"))
		case basePath + "/sm":
			assert.Equal(t, "com.example.App", c.query.Get("className"))
			assert.False(t, c.query.Has("methodName"))
		}
	}

	_, err = api.Decompile(ctx, target, "")
	assert.Error(t, err)
	_, err = api.SearchClass(ctx, target, "")
	assert.Error(t, err)
}

func TestProfilerQuery(t *testing.T) {
	api, calls := newAPI(t, func(string) interface{} { return "<html>flame</html>" })

	out, err := api.Profiler(context.Background(), target, ProfilerOptions{Duration: "10", Event: "alloc", IncludeThreads: true})
	require.NoError(t, err)
	assert.Equal(t, "<html>flame</html>", out)

	q := (*calls)[0].query
	assert.Equal(t, "10", q.Get("duration"))
	assert.Equal(t, "alloc", q.Get("event"))
	assert.Equal(t, "true", q.Get("includeThreads"))
	assert.False(t, q.Has("threadId"))
}
