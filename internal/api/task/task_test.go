package task

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opshub/console/internal/request"
)

func TestEndpoints(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := r.Method + " " + r.URL.Path
		if r.URL.RawQuery != "" {
			call += "?" + r.URL.RawQuery
		}
		calls = append(calls, call)

		var data interface{}
		switch {
		case r.URL.Path == "/plugins/task/templates/all":
			data = []map[string]interface{}{{"id": 1, "code": "backup", "category": "ops"}}
		case r.Method == http.MethodGet && (r.URL.Path == "/plugins/task/jobs" || r.URL.Path == "/plugins/task/ansible" || r.URL.Path == "/plugins/task/templates"):
			data = map[string]interface{}{"list": []map[string]interface{}{{"id": 1, "name": "n"}}, "total": 1}
		case r.Method == http.MethodDelete:
			data = nil
		default:
			data = map[string]interface{}{"id": 2, "name": "n", "fork": 5}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": 0, "data": data})
	}))
	defer srv.Close()

	api := New(request.New(srv.URL, request.Options{}))
	ctx := context.Background()

	jobs, err := api.Jobs(ctx, ListParams{Page: 1, Status: "running"})
	require.NoError(t, err)
	assert.Len(t, jobs.List, 1)

	job, err := api.CreateJob(ctx, Job{Name: "n", TaskType: "shell"})
	require.NoError(t, err)
	assert.Equal(t, uint(2), job.ID)
	_, err = api.Job(ctx, 2)
	require.NoError(t, err)
	_, err = api.UpdateJob(ctx, 2, Job{Name: "m"})
	require.NoError(t, err)
	require.NoError(t, api.DeleteJob(ctx, 2))

	tpls, err := api.AllTemplates(ctx, "ops")
	require.NoError(t, err)
	require.Len(t, tpls, 1)
	assert.Equal(t, "backup", tpls[0].Code)
	_, err = api.Templates(ctx, ListParams{Category: "ops"})
	require.NoError(t, err)
	_, err = api.Template(ctx, 1)
	require.NoError(t, err)
	_, err = api.CreateTemplate(ctx, Template{Name: "t"})
	require.NoError(t, err)
	_, err = api.UpdateTemplate(ctx, 1, Template{Name: "t"})
	require.NoError(t, err)
	require.NoError(t, api.DeleteTemplate(ctx, 1))

	at, err := api.AnsibleTask(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, at.Fork)
	_, err = api.AnsibleTasks(ctx, ListParams{Keyword: "deploy"})
	require.NoError(t, err)
	_, err = api.CreateAnsibleTask(ctx, AnsibleTask{Name: "a"})
	require.NoError(t, err)
	_, err = api.UpdateAnsibleTask(ctx, 3, AnsibleTask{Name: "a"})
	require.NoError(t, err)
	require.NoError(t, api.DeleteAnsibleTask(ctx, 3))

	assert.Equal(t, []string{
		"GET /plugins/task/jobs?page=1&status=running",
		"POST /plugins/task/jobs",
		"GET /plugins/task/jobs/2",
		"PUT /plugins/task/jobs/2",
		"DELETE /plugins/task/jobs/2",
		"GET /plugins/task/templates/all?category=ops",
		"GET /plugins/task/templates?category=ops",
		"GET /plugins/task/templates/1",
		"POST /plugins/task/templates",
		"PUT /plugins/task/templates/1",
		"DELETE /plugins/task/templates/1",
		"GET /plugins/task/ansible/3",
		"GET /plugins/task/ansible?keyword=deploy",
		"POST /plugins/task/ansible",
		"PUT /plugins/task/ansible/3",
		"DELETE /plugins/task/ansible/3",
	}, calls)
}
