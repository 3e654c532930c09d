package audit

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

type captured struct {
	method string
	path   string
	query  string
	body   map[string]interface{}
}

func newAPI(t *testing.T, data interface{}) (*API, *[]captured) {
	t.Helper()
	var calls []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		_ = json.NewDecoder(r.Body).Decode(&c.body)
		calls = append(calls, c)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": 0, "data": data})
	}))
	t.Cleanup(srv.Close)
	return New(request.New(srv.URL, request.Options{})), &calls
}

func TestOperationLogsFilter(t *testing.T) {
	api, calls := newAPI(t, map[string]interface{}{
		"list":     []map[string]interface{}{{"id": 1, "username": "admin", "module": "asset", "costTime": 12}},
		"page":     1,
		"pageSize": 10,
		"total":    1,
	})

	page, err := api.OperationLogs(context.Background(), Filter{Page: 1, PageSize: 10, Username: "admin", StartTime: "2024-01-01"})
	require.NoError(t, err)
	require.Len(t, page.List, 1)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, int64(12), page.List[0].CostTime)

	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, "/api/v1/audit/operation-logs", c.path)
	assert.Equal(t, "page=1&pageSize=10&startTime=2024-01-01&username=admin", c.query)
}

func TestLoginAndDataLogs(t *testing.T) {
	api, calls := newAPI(t, map[string]interface{}{"list": []interface{}{}, "total": 0})
	ctx := context.Background()

	_, err := api.LoginLogs(ctx, Filter{LoginStatus: "failed"})
	require.NoError(t, err)
	_, err = api.DataLogs(ctx, Filter{TableName: "hosts", Action: "update"})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/audit/login-logs", (*calls)[0].path)
	assert.Equal(t, "loginStatus=failed", (*calls)[0].query)
	assert.Equal(t, "/api/v1/audit/data-logs", (*calls)[1].path)
	assert.Equal(t, "action=update&tableName=hosts", (*calls)[1].query)
}

func TestDetail(t *testing.T) {
	api, calls := newAPI(t, map[string]interface{}{"id": 3, "loginType": "password", "failReason": ""})
	l, err := api.LoginLog(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "password", l.LoginType)
	assert.Equal(t, "/api/v1/audit/login-logs/3", (*calls)[0].path)

	_, err = api.OperationLog(context.Background(), 4)
	require.NoError(t, err)
	_, err = api.DataLog(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/audit/operation-logs/4", (*calls)[1].path)
	assert.Equal(t, "/api/v1/audit/data-logs/5", (*calls)[2].path)
}

func TestDelete(t *testing.T) {
	api, calls := newAPI(t, nil)
	ctx := context.Background()

	require.NoError(t, api.Delete(ctx, KindData, 7))
	require.NoError(t, api.DeleteBatch(ctx, KindOperation, []uint{1, 2}))
	require.NoError(t, api.DeleteBatch(ctx, KindLogin, nil))

	require.Len(t, *calls, 2)
	assert.Equal(t, "DELETE", (*calls)[0].method)
	assert.Equal(t, "/api/v1/audit/data-logs/7", (*calls)[0].path)
	assert.Equal(t, "/api/v1/audit/operation-logs/batch-delete", (*calls)[1].path)
	assert.Equal(t, []interface{}{1.0, 2.0}, (*calls)[1].body["ids"])

	assert.Error(t, api.Delete(ctx, "bogus", 1))
	assert.Error(t, api.DeleteBatch(ctx, "bogus", []uint{1}))
}
