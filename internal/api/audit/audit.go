// Package audit wraps the operation, login and data audit log endpoints.
package audit

import (
	"context"
	"fmt"
	"net/url"

	"github.com/opshub/console/internal/request"
)

const basePath = "/api/v1/audit"

// Log kinds, each mapped to its own endpoint family.
const (
	KindOperation = "operation-logs"
	KindLogin     = "login-logs"
	KindData      = "data-logs"
)

type OperationLog struct {
	ID          uint   `json:"id"`
	UserID      uint   `json:"userId"`
	Username    string `json:"username"`
	RealName    string `json:"realName"`
	Module      string `json:"module"`
	Action      string `json:"action"`
	Description string `json:"description"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      int    `json:"status"`
	ErrorMsg    string `json:"errorMsg"`
	CostTime    int64  `json:"costTime"`
	IP          string `json:"ip"`
	CreatedAt   string `json:"createdAt"`
}

type LoginLog struct {
	ID          uint   `json:"id"`
	UserID      uint   `json:"userId"`
	Username    string `json:"username"`
	RealName    string `json:"realName"`
	LoginType   string `json:"loginType"`
	LoginStatus string `json:"loginStatus"`
	LoginTime   string `json:"loginTime"`
	LogoutTime  string `json:"logoutTime"`
	IP          string `json:"ip"`
	Location    string `json:"location"`
	UserAgent   string `json:"userAgent"`
	FailReason  string `json:"failReason"`
}

type DataLog struct {
	ID        uint   `json:"id"`
	UserID    uint   `json:"userId"`
	Username  string `json:"username"`
	RealName  string `json:"realName"`
	TableName string `json:"tableName"`
	RecordID  uint   `json:"recordId"`
	Action    string `json:"action"`
	OldData   string `json:"oldData"`
	NewData   string `json:"newData"`
	DiffData  string `json:"diffData"`
	IP        string `json:"ip"`
	CreatedAt string `json:"createdAt"`
}

// Filter narrows a log listing. StartTime and EndTime use YYYY-MM-DD.
// Module applies to operation logs, TableName to data logs, LoginType and
// LoginStatus to login logs; Action applies to operation and data logs.
type Filter struct {
	Page        int
	PageSize    int
	Username    string
	Module      string
	Action      string
	TableName   string
	LoginType   string
	LoginStatus string
	StartTime   string
	EndTime     string
}

func (f Filter) values() url.Values {
	return request.Query(
		"page", f.Page,
		"pageSize", f.PageSize,
		"username", f.Username,
		"module", f.Module,
		"action", f.Action,
		"tableName", f.TableName,
		"loginType", f.LoginType,
		"loginStatus", f.LoginStatus,
		"startTime", f.StartTime,
		"endTime", f.EndTime,
	)
}

type API struct {
	c *request.Client
}

func New(c *request.Client) *API {
	return &API{c: c}
}

func (a *API) OperationLogs(ctx context.Context, f Filter) (request.Page[OperationLog], error) {
	return request.Get[request.Page[OperationLog]](ctx, a.c, path(KindOperation), f.values())
}

func (a *API) OperationLog(ctx context.Context, id uint) (*OperationLog, error) {
	return request.Get[*OperationLog](ctx, a.c, itemPath(KindOperation, id), nil)
}

func (a *API) LoginLogs(ctx context.Context, f Filter) (request.Page[LoginLog], error) {
	return request.Get[request.Page[LoginLog]](ctx, a.c, path(KindLogin), f.values())
}

func (a *API) LoginLog(ctx context.Context, id uint) (*LoginLog, error) {
	return request.Get[*LoginLog](ctx, a.c, itemPath(KindLogin, id), nil)
}

func (a *API) DataLogs(ctx context.Context, f Filter) (request.Page[DataLog], error) {
	return request.Get[request.Page[DataLog]](ctx, a.c, path(KindData), f.values())
}

func (a *API) DataLog(ctx context.Context, id uint) (*DataLog, error) {
	return request.Get[*DataLog](ctx, a.c, itemPath(KindData, id), nil)
}

// Delete removes one log entry of the given kind.
func (a *API) Delete(ctx context.Context, kind string, id uint) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	_, err := request.Delete[request.Empty](ctx, a.c, itemPath(kind, id))
	return err
}

// DeleteBatch removes several log entries of the given kind at once.
func (a *API) DeleteBatch(ctx context.Context, kind string, ids []uint) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	body := struct {
		IDs []uint `json:"ids"`
	}{IDs: ids}
	_, err := request.Post[request.Empty](ctx, a.c, path(kind)+"/batch-delete", body)
	return err
}

func checkKind(kind string) error {
	switch kind {
	case KindOperation, KindLogin, KindData:
		return nil
	default:
		return fmt.Errorf("unknown audit log kind %q", kind)
	}
}

func path(kind string) string { return basePath + "/" + kind }

func itemPath(kind string, id uint) string { return fmt.Sprintf("%s/%s/%d", basePath, kind, id) }
