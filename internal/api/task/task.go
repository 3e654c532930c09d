// Package task wraps the task plugin endpoints: jobs, templates and
// ansible tasks.
package task

import (
	"context"
	"fmt"

	"github.com/opshub/console/internal/request"
)

const basePath = "/plugins/task"

type Job struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	TemplateID   uint   `json:"templateId,omitempty"`
	TaskType     string `json:"taskType"`
	Status       string `json:"status"`
	TargetHosts  string `json:"targetHosts,omitempty"`
	Parameters   string `json:"parameters,omitempty"`
	ExecuteTime  string `json:"executeTime,omitempty"`
	Result       string `json:"result,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	CreatedBy    uint   `json:"createdBy"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

type Template struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content"`
	Variables   string `json:"variables,omitempty"`
	Category    string `json:"category"`
	Platform    string `json:"platform,omitempty"`
	Timeout     int    `json:"timeout"`
	Sort        int    `json:"sort"`
	Status      int    `json:"status"`
	CreatedBy   uint   `json:"createdBy"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type AnsibleTask struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	PlaybookContent string `json:"playbookContent,omitempty"`
	PlaybookPath    string `json:"playbookPath,omitempty"`
	Inventory       string `json:"inventory,omitempty"`
	ExtraVars       string `json:"extraVars,omitempty"`
	Tags            string `json:"tags,omitempty"`
	Fork            int    `json:"fork"`
	Timeout         int    `json:"timeout"`
	Verbose         string `json:"verbose"`
	Status          string `json:"status"`
	LastRunTime     string `json:"lastRunTime,omitempty"`
	LastRunResult   string `json:"lastRunResult,omitempty"`
	CreatedBy       uint   `json:"createdBy"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

// ListParams filters job, template and ansible listings. Fields that do
// not apply to a listing are ignored by the backend.
type ListParams struct {
	Page     int
	PageSize int
	Keyword  string
	TaskType string
	Category string
	Platform string
	Status   string
}

func (p ListParams) query() []interface{} {
	return []interface{}{
		"page", p.Page,
		"pageSize", p.PageSize,
		"keyword", p.Keyword,
		"taskType", p.TaskType,
		"category", p.Category,
		"platform", p.Platform,
		"status", p.Status,
	}
}

type API struct {
	c *request.Client
}

func New(c *request.Client) *API {
	return &API{c: c}
}

// resource is the CRUD shape shared by the three task resources.
type resource[T any] struct {
	c    *request.Client
	path string
}

func (r resource[T]) list(ctx context.Context, p ListParams) (request.Page[T], error) {
	return request.Get[request.Page[T]](ctx, r.c, r.path, request.Query(p.query()...))
}

func (r resource[T]) get(ctx context.Context, id uint) (*T, error) {
	return request.Get[*T](ctx, r.c, fmt.Sprintf("%s/%d", r.path, id), nil)
}

func (r resource[T]) create(ctx context.Context, in interface{}) (*T, error) {
	return request.Post[*T](ctx, r.c, r.path, in)
}

func (r resource[T]) update(ctx context.Context, id uint, in interface{}) (*T, error) {
	return request.Put[*T](ctx, r.c, fmt.Sprintf("%s/%d", r.path, id), in)
}

func (r resource[T]) delete(ctx context.Context, id uint) error {
	_, err := request.Delete[request.Empty](ctx, r.c, fmt.Sprintf("%s/%d", r.path, id))
	return err
}

func (a *API) jobs() resource[Job] { return resource[Job]{a.c, basePath + "/jobs"} }

func (a *API) templates() resource[Template] {
	return resource[Template]{a.c, basePath + "/templates"}
}

func (a *API) ansible() resource[AnsibleTask] {
	return resource[AnsibleTask]{a.c, basePath + "/ansible"}
}

func (a *API) Jobs(ctx context.Context, p ListParams) (request.Page[Job], error) {
	return a.jobs().list(ctx, p)
}

func (a *API) Job(ctx context.Context, id uint) (*Job, error) { return a.jobs().get(ctx, id) }

func (a *API) CreateJob(ctx context.Context, in Job) (*Job, error) {
	return a.jobs().create(ctx, in)
}

func (a *API) UpdateJob(ctx context.Context, id uint, in Job) (*Job, error) {
	return a.jobs().update(ctx, id, in)
}

func (a *API) DeleteJob(ctx context.Context, id uint) error { return a.jobs().delete(ctx, id) }

func (a *API) Templates(ctx context.Context, p ListParams) (request.Page[Template], error) {
	return a.templates().list(ctx, p)
}

// AllTemplates returns every enabled template, optionally limited to one
// category, without paging.
func (a *API) AllTemplates(ctx context.Context, category string) ([]Template, error) {
	return request.Get[[]Template](ctx, a.c, basePath+"/templates/all", request.Query("category", category))
}

func (a *API) Template(ctx context.Context, id uint) (*Template, error) {
	return a.templates().get(ctx, id)
}

func (a *API) CreateTemplate(ctx context.Context, in Template) (*Template, error) {
	return a.templates().create(ctx, in)
}

func (a *API) UpdateTemplate(ctx context.Context, id uint, in Template) (*Template, error) {
	return a.templates().update(ctx, id, in)
}

func (a *API) DeleteTemplate(ctx context.Context, id uint) error {
	return a.templates().delete(ctx, id)
}

func (a *API) AnsibleTasks(ctx context.Context, p ListParams) (request.Page[AnsibleTask], error) {
	return a.ansible().list(ctx, p)
}

func (a *API) AnsibleTask(ctx context.Context, id uint) (*AnsibleTask, error) {
	return a.ansible().get(ctx, id)
}

func (a *API) CreateAnsibleTask(ctx context.Context, in AnsibleTask) (*AnsibleTask, error) {
	return a.ansible().create(ctx, in)
}

func (a *API) UpdateAnsibleTask(ctx context.Context, id uint, in AnsibleTask) (*AnsibleTask, error) {
	return a.ansible().update(ctx, id, in)
}

func (a *API) DeleteAnsibleTask(ctx context.Context, id uint) error {
	return a.ansible().delete(ctx, id)
}
