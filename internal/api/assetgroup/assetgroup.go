// Package assetgroup wraps the asset group endpoints of the backend.
package assetgroup

import (
	"context"
	"fmt"

	"github.com/opshub/console/internal/request"
)

const basePath = "/api/v1/asset-groups"

// Group is a node of the asset group tree.
type Group struct {
	ID          uint     `json:"id"`
	ParentID    uint     `json:"parentId"`
	Name        string   `json:"name"`
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Sort        int      `json:"sort"`
	Status      int      `json:"status"`
	HostCount   int      `json:"hostCount"`
	CreateTime  string   `json:"createTime"`
	Children    []*Group `json:"children,omitempty"`
}

// Input is the payload for create and update. Status 1 enables the group.
type Input struct {
	ParentID    uint   `json:"parentId"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Sort        int    `json:"sort"`
	Status      int    `json:"status"`
}

// ParentOption is a cascader entry used when choosing a parent group.
type ParentOption struct {
	ID       uint            `json:"id"`
	ParentID uint            `json:"parentId"`
	Label    string          `json:"label"`
	Children []*ParentOption `json:"children,omitempty"`
}

type API struct {
	c *request.Client
}

func New(c *request.Client) *API {
	return &API{c: c}
}

func (a *API) Tree(ctx context.Context) ([]*Group, error) {
	return request.Get[[]*Group](ctx, a.c, basePath+"/tree", nil)
}

func (a *API) Get(ctx context.Context, id uint) (*Group, error) {
	return request.Get[*Group](ctx, a.c, fmt.Sprintf("%s/%d", basePath, id), nil)
}

func (a *API) Create(ctx context.Context, in Input) (*Group, error) {
	return request.Post[*Group](ctx, a.c, basePath, in)
}

func (a *API) Update(ctx context.Context, id uint, in Input) (*Group, error) {
	return request.Put[*Group](ctx, a.c, fmt.Sprintf("%s/%d", basePath, id), in)
}

func (a *API) Delete(ctx context.Context, id uint) error {
	_, err := request.Delete[request.Empty](ctx, a.c, fmt.Sprintf("%s/%d", basePath, id))
	return err
}

func (a *API) ParentOptions(ctx context.Context) ([]*ParentOption, error) {
	return request.Get[[]*ParentOption](ctx, a.c, basePath+"/parent-options", nil)
}

// Walk visits every group depth-first, parents before children.
func Walk(groups []*Group, fn func(g *Group, depth int)) {
	var visit func([]*Group, int)
	visit = func(gs []*Group, depth int) {
		for _, g := range gs {
			fn(g, depth)
			visit(g.Children, depth+1)
		}
	}
	visit(groups, 0)
}
