// Package account signs operators in to the opshub backend.
package account

import (
	"context"
	"errors"

	"github.com/opshub/console/internal/request"
)

// LoginPath is the backend's credential exchange endpoint. The facade never
// raises notices for it; callers report the returned error themselves.
const LoginPath = "/api/v1/public/login"

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Captcha  string `json:"captcha,omitempty"`
}

type Session struct {
	Token    string `json:"token"`
	Username string `json:"username,omitempty"`
	RealName string `json:"realName,omitempty"`
}

type API struct {
	c *request.Client
}

func New(c *request.Client) *API {
	return &API{c: c}
}

// Login exchanges credentials for a bearer token. The token is returned,
// not stored.
func (a *API) Login(ctx context.Context, in Credentials) (*Session, error) {
	if in.Username == "" || in.Password == "" {
		return nil, errors.New("username and password are required")
	}
	s, err := request.Post[*Session](ctx, a.c, LoginPath, in)
	if err != nil {
		return nil, err
	}
	if s == nil || s.Token == "" {
		return nil, errors.New("login response did not include a token")
	}
	return s, nil
}
