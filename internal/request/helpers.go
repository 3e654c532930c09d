package request

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Page is the backend's paged list shape.
type Page[T any] struct {
	List     []T   `json:"list"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

// Call performs r and decodes the envelope data into T. Missing or null
// data yields the zero value.
func Call[T any](ctx context.Context, c *Client, r Request) (T, error) {
	var out T
	data, err := c.Do(ctx, r)
	if err != nil {
		return out, err
	}
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &Error{Message: MsgMalformedResponse, Method: r.Method, Path: r.Path, Err: fmt.Errorf("failed to decode data: %w", err)}
	}
	return out, nil
}

func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	return Call[T](ctx, c, Request{Method: http.MethodGet, Path: path, Query: query})
}

func Post[T any](ctx context.Context, c *Client, path string, body interface{}) (T, error) {
	return Call[T](ctx, c, Request{Method: http.MethodPost, Path: path, Body: body})
}

func Put[T any](ctx context.Context, c *Client, path string, body interface{}) (T, error) {
	return Call[T](ctx, c, Request{Method: http.MethodPut, Path: path, Body: body})
}

func Delete[T any](ctx context.Context, c *Client, path string) (T, error) {
	return Call[T](ctx, c, Request{Method: http.MethodDelete, Path: path})
}

// Query builds url.Values from key/value pairs, skipping empty values and
// zero integers so optional filters can be passed unconditionally.
func Query(kv ...interface{}) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		switch v := kv[i+1].(type) {
		case string:
			if v != "" {
				q.Set(key, v)
			}
		case int:
			if v != 0 {
				q.Set(key, strconv.Itoa(v))
			}
		case int64:
			if v != 0 {
				q.Set(key, strconv.FormatInt(v, 10))
			}
		case uint:
			if v != 0 {
				q.Set(key, strconv.FormatUint(uint64(v), 10))
			}
		case bool:
			if v {
				q.Set(key, "true")
			}
		case *bool:
			if v != nil {
				q.Set(key, strconv.FormatBool(*v))
			}
		}
	}
	return q
}

// Empty is used as T when the caller does not care about the data.
type Empty = json.RawMessage
