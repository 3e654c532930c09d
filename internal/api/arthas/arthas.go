// Package arthas wraps the Kubernetes Arthas diagnostics endpoints and the
// realtime command channel.
package arthas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/opshub/console/internal/request"
)

const basePath = "/api/v1/plugins/kubernetes/arthas"

// DefaultProfilerTimeout bounds flame graph generation, which runs for the
// whole sampling duration on the backend.
const DefaultProfilerTimeout = 5 * time.Minute

// Target identifies a JVM inside a container. ProcessID may be empty, in
// which case the backend picks the Java process.
type Target struct {
	ClusterID uint   `json:"clusterId"`
	Namespace string `json:"namespace"`
	Pod       string `json:"pod"`
	Container string `json:"container"`
	ProcessID string `json:"processId,omitempty"`
}

// Validate checks the Kubernetes identifiers before they reach the backend.
func (t Target) Validate() error {
	var errs []error
	if t.ClusterID == 0 {
		errs = append(errs, errors.New("clusterId is required"))
	}
	for _, msg := range validation.IsDNS1123Label(t.Namespace) {
		errs = append(errs, fmt.Errorf("invalid namespace %q: %s", t.Namespace, msg))
	}
	for _, msg := range validation.IsDNS1123Subdomain(t.Pod) {
		errs = append(errs, fmt.Errorf("invalid pod %q: %s", t.Pod, msg))
	}
	for _, msg := range validation.IsDNS1123Label(t.Container) {
		errs = append(errs, fmt.Errorf("invalid container %q: %s", t.Container, msg))
	}
	if t.ProcessID != "" {
		if _, err := strconv.ParseUint(t.ProcessID, 10, 32); err != nil {
			errs = append(errs, fmt.Errorf("invalid processId %q", t.ProcessID))
		}
	}
	return errors.Join(errs...)
}

func (t Target) values() url.Values {
	q := url.Values{}
	q.Set("clusterId", strconv.FormatUint(uint64(t.ClusterID), 10))
	q.Set("namespace", t.Namespace)
	q.Set("pod", t.Pod)
	q.Set("container", t.Container)
	if t.ProcessID != "" {
		q.Set("processId", t.ProcessID)
	}
	return q
}

type JavaProcess struct {
	PID         string `json:"pid"`
	MainClass   string `json:"mainClass"`
	CommandLine string `json:"commandLine,omitempty"`
}

type CheckResult struct {
	HasJava     bool   `json:"hasJava"`
	HasArthas   bool   `json:"hasArthas"`
	JavaVersion string `json:"javaVersion"`
}

type ThreadInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Group       string `json:"group"`
	Priority    string `json:"priority"`
	State       string `json:"state"`
	CPU         string `json:"cpu"`
	DeltaTime   string `json:"deltaTime"`
	Time        string `json:"time"`
	Interrupted bool   `json:"interrupted"`
	Daemon      bool   `json:"daemon"`
}

type MemoryInfo struct {
	Type  string `json:"type"`
	Used  string `json:"used"`
	Total string `json:"total"`
	Max   string `json:"max"`
	Usage string `json:"usage"`
}

type GCInfo struct {
	Name            string `json:"name"`
	CollectionCount int64  `json:"collectionCount"`
	CollectionTime  int64  `json:"collectionTime"`
}

// KeyValue is one entry of runtime info, system properties or environment.
type KeyValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Dashboard struct {
	Threads   []ThreadInfo `json:"threads"`
	Memory    []MemoryInfo `json:"memory"`
	GC        []GCInfo     `json:"gc"`
	Runtime   []KeyValue   `json:"runtime"`
	RawOutput string       `json:"rawOutput"`
}

// ProfilerOptions configures a flame graph run. Empty fields use the
// backend defaults (30 seconds of cpu sampling).
type ProfilerOptions struct {
	Duration       string
	Event          string // cpu, alloc, lock or wall
	ThreadID       string
	IncludeThreads bool
}

type API struct {
	c *request.Client
	// ProfilerTimeout overrides DefaultProfilerTimeout when non-zero.
	ProfilerTimeout time.Duration
}

func New(c *request.Client) *API {
	return &API{c: c}
}

func (a *API) JavaProcesses(ctx context.Context, t Target) ([]JavaProcess, error) {
	t.ProcessID = ""
	return get[[]JavaProcess](ctx, a, "/java-processes", t, nil)
}

func (a *API) Check(ctx context.Context, t Target) (*CheckResult, error) {
	t.ProcessID = ""
	return get[*CheckResult](ctx, a, "/check", t, nil)
}

// Install copies arthas-boot into the container.
func (a *API) Install(ctx context.Context, t Target) error {
	t.ProcessID = ""
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := request.Post[request.Empty](ctx, a.c, basePath+"/install", t)
	return err
}

// Exec runs a single Arthas command and returns its output.
func (a *API) Exec(ctx context.Context, t Target, command string) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if strings.TrimSpace(command) == "" {
		return "", errors.New("command is required")
	}
	body := struct {
		Target
		Command string `json:"command"`
	}{t, command}
	return request.Post[string](ctx, a.c, basePath+"/command", body)
}

func (a *API) Dashboard(ctx context.Context, t Target) (*Dashboard, error) {
	return get[*Dashboard](ctx, a, "/dashboard", t, nil)
}

func (a *API) Threads(ctx context.Context, t Target) (string, error) {
	return get[string](ctx, a, "/thread", t, nil)
}

func (a *API) ThreadStack(ctx context.Context, t Target, threadID string) (string, error) {
	return get[string](ctx, a, "/thread/stack", t, map[string]string{"threadId": threadID})
}

func (a *API) JVM(ctx context.Context, t Target) (string, error) {
	return get[string](ctx, a, "/jvm", t, nil)
}

func (a *API) SysEnv(ctx context.Context, t Target) ([]KeyValue, error) {
	return get[[]KeyValue](ctx, a, "/sysenv", t, nil)
}

func (a *API) SysProp(ctx context.Context, t Target) ([]KeyValue, error) {
	return get[[]KeyValue](ctx, a, "/sysprop", t, nil)
}

func (a *API) PerfCounter(ctx context.Context, t Target) (string, error) {
	return get[string](ctx, a, "/perfcounter", t, nil)
}

func (a *API) Memory(ctx context.Context, t Target) (string, error) {
	return get[string](ctx, a, "/memory", t, nil)
}

// Decompile returns the source of a loaded class (jad).
func (a *API) Decompile(ctx context.Context, t Target, className string) (string, error) {
	if className == "" {
		return "", errors.New("className is required")
	}
	return get[string](ctx, a, "/jad", t, map[string]string{"className": className})
}

func (a *API) GetStatic(ctx context.Context, t Target, className, fieldName string) (string, error) {
	if className == "" {
		return "", errors.New("className is required")
	}
	return get[string](ctx, a, "/getstatic", t, map[string]string{"className": className, "fieldName": fieldName})
}

// SearchClass lists loaded classes matching pattern (sc).
func (a *API) SearchClass(ctx context.Context, t Target, pattern string) (string, error) {
	if pattern == "" {
		return "", errors.New("pattern is required")
	}
	return get[string](ctx, a, "/sc", t, map[string]string{"pattern": pattern})
}

// SearchMethod lists methods of a loaded class (sm).
func (a *API) SearchMethod(ctx context.Context, t Target, className, methodName string) (string, error) {
	if className == "" {
		return "", errors.New("className is required")
	}
	return get[string](ctx, a, "/sm", t, map[string]string{"className": className, "methodName": methodName})
}

// Profiler generates a flame graph and returns the backend's output,
// usually an HTML document.
func (a *API) Profiler(ctx context.Context, t Target, opts ProfilerOptions) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	q := t.values()
	for k, v := range map[string]string{"duration": opts.Duration, "event": opts.Event, "threadId": opts.ThreadID} {
		if v != "" {
			q.Set(k, v)
		}
	}
	if opts.IncludeThreads {
		q.Set("includeThreads", "true")
	}
	timeout := a.ProfilerTimeout
	if timeout <= 0 {
		timeout = DefaultProfilerTimeout
	}
	return request.Call[string](ctx, a.c, request.Request{
		Method:  http.MethodGet,
		Path:    basePath + "/profiler",
		Query:   q,
		Timeout: timeout,
	})
}

func get[T any](ctx context.Context, a *API, path string, t Target, extra map[string]string) (T, error) {
	if err := t.Validate(); err != nil {
		var zero T
		return zero, err
	}
	q := t.values()
	for k, v := range extra {
		if v != "" {
			q.Set(k, v)
		}
	}
	return request.Get[T](ctx, a.c, basePath+path, q)
}
