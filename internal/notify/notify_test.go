package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiFansOut(t *testing.T) {
	var a, b Recorder
	m := Multi{&a, nil, &b}
	m.Notify(context.Background(), New(LevelInfo, "hello %s", "world"))

	require.Len(t, a.Notices(), 1)
	require.Len(t, b.Notices(), 1)
	assert.Equal(t, "hello world", a.Notices()[0].Message)
	assert.NotEmpty(t, a.Notices()[0].ID)
}

func TestRecorderReset(t *testing.T) {
	var r Recorder
	r.Notify(context.Background(), New(LevelError, "x"))
	r.Reset()
	assert.Empty(t, r.Notices())
}

func TestWriterFormatsLevel(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Notify(context.Background(), New(LevelWarning, "disk almost full"))
	w.Notify(context.Background(), Notice{Level: "custom", Message: "odd"})

	assert.Equal(t, "[warn] disk almost full\n[custom] odd\n", buf.String())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(zerolog.New(&buf))
	n := New(LevelError, "boom")
	n.Durable = true
	l.Notify(context.Background(), n)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["message"])
	assert.Equal(t, true, entry["durable"])
}

func TestWebhookDefaultPayload(t *testing.T) {
	var got map[string]interface{}
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Token")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh, err := NewWebhook(WebhookConfig{URL: srv.URL, Headers: map[string]string{"X-Token": "abc"}})
	require.NoError(t, err)

	n := New(LevelSuccess, "installed")
	require.NoError(t, wh.Send(context.Background(), n))
	assert.Equal(t, "abc", gotHeader)
	assert.Equal(t, "installed", got["message"])
	assert.Equal(t, "success", got["level"])
	assert.Equal(t, n.ID, got["id"])
}

func TestWebhookTemplate(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}))
	defer srv.Close()

	wh, err := NewWebhook(WebhookConfig{
		URL:             srv.URL,
		Method:          "put",
		PayloadTemplate: `{"text":"{{.Level}}: {{.Message}}"}`,
	})
	require.NoError(t, err)
	require.NoError(t, wh.Send(context.Background(), New(LevelInfo, "hi")))
	assert.Equal(t, `{"text":"info: hi"}`, body)
}

func TestWebhookErrors(t *testing.T) {
	_, err := NewWebhook(WebhookConfig{})
	assert.Error(t, err)

	_, err = NewWebhook(WebhookConfig{URL: "http://x", PayloadTemplate: "{{"})
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	wh, err := NewWebhook(WebhookConfig{URL: srv.URL})
	require.NoError(t, err)
	err = wh.Send(context.Background(), New(LevelInfo, "x"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "502"))

	// Notify swallows the failure.
	wh.Notify(context.Background(), New(LevelInfo, "x"))
	require.NoError(t, wh.Close())
}

func TestWebhookNotifyDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	wh, err := NewWebhook(WebhookConfig{URL: srv.URL})
	require.NoError(t, err)

	start := time.Now()
	wh.Notify(context.Background(), New(LevelError, "first"))
	wh.Notify(context.Background(), New(LevelError, "second"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))

	close(release)
	require.NoError(t, wh.Close())
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	// Closed sinks drop quietly.
	wh.Notify(context.Background(), New(LevelInfo, "late"))
	require.NoError(t, wh.Close())
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublish(t *testing.T) {
	fw := &fakeWriter{}
	k := newKafka("t", fw)

	n := New(LevelWarning, "cert expiring")
	require.NoError(t, k.Publish(context.Background(), n))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, n.ID, string(fw.msgs[0].Key))

	var decoded Notice
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &decoded))
	assert.Equal(t, "cert expiring", decoded.Message)

	fw.err = errors.New("broker down")
	assert.Error(t, k.Publish(context.Background(), n))

	fw.err = nil
	k.Notify(context.Background(), New(LevelInfo, "queued"))
	require.NoError(t, k.Close())
	assert.True(t, fw.closed)
	require.Len(t, fw.msgs, 2)
	require.NoError(t, json.Unmarshal(fw.msgs[1].Value, &decoded))
	assert.Equal(t, "queued", decoded.Message)
}

func TestNewKafkaValidation(t *testing.T) {
	_, err := NewKafka(nil, "t")
	assert.Error(t, err)
	_, err = NewKafka([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	k, err := NewKafka([]string{"localhost:9092"}, "opshub.notices")
	require.NoError(t, err)
	assert.Equal(t, "opshub.notices", k.topic)
	require.NoError(t, k.Close())
}
