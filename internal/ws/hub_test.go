package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/opshub/console/internal/auth"
	"github.com/opshub/console/internal/metrics"
	"github.com/opshub/console/internal/notify"
)

func startHub(t *testing.T, m *metrics.Metrics) *Hub {
	t.Helper()
	h := NewHub(m)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func testClient(h *Hub, id string, topics ...string) *Client {
	subs := make(map[string]bool)
	for _, topic := range topics {
		subs[topic] = true
	}
	return &Client{ID: id, subscriptions: subs, send: make(chan []byte, 4), hub: h}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.send:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		return ev
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHub_RegisterUnregister(t *testing.T) {
	m := metrics.NewMetrics()
	h := startHub(t, m)
	c := testClient(h, "test-client", TopicNotice)

	h.Register(c)
	time.Sleep(50 * time.Millisecond)
	if h.ClientCount() != 1 {
		t.Fatal("client should be registered in hub")
	}
	if got := testutil.ToFloat64(m.WSClients); got != 1 {
		t.Errorf("expected gauge 1, got %v", got)
	}

	h.Unregister(c)
	time.Sleep(50 * time.Millisecond)
	if h.ClientCount() != 0 {
		t.Fatal("client should have been removed from hub")
	}
	if _, ok := <-c.send; ok {
		t.Fatal("send channel should be closed")
	}
}

func TestHub_NoticeOnlyToSubscribers(t *testing.T) {
	h := startHub(t, nil)
	sub := testClient(h, "sub", TopicNotice)
	other := testClient(h, "other", TopicNavigation)
	h.mu.Lock()
	h.clients[sub.ID] = sub
	h.clients[other.ID] = other
	h.mu.Unlock()

	h.Notify(context.Background(), notify.New(notify.LevelError, "request failed"))

	ev := receive(t, sub)
	if ev.Type != TopicNotice {
		t.Fatalf("expected notice event, got %q", ev.Type)
	}
	data, _ := ev.Data.(map[string]interface{})
	if data["message"] != "request failed" {
		t.Errorf("unexpected notice payload %v", ev.Data)
	}

	time.Sleep(50 * time.Millisecond)
	if len(other.send) != 0 {
		t.Fatal("non-subscriber should not have received the notice")
	}
}

func TestHub_NavigationSnapshotForLateClients(t *testing.T) {
	h := startHub(t, nil)
	h.PublishNavigation(map[string]interface{}{"version": 3})
	time.Sleep(50 * time.Millisecond)

	late := testClient(h, "late", TopicNavigation)
	h.Register(late)

	ev := receive(t, late)
	if ev.Type != TopicNavigation {
		t.Fatalf("expected navigation event, got %q", ev.Type)
	}
	data, _ := ev.Data.(map[string]interface{})
	if data["version"] != float64(3) {
		t.Errorf("unexpected snapshot %v", ev.Data)
	}
}

func TestClient_Subscriptions(t *testing.T) {
	h := NewHub(nil)
	c := testClient(h, "c")
	if c.IsSubscribed(TopicNotice) {
		t.Fatal("should not be subscribed initially")
	}
	c.handleControl([]byte(`{"action":"subscribe","topic":"notice"}`))
	if !c.IsSubscribed(TopicNotice) {
		t.Fatal("should be subscribed after subscribe")
	}
	c.handleControl([]byte(`not json`))
	c.handleControl([]byte(`{"action":"unsubscribe","topic":"notice"}`))
	if c.IsSubscribed(TopicNotice) {
		t.Fatal("should not be subscribed after unsubscribe")
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := testClient(h, "c", TopicNotice)
	h.Register(c)
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, ok := <-c.send; ok {
		t.Fatal("send channel should be closed on shutdown")
	}
}

func TestServeWS_EndToEnd(t *testing.T) {
	h := startHub(t, nil)
	h.PublishNavigation(map[string]interface{}{"version": 1})

	svc := auth.NewJWTService("secret")
	r := mux.NewRouter()
	NewWSHandler(h, svc, nil).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/navigation"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial without token to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}

	token, _ := svc.GenerateToken("user-1", "alice")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("failed to read snapshot: %v", err)
	}
	if ev.Type != TopicNavigation {
		t.Fatalf("expected navigation snapshot, got %q", ev.Type)
	}

	h.Notify(context.Background(), notify.New(notify.LevelSuccess, "plugin %s installed", "monitor"))
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("failed to read notice: %v", err)
	}
	if ev.Type != TopicNotice {
		t.Fatalf("expected notice, got %q", ev.Type)
	}
}

func TestOriginChecker(t *testing.T) {
	check := OriginChecker([]string{"https://console.example.com"})
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://console.example.com", true},
		{"HTTPS://CONSOLE.EXAMPLE.COM", true},
		{"https://evil.example.com", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/ws/navigation", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := check(req); got != tt.want {
			t.Errorf("origin %q: expected %v, got %v", tt.origin, tt.want, got)
		}
	}

	if !OriginChecker(nil)(func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		return req
	}()) {
		t.Error("expected default origin to be allowed")
	}
}
