package arthas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/opshub/console/internal/logx"
)

// Outbound message types.
const (
	TypeCommand = "command"
	TypeStop    = "stop"
)

// Inbound message types.
const (
	TypeOutput = "output"
	TypeInfo   = "info"
	TypeError  = "error"
)

type outbound struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
}

// Message is one frame received from the backend.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Session is an open realtime Arthas channel.
type Session struct {
	conn     *websocket.Conn
	messages chan Message
	done     chan struct{}
	quit     chan struct{}
	logger   zerolog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once

	errMu sync.Mutex
	err   error
}

// WebSocketURL builds the channel URL from the backend base URL. The token
// travels in the query because the websocket handshake cannot carry the
// Authorization header from a browser.
func WebSocketURL(baseURL string, t Target, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws", "":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported server scheme %q", u.Scheme)
	}
	u.Path += basePath + "/ws"

	q := url.Values{}
	q.Set("clusterId", fmt.Sprint(t.ClusterID))
	q.Set("namespace", t.Namespace)
	q.Set("pod", t.Pod)
	q.Set("container", t.Container)
	q.Set("processId", t.ProcessID)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dial opens the realtime channel for the target.
func Dial(ctx context.Context, baseURL string, t Target, token string) (*Session, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	wsURL, err := WebSocketURL(baseURL, t, token)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to open arthas channel: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to open arthas channel: %w", err)
	}

	s := &Session{
		conn:     conn,
		messages: make(chan Message, 64),
		done:     make(chan struct{}),
		quit:     make(chan struct{}),
		logger:   logx.Component("arthas"),
	}
	go s.readPump()
	return s, nil
}

// Messages delivers inbound frames until the channel closes.
func (s *Session) Messages() <-chan Message { return s.messages }

// Done is closed once the session has ended.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the read error that ended the session, nil after a normal close.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Send runs a command in the attached JVM; output arrives on Messages.
func (s *Session) Send(command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command is required")
	}
	return s.write(outbound{Type: TypeCommand, Command: command})
}

// Stop asks the backend to end the running command and the session.
func (s *Session) Stop() error {
	return s.write(outbound{Type: TypeStop})
}

// Close closes the connection. It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.quit)
		s.writeMu.Lock()
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

func (s *Session) write(msg outbound) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Type, err)
	}
	return nil
}

func (s *Session) readPump() {
	defer func() {
		close(s.messages)
		close(s.done)
	}()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.errMu.Lock()
				s.err = err
				s.errMu.Unlock()
				s.logger.Debug().Err(err).Msg("arthas channel read ended")
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			msg = Message{Type: TypeOutput, Content: string(data)}
		}
		select {
		case s.messages <- msg:
		case <-s.quit:
			return
		}
	}
}
