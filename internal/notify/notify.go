// Package notify delivers user-facing notices, the console's equivalent of
// toast messages, to one or more sinks.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Level indicates how a notice is presented.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a single user-facing message. Durable notices stay visible until
// dismissed; transient ones expire on their own.
type Notice struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Durable   bool      `json:"durable"`
	Timestamp time.Time `json:"timestamp"`
}

// New builds a transient notice with a fresh ID.
func New(level Level, format string, args ...any) Notice {
	return Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now().UTC(),
	}
}

// Notifier is implemented by every notice sink.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n Notice)

func (f Func) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// Discard drops every notice.
var Discard Notifier = Func(func(context.Context, Notice) {})

// Multi fans a notice out to every sink in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) {
	for _, s := range m {
		if s != nil {
			s.Notify(ctx, n)
		}
	}
}

// Writer prints notices as single lines, e.g. for a terminal.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

var levelMarks = map[Level]string{
	LevelSuccess: "[ok]",
	LevelInfo:    "[info]",
	LevelWarning: "[warn]",
	LevelError:   "[error]",
}

func (w *Writer) Notify(_ context.Context, n Notice) {
	w.mu.Lock()
	defer w.mu.Unlock()
	mark, ok := levelMarks[n.Level]
	if !ok {
		mark = "[" + string(n.Level) + "]"
	}
	fmt.Fprintf(w.out, "%s %s\n", mark, n.Message)
}

// Log records notices on a zerolog logger.
type Log struct {
	logger zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(_ context.Context, n Notice) {
	var ev *zerolog.Event
	switch n.Level {
	case LevelError:
		ev = l.logger.Error()
	case LevelWarning:
		ev = l.logger.Warn()
	default:
		ev = l.logger.Info()
	}
	ev.Str("notice_id", n.ID).Str("level", string(n.Level)).Bool("durable", n.Durable).Msg(n.Message)
}

// Recorder keeps every notice in memory. Useful in tests and for replaying
// recent notices to late subscribers.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(_ context.Context, n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Reset drops all recorded notices.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}
