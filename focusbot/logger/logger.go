package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

const prefix = "[FocusBot]"

type LogType string

const (
	TypeCommand   LogType = "CMD"
	TypeComponent LogType = "UI"
	TypeDB        LogType = "DB"
	TypeSystem    LogType = "SYS"
	TypeError     LogType = "ERR"
)

var (
	debugColor = color.New(color.FgMagenta)
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	dimColor   = color.New(color.FgWhite)
)

// noisy disgo internals we never want in the console
var skippedMessages = []string{
	"locking buckets",
	"unlocking buckets",
	"gateway event",
	"cleaning up bucket",
	"cleaned up rate limit buckets",
	"binary message received",
	"received gateway message",
	"opening gateway connection",
	"locking gateway rate limiter",
	"unlocking gateway rate limiter",
	"sending gateway command",
	"new request",
	"new response",
	"locking rest bucket",
	"unlocking rest bucket",
	"rate limit response headers",
	"sending heartbeat",
}

// attributes folded into the message rather than printed as key=value
var internalAttrs = map[string]struct{}{
	"type":      {},
	"name":      {},
	"user_name": {},
	"status":    {},
	"took":      {},
	"error":     {},
}

type CustomHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

func NewHandler(out io.Writer, level slog.Leveler) *CustomHandler {
	if out == nil {
		out = os.Stdout
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &CustomHandler{
		mu:    &sync.Mutex{},
		out:   out,
		level: level,
	}
}

// New returns the console handler for format "text", or a JSON handler for "json".
func New(format string, level slog.Level, addSource bool) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     level,
			AddSource: addSource,
		})
	}
	return NewHandler(os.Stdout, level)
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}
	return &clone
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(append([]string{}, h.groups...), name)
	return &clone
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(r.Message) {
		return nil
	}

	fields := make(map[string]slog.Value)
	var extras []string
	collect := func(a slog.Attr) bool {
		if _, ok := internalAttrs[a.Key]; ok {
			fields[a.Key] = a.Value
			return true
		}
		extras = append(extras, fmt.Sprintf("%s=%v", a.Key, a.Value))
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		return collect(slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	})

	message := r.Message
	if errVal, ok := fields["error"]; ok {
		message = fmt.Sprintf("%s: %v", message, errVal)
	}
	if name, ok := fields["name"]; ok {
		if user, ok := fields["user_name"]; ok {
			message = fmt.Sprintf("%s [%s by %s]", message, name, user)
		}
	}
	if status, ok := fields["status"]; ok {
		message = fmt.Sprintf("%s [Status: %s]", message, status)
	}
	if took, ok := fields["took"]; ok {
		message = fmt.Sprintf("%s (took %s)", message, took)
	}

	line := fmt.Sprintf("%s [%s] [%s] [%s] %s",
		dimColor.Sprint(prefix),
		r.Time.Format("15:04:05"),
		levelText(r.Level),
		logType(fields["type"], r.Level),
		message,
	)
	if len(extras) > 0 {
		line += " " + dimColor.Sprint(strings.Join(extras, " "))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.out, line)
	return err
}

func (h *CustomHandler) qualify(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	return strings.Join(h.groups, ".") + "." + key
}

func levelText(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return errorColor.Sprint("ERROR")
	case level >= slog.LevelWarn:
		return warnColor.Sprint("WARN")
	case level >= slog.LevelInfo:
		return infoColor.Sprint("INFO")
	default:
		return debugColor.Sprint("DEBUG")
	}
}

func logType(v slog.Value, level slog.Level) LogType {
	switch v.String() {
	case "cmd":
		return TypeCommand
	case "component":
		return TypeComponent
	case "db":
		return TypeDB
	case "error":
		return TypeError
	case "sys":
		return TypeSystem
	}
	if level >= slog.LevelError {
		return TypeError
	}
	return TypeSystem
}

func shouldSkipLog(message string) bool {
	lower := strings.ToLower(message)
	for _, skip := range skippedMessages {
		if strings.Contains(lower, skip) {
			return true
		}
	}
	return false
}
