package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "notice", "warning", "error"
}

// Console fans log messages out to every connected render stream
type Console struct {
	mu          sync.Mutex
	subscribers map[chan ConsoleMessage]struct{}
}

// NewConsole creates a console with no subscribers
func NewConsole() *Console {
	return &Console{subscribers: make(map[chan ConsoleMessage]struct{})}
}

// Subscribe returns a channel receiving every message published from now on and
// a function that unsubscribes and closes it
func (c *Console) Subscribe(buffer int) (<-chan ConsoleMessage, func()) {
	ch := make(chan ConsoleMessage, buffer)
	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subscribers, ch)
			c.mu.Unlock()
			close(ch)
		})
	}
}

func (c *Console) publish(msg ConsoleMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.subscribers {
		select {
		case ch <- msg:
		default:
			// Subscriber is behind, drop rather than block the logger
		}
	}
}

// Logger wraps base so that every message is also published to the console
func (c *Console) Logger(base core.Logger) core.Logger {
	if base == nil {
		base = core.NopLogger{}
	}
	return &WebLogger{base: base, console: c}
}

// WebLogger implements core.Logger by forwarding to a base logger and a console
type WebLogger struct {
	base    core.Logger
	console *Console
}

func (wl *WebLogger) send(level, format string, args []interface{}) {
	if wl.console == nil {
		return
	}
	wl.console.publish(ConsoleMessage{
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now(),
		Level:     level,
	})
}

func (wl *WebLogger) Debugf(format string, args ...interface{}) {
	wl.base.Debugf(format, args...)
	wl.send("debug", format, args)
}

func (wl *WebLogger) Infof(format string, args ...interface{}) {
	wl.base.Infof(format, args...)
	wl.send("info", format, args)
}

func (wl *WebLogger) Noticef(format string, args ...interface{}) {
	wl.base.Noticef(format, args...)
	wl.send("notice", format, args)
}

func (wl *WebLogger) Warningf(format string, args ...interface{}) {
	wl.base.Warningf(format, args...)
	wl.send("warning", format, args)
}

func (wl *WebLogger) Errorf(format string, args ...interface{}) {
	wl.base.Errorf(format, args...)
	wl.send("error", format, args)
}
