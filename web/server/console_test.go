package server

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

func TestWebLogger_BasicLogging(t *testing.T) {
	console := NewConsole()
	messages, unsubscribe := console.Subscribe(10)
	defer unsubscribe()
	logger := console.Logger(core.NopLogger{})

	logger.Infof("Test log message")

	select {
	case msg := <-messages:
		if msg.Message != "Test log message" {
			t.Errorf("Expected message 'Test log message', got '%s'", msg.Message)
		}
		if msg.Level != "info" {
			t.Errorf("Expected level 'info', got '%s'", msg.Level)
		}
		if time.Since(msg.Timestamp) > time.Second {
			t.Errorf("Timestamp seems too old: %v", msg.Timestamp)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for console message")
	}
}

func TestWebLogger_Levels(t *testing.T) {
	console := NewConsole()
	messages, unsubscribe := console.Subscribe(10)
	defer unsubscribe()
	logger := console.Logger(nil)

	logger.Debugf("d")
	logger.Infof("i")
	logger.Noticef("n")
	logger.Warningf("w")
	logger.Errorf("e")

	want := []string{"debug", "info", "notice", "warning", "error"}
	for i, level := range want {
		select {
		case msg := <-messages:
			if msg.Level != level {
				t.Errorf("message %d: expected level %q, got %q", i, level, msg.Level)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for message %d", i+1)
		}
	}
}

func TestConsole_FansOutToAllSubscribers(t *testing.T) {
	console := NewConsole()
	first, unsubFirst := console.Subscribe(1)
	second, unsubSecond := console.Subscribe(1)
	defer unsubFirst()
	defer unsubSecond()

	console.Logger(nil).Noticef("Loading %s with %d triangles...", "dragon.ply", 12345)

	for name, ch := range map[string]<-chan ConsoleMessage{"first": first, "second": second} {
		select {
		case msg := <-ch:
			if msg.Message != "Loading dragon.ply with 12345 triangles..." {
				t.Errorf("%s got %q", name, msg.Message)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("%s timed out", name)
		}
	}
}

func TestConsole_FullSubscriberDoesNotBlock(t *testing.T) {
	console := NewConsole()
	messages, unsubscribe := console.Subscribe(1)
	defer unsubscribe()
	logger := console.Logger(nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			logger.Infof("Message %d", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("logger blocked on a full subscriber")
	}
	if msg := <-messages; msg.Message != "Message 0" {
		t.Errorf("expected the first message to be kept, got %q", msg.Message)
	}
}

func TestConsole_Unsubscribe(t *testing.T) {
	console := NewConsole()
	messages, unsubscribe := console.Subscribe(1)
	unsubscribe()
	unsubscribe()

	// Publishing with no subscribers must not panic
	console.Logger(nil).Infof("nobody listens")

	if _, ok := <-messages; ok {
		t.Error("channel should be closed after unsubscribe")
	}
}

func TestConsoleMessage_JSONSerialization(t *testing.T) {
	msg := ConsoleMessage{
		Message:   "Test message",
		Timestamp: time.Now(),
		Level:     "info",
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, key := range []string{`"message":"Test message"`, `"level":"info"`, `"timestamp":`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("JSON %s missing %s", data, key)
		}
	}
}
