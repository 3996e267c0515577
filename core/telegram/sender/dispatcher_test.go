package sender

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestDispatcherExecutesJob(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4})
	defer d.Close()

	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "send_text", "@chat", func() error {
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not executed")
	}
	if got := d.ErrorCount(); got != 0 {
		t.Errorf("error count = %d, expected 0", got)
	}
}

func TestDispatcherEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	d.Close()

	err := d.Enqueue(context.Background(), "send_text", "", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, expected ErrQueueClosed", err)
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})

	// First job occupies the single worker until released.
	if err := d.Enqueue(context.Background(), "a", "", func() error {
		close(started)
		<-release
		return nil
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	<-started

	// Second job fills the queue.
	if err := d.Enqueue(context.Background(), "b", "", func() error { return nil }); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// Third must be rejected without blocking.
	err := d.Enqueue(context.Background(), "c", "", func() error { return nil })
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, expected ErrQueueFull", err)
	}

	close(release)
	d.Close()
}

func TestDispatcherCountsFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4})

	if err := d.Enqueue(context.Background(), "send_text", "", func() error {
		return errors.New("telegram: internal error")
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	d.Close()

	if got := d.ErrorCount(); got != 1 {
		t.Fatalf("error count = %d, expected 1", got)
	}
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{
		Workers:      1,
		QueueSize:    4,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		MaxDuration:  time.Second,
	})

	var calls atomic.Int32
	if err := d.Enqueue(context.Background(), "send_text", "", func() error {
		if calls.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		}
		return nil
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	d.Close()

	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, expected 3", got)
	}
	if got := d.ErrorCount(); got != 0 {
		t.Fatalf("error count = %d, expected 0", got)
	}
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	d := NewDispatcher(Options{
		Workers:      1,
		QueueSize:    4,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
		MaxDuration:  time.Second,
	})

	var calls atomic.Int32
	if err := d.Enqueue(context.Background(), "send_text", "", func() error {
		calls.Add(1)
		return &tele.Error{Code: 400, Description: "Bad Request: chat not found"}
	}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	d.Close()

	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, expected no retries", got)
	}
	if got := d.ErrorCount(); got != 1 {
		t.Fatalf("error count = %d, expected 1", got)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"dns", &net.DNSError{Name: "api.telegram.org"}, "dns"},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, "dial"},
		{"http 5xx", &tele.Error{Code: 502}, "http_5xx"},
		{"http 4xx", &tele.Error{Code: 403}, "http_4xx"},
		{"flood", tele.FloodError{RetryAfter: 30}, "http_4xx"},
		{"unknown", errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyError(tt.err); got != tt.want {
				t.Fatalf("classifyError = %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAE-secret_value/sendMessage": timeout`)
	got := sanitizeErrorMessage(err)
	if got != `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout` {
		t.Fatalf("sanitized message = %q", got)
	}
}
