// Package testutil provides common test helpers for go-pagesync.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"
)

// DiscardLogger drops everything; use it for loops that log per attempt.
var DiscardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// WaitFor polls condition until it is true or timeout elapses.
func WaitFor(t *testing.T, description string, timeout time.Duration, condition func() bool) error {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("condition '%s' not met within %v", description, timeout)
}

// Receive returns the next value from ch or fails the test after timeout.
func Receive[T any](t *testing.T, ch <-chan T, timeout time.Duration) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v waiting for value", timeout)
	}
	var zero T
	return zero
}
