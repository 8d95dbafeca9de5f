package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultTimeout bounds unit tests that take a context.
const DefaultTimeout = 5 * time.Second

// Context returns a context cancelled when the test ends. A non-positive
// timeout falls back to DefaultTimeout; the -timeout deadline of the test
// binary caps it either way.
func Context(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if deadline, ok := t.Deadline(); ok {
		if remaining := time.Until(deadline) - time.Second; remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
