package testutil

import (
	"testing"
	"time"
)

// Eventually polls fn every interval until it reports true, failing the
// test with msg once timeout elapses. Used to await asynchronous status
// broadcasts without sleeping a fixed amount.
func Eventually(t *testing.T, timeout, interval time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if fn() {
			return
		}
		if time.Now().After(deadline) {
			if msg == "" {
				msg = "condition not met before timeout"
			}
			t.Fatal(msg)
		}
		time.Sleep(interval)
	}
}
