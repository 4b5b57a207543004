package testutil

import (
	"log"
	"os"
	"sync"
	"testing"
)

// testWriter sends log output to t.Log until the test finishes, then to
// stderr so goroutines that outlive the test do not panic.
type testWriter struct {
	mu   sync.Mutex
	t    *testing.T
	done bool
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done {
		return os.Stderr.Write(p)
	}
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

func TestLogger(t *testing.T) *log.Logger {
	w := &testWriter{t: t}
	t.Cleanup(func() {
		w.mu.Lock()
		w.done = true
		w.mu.Unlock()
	})
	return log.New(w, "[test] ", log.LstdFlags)
}
