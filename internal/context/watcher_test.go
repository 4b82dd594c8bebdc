package context

import (
	"sync"
	"testing"
	"time"
)

func TestWatcher_ReportsSavedChanges(t *testing.T) {
	storage := NewStorageWithPath(t.TempDir())
	if err := storage.AddContext(Context{Name: "home", Endpoint: "http://localhost:8080"}); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var seen []string
	w := NewWatcher(storage, func(cfg *ContextConfig) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, cfg.CurrentContext)
	})
	w.debounce = 20 * time.Millisecond

	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := storage.SetCurrentContext("home"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(seen)
		last := ""
		if n > 0 {
			last = seen[n-1]
		}
		mu.Unlock()
		if last == "home" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("watcher did not report the change")
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := NewWatcher(NewStorageWithPath(t.TempDir()), nil)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
