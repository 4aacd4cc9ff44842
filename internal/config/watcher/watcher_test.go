package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := New(WithDebounce(20 * time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
		return Event{}
	}
}

func TestWatcher_Write(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dropin.toml")
	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t)
	events := make(chan Event, 8)
	w.OnChange(func(ev Event) { events <- ev })
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if !w.IsWatching(path) {
		t.Error("IsWatching() = false")
	}

	if err := os.WriteFile(path, []byte("a = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ev := waitEvent(t, events)
	if ev.Path != path {
		t.Errorf("Path = %q, want %q", ev.Path, path)
	}
	if ev.Op&OpWrite == 0 {
		t.Errorf("Op = %v, want write", ev.Op)
	}
}

func TestWatcher_CreateAndIgnoreSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dropin.yaml")

	w := newTestWatcher(t)
	events := make(chan Event, 8)
	w.OnChange(func(ev Event) { events <- ev })
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("log: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ev := waitEvent(t, events)
	if ev.Path != path || ev.Op&OpCreate == 0 {
		t.Errorf("event = %+v", ev)
	}
	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case ev := <-events:
			if ev.Path != path {
				t.Errorf("event for unwatched file %+v", ev)
			}
		case <-timeout:
			return
		}
	}
}

func TestWatcher_Closed(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := w.Watch(filepath.Join(t.TempDir(), "x")); err != ErrWatcherClosed {
		t.Errorf("Watch() after Close = %v, want ErrWatcherClosed", err)
	}
}

func TestOp_String(t *testing.T) {
	if got := (OpCreate | OpWrite).String(); got != "create|write" {
		t.Errorf("String() = %q", got)
	}
	if got := Op(0).String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
}
