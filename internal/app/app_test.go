package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/dropin/internal/config"
	"github.com/dshills/dropin/internal/drop"
	"github.com/dshills/dropin/internal/drop/builtin"
	"github.com/dshills/dropin/internal/event"
	"github.com/dshills/dropin/internal/event/events"
)

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

const todoPlugin = `
dropin.register_provider{
  id = "%s",
  mimes = {"text/plain"},
  provide = function(drop)
    return {{text = "- [ ] " .. drop.text, label = "Insert Todo"}}
  end,
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestApp(t *testing.T, name, content string, mod func(*Options)) (*App, *syncBuffer) {
	t.Helper()
	dir := t.TempDir()
	file := filepath.Join(dir, name)
	writeFile(t, file, content)

	logs := &syncBuffer{}
	opts := Options{
		File:          file,
		ConfigOptions: []config.Option{config.WithEnvPrefix("")},
		LogOutput:     logs,
	}
	if mod != nil {
		mod(&opts)
	}
	a, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, logs
}

func wait(t *testing.T, op *drop.Operation) {
	t.Helper()
	if op == nil {
		t.Fatal("drop returned no operation")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := op.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewRequiresFile(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrNoFile) {
		t.Errorf("New() error = %v, want ErrNoFile", err)
	}
}

func TestDropText(t *testing.T) {
	a, logs := newTestApp(t, "notes.txt", "hello", nil)

	wait(t, a.DropText(5, " world"))

	if got := a.Document().Engine.Text(); got != "hello world" {
		t.Errorf("text = %q, want %q", got, "hello world")
	}
	if a.Picker().Visible() {
		t.Error("picker shown for a single candidate")
	}
	if !a.surface.Focused() {
		t.Error("surface not focused by the drop")
	}
	if !strings.Contains(logs.String(), `applied "Insert Plain Text" from text`) {
		t.Errorf("log missing applied line:\n%s", logs.String())
	}
}

func TestDropFilesOffersPicker(t *testing.T) {
	a, _ := newTestApp(t, "notes.txt", "", nil)
	img := filepath.Join(a.Document().URI.Dir(), "img", "a.png")

	wait(t, a.DropFiles(0, img))

	if got := a.Document().Engine.Text(); got != img {
		t.Errorf("text = %q, want %q", got, img)
	}
	view := a.Picker().View()
	if !view.Visible {
		t.Fatal("picker not shown")
	}
	want := []string{builtin.LabelPath, builtin.LabelRelativePath}
	if strings.Join(view.Titles, "|") != strings.Join(want, "|") {
		t.Errorf("titles = %v, want %v", view.Titles, want)
	}

	a.Picker().Next()
	if !a.Picker().Choose() {
		t.Fatal("Choose() = false")
	}
	if got := a.Document().Engine.Text(); got != "img/a.png" {
		t.Errorf("text after choosing = %q, want %q", got, "img/a.png")
	}
}

func TestSettingsFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "dropin.toml")

	tests := []struct {
		name       string
		config     string
		wantText   func(img string) string
		wantPicker bool
	}{
		{
			name:     "disabled provider",
			config:   "[providers]\ndisabled = [\"path\"]\n",
			wantText: func(string) string { return "" },
		},
		{
			name:     "never show selector",
			config:   "[dropIntoEditor]\nshowDropSelector = \"never\"\n",
			wantText: func(img string) string { return img },
		},
		{
			name:     "drops disabled",
			config:   "[dropIntoEditor]\nenabled = false\n",
			wantText: func(string) string { return "" },
		},
		{
			name:       "provider order",
			config:     "[providers]\norder = [\"path\"]\n",
			wantText:   func(img string) string { return img },
			wantPicker: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeFile(t, cfgPath, tt.config)
			a, _ := newTestApp(t, "notes.txt", "", func(o *Options) { o.ConfigPath = cfgPath })
			img := filepath.Join(a.Document().URI.Dir(), "a.png")

			wait(t, a.DropFiles(0, img))

			if got, want := a.Document().Engine.Text(), tt.wantText(img); got != want {
				t.Errorf("text = %q, want %q", got, want)
			}
			if got := a.Picker().Visible(); got != tt.wantPicker {
				t.Errorf("picker visible = %v, want %v", got, tt.wantPicker)
			}
		})
	}
}

func TestBrokenConfigUsesDefaults(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "dropin.toml")
	writeFile(t, cfgPath, "[dropIntoEditor\n")

	a, logs := newTestApp(t, "notes.txt", "", func(o *Options) { o.ConfigPath = cfgPath })

	if !a.Config().DropSettings().Enabled {
		t.Error("defaults not applied")
	}
	if !strings.Contains(logs.String(), "load config, using defaults") {
		t.Errorf("log missing warning:\n%s", logs.String())
	}
}

func TestPlugins(t *testing.T) {
	plugins := t.TempDir()
	writeFile(t, filepath.Join(plugins, "todo.lua"), strings.Replace(todoPlugin, "%s", "todo", 1))

	a, _ := newTestApp(t, "notes.txt", "", func(o *Options) { o.PluginsDir = plugins })

	ids := strings.Join(a.Registry().IDs(), ",")
	if !strings.Contains(ids, "todo") {
		t.Fatalf("registry ids = %s, want todo", ids)
	}

	wait(t, a.DropText(0, "milk"))
	if got := a.Document().Engine.Text(); got != "milk" {
		t.Errorf("text = %q, want %q", got, "milk")
	}
	titles := a.Picker().View().Titles
	if len(titles) != 2 || titles[1] != "Insert Todo" {
		t.Errorf("titles = %v, want plain text then Insert Todo", titles)
	}
}

func TestPluginsDirChange(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(first, "a.lua"), strings.Replace(todoPlugin, "%s", "first", 1))
	writeFile(t, filepath.Join(second, "b.lua"), strings.Replace(todoPlugin, "%s", "second", 1))

	a, _ := newTestApp(t, "notes.txt", "", func(o *Options) { o.PluginsDir = first })

	if err := a.Config().Set(config.KeyPluginsDir, second); err != nil {
		t.Fatal(err)
	}
	ids := strings.Join(a.Registry().IDs(), ",")
	if strings.Contains(ids, "first") || !strings.Contains(ids, "second") {
		t.Errorf("registry ids = %s, want second only", ids)
	}
}

func TestConfigReloadPublishes(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "dropin.yaml")
	writeFile(t, cfgPath, "log:\n  level: info\n")
	a, _ := newTestApp(t, "notes.txt", "", func(o *Options) { o.ConfigPath = cfgPath })

	var got []events.ConfigReloaded
	var mu sync.Mutex
	_, err := a.Bus().Subscribe(events.TopicConfigReloaded, func(_ context.Context, ev event.Event) error {
		mu.Lock()
		got = append(got, ev.Payload.(events.ConfigReloaded))
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, cfgPath, "log:\n  level: debug\nproviders:\n  disabled: [text]\n")
	if _, err := a.Config().Reload(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("got %d reload events, want 1", len(got))
	}
	if changed := strings.Join(got[0].Changed, ","); changed != "log.level,providers.disabled" {
		t.Errorf("changed = %s", changed)
	}
	if got[0].Path != cfgPath {
		t.Errorf("path = %q, want %q", got[0].Path, cfgPath)
	}
	if a.Logger().Level() != LogLevelDebug {
		t.Errorf("log level = %v, want DEBUG", a.Logger().Level())
	}
	for _, p := range a.Registry().ProvidersFor(a.Document()) {
		if p.ID() == builtin.IDText {
			t.Error("text provider still offered after being disabled")
		}
	}
}

func TestCancel(t *testing.T) {
	a, _ := newTestApp(t, "notes.txt", "", nil)
	if a.Cancel() {
		t.Error("Cancel() = true with nothing running")
	}

	wait(t, a.DropFiles(0, filepath.Join(a.Document().URI.Dir(), "a.png")))
	if !a.Picker().Visible() {
		t.Fatal("picker not shown")
	}
	if !a.Cancel() {
		t.Error("Cancel() = false with the picker open")
	}
	eventually(t, func() bool { return !a.Picker().Visible() })
	if a.Cancel() {
		t.Error("Cancel() = true after the picker was dismissed")
	}
}

func TestInsertSaveUndo(t *testing.T) {
	a, _ := newTestApp(t, "notes.txt", "ab", nil)
	a.SetCaret(1)

	if err := a.Insert("X"); err != nil {
		t.Fatal(err)
	}
	if a.Caret() != 2 {
		t.Errorf("caret = %d, want 2", a.Caret())
	}
	if err := a.Save(); err != nil {
		t.Fatal(err)
	}
	path, _ := a.Document().URI.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "aXb" {
		t.Errorf("saved %q, want %q", data, "aXb")
	}

	if err := a.Delete(0, 1); err != nil {
		t.Fatal(err)
	}
	if got := a.Document().Engine.Text(); got != "Xb" || a.Caret() != 0 {
		t.Errorf("after delete: text %q caret %d", got, a.Caret())
	}
	if !a.Document().IsModified() {
		t.Error("document not modified after delete")
	}

	if err := a.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := a.Document().Engine.Text(); got != "aXb" {
		t.Errorf("text after undo = %q, want %q", got, "aXb")
	}
}

func TestOnChange(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	a, _ := newTestApp(t, "notes.txt", "", func(o *Options) {
		o.OnChange = func() {
			mu.Lock()
			calls++
			mu.Unlock()
		}
	})

	wait(t, a.DropText(0, "x"))

	mu.Lock()
	defer mu.Unlock()
	if calls == 0 {
		t.Error("OnChange not called")
	}
}

func TestCloseTwice(t *testing.T) {
	a, _ := newTestApp(t, "notes.txt", "", nil)
	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if op := a.DropText(0, "x"); op != nil {
		t.Error("drop after Close returned an operation")
	}
}
