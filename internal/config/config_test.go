package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/dshills/dropin/internal/config/notify"
)

const testPrefix = "DROPIN_TEST_"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	c := New(WithEnvPrefix(""))
	s := c.DropSettings()
	if !s.Enabled || s.ShowDropSelector != ShowAfterDrop || !s.ShowSelectorAfterDrop() {
		t.Errorf("DropSettings() = %+v", s)
	}
	if s.ProgressDelay != 500*time.Millisecond {
		t.Errorf("ProgressDelay = %v", s.ProgressDelay)
	}
	if len(s.ProviderOrder) != 0 || len(s.DisabledProviders) != 0 {
		t.Errorf("providers = %v %v", s.ProviderOrder, s.DisabledProviders)
	}
	if c.LogLevel() != "info" {
		t.Errorf("LogLevel() = %q", c.LogLevel())
	}
}

func TestLoadLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropin.toml")
	writeFile(t, path, `
[dropIntoEditor]
showDropSelector = "never"
progressDelay = "1s"

[providers]
order = ["markdown"]
disabled = ["text"]

[plugins]
dir = "/plugins"
`)
	t.Setenv(testPrefix+"PLUGINS_DIR", "/env/plugins")
	t.Setenv(testPrefix+"PROVIDERS_DISABLED", "path, resource")

	c := New(WithPath(path), WithEnvPrefix(testPrefix))
	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	s := c.DropSettings()
	if s.ShowSelectorAfterDrop() || s.ShowDropSelector != ShowNever {
		t.Errorf("ShowDropSelector = %q", s.ShowDropSelector)
	}
	if s.ProgressDelay != time.Second {
		t.Errorf("ProgressDelay = %v", s.ProgressDelay)
	}
	if !reflect.DeepEqual(s.ProviderOrder, []string{"markdown"}) {
		t.Errorf("ProviderOrder = %v", s.ProviderOrder)
	}
	if !reflect.DeepEqual(s.DisabledProviders, []string{"path", "resource"}) {
		t.Errorf("DisabledProviders = %v", s.DisabledProviders)
	}
	if got := c.String(KeyPluginsDir); got != "/env/plugins" {
		t.Errorf("plugins.dir = %q, want env value", got)
	}
	if !c.Bool(KeyDropEnabled) {
		t.Error("enabled default lost")
	}
}

func TestLoadYAMLAndUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropin.yml")
	writeFile(t, path, "log:\n  level: DEBUG\nplugin:\n  markdown:\n    width: 80\n")

	c := New(WithPath(path), WithEnvPrefix(""))
	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.LogLevel() != "debug" {
		t.Errorf("LogLevel() = %q", c.LogLevel())
	}
	if got := c.Int("plugin.markdown.width"); got != 80 {
		t.Errorf("Int() = %d, want 80", got)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		key     string
	}{
		{"bool", "a.toml", "[dropIntoEditor]\nenabled = \"yes\"\n", KeyDropEnabled},
		{"enum", "b.toml", "[log]\nlevel = \"loud\"\n", KeyLogLevel},
		{"slice", "c.yaml", "providers:\n  order: [1, 2]\n", KeyProvidersOrder},
		{"duration", "d.toml", "[dropIntoEditor]\nprogressDelay = \"soon\"\n", KeyProgressDelay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			writeFile(t, path, tt.content)
			c := New(WithPath(path), WithEnvPrefix(""))
			err := c.Load()
			if !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("Load() error = %v, want ErrInvalidValue", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Key != tt.key {
				t.Errorf("ValidationError = %+v, want key %s", verr, tt.key)
			}
			if !c.DropSettings().Enabled {
				t.Error("defaults lost after failed load")
			}
		})
	}
}

func TestReloadNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropin.toml")
	writeFile(t, path, "[dropIntoEditor]\nshowDropSelector = \"never\"\n")

	c := New(WithPath(path), WithEnvPrefix(""))
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}

	var changes []string
	c.Subscribe(func(ch notify.Change) { changes = append(changes, ch.Type.String()+":"+ch.Path) })
	var drops int
	c.SubscribePath("dropIntoEditor", func(notify.Change) { drops++ })

	writeFile(t, path, "[dropIntoEditor]\nenabled = false\n[log]\nfile = \"/tmp/x.log\"\n")
	keys, err := c.Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	want := []string{KeyDropEnabled, KeyShowDropSelector, KeyLogFile}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("Reload() keys = %v, want %v", keys, want)
	}
	wantChanges := []string{"set:" + KeyDropEnabled, "set:" + KeyShowDropSelector, "set:" + KeyLogFile, "reload:"}
	if !reflect.DeepEqual(changes, wantChanges) {
		t.Errorf("changes = %v, want %v", changes, wantChanges)
	}
	if drops != 3 {
		t.Errorf("dropIntoEditor observer calls = %d, want 3", drops)
	}
	if c.String(KeyShowDropSelector) != ShowAfterDrop {
		t.Errorf("showDropSelector = %q, want default again", c.String(KeyShowDropSelector))
	}
}

func TestSetOverride(t *testing.T) {
	c := New(WithEnvPrefix(""))
	if err := c.Set(KeyShowDropSelector, ShowNever); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(KeyDropEnabled, "nope"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Set(invalid) = %v", err)
	}
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}
	if c.String(KeyShowDropSelector) != ShowNever {
		t.Error("override lost on reload")
	}
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropin.toml")
	writeFile(t, path, "[log]\nlevel = \"info\"\n")

	c := New(WithPath(path), WithEnvPrefix(""))
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })

	reloaded := make(chan struct{}, 4)
	c.Subscribe(func(ch notify.Change) {
		if ch.Type == notify.ChangeReload {
			reloaded <- struct{}{}
		}
	})
	if err := c.Watch(func(err error) { t.Errorf("watch error: %v", err) }); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	writeFile(t, path, "[log]\nlevel = \"warn\"\n")
	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
	if c.LogLevel() != "warn" {
		t.Errorf("LogLevel() = %q, want warn", c.LogLevel())
	}
}
