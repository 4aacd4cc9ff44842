package loader

import (
	"errors"
	"io/fs"
	"reflect"
	"strings"
	"testing"
	"time"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/dropin.toml", `
[dropIntoEditor]
enabled = false
showDropSelector = "never"

[providers]
order = ["markdown", "path"]
`)

	config, err := NewTOMLLoaderWithFS(memfs, "/dropin.toml").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if v, _ := GetPath(config, "dropIntoEditor.enabled"); v != false {
		t.Errorf("enabled = %v, want false", v)
	}
	if v, _ := GetPath(config, "dropIntoEditor.showDropSelector"); v != "never" {
		t.Errorf("showDropSelector = %v, want never", v)
	}
	if v, _ := GetPath(config, "providers.order"); !reflect.DeepEqual(v, []any{"markdown", "path"}) {
		t.Errorf("providers.order = %#v", v)
	}
}

func TestYAMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/dropin.yaml", `
dropIntoEditor:
  showDropSelector: afterDrop
providers:
  disabled: [text]
log:
  level: debug
`)

	config, err := ForFile(memfs, "/dropin.yaml").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"dropIntoEditor.showDropSelector", "log.level", "providers.disabled"}
	if got := Keys(config); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if v, _ := GetPath(config, "providers.disabled"); !reflect.DeepEqual(v, []any{"text"}) {
		t.Errorf("providers.disabled = %#v", v)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	memfs := NewMemFS()
	for _, path := range []string{"/none.toml", "/none.yml"} {
		config, err := ForFile(memfs, path).Load()
		if err != nil || config != nil {
			t.Errorf("%s: Load() = %v, %v; want nil, nil", path, config, err)
		}
	}
}

func TestLoader_ParseError(t *testing.T) {
	tests := []struct {
		path    string
		content string
	}{
		{"/bad.toml", "[dropIntoEditor\nenabled = true"},
		{"/bad.yaml", "log: [unclosed"},
	}
	for _, tt := range tests {
		memfs := NewMemFS()
		memfs.AddFile(tt.path, tt.content)
		_, err := ForFile(memfs, tt.path).Load()
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("%s: err = %v, want *ParseError", tt.path, err)
			continue
		}
		if perr.Path != tt.path || !strings.Contains(err.Error(), tt.path) {
			t.Errorf("%s: ParseError = %+v", tt.path, perr)
		}
	}
}

func TestTOMLLoader_LoadFromReader(t *testing.T) {
	config, err := NewTOMLLoader("").LoadFromReader(strings.NewReader(`plugins = { dir = "/p" }`))
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := GetPath(config, "plugins.dir"); v != "/p" {
		t.Errorf("plugins.dir = %v", v)
	}
}

func TestEnvLoader(t *testing.T) {
	t.Setenv("DROPIN_SHOW_DROP_SELECTOR", "never")
	t.Setenv("DROPIN_ENABLED", "off")
	t.Setenv("DROPIN_PROVIDERS_ORDER", `["path","text"]`)
	t.Setenv("DROPIN_PROGRESS_DELAY", "250ms")
	t.Setenv("DROPIN_LOG_FILE", "")

	config, err := NewEnvLoader("DROPIN_").Load()
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		path string
		want any
	}{
		{"dropIntoEditor.showDropSelector", "never"},
		{"dropIntoEditor.enabled", false},
		{"providers.order", []any{"path", "text"}},
		{"dropIntoEditor.progressDelay", 250 * time.Millisecond},
		{"log.file", ""},
	}
	for _, tt := range tests {
		got, ok := GetPath(config, tt.path)
		if !ok || !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s = %#v, %v; want %#v", tt.path, got, ok, tt.want)
		}
	}
}

func TestEnvLoader_envToPath(t *testing.T) {
	l := NewEnvLoader("DROPIN_")
	tests := []struct {
		env  string
		want string
	}{
		{"DROPIN_PROVIDERS_DISABLED", "providers.disabled"},
		{"DROPIN_DROP_INTO_EDITOR", "drop.intoEditor"},
		{"DROPIN_DEBUG", "debug"},
	}
	for _, tt := range tests {
		if got := l.envToPath(tt.env); got != tt.want {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestParseEnvValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"yes", true},
		{"42", int64(42)},
		{"1.5", 1.5},
		{"2s", 2 * time.Second},
		{`{"a":1}`, map[string]any{"a": float64(1)}},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := parseEnvValue(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseEnvValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{"a": map[string]any{"x": 1, "y": 2}, "b": 1}
	src := map[string]any{"a": map[string]any{"y": 3}, "c": map[string]any{"z": 4}}
	got := DeepMerge(Clone(dst), src)
	want := map[string]any{"a": map[string]any{"x": 1, "y": 3}, "b": 1, "c": map[string]any{"z": 4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DeepMerge() = %v, want %v", got, want)
	}
	src["c"].(map[string]any)["z"] = 5
	if got["c"].(map[string]any)["z"] != 4 {
		t.Error("DeepMerge shares maps with src")
	}
	if dst["a"].(map[string]any)["y"] != 2 {
		t.Error("Clone shares maps with dst")
	}
}
