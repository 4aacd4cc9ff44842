package lua

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/dropin/internal/drop"
	"github.com/dshills/dropin/internal/snippet"
)

// ModuleName is the global table scripts use to talk to the host.
const ModuleName = "dropin"

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger routes dropin.log output and host diagnostics to log.
func WithLogger(log drop.Logger) HostOption {
	return func(h *Host) {
		h.log = log
	}
}

// WithStateOptions passes options to the underlying State.
func WithStateOptions(opts ...StateOption) HostOption {
	return func(h *Host) {
		h.stateOpts = append(h.stateOpts, opts...)
	}
}

// Host loads Lua scripts and collects the providers they register.
type Host struct {
	state     *State
	stateOpts []StateOption
	log       drop.Logger

	mu        sync.Mutex
	providers []*Provider
	ids       map[string]bool
	loading   string
}

// NewHost creates a host with a fresh Lua state.
func NewHost(opts ...HostOption) *Host {
	h := &Host{ids: make(map[string]bool)}
	for _, opt := range opts {
		opt(h)
	}
	if h.log == nil {
		h.log = nopLogger{}
	}
	h.state = NewState(h.stateOpts...)
	h.state.RegisterModule(ModuleName, map[string]lua.LGFunction{
		"register_provider": h.luaRegisterProvider,
		"escape":            luaEscape,
		"log":               h.luaLog,
	})
	return h
}

// State returns the host's Lua state.
func (h *Host) State() *State {
	return h.state
}

// LoadFile runs one script.
func (h *Host) LoadFile(path string) error {
	h.mu.Lock()
	h.loading = path
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.loading = ""
		h.mu.Unlock()
	}()

	if err := h.state.DoFile(path); err != nil {
		return fmt.Errorf("load plugin %s: %w", path, err)
	}
	return nil
}

// LoadDir runs every *.lua file in dir in name order. A missing
// directory loads nothing. A failing script is reported and the rest
// still load.
func (h *Host) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read plugin dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".lua") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var errs []string
	for _, name := range names {
		if err := h.LoadFile(filepath.Join(dir, name)); err != nil {
			h.log.Warn("plugin: %v", err)
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d plugin(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// Providers returns the registered providers in registration order.
func (h *Host) Providers() []*Provider {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Provider(nil), h.providers...)
}

// Register adds every provider to reg and returns a function that
// removes them again.
func (h *Host) Register(reg *drop.Registry) (unregister func()) {
	var undo []func()
	for _, p := range h.Providers() {
		undo = append(undo, reg.Register(p, p.registerOptions()...))
	}
	return func() {
		for _, fn := range undo {
			fn()
		}
	}
}

// Close releases the Lua state.
func (h *Host) Close() error {
	return h.state.Close()
}

// luaRegisterProvider implements dropin.register_provider{...}. It runs
// with the state lock held by the DoFile that loads the script.
func (h *Host) luaRegisterProvider(L *lua.LState) int {
	spec := L.CheckTable(1)

	id := lua.LVAsString(spec.RawGetString("id"))
	if id == "" {
		L.ArgError(1, "id is required")
	}
	fn, ok := spec.RawGetString("provide").(*lua.LFunction)
	if !ok {
		L.ArgError(1, "provide must be a function")
	}
	mimes, err := stringList(spec.RawGetString("mimes"))
	if err != nil {
		L.ArgError(1, "mimes: "+err.Error())
	}
	docs, err := stringList(spec.RawGetString("documents"))
	if err != nil {
		L.ArgError(1, "documents: "+err.Error())
	}
	priority := 0
	if n, ok := spec.RawGetString("priority").(lua.LNumber); ok {
		priority = int(n)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ids[id] {
		L.RaiseError("%v: duplicate id %q", ErrInvalidProvider, id)
	}
	h.ids[id] = true
	for i, d := range docs {
		docs[i] = strings.ToLower(d)
		if !strings.HasPrefix(docs[i], ".") {
			docs[i] = "." + docs[i]
		}
	}
	h.providers = append(h.providers, &Provider{
		id:        id,
		mimes:     mimes,
		documents: docs,
		priority:  priority,
		fn:        fn,
		state:     h.state,
		source:    h.loading,
	})
	return 0
}

func (h *Host) luaLog(L *lua.LState) int {
	h.log.Info("plugin: %s", L.CheckString(1))
	return 0
}

func luaEscape(L *lua.LState) int {
	L.Push(lua.LString(snippet.Escape(L.CheckString(1))))
	return 1
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
