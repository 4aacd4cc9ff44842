package lua

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultCallTimeout bounds a single call into Lua.
const DefaultCallTimeout = 5 * time.Second

// State wraps gopher-lua with serialized access, a sandbox, and panic
// recovery. gopher-lua's LState is not goroutine-safe; every use goes
// through the mutex.
type State struct {
	L *lua.LState

	mu      sync.Mutex
	timeout time.Duration
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithCallTimeout bounds each call into Lua. Zero disables the bound.
func WithCallTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.timeout = d
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...StateOption) *State {
	s := &State{timeout: DefaultCallTimeout}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	s.L = L
	return s
}

// openSafeLibraries opens the base, table, string, and math libraries
// and removes the functions that load code from disk or strings.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	return s.with(context.Background(), func(L *lua.LState) error {
		return L.DoFile(path)
	})
}

// DoString executes a Lua string.
func (s *State) DoString(code string) error {
	return s.with(context.Background(), func(L *lua.LState) error {
		return L.DoString(code)
	})
}

// Call calls fn with the arguments built by args and returns its first
// result converted to Go. args runs under the state lock so it may create
// Lua tables. ctx cancels the call.
func (s *State) Call(ctx context.Context, fn *lua.LFunction, args func(L *lua.LState) []lua.LValue) (any, error) {
	var ret any
	err := s.with(ctx, func(L *lua.LState) error {
		var in []lua.LValue
		if args != nil {
			in = args(L)
		}
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, in...); err != nil {
			return err
		}
		ret = toGo(L.Get(-1))
		L.Pop(1)
		return nil
	})
	return ret, err
}

// with runs fn under the lock with ctx installed on the state.
func (s *State) with(ctx context.Context, fn func(L *lua.LState) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStateClosed
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	top := s.L.GetTop()
	defer func() {
		if r := recover(); r != nil {
			s.L.SetTop(top)
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	if err := fn(s.L); err != nil {
		s.L.SetTop(top)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", ctxErr, err)
		}
		return err
	}
	return nil
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// RegisterModule registers a global table with the given functions.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.L.SetGlobal(name, s.L.SetFuncs(s.L.NewTable(), funcs))
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. Later calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
