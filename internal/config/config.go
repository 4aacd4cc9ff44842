package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dshills/dropin/internal/config/loader"
	"github.com/dshills/dropin/internal/config/notify"
	"github.com/dshills/dropin/internal/config/watcher"
)

// DefaultEnvPrefix is the prefix of environment variables read by Load.
const DefaultEnvPrefix = "DROPIN_"

// Option configures a Config.
type Option func(*Config)

// WithPath sets the configuration file. An empty path loads no file.
func WithPath(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithFileSystem sets the file system the configuration file is read from.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fsys
	}
}

// WithEnvPrefix sets the environment variable prefix. An empty prefix
// disables the environment layer.
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// Config holds the merged configuration.
type Config struct {
	mu        sync.RWMutex
	path      string
	fs        loader.FileSystem
	envPrefix string

	defaults  map[string]any
	file      map[string]any
	env       map[string]any
	overrides map[string]any
	merged    map[string]any

	notifier *notify.Notifier
	watcher  *watcher.Watcher
	closed   bool
}

// New creates a configuration holding only the defaults. Call Load to
// read the file and the environment.
func New(opts ...Option) *Config {
	c := &Config{
		fs:        loader.DefaultFS(),
		envPrefix: DefaultEnvPrefix,
		overrides: make(map[string]any),
		notifier:  notify.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.defaults = Defaults()
	c.merged = c.mergeLocked()
	return c
}

// Defaults returns the built-in default values.
func Defaults() map[string]any {
	d := make(map[string]any)
	for key, s := range known {
		loader.SetPath(d, key, s.def)
	}
	return d
}

// Path returns the configuration file path.
func (c *Config) Path() string {
	return c.path
}

// Load reads the configuration file and the environment and replaces
// the current values. On error the current values are kept.
func (c *Config) Load() error {
	_, err := c.reload()
	return err
}

// Reload is Load followed by change notification. It returns the keys
// whose values changed.
func (c *Config) Reload() ([]string, error) {
	changes, err := c.reload()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(changes))
	for i, ch := range changes {
		keys[i] = ch.Path
		c.notifier.Notify(ch)
	}
	c.notifier.NotifyReload(c.path)
	return keys, nil
}

func (c *Config) reload() ([]notify.Change, error) {
	var file, env map[string]any
	var err error
	if c.path != "" {
		if file, err = loader.ForFile(c.fs, c.path).Load(); err != nil {
			return nil, err
		}
	}
	if c.envPrefix != "" {
		if env, err = loader.NewEnvLoader(c.envPrefix).Load(); err != nil {
			return nil, err
		}
	}
	if err := validateAll(file); err != nil {
		return nil, fmt.Errorf("%s: %w", c.path, err)
	}
	if err := validateAll(env); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.merged
	c.file, c.env = file, env
	c.merged = c.mergeLocked()
	return diff(old, c.merged, c.path), nil
}

func (c *Config) mergeLocked() map[string]any {
	merged := loader.Clone(c.defaults)
	for _, layer := range []map[string]any{c.file, c.env, c.overrides} {
		merged = loader.DeepMerge(merged, layer)
	}
	return merged
}

func validateAll(data map[string]any) error {
	flat := loader.Flatten(data)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := validate(k, flat[k]); err != nil {
			return err
		}
	}
	return nil
}

// diff reports the changed leaves between two merged maps.
func diff(old, cur map[string]any, source string) []notify.Change {
	before, after := loader.Flatten(old), loader.Flatten(cur)
	var changes []notify.Change
	for k, v := range after {
		if ov, ok := before[k]; !ok || !reflect.DeepEqual(ov, v) {
			changes = append(changes, notify.Change{Path: k, Type: notify.ChangeSet, OldValue: before[k], NewValue: v, Source: source})
		}
	}
	for k, v := range before {
		if _, ok := after[k]; !ok {
			changes = append(changes, notify.Change{Path: k, Type: notify.ChangeDelete, OldValue: v, Source: source})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

// Set overrides a value at runtime. Overrides survive reloads.
func (c *Config) Set(key string, value any) error {
	if err := validate(key, value); err != nil {
		return err
	}
	c.mu.Lock()
	old, _ := loader.GetPath(c.merged, key)
	loader.SetPath(c.overrides, key, value)
	c.merged = c.mergeLocked()
	c.mu.Unlock()

	c.notifier.Notify(notify.Change{Path: key, Type: notify.ChangeSet, OldValue: old, NewValue: value, Source: "override"})
	return nil
}

// Get returns the value at key.
func (c *Config) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.GetPath(c.merged, key)
}

// String returns the string at key, or "".
func (c *Config) String(key string) string {
	v, _ := c.Get(key)
	s, _ := v.(string)
	return s
}

// Bool returns the boolean at key, or false.
func (c *Config) Bool(key string) bool {
	v, _ := c.Get(key)
	b, _ := v.(bool)
	return b
}

// Int returns the integer at key, or 0.
func (c *Config) Int(key string) int {
	v, _ := c.Get(key)
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}

// Duration returns the duration at key. Numbers are milliseconds.
func (c *Config) Duration(key string) time.Duration {
	v, _ := c.Get(key)
	d, _ := toDuration(v)
	return d
}

// StringSlice returns the list of strings at key. A string value is
// split on commas.
func (c *Config) StringSlice(key string) []string {
	v, _ := c.Get(key)
	s, _ := toStringSlice(v)
	return s
}

// DropSettings returns the drop pipeline settings.
func (c *Config) DropSettings() DropSettings {
	return DropSettings{
		Enabled:           c.Bool(KeyDropEnabled),
		ShowDropSelector:  c.String(KeyShowDropSelector),
		ProgressDelay:     c.Duration(KeyProgressDelay),
		ProviderOrder:     c.StringSlice(KeyProvidersOrder),
		DisabledProviders: c.StringSlice(KeyProvidersDisabled),
	}
}

// LogLevel returns the lower-cased log level.
func (c *Config) LogLevel() string {
	return strings.ToLower(c.String(KeyLogLevel))
}

// Subscribe registers an observer for all changes.
func (c *Config) Subscribe(obs notify.Observer) *notify.Subscription {
	return c.notifier.Subscribe(obs)
}

// SubscribePath registers an observer for changes under key.
func (c *Config) SubscribePath(key string, obs notify.Observer) *notify.Subscription {
	return c.notifier.SubscribePath(key, obs)
}

// Watch reloads the configuration whenever the file changes. Reload
// failures are passed to onError and the previous values stay.
func (c *Config) Watch(onError func(error), opts ...watcher.Option) error {
	if c.path == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.watcher != nil {
		return nil
	}

	if onError != nil {
		opts = append(opts, watcher.WithErrorHandler(onError))
	}
	w, err := watcher.New(opts...)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	if err := w.Watch(c.path); err != nil {
		w.Close()
		return fmt.Errorf("watch config %s: %w", c.path, err)
	}
	w.OnChange(func(watcher.Event) {
		if _, err := c.Reload(); err != nil && onError != nil {
			onError(err)
		}
	})
	c.watcher = w
	return nil
}

// Close stops watching the file.
func (c *Config) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.closed = true
	c.mu.Unlock()
	if w != nil {
		return w.Close()
	}
	return nil
}
