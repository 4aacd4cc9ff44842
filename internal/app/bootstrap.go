package app

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/dropin/internal/config"
	"github.com/dshills/dropin/internal/dataxfer"
	"github.com/dshills/dropin/internal/drop"
	"github.com/dshills/dropin/internal/drop/builtin"
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/event"
	"github.com/dshills/dropin/internal/widget"
	"github.com/dshills/dropin/internal/workspace"
)

const defaultShutdownTimeout = 5 * time.Second

// bootstrapper starts the components of an App in dependency order and
// stops the started ones again on failure.
type bootstrapper struct {
	app       *App
	initOrder []string
}

func newBootstrapper(app *App) *bootstrapper {
	return &bootstrapper{app: app, initOrder: make([]string, 0, 8)}
}

// bootstrap initializes all components in dependency order.
func (b *bootstrapper) bootstrap() error {
	steps := []func() error{
		b.initEventBus,
		b.initConfig,
		b.initDocument,
		b.initProviders,
		b.initPlugins,
		b.initController,
		b.initSubscriptions,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// initEventBus starts the event bus.
func (b *bootstrapper) initEventBus() error {
	b.app.bus = event.NewBus()
	if err := b.app.bus.Start(); err != nil {
		return &InitError{Component: "event bus", Err: err}
	}
	b.initOrder = append(b.initOrder, "eventBus")
	return nil
}

// initConfig loads the settings and creates the logger they describe.
// A broken settings file is reported and the defaults are used.
func (b *bootstrapper) initConfig() error {
	a := b.app
	opts := []config.Option{config.WithPath(a.opts.ConfigPath)}
	a.cfg = config.New(append(opts, a.opts.ConfigOptions...)...)
	loadErr := a.cfg.Load()
	b.initOrder = append(b.initOrder, "config")

	if a.opts.PluginsDir != "" {
		if err := a.cfg.Set(config.KeyPluginsDir, a.opts.PluginsDir); err != nil {
			return &InitError{Component: "config", Err: err}
		}
	}

	out := a.opts.LogOutput
	if out == nil {
		if path := a.cfg.String(config.KeyLogFile); path != "" {
			f, err := OpenLogFile(path)
			if err != nil {
				return &InitError{Component: "logger", Err: err}
			}
			a.logFile = f
			out = f
		}
	}
	if out == nil {
		out = a.opts.FallbackLogOutput
	}
	cfg := DefaultLoggerConfig()
	cfg.Level = ParseLogLevel(a.cfg.LogLevel())
	if out != nil {
		cfg.Output = out
	}
	a.log = NewLogger(cfg)
	b.initOrder = append(b.initOrder, "logger")

	if loadErr != nil {
		a.log.Warn("load config, using defaults: %v", loadErr)
	}
	return nil
}

// initDocument opens the file into a fresh workspace.
func (b *bootstrapper) initDocument() error {
	a := b.app
	a.ws = workspace.New()
	doc, err := a.ws.OpenFile(a.opts.File)
	if err != nil {
		return &InitError{Component: "workspace", Err: err}
	}
	a.doc = doc
	a.editor = workspace.NewBulkEditor(a.ws)
	a.surface = newSurface(doc)
	a.unwatchDoc = doc.Engine.OnChange(func(engine.Change) { a.changed() })
	b.initOrder = append(b.initOrder, "document")
	a.log.Debug("opened %s", doc.URI)
	return nil
}

// initProviders registers the built-in providers.
func (b *bootstrapper) initProviders() error {
	a := b.app
	a.registry = drop.NewRegistry()
	builtin.Register(a.registry)
	a.progress = widget.NewProgress(widget.WithProgressChange(a.changed))
	a.picker = widget.NewPicker(a.changed)
	a.applySettings()
	return nil
}

// initPlugins loads the Lua providers. Scripts that fail to load are
// logged and skipped.
func (b *bootstrapper) initPlugins() error {
	if err := b.app.reloadPlugins(); err != nil {
		b.app.log.Warn("plugins: %v", err)
	}
	b.initOrder = append(b.initOrder, "plugins")
	return nil
}

// initController creates the drop controller for the surface.
func (b *bootstrapper) initController() error {
	a := b.app
	a.controller = drop.NewController(drop.Config{
		Surface:   a.surface,
		Providers: a.registry,
		Editor:    a.editor,
		Progress:  a.progress,
		Picker:    a.picker,
		Settings:  a.dropSettings,
		Enrichers: []dataxfer.Enricher{dataxfer.EditorResourceEnricher{}},
		Publisher: a.bus,
		Logger:    a.log.WithComponent("drop"),
	})
	b.initOrder = append(b.initOrder, "controller")
	return nil
}

// initSubscriptions wires configuration changes and drop events.
func (b *bootstrapper) initSubscriptions() error {
	a := b.app
	a.cfgSub = a.cfg.Subscribe(a.onConfigChange)
	b.initOrder = append(b.initOrder, "subscriptions")

	sub, err := a.bus.Subscribe("drop.**", a.logDropEvent)
	if err != nil {
		return &InitError{Component: "subscriptions", Err: err}
	}
	a.dropSub = sub

	if a.opts.WatchConfig {
		if err := a.cfg.Watch(a.onConfigError); err != nil {
			a.log.Warn("watch config: %v", err)
		}
	}
	return nil
}

// cleanup stops the started components in reverse order.
func (b *bootstrapper) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	_ = b.stop(ctx, b.initOrder)
}

// shutdown stops every component of a running App.
func (b *bootstrapper) shutdown(ctx context.Context) error {
	return b.stop(ctx, []string{"logger", "eventBus", "config", "document", "plugins", "controller", "subscriptions"})
}

func (b *bootstrapper) stop(ctx context.Context, order []string) error {
	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		if err := b.stopComponent(ctx, order[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *bootstrapper) stopComponent(ctx context.Context, component string) error {
	a := b.app
	switch component {
	case "subscriptions":
		a.cfgSub.Unsubscribe()
		if a.dropSub != nil {
			_ = a.bus.Unsubscribe(a.dropSub)
		}
	case "controller":
		if a.controller != nil {
			a.controller.Close()
		}
	case "plugins":
		a.mu.Lock()
		a.closed = true
		host, unreg := a.host, a.unregPlugins
		a.host, a.unregPlugins = nil, nil
		a.mu.Unlock()
		if unreg != nil {
			unreg()
		}
		if host != nil {
			return host.Close()
		}
	case "document":
		if a.unwatchDoc != nil {
			a.unwatchDoc()
		}
		if a.ws != nil && a.doc != nil {
			return a.ws.Close(a.doc.URI)
		}
	case "logger":
		if a.logFile != nil {
			return a.logFile.Close()
		}
	case "config":
		if a.cfg != nil {
			return a.cfg.Close()
		}
	case "eventBus":
		if a.bus != nil {
			return a.bus.Stop(ctx)
		}
	}
	return nil
}
