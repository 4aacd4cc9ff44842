package event

// BusOption configures a Bus.
type BusOption func(*busConfig)

type busConfig struct {
	queueSize    int
	panicHandler PanicHandler
	errorHandler ErrorHandler
}

// PanicHandler is called with a recovered handler panic.
type PanicHandler func(ev Event, err *PanicError)

// ErrorHandler is called when a handler returns an error.
type ErrorHandler func(ev Event, err error)

func defaultBusConfig() busConfig {
	return busConfig{queueSize: 256}
}

// WithAsyncQueueSize sets the async event queue size.
func WithAsyncQueueSize(size int) BusOption {
	return func(c *busConfig) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithPanicHandler sets the handler for recovered panics.
func WithPanicHandler(h PanicHandler) BusOption {
	return func(c *busConfig) {
		c.panicHandler = h
	}
}

// WithErrorHandler sets the handler for handler errors.
func WithErrorHandler(h ErrorHandler) BusOption {
	return func(c *busConfig) {
		c.errorHandler = h
	}
}
