package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dshills/dropin/internal/event/topic"
)

// Stats reports bus counters.
type Stats struct {
	Published     uint64
	Delivered     uint64
	Dropped       uint64
	HandlerErrors uint64
	HandlerPanics uint64
}

type queued struct {
	ctx context.Context
	ev  Event
}

// Bus is the event bus.
type Bus struct {
	config busConfig

	mu     sync.RWMutex
	subs   []*Subscription
	nextID uint64

	running atomic.Bool
	queue   chan queued
	done    chan struct{}

	published     atomic.Uint64
	delivered     atomic.Uint64
	dropped       atomic.Uint64
	handlerErrors atomic.Uint64
	handlerPanics atomic.Uint64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Bus{config: config}
}

// Start starts the async worker.
func (b *Bus) Start() error {
	if b.running.Swap(true) {
		return ErrBusAlreadyRunning
	}
	b.queue = make(chan queued, b.config.queueSize)
	b.done = make(chan struct{})
	go b.worker(b.queue, b.done)
	return nil
}

// Stop drains queued events and stops the worker, or gives up when ctx
// is done.
func (b *Bus) Stop(ctx context.Context) error {
	if !b.running.Swap(false) {
		return ErrBusNotRunning
	}
	b.mu.Lock()
	close(b.queue)
	b.mu.Unlock()

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning returns true if the bus is running.
func (b *Bus) IsRunning() bool {
	return b.running.Load()
}

// Subscribe registers a handler for a topic pattern.
func (b *Bus) Subscribe(pattern topic.Topic, h Handler) (*Subscription, error) {
	if !pattern.IsValid() {
		return nil, ErrInvalidTopic
	}
	if h == nil {
		return nil, ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{id: b.nextID, pattern: pattern, handler: h}
	b.subs = append(b.subs, sub)
	return sub, nil
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Publish delivers ev synchronously to every matching subscriber in
// subscription order.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if !ev.Topic.IsValid() || ev.Topic.IsPattern() {
		return ErrInvalidTopic
	}
	b.published.Add(1)
	b.deliver(ctx, ev)
	return nil
}

// PublishAsync queues ev for the background worker.
func (b *Bus) PublishAsync(ctx context.Context, ev Event) error {
	if !ev.Topic.IsValid() || ev.Topic.IsPattern() {
		return ErrInvalidTopic
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running.Load() {
		return ErrBusNotRunning
	}
	select {
	case b.queue <- queued{ctx: ctx, ev: ev}:
		b.published.Add(1)
		return nil
	default:
		b.dropped.Add(1)
		return ErrQueueFull
	}
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		Dropped:       b.dropped.Load(),
		HandlerErrors: b.handlerErrors.Load(),
		HandlerPanics: b.handlerPanics.Load(),
	}
}

func (b *Bus) worker(queue <-chan queued, done chan<- struct{}) {
	defer close(done)
	for q := range queue {
		b.deliver(q.ctx, q.ev)
	}
}

func (b *Bus) deliver(ctx context.Context, ev Event) {
	b.mu.RLock()
	var matched []*Subscription
	for _, s := range b.subs {
		if ev.Topic.Matches(s.pattern) {
			matched = append(matched, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range matched {
		if err := b.call(ctx, s, ev); err != nil {
			b.handlerErrors.Add(1)
			if b.config.errorHandler != nil {
				b.config.errorHandler(ev, err)
			}
			continue
		}
		b.delivered.Add(1)
	}
}

func (b *Bus) call(ctx context.Context, s *Subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			pe := &PanicError{Topic: string(ev.Topic), Value: r}
			if b.config.panicHandler != nil {
				b.config.panicHandler(ev, pe)
			}
			err = pe
		}
	}()
	return s.handler(ctx, ev)
}
