// Package event provides the editor's publish/subscribe bus.
//
// Events carry a hierarchical topic such as "drop.applied" and an
// arbitrary payload. Subscribers register a topic pattern that may use
// the wildcards "*" (one segment) and "**" (any number of segments):
//
//	bus := event.NewBus()
//	bus.Start()
//	defer bus.Stop(ctx)
//
//	sub, _ := bus.Subscribe("drop.*", func(ctx context.Context, ev event.Event) error {
//		log.Println(ev.Topic, ev.Payload)
//		return nil
//	})
//	defer bus.Unsubscribe(sub)
//
//	bus.Publish(ctx, event.NewEvent(events.TopicDropApplied, payload, "drop"))
//
// Publish delivers synchronously on the caller's goroutine. PublishAsync
// queues the event for a background worker and never blocks; it returns
// ErrQueueFull when the queue is saturated. Handler panics are recovered
// and reported to the bus panic handler.
package event
