// Package events defines the topics and payload types published on the
// event bus.
package events
