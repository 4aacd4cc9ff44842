package events

import "github.com/dshills/dropin/internal/event/topic"

// Config event topics.
const (
	// TopicConfigReloaded is published after the configuration file was
	// re-read.
	TopicConfigReloaded topic.Topic = "config.reloaded"
)

// ConfigReloaded is the payload of TopicConfigReloaded.
type ConfigReloaded struct {
	// Path is the file that was reloaded.
	Path string

	// Changed lists the dotted keys whose values changed.
	Changed []string

	// Err is set when the reload failed and the previous values remain.
	Err error
}
