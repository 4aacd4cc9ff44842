package events

import "github.com/dshills/dropin/internal/event/topic"

// Drop event topics.
const (
	// TopicDropStarted is published when a drop operation begins.
	TopicDropStarted topic.Topic = "drop.started"

	// TopicDropResolved is published after providers returned candidates.
	TopicDropResolved topic.Topic = "drop.resolved"

	// TopicDropApplied is published after a candidate edit was applied.
	TopicDropApplied topic.Topic = "drop.applied"

	// TopicDropCanceled is published when an operation was canceled.
	TopicDropCanceled topic.Topic = "drop.canceled"

	// TopicDropFailed is published when a provider or the apply failed.
	TopicDropFailed topic.Topic = "drop.failed"
)

// DropStarted is the payload of TopicDropStarted.
type DropStarted struct {
	OperationID uint64
	URI         string
	Offset      int64
	MimeTypes   []string
}

// DropResolved is the payload of TopicDropResolved.
type DropResolved struct {
	OperationID uint64
	Providers   []string
	Candidates  int
}

// DropApplied is the payload of TopicDropApplied.
type DropApplied struct {
	OperationID uint64
	URI         string
	ProviderID  string
	Label       string
	Index       int
	Candidates  int
	TxID        string
}

// DropCanceled is the payload of TopicDropCanceled.
type DropCanceled struct {
	OperationID uint64
	Reason      string
}

// DropFailed is the payload of TopicDropFailed.
type DropFailed struct {
	OperationID uint64
	ProviderID  string
	Err         error
}
