// Package events is a channel-based pub-sub bus carrying scheduler
// lifecycle notifications: node spawns and completions from the workflow
// layer, and queue counter snapshots for monitoring.
package events

import "time"

// Event is the base interface for all events.
type Event interface {
	EventType() string
	Subject() string
}

// Topic constants
const (
	TopicNode  = "node"
	TopicQueue = "queue"
)

// Event type constants
const (
	EventTypeNodeSpawned   = "node.spawned"
	EventTypeNodeCompleted = "node.completed"
	EventTypeNodeRespawned = "node.respawned"
	EventTypeQueueProgress = "queue.progress"
)

// NodeSpawnedEvent is published when a workflow node is admitted to the
// scheduler.
type NodeSpawnedEvent struct {
	ID        string
	Deps      []string
	Timestamp time.Time
}

func (e NodeSpawnedEvent) EventType() string { return EventTypeNodeSpawned }
func (e NodeSpawnedEvent) Subject() string   { return e.ID }

// NodeCompletedEvent is published when a workflow node's task completes.
type NodeCompletedEvent struct {
	ID        string
	Result    any
	Timestamp time.Time
}

func (e NodeCompletedEvent) EventType() string { return EventTypeNodeCompleted }
func (e NodeCompletedEvent) Subject() string   { return e.ID }

// NodeRespawnedEvent is published when a node's task requeues itself.
type NodeRespawnedEvent struct {
	ID        string
	Timestamp time.Time
}

func (e NodeRespawnedEvent) EventType() string { return EventTypeNodeRespawned }
func (e NodeRespawnedEvent) Subject() string   { return e.ID }

// QueueProgressEvent is a snapshot of the scheduler allocation counters.
type QueueProgressEvent struct {
	CountAlloc int
	MaxAlloc   int
	AccumAlloc int64
	Timestamp  time.Time
}

func (e QueueProgressEvent) EventType() string { return EventTypeQueueProgress }
func (e QueueProgressEvent) Subject() string   { return "" }
