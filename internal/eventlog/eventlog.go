// Package eventlog provides the durable, replayable transport between the
// releasegate producers and consumer groups.
//
// Topics are independently ordered append-only logs. Each consumer group
// sees the full entry stream; members of one group partition work between
// them. Delivery is at-least-once: an entry that is read but never
// acknowledged becomes eligible for redelivery to another group member once
// its visibility timeout elapses, which is the system's retry mechanism for
// crashed consumers.
package eventlog

import (
	"context"
	"time"
)

// Entry is one record read from a topic.
type Entry struct {
	// ID is the topic-local, monotonically increasing id assigned at append time.
	ID string
	// Payload is the serialized event.
	Payload []byte
}

// ReadRequest groups the parameters of a consumer-group read.
type ReadRequest struct {
	Topic    string
	Group    string
	Consumer string
	// Count is the maximum number of entries returned.
	Count int
	// Block is how long to wait when no entries are available. A zero
	// Block returns immediately.
	Block time.Duration
}

// ReclaimRequest groups the parameters of an idle-entry reclaim.
type ReclaimRequest struct {
	Topic    string
	Group    string
	Consumer string
	// MinIdle is the visibility timeout: entries delivered but not
	// acknowledged for at least this long are redelivered to the caller.
	MinIdle time.Duration
	Count   int
}

// Log is the event log abstraction. Publish either appends the entry exactly
// once or fails; downstream delivery is at-least-once. Implementations map
// transport failures to an Unavailable application error so callers can
// retry with backoff instead of losing events.
type Log interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
	// ReadGroup returns up to Count unacknowledged entries assigned to the
	// calling group member, oldest first. An empty slice means the block
	// timeout expired with nothing to deliver.
	ReadGroup(ctx context.Context, req ReadRequest) ([]Entry, error)
	// Ack marks the entry processed for the group. Unacknowledged entries
	// are eventually redelivered via Reclaim.
	Ack(ctx context.Context, topic, group, id string) error
	// Reclaim transfers entries idle past the visibility timeout to the
	// calling consumer and returns them for reprocessing.
	Reclaim(ctx context.Context, req ReclaimRequest) ([]Entry, error)
}
