package eventlog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryLog is an in-process Log with the same consumer-group semantics as
// the Redis Streams implementation: per-group full stream, intra-group work
// partitioning, and visibility-timeout redelivery through Reclaim. It backs
// tests and single-process development runs.
type MemoryLog struct {
	mu     sync.Mutex
	topics map[string]*memTopic
}

type memTopic struct {
	seq     int
	entries []Entry
	groups  map[string]*memGroup
}

type memGroup struct {
	// cursor indexes the next entry not yet delivered to any member.
	cursor  int
	pending map[string]*memPending
}

type memPending struct {
	seq         int
	entry       Entry
	consumer    string
	deliveredAt time.Time
}

// NewMemoryLog creates an empty in-memory event log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{topics: make(map[string]*memTopic)}
}

func (l *MemoryLog) topic(name string) *memTopic {
	t, ok := l.topics[name]
	if !ok {
		t = &memTopic{groups: make(map[string]*memGroup)}
		l.topics[name] = t
	}
	return t
}

func (t *memTopic) group(name string) *memGroup {
	g, ok := t.groups[name]
	if !ok {
		g = &memGroup{pending: make(map[string]*memPending)}
		t.groups[name] = g
	}
	return g
}

// Publish appends the payload to the topic and returns the assigned id.
func (l *MemoryLog) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.topic(topic)
	t.seq++
	id := fmt.Sprintf("%d-0", t.seq)

	buf := make([]byte, len(payload))
	copy(buf, payload)
	t.entries = append(t.entries, Entry{ID: id, Payload: buf})
	return id, nil
}

// ReadGroup delivers up to req.Count undelivered entries to the calling
// member, polling until the block timeout when the topic is drained.
func (l *MemoryLog) ReadGroup(ctx context.Context, req ReadRequest) ([]Entry, error) {
	deadline := time.Now().Add(req.Block)
	for {
		entries := l.tryRead(req)
		if len(entries) > 0 {
			return entries, nil
		}
		if req.Block <= 0 || time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (l *MemoryLog) tryRead(req ReadRequest) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.topic(req.Topic)
	g := t.group(req.Group)

	var out []Entry
	for g.cursor < len(t.entries) && len(out) < req.Count {
		e := t.entries[g.cursor]
		g.pending[e.ID] = &memPending{
			seq:         g.cursor,
			entry:       e,
			consumer:    req.Consumer,
			deliveredAt: time.Now(),
		}
		out = append(out, e)
		g.cursor++
	}
	return out
}

// Ack marks the entry processed for the group.
func (l *MemoryLog) Ack(_ context.Context, topic, group, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.topic(topic).group(group).pending, id)
	return nil
}

// Reclaim redelivers entries idle past req.MinIdle to the calling consumer.
func (l *MemoryLog) Reclaim(_ context.Context, req ReclaimRequest) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	g := l.topic(req.Topic).group(req.Group)

	var idle []*memPending
	now := time.Now()
	for _, p := range g.pending {
		if now.Sub(p.deliveredAt) >= req.MinIdle {
			idle = append(idle, p)
		}
	}
	sort.Slice(idle, func(i, j int) bool { return idle[i].seq < idle[j].seq })

	if req.Count > 0 && len(idle) > req.Count {
		idle = idle[:req.Count]
	}

	entries := make([]Entry, 0, len(idle))
	for _, p := range idle {
		p.consumer = req.Consumer
		p.deliveredAt = now
		entries = append(entries, p.entry)
	}
	return entries, nil
}

// PendingCount reports unacknowledged entries for a group. Test helper.
func (l *MemoryLog) PendingCount(topic, group string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.topic(topic).group(group).pending)
}

var _ Log = (*MemoryLog)(nil)
