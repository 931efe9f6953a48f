package eventlog

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	apperrors "github.com/target/releasegate/internal/errors"
)

// payloadField is the single stream field carrying the serialized event.
const payloadField = "data"

// RedisStreamLog implements Log on Redis Streams. Entries are appended with
// XADD, read through consumer groups with XREADGROUP, acknowledged with
// XACK, and redelivered after the visibility timeout with XAUTOCLAIM.
type RedisStreamLog struct {
	client redis.UniversalClient

	// groups tracks (topic, group) pairs already created so the MKSTREAM
	// round trip happens once per process.
	mu     sync.Mutex
	groups map[string]struct{}
}

// NewRedisStreamLog creates a Redis Streams event log.
func NewRedisStreamLog(client redis.UniversalClient) *RedisStreamLog {
	return &RedisStreamLog{
		client: client,
		groups: make(map[string]struct{}),
	}
}

// Publish appends the payload to the topic and returns the assigned entry id.
func (l *RedisStreamLog) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	id, err := l.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]interface{}{payloadField: payload},
	}).Result()
	if err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "publish to %s", topic)
	}
	return id, nil
}

// ensureGroup creates the consumer group if it does not exist yet. Groups
// are created with the stream, reading from the beginning, so a group that
// joins late still replays the full topic.
func (l *RedisStreamLog) ensureGroup(ctx context.Context, topic, group string) error {
	key := topic + "\x00" + group

	l.mu.Lock()
	_, seen := l.groups[key]
	l.mu.Unlock()
	if seen {
		return nil
	}

	err := l.client.XGroupCreateMkStream(ctx, topic, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "create group %s on %s", group, topic)
	}

	l.mu.Lock()
	l.groups[key] = struct{}{}
	l.mu.Unlock()
	return nil
}

// ReadGroup fetches up to req.Count new entries for the group member,
// blocking up to req.Block when the topic is drained.
func (l *RedisStreamLog) ReadGroup(ctx context.Context, req ReadRequest) ([]Entry, error) {
	if err := l.ensureGroup(ctx, req.Topic, req.Group); err != nil {
		return nil, err
	}

	streams, err := l.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    req.Group,
		Consumer: req.Consumer,
		Streams:  []string{req.Topic, ">"},
		Count:    int64(req.Count),
		Block:    req.Block,
	}).Result()
	if err != nil {
		// redis.Nil means the block timeout expired without entries.
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "read group %s on %s", req.Group, req.Topic)
	}

	var entries []Entry
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			entries = append(entries, entryFromMessage(msg))
		}
	}
	return entries, nil
}

// Ack marks the entry processed for the group.
func (l *RedisStreamLog) Ack(ctx context.Context, topic, group, id string) error {
	if err := l.client.XAck(ctx, topic, group, id).Err(); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "ack %s on %s", id, topic)
	}
	return nil
}

// Reclaim claims entries that have been pending longer than req.MinIdle and
// returns them for reprocessing by the calling consumer.
func (l *RedisStreamLog) Reclaim(ctx context.Context, req ReclaimRequest) ([]Entry, error) {
	if err := l.ensureGroup(ctx, req.Topic, req.Group); err != nil {
		return nil, err
	}

	msgs, _, err := l.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   req.Topic,
		Group:    req.Group,
		Consumer: req.Consumer,
		MinIdle:  req.MinIdle,
		Start:    "0-0",
		Count:    int64(req.Count),
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeUnavailable, "reclaim on %s", req.Topic)
	}

	entries := make([]Entry, 0, len(msgs))
	for _, msg := range msgs {
		entries = append(entries, entryFromMessage(msg))
	}
	return entries, nil
}

func entryFromMessage(msg redis.XMessage) Entry {
	e := Entry{ID: msg.ID}
	if raw, ok := msg.Values[payloadField]; ok {
		if s, ok := raw.(string); ok {
			e.Payload = []byte(s)
		}
	}
	return e
}

var _ Log = (*RedisStreamLog)(nil)
