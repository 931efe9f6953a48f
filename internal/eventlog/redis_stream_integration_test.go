package eventlog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/releasegate/internal/testutil"
)

func testTopic() string {
	return fmt.Sprintf("it-topic-%s", uuid.NewString())
}

func TestRedisStreamLogPublishReadAck(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer testutil.TeardownTestRedis(t, client)

	log := NewRedisStreamLog(client)
	ctx := context.Background()
	topic := testTopic()

	id1, err := log.Publish(ctx, topic, []byte(`{"n":1}`))
	require.NoError(t, err)
	id2, err := log.Publish(ctx, topic, []byte(`{"n":2}`))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	entries, err := log.ReadGroup(ctx, ReadRequest{
		Topic:    topic,
		Group:    "g1",
		Consumer: "c1",
		Count:    10,
		Block:    100 * time.Millisecond,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, id1, entries[0].ID)
	assert.JSONEq(t, `{"n":1}`, string(entries[0].Payload))

	for _, e := range entries {
		require.NoError(t, log.Ack(ctx, topic, "g1", e.ID))
	}

	// Everything acknowledged, nothing left to reclaim.
	reclaimed, err := log.Reclaim(ctx, ReclaimRequest{
		Topic:    topic,
		Group:    "g1",
		Consumer: "c2",
		MinIdle:  0,
		Count:    10,
	})
	require.NoError(t, err)
	assert.Empty(t, reclaimed)
}

func TestRedisStreamLogGroupsReadIndependently(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer testutil.TeardownTestRedis(t, client)

	log := NewRedisStreamLog(client)
	ctx := context.Background()
	topic := testTopic()

	_, err := log.Publish(ctx, topic, []byte(`{"n":1}`))
	require.NoError(t, err)

	for _, group := range []string{"tracker", "arbiter"} {
		entries, err := log.ReadGroup(ctx, ReadRequest{
			Topic:    topic,
			Group:    group,
			Consumer: "c1",
			Count:    10,
			Block:    100 * time.Millisecond,
		})
		require.NoError(t, err)
		assert.Len(t, entries, 1, "group %s should see the full stream", group)
	}
}

func TestRedisStreamLogReclaimRedeliversUnacked(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer testutil.TeardownTestRedis(t, client)

	log := NewRedisStreamLog(client)
	ctx := context.Background()
	topic := testTopic()

	id, err := log.Publish(ctx, topic, []byte(`{"n":1}`))
	require.NoError(t, err)

	// A consumer reads the entry and dies before acking.
	entries, err := log.ReadGroup(ctx, ReadRequest{
		Topic:    topic,
		Group:    "g1",
		Consumer: "dead",
		Count:    10,
		Block:    100 * time.Millisecond,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	reclaimed, err := log.Reclaim(ctx, ReclaimRequest{
		Topic:    topic,
		Group:    "g1",
		Consumer: "survivor",
		MinIdle:  0,
		Count:    10,
	})
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, id, reclaimed[0].ID)
	assert.JSONEq(t, `{"n":1}`, string(reclaimed[0].Payload))

	require.NoError(t, log.Ack(ctx, topic, "g1", id))

	reclaimed, err = log.Reclaim(ctx, ReclaimRequest{
		Topic:    topic,
		Group:    "g1",
		Consumer: "survivor",
		MinIdle:  0,
		Count:    10,
	})
	require.NoError(t, err)
	assert.Empty(t, reclaimed)
}
