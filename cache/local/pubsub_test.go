package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvOne(t *testing.T, ch <-chan *LocalMessage) *LocalMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestPublishSubscribe(t *testing.T) {
	ps := NewPubSub(16)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "news")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "news", "hello"))
	msg := recvOne(t, ch)
	assert.Equal(t, "news", msg.Channel)
	assert.Equal(t, "hello", msg.Payload)
}

func TestSubscribeMultipleChannels(t *testing.T) {
	ps := NewPubSub(16)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "a", "b")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "a", "1"))
	require.NoError(t, ps.Publish(ctx, "b", "2"))

	got := map[string]string{}
	for i := 0; i < 2; i++ {
		msg := recvOne(t, ch)
		got[msg.Channel] = msg.Payload
	}
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got)
}

func TestFanOut(t *testing.T) {
	ps := NewPubSub(16)
	ctx := context.Background()

	ch1, cancel1, err := ps.Subscribe(ctx, "c")
	require.NoError(t, err)
	defer cancel1()
	ch2, cancel2, err := ps.Subscribe(ctx, "c")
	require.NoError(t, err)
	defer cancel2()

	require.NoError(t, ps.Publish(ctx, "c", "x"))
	assert.Equal(t, "x", recvOne(t, ch1).Payload)
	assert.Equal(t, "x", recvOne(t, ch2).Payload)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ps := NewPubSub(16)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "c")
	require.NoError(t, err)
	cancel()

	require.NoError(t, ps.Publish(ctx, "c", "late"))

	// The channel is closed; nothing more arrives.
	msg, open := <-ch
	assert.False(t, open)
	assert.Nil(t, msg)
}

func TestPublishToNoSubscribers(t *testing.T) {
	ps := NewPubSub(16)
	assert.NoError(t, ps.Publish(context.Background(), "empty", "x"))
}

func TestSlowSubscriberDropsWhenFull(t *testing.T) {
	ps := NewPubSub(1)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "c")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "c", "first"))
	require.NoError(t, ps.Publish(ctx, "c", "dropped"))

	assert.Equal(t, "first", recvOne(t, ch).Payload)
	select {
	case msg := <-ch:
		t.Fatalf("expected no further message, got %q", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}
