package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type change struct {
	Name  string
	Value string
}

var (
	_ Publisher[change]  = (*Broker[change])(nil)
	_ Subscriber[change] = (*Broker[change])(nil)
)

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(200 * time.Millisecond):
		require.Fail(t, "timeout waiting for event")
		return Event[T]{}
	}
}

func TestBroker_Subscribe(t *testing.T) {
	broker := NewBroker[change]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.Publish(UpdatedEvent, change{Name: "cg_fov", Value: "90"}))

	event := receive(t, ch)
	require.Equal(t, UpdatedEvent, event.Type)
	require.Equal(t, change{Name: "cg_fov", Value: "90"}, event.Payload)
	require.False(t, event.Timestamp.IsZero())
}

func TestBroker_FanOut(t *testing.T) {
	broker := NewBroker[change]()
	defer broker.Close()

	ctx := context.Background()
	subs := []<-chan Event[change]{broker.Subscribe(ctx), broker.Subscribe(ctx), broker.Subscribe(ctx)}
	require.Equal(t, 3, broker.SubscriberCount())

	require.Equal(t, 3, broker.Publish(CreatedEvent, change{Name: "r_mode"}))
	for i, ch := range subs {
		event := receive(t, ch)
		require.Equal(t, "r_mode", event.Payload.Name, "subscriber %d", i)
		require.Equal(t, CreatedEvent, event.Type, "subscriber %d", i)
	}
}

func TestBroker_ContextCancellation(t *testing.T) {
	broker := NewBroker[change]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.SubscriberCount())

	cancel()
	require.Eventually(t, func() bool { return broker.SubscriberCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-ch
	require.False(t, ok, "channel should be closed")
}

func TestBroker_FullBufferDrops(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1)
	defer broker.Close()

	ch := broker.Subscribe(context.Background())

	require.Equal(t, 1, broker.Publish(UpdatedEvent, 1))

	done := make(chan struct{})
	go func() {
		broker.Publish(UpdatedEvent, 2)
		broker.Publish(LatchedEvent, 3)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		require.Fail(t, "Publish blocked")
	}

	require.Equal(t, 1, receive(t, ch).Payload)
	require.EqualValues(t, 2, broker.Dropped())
}

func TestBroker_Close(t *testing.T) {
	broker := NewBroker[string]()
	ctx := context.Background()

	ch1 := broker.Subscribe(ctx)
	ch2 := broker.Subscribe(ctx)
	require.Equal(t, 2, broker.SubscriberCount())

	broker.Close()
	broker.Close()

	_, ok1 := <-ch1
	_, ok2 := <-ch2
	require.False(t, ok1)
	require.False(t, ok2)
	require.Equal(t, 0, broker.SubscriberCount())

	ch3 := broker.Subscribe(ctx)
	_, ok3 := <-ch3
	require.False(t, ok3, "subscribe after close returns a closed channel")

	require.Zero(t, broker.Publish(DeletedEvent, "after close"))
}
