package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func nextEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	evt, err := sub.Next(ctx)
	require.NoError(t, err)
	return evt
}

func TestBusLateSubscriberSeesOnlyFutureEvents(t *testing.T) {
	bus := NewBus()

	early, err := bus.Subscribe()
	require.NoError(t, err)

	bus.Publish(System{Text: "before"})

	late, err := bus.Subscribe()
	require.NoError(t, err)

	bus.Publish(System{Text: "after"})

	require.Equal(t, System{Text: "before"}, nextEvent(t, early))
	require.Equal(t, System{Text: "after"}, nextEvent(t, early))

	require.Equal(t, System{Text: "after"}, nextEvent(t, late))
	require.Equal(t, 0, late.Pending())
}

func TestBusDeliversSameOrderToEverySubscriber(t *testing.T) {
	bus := NewBus(WithBacklog(1000))

	subs := make([]*Subscription, 3)
	for i := range subs {
		sub, err := bus.Subscribe()
		require.NoError(t, err)
		subs[i] = sub
	}

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				bus.Publish(Chat{Name: fmt.Sprintf("p%d", p), Text: fmt.Sprint(i)})
			}
		}(p)
	}
	wg.Wait()

	var reference []Event
	for i := 0; i < 200; i++ {
		reference = append(reference, nextEvent(t, subs[0]))
	}

	for _, sub := range subs[1:] {
		for i := 0; i < 200; i++ {
			require.Equal(t, reference[i], nextEvent(t, sub))
		}
	}
}

func TestBusOverflowDropsOldest(t *testing.T) {
	bus := NewBus()
	t.Cleanup(bus.Close)

	stalled, err := bus.Subscribe()
	require.NoError(t, err)
	active, err := bus.Subscribe()
	require.NoError(t, err)

	received := make(chan Event, 1000)
	go func() {
		for {
			evt, err := active.Next(context.Background())
			if err != nil {
				close(received)
				return
			}
			received <- evt
		}
	}()

	for i := 0; i < 250; i++ {
		bus.Publish(System{Text: fmt.Sprint(i)})

		select {
		case evt := <-received:
			require.Equal(t, System{Text: fmt.Sprint(i)}, evt)
		case <-time.After(time.Second):
			t.Fatalf("publisher or active subscriber stalled at event %d", i)
		}
	}

	require.Equal(t, DefaultBacklog, stalled.Pending())
	require.Equal(t, uint64(150), stalled.Dropped())
	require.Equal(t, System{Text: "150"}, nextEvent(t, stalled))
	require.Equal(t, uint64(0), active.Dropped())
}

func TestBusUnsubscribeIsIdempotent(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe()
	require.NoError(t, err)
	require.Equal(t, 1, bus.Subscribers())

	bus.Publish(System{Text: "queued"})
	sub.Close()
	sub.Close()
	bus.Unsubscribe(sub)
	bus.Unsubscribe(nil)

	require.Equal(t, 0, bus.Subscribers())

	_, err = sub.Next(context.Background())
	require.ErrorIs(t, err, ErrSubscriptionClosed)
}

func TestBusNextHonoursContext(t *testing.T) {
	bus := NewBus()
	sub, err := bus.Subscribe()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = sub.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBusCloseDrainsThenEnds(t *testing.T) {
	bus := NewBus()
	sub, err := bus.Subscribe()
	require.NoError(t, err)

	bus.Publish(System{Text: "last"})
	bus.Close()
	bus.Close()
	bus.Publish(System{Text: "discarded"})

	require.Equal(t, System{Text: "last"}, nextEvent(t, sub))

	_, err = sub.Next(context.Background())
	require.ErrorIs(t, err, ErrSubscriptionClosed)

	_, err = bus.Subscribe()
	require.ErrorIs(t, err, ErrBusClosed)
}

func TestBusNextWakesOnPublish(t *testing.T) {
	bus := NewBus()
	sub, err := bus.Subscribe()
	require.NoError(t, err)

	got := make(chan Event, 1)
	go func() {
		evt, err := sub.Next(context.Background())
		if err == nil {
			got <- evt
		}
	}()

	time.Sleep(10 * time.Millisecond)
	bus.Publish(Chat{Name: "bob", Text: "hi"})

	select {
	case evt := <-got:
		require.Equal(t, Chat{Name: "bob", Text: "hi"}, evt)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for wake-up")
	}
}
