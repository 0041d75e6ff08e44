package local

import (
	"context"
	"testing"
	"time"
)

func TestNotifier_BroadcastReachesAllSubscribers(t *testing.T) {
	n := NewNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := n.Subscribe(ctx)
	b := n.Subscribe(ctx)

	n.Broadcast()

	for name, ch := range map[string]<-chan struct{}{"a": a, "b": b} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s did not receive the signal", name)
		}
	}
}

func TestNotifier_BurstsCoalesce(t *testing.T) {
	n := NewNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := n.Subscribe(ctx)

	// A slow subscriber must see at most one pending signal, and
	// broadcasting must never block.
	for i := 0; i < 10; i++ {
		n.Broadcast()
	}

	<-ch
	select {
	case <-ch:
		t.Fatal("burst should collapse into a single pending signal")
	default:
	}
}

func TestNotifier_UnsubscribesOnContextDone(t *testing.T) {
	n := NewNotifier()
	ctx, cancel := context.WithCancel(context.Background())

	ch := n.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			// a signal may have raced the close; the channel must
			// still be closed afterwards
			_, ok = <-ch
			if ok {
				t.Fatal("channel must be closed after unsubscribe")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("channel must be closed after unsubscribe")
	}
}
