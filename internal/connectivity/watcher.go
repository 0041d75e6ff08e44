// Package connectivity derives an online/offline signal from periodic
// reachability probes and fans edge transitions out to subscribers.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/mkaraca/dukkan/internal/logging"
)

// Prober checks whether the remote store is reachable right now.
type Prober interface {
	Ping(ctx context.Context) error
}

// Watcher probes on an interval and publishes transitions. Only edges are
// published: subscribers see true on offline-to-online and false on
// online-to-offline, never repeats of the current state.
type Watcher struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger

	mu     sync.RWMutex
	online bool
	subs   map[int]chan bool
	next   int
}

// NewWatcher builds a watcher that probes every interval. The watcher starts
// offline; the first successful probe publishes the online edge.
func NewWatcher(prober Prober, interval time.Duration, log logging.Logger) *Watcher {
	return &Watcher{
		prober:   prober,
		interval: interval,
		timeout:  3 * time.Second,
		log:      log,
		subs:     make(map[int]chan bool),
	}
}

// IsConnected reports the last observed state.
func (w *Watcher) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.online
}

// Changes registers a subscriber. The channel is closed and removed when ctx
// is done; re-subscribing after that is always valid.
func (w *Watcher) Changes(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)

	w.mu.Lock()
	id := w.next
	w.next++
	w.subs[id] = ch
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		// Close under the same lock that guards edge publication, so a
		// concurrent edge can never send on the closed channel.
		w.mu.Lock()
		delete(w.subs, id)
		close(ch)
		w.mu.Unlock()
	}()

	return ch
}

// Run probes until ctx is done. An immediate probe runs before the first
// tick so startup does not wait a full interval.
func (w *Watcher) Run(ctx context.Context) {
	w.probe(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.probe(ctx)
		}
	}
}

func (w *Watcher) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.prober.Ping(probeCtx)
	cancel()

	w.setOnline(ctx, err == nil)
}

func (w *Watcher) setOnline(ctx context.Context, online bool) {
	w.mu.Lock()
	if w.online == online {
		w.mu.Unlock()
		return
	}
	w.online = online

	// Publish while holding the lock: every send is non-blocking, and the
	// unsubscribe path closes channels under the same lock, so an edge can
	// never race a close.
	for _, ch := range w.subs {
		select {
		case ch <- online:
		default:
			// Slow subscriber with a stale pending edge; drop the old
			// one so it observes the latest state.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- online:
			default:
			}
		}
	}
	w.mu.Unlock()

	if online {
		w.log.Info(ctx, "connectivity restored")
	} else {
		w.log.Info(ctx, "connectivity lost")
	}
}
