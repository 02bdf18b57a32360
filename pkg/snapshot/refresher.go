package snapshot

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/powerinfo/powerinfo/pkg/types"
)

// Refresher serializes snapshot builds. At most one build runs at a time;
// refresh requests arriving mid-build are coalesced, not queued. The latest
// snapshot is published atomically and is immutable once visible.
type Refresher struct {
	builder    *Builder
	privileged bool

	building atomic.Bool
	latest   atomic.Pointer[types.BatterySnapshot]

	mu   sync.RWMutex
	subs map[chan *types.BatterySnapshot]struct{}
}

// NewRefresher wraps a Builder. privileged decides once whether the
// privileged sampler path is attempted at all.
func NewRefresher(builder *Builder, privileged bool) *Refresher {
	return &Refresher{
		builder:    builder,
		privileged: privileged,
		subs:       make(map[chan *types.BatterySnapshot]struct{}),
	}
}

// Latest returns the most recently published snapshot, or nil before the
// first successful build. The returned value must not be mutated.
func (r *Refresher) Latest() *types.BatterySnapshot {
	return r.latest.Load()
}

// Refresh runs one build unless a build is already in flight, in which case
// the request is dropped. Returns whether a build actually ran.
func (r *Refresher) Refresh() bool {
	if !r.building.CompareAndSwap(false, true) {
		logrus.Debug("refresh coalesced, build already in flight")
		return false
	}
	defer r.building.Store(false)

	snap, err := r.builder.Build(r.privileged)
	if err != nil {
		logrus.WithError(err).Error("snapshot build failed")
		return true
	}

	r.latest.Store(snap)
	r.notify(snap)
	return true
}

// Subscribe returns a channel receiving each newly published snapshot.
func (r *Refresher) Subscribe() chan *types.BatterySnapshot {
	ch := make(chan *types.BatterySnapshot, 1)
	r.mu.Lock()
	r.subs[ch] = struct{}{}
	r.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes the channel.
func (r *Refresher) Unsubscribe(ch chan *types.BatterySnapshot) {
	r.mu.Lock()
	if _, ok := r.subs[ch]; ok {
		delete(r.subs, ch)
		close(ch)
	}
	r.mu.Unlock()
}

func (r *Refresher) notify(snap *types.BatterySnapshot) {
	r.mu.RLock()
	for ch := range r.subs {
		// Non-blocking send; drop if subscriber is slow
		select {
		case ch <- snap:
		default:
		}
	}
	r.mu.RUnlock()
}
