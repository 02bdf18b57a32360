package snapshot

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/powerinfo/powerinfo/pkg/registry"
)

// blockingRegistry parks battery queries until released, so a build can be
// held in flight deterministically.
type blockingRegistry struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once

	batteryQueries atomic.Int32
}

func (b *blockingRegistry) Query(service string) (registry.PropertySet, error) {
	if service == registry.ServiceSmartBattery {
		b.batteryQueries.Add(1)
		b.once.Do(func() { close(b.entered) })
		<-b.release
	}
	return nil, nil
}

func (b *blockingRegistry) QueryAll(service string) ([]registry.PropertySet, error) {
	return nil, nil
}

func TestRefreshCoalescing(t *testing.T) {
	reg := &blockingRegistry{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := NewRefresher(&Builder{Registry: reg}, false)

	ran := make(chan bool, 1)
	go func() { ran <- r.Refresh() }()
	<-reg.entered

	// A second request while the first build is in flight is dropped.
	if r.Refresh() {
		t.Error("concurrent refresh should coalesce, not run a second build")
	}

	close(reg.release)
	if !<-ran {
		t.Error("the in-flight refresh should report that it ran")
	}
	if got := reg.batteryQueries.Load(); got != 1 {
		t.Errorf("battery queried %d times, want 1", got)
	}

	// With the first build done, refreshing works again.
	if !r.Refresh() {
		t.Error("refresh after completion should run")
	}
	if got := reg.batteryQueries.Load(); got != 2 {
		t.Errorf("battery queried %d times, want 2", got)
	}
}

func TestRefresherLatest(t *testing.T) {
	reg := &fakeRegistry{services: map[string]registry.PropertySet{
		registry.ServiceSmartBattery: chargedPackProps(),
	}}
	r := NewRefresher(&Builder{Registry: reg}, false)

	if r.Latest() != nil {
		t.Error("Latest() before any build should be nil")
	}
	if !r.Refresh() {
		t.Fatal("refresh should run")
	}
	snap := r.Latest()
	if snap == nil {
		t.Fatal("Latest() after a build should be set")
	}
	if snap.Battery.Derived.Percent != 74 {
		t.Errorf("Percent = %d, want 74", snap.Battery.Derived.Percent)
	}
}

func TestRefresherSubscribe(t *testing.T) {
	reg := &fakeRegistry{services: map[string]registry.PropertySet{
		registry.ServiceSmartBattery: chargedPackProps(),
	}}
	r := NewRefresher(&Builder{Registry: reg}, false)

	ch := r.Subscribe()
	r.Refresh()

	select {
	case snap := <-ch:
		if snap == nil {
			t.Error("subscriber received nil snapshot")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never notified")
	}

	r.Unsubscribe(ch)
	if _, open := <-ch; open {
		t.Error("unsubscribed channel should be closed")
	}

	// Unsubscribing twice is harmless.
	r.Unsubscribe(ch)
}

func TestRefresherSlowSubscriberDropped(t *testing.T) {
	reg := &fakeRegistry{services: map[string]registry.PropertySet{
		registry.ServiceSmartBattery: chargedPackProps(),
	}}
	r := NewRefresher(&Builder{Registry: reg}, false)

	ch := r.Subscribe()
	// Fill the buffer and never drain: further notifications must not block.
	r.Refresh()
	done := make(chan struct{})
	go func() {
		r.Refresh()
		r.Refresh()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notify blocked on a slow subscriber")
	}
	r.Unsubscribe(ch)
}
