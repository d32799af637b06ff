package netwatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeChecker reports a settable connectivity state.
type fakeChecker struct {
	mu     sync.Mutex
	online bool
}

func (c *fakeChecker) set(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = online
}

func (c *fakeChecker) Online(context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func TestSetOnlineNotifiesOnEdgesOnly(t *testing.T) {
	w := NewWatcher(&fakeChecker{}, time.Hour)

	var mu sync.Mutex
	var transitions []bool
	w.Subscribe(func(online bool) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, online)
	})

	// Starts online; same state again is not a transition
	w.SetOnline(true)
	w.SetOnline(false)
	w.SetOnline(false)
	w.SetOnline(true)

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 2 {
		t.Fatalf("Expected 2 transitions, got %d: %v", len(transitions), transitions)
	}
	if transitions[0] != false || transitions[1] != true {
		t.Errorf("Expected [false true], got %v", transitions)
	}
}

func TestOnlineReflectsLastState(t *testing.T) {
	w := NewWatcher(&fakeChecker{}, time.Hour)

	if !w.Online() {
		t.Error("Watcher should assume online initially")
	}

	w.SetOnline(false)
	if w.Online() {
		t.Error("Online should report false after going offline")
	}
}

func TestStartPollsImmediately(t *testing.T) {
	checker := &fakeChecker{online: false}
	w := NewWatcher(checker, time.Hour)

	offline := make(chan struct{})
	w.Subscribe(func(online bool) {
		if !online {
			close(offline)
		}
	})

	w.Start(context.Background())
	defer w.Stop()

	select {
	case <-offline:
	case <-time.After(2 * time.Second):
		t.Fatal("First probe should run immediately, not after one interval")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	w := NewWatcher(&fakeChecker{online: true}, 10*time.Millisecond)

	ctx := context.Background()
	w.Start(ctx)
	w.Start(ctx) // no-op
	w.Stop()
	w.Stop() // no-op
}

func TestPollLoopDetectsRecovery(t *testing.T) {
	checker := &fakeChecker{online: false}
	w := NewWatcher(checker, 10*time.Millisecond)

	recovered := make(chan struct{})
	var once sync.Once
	w.Subscribe(func(online bool) {
		if online {
			once.Do(func() { close(recovered) })
		}
	})

	w.Start(context.Background())
	defer w.Stop()

	// Wait for the initial offline observation, then recover
	time.Sleep(30 * time.Millisecond)
	checker.set(true)

	select {
	case <-recovered:
	case <-time.After(2 * time.Second):
		t.Fatal("Poll loop should observe the recovery")
	}
}

func TestHTTPChecker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Expected HEAD probe, got %s", r.Method)
		}
		// Even an error status means the network is up
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	checker := NewHTTPChecker(server.URL, time.Second)
	if !checker.Online(context.Background()) {
		t.Error("Any HTTP response should count as online")
	}

	server.Close()
	if checker.Online(context.Background()) {
		t.Error("Transport error should count as offline")
	}
}
