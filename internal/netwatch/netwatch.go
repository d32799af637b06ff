// Package netwatch provides connectivity observation for the sync layer.
// A Watcher polls a Checker and notifies subscribers on state transitions
// (edges, not levels), so a drain is triggered once per reconnect.
package netwatch

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/kimhsiao/merchsync/internal/logging"
)

// DefaultInterval is how often connectivity is probed.
const DefaultInterval = 15 * time.Second

// Checker reports whether connectivity is currently available.
type Checker interface {
	Online(ctx context.Context) bool
}

// HTTPChecker probes a URL with a HEAD request. Any HTTP response counts
// as online; only transport errors count as offline.
type HTTPChecker struct {
	url    string
	client *http.Client
}

// NewHTTPChecker creates a checker probing probeURL.
func NewHTTPChecker(probeURL string, timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPChecker{
		url:    probeURL,
		client: &http.Client{Timeout: timeout},
	}
}

// Online implements Checker.
func (c *HTTPChecker) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Subscriber is invoked with the new state on every connectivity change.
type Subscriber func(online bool)

// Watcher polls a Checker and fans out state transitions.
type Watcher struct {
	checker  Checker
	interval time.Duration

	mu        sync.RWMutex
	online    bool
	subs      []Subscriber
	isRunning bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWatcher creates a Watcher. The device is assumed online until the
// first probe says otherwise.
func NewWatcher(checker Checker, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		checker:  checker,
		interval: interval,
		online:   true,
		stopCh:   make(chan struct{}),
	}
}

// Online returns the last observed connectivity state.
func (w *Watcher) Online() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.online
}

// Subscribe registers a callback invoked on every state transition.
// Subscriptions cannot be removed individually; stop the watcher instead.
func (w *Watcher) Subscribe(fn Subscriber) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subs = append(w.subs, fn)
}

// Start begins the polling loop. Calling Start on a running watcher is a
// no-op.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.pollLoop(ctx)

	logging.Info("Network watcher started",
		map[string]interface{}{"interval_seconds": w.interval.Seconds()})
}

// Stop stops the polling loop and waits for it to finish. Idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.mu.Unlock()

	close(w.stopCh)
	w.wg.Wait()

	logging.Info("Network watcher stopped", nil)
}

// SetOnline records a new connectivity state and notifies subscribers if
// it changed. Exposed so embedders with a platform network signal can
// feed it directly instead of relying on the probe.
func (w *Watcher) SetOnline(online bool) {
	w.mu.Lock()
	if w.online == online {
		w.mu.Unlock()
		return
	}
	w.online = online
	subs := make([]Subscriber, len(w.subs))
	copy(subs, w.subs)
	w.mu.Unlock()

	logging.Info("Connectivity changed", map[string]interface{}{"online": online})

	for _, fn := range subs {
		fn(online)
	}
}

// pollLoop probes connectivity until stopped.
func (w *Watcher) pollLoop(ctx context.Context) {
	defer w.wg.Done()

	// Probe once immediately so the first tick isn't a full interval away
	w.SetOnline(w.checker.Online(ctx))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.SetOnline(w.checker.Online(ctx))
		}
	}
}
