// Package syncer drives reconciliation of queued offline mutations
// against the backend once connectivity returns.
package syncer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kimhsiao/merchsync/internal/db"
	"github.com/kimhsiao/merchsync/internal/errors"
	"github.com/kimhsiao/merchsync/internal/logging"
	"github.com/kimhsiao/merchsync/internal/models"
	"github.com/kimhsiao/merchsync/internal/netwatch"
	"github.com/kimhsiao/merchsync/internal/queue"
	"github.com/kimhsiao/merchsync/internal/telemetry"
)

// KV is the persistent key-value capability used for the confirmed-ID
// record that survives a crash mid-drain.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// EventSink receives drain lifecycle events, e.g. for WebSocket
// broadcasting. All methods may be called from the drain goroutine.
type EventSink interface {
	SyncStarted(pending int)
	SyncCompleted(successful, failed int, duration time.Duration)
	ActionConfirmed(action models.OfflineAction)
	ActionDropped(action models.OfflineAction, lastErr string)
}

// Result reports the outcome of a single drain pass. Counts are per-pass,
// not cumulative.
type Result struct {
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// confirmedRecord is the versioned persistence envelope for IDs of
// actions whose replay succeeded but whose queue rewrite may not have
// landed yet.
type confirmedRecord struct {
	SchemaVersion int      `json:"schema_version"`
	IDs           []string `json:"ids"`
}

// Coordinator drains the action queue against the backend, applying the
// per-action retry policy. A single drain runs at a time; re-entrant
// calls return a zero Result without touching the queue.
type Coordinator struct {
	queue    *queue.Queue
	replayer Replayer
	kv       KV
	watcher  *netwatch.Watcher
	sink     EventSink

	mu         sync.Mutex
	draining   bool
	started    bool
	lastSyncAt time.Time
	lastResult Result
}

// NewCoordinator creates a Coordinator. The watcher is injected rather
// than subscribed to at construction; nothing happens until Start. sink
// may be nil.
func NewCoordinator(q *queue.Queue, replayer Replayer, kv KV, watcher *netwatch.Watcher, sink EventSink) *Coordinator {
	return &Coordinator{
		queue:    q,
		replayer: replayer,
		kv:       kv,
		watcher:  watcher,
		sink:     sink,
	}
}

// Start subscribes to the offline-to-online edge and triggers a drain on
// each reconnect. Idempotent.
func (c *Coordinator) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	if c.watcher != nil {
		c.watcher.Subscribe(func(online bool) {
			if !online || !c.isStarted() {
				return
			}
			go c.SyncOfflineActions(context.Background())
		})
	}

	logging.Info("Sync coordinator started", nil)
}

// Stop detaches the coordinator from connectivity events. A drain in
// progress runs to completion. Idempotent.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	c.started = false
	logging.Info("Sync coordinator stopped", nil)
}

func (c *Coordinator) isStarted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Draining reports whether a drain pass is in flight.
func (c *Coordinator) Draining() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draining
}

// LastSync returns the completion time and result of the last drain pass.
// The time is zero if no pass has completed.
func (c *Coordinator) LastSync() (time.Time, Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSyncAt, c.lastResult
}

// SyncOfflineActions runs one drain pass: every pending action is
// attempted exactly once, in enqueue order, sequentially. Successes are
// removed; failures have their retry count incremented and are either
// left for the next pass or dropped at the ceiling. Per-action failures
// never abort the pass and never escape as errors.
func (c *Coordinator) SyncOfflineActions(ctx context.Context) Result {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		logging.Debug("Drain already in progress, skipping", nil)
		return Result{}
	}
	c.draining = true
	c.mu.Unlock()

	var res Result
	start := time.Now()

	defer func() {
		c.mu.Lock()
		c.draining = false
		c.lastSyncAt = time.Now()
		c.lastResult = res
		c.mu.Unlock()
	}()

	actions := c.queue.Actions()
	if len(actions) == 0 {
		return res
	}

	if c.sink != nil {
		c.sink.SyncStarted(len(actions))
	}
	logging.Info("Draining offline actions", map[string]interface{}{"pending": len(actions)})

	// IDs confirmed in a pass that crashed before its queue rewrite
	confirmed := c.loadConfirmed()

	for i := range actions {
		action := &actions[i]

		if confirmed[action.ID] {
			// Applied in an earlier pass whose rewrite never landed;
			// don't replay it again, just let the filter remove it.
			continue
		}

		err := c.replayer.Replay(ctx, *action)
		if err == nil {
			res.Successful++
			confirmed[action.ID] = true
			c.persistConfirmed(confirmed)
			telemetry.RecordCount("sync.action_confirmed", 1, map[string]string{"type": string(action.Type)})
			if c.sink != nil {
				c.sink.ActionConfirmed(*action)
			}
			continue
		}

		action.RetryCount++
		if action.Exhausted() {
			res.Failed++
			c.queue.RecordDead(*action, err.Error())
			telemetry.RecordCount("sync.action_dropped", 1, map[string]string{"type": string(action.Type)})
			logging.ErrorWithCode("Offline action dropped at retry ceiling", string(errors.ErrReplayFailed), err,
				map[string]interface{}{"action_id": action.ID, "type": string(action.Type), "retries": action.RetryCount})
			if c.sink != nil {
				c.sink.ActionDropped(*action, err.Error())
			}
		} else {
			logging.Warn("Offline action replay failed, will retry on next pass",
				map[string]interface{}{"action_id": action.ID, "type": string(action.Type),
					"retry_count": action.RetryCount, "max_retries": action.MaxRetries, "error": err.Error()})
		}
	}

	// Single rewrite: keep only unconfirmed actions still under their ceiling
	remaining := make([]models.OfflineAction, 0, len(actions))
	for _, action := range actions {
		if confirmed[action.ID] || action.Exhausted() {
			continue
		}
		remaining = append(remaining, action)
	}

	if err := c.queue.Replace(remaining); err != nil {
		logging.ErrorWithCode("Failed to rewrite action queue after drain", string(errors.ErrQueuePersist), err)
	} else {
		// Rewrite landed; the confirmed record has served its purpose
		c.clearConfirmed()
	}

	duration := time.Since(start)
	telemetry.RecordTiming("sync.drain", duration, nil)
	logging.Info("Drain pass completed",
		map[string]interface{}{"successful": res.Successful, "failed": res.Failed,
			"remaining": len(remaining), "duration_ms": duration.Milliseconds()})
	if c.sink != nil {
		c.sink.SyncCompleted(res.Successful, res.Failed, duration)
	}

	return res
}

// Reset discards the persisted confirmed-ID record. Used when the whole
// offline state is being cleared.
func (c *Coordinator) Reset() {
	c.clearConfirmed()
}

// loadConfirmed reads the persisted confirmed-ID record.
func (c *Coordinator) loadConfirmed() map[string]bool {
	confirmed := make(map[string]bool)
	data, ok, err := c.kv.Get(db.KeyConfirmedActions)
	if err != nil || !ok {
		return confirmed
	}
	var rec confirmedRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.SchemaVersion != models.ActionSchemaVersion {
		return confirmed
	}
	for _, id := range rec.IDs {
		confirmed[id] = true
	}
	return confirmed
}

// persistConfirmed writes the confirmed-ID record. Written after every
// successful replay, before the final queue rewrite, so a crash between
// the two cannot resurrect an already-applied action.
func (c *Coordinator) persistConfirmed(confirmed map[string]bool) {
	ids := make([]string, 0, len(confirmed))
	for id := range confirmed {
		ids = append(ids, id)
	}
	data, err := json.Marshal(confirmedRecord{SchemaVersion: models.ActionSchemaVersion, IDs: ids})
	if err != nil {
		logging.ErrorWithCode("Failed to serialize confirmed actions", string(errors.ErrDatabase), err)
		return
	}
	if err := c.kv.Set(db.KeyConfirmedActions, data); err != nil {
		logging.ErrorWithCode("Failed to persist confirmed actions", string(errors.ErrDatabase), err)
	}
}

// clearConfirmed removes the confirmed-ID record.
func (c *Coordinator) clearConfirmed() {
	if err := c.kv.Delete(db.KeyConfirmedActions); err != nil {
		logging.ErrorWithCode("Failed to clear confirmed actions", string(errors.ErrDatabase), err)
	}
}
