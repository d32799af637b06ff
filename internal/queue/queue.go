// Package queue provides the durable FIFO queue of offline mutations.
// Actions are appended in enqueue order and persisted as a single JSON
// record; the drain loop in syncer rewrites the list in one write.
package queue

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/kimhsiao/merchsync/internal/db"
	"github.com/kimhsiao/merchsync/internal/errors"
	"github.com/kimhsiao/merchsync/internal/logging"
	"github.com/kimhsiao/merchsync/internal/models"
	"github.com/kimhsiao/merchsync/internal/uuid"
)

// DefaultCapacity bounds the number of pending actions. The source of
// truth is the backend; an unbounded queue while persistently offline
// only defers a larger failure.
const DefaultCapacity = 500

// maxDeadLetters caps the record of permanently dropped actions.
const maxDeadLetters = 100

// KV is the persistent key-value capability the queue writes through.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Queue manages the persisted list of not-yet-applied mutations.
type Queue struct {
	kv       KV
	capacity int
	mu       sync.Mutex // serializes read-modify-write of the persisted list
}

// actionList is the versioned persistence envelope for the queue.
type actionList struct {
	SchemaVersion int                    `json:"schema_version"`
	Actions       []models.OfflineAction `json:"actions"`
}

// deadList is the versioned persistence envelope for dropped actions.
type deadList struct {
	SchemaVersion int                 `json:"schema_version"`
	Dropped       []models.DeadAction `json:"dropped"`
}

// New creates a Queue over kv. A non-positive capacity falls back to
// DefaultCapacity.
func New(kv KV, capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{kv: kv, capacity: capacity}
}

// Enqueue assigns an ID and zero retry count to the action, appends it to
// the persisted list and writes the list back. Two mutations of the same
// resource can coexist; both replay in enqueue order.
func (q *Queue) Enqueue(t models.ActionType, endpoint, method string, payload interface{}, maxRetries int) (*models.OfflineAction, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	actions := q.loadLocked()
	if len(actions) >= q.capacity {
		return nil, errors.New(errors.ErrQueueFull, "offline action queue is full")
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInvalid, "failed to serialize action payload", err)
		}
		raw = data
	}

	action := models.OfflineAction{
		ID:         uuid.New(),
		Type:       t,
		Endpoint:   endpoint,
		Method:     method,
		Payload:    raw,
		EnqueuedAt: time.Now().UnixMilli(),
		RetryCount: 0,
		MaxRetries: maxRetries,
	}

	actions = append(actions, action)
	if err := q.persistLocked(actions); err != nil {
		return nil, errors.Wrap(errors.ErrQueuePersist, "failed to persist action queue", err)
	}

	logging.Info("Queued offline action",
		map[string]interface{}{"action_id": action.ID, "type": string(t), "pending": len(actions)})

	return &action, nil
}

// Actions returns the persisted list, oldest first. A missing or corrupt
// record yields an empty list; this method never errors.
func (q *Queue) Actions() []models.OfflineAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loadLocked()
}

// Replace persists the supplied list wholesale, replacing the old one in
// a single write. Used by the drain loop after filtering.
func (q *Queue) Replace(actions []models.OfflineAction) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.persistLocked(actions)
}

// Size returns the number of pending actions.
func (q *Queue) Size() int {
	return len(q.Actions())
}

// Clear removes the persisted action list and the dead-letter record.
// Idempotent.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.kv.Delete(db.KeyOfflineActions); err != nil {
		logging.ErrorWithCode("Failed to clear action queue", string(errors.ErrQueuePersist), err)
	}
	if err := q.kv.Delete(db.KeyDeadLetters); err != nil {
		logging.ErrorWithCode("Failed to clear dead letters", string(errors.ErrQueuePersist), err)
	}
}

// RecordDead appends a permanently dropped action to the capped
// dead-letter record so it stays reviewable.
func (q *Queue) RecordDead(action models.OfflineAction, lastErr string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := q.loadDeadLocked()
	dropped = append(dropped, models.DeadAction{
		Action:    action,
		LastError: lastErr,
		DroppedAt: time.Now().UnixMilli(),
	})
	if len(dropped) > maxDeadLetters {
		dropped = dropped[len(dropped)-maxDeadLetters:]
	}

	data, err := json.Marshal(deadList{SchemaVersion: models.ActionSchemaVersion, Dropped: dropped})
	if err != nil {
		logging.ErrorWithCode("Failed to serialize dead letters", string(errors.ErrQueuePersist), err)
		return
	}
	if err := q.kv.Set(db.KeyDeadLetters, data); err != nil {
		logging.ErrorWithCode("Failed to persist dead letters", string(errors.ErrQueuePersist), err)
	}
}

// DeadLetters returns the permanently dropped actions, oldest first.
func (q *Queue) DeadLetters() []models.DeadAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loadDeadLocked()
}

// loadLocked reads and decodes the persisted list. Caller holds q.mu.
func (q *Queue) loadLocked() []models.OfflineAction {
	data, ok, err := q.kv.Get(db.KeyOfflineActions)
	if err != nil {
		logging.ErrorWithCode("Failed to read action queue", string(errors.ErrDatabase), err)
		return []models.OfflineAction{}
	}
	if !ok {
		return []models.OfflineAction{}
	}

	var list actionList
	if err := json.Unmarshal(data, &list); err != nil {
		logging.ErrorWithCode("Corrupt action queue record, falling back to empty", string(errors.ErrCorrupt), err)
		return []models.OfflineAction{}
	}
	if list.SchemaVersion != models.ActionSchemaVersion {
		logging.Warn("Unknown action queue schema version, falling back to empty",
			map[string]interface{}{"schema_version": list.SchemaVersion})
		return []models.OfflineAction{}
	}
	if list.Actions == nil {
		return []models.OfflineAction{}
	}
	return list.Actions
}

// persistLocked writes the full list back in one write. Caller holds q.mu.
func (q *Queue) persistLocked(actions []models.OfflineAction) error {
	data, err := json.Marshal(actionList{SchemaVersion: models.ActionSchemaVersion, Actions: actions})
	if err != nil {
		return err
	}
	return q.kv.Set(db.KeyOfflineActions, data)
}

// loadDeadLocked reads the dead-letter record. Caller holds q.mu.
func (q *Queue) loadDeadLocked() []models.DeadAction {
	data, ok, err := q.kv.Get(db.KeyDeadLetters)
	if err != nil || !ok {
		return []models.DeadAction{}
	}
	var list deadList
	if err := json.Unmarshal(data, &list); err != nil || list.SchemaVersion != models.ActionSchemaVersion {
		return []models.DeadAction{}
	}
	if list.Dropped == nil {
		return []models.DeadAction{}
	}
	return list.Dropped
}
