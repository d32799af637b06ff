// Package syncer drives reconciliation of queued offline mutations
// against the backend once connectivity returns.
package syncer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/kimhsiao/merchsync/internal/errors"
	"github.com/kimhsiao/merchsync/internal/models"
)

// Replayer re-issues a queued mutation against the backend. An error
// return means the attempt failed and counts against the retry ceiling.
type Replayer interface {
	Replay(ctx context.Context, action models.OfflineAction) error
}

// HTTPReplayer replays actions as real HTTP calls against the backend
// REST API. Every replay carries an Idempotency-Key header equal to the
// action ID so the backend can deduplicate a re-replay after a crash.
type HTTPReplayer struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPReplayer creates a replayer for baseURL. The limiter paces
// replays after a reconnect so a long queue doesn't hammer the backend;
// rps <= 0 disables pacing. token, when set, is sent as a bearer token.
func NewHTTPReplayer(baseURL, token string, timeout time.Duration, rps float64) *HTTPReplayer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &HTTPReplayer{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// Replay implements Replayer.
func (r *HTTPReplayer) Replay(ctx context.Context, action models.OfflineAction) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return errors.Wrap(errors.ErrReplayFailed, "replay rate limiter interrupted", err)
		}
	}

	var body io.Reader
	if len(action.Payload) > 0 {
		body = bytes.NewReader(action.Payload)
	}

	req, err := http.NewRequestWithContext(ctx, action.Method, r.baseURL+action.Endpoint, body)
	if err != nil {
		return errors.Wrap(errors.ErrReplayFailed, "failed to build replay request", err)
	}
	if len(action.Payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Idempotency-Key", action.ID)
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrReplayFailed, "replay request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.New(errors.ErrReplayFailed,
			fmt.Sprintf("backend returned %d for %s %s", resp.StatusCode, action.Method, action.Endpoint))
	}
	return nil
}
