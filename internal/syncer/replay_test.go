package syncer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kimhsiao/merchsync/internal/errors"
	"github.com/kimhsiao/merchsync/internal/models"
)

func TestHTTPReplayerSendsActionAsRequest(t *testing.T) {
	var gotMethod, gotPath, gotIdempotencyKey, gotAuth, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotIdempotencyKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	payload, _ := json.Marshal(models.ProductPayload{Name: "Coffee", Price: 1500})
	action := models.OfflineAction{
		ID:       "action-123",
		Type:     models.ActionProductCreate,
		Endpoint: "/api/products",
		Method:   http.MethodPost,
		Payload:  payload,
	}

	replayer := NewHTTPReplayer(server.URL, "secret-token", 5*time.Second, 0)
	if err := replayer.Replay(context.Background(), action); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("Expected POST, got %s", gotMethod)
	}
	if gotPath != "/api/products" {
		t.Errorf("Expected /api/products, got %s", gotPath)
	}
	if gotIdempotencyKey != "action-123" {
		t.Errorf("Expected Idempotency-Key action-123, got %q", gotIdempotencyKey)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Expected bearer token, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %q", gotContentType)
	}

	var decoded models.ProductPayload
	if err := json.Unmarshal(gotBody, &decoded); err != nil || decoded.Name != "Coffee" {
		t.Errorf("Body did not round-trip, got %s", gotBody)
	}
}

func TestHTTPReplayerNoPayloadNoToken(t *testing.T) {
	var gotAuth, gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	action := models.OfflineAction{
		ID:       "action-456",
		Type:     models.ActionProductDelete,
		Endpoint: "/api/products/prod-1",
		Method:   http.MethodDelete,
	}

	replayer := NewHTTPReplayer(server.URL, "", 5*time.Second, 0)
	if err := replayer.Replay(context.Background(), action); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	if gotAuth != "" {
		t.Errorf("Expected no Authorization header, got %q", gotAuth)
	}
	if gotContentType != "" {
		t.Errorf("Expected no Content-Type without payload, got %q", gotContentType)
	}
}

func TestHTTPReplayerNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	action := models.OfflineAction{
		ID:       "action-789",
		Endpoint: "/api/products",
		Method:   http.MethodPost,
	}

	replayer := NewHTTPReplayer(server.URL, "", 5*time.Second, 0)
	err := replayer.Replay(context.Background(), action)
	if err == nil {
		t.Fatal("Expected error on 500 response")
	}
	if !errors.Is(err, errors.ErrReplayFailed) {
		t.Errorf("Expected %s, got %v", errors.ErrReplayFailed, err)
	}
}

func TestHTTPReplayerUnreachableBackend(t *testing.T) {
	// Closed server: transport error, not an HTTP status
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	action := models.OfflineAction{
		ID:       "action-000",
		Endpoint: "/api/products",
		Method:   http.MethodPost,
	}

	replayer := NewHTTPReplayer(server.URL, "", time.Second, 0)
	if err := replayer.Replay(context.Background(), action); err == nil {
		t.Fatal("Expected error against an unreachable backend")
	}
}
