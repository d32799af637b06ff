// Package main provides the embedded MerchSync offline core for desktop
// platforms. Desktop clients communicate via REST/WebSocket on
// localhost:8090; the core keeps a durable snapshot cache and action
// queue in SQLite and drains the queue against the backend on reconnect.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kimhsiao/merchsync/cmd/desktop/handlers"
	"github.com/kimhsiao/merchsync/internal/cache"
	"github.com/kimhsiao/merchsync/internal/config"
	"github.com/kimhsiao/merchsync/internal/crypto"
	"github.com/kimhsiao/merchsync/internal/db"
	"github.com/kimhsiao/merchsync/internal/logging"
	"github.com/kimhsiao/merchsync/internal/netwatch"
	"github.com/kimhsiao/merchsync/internal/queue"
	"github.com/kimhsiao/merchsync/internal/services"
	"github.com/kimhsiao/merchsync/internal/syncer"
)

func main() {
	cfg := config.Load()

	// ── Storage ──────────────────────────────────────────
	database, err := db.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	kv := db.NewStore(database.DB)
	defer kv.Close()

	// ── Backend token ────────────────────────────────────
	// A token from the environment is persisted encrypted; otherwise the
	// previously stored one is used.
	hostname, _ := os.Hostname()
	vault := crypto.NewTokenVault(kv, hostname)
	token := cfg.BackendToken
	if token != "" {
		if err := vault.Store(token); err != nil {
			logging.Warn("Failed to persist backend token", map[string]interface{}{"error": err.Error()})
		}
	} else {
		if token, err = vault.Load(); err != nil {
			logging.Warn("Failed to load stored backend token", map[string]interface{}{"error": err.Error()})
		}
	}

	// ── Offline core ─────────────────────────────────────
	snapshots := cache.NewStore(kv, cfg.CacheDuration)
	actionQueue := queue.New(kv, cfg.QueueCapacity)

	checker := netwatch.NewHTTPChecker(cfg.ProbeURL, cfg.ReplayTimeout)
	watcher := netwatch.NewWatcher(checker, cfg.ProbeInterval)

	wsHub := NewWSHub()
	watcher.Subscribe(wsHub.BroadcastNetworkChange)

	replayer := syncer.NewHTTPReplayer(cfg.BackendBaseURL, token, cfg.ReplayTimeout, cfg.ReplayRPS)
	coordinator := syncer.NewCoordinator(actionQueue, replayer, kv, watcher, wsHub)

	svc := services.NewOfflineService(snapshots, actionQueue, coordinator, watcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	// ── HTTP API ─────────────────────────────────────────
	syncHandler := handlers.NewSyncHandler(svc)
	cacheHandler := handlers.NewCacheHandler(svc)
	actionsHandler := handlers.NewActionsHandler(svc)
	actionsHandler.SetWebSocketHub(wsHub)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"merchsync-desktop"}`))
	})

	mux.HandleFunc("/ws", HandleWebSocket(wsHub))

	// Drain status and triggers
	mux.HandleFunc("GET /sync/status", syncHandler.GetStatus)
	mux.HandleFunc("POST /sync/now", syncHandler.TriggerSync)
	mux.HandleFunc("GET /sync/actions", syncHandler.ListActions)
	mux.HandleFunc("GET /sync/dead-letters", syncHandler.ListDeadLetters)

	// Snapshot cache
	mux.HandleFunc("GET /cache", cacheHandler.GetSnapshot)
	mux.HandleFunc("PUT /cache", cacheHandler.PutSnapshot)
	mux.HandleFunc("DELETE /cache", cacheHandler.Clear)
	mux.HandleFunc("GET /cache/info", cacheHandler.GetInfo)
	mux.HandleFunc("GET /cache/products", cacheHandler.GetProducts)
	mux.HandleFunc("GET /cache/orders", cacheHandler.GetOrders)
	mux.HandleFunc("GET /cache/cashback-requests", cacheHandler.GetCashbackRequests)

	// Queued mutations
	mux.HandleFunc("POST /actions/products", actionsHandler.CreateProduct)
	mux.HandleFunc("PUT /actions/products/{id}", actionsHandler.UpdateProduct)
	mux.HandleFunc("DELETE /actions/products/{id}", actionsHandler.DeleteProduct)
	mux.HandleFunc("PUT /actions/orders/{id}", actionsHandler.UpdateOrder)
	mux.HandleFunc("POST /actions/cashback/{id}/approve", actionsHandler.ApproveCashback)
	mux.HandleFunc("POST /actions/cashback/{id}/reject", actionsHandler.RejectCashback)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		log.Printf("MerchSync Desktop Server starting on port %s...", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Block until interrupted, then drain in-flight requests
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
