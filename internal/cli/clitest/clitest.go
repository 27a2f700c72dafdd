// Package clitest builds command contexts against a fake backend.
package clitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/storage"
)

// Backend routes request paths to canned envelope payloads.
type Backend struct {
	mu     sync.Mutex
	routes map[string]Route
	hits   map[string]int
}

// Route is the canned answer for one path.
type Route struct {
	Status  string // "success" or "error"
	Message string
	Data    any
}

func NewBackend() *Backend {
	return &Backend{routes: make(map[string]Route), hits: make(map[string]int)}
}

// Handle answers path with a success envelope carrying data.
func (b *Backend) Handle(path string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[path] = Route{Status: "success", Message: "ok", Data: data}
}

// Reject answers path with an error envelope.
func (b *Backend) Reject(path, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[path] = Route{Status: "error", Message: message}
}

// Hits reports how many requests reached path.
func (b *Backend) Hits(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.hits[r.URL.Path]++
	route, ok := b.routes[r.URL.Path]
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": "not found", "data": nil})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": route.Status, "message": route.Message, "data": route.Data})
}

// NewContext returns a command context backed by in-memory storage, a
// storage token store and the fake backend. A non-empty token logs the
// context in.
func NewContext(t *testing.T, backend *Backend, token string) *cli.Context {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	store := storage.NewMemoryStore()
	ctx := &cli.Context{
		Store:      store,
		APIURL:     srv.URL,
		TokenStore: constants.TokenStoreStorage,
	}
	if token != "" {
		if err := storage.NewTokenStore(store).Set(token); err != nil {
			t.Fatalf("failed to seed token: %v", err)
		}
	}
	return ctx
}
