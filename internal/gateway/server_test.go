package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/drivewise/internal/api"
	"github.com/julianstephens/drivewise/internal/chat"
	"github.com/julianstephens/drivewise/internal/datasync"
	"github.com/julianstephens/drivewise/internal/integration"
	"github.com/julianstephens/drivewise/internal/storage"
)

func envelope(w http.ResponseWriter, status, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": status, "message": message, "data": data})
}

func fakeBackend() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/auth/email/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "rahasia" {
			envelope(w, "error", "Email atau password salah", nil)
			return
		}
		envelope(w, "success", "ok", map[string]string{"token": "token-123"})
	})
	mux.HandleFunc("/service/trip/stats/daily", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, "success", "ok", []map[string]any{{"date": "2026-10-18", "total_trips": 5}})
	})
	mux.HandleFunc("/service/trip/stats/monthly", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, "success", "ok", []map[string]any{{"month": "2026-10", "total_trips": 80}})
	})
	mux.HandleFunc("/service/trip/stats/yearly", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, "success", "ok", nil)
	})
	return mux
}

type harness struct {
	server *Server
	tokens *storage.TokenStore
	layer  *integration.Layer
}

func newHarness(t *testing.T, authenticated bool) *harness {
	t.Helper()
	backend := httptest.NewServer(fakeBackend())
	t.Cleanup(backend.Close)

	store := storage.NewMemoryStore()
	tokens := storage.NewTokenStore(store)
	if authenticated {
		tokens.Set("token-123")
	}
	layer := integration.New(api.New(backend.URL, tokens), tokens, store, integration.WithSettleDelay(time.Hour))
	syncCtx := datasync.New(layer)
	t.Cleanup(syncCtx.Close)

	srv := New(syncCtx, chat.NewSession(layer, chat.WithTimeout(time.Second)), Config{Heartbeat: time.Hour})
	return &harness{server: srv, tokens: tokens, layer: layer}
}

func (h *harness) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return out
}

func TestGetState(t *testing.T) {
	h := newHarness(t, false)
	rec := h.do(http.MethodGet, "/api/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["is_authenticated"] != false {
		t.Errorf("is_authenticated = %v", body["is_authenticated"])
	}
	if _, ok := body["cache_status"]; !ok {
		t.Error("cache_status missing from state")
	}
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name   string
		authed bool
		path   string
		want   int
	}{
		{"unknown page", true, "/api/refresh/settings", http.StatusNotFound},
		{"unauthenticated", false, "/api/refresh/dashboard", http.StatusUnauthorized},
		{"dashboard", true, "/api/refresh/dashboard", http.StatusOK},
		{"earnings", true, "/api/refresh/earnings", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.authed)
			rec := h.do(http.MethodPost, tt.path, "")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK && decode(t, rec)["ok"] != true {
				t.Errorf("refresh not ok: %s", rec.Body.String())
			}
		})
	}
}

func TestSync(t *testing.T) {
	h := newHarness(t, true)
	rec := h.do(http.MethodPost, "/api/sync", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	state, _ := decode(t, rec)["state"].(map[string]any)
	if state["last_sync_time"] == nil {
		t.Error("last_sync_time missing after sync")
	}
	status, _ := state["cache_status"].(map[string]any)
	if status["dashboard"] != true || status["earnings"] != true {
		t.Errorf("cache_status = %v", status)
	}

	h.tokens.Clear()
	if rec := h.do(http.MethodPost, "/api/sync", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated sync status = %d", rec.Code)
	}
}

func TestChat(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(http.MethodPost, "/api/chat", `{"message":"Info asuransi dong"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	msg, _ := decode(t, rec)["message"].(map[string]any)
	if msg["text"] != chat.Fallback("asuransi") || msg["source"] != "fallback" {
		t.Errorf("message = %v, want the insurance fallback", msg)
	}

	if rec := h.do(http.MethodPost, "/api/chat", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d", rec.Code)
	}
}

func TestWellness(t *testing.T) {
	t.Run("saved", func(t *testing.T) {
		h := newHarness(t, true)
		rec := h.do(http.MethodPost, "/api/wellness", `{"energy_level":80,"stress_level":20,"sleep_quality":70,"physical_condition":90}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		data, _ := decode(t, rec)["wellness_data"].([]any)
		if len(data) != 1 {
			t.Errorf("wellness_data has %d entries, want 1", len(data))
		}
	})

	t.Run("out of range", func(t *testing.T) {
		h := newHarness(t, true)
		if rec := h.do(http.MethodPost, "/api/wellness", `{"energy_level":150}`); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		h := newHarness(t, false)
		rec := h.do(http.MethodPost, "/api/wellness", `{"energy_level":50}`)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rec.Code)
		}
		if decode(t, rec)["error"] != "Authentication required" {
			t.Errorf("error = %v", decode(t, rec)["error"])
		}
	})
}

func TestLoginLogout(t *testing.T) {
	h := newHarness(t, false)

	rec := h.do(http.MethodPost, "/api/auth/login", `{"email":"driver@example.com","password":"salah"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad credentials status = %d", rec.Code)
	}
	if decode(t, rec)["error"] != "Email atau password salah" {
		t.Errorf("error = %s", rec.Body.String())
	}

	rec = h.do(http.MethodPost, "/api/auth/login", `{"email":"driver@example.com","password":"rahasia"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	if !h.layer.IsAuthenticated() {
		t.Error("login did not store the token")
	}

	if rec := h.do(http.MethodPost, "/api/auth/logout", ""); rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if h.layer.IsAuthenticated() {
		t.Error("logout left the token in place")
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/api/state", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestEventsStreamSnapshots(t *testing.T) {
	h := newHarness(t, true)
	srv := httptest.NewServer(h.server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/events failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	frames := make(chan map[string]any)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var snap map[string]any
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap) == nil {
				select {
				case frames <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	first := <-frames
	if first["is_authenticated"] != true {
		t.Errorf("initial frame = %v", first)
	}

	if rec := h.do(http.MethodPost, "/api/refresh/dashboard", ""); rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", rec.Code)
	}
	for {
		select {
		case snap := <-frames:
			status, _ := snap["cache_status"].(map[string]any)
			if status["dashboard"] == true {
				return
			}
		case <-ctx.Done():
			t.Fatal("no frame with dashboard data before deadline")
		}
	}
}
