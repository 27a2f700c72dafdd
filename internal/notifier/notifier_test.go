package notifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/datasync"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int { return m.pid }
func (m *mockProcess) PPid() int { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func stubConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := userConfigDirFunc
	t.Cleanup(func() { userConfigDirFunc = old })
	userConfigDirFunc = func() (string, error) { return dir, nil }
	return dir
}

func stubProcess(t *testing.T, executable string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func TestTrayConfigDir(t *testing.T) {
	configDir := stubConfigDir(t)
	trayDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	dir, err := TrayConfigDir()
	if err != nil {
		t.Fatalf("TrayConfigDir() failed: %v", err)
	}
	if dir != trayDir {
		t.Errorf("TrayConfigDir() = %s, want %s", dir, trayDir)
	}

	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	custom := filepath.Join(configDir, "custom-locks")
	settings := fmt.Sprintf(`{"settings": {"lockfile_dir": %q}}`, custom)
	if err := os.WriteFile(filepath.Join(trayDir, "settings.json"), []byte(settings), 0644); err != nil {
		t.Fatal(err)
	}
	if dir, _ := TrayConfigDir(); dir != custom {
		t.Errorf("TrayConfigDir() = %s, want override %s", dir, custom)
	}

	if err := os.WriteFile(filepath.Join(trayDir, "settings.json"), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if dir, _ := TrayConfigDir(); dir != trayDir {
		t.Errorf("malformed settings: TrayConfigDir() = %s, want %s", dir, trayDir)
	}
}

func TestParseLockfile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", "8080|12345|s3cret\n", false},
		{"two parts", "8080|12345", true},
		{"garbage", "invalid", true},
		{"empty port", "|12345|s3cret", true},
		{"port out of range", "70000|12345|s3cret", true},
		{"port zero", "0|12345|s3cret", true},
		{"bad pid", "8080|abc|s3cret", true},
		{"empty secret", "8080|12345| ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := parseLockfile(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLockfile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (ep.port != 8080 || ep.pid != 12345 || ep.secret != "s3cret") {
				t.Errorf("parseLockfile() = %+v", ep)
			}
		})
	}
}

func TestLocateTray(t *testing.T) {
	lockfile := filepath.Join(t.TempDir(), constants.NotifierLockfileName)

	if _, err := locateTray(lockfile); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("missing lockfile: error = %v, want ErrTrayNotRunning", err)
	}

	if err := os.WriteFile(lockfile, []byte("8080|12345|s3cret"), 0644); err != nil {
		t.Fatal(err)
	}

	stubProcess(t, "")
	if _, err := locateTray(lockfile); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("dead pid: error = %v, want ErrTrayNotRunning", err)
	}

	stubProcess(t, "firefox")
	if _, err := locateTray(lockfile); err == nil || !strings.Contains(err.Error(), "not the drivewise tray") {
		t.Errorf("foreign pid: error = %v", err)
	}

	stubProcess(t, "drivewise-tray")
	ep, err := locateTray(lockfile)
	if err != nil {
		t.Fatalf("locateTray() failed: %v", err)
	}
	if ep.port != 8080 || ep.secret != "s3cret" {
		t.Errorf("locateTray() = %+v", ep)
	}
}

// trayServer stands in for the tray companion and records what it receives.
type trayServer struct {
	mu       sync.Mutex
	payloads []payload
	secrets  []string
	status   int
}

func (s *trayServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var p payload
	json.NewDecoder(r.Body).Decode(&p)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	s.secrets = append(s.secrets, r.Header.Get("X-Drivewise-Secret"))
	if s.status != 0 {
		w.WriteHeader(s.status)
		w.Write([]byte("tray rejected"))
	}
}

func (s *trayServer) texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, p := range s.payloads {
		out = append(out, p.Text)
	}
	return out
}

func startTray(t *testing.T) *trayServer {
	t.Helper()
	tray := &trayServer{}
	srv := httptest.NewServer(tray)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	trayDir := filepath.Join(stubConfigDir(t), constants.TrayAppIdentifier)
	if err := os.MkdirAll(trayDir, 0755); err != nil {
		t.Fatal(err)
	}
	lock := fmt.Sprintf("%s|4242|s3cret", u.Port())
	if err := os.WriteFile(filepath.Join(trayDir, constants.NotifierLockfileName), []byte(lock), 0644); err != nil {
		t.Fatal(err)
	}
	stubProcess(t, "drivewise-tray")
	return tray
}

func TestNotify(t *testing.T) {
	tray := startTray(t)
	n := New()

	if err := n.Notify("Sync failed"); err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}
	if texts := tray.texts(); len(texts) != 1 || texts[0] != "Sync failed" {
		t.Errorf("tray received %v", texts)
	}
	if tray.secrets[0] != "s3cret" {
		t.Errorf("secret header = %q", tray.secrets[0])
	}
	if tray.payloads[0].DurationMs != constants.NotificationDurationMs {
		t.Errorf("duration = %d", tray.payloads[0].DurationMs)
	}
}

func TestNotifyRetriesRejectedDelivery(t *testing.T) {
	tray := startTray(t)
	tray.status = http.StatusInternalServerError
	n := New()
	n.retryDelay = time.Millisecond

	err := n.Notify("hello")
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Errorf("Notify() error = %v", err)
	}
	if got := len(tray.texts()); got != 2 {
		t.Errorf("tray received %d attempts, want 2", got)
	}
}

func TestNotifyWithoutTray(t *testing.T) {
	stubConfigDir(t)
	if err := New().Notify("hello"); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("Notify() error = %v, want ErrTrayNotRunning", err)
	}
	if err := New().Available(); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("Available() error = %v, want ErrTrayNotRunning", err)
	}
}

func TestAvailable(t *testing.T) {
	startTray(t)
	if err := New().Available(); err != nil {
		t.Errorf("Available() with a running tray = %v", err)
	}
}

func TestOnSyncReportsFailuresAndRecovery(t *testing.T) {
	tray := startTray(t)
	n := New()
	at := time.Date(2026, 10, 18, 14, 5, 0, 0, time.Local)

	n.OnSync(datasync.SyncResult{Time: at})
	n.OnSync(datasync.SyncResult{Time: at, Err: errors.New("connection refused")})
	n.OnSync(datasync.SyncResult{Time: at, Err: errors.New("connection refused")})
	n.OnSync(datasync.SyncResult{Time: at})
	n.OnSync(datasync.SyncResult{Time: at})

	want := []string{
		"Sync failed: connection refused",
		"Sync failed: connection refused",
		"Sync recovered at 14:05",
	}
	got := tray.texts()
	if len(got) != len(want) {
		t.Fatalf("tray received %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOnDataAvailable(t *testing.T) {
	tray := startTray(t)
	New().OnDataAvailable(constants.PageEarnings)

	if texts := tray.texts(); len(texts) != 1 || texts[0] != "New earnings data is available" {
		t.Errorf("tray received %v", texts)
	}
}
