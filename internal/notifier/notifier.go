// Package notifier posts desktop notifications through the drivewise tray
// companion. The tray advertises itself with a lockfile holding
// "port|pid|secret"; notifications are only sent after the pid is confirmed
// to be the tray executable.
package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/drivewise/internal/constants"
	"github.com/julianstephens/drivewise/internal/datasync"
	apperrors "github.com/julianstephens/drivewise/internal/errors"
	"github.com/julianstephens/drivewise/internal/logger"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

// ErrTrayNotRunning is returned when no live tray companion was found.
var ErrTrayNotRunning = errors.New("drivewise tray is not running")

type payload struct {
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

type endpoint struct {
	port   int
	pid    int
	secret string
}

// Notifier sends notifications and turns sync events into messages.
type Notifier struct {
	http       *http.Client
	retryDelay time.Duration

	mu         sync.Mutex
	syncFailed bool
}

func New() *Notifier {
	return &Notifier{
		http:       &http.Client{Timeout: 5 * time.Second},
		retryDelay: constants.NotifyRetryDelay,
	}
}

// Notify shows text through the tray. It retries once, since the tray may be
// rewriting its lockfile.
func (n *Notifier) Notify(text string) error {
	err := n.notifyOnce(text)
	if err == nil || errors.Is(err, ErrTrayNotRunning) {
		return err
	}
	time.Sleep(n.retryDelay)
	return n.notifyOnce(text)
}

// Available reports whether a tray companion is running to receive
// notifications.
func (n *Notifier) Available() error {
	dir, err := TrayConfigDir()
	if err != nil {
		return err
	}
	_, err = locateTray(filepath.Join(dir, constants.NotifierLockfileName))
	return err
}

func (n *Notifier) notifyOnce(text string) error {
	dir, err := TrayConfigDir()
	if err != nil {
		return err
	}
	ep, err := locateTray(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return err
	}
	return n.send(ep, payload{Text: text, DurationMs: constants.NotificationDurationMs})
}

// OnSync reports a failed background sync, and the first success after a
// failure. Routine successes are silent.
func (n *Notifier) OnSync(result datasync.SyncResult) {
	n.mu.Lock()
	wasFailing := n.syncFailed
	n.syncFailed = result.Err != nil
	n.mu.Unlock()

	var text string
	switch {
	case result.Err != nil:
		text = "Sync failed: " + apperrors.Message(result.Err)
	case wasFailing:
		text = "Sync recovered at " + result.Time.Format("15:04")
	default:
		return
	}
	if err := n.Notify(text); err != nil {
		logger.Debug("Notification not delivered", "error", err)
	}
}

// OnDataAvailable announces that a page received its first data.
func (n *Notifier) OnDataAvailable(page constants.PageType) {
	if err := n.Notify(fmt.Sprintf("New %s data is available", page)); err != nil {
		logger.Debug("Notification not delivered", "page", page, "error", err)
	}
}

// TrayConfigDir returns the tray companion's config directory, honoring a
// lockfile_dir override in its settings.json.
func TrayConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	trayDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(trayDir, "settings.json"))
	if err != nil {
		return trayDir, nil
	}
	var settings struct {
		Settings struct {
			LockfileDir string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		logger.Debug("Ignoring malformed tray settings", "error", err)
		return trayDir, nil
	}
	if settings.Settings.LockfileDir != "" {
		return settings.Settings.LockfileDir, nil
	}
	return trayDir, nil
}

func parseLockfile(content string) (endpoint, error) {
	parts := strings.Split(strings.TrimSpace(content), "|")
	if len(parts) != 3 {
		return endpoint{}, errors.New("tray lockfile is malformed")
	}

	port, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return endpoint{}, errors.New("invalid port in tray lockfile")
	}
	if port < 1 || port > 65535 {
		return endpoint{}, fmt.Errorf("port %d is outside valid range (1-65535)", port)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return endpoint{}, errors.New("invalid process ID in tray lockfile")
	}
	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return endpoint{}, errors.New("secret in tray lockfile is empty")
	}
	return endpoint{port: port, pid: pid, secret: secret}, nil
}

func locateTray(lockfilePath string) (endpoint, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return endpoint{}, ErrTrayNotRunning
	}
	ep, err := parseLockfile(string(content))
	if err != nil {
		return endpoint{}, err
	}

	process, err := findProcessFunc(ep.pid)
	if err != nil || process == nil {
		return endpoint{}, ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayExecutablePrefix) {
		return endpoint{}, fmt.Errorf("process %d is not the drivewise tray (is %s)", ep.pid, process.Executable())
	}
	return ep, nil
}

func (n *Notifier) send(ep endpoint, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("http://127.0.0.1:%d", ep.port), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Drivewise-Secret", ep.secret)

	res, err := n.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(msg))
}
