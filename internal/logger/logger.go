// Package logger is the process-wide structured logger. Output goes to a
// size-rotated file under the drivewise config dir; debug runs and the
// long-running commands mirror it to stderr. Every helper is safe to call
// before Init, so library code and tests can log unconditionally.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/drivewise/internal/constants"
)

// Logger is the global logger; nil until Init succeeds.
var Logger *log.Logger

var (
	mu   sync.Mutex
	file *lumberjack.Logger
)

type Config struct {
	Debug bool
	// ConfigDir is the drivewise config dir; logs go to its logs/ subdir.
	ConfigDir string
	// Stderr mirrors output to stderr without raising the level.
	Stderr bool
}

// Init replaces the global logger. A previously opened log file is closed.
func Init(cfg Config) error {
	dir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	rotating := &lumberjack.Logger{
		Filename:   filepath.Join(dir, constants.AppName+".log"),
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   true,
	}

	var out io.Writer = rotating
	if cfg.Debug || cfg.Stderr {
		out = io.MultiWriter(os.Stderr, rotating)
	}
	level := log.WarnLevel
	if cfg.Debug {
		level = log.DebugLevel
	}

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
	}
	file = rotating
	Logger = log.NewWithOptions(out, log.Options{
		ReportCaller:    cfg.Debug,
		CallerOffset:    1,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          constants.AppName,
	})
	return nil
}

// Path returns the active log file, or "" before Init.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return ""
	}
	return file.Filename
}

// Close closes the log file. Later calls log nowhere.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	Logger = nil
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

func logAt(level log.Level, msg string, keyvals []any) {
	if l := Logger; l != nil {
		l.Log(level, msg, keyvals...)
	}
}

func Debug(msg string, keyvals ...any) { logAt(log.DebugLevel, msg, keyvals) }

func Info(msg string, keyvals ...any) { logAt(log.InfoLevel, msg, keyvals) }

func Warn(msg string, keyvals ...any) { logAt(log.WarnLevel, msg, keyvals) }

func Error(msg string, keyvals ...any) { logAt(log.ErrorLevel, msg, keyvals) }

// Fatal logs msg and exits with status 1, logger or not.
func Fatal(msg string, keyvals ...any) {
	logAt(log.FatalLevel, msg, keyvals)
	os.Exit(1)
}
