package engine

/*------------------------------------------------------------------
 *
 * Purpose: Package-wide logging facade.
 *
 * Description: Daily-rotating session log files and colourised
 * leveled console output are folded into one facade, backed by a
 * structured/leveled logging library with the daily file-naming
 * feature implemented via an strftime-style pattern.
 *
 *------------------------------------------------------------------*/

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// Logger wraps charmbracelet/log with an optional daily-rotating session
// log file, mirroring teacher's g_daily_names behaviour.
type Logger struct {
	mu       sync.Mutex
	base     *log.Logger
	dir      string
	pattern  *strftime.Strftime
	openName string
	file     *os.File
}

// NewLogger builds a Logger writing to stderr with the given prefix, so each
// subsystem's messages are tagged by its own prefix.
func NewLogger(prefix string) *Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          prefix,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	return &Logger{base: l}
}

// EnableDailyFile turns on daily-rotating file logging under dir, with file
// names derived from the given strftime pattern (default "sfzcore-%Y%m%d.log").
func (lg *Logger) EnableDailyFile(dir, pattern string) error {
	if pattern == "" {
		pattern = "sfzcore-%Y%m%d.log"
	}

	p, err := strftime.New(pattern)
	if err != nil {
		return err
	}

	lg.mu.Lock()
	defer lg.mu.Unlock()

	lg.dir = dir
	lg.pattern = p

	return os.MkdirAll(dir, 0o755)
}

func (lg *Logger) rotateLocked() {
	if lg.pattern == nil {
		return
	}

	name := lg.pattern.FormatString(time.Now())
	if name == lg.openName {
		return
	}

	if lg.file != nil {
		_ = lg.file.Close()
	}

	full := filepath.Join(lg.dir, name)

	f, err := os.OpenFile(full, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		lg.base.Error("failed to open daily log file", "path", full, "err", err)
		return
	}

	lg.file = f
	lg.openName = name
	lg.base.SetOutput(io.MultiWriter(os.Stderr, f))
}

func (lg *Logger) Debug(msg string, kv ...any) { lg.emit(lg.base.Debug, msg, kv...) }
func (lg *Logger) Info(msg string, kv ...any)   { lg.emit(lg.base.Info, msg, kv...) }
func (lg *Logger) Warn(msg string, kv ...any)   { lg.emit(lg.base.Warn, msg, kv...) }
func (lg *Logger) Error(msg string, kv ...any)  { lg.emit(lg.base.Error, msg, kv...) }

func (lg *Logger) emit(f func(string, ...any), msg string, kv ...any) {
	lg.mu.Lock()
	lg.rotateLocked()
	lg.mu.Unlock()
	f(msg, kv...)
}

// Close releases the underlying daily log file, if any.
func (lg *Logger) Close() error {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	if lg.file != nil {
		return lg.file.Close()
	}

	return nil
}
