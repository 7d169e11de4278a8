package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	filePrefix = "pharmacy-"
	fileSuffix = ".log"

	defaultMaxFileSize = 100 * 1024 * 1024
	cleanupInterval    = 24 * time.Hour
)

// pharmacy-2025-W41.log or pharmacy-2025-W41.3.log once size rotation kicks in
var logFileName = regexp.MustCompile(`^pharmacy-(\d{4}-W\d{2})(?:\.(\d+))?\.log$`)

// RotatingLogger is an io.Writer that starts a new file every ISO week and
// whenever the current file would grow past maxFileSize.
type RotatingLogger struct {
	dir         string
	retention   time.Duration
	maxFileSize int64

	mu   sync.Mutex
	file *os.File
	week string
	seq  int
	size int64

	now       func() time.Time
	cleaning  atomic.Bool
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRotatingLogger creates a rotating writer with the default 100MB size limit
func NewRotatingLogger(dir string, retentionWeeks int) *RotatingLogger {
	return NewRotatingLoggerWithSizeLimit(dir, retentionWeeks, defaultMaxFileSize)
}

// NewRotatingLoggerWithSizeLimit creates a rotating writer. A maxFileSize of 0 disables size rotation.
func NewRotatingLoggerWithSizeLimit(dir string, retentionWeeks int, maxFileSize int64) *RotatingLogger {
	return &RotatingLogger{
		dir:         dir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		now:         time.Now,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// getWeekKey returns the ISO week in YYYY-Www form
func getWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func fileNameFor(week string, seq int) string {
	if seq == 0 {
		return filePrefix + week + fileSuffix
	}
	return fmt.Sprintf("%s%s.%d%s", filePrefix, week, seq, fileSuffix)
}

// latestSequence returns the highest sequence number already on disk for week
func (rl *RotatingLogger) latestSequence(week string) int {
	entries, err := os.ReadDir(rl.dir)
	if err != nil {
		return 0
	}

	latest := 0
	for _, entry := range entries {
		m := logFileName.FindStringSubmatch(entry.Name())
		if m == nil || m[1] != week || m[2] == "" {
			continue
		}
		if n, err := strconv.Atoi(m[2]); err == nil && n > latest {
			latest = n
		}
	}
	return latest
}

// open switches to the file for week/seq. Caller holds mu.
func (rl *RotatingLogger) open(week string, seq int) error {
	if rl.file != nil {
		_ = rl.file.Close()
		rl.file = nil
	}

	path := filepath.Join(rl.dir, fileNameFor(week, seq))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) // #nosec G302 -- log files are read by the ops user
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	rl.file, rl.week, rl.seq, rl.size = f, week, seq, size
	return nil
}

// rotate picks the file a write of n bytes should go to. Caller holds mu.
func (rl *RotatingLogger) rotate(n int) error {
	week := getWeekKey(rl.now())

	if rl.file == nil || rl.week != week {
		if err := rl.open(week, rl.latestSequence(week)); err != nil {
			return err
		}
	}

	if rl.maxFileSize > 0 && rl.size > 0 && rl.size+int64(n) > rl.maxFileSize {
		return rl.open(week, rl.seq+1)
	}
	return nil
}

// Write appends p to the current log file, rotating first when needed
func (rl *RotatingLogger) Write(p []byte) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if err := rl.rotate(len(p)); err != nil {
		return 0, err
	}

	n, err := rl.file.Write(p)
	rl.size += int64(n)
	return n, err
}

// CurrentFile returns the path of the file receiving writes, or "" before the first write
func (rl *RotatingLogger) CurrentFile() string {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.file == nil {
		return ""
	}
	return rl.file.Name()
}

// cleanupOldLogs removes log files last modified before the retention window
func (rl *RotatingLogger) cleanupOldLogs() (int, error) {
	entries, err := os.ReadDir(rl.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := rl.now().Add(-rl.retention)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(rl.dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}

// startCleanup runs cleanupOldLogs daily until Close
func (rl *RotatingLogger) startCleanup() {
	if !rl.cleaning.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(rl.done)
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-rl.stop:
				return
			case <-ticker.C:
				// Console only, the file handler would recurse into Write
				if n, err := rl.cleanupOldLogs(); err != nil {
					fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
				} else if n > 0 {
					fmt.Fprintf(os.Stderr, "removed %d expired log files\n", n)
				}
			}
		}
	}()
}

// Close stops the cleanup goroutine, if any, and closes the current file
func (rl *RotatingLogger) Close() error {
	var err error
	rl.closeOnce.Do(func() {
		close(rl.stop)
		if rl.cleaning.Load() {
			select {
			case <-rl.done:
			case <-time.After(time.Second):
			}
		}

		rl.mu.Lock()
		defer rl.mu.Unlock()
		if rl.file != nil {
			err = rl.file.Close()
			rl.file = nil
		}
	})
	return err
}
