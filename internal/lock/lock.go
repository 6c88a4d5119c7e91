// Package lock implements the PID-file single-instance protocol: a JSON
// record in the system temp directory identifies the owning process by pid,
// command line, and boot time, and a new instance takes over from a dead or
// genuinely matching predecessor.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/sirupsen/logrus"
)

// ErrTakeoverTimeout means a live previous instance did not exit within the
// wait deadline. Startup must abort: proceeding would leave two processes
// believing they own the lock.
var ErrTakeoverTimeout = errors.New("previous instance did not exit in time")

// Record is the on-disk lock file contents.
type Record struct {
	PID      int      `json:"pid"`
	Cmdline  []string `json:"cmdline"`
	BootTime float64  `json:"boot_time"`
}

// FileLock guards a named lock file. Zero value is not usable; call New.
type FileLock struct {
	path          string
	wait          time.Duration
	poll          time.Duration
	bootTolerance float64
	logger        *logrus.Logger

	pid      int
	cmdline  []string
	bootTime float64
	active   bool
}

// Option tweaks lock timing. Defaults match the historical behavior: 5s
// takeover wait, 100ms poll, 1s boot-time tolerance.
type Option func(*FileLock)

func WithWait(d time.Duration) Option      { return func(l *FileLock) { l.wait = d } }
func WithPoll(d time.Duration) Option      { return func(l *FileLock) { l.poll = d } }
func WithBootTolerance(sec float64) Option { return func(l *FileLock) { l.bootTolerance = sec } }
func WithLogger(lg *logrus.Logger) Option  { return func(l *FileLock) { l.logger = lg } }
func WithPath(path string) Option          { return func(l *FileLock) { l.path = path } }

// New builds a lock named name, stored at <tmpdir>/<name>.pid.json.
func New(name string, opts ...Option) *FileLock {
	l := &FileLock{
		path:          filepath.Join(os.TempDir(), name+".pid.json"),
		wait:          5 * time.Second,
		poll:          100 * time.Millisecond,
		bootTolerance: 1.0,
		logger:        logrus.New(),
		pid:           os.Getpid(),
		cmdline:       os.Args,
		bootTime:      bootSignature(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the lock file location.
func (l *FileLock) Path() string { return l.path }

// PathFor returns the default lock file location for a lock name without
// constructing a FileLock.
func PathFor(name string) string {
	return filepath.Join(os.TempDir(), name+".pid.json")
}

// ReadRecord reads the lock record at path.
func ReadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// bootSignature returns the system boot time in seconds since the epoch, or
// 0 when it cannot be determined.
func bootSignature() float64 {
	bt, err := host.BootTime()
	if err != nil {
		return 0
	}
	return float64(bt)
}

// Acquire claims the lock file, removing stale records and terminating a
// live matching predecessor. It returns ErrTakeoverTimeout when a live owner
// refuses to exit within the wait deadline.
func (l *FileLock) Acquire() error {
	deadline := time.Now().Add(l.wait)
	for {
		fd, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			rec := Record{PID: l.pid, Cmdline: l.cmdline, BootTime: l.bootTime}
			encErr := json.NewEncoder(fd).Encode(rec)
			closeErr := fd.Close()
			if encErr != nil || closeErr != nil {
				_ = os.Remove(l.path)
				if encErr != nil {
					return fmt.Errorf("write lock record: %w", encErr)
				}
				return fmt.Errorf("close lock file: %w", closeErr)
			}
			l.logger.WithFields(logrus.Fields{"path": l.path, "pid": l.pid}).Debug("lock acquired")
			l.active = true
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("create lock file: %w", err)
		}

		owner, readErr := l.readOwner()
		if readErr != nil {
			l.logger.WithError(readErr).Debug("lock file unreadable, removing stale file")
			l.removeStale()
			continue
		}

		if owner.BootTime != 0 && !l.sameBoot(owner.BootTime) {
			l.logger.WithFields(logrus.Fields{
				"owner_boot":   owner.BootTime,
				"current_boot": l.bootTime,
			}).Debug("boot signature mismatch, removing stale lock")
			l.removeStale()
			continue
		}

		if !l.processMatches(owner) {
			l.logger.WithField("pid", owner.PID).Debug("recorded owner no longer matches, removing stale lock")
			l.removeStale()
			continue
		}

		l.logger.WithField("pid", owner.PID).Info("terminating previous instance")
		l.terminate(owner.PID)
		if err := l.waitForExit(owner.PID, deadline); err != nil {
			return err
		}
		l.removeStale()
	}
}

// Release deletes the lock file if this process still owns it. Idempotent.
func (l *FileLock) Release() {
	if !l.active {
		return
	}
	l.active = false
	owner, err := l.readOwner()
	if err != nil || owner.PID != l.pid {
		return
	}
	_ = os.Remove(l.path)
	l.logger.WithField("path", l.path).Debug("lock released")
}

func (l *FileLock) readOwner() (Record, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return Record{}, err
	}
	if len(data) == 0 {
		return Record{}, errors.New("empty lock file")
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (l *FileLock) removeStale() {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		l.logger.WithError(err).Warn("failed to remove stale lock file")
	}
}

func (l *FileLock) sameBoot(owner float64) bool {
	diff := owner - l.bootTime
	if diff < 0 {
		diff = -diff
	}
	return diff <= l.bootTolerance
}

// processMatches reports whether the recorded PID is alive and its command
// line is equivalent to the recorded one. A PID recycled by an unrelated
// process fails the command comparison and the record counts as stale.
func (l *FileLock) processMatches(owner Record) bool {
	if owner.PID <= 0 {
		return false
	}
	proc, err := process.NewProcess(int32(owner.PID))
	if err != nil {
		return false
	}
	actual, err := proc.CmdlineSlice()
	if err != nil {
		actual = nil
	}
	if len(owner.Cmdline) > 0 && len(actual) > 0 && !commandsEquivalent(owner.Cmdline, actual) {
		return false
	}
	if _, err := proc.Status(); err != nil {
		return false
	}
	return true
}

func (l *FileLock) terminate(pid int) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return
	}
	if err := proc.Terminate(); err != nil {
		_ = proc.Kill()
	}
}

func (l *FileLock) waitForExit(pid int, deadline time.Time) error {
	for time.Now().Before(deadline) {
		proc, err := process.NewProcess(int32(pid))
		if err != nil {
			return nil
		}
		statuses, err := proc.Status()
		if err != nil {
			return nil
		}
		if slices.Contains(statuses, process.Zombie) {
			return nil
		}
		time.Sleep(l.poll)
	}
	return fmt.Errorf("%w (pid %d)", ErrTakeoverTimeout, pid)
}

// commandsEquivalent accepts an exact match or two invocations of the same
// executable whose entry argument resolves to the same absolute path. This
// keeps a relaunch via a different relative path from being mistaken for an
// unrelated process.
func commandsEquivalent(expected, actual []string) bool {
	if slices.Equal(expected, actual) {
		return true
	}
	if len(expected) == 0 || len(actual) == 0 {
		return false
	}
	if absOrSelf(expected[0]) != absOrSelf(actual[0]) {
		return false
	}
	ee := canonicalEntry(expected)
	ae := canonicalEntry(actual)
	return ee != "" && ae != "" && ee == ae
}

func canonicalEntry(cmd []string) string {
	if len(cmd) < 2 {
		return ""
	}
	return absOrSelf(cmd[1])
}

func absOrSelf(p string) string {
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
