package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"holdtype/internal/config"
	"holdtype/internal/lock"
)

func writeTestConfig(t *testing.T, lockName string) string {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Lock.Name = lockName
	path := filepath.Join(dir, "config.toml")
	if err := config.Save(cfg, path); err != nil {
		t.Fatalf("save cfg: %v", err)
	}
	return path
}

func writeLockRecord(t *testing.T, name string, pid int) string {
	t.Helper()
	path := lock.PathFor(name)
	data, err := json.Marshal(lock.Record{PID: pid})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	return path
}

func TestWaitForShutdownSucceedsWhenLockRemoved(t *testing.T) {
	name := fmt.Sprintf("holdtype-test-%d", os.Getpid())
	cfgPath := writeTestConfig(t, name)
	lockPath := writeLockRecord(t, name, 900000)

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.Remove(lockPath)
	}()
	if err := waitForShutdown(cfgPath, 2*time.Second); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestWaitForShutdownTimesOutOnAlivePid(t *testing.T) {
	name := fmt.Sprintf("holdtype-test-alive-%d", os.Getpid())
	cfgPath := writeTestConfig(t, name)
	writeLockRecord(t, name, os.Getpid())

	if err := waitForShutdown(cfgPath, 300*time.Millisecond); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestWaitForShutdownCleansDeadPid(t *testing.T) {
	name := fmt.Sprintf("holdtype-test-dead-%d", os.Getpid())
	cfgPath := writeTestConfig(t, name)
	// PID far beyond pid_max on any sane system.
	lockPath := writeLockRecord(t, name, 4000000)

	if err := waitForShutdown(cfgPath, 2*time.Second); err != nil {
		t.Fatalf("expected success for dead pid, got %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("stale lock file should have been removed")
	}
}

func TestRunningPID(t *testing.T) {
	name := fmt.Sprintf("holdtype-test-run-%d", os.Getpid())
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Lock.Name = name

	if _, running := runningPID(cfg); running {
		t.Fatal("no lock file: should not report running")
	}

	writeLockRecord(t, name, os.Getpid())
	pid, running := runningPID(cfg)
	if !running || pid != os.Getpid() {
		t.Fatalf("runningPID = %d,%v; want own pid", pid, running)
	}
}
