package lock

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	lg := logrus.New()
	lg.SetOutput(io.Discard)
	return lg
}

func testLock(t *testing.T, opts ...Option) *FileLock {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holdtype-test.pid.json")
	all := append([]Option{WithPath(path), WithLogger(quietLogger())}, opts...)
	return New("holdtype-test", all...)
}

func writeRecord(t *testing.T, path string, rec Record) {
	t.Helper()
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func readRecord(t *testing.T, path string) Record {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestAcquireAndRelease(t *testing.T) {
	l := testLock(t)
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	rec := readRecord(t, l.Path())
	if rec.PID != os.Getpid() {
		t.Errorf("recorded pid = %d, want %d", rec.PID, os.Getpid())
	}
	if len(rec.Cmdline) == 0 {
		t.Error("recorded cmdline is empty")
	}

	l.Release()
	if _, err := os.Stat(l.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("lock file still present after release: %v", err)
	}
	// Idempotent.
	l.Release()
}

func TestAcquireRemovesUnreadableFile(t *testing.T) {
	l := testLock(t)
	if err := os.WriteFile(l.Path(), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire over garbage file: %v", err)
	}
	defer l.Release()
	if got := readRecord(t, l.Path()).PID; got != os.Getpid() {
		t.Errorf("pid = %d, want %d", got, os.Getpid())
	}
}

func TestAcquireRemovesRecordFromPreviousBoot(t *testing.T) {
	l := testLock(t)
	// A live pid, but a boot signature from long before the current boot:
	// the record must count as stale without touching the process.
	writeRecord(t, l.Path(), Record{
		PID:      os.Getpid(),
		Cmdline:  os.Args,
		BootTime: bootSignature() - 10000,
	})
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire over pre-reboot record: %v", err)
	}
	l.Release()
}

func TestAcquireRemovesDeadOwner(t *testing.T) {
	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Kill()
	_ = cmd.Wait()

	l := testLock(t)
	writeRecord(t, l.Path(), Record{PID: pid, BootTime: bootSignature()})
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire over dead owner: %v", err)
	}
	l.Release()
}

func TestAcquireRemovesMismatchedCmdline(t *testing.T) {
	l := testLock(t)
	// Our own pid is alive, but the recorded command is a different program:
	// the pid was recycled and the record is stale.
	writeRecord(t, l.Path(), Record{
		PID:      os.Getpid(),
		Cmdline:  []string{"/bin/definitely-not-this-binary", "--flag"},
		BootTime: bootSignature(),
	})
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire over recycled pid: %v", err)
	}
	l.Release()
}

func TestAcquireTerminatesLiveOwner(t *testing.T) {
	cmd := exec.Command("sleep", "60")
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	l := testLock(t, WithWait(5*time.Second), WithPoll(50*time.Millisecond))
	// Empty cmdline in the record skips the command comparison, so the live
	// sleep process passes for a genuine previous instance.
	writeRecord(t, l.Path(), Record{PID: cmd.Process.Pid, BootTime: bootSignature()})

	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire with live owner: %v", err)
	}
	l.Release()

	err := cmd.Wait()
	if err == nil {
		t.Error("owner exited cleanly, expected termination signal")
	}
}

func TestAcquireTakeoverTimeout(t *testing.T) {
	cmd := exec.Command("sh", "-c", `trap "" TERM; sleep 60`)
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})
	// Give the shell a moment to install the trap.
	time.Sleep(200 * time.Millisecond)

	l := testLock(t, WithWait(700*time.Millisecond), WithPoll(50*time.Millisecond))
	writeRecord(t, l.Path(), Record{PID: cmd.Process.Pid, BootTime: bootSignature()})

	err := l.Acquire()
	if !errors.Is(err, ErrTakeoverTimeout) {
		t.Fatalf("err = %v, want ErrTakeoverTimeout", err)
	}
}

func TestReleaseLeavesForeignLock(t *testing.T) {
	l := testLock(t)
	if err := l.Acquire(); err != nil {
		t.Fatal(err)
	}
	// Another process re-acquired after us (simulated by rewriting the
	// record); our release must not delete their lock.
	writeRecord(t, l.Path(), Record{PID: os.Getpid() + 1, BootTime: bootSignature()})
	l.Release()
	if _, err := os.Stat(l.Path()); err != nil {
		t.Errorf("foreign lock file was deleted: %v", err)
	}
}

func TestCommandsEquivalent(t *testing.T) {
	cases := []struct {
		name     string
		expected []string
		actual   []string
		want     bool
	}{
		{"exact match", []string{"/usr/bin/holdtype", "serve"}, []string{"/usr/bin/holdtype", "serve"}, true},
		{"empty expected", nil, []string{"/usr/bin/holdtype"}, false},
		{"empty actual", []string{"/usr/bin/holdtype"}, nil, false},
		{"different executable", []string{"/usr/bin/holdtype", "serve"}, []string{"/usr/bin/other", "serve"}, false},
		{"same exe no entries", []string{"/usr/bin/holdtype"}, []string{"/usr/bin/holdtype", "serve"}, false},
		{"same exe same entry", []string{"/usr/bin/holdtype", "/opt/app/run"}, []string{"/usr/bin/holdtype", "/opt/app/run"}, true},
		{"same exe different entry", []string{"/usr/bin/holdtype", "/opt/a"}, []string{"/usr/bin/holdtype", "/opt/b"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := commandsEquivalent(tc.expected, tc.actual); got != tc.want {
				t.Errorf("commandsEquivalent(%v, %v) = %v, want %v", tc.expected, tc.actual, got, tc.want)
			}
		})
	}
}
