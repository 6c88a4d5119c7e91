// Package daemon implements the start/stop/restart/serve lifecycle commands.
// Ownership is tracked through the single-instance lock file rather than a
// separate pid file.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"holdtype/internal/config"
	"holdtype/internal/lock"
	"holdtype/internal/logging"
	"holdtype/internal/run"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewStartCmd starts the daemon in the background.
func NewStartCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start holdtype daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if pid, running := runningPID(cfg); running {
				fmt.Printf("holdtype already running (pid %d)\n", pid)
				return nil
			}
			self, err := os.Executable()
			if err != nil {
				return err
			}
			child := exec.Command(self, "serve", "--config", cfg.Paths.ConfigPath)
			child.Env = os.Environ()
			if backend := cmd.Flag("backend").Value.String(); backend != "" {
				child.Env = append(child.Env, "HOLDTYPE_BACKEND="+backend)
			}
			if addr := cmd.Flag("metrics-addr").Value.String(); addr != "" {
				child.Env = append(child.Env, "HOLDTYPE_METRICS_ADDR="+addr)
			}
			child.Stdout = os.Stdout
			child.Stderr = os.Stderr
			if err := child.Start(); err != nil {
				return err
			}
			// Confirm the lock file appears before declaring success.
			lockPath := lock.PathFor(cfg.Lock.Name)
			for waited := 0; waited < 20; waited++ {
				if _, err := os.Stat(lockPath); err == nil {
					break
				}
				time.Sleep(100 * time.Millisecond)
			}
			fmt.Printf("holdtype started (pid %d)\n", child.Process.Pid)
			return nil
		},
	}
	cmd.Flags().String("backend", "", "transcription backend for this run (openai, groq, whisper)")
	cmd.Flags().String("metrics-addr", "", "enable metrics at address (e.g., 127.0.0.1:9321) for this run")
	return cmd
}

// NewServeCmd runs the daemon in the foreground.
func NewServeCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:    "serve",
		Short:  "Run holdtype daemon (internal)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// API keys commonly live in a .env next to the working directory.
			_ = godotenv.Load()

			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			logger, err := logging.Configure(cfg)
			if err != nil {
				return err
			}
			err = run.Serve(cfg, logger)
			if errors.Is(err, lock.ErrTakeoverTimeout) {
				// Treated as "another instance is running", not a failure.
				fmt.Println("another holdtype instance is running")
				return nil
			}
			return err
		},
	}
	return cmd
}

// NewStopCmd signals the running daemon through its lock record.
func NewStopCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop holdtype daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			rec, err := lock.ReadRecord(lock.PathFor(cfg.Lock.Name))
			if err != nil {
				return fmt.Errorf("daemon does not appear to be running: %w", err)
			}
			proc, err := os.FindProcess(rec.PID)
			if err != nil {
				return err
			}
			if err := proc.Signal(syscall.SIGTERM); err != nil {
				return err
			}
			fmt.Println("stop signal sent")
			return nil
		},
	}
}

// NewRestartCmd stops then starts.
func NewRestartCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart holdtype daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stopCmd := NewStopCmd(cfgPath)
			_ = stopCmd.RunE(stopCmd, args) // ignore error if not running

			if err := waitForShutdown(*cfgPath, 5*time.Second); err != nil {
				return err
			}

			startCmd := NewStartCmd(cfgPath)
			return startCmd.RunE(startCmd, args)
		},
	}
}

// runningPID reports whether the lock record points at a live process.
func runningPID(cfg *config.Config) (int, bool) {
	rec, err := lock.ReadRecord(lock.PathFor(cfg.Lock.Name))
	if err != nil || rec.PID <= 0 {
		return 0, false
	}
	proc, err := os.FindProcess(rec.PID)
	if err != nil {
		return 0, false
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return 0, false
	}
	return rec.PID, true
}

func waitForShutdown(cfgPath string, timeout time.Duration) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	lockPath := lock.PathFor(cfg.Lock.Name)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		rec, err := lock.ReadRecord(lockPath)
		if err != nil {
			return nil // lock file gone
		}
		proc, _ := os.FindProcess(rec.PID)
		if proc != nil {
			if err := proc.Signal(syscall.Signal(0)); err != nil {
				_ = os.Remove(lockPath)
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("restart: daemon did not stop within %s", timeout)
}
