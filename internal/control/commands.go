package control

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"

	"holdtype/internal/audio"
	"holdtype/internal/config"
	"holdtype/internal/doctor"
	"holdtype/internal/inject"
	"holdtype/internal/launchd"
	"holdtype/internal/transcribe"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"
)

func dialDaemon(cfg *config.Config) (net.Conn, error) {
	conn, err := net.Dial("unix", cfg.Paths.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to daemon: %w", err)
	}
	return conn, nil
}

func simpleOp(cfgPath *string, op string) error {
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	conn, err := dialDaemon(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := json.NewEncoder(conn).Encode(Request{Op: op}); err != nil {
		return err
	}
	var resp SimpleResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("%s failed: %s", op, resp.Message)
	}
	fmt.Println(resp.Message)
	return nil
}

// NewStatusCmd queries daemon status.
func NewStatusCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			conn, err := dialDaemon(cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := json.NewEncoder(conn).Encode(Request{Op: "status"}); err != nil {
				return err
			}
			var status Status
			if err := json.NewDecoder(conn).Decode(&status); err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(status)
			}
			state := "listening"
			if status.Paused {
				state = "paused"
			}
			fmt.Printf("running: %v (%s)\nuptime: %.1fs\nbackend: %s\ntrigger: %s\nsessions: %d  transcribed: %d  skipped: %d  errors: %d\n",
				status.Running, state, status.UptimeSec, status.Backend, status.Trigger,
				status.Sessions, status.Transcribed, status.Skipped, status.Errors)
			for _, t := range status.Transcripts {
				fmt.Printf("%s  %s\n", t.Timestamp.Format("15:04:05"), t.Text)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "output JSON")
	return cmd
}

// NewPauseCmd suspends dictation in the running daemon.
func NewPauseCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause dictation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return simpleOp(cfgPath, "pause")
		},
	}
}

// NewResumeCmd re-enables dictation in the running daemon.
func NewResumeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume dictation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return simpleOp(cfgPath, "resume")
		},
	}
}

// NewReloadCmd asks the daemon to reload config.
func NewReloadCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload config in the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return simpleOp(cfgPath, "reload")
		},
	}
}

// NewHealthCmd pings the daemon.
func NewHealthCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the daemon responds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return simpleOp(cfgPath, "health")
		},
	}
}

// NewTailLogCmd tails the main log file (simple last N lines).
func NewTailLogCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tail-log",
		Short: "Show last 50 log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			return tailFile(cfg.Paths.LogPath, 50)
		},
	}
}

func tailFile(path string, n int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			fmt.Println(l)
		}
	}
	return nil
}

// NewMicCmd groups microphone subcommands.
func NewMicCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mic",
		Short: "Manage microphone selection",
	}
	cmd.AddCommand(newMicListCmd(), newMicSetCmd(cfgPath))
	return cmd
}

func newMicListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available input devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := portaudio.Initialize(); err != nil {
				return fmt.Errorf("portaudio init: %w", err)
			}
			defer func() { _ = portaudio.Terminate() }()
			devices, err := audio.ListInputDevices()
			if err != nil {
				return err
			}
			for _, d := range devices {
				marker := " "
				if d.Default {
					marker = "*"
				}
				fmt.Printf("%s [%d] %s (%d ch, %.1fms latency)\n", marker, d.Index, d.Name, d.Channels, d.LatencyMs)
			}
			return nil
		},
	}
}

func newMicSetCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Set microphone device name in config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			cfg.Audio.DeviceName = args[0]
			if err := config.Save(cfg, cfg.Paths.ConfigPath); err != nil {
				return err
			}
			fmt.Printf("mic set to %q in %s\n", args[0], cfg.Paths.ConfigPath)
			return nil
		},
	}
}

// NewTranscribeCmd transcribes a WAV file through the configured backend and
// optionally types the result.
func NewTranscribeCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcribe <wavfile>",
		Short: "Transcribe a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			wavData, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if _, _, _, err := audio.DecodeWAV(wavData); err != nil {
				return fmt.Errorf("not a usable WAV file: %w", err)
			}
			provider, err := transcribe.New(transcribe.Options{
				Backend:   cfg.Transcribe.Backend,
				Model:     cfg.Transcribe.Model,
				Prompt:    cfg.Transcribe.Prompt,
				BaseURL:   transcribe.NormalizeBaseURL(cfg.Transcribe.BaseURL),
				ModelPath: cfg.Transcribe.ModelPath,
				OpenAIKey: cfg.OpenAIKey(),
				GroqKey:   cfg.GroqKey(),
			})
			if err != nil {
				return err
			}
			text, err := provider.Transcribe(cmd.Context(), wavData)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)

			if doType, _ := cmd.Flags().GetBool("type"); doType {
				return inject.NewRobotgoTyper().Type(text)
			}
			return nil
		},
	}
	cmd.Flags().Bool("type", false, "also inject the transcript as keystrokes")
	return cmd
}

// NewDoctorCmd runs environment checks.
func NewDoctorCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check dependencies and config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			results := doctor.Run(cfg)
			exitCode := 0
			for _, r := range results {
				status := "ok"
				if !r.Pass {
					status = "fail"
					exitCode = 1
				}
				fmt.Printf("%-14s %-4s %s\n", r.Name, status, r.Detail)
			}
			if exitCode != 0 {
				return fmt.Errorf("doctor found issues")
			}
			return nil
		},
	}
}

// NewServiceCmd manages the launchd user agent (macOS).
func NewServiceCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage launchd service (macOS)",
	}
	cmd.AddCommand(newServiceInstallCmd(cfgPath))
	cmd.AddCommand(newServiceUninstallCmd())
	cmd.AddCommand(newServiceStatusCmd())
	return cmd
}

func newServiceInstallCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install user launchd service (macOS)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return err
			}
			envPairs, _ := cmd.Flags().GetStringArray("env")
			env := make(map[string]string)
			for _, p := range envPairs {
				parts := strings.SplitN(p, "=", 2)
				if len(parts) != 2 {
					return fmt.Errorf("bad env %q, want KEY=VAL", p)
				}
				env[parts[0]] = parts[1]
			}
			params := launchd.Params{
				Label:  launchd.Label,
				Binary: exe,
				Config: cfg.Paths.ConfigPath,
				Log:    cfg.Paths.LogPath,
				Env:    env,
			}
			path, err := launchd.WritePlist(params)
			if err != nil {
				return err
			}
			fmt.Printf("launchd plist written: %s\n", path)
			fmt.Println("Load:   launchctl load -w", path)
			fmt.Printf("Start:  launchctl kickstart gui/$(id -u)/%s\n", params.Label)
			fmt.Printf("Stop:   launchctl bootout gui/$(id -u)/%s\n", params.Label)
			return nil
		},
	}
	cmd.Flags().StringArray("env", nil, "Env to set in launchd plist (KEY=VAL)")
	return cmd
}

func newServiceUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Remove user launchd plist (macOS)",
		RunE: func(cmd *cobra.Command, args []string) error {
			plist := launchd.Path(launchd.Label)
			_ = os.Remove(plist)
			fmt.Printf("removed %s (if present); unload manually with: launchctl bootout gui/$(id -u) %s\n", plist, plist)
			return nil
		},
	}
}

func newServiceStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show launchd plist path and whether it exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, ok := launchd.Status(launchd.Label)
			fmt.Printf("plist: %s\n", path)
			if ok {
				fmt.Println("status: present (load with: launchctl load -w", path, ")")
			} else {
				fmt.Println("status: missing (install via: holdtype service install)")
			}
			return nil
		},
	}
}
