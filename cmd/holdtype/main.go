package main

import (
	"fmt"
	"os"

	"holdtype/internal/control"
	"holdtype/internal/daemon"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	root := &cobra.Command{
		Use:   "holdtype",
		Short: "Holdtype — push-to-talk dictation daemon",
		Long: `Holdtype watches for a held trigger (hotkey or mouse button), records your mic
while the trigger is down, transcribes the audio (OpenAI, Groq, or local
whisper.cpp), optionally corrects it with an LLM, and types the result into
the focused application.

Key commands:
  start|stop|restart        Daemon lifecycle
  status [--json]           Uptime, counters, last transcripts
  pause|resume              Suspend/resume dictation without stopping
  mic list|set              Select microphone
  transcribe <file.wav>     One-shot file transcription
  doctor|setup              Check deps / download local whisper model
  service install|uninstall|status   launchd helper (macOS)
  health|tail-log|reload    Liveness, log tail, config reload

Notable flags/env:
  --metrics-addr <addr>     Enable /metrics (Prometheus text)
  --backend <name>          Transcription backend for this run
  Env overrides: HOLDTYPE_HOTKEY, HOLDTYPE_MOUSE_BUTTON, HOLDTYPE_BACKEND,
                 HOLDTYPE_CONTINUOUS_LISTEN, CHINESE_CONVERSION,
                 LLM_CORRECT, LLM_CORRECT_PROVIDER/MODEL/PROMPT,
                 HOLDTYPE_LOG_LEVEL/FORMAT, OPENAI_API_KEY, GROQ_API_KEY`,
		Example: `  holdtype start --metrics-addr 127.0.0.1:9321
  holdtype status
  holdtype pause
  holdtype mic list
  holdtype transcribe note.wav
  holdtype service install --env GROQ_API_KEY=gsk_...
  holdtype reload`,
		DisableFlagsInUseLine: true,
	}

	root.Version = version
	root.SetVersionTemplate("Holdtype v{{.Version}}\n")

	cfgPath := root.PersistentFlags().StringP("config", "c", "", "Path to config file (TOML). Defaults to ~/.config/holdtype/config.toml")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(daemon.NewStartCmd(cfgPath))
	root.AddCommand(daemon.NewStopCmd(cfgPath))
	root.AddCommand(daemon.NewRestartCmd(cfgPath))
	root.AddCommand(control.NewStatusCmd(cfgPath))
	root.AddCommand(control.NewPauseCmd(cfgPath))
	root.AddCommand(control.NewResumeCmd(cfgPath))
	root.AddCommand(control.NewReloadCmd(cfgPath))
	root.AddCommand(control.NewHealthCmd(cfgPath))
	root.AddCommand(control.NewTailLogCmd(cfgPath))
	root.AddCommand(control.NewMicCmd(cfgPath))
	root.AddCommand(control.NewTranscribeCmd(cfgPath))
	root.AddCommand(control.NewDoctorCmd(cfgPath))
	root.AddCommand(control.NewSetupCmd(cfgPath))
	root.AddCommand(control.NewServiceCmd(cfgPath))

	// Hidden internal serve command used by start.
	root.AddCommand(daemon.NewServeCmd(cfgPath))

	applyColorHelp(root)

	return root.Execute()
}

func applyColorHelp(root *cobra.Command) {
	const (
		boldBlue = "\033[1;34m"
		green    = "\033[32m"
		bold     = "\033[1m"
		dim      = "\033[2m"
		reset    = "\033[0m"
	)
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		write := func(format string, args ...any) { _, _ = fmt.Fprintf(out, format, args...) }
		writeln := func(line string) { _, _ = fmt.Fprintln(out, line) }

		write("%sHoldtype%s — push-to-talk dictation daemon %s(v%s)%s\n", boldBlue, reset, dim, version, reset)
		write("%sHold the trigger, speak, release: your words get typed where you are.%s\n\n", dim, reset)

		write("%sUsage%s\n", bold, reset)
		write("  holdtype [command] [flags]\n\n")

		write("%sKey commands%s\n", bold, reset)
		writeln("  start|stop|restart          daemon lifecycle")
		writeln("  status [--json]             uptime, counters, last transcripts")
		writeln("  pause|resume                suspend dictation without stopping")
		writeln("  mic list|set                select input device")
		writeln("  transcribe <file.wav>       one-shot file transcription")
		writeln("  doctor                      check trigger/keys/portaudio")
		writeln("  setup                       download local whisper model")
		writeln("  service install|uninstall|status manage launchd plist (macOS)")
		writeln("  health                      control-socket liveness ping")
		writeln("  reload                      re-apply config in running daemon")
		writeln("  tail-log                    show last log lines")
		writeln("")

		write("%sNotable flags & env%s\n", bold, reset)
		writeln("  --metrics-addr <addr>   enable /metrics (Prometheus)")
		writeln("  --backend <name>        transcription backend for this run")
		writeln("  -c, --config <path>     config file (default ~/.config/holdtype/config.toml)")
		writeln("  Env: HOLDTYPE_HOTKEY=ctrl_r, HOLDTYPE_MOUSE_BUTTON=middle,")
		writeln("       HOLDTYPE_BACKEND=groq, CHINESE_CONVERSION=s2t,")
		writeln("       LLM_CORRECT=1, LLM_CORRECT_PROVIDER=groq,")
		writeln("       HOLDTYPE_LOG_LEVEL=debug, HOLDTYPE_LOG_FORMAT=json")
		writeln("")

		write("%sExamples%s\n", bold, reset)
		writeln("  holdtype start --metrics-addr 127.0.0.1:9321")
		writeln("  holdtype status")
		writeln("  holdtype pause && holdtype resume")
		writeln("  holdtype mic list")
		writeln("  holdtype transcribe note.wav")
		writeln("  holdtype service install --env GROQ_API_KEY=gsk_...")
		writeln("")

		write("%sCommands%s\n", bold, reset)
		for _, c := range cmd.Commands() {
			if c.Hidden {
				continue
			}
			write("  %s%-15s%s %s\n", green, c.Name(), reset, c.Short)
		}
	})
}
