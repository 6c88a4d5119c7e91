// Package doctor runs environment diagnostics for the dictation daemon.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"holdtype/internal/config"
	"holdtype/internal/trigger"

	"github.com/gordonklaus/portaudio"
)

// Result represents a diagnostic check.
type Result struct {
	Name   string
	Pass   bool
	Detail string
}

// Run executes doctor checks.
func Run(cfg *config.Config) []Result {
	results := []Result{
		checkFile("config path", cfg.Paths.ConfigPath),
		checkTrigger(cfg),
		checkAPIKey(cfg),
	}
	if cfg.Transcribe.Backend == "whisper" {
		results = append(results, checkFile("model file", cfg.Transcribe.ModelPath))
	}
	if cfg.Notify.Command != "" {
		results = append(results, checkNotifyExecutable(cfg.Notify.Command))
	}
	results = append(results, checkPortAudioPkgConfig(), checkPortAudio())
	return results
}

func checkFile(label, path string) Result {
	if path == "" {
		return Result{Name: label, Pass: false, Detail: "not set"}
	}
	if _, err := os.Stat(os.ExpandEnv(path)); err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: path}
}

func checkTrigger(cfg *config.Config) Result {
	label := "trigger"
	if !cfg.Trigger.KeyboardEnabled && !cfg.Trigger.MouseEnabled {
		return Result{Name: label, Pass: false, Detail: "keyboard and mouse triggers both disabled; dictation is unreachable"}
	}
	if cfg.Trigger.KeyboardEnabled && cfg.Trigger.Hotkey != "" {
		if _, err := trigger.ParseHotkey(cfg.Trigger.Hotkey); err != nil {
			return Result{Name: label, Pass: false, Detail: err.Error()}
		}
	}
	if cfg.Trigger.MouseEnabled && cfg.Trigger.MouseButton != "" {
		if _, err := trigger.ParseMouseButton(cfg.Trigger.MouseButton); err != nil {
			return Result{Name: label, Pass: false, Detail: err.Error()}
		}
	}
	return Result{Name: label, Pass: true, Detail: describeTrigger(cfg)}
}

func describeTrigger(cfg *config.Config) string {
	var parts []string
	if cfg.Trigger.KeyboardEnabled && cfg.Trigger.Hotkey != "" {
		parts = append(parts, "hotkey "+cfg.Trigger.Hotkey)
	}
	if cfg.Trigger.MouseEnabled && cfg.Trigger.MouseButton != "" {
		parts = append(parts, "mouse "+cfg.Trigger.MouseButton)
	}
	if len(parts) == 0 {
		return "enabled, no binding configured"
	}
	return strings.Join(parts, ", ")
}

func checkAPIKey(cfg *config.Config) Result {
	label := "api key"
	switch cfg.Transcribe.Backend {
	case "whisper":
		return Result{Name: label, Pass: true, Detail: "not required for local whisper"}
	case "openai":
		if cfg.OpenAIKey() == "" {
			return Result{Name: label, Pass: false, Detail: "openai backend selected but no OPENAI_API_KEY"}
		}
	case "groq":
		if cfg.GroqKey() == "" {
			return Result{Name: label, Pass: false, Detail: "groq backend selected but no GROQ_API_KEY"}
		}
	default:
		if cfg.OpenAIKey() == "" && cfg.GroqKey() == "" {
			return Result{Name: label, Pass: false, Detail: "no OPENAI_API_KEY or GROQ_API_KEY available"}
		}
	}
	return Result{Name: label, Pass: true, Detail: "available"}
}

func checkNotifyExecutable(cmd string) Result {
	label := "notify.command"
	fields := strings.Fields(os.ExpandEnv(cmd))
	if len(fields) == 0 {
		return Result{Name: label, Pass: false, Detail: "not set"}
	}
	path := fields[0]
	if strings.Contains(path, "/") || strings.Contains(path, "\\") {
		info, err := os.Stat(path)
		if err != nil {
			return Result{Name: label, Pass: false, Detail: err.Error()}
		}
		if info.IsDir() {
			return Result{Name: label, Pass: false, Detail: "is a directory; set notify.command to an executable file"}
		}
		if info.Mode().Perm()&0o111 == 0 {
			return Result{Name: label, Pass: false, Detail: "not executable; chmod +x or choose another command"}
		}
		return Result{Name: label, Pass: true, Detail: path}
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: resolved}
}

func checkPortAudioPkgConfig() Result {
	pkg, err := exec.LookPath("pkg-config")
	if err != nil {
		return Result{Name: "pkg-config", Pass: false, Detail: "pkg-config not found (brew install pkg-config)"}
	}
	cmd := exec.Command(pkg, "--exists", "portaudio-2.0")
	if err := cmd.Run(); err != nil {
		return Result{Name: "portaudio pkg", Pass: false, Detail: "portaudio-2.0 not found (brew install portaudio)"}
	}
	versionCmd := exec.Command(pkg, "--modversion", "portaudio-2.0")
	if out, err := versionCmd.Output(); err == nil {
		return Result{Name: "portaudio pkg", Pass: true, Detail: strings.TrimSpace(string(out))}
	}
	return Result{Name: "portaudio pkg", Pass: true, Detail: "found via pkg-config"}
}

func checkPortAudio() Result {
	if err := portaudio.Initialize(); err != nil {
		return Result{Name: "portaudio", Pass: false, Detail: fmt.Sprintf("init failed: %v (install with: brew install portaudio)", err)}
	}
	defer func() {
		_ = portaudio.Terminate()
	}()
	return Result{Name: "portaudio", Pass: true, Detail: "ok"}
}
