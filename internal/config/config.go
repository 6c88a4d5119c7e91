package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultHotkey        = "ctrl_r"
	DefaultSampleRate    = 16000
	defaultSilencePeak   = 300
	defaultSilenceMinMS  = 100
	defaultHistorySize   = 10
	defaultStatusTail    = 10
	defaultLockWaitSec   = 5.0
	defaultLockPollMS    = 100
	defaultBootTolerance = 1.0
	defaultStateDirLinux = ".local/state/holdtype"
	defaultConfigDir     = ".config/holdtype"
)

// Config holds user configuration loaded from TOML.
type Config struct {
	Trigger struct {
		Hotkey          string `toml:"hotkey"`
		MouseButton     string `toml:"mouse_button"`
		KeyboardEnabled bool   `toml:"keyboard_enabled"`
		MouseEnabled    bool   `toml:"mouse_enabled"`
	} `toml:"trigger"`

	Audio struct {
		DeviceName       string `toml:"device_name"`
		SampleRate       int    `toml:"sample_rate"`
		FrameMS          int    `toml:"frame_ms"`
		ContinuousListen bool   `toml:"continuous_listen"`
	} `toml:"audio"`

	Silence struct {
		PeakThreshold int `toml:"peak_threshold"`
		MinDurationMS int `toml:"min_duration_ms"`
	} `toml:"silence"`

	VAD struct {
		Enabled        bool `toml:"enabled"`
		Aggressiveness int  `toml:"aggressiveness"`
	} `toml:"vad"`

	Transcribe struct {
		Backend   string `toml:"backend"` // openai, groq, whisper; empty = auto
		Model     string `toml:"model"`
		Prompt    string `toml:"prompt"`
		BaseURL   string `toml:"base_url"`
		ModelPath string `toml:"model_path"` // whisper backend only
	} `toml:"transcribe"`

	Correct struct {
		Enabled     bool   `toml:"enabled"`
		Backend     string `toml:"backend"` // openai, groq
		Model       string `toml:"model"`
		Prompt      string `toml:"prompt"`
		HistorySize int    `toml:"history_size"`
	} `toml:"correct"`

	Keys struct {
		OpenAI string `toml:"openai"`
		Groq   string `toml:"groq"`
	} `toml:"keys"`

	Text struct {
		ChineseConversion string `toml:"chinese_conversion"`
	} `toml:"text"`

	Notify struct {
		Command string `toml:"command"` // external error reporter, shell-style string
	} `toml:"notify"`

	Lock struct {
		Name             string  `toml:"name"`
		WaitSec          float64 `toml:"wait_sec"`
		PollMS           int     `toml:"poll_ms"`
		BootToleranceSec float64 `toml:"boot_tolerance_sec"`
	} `toml:"lock"`

	Logging struct {
		Level  string `toml:"level"`  // debug, info, warn, error
		Format string `toml:"format"` // text, json
		Stdout bool   `toml:"stdout"`
	} `toml:"logging"`

	Paths struct {
		StateDir       string `toml:"state_dir"`
		LogPath        string `toml:"log_path"`
		TranscriptPath string `toml:"transcript_path"`
		SocketPath     string `toml:"socket_path"`
		ConfigPath     string `toml:"-"`
	} `toml:"paths"`

	UI struct {
		StatusTail int `toml:"status_tail"`
	} `toml:"ui"`

	Metrics struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"metrics"`

	Transcripts struct {
		Enabled bool `toml:"enabled"`
	} `toml:"transcripts"`
}

// Default returns Config populated with defaults.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	stateDir := filepath.Join(home, defaultStateDirLinux)
	// macOS prefers ~/Library/Application Support/holdtype for state/logs
	if isMac() {
		stateDir = filepath.Join(home, "Library", "Application Support", "holdtype")
	}

	cfg := &Config{}

	cfg.Trigger.Hotkey = DefaultHotkey
	cfg.Trigger.MouseButton = ""
	cfg.Trigger.KeyboardEnabled = true
	cfg.Trigger.MouseEnabled = true

	cfg.Audio.SampleRate = DefaultSampleRate
	cfg.Audio.FrameMS = 20
	cfg.Audio.ContinuousListen = true

	cfg.Silence.PeakThreshold = defaultSilencePeak
	cfg.Silence.MinDurationMS = defaultSilenceMinMS

	cfg.VAD.Enabled = false
	cfg.VAD.Aggressiveness = 2

	cfg.Transcribe.Backend = ""
	cfg.Transcribe.Model = ""
	cfg.Transcribe.Prompt = "Hello, this is a properly structured message. GPT, ChatGPT."
	cfg.Transcribe.ModelPath = filepath.Join(stateDir, "models", "ggml-medium-q5_1.bin")

	cfg.Correct.Enabled = false
	cfg.Correct.Backend = "openai"
	cfg.Correct.HistorySize = defaultHistorySize

	cfg.Lock.Name = "holdtype"
	cfg.Lock.WaitSec = defaultLockWaitSec
	cfg.Lock.PollMS = defaultLockPollMS
	cfg.Lock.BootToleranceSec = defaultBootTolerance

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	cfg.Paths.StateDir = stateDir
	cfg.Paths.LogPath = filepath.Join(stateDir, "holdtype.log")
	cfg.Paths.TranscriptPath = filepath.Join(stateDir, "transcripts.log")
	cfg.Paths.SocketPath = filepath.Join(stateDir, "holdtype.sock")

	cfg.UI.StatusTail = defaultStatusTail

	cfg.Metrics.Enabled = false
	cfg.Metrics.Addr = "127.0.0.1:9321"

	cfg.Transcripts.Enabled = true

	return cfg, nil
}

// Load loads config from file, applying defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, defaultConfigDir, "config.toml")
	}

	// Read if exists; otherwise write template.
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, err
			}
			if err := Save(cfg, path); err != nil {
				return nil, err
			}
			cfg.Paths.ConfigPath = path
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Paths.ConfigPath = path
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes cfg to path.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

func isMac() bool {
	return runtime.GOOS == "darwin"
}

// MustStatePaths ensures state dirs exist.
func MustStatePaths(cfg *Config) error {
	for _, p := range []string{cfg.Paths.StateDir, filepath.Dir(cfg.Paths.LogPath), filepath.Dir(cfg.Paths.TranscriptPath)} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// OpenAIKey returns the configured OpenAI key, falling back to the environment.
func (c *Config) OpenAIKey() string {
	if c.Keys.OpenAI != "" {
		return c.Keys.OpenAI
	}
	return os.Getenv("OPENAI_API_KEY")
}

// GroqKey returns the configured Groq key, falling back to the environment.
func (c *Config) GroqKey() string {
	if c.Keys.Groq != "" {
		return c.Keys.Groq
	}
	return os.Getenv("GROQ_API_KEY")
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("HOLDTYPE_HOTKEY"); ok {
		cfg.Trigger.Hotkey = v
	}
	if v, ok := os.LookupEnv("HOLDTYPE_MOUSE_BUTTON"); ok {
		cfg.Trigger.MouseButton = v
	}
	if v := os.Getenv("HOLDTYPE_KEYBOARD_ENABLED"); v != "" {
		cfg.Trigger.KeyboardEnabled = ParseBool(v, cfg.Trigger.KeyboardEnabled)
	}
	if v := os.Getenv("HOLDTYPE_MOUSE_ENABLED"); v != "" {
		cfg.Trigger.MouseEnabled = ParseBool(v, cfg.Trigger.MouseEnabled)
	}
	if v := os.Getenv("HOLDTYPE_CONTINUOUS_LISTEN"); v != "" {
		cfg.Audio.ContinuousListen = ParseBool(v, cfg.Audio.ContinuousListen)
	}
	if v := os.Getenv("HOLDTYPE_BACKEND"); v != "" {
		cfg.Transcribe.Backend = v
	}
	if v := os.Getenv("CHINESE_CONVERSION"); v != "" {
		cfg.Text.ChineseConversion = v
	}
	if v := os.Getenv("LLM_CORRECT"); v != "" {
		cfg.Correct.Enabled = ParseBool(v, cfg.Correct.Enabled)
	}
	if v := os.Getenv("LLM_CORRECT_PROVIDER"); v != "" {
		cfg.Correct.Backend = v
	}
	if v := os.Getenv("LLM_CORRECT_MODEL"); v != "" {
		cfg.Correct.Model = v
	}
	if v := os.Getenv("LLM_CORRECT_PROMPT"); v != "" {
		cfg.Correct.Prompt = v
	}
	if v := os.Getenv("HOLDTYPE_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
		cfg.Metrics.Enabled = true
	}
	if v := os.Getenv("HOLDTYPE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HOLDTYPE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("HOLDTYPE_TRANSCRIPTS_ENABLED"); v != "" {
		cfg.Transcripts.Enabled = ParseBool(v, cfg.Transcripts.Enabled)
	}
}

// ParseBool interprets common truthy strings, returning fallback when the
// value is empty or unrecognized garbage is treated as false.
func ParseBool(v string, fallback bool) bool {
	s := strings.TrimSpace(strings.ToLower(v))
	if s == "" {
		return fallback
	}
	switch s {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
