package config

import (
	"reflect"
	"testing"
)

func TestEnvOverrides(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	cfg.Paths.ConfigPath = "/tmp/config" // avoid creation

	t.Setenv("HOLDTYPE_HOTKEY", "ctrl+shift+d")
	t.Setenv("HOLDTYPE_MOUSE_BUTTON", "middle")
	t.Setenv("HOLDTYPE_KEYBOARD_ENABLED", "0")
	t.Setenv("HOLDTYPE_CONTINUOUS_LISTEN", "false")
	t.Setenv("HOLDTYPE_METRICS_ADDR", "1.2.3.4:9999")
	t.Setenv("HOLDTYPE_LOG_LEVEL", "debug")
	t.Setenv("HOLDTYPE_LOG_FORMAT", "json")
	t.Setenv("LLM_CORRECT", "yes")
	t.Setenv("LLM_CORRECT_PROVIDER", "groq")
	t.Setenv("CHINESE_CONVERSION", "s2t")

	applyEnvOverrides(cfg)

	if cfg.Trigger.Hotkey != "ctrl+shift+d" || cfg.Trigger.MouseButton != "middle" {
		t.Fatalf("trigger overrides failed: %+v", cfg.Trigger)
	}
	if cfg.Trigger.KeyboardEnabled {
		t.Fatalf("keyboard should be disabled via env")
	}
	if cfg.Audio.ContinuousListen {
		t.Fatalf("continuous listen should be disabled via env")
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Addr != "1.2.3.4:9999" {
		t.Fatalf("metrics override failed: %+v", cfg.Metrics)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging overrides failed: %+v", cfg.Logging)
	}
	if !cfg.Correct.Enabled || cfg.Correct.Backend != "groq" {
		t.Fatalf("correction overrides failed: %+v", cfg.Correct)
	}
	if cfg.Text.ChineseConversion != "s2t" {
		t.Fatalf("conversion override failed: %q", cfg.Text.ChineseConversion)
	}
}

func TestEnvOverridesIdempotent(t *testing.T) {
	t.Setenv("HOLDTYPE_HOTKEY", "ctrl_r")
	t.Setenv("HOLDTYPE_MOUSE_ENABLED", "0")

	once, _ := Default()
	applyEnvOverrides(once)
	twice, _ := Default()
	applyEnvOverrides(twice)
	applyEnvOverrides(twice)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("applying overrides twice diverged:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.toml"

	cfg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	cfg.Paths.ConfigPath = path
	cfg.Trigger.Hotkey = "cmd+space"
	cfg.Transcribe.Backend = "groq"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Trigger.Hotkey != "cmd+space" {
		t.Fatalf("expected hotkey to persist, got %q", loaded.Trigger.Hotkey)
	}
	if loaded.Transcribe.Backend != "groq" {
		t.Fatalf("expected backend to persist, got %q", loaded.Transcribe.Backend)
	}
}

func TestParseBool(t *testing.T) {
	cases := []struct {
		in       string
		fallback bool
		want     bool
	}{
		{"1", false, true},
		{"true", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"0", true, false},
		{"false", true, false},
		{"gibberish", true, false},
		{"", true, true},
		{"  ", false, false},
	}
	for _, c := range cases {
		if got := ParseBool(c.in, c.fallback); got != c.want {
			t.Fatalf("ParseBool(%q, %v)=%v want %v", c.in, c.fallback, got, c.want)
		}
	}
}
