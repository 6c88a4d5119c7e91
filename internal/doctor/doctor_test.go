package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"holdtype/internal/config"
)

func TestCheckTriggerBothDisabled(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Trigger.KeyboardEnabled = false
	cfg.Trigger.MouseEnabled = false
	if r := checkTrigger(cfg); r.Pass {
		t.Errorf("both triggers disabled should fail: %+v", r)
	}
}

func TestCheckTriggerBadHotkey(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Trigger.Hotkey = "???+???"
	if r := checkTrigger(cfg); r.Pass {
		t.Errorf("unparseable hotkey should fail: %+v", r)
	}
	cfg.Trigger.Hotkey = "ctrl_r"
	if r := checkTrigger(cfg); !r.Pass {
		t.Errorf("default hotkey should pass: %+v", r)
	}
}

func TestCheckAPIKeyWhisperBackend(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Transcribe.Backend = "whisper"
	if r := checkAPIKey(cfg); !r.Pass {
		t.Errorf("whisper backend needs no key: %+v", r)
	}
}

func TestCheckAPIKeyMissing(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Transcribe.Backend = "openai"
	if r := checkAPIKey(cfg); r.Pass {
		t.Errorf("missing openai key should fail: %+v", r)
	}
	cfg.Keys.OpenAI = "sk-test"
	if r := checkAPIKey(cfg); !r.Pass {
		t.Errorf("configured key should pass: %+v", r)
	}
}

func TestCheckFile(t *testing.T) {
	if r := checkFile("config path", ""); r.Pass {
		t.Error("empty path should fail")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if r := checkFile("config path", path); r.Pass {
		t.Error("missing file should fail")
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := checkFile("config path", path); !r.Pass {
		t.Errorf("existing file should pass: %+v", r)
	}
}

func TestCheckNotifyExecutable(t *testing.T) {
	if r := checkNotifyExecutable("sh -c 'echo hi'"); !r.Pass {
		t.Errorf("sh should resolve on PATH: %+v", r)
	}
	if r := checkNotifyExecutable("/no/such/binary --flag"); r.Pass {
		t.Error("missing binary should fail")
	}
}
