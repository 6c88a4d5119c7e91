package report

import (
	"testing"

	"holdtype/internal/logging"
)

func TestHandlerReceivesMessage(t *testing.T) {
	r, err := New(logging.NewTestLogger(), "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var got string
	r.SetHandler(func(msg string) { got = msg })
	r.Errorf("device %s not found", "mic0")
	if got != "device mic0 not found" {
		t.Fatalf("handler got %q", got)
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	r, err := New(logging.NewTestLogger(), "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	r.SetHandler(func(string) { panic("boom") })
	r.Error("something failed", nil) // must not propagate the panic
}

func TestBadNotifyCommandRejected(t *testing.T) {
	if _, err := New(logging.NewTestLogger(), `notify-send "unterminated`); err == nil {
		t.Fatalf("expected parse error for unterminated quote")
	}
}
