// Package report delivers operator-visible error messages. Failures in the
// pipeline never crash the daemon; they are logged, optionally forwarded to a
// registered handler, and optionally surfaced on the desktop through an
// external notify command.
package report

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
)

const notifyTimeout = 5 * time.Second

// Reporter fans error messages out to the log, an optional handler, and an
// optional external command.
type Reporter struct {
	logger *logrus.Logger

	mu      sync.Mutex
	notify  []string
	handler func(message string)
}

// New builds a Reporter. notifyCommand is a shell-style string; the message
// is appended as the final argument.
func New(logger *logrus.Logger, notifyCommand string) (*Reporter, error) {
	r := &Reporter{logger: logger}
	if strings.TrimSpace(notifyCommand) != "" {
		argv, err := shlex.Split(notifyCommand)
		if err != nil {
			return nil, fmt.Errorf("parse notify command: %w", err)
		}
		r.notify = argv
	}
	return r, nil
}

// SetHandler registers an in-process error handler. Passing nil removes it.
func (r *Reporter) SetHandler(fn func(message string)) {
	r.mu.Lock()
	r.handler = fn
	r.mu.Unlock()
}

// Errorf reports a formatted message.
func (r *Reporter) Errorf(format string, args ...any) {
	r.deliver(fmt.Sprintf(format, args...))
}

// Error reports a message with an underlying error attached.
func (r *Reporter) Error(message string, err error) {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	r.deliver(message)
}

func (r *Reporter) deliver(message string) {
	r.logger.Error(message)

	r.mu.Lock()
	handler := r.handler
	notify := r.notify
	r.mu.Unlock()

	if handler != nil {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Warnf("error handler panicked: %v", rec)
				}
			}()
			handler(message)
		}()
	}

	if len(notify) > 0 {
		go r.runNotify(notify, message)
	}
}

func (r *Reporter) runNotify(argv []string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	args := append(append([]string{}, argv[1:]...), message)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		r.logger.Warnf("notify command failed: %v (%s)", err, strings.TrimSpace(string(out)))
	}
}
