// Package service runs the dictation pipeline: trigger edges open and close
// recording sessions, and each finished session is handed to a background
// worker that transcribes, post-processes, and types the result.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"holdtype/internal/audio"
	"holdtype/internal/config"
	"holdtype/internal/correct"
	"holdtype/internal/inject"
	"holdtype/internal/report"
	"holdtype/internal/textproc"
	"holdtype/internal/transcribe"
	"holdtype/internal/trigger"

	"github.com/sirupsen/logrus"
)

// Recorder abstracts the audio capture manager so the pipeline is testable
// without a microphone.
type Recorder interface {
	Start() error
	Stop(force bool) error
	BeginRecording()
	EndRecording() [][]byte
	Discard()
	Recording() bool
	SampleRate() int
	SetContinuous(enabled bool)
	Continuous() bool
	Close() error
}

// Deps lets callers (and tests) substitute pipeline collaborators. Nil
// fields get real implementations built from the configuration.
type Deps struct {
	Recorder  Recorder
	Provider  transcribe.Provider
	Corrector correct.Corrector
	Typer     inject.Typer
	Source    trigger.Source
}

// Service supervises the trigger monitor, the recorder, and per-utterance
// workers.
type Service struct {
	logger   *logrus.Logger
	reporter *report.Reporter
	monitor  *trigger.Monitor

	rec       Recorder
	provider  transcribe.Provider
	corrector correct.Corrector
	typer     inject.Typer
	source    trigger.Source

	cfgMu sync.Mutex
	cfg   *config.Config

	pauseMu sync.Mutex
	paused  bool

	workers sync.WaitGroup
	stats   Stats

	resultMu sync.Mutex
	onResult func(text string)
}

// New wires a Service from configuration, filling in any collaborator the
// caller did not supply.
func New(cfg *config.Config, logger *logrus.Logger, reporter *report.Reporter, deps Deps) (*Service, error) {
	s := &Service{
		logger:    logger,
		reporter:  reporter,
		monitor:   trigger.NewMonitor(),
		cfg:       cfg,
		rec:       deps.Recorder,
		provider:  deps.Provider,
		corrector: deps.Corrector,
		typer:     deps.Typer,
		source:    deps.Source,
	}

	if s.rec == nil {
		s.rec = audio.NewManager(cfg.Audio.DeviceName, cfg.Audio.SampleRate, cfg.Audio.FrameMS, cfg.Audio.ContinuousListen, logger)
	}
	if s.provider == nil {
		p, err := transcribe.New(transcribe.Options{
			Backend:   cfg.Transcribe.Backend,
			Model:     cfg.Transcribe.Model,
			Prompt:    cfg.Transcribe.Prompt,
			BaseURL:   transcribe.NormalizeBaseURL(cfg.Transcribe.BaseURL),
			ModelPath: cfg.Transcribe.ModelPath,
			OpenAIKey: cfg.OpenAIKey(),
			GroqKey:   cfg.GroqKey(),
		})
		if err != nil {
			return nil, fmt.Errorf("transcription backend: %w", err)
		}
		s.provider = p
	}
	if s.corrector == nil && cfg.Correct.Enabled {
		c, err := correct.New(correct.Options{
			Backend:     cfg.Correct.Backend,
			Model:       cfg.Correct.Model,
			Prompt:      cfg.Correct.Prompt,
			HistorySize: cfg.Correct.HistorySize,
			OpenAIKey:   cfg.OpenAIKey(),
			GroqKey:     cfg.GroqKey(),
		})
		if err != nil {
			return nil, fmt.Errorf("correction backend: %w", err)
		}
		s.corrector = c
	}
	if s.typer == nil {
		s.typer = inject.NewRobotgoTyper()
	}
	if s.source == nil {
		s.source = trigger.NewHookSource(logger)
	}

	if err := s.applyTriggerConfig(cfg); err != nil {
		s.reporter.Error("trigger configuration", err)
	}
	return s, nil
}

// applyTriggerConfig pushes the trigger settings into the monitor. Each field
// is applied independently: a bad hotkey or mouse label keeps that field's
// previous value while the rest still take effect, so the other trigger path
// keeps working.
func (s *Service) applyTriggerConfig(cfg *config.Config) error {
	var errs []error
	if err := s.monitor.SetHotkey(cfg.Trigger.Hotkey); err != nil {
		errs = append(errs, err)
	}
	if err := s.monitor.SetMouseButton(cfg.Trigger.MouseButton); err != nil {
		errs = append(errs, err)
	}
	s.monitor.SetKeyboardEnabled(cfg.Trigger.KeyboardEnabled)
	s.monitor.SetMouseEnabled(cfg.Trigger.MouseEnabled)
	return errors.Join(errs...)
}

// Monitor exposes the trigger monitor for status reporting.
func (s *Service) Monitor() *trigger.Monitor { return s.monitor }

// Stats exposes the pipeline counters.
func (s *Service) Stats() *Stats { return &s.stats }

// Provider returns the active transcription backend.
func (s *Service) Provider() transcribe.Provider { return s.provider }

// SetResultHandler registers a callback invoked with each finished
// transcript, after post-processing and before injection.
func (s *Service) SetResultHandler(fn func(text string)) {
	s.resultMu.Lock()
	defer s.resultMu.Unlock()
	s.onResult = fn
}

// Run consumes trigger events until ctx is cancelled. On return all capture
// is stopped; in-flight workers get a short grace period and are otherwise
// abandoned.
func (s *Service) Run(ctx context.Context) error {
	cfg := s.snapshotConfig()
	if cfg.Audio.ContinuousListen {
		if err := s.rec.Start(); err != nil {
			s.reporter.Error("audio capture unavailable", err)
		}
	}
	if hint := s.monitor.Hint(); hint != "" {
		s.logger.Infof("ready: %s to dictate", hint)
	} else {
		s.logger.Warn("no trigger configured; dictation is unreachable until one is set")
	}

	events := make(chan trigger.Event, 64)
	sourceErr := make(chan error, 1)
	go func() {
		sourceErr <- s.source.Run(ctx, events)
	}()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case err := <-sourceErr:
			s.shutdown()
			if err != nil && ctx.Err() == nil {
				return fmt.Errorf("input hook: %w", err)
			}
			return ctx.Err()
		case ev := <-events:
			s.handleEvent(ev)
		}
	}
}

func (s *Service) handleEvent(ev trigger.Event) {
	if s.Paused() {
		return
	}
	rose, fell := s.monitor.Handle(ev)
	switch {
	case rose:
		s.startSession()
	case fell:
		s.endSession()
	}
}

// startSession opens recording on the false→true trigger edge. A capture
// failure reports and leaves the session closed; the next edge retries.
func (s *Service) startSession() {
	if err := s.rec.Start(); err != nil {
		s.reporter.Error("cannot start audio capture", err)
		return
	}
	s.rec.BeginRecording()
	s.stats.sessions.Add(1)
	s.logger.Debug("recording started")
}

// endSession drains the buffer on the true→false edge and hands it to a
// fresh worker goroutine.
func (s *Service) endSession() {
	if !s.rec.Recording() {
		return
	}
	chunks := s.rec.EndRecording()
	if err := s.rec.Stop(false); err != nil {
		s.logger.Warnf("stop capture: %v", err)
	}
	s.logger.Debugf("recording stopped (%d chunks)", len(chunks))

	s.workers.Add(1)
	go s.transcribeWorker(chunks)
}

// transcribeWorker runs one utterance through the full pipeline. Any panic
// or provider failure is reported and the utterance dropped; the service
// itself never stops because one utterance failed.
func (s *Service) transcribeWorker(chunks [][]byte) {
	defer s.workers.Done()
	defer func() {
		if r := recover(); r != nil {
			s.stats.errors.Add(1)
			s.reporter.Errorf("transcription worker panic: %v", r)
		}
	}()

	pcm := bytes.Join(chunks, nil)
	if len(pcm) == 0 {
		s.logger.Debug("empty recording, nothing to transcribe")
		return
	}

	cfg := s.snapshotConfig()
	minSamples := cfg.Audio.SampleRate * cfg.Silence.MinDurationMS / 1000
	if audio.IsSilence(pcm, cfg.Silence.PeakThreshold, minSamples) {
		s.stats.skippedSilence.Add(1)
		s.logger.Debug("recording below silence threshold, skipping")
		return
	}
	if cfg.VAD.Enabled {
		voiced, err := audio.HasVoice(pcm, cfg.Audio.SampleRate, cfg.VAD.Aggressiveness)
		if err != nil {
			s.logger.Warnf("vad: %v", err)
		} else if !voiced {
			s.stats.skippedSilence.Add(1)
			s.logger.Debug("no voice activity detected, skipping")
			return
		}
	}

	wavData, err := audio.EncodeWAV(pcm, cfg.Audio.SampleRate)
	if err != nil {
		s.stats.errors.Add(1)
		s.reporter.Error("encode recording", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	started := time.Now()
	text, err := s.provider.Transcribe(ctx, wavData)
	if err != nil {
		s.stats.errors.Add(1)
		s.reporter.Error("transcription failed", err)
		return
	}
	s.stats.transcribed.Add(1)
	s.logger.WithFields(logrus.Fields{
		"backend":  s.provider.Name(),
		"duration": time.Since(started).Round(time.Millisecond).String(),
	}).Infof("transcript: %q", text)

	if s.corrector != nil {
		corrected, err := s.corrector.Correct(ctx, text)
		if err != nil {
			// Correction is best-effort: keep the raw transcript.
			s.logger.Warnf("correction failed, using raw transcript: %v", err)
		} else {
			if corrected != text {
				s.stats.corrected.Add(1)
			}
			text = corrected
		}
	}

	if cfg.Text.ChineseConversion != "" {
		converted, err := textproc.ConvertChinese(text, cfg.Text.ChineseConversion)
		if err != nil {
			s.logger.Warnf("chinese conversion failed: %v", err)
		} else {
			text = converted
		}
	}

	text = textproc.ProcessTranscript(text)
	if text == "" {
		s.logger.Debug("transcript empty after processing")
		return
	}

	s.notifyResult(text)

	if err := s.typer.Type(text); err != nil {
		s.stats.errors.Add(1)
		s.reporter.Error("keystroke injection failed", err)
		return
	}
	s.stats.typedChars.Add(int64(len(text)))
	s.stats.injected.Add(1)
}

func (s *Service) notifyResult(text string) {
	s.resultMu.Lock()
	fn := s.onResult
	s.resultMu.Unlock()
	if fn != nil {
		fn(text)
	}
}

// Pause suspends dictation: any in-flight recording is discarded without
// transcription and non-continuous capture is torn down.
func (s *Service) Pause() {
	s.pauseMu.Lock()
	already := s.paused
	s.paused = true
	s.pauseMu.Unlock()
	if already {
		return
	}

	s.monitor.Reset()
	s.rec.Discard()
	if !s.rec.Continuous() {
		if err := s.rec.Stop(true); err != nil {
			s.logger.Warnf("stop capture on pause: %v", err)
		}
	}
	s.logger.Info("dictation paused")
}

// Resume re-enables dictation, restoring continuous capture if configured.
func (s *Service) Resume() {
	s.pauseMu.Lock()
	wasPaused := s.paused
	s.paused = false
	s.pauseMu.Unlock()
	if !wasPaused {
		return
	}

	if s.rec.Continuous() {
		if err := s.rec.Start(); err != nil {
			s.reporter.Error("restart audio capture", err)
		}
	}
	s.logger.Info("dictation resumed")
}

// Paused reports whether dictation is suspended.
func (s *Service) Paused() bool {
	s.pauseMu.Lock()
	defer s.pauseMu.Unlock()
	return s.paused
}

// ApplyRuntime re-applies mutable settings to the running service: trigger
// configuration, enable flags, and continuous-listen mode. Backend changes
// require a restart and are ignored here. A bad trigger field does not stop
// the remaining settings from being applied; the accumulated errors are
// returned for the caller to surface.
func (s *Service) ApplyRuntime(cfg *config.Config) error {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()

	triggerErr := s.applyTriggerConfig(cfg)
	s.rec.SetContinuous(cfg.Audio.ContinuousListen)
	if cfg.Audio.ContinuousListen && !s.Paused() {
		if err := s.rec.Start(); err != nil {
			s.logger.Warnf("start continuous capture: %v", err)
		}
	}
	s.logger.Info("runtime configuration reloaded")
	return triggerErr
}

func (s *Service) snapshotConfig() *config.Config {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	return s.cfg
}

// shutdown force-stops capture and gives workers a short grace period.
// Workers that outlive it are abandoned; their provider timeouts bound them.
func (s *Service) shutdown() {
	if s.rec.Recording() {
		s.rec.Discard()
	}
	if err := s.rec.Close(); err != nil {
		s.logger.Warnf("close audio: %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		s.logger.Warn("abandoning in-flight transcription workers")
	}
}
