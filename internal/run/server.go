package run

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"holdtype/internal/config"
	"holdtype/internal/control"
	"holdtype/internal/lock"
	"holdtype/internal/report"
	"holdtype/internal/service"

	"github.com/sirupsen/logrus"
)

// Server owns the control socket, metrics endpoint, and transcript tail
// around a running dictation service.
type Server struct {
	cfg       *config.Config
	logger    *logrus.Logger
	svc       *service.Service
	startedAt time.Time

	transcriptsMu sync.Mutex
	transcripts   []control.Transcript
}

// Serve runs the daemon until interrupted. It returns lock.ErrTakeoverTimeout
// unchanged so the caller can map it to the "already running" exit path.
func Serve(cfg *config.Config, logger *logrus.Logger) error {
	if err := config.MustStatePaths(cfg); err != nil {
		return err
	}

	fl := lock.New(cfg.Lock.Name,
		lock.WithWait(time.Duration(cfg.Lock.WaitSec*float64(time.Second))),
		lock.WithPoll(time.Duration(cfg.Lock.PollMS)*time.Millisecond),
		lock.WithBootTolerance(cfg.Lock.BootToleranceSec),
		lock.WithLogger(logger),
	)
	if err := fl.Acquire(); err != nil {
		return err
	}
	defer fl.Release()

	if err := os.Remove(cfg.Paths.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debugf("remove stale socket: %v", err)
	}

	reporter, err := report.New(logger, cfg.Notify.Command)
	if err != nil {
		return err
	}
	svc, err := service.New(cfg, logger, reporter, service.Deps{})
	if err != nil {
		return err
	}

	srv := &Server{
		cfg:         cfg,
		logger:      logger,
		svc:         svc,
		startedAt:   time.Now(),
		transcripts: make([]control.Transcript, 0, cfg.UI.StatusTail),
	}
	svc.SetResultHandler(srv.recordTranscript)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.controlLoop(ctx)

	if cfg.Metrics.Enabled {
		go srv.metricsServe(ctx.Done(), cfg.Metrics.Addr)
	}

	svcErr := make(chan error, 1)
	go func() {
		svcErr <- svc.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case s := <-sigCh:
		logger.Infof("received signal %s, shutting down", s)
		cancel()
		<-svcErr
	case err := <-svcErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}

func (s *Server) recordTranscript(text string) {
	entry := control.Transcript{Text: text, Timestamp: time.Now()}

	s.transcriptsMu.Lock()
	s.transcripts = append(s.transcripts, entry)
	if len(s.transcripts) > s.cfg.UI.StatusTail {
		s.transcripts = s.transcripts[len(s.transcripts)-s.cfg.UI.StatusTail:]
	}
	s.transcriptsMu.Unlock()

	if !s.cfg.Transcripts.Enabled {
		return
	}
	f, err := os.OpenFile(s.cfg.Paths.TranscriptPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.logger.Warnf("open transcript file: %v", err)
		return
	}
	if _, err := fmt.Fprintf(f, "%s\t%s\n", entry.Timestamp.Format(time.RFC3339), entry.Text); err != nil {
		s.logger.Warnf("write transcript: %v", err)
	}
	_ = f.Close()
}

func (s *Server) copyTranscripts() []control.Transcript {
	s.transcriptsMu.Lock()
	defer s.transcriptsMu.Unlock()
	out := make([]control.Transcript, len(s.transcripts))
	copy(out, s.transcripts)
	return out
}

func (s *Server) controlLoop(ctx context.Context) {
	ln, err := net.Listen("unix", s.cfg.Paths.SocketPath)
	if err != nil {
		s.logger.Errorf("control listen: %v", err)
		return
	}
	defer func() {
		_ = ln.Close()
		_ = os.Remove(s.cfg.Paths.SocketPath)
	}()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Errorf("control accept: %v", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer func() {
		if err := conn.Close(); err != nil && ctx.Err() == nil {
			s.logger.Warnf("control connection close: %v", err)
		}
	}()
	sc := bufio.NewScanner(conn)
	if !sc.Scan() {
		return
	}
	var req control.Request
	if err := json.Unmarshal(sc.Bytes(), &req); err != nil {
		return
	}
	switch req.Op {
	case "status":
		stats := s.svc.Stats()
		resp := control.Status{
			Running:     true,
			Paused:      s.svc.Paused(),
			UptimeSec:   time.Since(s.startedAt).Seconds(),
			Backend:     s.svc.Provider().Name(),
			Trigger:     s.svc.Monitor().Hint(),
			Sessions:    stats.Sessions(),
			Transcribed: stats.Transcribed(),
			Skipped:     stats.SkippedSilence(),
			Errors:      stats.Errors(),
			Transcripts: s.copyTranscripts(),
		}
		_ = json.NewEncoder(conn).Encode(resp)
	case "health":
		_ = json.NewEncoder(conn).Encode(control.SimpleResponse{OK: true, Message: "ok"})
	case "pause":
		s.svc.Pause()
		_ = json.NewEncoder(conn).Encode(control.SimpleResponse{OK: true, Message: "paused"})
	case "resume":
		s.svc.Resume()
		_ = json.NewEncoder(conn).Encode(control.SimpleResponse{OK: true, Message: "resumed"})
	case "reload":
		resp := s.reload()
		_ = json.NewEncoder(conn).Encode(resp)
	default:
		_ = json.NewEncoder(conn).Encode(control.SimpleResponse{OK: false, Message: fmt.Sprintf("unknown op %q", req.Op)})
	}
}

// reload re-reads the config file and applies the runtime-mutable subset.
func (s *Server) reload() control.SimpleResponse {
	cfg, err := config.Load(s.cfg.Paths.ConfigPath)
	if err != nil {
		return control.SimpleResponse{OK: false, Message: err.Error()}
	}
	if err := s.svc.ApplyRuntime(cfg); err != nil {
		return control.SimpleResponse{OK: false, Message: err.Error()}
	}
	s.transcriptsMu.Lock()
	s.cfg.Trigger = cfg.Trigger
	s.cfg.Audio = cfg.Audio
	s.cfg.Silence = cfg.Silence
	s.cfg.Text = cfg.Text
	s.transcriptsMu.Unlock()
	return control.SimpleResponse{OK: true, Message: "configuration reloaded"}
}
