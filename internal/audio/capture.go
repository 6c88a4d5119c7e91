// Package audio owns the microphone stream lifecycle and the utterance
// buffer, plus the WAV codec and silence heuristics used by the
// transcription pipeline.
package audio

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

// Manager captures microphone audio into an utterance buffer. The PortAudio
// callback thread appends to the buffer while recording is on; the hook
// thread that ends a session swaps the buffer out under the same lock.
// The stream handle has its own lock so concurrent start/stop attempts
// serialize without blocking the audio callback.
type Manager struct {
	logger     *logrus.Logger
	deviceName string
	sampleRate int
	frameSize  int

	streamMu    sync.Mutex
	stream      *portaudio.Stream
	initialized bool
	continuous  bool

	mu        sync.Mutex
	recording bool
	chunks    [][]byte
}

// NewManager builds a Manager. PortAudio is initialized lazily on the first
// Start so construction stays cheap and testable.
func NewManager(deviceName string, sampleRate, frameMS int, continuous bool, logger *logrus.Logger) *Manager {
	if frameMS <= 0 {
		frameMS = 20
	}
	return &Manager{
		logger:     logger,
		deviceName: deviceName,
		sampleRate: sampleRate,
		frameSize:  sampleRate * frameMS / 1000,
		continuous: continuous,
	}
}

// SampleRate returns the configured capture rate.
func (m *Manager) SampleRate() int { return m.sampleRate }

// SetContinuous switches continuous-listen mode. Opening or closing the
// stream to match the new mode is the caller's decision.
func (m *Manager) SetContinuous(enabled bool) {
	m.streamMu.Lock()
	m.continuous = enabled
	m.streamMu.Unlock()
}

// Continuous reports whether the stream is kept open between utterances.
func (m *Manager) Continuous() bool {
	m.streamMu.Lock()
	defer m.streamMu.Unlock()
	return m.continuous
}

// Start opens the microphone stream. Idempotent: a second Start while the
// stream is live is a no-op.
func (m *Manager) Start() error {
	m.streamMu.Lock()
	defer m.streamMu.Unlock()
	if m.stream != nil {
		return nil
	}
	if !m.initialized {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("portaudio init: %w", err)
		}
		m.initialized = true
	}
	dev, err := selectDevice(m.deviceName)
	if err != nil {
		return err
	}
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(m.sampleRate),
		FramesPerBuffer: m.frameSize,
	}, m.onBlock)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("start stream: %w", err)
	}
	m.stream = stream
	m.logger.Debugf("capture stream open on %q @ %d Hz", dev.Name, m.sampleRate)
	return nil
}

// onBlock runs on the PortAudio callback thread. The incoming slice is reused
// by the driver, so blocks are copied before they reach the buffer.
func (m *Manager) onBlock(in []int16) {
	m.mu.Lock()
	if m.recording {
		block := make([]byte, len(in)*2)
		for i, s := range in {
			binary.LittleEndian.PutUint16(block[2*i:], uint16(s))
		}
		m.chunks = append(m.chunks, block)
	}
	m.mu.Unlock()
}

// Stop tears the stream down. In continuous-listen mode a non-forced stop is
// a no-op so the next utterance starts without device-open latency.
func (m *Manager) Stop(force bool) error {
	m.streamMu.Lock()
	defer m.streamMu.Unlock()
	if !force && m.continuous {
		return nil
	}
	return m.closeStreamLocked()
}

func (m *Manager) closeStreamLocked() error {
	stream := m.stream
	m.stream = nil
	if stream == nil {
		return nil
	}
	if err := stream.Stop(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("stop stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("close stream: %w", err)
	}
	return nil
}

// BeginRecording resets the buffer and raises the recording flag.
func (m *Manager) BeginRecording() {
	m.mu.Lock()
	m.recording = true
	m.chunks = nil
	m.mu.Unlock()
}

// EndRecording lowers the recording flag and swaps out the captured chunks.
func (m *Manager) EndRecording() [][]byte {
	m.mu.Lock()
	chunks := m.chunks
	m.chunks = nil
	m.recording = false
	m.mu.Unlock()
	return chunks
}

// Discard drops any in-flight buffer without handing it off.
func (m *Manager) Discard() {
	m.mu.Lock()
	m.chunks = nil
	m.recording = false
	m.mu.Unlock()
}

// Recording reports whether a session is currently open.
func (m *Manager) Recording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recording
}

// Close force-stops the stream and releases PortAudio.
func (m *Manager) Close() error {
	m.streamMu.Lock()
	defer m.streamMu.Unlock()
	err := m.closeStreamLocked()
	if m.initialized {
		if terr := portaudio.Terminate(); terr != nil && err == nil {
			err = fmt.Errorf("portaudio terminate: %w", terr)
		}
		m.initialized = false
	}
	return err
}
