package service

import "sync/atomic"

// Stats tracks pipeline counters. All fields are atomics; workers bump them
// concurrently and the metrics endpoint reads them without coordination.
type Stats struct {
	sessions       atomic.Int64
	transcribed    atomic.Int64
	skippedSilence atomic.Int64
	corrected      atomic.Int64
	injected       atomic.Int64
	typedChars     atomic.Int64
	errors         atomic.Int64
}

func (s *Stats) Sessions() int64       { return s.sessions.Load() }
func (s *Stats) Transcribed() int64    { return s.transcribed.Load() }
func (s *Stats) SkippedSilence() int64 { return s.skippedSilence.Load() }
func (s *Stats) Corrected() int64      { return s.corrected.Load() }
func (s *Stats) Injected() int64       { return s.injected.Load() }
func (s *Stats) TypedChars() int64     { return s.typedChars.Load() }
func (s *Stats) Errors() int64         { return s.errors.Load() }
