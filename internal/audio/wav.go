package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV wraps raw little-endian 16-bit mono PCM in a canonical WAV
// container at the given sample rate.
func EncodeWAV(pcm []byte, sampleRate int) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("pcm length %d is not 16-bit aligned", len(pcm))
	}
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}
	sb := &seekBuffer{}
	enc := wav.NewEncoder(sb, sampleRate, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("wav write: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("wav close: %w", err)
	}
	return sb.Bytes(), nil
}

// DecodeWAV extracts raw 16-bit PCM plus channel count and sample rate from a
// WAV container.
func DecodeWAV(data []byte) (pcm []byte, channels, sampleRate int, err error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wav decode: %w", err)
	}
	pcm = make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(s)))
	}
	return pcm, int(dec.NumChans), int(dec.SampleRate), nil
}

// DecodeWAVFloat32 returns normalized [-1, 1] samples, the input format for
// local whisper inference.
func DecodeWAVFloat32(data []byte) ([]float32, int, error) {
	pcm, _, rate, err := DecodeWAV(data)
	if err != nil {
		return nil, 0, err
	}
	out := make([]float32, len(pcm)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(pcm[2*i:]))) / 32768.0
	}
	return out, rate, nil
}

// seekBuffer is an in-memory io.WriteSeeker; the wav encoder seeks back to
// patch chunk sizes on Close.
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if need := s.pos + len(p); need > len(s.buf) {
		grown := make([]byte, need)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:], p)
	s.pos += len(p)
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = s.pos + int(offset)
	case io.SeekEnd:
		next = len(s.buf) + int(offset)
	default:
		return 0, fmt.Errorf("bad whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position %d", next)
	}
	s.pos = next
	return int64(next), nil
}

func (s *seekBuffer) Bytes() []byte { return s.buf }
