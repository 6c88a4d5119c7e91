package audio

import (
	"fmt"

	vad "github.com/maxhawkins/go-webrtcvad"
)

const vadFrameMS = 20

// HasVoice runs WebRTC VAD over the buffer and reports whether any full
// frame is classified as voiced. It is a stricter, optional gate layered on
// top of the peak-amplitude heuristic.
func HasVoice(pcm []byte, sampleRate, aggressiveness int) (bool, error) {
	v, err := vad.New()
	if err != nil {
		return false, fmt.Errorf("vad init: %w", err)
	}
	if err := v.SetMode(aggressiveness); err != nil {
		return false, fmt.Errorf("vad mode: %w", err)
	}
	frameSamples := sampleRate * vadFrameMS / 1000
	if !vad.ValidRateAndFrameLength(sampleRate, frameSamples) {
		return false, fmt.Errorf("unsupported vad rate/frame: %d Hz / %d samples", sampleRate, frameSamples)
	}
	frameBytes := frameSamples * 2
	for off := 0; off+frameBytes <= len(pcm); off += frameBytes {
		voiced, err := v.Process(sampleRate, pcm[off:off+frameBytes])
		if err != nil {
			return false, fmt.Errorf("vad process: %w", err)
		}
		if voiced {
			return true, nil
		}
	}
	return false, nil
}
