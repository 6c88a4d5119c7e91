package audio

import "encoding/binary"

// IsSilence reports whether a raw 16-bit mono PCM buffer should skip
// transcription. A buffer is silence when it is empty, shorter than
// minSamples (too brief to contain speech), or its peak absolute amplitude
// stays below peakThreshold.
func IsSilence(raw []byte, peakThreshold, minSamples int) bool {
	if len(raw) == 0 {
		return true
	}
	if len(raw) < minSamples*2 {
		return true
	}
	peak := 0
	for i := 0; i+1 < len(raw); i += 2 {
		s := int(int16(binary.LittleEndian.Uint16(raw[i:])))
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak < peakThreshold
}
