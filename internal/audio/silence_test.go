package audio

import (
	"encoding/binary"
	"testing"
)

const (
	testThreshold  = 300
	testMinSamples = 1600 // ~0.1s at 16 kHz
)

func TestAllZeroBuffersAreSilence(t *testing.T) {
	for _, n := range []int{0, 10, 1600, 16000, 64000} {
		buf := make([]byte, n)
		if !IsSilence(buf, testThreshold, testMinSamples) {
			t.Fatalf("all-zero buffer of %d bytes classified as speech", n)
		}
	}
}

func TestShortBuffersAreSilence(t *testing.T) {
	// Loud but shorter than the minimum duration.
	buf := make([]byte, testMinSamples*2-2)
	for i := 0; i+1 < len(buf); i += 2 {
		binary.LittleEndian.PutUint16(buf[i:], uint16(int16(30000)))
	}
	if !IsSilence(buf, testThreshold, testMinSamples) {
		t.Fatalf("sub-minimum buffer must always be silence")
	}
}

func TestLoudSampleIsNeverSilence(t *testing.T) {
	buf := make([]byte, testMinSamples*2)
	// Single sample exactly at the threshold.
	binary.LittleEndian.PutUint16(buf[800:], uint16(int16(testThreshold)))
	if IsSilence(buf, testThreshold, testMinSamples) {
		t.Fatalf("peak at threshold must not be silence")
	}
	// Negative peak counts too.
	buf2 := make([]byte, testMinSamples*2)
	binary.LittleEndian.PutUint16(buf2[0:], uint16(int16(-20000)))
	if IsSilence(buf2, testThreshold, testMinSamples) {
		t.Fatalf("negative peak must not be silence")
	}
}

func TestQuietBufferIsSilence(t *testing.T) {
	buf := make([]byte, testMinSamples*4)
	for i := 0; i+1 < len(buf); i += 2 {
		binary.LittleEndian.PutUint16(buf[i:], uint16(int16(testThreshold-1)))
	}
	if !IsSilence(buf, testThreshold, testMinSamples) {
		t.Fatalf("below-threshold buffer should be silence")
	}
}
