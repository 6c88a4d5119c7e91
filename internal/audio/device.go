package audio

import (
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Device describes one input device for the mic list command.
type Device struct {
	Index     int     `json:"index"`
	Name      string  `json:"name"`
	Channels  int     `json:"channels"`
	LatencyMs float64 `json:"latency_ms"`
	Default   bool    `json:"default"`
}

func selectDevice(preferred string) (*portaudio.DeviceInfo, error) {
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	if preferred != "" {
		for _, d := range devs {
			if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), strings.ToLower(preferred)) {
				return d, nil
			}
		}
	}
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		return def, nil
	}
	for _, d := range devs {
		if d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no input devices found")
}

// ListInputDevices enumerates input-capable devices. The caller owns the
// PortAudio init/terminate pair.
func ListInputDevices() ([]Device, error) {
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()
	out := []Device{}
	for i, d := range devs {
		if d.MaxInputChannels < 1 {
			continue
		}
		out = append(out, Device{
			Index:     i,
			Name:      d.Name,
			Channels:  d.MaxInputChannels,
			LatencyMs: d.DefaultLowInputLatency.Seconds() * 1000,
			Default:   def != nil && d.Name == def.Name,
		})
	}
	return out, nil
}
