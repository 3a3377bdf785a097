package ffmpeg

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/keagan/clipforge/internal/capture"
)

// DeviceKind classifies a capture source
type DeviceKind string

const (
	DeviceScreen     DeviceKind = "screen"
	DeviceCamera     DeviceKind = "camera"
	DeviceMicrophone DeviceKind = "microphone"
)

// Device is one capture source reported by avfoundation
type Device struct {
	Index int        `json:"index"`
	Name  string     `json:"name"`
	Kind  DeviceKind `json:"kind"`
}

// Devices groups the available sources
type Devices struct {
	Screens     []Device `json:"screens"`
	Cameras     []Device `json:"cameras"`
	Microphones []Device `json:"microphones"`
}

// Empty reports whether no device was found
func (d Devices) Empty() bool {
	return len(d.Screens)+len(d.Cameras)+len(d.Microphones) == 0
}

var deviceLine = regexp.MustCompile(`\]\s+\[(\d+)\]\s+(.+)$`)

// ListDevices enumerates screens, cameras and microphones via avfoundation.
// Failures wrap capture.ErrDeviceAccess.
func (e *Executor) ListDevices(ctx context.Context) (Devices, error) {
	out, err := e.output(ctx, "-f", "avfoundation", "-list_devices", "true", "-i", "")
	if err != nil {
		return Devices{}, fmt.Errorf("%w: %v", capture.ErrDeviceAccess, err)
	}

	devices := parseDeviceList(out)
	if devices.Empty() {
		return Devices{}, fmt.Errorf("%w: no capture devices reported", capture.ErrDeviceAccess)
	}

	e.logger.Debug().
		Int("screens", len(devices.Screens)).
		Int("cameras", len(devices.Cameras)).
		Int("microphones", len(devices.Microphones)).
		Msg("devices listed")
	return devices, nil
}

func parseDeviceList(out string) Devices {
	var devices Devices
	audio := false

	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.Contains(line, "video devices:"):
			audio = false
			continue
		case strings.Contains(line, "audio devices:"):
			audio = true
			continue
		}

		m := deviceLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		d := Device{Index: index, Name: strings.TrimSpace(m[2])}

		switch {
		case audio:
			d.Kind = DeviceMicrophone
			devices.Microphones = append(devices.Microphones, d)
		case strings.HasPrefix(d.Name, "Capture screen"):
			d.Kind = DeviceScreen
			devices.Screens = append(devices.Screens, d)
		default:
			d.Kind = DeviceCamera
			devices.Cameras = append(devices.Cameras, d)
		}
	}
	return devices
}
